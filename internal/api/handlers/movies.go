package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinehub/backoffice/internal/db"
	"github.com/cinehub/backoffice/internal/movies"
	"github.com/cinehub/backoffice/internal/upload"
)

type MovieHandler struct {
	movies   *movies.Service
	maxBytes int64
}

// NewMovieHandler accepts multipart bodies up to maxBytes.
func NewMovieHandler(svc *movies.Service, maxBytes int64) *MovieHandler {
	return &MovieHandler{movies: svc, maxBytes: maxBytes}
}

func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.movies.List(r.Context())
	if err != nil {
		fault500(w, "failed to list movies", err)
		return
	}
	jsonResponse(w, list, http.StatusOK)
}

func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		jsonError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}
	m, err := h.movies.Get(r.Context(), id)
	if db.IsNotFound(err) {
		jsonError(w, "movie not found", http.StatusNotFound)
		return
	}
	if err != nil {
		fault500(w, "failed to load movie", err)
		return
	}
	jsonResponse(w, m, http.StatusOK)
}

func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, files, closeFiles, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer closeFiles()

	m, err := h.movies.Create(r.Context(), actorFrom(r), in, files)
	if err != nil {
		h.writeError(w, "Error adding movie", err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"success": true,
		"message": "Movie added successfully!",
		"movie":   m,
	}, http.StatusCreated)
}

func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		jsonError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}
	in, files, closeFiles, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer closeFiles()

	m, err := h.movies.Update(r.Context(), actorFrom(r), id, in, files)
	if err != nil {
		h.writeError(w, "Error updating movie", err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"success": true,
		"message": "Movie updated successfully!",
		"movie":   m,
	}, http.StatusOK)
}

func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		jsonError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}
	if err := h.movies.Delete(r.Context(), actorFrom(r), id); err != nil {
		h.writeError(w, "Error deleting movie", err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"success": true,
		"message": "Movie deleted successfully!",
	}, http.StatusOK)
}

// readForm parses the movie form: title, description, genre, release_year
// and the optional movieFile, thumbnailFile and subtitleFile parts.
func (h *MovieHandler) readForm(w http.ResponseWriter, r *http.Request) (movies.Input, movies.Files, func(), bool) {
	var in movies.Input
	var files movies.Files
	noop := func() {}

	if err := parseMultipart(w, r, h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request too large", http.StatusRequestEntityTooLarge)
			return in, files, noop, false
		}
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return in, files, noop, false
	}

	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")
	in.Genre = r.FormValue("genre")
	if v := strings.TrimSpace(r.FormValue("release_year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			cleanupMultipart(r)
			jsonError(w, "invalid release year", http.StatusBadRequest)
			return in, files, noop, false
		}
		in.ReleaseYear = year
	}

	var open []multipart.File
	closeAll := func() {
		for _, f := range open {
			f.Close()
		}
		cleanupMultipart(r)
	}
	for field, dst := range map[string]**upload.File{
		"movieFile":     &files.Video,
		"thumbnailFile": &files.Thumbnail,
		"subtitleFile":  &files.Subtitle,
	} {
		f, handle, err := formFile(r, field)
		if err != nil {
			closeAll()
			jsonError(w, "invalid "+field, http.StatusBadRequest)
			return in, files, noop, false
		}
		if f != nil {
			open = append(open, handle)
			*dst = f
		}
	}
	return in, files, closeAll, true
}

func (h *MovieHandler) writeError(w http.ResponseWriter, prefix string, err error) {
	switch {
	case db.IsNotFound(err):
		jsonError(w, "movie not found", http.StatusNotFound)
	case errors.Is(err, movies.ErrTitleRequired), errors.Is(err, movies.ErrInvalidYear),
		errors.Is(err, upload.ErrInvalidFileType), errors.Is(err, upload.ErrFileTooLarge):
		jsonError(w, "Invalid input: "+err.Error(), http.StatusBadRequest)
	default:
		fault500(w, prefix, err)
	}
}
