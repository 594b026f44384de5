package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cinehub/backoffice/internal/api/middleware"
	"github.com/cinehub/backoffice/internal/upload"
)

// multipartMemory is the part of a multipart form kept in memory; larger
// files spill to temporary files.
const multipartMemory = 32 << 20

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": msg})
}

// result is the envelope of the translator endpoints. Business-rule
// failures are sent with status 200 and Success false.
type result map[string]interface{}

func success(w http.ResponseWriter, message string, fields result) {
	body := result{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	jsonResponse(w, body, http.StatusOK)
}

func failure(w http.ResponseWriter, message string) {
	jsonResponse(w, result{"success": false, "message": message}, http.StatusOK)
}

// fault logs err with its detail and sends only the generic message.
func fault(w http.ResponseWriter, component, message string, err error) {
	logFault(component, message, err)
	failure(w, message)
}

func logFault(component, message string, err error) {
	log.Printf("[%s] %s: %v", component, message, err)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// textBodyLimit bounds JSON bodies carrying subtitle text. Escaping newlines
// can double the size of an accepted subtitle upload.
const textBodyLimit = 2*subtitleLimit + 1<<20

// decodeText decodes a JSON body carrying subtitle text. An oversized body
// gets the failure envelope; ok is false once a response has been written.
func decodeText(w http.ResponseWriter, r *http.Request, v interface{}) (ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, textBodyLimit)
	err := decodeJSON(r, v)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		failure(w, "Subtitle text is too large")
		return false
	case err != nil:
		failure(w, "Invalid request")
		return false
	}
	return true
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// actorFrom identifies the admin behind the request. The address comes
// from chi's RealIP middleware.
func actorFrom(r *http.Request) *upload.Actor {
	claims := middleware.GetClaims(r)
	if claims == nil {
		return nil
	}
	return &upload.Actor{
		ID:        claims.UserID,
		Username:  claims.Username,
		IPAddress: r.RemoteAddr,
	}
}

// formFile returns the named multipart file. A missing field yields a nil
// file rather than an error. The caller must close the returned file.
func formFile(r *http.Request, field string) (*upload.File, multipart.File, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &upload.File{Name: header.Filename, Size: header.Size, Reader: f}, f, nil
}

// parseMultipart bounds the request body to limit and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return r.ParseMultipartForm(multipartMemory)
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}
