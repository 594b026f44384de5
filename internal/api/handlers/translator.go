package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/subtitle/translate"
	"github.com/cinehub/backoffice/internal/upload"
	"github.com/cinehub/backoffice/internal/workbench"
)

// TranslatorHandler serves the stateless translator endpoints.
type TranslatorHandler struct {
	gateway    *upload.Gateway
	translator *translate.Service
	activity   activity.Recorder
}

func NewTranslatorHandler(gateway *upload.Gateway, translator *translate.Service, rec activity.Recorder) *TranslatorHandler {
	return &TranslatorHandler{gateway: gateway, translator: translator, activity: rec}
}

// Index returns the panel's language choices and engines.
func (h *TranslatorHandler) Index(w http.ResponseWriter, r *http.Request) {
	logAccess(h.activity, r, "Accessed Subtitle Translator")

	langs := make([]map[string]string, 0, len(translate.Languages))
	for _, code := range translate.Languages {
		langs = append(langs, map[string]string{"code": code, "name": translate.LangName(code)})
	}
	success(w, "", result{
		"languages":    langs,
		"engines":      h.translator.Engines(),
		"engine":       h.translator.EngineName(),
		"maxMovieSize": h.gateway.MaxMovieSize(),
	})
}

func (h *TranslatorHandler) UploadMovieFile(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope on top of the file itself.
	if err := parseMultipart(w, r, h.gateway.MaxMovieSize()+1<<20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			failure(w, h.tooLargeMessage())
			return
		}
		failure(w, "No file selected")
		return
	}
	defer cleanupMultipart(r)

	f, handle, err := formFile(r, "movieFile")
	if err != nil {
		fault(w, "translator", "An error occurred while uploading the file", err)
		return
	}
	if f == nil {
		failure(w, "No file selected")
		return
	}
	defer handle.Close()

	asset, err := h.gateway.UploadMovie(r.Context(), actorFrom(r), *f)
	switch {
	case errors.Is(err, upload.ErrNoFile):
		failure(w, "No file selected")
	case errors.Is(err, upload.ErrInvalidFileType):
		failure(w, "Invalid file type. Please upload a video file.")
	case errors.Is(err, upload.ErrFileTooLarge):
		failure(w, h.tooLargeMessage())
	case err != nil:
		fault(w, "translator", "An error occurred while uploading the file", err)
	default:
		success(w, "Movie file uploaded successfully", result{
			"fileName": asset.FileName,
			"filePath": asset.StoredPath,
			"fileSize": asset.SizeBytes,
		})
	}
}

func (h *TranslatorHandler) tooLargeMessage() string {
	if h.gateway.MaxMovieSize() == upload.MaxMovieSize {
		msg, _ := workbench.Message(upload.ErrFileTooLarge)
		return msg
	}
	return fmt.Sprintf("File size too large. Maximum size is %s.", humanize.IBytes(uint64(h.gateway.MaxMovieSize())))
}

func (h *TranslatorHandler) UploadSubtitleFile(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, subtitleLimit); err != nil {
		failure(w, "No subtitle file selected")
		return
	}
	defer cleanupMultipart(r)

	f, handle, err := formFile(r, "subtitleFile")
	if err != nil {
		fault(w, "translator", "An error occurred while uploading the subtitle file", err)
		return
	}
	if f == nil {
		failure(w, "No subtitle file selected")
		return
	}
	defer handle.Close()

	asset, err := h.gateway.UploadSubtitle(r.Context(), actorFrom(r), *f)
	switch {
	case errors.Is(err, upload.ErrNoFile):
		failure(w, "No subtitle file selected")
	case errors.Is(err, upload.ErrInvalidFileType):
		failure(w, "Invalid file type. Please upload a subtitle file (.srt, .vtt, .ass, .ssa, .sub).")
	case err != nil:
		fault(w, "translator", "An error occurred while uploading the subtitle file", err)
	default:
		success(w, "Subtitle file uploaded successfully", result{
			"fileName":         asset.FileName,
			"content":          asset.Content,
			"detectedLanguage": asset.DetectedLanguage,
		})
	}
}

// subtitleLimit bounds subtitle uploads, which are decoded in memory.
const subtitleLimit = 20 << 20

type translateRequest struct {
	OriginalText   string `json:"originalText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// TranslateSubtitle runs the engine synchronously; the request context
// cancels it.
func (h *TranslatorHandler) TranslateSubtitle(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeText(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OriginalText) == "" {
		msg, _ := workbench.Message(workbench.ErrEmptyInput)
		failure(w, msg)
		return
	}
	if req.SourceLanguage == req.TargetLanguage {
		msg, _ := workbench.Message(workbench.ErrSameLanguage)
		failure(w, msg)
		return
	}

	translated, err := h.translator.TranslateText(r.Context(), req.OriginalText, req.SourceLanguage, req.TargetLanguage, nil)
	if err != nil {
		fault(w, "translator", "Translation failed", err)
		return
	}

	if actor := actorFrom(r); actor != nil && h.activity != nil {
		h.activity.Log(activity.Entry{
			UserID:      actor.ID,
			Type:        activity.TypeSubtitleTranslation,
			Description: fmt.Sprintf("Translated subtitle from %s to %s", req.SourceLanguage, req.TargetLanguage),
			IPAddress:   actor.IPAddress,
		})
	}

	success(w, "", result{
		"translatedText": translated,
		"sourceLanguage": req.SourceLanguage,
		"targetLanguage": req.TargetLanguage,
	})
}
