package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cinehub/backoffice/internal/upload"
	"github.com/cinehub/backoffice/internal/workbench"
)

// WorkbenchHandler exposes the per-admin translator workbench.
type WorkbenchHandler struct {
	manager        *workbench.Manager
	maxUploadBytes int64
}

func NewWorkbenchHandler(manager *workbench.Manager, maxUploadBytes int64) *WorkbenchHandler {
	return &WorkbenchHandler{manager: manager, maxUploadBytes: maxUploadBytes}
}

func (h *WorkbenchHandler) session(w http.ResponseWriter, r *http.Request) *workbench.Workbench {
	actor := actorFrom(r)
	if actor == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}
	return h.manager.Get(*actor)
}

// reply sends the state after an operation. Business-rule errors become
// success:false with their message; anything else is a logged fault.
func (h *WorkbenchHandler) reply(w http.ResponseWriter, wb *workbench.Workbench, err error, okMessage string, fields result) {
	if err != nil {
		msg, ok := workbench.Message(err)
		if !ok {
			fault(w, "workbench", "An unexpected error occurred", err)
			return
		}
		jsonResponse(w, result{"success": false, "message": msg, "state": wb.Snapshot()}, http.StatusOK)
		return
	}
	if fields == nil {
		fields = result{}
	}
	fields["state"] = wb.Snapshot()
	success(w, okMessage, fields)
}

func (h *WorkbenchHandler) State(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	h.reply(w, wb, nil, "", nil)
}

func (h *WorkbenchHandler) UploadMovie(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "movieFile", func(wb *workbench.Workbench, f upload.File) (interface{}, error) {
		return wb.UploadMovie(r.Context(), f)
	})
}

func (h *WorkbenchHandler) UploadSubtitle(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "subtitleFile", func(wb *workbench.Workbench, f upload.File) (interface{}, error) {
		return wb.UploadSubtitle(r.Context(), f)
	})
}

func (h *WorkbenchHandler) upload(w http.ResponseWriter, r *http.Request, field string, fn func(*workbench.Workbench, upload.File) (interface{}, error)) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reply(w, wb, upload.ErrFileTooLarge, "", nil)
			return
		}
		h.reply(w, wb, upload.ErrNoFile, "", nil)
		return
	}
	defer cleanupMultipart(r)

	f, handle, err := formFile(r, field)
	if err != nil {
		h.reply(w, wb, err, "", nil)
		return
	}
	if f == nil {
		h.reply(w, wb, upload.ErrNoFile, "", nil)
		return
	}
	defer handle.Close()

	asset, err := fn(wb, *f)
	if err != nil {
		h.reply(w, wb, err, "", nil)
		return
	}
	h.reply(w, wb, nil, "File uploaded successfully", result{"asset": asset})
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *WorkbenchHandler) EditOriginal(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	var req textRequest
	if !decodeText(w, r, &req) {
		return
	}
	wb.EditOriginalText(req.Text)
	h.reply(w, wb, nil, "", nil)
}

func (h *WorkbenchHandler) SetLanguages(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	var req struct {
		SourceLanguage string `json:"sourceLanguage"`
		TargetLanguage string `json:"targetLanguage"`
	}
	if err := decodeJSON(r, &req); err != nil {
		failure(w, "Invalid request")
		return
	}
	h.reply(w, wb, wb.SetLanguages(req.SourceLanguage, req.TargetLanguage), "", nil)
}

func (h *WorkbenchHandler) Swap(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	wb.SwapLanguages()
	h.reply(w, wb, nil, "Languages swapped successfully", nil)
}

func (h *WorkbenchHandler) StartTranslation(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	job, err := wb.StartTranslation()
	if err != nil {
		h.reply(w, wb, err, "", nil)
		return
	}
	h.reply(w, wb, nil, "Translating subtitles...", result{"job": job})
}

func (h *WorkbenchHandler) CancelTranslation(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	if !wb.CancelTranslation() {
		h.reply(w, wb, nil, "No translation is running", result{"cancelled": false})
		return
	}
	h.reply(w, wb, nil, "Translation cancelled", result{"cancelled": true})
}

func (h *WorkbenchHandler) EditTranslated(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	var req textRequest
	if !decodeText(w, r, &req) {
		return
	}
	h.reply(w, wb, wb.EditTranslatedText(req.Text), "Edits saved successfully", nil)
}

func (h *WorkbenchHandler) Format(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	text, err := wb.AutoFormat()
	if err != nil {
		h.reply(w, wb, err, "", nil)
		return
	}
	h.reply(w, wb, nil, "Text formatted successfully", result{"translatedText": text})
}

// Clear requires {"confirm": true} or ?confirm=true.
func (h *WorkbenchHandler) Clear(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	confirm := r.URL.Query().Get("confirm") == "true"
	if !confirm && r.ContentLength != 0 {
		var req struct {
			Confirm bool `json:"confirm"`
		}
		if err := decodeJSON(r, &req); err == nil {
			confirm = req.Confirm
		}
	}
	h.reply(w, wb, wb.ClearAll(confirm), "All data cleared", nil)
}

func (h *WorkbenchHandler) Download(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	exp, err := wb.Download(r.URL.Query().Get("format"))
	if err != nil {
		h.reply(w, wb, err, "", nil)
		return
	}
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(exp.Content)
}

// Notifications returns live notifications newer than ?since=.
func (h *WorkbenchHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	wb := h.session(w, r)
	if wb == nil {
		return
	}
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	feed := wb.Feed()
	success(w, "", result{
		"notifications": feed.Since(since),
		"lastSeq":       feed.LastSeq(),
	})
}
