package handlers

import (
	"errors"
	"net/http"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/notify"
)

// NoteHandler serves the shared translator note.
type NoteHandler struct {
	notes    *notify.NoteStore
	activity activity.Recorder
}

func NewNoteHandler(notes *notify.NoteStore, rec activity.Recorder) *NoteHandler {
	return &NoteHandler{notes: notes, activity: rec}
}

func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		failure(w, "Invalid request")
		return
	}

	note, err := h.notes.Save(r.Context(), req.Note)
	if errors.Is(err, notify.ErrEmptyNote) {
		failure(w, "Please enter a note before saving")
		return
	}
	if err != nil {
		fault(w, "notes", "Failed to save note", err)
		return
	}

	if actor := actorFrom(r); actor != nil && h.activity != nil {
		h.activity.Log(activity.Entry{
			UserID:      actor.ID,
			Type:        activity.TypeTranslationNote,
			Description: "Saved translation note",
			IPAddress:   actor.IPAddress,
		})
	}
	success(w, "Note saved successfully", result{"note": note})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, ok, err := h.notes.Load(r.Context())
	if err != nil {
		fault(w, "notes", "Failed to load note", err)
		return
	}
	success(w, "", result{"note": note, "exists": ok})
}

// Clear requires ?confirm=true.
func (h *NoteHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		failure(w, "Please confirm clearing the note")
		return
	}
	if err := h.notes.Clear(r.Context()); err != nil {
		fault(w, "notes", "Failed to clear note", err)
		return
	}
	success(w, "Notes cleared", nil)
}
