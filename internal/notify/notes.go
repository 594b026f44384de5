package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// NoteKey is the settings key holding the translator panel note. It is shared
// by all admins.
const NoteKey = "translatorAdminNotes"

var ErrEmptyNote = errors.New("note is empty")

// SettingsStore is the key/value persistence the note lives in.
type SettingsStore interface {
	LookupSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// NoteStore persists the single free-text admin note.
type NoteStore struct {
	settings SettingsStore
	key      string
}

func NewNoteStore(settings SettingsStore) *NoteStore {
	return &NoteStore{settings: settings, key: NoteKey}
}

// Save replaces the stored note with the trimmed text. A blank note is
// rejected and leaves the stored value alone.
func (n *NoteStore) Save(ctx context.Context, text string) (string, error) {
	note := strings.TrimSpace(text)
	if note == "" {
		return "", ErrEmptyNote
	}
	if err := n.settings.SetSetting(ctx, n.key, note); err != nil {
		return "", fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

// Load returns the stored note; ok is false when none exists.
func (n *NoteStore) Load(ctx context.Context) (note string, ok bool, err error) {
	note, ok, err = n.settings.LookupSetting(ctx, n.key)
	if err != nil {
		return "", false, fmt.Errorf("load note: %w", err)
	}
	return note, ok, nil
}

// Clear removes the note. Clearing a missing note is not an error.
func (n *NoteStore) Clear(ctx context.Context) error {
	if err := n.settings.DeleteSetting(ctx, n.key); err != nil {
		return fmt.Errorf("clear note: %w", err)
	}
	return nil
}
