package workbench

import (
	"errors"

	"github.com/cinehub/backoffice/internal/upload"
)

var (
	ErrEmptyInput            = errors.New("subtitle text is empty")
	ErrSameLanguage          = errors.New("source and target languages are the same")
	ErrTranslationInProgress = errors.New("translation already in progress")
	ErrNothingToDownload     = errors.New("no translated text to download")
	ErrNotTranslated         = errors.New("no translation has completed yet")
	ErrNothingToFormat       = errors.New("no translated text to format")
	ErrConfirmationRequired  = errors.New("confirmation required")
	ErrUnsupportedLanguage   = errors.New("unsupported language")
	ErrUnsupportedFormat     = errors.New("unsupported download format")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrEmptyInput, "Please upload a subtitle file first"},
	{ErrSameLanguage, "Source and target languages cannot be the same"},
	{ErrTranslationInProgress, "Translation is already in progress"},
	{ErrNothingToDownload, "No translated text to download"},
	{ErrNotTranslated, "No translated text to save"},
	{ErrNothingToFormat, "No text to format"},
	{ErrConfirmationRequired, "Please confirm this action"},
	{ErrUnsupportedLanguage, "Unsupported language"},
	{ErrUnsupportedFormat, "Unsupported download format"},
	{upload.ErrNoFile, "No file selected"},
	{upload.ErrNotMovie, "Invalid file type. Please upload a video file."},
	{upload.ErrNotSubtitle, "Invalid file type. Please upload a subtitle file (.srt, .vtt, .ass, .ssa, .sub)."},
	{upload.ErrInvalidFileType, "Invalid file type"},
	{upload.ErrFileTooLarge, "File size too large. Maximum size is 2GB."},
}

// Message returns the user-facing text for a business-rule error. ok is
// false for anything else, which callers treat as an internal fault.
func Message(err error) (msg string, ok bool) {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg, true
		}
	}
	return "", false
}
