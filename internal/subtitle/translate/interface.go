package translate

import (
	"context"

	"github.com/cinehub/backoffice/internal/subtitle"
)

// Options configures translation behavior
type Options struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// Translator is the common interface for all translation engines
type Translator interface {
	// Translate translates classified subtitle lines. Index, timing and blank
	// lines are returned untouched.
	Translate(ctx context.Context, lines []subtitle.Line, opts Options, updateProgress func(float64)) ([]subtitle.Line, error)
	// Name returns the engine name
	Name() string
}
