package translate

import (
	"context"
	"time"

	"github.com/cinehub/backoffice/internal/subtitle"
)

// mockSteps mirrors the stages the translator panel reports while waiting.
var mockSteps = []string{
	"Analyzing subtitle content",
	"Processing language patterns",
	"Applying AI translation",
	"Optimizing subtitle timing",
	"Finalizing translation",
}

// MockTranslator tags caption lines with the target language marker instead
// of translating them. Delay simulates the latency of a real engine and is
// spread evenly over the reported steps; zero disables it.
type MockTranslator struct {
	Delay time.Duration
}

func NewMockTranslator(delay time.Duration) *MockTranslator {
	return &MockTranslator{Delay: delay}
}

func (m *MockTranslator) Name() string {
	return "mock"
}

func (m *MockTranslator) Translate(ctx context.Context, lines []subtitle.Line, opts Options, updateProgress func(float64)) ([]subtitle.Line, error) {
	if updateProgress == nil {
		updateProgress = func(float64) {}
	}

	if m.Delay > 0 {
		step := m.Delay / time.Duration(len(mockSteps))
		for i := range mockSteps {
			updateProgress(float64(i) / float64(len(mockSteps)))
			timer := time.NewTimer(step)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := TranslateLines(lines, opts.TargetLang)
	updateProgress(1.0)
	return out, nil
}

// TranslateLines is the deterministic core of the mock engine. The source
// language never affects the result.
func TranslateLines(lines []subtitle.Line, targetLang string) []subtitle.Line {
	tag := "[" + Tag(targetLang) + "] "
	out := make([]subtitle.Line, len(lines))
	for i, l := range lines {
		if l.Kind == subtitle.Caption {
			l.Text = tag + l.Text
		}
		out[i] = l
	}
	return out
}

// StepLabel returns the panel label for a progress fraction.
func StepLabel(progress float64) string {
	i := int(progress * float64(len(mockSteps)))
	if i < 0 {
		i = 0
	}
	if i >= len(mockSteps) {
		return "Translation complete"
	}
	return mockSteps[i] + "..."
}
