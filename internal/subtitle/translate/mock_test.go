package translate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehub/backoffice/internal/subtitle"
)

const srt = "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"

func TestTag(t *testing.T) {
	assert.Equal(t, "VI", Tag("vi"))
	assert.Equal(t, "JP", Tag("ja"))
	assert.Equal(t, "KO", Tag("ko"))
	assert.Equal(t, "EN", Tag("en"))
	assert.Equal(t, "EN", Tag("xx"))
	// Matching is exact; callers canonicalize first.
	assert.Equal(t, "EN", Tag("VI"))
}

func TestCanonical(t *testing.T) {
	code, ok := Canonical("ja-JP")
	assert.True(t, ok)
	assert.Equal(t, "ja", code)

	code, ok = Canonical(" VI ")
	assert.True(t, ok)
	assert.Equal(t, "vi", code)

	_, ok = Canonical("pt")
	assert.False(t, ok)

	_, ok = Canonical("")
	assert.False(t, ok)

	_, ok = Canonical("not a tag!")
	assert.False(t, ok)
}

func TestLangName(t *testing.T) {
	assert.Equal(t, "Vietnamese", LangName("vi"))
	assert.Equal(t, "xx", LangName("xx"))
	assert.True(t, IsSupported("de"))
	assert.False(t, IsSupported("pt"))
}

func TestTranslateLinesTagsCaptionsOnly(t *testing.T) {
	out := TranslateLines(subtitle.Classify(srt), "vi")
	assert.Equal(t,
		"1\n00:00:01,000 --> 00:00:02,000\n[VI] Hello\n\n2\n00:00:03,000 --> 00:00:04,000\n[VI] World\n",
		subtitle.Join(out))
}

func TestTranslateLinesIgnoresSource(t *testing.T) {
	svc := NewService("mock")
	a, err := svc.TranslateText(context.Background(), srt, "en", "ja", nil)
	require.NoError(t, err)
	b, err := svc.TranslateText(context.Background(), srt, "fr", "ja", nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMockReportsProgress(t *testing.T) {
	m := NewMockTranslator(10 * time.Millisecond)
	var seen []float64
	_, err := m.Translate(context.Background(), subtitle.Classify(srt), Options{TargetLang: "ko"}, func(p float64) {
		seen = append(seen, p)
	})
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	assert.Equal(t, 0.0, seen[0])
	assert.Equal(t, 1.0, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
}

func TestMockCancellation(t *testing.T) {
	m := NewMockTranslator(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := m.Translate(ctx, subtitle.Classify(srt), Options{TargetLang: "vi"}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	// An already cancelled context fails even without a delay.
	_, err = NewMockTranslator(0).Translate(ctx, subtitle.Classify(srt), Options{TargetLang: "vi"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceEngines(t *testing.T) {
	svc := NewService("unknown")
	assert.Equal(t, "mock", svc.EngineName())
	assert.Equal(t, []string{"mock"}, svc.Engines())

	svc = NewService("mock", WithEngine(NewMockTranslator(0)))
	assert.Equal(t, "mock", svc.EngineName())
}

func TestServiceTranslateEmptyText(t *testing.T) {
	out, err := NewService("mock").TranslateText(context.Background(), "", "en", "vi", nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestStepLabel(t *testing.T) {
	assert.Equal(t, "Analyzing subtitle content...", StepLabel(0))
	assert.Equal(t, "Translation complete", StepLabel(1))
	assert.Equal(t, "Analyzing subtitle content...", StepLabel(-1))
}
