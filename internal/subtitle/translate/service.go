package translate

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/cinehub/backoffice/internal/subtitle"
)

// Service manages translation engines and turns raw subtitle text into
// translated text.
type Service struct {
	mu            sync.RWMutex
	engines       map[string]Translator
	defaultEngine string
}

// NewService creates a translation service with the mock engine registered.
// defaultEngine falls back to "mock" when empty or unknown.
func NewService(defaultEngine string, opts ...ServiceOption) *Service {
	s := &Service{engines: make(map[string]Translator)}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := s.engines["mock"]; !ok {
		s.engines["mock"] = NewMockTranslator(0)
	}

	if _, ok := s.engines[defaultEngine]; !ok {
		if defaultEngine != "" && defaultEngine != "mock" {
			log.Printf("[translate] unknown engine %q, using mock", defaultEngine)
		}
		defaultEngine = "mock"
	}
	s.defaultEngine = defaultEngine
	log.Printf("[translate] default engine: %s", s.defaultEngine)
	return s
}

type ServiceOption func(*Service)

// WithEngine registers an engine under its Name().
func WithEngine(t Translator) ServiceOption {
	return func(s *Service) {
		s.engines[t.Name()] = t
	}
}

// Engines lists registered engine names in sorted order.
func (s *Service) Engines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Engine returns the default engine.
func (s *Service) Engine() Translator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engines[s.defaultEngine]
}

// TranslateText classifies text, runs the default engine and joins the result.
func (s *Service) TranslateText(ctx context.Context, text, sourceLang, targetLang string, updateProgress func(float64)) (string, error) {
	engine := s.Engine()
	lines := subtitle.Classify(text)

	translated, err := engine.Translate(ctx, lines, Options{
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}, updateProgress)
	if err != nil {
		return "", fmt.Errorf("translate (%s): %w", engine.Name(), err)
	}

	log.Printf("[translate] %d lines %s -> %s via %s", len(lines), sourceLang, targetLang, engine.Name())
	return subtitle.Join(translated), nil
}

// EngineName returns the name of the default engine.
func (s *Service) EngineName() string {
	return s.Engine().Name()
}
