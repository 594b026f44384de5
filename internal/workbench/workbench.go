package workbench

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/job"
	"github.com/cinehub/backoffice/internal/notify"
	"github.com/cinehub/backoffice/internal/subtitle"
	"github.com/cinehub/backoffice/internal/subtitle/translate"
	"github.com/cinehub/backoffice/internal/upload"
)

// Default language pair of a fresh workbench.
const (
	DefaultSource = "en"
	DefaultTarget = "vi"
)

// Uploader validates and stores workbench uploads. *upload.Gateway satisfies it.
type Uploader interface {
	UploadMovie(ctx context.Context, actor *upload.Actor, f upload.File) (*upload.MovieAsset, error)
	UploadSubtitle(ctx context.Context, actor *upload.Actor, f upload.File) (*upload.SubtitleAsset, error)
}

// Translator turns subtitle text into translated text. *translate.Service
// satisfies it.
type Translator interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string, updateProgress func(float64)) (string, error)
	EngineName() string
}

// JobRecorder persists job history. *job.Tracker satisfies it.
type JobRecorder interface {
	Create(ctx context.Context, j *job.Job) error
	UpdateProgress(ctx context.Context, id string, progress float64)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
}

// JobState is the translation slot of a workbench.
type JobState struct {
	ID         string     `json:"id,omitempty"`
	Status     job.Status `json:"status"`
	SourceLang string     `json:"sourceLanguage,omitempty"`
	TargetLang string     `json:"targetLanguage,omitempty"`
	Progress   float64    `json:"progress"`
	Step       string     `json:"step,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// State is a point-in-time copy of a workbench.
type State struct {
	Movie            *upload.MovieAsset    `json:"movie,omitempty"`
	Subtitle         *upload.SubtitleAsset `json:"subtitle,omitempty"`
	OriginalText     string                `json:"originalText"`
	TranslatedText   string                `json:"translatedText"`
	ShowTranslated   bool                  `json:"showTranslated"`
	DownloadEnabled  bool                  `json:"downloadEnabled"`
	SourceLanguage   string                `json:"sourceLanguage"`
	TargetLanguage   string                `json:"targetLanguage"`
	SourceName       string                `json:"sourceLanguageName"`
	TargetName       string                `json:"targetLanguageName"`
	Job              JobState              `json:"job"`
	LastNotification int64                 `json:"lastNotification"`
}

// Export is a downloadable translated subtitle.
type Export struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Workbench is the translator panel state of one admin session. Every
// mutation goes through its methods and holds mu; the translation itself
// runs on its own goroutine and applies its result under mu when done.
type Workbench struct {
	mu sync.Mutex

	actor      upload.Actor
	uploader   Uploader
	translator Translator
	jobs       JobRecorder
	activity   activity.Recorder
	feed       *notify.Feed
	now        func() time.Time

	movie           *upload.MovieAsset
	subtitle        *upload.SubtitleAsset
	original        string
	translated      string
	showTranslated  bool
	downloadEnabled bool
	completedOnce   bool
	source          string
	target          string

	job    JobState
	cancel context.CancelFunc
	done   chan struct{}

	lastUsed time.Time
}

// New creates an empty workbench for actor.
func New(actor upload.Actor, uploader Uploader, translator Translator, opts ...Option) *Workbench {
	w := &Workbench{
		actor:      actor,
		uploader:   uploader,
		translator: translator,
		now:        time.Now,
		source:     DefaultSource,
		target:     DefaultTarget,
		job:        JobState{Status: job.StatusIdle},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.feed == nil {
		w.feed = notify.NewFeed(0, notify.DefaultTTL)
	}
	w.lastUsed = w.now()
	return w
}

type Option func(*Workbench)

func WithJobRecorder(r JobRecorder) Option {
	return func(w *Workbench) { w.jobs = r }
}

func WithActivity(r activity.Recorder) Option {
	return func(w *Workbench) { w.activity = r }
}

func WithFeed(f *notify.Feed) Option {
	return func(w *Workbench) { w.feed = f }
}

// WithClock replaces the time source used for timestamps and file names.
func WithClock(now func() time.Time) Option {
	return func(w *Workbench) { w.now = now }
}

// Feed returns the notification feed of this workbench.
func (w *Workbench) Feed() *notify.Feed {
	return w.feed
}

// SetIPAddress updates the address recorded with activity entries.
func (w *Workbench) SetIPAddress(ip string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actor.IPAddress = ip
}

// UploadMovie replaces the movie slot. Translation state is not touched.
func (w *Workbench) UploadMovie(ctx context.Context, f upload.File) (*upload.MovieAsset, error) {
	actor := w.currentActor()
	asset, err := w.uploader.UploadMovie(ctx, &actor, f)
	if err != nil {
		return nil, w.reject(err, "Failed to upload movie file")
	}

	w.mu.Lock()
	w.touch()
	w.movie = asset
	w.mu.Unlock()

	w.feed.Publish(notify.Success, "Movie file uploaded successfully")
	return asset, nil
}

// UploadSubtitle loads a subtitle file as the original text. Any translated
// output is discarded and a running translation is cancelled.
func (w *Workbench) UploadSubtitle(ctx context.Context, f upload.File) (*upload.SubtitleAsset, error) {
	actor := w.currentActor()
	asset, err := w.uploader.UploadSubtitle(ctx, &actor, f)
	if err != nil {
		return nil, w.reject(err, "Failed to upload subtitle file")
	}

	w.mu.Lock()
	w.touch()
	w.cancelLocked("cancelled: new subtitle uploaded")
	w.subtitle = asset
	w.original = asset.Content
	w.translated = ""
	w.showTranslated = false
	w.downloadEnabled = false
	w.mu.Unlock()

	w.feed.Publish(notify.Success, "Subtitle file loaded successfully")
	return asset, nil
}

// EditOriginalText replaces the original text with the admin's edits.
func (w *Workbench) EditOriginalText(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.original = text
}

// SetLanguages selects the language pair. Codes are normalized; equal
// languages are allowed here and rejected when translating.
func (w *Workbench) SetLanguages(source, target string) error {
	src, ok := translate.Canonical(source)
	if !ok {
		return w.reject(fmt.Errorf("%w: %q", ErrUnsupportedLanguage, source), "")
	}
	tgt, ok := translate.Canonical(target)
	if !ok {
		return w.reject(fmt.Errorf("%w: %q", ErrUnsupportedLanguage, target), "")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.source, w.target = src, tgt
	return nil
}

// SwapLanguages exchanges the language pair. When both buffers hold text
// they are exchanged too; nothing is re-translated.
func (w *Workbench) SwapLanguages() {
	w.mu.Lock()
	w.touch()
	w.source, w.target = w.target, w.source
	if w.original != "" && w.translated != "" {
		w.original, w.translated = w.translated, w.original
	}
	w.mu.Unlock()

	w.feed.Publish(notify.Info, "Languages swapped successfully")
}

// StartTranslation starts translating the original text in the background
// and returns the new job. Only one job runs at a time.
func (w *Workbench) StartTranslation() (JobState, error) {
	w.mu.Lock()
	w.touch()
	if strings.TrimSpace(w.original) == "" {
		w.mu.Unlock()
		return JobState{}, w.reject(ErrEmptyInput, "")
	}
	if w.source == w.target {
		w.mu.Unlock()
		return JobState{}, w.reject(ErrSameLanguage, "")
	}
	if w.job.Status == job.StatusRunning {
		w.mu.Unlock()
		return JobState{}, w.reject(ErrTranslationInProgress, "")
	}

	started := w.now()
	w.job = JobState{
		ID:         uuid.New().String(),
		Status:     job.StatusRunning,
		SourceLang: w.source,
		TargetLang: w.target,
		Step:       translate.StepLabel(0),
		StartedAt:  &started,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	state := w.job
	text := w.original
	w.mu.Unlock()

	log.Printf("[workbench] admin %d: job %s started (%s -> %s)", w.actor.ID, state.ID, state.SourceLang, state.TargetLang)
	w.feed.Publish(notify.Info, "Translating subtitles...")

	go w.run(ctx, done, state, text)
	return state, nil
}

// CancelTranslation stops the running job, if any. The job ends as failed.
func (w *Workbench) CancelTranslation() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.cancelLocked("cancelled by admin")
}

// Wait blocks until the current job, if any, has finished.
func (w *Workbench) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EditTranslatedText saves the admin's edits to the translated output.
func (w *Workbench) EditTranslatedText(text string) error {
	w.mu.Lock()
	w.touch()
	if !w.completedOnce {
		w.mu.Unlock()
		return w.reject(ErrNotTranslated, "")
	}
	w.translated = text
	w.mu.Unlock()

	w.feed.Publish(notify.Success, "Edits saved successfully")
	return nil
}

// AutoFormat normalizes the translated text and returns the result.
func (w *Workbench) AutoFormat() (string, error) {
	w.mu.Lock()
	w.touch()
	if strings.TrimSpace(w.translated) == "" {
		w.mu.Unlock()
		return "", w.reject(ErrNothingToFormat, "")
	}
	w.translated = subtitle.Format(w.translated)
	out := w.translated
	w.mu.Unlock()

	w.feed.Publish(notify.Success, "Text formatted successfully")
	return out, nil
}

// ClearAll resets the workbench to its initial state. The language pair and
// the admin note are kept.
func (w *Workbench) ClearAll(confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	w.mu.Lock()
	w.touch()
	w.cancelLocked("cancelled: workbench cleared")
	w.movie = nil
	w.subtitle = nil
	w.original = ""
	w.translated = ""
	w.showTranslated = false
	w.downloadEnabled = false
	w.completedOnce = false
	w.job = JobState{Status: job.StatusIdle}
	w.mu.Unlock()

	w.feed.Publish(notify.Info, "All data cleared")
	return nil
}

// Download exports the translated text. format is "srt" (default) or "vtt".
func (w *Workbench) Download(format string) (*Export, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		format = "srt"
	}
	if format != "srt" && format != "vtt" {
		return nil, w.reject(fmt.Errorf("%w: %q", ErrUnsupportedFormat, format), "")
	}

	w.mu.Lock()
	w.touch()
	text := w.translated
	ts := w.now().UnixMilli()
	w.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return nil, w.reject(ErrNothingToDownload, "")
	}

	exp := &Export{
		FileName:    fmt.Sprintf("translated_subtitle_%d.%s", ts, format),
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte(text),
	}
	if format == "vtt" {
		exp.ContentType = "text/vtt; charset=utf-8"
		exp.Content = []byte(subtitle.ToVTT(text))
	}

	w.feed.Publish(notify.Success, "File downloaded successfully")
	return exp, nil
}

// Snapshot returns a copy of the current state.
func (w *Workbench) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := State{
		Movie:            w.movie,
		Subtitle:         w.subtitle,
		OriginalText:     w.original,
		ShowTranslated:   w.showTranslated,
		DownloadEnabled:  w.downloadEnabled,
		SourceLanguage:   w.source,
		TargetLanguage:   w.target,
		SourceName:       translate.LangName(w.source),
		TargetName:       translate.LangName(w.target),
		Job:              w.job,
		LastNotification: w.feed.LastSeq(),
	}
	if w.showTranslated {
		s.TranslatedText = w.translated
	}
	return s
}

// Running reports whether a translation is in flight.
func (w *Workbench) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.job.Status == job.StatusRunning
}

// LastUsed returns the time of the last operation.
func (w *Workbench) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

func (w *Workbench) run(ctx context.Context, done chan struct{}, state JobState, text string) {
	defer close(done)

	w.recordStart(state, text)

	out, err := w.translator.TranslateText(ctx, text, state.SourceLang, state.TargetLang, func(p float64) {
		w.setProgress(state.ID, p)
	})

	status, errMsg := w.finish(state, out, err)
	w.recordFinish(state.ID, status, errMsg)
}

// finish applies a job result. Results of a job that is no longer current
// are dropped.
func (w *Workbench) finish(state JobState, out string, err error) (job.Status, string) {
	w.mu.Lock()
	current := w.job.ID == state.ID && w.job.Status == job.StatusRunning
	if !current {
		w.mu.Unlock()
		log.Printf("[workbench] admin %d: dropped result of stale job %s", w.actor.ID, state.ID)
		return job.StatusFailed, "cancelled"
	}

	finished := w.now()
	w.job.FinishedAt = &finished
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}

	if err == nil {
		w.job.Status = job.StatusCompleted
		w.job.Progress = 1
		w.job.Step = translate.StepLabel(1)
		w.translated = out
		w.showTranslated = true
		w.downloadEnabled = true
		w.completedOnce = true
		actor := w.actor
		w.mu.Unlock()

		log.Printf("[workbench] admin %d: job %s completed", actor.ID, state.ID)
		w.feed.Publish(notify.Success, "Translation completed successfully")
		if w.activity != nil {
			w.activity.Log(activity.Entry{
				UserID:      actor.ID,
				Type:        activity.TypeSubtitleTranslation,
				Description: fmt.Sprintf("Translated subtitle from %s to %s", state.SourceLang, state.TargetLang),
				IPAddress:   actor.IPAddress,
			})
		}
		return job.StatusCompleted, ""
	}

	// Prior translated output stays as it was.
	w.job.Status = job.StatusFailed
	if errors.Is(err, context.Canceled) {
		w.job.Error = "cancelled"
		w.mu.Unlock()
		w.feed.Publish(notify.Warning, "Translation cancelled")
		return job.StatusFailed, "cancelled"
	}
	w.job.Error = "translation failed"
	w.mu.Unlock()

	log.Printf("[workbench] admin %d: job %s failed: %v", w.actor.ID, state.ID, err)
	w.feed.Publish(notify.Error, "Translation failed. Please try again.")
	return job.StatusFailed, err.Error()
}

func (w *Workbench) setProgress(id string, p float64) {
	w.mu.Lock()
	if w.job.ID != id || w.job.Status != job.StatusRunning {
		w.mu.Unlock()
		return
	}
	w.job.Progress = p
	w.job.Step = translate.StepLabel(p)
	w.mu.Unlock()

	if w.jobs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		w.jobs.UpdateProgress(ctx, id, p)
	}
}

func (w *Workbench) recordStart(state JobState, text string) {
	if w.jobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := w.jobs.Create(ctx, &job.Job{
		ID:         state.ID,
		AdminID:    w.actor.ID,
		Engine:     w.translator.EngineName(),
		SourceLang: state.SourceLang,
		TargetLang: state.TargetLang,
		InputLines: len(subtitle.Classify(text)),
		CreatedAt:  *state.StartedAt,
	})
	if err != nil {
		log.Printf("[workbench] failed to record job %s: %v", state.ID, err)
	}
}

func (w *Workbench) recordFinish(id string, status job.Status, errMsg string) {
	if w.jobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var err error
	if status == job.StatusCompleted {
		err = w.jobs.MarkCompleted(ctx, id)
	} else {
		err = w.jobs.MarkFailed(ctx, id, errMsg)
	}
	if err != nil {
		log.Printf("[workbench] failed to record result of job %s: %v", id, err)
	}
}

// cancelLocked stops the running job and marks it failed. mu must be held.
func (w *Workbench) cancelLocked(reason string) bool {
	if w.job.Status != job.StatusRunning {
		return false
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	finished := w.now()
	w.job.Status = job.StatusFailed
	w.job.Error = reason
	w.job.FinishedAt = &finished
	log.Printf("[workbench] admin %d: job %s %s", w.actor.ID, w.job.ID, reason)
	return true
}

// reject publishes err to the feed and returns it. Business-rule errors
// carry their own message; anything else is logged and shown as fallback.
func (w *Workbench) reject(err error, fallback string) error {
	level := notify.Error
	if errors.Is(err, ErrTranslationInProgress) || errors.Is(err, ErrNotTranslated) || errors.Is(err, ErrNothingToFormat) {
		level = notify.Warning
	}
	msg, ok := Message(err)
	if !ok {
		log.Printf("[workbench] admin %d: %v", w.actor.ID, err)
		msg = fallback
		if msg == "" {
			msg = "An unexpected error occurred"
		}
	}
	w.feed.Publish(level, msg)
	return err
}

func (w *Workbench) currentActor() upload.Actor {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.actor
}

func (w *Workbench) touch() {
	w.lastUsed = w.now()
}
