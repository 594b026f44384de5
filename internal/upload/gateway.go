package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/storage"
	"github.com/cinehub/backoffice/internal/subtitle"
)

// MaxMovieSize is the largest accepted movie upload (2 GiB).
const MaxMovieSize int64 = 2147483648

var (
	ErrNoFile          = errors.New("no file selected")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")

	// Both wrap ErrInvalidFileType.
	ErrNotMovie    = fmt.Errorf("%w: not a video file", ErrInvalidFileType)
	ErrNotSubtitle = fmt.Errorf("%w: not a subtitle file", ErrInvalidFileType)
)

// File is an incoming upload. Size is the size declared by the transport.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Actor is the admin an upload is attributed to.
type Actor struct {
	ID        int64
	Username  string
	IPAddress string
}

// MovieAsset is a persisted movie upload
type MovieAsset struct {
	FileName   string    `json:"fileName"`
	StoredName string    `json:"storedName"`
	StoredPath string    `json:"filePath"`
	SizeBytes  int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// SubtitleAsset is a decoded subtitle upload
type SubtitleAsset struct {
	FileName         string    `json:"fileName"`
	SizeBytes        int64     `json:"fileSize"`
	Content          string    `json:"content"`
	DetectedLanguage string    `json:"detectedLanguage,omitempty"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

// FileStore persists movie bytes. *storage.Store satisfies it.
type FileStore interface {
	Save(ext string, r io.Reader, maxBytes int64) (*storage.StoredFile, error)
}

// Gateway validates uploads, stores movies and decodes subtitles.
type Gateway struct {
	store        FileStore
	activity     activity.Recorder
	maxMovieSize int64
	now          func() time.Time
}

type Option func(*Gateway)

// WithMaxMovieSize overrides MaxMovieSize.
func WithMaxMovieSize(n int64) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxMovieSize = n
		}
	}
}

// WithActivity attaches the activity recorder.
func WithActivity(rec activity.Recorder) Option {
	return func(g *Gateway) {
		g.activity = rec
	}
}

func NewGateway(store FileStore, opts ...Option) *Gateway {
	g := &Gateway{
		store:        store,
		maxMovieSize: MaxMovieSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxMovieSize returns the configured movie size limit.
func (g *Gateway) MaxMovieSize() int64 {
	return g.maxMovieSize
}

// UploadMovie validates and stores a movie file under a generated name.
func (g *Gateway) UploadMovie(ctx context.Context, actor *Actor, f File) (*MovieAsset, error) {
	if f.Reader == nil || f.Size == 0 {
		return nil, ErrNoFile
	}
	if !storage.IsMovieFile(f.Name) {
		return nil, fmt.Errorf("%w: %q", ErrNotMovie, storage.Ext(f.Name))
	}
	if f.Size > g.maxMovieSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
			humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(g.maxMovieSize)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := g.store.Save(storage.Ext(f.Name), f.Reader, g.maxMovieSize)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, fmt.Errorf("%w: exceeds %s", ErrFileTooLarge, humanize.IBytes(uint64(g.maxMovieSize)))
	}
	if err != nil {
		return nil, fmt.Errorf("store movie: %w", err)
	}

	log.Printf("[upload] movie %q stored as %s (%s)", f.Name, stored.Name, humanize.IBytes(uint64(stored.Size)))
	g.record(actor, activity.TypeMovieUpload, "Uploaded movie file for translation: "+f.Name)

	return &MovieAsset{
		FileName:   f.Name,
		StoredName: stored.Name,
		StoredPath: stored.URL,
		SizeBytes:  stored.Size,
		UploadedAt: g.now(),
	}, nil
}

// UploadSubtitle validates the extension and decodes the file as UTF-8.
// Subtitle structure is not checked.
func (g *Gateway) UploadSubtitle(ctx context.Context, actor *Actor, f File) (*SubtitleAsset, error) {
	if f.Reader == nil || f.Size == 0 {
		return nil, ErrNoFile
	}
	if !storage.IsSubtitleFile(f.Name) {
		return nil, fmt.Errorf("%w: %q", ErrNotSubtitle, storage.Ext(f.Name))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(f.Reader)
	if err != nil {
		return nil, fmt.Errorf("read subtitle: %w", err)
	}
	content, err := subtitle.Decode(data)
	if err != nil {
		return nil, err
	}

	log.Printf("[upload] subtitle %q decoded (%s)", f.Name, humanize.IBytes(uint64(len(data))))
	g.record(actor, activity.TypeSubtitleUpload, "Uploaded subtitle file for translation: "+f.Name)

	return &SubtitleAsset{
		FileName:         f.Name,
		SizeBytes:        int64(len(data)),
		Content:          content,
		DetectedLanguage: subtitle.DetectLanguage(subtitle.Classify(content)),
		UploadedAt:       g.now(),
	}, nil
}

func (g *Gateway) record(actor *Actor, activityType, description string) {
	if actor == nil || g.activity == nil {
		return
	}
	g.activity.Log(activity.Entry{
		UserID:      actor.ID,
		Type:        activityType,
		Description: description,
		IPAddress:   actor.IPAddress,
	})
}
