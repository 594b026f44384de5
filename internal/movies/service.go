package movies

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/db"
	"github.com/cinehub/backoffice/internal/db/models"
	"github.com/cinehub/backoffice/internal/ffmpeg"
	"github.com/cinehub/backoffice/internal/storage"
	"github.com/cinehub/backoffice/internal/upload"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidYear   = errors.New("invalid release year")
	ErrNotFound      = db.ErrNotFound
)

// Store is the movie persistence. *db.Database satisfies it.
type Store interface {
	ListMovies(ctx context.Context) ([]*models.Movie, error)
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	CreateMovie(ctx context.Context, m *models.Movie) error
	UpdateMovie(ctx context.Context, m *models.Movie) error
	DeleteMovie(ctx context.Context, id int64) error
}

// FileStore holds movie files. *storage.Store satisfies it.
type FileStore interface {
	Save(ext string, r io.Reader, maxBytes int64) (*storage.StoredFile, error)
	Remove(nameOrURL string) error
	Root() string
	URL(name string) string
}

// MediaProber inspects uploaded videos. ffmpeg.Prober satisfies it.
type MediaProber interface {
	Probe(ctx context.Context, filePath string) (*ffmpeg.MediaInfo, error)
	GenerateThumbnail(ctx context.Context, inputPath, outputPath string, duration float64) error
}

// Input holds the editable fields of a movie.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	ReleaseYear int    `json:"release_year"`
}

// Files are optional attachments; nil entries are left unchanged.
type Files struct {
	Video     *upload.File
	Thumbnail *upload.File
	Subtitle  *upload.File
}

type Service struct {
	store        Store
	files        FileStore
	prober       MediaProber
	activity     activity.Recorder
	maxVideoSize int64
	probeTimeout time.Duration
	now          func() time.Time
}

type Option func(*Service)

func WithProber(p MediaProber) Option {
	return func(s *Service) { s.prober = p }
}

func WithActivity(rec activity.Recorder) Option {
	return func(s *Service) { s.activity = rec }
}

func WithMaxVideoSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxVideoSize = n
		}
	}
}

func NewService(store Store, files FileStore, opts ...Option) *Service {
	s := &Service{
		store:        store,
		files:        files,
		maxVideoSize: upload.MaxMovieSize,
		probeTimeout: 30 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]*models.Movie, error) {
	return s.store.ListMovies(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Movie, error) {
	return s.store.GetMovie(ctx, id)
}

func (s *Service) Create(ctx context.Context, actor *upload.Actor, in Input, files Files) (*models.Movie, error) {
	if err := s.validate(&in, files); err != nil {
		return nil, err
	}

	m := &models.Movie{}
	applyInput(m, in)

	saved, err := s.saveFiles(ctx, m, files)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateMovie(ctx, m); err != nil {
		s.removeFiles(saved)
		return nil, fmt.Errorf("create movie: %w", err)
	}

	log.Printf("[movies] created %d %q", m.ID, m.Title)
	s.record(actor, "Added movie: "+m.Title)
	return m, nil
}

func (s *Service) Update(ctx context.Context, actor *upload.Actor, id int64, in Input, files Files) (*models.Movie, error) {
	if err := s.validate(&in, files); err != nil {
		return nil, err
	}
	m, err := s.store.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}

	old := *m
	applyInput(m, in)
	saved, err := s.saveFiles(ctx, m, files)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateMovie(ctx, m); err != nil {
		s.removeFiles(saved)
		return nil, fmt.Errorf("update movie %d: %w", id, err)
	}

	// Replaced attachments are removed once the row points at the new ones.
	var stale []string
	if m.VideoPath != old.VideoPath {
		stale = append(stale, old.VideoPath)
	}
	if m.ThumbnailPath != old.ThumbnailPath {
		stale = append(stale, old.ThumbnailPath)
	}
	if m.SubtitlePath != old.SubtitlePath {
		stale = append(stale, old.SubtitlePath)
	}
	s.removeFiles(stale)

	log.Printf("[movies] updated %d %q", m.ID, m.Title)
	s.record(actor, "Updated movie: "+m.Title)
	return m, nil
}

func (s *Service) Delete(ctx context.Context, actor *upload.Actor, id int64) error {
	m, err := s.store.GetMovie(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMovie(ctx, id); err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	s.removeFiles([]string{m.VideoPath, m.ThumbnailPath, m.SubtitlePath})

	log.Printf("[movies] deleted %d %q", m.ID, m.Title)
	s.record(actor, "Deleted movie: "+m.Title)
	return nil
}

func (s *Service) validate(in *Input, files Files) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Genre = strings.TrimSpace(in.Genre)
	if in.Title == "" {
		return ErrTitleRequired
	}
	if in.ReleaseYear != 0 && (in.ReleaseYear < 1888 || in.ReleaseYear > s.now().Year()+5) {
		return fmt.Errorf("%w: %d", ErrInvalidYear, in.ReleaseYear)
	}
	if f := files.Video; f != nil {
		if !storage.IsMovieFile(f.Name) {
			return fmt.Errorf("%w: %q", upload.ErrInvalidFileType, storage.Ext(f.Name))
		}
		if f.Size > s.maxVideoSize {
			return upload.ErrFileTooLarge
		}
	}
	if f := files.Thumbnail; f != nil && !storage.IsImageFile(f.Name) {
		return fmt.Errorf("%w: %q", upload.ErrInvalidFileType, storage.Ext(f.Name))
	}
	if f := files.Subtitle; f != nil && !storage.IsSubtitleFile(f.Name) {
		return fmt.Errorf("%w: %q", upload.ErrInvalidFileType, storage.Ext(f.Name))
	}
	return nil
}

func applyInput(m *models.Movie, in Input) {
	m.Title = in.Title
	m.Description = strings.TrimSpace(in.Description)
	m.Genre = in.Genre
	m.ReleaseYear = in.ReleaseYear
}

// saveFiles stores the given attachments and points m at them. It returns
// the URLs written so callers can roll back.
func (s *Service) saveFiles(ctx context.Context, m *models.Movie, files Files) ([]string, error) {
	var saved []string
	fail := func(err error) ([]string, error) {
		s.removeFiles(saved)
		return nil, err
	}

	if f := files.Video; f != nil {
		stored, err := s.files.Save(storage.Ext(f.Name), f.Reader, s.maxVideoSize)
		if errors.Is(err, storage.ErrTooLarge) {
			return fail(upload.ErrFileTooLarge)
		}
		if err != nil {
			return fail(fmt.Errorf("store video: %w", err))
		}
		saved = append(saved, stored.URL)
		m.VideoPath = stored.URL
		m.FileSize = stored.Size
		m.Duration = 0

		if s.prober != nil {
			s.inspect(ctx, m, stored.Path, files.Thumbnail == nil, &saved)
		}
	}
	if f := files.Thumbnail; f != nil {
		stored, err := s.files.Save(storage.Ext(f.Name), f.Reader, 0)
		if err != nil {
			return fail(fmt.Errorf("store thumbnail: %w", err))
		}
		saved = append(saved, stored.URL)
		m.ThumbnailPath = stored.URL
	}
	if f := files.Subtitle; f != nil {
		stored, err := s.files.Save(storage.Ext(f.Name), f.Reader, 0)
		if err != nil {
			return fail(fmt.Errorf("store subtitle: %w", err))
		}
		saved = append(saved, stored.URL)
		m.SubtitlePath = stored.URL
	}
	return saved, nil
}

// inspect fills duration and, when asked, a generated thumbnail. Failures
// are logged only.
func (s *Service) inspect(ctx context.Context, m *models.Movie, videoPath string, wantThumb bool, saved *[]string) {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	info, err := s.prober.Probe(ctx, videoPath)
	if err != nil {
		if !errors.Is(err, ffmpeg.ErrUnavailable) {
			log.Printf("[movies] probe %s: %v", filepath.Base(videoPath), err)
		}
		return
	}
	m.Duration = info.Duration

	if !wantThumb {
		return
	}
	name := uuid.NewString() + ".jpg"
	out := filepath.Join(s.files.Root(), name)
	if err := s.prober.GenerateThumbnail(ctx, videoPath, out, info.Duration); err != nil {
		log.Printf("[movies] thumbnail for %s: %v", filepath.Base(videoPath), err)
		return
	}
	m.ThumbnailPath = s.files.URL(name)
	*saved = append(*saved, m.ThumbnailPath)
}

func (s *Service) removeFiles(urls []string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := s.files.Remove(u); err != nil {
			log.Printf("[movies] remove %s: %v", u, err)
		}
	}
}

func (s *Service) record(actor *upload.Actor, description string) {
	if actor == nil || s.activity == nil {
		return
	}
	s.activity.Log(activity.Entry{
		UserID:      actor.ID,
		Type:        activity.TypeMovieManagement,
		Description: description,
		IPAddress:   actor.IPAddress,
	})
}
