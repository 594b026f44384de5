package upload

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/storage"
)

// countingStore discards bytes, so multi-gigabyte uploads can be simulated.
type countingStore struct {
	saved []string
}

func (s *countingStore) Save(ext string, r io.Reader, maxBytes int64) (*storage.StoredFile, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, err
	}
	name := "stored" + ext
	s.saved = append(s.saved, name)
	return &storage.StoredFile{Name: name, Path: "/tmp/" + name, URL: "/uploads/translator/" + name, Size: n}, nil
}

type recorder struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (r *recorder) Log(e activity.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// zeroReader yields n zero bytes without allocating them.
func zeroReader(n int64) io.Reader {
	return io.LimitReader(zeros{}, n)
}

type zeros struct{}

func (zeros) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

var admin = &Actor{ID: 7, Username: "admin", IPAddress: "10.0.0.1"}

func TestUploadMovieSizeBoundary(t *testing.T) {
	store := &countingStore{}
	g := NewGateway(store)

	_, err := g.UploadMovie(context.Background(), admin, File{Name: "big.mkv", Size: MaxMovieSize + 1, Reader: zeroReader(1)})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, store.saved)

	if testing.Short() {
		t.Skip("streams 2 GiB")
	}
	asset, err := g.UploadMovie(context.Background(), admin, File{Name: "exact.mp4", Size: MaxMovieSize, Reader: zeroReader(MaxMovieSize)})
	require.NoError(t, err)
	assert.Equal(t, MaxMovieSize, asset.SizeBytes)
	assert.Equal(t, "exact.mp4", asset.FileName)
}

func TestUploadMovieRejectsWrongType(t *testing.T) {
	store := &countingStore{}
	rec := &recorder{}
	g := NewGateway(store, WithActivity(rec))

	_, err := g.UploadMovie(context.Background(), admin, File{Name: "notes.txt", Size: 3, Reader: strings.NewReader("abc")})
	assert.ErrorIs(t, err, ErrInvalidFileType)
	assert.Empty(t, store.saved)
	assert.Empty(t, rec.entries)
}

func TestUploadMovieNoFile(t *testing.T) {
	g := NewGateway(&countingStore{})
	_, err := g.UploadMovie(context.Background(), admin, File{})
	assert.ErrorIs(t, err, ErrNoFile)
	_, err = g.UploadMovie(context.Background(), admin, File{Name: "a.mp4", Reader: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestUploadMovieStoresAndRecords(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(dir, "/uploads/translator")
	require.NoError(t, err)
	rec := &recorder{}
	g := NewGateway(store, WithActivity(rec), WithMaxMovieSize(1024))

	asset, err := g.UploadMovie(context.Background(), admin, File{Name: "Trailer.MP4", Size: 5, Reader: strings.NewReader("video")})
	require.NoError(t, err)
	assert.Equal(t, "Trailer.MP4", asset.FileName)
	assert.True(t, strings.HasSuffix(asset.StoredName, ".mp4"))
	assert.Equal(t, "/uploads/translator/"+asset.StoredName, asset.StoredPath)

	data, err := os.ReadFile(store.Root() + "/" + asset.StoredName)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))

	require.Len(t, rec.entries, 1)
	assert.Equal(t, activity.TypeMovieUpload, rec.entries[0].Type)
	assert.Equal(t, "Uploaded movie file for translation: Trailer.MP4", rec.entries[0].Description)
	assert.Equal(t, int64(7), rec.entries[0].UserID)
	assert.Equal(t, "10.0.0.1", rec.entries[0].IPAddress)
}

func TestUploadMovieUnderstatedSize(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(dir, "/uploads/translator")
	require.NoError(t, err)
	g := NewGateway(store, WithMaxMovieSize(4))

	// The declared size passes the check but the stream is longer.
	_, err = g.UploadMovie(context.Background(), admin, File{Name: "a.mov", Size: 2, Reader: strings.NewReader("too long")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadSubtitle(t *testing.T) {
	rec := &recorder{}
	g := NewGateway(&countingStore{}, WithActivity(rec))

	content := "\xef\xbb\xbf1\n00:00:01,000 --> 00:00:02,000\nHello\n"
	asset, err := g.UploadSubtitle(context.Background(), admin, File{Name: "ep1.srt", Size: int64(len(content)), Reader: strings.NewReader(content)})
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n", asset.Content)
	assert.Equal(t, "ep1.srt", asset.FileName)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, activity.TypeSubtitleUpload, rec.entries[0].Type)
}

func TestUploadSubtitleAcceptsAnyContent(t *testing.T) {
	g := NewGateway(&countingStore{})
	asset, err := g.UploadSubtitle(context.Background(), nil, File{Name: "weird.ASS", Size: 9, Reader: strings.NewReader("not a sub")})
	require.NoError(t, err)
	assert.Equal(t, "not a sub", asset.Content)
}

func TestUploadSubtitleRejectsWrongType(t *testing.T) {
	g := NewGateway(&countingStore{})
	for _, name := range []string{"a.txt", "b.mp4", "noext"} {
		_, err := g.UploadSubtitle(context.Background(), admin, File{Name: name, Size: 1, Reader: strings.NewReader("x")})
		assert.ErrorIs(t, err, ErrInvalidFileType, name)
	}
}

func TestUploadCancelledContext(t *testing.T) {
	store := &countingStore{}
	g := NewGateway(store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.UploadMovie(ctx, admin, File{Name: "a.mp4", Size: 1, Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.saved)
}
