package activity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
	block   chan struct{}
	err     error
}

func (s *memorySink) InsertActivity(ctx context.Context, userID int64, activityType, description, ipAddress string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{UserID: userID, Type: activityType, Description: description, IPAddress: ipAddress})
	return s.err
}

func (s *memorySink) all() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func TestLoggerWritesInOrder(t *testing.T) {
	sink := &memorySink{}
	l := NewLogger(sink, 10)
	l.Log(Entry{UserID: 1, Type: TypeMovieUpload, Description: "a", IPAddress: "127.0.0.1"})
	l.Log(Entry{UserID: 1, Type: TypeSubtitleUpload, Description: "b"})
	l.Close()

	got := sink.all()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Description)
	assert.Equal(t, "127.0.0.1", got[0].IPAddress)
	assert.Equal(t, TypeSubtitleUpload, got[1].Type)
}

func TestLoggerDropsWhenFull(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	l := NewLogger(sink, 1)

	// The worker holds at most one entry and the queue one more.
	for i := 0; i < 10; i++ {
		l.Log(Entry{UserID: int64(i), Type: TypeAdminAccess})
	}
	close(sink.block)
	l.Close()

	got := sink.all()
	assert.GreaterOrEqual(t, len(got), 1)
	assert.LessOrEqual(t, len(got), 2)
}

func TestLoggerSinkErrorsAreSwallowed(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	l := NewLogger(sink, 4)
	l.Log(Entry{UserID: 1, Type: TypeAdminAccess})
	l.Close()
	assert.Len(t, sink.all(), 1)
}

func TestLoggerAfterClose(t *testing.T) {
	l := NewLogger(&memorySink{}, 4)
	l.Close()
	l.Close()
	assert.NotPanics(t, func() {
		l.Log(Entry{UserID: 1, Type: TypeAdminAccess})
	})

	var nilLogger *Logger
	assert.NotPanics(t, func() {
		nilLogger.Log(Entry{UserID: 1})
	})
}

func TestLoggerCloseRacesLog(t *testing.T) {
	sink := &memorySink{}
	l := NewLogger(sink, 1024)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Log(Entry{UserID: id, Type: TypeAdminAccess})
			}
		}(int64(i))
	}
	l.Close()
	wg.Wait()

	written := len(sink.all())
	assert.LessOrEqual(t, written, 400)
	l.Log(Entry{UserID: 99, Type: TypeAdminAccess})
	assert.Len(t, sink.all(), written, "entries after Close are dropped")
}
