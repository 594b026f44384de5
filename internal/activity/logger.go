package activity

import (
	"context"
	"log"
	"sync"
	"time"
)

// Activity types written by the back-office.
const (
	TypeAdminAccess         = "Admin Access"
	TypeMovieUpload         = "Movie Upload"
	TypeSubtitleUpload      = "Subtitle Upload"
	TypeSubtitleTranslation = "Subtitle Translation"
	TypeTranslationNote     = "Translation Note"
	TypeMovieManagement     = "Movie Management"
	TypeUserManagement      = "User Management"
)

// Entry is one activity record
type Entry struct {
	UserID      int64
	Type        string
	Description string
	IPAddress   string
}

// Sink persists entries. Implemented by the database.
type Sink interface {
	InsertActivity(ctx context.Context, userID int64, activityType, description, ipAddress string) error
}

// Recorder is what callers depend on. A nil Recorder is never required:
// callers check for nil before logging.
type Recorder interface {
	Log(e Entry)
}

// Logger forwards entries to a Sink from a single background worker.
// Log never blocks and never reports failure to the caller.
type Logger struct {
	sink    Sink
	entries chan Entry
	timeout time.Duration

	// mu is held for reading across a send and for writing while closing.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewLogger starts the worker. queueSize bounds the number of entries
// waiting to be written; further entries are dropped.
func NewLogger(sink Sink, queueSize int) *Logger {
	if queueSize <= 0 {
		queueSize = 256
	}
	l := &Logger{
		sink:    sink,
		entries: make(chan Entry, queueSize),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go l.worker()
	return l
}

func (l *Logger) Log(e Entry) {
	if l == nil || l.sink == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		log.Printf("[activity] dropped %q for user %d: logger closed", e.Type, e.UserID)
		return
	}
	select {
	case l.entries <- e:
	default:
		log.Printf("[activity] queue full, dropped %q for user %d", e.Type, e.UserID)
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (l *Logger) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.entries)
	}
	l.mu.Unlock()
	<-l.done
}

func (l *Logger) worker() {
	defer close(l.done)
	for e := range l.entries {
		l.write(e)
	}
}

func (l *Logger) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := l.sink.InsertActivity(ctx, e.UserID, e.Type, e.Description, e.IPAddress); err != nil {
		log.Printf("[activity] failed to record %q for user %d: %v", e.Type, e.UserID, err)
	}
}
