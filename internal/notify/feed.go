package notify

import (
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 4 * time.Second

// Notification is an ephemeral status message for the panel.
type Notification struct {
	Seq       int64     `json:"seq"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Feed keeps recent notifications in a bounded buffer. Delivery is best
// effort: entries past their TTL or beyond the buffer are gone.
type Feed struct {
	mu      sync.Mutex
	nextSeq int64
	max     int
	ttl     time.Duration
	items   []Notification
	now     func() time.Time
}

// NewFeed creates a feed holding at most max entries for ttl each.
func NewFeed(max int, ttl time.Duration) *Feed {
	if max <= 0 {
		max = 50
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Feed{max: max, ttl: ttl, now: time.Now}
}

// SetClock replaces the time source.
func (f *Feed) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Publish appends a notification and returns it with its sequence number.
func (f *Feed) Publish(level Level, message string) Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextSeq++
	now := f.now()
	n := Notification{
		Seq:       f.nextSeq,
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(f.ttl),
	}
	f.items = append(f.items, n)
	f.prune(now)
	if len(f.items) > f.max {
		f.items = append([]Notification(nil), f.items[len(f.items)-f.max:]...)
	}
	return n
}

// Since returns live notifications with sequence strictly greater than seq.
func (f *Feed) Since(seq int64) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prune(f.now())
	out := make([]Notification, 0, len(f.items))
	for _, n := range f.items {
		if n.Seq > seq {
			out = append(out, n)
		}
	}
	return out
}

// LastSeq returns the sequence number of the latest notification.
func (f *Feed) LastSeq() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextSeq
}

func (f *Feed) prune(now time.Time) {
	i := 0
	for i < len(f.items) && !now.Before(f.items[i].ExpiresAt) {
		i++
	}
	if i > 0 {
		f.items = append([]Notification(nil), f.items[i:]...)
	}
}
