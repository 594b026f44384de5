package workbench

import (
	"log"
	"sync"
	"time"

	"github.com/cinehub/backoffice/internal/activity"
	"github.com/cinehub/backoffice/internal/notify"
	"github.com/cinehub/backoffice/internal/upload"
)

// Config holds the collaborators shared by every session.
type Config struct {
	Uploader   Uploader
	Translator Translator
	Jobs       JobRecorder
	Activity   activity.Recorder
	FeedSize   int
	FeedTTL    time.Duration
}

// Manager owns one workbench per admin. Sessions are never shared.
type Manager struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Workbench
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[int64]*Workbench),
	}
}

// Get returns the workbench of actor, creating it on first use.
func (m *Manager) Get(actor upload.Actor) *Workbench {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.sessions[actor.ID]; ok {
		w.SetIPAddress(actor.IPAddress)
		return w
	}

	opts := []Option{
		WithFeed(notify.NewFeed(m.cfg.FeedSize, m.cfg.FeedTTL)),
		WithClock(m.now),
	}
	if m.cfg.Jobs != nil {
		opts = append(opts, WithJobRecorder(m.cfg.Jobs))
	}
	if m.cfg.Activity != nil {
		opts = append(opts, WithActivity(m.cfg.Activity))
	}
	w := New(actor, m.cfg.Uploader, m.cfg.Translator, opts...)
	m.sessions[actor.ID] = w
	log.Printf("[workbench] session opened for admin %d", actor.ID)
	return w
}

// Lookup returns an existing workbench without creating one.
func (m *Manager) Lookup(adminID int64) (*Workbench, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.sessions[adminID]
	return w, ok
}

// Drop discards the workbench of an admin, cancelling its translation.
func (m *Manager) Drop(adminID int64) {
	m.mu.Lock()
	w, ok := m.sessions[adminID]
	delete(m.sessions, adminID)
	m.mu.Unlock()
	if ok {
		w.CancelTranslation()
	}
}

// Reap drops sessions idle for longer than idle. Sessions with a running
// translation are kept.
func (m *Manager) Reap(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, w := range m.sessions {
		if w.Running() || w.LastUsed().After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		n++
	}
	if n > 0 {
		log.Printf("[workbench] reaped %d idle sessions", n)
	}
	return n
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close cancels every running translation.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Workbench, 0, len(m.sessions))
	for _, w := range m.sessions {
		sessions = append(sessions, w)
	}
	m.mu.Unlock()

	for _, w := range sessions {
		w.CancelTranslation()
	}
}
