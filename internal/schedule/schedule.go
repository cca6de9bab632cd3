package schedule

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/generate"
)

// Status is the lifecycle status of a post the user has acted on.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusReady     Status = "ready"
	StatusPosted    Status = "posted"
	StatusError     Status = "error"
)

// PostStatus is the visible lifecycle record for one post index. A record
// exists only after the user has posted or scheduled that index; absence
// means the post is untouched and still awaiting action.
type PostStatus struct {
	Status        Status
	ScheduledTime time.Time
	ErrorMessage  string
}

var (
	ErrPastTime    = errors.New("schedule: target time must be in the future")
	ErrNoImage     = errors.New("schedule: post has no image to share")
	ErrUnknownPost = errors.New("schedule: unknown post index")
	ErrNotErrored  = errors.New("schedule: post is not in an error state")
)

const popupBlockedMessage = "Popup blocked. Image was downloaded for you to upload manually."

// Sharer performs the external save and composer-open actions behind FireNow.
// OpenComposer reports opened=false when the open was detectably blocked.
type Sharer interface {
	SaveImage(imageURL, headline string) error
	OpenComposer(caption string) (opened bool, err error)
}

// PostLookup resolves the post for an index; ok is false for unknown indexes.
type PostLookup func(index int) (generate.Post, bool)

type record struct {
	PostStatus
	timer *time.Timer
	seq   uint64
}

// Manager owns all post status records and every armed timer. Each mutation
// invokes the onChange hook so stage completion can be recomputed eagerly.
type Manager struct {
	mu        sync.Mutex
	records   map[int]*record
	seq       uint64
	sharer    Sharer
	lookup    PostLookup
	onChange  func()
	now       func() time.Time
	sleep     func(time.Duration)
	fireDelay time.Duration
	afterFunc func(time.Duration, func()) *time.Timer
}

// Option customizes a Manager, primarily for tests.
type Option func(*Manager)

// WithClock injects a deterministic clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSleep injects the wait used between image save and composer open.
func WithSleep(sleep func(time.Duration)) Option {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// WithFireDelay sets the pause between saving the image and opening the
// composer, giving the save a head start.
func WithFireDelay(d time.Duration) Option {
	return func(m *Manager) { m.fireDelay = d }
}

// WithTimerFunc injects the deferred-timer factory so tests can capture and
// synthetically elapse timers.
func WithTimerFunc(after func(time.Duration, func()) *time.Timer) Option {
	return func(m *Manager) {
		if after != nil {
			m.afterFunc = after
		}
	}
}

// NewManager creates a scheduling manager. onChange runs after every status
// mutation, outside the manager's lock.
func NewManager(sharer Sharer, lookup PostLookup, onChange func(), opts ...Option) *Manager {
	m := &Manager{
		records:   make(map[int]*record),
		sharer:    sharer,
		lookup:    lookup,
		onChange:  onChange,
		now:       time.Now,
		sleep:     time.Sleep,
		fireDelay: 150 * time.Millisecond,
		afterFunc: time.AfterFunc,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FireNow saves the post's image, opens the share composer pre-filled with
// its caption, and records the outcome. A pending scheduled timer for the
// index is cancelled so a stale fire cannot follow a manual post.
func (m *Manager) FireNow(index int) error {
	post, ok := m.lookup(index)
	if !ok {
		return ErrUnknownPost
	}
	if post.ImageURL == "" {
		return ErrNoImage
	}

	if err := m.sharer.SaveImage(post.ImageURL, post.News.Headline); err != nil {
		log.Printf("Saving image for post %d: %v", index, err)
	}

	// Let the save initiate before the composer opens.
	if m.fireDelay > 0 {
		m.sleep(m.fireDelay)
	}

	opened, err := m.sharer.OpenComposer(post.Caption)

	m.mu.Lock()
	if rec := m.records[index]; rec != nil && rec.timer != nil {
		rec.timer.Stop()
	}
	m.seq++
	if err != nil || !opened {
		m.records[index] = &record{
			PostStatus: PostStatus{Status: StatusError, ErrorMessage: popupBlockedMessage},
			seq:        m.seq,
		}
	} else {
		m.records[index] = &record{PostStatus: PostStatus{Status: StatusPosted}, seq: m.seq}
	}
	m.mu.Unlock()

	m.notify()
	return nil
}

// Schedule arms a deferred timer that flips the index to "ready" when the
// target time elapses. Firing stays a user-confirmed action. Targets not
// strictly in the future are rejected with no state change.
func (m *Manager) Schedule(index int, target time.Time) error {
	if _, ok := m.lookup(index); !ok {
		return ErrUnknownPost
	}

	m.mu.Lock()
	if !target.After(m.now()) {
		m.mu.Unlock()
		return ErrPastTime
	}

	if rec := m.records[index]; rec != nil && rec.timer != nil {
		rec.timer.Stop()
	}

	m.seq++
	seq := m.seq
	rec := &record{
		PostStatus: PostStatus{Status: StatusScheduled, ScheduledTime: target},
		seq:        seq,
	}
	rec.timer = m.afterFunc(target.Sub(m.now()), func() { m.elapse(index, seq) })
	m.records[index] = rec
	m.mu.Unlock()

	m.notify()
	return nil
}

// elapse is the timer callback. The sequence token makes stale timers inert:
// a timer whose record was cancelled, replaced, or fired does nothing.
func (m *Manager) elapse(index int, seq uint64) {
	m.mu.Lock()
	rec := m.records[index]
	if rec == nil || rec.seq != seq || rec.Status != StatusScheduled {
		m.mu.Unlock()
		return
	}
	rec.Status = StatusReady
	rec.timer = nil
	m.mu.Unlock()

	m.notify()
}

// CancelSchedule cancels any armed timer for the index and removes its status
// record, returning the post to the untouched state. Safe to call when no
// schedule exists or the timer already elapsed.
func (m *Manager) CancelSchedule(index int) {
	m.mu.Lock()
	rec := m.records[index]
	if rec == nil {
		m.mu.Unlock()
		return
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	delete(m.records, index)
	m.mu.Unlock()

	m.notify()
}

// Retry re-fires a post that previously ended in an error status.
func (m *Manager) Retry(index int) error {
	m.mu.Lock()
	rec := m.records[index]
	if rec == nil || rec.Status != StatusError {
		m.mu.Unlock()
		return ErrNotErrored
	}
	m.mu.Unlock()
	return m.FireNow(index)
}

// Status returns the record for an index, if the user has acted on it.
func (m *Manager) Status(index int) (PostStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[index]
	if !ok {
		return PostStatus{}, false
	}
	return rec.PostStatus, true
}

// Statuses returns a snapshot of all status records by index.
func (m *Manager) Statuses() map[int]PostStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]PostStatus, len(m.records))
	for i, rec := range m.records {
		out[i] = rec.PostStatus
	}
	return out
}

// AllTerminal reports whether every index in 0..n-1 has reached a terminal
// status (posted or error). False when n is zero.
func (m *Manager) AllTerminal(n int) bool {
	if n <= 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		rec, ok := m.records[i]
		if !ok {
			return false
		}
		if rec.Status != StatusPosted && rec.Status != StatusError {
			return false
		}
	}
	return true
}

// Reset cancels every armed timer and clears all status records.
func (m *Manager) Reset() {
	m.mu.Lock()
	for _, rec := range m.records {
		if rec.timer != nil {
			rec.timer.Stop()
		}
	}
	m.records = make(map[int]*record)
	m.mu.Unlock()
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}
