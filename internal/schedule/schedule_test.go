package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/generate"
)

// fakeSharer records calls and simulates popup blocking.
type fakeSharer struct {
	saved     []string
	opened    []string
	blockOpen bool
	saveErr   error
}

func (f *fakeSharer) SaveImage(imageURL, headline string) error {
	f.saved = append(f.saved, headline)
	return f.saveErr
}

func (f *fakeSharer) OpenComposer(caption string) (bool, error) {
	f.opened = append(f.opened, caption)
	return !f.blockOpen, nil
}

// testEnv bundles a manager with controllable time and captured timers.
type testEnv struct {
	m       *Manager
	sharer  *fakeSharer
	now     time.Time
	timers  []capturedTimer
	changes int
}

type capturedTimer struct {
	d  time.Duration
	fn func()
}

func newTestEnv(t *testing.T, posts map[int]generate.Post) *testEnv {
	t.Helper()
	env := &testEnv{
		sharer: &fakeSharer{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	lookup := func(index int) (generate.Post, bool) {
		p, ok := posts[index]
		return p, ok
	}
	env.m = NewManager(env.sharer, lookup, func() { env.changes++ },
		WithClock(func() time.Time { return env.now }),
		WithSleep(func(time.Duration) {}),
		WithTimerFunc(func(d time.Duration, fn func()) *time.Timer {
			env.timers = append(env.timers, capturedTimer{d: d, fn: fn})
			return time.NewTimer(time.Hour)
		}),
	)
	return env
}

func testPosts(n int) map[int]generate.Post {
	posts := make(map[int]generate.Post, n)
	for i := 0; i < n; i++ {
		p := generate.Post{ImageURL: "data:image/jpeg;base64,abcd", Caption: "caption"}
		p.News.Headline = "headline"
		posts[i] = p
	}
	return posts
}

func TestFireNowMarksPosted(t *testing.T) {
	env := newTestEnv(t, testPosts(1))

	if err := env.m.FireNow(0); err != nil {
		t.Fatalf("fire: %v", err)
	}

	status, ok := env.m.Status(0)
	if !ok || status.Status != StatusPosted {
		t.Errorf("expected posted status, got %+v (ok=%v)", status, ok)
	}
	if len(env.sharer.saved) != 1 || len(env.sharer.opened) != 1 {
		t.Errorf("expected one save and one open, got %d/%d", len(env.sharer.saved), len(env.sharer.opened))
	}
	if env.changes == 0 {
		t.Error("expected onChange to run after fire")
	}
}

func TestFireNowPopupBlocked(t *testing.T) {
	env := newTestEnv(t, testPosts(1))
	env.sharer.blockOpen = true

	if err := env.m.FireNow(0); err != nil {
		t.Fatalf("fire: %v", err)
	}

	status, _ := env.m.Status(0)
	if status.Status != StatusError {
		t.Fatalf("expected error status, got %s", status.Status)
	}
	if status.ErrorMessage != popupBlockedMessage {
		t.Errorf("unexpected error message %q", status.ErrorMessage)
	}
	// The image save still happened as the manual fallback.
	if len(env.sharer.saved) != 1 {
		t.Errorf("expected image saved despite blocked popup, got %d saves", len(env.sharer.saved))
	}
}

func TestFireNowSaveFailureStillOpensComposer(t *testing.T) {
	env := newTestEnv(t, testPosts(1))
	env.sharer.saveErr = errors.New("disk full")

	if err := env.m.FireNow(0); err != nil {
		t.Fatalf("fire: %v", err)
	}

	status, _ := env.m.Status(0)
	if status.Status != StatusPosted {
		t.Errorf("expected posted despite save failure, got %s", status.Status)
	}
}

func TestFireNowRequiresImage(t *testing.T) {
	posts := map[int]generate.Post{0: {Caption: "no image"}}
	env := newTestEnv(t, posts)

	if err := env.m.FireNow(0); err != ErrNoImage {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
	if _, ok := env.m.Status(0); ok {
		t.Error("expected no status record after rejected fire")
	}
}

func TestFireNowUnknownIndex(t *testing.T) {
	env := newTestEnv(t, testPosts(1))
	if err := env.m.FireNow(7); err != ErrUnknownPost {
		t.Errorf("expected ErrUnknownPost, got %v", err)
	}
}

func TestScheduleRejectsPastTime(t *testing.T) {
	env := newTestEnv(t, testPosts(1))

	for _, target := range []time.Time{env.now.Add(-time.Minute), env.now} {
		if err := env.m.Schedule(0, target); err != ErrPastTime {
			t.Errorf("target %v: expected ErrPastTime, got %v", target, err)
		}
	}
	if _, ok := env.m.Status(0); ok {
		t.Error("expected no status record after rejected schedule")
	}
	if len(env.timers) != 0 {
		t.Errorf("expected no timer armed, got %d", len(env.timers))
	}
}

func TestScheduleThenElapseBecomesReady(t *testing.T) {
	env := newTestEnv(t, testPosts(1))
	target := env.now.Add(30 * time.Minute)

	if err := env.m.Schedule(0, target); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	status, _ := env.m.Status(0)
	if status.Status != StatusScheduled {
		t.Fatalf("expected scheduled, got %s", status.Status)
	}
	if !status.ScheduledTime.Equal(target) {
		t.Errorf("expected scheduled time %v, got %v", target, status.ScheduledTime)
	}
	if len(env.timers) != 1 {
		t.Fatalf("expected one armed timer, got %d", len(env.timers))
	}
	if env.timers[0].d != 30*time.Minute {
		t.Errorf("expected 30m timer, got %v", env.timers[0].d)
	}

	env.timers[0].fn()

	status, _ = env.m.Status(0)
	if status.Status != StatusReady {
		t.Errorf("expected ready after elapse, got %s", status.Status)
	}

	// Elapsing the same timer again changes nothing.
	env.timers[0].fn()
	status, _ = env.m.Status(0)
	if status.Status != StatusReady {
		t.Errorf("expected ready to be stable, got %s", status.Status)
	}
}

func TestRescheduleInvalidatesOldTimer(t *testing.T) {
	env := newTestEnv(t, testPosts(1))

	env.m.Schedule(0, env.now.Add(time.Hour))
	env.m.Schedule(0, env.now.Add(2*time.Hour))

	if len(env.timers) != 2 {
		t.Fatalf("expected two armed timers, got %d", len(env.timers))
	}

	// The superseded timer must be inert.
	env.timers[0].fn()
	status, _ := env.m.Status(0)
	if status.Status != StatusScheduled {
		t.Errorf("stale timer mutated status to %s", status.Status)
	}

	env.timers[1].fn()
	status, _ = env.m.Status(0)
	if status.Status != StatusReady {
		t.Errorf("expected ready from live timer, got %s", status.Status)
	}
}

func TestFireNowCancelsPendingSchedule(t *testing.T) {
	env := newTestEnv(t, testPosts(1))

	env.m.Schedule(0, env.now.Add(time.Hour))
	if err := env.m.FireNow(0); err != nil {
		t.Fatalf("fire: %v", err)
	}

	status, _ := env.m.Status(0)
	if status.Status != StatusPosted {
		t.Fatalf("expected posted, got %s", status.Status)
	}

	// The cancelled schedule timer must not resurrect the post.
	env.timers[0].fn()
	status, _ = env.m.Status(0)
	if status.Status != StatusPosted {
		t.Errorf("stale timer overwrote posted with %s", status.Status)
	}
}

func TestCancelScheduleReturnsToUntouched(t *testing.T) {
	env := newTestEnv(t, testPosts(1))

	env.m.Schedule(0, env.now.Add(time.Hour))
	env.m.CancelSchedule(0)

	if _, ok := env.m.Status(0); ok {
		t.Error("expected status record removed after cancel")
	}

	env.timers[0].fn()
	if _, ok := env.m.Status(0); ok {
		t.Error("cancelled timer recreated a status record")
	}

	// Cancelling again is a no-op.
	env.m.CancelSchedule(0)
}

func TestRetryOnlyFromError(t *testing.T) {
	env := newTestEnv(t, testPosts(1))

	if err := env.m.Retry(0); err != ErrNotErrored {
		t.Errorf("expected ErrNotErrored for untouched post, got %v", err)
	}

	env.sharer.blockOpen = true
	env.m.FireNow(0)

	// Still blocked, so the retry is allowed but ends in error again.
	if err := env.m.Retry(0); err != nil {
		t.Fatalf("retry from error state: %v", err)
	}
	status, _ := env.m.Status(0)
	if status.Status != StatusError {
		t.Errorf("expected error after blocked retry, got %s", status.Status)
	}

	env.sharer.blockOpen = false
	if err := env.m.Retry(0); err != nil {
		t.Fatalf("retry: %v", err)
	}
	status, _ = env.m.Status(0)
	if status.Status != StatusPosted {
		t.Errorf("expected posted after successful retry, got %s", status.Status)
	}
}

func TestAllTerminal(t *testing.T) {
	env := newTestEnv(t, testPosts(3))

	if env.m.AllTerminal(0) {
		t.Error("AllTerminal(0) must be false")
	}
	if env.m.AllTerminal(3) {
		t.Error("expected false with no records")
	}

	env.m.FireNow(0)
	env.m.FireNow(1)
	if env.m.AllTerminal(3) {
		t.Error("expected false with one post outstanding")
	}

	env.sharer.blockOpen = true
	env.m.FireNow(2)
	if !env.m.AllTerminal(3) {
		t.Error("expected true with posted+posted+error")
	}

	env.m.Schedule(1, env.now.Add(time.Hour))
	if env.m.AllTerminal(3) {
		t.Error("expected false after rescheduling a posted index")
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, testPosts(2))

	env.m.Schedule(0, env.now.Add(time.Hour))
	env.m.FireNow(1)
	env.m.Reset()

	if len(env.m.Statuses()) != 0 {
		t.Error("expected no records after reset")
	}

	env.timers[0].fn()
	if len(env.m.Statuses()) != 0 {
		t.Error("timer from before reset recreated a record")
	}
}
