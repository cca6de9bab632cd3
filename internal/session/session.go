package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/gateway"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/generate"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/schedule"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/workflow"
)

// Session is the single running client session. It owns the news list, the
// generated posts, the workflow step machine, and the scheduling manager; all
// orchestration state lives here and is lost when the process exits.
type Session struct {
	mu         sync.Mutex
	gw         gateway.Gateway
	pipeline   *generate.Pipeline
	machine    *workflow.Machine
	sched      *schedule.Manager
	news       []gateway.NewsItem
	posts      []generate.Post
	thinking   bool
	generating bool
	lastError  string
}

// New creates a session. pace is the pipeline's pacing interval; schedOpts
// are forwarded to the scheduling manager.
func New(gw gateway.Gateway, sharer schedule.Sharer, pace time.Duration, schedOpts ...schedule.Option) *Session {
	s := &Session{
		gw:       gw,
		pipeline: generate.NewPipeline(gw, pace),
		machine:  workflow.NewMachine(),
	}
	s.sched = schedule.NewManager(sharer, s.post, s.recheckPostStage, schedOpts...)
	return s
}

// FetchNews runs the fetch stage: on success the news list is stored and the
// generate stage becomes active; on failure the fetch stage is marked errored
// until the user retries.
func (s *Session) FetchNews(ctx context.Context) error {
	if s.machine.Status(workflow.StepFetch) == workflow.StatusError {
		if err := s.machine.Reactivate(workflow.StepFetch); err != nil {
			return err
		}
	}
	if s.machine.Active() != workflow.StepFetch {
		return fmt.Errorf("session: fetch stage is not active")
	}

	news, err := s.gw.FetchNewsBatch(ctx, s.ThinkingMode())
	if err != nil {
		s.machine.Fail(workflow.StepFetch)
		s.setLastError("Failed to fetch tech news. Please try again.")
		return fmt.Errorf("fetching news: %w", err)
	}

	s.mu.Lock()
	s.news = news
	s.lastError = ""
	s.mu.Unlock()
	return s.machine.Advance(workflow.StepFetch)
}

// GenerateContent runs the generation pipeline over the fetched news. The
// posts array is visible and progressively filled while the pipeline runs.
// Item-level failures never fail the stage; it completes when the loop ends.
func (s *Session) GenerateContent(ctx context.Context) error {
	s.mu.Lock()
	if len(s.news) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("session: no news items to generate from")
	}
	if s.generating {
		s.mu.Unlock()
		return fmt.Errorf("session: generation already in progress")
	}
	if s.machine.Active() != workflow.StepGenerate {
		s.mu.Unlock()
		return fmt.Errorf("session: generate stage is not active")
	}
	s.generating = true
	items := make([]gateway.NewsItem, len(s.news))
	copy(items, s.news)
	thinking := s.thinking
	s.mu.Unlock()

	s.pipeline.Run(ctx, items, thinking, s.publishPost)

	s.mu.Lock()
	s.generating = false
	s.mu.Unlock()
	return s.machine.Advance(workflow.StepGenerate)
}

func (s *Session) publishPost(index int, post generate.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= len(s.posts) {
		grown := make([]generate.Post, index+1)
		copy(grown, s.posts)
		s.posts = grown
	}
	s.posts[index] = post
}

// post is the scheduling manager's lookup into the posts array.
func (s *Session) post(index int) (generate.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.posts) {
		return generate.Post{}, false
	}
	return s.posts[index], true
}

// recheckPostStage runs after every post status mutation. The post stage
// completes exactly when every post index holds a terminal status.
func (s *Session) recheckPostStage() {
	s.mu.Lock()
	n := len(s.posts)
	s.mu.Unlock()

	if s.machine.Status(workflow.StepPost) != workflow.StatusActive {
		return
	}
	if s.sched.AllTerminal(n) {
		s.machine.Advance(workflow.StepPost)
	}
}

// UpdateCaption replaces the caption of a generated post. Posts still being
// generated cannot be edited.
func (s *Session) UpdateCaption(index int, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.posts) {
		return fmt.Errorf("session: unknown post index %d", index)
	}
	if s.posts[index].IsLoading {
		return fmt.Errorf("session: post %d is still generating", index)
	}
	s.posts[index].Caption = caption
	return nil
}

// FireNow posts the given index immediately.
func (s *Session) FireNow(index int) error {
	return s.sched.FireNow(index)
}

// Schedule arms a deferred ready-transition for the given index.
func (s *Session) Schedule(index int, target time.Time) error {
	return s.sched.Schedule(index, target)
}

// CancelSchedule cancels a pending schedule, returning the post to untouched.
func (s *Session) CancelSchedule(index int) {
	s.sched.CancelSchedule(index)
}

// RetryPost re-fires a post that ended in an error status.
func (s *Session) RetryPost(index int) error {
	return s.sched.Retry(index)
}

// Reset returns the whole session to its initial state, releasing every
// armed timer and clearing all derived data.
func (s *Session) Reset() {
	s.sched.Reset()
	s.machine.Reset()
	s.mu.Lock()
	s.news = nil
	s.posts = nil
	s.generating = false
	s.lastError = ""
	s.mu.Unlock()
}

// News returns a copy of the fetched news items.
func (s *Session) News() []gateway.NewsItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gateway.NewsItem, len(s.news))
	copy(out, s.news)
	return out
}

// Posts returns a copy of the generated posts.
func (s *Session) Posts() []generate.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]generate.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Steps returns the current workflow steps.
func (s *Session) Steps() []workflow.Step {
	return s.machine.Steps()
}

// Active returns the step currently awaiting user action, or "".
func (s *Session) Active() workflow.StepID {
	return s.machine.Active()
}

// PostStatuses returns a snapshot of all post status records.
func (s *Session) PostStatuses() map[int]schedule.PostStatus {
	return s.sched.Statuses()
}

// ThinkingMode reports whether thinking mode is enabled.
func (s *Session) ThinkingMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thinking
}

// SetThinkingMode toggles the larger model with a thinking budget.
func (s *Session) SetThinkingMode(on bool) {
	s.mu.Lock()
	s.thinking = on
	s.mu.Unlock()
}

// Generating reports whether the pipeline is currently running.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// LastError returns the last stage-level error message, or "".
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Session) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}
