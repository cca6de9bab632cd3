package session

import (
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/generate"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/schedule"
)

// RenderState is what the UI should show for one post card. It is a pure
// projection of the post and its status record, independent of any rendering
// technology.
type RenderState string

const (
	RenderLoading        RenderState = "loading"
	RenderAwaitingAction RenderState = "awaiting-action"
	RenderScheduled      RenderState = "scheduled"
	RenderReady          RenderState = "ready"
	RenderPosted         RenderState = "posted"
	RenderError          RenderState = "error"
)

// ProjectPost maps a post and its optional status record to a render state.
// hasStatus is false for posts the user has not acted on yet.
func ProjectPost(post generate.Post, status schedule.PostStatus, hasStatus bool) RenderState {
	if post.IsLoading {
		return RenderLoading
	}
	if !hasStatus {
		return RenderAwaitingAction
	}
	switch status.Status {
	case schedule.StatusScheduled:
		return RenderScheduled
	case schedule.StatusReady:
		return RenderReady
	case schedule.StatusPosted:
		return RenderPosted
	case schedule.StatusError:
		return RenderError
	}
	return RenderAwaitingAction
}
