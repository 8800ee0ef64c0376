// Package reply holds the messages the agent posts back to an issue.
package reply

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/epy0n0ff/charles/internal/github"
)

// ErrAlreadySent is returned when a reply is sent a second time
var ErrAlreadySent = errors.New("reply was already sent")

// Reply is a message to be posted once on the originating issue
type Reply interface {
	Send(ctx context.Context) (*github.PostCommentResponse, error)
	Body() string
}

// TextReply posts a fixed, already formatted body
type TextReply struct {
	issue *github.Issue
	body  string
	sent  atomic.Bool
}

// NewText creates a text reply on issue
func NewText(issue *github.Issue, body string) *TextReply {
	return &TextReply{issue: issue, body: body}
}

// Body returns the comment body
func (r *TextReply) Body() string {
	return r.body
}

// Send posts the reply. A reply is sent at most once, even if the post failed.
func (r *TextReply) Send(ctx context.Context) (*github.PostCommentResponse, error) {
	if !r.sent.CompareAndSwap(false, true) {
		return nil, ErrAlreadySent
	}
	resp, err := r.issue.Comment(ctx, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to post reply on %s: %w", r.issue, err)
	}
	return resp, nil
}

// errorTemplate is used when the command could not be handled at all,
// before or regardless of the language it was given in
const errorTemplate = "There was an error when processing your command. [Here](%s) are the logs."

// errorTemplateNoLogs is used when even the log address is unavailable
const errorTemplateNoLogs = "There was an error when processing your command."

// NewError creates the reply sent when an Action fails unexpectedly.
// logsAddress may be empty when the log location could not be resolved.
func NewError(issue *github.Issue, logsAddress string) *TextReply {
	if logsAddress == "" {
		return NewText(issue, errorTemplateNoLogs)
	}
	return NewText(issue, fmt.Sprintf(errorTemplate, logsAddress))
}
