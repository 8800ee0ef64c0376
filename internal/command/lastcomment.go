package command

import (
	"context"
	"errors"
	"strings"

	"github.com/epy0n0ff/charles/internal/github"
)

// FromLastComment validates that the last comment of the issue is a command
// for the agent: it mentions @agentLogin and was not written by the agent.
// Only the last comment is examined, so once the agent has replied the
// issue holds no command until somebody mentions it again.
func FromLastComment(ctx context.Context, issue *github.Issue, agentLogin string) (*Command, error) {
	last, err := issue.LastComment(ctx)
	if errors.Is(err, github.ErrNoComments) {
		return nil, noCommand("issue %s has no comments", issue)
	}
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(last.Author, agentLogin) {
		return nil, noCommand("last comment of %s was written by the agent", issue)
	}
	if !Mentions(last.Body, agentLogin) {
		return nil, noCommand("last comment of %s does not mention @%s", issue, agentLogin)
	}

	return New(issue, *last, agentLogin), nil
}
