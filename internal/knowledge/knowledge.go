// Package knowledge maps understood commands to the step graphs that handle them.
package knowledge

import (
	"context"
	"fmt"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/language"
	"github.com/epy0n0ff/charles/internal/logs"
	"github.com/epy0n0ff/charles/internal/reply"
	"github.com/epy0n0ff/charles/internal/steps"
)

// Knowledge produces the step graph handling a command
type Knowledge interface {
	Handle(ctx context.Context, cmd *command.Command) (steps.Step, error)
}

// StepFailureMessage is logged when the graph of a command fails
const StepFailureMessage = "[ERROR] Some step didn't execute properly."

// Conversation understands the command and wraps the graph of its followup so
// that any failing step ends in a reply pointing to the action logs
type Conversation struct {
	languages []language.Language
	location  logs.Location
	followup  Knowledge
}

// NewConversation creates a conversation. Languages are tried in the given
// order; English is used when none is given.
func NewConversation(location logs.Location, followup Knowledge, languages ...language.Language) *Conversation {
	if len(languages) == 0 {
		languages = []language.Language{language.English()}
	}
	return &Conversation{languages: languages, location: location, followup: followup}
}

// Handle implements Knowledge
func (c *Conversation) Handle(ctx context.Context, cmd *command.Command) (steps.Step, error) {
	if err := cmd.Understand(c.languages...); err != nil {
		return nil, err
	}
	graph, err := c.followup.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	address, err := c.location.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve logs address: %w", err)
	}

	failure := reply.NewText(
		cmd.Issue(),
		fmt.Sprintf(cmd.Language().Response(language.KeyStepFailure), cmd.AuthorLogin(), address),
	)
	return steps.NewFallback(
		graph,
		steps.NewSendReply(failure, steps.Final{Message: StepFailureMessage}),
	), nil
}
