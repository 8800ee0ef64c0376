// Package action runs the handling of one mention on one issue.
package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/github"
	"github.com/epy0n0ff/charles/internal/knowledge"
	"github.com/epy0n0ff/charles/internal/logs"
	"github.com/epy0n0ff/charles/internal/reply"
)

// Config holds the process settings every action needs
type Config struct {
	// LogRoot is the prefix of <LogRoot>/ActionsLogs/<id>.log
	LogRoot string

	// LogsEndpoint serves the action logs; when empty logs are published as gists
	LogsEndpoint string

	// AgentLogin is the GitHub login of the agent
	AgentLogin string

	// Log is the process log receiving action metrics
	Log zerolog.Logger
}

// Brain builds the knowledge of an action around the location of its logs
type Brain interface {
	Knowledge(location logs.Location) knowledge.Knowledge
}

// Action is the handling of the last comment of one issue. An action owns its
// log file and log location from New until Run returns.
type Action struct {
	id        string
	cfg       Config
	issue     *github.Issue
	knowledge knowledge.Knowledge
	file      *logs.File
	location  logs.Location
	logger    *zap.Logger
}

// New sets up an action: a fresh id, its log file and the location of the logs.
// Errors creating the log file are returned and no action is started.
func New(cfg Config, brain Brain, issue *github.Issue) (*Action, error) {
	id := uuid.NewString()
	file, err := logs.NewFile(cfg.LogRoot, id)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logs of action %s: %w", id, err)
	}

	var location logs.Location
	if cfg.LogsEndpoint != "" {
		location = logs.NewOnServer(cfg.LogsEndpoint, id)
	} else {
		location = logs.NewInGist(file.Path, issue.Client(), id)
	}

	return &Action{
		id:        id,
		cfg:       cfg,
		issue:     issue,
		knowledge: brain.Knowledge(location),
		file:      file,
		location:  location,
		logger:    file.Logger,
	}, nil
}

// ID returns the unique identifier of the action
func (a *Action) ID() string {
	return a.id
}

// LogPath returns the path of the action's log file
func (a *Action) LogPath() string {
	return a.file.Path
}

// Take runs the action on its own goroutine. The returned channel is closed when it ends.
func (a *Action) Take(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx)
	}()
	return done
}

// Run handles the command synchronously, then closes and publishes the log.
// An action must be run once.
func (a *Action) Run(ctx context.Context) Outcome {
	started := time.Now()
	outcome, cmd := a.run(ctx)

	if err := a.file.Close(); err != nil {
		a.cfg.Log.Error().Err(err).Str("action", a.id).Msg("failed to close action log")
	}
	if outcome != OutcomeNoCommand {
		if err := a.location.Publish(ctx); err != nil {
			a.cfg.Log.Error().Err(err).Str("action", a.id).Msg("failed to publish action log")
		}
	}

	event := NewMetricsEvent(a, cmd, outcome, started, time.Now())
	if err := logMetrics(a.cfg.Log, event); err != nil {
		a.cfg.Log.Warn().Err(err).Msg("failed to log metrics")
	}
	return outcome
}

// run returns the command it handled, nil when none was found
func (a *Action) run(ctx context.Context) (Outcome, *command.Command) {
	a.logger.Info("Started action " + a.id)

	cmd, err := command.FromLastComment(ctx, a.issue, a.cfg.AgentLogin)
	if errors.Is(err, command.ErrNoCommand) {
		a.logger.Info("No command found in the issue or the agent has already replied to the last command!")
		a.logger.Debug(err.Error())
		return OutcomeNoCommand, nil
	}
	if err != nil {
		return a.fail(ctx, err), nil
	}
	a.logger.Info("Received command: " + cmd.Body())

	graph, err := a.knowledge.Handle(ctx, cmd)
	if err != nil {
		return a.fail(ctx, err), cmd
	}
	ok, err := graph.Perform(ctx, cmd, a.logger)
	if err != nil {
		return a.fail(ctx, err), cmd
	}
	if !ok {
		a.logger.Error("Some steps did not execute successfully! Check above for details.")
		return OutcomeStepFailure, cmd
	}
	a.logger.Info("Finished action " + a.id)
	return OutcomeSuccess, cmd
}

// fail logs a transport fault and tells the user where the logs are.
// A reply that cannot be sent is only logged.
func (a *Action) fail(ctx context.Context, cause error) Outcome {
	a.logger.Error("Action failed", zap.Error(cause))

	address, err := a.location.Address(ctx)
	if err != nil {
		a.logger.Error("Logs address is unavailable", zap.Error(err))
		address = ""
	}
	if _, err := reply.NewError(a.issue, address).Send(ctx); err != nil {
		a.logger.Error("FAILED TO REPLY!", zap.Error(err))
	}
	return OutcomeFault
}
