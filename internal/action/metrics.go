package action

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/epy0n0ff/charles/internal/command"
)

// Outcome is how an action ended
type Outcome string

const (
	// OutcomeNoCommand means the issue held no command for the agent
	OutcomeNoCommand Outcome = "no_command"
	// OutcomeSuccess means every step of the graph succeeded
	OutcomeSuccess Outcome = "success"
	// OutcomeStepFailure means a step failed and the user was told where the logs are
	OutcomeStepFailure Outcome = "step_failure"
	// OutcomeFault means a transport fault aborted the graph
	OutcomeFault Outcome = "fault"
)

// MetricsEvent represents structured metrics data for observability
type MetricsEvent struct {
	// EventType is always "action_completed"
	EventType string `json:"event_type"`

	// Timestamp is the event timestamp in ISO 8601 UTC format
	Timestamp string `json:"timestamp"`

	// ActionID is the unique identifier of the action
	ActionID string `json:"action_id"`

	// Repository is "owner/repo"
	Repository string `json:"repository"`

	// IssueNumber is the issue where the command was given
	IssueNumber int `json:"issue_number"`

	// CommentID and CommandType are empty when no command was found
	CommentID   int64  `json:"comment_id,omitempty"`
	CommandType string `json:"command_type,omitempty"`

	// CommandAgeSeconds is the time between the comment and the start of the action
	CommandAgeSeconds float64 `json:"command_age_seconds,omitempty"`

	// Outcome is how the action ended
	Outcome Outcome `json:"outcome"`

	// DurationSeconds is the total run time
	DurationSeconds float64 `json:"duration_seconds"`

	// Success indicates whether the action ended without step failures or faults
	Success bool `json:"success"`
}

// NewMetricsEvent creates a MetricsEvent for a completed action
// cmd is nil when no command was found
func NewMetricsEvent(a *Action, cmd *command.Command, outcome Outcome, started, completed time.Time) *MetricsEvent {
	event := &MetricsEvent{
		EventType:       "action_completed",
		Timestamp:       completed.UTC().Format(time.RFC3339),
		ActionID:        a.id,
		Repository:      a.issue.FullName(),
		IssueNumber:     a.issue.Number,
		Outcome:         outcome,
		DurationSeconds: completed.Sub(started).Seconds(),
		Success:         outcome == OutcomeSuccess || outcome == OutcomeNoCommand,
	}
	if cmd != nil {
		event.CommentID = cmd.CommentID()
		event.CommandType = cmd.Type()
		if created := cmd.CreatedAt(); !created.IsZero() && started.After(created) {
			event.CommandAgeSeconds = started.Sub(created).Seconds()
		}
	}
	return event
}

// logMetrics writes the event as JSON to the process log for external monitoring systems
func logMetrics(logger zerolog.Logger, event *MetricsEvent) error {
	jsonBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	logger.Info().RawJSON("metrics", jsonBytes).Msg("METRICS")
	return nil
}
