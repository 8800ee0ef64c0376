// Package steps is the execution graph of an Action. Every node reports a
// boolean outcome; only transport faults are returned as errors.
package steps

import (
	"context"

	"go.uber.org/zap"

	"github.com/epy0n0ff/charles/internal/command"
)

// Step is a node of the execution graph.
// Perform returns false on handled failures (after logging the cause) and a
// non-nil error only for transport faults, which abort the whole graph.
type Step interface {
	Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error)
}

// Sequence runs steps in order and stops at the first failure
type Sequence struct {
	Steps []Step
}

// NewSequence creates a sequence of steps
func NewSequence(steps ...Step) *Sequence {
	return &Sequence{Steps: steps}
}

// Perform implements Step
func (s *Sequence) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	for _, step := range s.Steps {
		ok, err := step.Perform(ctx, cmd, logger)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Fallback runs Main and, if it fails, OnFailure. The result is Main's.
type Fallback struct {
	Main      Step
	OnFailure Step
}

// NewFallback creates a fallback step
func NewFallback(main, onFailure Step) *Fallback {
	return &Fallback{Main: main, OnFailure: onFailure}
}

// Perform implements Step
func (f *Fallback) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	ok, err := f.Main.Perform(ctx, cmd, logger)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	if _, err := f.OnFailure.Perform(ctx, cmd, logger); err != nil {
		return false, err
	}
	return false, nil
}

// Final is the last leaf of a graph: it logs Message and reports Success
type Final struct {
	Message string
	Success bool
}

// Perform implements Step
func (f Final) Perform(ctx context.Context, cmd *command.Command, logger *zap.Logger) (bool, error) {
	if f.Success {
		logger.Info(f.Message)
	} else {
		logger.Error(f.Message)
	}
	return f.Success, nil
}
