package command

import (
	"errors"
	"fmt"
)

// ErrNoCommand is matched by every NoCommandError
var ErrNoCommand = errors.New("no command found")

// NoCommandError is returned when the last comment of an issue is not a fresh
// mention of the agent
type NoCommandError struct {
	Reason string
}

func (e *NoCommandError) Error() string {
	return fmt.Sprintf("no command found: %s", e.Reason)
}

// Is makes errors.Is(err, ErrNoCommand) true
func (e *NoCommandError) Is(target error) bool {
	return target == ErrNoCommand
}

func noCommand(format string, args ...interface{}) error {
	return &NoCommandError{Reason: fmt.Sprintf(format, args...)}
}
