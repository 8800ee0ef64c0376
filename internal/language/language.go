// Package language holds the languages the agent speaks: a classifier that
// maps a comment to a command type and the templates of every reply.
package language

import (
	"fmt"
	"sort"
)

// Command types a classifier may return.
const (
	IndexSite   = "indexsite"
	IndexPage   = "indexpage"
	DeleteIndex = "deleteindex"
	Hello       = "hello"
	Unknown     = "unknown"
)

// Response template keys every language must supply.
const (
	KeyDeniedCommander    = "denied.commander.comment"
	KeyDeniedName         = "denied.name.comment"
	KeyDeniedFork         = "denied.fork.comment"
	KeyIndexConfirmation  = "index.confirmation.email"
	KeyStepFailure        = "step.failure.comment"
	KeyHello              = "hello.comment"
	KeyUnknown            = "unknown.comment"
	KeyIndexPageSuccess   = "indexpage.success.comment"
	KeyDeleteIndexSuccess = "deleteindex.success.comment"
)

// RequiredKeys lists the template keys checked by Validate
var RequiredKeys = []string{
	KeyDeniedCommander,
	KeyDeniedName,
	KeyDeniedFork,
	KeyIndexConfirmation,
	KeyStepFailure,
	KeyHello,
	KeyUnknown,
	KeyIndexPageSuccess,
	KeyDeleteIndexSuccess,
}

// Language is a classifier plus a map of response templates.
// Categorize must be a pure function of the comment body.
type Language interface {
	Name() string
	Categorize(body string) string
	Response(key string) string
}

// Validate checks that lang supplies every required template
func Validate(lang Language) error {
	var missing []string
	for _, key := range RequiredKeys {
		if lang.Response(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("language %s is missing responses: %v", lang.Name(), missing)
	}
	return nil
}
