package knowledge

import (
	"github.com/epy0n0ff/charles/internal/language"
	"github.com/epy0n0ff/charles/internal/logs"
)

// Brain is shared by all actions; it builds the knowledge of one action
// around the location of that action's logs
type Brain struct {
	Languages []language.Language
	Actions   *Actions
}

// NewBrain creates a brain speaking the given languages, English by default
func NewBrain(actions *Actions, languages ...language.Language) *Brain {
	return &Brain{Languages: languages, Actions: actions}
}

// Knowledge returns the knowledge of an action whose logs live at location
func (b *Brain) Knowledge(location logs.Location) Knowledge {
	return NewConversation(location, b.Actions, b.Languages...)
}

// Validate checks that every language of the brain supplies all responses
func (b *Brain) Validate() error {
	languages := b.Languages
	if len(languages) == 0 {
		languages = []language.Language{language.English()}
	}
	for _, lang := range languages {
		if err := language.Validate(lang); err != nil {
			return err
		}
	}
	return nil
}
