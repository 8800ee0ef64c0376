package language

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed english.yml
var englishResponses []byte

// mentionPattern matches @login mentions, which carry no command meaning
var mentionPattern = regexp.MustCompile(`@[A-Za-z0-9][A-Za-z0-9-]*`)

// englishCommands are tried in order; the first match wins
var englishCommands = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{DeleteIndex, regexp.MustCompile(`(?i)\b(delete|remove|drop)\b.*\bindex\b`)},
	{IndexPage, regexp.MustCompile(`(?i)\bindex\b.*\bpage\b`)},
	{IndexSite, regexp.MustCompile(`(?i)\bindex\b`)},
	{Hello, regexp.MustCompile(`(?i)\b(hello|hi|hey)\b`)},
}

type english struct {
	responses map[string]string
}

// English returns the default language of the agent
func English() Language {
	lang, err := FromYAML(englishResponses)
	if err != nil {
		// the embedded file is part of the build
		panic(fmt.Sprintf("invalid embedded english responses: %v", err))
	}
	return lang
}

// FromYAML creates an English-classifying language with responses read from a
// YAML map of template key to format string.
func FromYAML(content []byte) (Language, error) {
	responses := make(map[string]string)
	if err := yaml.Unmarshal(content, &responses); err != nil {
		return nil, fmt.Errorf("failed to parse responses: %w", err)
	}
	return &english{responses: responses}, nil
}

func (e *english) Name() string {
	return "english"
}

// Categorize detects the command type of a comment body
func (e *english) Categorize(body string) string {
	text := mentionPattern.ReplaceAllString(body, " ")
	text = strings.Join(strings.Fields(text), " ")
	for _, c := range englishCommands {
		if c.pattern.MatchString(text) {
			return c.kind
		}
	}
	return Unknown
}

func (e *english) Response(key string) string {
	return e.responses[key]
}
