package github

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// CharlesYmlPath is the per-repo configuration file read from the repository root
const CharlesYmlPath = ".charles.yml"

// ErrInvalidCharlesYml is wrapped by parse errors of .charles.yml
var ErrInvalidCharlesYml = errors.New("invalid " + CharlesYmlPath)

// CharlesYml is the per-repo configuration
type CharlesYml struct {
	// Commanders may give index/delete commands even when they are not owners
	Commanders []string `yaml:"commanders"`
}

// ParseCharlesYml parses the content of a .charles.yml file
func ParseCharlesYml(content []byte) (*CharlesYml, error) {
	cfg := &CharlesYml{}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCharlesYml, err)
	}
	return cfg, nil
}

// HasCommander reports whether login is listed as commander (case-insensitive)
func (c *CharlesYml) HasCommander(login string) bool {
	for _, commander := range c.Commanders {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(commander), "@"), login) {
			return true
		}
	}
	return false
}
