// Package config loads the process configuration of the agent.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration read from defaults, the TOML file and the environment
type Config struct {
	// LogRoot is the prefix of <LogRoot>/ActionsLogs/<id>.log
	LogRoot string `koanf:"log_root"`

	// LogsEndpoint serves action logs; when empty logs are published as gists
	LogsEndpoint string `koanf:"charles.rest.logs.endpoint"`

	// BrowserExec is the headless browser used by the crawler
	BrowserExec string `koanf:"phantomjsExec"`

	// GitHub API token for authentication
	GitHubToken string `koanf:"github.token"`

	// GitHub Enterprise host (e.g., "github.company.com"); empty for GitHub.com
	GHHost string `koanf:"github.host"`

	// Login of the agent; resolved from the token when empty
	AgentLogin string `koanf:"github.login"`

	// IndexDSN is the SQLite data source of the search index
	IndexDSN string `koanf:"index.dsn"`

	CrawlMaxPages int           `koanf:"crawl.max_pages"`
	CrawlTimeout  time.Duration `koanf:"crawl.timeout"`
	CrawlIgnored  []string      `koanf:"crawl.ignored"`

	// SMTP relay; emails are only logged when SMTPAddr is empty
	SMTPAddr     string `koanf:"smtp.addr"`
	SMTPUser     string `koanf:"smtp.user"`
	SMTPPassword string `koanf:"smtp.password"`
	SMTPFrom     string `koanf:"smtp.from"`

	PollInterval time.Duration `koanf:"poll.interval"`
	PollWorkers  int           `koanf:"poll.workers"`

	// Enable debug logging
	Debug bool `koanf:"debug"`
}

// envKeys maps environment variables to configuration keys
var envKeys = map[string]string{
	"LOG_ROOT":                "log_root",
	"CHARLES_LOGS_ENDPOINT":   "charles.rest.logs.endpoint",
	"PHANTOMJS_EXEC":          "phantomjsExec",
	"GITHUB_TOKEN":            "github.token",
	"GITHUB_HOST":             "github.host",
	"CHARLES_LOGIN":           "github.login",
	"CHARLES_INDEX_DSN":       "index.dsn",
	"CHARLES_CRAWL_MAX_PAGES": "crawl.max_pages",
	"CHARLES_CRAWL_TIMEOUT":   "crawl.timeout",
	"CHARLES_SMTP_ADDR":       "smtp.addr",
	"CHARLES_SMTP_USER":       "smtp.user",
	"CHARLES_SMTP_PASSWORD":   "smtp.password",
	"CHARLES_SMTP_FROM":       "smtp.from",
	"CHARLES_POLL_INTERVAL":   "poll.interval",
	"CHARLES_POLL_WORKERS":    "poll.workers",
	"CHARLES_DEBUG":           "debug",
}

// Defaults returns the default configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_root":        "",
		"phantomjsExec":   "/usr/local/bin/phantomjs",
		"index.dsn":       "charles-index.db",
		"crawl.max_pages": 20,
		"crawl.timeout":   "2m",
		"poll.interval":   "1m",
		"poll.workers":    4,
		"debug":           false,
	}
}

// Load reads the configuration: defaults, then the TOML file at path (if any),
// then the environment. The result is validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	// unknown and empty variables are skipped
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envKeys[key], value
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return errors.New("GitHub token is required (GITHUB_TOKEN)\n" +
			"  → Action: Set github.token in the config file or GITHUB_TOKEN in the environment")
	}
	if err := validateGHHost(c.GHHost); err != nil {
		return err
	}
	if c.CrawlMaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be positive, got: %d", c.CrawlMaxPages)
	}
	if c.CrawlTimeout <= 0 {
		return fmt.Errorf("crawl.timeout must be positive, got: %s", c.CrawlTimeout)
	}
	if c.PollWorkers <= 0 {
		return fmt.Errorf("poll.workers must be positive, got: %d", c.PollWorkers)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got: %s", c.PollInterval)
	}
	if c.SMTPAddr != "" && c.SMTPFrom == "" {
		return errors.New("smtp.from is required when smtp.addr is set (CHARLES_SMTP_FROM)")
	}
	return nil
}

func validateGHHost(host string) error {
	if host == "" {
		return nil
	}
	if i := strings.Index(host, "://"); i >= 0 {
		return fmt.Errorf("gh-host must not include protocol, got: %s\n"+
			"  → Use: %s", host, host[i+3:])
	}
	if i := strings.Index(host, "/"); i >= 0 {
		return fmt.Errorf("gh-host must not include path, got: %s\n"+
			"  → Use: %s", host, host[:i])
	}
	parts := strings.Split(host, ":")
	switch len(parts) {
	case 1:
		return nil
	case 2:
		port, err := strconv.Atoi(parts[1])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port in gh-host: %s (must be 1-65535)", host)
		}
		return nil
	default:
		return fmt.Errorf("invalid gh-host format with port: %s", host)
	}
}

// Host returns the GitHub host actions talk to
func (c *Config) Host() string {
	if c.GHHost == "" {
		return "github.com"
	}
	return c.GHHost
}
