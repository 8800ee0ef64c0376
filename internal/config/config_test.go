package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		GitHubToken:   "test-token",
		CrawlMaxPages: 20,
		CrawlTimeout:  2 * time.Minute,
		PollInterval:  time.Minute,
		PollWorkers:   4,
	}
}

// TestValidate_ValidGHHost tests Config.Validate() with valid gh-host values
func TestValidate_ValidGHHost(t *testing.T) {
	tests := []struct {
		name   string
		ghHost string
	}{
		{
			name:   "empty gh-host (GitHub.com)",
			ghHost: "",
		},
		{
			name:   "simple hostname",
			ghHost: "github.company.com",
		},
		{
			name:   "hostname with port",
			ghHost: "github.company.com:8443",
		},
		{
			name:   "IP address with port",
			ghHost: "10.0.1.50:8443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.GHHost = tt.ghHost

			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() with ghHost=%q failed: %v", tt.ghHost, err)
			}
		})
	}
}

// TestValidate_InvalidGHHost tests Config.Validate() rejecting malformed gh-host values
func TestValidate_InvalidGHHost(t *testing.T) {
	tests := []struct {
		name      string
		ghHost    string
		wantError string
		suggest   string
	}{
		{
			name:      "https protocol",
			ghHost:    "https://github.company.com",
			wantError: "gh-host must not include protocol",
			suggest:   "github.company.com",
		},
		{
			name:      "path /api/v3",
			ghHost:    "github.company.com/api/v3",
			wantError: "gh-host must not include path",
			suggest:   "github.company.com",
		},
		{
			name:      "invalid port 65536",
			ghHost:    "github.company.com:65536",
			wantError: "invalid port in gh-host",
		},
		{
			name:      "invalid port non-numeric",
			ghHost:    "github.company.com:abc",
			wantError: "invalid port in gh-host",
		},
		{
			name:      "multiple colons",
			ghHost:    "github.company.com:8443:extra",
			wantError: "invalid gh-host format with port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.GHHost = tt.ghHost

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() with ghHost=%q expected error, got nil", tt.ghHost)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantError)
			}
			if tt.suggest != "" && !strings.Contains(err.Error(), "Use: "+tt.suggest) {
				t.Errorf("Validate() error should suggest %q, got: %v", tt.suggest, err)
			}
		})
	}
}

// TestValidate_RequiredFields tests Config.Validate() with required fields
func TestValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(c *Config)
		wantError string
	}{
		{
			name:      "missing token",
			modify:    func(c *Config) { c.GitHubToken = "" },
			wantError: "GitHub token is required",
		},
		{
			name:      "zero page cap",
			modify:    func(c *Config) { c.CrawlMaxPages = 0 },
			wantError: "crawl.max_pages must be positive",
		},
		{
			name:      "zero crawl timeout",
			modify:    func(c *Config) { c.CrawlTimeout = 0 },
			wantError: "crawl.timeout must be positive",
		},
		{
			name:      "no workers",
			modify:    func(c *Config) { c.PollWorkers = 0 },
			wantError: "poll.workers must be positive",
		},
		{
			name:      "negative interval",
			modify:    func(c *Config) { c.PollInterval = -time.Second },
			wantError: "poll.interval must be positive",
		},
		{
			name:      "smtp without sender",
			modify:    func(c *Config) { c.SMTPAddr = "smtp.example.com:587" },
			wantError: "smtp.from is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantError)
			}
		})
	}
}

// TestLoad_Defaults tests Load() with only the token in the environment
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.GitHubToken != "env-token" {
		t.Errorf("GitHubToken = %q, want %q", cfg.GitHubToken, "env-token")
	}
	if cfg.BrowserExec != "/usr/local/bin/phantomjs" {
		t.Errorf("BrowserExec = %q, want default phantomjs path", cfg.BrowserExec)
	}
	if cfg.CrawlMaxPages != 20 {
		t.Errorf("CrawlMaxPages = %d, want 20", cfg.CrawlMaxPages)
	}
	if cfg.CrawlTimeout != 2*time.Minute {
		t.Errorf("CrawlTimeout = %s, want 2m", cfg.CrawlTimeout)
	}
	if cfg.PollInterval != time.Minute || cfg.PollWorkers != 4 {
		t.Errorf("poll = %s/%d, want 1m/4", cfg.PollInterval, cfg.PollWorkers)
	}
	if cfg.IndexDSN != "charles-index.db" {
		t.Errorf("IndexDSN = %q, want charles-index.db", cfg.IndexDSN)
	}
	if cfg.Host() != "github.com" {
		t.Errorf("Host() = %q, want github.com", cfg.Host())
	}
}

// TestLoad_FileThenEnv tests that the environment overrides the TOML file
func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charles.toml")
	content := `log_root = "/var/log/charles"
phantomjsExec = "/opt/phantomjs/bin/phantomjs"

[charles.rest.logs]
endpoint = "https://charles.example.com/logs"

[github]
token = "file-token"
host = "github.company.com"
login = "charles"

[crawl]
max_pages = 50
timeout = "30s"
ignored = ["/drafts/*", "/private.html"]

[poll]
workers = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("CHARLES_POLL_WORKERS", "8")
	t.Setenv("LOG_ROOT", "/tmp/charles")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.LogRoot != "/tmp/charles" {
		t.Errorf("LogRoot = %q, want env value", cfg.LogRoot)
	}
	if cfg.LogsEndpoint != "https://charles.example.com/logs" {
		t.Errorf("LogsEndpoint = %q", cfg.LogsEndpoint)
	}
	if cfg.BrowserExec != "/opt/phantomjs/bin/phantomjs" {
		t.Errorf("BrowserExec = %q", cfg.BrowserExec)
	}
	if cfg.GitHubToken != "file-token" || cfg.GHHost != "github.company.com" || cfg.AgentLogin != "charles" {
		t.Errorf("github = %q/%q/%q", cfg.GitHubToken, cfg.GHHost, cfg.AgentLogin)
	}
	if cfg.CrawlMaxPages != 50 || cfg.CrawlTimeout != 30*time.Second {
		t.Errorf("crawl = %d/%s, want 50/30s", cfg.CrawlMaxPages, cfg.CrawlTimeout)
	}
	if len(cfg.CrawlIgnored) != 2 || cfg.CrawlIgnored[0] != "/drafts/*" {
		t.Errorf("CrawlIgnored = %v", cfg.CrawlIgnored)
	}
	if cfg.PollWorkers != 8 {
		t.Errorf("PollWorkers = %d, want env override 8", cfg.PollWorkers)
	}
}

// TestLoad_MissingToken tests that Load() validates the configuration
func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "GitHub token is required") {
		t.Errorf("Load() error = %v, want missing token", err)
	}
}

// TestLoad_MissingFile tests Load() with a config file that does not exist
func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}
