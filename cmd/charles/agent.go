package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/epy0n0ff/charles/internal/action"
	"github.com/epy0n0ff/charles/internal/config"
	"github.com/epy0n0ff/charles/internal/crawler"
	"github.com/epy0n0ff/charles/internal/github"
	"github.com/epy0n0ff/charles/internal/index"
	"github.com/epy0n0ff/charles/internal/knowledge"
	"github.com/epy0n0ff/charles/internal/language"
	"github.com/epy0n0ff/charles/internal/mail"
)

// agent holds the collaborators shared by every action of the process
type agent struct {
	client  github.Client
	index   *index.SQLite
	brain   *knowledge.Brain
	actions action.Config
}

func newAgent(ctx context.Context, cfg *config.Config) (*agent, error) {
	client, err := github.NewClient(cfg.GitHubToken, cfg.GHHost)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	login := cfg.AgentLogin
	if login == "" {
		login, err = client.AuthenticatedLogin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve agent login: %w", err)
		}
	}
	if remaining, err := client.CheckRateLimit(ctx); err == nil {
		log.Debug().Int("remaining", remaining).Msg("GitHub rate limit")
	}

	repo, err := index.OpenSQLite(ctx, cfg.IndexDSN)
	if err != nil {
		return nil, err
	}

	var mailer mail.Sender = mail.LogOnly{Logger: log.Logger}
	if cfg.SMTPAddr != "" {
		smtp, err := mail.NewSMTP(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
		if err != nil {
			repo.Close()
			return nil, err
		}
		mailer = smtp
	}

	graph := crawler.NewGraphCrawl()
	graph.Timeout = cfg.CrawlTimeout

	actions := knowledge.NewActions(knowledge.Config{
		Crawler:     graph,
		Index:       repo,
		Mailer:      mailer,
		BrowserExec: cfg.BrowserExec,
		MaxPages:    cfg.CrawlMaxPages,
		Ignored:     crawler.IgnoredPatterns(cfg.CrawlIgnored),
	})

	brain := knowledge.NewBrain(actions, language.English())
	if err := brain.Validate(); err != nil {
		repo.Close()
		return nil, err
	}

	return &agent{
		client: client,
		index:  repo,
		brain:  brain,
		actions: action.Config{
			LogRoot:      cfg.LogRoot,
			LogsEndpoint: cfg.LogsEndpoint,
			AgentLogin:   login,
			Log:          log.Logger,
		},
	}, nil
}

func (a *agent) Close() error {
	return a.index.Close()
}
