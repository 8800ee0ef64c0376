package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/epy0n0ff/charles/internal/action"
	"github.com/epy0n0ff/charles/internal/config"
	"github.com/epy0n0ff/charles/internal/github"
	"github.com/epy0n0ff/charles/internal/index"
	"github.com/epy0n0ff/charles/internal/poller"
)

const (
	version = "0.1.0"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "charles",
		Usage:   "GitHub agent that indexes GitHub Pages sites on command",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			handleCommand(),
			searchCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Poll mentions and handle commands until interrupted",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := newAgent(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := poller.New(a.client, poller.Config{
				Interval: cfg.PollInterval,
				Workers:  cfg.PollWorkers,
			}, a.run, log.Logger)
			if err != nil {
				return err
			}

			log.Info().
				Str("host", cfg.Host()).
				Str("login", a.actions.AgentLogin).
				Dur("interval", cfg.PollInterval).
				Int("workers", cfg.PollWorkers).
				Msg("charles is listening")
			return p.Run(ctx)
		},
	}
}

func handleCommand() *cli.Command {
	return &cli.Command{
		Name:  "handle",
		Usage: "Handle the last comment of one issue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "repo",
				Usage:    "Repository as `OWNER/NAME`",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "issue",
				Usage:    "Issue `NUMBER`",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			owner, name, err := parseRepo(c.String("repo"))
			if err != nil {
				return err
			}
			if c.Int("issue") <= 0 {
				return errors.New("issue number must be positive")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			a, err := newAgent(c.Context, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			act, err := action.New(a.actions, a.brain, github.NewIssue(a.client, owner, name, c.Int("issue")))
			if err != nil {
				return err
			}
			<-act.Take(c.Context)
			log.Info().Str("action", act.ID()).Str("log", act.LogPath()).Msg("action finished")
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the indexed pages of a repository",
		ArgsUsage: "TERM",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "repo",
				Usage:    "Repository as `OWNER/NAME`",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			owner, name, err := parseRepo(c.String("repo"))
			if err != nil {
				return err
			}
			if c.NArg() != 1 {
				return errors.New("exactly one search term is required")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			repo, err := index.OpenSQLite(c.Context, cfg.IndexDSN)
			if err != nil {
				return err
			}
			defer repo.Close()

			pages, err := repo.Search(c.Context, index.Key(owner, name), c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to search index: %w", err)
			}
			for _, p := range pages {
				fmt.Fprintf(c.App.Writer, "%s\t%s\n", p.URL, p.Title)
			}
			return nil
		},
	}
}

// parseRepo splits "owner/name"
func parseRepo(s string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository must be in format owner/repo, got: %s", s)
	}
	return owner, name, nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	setupLogging(cfg.Debug)
	return cfg, nil
}

// setupLogging configures the process log: human readable when debugging, JSON otherwise
func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// run is the poller's handler: one action per mentioned issue
func (a *agent) run(ctx context.Context, issue *github.Issue) error {
	act, err := action.New(a.actions, a.brain, issue)
	if err != nil {
		return err
	}
	outcome := act.Run(ctx)
	log.Debug().Str("issue", issue.String()).Str("action", act.ID()).Str("outcome", string(outcome)).Msg("action done")
	return nil
}
