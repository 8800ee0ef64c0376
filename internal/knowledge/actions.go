package knowledge

import (
	"context"
	"fmt"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/crawler"
	"github.com/epy0n0ff/charles/internal/index"
	"github.com/epy0n0ff/charles/internal/language"
	"github.com/epy0n0ff/charles/internal/mail"
	"github.com/epy0n0ff/charles/internal/reply"
	"github.com/epy0n0ff/charles/internal/steps"
)

// DefaultBrowserExec is the headless browser used when none is configured
const DefaultBrowserExec = "/usr/local/bin/phantomjs"

// Config holds the collaborators of the action steps
type Config struct {
	Crawler     crawler.Crawler
	Index       index.Repository
	Mailer      mail.Sender
	BrowserExec string
	MaxPages    int
	Ignored     crawler.IgnoredPatterns
}

// Actions dispatches an understood command to its step graph
type Actions struct {
	cfg Config
}

// NewActions creates the dispatcher, filling unset browser and page cap with defaults
func NewActions(cfg Config) *Actions {
	if cfg.BrowserExec == "" {
		cfg.BrowserExec = DefaultBrowserExec
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = crawler.DefaultMaxPages
	}
	return &Actions{cfg: cfg}
}

// Handle implements Knowledge
func (a *Actions) Handle(ctx context.Context, cmd *command.Command) (steps.Step, error) {
	switch cmd.Type() {
	case language.Hello:
		return a.respond(cmd, language.KeyHello), nil
	case language.IndexSite:
		return a.indexSite(cmd), nil
	case language.IndexPage:
		return a.indexPage(cmd), nil
	case language.DeleteIndex:
		return a.deleteIndex(cmd), nil
	case language.Unknown:
		return a.respond(cmd, language.KeyUnknown), nil
	default:
		return nil, fmt.Errorf("unsupported command type %q", cmd.Type())
	}
}

// respond replies with a template taking the commander's login
func (a *Actions) respond(cmd *command.Command, key string) steps.Step {
	body := fmt.Sprintf(cmd.Language().Response(key), cmd.AuthorLogin())
	return steps.NewSendReply(reply.NewText(cmd.Issue(), body), nil)
}

// deny replies with a denial template taking the @mention of the commander.
// The result of the step is the result of the post.
func (a *Actions) deny(cmd *command.Command, key string) steps.Step {
	body := fmt.Sprintf(cmd.Language().Response(key), "@"+cmd.AuthorLogin())
	return steps.NewSendReply(reply.NewText(cmd.Issue(), body), nil)
}

// guarded runs onGranted when the commander may act on a repository that is not a fork
func (a *Actions) guarded(cmd *command.Command, onGranted steps.Step) steps.Step {
	return steps.RepoOwnershipCheck(
		steps.RepoForkCheck(onGranted, a.deny(cmd, language.KeyDeniedFork)),
		a.deny(cmd, language.KeyDeniedCommander),
	)
}

func (a *Actions) indexSite(cmd *command.Command) steps.Step {
	issue := cmd.Issue()
	key := index.Key(issue.Owner, issue.Repo)
	followup := steps.NewSequence(
		steps.StarRepo{},
		&steps.IndexConfirmationEmail{Mailer: a.cfg.Mailer},
	)

	site := func(url string) steps.Step {
		return steps.NewSequence(
			&steps.IndexSite{
				Crawler:     a.cfg.Crawler,
				Index:       a.cfg.Index,
				URL:         url,
				Key:         key,
				BrowserExec: a.cfg.BrowserExec,
				MaxPages:    a.cfg.MaxPages,
				Ignored:     a.cfg.Ignored,
			},
			followup,
		)
	}

	return a.guarded(cmd, steps.RepoNameCheck(
		site("http://"+issue.Repo),
		steps.GhPagesBranchCheck(
			site("http://"+issue.Owner+".github.io/"+issue.Repo),
			a.deny(cmd, language.KeyDeniedName),
		),
	))
}

func (a *Actions) indexPage(cmd *command.Command) steps.Step {
	issue := cmd.Issue()
	key := index.Key(issue.Owner, issue.Repo)
	link, _ := steps.FirstLink(cmd.Body())
	success := fmt.Sprintf(cmd.Language().Response(language.KeyIndexPageSuccess), cmd.AuthorLogin(), link)

	return a.guarded(cmd, steps.NewSequence(
		&steps.IndexPage{
			Crawler:     a.cfg.Crawler,
			Index:       a.cfg.Index,
			Key:         key,
			BrowserExec: a.cfg.BrowserExec,
		},
		steps.NewSendReply(reply.NewText(issue, success), nil),
	))
}

func (a *Actions) deleteIndex(cmd *command.Command) steps.Step {
	issue := cmd.Issue()
	key := index.Key(issue.Owner, issue.Repo)
	success := fmt.Sprintf(cmd.Language().Response(language.KeyDeleteIndexSuccess), cmd.AuthorLogin(), key)

	return a.guarded(cmd, steps.NewSequence(
		&steps.DeleteIndex{Index: a.cfg.Index, Key: key},
		steps.NewSendReply(reply.NewText(issue, success), nil),
	))
}
