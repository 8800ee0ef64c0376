// Package poller feeds the issues where the agent was mentioned to actions.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/epy0n0ff/charles/internal/github"
)

// RunFunc handles one issue. It is called on a worker goroutine.
type RunFunc func(ctx context.Context, issue *github.Issue) error

// Config controls polling
type Config struct {
	Interval time.Duration
	Workers  int
}

// Poller lists unread mentions periodically and runs one action per issue,
// at most Workers at a time. An issue with an action in flight is skipped.
type Poller struct {
	client github.Client
	cfg    Config
	run    RunFunc
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates a poller
func New(client github.Client, cfg Config, run RunFunc, log zerolog.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("poll workers must be positive")
	}
	return &Poller{
		client:   client,
		cfg:      cfg,
		run:      run,
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}, nil
}

// Run polls until ctx is done, then waits for running actions to finish
func (p *Poller) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	defer g.Wait()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		wait := p.cfg.Interval
		if _, err := p.Poll(ctx, &g); err != nil {
			if limit, ok := github.RateLimitWait(err, p.now(), p.cfg.Interval); ok {
				wait = limit
				p.log.Warn().Dur("wait", wait).Msg("GitHub rate limit reached, waiting for reset")
			} else if ctx.Err() == nil {
				p.log.Error().Err(err).Msg("failed to poll mentions")
			}
		}
		timer.Reset(wait)
	}
}

// Poll starts an action on g for every unread mention and returns how many were started.
// g.Go blocks while all workers are busy. Cancelling ctx stops polling but
// never interrupts a started action.
func (p *Poller) Poll(ctx context.Context, g *errgroup.Group) (int, error) {
	mentions, err := p.client.ListMentions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list mentions: %w", err)
	}

	work := context.WithoutCancel(ctx)

	started := 0
	for _, m := range mentions {
		if err := p.client.MarkThreadRead(ctx, m.ThreadID); err != nil {
			p.log.Warn().Err(err).Str("thread", m.ThreadID).Msg("failed to mark thread read")
			continue
		}

		issue := github.NewIssue(p.client, m.Owner, m.Repo, m.Number)
		key := issue.String()
		if !p.claim(key) {
			p.log.Debug().Str("issue", key).Msg("action already in flight, skipping")
			continue
		}

		p.log.Info().Str("issue", key).Msg("mentioned")
		g.Go(func() error {
			defer p.release(key)
			if err := p.run(work, issue); err != nil {
				p.log.Error().Err(err).Str("issue", key).Msg("action could not be started")
			}
			return nil
		})
		started++
	}
	return started, nil
}

func (p *Poller) claim(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[key] {
		return false
	}
	p.inFlight[key] = true
	return true
}

func (p *Poller) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, key)
}
