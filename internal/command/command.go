package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/epy0n0ff/charles/internal/github"
	"github.com/epy0n0ff/charles/internal/language"
)

// ErrAlreadyClassified is returned when a command is understood a second time
var ErrAlreadyClassified = errors.New("command type was already assigned")

// Command is the last comment of an issue, addressed to the agent.
// Everything but its (type, language) pair is fixed at construction;
// the pair is assigned once by Understand.
type Command struct {
	issue      *github.Issue
	comment    github.Comment
	agentLogin string

	mu         sync.Mutex
	classified bool
	typ        string
	lang       language.Language

	emailOnce sync.Once
	email     string
	emailErr  error
}

// New creates a command from a comment of the issue
func New(issue *github.Issue, comment github.Comment, agentLogin string) *Command {
	return &Command{
		issue:      issue,
		comment:    comment,
		agentLogin: agentLogin,
		typ:        language.Unknown,
	}
}

// Issue returns the issue where the command was given
func (c *Command) Issue() *github.Issue {
	return c.issue
}

// AuthorLogin returns the login of the commander
func (c *Command) AuthorLogin() string {
	return c.comment.Author
}

// AgentLogin returns the login of the agent
func (c *Command) AgentLogin() string {
	return c.agentLogin
}

// Body returns the raw comment body
func (c *Command) Body() string {
	return c.comment.Body
}

// CommentID returns the ID of the comment holding the command
func (c *Command) CommentID() int64 {
	return c.comment.ID
}

// CreatedAt returns when the command was given
func (c *Command) CreatedAt() time.Time {
	return c.comment.CreatedAt
}

// Type returns the command type, language.Unknown until understood
func (c *Command) Type() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typ
}

// Language returns the language the command was understood in, nil until understood
func (c *Command) Language() language.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// Understand assigns the (type, language) pair. Languages are tried in order and
// the first one whose classifier recognizes the body wins. If none does, the type
// stays unknown and the first language is used to talk back.
func (c *Command) Understand(langs ...language.Language) error {
	if len(langs) == 0 {
		return errors.New("at least one language is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.classified {
		return ErrAlreadyClassified
	}

	c.typ = language.Unknown
	c.lang = langs[0]
	for _, lang := range langs {
		if kind := lang.Categorize(c.comment.Body); kind != language.Unknown {
			c.typ = kind
			c.lang = lang
			break
		}
	}
	c.classified = true
	return nil
}

// AuthorEmail returns the public email of the commander, resolved on first call
func (c *Command) AuthorEmail(ctx context.Context) (string, error) {
	c.emailOnce.Do(func() {
		c.email, c.emailErr = c.issue.Client().GetUserEmail(ctx, c.comment.Author)
		if c.emailErr != nil {
			c.emailErr = fmt.Errorf("failed to read email of %s: %w", c.comment.Author, c.emailErr)
		}
	})
	return c.email, c.emailErr
}

// mentionPatterns caches the compiled mention pattern per lower-cased login
var mentionPatterns sync.Map

// Mentions reports whether body mentions login. GitHub mentions are case-insensitive.
func Mentions(body, login string) bool {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return false
	}
	return mentionPattern(login).MatchString(body)
}

func mentionPattern(login string) *regexp.Regexp {
	if p, ok := mentionPatterns.Load(login); ok {
		return p.(*regexp.Regexp)
	}
	p := regexp.MustCompile(`(?i)(^|[^\w-])@` + regexp.QuoteMeta(login) + `($|[^\w-])`)
	actual, _ := mentionPatterns.LoadOrStore(login, p)
	return actual.(*regexp.Regexp)
}
