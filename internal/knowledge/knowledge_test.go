package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/epy0n0ff/charles/internal/command"
	"github.com/epy0n0ff/charles/internal/crawler"
	"github.com/epy0n0ff/charles/internal/github"
	"github.com/epy0n0ff/charles/internal/github/githubtest"
	"github.com/epy0n0ff/charles/internal/index"
	"github.com/epy0n0ff/charles/internal/language"
	"github.com/epy0n0ff/charles/internal/logs"
)

type fakeCrawler struct {
	mu   sync.Mutex
	err  error
	urls []string
}

func (f *fakeCrawler) Crawl(ctx context.Context, req crawler.Request) error {
	f.mu.Lock()
	f.urls = append(f.urls, req.StartURL)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return req.Sink.Put(ctx, index.Page{URL: req.StartURL, Title: "home"})
}

type fakeMailer struct {
	to, subjects []string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.to = append(f.to, to)
	f.subjects = append(f.subjects, subject)
	return nil
}

// world is an agent named charles wired to in-memory collaborators
type world struct {
	fake    *githubtest.Fake
	crawler *fakeCrawler
	mailer  *fakeMailer
	index   *index.Memory
	brain   *Brain
}

func newWorld() *world {
	w := &world{
		fake:    githubtest.NewFake("charles"),
		crawler: &fakeCrawler{},
		mailer:  &fakeMailer{},
		index:   index.NewMemory(),
	}
	w.brain = NewBrain(NewActions(Config{
		Crawler: w.crawler,
		Index:   w.index,
		Mailer:  w.mailer,
	}), language.English())
	return w
}

const logsAddress = "https://charles.example.com/logs/abc.log"

// run hands the last comment of owner/name#1 to the brain and performs the resulting graph
func (w *world) run(t *testing.T, owner, name, author, body string) bool {
	t.Helper()
	ctx := context.Background()
	w.fake.AddComment(owner, name, 1, author, body)
	issue := github.NewIssue(w.fake, owner, name, 1)

	cmd, err := command.FromLastComment(ctx, issue, "charles")
	require.NoError(t, err)
	graph, err := w.brain.Knowledge(logs.NewOnServer("https://charles.example.com/logs", "abc")).Handle(ctx, cmd)
	require.NoError(t, err)

	ok, err := graph.Perform(ctx, cmd, zap.NewNop())
	require.NoError(t, err)
	return ok
}

func english(key string, args ...interface{}) string {
	return fmt.Sprintf(language.English().Response(key), args...)
}

func TestIndexSite_UserSite(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "alice", Name: "alice.github.io"}, "master")
	w.fake.SetEmail("alice", "alice@example.com")

	ok := w.run(t, "alice", "alice.github.io", "alice", "@charles index")

	assert.True(t, ok)
	assert.Equal(t, []string{"http://alice.github.io"}, w.crawler.urls)
	assert.Equal(t, []string{"http://alice.github.io"}, w.index.URLs("alice/alice.github.io"))
	assert.Equal(t, []string{"alice/alice.github.io"}, w.fake.Stars)
	assert.Equal(t, []string{"alice@example.com"}, w.mailer.to)
	assert.Equal(t, []string{"Repo alice.github.io successfully indexed"}, w.mailer.subjects)
	assert.Empty(t, w.fake.PostedBodies())
}

func TestIndexSite_GhPages(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "bob", Name: "docs"}, "master", "gh-pages")
	w.fake.SetEmail("bob", "bob@example.com")

	ok := w.run(t, "bob", "docs", "bob", "@charles index")

	assert.True(t, ok)
	assert.Equal(t, []string{"http://bob.github.io/docs"}, w.crawler.urls)
	assert.Equal(t, []string{"http://bob.github.io/docs"}, w.index.URLs("bob/docs"))
	assert.Equal(t, 1, w.fake.StarCount())
	assert.Equal(t, []string{"Repo docs successfully indexed"}, w.mailer.subjects)
}

func TestIndexSite_Denials(t *testing.T) {
	tests := []struct {
		name     string
		repo     *github.Repo
		branches []string
		author   string
		want     string
	}{
		{
			name:   "not owner",
			repo:   &github.Repo{Owner: "alice", Name: "alice.github.io"},
			author: "mallory",
			want:   english(language.KeyDeniedCommander, "@mallory"),
		},
		{
			name:   "fork",
			repo:   &github.Repo{Owner: "alice", Name: "alice.github.io", Fork: true},
			author: "alice",
			want:   english(language.KeyDeniedFork, "@alice"),
		},
		{
			name:     "no site",
			repo:     &github.Repo{Owner: "bob", Name: "docs"},
			branches: []string{"master"},
			author:   "bob",
			want:     english(language.KeyDeniedName, "@bob"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld()
			w.fake.AddRepo(tt.repo, tt.branches...)

			ok := w.run(t, tt.repo.Owner, tt.repo.Name, tt.author, "@charles index")

			assert.True(t, ok)
			assert.Equal(t, []string{tt.want}, w.fake.PostedBodies())
			assert.Empty(t, w.crawler.urls)
			assert.Zero(t, w.fake.StarCount())
			assert.Empty(t, w.mailer.to)
		})
	}
}

func TestIndexSite_OrganizationAdmin(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "acme", OwnerType: "Organization", Name: "acme.github.io"})
	w.fake.SetOrgAdmins("acme", "carol")
	w.fake.SetEmail("carol", "carol@example.com")

	ok := w.run(t, "acme", "acme.github.io", "carol", "@charles index")

	assert.True(t, ok)
	assert.Equal(t, []string{"http://acme.github.io"}, w.crawler.urls)
	assert.Equal(t, []string{"carol@example.com"}, w.mailer.to)
}

func TestIndexSite_StepFailure(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "alice", Name: "alice.github.io"})
	w.fake.SetEmail("alice", "alice@example.com")
	w.crawler.err = errors.New("phantomjs: no such file")

	ok := w.run(t, "alice", "alice.github.io", "alice", "@charles index")

	assert.False(t, ok)
	assert.Equal(t, []string{english(language.KeyStepFailure, "alice", logsAddress)}, w.fake.PostedBodies())
	assert.Zero(t, w.fake.StarCount())
	assert.Empty(t, w.mailer.to)
}

func TestDeniedReplyFailureEscalates(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "alice", Name: "alice.github.io"})
	w.fake.AddComment("alice", "alice.github.io", 1, "mallory", "@charles index")
	issue := github.NewIssue(w.fake, "alice", "alice.github.io", 1)
	ctx := context.Background()

	cmd, err := command.FromLastComment(ctx, issue, "charles")
	require.NoError(t, err)
	graph, err := w.brain.Knowledge(logs.NewOnServer("https://charles.example.com/logs", "abc")).Handle(ctx, cmd)
	require.NoError(t, err)

	w.fake.CreateCommentErr = errors.New("502 Bad Gateway")
	ok, err := graph.Perform(ctx, cmd, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHelloAndUnknown(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "alice", Name: "blog"})

	assert.True(t, w.run(t, "alice", "blog", "mallory", "@charles hello there"))
	assert.True(t, w.run(t, "alice", "blog", "mallory", "@charles make me a sandwich"))

	assert.Equal(t, []string{
		english(language.KeyHello, "mallory"),
		english(language.KeyUnknown, "mallory"),
	}, w.fake.PostedBodies())
}

func TestIndexPage(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "alice", Name: "alice.github.io"})

	ok := w.run(t, "alice", "alice.github.io", "alice", "@charles index page http://alice.github.io/post.html")

	assert.True(t, ok)
	assert.Equal(t, []string{"http://alice.github.io/post.html"}, w.index.URLs("alice/alice.github.io"))
	assert.Equal(t, []string{
		english(language.KeyIndexPageSuccess, "alice", "http://alice.github.io/post.html"),
	}, w.fake.PostedBodies())
}

func TestDeleteIndex(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "alice", Name: "alice.github.io"})
	require.NoError(t, w.index.Upsert(context.Background(), "alice/alice.github.io", []index.Page{{URL: "http://alice.github.io"}}))

	ok := w.run(t, "alice", "alice.github.io", "alice", "@charles delete index")

	assert.True(t, ok)
	assert.Empty(t, w.index.URLs("alice/alice.github.io"))
	assert.Equal(t, []string{english(language.KeyDeleteIndexSuccess, "alice", "alice/alice.github.io")}, w.fake.PostedBodies())
}

// tagged classifies everything containing its word as hello
type tagged struct {
	name, word string
}

func (l tagged) Name() string { return l.name }
func (l tagged) Categorize(body string) string {
	if word := l.word; word != "" && strings.Contains(body, word) {
		return language.Hello
	}
	return language.Unknown
}
func (l tagged) Response(key string) string { return l.name + " %s" }

func TestConversation_LanguageOrder(t *testing.T) {
	w := newWorld()
	w.fake.AddRepo(&github.Repo{Owner: "alice", Name: "blog"})
	w.brain.Languages = []language.Language{tagged{name: "first"}, tagged{name: "second", word: "salut"}}

	w.run(t, "alice", "blog", "bob", "@charles salut")
	w.run(t, "alice", "blog", "bob", "@charles ???")

	assert.Equal(t, []string{"second bob", "first bob"}, w.fake.PostedBodies())
}

// partial has no response for deleteindex
type partial struct{ tagged }

func (l partial) Response(key string) string {
	if key == language.KeyDeleteIndexSuccess {
		return ""
	}
	return l.tagged.Response(key)
}

func TestBrain_Validate(t *testing.T) {
	assert.NoError(t, NewBrain(NewActions(Config{})).Validate())
	assert.NoError(t, NewBrain(NewActions(Config{}), language.English(), tagged{name: "fr"}).Validate())

	err := NewBrain(NewActions(Config{}), language.English(), partial{tagged{name: "de"}}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "language de is missing responses")
	assert.Contains(t, err.Error(), language.KeyDeleteIndexSuccess)
}

func TestConversation_AddressFailure(t *testing.T) {
	fake := githubtest.NewFake("charles")
	fake.AddRepo(&github.Repo{Owner: "alice", Name: "blog"})
	fake.AddComment("alice", "blog", 1, "alice", "@charles hello")
	fake.CreateGistErr = errors.New("403 Forbidden")
	issue := github.NewIssue(fake, "alice", "blog", 1)
	ctx := context.Background()

	file, err := logs.NewFile(t.TempDir(), "abc")
	require.NoError(t, err)
	defer file.Close()

	cmd, err := command.FromLastComment(ctx, issue, "charles")
	require.NoError(t, err)
	_, err = NewBrain(NewActions(Config{})).Knowledge(logs.NewInGist(file.Path, fake, "abc")).Handle(ctx, cmd)
	assert.Error(t, err)
	assert.Empty(t, fake.PostedBodies())
}
