// Package githubtest provides an in-memory GitHub for tests.
package githubtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/epy0n0ff/charles/internal/github"
)

// Fake is an in-memory implementation of github.Client. Zero value is not usable;
// create it with NewFake. The *Err fields inject failures into single operations.
type Fake struct {
	mu sync.Mutex

	Login     string
	repos     map[string]*github.Repo
	branches  map[string][]string
	files     map[string][]byte
	orgAdmins map[string][]string
	emails    map[string]string
	comments  map[string][]*github.Comment
	mentions  []*github.Mention

	Posted     []PostedComment
	Stars      []string
	Gists      map[string]*Gist
	ReadThread []string

	GetRepoErr       error
	ListCommentsErr  error
	CreateCommentErr error
	StarErr          error
	GetUserEmailErr  error
	CreateGistErr    error
	ListMentionsErr  error

	nextID int64
}

// PostedComment is a comment created through the fake
type PostedComment struct {
	Repo   string
	Number int
	Body   string
}

// Gist is a gist created through the fake
type Gist struct {
	ID       string
	Filename string
	Content  string
	Public   bool
	Updates  int
}

// NewFake creates an empty fake GitHub where agentLogin is the authenticated user
func NewFake(agentLogin string) *Fake {
	return &Fake{
		Login:     agentLogin,
		repos:     make(map[string]*github.Repo),
		branches:  make(map[string][]string),
		files:     make(map[string][]byte),
		orgAdmins: make(map[string][]string),
		emails:    make(map[string]string),
		comments:  make(map[string][]*github.Comment),
		Gists:     make(map[string]*Gist),
	}
}

func issueKey(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}

// AddRepo registers a repository with its branches
func (f *Fake) AddRepo(repo *github.Repo, branches ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := repo.Owner + "/" + repo.Name
	if repo.OwnerType == "" {
		repo.OwnerType = "User"
	}
	f.repos[key] = repo
	f.branches[key] = branches
}

// AddFile registers a file at the repository root
func (f *Fake) AddFile(owner, repo, path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[owner+"/"+repo+"/"+path] = []byte(content)
}

// SetOrgAdmins sets the active admins of an organization
func (f *Fake) SetOrgAdmins(org string, admins ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgAdmins[org] = admins
}

// SetEmail sets the public email of a user
func (f *Fake) SetEmail(login, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails[login] = email
}

// AddComment appends a comment to an issue
func (f *Fake) AddComment(owner, repo string, number int, author, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendComment(owner, repo, number, author, body)
}

// AddMention queues an unread mention notification
func (f *Fake) AddMention(m *github.Mention) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentions = append(f.mentions, m)
}

func (f *Fake) appendComment(owner, repo string, number int, author, body string) *github.Comment {
	f.nextID++
	c := &github.Comment{
		ID:        f.nextID,
		Author:    author,
		Body:      body,
		CreatedAt: time.Unix(1700000000+f.nextID, 0).UTC(),
	}
	key := issueKey(owner, repo, number)
	f.comments[key] = append(f.comments[key], c)
	return c
}

// PostedBodies returns the bodies of comments created through the client
func (f *Fake) PostedBodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	bodies := make([]string, 0, len(f.Posted))
	for _, p := range f.Posted {
		bodies = append(bodies, p.Body)
	}
	return bodies
}

// StarCount returns how many times repos were starred
func (f *Fake) StarCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Stars)
}

// GetIssue implements github.Client
func (f *Fake) GetIssue(ctx context.Context, owner, repo string, number int) (*github.IssueInfo, error) {
	return &github.IssueInfo{
		Number:  number,
		Title:   "issue",
		HTMLURL: fmt.Sprintf("https://github.com/%s/%s/issues/%d", owner, repo, number),
	}, nil
}

// ListIssueComments implements github.Client
func (f *Fake) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListCommentsErr != nil {
		return nil, f.ListCommentsErr
	}
	src := f.comments[issueKey(owner, repo, number)]
	out := make([]*github.Comment, len(src))
	copy(out, src)
	return out, nil
}

// GetRepo implements github.Client
func (f *Fake) GetRepo(ctx context.Context, owner, repo string) (*github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetRepoErr != nil {
		return nil, f.GetRepoErr
	}
	r, ok := f.repos[owner+"/"+repo]
	if !ok {
		return nil, fmt.Errorf("GET /repos/%s/%s: 404 Not Found", owner, repo)
	}
	cp := *r
	return &cp, nil
}

// ListBranches implements github.Client
func (f *Fake) ListBranches(ctx context.Context, owner, repo string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.branches[owner+"/"+repo]...), nil
}

// ListOrgAdmins implements github.Client
func (f *Fake) ListOrgAdmins(ctx context.Context, org string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.orgAdmins[org]...), nil
}

// GetFileContent implements github.Client
func (f *Fake) GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[owner+"/"+repo+"/"+path]
	return content, ok, nil
}

// CreateIssueComment implements github.Client. Posted comments become part of the issue.
func (f *Fake) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*github.PostCommentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateCommentErr != nil {
		return nil, f.CreateCommentErr
	}
	c := f.appendComment(owner, repo, number, f.Login, body)
	f.Posted = append(f.Posted, PostedComment{Repo: owner + "/" + repo, Number: number, Body: body})
	return &github.PostCommentResponse{
		ID:        c.ID,
		HTMLURL:   fmt.Sprintf("https://github.com/%s/%s/issues/%d#issuecomment-%d", owner, repo, number, c.ID),
		CreatedAt: c.CreatedAt,
	}, nil
}

// StarRepo implements github.Client
func (f *Fake) StarRepo(ctx context.Context, owner, repo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StarErr != nil {
		return f.StarErr
	}
	f.Stars = append(f.Stars, owner+"/"+repo)
	return nil
}

// GetUserEmail implements github.Client
func (f *Fake) GetUserEmail(ctx context.Context, login string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetUserEmailErr != nil {
		return "", f.GetUserEmailErr
	}
	return f.emails[login], nil
}

// CreateGist implements github.Client
func (f *Fake) CreateGist(ctx context.Context, req *github.GistRequest) (*github.GistResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateGistErr != nil {
		return nil, f.CreateGistErr
	}
	f.nextID++
	id := fmt.Sprintf("gist%d", f.nextID)
	f.Gists[id] = &Gist{ID: id, Filename: req.Filename, Content: req.Content, Public: req.Public}
	return &github.GistResponse{ID: id, HTMLURL: "https://gist.github.com/" + id}, nil
}

// UpdateGist implements github.Client
func (f *Fake) UpdateGist(ctx context.Context, id, filename, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.Gists[id]
	if !ok {
		return fmt.Errorf("PATCH /gists/%s: 404 Not Found", id)
	}
	g.Filename = filename
	g.Content = content
	g.Updates++
	return nil
}

// AuthenticatedLogin implements github.Client
func (f *Fake) AuthenticatedLogin(ctx context.Context) (string, error) {
	return f.Login, nil
}

// ListMentions implements github.Client. Threads marked read are not returned again.
func (f *Fake) ListMentions(ctx context.Context) ([]*github.Mention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListMentionsErr != nil {
		return nil, f.ListMentionsErr
	}
	var out []*github.Mention
	for _, m := range f.mentions {
		read := false
		for _, id := range f.ReadThread {
			if id == m.ThreadID {
				read = true
				break
			}
		}
		if !read {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MarkThreadRead implements github.Client
func (f *Fake) MarkThreadRead(ctx context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReadThread = append(f.ReadThread, threadID)
	return nil
}

// CheckRateLimit implements github.Client
func (f *Fake) CheckRateLimit(ctx context.Context) (int, error) {
	return 5000, nil
}

var _ github.Client = (*Fake)(nil)
