package github

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoComments is returned by LastComment when the issue has no comments
var ErrNoComments = errors.New("issue has no comments")

// Issue is a reference to a conversation on GitHub. It is cheap to copy by
// pointer and safe for concurrent use; repository metadata is read once.
type Issue struct {
	client Client
	Owner  string
	Repo   string
	Number int

	mu   sync.Mutex
	repo *Repo
}

// NewIssue creates a reference to owner/repo#number
func NewIssue(client Client, owner, repo string, number int) *Issue {
	return &Issue{
		client: client,
		Owner:  owner,
		Repo:   repo,
		Number: number,
	}
}

// Client returns the client backing this issue
func (i *Issue) Client() Client {
	return i.client
}

// FullName returns "owner/repo"
func (i *Issue) FullName() string {
	return i.Owner + "/" + i.Repo
}

func (i *Issue) String() string {
	return fmt.Sprintf("%s#%d", i.FullName(), i.Number)
}

// Comments returns all comments in creation order
func (i *Issue) Comments(ctx context.Context) ([]*Comment, error) {
	return i.client.ListIssueComments(ctx, i.Owner, i.Repo, i.Number)
}

// LastComment returns the most recent comment of the issue
func (i *Issue) LastComment(ctx context.Context) (*Comment, error) {
	comments, err := i.Comments(ctx)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, ErrNoComments
	}
	return comments[len(comments)-1], nil
}

// HTMLURL returns the browser URL of the issue
func (i *Issue) HTMLURL(ctx context.Context) (string, error) {
	info, err := i.client.GetIssue(ctx, i.Owner, i.Repo, i.Number)
	if err != nil {
		return "", err
	}
	return info.HTMLURL, nil
}

// RepoInfo returns the repository metadata, fetched on first use
func (i *Issue) RepoInfo(ctx context.Context) (*Repo, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.repo != nil {
		return i.repo, nil
	}
	repo, err := i.client.GetRepo(ctx, i.Owner, i.Repo)
	if err != nil {
		return nil, fmt.Errorf("failed to read repository %s: %w", i.FullName(), err)
	}
	i.repo = repo
	return repo, nil
}

// Branches returns the branch names of the repository
func (i *Issue) Branches(ctx context.Context) ([]string, error) {
	return i.client.ListBranches(ctx, i.Owner, i.Repo)
}

// Comment posts a new comment on the issue
func (i *Issue) Comment(ctx context.Context, body string) (*PostCommentResponse, error) {
	return i.client.CreateIssueComment(ctx, i.Owner, i.Repo, i.Number, body)
}

// Star stars the repository of the issue
func (i *Issue) Star(ctx context.Context) error {
	return i.client.StarRepo(ctx, i.Owner, i.Repo)
}

// CharlesYml reads .charles.yml from the repository root.
// A missing file yields an empty configuration.
func (i *Issue) CharlesYml(ctx context.Context) (*CharlesYml, error) {
	content, found, err := i.client.GetFileContent(ctx, i.Owner, i.Repo, CharlesYmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", CharlesYmlPath, err)
	}
	if !found {
		return &CharlesYml{}, nil
	}
	return ParseCharlesYml(content)
}
