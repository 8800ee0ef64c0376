package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client defines the GitHub API operations used by the agent.
// Implementations must be safe for concurrent use: every Action shares one client.
type Client interface {
	// GetIssue fetches the issue metadata
	GetIssue(ctx context.Context, owner, repo string, number int) (*IssueInfo, error)

	// ListIssueComments fetches all comments of an issue in creation order
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*Comment, error)

	// GetRepo fetches repository metadata
	GetRepo(ctx context.Context, owner, repo string) (*Repo, error)

	// ListBranches returns the branch names of a repository
	ListBranches(ctx context.Context, owner, repo string) ([]string, error)

	// ListOrgAdmins returns the logins of the active admins of an organization
	ListOrgAdmins(ctx context.Context, org string) ([]string, error)

	// GetFileContent reads a file from the default branch. found is false on 404.
	GetFileContent(ctx context.Context, owner, repo, path string) (content []byte, found bool, err error)

	// CreateIssueComment posts a comment on an issue
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*PostCommentResponse, error)

	// StarRepo stars the repository as the authenticated user
	StarRepo(ctx context.Context, owner, repo string) error

	// GetUserEmail returns the public email of a user, empty if not public
	GetUserEmail(ctx context.Context, login string) (string, error)

	// CreateGist creates a single-file gist
	CreateGist(ctx context.Context, req *GistRequest) (*GistResponse, error)

	// UpdateGist replaces the content of a gist file
	UpdateGist(ctx context.Context, id, filename, content string) error

	// AuthenticatedLogin returns the login of the token owner
	AuthenticatedLogin(ctx context.Context) (string, error)

	// ListMentions returns unread mention notifications on issues and pull requests
	ListMentions(ctx context.Context) ([]*Mention, error)

	// MarkThreadRead marks a notification thread as read
	MarkThreadRead(ctx context.Context, threadID string) error

	// CheckRateLimit returns remaining API calls
	CheckRateLimit(ctx context.Context) (int, error)
}

// ClientImpl is the concrete implementation using go-github
type ClientImpl struct {
	client *github.Client
}

// NewClient creates a new GitHub API client.
// ghHost is the GitHub Enterprise Server hostname, empty for GitHub.com.
func NewClient(token, ghHost string) (Client, error) {
	if token == "" {
		return nil, errors.New("GitHub token is required")
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	if ghHost == "" {
		return &ClientImpl{client: github.NewClient(tc)}, nil
	}

	baseURL := "https://" + ghHost
	ghClient, err := github.NewClient(tc).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub Enterprise client for %s: %w", ghHost, err)
	}
	return &ClientImpl{client: ghClient}, nil
}

// GetIssue fetches the issue metadata
func (c *ClientImpl) GetIssue(ctx context.Context, owner, repo string, number int) (*IssueInfo, error) {
	issue, _, err := c.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	return &IssueInfo{
		Number:  issue.GetNumber(),
		Title:   issue.GetTitle(),
		HTMLURL: issue.GetHTMLURL(),
	}, nil
}

// ListIssueComments fetches all comments of an issue in creation order
func (c *ClientImpl) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*Comment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var all []*Comment
	for {
		comments, resp, err := c.client.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}
		for _, comment := range comments {
			all = append(all, &Comment{
				ID:        comment.GetID(),
				Author:    comment.GetUser().GetLogin(),
				Body:      comment.GetBody(),
				CreatedAt: comment.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetRepo fetches repository metadata
func (c *ClientImpl) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	r, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return &Repo{
		Owner:         r.GetOwner().GetLogin(),
		OwnerType:     r.GetOwner().GetType(),
		Name:          r.GetName(),
		Fork:          r.GetFork(),
		DefaultBranch: r.GetDefaultBranch(),
	}, nil
}

// ListBranches returns the branch names of a repository
func (c *ClientImpl) ListBranches(ctx context.Context, owner, repo string) ([]string, error) {
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var names []string
	for {
		branches, resp, err := c.client.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}
		for _, b := range branches {
			names = append(names, b.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// ListOrgAdmins returns the logins of the active admins of an organization
func (c *ClientImpl) ListOrgAdmins(ctx context.Context, org string) ([]string, error) {
	opts := &github.ListMembersOptions{
		Role:        "admin",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var logins []string
	for {
		members, resp, err := c.client.Organizations.ListMembers(ctx, org, opts)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			logins = append(logins, m.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return logins, nil
}

// GetFileContent reads a file from the default branch
func (c *ClientImpl) GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, bool, error) {
	file, _, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	if file == nil {
		// path is a directory
		return nil, false, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return []byte(content), true, nil
}

// CreateIssueComment posts a comment on an issue
func (c *ClientImpl) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*PostCommentResponse, error) {
	comment := &github.IssueComment{
		Body: github.String(body),
	}

	created, _, err := c.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return nil, err
	}

	return &PostCommentResponse{
		ID:        created.GetID(),
		HTMLURL:   created.GetHTMLURL(),
		CreatedAt: created.GetCreatedAt().Time,
	}, nil
}

// StarRepo stars the repository as the authenticated user
func (c *ClientImpl) StarRepo(ctx context.Context, owner, repo string) error {
	_, err := c.client.Activity.Star(ctx, owner, repo)
	return err
}

// GetUserEmail returns the public email of a user
func (c *ClientImpl) GetUserEmail(ctx context.Context, login string) (string, error) {
	user, _, err := c.client.Users.Get(ctx, login)
	if err != nil {
		return "", err
	}
	return user.GetEmail(), nil
}

// CreateGist creates a single-file gist
func (c *ClientImpl) CreateGist(ctx context.Context, req *GistRequest) (*GistResponse, error) {
	gist := &github.Gist{
		Description: github.String(req.Description),
		Public:      github.Bool(req.Public),
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(req.Filename): {Content: github.String(req.Content)},
		},
	}

	created, _, err := c.client.Gists.Create(ctx, gist)
	if err != nil {
		return nil, err
	}
	return &GistResponse{
		ID:      created.GetID(),
		HTMLURL: created.GetHTMLURL(),
	}, nil
}

// UpdateGist replaces the content of a gist file
func (c *ClientImpl) UpdateGist(ctx context.Context, id, filename, content string) error {
	gist := &github.Gist{
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(filename): {Content: github.String(content)},
		},
	}
	_, _, err := c.client.Gists.Edit(ctx, id, gist)
	return err
}

// AuthenticatedLogin returns the login of the token owner
func (c *ClientImpl) AuthenticatedLogin(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// ListMentions returns unread mention notifications on issues and pull requests
func (c *ClientImpl) ListMentions(ctx context.Context) ([]*Mention, error) {
	opts := &github.NotificationListOptions{
		ListOptions: github.ListOptions{PerPage: 50},
	}

	var mentions []*Mention
	for {
		notifications, resp, err := c.client.Activity.ListNotifications(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, n := range notifications {
			if n.GetReason() != "mention" {
				continue
			}
			number, ok := IssueNumberFromURL(n.GetSubject().GetURL())
			if !ok {
				continue
			}
			mentions = append(mentions, &Mention{
				ThreadID:  n.GetID(),
				Owner:     n.GetRepository().GetOwner().GetLogin(),
				Repo:      n.GetRepository().GetName(),
				Number:    number,
				UpdatedAt: n.GetUpdatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return mentions, nil
}

// MarkThreadRead marks a notification thread as read
func (c *ClientImpl) MarkThreadRead(ctx context.Context, threadID string) error {
	_, err := c.client.Activity.MarkThreadRead(ctx, threadID)
	return err
}

// CheckRateLimit returns remaining API calls
func (c *ClientImpl) CheckRateLimit(ctx context.Context) (int, error) {
	rate, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return 0, err
	}
	return rate.Core.Remaining, nil
}

// IssueNumberFromURL extracts the number from an API subject URL such as
// https://api.github.com/repos/owner/repo/issues/12 or .../pulls/12
func IssueNumberFromURL(subjectURL string) (int, bool) {
	parts := strings.Split(strings.TrimRight(subjectURL, "/"), "/")
	if len(parts) < 2 {
		return 0, false
	}
	kind := parts[len(parts)-2]
	if kind != "issues" && kind != "pulls" {
		return 0, false
	}
	number, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || number <= 0 {
		return 0, false
	}
	return number, true
}
