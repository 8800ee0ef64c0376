package github

import "time"

// Comment represents an issue comment fetched from GitHub
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// IssueInfo holds the issue fields the agent needs
type IssueInfo struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
}

// Repo is the repository metadata used by precondition checks
type Repo struct {
	Owner         string `json:"owner"`
	OwnerType     string `json:"owner_type"` // "User" or "Organization"
	Name          string `json:"name"`
	Fork          bool   `json:"fork"`
	DefaultBranch string `json:"default_branch"`
}

// IsOrganization reports whether the repository belongs to an organization
func (r *Repo) IsOrganization() bool {
	return r.OwnerType == "Organization"
}

// PostCommentResponse represents the response from posting a comment
type PostCommentResponse struct {
	ID        int64     `json:"id"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
}

// GistRequest describes a single-file gist
type GistRequest struct {
	Description string
	Filename    string
	Content     string
	Public      bool
}

// GistResponse is the created gist
type GistResponse struct {
	ID      string `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Mention is an unread notification where the agent was mentioned on an issue or PR
type Mention struct {
	ThreadID  string    `json:"thread_id"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	Number    int       `json:"number"`
	UpdatedAt time.Time `json:"updated_at"`
}
