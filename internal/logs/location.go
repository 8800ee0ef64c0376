package logs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/epy0n0ff/charles/internal/github"
)

// Location is where users read the log of an action.
// Address is stable for the lifetime of the action.
type Location interface {
	Address(ctx context.Context) (string, error)
	// Publish makes the complete log available at Address
	Publish(ctx context.Context) error
}

// OnServer is a log served by the charles REST endpoint
type OnServer struct {
	endpoint string
	filename string
}

// NewOnServer creates the location <endpoint>/<id>.log
func NewOnServer(endpoint, id string) *OnServer {
	return &OnServer{endpoint: strings.TrimSuffix(endpoint, "/"), filename: id + ".log"}
}

// Address implements Location
func (s *OnServer) Address(ctx context.Context) (string, error) {
	return s.endpoint + "/" + s.filename, nil
}

// Publish implements Location. The server reads the log root directly.
func (s *OnServer) Publish(ctx context.Context) error {
	return nil
}

// InGist publishes the log as a secret gist
type InGist struct {
	path   string
	client github.Client
	id     string

	mu     sync.Mutex
	gistID string
	url    string
}

// NewInGist creates a gist location for the log file at path
func NewInGist(path string, client github.Client, id string) *InGist {
	return &InGist{path: path, client: client, id: id}
}

// Address implements Location. The gist is created on first call.
func (g *InGist) Address(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.url != "" {
		return g.url, nil
	}

	content, err := g.read()
	if err != nil {
		return "", err
	}
	resp, err := g.client.CreateGist(ctx, &github.GistRequest{
		Description: "Logs of action " + g.id,
		Filename:    g.filename(),
		Content:     content,
		Public:      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create logs gist: %w", err)
	}
	g.gistID = resp.ID
	g.url = resp.HTMLURL
	return g.url, nil
}

// Publish implements Location
func (g *InGist) Publish(ctx context.Context) error {
	if _, err := g.Address(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	content, err := g.read()
	if err != nil {
		return err
	}
	if err := g.client.UpdateGist(ctx, g.gistID, g.filename(), content); err != nil {
		return fmt.Errorf("failed to update logs gist %s: %w", g.gistID, err)
	}
	return nil
}

func (g *InGist) filename() string {
	return g.id + ".log"
}

// read returns the log content; gists cannot be empty
func (g *InGist) read() (string, error) {
	content, err := os.ReadFile(g.path)
	if err != nil {
		return "", fmt.Errorf("failed to read log file: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return "Action " + g.id + " started.\n", nil
	}
	return string(content), nil
}
