package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
)

func rateLimited(reset time.Time) error {
	return &github.RateLimitError{
		Rate: github.Rate{Reset: github.Timestamp{Time: reset}},
		Response: &http.Response{
			StatusCode: http.StatusForbidden,
			Request:    &http.Request{Method: http.MethodGet, URL: &url.URL{Scheme: "https", Host: "api.github.com", Path: "/notifications"}},
		},
		Message: "API rate limit exceeded",
	}
}

func TestIsRateLimit(t *testing.T) {
	retryAfter := 5 * time.Second
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("connection reset"), false},
		{"rate limit", rateLimited(time.Now()), true},
		{"wrapped rate limit", fmt.Errorf("list: %w", rateLimited(time.Now())), true},
		{"secondary limit", &github.AbuseRateLimitError{RetryAfter: &retryAfter}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimit(tt.err); got != tt.want {
				t.Errorf("IsRateLimit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimitWait(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	retryAfter := 7 * time.Second
	tests := []struct {
		name   string
		err    error
		want   time.Duration
		wantOK bool
	}{
		{"until reset", rateLimited(now.Add(40 * time.Second)), 40 * time.Second, true},
		{"reset passed", rateLimited(now.Add(-time.Second)), time.Minute, true},
		{"retry after", &github.AbuseRateLimitError{RetryAfter: &retryAfter}, 7 * time.Second, true},
		{"secondary without hint", &github.AbuseRateLimitError{}, time.Minute, true},
		{"other error", errors.New("boom"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RateLimitWait(tt.err, now, time.Minute)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("RateLimitWait() = %s, %v; want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
