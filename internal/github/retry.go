package github

import (
	"errors"
	"time"

	"github.com/google/go-github/v57/github"
)

// IsRateLimit checks if an error is a GitHub API rate limit error
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var abuseRateLimitErr *github.AbuseRateLimitError
	return errors.As(err, &abuseRateLimitErr)
}

// RateLimitWait returns how long to wait before calling the API again after err.
// ok is false when err is not a rate limit error.
func RateLimitWait(err error, now time.Time, fallback time.Duration) (wait time.Duration, ok bool) {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		reset := rateLimitErr.Rate.Reset.Time
		if reset.After(now) {
			return reset.Sub(now), true
		}
		return fallback, true
	}

	var abuseRateLimitErr *github.AbuseRateLimitError
	if errors.As(err, &abuseRateLimitErr) {
		if abuseRateLimitErr.RetryAfter != nil && *abuseRateLimitErr.RetryAfter > 0 {
			return *abuseRateLimitErr.RetryAfter, true
		}
		return fallback, true
	}

	return 0, false
}
