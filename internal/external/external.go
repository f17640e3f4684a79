// Package external holds the shared plumbing the C11 issue-tracker clients
// (github, gitlab, linear subpackages) build on: a circuit-breaker-backed
// HTTP round-trip helper with Retry-After-aware backoff, and an env-var
// credential source that re-reads its environment variable on a timer so a
// rotated token takes effect without a process restart.
package external

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	sharederrors "autotundra/internal/shared/errors"
	"autotundra/internal/shared/logging"
)

// RateLimitedError is returned when a remote API responds 429/403 with a
// rate-limit signal; Backoff is how long the caller should wait before
// retrying, taken from Retry-After when present (X-RateLimit-Reset is not
// read).
type RateLimitedError struct {
	Service string
	Backoff time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: rate limited, retry after %s", e.Service, e.Backoff)
}

// ParseRetryAfter reads a Retry-After header (seconds, or an HTTP-date) and
// falls back to def if absent or unparseable.
func ParseRetryAfter(h http.Header, def time.Duration) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return def
}

// DoJSON executes req through cb (nil skips the breaker), decoding a 2xx
// JSON body into out. Non-2xx responses become a RateLimitedError (429/403
// with a rate-limit header) or a plain error otherwise.
func DoJSON(ctx context.Context, client *http.Client, cb *sharederrors.CircuitBreaker, service string, req *http.Request, decode func(body io.Reader) error) error {
	call := func(ctx context.Context) error {
		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return sharederrors.NewTransientError(err, service+": request failed")
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0") {
			return &RateLimitedError{Service: service, Backoff: ParseRetryAfter(resp.Header, 30*time.Second)}
		}
		if resp.StatusCode >= 500 {
			return sharederrors.NewTransientError(fmt.Errorf("%s: status %d", service, resp.StatusCode), service+": server error")
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return sharederrors.NewPermanentError(fmt.Errorf("%s: status %d: %s", service, resp.StatusCode, string(body)), service+": request rejected")
		}
		if decode == nil {
			return nil
		}
		return decode(resp.Body)
	}

	if cb == nil {
		return call(ctx)
	}
	return cb.Execute(ctx, call)
}

// EnvToken is a credential sourced from an environment variable, refreshed
// on a fixed interval so a rotated secret is picked up without restarting
// the process — the local stand-in for the real OAuth refresh flow an
// internet-connected deployment would run instead.
type EnvToken struct {
	envVar string
	value  atomic.Value // string
	log    logging.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewEnvToken constructs an EnvToken reading envVar immediately and every
// refresh thereafter (refresh <= 0 disables the background re-read).
func NewEnvToken(envVar string, refresh time.Duration, log logging.Logger) *EnvToken {
	t := &EnvToken{envVar: envVar, log: logging.OrNop(log), stop: make(chan struct{})}
	t.value.Store(os.Getenv(envVar))
	if refresh > 0 {
		go t.run(refresh)
	}
	return t
}

func (t *EnvToken) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			current := os.Getenv(t.envVar)
			if current != t.value.Load().(string) {
				t.log.Info("external credential rotated", "env_var", t.envVar)
				t.value.Store(current)
			}
		case <-t.stop:
			return
		}
	}
}

// Current returns the token's present value.
func (t *EnvToken) Current() string {
	return t.value.Load().(string)
}

// Close stops the background refresh goroutine. Safe to call more than
// once; a no-op if refresh was disabled.
func (t *EnvToken) Close() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// FetchPageTitle scrapes the <title> of an external URL an issue/PR body
// links to, for the board's link-preview enrichment. Returns "" rather
// than an error on any fetch/parse failure — a missing preview degrades
// gracefully instead of failing the surrounding request.
func FetchPageTitle(ctx context.Context, client *http.Client, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
