// Package disposable answers whether an email address belongs to a
// throwaway-mail provider, using a lazily loaded, TTL-bounded domain list.
package disposable

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched domain list stays fresh.
const DefaultTTL = 24 * time.Hour

// ErrInvalidEmail is returned for addresses without a domain part.
var ErrInvalidEmail = errors.New("disposable: invalid email address")

// Fetcher loads the current list of disposable domains.
type Fetcher interface {
	Fetch(ctx context.Context) ([]string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context) ([]string, error) { return f(ctx) }

// HTTPFetcher downloads a newline-separated domain list. Blank lines and
// lines starting with '#' are ignored.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// Fetch downloads and parses the list.
func (h HTTPFetcher) Fetch(ctx context.Context) ([]string, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("disposable: build request: %w", err)
	}
	resp, err := client.Do(req) //nolint:gosec // list URL comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("disposable: fetch list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("disposable: fetch list: HTTP %d", resp.StatusCode)
	}

	var domains []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("disposable: read list: %w", err)
	}
	return domains, nil
}

// Checker caches the domain list. It loads on first use, refreshes after
// the TTL elapses and coalesces concurrent refreshes. When a refresh fails
// after a successful load the previous list keeps being served.
type Checker struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	domains  map[string]struct{}
	loadedAt time.Time
}

// NewChecker creates a checker. A non-positive ttl uses DefaultTTL.
func NewChecker(f Fetcher, ttl time.Duration, logger *slog.Logger) *Checker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		fetcher: f,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// IsDisposable reports whether email's domain, or any parent domain, is on
// the list.
func (c *Checker) IsDisposable(ctx context.Context, email string) (bool, error) {
	at := strings.LastIndexByte(email, '@')
	if at < 1 || at == len(email)-1 {
		return false, ErrInvalidEmail
	}
	domain := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(email[at+1:])), ".")

	domains, err := c.load(ctx)
	if err != nil {
		return false, err
	}

	for d := domain; d != ""; {
		if _, ok := domains[d]; ok {
			return true, nil
		}
		dot := strings.IndexByte(d, '.')
		if dot < 0 {
			break
		}
		d = d[dot+1:]
	}
	return false, nil
}

// Invalidate forces the next check to refresh the list.
func (c *Checker) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadedAt = time.Time{}
}

func (c *Checker) load(ctx context.Context) (map[string]struct{}, error) {
	domains, fresh := c.cached()
	if fresh {
		return domains, nil
	}

	v, err, _ := c.group.Do("domains", func() (any, error) {
		if d, ok := c.cached(); ok {
			return d, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		if domains != nil {
			c.logger.WarnContext(ctx, "disposable list refresh failed, serving stale list", "error", err)
			return domains, nil
		}
		return nil, err
	}
	return v.(map[string]struct{}), nil
}

func (c *Checker) cached() (map[string]struct{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fresh := c.domains != nil && !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < c.ttl
	return c.domains, fresh
}

func (c *Checker) refresh(ctx context.Context) (map[string]struct{}, error) {
	list, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	domains := make(map[string]struct{}, len(list))
	for _, d := range list {
		d = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			domains[d] = struct{}{}
		}
	}

	c.mu.Lock()
	c.domains = domains
	c.loadedAt = c.now()
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "disposable list loaded", "domains", len(domains))
	return domains, nil
}
