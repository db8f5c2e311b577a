// Package credential derives and caches the short-lived API key that the
// GraphQL endpoints require. The key is scraped from the site homepage.
package credential

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/fetcher"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// DefaultTTL is how long a derived key is reused.
const DefaultTTL = 24 * time.Hour

const (
	source = "graphql"
	marker = `"api_config":{"key":"`
)

// ErrKeyNotFound reports a homepage without a usable key.
var ErrKeyNotFound = errors.New("api key not found in homepage")

// Manager hands out the current API key, refreshing it when stale.
type Manager struct {
	fetcher fetcher.Fetcher
	baseURL string
	ttl     time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	key       string
	fetchedAt time.Time

	group singleflight.Group
}

// NewManager returns a Manager that scrapes baseURL. A non-positive ttl
// uses DefaultTTL.
func NewManager(f fetcher.Fetcher, baseURL string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{fetcher: f, baseURL: baseURL, ttl: ttl, now: time.Now}
}

// Key returns a valid key, fetching a new one if the cached key is absent
// or older than the TTL. Concurrent callers share one fetch.
func (m *Manager) Key(ctx context.Context) (string, error) {
	if key, ok := m.cached(); ok {
		return key, nil
	}

	v, err, shared := m.group.Do("key", func() (any, error) {
		if key, ok := m.cached(); ok {
			return key, nil
		}
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		logger.Debug("api key fetch shared with concurrent caller")
	}
	return v.(string), nil
}

// Invalidate drops the cached key so the next Key call refetches.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = ""
	m.fetchedAt = time.Time{}
	logger.Debug("api key invalidated")
}

func (m *Manager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == "" || m.now().Sub(m.fetchedAt) >= m.ttl {
		return "", false
	}
	return m.key, true
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	logger.Debug("fetching api key", "url", m.baseURL)
	content, err := m.fetcher.Fetch(ctx, m.baseURL, fetcher.Options{})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", stay.Credential(source, "fetch homepage", err)
	}

	key := Extract(content.Body)
	if key == "" {
		return "", stay.Credential(source, "extract key", ErrKeyNotFound)
	}

	m.mu.Lock()
	m.key = key
	m.fetchedAt = m.now()
	m.mu.Unlock()

	logger.Info("api key refreshed", "ttl", m.ttl)
	return key, nil
}

// Extract returns the key following the api_config marker, or "".
func Extract(page []byte) string {
	i := bytes.Index(page, []byte(marker))
	if i < 0 {
		return ""
	}
	rest := page[i+len(marker):]
	end := bytes.IndexByte(rest, '"')
	if end <= 0 {
		return ""
	}
	return string(rest[:end])
}
