// Package update polls the release page and announces newer versions.
package update

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/cory-johannsen/pdabridge/internal/event"
)

// DefaultInterval is the polling period.
const DefaultInterval = 10 * time.Minute

// Sink receives NewVersion events.
type Sink interface {
	Push(e event.Event)
}

// Checker follows the latest-release redirect and compares the tag it
// lands on with the running version.
type Checker struct {
	client   *http.Client
	url      string
	current  string
	interval time.Duration
	sink     Sink
	logger   *zap.Logger

	announced string
}

// NewChecker creates a Checker. A nil client uses http.DefaultClient.
//
// Precondition: url must be absolute; current must be a version such as
// "1.2.3" or "v1.2.3".
func NewChecker(client *http.Client, url, current string, interval time.Duration, sink Sink, logger *zap.Logger) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Checker{
		client:   client,
		url:      url,
		current:  canonical(current),
		interval: interval,
		sink:     sink,
		logger:   logger,
	}
}

// canonical prefixes v so bare tags parse as semver.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Run checks immediately, then every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (c *Checker) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		if _, err := c.Check(ctx); err != nil {
			c.logger.Warn("failed to get latest release", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check fetches the latest release once.
//
// Postcondition: A NewVersion event carrying the release URL is pushed the
// first time a newer version is seen; newer reports whether it is newer.
func (c *Checker) Check(ctx context.Context) (newer bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("building release request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetching latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetching latest release: http status %d", resp.StatusCode)
	}

	final := resp.Request.URL
	latest := canonical(path.Base(final.Path))
	if !semver.IsValid(latest) {
		return false, fmt.Errorf("release tag %q is not a version", path.Base(final.Path))
	}
	if !semver.IsValid(c.current) {
		return false, fmt.Errorf("running version %q is not a version", c.current)
	}
	if semver.Compare(latest, c.current) <= 0 {
		c.logger.Debug("running the latest version", zap.String("latest", latest))
		return false, nil
	}
	if latest != c.announced {
		c.announced = latest
		c.logger.Info("new version available", zap.String("version", latest), zap.String("url", final.String()))
		c.sink.Push(event.NewAppText(event.NewVersion, final.String()))
	}
	return true, nil
}
