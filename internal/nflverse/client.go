// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package nflverse downloads and interprets the nflverse CSV release assets:
// season rosters and weekly player stats.
//
// Downloads are cached in process memory per URL for a TTL. Each download is
// fingerprinted with xxh3 so callers can skip work when a weekly file has not
// changed since the previous cycle.
package nflverse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "gridwatch/internal/errors"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the nflverse-data release download root.
const DefaultBaseURL = "https://github.com/nflverse/nflverse-data/releases/download"

// DefaultTTL bounds how long a downloaded asset is reused.
const DefaultTTL = time.Hour

// Options configures a Client. Zero fields take defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Season  int
	TTL     time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client fetches nflverse assets.
type Client struct {
	baseURL string
	http    *http.Client
	season  int
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]*cached
}

type cached struct {
	table       *Table
	fingerprint uint64
	fetched     time.Time
}

// New builds a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Season == 0 {
		opts.Season = time.Now().Year()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		season:  opts.Season,
		ttl:     opts.TTL,
		now:     time.Now,
		cache:   make(map[string]*cached),
	}
}

// Season is the current season searches run against.
func (c *Client) Season() int { return c.season }

func (c *Client) rosterURL(season int) string {
	return fmt.Sprintf("%s/rosters/roster_%d.csv", c.baseURL, season)
}

func (c *Client) weeklyURL(season int) string {
	return fmt.Sprintf("%s/player_stats/player_stats_%d.csv", c.baseURL, season)
}

// Roster returns the season roster table.
func (c *Client) Roster(ctx context.Context, season int) (*Table, error) {
	e, err := c.load(ctx, c.rosterURL(season), "roster", season)
	if err != nil {
		return nil, err
	}
	return e.table, nil
}

// Weekly returns the season's weekly player stats table.
func (c *Client) Weekly(ctx context.Context, season int) (*Table, error) {
	e, err := c.load(ctx, c.weeklyURL(season), "weekly stats", season)
	if err != nil {
		return nil, err
	}
	return e.table, nil
}

// WeeklyFingerprint returns the xxh3 hash of the season's weekly file.
func (c *Client) WeeklyFingerprint(ctx context.Context, season int) (uint64, error) {
	e, err := c.load(ctx, c.weeklyURL(season), "weekly stats", season)
	if err != nil {
		return 0, err
	}
	return e.fingerprint, nil
}

func (c *Client) load(ctx context.Context, url, what string, season int) (*cached, error) {
	c.mu.Lock()
	if e, ok := c.cache[url]; ok && c.now().Sub(e.fetched) < c.ttl {
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(url, func() (any, error) {
		body, err := c.download(ctx, url, what, season)
		if err != nil {
			return nil, err
		}
		table, err := parseTable(bytes.NewReader(body))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Upstream, fmt.Sprintf("malformed %s file for %d", what, season), err)
		}
		e := &cached{table: table, fingerprint: xxh3.Hash(body), fetched: c.now()}
		c.mu.Lock()
		c.cache[url] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cached), nil
}

func (c *Client) download(ctx context.Context, url, what string, season int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "gridwatch/1.0")
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Upstream, fmt.Sprintf("fetch %s for %d", what, season), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.New(apperrors.NotFound, fmt.Sprintf("no %s published for %d", what, season))
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Wrap(apperrors.Upstream, fmt.Sprintf("fetch %s for %d", what, season),
			fmt.Errorf("server returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Upstream, fmt.Sprintf("read %s for %d", what, season), err)
	}
	return body, nil
}
