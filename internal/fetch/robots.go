package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsGate checks robots.txt before a page fetch. Rules are fetched on every
// call; nothing is cached between requests.
type RobotsGate struct {
	client    *http.Client
	userAgent string
}

// NewRobotsGate builds a gate that uses client for robots.txt requests.
func NewRobotsGate(client *http.Client, userAgent string) *RobotsGate {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsGate{client: client, userAgent: userAgent}
}

// Allowed reports whether target may be fetched. Errors retrieving or parsing
// robots.txt allow the fetch.
func (g *RobotsGate) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}
	data, err := g.rules(ctx, target)
	if err != nil {
		logrus.WithError(err).WithField("url", target.String()).Debug("robots.txt unavailable, allowing fetch")
		return true
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, g.userAgent)
}

func (g *RobotsGate) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
