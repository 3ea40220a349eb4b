// Package statsapi fetches the win matrix from a remote stats service.
package statsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

const requestTimeout = 15 * time.Second

// Client reads merged_win_pct documents over HTTP
type Client struct {
	url  string
	http *http.Client
}

// NewClient builds a client for cfg. When client credentials are configured
// every request carries a bearer token from the token endpoint.
func NewClient(ctx context.Context, cfg config.StatsAPIConfig) *Client {
	base := &http.Client{Timeout: requestTimeout}
	if cfg.ClientID == "" || cfg.TokenURL == "" {
		return &Client{url: cfg.URL, http: base}
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	httpClient := cc.Client(ctx)
	httpClient.Timeout = requestTimeout
	return &Client{url: cfg.URL, http: httpClient}
}

func (c *Client) Name() string { return "statsapi" }

// LoadMatrix fetches and decodes the matrix
func (c *Client) LoadMatrix(ctx context.Context) (models.WinMatrix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch win rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stats api returned %d: %s", resp.StatusCode, body)
	}

	m, err := catalog.DecodeMatrix(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded win matrix from stats API", "rows", len(m))
	return m, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
