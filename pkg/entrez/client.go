// Package entrez implements the archive query client: search-count
// validation, experiment-package metadata retrieval, and project-to-run
// resolution against the NCBI eutils endpoints.
package entrez

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/httpclient"
	"github.com/Ramsey-B/sorrel/pkg/metrics"
	"github.com/Ramsey-B/sorrel/pkg/redis"
)

const (
	// DatabaseSRA is the sequencing-run archive database
	DatabaseSRA = "sra"
	// DatabaseBioProject is the project registry database
	DatabaseBioProject = "bioproject"

	// SearchBatchSize is the archive's stated request-size limit for
	// search-count queries
	SearchBatchSize = 10000

	// DefaultFetchBatchSize is how many ids a single metadata fetch carries
	DefaultFetchBatchSize = 200

	// anonymous callers get 3 requests per second, keyed callers 10
	defaultRatePerSecond = 3
	keyedRatePerSecond   = 10
)

// Config holds the eutils endpoint settings.
type Config struct {
	BaseURL         string
	Email           string
	APIKey          string
	Tool            string
	RatePerSecond   int64
	RateKey         string
	Workers         int
	SearchBatchSize int
	FetchBatchSize  int
}

// Client issues rate-limited queries against the archive's eutils endpoints.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	limiter *redis.RateLimiter
	logger  ectologger.Logger
}

// NewClient creates an archive query client. The limiter is optional; without
// one, requests go out unthrottled.
func NewClient(cfg Config, httpClient *httpclient.Client, limiter *redis.RateLimiter, logger ectologger.Logger) *Client {
	if cfg.Tool == "" {
		cfg.Tool = "sorrel"
	}
	if cfg.RateKey == "" {
		cfg.RateKey = "entrez"
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = defaultRatePerSecond
		if cfg.APIKey != "" {
			cfg.RatePerSecond = keyedRatePerSecond
		}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SearchBatchSize <= 0 {
		cfg.SearchBatchSize = SearchBatchSize
	}
	if cfg.FetchBatchSize <= 0 {
		cfg.FetchBatchSize = DefaultFetchBatchSize
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
		logger:  logger,
	}
}

func (c *Client) request(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("tool", c.cfg.Tool)
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	endpointURL := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + endpoint
	resp, err := c.http.PostForm(ctx, endpointURL, params)
	if err != nil {
		metrics.EntrezRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	metrics.EntrezRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryIn := parseRetryAfter(resp.Headers["Retry-After"])
		if c.limiter != nil && retryIn > 0 {
			_ = c.limiter.BlockFor(ctx, c.cfg.RateKey, retryIn)
		}
		return nil, fmt.Errorf("archive throttled %s; retry in %s", endpoint, retryIn)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	return resp.Body, nil
}

// wait blocks until the shared sliding window admits another request. A
// limiter failure is logged and the request proceeds; throttling is best
// effort when Redis is down.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for {
		result, err := c.limiter.Allow(ctx, c.cfg.RateKey, c.cfg.RatePerSecond, time.Second)
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Rate limit check failed")
			return nil
		}
		if result.Allowed {
			return nil
		}
		delay := result.RetryIn
		if delay <= 0 {
			delay = 100 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		return time.Until(at)
	}
	return 0
}
