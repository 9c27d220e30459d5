package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds fetcher settings
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	RequestsPerSec float64 // courtesy pacing across all upstream calls
}

// DefaultConfig returns default fetcher settings
func DefaultConfig() Config {
	return Config{
		UserAgent:      "HubSearch/1.0 (charging hub siting)",
		Timeout:        30 * time.Second,
		RequestsPerSec: 1,
	}
}

// Fetcher downloads the per-commune source datasets: cadastral parcels,
// HTA network lines, road axes, and the city bounding box / urban center.
// One shared HTTP client and rate limiter pace every upstream call.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string

	nominatimURL string
	cadastreURL  string
	enedisURL    string
	overpassURL  string
}

// New creates a Fetcher with the given settings
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	return &Fetcher{
		client:       &http.Client{Timeout: cfg.Timeout},
		limiter:      limiter,
		userAgent:    cfg.UserAgent,
		nominatimURL: "https://nominatim.openstreetmap.org",
		cadastreURL:  "https://cadastre.data.gouv.fr/bundler/cadastre-etalab",
		enedisURL:    "https://data.enedis.fr/api/records/1.0/download/",
		overpassURL:  "https://overpass-api.de/api/interpreter",
	}
}

// get performs a paced GET and returns the body on a 200 response.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
