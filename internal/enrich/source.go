package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/util"
)

const (
	// LRCLIBBaseURL is the LRCLIB API base URL
	LRCLIBBaseURL = "https://lrclib.net/api"

	// UserAgent identifies this application to the lyrics service
	UserAgent = "mcat-MusicCatalog/1.0.0 (https://github.com/franz/music-catalog)"
)

// Source provides enrichment data for a track. Implementations must be
// safe for concurrent use; the enricher fetches from multiple workers.
type Source interface {
	Name() string
	FetchLyrics(ctx context.Context, track *catalog.Track) (string, error)
}

// LRCLIBClient fetches lyrics from an LRCLIB-style API with rate
// limiting and retry on transient failures.
type LRCLIBClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      *util.RetryConfig
}

// NewLRCLIBClient creates a lyrics client. ratePerSec bounds outbound
// requests across all workers; zero means the service default of 2/s.
func NewLRCLIBClient(baseURL string, ratePerSec float64) *LRCLIBClient {
	if baseURL == "" {
		baseURL = LRCLIBBaseURL
	}
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &LRCLIBClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
		retry:      util.DefaultRetryConfig(),
	}
}

// Name implements Source
func (c *LRCLIBClient) Name() string {
	return "lrclib"
}

// lyricsResponse is the LRCLIB get/search response shape
type lyricsResponse struct {
	ID           int64  `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// FetchLyrics looks a track up by artist and title. Returns "" with a
// nil error when the service has no lyrics for the track; errors are
// reserved for I/O and protocol failures.
func (c *LRCLIBClient) FetchLyrics(ctx context.Context, track *catalog.Track) (string, error) {
	if track.Title == "" {
		return "", fmt.Errorf("%w: track %s has no title to search by", util.ErrSourceFetch, track.ID)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("track_name", track.Title)
	if track.Artist != "" {
		q.Set("artist_name", track.Artist)
	}
	urlStr := fmt.Sprintf("%s/get?%s", c.baseURL, q.Encode())

	util.DebugLog("LRCLIB: fetching lyrics for %q / %q", track.Artist, track.Title)

	return util.RetryWithBackoff(ctx, c.retry, func() (string, error) {
		return c.fetchOnce(ctx, urlStr)
	}, fmt.Sprintf("lyrics %s", track.ID))
}

func (c *LRCLIBClient) fetchOnce(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrSourceFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No lyrics known for this track; a miss, not a failure
		return "", nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: too many requests (429)", util.ErrSourceFetch)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: service unavailable (%d)", util.ErrSourceFetch, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: unexpected status %d: %s", util.ErrSourceFetch, resp.StatusCode, string(body))
	}

	var result lyricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", util.ErrSourceFetch, err)
	}

	if result.Instrumental {
		return "", nil
	}
	if result.SyncedLyrics != "" {
		return result.SyncedLyrics, nil
	}
	return result.PlainLyrics, nil
}
