package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/text/language"

	"cinecard/internal/metrics"
)

// ErrNotConfigured is returned when no provider bearer token is set.
var ErrNotConfigured = errors.New("tmdb bearer token not configured")

// Minimal TMDB v3 client: bearer auth, retries on 429/5xx, cached GETs.

type tmdbClient struct {
	token   string
	baseURL string
	httpc   *http.Client
	cache   *fileCache

	attempts uint
	delay    time.Duration
}

func newTMDBClient(token, baseURL string, httpc *http.Client, cache *fileCache) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		token:    strings.TrimSpace(token),
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpc:    httpc,
		cache:    cache,
		attempts: 3,
		delay:    300 * time.Millisecond,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.token != ""
}

// statusError is a non-2xx provider response.
type statusError struct {
	Path   string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb get %s failed: %d: %s", e.Path, e.Status, e.Body)
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// get fetches path with query into v. endpoint is a low-cardinality name used
// for metrics.
func (c *tmdbClient) get(ctx context.Context, endpoint, path string, q url.Values, v any) error {
	if !c.isConfigured() {
		return ErrNotConfigured
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	key := cacheKey("tmdb", path, q.Encode())
	if c.cache != nil {
		if ok, _ := c.cache.get(key, v); ok {
			metrics.UpstreamRequests.WithLabelValues(endpoint, "cached").Inc()
			return nil
		}
	}

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			req.Header.Set("Accept", "application/json")
			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				serr := &statusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
				if retryable(resp.StatusCode) {
					return serr
				}
				return retry.Unrecoverable(serr)
			}
			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] retry %d for %s: %v", n+1, path, err)
		}),
	)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s: %w", path, err)
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	if c.cache != nil {
		if err := c.cache.set(key, v); err != nil {
			log.Printf("[cache] failed to store %s: %v", path, err)
		}
	}
	return nil
}

// normalizeLanguage canonicalizes a locale into the provider's "xx-YY" form.
// A missing region is filled from fallbackRegion.
func normalizeLanguage(lang, fallbackRegion string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		lang = "en"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "en-US"
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	code := strings.ToUpper(strings.TrimSpace(fallbackRegion))
	if conf == language.Exact {
		code = region.String()
	}
	if code == "" {
		code = "US"
	}
	return base.String() + "-" + code
}

func mediaPath(mediaType string, id int64, suffix string) string {
	return "/" + mediaType + "/" + strconv.FormatInt(id, 10) + suffix
}
