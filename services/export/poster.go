package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"strings"
	"time"

	"cinecard/internal/metrics"
	"cinecard/utils"
)

// ElementLoadTimeout is the hard deadline on the image-element fallback.
const ElementLoadTimeout = 10 * time.Second

// Source says where poster pixels came from.
type Source string

const (
	SourceDirect      Source = "direct"
	SourceElement     Source = "element"
	SourcePlaceholder Source = "placeholder"
)

// ImageLoader turns an image URL into pixels.
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// PosterSource acquires poster pixels. A nil image means the placeholder
// should be drawn; acquisition never fails the export.
type PosterSource interface {
	Acquire(ctx context.Context, url string) (image.Image, Source)
}

// Acquirer tries a direct fetch first and falls back to an image-element style
// load bounded by Timeout.
type Acquirer struct {
	Direct  ImageLoader
	Element ImageLoader
	Timeout time.Duration
}

func (a *Acquirer) Acquire(ctx context.Context, url string) (image.Image, Source) {
	img, src := a.acquire(ctx, url)
	metrics.PosterAcquisitions.WithLabelValues(string(src)).Inc()
	return img, src
}

func (a *Acquirer) acquire(ctx context.Context, url string) (image.Image, Source) {
	if url == "" || strings.HasPrefix(url, "/") {
		return nil, SourcePlaceholder
	}
	if err := utils.ValidateImageURL(url); err != nil {
		log.Printf("[poster] skipping %s: %v", url, err)
		return nil, SourcePlaceholder
	}
	if encoded, err := utils.EncodeURLWithSpaces(url); err == nil {
		url = encoded
	}
	if a.Direct != nil {
		img, err := a.Direct.Load(ctx, url)
		if err == nil {
			return img, SourceDirect
		}
		log.Printf("[poster] direct fetch failed for %s: %v", url, err)
	}
	if a.Element != nil {
		img, err := a.loadElement(ctx, url)
		if err == nil {
			return img, SourceElement
		}
		log.Printf("[poster] element load failed for %s: %v", url, err)
	}
	return nil, SourcePlaceholder
}

type loadResult struct {
	img image.Image
	err error
}

// loadElement races the element loader against the timeout.
func (a *Acquirer) loadElement(ctx context.Context, url string) (image.Image, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = ElementLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan loadResult, 1)
	go func() {
		img, err := a.Element.Load(ctx, url)
		done <- loadResult{img: img, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && res.img == nil {
			return nil, errors.New("loader returned no pixels")
		}
		return res.img, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("image load timed out after %s: %w", timeout, ctx.Err())
	}
}

// HTTPFetcher is the direct fetch. With Origin set it behaves like a
// cross-origin browser fetch and rejects responses that do not allow Origin.
type HTTPFetcher struct {
	Client *http.Client
	Origin string
}

func (f *HTTPFetcher) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	if f.Origin != "" {
		req.Header.Set("Origin", f.Origin)
	}
	resp, err := client(f.Client).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if f.Origin != "" && !corsAllowed(resp.Header.Get("Access-Control-Allow-Origin"), f.Origin) {
		return nil, fmt.Errorf("cors: origin %s not allowed", f.Origin)
	}
	return readImage(resp)
}

// ElementLoader mimics an <img> load: no Origin header and no CORS check.
type ElementLoader struct {
	Client *http.Client
}

func (l *ElementLoader) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/*;q=0.8")
	resp, err := client(l.Client).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readImage(resp)
}

func client(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

func corsAllowed(allow, origin string) bool {
	allow = strings.TrimSpace(allow)
	return allow == "*" || strings.EqualFold(strings.TrimRight(allow, "/"), strings.TrimRight(origin, "/"))
}

func readImage(resp *http.Response) (image.Image, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := readLimited(resp.Body, maxImageBytes)
	if err != nil {
		return nil, err
	}
	return decodeImage(data)
}
