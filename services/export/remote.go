package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// RenderRequest is the body posted to the rendering endpoint.
type RenderRequest struct {
	SubjectID    int64  `json:"subjectId"`
	Title        string `json:"title"`
	PosterURL    string `json:"posterUrl"`
	BackdropURL  string `json:"backdropUrl"`
	Rating       int    `json:"rating"`
	ReviewText   string `json:"reviewText"`
	ReviewerName string `json:"reviewerName"`
	ReleaseDate  string `json:"releaseDate"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// Renderer produces a finished image for a card remotely.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// RemoteRenderer posts render requests to an HTTP endpoint.
type RemoteRenderer struct {
	url   string
	httpc *http.Client
}

// NewRemoteRenderer returns a renderer for endpoint. An empty endpoint yields
// a renderer that always reports ErrRemoteNotConfigured.
func NewRemoteRenderer(endpoint string, timeout time.Duration) *RemoteRenderer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteRenderer{url: strings.TrimSpace(endpoint), httpc: &http.Client{Timeout: timeout}}
}

func (r *RemoteRenderer) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if r.url == "" {
		return nil, ErrRemoteNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png, image/*")

	resp, err := r.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("render endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	data, err := readLimited(resp.Body, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("render endpoint returned an empty body")
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("render endpoint returned %s, not an image", mt.String())
	}
	return data, nil
}
