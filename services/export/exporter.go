// Package export turns a review card into a downloadable PNG. A remote
// renderer is tried first; on any failure the card is rasterized locally.
package export

//go:generate mockgen -destination=exportmock/mocks.go -package=exportmock cinecard/services/export Renderer,PosterSource,Sink,ImageLoader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"cinecard/config"
	"cinecard/internal/metrics"
	"cinecard/services/metadata"
	"cinecard/services/render"
	"cinecard/services/review"
)

// PixelRatio is the device pixel density of exported images.
const PixelRatio = 2

// Exporter runs the two-tier export pipeline.
type Exporter struct {
	remote    Renderer
	posters   PosterSource
	imageBase string
	now       func() time.Time
}

// NewExporter wires an exporter. remote may be nil to skip the remote tier.
func NewExporter(remote Renderer, posters PosterSource, imageBase string) *Exporter {
	return &Exporter{
		remote:    remote,
		posters:   posters,
		imageBase: imageBase,
		now:       time.Now,
	}
}

// New builds the production exporter from configuration. The returned
// cleanup releases the headless browser when one is used.
func New(ctx context.Context, cfg *config.Config) (*Exporter, func()) {
	httpc := &http.Client{Timeout: cfg.HTTPTimeout}
	acq := &Acquirer{
		Direct:  &HTTPFetcher{Client: httpc, Origin: cfg.AppOrigin},
		Element: &ElementLoader{Client: httpc},
		Timeout: ElementLoadTimeout,
	}
	cleanup := func() {}
	if cfg.PosterBrowser {
		browser := NewBrowserLoader(ctx)
		acq.Element = browser
		cleanup = browser.Close
	}
	return NewExporter(NewRemoteRenderer(cfg.RenderURL, cfg.RenderTimeout), acq, cfg.ImageBaseURL), cleanup
}

// Export renders card and hands the PNG to sink. A second call while one is
// in flight returns ErrExportInProgress without waiting. Fatal local failures
// return *ExportError; the card itself is never modified.
func (e *Exporter) Export(ctx context.Context, card *review.Card, sink Sink) (*Job, error) {
	if !card.BeginExport() {
		metrics.Exports.WithLabelValues("none", "busy").Inc()
		return nil, ErrExportInProgress
	}
	defer card.EndExport()

	snap := card.Snapshot()
	job := newJob(snap, e.now())
	job.Width = render.Width * PixelRatio
	job.Height = snap.Height * PixelRatio

	if e.tryRemote(ctx, job, sink) {
		job.finish(TierRemote, nil, e.now())
		metrics.Exports.WithLabelValues(string(TierRemote), "ok").Inc()
		log.Printf("[export] %s saved via remote renderer in %s", job.Filename, job.Duration())
		return job, nil
	}

	if err := e.exportLocal(ctx, job, sink); err != nil {
		job.finish(TierLocal, err, e.now())
		metrics.Exports.WithLabelValues(string(TierLocal), "error").Inc()
		log.Printf("[export] local export of %s failed: %v", job.Filename, err)
		return job, newExportError(err)
	}
	job.finish(TierLocal, nil, e.now())
	metrics.Exports.WithLabelValues(string(TierLocal), "ok").Inc()
	log.Printf("[export] %s saved via local rasterizer in %s (poster=%s)", job.Filename, job.Duration(), job.PosterSource)
	return job, nil
}

// tryRemote reports whether the remote tier delivered the file. Every failure
// is logged and swallowed.
func (e *Exporter) tryRemote(ctx context.Context, job *Job, sink Sink) bool {
	if e.remote == nil {
		return false
	}
	data, err := e.remote.Render(ctx, e.renderRequest(job))
	if err != nil {
		if errors.Is(err, ErrRemoteNotConfigured) {
			return false
		}
		metrics.Exports.WithLabelValues(string(TierRemote), "error").Inc()
		log.Printf("[export] remote render failed, falling back to local: %v", err)
		return false
	}
	if err := sink.Save(ctx, job.Filename, data); err != nil {
		metrics.Exports.WithLabelValues(string(TierRemote), "error").Inc()
		log.Printf("[export] saving remote render failed, falling back to local: %v", err)
		return false
	}
	return true
}

func (e *Exporter) renderRequest(job *Job) RenderRequest {
	snap := job.Snapshot
	return RenderRequest{
		SubjectID:    snap.Subject.ID,
		Title:        snap.Subject.Title,
		PosterURL:    metadata.ResolveImageURL(e.imageBase, snap.Subject.PosterPath, metadata.SizeOriginal),
		BackdropURL:  metadata.ResolveImageURL(e.imageBase, snap.Subject.BackdropPath, metadata.SizeOriginal),
		Rating:       snap.Rating,
		ReviewText:   snap.ReviewText,
		ReviewerName: snap.ReviewerName,
		ReleaseDate:  snap.Subject.ReleaseDate,
		Width:        job.Width,
		Height:       job.Height,
	}
}

func (e *Exporter) exportLocal(ctx context.Context, job *Job, sink Sink) error {
	if e.posters != nil && job.Snapshot.Subject.PosterPath != "" {
		url := metadata.ResolveImageURL(e.imageBase, job.Snapshot.Subject.PosterPath, metadata.SizeW500)
		job.PosterPixels, job.PosterSource = e.posters.Acquire(ctx, url)
	} else {
		job.PosterSource = SourcePlaceholder
	}

	data, err := rasterize(job)
	if err != nil {
		return err
	}
	if err := sink.Save(ctx, job.Filename, data); err != nil {
		return fmt.Errorf("save %s: %w", job.Filename, err)
	}
	return nil
}

// rasterize draws the snapshot and encodes it, converting panics into errors.
func rasterize(job *Job) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rasterizer panic: %v", r)
		}
	}()
	snap := job.Snapshot
	res, err := render.Render(render.Card{
		Title:        snap.Subject.Title,
		Year:         snap.Year(),
		Rating:       snap.Rating,
		ReviewText:   snap.ReviewText,
		ReviewerName: snap.ReviewerName,
		Expanded:     snap.Expanded(),
		HasReview:    snap.HasReview(),
		Height:       snap.Height,
		Poster:       job.PosterPixels,
	}, PixelRatio)
	if err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	return render.EncodePNG(res.Image)
}
