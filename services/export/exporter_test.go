package export_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cinecard/services/export"
	"cinecard/services/export/exportmock"
	"cinecard/services/review"
)

const imageBase = "https://image.tmdb.org/t/p"

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{0x80, 0x20, 0x20, 0xff})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// reviewedCard returns a committed card: rating 4, "Great pacing.", by Ana.
func reviewedCard(t *testing.T) *review.Card {
	t.Helper()
	card := review.NewCard(review.Subject{
		ID:          27205,
		MediaType:   "movie",
		Title:       "Inception",
		PosterPath:  "/poster.jpg",
		ReleaseDate: "2010-07-16",
	}, "Mi Review")
	require.NoError(t, card.SetRating(4))
	require.NoError(t, card.SetReviewText("Great pacing."))
	require.NoError(t, card.SetReviewerName("Ana"))
	require.NoError(t, card.CommitEditing())
	return card
}

func TestExport_RemoteSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := exportmock.NewMockRenderer(ctrl)
	posters := exportmock.NewMockPosterSource(ctrl)
	card := reviewedCard(t)
	rendered := pngBytes(t, solid(8, 8))

	remote.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req export.RenderRequest) ([]byte, error) {
			assert.Equal(t, int64(27205), req.SubjectID)
			assert.Equal(t, "Inception", req.Title)
			assert.Equal(t, imageBase+"/original/poster.jpg", req.PosterURL)
			assert.Equal(t, "/placeholder.svg", req.BackdropURL)
			assert.Equal(t, 4, req.Rating)
			assert.Equal(t, "Ana", req.ReviewerName)
			assert.Equal(t, 800, req.Width)
			assert.Equal(t, 2*card.Height(), req.Height)
			return rendered, nil
		})

	sink := &export.MemorySink{}
	job, err := export.NewExporter(remote, posters, imageBase).Export(context.Background(), card, sink)
	require.NoError(t, err)
	assert.Equal(t, export.TierRemote, job.Tier)
	assert.Equal(t, export.JobSucceeded, job.Status)

	downloads := sink.Downloads()
	require.Len(t, downloads, 1)
	assert.Equal(t, "review-inception.png", downloads[0].Filename)
	assert.Equal(t, rendered, downloads[0].Data)
	assert.False(t, card.Exporting())
}

func TestExport_FallsBackToLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := exportmock.NewMockRenderer(ctrl)
	posters := exportmock.NewMockPosterSource(ctrl)
	card := reviewedCard(t)

	remote.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, errors.New("502 bad gateway"))
	posters.EXPECT().Acquire(gomock.Any(), imageBase+"/w500/poster.jpg").Return(solid(500, 750), export.SourceDirect)

	sink := &export.MemorySink{}
	job, err := export.NewExporter(remote, posters, imageBase).Export(context.Background(), card, sink)
	require.NoError(t, err)
	assert.Equal(t, export.TierLocal, job.Tier)
	assert.Equal(t, export.SourceDirect, job.PosterSource)

	downloads := sink.Downloads()
	require.Len(t, downloads, 1)
	assert.Equal(t, "review-inception.png", downloads[0].Filename)

	cfg, err := png.DecodeConfig(bytes.NewReader(downloads[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 400*2, cfg.Width)
	assert.Equal(t, card.Height()*2, cfg.Height)
}

func TestExport_RemoteNotConfiguredUsesLocal(t *testing.T) {
	card := reviewedCard(t)
	exp := export.NewExporter(export.NewRemoteRenderer("", time.Second), nil, imageBase)

	sink := &export.MemorySink{}
	job, err := exp.Export(context.Background(), card, sink)
	require.NoError(t, err)
	assert.Equal(t, export.TierLocal, job.Tier)
	assert.Equal(t, export.SourcePlaceholder, job.PosterSource)
	assert.Len(t, sink.Downloads(), 1)
}

func TestExport_BothLoadersFailDrawsPlaceholder(t *testing.T) {
	ctrl := gomock.NewController(t)
	direct := exportmock.NewMockImageLoader(ctrl)
	element := exportmock.NewMockImageLoader(ctrl)
	direct.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, errors.New("cors: origin not allowed"))
	element.EXPECT().Load(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (image.Image, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	acq := &export.Acquirer{Direct: direct, Element: element, Timeout: 20 * time.Millisecond}
	card := reviewedCard(t)
	sink := &export.MemorySink{}

	job, err := export.NewExporter(nil, acq, imageBase).Export(context.Background(), card, sink)
	require.NoError(t, err)
	assert.Equal(t, export.SourcePlaceholder, job.PosterSource)
	assert.Nil(t, job.PosterPixels)

	downloads := sink.Downloads()
	require.Len(t, downloads, 1)
	cfg, err := png.DecodeConfig(bytes.NewReader(downloads[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
}

func TestExport_SecondCallWhileInFlightIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := exportmock.NewMockRenderer(ctrl)
	card := reviewedCard(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	rendered := pngBytes(t, solid(4, 4))
	remote.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, export.RenderRequest) ([]byte, error) {
			close(entered)
			<-release
			return rendered, nil
		}).Times(1)

	exp := export.NewExporter(remote, nil, imageBase)
	sink := &export.MemorySink{}

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = exp.Export(context.Background(), card, sink)
	}()

	<-entered
	assert.True(t, card.Exporting())
	job, err := exp.Export(context.Background(), card, sink)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, export.ErrExportInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Len(t, sink.Downloads(), 1)
	assert.False(t, card.Exporting())
}

func TestExport_RemoteSaveFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := exportmock.NewMockRenderer(ctrl)
	sink := exportmock.NewMockSink(ctrl)
	card := reviewedCard(t)

	remote.EXPECT().Render(gomock.Any(), gomock.Any()).Return(pngBytes(t, solid(4, 4)), nil)
	gomock.InOrder(
		sink.EXPECT().Save(gomock.Any(), "review-inception.png", gomock.Any()).Return(errors.New("disk full")),
		sink.EXPECT().Save(gomock.Any(), "review-inception.png", gomock.Any()).Return(nil),
	)

	job, err := export.NewExporter(remote, nil, imageBase).Export(context.Background(), card, sink)
	require.NoError(t, err)
	assert.Equal(t, export.TierLocal, job.Tier)
}

func TestExport_FatalFailureLeavesCardUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := exportmock.NewMockSink(ctrl)
	card := reviewedCard(t)
	before := card.Snapshot()

	sink.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("permission denied"))

	job, err := export.NewExporter(nil, nil, imageBase).Export(context.Background(), card, sink)
	var exportErr *export.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, export.AlertMessage, exportErr.Message)
	assert.Equal(t, export.JobFailed, job.Status)

	after := card.Snapshot()
	assert.Equal(t, before.Rating, after.Rating)
	assert.Equal(t, before.ReviewText, after.ReviewText)
	assert.Equal(t, before.ReviewerName, after.ReviewerName)
	assert.Equal(t, before.Mode, after.Mode)
	assert.False(t, card.Exporting())
}
