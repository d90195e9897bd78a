package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinecard/api"
	"cinecard/models"
	"cinecard/services/export"
	metadatapkg "cinecard/services/metadata"
	"cinecard/services/review"
)

type fakeSubjects struct {
	details *models.SubjectDetails
	err     error
}

func (f *fakeSubjects) Details(_ context.Context, _ string, _ int64) (*models.SubjectDetails, error) {
	return f.details, f.err
}

func (f *fakeSubjects) ImageURL(path, size string) string {
	return metadatapkg.ResolveImageURL("https://image.tmdb.org/t/p", path, size)
}

type fakeExporter struct {
	err   error
	calls int
}

func (f *fakeExporter) Export(ctx context.Context, card *review.Card, sink export.Sink) (*export.Job, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := sink.Save(ctx, export.Filename(card.Subject().Title), []byte("\x89PNG\r\n\x1a\nfake")); err != nil {
		return nil, err
	}
	return &export.Job{}, nil
}

type unconfiguredRenderer struct{}

func (unconfiguredRenderer) Render(context.Context, export.RenderRequest) ([]byte, error) {
	return nil, export.ErrRemoteNotConfigured
}

type noPoster struct{}

func (noPoster) Acquire(context.Context, string) (image.Image, export.Source) {
	return nil, export.SourcePlaceholder
}

func inception() *models.SubjectDetails {
	poster := "/inception.jpg"
	return &models.SubjectDetails{ID: 27205, MediaType: "movie", Title: "Inception", PosterPath: &poster, ReleaseDate: "2010-07-15"}
}

type cardsFixture struct {
	router   *mux.Router
	store    *review.Store
	exporter *fakeExporter
}

func newCardsFixture(t *testing.T, subjects *fakeSubjects, exporter cardExporter, limiter *api.IPRateLimiter) *cardsFixture {
	t.Helper()
	f := &cardsFixture{router: mux.NewRouter(), store: review.NewStore(time.Hour)}
	if fe, ok := exporter.(*fakeExporter); ok {
		f.exporter = fe
	}
	NewCardsHandler(f.store, subjects, exporter, limiter, "Mi Review").Register(f.router)
	return f
}

func (f *cardsFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *cardsFixture) create(t *testing.T) models.CardView {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/cards", models.CreateCardRequest{SubjectID: 27205, Type: "movie"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view models.CardView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	return view
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) models.CardView {
	t.Helper()
	var view models.CardView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	return view
}

func TestCards_CreateSeedsDefaults(t *testing.T) {
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{}, nil)
	view := f.create(t)

	assert.Equal(t, "Inception", view.Title)
	assert.Equal(t, "2010", view.Year)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/inception.jpg", view.PosterURL)
	assert.Equal(t, "/placeholder.svg", view.BackdropURL)
	assert.Equal(t, 5, view.Rating)
	assert.Equal(t, "Mi Review", view.ReviewerName)
	assert.Equal(t, "editing", view.Mode)
	assert.True(t, view.Expanded)
	assert.Equal(t, 400, view.Width)
	assert.Equal(t, 400, view.Height)
	assert.Equal(t, 1, f.store.Len())
}

func TestCards_CreateValidation(t *testing.T) {
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{}, nil)
	for _, body := range []any{
		models.CreateCardRequest{SubjectID: 0, Type: "movie"},
		models.CreateCardRequest{SubjectID: 1, Type: "person"},
		"not an object",
	} {
		rec := f.do(t, http.MethodPost, "/api/cards", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCards_CreateUpstreamFailure(t *testing.T) {
	f := newCardsFixture(t, &fakeSubjects{err: errors.New("boom")}, &fakeExporter{}, nil)
	rec := f.do(t, http.MethodPost, "/api/cards", models.CreateCardRequest{SubjectID: 1, Type: "tv"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 0, f.store.Len())
}

func TestCards_EditingLifecycle(t *testing.T) {
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{}, nil)
	id := f.create(t).ID
	base := "/api/cards/" + id

	rec := f.do(t, http.MethodPut, base+"/rating", models.RatingRequest{Rating: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeView(t, rec).Rating)

	rec = f.do(t, http.MethodPut, base+"/rating", models.RatingRequest{Rating: 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	text := strings.Repeat("a", 130)
	rec = f.do(t, http.MethodPut, base+"/text", models.TextRequest{Value: text})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 450, decodeView(t, rec).Height)

	rec = f.do(t, http.MethodPost, base+"/commit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, "viewing", view.Mode)
	assert.True(t, view.HasReview)

	rec = f.do(t, http.MethodPut, base+"/rating", models.RatingRequest{Rating: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.do(t, http.MethodPost, base+"/commit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/edit", nil).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, base+"/rating", models.RatingRequest{Rating: 1}).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, base+"/text", models.TextRequest{Value: ""}).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, base+"/reviewer", models.TextRequest{Value: "Ana"}).Code)

	rec = f.do(t, http.MethodPost, base+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, 3, view.Rating)
	assert.Equal(t, text, view.ReviewText)
	assert.Equal(t, "Mi Review", view.ReviewerName)
}

func TestCards_NotFound(t *testing.T) {
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{}, nil)
	for _, target := range []string{"/api/cards/not-a-uuid", "/api/cards/7f1c3f8e-0c6e-4a53-9f43-1c2d3e4f5a6b"} {
		rec := f.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestCards_Delete(t *testing.T) {
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{}, nil)
	id := f.create(t).ID

	rec := f.do(t, http.MethodDelete, "/api/cards/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/cards/"+id, nil).Code)
}

func TestCards_ExportAttachment(t *testing.T) {
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{}, nil)
	id := f.create(t).ID

	rec := f.do(t, http.MethodPost, "/api/cards/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="review-inception.png"`, rec.Header().Get("Content-Disposition"))
}

func TestCards_ExportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"in progress", export.ErrExportInProgress, http.StatusConflict, "currently exporting"},
		{"fatal", &export.ExportError{Message: export.AlertMessage, Cause: errors.New("disk full")}, http.StatusInternalServerError, export.AlertMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{err: tt.err}, nil)
			id := f.create(t).ID
			rec := f.do(t, http.MethodPost, "/api/cards/"+id+"/export", nil)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec))
		})
	}
}

func TestCards_ExportRateLimited(t *testing.T) {
	limiter := api.PerMinute(1)
	defer limiter.Close()
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, &fakeExporter{}, limiter)
	id := f.create(t).ID

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/cards/"+id+"/export", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, "/api/cards/"+id+"/export", nil).Code)
	assert.Equal(t, 1, f.exporter.calls)
}

func TestCards_ExportLocalRender(t *testing.T) {
	exporter := export.NewExporter(unconfiguredRenderer{}, noPoster{}, "https://image.tmdb.org/t/p")
	f := newCardsFixture(t, &fakeSubjects{details: inception()}, exporter, nil)
	id := f.create(t).ID
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/cards/"+id+"/commit", nil).Code)

	rec := f.do(t, http.MethodPost, "/api/cards/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 560, img.Bounds().Dy())
}
