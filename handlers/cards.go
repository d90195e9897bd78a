package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"cinecard/api"
	"cinecard/models"
	"cinecard/services/export"
	metadatapkg "cinecard/services/metadata"
	"cinecard/services/review"
)

type cardStore interface {
	Create(subject review.Subject, reviewer string) (uuid.UUID, *review.Card)
	Get(id uuid.UUID) (*review.Card, error)
	Delete(id uuid.UUID)
}

type subjectSource interface {
	Details(ctx context.Context, mediaType string, id int64) (*models.SubjectDetails, error)
	ImageURL(path, size string) string
}

type cardExporter interface {
	Export(ctx context.Context, card *review.Card, sink export.Sink) (*export.Job, error)
}

var (
	_ cardStore     = (*review.Store)(nil)
	_ subjectSource = (*metadatapkg.Service)(nil)
	_ cardExporter  = (*export.Exporter)(nil)
)

// CardsHandler exposes card sessions: one in-memory review card per open
// subject page, its edit state machine and PNG export.
type CardsHandler struct {
	store           cardStore
	subjects        subjectSource
	exporter        cardExporter
	limiter         *api.IPRateLimiter
	defaultReviewer string
	validate        *validator.Validate
}

// NewCardsHandler constructs a CardsHandler. limiter may be nil to leave the
// export route unthrottled.
func NewCardsHandler(store cardStore, subjects subjectSource, exporter cardExporter, limiter *api.IPRateLimiter, defaultReviewer string) *CardsHandler {
	return &CardsHandler{
		store:           store,
		subjects:        subjects,
		exporter:        exporter,
		limiter:         limiter,
		defaultReviewer: defaultReviewer,
		validate:        validator.New(),
	}
}

// Register mounts the card routes.
func (h *CardsHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/cards", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/cards/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/cards/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/cards/{id}/rating", h.SetRating).Methods(http.MethodPut)
	r.HandleFunc("/api/cards/{id}/text", h.SetText).Methods(http.MethodPut)
	r.HandleFunc("/api/cards/{id}/reviewer", h.SetReviewer).Methods(http.MethodPut)
	r.HandleFunc("/api/cards/{id}/edit", h.transition((*review.Card).EnterEditing)).Methods(http.MethodPost)
	r.HandleFunc("/api/cards/{id}/commit", h.transition((*review.Card).CommitEditing)).Methods(http.MethodPost)
	r.HandleFunc("/api/cards/{id}/cancel", h.transition((*review.Card).CancelEditing)).Methods(http.MethodPost)

	var exportHandler http.Handler = http.HandlerFunc(h.Export)
	if h.limiter != nil {
		exportHandler = h.limiter.Middleware()(exportHandler)
	}
	r.Handle("/api/cards/{id}/export", exportHandler).Methods(http.MethodPost)
}

// Create loads the subject's details and opens a card in editing mode.
func (h *CardsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		jsonError(w, "subjectId and type (movie|tv) are required", http.StatusBadRequest)
		return
	}

	details, err := h.subjects.Details(r.Context(), req.Type, req.SubjectID)
	if err != nil {
		log.Printf("[cards] load %s/%d failed: %v", req.Type, req.SubjectID, err)
		jsonError(w, "details unavailable", upstreamStatus(err))
		return
	}

	subject := review.SubjectFromDetails(details, req.Type)
	id, card := h.store.Create(subject, h.defaultReviewer)
	log.Printf("[cards] opened %s for %s/%d", id, req.Type, subject.ID)
	writeJSON(w, http.StatusCreated, h.view(id, card))
}

func (h *CardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(id, card))
}

// Delete ends the page view. Unknown ids succeed.
func (h *CardsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		jsonError(w, review.ErrCardNotFound.Error(), http.StatusNotFound)
		return
	}
	h.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CardsHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	id, card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req models.RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, id, card, card.SetRating(req.Rating))
}

func (h *CardsHandler) SetText(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, (*review.Card).SetReviewText)
}

func (h *CardsHandler) SetReviewer(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, (*review.Card).SetReviewerName)
}

func (h *CardsHandler) setString(w http.ResponseWriter, r *http.Request, set func(*review.Card, string) error) {
	id, card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req models.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, id, card, set(card, req.Value))
}

func (h *CardsHandler) transition(step func(*review.Card) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, card, ok := h.lookup(w, r)
		if !ok {
			return
		}
		h.respond(w, id, card, step(card))
	}
}

// Export streams the card as a PNG attachment.
func (h *CardsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, card, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sink := export.NewResponseSink(w)
	_, err := h.exporter.Export(r.Context(), card, sink)
	switch {
	case err == nil:
	case errors.Is(err, export.ErrExportInProgress):
		jsonError(w, err.Error(), http.StatusConflict)
	case sink.Written():
		log.Printf("[export] card %s failed after response started: %v", id, err)
	default:
		jsonError(w, export.AlertMessage, http.StatusInternalServerError)
	}
}

func (h *CardsHandler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *review.Card, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		jsonError(w, review.ErrCardNotFound.Error(), http.StatusNotFound)
		return uuid.Nil, nil, false
	}
	card, err := h.store.Get(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return uuid.Nil, nil, false
	}
	return id, card, true
}

func (h *CardsHandler) respond(w http.ResponseWriter, id uuid.UUID, card *review.Card, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, h.view(id, card))
	case errors.Is(err, review.ErrRatingOutOfRange):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, review.ErrNotEditing), errors.Is(err, review.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *CardsHandler) view(id uuid.UUID, card *review.Card) models.CardView {
	snap := card.Snapshot()
	return models.CardView{
		ID:           id.String(),
		SubjectID:    snap.Subject.ID,
		MediaType:    snap.Subject.MediaType,
		Title:        snap.Subject.Title,
		Year:         snap.Year(),
		PosterURL:    h.subjects.ImageURL(snap.Subject.PosterPath, metadatapkg.SizeW500),
		BackdropURL:  h.subjects.ImageURL(snap.Subject.BackdropPath, metadatapkg.SizeOriginal),
		ReleaseDate:  snap.Subject.ReleaseDate,
		Rating:       snap.Rating,
		ReviewText:   snap.ReviewText,
		ReviewerName: snap.ReviewerName,
		Mode:         snap.Mode.String(),
		Expanded:     snap.Expanded(),
		HasReview:    snap.HasReview(),
		Width:        review.CardWidth,
		Height:       snap.Height,
		Exporting:    card.Exporting(),
	}
}
