package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"cinecard/models"
	metadatapkg "cinecard/services/metadata"
)

type detailsBundleService interface {
	DetailsBundle(ctx context.Context, mediaType string, id int64) (*models.DetailsBundle, error)
}

var _ detailsBundleService = (*metadatapkg.Service)(nil)

// DetailsBundleHandler serves everything a subject page needs in a single
// response. The sub-fetches run concurrently inside the service.
type DetailsBundleHandler struct {
	metadata detailsBundleService
}

// NewDetailsBundleHandler constructs a DetailsBundleHandler.
func NewDetailsBundleHandler(metadata detailsBundleService) *DetailsBundleHandler {
	return &DetailsBundleHandler{metadata: metadata}
}

// Register mounts GET /api/details/{type}/{id}.
func (h *DetailsBundleHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/details/{type}/{id}", h.GetDetailsBundle).Methods(http.MethodGet)
}

// GetDetailsBundle returns details, watch providers, videos and the resolved
// artwork URLs.
func (h *DetailsBundleHandler) GetDetailsBundle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType, err := metadatapkg.NormalizeMediaType(vars["type"])
	id := trimAndParseInt64(vars["id"])
	if err != nil || id <= 0 {
		jsonError(w, "ID and type parameters required", http.StatusBadRequest)
		return
	}

	bundle, err := h.metadata.DetailsBundle(r.Context(), mediaType, id)
	if err != nil {
		log.Printf("[metadata] details bundle %s/%d failed: %v", mediaType, id, err)
		jsonError(w, "details unavailable", upstreamStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// upstreamStatus maps a metadata failure onto the status returned to clients.
func upstreamStatus(err error) int {
	switch {
	case errors.Is(err, metadatapkg.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case metadatapkg.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
