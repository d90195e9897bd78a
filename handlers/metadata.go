package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"cinecard/models"
	metadatapkg "cinecard/services/metadata"
)

type metadataService interface {
	Search(ctx context.Context, query, kind string) ([]models.MediaItem, error)
	Trending(ctx context.Context, kind string) ([]models.MediaItem, error)
	Discover(ctx context.Context, mediaType string, genreID int) ([]models.MediaItem, error)
	TopRatedInTheaters(ctx context.Context) (*models.MediaItem, error)
	TopRatedOnAir(ctx context.Context) (*models.MediaItem, error)
	WatchProviders(ctx context.Context, mediaType string, id int64) (*models.WatchProviders, error)
	Videos(ctx context.Context, mediaType string, id int64) ([]models.Video, error)
	Details(ctx context.Context, mediaType string, id int64) (*models.SubjectDetails, error)
	PopularMovies(ctx context.Context, count int) ([]models.MediaItem, error)
	TopRatedMovies(ctx context.Context, count int) ([]models.MediaItem, error)
	NowPlayingMovies(ctx context.Context, count int) ([]models.MediaItem, error)
	TopRatedTV(ctx context.Context, count int) ([]models.MediaItem, error)
	OnAirTV(ctx context.Context, count int) ([]models.MediaItem, error)
}

var _ metadataService = (*metadatapkg.Service)(nil)

// MetadataHandler proxies the metadata provider behind a single action-based
// endpoint so the bearer token never reaches the browser.
type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(s metadataService) *MetadataHandler {
	return &MetadataHandler{Service: s}
}

// Register mounts GET /api/tmdb.
func (h *MetadataHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/tmdb", h.Proxy).Methods(http.MethodGet)
}

// Proxy dispatches on the action query parameter. Validation failures are 400s;
// upstream failures degrade to an empty list or null and are only logged.
func (h *MetadataHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action := strings.TrimSpace(q.Get("action"))
	ctx := r.Context()

	switch action {
	case "search":
		query := strings.TrimSpace(q.Get("query"))
		if query == "" {
			jsonError(w, "Query parameter required", http.StatusBadRequest)
			return
		}
		items, err := h.Service.Search(ctx, query, q.Get("type"))
		writeList(w, action, items, err)

	case "trending":
		items, err := h.Service.Trending(ctx, q.Get("type"))
		writeList(w, action, items, err)

	case "top-rated-theaters":
		item, err := h.Service.TopRatedInTheaters(ctx)
		writeItem(w, action, item, err)

	case "top-rated-air":
		item, err := h.Service.TopRatedOnAir(ctx)
		writeItem(w, action, item, err)

	case "discover-movies", "discover-tv":
		mediaType := "movie"
		if action == "discover-tv" {
			mediaType = "tv"
		}
		genreID := trimAndParseInt(q.Get("genreId"))
		if genreID <= 0 && q.Get("genre") != "" {
			genreID, _ = metadatapkg.LookupGenre(mediaType, q.Get("genre"))
		}
		if genreID <= 0 {
			jsonError(w, "GenreId parameter required", http.StatusBadRequest)
			return
		}
		items, err := h.Service.Discover(ctx, mediaType, genreID)
		writeList(w, action, items, err)

	case "watch-providers", "videos", "details":
		id := trimAndParseInt64(q.Get("id"))
		mediaType, err := metadatapkg.NormalizeMediaType(q.Get("type"))
		if id <= 0 || err != nil {
			jsonError(w, "ID and type parameters required", http.StatusBadRequest)
			return
		}
		switch action {
		case "watch-providers":
			providers, err := h.Service.WatchProviders(ctx, mediaType, id)
			writeItem(w, action, providers, err)
		case "videos":
			videos, err := h.Service.Videos(ctx, mediaType, id)
			if err != nil {
				log.Printf("[metadata] %s failed: %v", action, err)
				videos = nil
			}
			if videos == nil {
				videos = []models.Video{}
			}
			writeJSON(w, http.StatusOK, videos)
		default:
			details, err := h.Service.Details(ctx, mediaType, id)
			writeItem(w, action, details, err)
		}

	case "popular-movies":
		items, err := h.Service.PopularMovies(ctx, trimAndParseInt(q.Get("count")))
		writeList(w, action, items, err)

	case "top-rated-movies":
		items, err := h.Service.TopRatedMovies(ctx, trimAndParseInt(q.Get("count")))
		writeList(w, action, items, err)

	case "now-playing-movies":
		items, err := h.Service.NowPlayingMovies(ctx, trimAndParseInt(q.Get("count")))
		writeList(w, action, items, err)

	case "top-rated-tv":
		items, err := h.Service.TopRatedTV(ctx, trimAndParseInt(q.Get("count")))
		writeList(w, action, items, err)

	case "on-air-tv":
		items, err := h.Service.OnAirTV(ctx, trimAndParseInt(q.Get("count")))
		writeList(w, action, items, err)

	case "genres":
		mediaType, err := metadatapkg.NormalizeMediaType(q.Get("type"))
		if err != nil {
			mediaType = "movie"
		}
		writeJSON(w, http.StatusOK, metadatapkg.GenreOptions(mediaType))

	default:
		jsonError(w, "Invalid action parameter", http.StatusBadRequest)
	}
}

func writeList(w http.ResponseWriter, action string, items []models.MediaItem, err error) {
	if err != nil {
		log.Printf("[metadata] %s failed: %v", action, err)
		items = nil
	}
	if items == nil {
		items = []models.MediaItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// writeItem encodes a single optional value; errors and absent values are null.
func writeItem[T any](w http.ResponseWriter, action string, item *T, err error) {
	if err != nil {
		log.Printf("[metadata] %s failed: %v", action, err)
		item = nil
	}
	writeJSON(w, http.StatusOK, item)
}
