package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"cinecard/config"
	"cinecard/models"
)

// ErrInvalidMediaType is returned for media types other than movie and tv.
var ErrInvalidMediaType = errors.New("media type must be movie or tv")

// Result list limits.
const (
	listLimit         = 22
	defaultPopular    = 12
	defaultTopRated   = 2
	defaultNowPlaying = 1
	defaultTopRatedTV = 2
	defaultOnAir      = 1
	excludedLanguage  = "zh"
	maxRegionFetchers = 4
	firstPage         = "1"
	sortByPopularity  = "popularity.desc"
)

// MovieRegions are the markets merged by the multi-region movie lists.
var MovieRegions = []string{"US", "GB", "FR", "DE", "ES", "MX", "BR", "AR"}

type Service struct {
	tmdb            *tmdbClient
	cache           *fileCache
	imageBase       string
	language        string
	listingLanguage string
	watchRegion     string
}

// NewService builds the metadata service. fs backs the response cache; nil uses
// the OS filesystem.
func NewService(cfg *config.Config, fs afero.Fs) *Service {
	cache := newFileCache(fs, filepath.Join(cfg.CacheDir, "metadata"), cfg.CacheTTL)
	region := strings.ToUpper(cfg.WatchRegion)
	return &Service{
		tmdb:            newTMDBClient(cfg.TMDBBearerToken, cfg.TMDBBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, cache),
		cache:           cache,
		imageBase:       cfg.ImageBaseURL,
		language:        normalizeLanguage(cfg.Language, region),
		listingLanguage: normalizeLanguage(cfg.ListingLanguage, region),
		watchRegion:     region,
	}
}

// ClearCache removes all cached provider responses.
func (s *Service) ClearCache() error {
	return s.cache.clear()
}

// ImageURL resolves an artwork path against the configured CDN.
func (s *Service) ImageURL(path, size string) string {
	return ResolveImageURL(s.imageBase, path, size)
}

// NormalizeMediaType accepts "movie" and "tv" (case-insensitive).
func NormalizeMediaType(mediaType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "movie":
		return "movie", nil
	case "tv":
		return "tv", nil
	}
	return "", ErrInvalidMediaType
}

// normalizeListType maps a list filter to all|movie|tv; anything else is all.
func normalizeListType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "movie":
		return "movie"
	case "tv":
		return "tv"
	}
	return "all"
}

// Search runs a title search. kind selects multi (all), movie or tv search;
// person results are removed.
func (s *Service) Search(ctx context.Context, query, kind string) ([]models.MediaItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.MediaItem{}, nil
	}
	kind = normalizeListType(kind)
	path := "/search/multi"
	if kind != "all" {
		path = "/search/" + kind
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("language", s.language)
	q.Set("page", firstPage)

	var resp models.PagedResults
	if err := s.tmdb.get(ctx, "search", path, q, &resp); err != nil {
		return nil, err
	}
	out := make([]models.MediaItem, 0, len(resp.Results))
	for _, item := range resp.Results {
		if item.MediaType == "person" {
			continue
		}
		if item.MediaType == "" && kind != "all" {
			item.MediaType = kind
		}
		out = append(out, item)
	}
	return out, nil
}

// Trending returns today's trending titles for all|movie|tv.
func (s *Service) Trending(ctx context.Context, kind string) ([]models.MediaItem, error) {
	kind = normalizeListType(kind)
	q := url.Values{}
	q.Set("language", s.language)

	var resp models.PagedResults
	if err := s.tmdb.get(ctx, "trending", "/trending/"+kind+"/day", q, &resp); err != nil {
		return nil, err
	}
	return firstN(resp.Results, listLimit), nil
}

// Discover lists the most popular titles of a genre.
func (s *Service) Discover(ctx context.Context, mediaType string, genreID int) ([]models.MediaItem, error) {
	mediaType, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("with_genres", strconv.Itoa(genreID))
	q.Set("language", s.language)
	q.Set("page", firstPage)
	q.Set("sort_by", sortByPopularity)

	var resp models.PagedResults
	if err := s.tmdb.get(ctx, "discover", "/discover/"+mediaType, q, &resp); err != nil {
		return nil, err
	}
	items := firstN(resp.Results, listLimit)
	for i := range items {
		items[i].MediaType = mediaType
	}
	return items, nil
}

// TopRatedInTheaters returns the best-voted movie now playing, or nil.
func (s *Service) TopRatedInTheaters(ctx context.Context) (*models.MediaItem, error) {
	return s.bestOf(ctx, "now_playing", "/movie/now_playing", "movie")
}

// TopRatedOnAir returns the best-voted show currently airing, or nil.
func (s *Service) TopRatedOnAir(ctx context.Context) (*models.MediaItem, error) {
	return s.bestOf(ctx, "on_the_air", "/tv/on_the_air", "tv")
}

func (s *Service) bestOf(ctx context.Context, endpoint, path, mediaType string) (*models.MediaItem, error) {
	items, err := s.listing(ctx, endpoint, path, nil)
	if err != nil {
		return nil, err
	}
	best := highestVoted(dropLanguage(items, excludedLanguage))
	if best != nil {
		best.MediaType = mediaType
	}
	return best, nil
}

// WatchProviders returns the offers for the configured market, or nil.
func (s *Service) WatchProviders(ctx context.Context, mediaType string, id int64) (*models.WatchProviders, error) {
	mediaType, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, err
	}
	var resp models.WatchProvidersEnvelope
	if err := s.tmdb.get(ctx, "watch_providers", mediaPath(mediaType, id, "/watch/providers"), nil, &resp); err != nil {
		return nil, err
	}
	providers, ok := resp.Results[s.watchRegion]
	if !ok {
		return nil, nil
	}
	return &providers, nil
}

// Videos returns YouTube trailers and teasers, official entries first.
func (s *Service) Videos(ctx context.Context, mediaType string, id int64) ([]models.Video, error) {
	mediaType, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("language", s.listingLanguage)

	var resp models.VideosEnvelope
	if err := s.tmdb.get(ctx, "videos", mediaPath(mediaType, id, "/videos"), q, &resp); err != nil {
		return nil, err
	}
	return filterTrailers(resp.Results), nil
}

// Details returns the detail record of a movie or show.
func (s *Service) Details(ctx context.Context, mediaType string, id int64) (*models.SubjectDetails, error) {
	mediaType, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("language", s.language)

	var details models.SubjectDetails
	if err := s.tmdb.get(ctx, "details", mediaPath(mediaType, id, ""), q, &details); err != nil {
		return nil, err
	}
	details.MediaType = mediaType
	return &details, nil
}

// PopularMovies merges the popular list of every market in MovieRegions.
func (s *Service) PopularMovies(ctx context.Context, count int) ([]models.MediaItem, error) {
	return s.regionalMovies(ctx, "popular", "/movie/popular", orDefault(count, defaultPopular))
}

// TopRatedMovies merges the top rated list of every market in MovieRegions.
func (s *Service) TopRatedMovies(ctx context.Context, count int) ([]models.MediaItem, error) {
	return s.regionalMovies(ctx, "top_rated", "/movie/top_rated", orDefault(count, defaultTopRated))
}

// NowPlayingMovies merges the now playing list of every market in MovieRegions.
func (s *Service) NowPlayingMovies(ctx context.Context, count int) ([]models.MediaItem, error) {
	return s.regionalMovies(ctx, "now_playing", "/movie/now_playing", orDefault(count, defaultNowPlaying))
}

// TopRatedTV returns the first top rated shows.
func (s *Service) TopRatedTV(ctx context.Context, count int) ([]models.MediaItem, error) {
	items, err := s.listing(ctx, "tv_top_rated", "/tv/top_rated", nil)
	if err != nil {
		return nil, err
	}
	return withType(firstN(dropLanguage(items, excludedLanguage), orDefault(count, defaultTopRatedTV)), "tv"), nil
}

// OnAirTV returns the first shows currently airing.
func (s *Service) OnAirTV(ctx context.Context, count int) ([]models.MediaItem, error) {
	items, err := s.listing(ctx, "on_the_air", "/tv/on_the_air", nil)
	if err != nil {
		return nil, err
	}
	return withType(firstN(dropLanguage(items, excludedLanguage), orDefault(count, defaultOnAir)), "tv"), nil
}

// listing fetches the first page of a listing endpoint in the listing language.
func (s *Service) listing(ctx context.Context, endpoint, path string, extra url.Values) ([]models.MediaItem, error) {
	q := url.Values{}
	q.Set("language", s.listingLanguage)
	q.Set("page", firstPage)
	for k, v := range extra {
		q[k] = v
	}
	var resp models.PagedResults
	if err := s.tmdb.get(ctx, endpoint, path, q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// regionalMovies fetches path for every market concurrently and merges the
// results in region order. A failing market is skipped; the call fails only
// when every market fails.
func (s *Service) regionalMovies(ctx context.Context, endpoint, path string, count int) ([]models.MediaItem, error) {
	perRegion := make([][]models.MediaItem, len(MovieRegions))
	errs := make([]error, len(MovieRegions))

	p := pool.New().WithMaxGoroutines(maxRegionFetchers)
	for i, region := range MovieRegions {
		p.Go(func() {
			perRegion[i], errs[i] = s.listing(ctx, endpoint, path, url.Values{"region": {region}})
		})
	}
	p.Wait()

	var merged []models.MediaItem
	var failed int
	for i, items := range perRegion {
		if errs[i] != nil {
			failed++
			log.Printf("[metadata] %s region=%s failed: %v", endpoint, MovieRegions[i], errs[i])
			continue
		}
		merged = append(merged, items...)
	}
	if failed == len(MovieRegions) {
		return nil, fmt.Errorf("%s: all regions failed: %w", endpoint, errs[0])
	}
	unique := dedupeByID(dropLanguage(merged, excludedLanguage))
	return withType(firstN(unique, count), "movie"), nil
}

func firstN(items []models.MediaItem, n int) []models.MediaItem {
	if items == nil {
		return []models.MediaItem{}
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func withType(items []models.MediaItem, mediaType string) []models.MediaItem {
	for i := range items {
		if items[i].MediaType == "" {
			items[i].MediaType = mediaType
		}
	}
	return items
}

func dropLanguage(items []models.MediaItem, lang string) []models.MediaItem {
	out := make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if item.OriginalLanguage == lang {
			continue
		}
		out = append(out, item)
	}
	return out
}

// dedupeByID keeps the first occurrence of every id.
func dedupeByID(items []models.MediaItem) []models.MediaItem {
	seen := make(map[int64]bool, len(items))
	out := make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

// highestVoted returns a copy of the item with the largest vote average; ties
// keep the earlier item.
func highestVoted(items []models.MediaItem) *models.MediaItem {
	if len(items) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(items); i++ {
		if items[i].VoteAverage > items[best].VoteAverage {
			best = i
		}
	}
	item := items[best]
	return &item
}

// filterTrailers keeps YouTube trailers and teasers and moves official entries
// to the front, preserving provider order otherwise.
func filterTrailers(videos []models.Video) []models.Video {
	out := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if v.Site != "YouTube" {
			continue
		}
		if v.Type != "Trailer" && v.Type != "Teaser" {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Official && !out[j].Official
	})
	return out
}
