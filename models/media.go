package models

// MediaItem is a single entry of a provider result list. Movies carry Title and
// ReleaseDate, TV shows carry Name and FirstAirDate; multi-search results carry
// MediaType ("movie" | "tv" | "person").
type MediaItem struct {
	ID               int64   `json:"id"`
	MediaType        string  `json:"media_type,omitempty"`
	Title            string  `json:"title,omitempty"`
	Name             string  `json:"name,omitempty"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	FirstAirDate     string  `json:"first_air_date,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
}

// DisplayTitle returns Title for movies and Name for TV shows.
func (m MediaItem) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// Date returns the release date of a movie or the first air date of a show.
func (m MediaItem) Date() string {
	if m.ReleaseDate != "" {
		return m.ReleaseDate
	}
	return m.FirstAirDate
}

// PagedResults is the provider envelope for every list endpoint.
type PagedResults struct {
	Page         int         `json:"page"`
	Results      []MediaItem `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// Genre is a provider genre id/name pair.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreOption is a browse category exposed to the UI.
type GenreOption struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
	ID    int    `json:"id"`
}

// SubjectDetails is the detail payload for a movie or TV show.
type SubjectDetails struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	Genres       []Genre `json:"genres"`
	VoteAverage  float64 `json:"vote_average"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	Runtime      int     `json:"runtime,omitempty"`
}

// DisplayTitle returns Title for movies and Name for TV shows.
func (d SubjectDetails) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// Date returns the release date of a movie or the first air date of a show.
func (d SubjectDetails) Date() string {
	if d.ReleaseDate != "" {
		return d.ReleaseDate
	}
	return d.FirstAirDate
}

// WatchProvider is a streaming/rental/purchase offer.
type WatchProvider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// WatchProviders groups offers for a single market.
type WatchProviders struct {
	Link     string          `json:"link,omitempty"`
	Flatrate []WatchProvider `json:"flatrate,omitempty"`
	Rent     []WatchProvider `json:"rent,omitempty"`
	Buy      []WatchProvider `json:"buy,omitempty"`
}

// WatchProvidersEnvelope is the provider response keyed by market code.
type WatchProvidersEnvelope struct {
	ID      int64                     `json:"id"`
	Results map[string]WatchProviders `json:"results"`
}

// Video is a trailer/teaser/clip entry.
type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// VideosEnvelope is the provider response for the videos endpoint.
type VideosEnvelope struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// DetailsBundle combines everything a subject page needs in one payload.
type DetailsBundle struct {
	Details        *SubjectDetails `json:"details"`
	WatchProviders *WatchProviders `json:"watchProviders"`
	Videos         []Video         `json:"videos"`
	MainTrailer    *Video          `json:"mainTrailer"`
	PosterURL      string          `json:"posterUrl"`
	BackdropURL    string          `json:"backdropUrl"`
}
