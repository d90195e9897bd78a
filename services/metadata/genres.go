package metadata

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cinecard/models"
)

// MovieGenres maps browse slugs to provider movie genre ids.
var MovieGenres = map[string]int{
	"action":          28,
	"adventure":       12,
	"animation":       16,
	"comedy":          35,
	"crime":           80,
	"documentary":     99,
	"drama":           18,
	"family":          10751,
	"fantasy":         14,
	"history":         36,
	"horror":          27,
	"music":           10402,
	"mystery":         9648,
	"romance":         10749,
	"science-fiction": 878,
	"thriller":        53,
	"war":             10752,
	"western":         37,
}

// TVGenres maps browse slugs to provider TV genre ids.
var TVGenres = map[string]int{
	"action-adventure": 10759,
	"animation":        16,
	"comedy":           35,
	"crime":            80,
	"documentary":      99,
	"drama":            18,
	"family":           10751,
	"kids":             10762,
	"mystery":          9648,
	"news":             10763,
	"reality":          10764,
	"sci-fi-fantasy":   10765,
	"soap":             10766,
	"talk":             10767,
	"war-politics":     10768,
	"western":          37,
}

// GenreOptions lists the browse categories for a media type ("movie" or "tv"),
// sorted by slug.
func GenreOptions(mediaType string) []models.GenreOption {
	table := MovieGenres
	if mediaType == "tv" {
		table = TVGenres
	}
	opts := make([]models.GenreOption, 0, len(table))
	for slug, id := range table {
		opts = append(opts, models.GenreOption{Slug: slug, Label: genreLabel(slug), ID: id})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Slug < opts[j].Slug })
	return opts
}

// genreLabel turns "sci-fi-fantasy" into "Sci-Fi & Fantasy" style labels.
func genreLabel(slug string) string {
	switch slug {
	case "action-adventure":
		return "Action & Adventure"
	case "sci-fi-fantasy":
		return "Sci-Fi & Fantasy"
	case "war-politics":
		return "War & Politics"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

// LookupGenre resolves a slug for a media type.
func LookupGenre(mediaType, slug string) (int, bool) {
	table := MovieGenres
	if mediaType == "tv" {
		table = TVGenres
	}
	id, ok := table[strings.ToLower(strings.TrimSpace(slug))]
	return id, ok
}
