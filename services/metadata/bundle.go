package metadata

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"cinecard/models"
)

// DetailsBundle fetches details, watch providers and videos concurrently.
// Only a details failure fails the bundle; the other parts degrade to empty.
func (s *Service) DetailsBundle(ctx context.Context, mediaType string, id int64) (*models.DetailsBundle, error) {
	mediaType, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		details    *models.SubjectDetails
		detailsErr error
		providers  *models.WatchProviders
		videos     []models.Video
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		details, detailsErr = s.Details(ctx, mediaType, id)
	})
	wg.Go(func() {
		p, err := s.WatchProviders(ctx, mediaType, id)
		if err != nil {
			log.Printf("[metadata] bundle providers %s/%d failed: %v", mediaType, id, err)
			return
		}
		providers = p
	})
	wg.Go(func() {
		v, err := s.Videos(ctx, mediaType, id)
		if err != nil {
			log.Printf("[metadata] bundle videos %s/%d failed: %v", mediaType, id, err)
			return
		}
		videos = v
	})
	wg.Wait()

	if detailsErr != nil {
		return nil, detailsErr
	}
	if videos == nil {
		videos = []models.Video{}
	}
	bundle := &models.DetailsBundle{
		Details:        details,
		WatchProviders: providers,
		Videos:         videos,
		MainTrailer:    selectMainTrailer(videos),
		PosterURL:      s.ImageURL(derefPath(details.PosterPath), SizeW500),
		BackdropURL:    s.ImageURL(derefPath(details.BackdropPath), SizeOriginal),
	}
	log.Printf("[metadata] bundle %s/%d built in %s (videos=%d providers=%v)",
		mediaType, id, time.Since(start).Round(time.Millisecond), len(videos), providers != nil)
	return bundle, nil
}

// selectMainTrailer picks the highest scoring video; ties keep list order.
func selectMainTrailer(videos []models.Video) *models.Video {
	bestIndex := -1
	bestScore := -1
	for idx := range videos {
		score := scoreVideo(&videos[idx])
		if score > bestScore {
			bestScore = score
			bestIndex = idx
		}
	}
	if bestIndex < 0 {
		return nil
	}
	v := videos[bestIndex]
	return &v
}

func scoreVideo(v *models.Video) int {
	score := 0
	switch strings.ToLower(strings.TrimSpace(v.Type)) {
	case "trailer":
		score += 100
	case "teaser":
		score += 60
	default:
		score += 10
	}
	if v.Official {
		score += 25
	}
	name := strings.ToLower(v.Name)
	if strings.Contains(name, "official trailer") {
		score += 20
	}
	for _, marker := range []string{"behind the scenes", "featurette", "reaction", "recap"} {
		if strings.Contains(name, marker) {
			score -= 50
		}
	}
	return score
}
