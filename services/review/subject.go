package review

import "cinecard/models"

// SubjectFromDetails builds the card subject from a provider details payload.
// Absent artwork paths become empty strings.
func SubjectFromDetails(d *models.SubjectDetails, mediaType string) Subject {
	s := Subject{
		ID:          d.ID,
		MediaType:   mediaType,
		Title:       d.DisplayTitle(),
		ReleaseDate: d.Date(),
	}
	if d.PosterPath != nil {
		s.PosterPath = *d.PosterPath
	}
	if d.BackdropPath != nil {
		s.BackdropPath = *d.BackdropPath
	}
	return s
}
