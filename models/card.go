package models

// CreateCardRequest opens a review card for a subject page.
type CreateCardRequest struct {
	SubjectID int64  `json:"subjectId" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required,oneof=movie tv"`
}

// RatingRequest sets the star rating of a card.
type RatingRequest struct {
	Rating int `json:"rating"`
}

// TextRequest carries a free-text value (review text or reviewer name).
type TextRequest struct {
	Value string `json:"value"`
}

// CardView is the JSON representation of a card and its derived layout values.
type CardView struct {
	ID           string `json:"id"`
	SubjectID    int64  `json:"subjectId"`
	MediaType    string `json:"type"`
	Title        string `json:"title"`
	Year         string `json:"year"`
	PosterURL    string `json:"posterUrl"`
	BackdropURL  string `json:"backdropUrl"`
	ReleaseDate  string `json:"releaseDate,omitempty"`
	Rating       int    `json:"rating"`
	ReviewText   string `json:"reviewText"`
	ReviewerName string `json:"reviewerName"`
	Mode         string `json:"mode"`
	Expanded     bool   `json:"expanded"`
	HasReview    bool   `json:"hasReview"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Exporting    bool   `json:"exporting"`
}
