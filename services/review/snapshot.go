package review

import (
	"strconv"
	"strings"
	"time"
)

// Snapshot is a copy of card state taken when an export starts. Later edits to
// the card do not affect it.
type Snapshot struct {
	Subject      Subject
	Rating       int
	ReviewText   string
	ReviewerName string
	Mode         Mode
	Height       int
	CapturedAt   time.Time
}

// Expanded mirrors Card.Expanded for the captured state.
func (s Snapshot) Expanded() bool {
	return IsExpanded(s.Mode, s.ReviewText)
}

// HasReview reports whether the captured text is non-blank.
func (s Snapshot) HasReview() bool {
	return HasReview(s.ReviewText)
}

// Year is the display year of the subject.
func (s Snapshot) Year() string {
	return Year(s.Subject.ReleaseDate)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01",
}

// Year derives a four-digit display year from an ISO date. Empty or
// unparseable input yields "N/A".
func Year(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return "N/A"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return strconv.Itoa(t.Year())
		}
	}
	if len(date) == 4 {
		if y, err := strconv.Atoi(date); err == nil && y > 0 {
			return date
		}
	}
	return "N/A"
}
