// Package review holds the in-memory review card and the layout rules derived
// from its state.
package review

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Layout constants, in logical pixels.
const (
	CardWidth     = 400
	CompactHeight = 280
	BaseHeight    = 400
	MaxHeight     = 650
	CharsPerStep  = 60
	StepHeight    = 25

	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5
)

var (
	ErrNotEditing        = errors.New("card is not in editing mode")
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
	ErrInvalidTransition = errors.New("invalid card state transition")
)

// Mode is the card's editing state.
type Mode int

const (
	ModeEditing Mode = iota
	ModeViewing
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeViewing:
		return "viewing"
	default:
		return "unknown"
	}
}

// Subject is the movie or show a card reviews. Empty paths mean "absent".
type Subject struct {
	ID           int64
	MediaType    string
	Title        string
	PosterPath   string
	BackdropPath string
	ReleaseDate  string
}

// values is the editable part of a card, captured as a checkpoint when editing starts.
type values struct {
	rating   int
	text     string
	reviewer string
}

// Card is the review composition for one subject. Methods are safe for
// concurrent use; a card starts in editing mode.
type Card struct {
	mu         sync.Mutex
	subject    Subject
	cur        values
	checkpoint values
	mode       Mode

	exporting atomic.Bool
}

// NewCard seeds a card with rating 5, empty text and the given reviewer name.
func NewCard(subject Subject, reviewer string) *Card {
	if strings.TrimSpace(subject.Title) == "" {
		subject.Title = "Untitled"
	}
	initial := values{rating: DefaultRating, reviewer: reviewer}
	return &Card{
		subject:    subject,
		cur:        initial,
		checkpoint: initial,
		mode:       ModeEditing,
	}
}

// Subject returns the reviewed subject.
func (c *Card) Subject() Subject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subject
}

func (c *Card) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Card) Rating() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur.rating
}

func (c *Card) ReviewText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur.text
}

func (c *Card) ReviewerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur.reviewer
}

// SetRating changes the star rating. Values outside [1,5] and calls outside
// editing mode leave the rating unchanged.
func (c *Card) SetRating(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	if n < MinRating || n > MaxRating {
		return ErrRatingOutOfRange
	}
	c.cur.rating = n
	return nil
}

// SetReviewText replaces the free-form review text.
func (c *Card) SetReviewText(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	c.cur.text = s
	return nil
}

// SetReviewerName replaces the attribution label.
func (c *Card) SetReviewerName(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	c.cur.reviewer = s
	return nil
}

// EnterEditing moves Viewing -> Editing and records the values CancelEditing
// restores.
func (c *Card) EnterEditing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeViewing {
		return ErrInvalidTransition
	}
	c.checkpoint = c.cur
	c.mode = ModeEditing
	return nil
}

// CommitEditing moves Editing -> Viewing keeping the edited values.
func (c *Card) CommitEditing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeEditing {
		return ErrInvalidTransition
	}
	c.mode = ModeViewing
	return nil
}

// CancelEditing moves Editing -> Viewing and rolls rating, text and reviewer
// back to the last checkpoint.
func (c *Card) CancelEditing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeEditing {
		return ErrInvalidTransition
	}
	c.cur = c.checkpoint
	c.mode = ModeViewing
	return nil
}

// Expanded reports whether the card shows the review area.
func (c *Card) Expanded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return IsExpanded(c.mode, c.cur.text)
}

// Height is the card height for the current state.
func (c *Card) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeHeight(c.mode, c.cur.text)
}

// Snapshot captures an immutable copy of the card.
func (c *Card) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Subject:      c.subject,
		Rating:       c.cur.rating,
		ReviewText:   c.cur.text,
		ReviewerName: c.cur.reviewer,
		Mode:         c.mode,
		Height:       ComputeHeight(c.mode, c.cur.text),
		CapturedAt:   time.Now(),
	}
}

// BeginExport marks the card as exporting. It returns false when an export is
// already in flight.
func (c *Card) BeginExport() bool {
	return c.exporting.CompareAndSwap(false, true)
}

// EndExport clears the exporting flag.
func (c *Card) EndExport() {
	c.exporting.Store(false)
}

// Exporting reports whether an export is in flight.
func (c *Card) Exporting() bool {
	return c.exporting.Load()
}

// IsExpanded is true in editing mode or when the trimmed text is non-empty.
func IsExpanded(mode Mode, text string) bool {
	return mode == ModeEditing || HasReview(text)
}

// HasReview reports whether text holds anything but whitespace.
func HasReview(text string) bool {
	return strings.TrimSpace(text) != ""
}

// ComputeHeight returns the card height for a mode and review text. Collapsed
// cards are CompactHeight; expanded cards grow by StepHeight every CharsPerStep
// characters and saturate at MaxHeight.
func ComputeHeight(mode Mode, text string) int {
	if !IsExpanded(mode, text) {
		return CompactHeight
	}
	steps := utf8.RuneCountInString(text) / CharsPerStep
	return min(BaseHeight+steps*StepHeight, MaxHeight)
}
