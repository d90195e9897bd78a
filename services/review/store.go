package review

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrCardNotFound = errors.New("card not found")

type storeEntry struct {
	card     *Card
	lastSeen time.Time
}

// Store keeps the cards of open page views. Cards that are not touched for
// the idle TTL are dropped, as are cards whose page view is closed.
type Store struct {
	mu      sync.Mutex
	cards   map[uuid.UUID]*storeEntry
	idleTTL time.Duration
	now     func() time.Time

	sweepEvery time.Duration
}

// NewStore creates an empty store.
func NewStore(idleTTL time.Duration) *Store {
	return &Store{
		cards:   make(map[uuid.UUID]*storeEntry),
		idleTTL: idleTTL,
		now:     time.Now,

		sweepEvery: time.Minute,
	}
}

// Create opens a card for the subject and returns its id.
func (s *Store) Create(subject Subject, reviewer string) (uuid.UUID, *Card) {
	id := uuid.New()
	card := NewCard(subject, reviewer)

	s.mu.Lock()
	s.cards[id] = &storeEntry{card: card, lastSeen: s.now()}
	s.mu.Unlock()

	return id, card
}

// Get returns the card and refreshes its idle timer.
func (s *Store) Get(id uuid.UUID) (*Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	entry.lastSeen = s.now()
	return entry.card, nil
}

// Delete discards a card. Deleting an unknown id is not an error.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.cards, id)
	s.mu.Unlock()
}

// Len returns the number of open cards.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// Sweep evicts idle cards and returns how many were removed. Cards with an
// export in flight are kept.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.cards {
		if entry.card.Exporting() {
			continue
		}
		if now.Sub(entry.lastSeen) > s.idleTTL {
			delete(s.cards, id)
			removed++
		}
	}
	return removed
}

// Run sweeps once a minute until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("[cards] evicted %d idle cards, %d open", n, s.Len())
			}
		}
	}
}
