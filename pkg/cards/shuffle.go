package cards

import (
	"fmt"

	"github.com/fadedpez/gamblinghall/pkg/fairness"
)

const swapStream = "deck/swap"

// Backward Fisher-Yates: step i (51 down to 1) swaps position i with a
// position drawn from [0, i], after which position i is final. The card
// dealt k-th is the one fixed at position 51-k, so dealing k cards only
// needs k+1 steps.

// ShuffledDeck returns the full dealing order for a seed
func ShuffledDeck(seed fairness.Seed) *Deck {
	return &Deck{Cards: Prefix(seed, DeckSize)}
}

// Prefix returns the first n cards of the dealing order, running only the
// shuffle steps those cards depend on
func Prefix(seed fairness.Seed, n int) []Card {
	if n > DeckSize {
		n = DeckSize
	}
	if n <= 0 {
		return nil
	}

	positions := make([]int, DeckSize)
	for i := range positions {
		positions[i] = i
	}
	last := DeckSize - n
	for i := DeckSize - 1; i >= last && i > 0; i-- {
		j := fairness.Intn(seed, fairness.Indexed(swapStream, i), i+1)
		positions[i], positions[j] = positions[j], positions[i]
	}

	dealt := make([]Card, n)
	for k := 0; k < n; k++ {
		dealt[k] = canonical(positions[DeckSize-1-k])
	}
	return dealt
}

// CardAt returns the card dealt at index without building the whole deck
func CardAt(seed fairness.Seed, index int) (Card, error) {
	if index < 0 || index >= DeckSize {
		return Card{}, fmt.Errorf("card index %d: %w", index, ErrDeckExhausted)
	}

	swaps := make(map[int]int, index+1)
	at := func(p int) int {
		if v, ok := swaps[p]; ok {
			return v
		}
		return p
	}

	target := DeckSize - 1 - index
	for i := DeckSize - 1; i >= target && i > 0; i-- {
		j := fairness.Intn(seed, fairness.Indexed(swapStream, i), i+1)
		vi, vj := at(i), at(j)
		swaps[i], swaps[j] = vj, vi
	}
	return canonical(at(target)), nil
}

// Shoe deals cards in order from a seed, starting at a cursor
type Shoe struct {
	seed   fairness.Seed
	cursor int
}

// NewShoe creates a shoe positioned after the first cursor cards
func NewShoe(seed fairness.Seed, cursor int) *Shoe {
	return &Shoe{seed: seed, cursor: cursor}
}

// Next deals the next card
func (s *Shoe) Next() (Card, error) {
	card, err := CardAt(s.seed, s.cursor)
	if err != nil {
		return Card{}, err
	}
	s.cursor++
	return card, nil
}

// Cursor returns the number of cards dealt so far
func (s *Shoe) Cursor() int {
	return s.cursor
}
