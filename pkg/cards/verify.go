package cards

import "github.com/fadedpez/gamblinghall/pkg/fairness"

// Deal order: player, dealer, player, dealer (hole card), then player hits,
// then dealer draws.

// PlayerPosition returns the deck index of the i-th player card
func PlayerPosition(i int) int {
	if i < 2 {
		return 2 * i
	}
	return i + 2
}

// DealerPosition returns the deck index of the j-th dealer card for a player
// holding playerCount cards
func DealerPosition(j, playerCount int) int {
	if j < 2 {
		return 2*j + 1
	}
	return playerCount + j
}

// HoleCardIndex is the dealer hand index of the face-down card
const HoleCardIndex = 1

// Verify recomputes the dealt cards from the seed and checks that the
// claimed hands match position for position. Only the dealer's hole card
// may be submitted hidden.
func Verify(seed fairness.Seed, player, dealer []Card) bool {
	if len(player) < 2 || len(dealer) < 2 || len(player)+len(dealer) > DeckSize {
		return false
	}

	dealt := Prefix(seed, len(player)+len(dealer))

	for i, c := range player {
		if c.Hidden || dealt[PlayerPosition(i)] != c {
			return false
		}
	}
	for j, c := range dealer {
		if c.Hidden {
			if j != HoleCardIndex {
				return false
			}
			continue
		}
		if dealt[DealerPosition(j, len(player))] != c {
			return false
		}
	}
	return true
}
