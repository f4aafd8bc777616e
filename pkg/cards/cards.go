package cards

import "errors"

// DeckSize is the number of cards in a standard deck
const DeckSize = 52

// ErrDeckExhausted is returned when a position beyond the deck is requested
var ErrDeckExhausted = errors.New("deck exhausted")

// Suit represents a card suit
type Suit string

const (
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
	Spades   Suit = "♠"
)

// Rank represents a card rank
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var (
	suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// Card represents a playing card. A hidden card is a face-down placeholder
// and carries no suit or rank.
type Card struct {
	Suit   Suit `json:"suit,omitempty"`
	Rank   Rank `json:"rank,omitempty"`
	Hidden bool `json:"hidden,omitempty"`
}

// HiddenCard is the placeholder sent for the dealer's hole card
var HiddenCard = Card{Hidden: true}

// String returns a string representation of the card
func (c Card) String() string {
	if c.Hidden {
		return "??"
	}
	return string(c.Suit) + string(c.Rank)
}

// Valid reports whether the card is a hidden placeholder or a real card
func (c Card) Valid() bool {
	if c.Hidden {
		return c.Suit == "" && c.Rank == ""
	}
	return validSuit(c.Suit) && validRank(c.Rank)
}

func validSuit(s Suit) bool {
	for _, v := range suits {
		if v == s {
			return true
		}
	}
	return false
}

func validRank(r Rank) bool {
	for _, v := range ranks {
		if v == r {
			return true
		}
	}
	return false
}

// Deck represents a deck of cards
type Deck struct {
	Cards []Card
}

// NewDeck creates a new deck of cards in canonical order
func NewDeck() *Deck {
	deck := &Deck{Cards: make([]Card, 0, DeckSize)}
	for _, suit := range suits {
		for _, rank := range ranks {
			deck.Cards = append(deck.Cards, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// canonicalOrder is the unshuffled deck every shuffle starts from
var canonicalOrder = NewDeck().Cards

// canonical returns the card at a canonical deck position
func canonical(i int) Card {
	return canonicalOrder[i]
}

// Draw draws n cards from the deck
func (d *Deck) Draw(n int) []Card {
	if n > len(d.Cards) {
		n = len(d.Cards)
	}

	cards := d.Cards[:n]
	d.Cards = d.Cards[n:]
	return cards
}

// DrawOne draws one card from the deck
func (d *Deck) DrawOne() Card {
	cards := d.Draw(1)
	if len(cards) == 0 {
		return Card{}
	}
	return cards[0]
}
