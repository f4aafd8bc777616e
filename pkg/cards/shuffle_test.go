package cards

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fadedpez/gamblinghall/pkg/fairness"
)

type ShuffleTestSuite struct {
	suite.Suite
	seed fairness.Seed
}

func TestShuffleSuite(t *testing.T) {
	suite.Run(t, new(ShuffleTestSuite))
}

func (s *ShuffleTestSuite) SetupTest() {
	for i := range s.seed {
		s.seed[i] = byte(255 - i)
	}
}

func (s *ShuffleTestSuite) TestShuffledDeckIsDeterministic() {
	first := ShuffledDeck(s.seed)
	second := ShuffledDeck(s.seed)
	s.Equal(first.Cards, second.Cards)
}

func (s *ShuffleTestSuite) TestShuffledDeckIsPermutation() {
	deck := ShuffledDeck(s.seed)
	s.Len(deck.Cards, DeckSize)

	counts := make(map[Card]int)
	for _, card := range deck.Cards {
		s.True(card.Valid())
		counts[card]++
	}
	s.Len(counts, DeckSize)
	for card, count := range counts {
		s.Equal(1, count, "Card %v should appear exactly once", card)
	}
}

func (s *ShuffleTestSuite) TestShuffledDeckDiffersFromCanonical() {
	s.NotEqual(NewDeck().Cards, ShuffledDeck(s.seed).Cards)
}

func (s *ShuffleTestSuite) TestDifferentSeedsDifferentOrders() {
	other := s.seed
	other[5]++
	s.NotEqual(ShuffledDeck(s.seed).Cards, ShuffledDeck(other).Cards)
}

func (s *ShuffleTestSuite) TestCardAtMatchesShuffledDeck() {
	deck := ShuffledDeck(s.seed)
	for i := 0; i < DeckSize; i++ {
		card, err := CardAt(s.seed, i)
		s.Require().NoError(err)
		s.Equal(deck.Cards[i], card, "position %d", i)
	}
}

func (s *ShuffleTestSuite) TestPrefixMatchesShuffledDeck() {
	deck := ShuffledDeck(s.seed)
	for _, n := range []int{1, 4, 7, 30, 52} {
		s.Equal(deck.Cards[:n], Prefix(s.seed, n), "prefix %d", n)
	}
	s.Nil(Prefix(s.seed, 0))
	s.Len(Prefix(s.seed, 60), DeckSize)
}

func (s *ShuffleTestSuite) TestCardAtOutOfRange() {
	_, err := CardAt(s.seed, DeckSize)
	s.ErrorIs(err, ErrDeckExhausted)

	_, err = CardAt(s.seed, -1)
	s.ErrorIs(err, ErrDeckExhausted)
}

func (s *ShuffleTestSuite) TestShoeDealsInOrder() {
	deck := ShuffledDeck(s.seed)
	shoe := NewShoe(s.seed, 4)

	for i := 4; i < 8; i++ {
		card, err := shoe.Next()
		s.Require().NoError(err)
		s.Equal(deck.Cards[i], card)
	}
	s.Equal(8, shoe.Cursor())
}

func (s *ShuffleTestSuite) TestShoeExhausts() {
	shoe := NewShoe(s.seed, DeckSize)
	_, err := shoe.Next()
	s.ErrorIs(err, ErrDeckExhausted)
	s.Equal(DeckSize, shoe.Cursor())
}
