package casino

import (
	"github.com/fadedpez/gamblinghall/internal/types"
	"github.com/fadedpez/gamblinghall/pkg/cards"
	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/services/payout"
)

// VerifyRequest is the public data of a settled round: its disclosed seed
// and the parameters of the bet
type VerifyRequest struct {
	Game        entities.Game        `json:"game"`
	Seed        fairness.Seed        `json:"seed"`
	Bet         int64                `json:"bet"`
	BetType     entities.DiceBetType `json:"bet_type,omitempty"`
	Target      int                  `json:"target,omitempty"`
	Picks       []int                `json:"picks,omitempty"`
	PlayerCards []cards.Card         `json:"player_cards,omitempty"`
	DealerCards []cards.Card         `json:"dealer_cards,omitempty"`
	Doubled     bool                 `json:"doubled,omitempty"`
}

// Verification is the recomputed outcome
type Verification struct {
	Valid  bool                  `json:"valid"`
	Reason string                `json:"reason,omitempty"`
	Result *entities.RoundResult `json:"result,omitempty"`
	Deck   []cards.Card          `json:"deck,omitempty"` // blackjack only, in deal order
}

// Verify recomputes a round from its seed. It needs no secret and no
// ledger, so anyone holding a disclosed seed can run it.
func Verify(req VerifyRequest) (*Verification, error) {
	if req.Seed.IsZero() {
		return nil, types.Errorf(types.ErrInvalidBetParameters, "seed is required")
	}
	if req.Bet < 0 {
		return nil, types.Errorf(types.ErrInvalidBetParameters, "bet cannot be negative")
	}

	switch req.Game {
	case entities.GameSlots:
		return &Verification{Valid: true, Result: slotsRound(req.Seed, req.Bet).wager.Result}, nil
	case entities.GameDice:
		switch req.BetType {
		case entities.DiceLow, entities.DiceHigh, entities.DiceExact:
		default:
			return nil, types.Errorf(types.ErrInvalidBetParameters, "bet type must be low, high or exact")
		}
		return &Verification{Valid: true, Result: diceRound(req.Seed, req.BetType, req.Target, req.Bet).wager.Result}, nil
	case entities.GameLottery:
		return &Verification{Valid: true, Result: lotteryRound(req.Seed, req.Picks, req.Bet).wager.Result}, nil
	case entities.GameBlackjack:
		return verifyBlackjack(req), nil
	default:
		return nil, types.Errorf(types.ErrInvalidBetParameters, "unknown game %q", req.Game)
	}
}

func verifyBlackjack(req VerifyRequest) *Verification {
	// Without a hand, show the opening deal face up
	if len(req.PlayerCards) == 0 && len(req.DealerCards) == 0 {
		dealt := cards.ShuffledDeck(req.Seed).Draw(4)
		player := []cards.Card{dealt[cards.PlayerPosition(0)], dealt[cards.PlayerPosition(1)]}
		dealer := []cards.Card{dealt[cards.DealerPosition(0, 2)], dealt[cards.DealerPosition(1, 2)]}
		result := dealRound(req.Seed, req.Bet).wager.Result
		result.Blackjack.DealerCards = dealer
		result.Blackjack.DealerTotal = payout.GetBestScore(dealer)
		result.Blackjack.PlayerCards = player
		return &Verification{Valid: true, Result: result, Deck: dealt}
	}

	player, dealer := req.PlayerCards, req.DealerCards
	v := &Verification{}
	if len(player)+len(dealer) <= cards.DeckSize {
		v.Deck = cards.Prefix(req.Seed, len(player)+len(dealer))
	}
	if !cards.Verify(req.Seed, player, dealer) {
		v.Reason = "cards do not match the deck for this seed"
		return v
	}

	open := false
	for _, c := range dealer {
		if c.Hidden {
			open = true
		}
	}
	if open {
		v.Valid = true
		v.Reason = "hand is still open"
		return v
	}

	// The dealer only draws when the player stood on a live hand
	expected := 2
	if !payout.IsBust(player) && !payout.IsBlackjack(player) {
		hand := append([]cards.Card(nil), dealer[:2]...)
		// The dealer draws from the shoe after the player's last card
		deck := cards.ShuffledDeck(req.Seed)
		deck.Draw(len(player) + len(hand))
		for payout.DealerShouldHit(hand) && len(deck.Cards) > 0 {
			hand = append(hand, deck.DrawOne())
		}
		expected = len(hand)
	}
	if len(dealer) != expected {
		v.Reason = "dealer hand does not follow the house drawing rule"
		return v
	}

	stake := req.Bet
	if req.Doubled {
		stake *= 2
	}
	paid, hand := payout.Blackjack(player, dealer, stake)
	wager, result := newRound(entities.GameBlackjack, req.Seed, stake)
	result.Blackjack = handOutcome(entities.ActionStand, player, dealer, entities.PhaseResolved)
	result.Blackjack.Result = hand
	result.Blackjack.Doubled = req.Doubled
	settleResult(wager, result, paid, stake)

	v.Valid = true
	v.Result = result
	return v
}
