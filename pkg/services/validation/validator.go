// Package validation checks wager requests before any randomness is drawn
// or any balance is touched.
package validation

import (
	"strings"

	"github.com/fadedpez/gamblinghall/internal/types"
	"github.com/fadedpez/gamblinghall/pkg/cards"
	"github.com/fadedpez/gamblinghall/pkg/entities"
)

const (
	DiceMinTarget = 2
	DiceMaxTarget = 12

	LotteryPicks   = 4
	LotteryMinPick = 1
	LotteryMaxPick = 12

	MaxKeyLength = 128
)

// Limits bounds the stake for a game
type Limits struct {
	Min int64
	Max int64
}

// DefaultLimits returns the house limits per game
func DefaultLimits() map[entities.Game]Limits {
	return map[entities.Game]Limits{
		entities.GameSlots:     {Min: 10, Max: 10000},
		entities.GameDice:      {Min: 10, Max: 10000},
		entities.GameBlackjack: {Min: 10, Max: 10000},
		entities.GameLottery:   {Min: 100, Max: 5000},
	}
}

// Validator checks bet shape, amount and game parameters
type Validator struct {
	limits map[entities.Game]Limits
}

// New creates a validator. Games missing from limits fall back to the defaults.
func New(limits map[entities.Game]Limits) *Validator {
	merged := DefaultLimits()
	for game, l := range limits {
		merged[game] = l
	}
	return &Validator{limits: merged}
}

// Limits returns the configured limits for a game
func (v *Validator) Limits(game entities.Game) Limits {
	return v.limits[game]
}

func invalid(format string, args ...interface{}) error {
	return types.Errorf(types.ErrInvalidBetParameters, format, args...)
}

// Identity checks the player and idempotency key every request carries
func (v *Validator) Identity(playerID, key string) error {
	if strings.TrimSpace(playerID) == "" {
		return invalid("player id is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return invalid("idempotency key is required")
	}
	if len(key) > MaxKeyLength {
		return invalid("idempotency key longer than %d characters", MaxKeyLength)
	}
	return nil
}

// Bet checks that the stake is positive and within the game's limits
func (v *Validator) Bet(game entities.Game, bet int64) error {
	l, ok := v.limits[game]
	if !ok {
		return invalid("unknown game %q", game)
	}
	if bet <= 0 {
		return invalid("bet must be a positive amount")
	}
	if bet < l.Min || bet > l.Max {
		return invalid("%s bet must be between %d and %d", game, l.Min, l.Max)
	}
	return nil
}

// Slots validates a spin
func (v *Validator) Slots(req entities.SlotsRequest) error {
	if err := v.Identity(req.PlayerID, req.IdempotencyKey); err != nil {
		return err
	}
	return v.Bet(entities.GameSlots, req.Bet)
}

// Dice validates a roll
func (v *Validator) Dice(req entities.DiceRequest) error {
	if err := v.Identity(req.PlayerID, req.IdempotencyKey); err != nil {
		return err
	}
	if err := v.Bet(entities.GameDice, req.Bet); err != nil {
		return err
	}

	switch req.BetType {
	case entities.DiceLow, entities.DiceHigh:
		return nil
	case entities.DiceExact:
		if req.Target < DiceMinTarget || req.Target > DiceMaxTarget {
			return invalid("exact target must be between %d and %d", DiceMinTarget, DiceMaxTarget)
		}
		return nil
	default:
		return invalid("bet type must be low, high or exact")
	}
}

// Lottery validates a ticket
func (v *Validator) Lottery(req entities.LotteryRequest) error {
	if err := v.Identity(req.PlayerID, req.IdempotencyKey); err != nil {
		return err
	}
	if err := v.Bet(entities.GameLottery, req.Bet); err != nil {
		return err
	}

	if len(req.Picks) != LotteryPicks {
		return invalid("pick exactly %d numbers", LotteryPicks)
	}
	seen := make(map[int]bool, LotteryPicks)
	for _, n := range req.Picks {
		if n < LotteryMinPick || n > LotteryMaxPick {
			return invalid("picks must be between %d and %d", LotteryMinPick, LotteryMaxPick)
		}
		if seen[n] {
			return invalid("picks must be distinct")
		}
		seen[n] = true
	}
	return nil
}

// BlackjackDeal validates the opening bet
func (v *Validator) BlackjackDeal(req entities.BlackjackDealRequest) error {
	if err := v.Identity(req.PlayerID, req.IdempotencyKey); err != nil {
		return err
	}
	return v.Bet(entities.GameBlackjack, req.Bet)
}

// BlackjackAction validates an action on an open hand. Whether the cards
// belong to the seed is checked later against the deck.
func (v *Validator) BlackjackAction(req entities.BlackjackActionRequest) error {
	if err := v.Identity(req.PlayerID, req.IdempotencyKey); err != nil {
		return err
	}
	if err := v.Bet(entities.GameBlackjack, req.Bet); err != nil {
		return err
	}

	switch req.Action {
	case entities.ActionHit, entities.ActionStand:
	case entities.ActionDouble:
		if len(req.PlayerCards) != 2 {
			return invalid("double is only allowed on the first two cards")
		}
	default:
		return invalid("action must be hit, stand or double")
	}

	if req.Seed.IsZero() {
		return invalid("seed is required")
	}
	if len(req.PlayerCards) < 2 {
		return invalid("player hand must hold at least two cards")
	}
	if len(req.DealerCards) != 2 {
		return invalid("dealer hand must hold exactly two cards before the dealer plays")
	}
	if len(req.PlayerCards)+len(req.DealerCards) >= cards.DeckSize {
		return invalid("too many cards")
	}
	for _, c := range append(append([]cards.Card{}, req.PlayerCards...), req.DealerCards...) {
		if !c.Valid() {
			return invalid("unknown card %q", c.String())
		}
	}
	return nil
}
