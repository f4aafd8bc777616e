package entities

import (
	"github.com/fadedpez/gamblinghall/pkg/cards"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
)

// Wager requests are immutable once received. PlayerID comes from the
// account layer and IdempotencyKey from the caller.

// SlotsRequest spins the reels
type SlotsRequest struct {
	PlayerID       string `json:"-"`
	IdempotencyKey string `json:"-"`
	Bet            int64  `json:"bet"`
}

// DiceRequest rolls two dice
type DiceRequest struct {
	PlayerID       string      `json:"-"`
	IdempotencyKey string      `json:"-"`
	Bet            int64       `json:"bet"`
	BetType        DiceBetType `json:"bet_type"`
	Target         int         `json:"target,omitempty"`
}

// LotteryRequest buys a ticket
type LotteryRequest struct {
	PlayerID       string `json:"-"`
	IdempotencyKey string `json:"-"`
	Bet            int64  `json:"bet"`
	Picks          []int  `json:"picks"`
}

// BlackjackDealRequest opens a hand
type BlackjackDealRequest struct {
	PlayerID       string `json:"-"`
	IdempotencyKey string `json:"-"`
	Bet            int64  `json:"bet"`
}

// BlackjackActionRequest plays an open hand. The cards and seed are the
// state returned by the previous response.
type BlackjackActionRequest struct {
	PlayerID       string          `json:"-"`
	IdempotencyKey string          `json:"-"`
	Bet            int64           `json:"bet"`
	Action         BlackjackAction `json:"action"`
	PlayerCards    []cards.Card    `json:"player_cards"`
	DealerCards    []cards.Card    `json:"dealer_cards"`
	Seed           fairness.Seed   `json:"seed"`
}
