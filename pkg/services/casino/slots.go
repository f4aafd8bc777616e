package casino

import (
	"context"
	"fmt"

	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/services/payout"
)

// Spin plays one slots round
func (s *Service) Spin(ctx context.Context, req entities.SlotsRequest) (*entities.RoundResult, error) {
	return s.play(ctx, entities.GameSlots, "", req.PlayerID, req.IdempotencyKey,
		func() error { return s.validator.Slots(req) },
		s.seeded(req.PlayerID, req.IdempotencyKey, func(seed fairness.Seed) *round {
			return slotsRound(seed, req.Bet)
		}))
}

func slotsRound(seed fairness.Seed, bet int64) *round {
	reels := DrawReels(seed)
	paid := payout.Slots(reels, bet)

	wager, result := newRound(entities.GameSlots, seed, bet)
	result.Slots = &entities.SlotsOutcome{Reels: reels}
	settleResult(wager, result, paid, bet)

	return &round{
		debit:       bet,
		credit:      paid.Payout,
		description: fmt.Sprintf("slots %s %s %s", reels[0], reels[1], reels[2]),
		wager:       wager,
	}
}

// settleResult fills the payout fields of a resolved one-shot round
func settleResult(wager *entities.Wager, result *entities.RoundResult, paid payout.Result, bet int64) {
	result.Payout = paid.Payout
	result.Net = paid.Net(bet)
	result.Multiplier = paid.Multiplier.String()
	result.Flags = paid.Flags
	result.Resolved = true

	wager.Net = result.Net
	wager.Resolved = true
}
