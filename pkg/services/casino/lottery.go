package casino

import (
	"context"
	"fmt"

	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/services/payout"
)

// BuyTicket plays one lottery ticket
func (s *Service) BuyTicket(ctx context.Context, req entities.LotteryRequest) (*entities.RoundResult, error) {
	return s.play(ctx, entities.GameLottery, "", req.PlayerID, req.IdempotencyKey,
		func() error { return s.validator.Lottery(req) },
		s.seeded(req.PlayerID, req.IdempotencyKey, func(seed fairness.Seed) *round {
			return lotteryRound(seed, req.Picks, req.Bet)
		}))
}

func lotteryRound(seed fairness.Seed, picks []int, bet int64) *round {
	winning := DrawLottery(seed)
	paid, matches := payout.Lottery(picks, winning, bet)

	wager, result := newRound(entities.GameLottery, seed, bet)
	result.Lottery = &entities.LotteryOutcome{
		Picks:   append([]int(nil), picks...),
		Winning: winning,
		Matches: matches,
	}
	settleResult(wager, result, paid, bet)

	return &round{
		debit:       bet,
		credit:      paid.Payout,
		description: fmt.Sprintf("lottery %d matches", matches),
		wager:       wager,
	}
}
