package casino

import (
	"context"
	"fmt"

	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/services/payout"
)

// Roll plays one dice round
func (s *Service) Roll(ctx context.Context, req entities.DiceRequest) (*entities.RoundResult, error) {
	return s.play(ctx, entities.GameDice, "", req.PlayerID, req.IdempotencyKey,
		func() error { return s.validator.Dice(req) },
		s.seeded(req.PlayerID, req.IdempotencyKey, func(seed fairness.Seed) *round {
			return diceRound(seed, req.BetType, req.Target, req.Bet)
		}))
}

func diceRound(seed fairness.Seed, betType entities.DiceBetType, target int, bet int64) *round {
	dice := DrawDice(seed)
	paid := payout.Dice(dice, betType, target, bet)

	outcome := &entities.DiceOutcome{
		Dice:    dice,
		Total:   dice[0] + dice[1],
		BetType: betType,
	}
	if betType == entities.DiceExact {
		outcome.Target = target
	}

	wager, result := newRound(entities.GameDice, seed, bet)
	result.Dice = outcome
	settleResult(wager, result, paid, bet)

	return &round{
		debit:       bet,
		credit:      paid.Payout,
		description: fmt.Sprintf("dice %s %d+%d", betType, dice[0], dice[1]),
		wager:       wager,
	}
}
