package payout

import "github.com/fadedpez/gamblinghall/pkg/entities"

const (
	// SupernovaMultiplier is paid to one on double six, whatever the bet type
	SupernovaMultiplier = 35
	// RangeMultiplier pays winning low and high bets
	RangeMultiplier = 2

	VoidTotal = 7
)

// ExactMultipliers pays an exact bet by target; rarer totals pay more
var ExactMultipliers = map[int]int64{
	2: 35, 3: 17, 4: 11, 5: 8, 6: 6,
	7: 5,
	8: 6, 9: 8, 10: 11, 11: 17, 12: 35,
}

// Dice settles a roll of two dice
func Dice(dice [2]int, betType entities.DiceBetType, target int, bet int64) Result {
	total := dice[0] + dice[1]

	if dice[0] == 6 && dice[1] == 6 {
		m := Times(SupernovaMultiplier + 1)
		return Result{
			Payout:     m.Apply(bet),
			Multiplier: m,
			Flags:      entities.Flags{Supernova: true},
		}
	}

	var m Multiplier
	switch betType {
	case entities.DiceLow:
		if total >= 2 && total <= 6 {
			m = Times(RangeMultiplier)
		}
	case entities.DiceHigh:
		if total >= 8 && total <= 12 {
			m = Times(RangeMultiplier)
		}
	case entities.DiceExact:
		if total == target {
			m = Times(ExactMultipliers[target])
		}
	}

	if m.Num == 0 {
		return Result{
			Multiplier: Zero,
			Flags:      entities.Flags{Void: total == VoidTotal && betType != entities.DiceExact},
		}
	}
	return Result{Payout: m.Apply(bet), Multiplier: m}
}
