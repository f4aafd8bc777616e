package payout

import "github.com/fadedpez/gamblinghall/pkg/entities"

// LotteryMultipliers pays by number of matches
var LotteryMultipliers = map[int]int64{
	4: 1000,
	3: 50,
	2: 5,
	1: 1,
	0: 0,
}

// Matches counts picks present in the winning numbers
func Matches(picks, winning []int) int {
	drawn := make(map[int]bool, len(winning))
	for _, n := range winning {
		drawn[n] = true
	}

	matches := 0
	seen := make(map[int]bool, len(picks))
	for _, n := range picks {
		if drawn[n] && !seen[n] {
			matches++
		}
		seen[n] = true
	}
	return matches
}

// Lottery settles a ticket
func Lottery(picks, winning []int, bet int64) (Result, int) {
	matches := Matches(picks, winning)
	m := Times(LotteryMultipliers[matches])
	return Result{
		Payout:     m.Apply(bet),
		Multiplier: m,
		Flags:      entities.Flags{Jackpot: matches == 4},
	}, matches
}
