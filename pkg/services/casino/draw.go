package casino

import (
	"sort"

	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
)

// Random streams per game. Each draw reads its own stream of the round seed
// so outcomes can be recomputed independently.
const (
	reelStream    = "slots/reel"
	dieStream     = "dice/die"
	lotteryStream = "lottery/pick"
)

const (
	LotteryPoolSize = 12
	LotteryDraws    = 4
)

// DrawReels spins the three reels
func DrawReels(seed fairness.Seed) [3]entities.Symbol {
	var reels [3]entities.Symbol
	for i := range reels {
		reels[i] = entities.Symbols[fairness.Intn(seed, fairness.Indexed(reelStream, i), len(entities.Symbols))]
	}
	return reels
}

// DrawDice rolls two six-sided dice
func DrawDice(seed fairness.Seed) [2]int {
	var dice [2]int
	for i := range dice {
		dice[i] = fairness.Range(seed, fairness.Indexed(dieStream, i), 1, 6)
	}
	return dice
}

// DrawLottery draws the distinct winning numbers from 1..12 with a partial
// Fisher-Yates shuffle. The result is sorted.
func DrawLottery(seed fairness.Seed) []int {
	pool := make([]int, LotteryPoolSize)
	for i := range pool {
		pool[i] = i + 1
	}
	for i := 0; i < LotteryDraws; i++ {
		j := i + fairness.Intn(seed, fairness.Indexed(lotteryStream, i), LotteryPoolSize-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	winning := append([]int(nil), pool[:LotteryDraws]...)
	sort.Ints(winning)
	return winning
}
