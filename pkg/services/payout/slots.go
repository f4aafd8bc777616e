package payout

import "github.com/fadedpez/gamblinghall/pkg/entities"

// TripleMultipliers pays three of a kind. The void symbol never wins.
var TripleMultipliers = map[entities.Symbol]int64{
	entities.SymbolJackpot:   50,
	entities.SymbolShip:      10,
	entities.SymbolStar:      8,
	entities.SymbolPlanet:    5,
	entities.SymbolCredits:   3,
	entities.SymbolBlackhole: 0,
}

// PairMultiplier pays exactly two matching non-void symbols: half the stake
var PairMultiplier = Multiplier{Num: 1, Den: 2}

// Slots settles a spin.
//
// A pair made of void symbols pays nothing. A lone void symbol next to a
// winning pair does not cancel the pair.
func Slots(reels [3]entities.Symbol, bet int64) Result {
	a, b, c := reels[0], reels[1], reels[2]

	if a == b && b == c {
		if a == entities.SymbolBlackhole {
			return Result{Multiplier: Zero, Flags: entities.Flags{Void: true}}
		}
		m := Times(TripleMultipliers[a])
		return Result{
			Payout:     m.Apply(bet),
			Multiplier: m,
			Flags:      entities.Flags{Jackpot: a == entities.SymbolJackpot},
		}
	}

	var pair entities.Symbol
	switch {
	case a == b, a == c:
		pair = a
	case b == c:
		pair = b
	default:
		return Result{Multiplier: Zero}
	}

	if pair == entities.SymbolBlackhole {
		return Result{Multiplier: Zero, Flags: entities.Flags{Void: true}}
	}
	return Result{Payout: PairMultiplier.Apply(bet), Multiplier: PairMultiplier}
}
