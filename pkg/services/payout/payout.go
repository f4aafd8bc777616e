// Package payout maps drawn outcomes to gross payouts. Every function is
// pure and works in whole credits.
package payout

import (
	"fmt"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

// Multiplier is a payout ratio applied to the stake with integer division
type Multiplier struct {
	Num int64
	Den int64
}

// Times returns a whole-number multiplier
func Times(n int64) Multiplier {
	return Multiplier{Num: n, Den: 1}
}

// Zero pays nothing
var Zero = Times(0)

// Apply returns the gross payout for a stake
func (m Multiplier) Apply(bet int64) int64 {
	if m.Den == 0 {
		return 0
	}
	return bet * m.Num / m.Den
}

// String formats the multiplier for display, e.g. "50x" or "5/2x"
func (m Multiplier) String() string {
	if m.Den == 1 {
		return fmt.Sprintf("%dx", m.Num)
	}
	return fmt.Sprintf("%d/%dx", m.Num, m.Den)
}

// Result is a settled payout
type Result struct {
	Payout     int64
	Multiplier Multiplier
	Flags      entities.Flags
}

// Net returns the payout minus the stake
func (r Result) Net(bet int64) int64 {
	return r.Payout - bet
}
