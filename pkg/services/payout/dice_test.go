package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

func TestDiceSupernovaOverridesBetType(t *testing.T) {
	for _, betType := range []entities.DiceBetType{entities.DiceLow, entities.DiceHigh, entities.DiceExact} {
		t.Run(string(betType), func(t *testing.T) {
			result := Dice([2]int{6, 6}, betType, 2, 40)
			assert.True(t, result.Flags.Supernova)
			assert.Equal(t, int64(40*SupernovaMultiplier), result.Net(40))
		})
	}
}

func TestDiceVoidScenario(t *testing.T) {
	result := Dice([2]int{3, 4}, entities.DiceHigh, 0, 50)

	assert.Equal(t, int64(0), result.Payout)
	assert.Equal(t, int64(-50), result.Net(50))
	assert.True(t, result.Flags.Void)
}

func TestDiceRanges(t *testing.T) {
	testCases := []struct {
		name     string
		dice     [2]int
		betType  entities.DiceBetType
		expected int64
		void     bool
	}{
		{"low wins on 2", [2]int{1, 1}, entities.DiceLow, 200, false},
		{"low wins on 6", [2]int{2, 4}, entities.DiceLow, 200, false},
		{"low loses on 7", [2]int{1, 6}, entities.DiceLow, 0, true},
		{"low loses on 8", [2]int{4, 4}, entities.DiceLow, 0, false},
		{"high wins on 8", [2]int{5, 3}, entities.DiceHigh, 200, false},
		{"high wins on 11", [2]int{5, 6}, entities.DiceHigh, 200, false},
		{"high loses on 6", [2]int{3, 3}, entities.DiceHigh, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Dice(tc.dice, tc.betType, 0, 100)
			assert.Equal(t, tc.expected, result.Payout)
			assert.Equal(t, tc.void, result.Flags.Void)
			assert.False(t, result.Flags.Supernova)
		})
	}
}

func TestDiceExactMissOnSevenIsNotVoid(t *testing.T) {
	result := Dice([2]int{3, 4}, entities.DiceExact, 8, 100)
	assert.Equal(t, int64(0), result.Payout)
	assert.False(t, result.Flags.Void)
}

func TestDiceExact(t *testing.T) {
	testCases := []struct {
		name     string
		dice     [2]int
		target   int
		expected int64
	}{
		{"snake eyes", [2]int{1, 1}, 2, 3500},
		{"three", [2]int{1, 2}, 3, 1700},
		{"seven", [2]int{3, 4}, 7, 500},
		{"ten", [2]int{4, 6}, 10, 1100},
		{"miss", [2]int{4, 6}, 9, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Dice(tc.dice, entities.DiceExact, tc.target, 100)
			assert.Equal(t, tc.expected, result.Payout)
		})
	}
}

func TestDiceExactMultipliersSymmetric(t *testing.T) {
	for target := 2; target <= 6; target++ {
		assert.Equal(t, ExactMultipliers[target], ExactMultipliers[14-target])
		assert.Greater(t, ExactMultipliers[target], ExactMultipliers[target+1])
	}
}
