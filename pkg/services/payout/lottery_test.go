package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLotteryScenario(t *testing.T) {
	result, matches := Lottery([]int{1, 2, 3, 4}, []int{1, 2, 5, 9}, 100)

	assert.Equal(t, 2, matches)
	assert.Equal(t, int64(500), result.Payout)
	assert.Equal(t, int64(400), result.Net(100))
	assert.False(t, result.Flags.Jackpot)
}

func TestLotteryMultipliers(t *testing.T) {
	winning := []int{3, 6, 9, 12}
	testCases := []struct {
		picks    []int
		matches  int
		expected int64
		jackpot  bool
	}{
		{[]int{1, 2, 4, 5}, 0, 0, false},
		{[]int{3, 2, 4, 5}, 1, 100, false},
		{[]int{3, 6, 4, 5}, 2, 500, false},
		{[]int{3, 6, 9, 5}, 3, 5000, false},
		{[]int{12, 9, 6, 3}, 4, 100000, true},
	}

	for _, tc := range testCases {
		result, matches := Lottery(tc.picks, winning, 100)
		assert.Equal(t, tc.matches, matches)
		assert.Equal(t, tc.expected, result.Payout)
		assert.Equal(t, tc.jackpot, result.Flags.Jackpot)
	}
}

func TestMatchesIgnoresDuplicatePicks(t *testing.T) {
	assert.Equal(t, 1, Matches([]int{5, 5, 5, 5}, []int{5, 6, 7, 8}))
}
