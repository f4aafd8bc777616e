package payout

import (
	"strconv"

	"github.com/fadedpez/gamblinghall/pkg/cards"
	"github.com/fadedpez/gamblinghall/pkg/entities"
)

const (
	BlackjackTotal = 21
	DealerStandsOn = 17
)

var (
	// WinMultiplier returns the stake plus an equal amount
	WinMultiplier = Times(2)
	// NaturalMultiplier returns the stake plus 3:2
	NaturalMultiplier = Multiplier{Num: 5, Den: 2}
	// PushMultiplier returns the stake
	PushMultiplier = Times(1)
)

// GetCardValue returns the value of a card with aces high
func GetCardValue(card cards.Card) int {
	switch card.Rank {
	case cards.Ace:
		return 11
	case cards.Jack, cards.Queen, cards.King:
		return 10
	default:
		val, _ := strconv.Atoi(string(card.Rank))
		return val
	}
}

// IsAce reports whether the card is an ace
func IsAce(card cards.Card) bool {
	return card.Rank == cards.Ace
}

// Score returns the best total for a hand and whether an ace is still
// counted as 11. Hidden cards are skipped.
func Score(hand []cards.Card) (total int, soft bool) {
	aces := 0
	for _, card := range hand {
		if card.Hidden {
			continue
		}
		total += GetCardValue(card)
		if IsAce(card) {
			aces++
		}
	}

	for total > BlackjackTotal && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// GetBestScore returns the best total for a hand
func GetBestScore(hand []cards.Card) int {
	total, _ := Score(hand)
	return total
}

// IsBlackjack reports a two-card 21
func IsBlackjack(hand []cards.Card) bool {
	if len(hand) != 2 || hand[0].Hidden || hand[1].Hidden {
		return false
	}
	return GetBestScore(hand) == BlackjackTotal
}

// IsBust checks if a hand exceeds 21
func IsBust(hand []cards.Card) bool {
	return GetBestScore(hand) > BlackjackTotal
}

// DealerShouldHit reports whether the dealer draws another card
func DealerShouldHit(hand []cards.Card) bool {
	return GetBestScore(hand) < DealerStandsOn
}

// CompareHands compares a player hand against the dealer's and returns:
// 1 if the player wins
// -1 if the dealer wins
// 0 if push (tie)
func CompareHands(player, dealer []cards.Card) int {
	// A busted player loses even if the dealer also busts
	if IsBust(player) {
		return -1
	}

	// Handle blackjacks
	bj1 := IsBlackjack(player)
	bj2 := IsBlackjack(dealer)
	if bj1 && !bj2 {
		return 1
	} else if !bj1 && bj2 {
		return -1
	} else if bj1 && bj2 {
		return 0
	}

	if IsBust(dealer) {
		return 1
	}

	// Compare scores
	score1 := GetBestScore(player)
	score2 := GetBestScore(dealer)
	if score1 > score2 {
		return 1
	} else if score1 < score2 {
		return -1
	}
	return 0
}

// Blackjack settles a finished hand. The stake includes any double.
func Blackjack(player, dealer []cards.Card, stake int64) (Result, entities.HandResult) {
	if IsBust(player) {
		return Result{Multiplier: Zero, Flags: entities.Flags{Bust: true}}, entities.HandBust
	}

	switch CompareHands(player, dealer) {
	case 1:
		if IsBlackjack(player) {
			return Result{
				Payout:     NaturalMultiplier.Apply(stake),
				Multiplier: NaturalMultiplier,
				Flags:      entities.Flags{Blackjack: true},
			}, entities.HandBlackjack
		}
		return Result{Payout: WinMultiplier.Apply(stake), Multiplier: WinMultiplier}, entities.HandWin
	case 0:
		return Result{
			Payout:     PushMultiplier.Apply(stake),
			Multiplier: PushMultiplier,
			Flags:      entities.Flags{Push: true},
		}, entities.HandPush
	default:
		return Result{Multiplier: Zero}, entities.HandLose
	}
}
