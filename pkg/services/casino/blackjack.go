package casino

import (
	"context"
	"fmt"

	"github.com/fadedpez/gamblinghall/internal/types"
	"github.com/fadedpez/gamblinghall/pkg/cards"
	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	walletRepo "github.com/fadedpez/gamblinghall/pkg/repositories/wallet"
	"github.com/fadedpez/gamblinghall/pkg/services/payout"
	"github.com/fadedpez/gamblinghall/pkg/services/wallet"
)

// Deal opens a blackjack hand. A natural settles at once; any other hand is
// returned open with the dealer's hole card face down.
func (s *Service) Deal(ctx context.Context, req entities.BlackjackDealRequest) (*entities.RoundResult, error) {
	return s.play(ctx, entities.GameBlackjack, entities.ActionDeal, req.PlayerID, req.IdempotencyKey,
		func() error { return s.validator.BlackjackDeal(req) },
		s.seeded(req.PlayerID, req.IdempotencyKey, func(seed fairness.Seed) *round {
			return dealRound(seed, req.Bet)
		}))
}

func dealRound(seed fairness.Seed, bet int64) *round {
	dealt := cards.Prefix(seed, 4)
	player := []cards.Card{dealt[cards.PlayerPosition(0)], dealt[cards.PlayerPosition(1)]}
	dealer := []cards.Card{dealt[cards.DealerPosition(0, 2)], dealt[cards.DealerPosition(1, 2)]}

	wager, result := newRound(entities.GameBlackjack, seed, bet)
	wager.Action = entities.ActionDeal
	r := &round{
		debit:       bet,
		description: "blackjack deal",
		wager:       wager,
	}

	if payout.IsBlackjack(player) {
		paid, hand := payout.Blackjack(player, dealer, bet)
		result.Blackjack = handOutcome(entities.ActionDeal, player, dealer, entities.PhaseResolved)
		result.Blackjack.Result = hand
		settleResult(wager, result, paid, bet)
		r.credit = paid.Payout
		return r
	}

	shown := []cards.Card{dealer[0], cards.HiddenCard}
	result.Blackjack = handOutcome(entities.ActionDeal, player, shown, entities.PhaseDealt)
	result.Blackjack.CanDouble = true
	return r
}

// Act plays hit, stand or double on an open hand. The submitted cards and
// seed are checked against the deck and the wager history before anything
// is dealt or paid.
func (s *Service) Act(ctx context.Context, req entities.BlackjackActionRequest) (*entities.RoundResult, error) {
	return s.play(ctx, entities.GameBlackjack, req.Action, req.PlayerID, req.IdempotencyKey,
		func() error { return s.validator.BlackjackAction(req) },
		func() (*round, error) {
			if !cards.Verify(req.Seed, req.PlayerCards, req.DealerCards) {
				return nil, types.NewGameError(types.ErrTamperedGameState, "cards do not match the deck for this seed")
			}
			r, err := actionRound(req)
			if err != nil {
				return nil, err
			}
			r.guard = handGuard(req, r.wager)
			return r, nil
		})
}

// actionRound plays the action against the deck of the hand's own seed
func actionRound(req entities.BlackjackActionRequest) (*round, error) {
	seed := req.Seed
	player := append([]cards.Card(nil), req.PlayerCards...)
	dealer := append([]cards.Card(nil), req.DealerCards...)

	hole, err := cards.CardAt(seed, cards.DealerPosition(cards.HoleCardIndex, len(player)))
	if err != nil {
		return nil, types.WrapError(types.ErrTamperedGameState, "hand is past the end of the deck", err)
	}
	dealer[cards.HoleCardIndex] = hole

	shoe := cards.NewShoe(seed, len(player)+len(dealer))
	stake := req.Bet
	var debit int64
	doubled := false

	action := req.Action
	if action == entities.ActionDouble {
		debit = req.Bet
		stake = 2 * req.Bet
		doubled = true
	}

	// deal draws the next card or fails the action
	deal := func() (cards.Card, error) {
		card, err := shoe.Next()
		if err != nil {
			return cards.Card{}, types.WrapError(types.ErrTamperedGameState, "hand is past the end of the deck", err)
		}
		return card, nil
	}

	var resolved bool
	switch action {
	case entities.ActionHit:
		card, err := deal()
		if err != nil {
			return nil, err
		}
		player = append(player, card)
		resolved = payout.IsBust(player)
	case entities.ActionDouble:
		card, err := deal()
		if err != nil {
			return nil, err
		}
		player = append(player, card)
		resolved = true
	case entities.ActionStand:
		resolved = true
	}

	if resolved && !payout.IsBust(player) {
		for payout.DealerShouldHit(dealer) {
			card, err := deal()
			if err != nil {
				return nil, err
			}
			dealer = append(dealer, card)
		}
	}

	wager, result := newRound(entities.GameBlackjack, seed, stake)
	wager.Action = action
	r := &round{
		debit:       debit,
		description: fmt.Sprintf("blackjack %s", action),
		wager:       wager,
	}

	if !resolved {
		shown := append([]cards.Card(nil), dealer...)
		shown[cards.HoleCardIndex] = cards.HiddenCard
		result.Blackjack = handOutcome(action, player, shown, entities.PhasePlayerTurn)
		return r, nil
	}

	paid, hand := payout.Blackjack(player, dealer, stake)
	result.Blackjack = handOutcome(action, player, dealer, entities.PhaseResolved)
	result.Blackjack.Result = hand
	result.Blackjack.Doubled = doubled
	settleResult(wager, result, paid, stake)
	r.credit = paid.Payout
	return r, nil
}

func handOutcome(action entities.BlackjackAction, player, dealer []cards.Card, phase entities.Phase) *entities.BlackjackOutcome {
	playerTotal, soft := payout.Score(player)
	return &entities.BlackjackOutcome{
		Action:      action,
		PlayerCards: player,
		DealerCards: dealer,
		PlayerTotal: playerTotal,
		PlayerSoft:  soft,
		DealerTotal: payout.GetBestScore(dealer),
		Phase:       phase,
	}
}

// handGuard checks, under the wallet lock, that the hand was dealt by this
// server to this player for this bet, is still open and that the submitted
// cards are its latest state. The action record takes the secret generation
// of the deal that derived the seed.
func handGuard(req entities.BlackjackActionRequest, action *entities.Wager) wallet.Guard {
	return func(ctx context.Context, history walletRepo.History) error {
		wagers, err := history.FindWagersBySeed(ctx, req.Seed.String())
		if err != nil {
			return err
		}

		tampered := func(msg string) error {
			return types.NewGameError(types.ErrTamperedGameState, msg)
		}

		if len(wagers) == 0 {
			return tampered("no hand was dealt with this seed")
		}

		var deal *entities.Wager
		latest := 0
		for _, w := range wagers {
			if w.PlayerID != req.PlayerID || w.Game != entities.GameBlackjack {
				return tampered("hand belongs to another round")
			}
			if w.Resolved {
				return tampered("hand is already settled")
			}
			if w.Action == entities.ActionDeal {
				deal = w
			}
			if w.Result != nil && w.Result.Blackjack != nil && len(w.Result.Blackjack.PlayerCards) > latest {
				latest = len(w.Result.Blackjack.PlayerCards)
			}
		}

		if deal == nil {
			return tampered("no hand was dealt with this seed")
		}
		if deal.Bet != req.Bet {
			return tampered("bet does not match the deal")
		}
		if latest != len(req.PlayerCards) {
			return tampered("cards are not the latest state of the hand")
		}
		action.SecretGeneration = deal.SecretGeneration
		return nil
	}
}
