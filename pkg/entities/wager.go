package entities

import (
	"time"

	"github.com/fadedpez/gamblinghall/pkg/cards"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
)

// Game identifies a casino game
type Game string

const (
	GameSlots     Game = "slots"
	GameDice      Game = "dice"
	GameBlackjack Game = "blackjack"
	GameLottery   Game = "lottery"
)

// Games lists every supported game
var Games = []Game{GameSlots, GameDice, GameBlackjack, GameLottery}

// Symbol is a slot reel symbol
type Symbol string

const (
	SymbolPlanet    Symbol = "planet"
	SymbolStar      Symbol = "star"
	SymbolShip      Symbol = "ship"
	SymbolCredits   Symbol = "credits"
	SymbolBlackhole Symbol = "blackhole" // the void symbol
	SymbolJackpot   Symbol = "jackpot"
)

// Symbols is the reel strip; every reel draws uniformly from it
var Symbols = []Symbol{SymbolPlanet, SymbolStar, SymbolShip, SymbolCredits, SymbolBlackhole, SymbolJackpot}

// DiceBetType is the kind of dice wager
type DiceBetType string

const (
	DiceLow   DiceBetType = "low"
	DiceHigh  DiceBetType = "high"
	DiceExact DiceBetType = "exact"
)

// BlackjackAction is a player decision on an open hand
type BlackjackAction string

const (
	ActionDeal   BlackjackAction = "deal"
	ActionHit    BlackjackAction = "hit"
	ActionStand  BlackjackAction = "stand"
	ActionDouble BlackjackAction = "double"
)

// Phase is the blackjack hand state
type Phase string

const (
	PhaseDealt      Phase = "DEALT"
	PhasePlayerTurn Phase = "PLAYER_TURN"
	PhaseDealerTurn Phase = "DEALER_TURN"
	PhaseResolved   Phase = "RESOLVED"
)

// HandResult is the settled outcome of a blackjack hand
type HandResult string

const (
	HandWin       HandResult = "WIN"
	HandLose      HandResult = "LOSE"
	HandPush      HandResult = "PUSH"
	HandBlackjack HandResult = "BLACKJACK"
	HandBust      HandResult = "BUST"
)

// Flags marks the special cases of a round
type Flags struct {
	Jackpot   bool `json:"jackpot"`
	Supernova bool `json:"supernova"`
	Void      bool `json:"void"`
	Bust      bool `json:"bust"`
	Blackjack bool `json:"blackjack"`
	Push      bool `json:"push"`
}

// SlotsOutcome holds the three reels
type SlotsOutcome struct {
	Reels [3]Symbol `json:"reels"`
}

// DiceOutcome holds the two dice and the wager they settled
type DiceOutcome struct {
	Dice    [2]int      `json:"dice"`
	Total   int         `json:"total"`
	BetType DiceBetType `json:"bet_type"`
	Target  int         `json:"target,omitempty"`
}

// LotteryOutcome holds the ticket and the draw
type LotteryOutcome struct {
	Picks   []int `json:"picks"`
	Winning []int `json:"winning"`
	Matches int   `json:"matches"`
}

// BlackjackOutcome is the visible hand state. The client sends the cards
// and seed back on every action.
type BlackjackOutcome struct {
	Action      BlackjackAction `json:"action"`
	PlayerCards []cards.Card    `json:"player_cards"`
	DealerCards []cards.Card    `json:"dealer_cards"`
	PlayerTotal int             `json:"player_total"`
	PlayerSoft  bool            `json:"player_soft"`
	DealerTotal int             `json:"dealer_total"` // visible cards only until resolved
	Phase       Phase           `json:"phase"`
	Result      HandResult      `json:"result,omitempty"`
	Doubled     bool            `json:"doubled"`
	CanDouble   bool            `json:"can_double"`
}

// RoundResult is everything a client needs to display, resume and audit a
// round. It is built once and never modified.
type RoundResult struct {
	Game           Game          `json:"game"`
	PlayerID       string        `json:"player_id"`
	IdempotencyKey string        `json:"idempotency_key"`
	Seed           fairness.Seed `json:"seed"`

	Bet        int64  `json:"bet"`    // total stake on the round
	Debit      int64  `json:"debit"`  // taken by this request
	Credit     int64  `json:"credit"` // paid by this request
	Payout     int64  `json:"payout"` // gross payout, zero until resolved
	Net        int64  `json:"net"`    // payout minus bet, zero until resolved
	Multiplier string `json:"multiplier"`
	Resolved   bool   `json:"resolved"`
	NewBalance int64  `json:"new_balance"`
	Flags      Flags  `json:"flags"`

	Slots     *SlotsOutcome     `json:"slots,omitempty"`
	Dice      *DiceOutcome      `json:"dice,omitempty"`
	Lottery   *LotteryOutcome   `json:"lottery,omitempty"`
	Blackjack *BlackjackOutcome `json:"blackjack,omitempty"`

	SettledAt time.Time `json:"settled_at"`
}

// Wager is one append-only history record. Blackjack hands write one per
// request, all sharing the deal's seed.
type Wager struct {
	IdempotencyKey   string
	PlayerID         string
	Game             Game
	Seed             string
	Action           BlackjackAction // empty for one-shot games
	Bet              int64
	Debit            int64
	Credit           int64
	Net              int64
	Resolved         bool
	SecretGeneration int
	BalanceAfter     int64
	Result           *RoundResult
	CreatedAt        time.Time
}

// Names lists the set flags in a fixed order
func (f Flags) Names() []string {
	var names []string
	if f.Jackpot {
		names = append(names, "jackpot")
	}
	if f.Supernova {
		names = append(names, "supernova")
	}
	if f.Void {
		names = append(names, "void")
	}
	if f.Bust {
		names = append(names, "bust")
	}
	if f.Blackjack {
		names = append(names, "blackjack")
	}
	if f.Push {
		names = append(names, "push")
	}
	return names
}
