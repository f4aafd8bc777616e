package statistics

import (
	"context"
	"time"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

// DefaultHistoryLimit is how many recent wagers a summary reads
const DefaultHistoryLimit = 1000

// WagerHistory reads a player's wager records
type WagerHistory interface {
	GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*entities.Wager, error)
}

// Service provides methods for retrieving and processing player statistics
type Service struct {
	history WagerHistory
	limit   int
}

// NewService creates a new statistics service
func NewService(history WagerHistory) *Service {
	return &Service{
		history: history,
		limit:   DefaultHistoryLimit,
	}
}

// PlayerSummary is a player's statistics per game plus the overall totals
type PlayerSummary struct {
	PlayerID  string                      `json:"player_id"`
	Games     map[entities.Game]*GameRank `json:"games"`
	Overall   *GameRank                   `json:"overall"`
	Generated time.Time                   `json:"generated"`
}

// GameRank is one game's statistics with derived rates
type GameRank struct {
	*entities.PlayerStatistics
	WinRate    float64 `json:"win_rate"`
	NetProfit  int64   `json:"net_profit"`
	ReturnRate float64 `json:"return_rate"`
}

func newRank(stats *entities.PlayerStatistics) *GameRank {
	rank := &GameRank{
		PlayerStatistics: stats,
		WinRate:          stats.WinRate(),
		NetProfit:        stats.NetProfit(),
	}
	if stats.TotalBet > 0 {
		rank.ReturnRate = float64(stats.TotalPaid) / float64(stats.TotalBet)
	}
	return rank
}

// GetPlayerSummary aggregates the player's recent settled rounds. Open
// blackjack hands are not counted until they resolve.
func (s *Service) GetPlayerSummary(ctx context.Context, playerID string) (*PlayerSummary, error) {
	wagers, err := s.history.GetPlayerWagers(ctx, playerID, s.limit)
	if err != nil {
		return nil, err
	}

	overall := &entities.PlayerStatistics{PlayerID: playerID}
	perGame := make(map[entities.Game]*entities.PlayerStatistics)
	for _, w := range wagers {
		if !w.Resolved || w.Result == nil {
			continue
		}
		stats, ok := perGame[w.Game]
		if !ok {
			stats = &entities.PlayerStatistics{PlayerID: playerID, Game: w.Game}
			perGame[w.Game] = stats
		}
		record(stats, w)
		record(overall, w)
	}

	summary := &PlayerSummary{
		PlayerID:  playerID,
		Games:     make(map[entities.Game]*GameRank, len(perGame)),
		Overall:   newRank(overall),
		Generated: time.Now().UTC(),
	}
	for game, stats := range perGame {
		summary.Games[game] = newRank(stats)
	}
	return summary, nil
}

// record adds one settled round to the statistics
func record(stats *entities.PlayerStatistics, w *entities.Wager) {
	result := w.Result

	stats.RoundsPlayed++
	stats.TotalBet += result.Bet
	stats.TotalPaid += result.Payout
	switch {
	case result.Net > 0:
		stats.Wins++
	case result.Net == 0:
		stats.Pushes++
	default:
		stats.Losses++
	}

	flags := result.Flags
	if flags.Blackjack {
		stats.Blackjacks++
	}
	if flags.Bust {
		stats.Busts++
	}
	if flags.Jackpot {
		stats.Jackpots++
	}
	if flags.Supernova {
		stats.Supernovas++
	}
	if flags.Void {
		stats.Voids++
	}
	if result.Blackjack != nil && result.Blackjack.Doubled {
		stats.DoubleDowns++
	}

	if w.CreatedAt.After(stats.LastPlayed) {
		stats.LastPlayed = w.CreatedAt
	}
}
