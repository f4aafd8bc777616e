package entities

import "time"

// PlayerStatistics aggregates a player's settled rounds of one game
type PlayerStatistics struct {
	PlayerID     string    `json:"player_id"`
	Game         Game      `json:"game"`
	RoundsPlayed int       `json:"rounds_played"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Pushes       int       `json:"pushes"`
	Blackjacks   int       `json:"blackjacks"`
	Busts        int       `json:"busts"`
	DoubleDowns  int       `json:"double_downs"`
	Jackpots     int       `json:"jackpots"`
	Supernovas   int       `json:"supernovas"`
	Voids        int       `json:"voids"`
	TotalBet     int64     `json:"total_bet"`
	TotalPaid    int64     `json:"total_paid"`
	LastPlayed   time.Time `json:"last_played"`
}

// NetProfit calculates the player's net profit
func (s *PlayerStatistics) NetProfit() int64 {
	return s.TotalPaid - s.TotalBet
}

// WinRate calculates the player's win rate as a percentage
func (s *PlayerStatistics) WinRate() float64 {
	if s.RoundsPlayed == 0 {
		return 0.0
	}
	return float64(s.Wins) / float64(s.RoundsPlayed) * 100.0
}
