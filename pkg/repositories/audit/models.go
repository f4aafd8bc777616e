package audit

import (
	"time"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

// WagerDocument is a wager as stored in Elasticsearch
type WagerDocument struct {
	PlayerID         string                `json:"player_id"`
	IdempotencyKey   string                `json:"idempotency_key"`
	Game             string                `json:"game"`
	Seed             string                `json:"seed"`
	Action           string                `json:"action,omitempty"`
	Bet              int64                 `json:"bet"`
	Debit            int64                 `json:"debit"`
	Credit           int64                 `json:"credit"`
	Net              int64                 `json:"net"`
	Resolved         bool                  `json:"resolved"`
	Flags            entities.Flags        `json:"flags"`
	SecretGeneration int                   `json:"secret_generation"`
	BalanceAfter     int64                 `json:"balance_after"`
	Result           *entities.RoundResult `json:"result,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

func newWagerDocument(w *entities.Wager) *WagerDocument {
	doc := &WagerDocument{
		PlayerID:         w.PlayerID,
		IdempotencyKey:   w.IdempotencyKey,
		Game:             string(w.Game),
		Seed:             w.Seed,
		Action:           string(w.Action),
		Bet:              w.Bet,
		Debit:            w.Debit,
		Credit:           w.Credit,
		Net:              w.Net,
		Resolved:         w.Resolved,
		SecretGeneration: w.SecretGeneration,
		BalanceAfter:     w.BalanceAfter,
		Result:           w.Result,
		CreatedAt:        w.CreatedAt.UTC(),
	}
	if w.Result != nil {
		doc.Flags = w.Result.Flags
	}
	return doc
}

// wagerMapping keeps the round result searchable only through the
// top-level fields
const wagerMapping = `{
	"mappings": {
		"properties": {
			"player_id": { "type": "keyword" },
			"idempotency_key": { "type": "keyword" },
			"game": { "type": "keyword" },
			"seed": { "type": "keyword" },
			"action": { "type": "keyword" },
			"bet": { "type": "long" },
			"debit": { "type": "long" },
			"credit": { "type": "long" },
			"net": { "type": "long" },
			"resolved": { "type": "boolean" },
			"flags": {
				"properties": {
					"jackpot": { "type": "boolean" },
					"supernova": { "type": "boolean" },
					"void": { "type": "boolean" },
					"bust": { "type": "boolean" },
					"blackjack": { "type": "boolean" },
					"push": { "type": "boolean" }
				}
			},
			"secret_generation": { "type": "integer" },
			"balance_after": { "type": "long" },
			"result": { "type": "object", "enabled": false },
			"created_at": { "type": "date" }
		}
	}
}`
