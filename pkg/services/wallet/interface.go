package wallet

import (
	"context"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_wallet_service
type Ledger interface {
	GetOrCreateWallet(ctx context.Context, userID string, opening int64) (*entities.Wallet, bool, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	DebitThenCredit(ctx context.Context, entry *Entry) (*Settlement, error)
	FindWager(ctx context.Context, playerID, key string) (*entities.Wager, error)
}
