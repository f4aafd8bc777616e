package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWagerNotFound  = errors.New("wager not found")
	// ErrLockTimeout is returned when the wallet row could not be locked in time
	ErrLockTimeout = errors.New("wallet lock timeout")
)

// Repository defines the interface for wallet data operations
type Repository interface {
	// GetWallet retrieves a wallet by user ID
	GetWallet(ctx context.Context, userID string) (*entities.Wallet, error)

	// CreateWallet inserts a wallet unless one exists. It reports whether
	// the wallet was created.
	CreateWallet(ctx context.Context, wallet *entities.Wallet) (bool, error)

	// GetTransactions retrieves recent transactions for a user, newest first
	GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error)

	// GetTransactionsByType retrieves transactions of a specific type, newest first
	GetTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error)

	// GetWager retrieves a settled wager by its idempotency key
	GetWager(ctx context.Context, playerID, key string) (*entities.Wager, error)

	// GetPlayerWagers retrieves recent wagers for a player, newest first
	GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*entities.Wager, error)

	// InTx runs fn in one atomic transaction. Nothing fn writes is visible
	// unless fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Close() error
}

// History is the read side of the wager log
type History interface {
	GetWager(ctx context.Context, playerID, key string) (*entities.Wager, error)

	// FindWagersBySeed returns every wager written for a seed, oldest first
	FindWagersBySeed(ctx context.Context, seed string) ([]*entities.Wager, error)
}

// Tx is a unit of work against the ledger
type Tx interface {
	History

	// LockWallet reads a wallet and holds it exclusively until the
	// transaction ends
	LockWallet(ctx context.Context, userID string) (*entities.Wallet, error)

	// SetBalance writes the new balance of a locked wallet
	SetBalance(ctx context.Context, userID string, balance int64, at time.Time) error

	// AddTransaction records a journal line
	AddTransaction(ctx context.Context, transaction *entities.Transaction) error

	// AddWager appends a wager to the history
	AddWager(ctx context.Context, wager *entities.Wager) error
}
