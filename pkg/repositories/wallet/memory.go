package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	wallets      map[string]*entities.Wallet
	transactions map[string][]*entities.Transaction
	wagers       []*entities.Wager
	wagerIndex   map[string]int
	mu           sync.RWMutex
	txMu         sync.Mutex
}

// NewMemoryRepository creates a new in-memory wallet repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		wallets:      make(map[string]*entities.Wallet),
		transactions: make(map[string][]*entities.Transaction),
		wagerIndex:   make(map[string]int),
	}
}

func wagerKey(playerID, key string) string {
	return playerID + "\x00" + key
}

// GetWallet retrieves a wallet by user ID
func (r *MemoryRepository) GetWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallet, exists := r.wallets[userID]
	if !exists {
		return nil, ErrWalletNotFound
	}

	// Return a copy to prevent concurrent modification
	walletCopy := *wallet
	return &walletCopy, nil
}

// CreateWallet inserts a wallet unless one exists
func (r *MemoryRepository) CreateWallet(ctx context.Context, wallet *entities.Wallet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.wallets[wallet.UserID]; exists {
		return false, nil
	}
	walletCopy := *wallet
	if walletCopy.LastUpdated.IsZero() {
		walletCopy.LastUpdated = time.Now().UTC()
	}
	r.wallets[wallet.UserID] = &walletCopy
	return true, nil
}

// GetTransactions retrieves recent transactions for a user
func (r *MemoryRepository) GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	return r.filterTransactions(userID, limit, func(*entities.Transaction) bool { return true }), nil
}

// GetTransactionsByType retrieves transactions of a specific type
func (r *MemoryRepository) GetTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	return r.filterTransactions(userID, limit, func(tx *entities.Transaction) bool {
		return tx.Type == transactionType
	}), nil
}

func (r *MemoryRepository) filterTransactions(userID string, limit int, keep func(*entities.Transaction) bool) []*entities.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transactions := r.transactions[userID]
	result := make([]*entities.Transaction, 0)
	for i := len(transactions) - 1; i >= 0 && len(result) < limit; i-- {
		if keep(transactions[i]) {
			txCopy := *transactions[i]
			result = append(result, &txCopy)
		}
	}
	return result
}

// GetWager retrieves a wager by idempotency key
func (r *MemoryRepository) GetWager(ctx context.Context, playerID, key string) (*entities.Wager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.wagerIndex[wagerKey(playerID, key)]
	if !ok {
		return nil, ErrWagerNotFound
	}
	wagerCopy := *r.wagers[i]
	return &wagerCopy, nil
}

// GetPlayerWagers retrieves recent wagers for a player
func (r *MemoryRepository) GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*entities.Wager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Wager, 0)
	for i := len(r.wagers) - 1; i >= 0 && len(result) < limit; i-- {
		if r.wagers[i].PlayerID == playerID {
			wagerCopy := *r.wagers[i]
			result = append(result, &wagerCopy)
		}
	}
	return result, nil
}

// FindWagersBySeed returns the wagers written for a seed, oldest first
func (r *MemoryRepository) FindWagersBySeed(ctx context.Context, seed string) ([]*entities.Wager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Wager, 0)
	for _, w := range r.wagers {
		if w.Seed == seed {
			wagerCopy := *w
			result = append(result, &wagerCopy)
		}
	}
	return result, nil
}

// InTx runs fn with writes buffered until it succeeds. Transactions are
// serialized.
func (r *MemoryRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memoryTx{
		repo:     r,
		balances: make(map[string]*entities.Wallet),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Close is a no-op for the memory store
func (r *MemoryRepository) Close() error {
	return nil
}

type memoryTx struct {
	repo         *MemoryRepository
	balances     map[string]*entities.Wallet
	transactions []*entities.Transaction
	wagers       []*entities.Wager
}

func (t *memoryTx) LockWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	if w, ok := t.balances[userID]; ok {
		walletCopy := *w
		return &walletCopy, nil
	}
	return t.repo.GetWallet(ctx, userID)
}

func (t *memoryTx) SetBalance(ctx context.Context, userID string, balance int64, at time.Time) error {
	w, err := t.LockWallet(ctx, userID)
	if err != nil {
		return err
	}
	if balance < 0 {
		return fmt.Errorf("balance for %s would be negative", userID)
	}
	w.Balance = balance
	w.LastUpdated = at
	t.balances[userID] = w
	return nil
}

func (t *memoryTx) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	// Generate a UUID if not provided
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now().UTC()
	}
	txCopy := *transaction
	t.transactions = append(t.transactions, &txCopy)
	return nil
}

func (t *memoryTx) GetWager(ctx context.Context, playerID, key string) (*entities.Wager, error) {
	for _, w := range t.wagers {
		if w.PlayerID == playerID && w.IdempotencyKey == key {
			wagerCopy := *w
			return &wagerCopy, nil
		}
	}
	return t.repo.GetWager(ctx, playerID, key)
}

func (t *memoryTx) FindWagersBySeed(ctx context.Context, seed string) ([]*entities.Wager, error) {
	result, err := t.repo.FindWagersBySeed(ctx, seed)
	if err != nil {
		return nil, err
	}
	for _, w := range t.wagers {
		if w.Seed == seed {
			wagerCopy := *w
			result = append(result, &wagerCopy)
		}
	}
	return result, nil
}

func (t *memoryTx) AddWager(ctx context.Context, wager *entities.Wager) error {
	if _, err := t.GetWager(ctx, wager.PlayerID, wager.IdempotencyKey); err == nil {
		return fmt.Errorf("wager %s already recorded", wager.IdempotencyKey)
	}
	wagerCopy := *wager
	t.wagers = append(t.wagers, &wagerCopy)
	return nil
}

func (t *memoryTx) commit() {
	r := t.repo
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, w := range t.balances {
		r.wallets[id] = w
	}
	for _, tx := range t.transactions {
		r.transactions[tx.UserID] = append(r.transactions[tx.UserID], tx)
	}
	for _, w := range t.wagers {
		r.wagerIndex[wagerKey(w.PlayerID, w.IdempotencyKey)] = len(r.wagers)
		r.wagers = append(r.wagers, w)
	}
}
