package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/fadedpez/gamblinghall/internal/logging"
	"github.com/fadedpez/gamblinghall/internal/types"
	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/locks"
	walletRepo "github.com/fadedpez/gamblinghall/pkg/repositories/wallet"
)

// Guard runs inside the settlement transaction, after the idempotency check
// and before any balance change. Returning an error aborts the wager.
type Guard func(ctx context.Context, history walletRepo.History) error

// Entry is one wager to settle
type Entry struct {
	PlayerID       string
	IdempotencyKey string
	Debit          int64 // taken first, must be covered by the balance
	Credit         int64 // paid after the debit
	Description    string

	// Wager is the history record to append. Player, key, balance and
	// timestamps are filled in at settlement.
	Wager *entities.Wager
	Guard Guard
}

// Settlement is the result of DebitThenCredit
type Settlement struct {
	Wager    *entities.Wager
	Balance  int64
	Replayed bool // the key had already been settled and nothing changed
}

// Service handles wallet business logic
type Service struct {
	repo   walletRepo.Repository
	locker locks.Locker
	logger *logging.Logger
	now    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLocker replaces the in-process player lock
func WithLocker(locker locks.Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLogger sets the service logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the settlement clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new wallet service
func NewService(repo walletRepo.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		locker: locks.NewMemoryLocker(2 * time.Second),
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreateWallet retrieves a wallet or opens one with the given balance
func (s *Service) GetOrCreateWallet(ctx context.Context, userID string, opening int64) (*entities.Wallet, bool, error) {
	wallet, err := s.repo.GetWallet(ctx, userID)
	if err == nil {
		return wallet, false, nil
	}
	if !errors.Is(err, walletRepo.ErrWalletNotFound) {
		return nil, false, types.WrapError(types.ErrDatabaseError, "failed to load wallet", err)
	}
	if opening < 0 {
		return nil, false, types.Errorf(types.ErrInvalidBetParameters, "opening balance cannot be negative")
	}

	created, err := s.repo.CreateWallet(ctx, &entities.Wallet{
		UserID:      userID,
		Balance:     opening,
		LastUpdated: s.now(),
	})
	if err != nil {
		return nil, false, types.WrapError(types.ErrDatabaseError, "failed to create wallet", err)
	}
	if created {
		s.logger.Info("opened wallet for %s with balance %d", userID, opening)
	}

	// Another request may have won the insert
	wallet, err = s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, false, types.WrapError(types.ErrDatabaseError, "failed to load wallet", err)
	}
	return wallet, created, nil
}

// GetBalance returns the current balance for a user
func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	wallet, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, walletRepo.ErrWalletNotFound) {
			return 0, types.Errorf(types.ErrWalletNotFound, "no wallet for player %s", userID)
		}
		return 0, types.WrapError(types.ErrDatabaseError, "failed to load wallet", err)
	}
	return wallet.Balance, nil
}

// GetRecentTransactions retrieves recent journal lines for a user
func (s *Service) GetRecentTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	return s.repo.GetTransactions(ctx, userID, limit)
}

// GetRecentTransactionsByType retrieves recent journal lines of one type
func (s *Service) GetRecentTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	switch transactionType {
	case entities.TransactionTypeBet, entities.TransactionTypePayout:
	default:
		return nil, types.Errorf(types.ErrInvalidBetParameters, "unknown transaction type %q", transactionType)
	}
	return s.repo.GetTransactionsByType(ctx, userID, transactionType, limit)
}

// FindWager returns a settled wager by key
func (s *Service) FindWager(ctx context.Context, playerID, key string) (*entities.Wager, error) {
	wager, err := s.repo.GetWager(ctx, playerID, key)
	if err != nil {
		if errors.Is(err, walletRepo.ErrWagerNotFound) {
			return nil, types.Errorf(types.ErrWagerNotFound, "no wager with key %q", key)
		}
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load wager", err)
	}
	return wager, nil
}

// GetPlayerWagers returns a player's recent wagers, newest first
func (s *Service) GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*entities.Wager, error) {
	return s.repo.GetPlayerWagers(ctx, playerID, limit)
}

// DebitThenCredit settles a wager atomically: the debit, the credit, the
// journal lines and the history record commit together or not at all. A key
// that was already settled returns the stored wager unchanged.
func (s *Service) DebitThenCredit(ctx context.Context, entry *Entry) (*Settlement, error) {
	if entry.Debit < 0 || entry.Credit < 0 {
		return nil, types.Errorf(types.ErrInvalidBetParameters, "debit and credit cannot be negative")
	}
	if entry.Wager == nil {
		return nil, types.NewGameError(types.ErrInternalError, "settlement has no wager record")
	}

	release, err := s.locker.Acquire(ctx, entry.PlayerID)
	if err != nil {
		s.logger.Warn("player %s is busy: %v", entry.PlayerID, err)
		return nil, types.WrapError(types.ErrConcurrentWagerConflict, "another wager for this player is in progress", err)
	}
	defer release()

	var settlement *Settlement
	err = s.repo.InTx(ctx, func(ctx context.Context, tx walletRepo.Tx) error {
		var err error
		settlement, err = s.settle(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	if settlement.Replayed {
		s.logger.Debug("replayed wager %s for %s", entry.IdempotencyKey, entry.PlayerID)
	} else {
		s.logger.Info("settled wager %s for %s: debit=%d credit=%d balance=%d",
			entry.IdempotencyKey, entry.PlayerID, entry.Debit, entry.Credit, settlement.Balance)
	}
	return settlement, nil
}

func (s *Service) settle(ctx context.Context, tx walletRepo.Tx, entry *Entry) (*Settlement, error) {
	wallet, err := tx.LockWallet(ctx, entry.PlayerID)
	if err != nil {
		if errors.Is(err, walletRepo.ErrWalletNotFound) {
			return nil, types.Errorf(types.ErrInsufficientFunds, "no wallet for player %s", entry.PlayerID)
		}
		return nil, err
	}

	existing, err := tx.GetWager(ctx, entry.PlayerID, entry.IdempotencyKey)
	if err == nil {
		return &Settlement{Wager: existing, Balance: existing.BalanceAfter, Replayed: true}, nil
	}
	if !errors.Is(err, walletRepo.ErrWagerNotFound) {
		return nil, err
	}

	if entry.Guard != nil {
		if err := entry.Guard(ctx, tx); err != nil {
			return nil, err
		}
	}

	if wallet.Balance < entry.Debit {
		return nil, types.Errorf(types.ErrInsufficientFunds, "balance %d does not cover bet %d", wallet.Balance, entry.Debit)
	}

	now := s.now()
	balance := wallet.Balance - entry.Debit
	if entry.Debit > 0 {
		if err := tx.AddTransaction(ctx, &entities.Transaction{
			UserID:       entry.PlayerID,
			Amount:       -entry.Debit,
			Type:         entities.TransactionTypeBet,
			ReferenceID:  entry.IdempotencyKey,
			Description:  entry.Description,
			Timestamp:    now,
			BalanceAfter: balance,
		}); err != nil {
			return nil, err
		}
	}

	balance += entry.Credit
	if entry.Credit > 0 {
		if err := tx.AddTransaction(ctx, &entities.Transaction{
			UserID:       entry.PlayerID,
			Amount:       entry.Credit,
			Type:         entities.TransactionTypePayout,
			ReferenceID:  entry.IdempotencyKey,
			Description:  entry.Description,
			Timestamp:    now,
			BalanceAfter: balance,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.SetBalance(ctx, entry.PlayerID, balance, now); err != nil {
		return nil, err
	}

	wager := *entry.Wager
	wager.PlayerID = entry.PlayerID
	wager.IdempotencyKey = entry.IdempotencyKey
	wager.Debit = entry.Debit
	wager.Credit = entry.Credit
	wager.BalanceAfter = balance
	wager.CreatedAt = now
	if wager.Result != nil {
		result := *wager.Result
		result.PlayerID = entry.PlayerID
		result.IdempotencyKey = entry.IdempotencyKey
		result.Debit = entry.Debit
		result.Credit = entry.Credit
		result.NewBalance = balance
		result.SettledAt = now
		wager.Result = &result
	}

	if err := tx.AddWager(ctx, &wager); err != nil {
		return nil, err
	}

	return &Settlement{Wager: &wager, Balance: balance}, nil
}

func (s *Service) mapError(err error) error {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		return err
	}
	if errors.Is(err, walletRepo.ErrLockTimeout) || errors.Is(err, locks.ErrTimeout) {
		return types.WrapError(types.ErrConcurrentWagerConflict, "wallet is locked by another wager", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.WrapError(types.ErrConcurrentWagerConflict, "settlement did not finish in time", err)
	}
	s.logger.Error("settlement failed: %v", err)
	return types.WrapError(types.ErrDatabaseError, "failed to settle wager", err)
}
