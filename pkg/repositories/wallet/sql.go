package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Postgres error codes treated as lock contention
var pqContentionCodes = map[pq.ErrorCode]bool{
	"55P03": true, // lock_not_available
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// Open connects to the ledger database. SQLite connections begin every
// transaction with BEGIN IMMEDIATE and wait up to lockTimeout for the write
// lock.
func Open(driver, dsn string, lockTimeout time.Duration) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("error creating database directory: %w", err)
			}
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn = fmt.Sprintf("%s%s_txlock=immediate&_busy_timeout=%d&_foreign_keys=on", dsn, sep, lockTimeout.Milliseconds())
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return db, nil
}

// SQLRepository implements Repository on SQLite or Postgres
type SQLRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewSQLRepository wraps an open database. The schema must already exist.
func NewSQLRepository(db *sqlx.DB, lockTimeout time.Duration) *SQLRepository {
	return &SQLRepository{db: db, lockTimeout: lockTimeout}
}

// DB returns the underlying connection pool
func (r *SQLRepository) DB() *sqlx.DB {
	return r.db
}

func (r *SQLRepository) isPostgres() bool {
	return r.db.DriverName() == DriverPostgres
}

type walletRow struct {
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (w walletRow) entity() *entities.Wallet {
	return &entities.Wallet{UserID: w.UserID, Balance: w.Balance, LastUpdated: w.UpdatedAt}
}

type transactionRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Amount       int64     `db:"amount"`
	Type         string    `db:"type"`
	ReferenceID  string    `db:"reference_id"`
	Description  string    `db:"description"`
	Timestamp    time.Time `db:"timestamp"`
	BalanceAfter int64     `db:"balance_after"`
}

func (t transactionRow) entity() *entities.Transaction {
	return &entities.Transaction{
		ID:           t.ID,
		UserID:       t.UserID,
		Amount:       t.Amount,
		Type:         entities.TransactionType(t.Type),
		ReferenceID:  t.ReferenceID,
		Description:  t.Description,
		Timestamp:    t.Timestamp,
		BalanceAfter: t.BalanceAfter,
	}
}

type wagerRow struct {
	IdempotencyKey   string    `db:"idempotency_key"`
	PlayerID         string    `db:"player_id"`
	Game             string    `db:"game"`
	Seed             string    `db:"seed"`
	Action           string    `db:"action"`
	Bet              int64     `db:"bet"`
	Debit            int64     `db:"debit"`
	Credit           int64     `db:"credit"`
	Net              int64     `db:"net"`
	Resolved         bool      `db:"resolved"`
	SecretGeneration int       `db:"secret_generation"`
	BalanceAfter     int64     `db:"balance_after"`
	Result           string    `db:"result"`
	CreatedAt        time.Time `db:"created_at"`
}

func newWagerRow(w *entities.Wager) (*wagerRow, error) {
	result, err := json.Marshal(w.Result)
	if err != nil {
		return nil, fmt.Errorf("error encoding wager result: %w", err)
	}
	return &wagerRow{
		IdempotencyKey:   w.IdempotencyKey,
		PlayerID:         w.PlayerID,
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
		Result:           string(result),
		CreatedAt:        w.CreatedAt.UTC(),
	}, nil
}

func (w wagerRow) entity() (*entities.Wager, error) {
	var result entities.RoundResult
	if err := json.Unmarshal([]byte(w.Result), &result); err != nil {
		return nil, fmt.Errorf("error decoding wager %s: %w", w.IdempotencyKey, err)
	}
	return &entities.Wager{
		IdempotencyKey:   w.IdempotencyKey,
		PlayerID:         w.PlayerID,
		Game:             entities.Game(w.Game),
		Seed:             w.Seed,
		Action:           entities.BlackjackAction(w.Action),
		Bet:              w.Bet,
		Debit:            w.Debit,
		Credit:           w.Credit,
		Net:              w.Net,
		Resolved:         w.Resolved,
		SecretGeneration: w.SecretGeneration,
		BalanceAfter:     w.BalanceAfter,
		Result:           &result,
		CreatedAt:        w.CreatedAt,
	}, nil
}

func wagerEntities(rows []wagerRow) ([]*entities.Wager, error) {
	wagers := make([]*entities.Wager, 0, len(rows))
	for _, row := range rows {
		w, err := row.entity()
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, w)
	}
	return wagers, nil
}

const (
	selectWallet = `SELECT user_id, balance, updated_at FROM wallets WHERE user_id = ?`

	insertWallet = `
		INSERT INTO wallets (user_id, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`

	selectTransactions = `
		SELECT id, user_id, amount, type, reference_id, description, timestamp, balance_after
		FROM transactions`

	selectWagers = `
		SELECT idempotency_key, player_id, game, seed, action, bet, debit, credit, net,
			resolved, secret_generation, balance_after, result, created_at
		FROM wagers`
)

// sqlxQuerier is satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxQuerier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// GetWallet retrieves a wallet by user ID
func (r *SQLRepository) GetWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	return getWallet(ctx, r.db, selectWallet, userID)
}

func getWallet(ctx context.Context, q sqlxQuerier, query, userID string) (*entities.Wallet, error) {
	var row walletRow
	if err := q.GetContext(ctx, &row, q.Rebind(query), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("error getting wallet: %w", err)
	}
	return row.entity(), nil
}

// CreateWallet inserts a wallet unless one exists
func (r *SQLRepository) CreateWallet(ctx context.Context, wallet *entities.Wallet) (bool, error) {
	now := wallet.LastUpdated
	if now.IsZero() {
		now = time.Now()
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(insertWallet), wallet.UserID, wallet.Balance, now.UTC(), now.UTC())
	if err != nil {
		return false, fmt.Errorf("error creating wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error getting rows affected: %w", err)
	}
	return n > 0, nil
}

// GetTransactions retrieves recent transactions for a user
func (r *SQLRepository) GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	return r.selectTransactions(ctx, selectTransactions+` WHERE user_id = ? ORDER BY seq DESC LIMIT ?`, userID, limit)
}

// GetTransactionsByType retrieves transactions of a specific type
func (r *SQLRepository) GetTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	return r.selectTransactions(ctx, selectTransactions+` WHERE user_id = ? AND type = ? ORDER BY seq DESC LIMIT ?`,
		userID, string(transactionType), limit)
}

func (r *SQLRepository) selectTransactions(ctx context.Context, query string, args ...interface{}) ([]*entities.Transaction, error) {
	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	transactions := make([]*entities.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, row.entity())
	}
	return transactions, nil
}

// GetWager retrieves a wager by idempotency key
func (r *SQLRepository) GetWager(ctx context.Context, playerID, key string) (*entities.Wager, error) {
	return getWager(ctx, r.db, playerID, key)
}

func getWager(ctx context.Context, q sqlxQuerier, playerID, key string) (*entities.Wager, error) {
	var row wagerRow
	err := q.GetContext(ctx, &row, q.Rebind(selectWagers+` WHERE player_id = ? AND idempotency_key = ?`), playerID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWagerNotFound
		}
		return nil, fmt.Errorf("error getting wager: %w", err)
	}
	return row.entity()
}

// GetPlayerWagers retrieves recent wagers for a player
func (r *SQLRepository) GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*entities.Wager, error) {
	var rows []wagerRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(selectWagers+` WHERE player_id = ? ORDER BY created_at DESC LIMIT ?`), playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying wagers: %w", err)
	}
	return wagerEntities(rows)
}

// InTx runs fn in a database transaction. Postgres gets a statement lock
// timeout so a blocked row lock fails instead of hanging.
func (r *SQLRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapContention(fmt.Errorf("error beginning transaction: %w", err))
	}

	if r.isPostgres() {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("error setting lock timeout: %w", err)
		}
	}

	if err := fn(ctx, &sqlTx{tx: tx, postgres: r.isPostgres()}); err != nil {
		tx.Rollback()
		return mapContention(err)
	}
	if err := tx.Commit(); err != nil {
		return mapContention(fmt.Errorf("error committing transaction: %w", err))
	}
	return nil
}

// Close closes the database connection
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// mapContention marks lock waits that ran out as ErrLockTimeout
func mapContention(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqContentionCodes[pqErr.Code] {
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && (liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	return err
}

type sqlTx struct {
	tx       *sqlx.Tx
	postgres bool
}

func (t *sqlTx) LockWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	query := selectWallet
	if t.postgres {
		// SQLite already holds the database write lock from BEGIN IMMEDIATE
		query += ` FOR UPDATE`
	}
	return getWallet(ctx, t.tx, query, userID)
}

func (t *sqlTx) SetBalance(ctx context.Context, userID string, balance int64, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`UPDATE wallets SET balance = ?, updated_at = ? WHERE user_id = ?`),
		balance, at.UTC(), userID)
	if err != nil {
		return fmt.Errorf("error updating balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (t *sqlTx) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	// Generate ID if not provided
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now()
	}

	row := transactionRow{
		ID:           transaction.ID,
		UserID:       transaction.UserID,
		Amount:       transaction.Amount,
		Type:         string(transaction.Type),
		ReferenceID:  transaction.ReferenceID,
		Description:  transaction.Description,
		Timestamp:    transaction.Timestamp.UTC(),
		BalanceAfter: transaction.BalanceAfter,
	}
	// seq numbers a wallet's lines in write order; the wallet row lock
	// serializes writers
	_, err := t.tx.NamedExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, amount, type, reference_id, description, timestamp, balance_after, seq
		) VALUES (:id, :user_id, :amount, :type, :reference_id, :description, :timestamp, :balance_after,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE user_id = :user_id))`, row)
	if err != nil {
		return fmt.Errorf("error adding transaction: %w", err)
	}
	return nil
}

func (t *sqlTx) GetWager(ctx context.Context, playerID, key string) (*entities.Wager, error) {
	return getWager(ctx, t.tx, playerID, key)
}

func (t *sqlTx) FindWagersBySeed(ctx context.Context, seed string) ([]*entities.Wager, error) {
	var rows []wagerRow
	err := t.tx.SelectContext(ctx, &rows, t.tx.Rebind(selectWagers+` WHERE seed = ? ORDER BY created_at, idempotency_key`), seed)
	if err != nil {
		return nil, fmt.Errorf("error querying wagers by seed: %w", err)
	}
	return wagerEntities(rows)
}

func (t *sqlTx) AddWager(ctx context.Context, wager *entities.Wager) error {
	row, err := newWagerRow(wager)
	if err != nil {
		return err
	}
	_, err = t.tx.NamedExecContext(ctx, `
		INSERT INTO wagers (
			idempotency_key, player_id, game, seed, action, bet, debit, credit, net,
			resolved, secret_generation, balance_after, result, created_at
		) VALUES (
			:idempotency_key, :player_id, :game, :seed, :action, :bet, :debit, :credit, :net,
			:resolved, :secret_generation, :balance_after, :result, :created_at
		)`, row)
	if err != nil {
		return fmt.Errorf("error adding wager: %w", err)
	}
	return nil
}
