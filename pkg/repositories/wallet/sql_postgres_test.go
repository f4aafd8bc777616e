package wallet

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

type PostgresRepositoryTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	repo *SQLRepository
}

func TestPostgresRepositorySuite(t *testing.T) {
	suite.Run(t, new(PostgresRepositoryTestSuite))
}

func (s *PostgresRepositoryTestSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.mock = mock
	s.repo = NewSQLRepository(sqlx.NewDb(db, DriverPostgres), 1500*time.Millisecond)
}

func (s *PostgresRepositoryTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestLockWalletUsesRowLock() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '1500ms'")).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "updated_at"}).AddRow("p1", 700, time.Now()))
	s.mock.ExpectCommit()

	err := s.repo.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		wallet, err := tx.LockWallet(ctx, "p1")
		s.Require().NoError(err)
		s.Equal(int64(700), wallet.Balance)
		return nil
	})
	s.NoError(err)
}

func (s *PostgresRepositoryTestSuite) TestLockTimeoutMapped() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery("FOR UPDATE").
		WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
	s.mock.ExpectRollback()

	err := s.repo.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		_, err := tx.LockWallet(ctx, "p1")
		return err
	})
	s.ErrorIs(err, ErrLockTimeout)
}

func (s *PostgresRepositoryTestSuite) TestOtherErrorsPassThrough() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.repo.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return boom
	})
	s.ErrorIs(err, boom)
	s.NotErrorIs(err, ErrLockTimeout)
}

func (s *PostgresRepositoryTestSuite) TestSetBalanceMissingWallet() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance = $1, updated_at = $2 WHERE user_id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	err := s.repo.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.SetBalance(ctx, "ghost", 10, time.Now())
	})
	s.ErrorIs(err, ErrWalletNotFound)
}

func (s *PostgresRepositoryTestSuite) TestCreateWalletRebinds() {
	s.mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4)")).
		WithArgs("p1", int64(250), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := s.repo.CreateWallet(context.Background(), walletFixture("p1", 250))
	s.Require().NoError(err)
	s.True(created)
}

func walletFixture(userID string, balance int64) *entities.Wallet {
	return &entities.Wallet{UserID: userID, Balance: balance}
}

func (s *PostgresRepositoryTestSuite) TestTransactionsOrderedBySequence() {
	now := time.Now().UTC()
	columns := []string{"id", "user_id", "amount", "type", "reference_id", "description", "timestamp", "balance_after"}
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY seq DESC LIMIT $2")).
		WithArgs("p1", int64(10)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("t2", "p1", int64(150), "PAYOUT", "k1", "slots", now, int64(1050)).
			AddRow("t1", "p1", int64(-100), "BET", "k1", "slots", now, int64(900)))
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND type = $2 ORDER BY seq DESC LIMIT $3")).
		WithArgs("p1", "BET", int64(10)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("t1", "p1", int64(-100), "BET", "k1", "slots", now, int64(900)))

	txs, err := s.repo.GetTransactions(context.Background(), "p1", 10)
	s.Require().NoError(err)
	s.Require().Len(txs, 2)
	s.Equal(entities.TransactionTypePayout, txs[0].Type)

	bets, err := s.repo.GetTransactionsByType(context.Background(), "p1", entities.TransactionTypeBet, 10)
	s.Require().NoError(err)
	s.Require().Len(bets, 1)
}

func (s *PostgresRepositoryTestSuite) TestAddTransactionNumbersLines() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(regexp.QuoteMeta("(SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE user_id = $9)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.AddTransaction(ctx, &entities.Transaction{UserID: "p1", Amount: -100, Type: entities.TransactionTypeBet})
	})
	s.NoError(err)
}
