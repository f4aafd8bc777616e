package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fadedpez/gamblinghall/internal/logging"
	"github.com/fadedpez/gamblinghall/internal/types"
	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/metrics"
	"github.com/fadedpez/gamblinghall/pkg/repositories/audit"
	walletRepo "github.com/fadedpez/gamblinghall/pkg/repositories/wallet"
	"github.com/fadedpez/gamblinghall/pkg/services/casino"
	"github.com/fadedpez/gamblinghall/pkg/services/statistics"
	"github.com/fadedpez/gamblinghall/pkg/services/validation"
	"github.com/fadedpez/gamblinghall/pkg/services/wallet"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) result(args mock.Arguments) (*entities.RoundResult, error) {
	if r := args.Get(0); r != nil {
		return r.(*entities.RoundResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEngine) Spin(ctx context.Context, req entities.SlotsRequest) (*entities.RoundResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *mockEngine) Roll(ctx context.Context, req entities.DiceRequest) (*entities.RoundResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *mockEngine) BuyTicket(ctx context.Context, req entities.LotteryRequest) (*entities.RoundResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *mockEngine) Deal(ctx context.Context, req entities.BlackjackDealRequest) (*entities.RoundResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *mockEngine) Act(ctx context.Context, req entities.BlackjackActionRequest) (*entities.RoundResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *mockEngine) Lookup(ctx context.Context, playerID, key string) (*entities.RoundResult, error) {
	return m.result(m.Called(ctx, playerID, key))
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) docs(args mock.Arguments) ([]*audit.WagerDocument, error) {
	if d := args.Get(0); d != nil {
		return d.([]*audit.WagerDocument), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHistory) GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*audit.WagerDocument, error) {
	return m.docs(m.Called(ctx, playerID, limit))
}

func (m *mockHistory) GetSeedWagers(ctx context.Context, seed string) ([]*audit.WagerDocument, error) {
	return m.docs(m.Called(ctx, seed))
}

type APITestSuite struct {
	suite.Suite
	ledger    *wallet.Service
	collector *metrics.Collector
	router    http.Handler
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	s.ledger = wallet.NewService(walletRepo.NewMemoryRepository())
	seeds, err := fairness.NewService([]byte("api-test-secret-that-is-long-enough"))
	s.Require().NoError(err)
	engine := casino.NewService(s.ledger, seeds, validation.New(nil))

	s.collector = metrics.NewCollector("test")
	s.router = New(engine, s.ledger,
		WithMetrics(s.collector),
		WithOpeningBalance(1000),
		WithStatistics(statistics.NewService(s.ledger)),
	).Router()
}

func (s *APITestSuite) request(method, path, player, key string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if player != "" {
		req.Header.Set(HeaderPlayerID, player)
	}
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APITestSuite) decodeResult(rec *httptest.ResponseRecorder) *entities.RoundResult {
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var result entities.RoundResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	return &result
}

func (s *APITestSuite) errorCode(rec *httptest.ResponseRecorder) types.ErrorCode {
	var body ErrorBody
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func (s *APITestSuite) TestPlayerHeaderRequired() {
	rec := s.request(http.MethodPost, "/v1/slots/spin", "", "k1", map[string]int64{"bet": 100})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(types.ErrInvalidBetParameters, s.errorCode(rec))
}

func (s *APITestSuite) TestIdempotencyKeyRequired() {
	rec := s.request(http.MethodPost, "/v1/slots/spin", "p1", "", map[string]int64{"bet": 100})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestUnknownFieldsRejected() {
	rec := s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]any{"bet": 100, "payout": 1000000})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestSpinSettlesAndReplays() {
	first := s.decodeResult(s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]int64{"bet": 100}))
	s.Equal("p1", first.PlayerID)
	s.Equal(int64(1000)+first.Net, first.NewBalance)

	second := s.decodeResult(s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]int64{"bet": 100}))
	s.Equal(first.Seed, second.Seed)
	s.Equal(first.NewBalance, second.NewBalance)

	looked := s.decodeResult(s.request(http.MethodGet, "/v1/wagers/k1", "p1", "", nil))
	s.Equal(first.Slots.Reels, looked.Slots.Reels)

	balance, err := s.ledger.GetBalance(context.Background(), "p1")
	s.Require().NoError(err)
	s.Equal(first.NewBalance, balance)

	expected := `
# HELP test_http_requests_total HTTP requests by route and status
# TYPE test_http_requests_total counter
test_http_requests_total{route="/v1/slots/spin",status="200"} 2
test_http_requests_total{route="/v1/wagers/{key}",status="200"} 1
`
	s.NoError(testutil.GatherAndCompare(s.collector.Registry(), strings.NewReader(expected), "test_http_requests_total"))
}

func (s *APITestSuite) TestUnknownWager() {
	rec := s.request(http.MethodGet, "/v1/wagers/missing", "p1", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(types.ErrWagerNotFound, s.errorCode(rec))
}

func (s *APITestSuite) TestOpeningBalanceHeader() {
	req := httptest.NewRequest(http.MethodGet, "/v1/wallet", nil)
	req.Header.Set(HeaderPlayerID, "rich")
	req.Header.Set(HeaderPlayerBalance, "50000")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)
	var body WalletResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(int64(50000), body.Balance)
	s.Empty(body.Transactions)

	req.Header.Set(HeaderPlayerBalance, "lots")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestInsufficientFunds() {
	rec := s.request(http.MethodPost, "/v1/dice/roll", "p1", "k1", map[string]any{"bet": 5000, "bet_type": "low"})
	s.Equal(http.StatusPaymentRequired, rec.Code)
	s.Equal(types.ErrInsufficientFunds, s.errorCode(rec))
}

func (s *APITestSuite) TestWalletShowsJournal() {
	s.decodeResult(s.request(http.MethodPost, "/v1/lottery/tickets", "p1", "k1", map[string]any{"bet": 100, "picks": []int{1, 2, 3, 4}}))

	rec := s.request(http.MethodGet, "/v1/wallet", "p1", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var body WalletResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.NotEmpty(body.Transactions)
	s.Equal(body.Transactions[0].BalanceAfter, body.Balance)
}

func (s *APITestSuite) TestBlackjackRoundTrip() {
	var dealt *entities.RoundResult
	for i := 0; i < 50; i++ {
		result := s.decodeResult(s.request(http.MethodPost, "/v1/blackjack/deal", "p1", fmt.Sprintf("deal-%d", i), map[string]int64{"bet": 10}))
		if !result.Resolved {
			dealt = result
			break
		}
	}
	s.Require().NotNil(dealt)
	s.True(dealt.Blackjack.DealerCards[1].Hidden)

	action := map[string]any{
		"bet":          10,
		"action":       "stand",
		"player_cards": dealt.Blackjack.PlayerCards,
		"dealer_cards": dealt.Blackjack.DealerCards,
		"seed":         dealt.Seed,
	}
	stood := s.decodeResult(s.request(http.MethodPost, "/v1/blackjack/action", "p1", "stand", action))
	s.True(stood.Resolved)
	s.Equal(entities.PhaseResolved, stood.Blackjack.Phase)

	v := s.request(http.MethodPost, "/v1/fairness/verify", "", "", map[string]any{
		"game":         "blackjack",
		"seed":         stood.Seed,
		"bet":          10,
		"player_cards": stood.Blackjack.PlayerCards,
		"dealer_cards": stood.Blackjack.DealerCards,
	})
	s.Require().Equal(http.StatusOK, v.Code)
	var verification casino.Verification
	s.Require().NoError(json.Unmarshal(v.Body.Bytes(), &verification))
	s.True(verification.Valid)
	s.Equal(stood.Payout, verification.Result.Payout)

	// The hand is settled; playing it again is tampering
	rec := s.request(http.MethodPost, "/v1/blackjack/action", "p1", "stand-again", action)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(types.ErrTamperedGameState, s.errorCode(rec))
	s.Empty(rec.Header().Get("Retry-After"))
}

func (s *APITestSuite) TestStatistics() {
	first := s.decodeResult(s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]int64{"bet": 100}))
	s.decodeResult(s.request(http.MethodPost, "/v1/slots/spin", "p1", "k2", map[string]int64{"bet": 100}))

	rec := s.request(http.MethodGet, "/v1/stats", "p1", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summary statistics.PlayerSummary
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &summary))
	s.Equal(2, summary.Games[entities.GameSlots].RoundsPlayed)
	s.Equal(int64(200), summary.Overall.TotalBet)
	s.NotZero(first.SettledAt)
}

func (s *APITestSuite) TestVerifyRejectsBadRequest() {
	rec := s.request(http.MethodPost, "/v1/fairness/verify", "", "", map[string]any{"game": "slots", "bet": 10})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestRetryableErrors() {
	engine := new(mockEngine)
	engine.On("Spin", mock.Anything, mock.Anything).
		Return(nil, types.NewGameError(types.ErrConcurrentWagerConflict, "busy")).Once()
	engine.On("Spin", mock.Anything, mock.Anything).
		Return(nil, types.NewGameError(types.ErrRateLimited, "slow down")).Once()
	s.router = New(engine, s.ledger).Router()

	rec := s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]int64{"bet": 100})
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("1", rec.Header().Get("Retry-After"))

	rec = s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]int64{"bet": 100})
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("1", rec.Header().Get("Retry-After"))
	engine.AssertExpectations(s.T())
}

func (s *APITestSuite) TestInternalErrorsAreHidden() {
	engine := new(mockEngine)
	engine.On("Spin", mock.Anything, entities.SlotsRequest{PlayerID: "p1", IdempotencyKey: "k1", Bet: 100}).
		Return(nil, types.WrapError(types.ErrDatabaseError, "failed to settle", errors.New("disk full at /var/db")))
	core, logs := observer.New(zapcore.DebugLevel)
	s.router = New(engine, s.ledger, WithLogger(logging.FromZap(zap.New(core), logging.DEBUG))).Router()

	rec := s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]int64{"bet": 100})
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "disk full")

	// The cause stays in the server log
	failures := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	s.Require().Len(failures, 1)
	s.Equal("failed to settle", failures[0].Message)
	fields := failures[0].ContextMap()
	s.Equal("DATABASE_ERROR", fields["code"])
	s.Equal("disk full at /var/db", fields["cause"])
	s.Equal("/v1/slots/spin", fields["path"])
}

func (s *APITestSuite) TestUnknownWalletIsNotFound() {
	status, body := NewErrorResponse(types.Errorf(types.ErrWalletNotFound, "no wallet for player ghost"))
	s.Equal(http.StatusNotFound, status)
	s.Equal(types.ErrWalletNotFound, body.Error.Code)
	s.False(body.Error.Retryable)
}

func (s *APITestSuite) TestWalletFiltersByType() {
	s.decodeResult(s.request(http.MethodPost, "/v1/slots/spin", "p1", "k1", map[string]int64{"bet": 100}))
	s.decodeResult(s.request(http.MethodPost, "/v1/slots/spin", "p1", "k2", map[string]int64{"bet": 100}))

	rec := s.request(http.MethodGet, "/v1/wallet?type=bet", "p1", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var body WalletResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Transactions, 2)
	for _, tx := range body.Transactions {
		s.Equal(entities.TransactionTypeBet, tx.Type)
	}

	rec = s.request(http.MethodGet, "/v1/wallet?type=refund", "p1", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestAuditHistory() {
	history := new(mockHistory)
	mine := &audit.WagerDocument{PlayerID: "p1", IdempotencyKey: "deal", Seed: "abc", Action: "deal"}
	theirs := &audit.WagerDocument{PlayerID: "p2", IdempotencyKey: "deal", Seed: "def"}
	history.On("GetPlayerWagers", mock.Anything, "p1", recentTransactions).Return([]*audit.WagerDocument{mine}, nil)
	history.On("GetSeedWagers", mock.Anything, "abc").Return([]*audit.WagerDocument{mine}, nil)
	history.On("GetSeedWagers", mock.Anything, "def").Return([]*audit.WagerDocument{theirs}, nil)
	history.On("GetSeedWagers", mock.Anything, "down").Return(nil, errors.New("cluster down"))
	s.router = New(new(mockEngine), s.ledger, WithAuditHistory(history)).Router()

	rec := s.request(http.MethodGet, "/v1/audit/wagers", "p1", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var body AuditResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Wagers, 1)
	s.Equal("deal", body.Wagers[0].IdempotencyKey)

	rec = s.request(http.MethodGet, "/v1/audit/rounds/abc", "p1", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/v1/audit/rounds/def", "p1", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.NotContains(rec.Body.String(), "p2")

	rec = s.request(http.MethodGet, "/v1/audit/rounds/down", "p1", "", nil)
	s.Equal(http.StatusInternalServerError, rec.Code)
	history.AssertExpectations(s.T())
}

func (s *APITestSuite) TestAuditRoutesNeedMirror() {
	rec := s.request(http.MethodGet, "/v1/audit/wagers", "p1", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APITestSuite) TestHealth() {
	rec := s.request(http.MethodGet, "/healthz", "", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	s.router = New(new(mockEngine), s.ledger,
		WithHealthCheck("database", func(ctx context.Context) error { return nil }),
		WithHealthCheck("audit", func(ctx context.Context) error { return errors.New("unreachable") }),
	).Router()
	rec = s.request(http.MethodGet, "/healthz", "", "", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), "unreachable")
}

func (s *APITestSuite) TestHealthDetails() {
	s.router = New(new(mockEngine), s.ledger,
		WithHealthDetail("fairness", func() any { return map[string]int{"generation": 2} }),
	).Router()

	rec := s.request(http.MethodGet, "/healthz", "", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var body struct {
		Healthy bool                      `json:"healthy"`
		Details map[string]map[string]int `json:"details"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.Healthy)
	s.Equal(2, body.Details["fairness"]["generation"])
}

func (s *APITestSuite) TestMetricsEndpoint() {
	s.request(http.MethodGet, "/healthz", "", "", nil)

	rec := s.request(http.MethodGet, "/metrics", "", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.True(strings.Contains(rec.Body.String(), "test_http_requests_total"))
}
