// Package api exposes the wagering engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fadedpez/gamblinghall/internal/logging"
	"github.com/fadedpez/gamblinghall/internal/types"
	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/repositories/audit"
	"github.com/fadedpez/gamblinghall/pkg/services/casino"
	"github.com/fadedpez/gamblinghall/pkg/services/statistics"
)

const (
	HeaderPlayerID       = "X-Player-ID"
	HeaderPlayerBalance  = "X-Player-Balance"
	HeaderIdempotencyKey = "Idempotency-Key"

	// maxBodyBytes bounds a request body; a blackjack hand is the largest
	maxBodyBytes = 64 << 10

	recentTransactions = 20
)

// Engine plays the games
type Engine interface {
	Spin(ctx context.Context, req entities.SlotsRequest) (*entities.RoundResult, error)
	Roll(ctx context.Context, req entities.DiceRequest) (*entities.RoundResult, error)
	BuyTicket(ctx context.Context, req entities.LotteryRequest) (*entities.RoundResult, error)
	Deal(ctx context.Context, req entities.BlackjackDealRequest) (*entities.RoundResult, error)
	Act(ctx context.Context, req entities.BlackjackActionRequest) (*entities.RoundResult, error)
	Lookup(ctx context.Context, playerID, key string) (*entities.RoundResult, error)
}

// Wallets opens and reads player wallets
type Wallets interface {
	GetOrCreateWallet(ctx context.Context, userID string, opening int64) (*entities.Wallet, bool, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	GetRecentTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error)
	GetRecentTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error)
}

// Metrics records requests and serves the scrape endpoint
type Metrics interface {
	HTTPRequest(route string, status int)
	Handler() http.Handler
}

// Statistics summarizes a player's settled rounds
type Statistics interface {
	GetPlayerSummary(ctx context.Context, playerID string) (*statistics.PlayerSummary, error)
}

// AuditHistory searches the wager mirror
type AuditHistory interface {
	GetPlayerWagers(ctx context.Context, playerID string, limit int) ([]*audit.WagerDocument, error)
	GetSeedWagers(ctx context.Context, seed string) ([]*audit.WagerDocument, error)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthDetail reports state shown next to the checks on /healthz
type HealthDetail func() any

// API holds the HTTP handlers
type API struct {
	engine         Engine
	wallets        Wallets
	metrics        Metrics
	stats          Statistics
	history        AuditHistory
	logger         *logging.Logger
	openingBalance int64
	checks         map[string]HealthCheck
	details        map[string]HealthDetail
}

// Option configures an API
type Option func(*API)

// WithMetrics records every request and serves /metrics
func WithMetrics(metrics Metrics) Option {
	return func(a *API) {
		a.metrics = metrics
	}
}

// WithStatistics serves /v1/stats
func WithStatistics(stats Statistics) Option {
	return func(a *API) {
		a.stats = stats
	}
}

// WithAuditHistory serves /v1/audit from the wager mirror
func WithAuditHistory(history AuditHistory) Option {
	return func(a *API) {
		a.history = history
	}
}

// WithLogger sets the request logger
func WithLogger(logger *logging.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithOpeningBalance sets the balance of wallets opened without X-Player-Balance
func WithOpeningBalance(balance int64) Option {
	return func(a *API) {
		a.openingBalance = balance
	}
}

// WithHealthCheck adds a named dependency to /healthz
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(a *API) {
		a.checks[name] = check
	}
}

// WithHealthDetail adds named state to the /healthz body
func WithHealthDetail(name string, detail HealthDetail) Option {
	return func(a *API) {
		a.details[name] = detail
	}
}

// New creates the API
func New(engine Engine, wallets Wallets, opts ...Option) *API {
	a := &API{
		engine:  engine,
		wallets: wallets,
		logger:  logging.NewNop(),
		checks:  make(map[string]HealthCheck),
		details: make(map[string]HealthDetail),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the HTTP handler with every endpoint
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.observe)

	r.Get("/healthz", a.health)
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/fairness/verify", a.verify)

		r.Group(func(r chi.Router) {
			r.Use(a.identify)

			r.Get("/wallet", a.wallet)
			r.Get("/wagers/{key}", a.lookup)
			if a.stats != nil {
				r.Get("/stats", a.statistics)
			}
			if a.history != nil {
				r.Get("/audit/wagers", a.auditWagers)
				r.Get("/audit/rounds/{seed}", a.auditRound)
			}

			r.Post("/slots/spin", a.spin)
			r.Post("/dice/roll", a.roll)
			r.Post("/lottery/tickets", a.buyTicket)
			r.Post("/blackjack/deal", a.deal)
			r.Post("/blackjack/action", a.act)
		})
	})
	return r
}

// observe records the status of every request against its route pattern
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if a.metrics != nil {
			a.metrics.HTTPRequest(route, status)
		}
		a.logger.Debug("%s %s %d %s", r.Method, route, status, time.Since(started))
	})
}

type playerKey struct{}

// identify reads the player from the account layer headers and opens a
// wallet the first time a player is seen
func (a *API) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		playerID := r.Header.Get(HeaderPlayerID)
		if playerID == "" {
			writeError(w, types.Errorf(types.ErrInvalidBetParameters, "%s header is required", HeaderPlayerID))
			return
		}

		opening := a.openingBalance
		if raw := r.Header.Get(HeaderPlayerBalance); raw != "" {
			balance, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, types.Errorf(types.ErrInvalidBetParameters, "%s must be a whole number", HeaderPlayerBalance))
				return
			}
			opening = balance
		}

		if _, created, err := a.wallets.GetOrCreateWallet(r.Context(), playerID, opening); err != nil {
			a.fail(w, r, err)
			return
		} else if created {
			a.logger.Info("opened wallet for %s with %d", playerID, opening)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), playerKey{}, playerID)))
	})
}

func playerFrom(r *http.Request) string {
	playerID, _ := r.Context().Value(playerKey{}).(string)
	return playerID
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch types.CodeOf(err) {
	case types.ErrInternalError, types.ErrDatabaseError:
		a.logger.With("method", r.Method, "path", r.URL.Path).LogError(err)
	}
	writeError(w, err)
}

// decode reads the JSON body and the idempotency key of a wager request
func decode(r *http.Request, v any) (string, error) {
	key := r.Header.Get(HeaderIdempotencyKey)
	if key == "" {
		return "", types.Errorf(types.ErrInvalidBetParameters, "%s header is required", HeaderIdempotencyKey)
	}
	if err := decodeBody(r, v); err != nil {
		return "", err
	}
	return key, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return types.WrapError(types.ErrInvalidBetParameters, "malformed request body", err)
	}
	return nil
}

func (a *API) respond(w http.ResponseWriter, r *http.Request, result *entities.RoundResult, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) spin(w http.ResponseWriter, r *http.Request) {
	var req entities.SlotsRequest
	key, err := decode(r, &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req.PlayerID, req.IdempotencyKey = playerFrom(r), key
	result, err := a.engine.Spin(r.Context(), req)
	a.respond(w, r, result, err)
}

func (a *API) roll(w http.ResponseWriter, r *http.Request) {
	var req entities.DiceRequest
	key, err := decode(r, &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req.PlayerID, req.IdempotencyKey = playerFrom(r), key
	result, err := a.engine.Roll(r.Context(), req)
	a.respond(w, r, result, err)
}

func (a *API) buyTicket(w http.ResponseWriter, r *http.Request) {
	var req entities.LotteryRequest
	key, err := decode(r, &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req.PlayerID, req.IdempotencyKey = playerFrom(r), key
	result, err := a.engine.BuyTicket(r.Context(), req)
	a.respond(w, r, result, err)
}

func (a *API) deal(w http.ResponseWriter, r *http.Request) {
	var req entities.BlackjackDealRequest
	key, err := decode(r, &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req.PlayerID, req.IdempotencyKey = playerFrom(r), key
	result, err := a.engine.Deal(r.Context(), req)
	a.respond(w, r, result, err)
}

func (a *API) act(w http.ResponseWriter, r *http.Request) {
	var req entities.BlackjackActionRequest
	key, err := decode(r, &req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req.PlayerID, req.IdempotencyKey = playerFrom(r), key
	result, err := a.engine.Act(r.Context(), req)
	a.respond(w, r, result, err)
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) {
	result, err := a.engine.Lookup(r.Context(), playerFrom(r), chi.URLParam(r, "key"))
	a.respond(w, r, result, err)
}

// WalletResponse is the balance and latest journal lines of a player
type WalletResponse struct {
	PlayerID     string                  `json:"player_id"`
	Balance      int64                   `json:"balance"`
	Transactions []*entities.Transaction `json:"transactions"`
}

func (a *API) wallet(w http.ResponseWriter, r *http.Request) {
	playerID := playerFrom(r)
	balance, err := a.wallets.GetBalance(r.Context(), playerID)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var transactions []*entities.Transaction
	if kind := r.URL.Query().Get("type"); kind != "" {
		transactions, err = a.wallets.GetRecentTransactionsByType(r.Context(), playerID,
			entities.TransactionType(strings.ToUpper(kind)), recentTransactions)
	} else {
		transactions, err = a.wallets.GetRecentTransactions(r.Context(), playerID, recentTransactions)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []*entities.Transaction{}
	}
	writeJSON(w, http.StatusOK, WalletResponse{PlayerID: playerID, Balance: balance, Transactions: transactions})
}

func (a *API) statistics(w http.ResponseWriter, r *http.Request) {
	summary, err := a.stats.GetPlayerSummary(r.Context(), playerFrom(r))
	if err != nil {
		a.fail(w, r, types.WrapError(types.ErrDatabaseError, "failed to read wager history", err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// AuditResponse lists mirrored wagers
type AuditResponse struct {
	Wagers []*audit.WagerDocument `json:"wagers"`
}

func (a *API) auditWagers(w http.ResponseWriter, r *http.Request) {
	docs, err := a.history.GetPlayerWagers(r.Context(), playerFrom(r), recentTransactions)
	if err != nil {
		a.fail(w, r, types.WrapError(types.ErrInternalError, "failed to search the audit mirror", err))
		return
	}
	if docs == nil {
		docs = []*audit.WagerDocument{}
	}
	writeJSON(w, http.StatusOK, AuditResponse{Wagers: docs})
}

// auditRound lists the rows of one round, oldest first. Rounds of other
// players are reported as unknown.
func (a *API) auditRound(w http.ResponseWriter, r *http.Request) {
	playerID := playerFrom(r)
	docs, err := a.history.GetSeedWagers(r.Context(), chi.URLParam(r, "seed"))
	if err != nil {
		a.fail(w, r, types.WrapError(types.ErrInternalError, "failed to search the audit mirror", err))
		return
	}

	own := make([]*audit.WagerDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.PlayerID == playerID {
			own = append(own, doc)
		}
	}
	if len(own) == 0 {
		a.fail(w, r, types.Errorf(types.ErrWagerNotFound, "no mirrored round with this seed"))
		return
	}
	writeJSON(w, http.StatusOK, AuditResponse{Wagers: own})
}

func (a *API) verify(w http.ResponseWriter, r *http.Request) {
	var req casino.VerifyRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	v, err := casino.Verify(req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	body := map[string]any{"healthy": healthy, "checks": status}
	if len(a.details) > 0 {
		details := make(map[string]any, len(a.details))
		for name, detail := range a.details {
			details[name] = detail()
		}
		body["details"] = details
	}
	writeJSON(w, code, body)
}
