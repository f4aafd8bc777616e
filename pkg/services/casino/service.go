// Package casino runs the wagering games: it validates a request, draws the
// outcome from the round seed, prices it and settles it on the ledger.
package casino

import (
	"context"
	"time"

	"github.com/fadedpez/gamblinghall/internal/logging"
	"github.com/fadedpez/gamblinghall/internal/types"
	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/services/validation"
	"github.com/fadedpez/gamblinghall/pkg/services/wallet"
)

// auditTimeout bounds a mirror write after the wager has settled
const auditTimeout = 5 * time.Second

// SeedSource derives round seeds
type SeedSource interface {
	NewSeed(nonce string) (fairness.Seed, int, error)
}

// Auditor mirrors settled wagers
type Auditor interface {
	IndexWager(ctx context.Context, wager *entities.Wager) error
}

// Recorder receives wager telemetry
type Recorder interface {
	WagerSettled(game, action string, debit, credit int64, flags []string, started time.Time)
	WagerReplayed(game string)
	WagerRejected(game, code string, started time.Time)
	AuditFailed()
}

type nopRecorder struct{}

func (nopRecorder) WagerSettled(string, string, int64, int64, []string, time.Time) {}
func (nopRecorder) WagerReplayed(string)                                         {}
func (nopRecorder) WagerRejected(string, string, time.Time)                      {}
func (nopRecorder) AuditFailed()                                                 {}

// Service runs the games
type Service struct {
	ledger    wallet.Ledger
	seeds     SeedSource
	validator *validation.Validator
	limiter   *RateLimiter
	auditor   Auditor
	recorder  Recorder
	logger    *logging.Logger
}

// Option configures a Service
type Option func(*Service)

// WithAuditor mirrors every settled wager
func WithAuditor(auditor Auditor) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithRecorder sets the telemetry sink
func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithLogger sets the service logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRateLimiter limits wagers per player
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(s *Service) {
		s.limiter = limiter
	}
}

// NewService creates the game engines
func NewService(ledger wallet.Ledger, seeds SeedSource, validator *validation.Validator, opts ...Option) *Service {
	s := &Service{
		ledger:    ledger,
		seeds:     seeds,
		validator: validator,
		limiter:   NewRateLimiter(0, 1),
		recorder:  nopRecorder{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// round is an outcome ready to settle
type round struct {
	debit       int64
	credit      int64
	description string
	wager       *entities.Wager
	guard       wallet.Guard
}

// play runs the pipeline shared by every wager:
// validate, idempotency lookup, rate limit, seed, outcome, ledger, audit.
func (s *Service) play(ctx context.Context, game entities.Game, action entities.BlackjackAction, playerID, key string,
	validate func() error, draw func() (*round, error)) (*entities.RoundResult, error) {
	started := time.Now()

	result, err := s.playRound(ctx, game, playerID, key, validate, draw)
	if err != nil {
		s.recorder.WagerRejected(string(game), string(types.CodeOf(err)), started)
		if types.CodeOf(err) == types.ErrInternalError || types.CodeOf(err) == types.ErrDatabaseError {
			s.logger.Error("%s wager %s for %s failed: %v", game, key, playerID, err)
		} else {
			s.logger.Debug("%s wager %s for %s rejected: %v", game, key, playerID, err)
		}
		return nil, err
	}

	if result.replayed {
		s.recorder.WagerReplayed(string(game))
	} else {
		s.recorder.WagerSettled(string(game), string(action), result.wager.Debit, result.wager.Credit,
			result.wager.Result.Flags.Names(), started)
		s.mirror(ctx, result.wager)
	}
	return result.wager.Result, nil
}

type played struct {
	wager    *entities.Wager
	replayed bool
}

func (s *Service) playRound(ctx context.Context, game entities.Game, playerID, key string,
	validate func() error, draw func() (*round, error)) (*played, error) {
	if err := validate(); err != nil {
		return nil, err
	}

	existing, err := s.ledger.FindWager(ctx, playerID, key)
	switch {
	case err == nil:
		if err := sameGame(existing, game); err != nil {
			return nil, err
		}
		return &played{wager: existing, replayed: true}, nil
	case !types.IsGameError(err, types.ErrWagerNotFound):
		return nil, err
	}

	// Replays above never spend a token
	if !s.limiter.Allow(playerID) {
		return nil, types.Errorf(types.ErrRateLimited, "too many wagers, slow down")
	}

	r, err := draw()
	if err != nil {
		return nil, err
	}

	settlement, err := s.ledger.DebitThenCredit(ctx, &wallet.Entry{
		PlayerID:       playerID,
		IdempotencyKey: key,
		Debit:          r.debit,
		Credit:         r.credit,
		Description:    r.description,
		Wager:          r.wager,
		Guard:          r.guard,
	})
	if err != nil {
		return nil, err
	}
	if settlement.Replayed {
		if err := sameGame(settlement.Wager, game); err != nil {
			return nil, err
		}
	}
	return &played{wager: settlement.Wager, replayed: settlement.Replayed}, nil
}

// seeded derives the round seed from the player and key, then draws the
// round from it
func (s *Service) seeded(playerID, key string, draw func(seed fairness.Seed) *round) func() (*round, error) {
	return func() (*round, error) {
		seed, generation, err := s.seeds.NewSeed(nonce(playerID, key))
		if err != nil {
			return nil, types.WrapError(types.ErrInternalError, "failed to derive round seed", err)
		}
		r := draw(seed)
		r.wager.SecretGeneration = generation
		return r, nil
	}
}

// nonce scopes the round seed to the player so equal keys from different
// players never share a seed
func nonce(playerID, key string) string {
	return playerID + "/" + key
}

func sameGame(w *entities.Wager, game entities.Game) error {
	if w.Game != game || w.Result == nil {
		return types.Errorf(types.ErrInvalidBetParameters, "idempotency key %q was already used for %s", w.IdempotencyKey, w.Game)
	}
	return nil
}

// mirror writes the wager to the audit index. A failure is logged and
// never fails the wager.
func (s *Service) mirror(ctx context.Context, wager *entities.Wager) {
	if s.auditor == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := s.auditor.IndexWager(ctx, wager); err != nil {
		s.recorder.AuditFailed()
		s.logger.Warn("failed to mirror wager %s: %v", wager.IdempotencyKey, err)
	}
}

// Lookup returns the stored result of a settled wager
func (s *Service) Lookup(ctx context.Context, playerID, key string) (*entities.RoundResult, error) {
	if err := s.validator.Identity(playerID, key); err != nil {
		return nil, err
	}
	wager, err := s.ledger.FindWager(ctx, playerID, key)
	if err != nil {
		return nil, err
	}
	if wager.Result == nil {
		return nil, types.Errorf(types.ErrWagerNotFound, "wager %q has no result", key)
	}
	return wager.Result, nil
}

// newRound builds the history record and result shared by every game
func newRound(game entities.Game, seed fairness.Seed, bet int64) (*entities.Wager, *entities.RoundResult) {
	result := &entities.RoundResult{
		Game: game,
		Seed: seed,
		Bet:  bet,
	}
	wager := &entities.Wager{
		Game:   game,
		Seed:   seed.String(),
		Bet:    bet,
		Result: result,
	}
	return wager, result
}
