package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MinSecretSize is the shortest secret the service accepts.
const MinSecretSize = 32

var (
	// ErrSecretMissing is returned when the service has no usable secret.
	ErrSecretMissing = errors.New("fairness secret is missing or too short")
	// ErrNonceRequired is returned when a seed is requested without a nonce.
	ErrNonceRequired = errors.New("round nonce is required")
)

// Service owns the process-wide secret. It hands out seeds and never
// exposes the secret itself.
type Service struct {
	mu         sync.RWMutex
	secret     []byte
	generation int
	rotatedAt  time.Time
}

// NewService constructs a service from the boot secret.
func NewService(secret []byte) (*Service, error) {
	if len(secret) < MinSecretSize {
		return nil, ErrSecretMissing
	}
	return &Service{
		secret:     cloneBytes(secret),
		generation: 1,
		rotatedAt:  time.Now().UTC(),
	}, nil
}

// NewSeed derives the seed for a round as HMAC-SHA256(secret, nonce). It
// also returns the secret generation used, for the audit trail.
func (s *Service) NewSeed(nonce string) (Seed, int, error) {
	var seed Seed
	nonce = strings.TrimSpace(nonce)
	if nonce == "" {
		return seed, 0, ErrNonceRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.secret) == 0 {
		return seed, 0, ErrSecretMissing
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(nonce))
	copy(seed[:], mac.Sum(nil))
	return seed, s.generation, nil
}

// Rotate replaces the secret and returns the new generation.
func (s *Service) Rotate(secret []byte) (int, error) {
	if len(secret) < MinSecretSize {
		return 0, ErrSecretMissing
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = cloneBytes(secret)
	s.generation++
	s.rotatedAt = time.Now().UTC()
	return s.generation, nil
}

// Generation returns the current secret generation.
func (s *Service) Generation() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// RotatedAt returns when the current secret was installed.
func (s *Service) RotatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotatedAt
}

// GenerateSecret returns a fresh random secret.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, MinSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return secret, nil
}

// String keeps the secret out of formatted output.
func (s *Service) String() string {
	return fmt.Sprintf("fairness.Service{generation: %d}", s.Generation())
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
