// Package fairness produces deterministic, auditable randomness for wagers.
//
// Every random value in a round is derived from that round's seed and a
// stream label, so anyone holding the disclosed seed can recompute the round.
package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// SeedSize is the length of a round seed in bytes.
const SeedSize = sha256.Size

// Seed is the per-round randomness source. It is safe to disclose once the
// round has been settled.
type Seed [SeedSize]byte

// ParseSeed decodes a hex-encoded seed.
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("decode seed: %w", err)
	}
	if len(raw) != SeedSize {
		return seed, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}

// String returns the hex encoding of the seed.
func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// IsZero reports whether the seed is unset.
func (s Seed) IsZero() bool {
	return s == Seed{}
}

// MarshalText encodes the seed as hex.
func (s Seed) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a hex seed.
func (s *Seed) UnmarshalText(text []byte) error {
	parsed, err := ParseSeed(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Draw returns the uniform 64-bit value for a stream of a seed:
// the first eight bytes, big-endian, of HMAC-SHA256(seed, stream).
func Draw(seed Seed, stream string) uint64 {
	mac := hmac.New(sha256.New, seed[:])
	mac.Write([]byte(stream))
	return binary.BigEndian.Uint64(mac.Sum(nil)[:8])
}

// Float64 returns a value in [0, 1) using the top 53 bits of a draw.
func Float64(seed Seed, stream string) float64 {
	return float64(Draw(seed, stream)>>11) / (1 << 53)
}

// Intn returns an unbiased integer in [0, n). Draws that fall in the short
// tail of the 64-bit range are rejected and retried on "<stream>#<attempt>".
func Intn(seed Seed, stream string, n int) int {
	if n <= 0 {
		panic("fairness: Intn called with non-positive n")
	}
	bound := uint64(n)
	threshold := -bound % bound
	label := stream
	for attempt := 1; ; attempt++ {
		v := Draw(seed, label)
		if v >= threshold {
			return int(v % bound)
		}
		label = stream + "#" + strconv.Itoa(attempt)
	}
}

// Range returns an unbiased integer in [lo, hi].
func Range(seed Seed, stream string, lo, hi int) int {
	return lo + Intn(seed, stream, hi-lo+1)
}

// Stream builds a stream label such as "dice/die/0".
func Stream(parts ...string) string {
	return strings.Join(parts, "/")
}

// Indexed builds a stream label ending in a numeric index.
func Indexed(prefix string, i int) string {
	return prefix + "/" + strconv.Itoa(i)
}
