package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RNGTestSuite struct {
	suite.Suite
	seed Seed
}

func TestRNGSuite(t *testing.T) {
	suite.Run(t, new(RNGTestSuite))
}

func (s *RNGTestSuite) SetupTest() {
	for i := range s.seed {
		s.seed[i] = byte(i)
	}
}

func (s *RNGTestSuite) TestDrawMatchesHMAC() {
	mac := hmac.New(sha256.New, s.seed[:])
	mac.Write([]byte("dice/die/0"))
	expected := binary.BigEndian.Uint64(mac.Sum(nil)[:8])

	s.Equal(expected, Draw(s.seed, "dice/die/0"))
}

func (s *RNGTestSuite) TestDrawDeterministic() {
	s.Equal(Draw(s.seed, "slots/reel/1"), Draw(s.seed, "slots/reel/1"))
	s.NotEqual(Draw(s.seed, "slots/reel/1"), Draw(s.seed, "slots/reel/2"))

	other := s.seed
	other[0] ^= 0xff
	s.NotEqual(Draw(s.seed, "slots/reel/1"), Draw(other, "slots/reel/1"))
}

func (s *RNGTestSuite) TestFloat64Range() {
	for i := 0; i < 500; i++ {
		f := Float64(s.seed, Indexed("float", i))
		s.GreaterOrEqual(f, 0.0)
		s.Less(f, 1.0)
	}
}

func (s *RNGTestSuite) TestIntnRangeAndCoverage() {
	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		v := Intn(s.seed, Indexed("intn", i), 6)
		s.GreaterOrEqual(v, 0)
		s.Less(v, 6)
		seen[v] = true
	}
	s.Len(seen, 6, "600 draws should hit every face")
}

func (s *RNGTestSuite) TestIntnOneIsZero() {
	s.Equal(0, Intn(s.seed, "single", 1))
}

func (s *RNGTestSuite) TestIntnPanicsOnZero() {
	s.Panics(func() { Intn(s.seed, "zero", 0) })
}

func (s *RNGTestSuite) TestRange() {
	for i := 0; i < 200; i++ {
		v := Range(s.seed, Indexed("range", i), 1, 12)
		s.GreaterOrEqual(v, 1)
		s.LessOrEqual(v, 12)
	}
}

func (s *RNGTestSuite) TestStreamLabels() {
	s.Equal("slots/reel", Stream("slots", "reel"))
	s.Equal("slots/reel/2", Indexed(Stream("slots", "reel"), 2))
}

func (s *RNGTestSuite) TestSeedTextRoundTrip() {
	encoded, err := json.Marshal(struct {
		Seed Seed `json:"seed"`
	}{Seed: s.seed})
	s.Require().NoError(err)
	s.Contains(string(encoded), s.seed.String())

	var decoded struct {
		Seed Seed `json:"seed"`
	}
	s.Require().NoError(json.Unmarshal(encoded, &decoded))
	s.Equal(s.seed, decoded.Seed)
}

func (s *RNGTestSuite) TestParseSeedErrors() {
	_, err := ParseSeed("zz")
	s.Error(err)

	_, err = ParseSeed("abcd")
	s.ErrorContains(err, "32 bytes")
}

func (s *RNGTestSuite) TestIsZero() {
	s.True(Seed{}.IsZero())
	s.False(s.seed.IsZero())
}
