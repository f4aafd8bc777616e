package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fadedpez/gamblinghall/internal/types"
)

type LoggerTestSuite struct {
	suite.Suite
	logs   *observer.ObservedLogs
	logger *Logger
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (s *LoggerTestSuite) SetupTest() {
	core, logs := observer.New(zapcore.DebugLevel)
	s.logs = logs
	s.logger = FromZap(zap.New(core), DEBUG)
}

func (s *LoggerTestSuite) TestLogErrorGameError() {
	s.logger.LogError(types.WrapError(types.ErrDatabaseError, "settle failed", errors.New("disk full")))

	entries := s.logs.All()
	s.Require().Len(entries, 1)
	s.Equal("settle failed", entries[0].Message)
	s.Equal(zapcore.ErrorLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	s.Equal("DATABASE_ERROR", ctx["code"])
	s.Equal("disk full", ctx["cause"])
}

func (s *LoggerTestSuite) TestLogErrorPlain() {
	s.logger.LogError(errors.New("boom"))

	entries := s.logs.All()
	s.Require().Len(entries, 1)
	s.Equal("unexpected error", entries[0].Message)
}

func (s *LoggerTestSuite) TestWithCarriesFields() {
	s.logger.With("player_id", "p1").Info("spin %d", 3)

	entries := s.logs.All()
	s.Require().Len(entries, 1)
	s.Equal("spin 3", entries[0].Message)
	s.Equal("p1", entries[0].ContextMap()["player_id"])
}

func (s *LoggerTestSuite) TestParseLevel() {
	s.Equal(DEBUG, ParseLevel("debug"))
	s.Equal(WARN, ParseLevel("WARN"))
	s.Equal(ERROR, ParseLevel("error"))
	s.Equal(INFO, ParseLevel("whatever"))
}

func (s *LoggerTestSuite) TestNew() {
	for _, development := range []bool{true, false} {
		logger, err := New("gamblinghall", "test", development, INFO)
		s.Require().NoError(err)
		s.NotNil(logger)
	}
}
