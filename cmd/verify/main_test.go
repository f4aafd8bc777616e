package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedpez/gamblinghall/pkg/entities"
)

const seedHex = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

func TestFlagRequest(t *testing.T) {
	req, err := flagRequest("lottery", seedHex, 100, "", 0, "1, 5,9,12")
	require.NoError(t, err)
	assert.Equal(t, entities.GameLottery, req.Game)
	assert.Equal(t, []int{1, 5, 9, 12}, req.Picks)
	assert.Equal(t, seedHex, req.Seed.String())

	_, err = flagRequest("", seedHex, 100, "", 0, "")
	assert.Error(t, err)

	_, err = flagRequest("slots", "not-hex", 100, "", 0, "")
	assert.Error(t, err)

	_, err = flagRequest("lottery", seedHex, 100, "", 0, "1,x")
	assert.Error(t, err)
}

func TestReadRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round.json")
	body := `{"game":"dice","seed":"` + seedHex + `","bet":50,"bet_type":"exact","target":7}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	req, err := readRequest(path)
	require.NoError(t, err)
	assert.Equal(t, entities.DiceExact, req.BetType)
	assert.Equal(t, 7, req.Target)

	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSuffix(body, "}")), 0644))
	_, err = readRequest(path)
	assert.Error(t, err)
}
