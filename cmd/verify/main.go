package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/fadedpez/gamblinghall/pkg/entities"
	"github.com/fadedpez/gamblinghall/pkg/fairness"
	"github.com/fadedpez/gamblinghall/pkg/services/casino"
)

func main() {
	game := flag.String("game", "", "Game to verify (slots, dice, lottery, blackjack)")
	seed := flag.String("seed", "", "Disclosed round seed (hex)")
	bet := flag.Int64("bet", 0, "Bet placed on the round")
	betType := flag.String("bet-type", "", "Dice bet type (low, high, exact)")
	target := flag.Int("target", 0, "Dice exact target")
	picks := flag.String("picks", "", "Lottery picks, comma separated")
	input := flag.String("json", "", "Read the full request as JSON from a file, or - for stdin")
	flag.Parse()

	var req casino.VerifyRequest
	var err error
	if *input != "" {
		req, err = readRequest(*input)
	} else {
		req, err = flagRequest(*game, *seed, *bet, *betType, *target, *picks)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	v, err := casino.Verify(req)
	if err != nil {
		log.Fatalf("Error verifying round: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Error writing result: %v", err)
	}
	if !v.Valid {
		os.Exit(1)
	}
}

func readRequest(path string) (casino.VerifyRequest, error) {
	var req casino.VerifyRequest
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func flagRequest(game, seed string, bet int64, betType string, target int, picks string) (casino.VerifyRequest, error) {
	req := casino.VerifyRequest{
		Game:    entities.Game(game),
		Bet:     bet,
		BetType: entities.DiceBetType(betType),
		Target:  target,
	}
	if game == "" {
		return req, fmt.Errorf("-game is required")
	}

	parsed, err := fairness.ParseSeed(seed)
	if err != nil {
		return req, fmt.Errorf("invalid -seed: %w", err)
	}
	req.Seed = parsed

	if picks != "" {
		for _, p := range strings.Split(picks, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return req, fmt.Errorf("invalid pick %q", p)
			}
			req.Picks = append(req.Picks, n)
		}
	}
	return req, nil
}
