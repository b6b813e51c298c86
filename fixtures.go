package main

import (
	"context"
	"log"

	"foosrank/internal/back"
	"foosrank/internal/trueskill"
	"foosrank/internal/util"
)

func loadFixtures(b *back.Back) error {
	seed := []struct {
		firstName, lastName, nickname string
	}{
		{"Ada", "Lovelace", "ada"},
		{"Charles", "Babbage", "chuck"},
		{"Grace", "Hopper", "amazing"},
		{"Alan", "Turing", "enigma"},
	}

	players := make(map[string]back.Player, len(seed))
	for _, v := range seed {
		player, err := b.RegisterPlayer(v.firstName, v.lastName, v.nickname)
		if err != nil {
			return err
		}

		players[v.nickname] = player
	}

	if _, err := b.RegisterTeam("The Analytical Engines", []util.UUIDAsBlob{
		players["ada"].ID, players["chuck"].ID,
	}); err != nil {
		return err
	}

	if _, err := b.RegisterTeam("Bletchley", []util.UUIDAsBlob{
		players["amazing"].ID, players["enigma"].ID,
	}); err != nil {
		return err
	}

	// A couple of matches so the leaderboard isn't flat.
	ctx := context.Background()
	results := []struct {
		a, b    string
		outcome trueskill.Outcome
	}{
		{"ada", "chuck", trueskill.OutcomeWin},
		{"amazing", "enigma", trueskill.OutcomeWin},
		{"ada", "amazing", trueskill.OutcomeDraw},
	}

	for _, v := range results {
		if _, err := b.SubmitMatchResult(
			ctx,
			back.PlayerParticipant(players[v.a].ID),
			back.PlayerParticipant(players[v.b].ID),
			v.outcome,
		); err != nil {
			return err
		}
	}

	log.Print("info: fixtures loaded")

	return nil
}
