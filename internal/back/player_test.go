package back // nolint:testpackage

import (
	"errors"
	"testing"

	"foosrank/internal/trueskill"
)

func TestRegisterPlayerValidation(t *testing.T) {
	back := createTestBack(t)

	cases := []struct {
		name                          string
		firstName, lastName, nickname string
	}{
		{"empty first name", "", "Lovelace", "ada"},
		{"empty last name", "Ada", "", "ada"},
		{"empty nickname", "Ada", "Lovelace", ""},
		{"blank nickname", "Ada", "Lovelace", "   "},
	}

	for _, c := range cases {
		_, err := back.RegisterPlayer(c.firstName, c.lastName, c.nickname)

		var validation ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("%s: expected ErrValidation, got %v", c.name, err)
		}
	}

	if count, err := back.PlayerCount(); err != nil || count != 0 {
		t.Errorf("expected an empty store after failed registrations, got %d (%v)", count, err)
	}
}

func TestRegisterPlayerAssignsDefaultRating(t *testing.T) {
	back := createTestBack(t)
	player := registerTestPlayer(t, back, "Ada", "Lovelace", "ada")

	if player.Mu != trueskill.DefaultMu || player.Sigma != trueskill.DefaultSigma {
		t.Errorf("expected default rating, got mu=%g sigma=%g", player.Mu, player.Sigma)
	}

	fetched, err := back.GetPlayerByNickname("ada")
	if err != nil {
		t.Fatal(err)
	}
	if fetched.ID != player.ID {
		t.Errorf("nickname lookup returned the wrong player: %s", fetched.ID)
	}
}

func TestDuplicateNicknameLeavesStoreUntouched(t *testing.T) {
	back := createTestBack(t)
	registerTestPlayer(t, back, "Ada", "Lovelace", "ada")

	_, err := back.RegisterPlayer("Adam", "Loveless", "ada")

	var duplicate ErrDuplicate
	if !errors.As(err, &duplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	count, err := back.PlayerCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("failed registration must not change the store, got %d players", count)
	}
}

func TestGetPlayerNotFound(t *testing.T) {
	back := createTestBack(t)

	var notFound ErrNotFound
	if _, err := back.GetPlayerByNickname("nobody"); !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPlayersIsOrderedAndSkipsDeactivated(t *testing.T) {
	back := createTestBack(t)
	ada := registerTestPlayer(t, back, "Ada", "Lovelace", "ada")
	chuck := registerTestPlayer(t, back, "Charles", "Babbage", "chuck")
	grace := registerTestPlayer(t, back, "Grace", "Hopper", "amazing")

	if err := back.DeactivatePlayer(chuck.ID); err != nil {
		t.Fatal(err)
	}

	players, err := back.ListPlayers()
	if err != nil {
		t.Fatal(err)
	}

	if len(players) != 2 {
		t.Fatalf("expected 2 active players, got %d", len(players))
	}
	if players[0].ID != ada.ID || players[1].ID != grace.ID {
		t.Errorf("wrong order: %s, %s", players[0].Nickname, players[1].Nickname)
	}

	// Deactivated players are still resolvable by ID for history display.
	fetched, err := back.GetPlayer(chuck.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.IsActive() {
		t.Error("expected chuck to be deactivated")
	}
}

func TestDeactivatePlayerTwiceConflicts(t *testing.T) {
	back := createTestBack(t)
	ada := registerTestPlayer(t, back, "Ada", "Lovelace", "ada")

	if err := back.DeactivatePlayer(ada.ID); err != nil {
		t.Fatal(err)
	}

	var conflict ErrConflict
	if err := back.DeactivatePlayer(ada.ID); !errors.As(err, &conflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}
