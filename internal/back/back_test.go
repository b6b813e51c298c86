package back // nolint:testpackage

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"foosrank/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
)

func createTestBack(t *testing.T) *Back {
	t.Helper()

	f, err := ioutil.TempFile("", "*.db")
	if err != nil {
		t.Fatal(err)
	}
	path := f.Name()
	f.Close()
	t.Cleanup(func() {
		os.Remove(path)
	})

	migrator, err := migrate.New(
		"file://../../resources/migrations",
		"sqlite3://"+path,
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatal(err)
	}
	migrator.Close()

	back, err := New("sqlite3", path, &config.Config{})
	if err != nil {
		t.Fatal(err)
	}

	return back
}

func registerTestPlayer(t *testing.T, back *Back, firstName, lastName, nickname string) Player {
	t.Helper()

	player, err := back.RegisterPlayer(firstName, lastName, nickname)
	if err != nil {
		t.Fatalf("unable to register %s: %s", nickname, err)
	}

	return player
}

func TestClosedStoreIsRetryable(t *testing.T) {
	back := createTestBack(t)

	if err := back.db.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := back.GetStats()
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("an unreachable store must be flagged as retryable")
	}
}
