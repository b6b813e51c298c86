package back

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"foosrank/internal/config"
	"foosrank/internal/trueskill"
	"foosrank/internal/util"

	"github.com/jmoiron/sqlx"
)

// Back is the engine handle: entity store, match processor and ranking
// queries all go through it. There is exactly one per process, external
// adapters (HTTP, CLI, bots) receive it explicitly instead of reaching
// for a global.
type Back struct {
	db     *sqlx.DB
	config *config.Config
	rating trueskill.Parameters
	locks  *playerLocks
}

func New(sqlDriver string, sqlDSN string, conf *config.Config) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect(sqlDriver, sqlDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
	}

	// sqlite allows a single writer anyway, funneling everything through
	// one connection avoids spurious SQLITE_BUSY on mixed read/write
	// load.
	db.SetMaxOpenConns(1)

	rating := conf.Rating()
	if err := rating.Validate(); err != nil {
		return nil, err
	}

	return &Back{
		db:     db,
		config: conf,
		rating: rating,
		locks:  newPlayerLocks(),
	}, nil
}

// Run reconciles cached team skills until done is closed. The caches are
// also refreshed on every commit, the periodic pass only exists to heal
// drift after a crash mid-deploy or a manual database edit.
func (b *Back) Run(wg *sync.WaitGroup, done <-chan struct{}) {
	wg.Add(1)
	defer wg.Done()
	log.Print("info: starting Back dæmon")

	for {
		if err := b.runPeriodicTasks(); err != nil {
			log.Printf("error: runPeriodicTasks: %s", err)
		}

		select {
		case <-time.After(1 * time.Minute):
		case <-done:
			return
		}
	}
}

func (b *Back) transaction(cb util.TransactionCallback) error {
	return b.transactionCtx(context.Background(), cb)
}

func (b *Back) transactionCtx(ctx context.Context, cb util.TransactionCallback) error {
	if err := util.Transaction(ctx, b.db, cb); err != nil {
		if errors.Is(err, util.ErrBeginTransaction) {
			return fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
		}

		return err
	}

	return nil
}
