package back

import (
	"github.com/jmoiron/sqlx"
)

// Stats are the dashboard counters. Counts exclude soft-deleted players,
// matches are forever.
type Stats struct {
	Players int
	Teams   int
	Matches int
}

func (b *Back) GetStats() (ret Stats, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) error {
		if err := tx.Get(&ret.Players, `SELECT COUNT(*) FROM Player WHERE DeletedAt IS NULL`); err != nil {
			return err
		}

		if err := tx.Get(&ret.Teams, `SELECT COUNT(*) FROM Team`); err != nil {
			return err
		}

		return tx.Get(&ret.Matches, `SELECT COUNT(*) FROM Match`)
	})
}

func (b *Back) PlayerCount() (int, error) {
	stats, err := b.GetStats()
	return stats.Players, err
}

func (b *Back) TeamCount() (int, error) {
	stats, err := b.GetStats()
	return stats.Teams, err
}
