package back

import (
	"log"
	"math"

	"github.com/jmoiron/sqlx"
)

func (b *Back) runPeriodicTasks() error {
	return b.reconcileTeamSkillCaches()
}

// reconcileTeamSkillCaches recomputes every cached team skill from the
// current member rows and rewrites the ones that drifted. Commits keep
// the caches fresh already, this catches anything that slipped through
// (crash between deploys, manual edits).
func (b *Back) reconcileTeamSkillCaches() error {
	return b.transaction(func(tx *sqlx.Tx) error {
		var teams []Team
		if err := tx.Select(&teams, `SELECT * FROM Team`); err != nil {
			return err
		}

		var fixed int
		for k := range teams {
			if err := teams[k].loadMembers(tx); err != nil {
				return err
			}

			derived := deriveTeamRating(teams[k].Members)
			if teams[k].Mu.Valid &&
				math.Abs(teams[k].Mu.Float64-derived.Mu) < 1e-9 &&
				math.Abs(teams[k].Sigma.Float64-derived.Sigma) < 1e-9 {
				continue
			}

			if err := teams[k].updateSkillCache(tx, derived); err != nil {
				return err
			}
			fixed++
		}

		if fixed > 0 {
			log.Printf("warning: reconciled %d stale team skill caches", fixed)
		}

		return nil
	})
}
