package back

import (
	"github.com/jmoiron/sqlx"
)

// Leaderboards order by the conservative score Mu - k*Sigma: a fresh
// player with a huge Sigma starts near the bottom and climbs as the
// engine gets to know them. Ties go to the earliest registration.

type RankedPlayer struct {
	Player Player
	Score  float64
}

type RankedTeam struct {
	Team  Team
	Score float64
}

// RankedPlayers returns active players best-first. A non-positive k
// falls back to the configured default penalty.
func (b *Back) RankedPlayers(k float64) (ret []RankedPlayer, _ error) {
	if k <= 0 {
		k = b.config.RankingK()
	}

	return ret, b.transaction(func(tx *sqlx.Tx) error {
		var players []Player
		if err := tx.Select(&players, `
            SELECT * FROM Player
            WHERE Player.DeletedAt IS NULL
            ORDER BY (Player.Mu - ? * Player.Sigma) DESC, Player.CreatedAt ASC`,
			k,
		); err != nil {
			return err
		}

		ret = make([]RankedPlayer, 0, len(players))
		for i := range players {
			ret = append(ret, RankedPlayer{
				Player: players[i],
				Score:  players[i].Rating().ConservativeScore(k),
			})
		}

		return nil
	})
}

// RankedTeams is the team flavor, ranking on the cached team skill.
func (b *Back) RankedTeams(k float64) (ret []RankedTeam, _ error) {
	if k <= 0 {
		k = b.config.RankingK()
	}

	return ret, b.transaction(func(tx *sqlx.Tx) error {
		var teams []Team
		if err := tx.Select(&teams, `
            SELECT * FROM Team
            ORDER BY (Team.Mu - ? * Team.Sigma) DESC, Team.CreatedAt ASC`,
			k,
		); err != nil {
			return err
		}

		ret = make([]RankedTeam, 0, len(teams))
		for i := range teams {
			if err := teams[i].loadMembers(tx); err != nil {
				return err
			}

			ret = append(ret, RankedTeam{
				Team:  teams[i],
				Score: teams[i].Rating().ConservativeScore(k),
			})
		}

		return nil
	})
}
