package back

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"foosrank/internal/trueskill"
	"foosrank/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// A Team is a fixed roster of one or more players. Players can belong to
// any number of teams, the roster itself never changes after creation (a
// different lineup is a different team).
type Team struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	Name      null.String

	// RosterHash is derived from the sorted member IDs, its unique index
	// is what rejects a second team with the same lineup.
	RosterHash string

	// Mu/Sigma cache the skill derived from the current members, they
	// are refreshed on every commit touching a member and are never a
	// source of truth.
	Mu    null.Float
	Sigma null.Float

	Members []Player `db:"-"`
}

type TeamMember struct {
	TeamID   util.UUIDAsBlob
	PlayerID util.UUIDAsBlob
	Position int
}

func NewTeam(name string, memberIDs []util.UUIDAsBlob) Team {
	return Team{
		ID:         util.NewUUIDAsBlob(),
		CreatedAt:  util.TimeAsTimestamp(time.Now()),
		Name:       null.NewString(name, name != ""),
		RosterHash: rosterHash(memberIDs),
	}
}

// rosterHash is order-insensitive: the same players in a different seat
// order are still the same party.
func rosterHash(memberIDs []util.UUIDAsBlob) string {
	sorted := make([]util.UUIDAsBlob, len(memberIDs))
	copy(sorted, memberIDs)
	util.SortUUIDAsBlob(sorted)

	h := sha256.New()
	for _, id := range sorted {
		buf := [16]byte(id)
		h.Write(buf[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Rating returns the cached team skill, or derives it on the fly when the
// cache was never written.
func (t *Team) Rating() trueskill.Rating {
	if t.Mu.Valid && t.Sigma.Valid {
		return trueskill.Rating{Mu: t.Mu.Float64, Sigma: t.Sigma.Float64}
	}

	return deriveTeamRating(t.Members)
}

// deriveTeamRating aggregates member skills assuming independence: the
// means add up, the variances add up.
func deriveTeamRating(members []Player) trueskill.Rating {
	var mu, variance float64
	for k := range members {
		mu += members[k].Mu
		variance += members[k].Sigma * members[k].Sigma
	}

	return trueskill.Rating{Mu: mu, Sigma: math.Sqrt(variance)}
}

func (t *Team) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Team").SetMap(squirrel.Eq{
		"ID":         t.ID,
		"CreatedAt":  t.CreatedAt,
		"Name":       t.Name,
		"RosterHash": t.RosterHash,
		"Mu":         t.Mu,
		"Sigma":      t.Sigma,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	for position, member := range t.Members {
		query, args, err := squirrel.Insert("TeamMember").SetMap(squirrel.Eq{
			"TeamID":   t.ID,
			"PlayerID": member.ID,
			"Position": position,
		}).ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
	}

	return nil
}

func (t *Team) updateSkillCache(tx *sqlx.Tx, rating trueskill.Rating) error {
	t.Mu = null.FloatFrom(rating.Mu)
	t.Sigma = null.FloatFrom(rating.Sigma)

	query, args, err := squirrel.Update("Team").SetMap(squirrel.Eq{
		"Mu":    t.Mu,
		"Sigma": t.Sigma,
	}).Where("Team.ID = ?", t.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getTeamByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Team, error) {
	var ret Team
	query := `SELECT * FROM Team WHERE Team.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Team{}, ErrNotFound(fmt.Sprintf("no team with ID %s", id))
		}

		return Team{}, err
	}

	if err := ret.loadMembers(tx); err != nil {
		return Team{}, err
	}

	return ret, nil
}

func getTeamByRosterHash(tx *sqlx.Tx, hash string) (Team, error) {
	var ret Team
	query := `SELECT * FROM Team WHERE Team.RosterHash = ? LIMIT 1`
	if err := tx.Get(&ret, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Team{}, ErrNotFound("no team with this roster")
		}

		return Team{}, err
	}

	return ret, nil
}

func (t *Team) loadMembers(tx *sqlx.Tx) error {
	return tx.Select(&t.Members, `
        SELECT Player.* FROM Player
        INNER JOIN TeamMember ON(TeamMember.PlayerID = Player.ID)
        WHERE TeamMember.TeamID = ?
        ORDER BY TeamMember.Position ASC`,
		t.ID,
	)
}

// getTeamsByPlayerIDs returns every team whose roster intersects the
// given players, members loaded.
func getTeamsByPlayerIDs(tx *sqlx.Tx, ids []util.UUIDAsBlob) ([]Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
        SELECT DISTINCT Team.* FROM Team
        INNER JOIN TeamMember ON(TeamMember.TeamID = Team.ID)
        WHERE TeamMember.PlayerID IN(?)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var teams []Team
	if err := tx.Select(&teams, query, args...); err != nil {
		return nil, err
	}

	for k := range teams {
		if err := teams[k].loadMembers(tx); err != nil {
			return nil, err
		}
	}

	return teams, nil
}

// RegisterTeam creates a team from existing, active players. Rosters are
// sets: a lineup identical to an existing team is rejected whatever the
// order.
func (b *Back) RegisterTeam(name string, memberIDs []util.UUIDAsBlob) (team Team, _ error) {
	if len(memberIDs) < 1 {
		return Team{}, ErrValidation("a team needs at least one member")
	}

	seen := make(map[util.UUIDAsBlob]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			return Team{}, ErrValidation(fmt.Sprintf("player %s is listed twice", id))
		}
		seen[id] = struct{}{}
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		players, err := getPlayersByIDs(tx, memberIDs)
		if err != nil {
			if isNotFound(err) {
				return ErrValidation(err.Error())
			}

			return err
		}

		for _, id := range memberIDs {
			if !players[id].IsActive() {
				return ErrValidation(fmt.Sprintf(
					"player '%s' is deactivated and cannot join a team",
					players[id].Nickname,
				))
			}
		}

		team = NewTeam(name, memberIDs)
		if existing, err := getTeamByRosterHash(tx, team.RosterHash); err == nil {
			return ErrDuplicate(fmt.Sprintf(
				"a team with this exact roster already exists (ID %s)", existing.ID,
			))
		} else if !isNotFound(err) {
			return err
		}

		for _, id := range memberIDs {
			team.Members = append(team.Members, players[id])
		}

		if err := team.insert(tx); err != nil {
			return err
		}

		return team.updateSkillCache(tx, deriveTeamRating(team.Members))
	}); err != nil {
		return Team{}, err
	}

	return team, nil
}

func (b *Back) GetTeam(id util.UUIDAsBlob) (ret Team, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) (err error) {
		ret, err = getTeamByID(tx, id)
		return err
	})
}

// ListTeams returns all teams in registration order, members loaded.
func (b *Back) ListTeams() (ret []Team, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) error {
		if err := tx.Select(&ret, `SELECT * FROM Team ORDER BY Team.CreatedAt ASC`); err != nil {
			return err
		}

		for k := range ret {
			if err := ret[k].loadMembers(tx); err != nil {
				return err
			}
		}

		return nil
	})
}
