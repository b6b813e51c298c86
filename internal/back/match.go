package back

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"foosrank/internal/trueskill"
	"foosrank/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// A Match is an immutable record of one submitted result. Outcome is as
// seen from side A. Nothing ever updates these rows, corrections are new
// matches.
type Match struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	Outcome   trueskill.Outcome

	Entries []MatchEntry  `db:"-"`
	Ratings []MatchRating `db:"-"`
}

// A MatchEntry is one side of a match.
type MatchEntry struct {
	MatchID         util.UUIDAsBlob
	Side            int // 0 = party A, 1 = party B
	ParticipantKind ParticipantKind
	ParticipantID   util.UUIDAsBlob
	Outcome         trueskill.Outcome
}

// A MatchRating is the per-player audit trail: the exact skill belief
// immediately before and after the commit.
type MatchRating struct {
	MatchID     util.UUIDAsBlob
	PlayerID    util.UUIDAsBlob
	MuBefore    float64
	SigmaBefore float64
	MuAfter     float64
	SigmaAfter  float64
}

func NewMatch(sideA, sideB Participant, outcome trueskill.Outcome) Match {
	match := Match{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.TimeAsTimestamp(time.Now()),
		Outcome:   outcome,
	}

	match.Entries = []MatchEntry{
		{
			MatchID:         match.ID,
			Side:            0,
			ParticipantKind: sideA.Kind,
			ParticipantID:   sideA.ID,
			Outcome:         outcome,
		},
		{
			MatchID:         match.ID,
			Side:            1,
			ParticipantKind: sideB.Kind,
			ParticipantID:   sideB.ID,
			Outcome:         mirrorOutcome(outcome),
		},
	}

	return match
}

func mirrorOutcome(outcome trueskill.Outcome) trueskill.Outcome {
	return trueskill.Outcome(-int(outcome))
}

func (m *Match) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Match").SetMap(squirrel.Eq{
		"ID":        m.ID,
		"CreatedAt": m.CreatedAt,
		"Outcome":   m.Outcome,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	for k := range m.Entries {
		if err := m.Entries[k].insert(tx); err != nil {
			return err
		}
	}

	for k := range m.Ratings {
		if err := m.Ratings[k].insert(tx); err != nil {
			return err
		}
	}

	return nil
}

func (e *MatchEntry) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("MatchEntry").SetMap(squirrel.Eq{
		"MatchID":         e.MatchID,
		"Side":            e.Side,
		"ParticipantKind": e.ParticipantKind,
		"ParticipantID":   e.ParticipantID,
		"Outcome":         e.Outcome,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (r *MatchRating) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("MatchRating").SetMap(squirrel.Eq{
		"MatchID":     r.MatchID,
		"PlayerID":    r.PlayerID,
		"MuBefore":    r.MuBefore,
		"SigmaBefore": r.SigmaBefore,
		"MuAfter":     r.MuAfter,
		"SigmaAfter":  r.SigmaAfter,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getMatchByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Match, error) {
	var ret Match
	if err := tx.Get(&ret, `SELECT * FROM Match WHERE Match.ID = ? LIMIT 1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Match{}, ErrNotFound(fmt.Sprintf("no match with ID %s", id))
		}

		return Match{}, err
	}

	if err := ret.loadDetails(tx); err != nil {
		return Match{}, err
	}

	return ret, nil
}

func (m *Match) loadDetails(tx *sqlx.Tx) error {
	if err := tx.Select(&m.Entries, `
        SELECT * FROM MatchEntry
        WHERE MatchEntry.MatchID = ?
        ORDER BY MatchEntry.Side ASC`,
		m.ID,
	); err != nil {
		return err
	}

	return tx.Select(&m.Ratings, `
        SELECT * FROM MatchRating
        WHERE MatchRating.MatchID = ?`,
		m.ID,
	)
}

// GetMatch returns one match with its entries and rating audit rows.
func (b *Back) GetMatch(id util.UUIDAsBlob) (ret Match, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) (err error) {
		ret, err = getMatchByID(tx, id)
		return err
	})
}

// GetMatchesByPlayer returns the matches a player took part in, newest
// first, entries loaded.
func (b *Back) GetMatchesByPlayer(playerID util.UUIDAsBlob) (ret []Match, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) error {
		if err := tx.Select(&ret, `
            SELECT Match.* FROM Match
            INNER JOIN MatchRating ON(MatchRating.MatchID = Match.ID)
            WHERE MatchRating.PlayerID = ?
            ORDER BY Match.CreatedAt DESC`,
			playerID,
		); err != nil {
			return err
		}

		for k := range ret {
			if err := ret[k].loadDetails(tx); err != nil {
				return err
			}
		}

		return nil
	})
}
