package back

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"foosrank/internal/trueskill"
	"foosrank/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// A Player is a competitor, their current skill belief lives directly on
// the row and is only ever written by the match processor.
type Player struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	FirstName string
	LastName  string
	Nickname  string

	Mu    float64
	Sigma float64

	// DeletedAt marks a soft-deleted player, the row itself outlives the
	// player as long as match history references it.
	DeletedAt util.NullTimeAsTimestamp
}

func NewPlayer(firstName, lastName, nickname string) Player {
	rating := trueskill.NewDefaultRating()

	return Player{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.TimeAsTimestamp(time.Now()),
		FirstName: firstName,
		LastName:  lastName,
		Nickname:  nickname,
		Mu:        rating.Mu,
		Sigma:     rating.Sigma,
	}
}

func (p Player) Rating() trueskill.Rating {
	return trueskill.Rating{Mu: p.Mu, Sigma: p.Sigma}
}

func (p Player) IsActive() bool {
	return !p.DeletedAt.Valid
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"ID":        p.ID,
		"CreatedAt": p.CreatedAt,
		"FirstName": p.FirstName,
		"LastName":  p.LastName,
		"Nickname":  p.Nickname,
		"Mu":        p.Mu,
		"Sigma":     p.Sigma,
		"DeletedAt": p.DeletedAt,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (p *Player) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Player").SetMap(squirrel.Eq{
		"FirstName": p.FirstName,
		"LastName":  p.LastName,
		"Nickname":  p.Nickname,
		"Mu":        p.Mu,
		"Sigma":     p.Sigma,
		"DeletedAt": p.DeletedAt,
	}).Where("Player.ID = ?", p.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getPlayerByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, ErrNotFound(fmt.Sprintf("no player with ID %s", id))
		}

		return Player{}, err
	}

	return ret, nil
}

func getPlayerByNickname(tx *sqlx.Tx, nickname string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.Nickname = ? LIMIT 1`
	if err := tx.Get(&ret, query, nickname); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, ErrNotFound(fmt.Sprintf("no player nicknamed '%s'", nickname))
		}

		return Player{}, err
	}

	return ret, nil
}

// getPlayersByIDs fetches a batch of players and errors out if any ID has
// no row, callers rely on the result being complete.
func getPlayersByIDs(tx *sqlx.Tx, ids []util.UUIDAsBlob) (map[util.UUIDAsBlob]Player, error) {
	if len(ids) == 0 {
		return map[util.UUIDAsBlob]Player{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM Player WHERE ID IN(?)`, ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	players := make([]Player, 0, len(ids))
	if err := tx.Select(&players, query, args...); err != nil {
		return nil, err
	}

	ret := make(map[util.UUIDAsBlob]Player, len(players))
	for k := range players {
		ret[players[k].ID] = players[k]
	}

	for _, id := range ids {
		if _, ok := ret[id]; !ok {
			return nil, ErrNotFound(fmt.Sprintf("no player with ID %s", id))
		}
	}

	return ret, nil
}

// RegisterPlayer creates a player with the default rating. The nickname
// is the public identity and must be unique among all players, deleted
// ones included.
func (b *Back) RegisterPlayer(firstName, lastName, nickname string) (player Player, _ error) {
	for name, v := range map[string]string{
		"first name": firstName,
		"last name":  lastName,
		"nickname":   nickname,
	} {
		if strings.TrimSpace(v) == "" {
			return Player{}, ErrValidation(fmt.Sprintf("the %s cannot be empty", name))
		}
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		if _, err := getPlayerByNickname(tx, nickname); err == nil {
			return ErrDuplicate(fmt.Sprintf("the nickname '%s' is taken already", nickname))
		} else if !isNotFound(err) {
			return err
		}

		player = NewPlayer(firstName, lastName, nickname)
		return player.insert(tx)
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

// DeactivatePlayer soft-deletes a player: they disappear from listings
// and rankings and can no longer enter matches, but their row and all
// historical match records stay untouched.
func (b *Back) DeactivatePlayer(id util.UUIDAsBlob) error {
	if b.locks.isHeld(id) {
		return ErrConflict("this player has a match being processed, try again later")
	}

	return b.transaction(func(tx *sqlx.Tx) error {
		player, err := getPlayerByID(tx, id)
		if err != nil {
			return err
		}

		if !player.IsActive() {
			return ErrConflict("this player is already deactivated")
		}

		player.DeletedAt = util.NewNullTimeAsTimestamp(time.Now())
		return player.update(tx)
	})
}

func (b *Back) GetPlayer(id util.UUIDAsBlob) (ret Player, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) (err error) {
		ret, err = getPlayerByID(tx, id)
		return err
	})
}

func (b *Back) GetPlayerByNickname(nickname string) (ret Player, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) (err error) {
		ret, err = getPlayerByNickname(tx, nickname)
		return err
	})
}

// ListPlayers returns the active players in registration order.
func (b *Back) ListPlayers() (ret []Player, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) error {
		return tx.Select(&ret, `
            SELECT * FROM Player
            WHERE Player.DeletedAt IS NULL
            ORDER BY Player.CreatedAt ASC, Player.Nickname ASC`,
		)
	})
}

func isNotFound(err error) bool {
	var notFound ErrNotFound
	return errors.As(err, &notFound)
}
