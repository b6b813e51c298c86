package back

import (
	"fmt"

	"foosrank/internal/util"

	"github.com/jmoiron/sqlx"
)

// ParticipantKind discriminates the two things that can stand on one side
// of the table.
type ParticipantKind int

const ( // this is stored in DB, don't change values
	ParticipantKindPlayer ParticipantKind = 0
	ParticipantKindTeam   ParticipantKind = 1
)

func (k ParticipantKind) String() string {
	switch k {
	case ParticipantKindPlayer:
		return "player"
	case ParticipantKindTeam:
		return "team"
	default:
		return fmt.Sprintf("ParticipantKind(%d)", int(k))
	}
}

// A Participant is one side of a match: either a single player or a
// registered team. It is the only place where the player/team duality
// exists, everything downstream works on the expanded member list.
type Participant struct {
	Kind ParticipantKind
	ID   util.UUIDAsBlob
}

func PlayerParticipant(id util.UUIDAsBlob) Participant {
	return Participant{Kind: ParticipantKindPlayer, ID: id}
}

func TeamParticipant(id util.UUIDAsBlob) Participant {
	return Participant{Kind: ParticipantKindTeam, ID: id}
}

func (p Participant) validate() error {
	if p.ID.IsZero() {
		return ErrValidation("a participant needs an ID")
	}

	if p.Kind != ParticipantKindPlayer && p.Kind != ParticipantKindTeam {
		return ErrValidation(fmt.Sprintf("unknown participant kind %d", int(p.Kind)))
	}

	return nil
}

// expand resolves the participant to its underlying players, in roster
// order (a lone player is a roster of one). Deactivated players cannot
// enter new matches.
func (p Participant) expand(tx *sqlx.Tx) ([]Player, error) {
	switch p.Kind {
	case ParticipantKindPlayer:
		player, err := getPlayerByID(tx, p.ID)
		if err != nil {
			return nil, err
		}

		if !player.IsActive() {
			return nil, ErrValidation(fmt.Sprintf(
				"player '%s' is deactivated and cannot play", player.Nickname,
			))
		}

		return []Player{player}, nil
	case ParticipantKindTeam:
		team, err := getTeamByID(tx, p.ID)
		if err != nil {
			return nil, err
		}

		for k := range team.Members {
			if !team.Members[k].IsActive() {
				return nil, ErrValidation(fmt.Sprintf(
					"team member '%s' is deactivated, this team cannot play",
					team.Members[k].Nickname,
				))
			}
		}

		return team.Members, nil
	default:
		return nil, ErrValidation(fmt.Sprintf("unknown participant kind %d", int(p.Kind)))
	}
}
