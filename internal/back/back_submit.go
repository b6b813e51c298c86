package back

import (
	"context"
	"fmt"
	"log"

	"foosrank/internal/trueskill"
	"foosrank/internal/util"

	"github.com/jmoiron/sqlx"
)

// A result submission walks a small state machine, any failure before
// Committed leaves no trace in the store.
type submissionState int

const (
	submissionReceived submissionState = iota
	submissionParticipantsResolved
	submissionRatingComputed
	submissionCommitted
)

func (s submissionState) String() string {
	switch s {
	case submissionReceived:
		return "Received"
	case submissionParticipantsResolved:
		return "ParticipantsResolved"
	case submissionRatingComputed:
		return "RatingComputed"
	case submissionCommitted:
		return "Committed"
	default:
		return fmt.Sprintf("submissionState(%d)", int(s))
	}
}

// SubmitMatchResult records a finished game between two parties and
// atomically updates every underlying player's skill, the cached skill
// of every affected team, and the immutable match history.
// The outcome is as seen from sideA. The context can abort the
// submission any time before the commit, a committed result is durable.
func (b *Back) SubmitMatchResult(
	ctx context.Context,
	sideA, sideB Participant,
	outcome trueskill.Outcome,
) (Match, error) {
	state := submissionReceived
	match, err := b.submitMatchResult(ctx, sideA, sideB, outcome, &state)
	if err != nil {
		log.Printf("warning: submission failed in state %s: %s", state, err)
		return Match{}, err
	}

	log.Printf(
		"info: committed match %s (%s %s vs %s)",
		match.ID, sideA.ID, outcome, sideB.ID,
	)

	return match, nil
}

func (b *Back) submitMatchResult(
	ctx context.Context,
	sideA, sideB Participant,
	outcome trueskill.Outcome,
	state *submissionState,
) (Match, error) {
	// Received: both sides must be well-formed and distinct before we
	// touch the store.
	for _, p := range [2]Participant{sideA, sideB} {
		if err := p.validate(); err != nil {
			return Match{}, err
		}
	}
	if sideA == sideB {
		return Match{}, ErrValidation("a party cannot play against itself")
	}

	// First resolution pass, only to learn which players to lock. The
	// ratings read here are thrown away.
	var lockIDs []util.UUIDAsBlob
	if err := b.transactionCtx(ctx, func(tx *sqlx.Tx) error {
		playersA, err := sideA.expand(tx)
		if err != nil {
			return err
		}
		playersB, err := sideB.expand(tx)
		if err != nil {
			return err
		}

		lockIDs = make([]util.UUIDAsBlob, 0, len(playersA)+len(playersB))
		for _, p := range append(playersA, playersB...) {
			lockIDs = append(lockIDs, p.ID)
		}

		return ensureDisjoint(playersA, playersB)
	}); err != nil {
		return Match{}, err
	}

	release, err := b.locks.acquire(ctx, lockIDs, b.config.LockTimeout())
	if err != nil {
		return Match{}, err
	}
	defer release()

	var match Match
	if err := b.transactionCtx(ctx, func(tx *sqlx.Tx) error {
		// Second resolution pass under the locks: these are by
		// construction the ratings the store holds at commit time, they
		// become the audit's "before" values.
		playersA, err := sideA.expand(tx)
		if err != nil {
			return err
		}
		playersB, err := sideB.expand(tx)
		if err != nil {
			return err
		}
		*state = submissionParticipantsResolved

		updatedA, updatedB, err := b.rating.Update(
			playerRatings(playersA), playerRatings(playersB), outcome,
		)
		if err != nil {
			// A numeric precondition violated under a consistent
			// snapshot is a defect, not bad input.
			log.Printf("error: rating model rejected stored ratings: %s", err)
			return err
		}
		*state = submissionRatingComputed

		match = NewMatch(sideA, sideB, outcome)
		match.Ratings = appendAuditRatings(match.Ratings, match.ID, playersA, updatedA)
		match.Ratings = appendAuditRatings(match.Ratings, match.ID, playersB, updatedB)

		if err := applyRatingUpdates(tx, playersA, updatedA); err != nil {
			return err
		}
		if err := applyRatingUpdates(tx, playersB, updatedB); err != nil {
			return err
		}

		if err := refreshAffectedTeamCaches(tx, lockIDs); err != nil {
			return err
		}

		if err := match.insert(tx); err != nil {
			return err
		}

		// Last chance to abort: a cancellation seen here rolls the whole
		// submission back, past the commit it is too late.
		if err := ctx.Err(); err != nil {
			return err
		}

		return nil
	}); err != nil {
		return Match{}, err
	}

	*state = submissionCommitted

	return match, nil
}

func ensureDisjoint(a, b []Player) error {
	ids := make(map[util.UUIDAsBlob]struct{}, len(a))
	for k := range a {
		ids[a[k].ID] = struct{}{}
	}

	for k := range b {
		if _, shared := ids[b[k].ID]; shared {
			return ErrValidation(fmt.Sprintf(
				"player '%s' cannot be on both sides", b[k].Nickname,
			))
		}
	}

	return nil
}

func playerRatings(players []Player) []trueskill.Rating {
	ret := make([]trueskill.Rating, len(players))
	for k := range players {
		ret[k] = players[k].Rating()
	}

	return ret
}

func appendAuditRatings(
	ratings []MatchRating,
	matchID util.UUIDAsBlob,
	before []Player,
	after []trueskill.Rating,
) []MatchRating {
	for k := range before {
		ratings = append(ratings, MatchRating{
			MatchID:     matchID,
			PlayerID:    before[k].ID,
			MuBefore:    before[k].Mu,
			SigmaBefore: before[k].Sigma,
			MuAfter:     after[k].Mu,
			SigmaAfter:  after[k].Sigma,
		})
	}

	return ratings
}

// applyRatingUpdates persists posterior skills, it is only ever reachable
// from the match processor's commit transaction.
func applyRatingUpdates(tx *sqlx.Tx, players []Player, updated []trueskill.Rating) error {
	for k := range players {
		players[k].Mu = updated[k].Mu
		players[k].Sigma = updated[k].Sigma

		if err := players[k].update(tx); err != nil {
			return err
		}
	}

	return nil
}

// refreshAffectedTeamCaches re-derives the cached skill of every team
// whose roster intersects the updated players, in the same transaction
// as the player updates so readers never see the cache lag behind.
func refreshAffectedTeamCaches(tx *sqlx.Tx, playerIDs []util.UUIDAsBlob) error {
	teams, err := getTeamsByPlayerIDs(tx, playerIDs)
	if err != nil {
		return err
	}

	for k := range teams {
		rating := deriveTeamRating(teams[k].Members)
		if err := teams[k].updateSkillCache(tx, rating); err != nil {
			return err
		}
	}

	return nil
}
