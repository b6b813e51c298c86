// Package trueskill implements the Bayesian skill update for two opposing
// parties of one or more players each.
//
// Variables are named after the conventions of Herbrich, Minka and Graepel's
// "TrueSkill: A Bayesian Skill Rating System":
//   - Mu: the mean of a player's skill belief.
//   - Sigma: the standard deviation (uncertainty) of that belief.
//   - Beta: the standard deviation of a single performance around the skill.
//   - Tau: the additive dynamics factor that keeps Sigma from collapsing
//     to zero as more games are played.
//   - c: the total standard deviation of the performance difference
//     between the two parties.
//   - v, w: the truncated-Gaussian correction terms applied to the mean
//     and the variance.
//
// The package is pure math and holds no state, it is safe for concurrent
// use.
package trueskill

import (
	"fmt"
	"math"
)

const (
	// DefaultMu is the mean skill assigned to an unrated player.
	DefaultMu = 25.0

	// DefaultSigma is the uncertainty assigned to an unrated player,
	// one third of DefaultMu so that Mu - 3*Sigma starts at zero.
	DefaultSigma = DefaultMu / 3.0
)

// A Rating is a Gaussian belief over a single player's skill.
type Rating struct {
	Mu    float64
	Sigma float64
}

// NewDefaultRating returns the rating assigned to a freshly registered
// player.
func NewDefaultRating() Rating {
	return Rating{Mu: DefaultMu, Sigma: DefaultSigma}
}

// ConservativeScore is the rank-ordering statistic Mu - k*Sigma, it
// penalizes players we know little about.
func (r Rating) ConservativeScore(k float64) float64 {
	return r.Mu - k*r.Sigma
}

func (r Rating) valid() bool {
	return r.Sigma > 0 &&
		!math.IsNaN(r.Mu) && !math.IsInf(r.Mu, 0) &&
		!math.IsNaN(r.Sigma) && !math.IsInf(r.Sigma, 0)
}

// An Outcome is the result of a match as seen from the first party.
type Outcome int

const ( // this is stored in DB, don't change values
	OutcomeLoss Outcome = -1
	OutcomeDraw Outcome = 0
	OutcomeWin  Outcome = 1
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoss:
		return "loss"
	case OutcomeDraw:
		return "draw"
	case OutcomeWin:
		return "win"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Parameters hold the tunable constants of the update, see
// DefaultParameters for sane values.
type Parameters struct {
	// Beta is the performance variability of a single game.
	Beta float64

	// Tau is added (squared) to every skill variance before an update so
	// ratings never fully freeze.
	Tau float64

	// DrawProbability is the probability mass reserved for draws, it
	// widens the margin within which a performance difference counts as
	// a tie.
	DrawProbability float64

	// MinSigma is the floor below which an updated Sigma is clamped.
	MinSigma float64
}

// DefaultParameters returns the canonical constants: Beta is half the
// default Sigma, Tau one hundredth of it.
func DefaultParameters() Parameters {
	return Parameters{
		Beta:            DefaultSigma / 2.0,
		Tau:             DefaultSigma / 100.0,
		DrawProbability: 0.10,
		MinSigma:        1e-4,
	}
}

// Validate returns an error if the parameters cannot produce a meaningful
// update.
func (p Parameters) Validate() error {
	if p.Beta <= 0 || math.IsNaN(p.Beta) || math.IsInf(p.Beta, 0) {
		return ErrInvalidRating("beta must be a positive finite number")
	}
	if p.Tau < 0 || math.IsNaN(p.Tau) || math.IsInf(p.Tau, 0) {
		return ErrInvalidRating("tau must be a non-negative finite number")
	}
	if p.DrawProbability < 0 || p.DrawProbability >= 1 || math.IsNaN(p.DrawProbability) {
		return ErrInvalidRating("draw probability must be in [0, 1)")
	}
	if p.MinSigma <= 0 {
		return ErrInvalidRating("minimum sigma must be positive")
	}

	return nil
}

// ErrInvalidRating signals a numeric precondition violation, it denotes a
// defect in the caller rather than bad user input.
type ErrInvalidRating string

func (e ErrInvalidRating) Error() string {
	return string(e)
}

// Update computes the posterior ratings of every member of both parties
// given the outcome as seen from party a.
// The input slices are left untouched.
func (p Parameters) Update(a, b []Rating, outcome Outcome) ([]Rating, []Rating, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if len(a) == 0 || len(b) == 0 {
		return nil, nil, ErrInvalidRating("a party must have at least one member")
	}
	for _, party := range [2][]Rating{a, b} {
		for _, v := range party {
			if !v.valid() {
				return nil, nil, ErrInvalidRating(fmt.Sprintf(
					"rating out of domain: mu=%g sigma=%g", v.Mu, v.Sigma,
				))
			}
		}
	}

	// The performance of a party is the convolution of its members'
	// skills, each inflated by tau² of dynamics, plus one beta² of noise
	// per member. The difference of both performances has total
	// deviation c.
	muA, varA := p.partyPerformance(a)
	muB, varB := p.partyPerformance(b)
	n := float64(len(a) + len(b))
	c := math.Sqrt(varA + varB + n*p.Beta*p.Beta)

	eps := drawMargin(p.DrawProbability, p.Beta, n) / c

	// Both parties share the same correction pair, only the direction of
	// the mean shift differs: the winner's members move up, the loser's
	// move down. For draws vWithin is antisymmetric in t so passing the
	// opposite difference to each side does the right thing.
	var vA, wA, vB, wB float64
	switch outcome {
	case OutcomeWin:
		t := (muA - muB) / c
		v, w := vExceeds(t, eps), wExceeds(t, eps)
		vA, wA = v, w
		vB, wB = -v, w
	case OutcomeLoss:
		t := (muB - muA) / c
		v, w := vExceeds(t, eps), wExceeds(t, eps)
		vA, wA = -v, w
		vB, wB = v, w
	case OutcomeDraw:
		t := (muA - muB) / c
		vA, wA = vWithin(t, eps), wWithin(t, eps)
		vB, wB = vWithin(-t, eps), wWithin(-t, eps)
	default:
		return nil, nil, ErrInvalidRating(fmt.Sprintf("unknown outcome %d", int(outcome)))
	}

	return p.updateParty(a, vA, wA, c), p.updateParty(b, vB, wB, c), nil
}

// updateParty applies the shared v and w coefficients to every member,
// scaled by the member's share of the total variance so less-certain
// members move more.
func (p Parameters) updateParty(members []Rating, v, w, c float64) []Rating {
	tauSquared := p.Tau * p.Tau
	ret := make([]Rating, len(members))

	for i, m := range members {
		variance := m.Sigma*m.Sigma + tauSquared

		mu := m.Mu + v*variance/c
		sigmaSquared := variance * (1 - w*variance/(c*c))

		sigma := p.MinSigma
		if sigmaSquared > p.MinSigma*p.MinSigma {
			sigma = math.Sqrt(sigmaSquared)
		}

		ret[i] = Rating{Mu: mu, Sigma: sigma}
	}

	return ret
}

func (p Parameters) partyPerformance(members []Rating) (mu, variance float64) {
	tauSquared := p.Tau * p.Tau
	for _, m := range members {
		mu += m.Mu
		variance += m.Sigma*m.Sigma + tauSquared
	}

	return mu, variance
}

// drawMargin converts the probability mass reserved for draws into the
// performance-space margin within which a game is scored as a tie.
func drawMargin(drawProbability, beta, totalPlayers float64) float64 {
	return normInvCDF((drawProbability+1)/2) * math.Sqrt(totalPlayers) * beta
}
