package trueskill

import (
	"math"
	"testing"
)

func ratingsAlmostEqual(a, b Rating, tolerance float64) bool {
	return math.Abs(a.Mu-b.Mu) < tolerance && math.Abs(a.Sigma-b.Sigma) < tolerance
}

// Reference vector from the two-player example in Herbrich et al. with
// the canonical constants (mu=25, sigma=25/3, beta=25/6, tau=25/300,
// 10 % draws).
func TestFirstMatchReferenceVector(t *testing.T) {
	p := DefaultParameters()
	winner := []Rating{NewDefaultRating()}
	loser := []Rating{NewDefaultRating()}

	updatedWinner, updatedLoser, err := p.Update(winner, loser, OutcomeWin)
	if err != nil {
		t.Fatal(err)
	}

	expectedWinner := Rating{Mu: 29.39583, Sigma: 7.17148}
	expectedLoser := Rating{Mu: 20.60417, Sigma: 7.17148}

	if !ratingsAlmostEqual(updatedWinner[0], expectedWinner, 1e-3) {
		t.Errorf("winner: expected %+v, got %+v", expectedWinner, updatedWinner[0])
	}
	if !ratingsAlmostEqual(updatedLoser[0], expectedLoser, 1e-3) {
		t.Errorf("loser: expected %+v, got %+v", expectedLoser, updatedLoser[0])
	}

	// The two deltas mirror each other when uncertainties are equal.
	gain := updatedWinner[0].Mu - DefaultMu
	loss := DefaultMu - updatedLoser[0].Mu
	if math.Abs(gain-loss) > 1e-9 {
		t.Errorf("expected mirrored deltas, got +%g / -%g", gain, loss)
	}
}

func TestWinnerGainsLoserLoses(t *testing.T) {
	p := DefaultParameters()

	mus := []float64{15, 25, 30, 40}
	sigmas := []float64{2, 5, DefaultSigma, 15}

	for _, muW := range mus {
		for _, sigmaW := range sigmas {
			for _, muL := range mus {
				for _, sigmaL := range sigmas {
					winner := []Rating{{Mu: muW, Sigma: sigmaW}}
					loser := []Rating{{Mu: muL, Sigma: sigmaL}}

					w, l, err := p.Update(winner, loser, OutcomeWin)
					if err != nil {
						t.Fatal(err)
					}

					if w[0].Mu <= muW {
						t.Errorf("winner mu did not increase: %g -> %g (vs %g/%g)", muW, w[0].Mu, muL, sigmaL)
					}
					if l[0].Mu >= muL {
						t.Errorf("loser mu did not decrease: %g -> %g (vs %g/%g)", muL, l[0].Mu, muW, sigmaW)
					}
					if w[0].Sigma <= 0 || l[0].Sigma <= 0 {
						t.Errorf("sigma went non-positive: %g / %g", w[0].Sigma, l[0].Sigma)
					}
				}
			}
		}
	}
}

func TestSigmaStaysPositiveOnExtremeUpsets(t *testing.T) {
	p := DefaultParameters()

	// A hopeless underdog winning is the hardest case numerically.
	winner := []Rating{{Mu: -500, Sigma: 0.001}}
	loser := []Rating{{Mu: 500, Sigma: 0.001}}

	w, l, err := p.Update(winner, loser, OutcomeWin)
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range []Rating{w[0], l[0]} {
		if r.Sigma < p.MinSigma {
			t.Errorf("sigma below floor: %g", r.Sigma)
		}
		if math.IsNaN(r.Mu) || math.IsInf(r.Mu, 0) {
			t.Errorf("mu is not finite: %g", r.Mu)
		}
	}
}

func TestDrawBetweenEqualsKeepsMu(t *testing.T) {
	p := DefaultParameters()
	a := []Rating{NewDefaultRating()}
	b := []Rating{NewDefaultRating()}

	updatedA, updatedB, err := p.Update(a, b, OutcomeDraw)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(updatedA[0].Mu-DefaultMu) > 1e-9 || math.Abs(updatedB[0].Mu-DefaultMu) > 1e-9 {
		t.Errorf("draw between equals moved mu: %g / %g", updatedA[0].Mu, updatedB[0].Mu)
	}
	if updatedA[0].Sigma >= DefaultSigma {
		t.Errorf("draw should still reduce uncertainty, sigma %g -> %g", DefaultSigma, updatedA[0].Sigma)
	}
	if math.Abs(updatedA[0].Sigma-updatedB[0].Sigma) > 1e-9 {
		t.Errorf("draw between equals must stay symmetric: %g / %g", updatedA[0].Sigma, updatedB[0].Sigma)
	}
}

func TestDrawPullsRatingsTogether(t *testing.T) {
	p := DefaultParameters()
	strong := []Rating{{Mu: 40, Sigma: 5}}
	weak := []Rating{{Mu: 10, Sigma: 5}}

	updatedStrong, updatedWeak, err := p.Update(strong, weak, OutcomeDraw)
	if err != nil {
		t.Fatal(err)
	}

	if updatedStrong[0].Mu >= 40 {
		t.Errorf("favorite should lose mu on a draw, got %g", updatedStrong[0].Mu)
	}
	if updatedWeak[0].Mu <= 10 {
		t.Errorf("underdog should gain mu on a draw, got %g", updatedWeak[0].Mu)
	}
}

func TestLossMirrorsWin(t *testing.T) {
	p := DefaultParameters()
	a := []Rating{{Mu: 30, Sigma: 4}}
	b := []Rating{{Mu: 20, Sigma: 6}}

	winA1, winB1, err := p.Update(a, b, OutcomeWin)
	if err != nil {
		t.Fatal(err)
	}

	// Declaring the same game from the other side must yield the same
	// posteriors.
	winB2, winA2, err := p.Update(b, a, OutcomeLoss)
	if err != nil {
		t.Fatal(err)
	}

	if !ratingsAlmostEqual(winA1[0], winA2[0], 1e-12) || !ratingsAlmostEqual(winB1[0], winB2[0], 1e-12) {
		t.Errorf("win/loss asymmetry: %+v vs %+v, %+v vs %+v", winA1[0], winA2[0], winB1[0], winB2[0])
	}
}

func TestUncertainMemberMovesMore(t *testing.T) {
	p := DefaultParameters()
	team := []Rating{
		{Mu: 25, Sigma: 2},
		{Mu: 25, Sigma: 8},
	}
	opponent := []Rating{{Mu: 50, Sigma: 5}}

	updated, _, err := p.Update(team, opponent, OutcomeWin)
	if err != nil {
		t.Fatal(err)
	}

	veteranDelta := updated[0].Mu - team[0].Mu
	rookieDelta := updated[1].Mu - team[1].Mu
	if rookieDelta <= veteranDelta {
		t.Errorf("higher-sigma member should move more: veteran +%g, rookie +%g", veteranDelta, rookieDelta)
	}
}

func TestInvalidInputsAreRejected(t *testing.T) {
	p := DefaultParameters()
	ok := []Rating{NewDefaultRating()}

	cases := []struct {
		name string
		a, b []Rating
	}{
		{"zero sigma", []Rating{{Mu: 25, Sigma: 0}}, ok},
		{"negative sigma", ok, []Rating{{Mu: 25, Sigma: -1}}},
		{"NaN mu", []Rating{{Mu: math.NaN(), Sigma: 8}}, ok},
		{"infinite mu", ok, []Rating{{Mu: math.Inf(1), Sigma: 8}}},
		{"empty party", nil, ok},
	}

	for _, c := range cases {
		if _, _, err := p.Update(c.a, c.b, OutcomeWin); err == nil {
			t.Errorf("%s: expected an error", c.name)
		} else if _, isInvalid := err.(ErrInvalidRating); !isInvalid {
			t.Errorf("%s: expected ErrInvalidRating, got %T", c.name, err)
		}
	}
}

// With no draw margin and equal means, v collapses to phi(0)/Phi(0) and
// the mean shift has the closed form sqrt(2/pi)*(sigma²+tau²)/c with
// c² = 2*(sigma²+tau²) + 2*beta²: the dynamics variance belongs in both
// the numerator and the performance spread.
func TestMeanShiftMatchesClosedForm(t *testing.T) {
	p := Parameters{Beta: 4, Tau: 3, DrawProbability: 0, MinSigma: 1e-4}
	a := []Rating{{Mu: 25, Sigma: 2}}
	b := []Rating{{Mu: 25, Sigma: 2}}

	updatedA, updatedB, err := p.Update(a, b, OutcomeWin)
	if err != nil {
		t.Fatal(err)
	}

	variance := 2.0*2.0 + p.Tau*p.Tau
	c := math.Sqrt(2*variance + 2*p.Beta*p.Beta)
	expected := math.Sqrt(2/math.Pi) * variance / c

	if math.Abs((updatedA[0].Mu-25)-expected) > 1e-9 {
		t.Errorf("winner shift: expected %g, got %g", expected, updatedA[0].Mu-25)
	}
	if math.Abs((25-updatedB[0].Mu)-expected) > 1e-9 {
		t.Errorf("loser shift: expected %g, got %g", expected, 25-updatedB[0].Mu)
	}
}

func TestDrawMarginGrowsWithDrawProbability(t *testing.T) {
	prev := 0.0
	for _, probability := range []float64{0.05, 0.10, 0.25, 0.50} {
		margin := drawMargin(probability, DefaultParameters().Beta, 2)
		if margin <= prev {
			t.Errorf("margin should grow with draw probability, got %g after %g", margin, prev)
		}
		prev = margin
	}
}

func TestNormInvCDFRoundTrips(t *testing.T) {
	for _, p := range []float64{0.001, 0.02, 0.3, 0.5, 0.55, 0.9, 0.999} {
		x := normInvCDF(p)
		if math.Abs(normCDF(x)-p) > 1e-8 {
			t.Errorf("round trip failed for %g: invCDF=%g, CDF back=%g", p, x, normCDF(x))
		}
	}
}
