// Public domain.

// Package evsolver computes initial flux estimates for the ebexvar sampler.
//
// For each source the total counts, background and exposure determine a
// search range in log10 flux.  The range is anchored on the detection
// sensitivity floor, the smallest count that a Poisson background of the
// given level exceeds only with probability PFalse.  The estimate is the
// grid point of maximum Poisson likelihood of the observed total count.
package evsolver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultPFalse is the false positive rate of the detection floor, about
// 4.5 sigma one sided.
const DefaultPFalse = 4e-6

// GridSize is the number of log10 flux values evaluated per source.
const GridSize = 1000

// Policy selects what Solve does when the detection floor implies no
// excess over background.
type Policy int

const (
	// Reject returns a DegenerateSourceError.
	Reject Policy = iota
	// Clamp raises the floor to one count above background.
	Clamp
)

func (p Policy) String() string {
	if p == Clamp {
		return "clamp"
	}
	return "reject"
}

// Solver holds parameters of the flux estimate.
type Solver struct {
	PFalse float64
	Policy Policy
}

// New creates a Solver.  pFalse must be in (0, 1).
func New(pFalse float64, policy Policy) (*Solver, error) {
	if !validPFalse(pFalse) {
		return nil, fmt.Errorf("pfalse %g not in (0, 1)", pFalse)
	}
	return &Solver{pFalse, policy}, nil
}

func validPFalse(p float64) bool { return p > 0 && p < 1 }

// DegenerateSourceError reports a source aggregate for which no search
// range can be constructed.
type DegenerateSourceError struct {
	Source int // group index, -1 if unknown
	SrcID  string
	Reason string
}

func (e *DegenerateSourceError) Error() string {
	if e.Source < 0 {
		return "degenerate source: " + e.Reason
	}
	return fmt.Sprintf("degenerate source %d (SRCID %q): %s",
		e.Source, e.SrcID, e.Reason)
}

func degenerate(format string, a ...interface{}) error {
	return &DegenerateSourceError{Source: -1, Reason: fmt.Sprintf(format, a...)}
}

// SenseLimit returns the detection sensitivity floor: the smallest integer
// n with P(X > n) <= pFalse for X Poisson distributed with mean bkg.
//
// The result is non-decreasing in bkg and non-increasing in pFalse.  It is
// NaN if pFalse is not in (0, 1).
func SenseLimit(pFalse, bkg float64) float64 {
	if !validPFalse(pFalse) {
		return math.NaN()
	}
	if bkg <= 0 {
		return 0
	}
	p := distuv.Poisson{Lambda: bkg}
	if p.Survival(0) <= pFalse {
		return 0
	}
	// bracket, then bisect.  invariant: Survival(lo) > pFalse >= Survival(hi)
	lo, hi := 0., math.Max(1, math.Ceil(bkg))
	for p.Survival(hi) > pFalse {
		lo, hi = hi, hi*2
	}
	for hi-lo > 1 {
		mid := math.Floor((lo + hi) / 2)
		if p.Survival(mid) > pFalse {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

// Bounds returns the search range in log10 flux for a source with total
// exposure exp, total background bkg and total count total.
//
// The lower bound is two decades below the flux implied by the detection
// floor.  The upper bound is one decade above the larger of the observed
// excess and the floor.
func (s *Solver) Bounds(exp, bkg, total float64) (lgfMin, lgfMax float64, err error) {
	if !validPFalse(s.PFalse) {
		return 0, 0, fmt.Errorf("pfalse %g not in (0, 1)", s.PFalse)
	}
	switch {
	case math.IsNaN(exp+bkg+total) || math.IsInf(exp+bkg+total, 0):
		return 0, 0, degenerate("non-finite aggregate")
	case exp <= 0:
		return 0, 0, degenerate("exposure %g not positive", exp)
	case bkg < 0:
		return 0, 0, degenerate("negative background %g", bkg)
	case total < 0 || total != math.Trunc(total):
		return 0, 0, degenerate("count %g not a non-negative integer", total)
	}
	nMin := SenseLimit(s.PFalse, bkg)
	if nMin-bkg <= 0 {
		if s.Policy != Clamp {
			return 0, 0, degenerate(
				"detection floor %g not above background %g", nMin, bkg)
		}
		nMin = bkg + 1
	}
	lgfMin = math.Log10((nMin-bkg)/exp) - 2
	if total > nMin {
		lgfMax = math.Log10((total-bkg)/exp) + 1
	} else {
		lgfMax = math.Log10((nMin-bkg)/exp) + 1
	}
	return
}

// Profile evaluates the Poisson log likelihood of total over the search
// grid.  lgf holds GridSize log10 flux values, ascending, both bounds
// included.  logp[i] is the log probability of total given expected count
// 10^lgf[i]*exp + bkg.
func (s *Solver) Profile(exp, bkg, total float64) (lgf, logp []float64, err error) {
	lgfMin, lgfMax, err := s.Bounds(exp, bkg, total)
	if err != nil {
		return nil, nil, err
	}
	lgf = floats.Span(make([]float64, GridSize), lgfMin, lgfMax)
	lgf[GridSize-1] = lgfMax
	logp = make([]float64, GridSize)
	for i, x := range lgf {
		expected := math.Pow(10, x)*exp + bkg
		logp[i] = distuv.Poisson{Lambda: expected}.LogProb(total)
	}
	return
}

// Solve returns the log10 flux of maximum likelihood on the search grid.
// Ties go to the lowest flux.
func (s *Solver) Solve(exp, bkg, total float64) (float64, error) {
	lgf, logp, err := s.Profile(exp, bkg, total)
	if err != nil {
		return 0, err
	}
	return lgf[floats.MaxIdx(logp)], nil
}
