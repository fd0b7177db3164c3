// Public domain.

package evsolver

import (
	"math"

	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/ebexvar/internal/evbin"
)

// Starting values of the hyperparameters.
var (
	StartA = math.Log10(.1)
	StartB = .5
)

// Guess is a starting point for the sampler chains.
type Guess struct {
	LgcrMean []float64 // log10 flux per source
	A, B     float64
	RawSigma []float64 // standard normal, one per source
	Raw      []float64 // standard normal, one per time bin
}

// Rand is the random number source used for the helper parameters.
type Rand interface {
	NormFloat64() float64
}

// NewGuess builds the starting point for dataset ds.
//
// The same seed and dataset always give the same Guess.  All RawSigma draws
// are taken before the Raw draws, from one PCG generator.
func NewGuess(s *Solver, ds *evbin.Dataset, seed uint64) (*Guess, error) {
	lgf, err := s.EstimateAll(ds)
	if err != nil {
		return nil, err
	}
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(seed)
	return &Guess{
		LgcrMean: lgf,
		A:        StartA,
		B:        StartB,
		RawSigma: normals(rnd, ds.NS),
		Raw:      normals(rnd, ds.NC()),
	}, nil
}

func normals(rnd Rand, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = rnd.NormFloat64()
	}
	return x
}
