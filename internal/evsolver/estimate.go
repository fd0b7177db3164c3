// Public domain.

package evsolver

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/soniakeys/ebexvar/internal/evbin"
)

// EstimateAll solves every source of ds.
//
// Sources are independent.  They are solved concurrently, each worker
// writing only its own element of the result.  If any source fails, the
// errors of all failed sources are returned joined, in source order, and
// the estimates are nil.
func (s *Solver) EstimateAll(ds *evbin.Dataset) ([]float64, error) {
	lgf := make([]float64, ds.NS)
	errs := make([]error, ds.NS)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < ds.NS; i++ {
		i := i
		g.Go(func() error {
			a := ds.Aggregate(i)
			x, err := s.Solve(a.Time, a.Bkg, a.Counts)
			if err != nil {
				var de *DegenerateSourceError
				if errors.As(err, &de) {
					de.Source = i
					de.SrcID = ds.SrcID[i]
				}
				errs[i] = err
				return nil
			}
			lgf[i] = x
			return nil
		})
	}
	g.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return lgf, nil
}
