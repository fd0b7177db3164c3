// Public domain.

// Package evbin defines the light curve table and the grouped dataset used
// by ebexvar.
//
// A Table is flat, one Row per time bin, with the rows of each source
// contiguous.  New groups a Table into a Dataset, a read-only view with one
// index range per source.
package evbin

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
)

// Tfn is the default name for a gob encoded table.
const Tfn = "ebexvar.gob"

// Row is one time bin of one source.
//
// Column names in external tables are SRCID, counts, bkg, time, DTYEARS.
type Row struct {
	SrcID   string
	Counts  float64 // observed events, integer valued
	Bkg     float64 // expected background events
	Time    float64 // exposure, seconds
	DTYears float64 // calendar duration of the bin
}

// Table is a flat light curve table.  Rows of a source must be contiguous.
type Table []Row

// Dataset holds a Table grouped by source.
//
// Group i occupies rows Indices[i] up to but not including Indices[i+1].
// The per-row slices are columns of the table the Dataset was built from.
// A Dataset is not modified after New returns it.
type Dataset struct {
	NS      int      // number of sources
	Indices []int    // NS+1 group boundaries
	SrcID   []string // identifier of each group

	Counts  []float64
	Bkg     []float64
	Time    []float64
	DTYears []float64
}

// Aggregate holds sums over the rows of one source.
type Aggregate struct {
	Counts, Bkg, Time float64
}

// MalformedInputError reports a table that cannot be grouped or a row with
// values outside their domain.
type MalformedInputError struct {
	Row    int
	SrcID  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("row %d, SRCID %q: %s", e.Row, e.SrcID, e.Reason)
}

// New groups t by source.
//
// Rows are not sorted.  A source identifier that appears again after rows
// of another source is a MalformedInputError.  An empty table gives a
// Dataset with NS == 0 and Indices == [0].
func New(t Table) (*Dataset, error) {
	nc := len(t)
	ds := &Dataset{
		Indices: []int{},
		SrcID:   []string{},
		Counts:  make([]float64, nc),
		Bkg:     make([]float64, nc),
		Time:    make([]float64, nc),
		DTYears: make([]float64, nc),
	}
	seen := make(map[string]bool)
	for i, r := range t {
		if err := checkRow(i, r); err != nil {
			return nil, err
		}
		if i == 0 || r.SrcID != t[i-1].SrcID {
			if seen[r.SrcID] {
				return nil, &MalformedInputError{i, r.SrcID,
					"source rows are not contiguous"}
			}
			seen[r.SrcID] = true
			ds.Indices = append(ds.Indices, i)
			ds.SrcID = append(ds.SrcID, r.SrcID)
		}
		ds.Counts[i] = r.Counts
		ds.Bkg[i] = r.Bkg
		ds.Time[i] = r.Time
		ds.DTYears[i] = r.DTYears
	}
	ds.NS = len(ds.SrcID)
	ds.Indices = append(ds.Indices, nc)
	return ds, nil
}

func checkRow(i int, r Row) error {
	bad := func(reason string) error {
		return &MalformedInputError{i, r.SrcID, reason}
	}
	for _, v := range [...]float64{r.Counts, r.Bkg, r.Time, r.DTYears} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return bad("non-finite value")
		}
	}
	switch {
	case r.Counts < 0 || r.Counts != math.Trunc(r.Counts):
		return bad(fmt.Sprintf("counts %g not a non-negative integer", r.Counts))
	case r.Bkg < 0:
		return bad(fmt.Sprintf("negative background %g", r.Bkg))
	case r.Time <= 0:
		return bad(fmt.Sprintf("exposure %g not positive", r.Time))
	}
	return nil
}

// NC returns the number of rows, or time bins, in the dataset.
func (ds *Dataset) NC() int {
	return len(ds.Counts)
}

// Rows returns the row range of source i.
func (ds *Dataset) Rows(i int) (i1, i2 int) {
	return ds.Indices[i], ds.Indices[i+1]
}

// Aggregate sums counts, background and exposure over the rows of source i.
func (ds *Dataset) Aggregate(i int) (a Aggregate) {
	i1, i2 := ds.Rows(i)
	for j := i1; j < i2; j++ {
		a.Counts += ds.Counts[j]
		a.Bkg += ds.Bkg[j]
		a.Time += ds.Time[j]
	}
	return
}

// Span returns the summed DTYEARS of source i.
func (ds *Dataset) Span(i int) (years float64) {
	i1, i2 := ds.Rows(i)
	for _, dt := range ds.DTYears[i1:i2] {
		years += dt
	}
	return
}

// ReadFile reads a gob encoded table written by WriteFile.
func ReadFile(fn string) (t Table, err error) {
	var f *os.File
	f, err = os.Open(fn)
	if err != nil {
		return
	}
	defer f.Close()
	err = gob.NewDecoder(f).Decode(&t)
	return
}

// WriteFile writes t gob encoded to file fn.
func WriteFile(fn string, t Table) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(f).Encode(t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
