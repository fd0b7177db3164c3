// Public domain.

package evstan

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Probs are the quantile levels reported for each parameter: the median,
// the 1 sigma interval, then the 90 percent interval.
var Probs = [5]float64{.5, .16, .84, .05, .95}

// Draws holds posterior draws by parameter.  Vector elements are separate
// parameters named as in the CSV header, NAME.k.
type Draws struct {
	Names []string
	Cols  [][]float64

	// sampler diagnostics per draw, nil if the file has none
	Divergent []float64
	Treedepth []float64
}

// ReadCSV reads a Stan CSV draws file.  Comment lines are skipped.
// Sampler diagnostics, columns ending in "__", are dropped from Names and
// Cols.  divergent__ and treedepth__ are kept in Divergent and Treedepth.
func ReadCSV(r io.Reader) (*Draws, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	hdr, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("no header")
		}
		return nil, err
	}
	d := &Draws{}
	var keep []int
	iDiv, iDepth := -1, -1
	for i, h := range hdr {
		switch h {
		case "divergent__":
			iDiv = i
		case "treedepth__":
			iDepth = i
		}
		if strings.HasSuffix(h, "__") {
			continue
		}
		keep = append(keep, i)
		d.Names = append(d.Names, h)
	}
	d.Cols = make([][]float64, len(keep))
	for ln := 1; ; ln++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return d, nil
		}
		if err != nil {
			return nil, err
		}
		for j, i := range keep {
			x, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("draw %d, %s: %w", ln, hdr[i], err)
			}
			d.Cols[j] = append(d.Cols[j], x)
		}
		for _, c := range []struct {
			i   int
			col *[]float64
		}{{iDiv, &d.Divergent}, {iDepth, &d.Treedepth}} {
			if c.i < 0 {
				continue
			}
			x, err := strconv.ParseFloat(rec[c.i], 64)
			if err != nil {
				return nil, fmt.Errorf("draw %d, %s: %w", ln, hdr[c.i], err)
			}
			*c.col = append(*c.col, x)
		}
	}
}

// ReadFiles reads and concatenates the draws of several chains.
func ReadFiles(fns []string) (*Draws, error) {
	var all *Draws
	for _, fn := range fns {
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		d, err := ReadCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		if all == nil {
			all = d
			continue
		}
		if err = all.Append(d); err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
	}
	if all == nil {
		return nil, fmt.Errorf("no draws files")
	}
	return all, nil
}

// Append adds the draws of o, which must have the same parameters.
func (d *Draws) Append(o *Draws) error {
	if len(o.Names) != len(d.Names) {
		return fmt.Errorf("%d parameters, want %d", len(o.Names), len(d.Names))
	}
	for i, n := range o.Names {
		if n != d.Names[i] {
			return fmt.Errorf("parameter %d is %s, want %s", i, n, d.Names[i])
		}
		d.Cols[i] = append(d.Cols[i], o.Cols[i]...)
	}
	d.Divergent = append(d.Divergent, o.Divergent...)
	d.Treedepth = append(d.Treedepth, o.Treedepth...)
	return nil
}

// Diagnose counts divergent transitions and draws that hit tree depth
// maxDepth.  Both are 0 for files without the diagnostic columns.
func (d *Draws) Diagnose(maxDepth int) (divergent, saturated int) {
	for _, x := range d.Divergent {
		if x != 0 {
			divergent++
		}
	}
	for _, x := range d.Treedepth {
		if x >= float64(maxDepth) {
			saturated++
		}
	}
	return
}

// Col returns the draws of parameter name, nil if there is none.
func (d *Draws) Col(name string) []float64 {
	for i, n := range d.Names {
		if n == name {
			return d.Cols[i]
		}
	}
	return nil
}

// Summary is the quantiles of one parameter, at levels Probs.
type Summary struct {
	Name string
	Q    [5]float64
}

// Summary returns quantiles of every parameter, in header order.
func (d *Draws) Summary() []Summary {
	s := make([]Summary, len(d.Names))
	for i, n := range d.Names {
		s[i] = Summary{n, Quantiles(d.Cols[i])}
	}
	return s
}

// Quantiles returns the quantiles of x at levels Probs.  Quantile p is
// interpolated linearly at position (n-1)p of the sorted draws, numbered
// from 0.  All are NaN if x is empty.
func Quantiles(x []float64) (q [5]float64) {
	if len(x) == 0 {
		for i := range q {
			q[i] = math.NaN()
		}
		return
	}
	s := append([]float64{}, x...)
	sort.Float64s(s)
	for i, p := range Probs {
		q[i] = quantile(p, s)
	}
	return
}

// quantile of sorted s, len(s) > 0.
func quantile(p float64, s []float64) float64 {
	h := float64(len(s)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(s) {
		return s[len(s)-1]
	}
	return s[i] + (h-lo)*(s[i+1]-s[i])
}

// NEV returns the median and 1 sigma interval of the normalized excess
// variance 10^A, given draws of A.
func NEV(a []float64) (q [3]float64) {
	nev := make([]float64, len(a))
	for i, x := range a {
		nev[i] = math.Pow(10, x)
	}
	q5 := Quantiles(nev)
	copy(q[:], q5[:3])
	return
}
