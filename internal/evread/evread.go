// Public domain.

// Package evread reads light curve tables.
//
// Four formats are recognized by file name extension.  Files ending in
// .fits, .fit, .fts or .fits.gz are FITS tables, .db, .sqlite or .sqlite3
// are SQLite databases, .gob files hold a gob encoded evbin.Table, and
// anything else is read as a text table.
//
// A text table is whitespace separated.  The first non-comment line names
// the columns and must include SRCID, counts, bkg, time and DTYEARS, in any
// order.  Other columns are ignored.  Lines starting with # and blank lines
// are skipped.
//
// Rows are returned in file order.  They are never sorted.
package evread

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soniakeys/ebexvar/internal/evbin"
)

// Columns lists the required column names.
var Columns = []string{"SRCID", "counts", "bkg", "time", "DTYEARS"}

// DefaultTable is the SQLite table read when none is named.
const DefaultTable = "lightcurves"

// ReadFile reads the table in file fn.  table names the SQLite table and is
// ignored for other formats.
func ReadFile(fn, table string) (evbin.Table, error) {
	if strings.HasSuffix(strings.ToLower(fn), ".fits.gz") {
		return ReadFITS(fn)
	}
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".fits", ".fit", ".fts":
		return ReadFITS(fn)
	case ".db", ".sqlite", ".sqlite3":
		return ReadSQLite(fn, table)
	case ".gob":
		return evbin.ReadFile(fn)
	}
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadText(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return t, nil
}

// ReadText reads a text table.
func ReadText(r io.Reader) (evbin.Table, error) {
	var t evbin.Table
	var col []int // field index of each of Columns
	nf := 0
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := strings.Fields(line)
		if col == nil {
			var err error
			if col, err = header(f); err != nil {
				return nil, fmt.Errorf("line %d: %w", ln, err)
			}
			nf = len(f)
			continue
		}
		if len(f) != nf {
			return nil, fmt.Errorf("line %d: %d fields, header has %d",
				ln, len(f), nf)
		}
		var v [4]float64
		for i := range v {
			x, err := strconv.ParseFloat(f[col[i+1]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w",
					ln, Columns[i+1], err)
			}
			v[i] = x
		}
		t = append(t, evbin.Row{
			SrcID:   f[col[0]],
			Counts:  v[0],
			Bkg:     v[1],
			Time:    v[2],
			DTYears: v[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("no header line")
	}
	return t, nil
}

func header(f []string) ([]int, error) {
	col := make([]int, len(Columns))
	for i, name := range Columns {
		col[i] = -1
		for j, h := range f {
			if h == name {
				col[i] = j
				break
			}
		}
		if col[i] < 0 {
			return nil, fmt.Errorf("header missing column %s", name)
		}
	}
	return col, nil
}

// WriteText writes t as a text table readable by ReadText.
func WriteText(w io.Writer, t evbin.Table) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, strings.Join(Columns, " "))
	for _, r := range t {
		fmt.Fprintf(bw, "%s %g %g %g %g\n",
			r.SrcID, r.Counts, r.Bkg, r.Time, r.DTYears)
	}
	return bw.Flush()
}
