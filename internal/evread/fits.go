// Public domain.

package evread

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/soniakeys/ebexvar/internal/evbin"
)

// ReadFITS reads the first table HDU of the FITS file fn.  Files ending in
// .gz are decompressed.  SRCID may be a string or an integer column; the
// other columns may be of any numeric type.  Column names match without
// regard to case.
func ReadFITS(fn string) (evbin.Table, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(fn), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		defer zr.Close()
		r = zr
	}
	t, err := readFITS(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return t, nil
}

func readFITS(r io.Reader) (evbin.Table, error) {
	ff, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer ff.Close()
	var tbl *fitsio.Table
	for _, hdu := range ff.HDUs() {
		if hdu.Type() == fitsio.BINARY_TBL || hdu.Type() == fitsio.ASCII_TBL {
			tbl = hdu.(*fitsio.Table)
			break
		}
	}
	if tbl == nil {
		return nil, fmt.Errorf("no table HDU")
	}
	// FITS column name of each of Columns
	names := make([]string, len(Columns))
	for i, want := range Columns {
		for _, c := range tbl.Cols() {
			if strings.EqualFold(c.Name, want) {
				names[i] = c.Name
				break
			}
		}
		if names[i] == "" {
			return nil, fmt.Errorf("table %s missing column %s", tbl.Name(), want)
		}
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var t evbin.Table
	for rows.Next() {
		data := map[string]interface{}{}
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("row %d: %w", len(t), err)
		}
		var row evbin.Row
		var ok bool
		if row.SrcID, ok = fitsString(data[names[0]]); !ok {
			return nil, fmt.Errorf("row %d: SRCID of type %T", len(t), data[names[0]])
		}
		for i, p := range []*float64{&row.Counts, &row.Bkg, &row.Time, &row.DTYears} {
			if *p, ok = fitsFloat(data[names[i+1]]); !ok {
				return nil, fmt.Errorf("row %d: %s of type %T",
					len(t), Columns[i+1], data[names[i+1]])
			}
		}
		t = append(t, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func fitsString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimRight(x, " \x00"), true
	case int64, int32, int16, int8, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true
	}
	return "", false
}

func fitsFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// WriteFITS writes t to file fn as a binary table HDU named name, after an
// empty primary HDU.  Counts are written as 64 bit integers.
func WriteFITS(fn, name string, t evbin.Table) error {
	w := 1
	for _, r := range t {
		if len(r.SrcID) > w {
			w = len(r.SrcID)
		}
	}
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err = writeFITS(f, name, w, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFITS(w io.Writer, name string, idWidth int, t evbin.Table) error {
	ff, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer ff.Close()
	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return err
	}
	if err = ff.Write(phdu); err != nil {
		return err
	}
	tbl, err := fitsio.NewTable(name, []fitsio.Column{
		{Name: "SRCID", Format: strconv.Itoa(idWidth) + "A"},
		{Name: "counts", Format: "K"},
		{Name: "bkg", Format: "D"},
		{Name: "time", Format: "D"},
		{Name: "DTYEARS", Format: "D"},
	}, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer tbl.Close()
	for _, r := range t {
		id, c := r.SrcID, int64(r.Counts)
		if err = tbl.Write(&id, &c, &r.Bkg, &r.Time, &r.DTYears); err != nil {
			return err
		}
	}
	return ff.Write(tbl)
}
