// Public domain.

// Package evstan hands a grouped dataset and its starting point to the
// CmdStan build of the variability model, and summarizes the draws.
package evstan

import (
	"encoding/json"
	"os"

	"github.com/soniakeys/ebexvar/internal/evbin"
	"github.com/soniakeys/ebexvar/internal/evsolver"
)

// Data is the data block of the model.
//
// Indices are zero based row boundaries, NS+1 of them.
type Data struct {
	NS      int       `json:"NS"`
	NI      int       `json:"NI"`
	NC      int       `json:"NC"`
	Indices []int     `json:"indices"`
	Counts  []float64 `json:"counts"`
	Time    []float64 `json:"time"`
	Bkg     []float64 `json:"bkg"`
	DTYR    []float64 `json:"DTYR"`
	Lgf0    []float64 `json:"lgf0"`
}

// NewData builds the data block from ds and the per-source flux estimates.
func NewData(ds *evbin.Dataset, lgf0 []float64) *Data {
	return &Data{
		NS:      ds.NS,
		NI:      len(ds.Indices),
		NC:      ds.NC(),
		Indices: ds.Indices,
		Counts:  ds.Counts,
		Time:    ds.Time,
		Bkg:     ds.Bkg,
		DTYR:    ds.DTYears,
		Lgf0:    lgf0,
	}
}

// Inits holds initial values of the model parameters.
type Inits struct {
	LgcrMean []float64 `json:"LGCR_MEAN"`
	A        float64   `json:"A"`
	B        float64   `json:"B"`
	RawSigma []float64 `json:"raw_sigma"`
	Raw      []float64 `json:"raw"`
}

// NewInits converts a Guess.
func NewInits(g *evsolver.Guess) *Inits {
	return &Inits{g.LgcrMean, g.A, g.B, g.RawSigma, g.Raw}
}

// WriteJSON writes v as JSON to file fn.
func WriteJSON(fn string, v interface{}) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err = json.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
