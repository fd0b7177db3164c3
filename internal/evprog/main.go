// Public domain.

// Package evprog implements the ebexvar command.
package evprog

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/soniakeys/exit"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/ebexvar/internal/evbin"
	"github.com/soniakeys/ebexvar/internal/evplot"
	"github.com/soniakeys/ebexvar/internal/evread"
	"github.com/soniakeys/ebexvar/internal/evsolver"
	"github.com/soniakeys/ebexvar/internal/evstan"
)

const versionString = "ebexvar version 0.1 Go source."
const copyrightString = "Public domain."

// Cfn is the default config file name.
const Cfn = "ebexvar.config"

func Main() {
	defer exit.Handler()

	cl := parseCommandLine()
	if cl.q {
		log.SetOutput(io.Discard)
	}
	cf := readConfig(cl)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cl, cf, os.Stdout); err != nil {
		exit.Log(err)
	}
}

// run does everything after the command line and config file are read.
// any error aborts before the sampler is started.
func run(ctx context.Context, cl *commandLine, cf *config, w io.Writer) error {
	t, err := evread.ReadFile(cl.fnTable, cl.table)
	if err != nil {
		return err
	}
	ds, err := evbin.New(t)
	if err != nil {
		return fmt.Errorf("%s: %w", cl.fnTable, err)
	}
	log.Printf("%s: %d sources, %d bins", cl.fnTable, ds.NS, ds.NC())

	solver, err := evsolver.New(cf.pFalse, cf.policy)
	if err != nil {
		return err
	}
	g, err := evsolver.NewGuess(solver, ds, cf.seed)
	if err != nil {
		return err
	}
	if cf.headings {
		fmt.Fprintln(w, versionString)
	}
	printSources(w, ds, g.LgcrMean, cf.headings)

	if cf.plots && ds.NS > 0 {
		if err := os.MkdirAll(cl.out, 0755); err != nil {
			return err
		}
		for i := 0; i < ds.NS; i++ {
			fn := filepath.Join(cl.out, evplot.FileName(i, ds.SrcID[i]))
			if err := evplot.LightCurve(fn, ds, i, g.LgcrMean[i]); err != nil {
				return err
			}
		}
		log.Printf("%d plots written to %s", ds.NS, cl.out)
	}

	if cl.stan == "" {
		return nil
	}
	if ds.NS == 0 {
		log.Println("no sources, sampler not run")
		return nil
	}
	dir := filepath.Join(cl.out, "run-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := evstan.WriteJSON(filepath.Join(dir, evstan.DataFile),
		evstan.NewData(ds, g.LgcrMean)); err != nil {
		return err
	}
	if err := evstan.WriteJSON(filepath.Join(dir, evstan.InitsFile),
		evstan.NewInits(g)); err != nil {
		return err
	}
	log.Printf("running %d chains in %s", cf.stan.Chains, dir)
	out, err := evstan.Run(ctx, cl.stan, dir, cf.stan)
	if err != nil {
		return err
	}
	d, err := evstan.ReadFiles(out)
	if err != nil {
		return err
	}
	printDraws(w, d, cf.headings)
	div, sat := d.Diagnose(cf.stan.MaxTreedepth)
	n := len(d.Divergent)
	if n == 0 && len(d.Cols) > 0 {
		n = len(d.Cols[0])
	}
	fmt.Fprintf(w, "Diagnostics: %d of %d transitions divergent, "+
		"%d at max tree depth %d\n", div, n, sat, cf.stan.MaxTreedepth)
	if div > 0 || sat > 0 {
		log.Printf("sampler diagnostics: %d divergent, %d at max tree depth",
			div, sat)
	}
	return nil
}

func printSources(w io.Writer, ds *evbin.Dataset, lgf []float64, headings bool) {
	if headings {
		fmt.Fprintf(w, "%-12s %5s %8s %9s %9s %8s %8s\n",
			"SRCID", "Bins", "Counts", "Bkg", "Exp(d)", "Span(d)", "LgFlux")
	}
	for i := 0; i < ds.NS; i++ {
		a := ds.Aggregate(i)
		i1, i2 := ds.Rows(i)
		fmt.Fprintf(w, "%-12s %5d %8.0f %9.2f %9.3f %8.1f %8.3f\n",
			ds.SrcID[i], i2-i1, a.Counts, a.Bkg,
			unit.Time(a.Time).Day(), ds.Span(i)*base.JulianYear, lgf[i])
	}
}

func printDraws(w io.Writer, d *evstan.Draws, headings bool) {
	if headings {
		fmt.Fprintf(w, "%-14s", "Parameter")
		for _, p := range evstan.Probs {
			fmt.Fprintf(w, " %8s", fmt.Sprintf("q%02.0f", p*100))
		}
		fmt.Fprintln(w)
	}
	for _, s := range d.Summary() {
		fmt.Fprintf(w, "%-14s", s.Name)
		for _, q := range s.Q {
			fmt.Fprintf(w, " %8.4f", q)
		}
		fmt.Fprintln(w)
	}
	if a := d.Col("A"); a != nil {
		q := evstan.NEV(a)
		fmt.Fprintf(w, "NEV quantiles: %.4g %.4g %.4g\n", q[0], q[1], q[2])
	}
}

type commandLine struct {
	dc      string // config file
	dp      string // default path
	out     string // output directory
	stan    string // model executable
	table   string // sqlite table
	plots   bool   // -plots option
	q       bool   // -q option
	fnTable string // light curves
}

func parseCommandLine() *commandLine {
	var cl commandLine
	dh := flag.Bool("h", false, "")
	dv := flag.Bool("v", false, "")
	flag.StringVar(&cl.dc, "c", "", "")
	flag.StringVar(&cl.dp, "p", ".", "")
	flag.StringVar(&cl.out, "o", ".", "")
	flag.StringVar(&cl.stan, "stan", "", "")
	flag.StringVar(&cl.table, "table", evread.DefaultTable, "")
	flag.BoolVar(&cl.plots, "plots", false, "")
	flag.BoolVar(&cl.q, "q", false, "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: ebexvar [options] <table>    estimate initial fluxes for a table
       ebexvar -h                   display help and quick reference
       ebexvar -v                   display version and copyright

Options:
       -c <config-file>
       -p <path>          default location of ` + Cfn + `
       -o <dir>           output directory for plots and sampler runs
       -stan <model>      CmdStan model executable to run
       -table <name>      table to read from a SQLite file
       -plots             write a light curve plot per source
       -q                 no progress messages
`)
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	case flag.NArg() != 1:
		flag.Usage()
		os.Exit(1)
	}
	cl.fnTable = flag.Arg(0)
	return &cl
}

func (cl *commandLine) fixupCP(fnSpec, fnDefault string) string {
	if fnSpec > "" {
		return fnSpec
	}
	return filepath.Join(cl.dp, fnDefault)
}

func printHelp() {
	fmt.Println(`
Ebexvar estimates a starting log10 flux for every source of a light curve
table and hands the table and starting point to a CmdStan build of the
variability model.  Input is a table with columns SRCID, counts, bkg, time
and DTYEARS, one row per time bin, rows of each source contiguous.

Config file keywords:
   pfalse <p>
   seed <n>
   chains <n>
   warmup <n>
   sampling <n>
   adaptdelta <x>
   maxtreedepth <n>
   threads <n>
   reject
   clamp
   plots
   noplots
   headings
   noheadings

For full documentation:
   go doc github.com/soniakeys/ebexvar`)
}
