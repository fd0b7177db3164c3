// Public domain.

package evprog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/ebexvar/internal/evsolver"
	"github.com/soniakeys/ebexvar/internal/evstan"
)

type config struct {
	pFalse   float64
	policy   evsolver.Policy
	seed     uint64
	stan     evstan.Config
	plots    bool
	headings bool
}

func defaultConfig() *config {
	return &config{
		pFalse:   evsolver.DefaultPFalse,
		policy:   evsolver.Reject,
		seed:     1,
		stan:     evstan.DefaultConfig(),
		headings: true,
	}
}

// readConfig returns the default configuration modified by the config
// file, if there is one.  a missing default config file is not an error,
// a missing file named with -c is.
func readConfig(cl *commandLine) *config {
	cf := defaultConfig()
	defer func() { cf.plots = cf.plots || cl.plots }()
	f, err := os.Open(cl.fixupCP(cl.dc, Cfn))
	if err != nil {
		if cl.dc == "" {
			return cf
		}
		exit.Log(err)
	}
	defer f.Close()
	if err := parseConfig(f, cf); err != nil {
		exit.Log(fmt.Errorf("%s: %w", f.Name(), err))
	}
	return cf
}

// parseConfig reads keyword lines into cf.  A keyword taking a value is
// followed by the value, optionally separated by =.
func parseConfig(r io.Reader, cf *config) error {
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		ls := strings.TrimSpace(sc.Text())
		if ls == "" || ls[0] == '#' {
			continue
		}
		if err := parseLine(ls, cf); err != nil {
			return fmt.Errorf("line %d: %s: %w", ln, ls, err)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return cf.stan.Validate()
}

func parseLine(ls string, cf *config) error {
	switch ls {
	case "reject":
		cf.policy = evsolver.Reject
		return nil
	case "clamp":
		cf.policy = evsolver.Clamp
		return nil
	case "plots":
		cf.plots = true
		return nil
	case "noplots":
		cf.plots = false
		return nil
	case "headings":
		cf.headings = true
		return nil
	case "noheadings":
		cf.headings = false
		return nil
	}
	k, v, ok := strings.Cut(ls, "=")
	if !ok {
		f := strings.Fields(ls)
		k, v = f[0], strings.Join(f[1:], " ")
	}
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("unrecognized keyword")
	}
	var err error
	switch k {
	case "pfalse":
		var p float64
		if p, err = strconv.ParseFloat(v, 64); err == nil && (p <= 0 || p >= 1) {
			err = fmt.Errorf("pfalse %g not in (0, 1)", p)
		}
		cf.pFalse = p
	case "seed":
		if cf.seed, err = strconv.ParseUint(v, 10, 31); err == nil {
			cf.stan.Seed = int(cf.seed)
		}
	case "chains":
		cf.stan.Chains, err = strconv.Atoi(v)
	case "warmup":
		cf.stan.IterWarmup, err = strconv.Atoi(v)
	case "sampling":
		cf.stan.IterSampling, err = strconv.Atoi(v)
	case "adaptdelta":
		cf.stan.AdaptDelta, err = strconv.ParseFloat(v, 64)
	case "maxtreedepth":
		cf.stan.MaxTreedepth, err = strconv.Atoi(v)
	case "threads":
		cf.stan.Threads, err = strconv.Atoi(v)
	default:
		err = fmt.Errorf("unrecognized keyword")
	}
	return err
}
