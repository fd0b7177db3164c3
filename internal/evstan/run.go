// Public domain.

package evstan

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// File names written in the run directory.
const (
	DataFile  = "data.json"
	InitsFile = "inits.json"
)

// Config holds sampler settings.
type Config struct {
	Chains       int
	IterWarmup   int
	IterSampling int
	Seed         int
	AdaptDelta   float64
	MaxTreedepth int
	Threads      int // per chain, for models built with STAN_THREADS
}

// DefaultConfig returns the settings ebexvar runs with unless configured
// otherwise.
func DefaultConfig() Config {
	return Config{
		Chains:       4,
		IterWarmup:   3000,
		IterSampling: 2000,
		Seed:         1,
		AdaptDelta:   .95,
		MaxTreedepth: 12,
		Threads:      1,
	}
}

// Validate reports the first setting out of range.
func (c Config) Validate() error {
	switch {
	case c.Chains < 1:
		return fmt.Errorf("chains %d < 1", c.Chains)
	case c.IterWarmup < 0:
		return fmt.Errorf("warmup %d < 0", c.IterWarmup)
	case c.IterSampling < 1:
		return fmt.Errorf("sampling %d < 1", c.IterSampling)
	case c.Seed < 0:
		return fmt.Errorf("seed %d < 0", c.Seed)
	case c.AdaptDelta <= 0 || c.AdaptDelta >= 1:
		return fmt.Errorf("adaptdelta %g not in (0, 1)", c.AdaptDelta)
	case c.MaxTreedepth < 1:
		return fmt.Errorf("maxtreedepth %d < 1", c.MaxTreedepth)
	case c.Threads < 1:
		return fmt.Errorf("threads %d < 1", c.Threads)
	}
	return nil
}

// OutputFile returns the name of the draws file of chain, numbered from 1.
func OutputFile(chain int) string {
	return "output-" + strconv.Itoa(chain) + ".csv"
}

// Args returns the CmdStan command line arguments for one chain,
// numbered from 1.  All chains share the seed; CmdStan offsets the
// generator by chain id.
func (c Config) Args(data, inits, output string, chain int) []string {
	return []string{
		"id=" + strconv.Itoa(chain),
		"random", "seed=" + strconv.Itoa(c.Seed),
		"data", "file=" + data,
		"init=" + inits,
		"output", "file=" + output,
		"num_threads=" + strconv.Itoa(c.Threads),
		"method=sample",
		"num_samples=" + strconv.Itoa(c.IterSampling),
		"num_warmup=" + strconv.Itoa(c.IterWarmup),
		"algorithm=hmc", "engine=nuts",
		"max_depth=" + strconv.Itoa(c.MaxTreedepth),
		"adapt", "delta=" + strconv.FormatFloat(c.AdaptDelta, 'g', -1, 64),
	}
}

// Run runs the model executable exe once per chain, concurrently, in
// directory dir.  DataFile and InitsFile must already be there.  Each
// chain's console output goes to output-<chain>.log.  The returned names
// are the draws files, in chain order.
//
// Cancelling ctx kills the running chains.
func Run(ctx context.Context, exe, dir string, c Config) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	exe, err := filepath.Abs(exe)
	if err != nil {
		return nil, err
	}
	out := make([]string, c.Chains)
	g, ctx := errgroup.WithContext(ctx)
	for ch := 1; ch <= c.Chains; ch++ {
		ch := ch
		out[ch-1] = filepath.Join(dir, OutputFile(ch))
		g.Go(func() error {
			logf, err := os.Create(filepath.Join(dir,
				fmt.Sprintf("output-%d.log", ch)))
			if err != nil {
				return err
			}
			defer logf.Close()
			cmd := exec.CommandContext(ctx, exe,
				c.Args(DataFile, InitsFile, OutputFile(ch), ch)...)
			cmd.Dir = dir
			cmd.Stdout = logf
			cmd.Stderr = logf
			if err := cmd.Run(); err != nil {
				return fmt.Errorf("chain %d: %w (see %s)", ch, err, logf.Name())
			}
			log.Printf("chain %d done", ch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
