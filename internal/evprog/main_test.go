// Public domain.

package evprog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/ebexvar/internal/evbin"
	"github.com/soniakeys/ebexvar/internal/evsolver"
)

func TestParseConfig(t *testing.T) {
	t.Run("keywords", func(t *testing.T) {
		cf := defaultConfig()
		err := parseConfig(strings.NewReader(`
# test config
pfalse 1e-5
seed = 7
chains 2
warmup=100
sampling 50
adaptdelta 0.9
maxtreedepth 10
threads 4
clamp
plots
noheadings
`), cf)
		require.NoError(t, err)
		assert.Equal(t, 1e-5, cf.pFalse)
		assert.Equal(t, uint64(7), cf.seed)
		assert.Equal(t, 7, cf.stan.Seed)
		assert.Equal(t, 2, cf.stan.Chains)
		assert.Equal(t, 100, cf.stan.IterWarmup)
		assert.Equal(t, 50, cf.stan.IterSampling)
		assert.Equal(t, .9, cf.stan.AdaptDelta)
		assert.Equal(t, 10, cf.stan.MaxTreedepth)
		assert.Equal(t, 4, cf.stan.Threads)
		assert.Equal(t, evsolver.Clamp, cf.policy)
		assert.True(t, cf.plots)
		assert.False(t, cf.headings)
	})

	t.Run("defaults", func(t *testing.T) {
		cf := defaultConfig()
		require.NoError(t, parseConfig(strings.NewReader(""), cf))
		assert.Equal(t, evsolver.DefaultPFalse, cf.pFalse)
		assert.Equal(t, evsolver.Reject, cf.policy)
		assert.Equal(t, 4, cf.stan.Chains)
	})

	for _, bad := range []string{
		"colour blue",
		"verbose",
		"pfalse 2",
		"pfalse x",
		"chains 0",
		"seed -1",
		"adaptdelta 1.5",
	} {
		t.Run(bad, func(t *testing.T) {
			assert.Error(t, parseConfig(strings.NewReader(bad), defaultConfig()))
		})
	}
}

const table = `SRCID counts bkg time DTYEARS
1001 12 1.0 500 0.5
1001 19 1.1 520 0.5
1001 15 0.9 480 0.5
1002 3 0.4 450 0.5
1002 1 0.4 460 0.5
`

func writeTable(t *testing.T, src string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "lc.txt")
	require.NoError(t, os.WriteFile(fn, []byte(src), 0644))
	return fn
}

func TestRunNoSampler(t *testing.T) {
	out := t.TempDir()
	cl := &commandLine{fnTable: writeTable(t, table), out: out}
	cf := defaultConfig()
	cf.plots = true
	var b bytes.Buffer
	require.NoError(t, run(context.Background(), cl, cf, &b))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, versionString, lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "1001"))
	assert.True(t, strings.HasPrefix(lines[3], "1002"))
	assert.Contains(t, lines[2], "   46 ") // total counts

	for _, fn := range []string{"lc-1-1001.png", "lc-2-1002.png"} {
		_, err := os.Stat(filepath.Join(out, fn))
		assert.NoError(t, err)
	}
}

func TestRunPlotsNewDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plots", "run1")
	src := `SRCID counts bkg time DTYEARS
a/b 30 0.5 400 0.5
a/b 16 0.5 420 0.5
a_b 3 0.4 450 0.5
`
	cl := &commandLine{fnTable: writeTable(t, src), out: out}
	cf := defaultConfig()
	cf.plots = true
	require.NoError(t, run(context.Background(), cl, cf, &bytes.Buffer{}))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"lc-1-a_b.png", "lc-2-a_b.png"}, names)
}

func TestRunEmpty(t *testing.T) {
	cl := &commandLine{fnTable: writeTable(t, "SRCID counts bkg time DTYEARS\n"),
		out: t.TempDir(), stan: "/nonexistent/model"}
	cf := defaultConfig()
	cf.headings = false
	var b bytes.Buffer
	require.NoError(t, run(context.Background(), cl, cf, &b))
	assert.Empty(t, b.String())
}

func TestRunAborts(t *testing.T) {
	t.Run("malformed table", func(t *testing.T) {
		out := t.TempDir()
		cl := &commandLine{
			fnTable: writeTable(t, table+"1001 2 1 500 0.5\n"),
			out:     out,
			stan:    "/nonexistent/model",
		}
		err := run(context.Background(), cl, defaultConfig(), &bytes.Buffer{})
		var me *evbin.MalformedInputError
		require.True(t, errors.As(err, &me), "got %v", err)
		entries, _ := os.ReadDir(out)
		assert.Empty(t, entries)
	})

	zeroBkg := table + "1003 4 0 300 0.5\n"
	t.Run("degenerate source", func(t *testing.T) {
		out := t.TempDir()
		cl := &commandLine{fnTable: writeTable(t, zeroBkg), out: out,
			stan: "/nonexistent/model"}
		err := run(context.Background(), cl, defaultConfig(), &bytes.Buffer{})
		var de *evsolver.DegenerateSourceError
		require.True(t, errors.As(err, &de), "got %v", err)
		assert.Equal(t, "1003", de.SrcID)
		entries, _ := os.ReadDir(out)
		assert.Empty(t, entries)
	})

	t.Run("degenerate source clamped", func(t *testing.T) {
		cl := &commandLine{fnTable: writeTable(t, zeroBkg), out: t.TempDir()}
		cf := defaultConfig()
		cf.policy = evsolver.Clamp
		var b bytes.Buffer
		require.NoError(t, run(context.Background(), cl, cf, &b))
		assert.Contains(t, b.String(), "1003")
	})
}

func TestRunSampler(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script model")
	}
	exe := filepath.Join(t.TempDir(), "model")
	script := `#!/bin/sh
test -s data.json || exit 2
test -s inits.json || exit 2
for a; do
	case $a in id=*) id=${a#id=};; esac
done
printf 'lp__,treedepth__,divergent__,A,B\n-1,12,0,-1,0.5\n-2,3,1,-1,0.5\n' > output-$id.csv
`
	require.NoError(t, os.WriteFile(exe, []byte(script), 0755))

	out := t.TempDir()
	cl := &commandLine{fnTable: writeTable(t, table), out: out, stan: exe}
	cf := defaultConfig()
	cf.stan.Chains = 2
	var b bytes.Buffer
	require.NoError(t, run(context.Background(), cl, cf, &b))
	assert.Contains(t, b.String(), "NEV quantiles: 0.1 0.1 0.1")
	assert.Contains(t, b.String(),
		"Diagnostics: 2 of 4 transitions divergent, 2 at max tree depth 12")

	runs, err := filepath.Glob(filepath.Join(out, "run-*"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	for _, fn := range []string{"data.json", "inits.json", "output-1.csv", "output-2.csv"} {
		_, err := os.Stat(filepath.Join(runs[0], fn))
		assert.NoError(t, err, fn)
	}
}
