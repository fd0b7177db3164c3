/*
Command ebexvar prepares X-ray light curves for a Bayesian excess variance
fit and computes the starting point of the fit.

Contents

Version 0.1

  Program overview
  Command line usage
  File formats
  Algorithm outline


Program overview

Input is a table of light curves, one row per time bin, for many sources.
For each source ebexvar computes a maximum likelihood estimate of the mean
flux from the summed counts, background and exposure.  The estimates, with
randomized values for the helper parameters of the hierarchical model, are
the initial values of the sampler chains.  The sampler is a CmdStan build
of the variability model.  It is run only if an executable is given with
-stan.

Sample run:

Here is a table of two sources, three and two bins.

  SRCID counts bkg time DTYEARS
  1001 12 1.0 500 0.5
  1001 19 1.1 520 0.5
  1001 15 0.9 480 0.5
  1002 3 0.4 450 0.5
  1002 1 0.4 460 0.5

You put it in a file, say lc.txt, then type "ebexvar lc.txt" and get the
following output:

  ebexvar version 0.1 Go source.
  SRCID         Bins   Counts       Bkg    Exp(d)  Span(d)   LgFlux
  1001             3       46      3.00     0.017    547.9   -1.543
  1002             2        4      0.80     0.011    365.2   -2.455

Exp is the summed exposure, in days.  Span is the summed DTYEARS, in days.
LgFlux is log10 of the estimated flux in counts per second.


Command line usage

  Usage: ebexvar [options] <table>    estimate initial fluxes for a table
         ebexvar -h                   display help and quick reference
         ebexvar -v                   display version and copyright

  Options:
         -c <config-file>
         -p <path>          default location of ebexvar.config
         -o <dir>           output directory for plots and sampler runs
         -stan <model>      CmdStan model executable to run
         -table <name>      table to read from a SQLite file
         -plots             write a light curve plot per source
         -q                 no progress messages

With -stan, each run creates a directory run-<uuid> under the -o directory
holding data.json, inits.json and, per chain, output-<n>.csv and
output-<n>.log.  After the chains finish the 50, 16, 84, 5 and 95
percentiles of every parameter are printed, followed by percentiles of the
normalized excess variance 10^A and counts of divergent transitions and of
transitions at the maximum tree depth.

With -plots, lc-<n>-<SRCID>.png is written to the -o directory for source
number n, counting from 1.  The directory is created if needed.

Any problem with the table or with a source estimate stops the program
before the sampler is started.


File formats

The light curve table may be a text file, a FITS file, a SQLite database or
a gob file.

A text table is whitespace separated.  The first line that is not blank and
does not start with # names the columns.  Columns SRCID, counts, bkg, time
and DTYEARS are required, in any order.  Other columns are ignored.

A file ending in .db, .sqlite or .sqlite3 is opened as SQLite.  Rows are
read from the table named with -table, "lightcurves" by default, in rowid
order.

A file ending in .fits, .fit, .fts or .fits.gz is read as FITS.  The first
table HDU is used.  Column names match without regard to case and SRCID
may be a string or an integer column.

A file ending in .gob holds a gob encoded table.

In all formats rows of each source must be contiguous.  Rows are not sorted
by the program; a source whose rows are split by rows of other sources is
an error.  Counts must be non-negative integers, bkg non-negative, time
positive.

The configuration file is optional.  By default it is ebexvar.config in the
-p directory.  Lines are keywords, optionally followed by a value, with or
without an =.  Blank lines and lines starting with # are ignored.

  pfalse <p>         false positive rate of the detection floor, default 4e-6
  seed <n>           seed of initial values and of the sampler, default 1
  chains <n>         default 4
  warmup <n>         warmup iterations per chain, default 3000
  sampling <n>       sampling iterations per chain, default 2000
  adaptdelta <x>     target acceptance rate, default 0.95
  maxtreedepth <n>   default 12
  threads <n>        threads per chain, default 1
  reject             stop on a source with no usable detection floor (default)
  clamp              use a floor of one count above background instead
  plots, noplots     write light curve plots, default noplots
  headings, noheadings


Algorithm outline

1.  Rows are grouped by source into contiguous ranges.

2.  For each source the counts, background and exposure of all bins are
summed.  The detection floor is the smallest count n such that a Poisson
background of the summed level exceeds n with probability at most pfalse.

3.  A search range in log10 flux runs from two decades below the flux
implied by the floor, (floor - bkg) / exposure, to one decade above the
larger of that flux and the observed excess flux, (counts - bkg) / exposure.

4.  The range is divided into 1000 points, ends included.  At each point the
Poisson probability of the summed counts is computed for the expected count
flux * exposure + bkg.  The point of highest probability is the estimate.
Ties go to the lowest flux.

5.  A source with zero background has a floor of zero counts and no search
range.  Such a source stops the program unless the config file says clamp.

6.  Initial values are the estimates, A = log10(0.1), B = 0.5, and standard
normal draws for each source and then each bin, from a PCG generator seeded
with the configured seed.  The same table and seed always give the same
initial values.

-------------
Public domain.
*/
package main
