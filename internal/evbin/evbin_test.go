// Public domain.

package evbin_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/ebexvar/internal/evbin"
)

func row(id string, c, b float64) evbin.Row {
	return evbin.Row{SrcID: id, Counts: c, Bkg: b, Time: 100, DTYears: .5}
}

func ExampleNew() {
	ds, _ := evbin.New(evbin.Table{
		row("a", 3, 1), row("a", 4, 1),
		row("b", 0, .5),
		row("c", 7, 2), row("c", 1, 2), row("c", 2, 2),
	})
	fmt.Println(ds.NS, ds.Indices, ds.SrcID)
	fmt.Printf("%+v\n", ds.Aggregate(2))
	// Output:
	// 3 [0 2 3 6] [a b c]
	// {Counts:10 Bkg:6 Time:300}
}

func TestNew(t *testing.T) {
	t.Run("boundaries follow first occurrences", func(t *testing.T) {
		ids := []string{"7", "7", "7", "12", "3", "3", "99", "99"}
		tb := make(evbin.Table, len(ids))
		for i, id := range ids {
			tb[i] = row(id, float64(i), 1)
		}
		ds, err := evbin.New(tb)
		require.NoError(t, err)

		require.Equal(t, 4, ds.NS)
		require.Len(t, ds.Indices, ds.NS+1)
		assert.Equal(t, []int{0, 3, 4, 6, 8}, ds.Indices)
		assert.Equal(t, []string{"7", "12", "3", "99"}, ds.SrcID)
		assert.Equal(t, len(ids), ds.NC())

		// each interval holds one identifier, found in no other interval
		owner := map[string]int{}
		for g := 0; g < ds.NS; g++ {
			i1, i2 := ds.Rows(g)
			require.Less(t, i1, i2)
			for j := i1; j < i2; j++ {
				assert.Equal(t, ds.SrcID[g], tb[j].SrcID)
				if o, ok := owner[tb[j].SrcID]; ok {
					assert.Equal(t, g, o)
				}
				owner[tb[j].SrcID] = g
			}
		}
	})

	t.Run("empty table", func(t *testing.T) {
		ds, err := evbin.New(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, ds.NS)
		assert.Equal(t, []int{0}, ds.Indices)
		assert.Equal(t, 0, ds.NC())
	})

	t.Run("single row", func(t *testing.T) {
		ds, err := evbin.New(evbin.Table{row("x", 5, 2)})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, ds.Indices)
		assert.Equal(t, evbin.Aggregate{Counts: 5, Bkg: 2, Time: 100}, ds.Aggregate(0))
		assert.Equal(t, .5, ds.Span(0))
	})

	t.Run("columns copied from table", func(t *testing.T) {
		tb := evbin.Table{
			{SrcID: "s", Counts: 1, Bkg: .25, Time: 10, DTYears: .1},
			{SrcID: "s", Counts: 2, Bkg: .5, Time: 20, DTYears: .2},
		}
		ds, err := evbin.New(tb)
		require.NoError(t, err)
		tb[0].Counts = 40 // Dataset does not alias the table
		assert.Equal(t, []float64{1, 2}, ds.Counts)
		assert.Equal(t, []float64{.25, .5}, ds.Bkg)
		assert.Equal(t, []float64{10, 20}, ds.Time)
		assert.Equal(t, []float64{.1, .2}, ds.DTYears)
	})
}

func TestNewMalformed(t *testing.T) {
	cases := []struct {
		name string
		tb   evbin.Table
		row  int
	}{
		{"source split in two runs",
			evbin.Table{row("a", 1, 0), row("b", 1, 0), row("a", 1, 0)}, 2},
		{"negative counts", evbin.Table{row("a", -1, 0)}, 0},
		{"fractional counts", evbin.Table{row("a", 1, 0), row("a", 2.5, 0)}, 1},
		{"negative background", evbin.Table{row("a", 1, -.1)}, 0},
		{"zero exposure",
			evbin.Table{{SrcID: "a", Counts: 1, Bkg: 1, Time: 0}}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := evbin.New(c.tb)
			var me *evbin.MalformedInputError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, c.row, me.Row)
		})
	}
}

func TestGobFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), evbin.Tfn)
	tb := evbin.Table{row("a", 3, 1), row("b", 4, 2)}
	require.NoError(t, evbin.WriteFile(fn, tb))
	got, err := evbin.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, tb, got)

	_, err = evbin.ReadFile(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}
