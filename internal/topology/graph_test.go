package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amhuang/routing-protocols/internal/neighbor"
	"github.com/amhuang/routing-protocols/internal/routing"
)

func TestCanonicalEdge(t *testing.T) {
	assert.Equal(t, Edge{Low: 2000, High: 2001}, CanonicalEdge(2001, 2000))
	assert.Equal(t, Edge{Low: 2000, High: 2001}, CanonicalEdge(2000, 2001))
}

func TestDatabase_Update(t *testing.T) {
	d := New()
	assert.True(t, d.Update(2000, 2001, 1), "a brand new edge is a change")
	assert.False(t, d.Update(2000, 2001, 1), "the same cost again is not a change")
	assert.True(t, d.Update(2001, 2000, 5), "a different cost for the same canonical edge is a change")

	cost, ok := d.Cost(2000, 2001)
	require.True(t, ok)
	assert.Equal(t, 5, cost)
}

func TestDatabase_Render_SortedByEdge(t *testing.T) {
	d := New()
	d.Update(2002, 2000, 3)
	d.Update(2000, 2001, 1)
	d.Update(2001, 2002, 2)

	want := "- (1) from Node 2000 to Node 2001\n" +
		"- (3) from Node 2000 to Node 2002\n" +
		"- (2) from Node 2001 to Node 2002"
	assert.Equal(t, want, d.Render())
}

func TestShortestPaths_Triangle(t *testing.T) {
	d := New()
	d.Update(2000, 2001, 1)
	d.Update(2001, 2002, 1)
	d.Update(2000, 2002, 5)

	neighbors := neighbor.New(map[int]float64{2001: 1, 2002: 5})
	table := d.ShortestPaths(2000, neighbors)

	require.Contains(t, table, 2002)
	assert.Equal(t, routing.Entry{Cost: 2, NextHop: 2001}, table[2002])
	assert.Equal(t, routing.Entry{Cost: 1, NextHop: 2001}, table[2001])
}

func TestShortestPaths_PrefersDirectLinkOnTie(t *testing.T) {
	d := New()
	d.Update(2000, 2001, 2)
	d.Update(2000, 2002, 1)
	d.Update(2001, 2002, 1)

	neighbors := neighbor.New(map[int]float64{2001: 2, 2002: 1})
	table := d.ShortestPaths(2000, neighbors)

	assert.Equal(t, routing.Entry{Cost: 2, NextHop: 2001}, table[2001])
}

func TestShortestPaths_Unreachable(t *testing.T) {
	d := New()
	d.Update(2000, 2001, 1)
	d.Update(2002, 2003, 1)

	neighbors := neighbor.New(map[int]float64{2001: 1})
	table := d.ShortestPaths(2000, neighbors)

	entry, ok := table[2003]
	require.True(t, ok, "an unreachable but known port must still appear in the table")
	assert.True(t, entry.Cost > 1e300)
	assert.Equal(t, routing.NoNextHop, entry.NextHop)
}
