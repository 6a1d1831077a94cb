package ls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amhuang/routing-protocols/internal/neighbor"
)

func ts(unix int64) time.Time { return time.Unix(unix, 0) }

func TestNextSequence_MonotonicEvenOnRepeatedClock(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	now := ts(1700000000)

	a := e.NextSequence(now)
	b := e.NextSequence(now)
	assert.Greater(t, b, a, "a repeated wall-clock reading must still advance")
}

func TestOwnNeighborMap_TruncatesToInt(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 3}))
	assert.Equal(t, map[int]int{2001: 3}, e.OwnNeighborMap())
}

func TestReceive_NewEdgeChangesTopology(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	result := e.Receive(2001, map[int]int{2000: 1, 2002: 4}, 1.0)

	require.False(t, result.Duplicate)
	assert.True(t, result.TopologyChanged)
	cost, ok := e.T.Cost(2001, 2002)
	require.True(t, ok)
	assert.Equal(t, 4, cost)
}

func TestReceive_SameEdgeTwiceUnderDifferentSequenceIsNotTopologyChange(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	e.Receive(2001, map[int]int{2000: 1}, 1.0)

	result := e.Receive(2001, map[int]int{2000: 1}, 2.0)
	require.False(t, result.Duplicate, "a new sequence number from the same origin is not a duplicate")
	assert.False(t, result.TopologyChanged, "the edge cost did not actually change")
}

func TestReceive_DuplicateSuppressed(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	first := e.Receive(2001, map[int]int{2000: 1}, 5.0)
	require.False(t, first.Duplicate)

	dup := e.Receive(2001, map[int]int{2000: 1}, 5.0)
	assert.True(t, dup.Duplicate)
	assert.False(t, dup.TopologyChanged)
}

func TestReceive_SameSequenceDifferentOriginIsNotADuplicate(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	e.Receive(2001, map[int]int{2000: 1}, 5.0)

	result := e.Receive(2002, map[int]int{2000: 1}, 5.0)
	assert.False(t, result.Duplicate, "duplicate detection keys on (sequence, origin), not sequence alone")
}

func TestApplyCostChange_UpdatesNeighborAndTopologyAndReturnsFreshSequence(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))

	origin, neighbors, seq := e.ApplyCostChange(2001, 9, ts(1700000000))
	assert.Equal(t, 2000, origin)
	assert.Equal(t, map[int]int{2001: 9}, neighbors)
	assert.Greater(t, seq, float64(0))

	cost, ok := e.T.Cost(2000, 2001)
	require.True(t, ok)
	assert.Equal(t, 9, cost)
	assert.Equal(t, float64(9), e.N[2001])
}

func TestRecompute_SetsRAndMarksDijkstraRun(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	assert.False(t, e.HasRunDijkstra())

	e.Receive(2000, map[int]int{2001: 1}, 1.0)
	e.Recompute()

	assert.True(t, e.HasRunDijkstra())
	assert.Equal(t, float64(1), e.R[2001].Cost)
}

func TestHasAnnounced_DefaultsFalseThenMarked(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	assert.False(t, e.HasAnnounced())
	e.MarkAnnounced()
	assert.True(t, e.HasAnnounced())
}

func TestCurrentSequence_ReflectsLastMinted(t *testing.T) {
	e := New(2000, neighbor.New(map[int]float64{2001: 1}))
	assert.Equal(t, float64(0), e.CurrentSequence())

	seq := e.NextSequence(ts(1700000000))
	assert.Equal(t, seq, e.CurrentSequence())
}
