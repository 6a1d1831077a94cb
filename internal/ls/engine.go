// Package ls implements the Link-State Engine: LSA generation and
// sequencing, flooding with duplicate suppression, topology assembly, and
// triggering the Dijkstra recomputation, per spec §4.4.
//
// Grounded on _examples/original_source/routenode.py's ls_recv /
// ls_broadcast / update_topology / compute_routing, translated into a
// small Engine value the Node Runtime drives; the actual shortest-path
// computation is delegated to internal/topology.Database.ShortestPaths.
package ls

import (
	"time"

	"github.com/amhuang/routing-protocols/internal/neighbor"
	"github.com/amhuang/routing-protocols/internal/routing"
	"github.com/amhuang/routing-protocols/internal/topology"
)

// SeenKey identifies one flooded LSA instance for duplicate suppression.
type SeenKey struct {
	Sequence float64
	Origin   int
}

// Engine holds the mutable LS state for one node: the neighbor table, the
// topology database, the routing table, the received-LSA set, and whether
// this node has announced its own LSA or run Dijkstra yet. The Node Runtime
// is responsible for all locking; Engine methods assume exclusive access.
type Engine struct {
	Local int
	N     neighbor.Table
	T     *topology.Database
	R     routing.Table
	S     map[SeenKey]struct{}

	announced       bool
	dijkstraRun     bool
	sequenceCounter float64
}

// New builds an LS engine with an empty topology and routing table, per
// §3's lifecycle rule ("R is ... empty for LS until the first Dijkstra
// run").
func New(local int, neighbors neighbor.Table) *Engine {
	return &Engine{
		Local: local,
		N:     neighbors,
		T:     topology.New(),
		R:     routing.New(),
		S:     make(map[SeenKey]struct{}),
	}
}

// NextSequence returns a fresh sequence number derived from wall-clock
// time, per §3 ("a monotonically increasing floating value derived from
// the local wall-clock at LSA creation time"). It guards against the clock
// producing a value no greater than the last one handed out.
func (e *Engine) NextSequence(now time.Time) float64 {
	seq := float64(now.UnixNano()) / 1e9
	if seq <= e.sequenceCounter {
		seq = e.sequenceCounter + 0.000001
	}
	e.sequenceCounter = seq
	return seq
}

// OwnNeighborMap returns the neighbor-cost map to embed in this node's own
// LSA.
func (e *Engine) OwnNeighborMap() map[int]int {
	m := make(map[int]int, len(e.N))
	for port, cost := range e.N {
		m[port] = int(cost)
	}
	return m
}

// HasAnnounced reports whether this node has flooded its own LSA at least
// once. Per §4.4, "all other nodes remain silent until they first receive
// an LSA, at which point they flood their own LSA exactly once" — the Node
// Runtime consults this to decide whether an incoming LSA should trigger
// that one-time announcement.
func (e *Engine) HasAnnounced() bool { return e.announced }

// MarkAnnounced records that this node's own LSA has now been flooded.
func (e *Engine) MarkAnnounced() { e.announced = true }

// ReceiveResult reports the outcome of processing one received LSA.
type ReceiveResult struct {
	Duplicate       bool
	TopologyChanged bool
}

// Receive implements §4.4's flood-suppression and topology-update rule for
// an LSA from origin carrying neighbors and sequence. The caller is
// responsible for logging the duplicate line and for re-flooding to every
// neighbor but the sender when Duplicate is false.
func (e *Engine) Receive(origin int, neighbors map[int]int, sequence float64) ReceiveResult {
	key := SeenKey{Sequence: sequence, Origin: origin}
	if _, seen := e.S[key]; seen {
		return ReceiveResult{Duplicate: true}
	}
	e.S[key] = struct{}{}

	changed := false
	for n, cost := range neighbors {
		if e.T.Update(origin, n, cost) {
			changed = true
		}
	}
	return ReceiveResult{TopologyChanged: changed}
}

// ApplyCostChange implements §4.4's cost-change handling: it updates N and
// the corresponding edge in T directly, and returns the freshly sequenced
// LSA the caller must flood.
func (e *Engine) ApplyCostChange(neighborPort int, cost float64, now time.Time) (origin int, neighborMap map[int]int, sequence float64) {
	e.N[neighborPort] = cost
	e.T.Set(e.Local, neighborPort, int(cost))
	return e.Local, e.OwnNeighborMap(), e.NextSequence(now)
}

// Recompute runs Dijkstra over the current topology and stores the result
// in R. The Node Runtime is responsible for delaying the first call by one
// routing interval; Recompute itself runs unconditionally.
func (e *Engine) Recompute() {
	e.R = e.T.ShortestPaths(e.Local, e.N)
	e.dijkstraRun = true
}

// CurrentSequence returns the sequence number of this node's own most
// recently generated LSA, used by the periodic re-announce to resend the
// cached announcement rather than minting a new one every period.
func (e *Engine) CurrentSequence() float64 { return e.sequenceCounter }

// HasRunDijkstra reports whether Recompute has ever been called. Per
// §4.4, a topology change only triggers an immediate re-computation "if a
// Dijkstra run has already occurred" — before that, the deferred first run
// is solely responsible for populating R.
func (e *Engine) HasRunDijkstra() bool { return e.dijkstraRun }
