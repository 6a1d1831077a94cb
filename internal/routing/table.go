// Package routing implements the shared Routing Table used by both the
// distance-vector and link-state engines: a mapping from destination port to
// the (cost, next-hop) pair that reaches it.
package routing

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Infinity is the in-memory representation of a +∞ link cost. It is only
// ever used for poisoned-reverse advertisements and for unreachable
// destinations during Dijkstra initialization.
var Infinity = math.Inf(1)

// Entry is a single routing-table row: the cost to reach a destination and
// the next hop to use to get there.
type Entry struct {
	Cost    float64
	NextHop int
}

// NoNextHop marks an Entry with no known next hop (an unreachable
// destination during Dijkstra initialization).
const NoNextHop = -1

// Table maps destination port to Entry. The zero value is not usable; use
// New.
type Table map[int]Entry

// New returns an empty routing table.
func New() Table {
	return make(Table)
}

// Clone returns a deep copy, used whenever an engine needs to mutate a
// per-neighbor view (poisoned reverse) without touching the shared table.
func (t Table) Clone() Table {
	c := make(Table, len(t))
	for dst, e := range t {
		c[dst] = e
	}
	return c
}

// Equal reports whether two tables contain exactly the same entries. Used by
// idempotence tests (reprocessing an unchanged TAB must not appear to
// change anything).
func (t Table) Equal(other Table) bool {
	if len(t) != len(other) {
		return false
	}
	for dst, e := range t {
		oe, ok := other[dst]
		if !ok || oe.NextHop != e.NextHop {
			return false
		}
		if e.Cost != oe.Cost && !(math.IsInf(e.Cost, 1) && math.IsInf(oe.Cost, 1)) {
			return false
		}
	}
	return true
}

// sortedDests returns the table's destination ports in ascending order, the
// order every printed table uses.
func (t Table) sortedDests() []int {
	dests := make([]int, 0, len(t))
	for dst := range t {
		dests = append(dests, dst)
	}
	sort.Ints(dests)
	return dests
}

// formatCost renders a cost the way every log line in §6.3 requires: bare
// integers for finite costs (every real link cost in this system is an
// integer), the literal word Infinity for poisoned entries.
func formatCost(cost float64) string {
	if math.IsInf(cost, 1) {
		return "Infinity"
	}
	return fmt.Sprintf("%d", int64(cost))
}

// Render formats the routing table exactly as required by §6.3:
//
//	[<ts>] Node <self> Routing Table
//	- (<cost>) -> Node <d>
//	- (<cost>) -> Node <d>; Next hop -> Node <nh>
//
// The header line (with its timestamp) is the caller's responsibility;
// Render returns only the per-destination body lines, newline-joined.
func (t Table) Render() string {
	var b strings.Builder
	for i, dst := range t.sortedDests() {
		if i > 0 {
			b.WriteByte('\n')
		}
		e := t[dst]
		if e.NextHop == dst || e.NextHop == NoNextHop {
			fmt.Fprintf(&b, "- (%s) -> Node %d", formatCost(e.Cost), dst)
		} else {
			fmt.Fprintf(&b, "- (%s) -> Node %d; Next hop -> Node %d", formatCost(e.Cost), dst, e.NextHop)
		}
	}
	return b.String()
}
