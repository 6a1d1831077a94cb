// Package topology implements the Topology Database (the undirected
// weighted graph assembled from every LSA seen so far) and the Dijkstra
// shortest-path computation the Link-State engine runs over it, per spec
// §3/§4.4.
//
// The shortest-path computation itself is delegated to
// gonum.org/v1/gonum/graph/simple and gonum.org/v1/gonum/graph/path rather
// than hand-rolled, grounded on gonum.org/v1/gonum being a real dependency
// of tos-network-emo and on the bundled gonum reference path/search files
// in the wider retrieval pack.
package topology

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/amhuang/routing-protocols/internal/neighbor"
	"github.com/amhuang/routing-protocols/internal/routing"
)

// Edge identifies an undirected link canonically: Low is always <= High.
type Edge struct {
	Low, High int
}

// CanonicalEdge orders the pair so Low <= High, per §3/§4.4 ("Edges are
// stored canonically with the smaller port first").
func CanonicalEdge(a, b int) Edge {
	if a < b {
		return Edge{Low: a, High: b}
	}
	return Edge{Low: b, High: a}
}

// Database is the mapping from canonical edge to its currently-known cost.
// Keys accumulate monotonically; values update when a newer LSA reports a
// different cost for an edge already known.
type Database struct {
	edges map[Edge]int
}

// New returns an empty Topology Database.
func New() *Database {
	return &Database{edges: make(map[Edge]int)}
}

// Update records the edge (origin, neighbor) with the given cost. It
// reports whether the database changed (a new edge, or an existing edge
// whose cost differs) — callers use this to decide whether to re-print the
// topology and re-run Dijkstra, per §4.4.
func (d *Database) Update(origin, neighborPort, cost int) (changed bool) {
	e := CanonicalEdge(origin, neighborPort)
	if existing, ok := d.edges[e]; !ok || existing != cost {
		d.edges[e] = cost
		return true
	}
	return false
}

// Set is Update without the "already known, same cost" no-op check — used
// by a local cost-change trigger, which always counts as a change per
// §4.4 ("updates the corresponding edge in T directly").
func (d *Database) Set(a, b, cost int) {
	d.edges[CanonicalEdge(a, b)] = cost
}

// Edges returns every known edge, sorted by (Low, High) ascending, matching
// the required §6.3 topology print order.
func (d *Database) Edges() []Edge {
	edges := make([]Edge, 0, len(d.edges))
	for e := range d.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Low != edges[j].Low {
			return edges[i].Low < edges[j].Low
		}
		return edges[i].High < edges[j].High
	})
	return edges
}

// Cost returns the currently-known cost of an edge and whether it exists.
func (d *Database) Cost(a, b int) (int, bool) {
	c, ok := d.edges[CanonicalEdge(a, b)]
	return c, ok
}

// Render formats the topology exactly as required by §6.3:
//
//	[<ts>] Node <self> Network Topology
//	- (<cost>) from Node <u> to Node <v>
//
// The header line (with its timestamp) is the caller's responsibility.
func (d *Database) Render() string {
	var out string
	for i, e := range d.Edges() {
		if i > 0 {
			out += "\n"
		}
		out += formatTopologyLine(e, d.edges[e])
	}
	return out
}

func formatTopologyLine(e Edge, cost int) string {
	return fmt.Sprintf("- (%d) from Node %d to Node %d", cost, e.Low, e.High)
}

// ShortestPaths runs Dijkstra rooted at local, per §4.4: direct neighbors
// seed their entry from N, every other port mentioned anywhere in T starts
// at +∞, and the next hop propagated through relaxation is always the
// first hop on the best known path to the node being relaxed through (not
// gonum's own path object), which is exactly what reconstructing the
// shortest path tree and taking path[1] gives.
func (d *Database) ShortestPaths(local int, neighbors neighbor.Table) routing.Table {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	ports := d.ports(local)
	for _, p := range ports {
		g.AddNode(simple.Node(p))
	}
	for e, cost := range d.edges {
		g.SetWeightedEdge(simple.Edge{
			F: simple.Node(e.Low),
			T: simple.Node(e.High),
			W: float64(cost),
		})
	}

	table := routing.New()
	if len(ports) <= 1 {
		return table
	}

	shortest := path.DijkstraFrom(simple.Node(local), g)

	for _, p := range ports {
		if p == local {
			continue
		}
		if cost, isDirect := neighbors[p]; isDirect {
			// Seed straight from the neighbor table; Dijkstra below will
			// only ever confirm or improve on this, matching §4.4's
			// initialization rule.
			table[p] = routing.Entry{Cost: cost, NextHop: p}
		}

		nodePath, weight := shortest.To(int64(p))
		if math.IsInf(weight, 1) || len(nodePath) == 0 {
			if _, ok := table[p]; !ok {
				table[p] = routing.Entry{Cost: routing.Infinity, NextHop: routing.NoNextHop}
			}
			continue
		}
		if len(nodePath) < 2 {
			// nodePath[0] is local itself; nothing to route to.
			continue
		}
		nextHop := int(nodePath[1].ID())
		if existing, ok := table[p]; !ok || weight < existing.Cost {
			table[p] = routing.Entry{Cost: weight, NextHop: nextHop}
		}
	}
	return table
}

// ports returns every port mentioned by any recorded edge, plus local
// itself, so Dijkstra is seeded over the full known vertex set even before
// any edge touches some of them indirectly.
func (d *Database) ports(local int) []int {
	set := map[int]struct{}{local: {}}
	for e := range d.edges {
		set[e.Low] = struct{}{}
		set[e.High] = struct{}{}
	}
	ports := make([]int, 0, len(set))
	for p := range set {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}
