// Package dv implements the Distance-Vector Engine: asynchronous
// Bellman-Ford relaxation on incoming neighbor vectors, the cost-change
// reaction, and (optionally) split-horizon with poisoned reverse, per spec
// §4.3.
//
// Grounded on _examples/original_source/routenode.py's dv_compute /
// dv_cost_update / dv_broadcast, translated from global mutable state into
// a small Engine value the Node Runtime owns and calls under its mutex.
// The cost-change reaction here implements spec §4.3's cleaned-up
// description (compute once, assign once) rather than the original's
// shadowed-`updated`-flag branch, per REDESIGN FLAG / Design Note #2.
package dv

import (
	"math"

	"github.com/amhuang/routing-protocols/internal/neighbor"
	"github.com/amhuang/routing-protocols/internal/routing"
)

// Mode selects plain broadcasting or split-horizon with poisoned reverse.
type Mode int

const (
	ModeRegular Mode = iota
	ModePoisoned
)

// ParseMode maps the CLI's "r"/"p" token to a Mode.
func ParseMode(token string) (Mode, bool) {
	switch token {
	case "r":
		return ModeRegular, true
	case "p":
		return ModePoisoned, true
	default:
		return 0, false
	}
}

// MostRecent is the M structure of spec §3: the last vector advertised by
// each neighbor, consulted when searching for an alternative path during a
// cost-change reaction without waiting for a fresh broadcast.
type MostRecent map[int]routing.Table

// Engine holds the mutable DV state for one node: the neighbor table, the
// routing table, the most-recent-vectors map, and whether a broadcast has
// ever been sent. The Node Runtime is responsible for all locking; Engine
// methods assume exclusive access.
type Engine struct {
	Local int
	Mode  Mode
	N     neighbor.Table
	R     routing.Table
	M     MostRecent

	sent bool
}

// New builds a DV engine with R seeded from direct neighbors, per §3's
// lifecycle rule ("R is created at launch, seeded with direct neighbors for
// DV").
func New(local int, mode Mode, neighbors neighbor.Table) *Engine {
	r := routing.New()
	for port, cost := range neighbors {
		r[port] = routing.Entry{Cost: cost, NextHop: port}
	}
	return &Engine{
		Local: local,
		Mode:  mode,
		N:     neighbors,
		R:     r,
		M:     make(MostRecent),
	}
}

// HasSent reports whether this engine has ever broadcast, used by the Node
// Runtime to decide whether an unchanged table must still be sent once
// ("or if no broadcast has ever been sent").
func (e *Engine) HasSent() bool { return e.sent }

// HandleTAB applies the Bellman-Ford relaxation rule of §4.3 to a vector v
// received from neighbor s, and reports whether R changed.
func (e *Engine) HandleTAB(s int, v routing.Table) bool {
	e.M[s] = v

	known, hasSender := e.R[s]
	if !hasSender {
		// A TAB can only arrive from a configured neighbor, which is always
		// seeded into R at launch; nothing to relax against if not.
		return false
	}
	cost := known.Cost
	senderNextHop := known.NextHop

	updated := false
	for d, entry := range v {
		if d == e.Local {
			continue
		}
		alt := cost + entry.Cost

		existing, known := e.R[d]
		if !known {
			e.R[d] = routing.Entry{Cost: alt, NextHop: s}
			updated = true
			continue
		}

		nCost, isNeighbor := e.N[d]
		switch {
		case isNeighbor && nCost < alt && nCost < existing.Cost:
			e.R[d] = routing.Entry{Cost: nCost, NextHop: d}
			updated = true
		case alt < existing.Cost:
			e.R[d] = routing.Entry{Cost: alt, NextHop: senderNextHop}
			updated = true
		case isNeighbor && alt > existing.Cost && existing.NextHop == s:
			if alt < nCost {
				e.R[d] = routing.Entry{Cost: alt, NextHop: s}
			} else {
				e.R[d] = routing.Entry{Cost: nCost, NextHop: d}
			}
			updated = true
		}
	}
	return updated
}

// HandleCostChange implements §4.3's cost-change reaction for a COS
// reporting neighbor s's link now costs k. localTrigger is true when this
// node itself is the one that raised the cost (the "last" node, reacting to
// its own scheduled trigger on the link to its highest-numbered neighbor)
// rather than a peer that sent a COS; only then is the broader re-evaluation of every entry routed
// through s performed.
func (e *Engine) HandleCostChange(s int, k float64, localTrigger bool) bool {
	e.N[s] = k
	changed := false

	if e.R[s].NextHop == s {
		alt, via := e.scanAlternative(s)
		if alt < k {
			e.R[s] = routing.Entry{Cost: alt, NextHop: via}
		} else {
			e.R[s] = routing.Entry{Cost: k, NextHop: s}
		}
		changed = true
	}

	if localTrigger {
		for d, entry := range e.R {
			if entry.NextHop != s {
				continue
			}
			alt, via := e.scanAlternative(d)
			if alt < entry.Cost {
				e.R[d] = routing.Entry{Cost: alt, NextHop: via}
				changed = true
			}
		}
	}

	return changed
}

// scanAlternative searches M for the cheapest known path to dest via some
// neighbor p (other than dest itself), using the last vector p advertised:
// candidate cost is M[p][dest].Cost + R[p].Cost. Only vectors from
// currently-configured neighbors are considered, matching the original's
// "past in self.neighbors" guard.
func (e *Engine) scanAlternative(dest int) (cost float64, via int) {
	best := routing.Infinity
	bestVia := routing.NoNextHop
	for p, vec := range e.M {
		if p == dest {
			continue
		}
		if _, isNeighbor := e.N[p]; !isNeighbor {
			continue
		}
		entry, ok := vec[dest]
		if !ok || math.IsInf(entry.Cost, 1) {
			continue
		}
		alt := entry.Cost + e.R[p].Cost
		if alt < best {
			best = alt
			bestVia = p
		}
	}
	return best, bestVia
}

// BroadcastVectors returns, per neighbor port, the vector that neighbor
// should receive, applying split-horizon with poisoned reverse when
// Mode == ModePoisoned: the view sent to n carries +∞ for every
// destination (other than n itself) whose next hop is n. Marks the engine
// as having sent at least once.
func (e *Engine) BroadcastVectors() map[int]routing.Table {
	e.sent = true
	out := make(map[int]routing.Table, len(e.N))
	for _, n := range e.N.Ports() {
		if e.Mode == ModePoisoned {
			out[n] = e.poisonedView(n)
		} else {
			out[n] = e.R.Clone()
		}
	}
	return out
}

func (e *Engine) poisonedView(n int) routing.Table {
	view := e.R.Clone()
	for dst, entry := range view {
		if dst != n && entry.NextHop == n {
			entry.Cost = routing.Infinity
			view[dst] = entry
		}
	}
	return view
}
