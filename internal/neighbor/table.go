// Package neighbor implements the Neighbor Table: the mapping from a
// directly-connected port to the current cost of that link. It is seeded at
// launch from the CLI and mutated only by cost-change events.
package neighbor

import "sort"

// Table maps neighbor port to current link cost.
type Table map[int]float64

// New builds a Table from the parsed neighbor/cost pairs on the command
// line.
func New(pairs map[int]float64) Table {
	t := make(Table, len(pairs))
	for port, cost := range pairs {
		t[port] = cost
	}
	return t
}

// Ports returns the neighbor ports in ascending order.
func (t Table) Ports() []int {
	ports := make([]int, 0, len(t))
	for p := range t {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// Highest returns the numerically highest neighbor port. It panics if the
// table is empty; a node with no neighbors cannot run a cost-change
// scenario and the caller is expected to have validated that already.
func (t Table) Highest() int {
	ports := t.Ports()
	if len(ports) == 0 {
		panic("neighbor: Highest called on empty table")
	}
	return ports[len(ports)-1]
}
