// Package node implements the Node Runtime: the process that owns the
// transport, the single mutex guarding all shared routing state, the
// timers, and the dispatch of decoded frames to whichever engine (DV or
// LS) is active, per spec §4.2/§5.
//
// Grounded on the teacher's Node.run(ctx)/handler goroutine-plus-channel
// shape (node.go), generalized from one fixed OLSR update loop to the
// timer set spec §4.2 requires (initial broadcast, cost-change trigger,
// LS periodic re-announce, LS deferred first Dijkstra).
package node

import (
	"context"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/amhuang/routing-protocols/internal/dv"
	"github.com/amhuang/routing-protocols/internal/ls"
	"github.com/amhuang/routing-protocols/internal/neighbor"
	"github.com/amhuang/routing-protocols/internal/rlog"
	"github.com/amhuang/routing-protocols/internal/routing"
	"github.com/amhuang/routing-protocols/internal/topology"
	"github.com/amhuang/routing-protocols/internal/transport"
	"github.com/amhuang/routing-protocols/internal/wire"
)

// Algorithm selects which engine a Node runs.
type Algorithm int

const (
	AlgoDV Algorithm = iota
	AlgoLS
)

// ParseAlgorithm maps the CLI's "dv"/"ls" token to an Algorithm.
func ParseAlgorithm(token string) (Algorithm, bool) {
	switch token {
	case "dv":
		return AlgoDV, true
	case "ls":
		return AlgoLS, true
	default:
		return 0, false
	}
}

// RoutingInterval is the fixed protocol constant governing the LS engine's
// deferred first Dijkstra run and its cost-change trigger delay (1.2x),
// independent of the CLI's per-run update-interval argument.
const RoutingInterval = 30 * time.Second

// DVCostChangeDelay is the fixed one-shot delay before a DV node raises
// the cost of its highest-numbered neighbor link.
const DVCostChangeDelay = 2 * time.Second

// Config is everything the CLI gathers before a Node can start.
type Config struct {
	Algorithm      Algorithm
	Mode           dv.Mode // DV only
	UpdateInterval time.Duration
	LocalPort      int
	Neighbors      map[int]float64
	Last           bool
	HasCostChange  bool
	CostChange     float64
}

// Node is one routing daemon instance: a transport, a protocol logger, and
// exactly one active engine, all mutated under mu.
type Node struct {
	cfg       Config
	transport transport.Transport
	protocol  *rlog.Protocol
	diag      *rlog.Diag
	clock     func() time.Time
	rng       *rand.Rand
	ctx       context.Context

	mu           sync.Mutex
	dvEngine     *dv.Engine
	lsEngine     *ls.Engine
	decodeErrors int
}

// New builds a Node from cfg, ready to Run. out receives every protocol log
// line (os.Stdout in production, a buffer in tests).
func New(cfg Config, tr transport.Transport, out io.Writer) *Node {
	n := &Node{
		cfg:       cfg,
		transport: tr,
		protocol:  rlog.NewProtocol(out),
		diag:      rlog.NewDiag("node", "Node"),
		clock:     time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	neighbors := neighbor.New(cfg.Neighbors)
	switch cfg.Algorithm {
	case AlgoDV:
		n.dvEngine = dv.New(cfg.LocalPort, cfg.Mode, neighbors)
	case AlgoLS:
		n.lsEngine = ls.New(cfg.LocalPort, neighbors)
	}
	return n
}

// WithClock overrides the wall-clock source (used for LSA sequence
// numbers and log timestamps), for deterministic tests.
func (n *Node) WithClock(clock func() time.Time) *Node {
	n.clock = clock
	n.protocol.WithClock(clock)
	return n
}

// WithRand overrides the jitter source, for deterministic tests.
func (n *Node) WithRand(r *rand.Rand) *Node {
	n.rng = r
	return n
}

// LocalPort returns the configured local port.
func (n *Node) LocalPort() int { return n.cfg.LocalPort }

// DecodeErrors reports how many received datagrams failed to decode, per
// §7(b)'s "drop silently, continue" — exposed here only so tests can
// assert on it.
func (n *Node) DecodeErrors() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.decodeErrors
}

// RoutingSnapshot returns a copy of the currently active engine's routing
// table.
func (n *Node) RoutingSnapshot() routing.Table {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cfg.Algorithm == AlgoDV {
		return n.dvEngine.R.Clone()
	}
	return n.lsEngine.R.Clone()
}

// TopologySnapshot returns the LS engine's known edges, or nil under DV.
func (n *Node) TopologySnapshot() []topology.Edge {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lsEngine == nil {
		return nil
	}
	return n.lsEngine.T.Edges()
}

// Run starts the Node: the initial broadcast (if configured as last), the
// LS timers, and the receive loop, then blocks until ctx is cancelled. Per
// §5 there is no graceful shutdown in production; ctx exists so tests can
// stop a Node's background goroutines deterministically.
func (n *Node) Run(ctx context.Context) {
	n.ctx = ctx

	if n.cfg.Last {
		switch n.cfg.Algorithm {
		case AlgoDV:
			n.mu.Lock()
			vectors := n.dvEngine.BroadcastVectors()
			tableBody := n.dvEngine.R.Render()
			n.mu.Unlock()

			n.sendDV(vectors)
			n.protocol.RoutingTable(n.cfg.LocalPort, tableBody)

			if n.cfg.HasCostChange {
				time.AfterFunc(DVCostChangeDelay, n.triggerDVCostChange)
			}
		case AlgoLS:
			n.activateLS()
		}
	}

	go n.receiveLoop(ctx)
	<-ctx.Done()
}

// receiveLoop decodes datagrams outside the lock and dispatches them,
// matching §5's "holding the mutex across recvfrom is forbidden."
func (n *Node) receiveLoop(ctx context.Context) {
	type received struct {
		d   transport.Datagram
		err error
	}
	ch := make(chan received)
	go func() {
		for {
			d, err := n.transport.ReadFrom()
			select {
			case ch <- received{d, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-ch:
			if r.err != nil {
				n.diag.Warn("transport read: " + r.err.Error())
				return
			}
			n.dispatch(r.d)
		}
	}
}

func (n *Node) dispatch(d transport.Datagram) {
	frame, err := wire.Decode(d.Payload)
	if err != nil {
		n.mu.Lock()
		n.decodeErrors++
		n.mu.Unlock()
		n.diag.WithField("from", d.FromPort).Debug("decode: " + err.Error())
		return
	}
	switch frame.Kind {
	case wire.KindTAB:
		n.handleTAB(d.FromPort, frame.TAB)
	case wire.KindLSA:
		n.handleLSA(d.FromPort, frame.LSA)
	case wire.KindCOS:
		n.handleCOS(d.FromPort, frame.COS)
	}
}

// handleTAB implements §4.3's "if any entry changed, or if no broadcast
// has ever been sent, print and broadcast."
func (n *Node) handleTAB(sender int, f *wire.TabFrame) {
	n.protocol.MessageReceived(n.cfg.LocalPort, sender)

	n.mu.Lock()
	changed := n.dvEngine.HandleTAB(sender, f.Vector)
	shouldBroadcast := changed || !n.dvEngine.HasSent()
	var vectors map[int]routing.Table
	var tableBody string
	if shouldBroadcast {
		vectors = n.dvEngine.BroadcastVectors()
		tableBody = n.dvEngine.R.Render()
	}
	n.mu.Unlock()

	if shouldBroadcast {
		n.sendDV(vectors)
		n.protocol.RoutingTable(n.cfg.LocalPort, tableBody)
	}
}

// handleLSA implements §4.4's flood/suppress/topology-update sequence.
func (n *Node) handleLSA(sender int, f *wire.LsaFrame) {
	n.mu.Lock()
	result := n.lsEngine.Receive(f.Origin, f.Neighbors, f.Sequence)
	n.mu.Unlock()

	if result.Duplicate {
		n.protocol.DuplicateLSA(f.Origin, f.Sequence, sender)
		return
	}
	n.protocol.LSAReceived(f.Origin, f.Sequence, sender)

	n.mu.Lock()
	changed := result.TopologyChanged
	var topoBody string
	if changed {
		topoBody = n.lsEngine.T.Render()
	}
	recompute := changed && n.lsEngine.HasRunDijkstra()
	var tableBody string
	if recompute {
		n.lsEngine.Recompute()
		tableBody = n.lsEngine.R.Render()
	}
	n.mu.Unlock()

	if changed {
		n.protocol.Topology(n.cfg.LocalPort, topoBody)
	}
	if recompute {
		n.protocol.RoutingTable(n.cfg.LocalPort, tableBody)
	}

	n.floodRaw(f, sender)

	n.mu.Lock()
	needActivate := !n.lsEngine.HasAnnounced()
	n.mu.Unlock()
	if needActivate {
		n.activateLS()
	}
}

// handleCOS implements the receiving side of a cost-change control
// message, for either engine.
func (n *Node) handleCOS(sender int, f *wire.CosFrame) {
	n.protocol.CostUpdated(sender, float64(f.Cost))
	n.protocol.LinkValueReceived(n.cfg.LocalPort, sender)

	switch n.cfg.Algorithm {
	case AlgoDV:
		n.mu.Lock()
		changed := n.dvEngine.HandleCostChange(sender, float64(f.Cost), false)
		var vectors map[int]routing.Table
		var tableBody string
		if changed {
			vectors = n.dvEngine.BroadcastVectors()
			tableBody = n.dvEngine.R.Render()
		}
		n.mu.Unlock()
		if changed {
			n.sendDV(vectors)
			n.protocol.RoutingTable(n.cfg.LocalPort, tableBody)
		}
	case AlgoLS:
		n.mu.Lock()
		origin, neighbors, seq := n.lsEngine.ApplyCostChange(sender, float64(f.Cost), n.clock())
		n.lsEngine.Recompute()
		topoBody := n.lsEngine.T.Render()
		tableBody := n.lsEngine.R.Render()
		n.mu.Unlock()

		n.floodLSA(origin, neighbors, seq, -1)
		n.protocol.Topology(n.cfg.LocalPort, topoBody)
		n.protocol.RoutingTable(n.cfg.LocalPort, tableBody)
	}
}

// triggerDVCostChange is the one-shot reaction scheduled DVCostChangeDelay
// after a DV "last" node starts: raise the cost to the highest neighbor
// port, notify it, and react locally exactly as a received COS would, but
// with localTrigger set.
func (n *Node) triggerDVCostChange() {
	n.mu.Lock()
	highest := n.dvEngine.N.Highest()
	n.mu.Unlock()

	n.sendCOS(highest)
	n.protocol.CostUpdated(highest, n.cfg.CostChange)
	n.protocol.LinkValueSent(n.cfg.LocalPort, highest)

	n.mu.Lock()
	changed := n.dvEngine.HandleCostChange(highest, n.cfg.CostChange, true)
	var vectors map[int]routing.Table
	var tableBody string
	if changed {
		vectors = n.dvEngine.BroadcastVectors()
		tableBody = n.dvEngine.R.Render()
	}
	n.mu.Unlock()

	if changed {
		n.sendDV(vectors)
		n.protocol.RoutingTable(n.cfg.LocalPort, tableBody)
	}
}

// triggerLSCostChange is the LS analogue, scheduled 1.2 * RoutingInterval
// after activation.
func (n *Node) triggerLSCostChange() {
	n.mu.Lock()
	highest := n.lsEngine.N.Highest()
	n.mu.Unlock()

	n.sendCOS(highest)
	n.protocol.CostUpdated(highest, n.cfg.CostChange)
	n.protocol.LinkValueSent(n.cfg.LocalPort, highest)

	n.mu.Lock()
	origin, neighbors, seq := n.lsEngine.ApplyCostChange(highest, n.cfg.CostChange, n.clock())
	n.lsEngine.Recompute()
	topoBody := n.lsEngine.T.Render()
	tableBody := n.lsEngine.R.Render()
	n.mu.Unlock()

	n.floodLSA(origin, neighbors, seq, -1)
	n.protocol.Topology(n.cfg.LocalPort, topoBody)
	n.protocol.RoutingTable(n.cfg.LocalPort, tableBody)
}

// activateLS marks the node as having announced, floods its own LSA to
// every neighbor, and starts the timers §4.4 gates on activation (the
// deferred first Dijkstra, the periodic re-announce, and, if configured,
// the cost-change trigger).
func (n *Node) activateLS() {
	n.mu.Lock()
	n.lsEngine.MarkAnnounced()
	origin := n.lsEngine.Local
	neighbors := n.lsEngine.OwnNeighborMap()
	seq := n.lsEngine.NextSequence(n.clock())
	n.mu.Unlock()

	n.floodLSA(origin, neighbors, seq, -1)

	time.AfterFunc(RoutingInterval, n.runFirstDijkstra)
	go n.lsPeriodicAnnounce()
	if n.cfg.HasCostChange {
		time.AfterFunc(time.Duration(float64(RoutingInterval)*1.2), n.triggerLSCostChange)
	}
}

func (n *Node) runFirstDijkstra() {
	n.mu.Lock()
	if n.lsEngine.HasRunDijkstra() {
		n.mu.Unlock()
		return
	}
	n.lsEngine.Recompute()
	body := n.lsEngine.R.Render()
	n.mu.Unlock()

	n.protocol.RoutingTable(n.cfg.LocalPort, body)
}

// lsPeriodicAnnounce resends this node's own cached LSA every
// update-interval, jittered once at start-up per §4.2.
func (n *Node) lsPeriodicAnnounce() {
	jitter := time.Duration(n.rng.Float64() * float64(time.Second))
	ticker := time.NewTicker(n.cfg.UpdateInterval + jitter)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.mu.Lock()
			origin := n.lsEngine.Local
			neighbors := n.lsEngine.OwnNeighborMap()
			seq := n.lsEngine.CurrentSequence()
			n.mu.Unlock()
			n.floodLSA(origin, neighbors, seq, -1)
		}
	}
}

// sendDV transmits one TAB per neighbor and logs the required
// "Message sent" line for each successful send.
func (n *Node) sendDV(vectors map[int]routing.Table) {
	for _, port := range sortedPorts(vectors) {
		payload, err := wire.EncodeTAB(vectors[port])
		if err != nil {
			n.diag.WithField("neighbor", port).Error("encode TAB: " + err.Error())
			continue
		}
		if err := n.transport.WriteTo(payload, port); err != nil {
			n.diag.WithField("neighbor", port).Warn("send TAB: " + err.Error())
			continue
		}
		n.protocol.MessageSent(n.cfg.LocalPort, port)
	}
}

// sendCOS transmits a cost-change control message to port.
func (n *Node) sendCOS(port int) {
	payload, err := wire.EncodeCOS(int(n.cfg.CostChange))
	if err != nil {
		n.diag.WithField("neighbor", port).Error("encode COS: " + err.Error())
		return
	}
	if err := n.transport.WriteTo(payload, port); err != nil {
		n.diag.WithField("neighbor", port).Warn("send COS: " + err.Error())
	}
}

// floodLSA encodes a fresh LSA frame and sends it to every configured
// neighbor except skip (pass -1 to send to all, used for self-originated
// announcements).
func (n *Node) floodLSA(origin int, neighbors map[int]int, seq float64, skip int) {
	payload, err := wire.EncodeLSA(origin, neighbors, seq)
	if err != nil {
		n.diag.Error("encode LSA: " + err.Error())
		return
	}
	for _, port := range n.lsNeighborPorts() {
		if port == skip {
			continue
		}
		if err := n.transport.WriteTo(payload, port); err != nil {
			n.diag.WithField("neighbor", port).Warn("send LSA: " + err.Error())
			continue
		}
		n.protocol.LSASent(origin, seq, port)
	}
}

// floodRaw re-transmits a received LSA byte-identical to every neighbor
// but sender, per §4.4.
func (n *Node) floodRaw(f *wire.LsaFrame, sender int) {
	payload := f.RawFrame()
	for _, port := range n.lsNeighborPorts() {
		if port == sender {
			continue
		}
		if err := n.transport.WriteTo(payload, port); err != nil {
			n.diag.WithField("neighbor", port).Warn("send LSA: " + err.Error())
			continue
		}
		n.protocol.LSASent(f.Origin, f.Sequence, port)
	}
}

func (n *Node) lsNeighborPorts() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lsEngine.N.Ports()
}

func sortedPorts(m map[int]routing.Table) []int {
	ports := make([]int, 0, len(m))
	for p := range m {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}
