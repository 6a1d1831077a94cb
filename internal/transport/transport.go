// Package transport abstracts the datagram socket the Node Runtime reads
// and writes, per design note "inject the socket handle into engines for
// testability." Transport has two implementations: UDP (real
// net.ListenUDP-backed loopback sockets) and Fake (an in-memory registry of
// buffered channels), modeled directly on the teacher's channel-based
// input/output fields, generalized from a single wired pair to an
// addressable registry so more than two nodes can be driven in one test.
package transport

// Datagram is one received payload together with the port it arrived from.
type Datagram struct {
	Payload  []byte
	FromPort int
}

// Transport is the socket abstraction the Node Runtime speaks to: send a payload to a port, block for the next arrival, report
// the local port, and shut down.
type Transport interface {
	LocalPort() int
	WriteTo(payload []byte, port int) error
	ReadFrom() (Datagram, error)
	Close() error
}

// MaxDatagramBytes bounds the buffer used to read one UDP datagram. It is
// one byte larger than the codec's frame cap so an oversized datagram is
// still read in full and can be rejected by the codec rather than silently
// truncated.
const MaxDatagramBytes = 2049
