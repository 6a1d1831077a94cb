package transport

import "net"

// UDP is the production Transport: a UDP socket bound to 127.0.0.1 on a
// fixed local port, per spec §1's "loopback UDP transport."
type UDP struct {
	conn *net.UDPConn
	port int
}

// ListenUDP binds a UDP socket to 127.0.0.1:port.
func ListenUDP(port int) (*UDP, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &UDP{conn: conn, port: port}, nil
}

// LocalPort returns the bound port.
func (u *UDP) LocalPort() int { return u.port }

// WriteTo sends payload to 127.0.0.1:port.
func (u *UDP) WriteTo(payload []byte, port int) error {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
	_, err := u.conn.WriteToUDP(payload, addr)
	return err
}

// ReadFrom blocks for the next datagram. The Node Runtime must not hold its
// mutex across this call, per §5.
func (u *UDP) ReadFrom() (Datagram, error) {
	buf := make([]byte, MaxDatagramBytes)
	n, addr, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		return Datagram{}, err
	}
	return Datagram{Payload: buf[:n], FromPort: addr.Port}, nil
}

// Close releases the socket.
func (u *UDP) Close() error {
	return u.conn.Close()
}
