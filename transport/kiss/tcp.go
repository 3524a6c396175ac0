package kiss

import (
	"net"
	"sync"
	"time"
)

// TCPPort connects to a KISS-over-TCP TNC (e.g. direwolf's kissnet or a
// software modem), grounded on original_source/tncture/kiss.py's
// TCPKISSConnection: a non-blocking read loop accumulating bytes into a
// frameSplitter, sends wrapped in a KISS envelope on port 0. Uses the
// standard library net package, same as the teacher's own client.go.
type TCPPort struct {
	conn net.Conn

	mu       sync.Mutex
	splitter frameSplitter
	pending  [][]byte
}

// DialTCP connects to a KISS TNC listening at addr.
func DialTCP(addr string, timeout time.Duration) (*TCPPort, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return &TCPPort{conn: conn}, nil
}

func (p *TCPPort) SendDataFrame(data []byte) error {
	_, err := p.conn.Write(encodeKISSFrame(data))
	return err
}

// TryRecvDataFrame does one non-blocking read attempt and returns the
// oldest buffered data frame, if any, per the ax25.Port contract.
func (p *TCPPort) TryRecvDataFrame() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		if err := p.fill(); err != nil {
			return nil, err
		}
	}
	if len(p.pending) == 0 {
		return nil, nil
	}
	f := p.pending[0]
	p.pending = p.pending[1:]
	return f, nil
}

func (p *TCPPort) fill() error {
	if err := p.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return err
	}
	buf := make([]byte, 4096)
	n, err := p.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil
		}
		return err
	}

	for _, framed := range p.splitter.Feed(buf[:n]) {
		body, err := decodeKISSFrame(framed)
		if err != nil {
			continue // malformed KISS envelope: drop per spec.md §7
		}
		if body != nil {
			p.pending = append(p.pending, body)
		}
	}
	return nil
}

func (p *TCPPort) Close() error {
	return p.conn.Close()
}
