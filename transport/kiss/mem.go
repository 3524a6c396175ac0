package kiss

import "sync"

// MemPort is an in-memory ax25.Port, grounded directly on
// original_source/tncture/kiss.py's DummyKISSPort: two FIFOs of raw
// AX.25 frame bytes, no actual KISS framing involved since there is no
// byte stream to stuff. Inject supplies received frames and Sent drains
// what was sent, for tests that play the peer's role.
type MemPort struct {
	mu       sync.Mutex
	outgoing [][]byte
	incoming [][]byte
}

// NewMemPort returns an empty MemPort.
func NewMemPort() *MemPort {
	return &MemPort{}
}

func (p *MemPort) SendDataFrame(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outgoing = append(p.outgoing, append([]byte(nil), data...))
	return nil
}

func (p *MemPort) TryRecvDataFrame() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.incoming) == 0 {
		return nil, nil
	}
	f := p.incoming[0]
	p.incoming = p.incoming[1:]
	return f, nil
}

// Inject makes data available to the next TryRecvDataFrame call, for
// tests that play the peer's role.
func (p *MemPort) Inject(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.incoming = append(p.incoming, append([]byte(nil), data...))
}

// Sent drains and returns everything SendDataFrame has accumulated, for
// tests asserting on emitted frames.
func (p *MemPort) Sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.outgoing
	p.outgoing = nil
	return out
}

// NewLoopbackPair returns two channel-backed ports wired to each other:
// frames sent on a arrive as received frames on b and vice versa. Useful
// for end-to-end session tests without any real transport.
func NewLoopbackPair() (a, b *loopbackPort) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	return &loopbackPort{send: ab, recv: ba}, &loopbackPort{send: ba, recv: ab}
}

// loopbackPort is a channel-backed ax25.Port, distinct from MemPort in
// that it models a live link (ordered delivery, non-blocking receive; a
// send blocks once 64 frames are waiting) rather than a hand-populated
// fixture.
type loopbackPort struct {
	send chan<- []byte
	recv <-chan []byte
}

func (p *loopbackPort) SendDataFrame(data []byte) error {
	p.send <- append([]byte(nil), data...)
	return nil
}

func (p *loopbackPort) TryRecvDataFrame() ([]byte, error) {
	select {
	case f := <-p.recv:
		return f, nil
	default:
		return nil, nil
	}
}
