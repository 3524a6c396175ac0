package kiss

import (
	"os"
	"sync"
	"time"

	"github.com/creack/pty"
)

// PTYPort is a loopback ax25.Port backed by a pseudo-terminal pair,
// grounded on doismellburning/samoyed's src/kiss.go (its own virtual
// KISS TNC, built on the same github.com/creack/pty dependency). Used by
// cmd/ax25dial's --loopback mode.
type PTYPort struct {
	master, slave *os.File

	mu       sync.Mutex
	splitter frameSplitter
	pending  [][]byte
}

// NewPTYPort opens a fresh PTY pair. SlaveName() reports the path other
// KISS client software can open to talk to this port.
func NewPTYPort() (*PTYPort, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}
	return &PTYPort{master: master, slave: slave}, nil
}

// SlaveName returns the filesystem path of the PTY's slave side.
func (p *PTYPort) SlaveName() string {
	return p.slave.Name()
}

func (p *PTYPort) SendDataFrame(data []byte) error {
	_, err := p.master.Write(encodeKISSFrame(data))
	return err
}

func (p *PTYPort) TryRecvDataFrame() ([]byte, error) {
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

func (p *PTYPort) fill() error {
	if err := p.master.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return err
	}
	buf := make([]byte, 4096)
	n, err := p.master.Read(buf)
	if err != nil {
		if os.IsTimeout(err) {
			return nil
		}
		return err
	}

	for _, framed := range p.splitter.Feed(buf[:n]) {
		body, err := decodeKISSFrame(framed)
		if err != nil {
			continue
		}
		if body != nil {
			p.pending = append(p.pending, body)
		}
	}
	return nil
}

func (p *PTYPort) Close() error {
	err1 := p.master.Close()
	err2 := p.slave.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
