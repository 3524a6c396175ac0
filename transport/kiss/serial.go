package kiss

import (
	"sync"
	"time"

	serial "github.com/daedaluz/goserial"
)

// SerialPort connects to a KISS TNC over a real serial line, built on
// github.com/daedaluz/goserial (the pack's Daedaluz-goserial example):
// opens the tty, puts it in raw mode, and layers the same KISS framing
// as TCPPort and PTYPort on top of Read/Write.
type SerialPort struct {
	port *serial.Port

	mu       sync.Mutex
	splitter frameSplitter
	pending  [][]byte
}

// OpenSerial opens device at the given termios baud constant (e.g.
// serial.B9600) and switches it to raw mode, per goserial's Port.MakeRaw.
func OpenSerial(device string, baud serial.CFlag) (*SerialPort, error) {
	opts := serial.NewOptions()
	opts.SetReadTimeout(time.Millisecond)

	port, err := serial.Open(device, opts)
	if err != nil {
		return nil, err
	}
	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, err
	}

	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, err
	}
	attrs.SetSpeed(baud)
	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, err
	}

	return &SerialPort{port: port}, nil
}

func (p *SerialPort) SendDataFrame(data []byte) error {
	_, err := p.port.Write(encodeKISSFrame(data))
	return err
}

func (p *SerialPort) TryRecvDataFrame() ([]byte, error) {
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

func (p *SerialPort) fill() error {
	buf := make([]byte, 4096)
	n, err := p.port.ReadTimeout(buf, time.Millisecond)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
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

func (p *SerialPort) Close() error {
	return p.port.Close()
}
