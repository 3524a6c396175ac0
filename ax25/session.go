package ax25

import (
	"sync"
	"time"
)

// Port is the datagram transport contract of spec.md §6.2: the core
// never depends on KISS/AGW/TCP specifics, only on this minimal
// send/try-recv pair. Implementations live in package transport/kiss.
type Port interface {
	SendDataFrame(data []byte) error
	TryRecvDataFrame() ([]byte, error) // nil, nil when nothing pending
}

// Session is the imperative shell of spec.md §4.6: it owns the port,
// the current pure State value, an input queue, and a user-output byte
// buffer, and repeatedly calls Step to run the state machine to
// quiescence. Grounded on the teacher's Client (client.go), which
// likewise guards its connection and channels with a mutex while
// keeping the protocol logic (APCI/ASDU parsing) free of locking.
type Session struct {
	mu sync.Mutex

	port  Port
	state State

	inputQueue []Input
	outputBuf  []byte
}

// NewSession constructs a Session in CONNECTING state, per spec.md §6.3.
func NewSession(port Port, mycall, theircall Address, opts ...ConfigOption) *Session {
	cfg := DefaultConfig()
	cfg.MyCall = mycall
	cfg.TheirCall = theircall
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		port:  port,
		state: NewState(cfg),
	}
}

// ConnState reports the session's current connection state.
func (s *Session) ConnState() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ConnState
}

// Write enqueues b for transmission in submission order.
func (s *Session) Write(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputQueue = append(s.inputQueue, InputUserWrite{Bytes: append([]byte(nil), b...)})
}

// Disconnect enqueues a graceful close request.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputQueue = append(s.inputQueue, InputUserDisconnect{})
}

// Read drains and returns everything delivered to the user stream since
// the last Read.
func (s *Session) Read() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.outputBuf
	s.outputBuf = nil
	return b
}

// Poll drains one received datagram from the port, parses it, and runs
// the state machine to completion, per spec.md §4.6. now drives the
// timer checks; callers own the clock (time.Now in production, while the
// scenario tests pass hand-advanced time.Time values).
func (s *Session) Poll(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, err := s.port.TryRecvDataFrame(); err != nil {
		s.handleTransportFailure()
	} else if raw != nil {
		s.handleIncoming(raw)
	}

	s.runToCompletion(now)
}

func (s *Session) handleTransportFailure() {
	// spec.md §7: a transport I/O failure is fatal; transition directly
	// to DISCONNECTED without a handshake.
	s.state.ConnState = DISCONNECTED
	s.state.Retransmit = s.state.Retransmit.Stop()
	s.state.Keepalive = s.state.Keepalive.Stop()
	s.state.BurstReceive = s.state.BurstReceive.Stop()
}

func (s *Session) handleIncoming(raw []byte) {
	f, err := DecodeFrame(raw, s.state.Config.Modulo)
	if err != nil {
		s.logDebugf("dropping malformed frame: %v", err)
		return
	}
	if !f.Dest.SameStation(s.state.Config.MyCall) || !f.Source.SameStation(s.state.Config.TheirCall) {
		s.logDebugf("dropping frame not addressed to/from this session")
		return
	}
	s.inputQueue = append(s.inputQueue, InputReceivedFrame{Frame: f})
}

// runToCompletion implements spec.md §4.6's loop: dequeue next input (or
// None), step, apply outputs, repeat while input remains or state changed.
func (s *Session) runToCompletion(now time.Time) {
	for {
		var in Input = InputNone{}
		hadInput := len(s.inputQueue) > 0
		if hadInput {
			in = s.inputQueue[0]
			s.inputQueue = s.inputQueue[1:]
		}

		next, outputs, msg := Step(s.state, in, now)
		changed := !sameConnVars(s.state, next)
		s.state = next

		if msg != "" {
			s.logDebugf("%s", msg)
		}
		s.applyOutputs(outputs)

		if !hadInput && !changed {
			return
		}
	}
}

func (s *Session) applyOutputs(outputs []Output) {
	for _, o := range outputs {
		switch v := o.(type) {
		case OutputTxFrame:
			raw, err := EncodeFrame(v.Frame, s.state.Config.Modulo)
			if err != nil {
				s.logDebugf("failed to encode outgoing frame: %v", err)
				continue
			}
			if err := s.port.SendDataFrame(raw); err != nil {
				s.handleTransportFailure()
			}
		case OutputUserOutput:
			s.outputBuf = append(s.outputBuf, v.Bytes...)
		}
	}
}

// sameConnVars is a cheap proxy for "did the step change anything worth
// looping for again" - comparing the observable state fields the driver
// loop cares about, per spec.md §4.6's "repeat while... the state changed".
func sameConnVars(a, b State) bool {
	return a.ConnState == b.ConnState &&
		a.VS == b.VS && a.VR == b.VR && a.VA == b.VA &&
		string(a.OutstandingFrame) == string(b.OutstandingFrame) &&
		string(a.QueuedBytes) == string(b.QueuedBytes) &&
		a.Retransmit.Equal(b.Retransmit) &&
		a.Keepalive.Equal(b.Keepalive) &&
		a.BurstReceive.Equal(b.BurstReceive)
}

func (s *Session) logDebugf(format string, args ...interface{}) {
	lg := s.state.Config.Logger
	if lg == nil {
		lg = defaultLogger
	}
	lg.Debugf(format, args...)
}
