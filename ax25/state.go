package ax25

// ConnState is the connection lifecycle, per spec.md §3.4.
type ConnState int

const (
	CONNECTING ConnState = iota
	CONNECTED
	DISCONNECTING
	DISCONNECTED
)

func (s ConnState) String() string {
	switch s {
	case CONNECTING:
		return "CONNECTING"
	case CONNECTED:
		return "CONNECTED"
	case DISCONNECTING:
		return "DISCONNECTING"
	case DISCONNECTED:
		return "DISCONNECTED"
	default:
		return "?"
	}
}

// Input is the tagged union of things step() can react to, grounded on
// original_source/tncture/ax25/abm.py's ABMInput_* dataclasses.
type Input interface {
	isInput()
}

type InputUserWrite struct{ Bytes []byte }
type InputUserDisconnect struct{}
type InputReceivedFrame struct{ Frame Frame }
type InputNone struct{}

func (InputUserWrite) isInput()      {}
func (InputUserDisconnect) isInput() {}
func (InputReceivedFrame) isInput()  {}
func (InputNone) isInput()           {}

// Output is the tagged union step() can emit, grounded on
// original_source's ABMOutput_TXFrame/ABMOutput_UserOutput.
type Output interface {
	isOutput()
}

type OutputTxFrame struct{ Frame Frame }
type OutputUserOutput struct{ Bytes []byte }

func (OutputTxFrame) isOutput()     {}
func (OutputUserOutput) isOutput()  {}

// State is the full persistent state of one ABM connection, per
// spec.md §3.4. It is passed and returned by value from step() so the
// state machine can stay pure; Go's struct value semantics give this
// for free as long as no field is itself a pointer or slice that step()
// mutates in place (QueuedBytes/OutstandingFrame are always replaced
// wholesale, never appended-to in place, to preserve that).
type State struct {
	Config Config

	ConnState ConnState

	VS int // send state variable: ns of the next I-frame to send
	VR int // receive state variable: ns expected next
	VA int // acknowledge state variable: last nr seen from peer

	OutstandingFrame []byte // unacked I-frame payload, nil if none
	QueuedBytes      []byte // FIFO of user bytes awaiting transmission

	Retransmit   Timer
	Keepalive    Timer
	BurstReceive Timer
}

// NewState builds the CONNECTING initial state per spec.md §3.4's
// lifecycle note: all sequence variables zero, retransmit pre-expired
// so the first step() fires SABM immediately.
func NewState(cfg Config) State {
	s := State{
		Config:       cfg,
		ConnState:    CONNECTING,
		Retransmit:   NewTimer("retransmit", cfg.RetransmitTimeout),
		Keepalive:    NewTimer("keepalive", cfg.KeepaliveTimeout),
		BurstReceive: NewTimer("burst_receive", cfg.BurstReceiveTimeout),
	}
	s.Retransmit = s.Retransmit.StartAtEpoch()
	return s
}

func (s State) mod() int {
	if s.Config.WindowSize > 0 {
		return s.Config.WindowSize
	}
	return DefaultWindowSize
}

func (s State) incMod(n int) int {
	return (n + 1) % s.mod()
}

func (s State) decMod(n int) int {
	return ((n-1)%s.mod() + s.mod()) % s.mod()
}
