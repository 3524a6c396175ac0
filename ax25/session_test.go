package ax25

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is a hand-fed ax25.Port fixture, grounded the same way as
// transport/kiss.MemPort, with a failNext switch that makes the next
// receive return a transport error.
type fakePort struct {
	mu       sync.Mutex
	outgoing [][]byte
	incoming [][]byte
	failNext bool
}

func (p *fakePort) SendDataFrame(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outgoing = append(p.outgoing, append([]byte(nil), data...))
	return nil
}

func (p *fakePort) TryRecvDataFrame() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext {
		p.failNext = false
		return nil, errors.New("transport failure")
	}
	if len(p.incoming) == 0 {
		return nil, nil
	}
	f := p.incoming[0]
	p.incoming = p.incoming[1:]
	return f, nil
}

func (p *fakePort) inject(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.incoming = append(p.incoming, append([]byte(nil), data...))
}

func (p *fakePort) sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.outgoing
	p.outgoing = nil
	return out
}

var (
	testMyCall    = NewAddress("N0CALL", 1)
	testTheirCall = NewAddress("N0CALL", 2)
)

// decodeSent is a test helper unpacking every frame a fakePort captured.
func decodeSent(t *testing.T, raw [][]byte) []Frame {
	t.Helper()
	out := make([]Frame, len(raw))
	for i, b := range raw {
		f, err := DecodeFrame(b, Modulo8)
		require.NoError(t, err)
		out[i] = f
	}
	return out
}

// Scenario 1: connect handshake. A fresh session immediately sends SABM
// (retransmit timer pre-expired at construction); once the peer's UA
// arrives, the session transitions to CONNECTED.
func Test_Scenario_ConnectHandshake(t *testing.T) {
	port := &fakePort{}
	sess := NewSession(port, testMyCall, testTheirCall)
	now := time.Now()

	sess.Poll(now)
	sent := decodeSent(t, port.sent())
	require.Len(t, sent, 1)
	u, ok := sent[0].Control.(UControl)
	require.True(t, ok)
	assert.Equal(t, USABM, u.M)
	assert.Equal(t, CONNECTING, sess.ConnState())

	ua := Frame{
		Dest:    addrAsSource(testMyCall),
		Source:  addrAsDest(testTheirCall),
		Control: UControl{M: UUA, PF: true},
	}
	raw, err := EncodeFrame(ua, Modulo8)
	require.NoError(t, err)
	port.inject(raw)

	sess.Poll(now)
	assert.Equal(t, CONNECTED, sess.ConnState())
}

// addrAsSource/addrAsDest build the peer's view of an address: when the
// peer (theircall) sends us a frame, its dest is our call with C=0 and
// its source is its own call with C=1 (response addressing convention).
func addrAsSource(call Address) Address {
	call.Flag = false
	return call
}

func addrAsDest(call Address) Address {
	call.Flag = true
	return call
}

func connectedSession(t *testing.T) (*Session, *fakePort, time.Time) {
	t.Helper()
	port := &fakePort{}
	sess := NewSession(port, testMyCall, testTheirCall)
	now := time.Now()

	sess.Poll(now)
	port.sent() // discard the SABM

	ua := Frame{Dest: addrAsSource(testMyCall), Source: addrAsDest(testTheirCall), Control: UControl{M: UUA, PF: true}}
	raw, err := EncodeFrame(ua, Modulo8)
	require.NoError(t, err)
	port.inject(raw)
	sess.Poll(now)
	require.Equal(t, CONNECTED, sess.ConnState())

	return sess, port, now
}

// Scenario 2: send and ack. A user Write results in an I-frame; the
// peer's RR acking it clears the outstanding frame and stops retransmit.
func Test_Scenario_SendAndAck(t *testing.T) {
	sess, port, now := connectedSession(t)

	sess.Write([]byte("hello"))
	sess.Poll(now)

	sent := decodeSent(t, port.sent())
	require.Len(t, sent, 1)
	ic, ok := sent[0].Control.(IControl)
	require.True(t, ok)
	assert.Equal(t, 0, ic.NS)
	assert.Equal(t, []byte("hello"), sent[0].Payload)

	rr := Frame{Dest: addrAsSource(testMyCall), Source: addrAsDest(testTheirCall), Control: SControl{SS: RR, NR: 1, PF: false}}
	raw, err := EncodeFrame(rr, Modulo8)
	require.NoError(t, err)
	port.inject(raw)
	sess.Poll(now)

	assert.Empty(t, port.sent())
}

// Scenario 3: out-of-order reject. A received I-frame with an
// unexpected N(S) and the poll bit set earns an immediate REJ.
func Test_Scenario_OutOfOrderReject(t *testing.T) {
	sess, port, now := connectedSession(t)

	badFrame := Frame{
		Dest:    addrAsSource(testMyCall),
		Source:  addrAsDest(testTheirCall),
		Control: IControl{NS: 5, NR: 0, PF: true},
		PID:     []byte{0xF0},
		Payload: []byte("oops"),
	}
	raw, err := EncodeFrame(badFrame, Modulo8)
	require.NoError(t, err)
	port.inject(raw)
	sess.Poll(now)

	sent := decodeSent(t, port.sent())
	require.Len(t, sent, 1)
	sc, ok := sent[0].Control.(SControl)
	require.True(t, ok)
	assert.Equal(t, REJ, sc.SS)
	assert.Equal(t, 0, sc.NR)
	assert.Empty(t, sess.Read())
}

// Scenario 4: delayed ack batching. An in-order I-frame without the poll
// bit starts the burst-receive timer instead of acking immediately; the
// ack only goes out once that timer expires.
func Test_Scenario_DelayedAckBatching(t *testing.T) {
	sess, port, now := connectedSession(t)

	inOrder := Frame{
		Dest:    addrAsSource(testMyCall),
		Source:  addrAsDest(testTheirCall),
		Control: IControl{NS: 0, NR: 0, PF: false},
		PID:     []byte{0xF0},
		Payload: []byte("batch me"),
	}
	raw, err := EncodeFrame(inOrder, Modulo8)
	require.NoError(t, err)
	port.inject(raw)
	sess.Poll(now)

	assert.Empty(t, port.sent())
	assert.Equal(t, []byte("batch me"), sess.Read())

	// A pf=0 frame starts the burst-receive timer BurstReceiveOffset in
	// the future, so the ack is due after timeout + offset.
	later := now.Add(DefaultBurstReceiveTimeout + DefaultBurstReceiveOffset + time.Second)
	sess.Poll(later)

	sent := decodeSent(t, port.sent())
	require.Len(t, sent, 1)
	sc, ok := sent[0].Control.(SControl)
	require.True(t, ok)
	assert.Equal(t, RR, sc.SS)
	assert.Equal(t, 1, sc.NR)
}

// Scenario 5: retransmit on loss. An unacked outstanding I-frame gets
// resent once the retransmit timer expires, with the same N(S).
func Test_Scenario_RetransmitOnLoss(t *testing.T) {
	sess, port, now := connectedSession(t)

	sess.Write([]byte("lost"))
	sess.Poll(now)
	first := decodeSent(t, port.sent())
	require.Len(t, first, 1)

	later := now.Add(DefaultRetransmitTimeout + time.Second)
	sess.Poll(later)

	resent := decodeSent(t, port.sent())
	require.Len(t, resent, 1)
	ic, ok := resent[0].Control.(IControl)
	require.True(t, ok)
	assert.Equal(t, 0, ic.NS)
	assert.Equal(t, []byte("lost"), resent[0].Payload)
}

// Scenario 6: graceful disconnect. A user Disconnect sends DISC
// immediately (retransmit start-expired), and the peer's UA finishes
// the teardown into DISCONNECTED.
func Test_Scenario_GracefulDisconnect(t *testing.T) {
	sess, port, now := connectedSession(t)

	sess.Disconnect()
	sess.Poll(now)

	sent := decodeSent(t, port.sent())
	require.Len(t, sent, 1)
	u, ok := sent[0].Control.(UControl)
	require.True(t, ok)
	assert.Equal(t, UDISC, u.M)
	assert.Equal(t, DISCONNECTING, sess.ConnState())

	ua := Frame{Dest: addrAsSource(testMyCall), Source: addrAsDest(testTheirCall), Control: UControl{M: UUA, PF: true}}
	raw, err := EncodeFrame(ua, Modulo8)
	require.NoError(t, err)
	port.inject(raw)
	sess.Poll(now)

	assert.Equal(t, DISCONNECTED, sess.ConnState())
}

func Test_Session_transportFailure_forcesDisconnected(t *testing.T) {
	sess, port, now := connectedSession(t)
	port.failNext = true

	sess.Poll(now)
	assert.Equal(t, DISCONNECTED, sess.ConnState())
}
