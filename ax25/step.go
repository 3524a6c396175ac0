package ax25

import "time"

// Step is the pure ABM transition function of spec.md §4.5:
// step(state, input) -> (state', outputs, log_message). It performs no
// I/O; the driver (session.go) is the only side-effecting shell, calling
// Step repeatedly to run-to-completion per spec.md §4.6.
func Step(s State, in Input, now time.Time) (State, []Output, string) {
	switch v := in.(type) {
	case InputUserWrite:
		return stepUserWrite(s, v)
	case InputUserDisconnect:
		return stepUserDisconnect(s, now)
	case InputReceivedFrame:
		return stepReceivedFrame(s, v.Frame, now)
	default:
		return stepTimers(s, now)
	}
}

func stepUserWrite(s State, in InputUserWrite) (State, []Output, string) {
	s.QueuedBytes = append(append([]byte(nil), s.QueuedBytes...), in.Bytes...)
	return s, nil, ""
}

// stepUserDisconnect begins a graceful close: stop the timers that no
// longer matter, and start-expired retransmit to force an immediate DISC.
func stepUserDisconnect(s State, now time.Time) (State, []Output, string) {
	if s.ConnState == DISCONNECTED {
		return s, nil, "user disconnect while already disconnected, ignored"
	}
	s.ConnState = DISCONNECTING
	s.Keepalive = s.Keepalive.Stop()
	s.BurstReceive = s.BurstReceive.Stop()
	s.Retransmit = s.Retransmit.StartExpired(now)
	return s, nil, "user disconnect requested"
}

func stepReceivedFrame(s State, f Frame, now time.Time) (State, []Output, string) {
	s.Keepalive = s.Keepalive.Start(now, 0)

	switch c := f.Control.(type) {
	case IControl:
		return s.stepIFrame(f, c, now)
	case SControl:
		return s.stepSFrame(f, c, now)
	case UControl:
		return s.stepUFrame(f, c, now)
	default:
		return s, nil, ""
	}
}

// stepIFrame implements spec.md §4.5.2.
func (s State) stepIFrame(f Frame, c IControl, now time.Time) (State, []Output, string) {
	if s.ConnState != CONNECTED {
		return s, nil, "I-frame received outside CONNECTED, ignored"
	}

	s.VA = c.NR

	if c.NS == s.VR {
		s.VR = s.incMod(s.VR)
		bonus := s.Config.BurstReceiveOffset
		if c.PF {
			bonus = 0
		}
		s.BurstReceive = s.BurstReceive.Start(now, bonus)
		return s, []Output{OutputUserOutput{Bytes: f.Payload}}, "in-order I-frame delivered"
	}

	if c.PF {
		resp := s.responseFrame(SControl{SS: REJ, NR: s.VR, PF: true}, nil, nil)
		s.BurstReceive = s.BurstReceive.Stop()
		return s, []Output{OutputTxFrame{Frame: resp}}, "out-of-order I-frame, REJ sent"
	}
	return s, nil, "out-of-order I-frame with pf=0, ignored"
}

// stepSFrame implements spec.md §4.5.3.
func (s State) stepSFrame(f Frame, c SControl, now time.Time) (State, []Output, string) {
	if s.ConnState != CONNECTED {
		return s, nil, "S-frame received outside CONNECTED, ignored"
	}

	switch c.SS {
	case RR:
		s.VA = c.NR
		var outputs []Output
		if f.Dest.Flag { // dest.C == 1: peer polled us
			resp := s.responseFrame(SControl{SS: RR, NR: s.VR, PF: true}, nil, nil)
			outputs = append(outputs, OutputTxFrame{Frame: resp})
			s.BurstReceive = s.BurstReceive.Stop()
		}
		if s.VA == s.VS {
			s.OutstandingFrame = nil
			s.Retransmit = s.Retransmit.Stop()
		}
		return s, outputs, "RR processed"

	case RNR:
		return s, nil, "RNR received, unsupported, ignored"

	case REJ:
		if s.OutstandingFrame == nil {
			return s, nil, "REJ received, nothing outstanding, ignored"
		}
		ns := s.decMod(s.VS)
		txf := s.commandFrame(IControl{NS: ns, NR: s.VR, PF: true}, []byte{0xF0}, s.OutstandingFrame)
		s.Retransmit = s.Retransmit.Start(now, 0)
		return s, []Output{OutputTxFrame{Frame: txf}}, "REJ received, resending outstanding frame"

	case SREJ:
		return s, nil, "SREJ received, unsupported, ignored"

	default:
		return s, nil, ""
	}
}

// stepUFrame implements spec.md §4.5.4's state/frame table.
func (s State) stepUFrame(f Frame, c UControl, now time.Time) (State, []Output, string) {
	if c.M == UDISC {
		next, _, _ := s.disconnect()
		resp := next.responseFrame(UControl{M: UUA, PF: c.PF}, nil, nil)
		return next, []Output{OutputTxFrame{Frame: resp}}, "DISC received, disconnecting and acking"
	}

	switch {
	case s.ConnState == CONNECTING && c.M == UUA:
		s.ConnState = CONNECTED
		s.Retransmit = s.Retransmit.Stop()
		s.Keepalive = s.Keepalive.Start(now, 0)
		return s, nil, "UA received, connection established"

	case s.ConnState == CONNECTING && c.M == UDM:
		next, outs, _ := s.disconnect()
		return next, outs, "DM received while connecting, disconnecting"

	case s.ConnState == DISCONNECTING && c.M == UUA:
		next, outs, _ := s.disconnect()
		return next, outs, "UA received while disconnecting, disconnecting"

	default:
		return s, nil, "unrecognized or unexpected U-frame, ignored"
	}
}

// disconnect implements spec.md §4.5.6: terminal, idempotent, no outputs
// of its own (callers that need a UA response build it separately).
func (s State) disconnect() (State, []Output, string) {
	s.ConnState = DISCONNECTED
	s.Retransmit = s.Retransmit.Stop()
	s.Keepalive = s.Keepalive.Stop()
	s.BurstReceive = s.BurstReceive.Stop()
	return s, nil, "disconnected"
}

// stepTimers implements spec.md §4.5.5: exactly one timer-driven action
// fires per call, in the priority order spec.md lists.
func stepTimers(s State, now time.Time) (State, []Output, string) {
	switch s.ConnState {
	case CONNECTING:
		if s.Retransmit.Expired(now) {
			frame := s.commandFrame(UControl{M: USABM, PF: true}, nil, nil)
			s.Retransmit = s.Retransmit.Start(now, 0)
			return s, []Output{OutputTxFrame{Frame: frame}}, "retransmit expired, sending SABM"
		}

	case DISCONNECTING:
		if s.Retransmit.Expired(now) {
			frame := s.commandFrame(UControl{M: UDISC, PF: true}, nil, nil)
			s.Retransmit = s.Retransmit.Start(now, 0)
			return s, []Output{OutputTxFrame{Frame: frame}}, "retransmit expired, sending DISC"
		}

	case CONNECTED:
		if s.Retransmit.Expired(now) && s.OutstandingFrame != nil {
			ns := s.decMod(s.VS)
			frame := s.commandFrame(IControl{NS: ns, NR: s.VR, PF: true}, []byte{0xF0}, s.OutstandingFrame)
			s.Retransmit = s.Retransmit.Start(now, 0)
			return s, []Output{OutputTxFrame{Frame: frame}}, "retransmit expired, resending outstanding I-frame"
		}
		if s.BurstReceive.Expired(now) {
			frame := s.responseFrame(SControl{SS: RR, NR: s.VR, PF: true}, nil, nil)
			s.BurstReceive = s.BurstReceive.Stop()
			return s, []Output{OutputTxFrame{Frame: frame}}, "burst receive expired, sending delayed RR ack"
		}
		if s.Keepalive.Expired(now) {
			frame := s.commandFrame(SControl{SS: RR, NR: s.VR, PF: true}, nil, nil)
			s.Keepalive = s.Keepalive.Start(now, 0)
			return s, []Output{OutputTxFrame{Frame: frame}}, "keepalive expired, polling peer"
		}
		if len(s.QueuedBytes) > 0 && s.VA == s.VS {
			n := s.Config.MTU
			if n > len(s.QueuedBytes) {
				n = len(s.QueuedBytes)
			}
			payload := append([]byte(nil), s.QueuedBytes[:n]...)
			s.QueuedBytes = append([]byte(nil), s.QueuedBytes[n:]...)

			vsBefore := s.VS
			s.OutstandingFrame = payload
			s.VS = s.incMod(s.VS)
			s.BurstReceive = s.BurstReceive.Stop()

			frame := s.commandFrame(IControl{NS: vsBefore, NR: s.VR, PF: true}, []byte{0xF0}, payload)
			s.Retransmit = s.Retransmit.Start(now, 0)
			return s, []Output{OutputTxFrame{Frame: frame}}, "sending queued bytes as new I-frame"
		}
	}

	return s, nil, ""
}

// commandFrame builds a frame with the command addressing convention of
// spec.md §4.3: source.C = 0, dest.C = 1.
func (s State) commandFrame(ctl Control, pid, payload []byte) Frame {
	dest := s.Config.TheirCall
	dest.Flag = true
	source := s.Config.MyCall
	source.Flag = false
	return Frame{Dest: dest, Source: source, Control: ctl, PID: pid, Payload: payload}
}

// responseFrame builds a frame with the response addressing convention:
// source.C = 1, dest.C = 0.
func (s State) responseFrame(ctl Control, pid, payload []byte) Frame {
	dest := s.Config.TheirCall
	dest.Flag = false
	source := s.Config.MyCall
	source.Flag = true
	return Frame{Dest: dest, Source: source, Control: ctl, PID: pid, Payload: payload}
}
