package ax25

// Frame is a fully decoded AX.25 frame: addressing, one control variant,
// an optional PID (present for I-frames, and UI per spec.md §3.3's note,
// even though this core never emits UI), and payload.
type Frame struct {
	Dest      Address
	Source    Address
	Repeaters []Address
	Control   Control
	PID       []byte
	Payload   []byte
}

func carriesPID(c Control) bool {
	if _, ok := c.(IControl); ok {
		return true
	}
	if u, ok := c.(UControl); ok {
		return u.M == UUI
	}
	return false
}

// DecodeFrame parses a byte stream into a Frame: destination, source,
// zero or more repeaters terminated by the address end bit, control
// field, PID (I/UI only), and the remaining bytes as payload.
func DecodeFrame(data []byte, mod Modulo) (Frame, error) {
	if len(data) < 14 {
		return Frame{}, errMalformedFrame{"too short for destination+source addresses"}
	}

	dest, end, err := DecodeAddress(data[0:7])
	if err != nil {
		return Frame{}, err
	}
	if end {
		return Frame{}, errMalformedFrame{"address list ended before source address"}
	}

	source, end, err := DecodeAddress(data[7:14])
	if err != nil {
		return Frame{}, err
	}
	rest := data[14:]

	var repeaters []Address
	for !end {
		if len(rest) < 7 {
			return Frame{}, errMalformedFrame{"truncated repeater address"}
		}
		var rep Address
		rep, end, err = DecodeAddress(rest[0:7])
		if err != nil {
			return Frame{}, err
		}
		repeaters = append(repeaters, rep)
		rest = rest[7:]
	}

	if len(rest) == 0 {
		return Frame{}, errMalformedFrame{"missing control field"}
	}
	ctl, err := DecodeControl(rest, mod)
	if err != nil {
		return Frame{}, err
	}
	ctlLen := controlLen(rest[0], mod)
	rest = rest[ctlLen:]

	var pid []byte
	if carriesPID(ctl) {
		if len(rest) == 0 {
			return Frame{}, errMalformedFrame{"I-frame missing PID byte"}
		}
		n := 1
		if rest[0] == 0xFF || rest[0] == 0x08 {
			n = 2
		}
		if len(rest) < n {
			return Frame{}, errMalformedFrame{"truncated PID escape"}
		}
		pid = append(pid, rest[:n]...)
		rest = rest[n:]
	}

	payload := append([]byte(nil), rest...)

	return Frame{
		Dest:      dest,
		Source:    source,
		Repeaters: repeaters,
		Control:   ctl,
		PID:       pid,
		Payload:   payload,
	}, nil
}

// EncodeFrame is the bitwise inverse of DecodeFrame.
func EncodeFrame(f Frame, mod Modulo) ([]byte, error) {
	var out []byte

	out = append(out, EncodeAddress(f.Dest, false)...)
	out = append(out, EncodeAddress(f.Source, len(f.Repeaters) == 0)...)
	for i, rep := range f.Repeaters {
		out = append(out, EncodeAddress(rep, i == len(f.Repeaters)-1)...)
	}

	ctl, err := EncodeControl(f.Control, mod)
	if err != nil {
		return nil, err
	}
	out = append(out, ctl...)

	if carriesPID(f.Control) {
		if len(f.PID) == 0 {
			return nil, errMalformedFrame{"I-frame missing PID byte"}
		}
		out = append(out, f.PID...)
	}

	out = append(out, f.Payload...)
	return out, nil
}
