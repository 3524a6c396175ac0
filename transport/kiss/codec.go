// Package kiss implements the KISS TNC framing protocol used to carry
// AX.25 frames over a serial or TCP byte stream, and a handful of
// ax25.Port implementations built on it. This sits outside the ax25
// package's core per spec.md §1 ("transport framing... treated as a
// datagram port"), grounded on original_source/tncture/kiss.py and
// transport/kiss.py.
package kiss

import (
	"bytes"
	"errors"
)

// Special bytes of the KISS/SLIP byte-stuffing scheme.
const (
	FEND  = 0xC0
	FESC  = 0xDB
	TFEND = 0xDC
	TFESC = 0xDD
)

// dataFrameCommand is the KISS command nibble for a data frame (the
// only command this core's ports send or recognize on receipt).
const dataFrameCommand = 0x00

var errBadEscape = errors.New("kiss: invalid FESC escape sequence")

// packSLIP byte-stuffs payload so FEND/FESC bytes inside it cannot be
// mistaken for frame delimiters, per original_source's pack_slip_frame.
func packSLIP(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+2)
	for _, b := range payload {
		switch b {
		case FEND:
			out = append(out, FESC, TFEND)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, b)
		}
	}
	return out
}

// unpackSLIP is the inverse of packSLIP, per original_source's unpack_slip_frame.
func unpackSLIP(framed []byte) ([]byte, error) {
	out := make([]byte, 0, len(framed))
	for i := 0; i < len(framed); i++ {
		b := framed[i]
		if b != FESC {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(framed) {
			return nil, errBadEscape
		}
		switch framed[i] {
		case TFESC:
			out = append(out, FESC)
		case TFEND:
			out = append(out, FEND)
		default:
			return nil, errBadEscape
		}
	}
	return out, nil
}

// encodeKISSFrame wraps an AX.25 data frame's bytes in a KISS envelope
// for port 0: FEND, command byte, SLIP-stuffed payload, FEND.
func encodeKISSFrame(ax25Frame []byte) []byte {
	body := packSLIP(append([]byte{dataFrameCommand}, ax25Frame...))
	out := make([]byte, 0, len(body)+2)
	out = append(out, FEND)
	out = append(out, body...)
	out = append(out, FEND)
	return out
}

// decodeKISSFrame unwraps a single KISS frame (without the surrounding
// FEND bytes) and returns the AX.25 payload if it is a data frame, or
// nil if it is some other KISS command this core ignores.
func decodeKISSFrame(framed []byte) ([]byte, error) {
	body, err := unpackSLIP(framed)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("kiss: empty frame body")
	}
	if body[0]&0x0F != dataFrameCommand {
		return nil, nil
	}
	return body[1:], nil
}

// frameSplitter accumulates a raw byte stream and yields complete
// FEND-delimited KISS frames as they arrive, grounded on
// original_source's TCPKISSConnection.recieve_raw_kiss_frame's buffering.
type frameSplitter struct {
	buf []byte
}

// Feed appends newly read bytes and returns every complete frame body
// (interior bytes between a pair of FEND delimiters) now available.
func (s *frameSplitter) Feed(chunk []byte) [][]byte {
	s.buf = append(s.buf, chunk...)

	var frames [][]byte
	for {
		start := bytes.IndexByte(s.buf, FEND)
		if start == -1 {
			s.buf = nil
			return frames
		}
		end := bytes.IndexByte(s.buf[start+1:], FEND)
		if end == -1 {
			s.buf = s.buf[start:]
			return frames
		}
		end += start + 1

		if end > start+1 {
			frames = append(frames, s.buf[start+1:end])
		}
		s.buf = s.buf[end:]
	}
}
