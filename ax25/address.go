package ax25

import (
	"strconv"
	"strings"
)

/*
Address is an AX.25 station address: a callsign, an SSID, and the two
protocol flag bits carried in the final octet of the encoded field.

  - RR is the reserved bit pair, by convention 0b11.
  - Flag is the role-dependent bit: for a source/destination address this
    is the command/response (C) bit, for a repeater address this is the
    has-been-repeated (H) bit. Which role applies is determined by the
    address's position in a Frame, not by anything stored here.

Equality for routing purposes ("same station") only ever considers
Callsign and SSID - see SameStation.
*/
type Address struct {
	Callsign string
	SSID     int
	RR       int
	Flag     bool
}

const defaultRR = 0b11

// NewAddress builds an Address with the conventional RR=0b11 reserved bits.
func NewAddress(callsign string, ssid int) Address {
	return Address{Callsign: callsign, SSID: ssid, RR: defaultRR}
}

// SameStation reports whether two addresses refer to the same station,
// ignoring the flag bit and reserved bits.
func (a Address) SameStation(other Address) bool {
	return a.Callsign == other.Callsign && a.SSID == other.SSID
}

func (a Address) String() string {
	if a.SSID == 0 {
		return a.Callsign
	}
	return a.Callsign + "-" + strconv.Itoa(a.SSID)
}

// EncodeAddress writes the 7-byte shifted-ASCII address field for a, with
// the end-of-address-list bit set per last.
func EncodeAddress(a Address, last bool) []byte {
	call := a.Callsign
	if len(call) < 6 {
		call = call + strings.Repeat(" ", 6-len(call))
	}

	out := make([]byte, 7)
	for i := 0; i < 6; i++ {
		out[i] = call[i] << 1
	}

	var endBit byte
	if last {
		endBit = 1
	}
	var flagBit byte
	if a.Flag {
		flagBit = 1
	}
	out[6] = (flagBit << 7) | (byte(a.RR&0b11) << 5) | (byte(a.SSID&0b1111) << 1) | endBit
	return out
}

// DecodeAddress parses the 7-byte shifted-ASCII address field in data,
// returning the address and whether the end-of-address-list bit was set.
func DecodeAddress(data []byte) (Address, bool, error) {
	if len(data) < 7 {
		return Address{}, false, errMalformedFrame{"address field shorter than 7 bytes"}
	}

	call := make([]byte, 6)
	for i := 0; i < 6; i++ {
		call[i] = data[i] >> 1
	}
	callsign := strings.TrimRight(string(call), " ")

	last := data[6]
	end := last&0b1 != 0
	ssid := int((last >> 1) & 0b1111)
	rr := int((last >> 5) & 0b11)
	flag := (last>>7)&0b1 != 0

	return Address{
		Callsign: callsign,
		SSID:     ssid,
		RR:       rr,
		Flag:     flag,
	}, end, nil
}
