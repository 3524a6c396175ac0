package ax25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_DecodeControl_mod8_literalBytes(t *testing.T) {
	tests := []struct {
		name string
		b    byte
		want Control
	}{
		{"I-frame", 0b001_1_010_0, IControl{NR: 1, PF: true, NS: 2}},
		{"S-frame RR", 0b011_0_00_01, SControl{SS: RR, NR: 3, PF: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeControl([]byte{tt.b}, Modulo8)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Control_UFrame_roundTrip_allTypes(t *testing.T) {
	types := []UType{USABME, USABM, UDISC, UDM, UUA, UFRMR, UUI, UXID, UTEST}
	for _, ut := range types {
		c := UControl{M: ut, PF: true}
		encoded, err := EncodeControl(c, Modulo8)
		require.NoError(t, err)
		require.Len(t, encoded, 1)

		decoded, err := DecodeControl(encoded, Modulo8)
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	}
}

func Test_DecodeControl_reservedUType(t *testing.T) {
	// mmmmm = 0b00001 is not one of the nine defined U-frame types.
	b := byte(0b000_0_01_11)
	_, err := DecodeControl([]byte{b}, Modulo8)
	assert.True(t, IsErrReservedControl(err))
}

func Test_Control_roundTrip_property_mod8(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.IntRange(0, 2).Draw(t, "kind")
		pf := rapid.Bool().Draw(t, "pf")

		var c Control
		switch kind {
		case 0:
			c = IControl{NS: rapid.IntRange(0, 7).Draw(t, "ns"), NR: rapid.IntRange(0, 7).Draw(t, "nr"), PF: pf}
		case 1:
			ss := SSType(rapid.IntRange(0, 3).Draw(t, "ss"))
			c = SControl{SS: ss, NR: rapid.IntRange(0, 7).Draw(t, "nr"), PF: pf}
		default:
			types := []UType{USABME, USABM, UDISC, UDM, UUA, UFRMR, UUI, UXID, UTEST}
			c = UControl{M: types[rapid.IntRange(0, len(types)-1).Draw(t, "u")], PF: pf}
		}

		encoded, err := EncodeControl(c, Modulo8)
		require.NoError(t, err)
		decoded, err := DecodeControl(encoded, Modulo8)
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	})
}

func Test_Control_roundTrip_property_mod128(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.IntRange(0, 1).Draw(t, "kind")
		pf := rapid.Bool().Draw(t, "pf")

		var c Control
		if kind == 0 {
			c = IControl{NS: rapid.IntRange(0, 127).Draw(t, "ns"), NR: rapid.IntRange(0, 127).Draw(t, "nr"), PF: pf}
		} else {
			ss := SSType(rapid.IntRange(0, 3).Draw(t, "ss"))
			// Modulo128 S-frames carry 6 bits of N(R); see DESIGN.md.
			c = SControl{SS: ss, NR: rapid.IntRange(0, 63).Draw(t, "nr"), PF: pf}
		}

		encoded, err := EncodeControl(c, Modulo128)
		require.NoError(t, err)
		assert.Len(t, encoded, 2)
		decoded, err := DecodeControl(encoded, Modulo128)
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	})
}
