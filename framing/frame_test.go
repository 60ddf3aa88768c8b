package framing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	r := Request{Address: "12345678"}
	got, err := DecodeRequest(r.Encode())
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestRequestRoundTripNoAddress(t *testing.T) {
	r := Request{}
	got, err := DecodeRequest(r.Encode())
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestIdentificationRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   Identification
	}{
		{"no generation marker", Identification{Flag: "LGZ", BaudChar: '5', Edas: "BEDAS", Model: "E350"}},
		{"with generation marker", Identification{Flag: "LGZ", BaudChar: '3', Gen: "1", Edas: "BEDAS", Model: "E350.V2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeIdentification(tc.id.Encode())
			require.NoError(t, err)
			assert.Equal(t, tc.id, got)
		})
	}
}

func TestDecodeIdentificationRejectsUnknownBaud(t *testing.T) {
	_, err := DecodeIdentification([]byte("/LGZ9BEDAS(E350)\r\n"))
	assert.ErrorIs(t, err, ErrUnknownBaud)
}

func TestDecodeIdentificationRejectsMalformed(t *testing.T) {
	_, err := DecodeIdentification([]byte("garbage"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestOptionSelectRoundTrip(t *testing.T) {
	o := OptionSelect{BaudChar: '5', Mode: '0'}
	got, err := DecodeOptionSelect(o.Encode())
	require.NoError(t, err)
	assert.Equal(t, o, got)
}

func TestDataBlockRoundTrip(t *testing.T) {
	d := NewDataBlock("0.0.0(12345678)\r\n1.8.0(001234.567*kWh)\r\n!\r\n")
	got, err := DecodeDataBlock(d.Encode())
	require.NoError(t, err)
	assert.Equal(t, d.Payload, got.Payload)
}

func TestDecodeDataBlockRejectsBccMismatch(t *testing.T) {
	d := NewDataBlock("0.0.0(12345678)\r\n")
	raw := d.Encode()
	raw[len(raw)-1] ^= 0x01
	_, err := DecodeDataBlock(raw)
	assert.ErrorIs(t, err, ErrBccMismatch)
}

func TestCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"R2 read", NewCommand(CmdR2, "1.8.0", "")},
		{"R2 load profile range", NewCommand(CmdR2, "P.01", "00-00-00,00:00;")},
		{"W2 write", NewCommand(CmdW2, "0.4.2", "01")},
		{"E2 execute", NewCommand(CmdE2, "C.51.0", "")},
		{"P1 password", NewCommand(CmdP1, "", "12345678")},
		{"B0 break", NewCommand(CmdB0, "", "")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeCommand(tc.cmd.Encode())
			require.NoError(t, err)
			assert.Equal(t, tc.cmd.Cmd, got.Cmd)
			assert.Equal(t, tc.cmd.Code, got.Code)
			assert.Equal(t, tc.cmd.Value, got.Value)
		})
	}
}

func TestCommandEncodeInsertsSTXAfterCommandCode(t *testing.T) {
	raw := NewCommand(CmdW2, "0.4.2", "01").Encode()
	require.True(t, len(raw) > 4)
	assert.Equal(t, byte(SOH), raw[0])
	assert.Equal(t, "W2", string(raw[1:3]))
	assert.Equal(t, byte(STX), raw[3], "a real meter rejects SOH-command frames without the inner STX")
}

func TestDecodeCommandRejectsMissingSTX(t *testing.T) {
	raw := NewCommand(CmdW2, "0.4.2", "01").Encode()
	raw[3] = 'X' // drop the mandatory STX
	_, err := DecodeCommand(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCommandEncodeCarriesNonEmptyR2Value(t *testing.T) {
	cmd := NewCommand(CmdR2, "P.01", "01-01-24,00:00;01-02-24,00:00")
	raw := cmd.Encode()
	assert.Contains(t, string(raw), "P.01(01-01-24,00:00;01-02-24,00:00)")
}

func TestDecodeCommandRejectsBccMismatch(t *testing.T) {
	cmd := NewCommand(CmdW2, "0.4.2", "01")
	raw := cmd.Encode()
	raw[len(raw)-1] ^= 0x01
	_, err := DecodeCommand(raw)
	assert.ErrorIs(t, err, ErrBccMismatch)
}

func TestDecodeShort(t *testing.T) {
	ack, err := DecodeShort(ShortAck{}.Encode())
	require.NoError(t, err)
	assert.IsType(t, ShortAck{}, ack)

	nak, err := DecodeShort(ShortNak{}.Encode())
	require.NoError(t, err)
	assert.IsType(t, ShortNak{}, nak)
}

func TestBaudCodeRoundTrip(t *testing.T) {
	for _, baud := range []int{300, 600, 1200, 2400, 4800, 9600, 19200} {
		code := CodeForBaud(baud)
		got, err := BaudForCode(code)
		require.NoError(t, err)
		assert.Equal(t, baud, got)
	}
}

func TestBaudForCodeRejectsUnknown(t *testing.T) {
	_, err := BaudForCode('9')
	assert.ErrorIs(t, err, ErrUnknownBaud)
}
