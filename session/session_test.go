package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edastools/modec/events"
	"github.com/edastools/modec/framing"
	"github.com/edastools/modec/linedriver"
	"github.com/edastools/modec/obis"
)

// scriptedPort is a linedriver.Port stand-in for a meter: each Write call
// queues the next scripted reply, consumed by the following Read calls.
// It lets a test script a request/response exchange without a real pty
// or wall-clock coordination between two goroutines.
type scriptedPort struct {
	responses [][]byte
	idx       int
	pending   []byte
	written   [][]byte
	speeds    []int
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	cp := append([]byte(nil), b...)
	p.written = append(p.written, cp)
	if p.idx < len(p.responses) {
		p.pending = append([]byte(nil), p.responses[p.idx]...)
		p.idx++
	}
	return len(b), nil
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		return 0, nil
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *scriptedPort) SetReadTimeout(time.Duration) error { return nil }
func (p *scriptedPort) SetSpeed(baud int) error            { p.speeds = append(p.speeds, baud); return nil }
func (p *scriptedPort) Close() error                       { return nil }

var _ linedriver.Port = (*scriptedPort)(nil)

type scriptedFactory struct{ port *scriptedPort }

func (f scriptedFactory) Open(string, int) (linedriver.Port, error) { return f.port, nil }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Port = "test"
	cfg.ByteTimeout = 80 * time.Millisecond
	cfg.Turnaround = 2 * time.Millisecond
	return cfg
}

func TestNegotiateAndReadShortEndToEnd(t *testing.T) {
	ident := framing.Identification{Flag: "LGZ", BaudChar: '5', Edas: "BED", Model: "E350"}.Encode()
	block := framing.NewDataBlock("0.0.0(12345678)\r\n1.8.0(001234.567*kWh)\r\n!\r\n").Encode()
	port := &scriptedPort{responses: [][]byte{ident, block}}

	rec := events.NewRecorder()
	s := New(testConfig(), scriptedFactory{port}, rec, nil)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	s.BeginOperation("read_short", 6)

	id, err := s.Negotiate(ctx, ModeShort)
	require.NoError(t, err)
	assert.Equal(t, "LGZ", id.Flag)
	assert.Equal(t, 9600, s.NegotiatedBaud())
	assert.Equal(t, []int{9600}, port.speeds)

	payload, err := s.ReadWholeTable(ctx)
	require.NoError(t, err)

	reading, err := obis.Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, "12345678", reading.Identity.Serial)

	s.EndSession(ctx)
	require.Len(t, port.speeds, 2)
	assert.Equal(t, 300, port.speeds[1], "EndSession must reset to the initial baud")

	lastFrame := port.written[len(port.written)-1]
	assert.Equal(t, byte(framing.SOH), lastFrame[0])
	cmd, err := framing.DecodeCommand(lastFrame)
	require.NoError(t, err)
	assert.Equal(t, framing.CmdB0, cmd.Cmd)

	// Idempotent: a second EndSession call must not re-send Break.
	writesBefore := len(port.written)
	s.EndSession(ctx)
	assert.Equal(t, writesBefore, len(port.written))
}

func TestNegotiateCapsBaudToStandardRate(t *testing.T) {
	ident := framing.Identification{Flag: "LGZ", BaudChar: '6', Edas: "BED", Model: "E350"}.Encode()
	port := &scriptedPort{responses: [][]byte{ident}}

	ctx := context.Background()
	cfg := testConfig()
	cfg.CapBaud = 2400
	s := New(cfg, scriptedFactory{port}, nil, nil)
	require.NoError(t, s.Open(ctx))

	_, err := s.Negotiate(ctx, ModeShort)
	require.NoError(t, err)
	assert.Equal(t, 2400, s.NegotiatedBaud(), "meter proposed 19200 but the cap must win")
	assert.Equal(t, []int{2400}, port.speeds)
}

func TestOpticalConnectionForces300Baud(t *testing.T) {
	cfg := testConfig()
	cfg.ConnectionKind = ConnOptical
	cfg.InitialBaud = 9600

	rec := events.NewRecorder()
	port := &scriptedPort{}
	s := New(cfg, scriptedFactory{port}, rec, nil)
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, 300, s.NegotiatedBaud())

	var sawWarning bool
	for _, l := range rec.Logs() {
		if l.Level == events.LevelWarn && strings.Contains(l.Text, "optical") {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning, "forcing the optical baud override must be logged")
}

func TestReadOBISRetryCapThenFails(t *testing.T) {
	cfg := testConfig()
	cfg.ByteTimeout = 15 * time.Millisecond
	cfg.Retries = 3
	port := &scriptedPort{} // never replies
	s := New(cfg, scriptedFactory{port}, nil, nil)
	require.NoError(t, s.Open(context.Background()))

	_, err := s.ReadOBISArg(context.Background(), "1.8.0", "")
	assert.ErrorIs(t, err, ErrDataBlock)
	assert.Len(t, port.written, cfg.Retries+1, "must attempt exactly Retries+1 times, no more")
}

func TestAuthenticateLockoutAfterThreeRejections(t *testing.T) {
	port := &scriptedPort{responses: [][]byte{{framing.NAK}, {framing.NAK}, {framing.NAK}}}
	s := New(testConfig(), scriptedFactory{port}, nil, nil)
	require.NoError(t, s.Open(context.Background()))
	ctx := context.Background()

	err := s.Authenticate(ctx, "11111111")
	assert.ErrorIs(t, err, ErrAuthRejected)

	err = s.Authenticate(ctx, "11111111")
	assert.ErrorIs(t, err, ErrAuthRejected)

	err = s.Authenticate(ctx, "11111111")
	assert.ErrorIs(t, err, ErrLockoutImminent)

	writesBefore := len(port.written)
	err = s.Authenticate(ctx, "11111111")
	assert.ErrorIs(t, err, ErrLockoutImminent)
	assert.Equal(t, writesBefore, len(port.written), "a locked session must refuse to send a fourth password frame")
}

func TestWriteOBISAndExecuteAcceptAck(t *testing.T) {
	port := &scriptedPort{responses: [][]byte{{framing.ACK}, {framing.ACK}}}
	s := New(testConfig(), scriptedFactory{port}, nil, nil)
	require.NoError(t, s.Open(context.Background()))
	ctx := context.Background()

	require.NoError(t, s.WriteOBIS(ctx, "0.4.2", "01"))
	require.NoError(t, s.Execute(ctx, "C.51.0"))
	assert.Len(t, port.written, 2)
}

func TestIdentifyOnlyDoesNotSelectModeOrSwitchBaud(t *testing.T) {
	ident := framing.Identification{Flag: "LGZ", BaudChar: '5', Edas: "BED", Model: "E350"}.Encode()
	port := &scriptedPort{responses: [][]byte{ident}}
	s := New(testConfig(), scriptedFactory{port}, nil, nil)
	require.NoError(t, s.Open(context.Background()))

	id, err := s.IdentifyOnly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LGZ", id.Flag)
	assert.Empty(t, port.speeds, "identify must never switch baud")

	// EndSession must still run fully since IdentifyOnly never marks the
	// session complete.
	s.EndSession(context.Background())
	assert.Equal(t, []int{300}, port.speeds)
}
