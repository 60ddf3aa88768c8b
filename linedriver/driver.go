// Package linedriver owns the serial handle and presents a blocking byte
// channel with deadlines, hiding the 7-E-1 framing constant and the
// mandatory inter-turnaround delay from everything above it.
package linedriver

import (
	"context"
	"fmt"
	"time"

	"github.com/edastools/modec/events"
)

// Config mirrors the relevant slice of the operation configuration
// struct: the parts the line driver itself needs.
type Config struct {
	ByteTimeout  time.Duration // per-byte-read deadline, default 2s
	Turnaround   time.Duration // delay between direction turns, default 300ms
	PollInterval time.Duration // granularity Driver polls Port.Read at, default 20ms
}

// DefaultConfig is the conservative, widely-compatible starting point.
func DefaultConfig() Config {
	return Config{
		ByteTimeout:  2000 * time.Millisecond,
		Turnaround:   300 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	}
}

// Driver is the owner of one open Port for the duration of one Session.
// It is not safe for concurrent use by more than one session. Nothing in
// this module enforces single ownership: the orchestrator takes no lock
// and no operation returns ErrBusy.
type Driver struct {
	p    Port
	sink events.Sink
	clk  events.Clock
	cfg  Config
}

// New wraps an already-opened Port. cfg.PollInterval defaults to 20ms if
// zero.
func New(p Port, sink events.Sink, clk events.Clock, cfg Config) *Driver {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Millisecond
	}
	if sink == nil {
		sink = events.Discard{}
	}
	if clk == nil {
		clk = events.SystemClock{}
	}
	return &Driver{p: p, sink: sink, clk: clk, cfg: cfg}
}

func (d *Driver) log(level events.Level, text string, raw []byte) {
	d.sink.Log(events.Log{Level: level, Text: text, RawBytes: raw, At: d.clk.Now()})
}

// Write sends bytes best-effort, logging them as a TX event. Every byte
// handed to the OS is duplicated into the event sink.
func (d *Driver) Write(raw []byte) error {
	n, err := d.p.Write(raw)
	if err != nil {
		d.log(events.LevelError, fmt.Sprintf("write failed after %d bytes: %s", n, err), raw[:n])
		return err
	}
	d.log(events.LevelTX, fmt.Sprintf("tx %d bytes", n), raw)
	return nil
}

// Predicate reports whether buf (everything read so far this call) is a
// complete message. The handful of message shapes the protocol uses are
// provided as package-level predicate constructors below.
type Predicate func(buf []byte) bool

// ReadUntil accumulates bytes until pred(buffer) is true or ctx is done or
// the deadline passes, whichever comes first. Framing garbage between
// messages is never discarded silently — it is part of the returned
// buffer and also surfaces in the RX log line.
func (d *Driver) ReadUntil(ctx context.Context, pred Predicate, deadline time.Time) ([]byte, error) {
	if err := d.p.SetReadTimeout(d.cfg.PollInterval); err != nil {
		return nil, err
	}

	var buf []byte
	chunk := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return buf, ErrCancelled
		default:
		}

		if !deadline.IsZero() && d.clk.Now().After(deadline) {
			d.log(events.LevelWarn, fmt.Sprintf("read timeout after %d bytes", len(buf)), buf)
			return buf, ErrTimeout
		}

		n, err := d.p.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			d.log(events.LevelRX, fmt.Sprintf("rx %d bytes", n), chunk[:n])
			if pred(buf) {
				return buf, nil
			}
		}
		if err != nil {
			// Both posixPort and ptyport.Port report "no data
			// within this poll slice" as n==0, err==nil; any non-nil
			// error here is a genuine link failure.
			return buf, fmt.Errorf("%w: %s", ErrLinkIO, err)
		}
	}
}

// SetBaud drains the transmit buffer (implicit in Write already having
// returned), waits the turnaround delay, then reconfigures the port.
func (d *Driver) SetBaud(ctx context.Context, newBaud int) error {
	if err := d.sleep(ctx, d.cfg.Turnaround); err != nil {
		return err
	}
	if err := d.p.SetSpeed(newBaud); err != nil {
		return err
	}
	d.log(events.LevelInfo, fmt.Sprintf("baud set to %d", newBaud), nil)
	return nil
}

// Turnaround sleeps the configured turnaround delay, honouring
// cancellation. Used between a response and the next request as well as
// around baud changes.
func (d *Driver) Turnaround(ctx context.Context) error {
	return d.sleep(ctx, d.cfg.Turnaround)
}

// InterRetryBackoff is the fixed delay between retries.
const InterRetryBackoff = 100 * time.Millisecond

func (d *Driver) Backoff(ctx context.Context) error {
	return d.sleep(ctx, InterRetryBackoff)
}

func (d *Driver) sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ErrCancelled
	case <-t.C:
		return nil
	}
}

func (d *Driver) ByteDeadline() time.Time {
	return d.clk.Now().Add(d.cfg.ByteTimeout)
}

// Close releases the underlying Port.
func (d *Driver) Close() error {
	return d.p.Close()
}

// Predicates for the three message shapes the Line Driver ever waits for.

// UntilLF matches a buffer ending in "\r\n" (identification line, and the
// legacy bare "\n" some meters emit).
func UntilLF(buf []byte) bool {
	return len(buf) > 0 && buf[len(buf)-1] == '\n'
}

// UntilETXPlusBCC matches a DataBlock: STX ... ETX BCC. It looks for ETX
// (0x03) followed by exactly one more byte.
func UntilETXPlusBCC(buf []byte) bool {
	for i, b := range buf {
		if b == 0x03 && i+1 < len(buf) {
			return true
		}
	}
	return false
}

// UntilByte matches as soon as the single expected control byte (ACK/NAK)
// has arrived.
func UntilByte(want byte) Predicate {
	return func(buf []byte) bool {
		return len(buf) > 0 && buf[len(buf)-1] == want
	}
}

// UntilEitherByte matches on the first of two possible single-byte
// replies, used where ACK or NAK are both acceptable outcomes.
func UntilEitherByte(a, b byte) Predicate {
	return func(buf []byte) bool {
		if len(buf) == 0 {
			return false
		}
		last := buf[len(buf)-1]
		return last == a || last == b
	}
}
