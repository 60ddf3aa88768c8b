package session

import (
	"context"
	"fmt"

	"github.com/edastools/modec/events"
	"github.com/edastools/modec/framing"
	"github.com/edastools/modec/linedriver"
)

// Identity is the result of the Mode-C handshake, produced exactly once
// per session and immutable thereafter. The handshake does not carry a
// serial number and nothing in this module sets Serial; the serial
// number is available as Identity.Serial (OBIS 0.0.0) of a parsed
// obis.Reading.
type Identity struct {
	Flag             string
	ProposedBaudChar byte
	Gen              string
	Edas             string
	Model            string
	Serial           string
}

// Session is one run of the state machine, owning exactly one Link for
// its lifetime.
type Session struct {
	cfg     Config
	sink    events.Sink
	clk     events.Clock
	driver  *linedriver.Driver
	factory linedriver.PortFactory

	state    State
	identity *Identity

	negotiatedBaud   int
	readoutMode      ReadoutMode
	passwordVerified bool
	authRejectCount  int
	locked           bool

	op        string
	stepTotal uint32
	stepIndex uint32
}

// New constructs a Session bound to a not-yet-opened link. Open must be
// called before any exchange.
func New(cfg Config, factory linedriver.PortFactory, sink events.Sink, clk events.Clock) *Session {
	if sink == nil {
		sink = events.Discard{}
	}
	if clk == nil {
		clk = events.SystemClock{}
	}
	return &Session{cfg: cfg, factory: factory, sink: sink, clk: clk, state: StateIdle}
}

// BeginOperation names the operation for progress reporting and resets
// the step counter; called once by the orchestrator at the start of each
// named operation. total must count every step through ClosingBreak.
func (s *Session) BeginOperation(op string, total uint32) {
	s.op = op
	s.stepTotal = total
	s.stepIndex = 0
}

func (s *Session) progress(label string) {
	s.stepIndex++
	s.sink.Progress(events.Progress{Op: s.op, Step: s.stepIndex, Total: s.stepTotal, Label: label, At: s.clk.Now()})
}

func (s *Session) logf(level events.Level, format string, args ...any) {
	s.sink.Log(events.Log{Level: level, Text: fmt.Sprintf(format, args...), At: s.clk.Now()})
}

// Open resolves the effective initial baud (forcing 300 and warning when
// ConnectionKind is optical) and opens the port.
func (s *Session) Open(ctx context.Context) error {
	baud, overridden := s.cfg.effectiveInitialBaud()
	if overridden {
		s.logf(events.LevelWarn, "connection_kind=optical forces initial_baud=300 (caller requested %d)", s.cfg.InitialBaud)
	}

	p, err := s.factory.Open(s.cfg.Port, baud)
	if err != nil {
		s.state = StateFailed
		return err
	}

	dcfg := linedriver.Config{ByteTimeout: s.cfg.ByteTimeout, Turnaround: s.cfg.Turnaround}
	s.driver = linedriver.New(p, s.sink, s.clk, dcfg)
	s.negotiatedBaud = baud
	s.state = StateIdle
	return nil
}

// initialBaud is the baud this session must return to before handing the
// link back.
func (s *Session) initialBaud() int {
	baud, _ := s.cfg.effectiveInitialBaud()
	return baud
}

// handshakeIdentify runs SendRequest -> AwaitIdentification, shared by
// Negotiate and IdentifyOnly.
func (s *Session) handshakeIdentify(ctx context.Context) (framing.Identification, error) {
	s.state = StateSendRequest
	s.progress("send request")
	req := framing.Request{Address: s.cfg.MeterAddress}
	if err := s.driver.Write(req.Encode()); err != nil {
		s.state = StateFailed
		return framing.Identification{}, err
	}

	s.state = StateAwaitIdentification
	s.progress("await identification")
	raw, err := s.driver.ReadUntil(ctx, linedriver.UntilLF, s.driver.ByteDeadline())
	if err != nil {
		s.state = StateFailed
		return framing.Identification{}, fmt.Errorf("%w: %s", ErrHandshake, err)
	}
	id, err := framing.DecodeIdentification(raw)
	if err != nil {
		s.state = StateFailed
		return framing.Identification{}, fmt.Errorf("%w: %s", ErrHandshake, err)
	}
	return id, nil
}

// IdentifyOnly runs just SendRequest -> AwaitIdentification, without
// selecting a readout mode or switching baud, then leaves the link ready
// to close. The link stays at initial baud the whole time, so EndSession
// afterward is a no-op baud reset.
func (s *Session) IdentifyOnly(ctx context.Context) (*Identity, error) {
	id, err := s.handshakeIdentify(ctx)
	if err != nil {
		return nil, err
	}
	s.identity = &Identity{Flag: id.Flag, ProposedBaudChar: id.BaudChar, Gen: id.Gen, Edas: id.Edas, Model: id.Model}
	return s.identity, nil
}

// Negotiate runs SendRequest -> AwaitIdentification -> SelectMode ->
// SwitchBaud and leaves the link running at the negotiated baud. mode
// selects the option-select Y character.
func (s *Session) Negotiate(ctx context.Context, mode ReadoutMode) (*Identity, error) {
	id, err := s.handshakeIdentify(ctx)
	if err != nil {
		return nil, err
	}

	meterBaud, err := framing.BaudForCode(id.BaudChar)
	if err != nil {
		s.state = StateFailed
		return nil, fmt.Errorf("%w: %s", ErrUnknownBaud, err)
	}
	chosen := meterBaud
	if s.cfg.CapBaud > 0 && s.cfg.CapBaud < chosen {
		chosen = s.cfg.CapBaud
	}
	// Round down to the nearest standard rate the cap allows.
	chosen = capToStandard(chosen)

	s.state = StateSelectMode
	s.progress("select mode")
	sel := framing.OptionSelect{BaudChar: framing.CodeForBaud(chosen), Mode: byte(mode)}
	if err := s.driver.Write(sel.Encode()); err != nil {
		s.state = StateFailed
		return nil, fmt.Errorf("%w: %s", ErrOptionSelect, err)
	}

	s.state = StateSwitchBaud
	s.progress("switch baud")
	if err := s.driver.SetBaud(ctx, chosen); err != nil {
		s.state = StateFailed
		return nil, err
	}
	s.negotiatedBaud = chosen
	s.readoutMode = mode

	s.identity = &Identity{
		Flag: id.Flag, ProposedBaudChar: id.BaudChar, Gen: id.Gen, Edas: id.Edas, Model: id.Model,
	}

	if mode == ModeProgramming {
		s.state = StateEnterProgramming
	} else {
		s.state = StateReadout
	}
	return s.identity, nil
}

// capToStandard rounds baud down to the nearest rate in
// linedriver.StandardBauds, never exceeding the cap the caller requested.
func capToStandard(cap int) int {
	best := linedriver.StandardBauds[0]
	for _, b := range linedriver.StandardBauds {
		if b <= cap && b > best {
			best = b
		}
	}
	return best
}

// NegotiatedBaud reports the baud the current/last negotiation settled on.
func (s *Session) NegotiatedBaud() int { return s.negotiatedBaud }

// GetIdentity returns the handshake result, nil until Negotiate or
// IdentifyOnly has run.
func (s *Session) GetIdentity() *Identity { return s.identity }

// ReadWholeTable reads the single DataBlock response to a whole-table or
// MASS-packet readout selection, retrying on Timeout/BccMismatch up to
// cfg.Retries times. There is no separate request frame to resend in
// push-based readout mode, so "retry" means waiting again for another
// DataBlock.
func (s *Session) ReadWholeTable(ctx context.Context) (string, error) {
	s.state = StateReadout
	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		s.progress("readout")
		raw, err := s.driver.ReadUntil(ctx, linedriver.UntilETXPlusBCC, s.driver.ByteDeadline())
		if err == nil {
			block, derr := framing.DecodeDataBlock(raw)
			if derr == nil {
				s.state = StateClosingBreak
				return block.Payload, nil
			}
			err = derr
		}
		lastErr = err
		if err == linedriver.ErrCancelled {
			return "", err
		}
		s.logf(events.LevelWarn, "readout attempt %d failed: %s", attempt+1, err)
		if attempt < s.cfg.Retries {
			_ = s.driver.Backoff(ctx)
		}
	}
	s.state = StateFailed
	return "", fmt.Errorf("%w: %s", ErrDataBlock, lastErr)
}

// Authenticate sends one P1 password frame. After three rejected attempts
// within this session it refuses to send a fourth and surfaces
// LockoutImminent instead.
func (s *Session) Authenticate(ctx context.Context, password string) error {
	if s.locked {
		return ErrLockoutImminent
	}

	s.state = StateAuthPassword
	s.progress("authenticate")
	cmd := framing.NewCommand(framing.CmdP1, "", password)
	if err := s.driver.Write(cmd.Encode()); err != nil {
		s.state = StateFailed
		return err
	}

	raw, err := s.driver.ReadUntil(ctx, linedriver.UntilEitherByte(framing.ACK, framing.NAK), s.driver.ByteDeadline())
	if err != nil {
		s.state = StateFailed
		return fmt.Errorf("%w: %s", ErrAuthRejected, err)
	}
	reply, err := framing.DecodeShort(raw)
	if err != nil {
		s.state = StateFailed
		return fmt.Errorf("%w: %s", ErrAuthRejected, err)
	}

	if _, ok := reply.(framing.ShortNak); ok {
		s.authRejectCount++
		if s.authRejectCount >= 3 {
			s.locked = true
			s.state = StateFailed
			return ErrLockoutImminent
		}
		s.state = StateFailed
		return ErrAuthRejected
	}

	s.passwordVerified = true
	s.state = StateProgrammingIdle
	return nil
}

// ReadOBIS issues R2 code() and returns the single OBIS line the meter
// replies with, retrying on Timeout/BccMismatch up to cfg.Retries times.
func (s *Session) ReadOBIS(ctx context.Context, code string) (string, error) {
	return s.ReadOBISArg(ctx, code, "")
}

// ReadOBISArg issues R2 code(arg) — arg is empty for a plain single-value
// read and a date-range token ("start;end" or ";") for a load-profile
// request.
func (s *Session) ReadOBISArg(ctx context.Context, code, arg string) (string, error) {
	s.state = StateReadOBIS
	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		s.progress(fmt.Sprintf("read %s", code))
		cmd := framing.NewCommand(framing.CmdR2, code, arg)
		if err := s.driver.Write(cmd.Encode()); err != nil {
			return "", err
		}
		raw, err := s.driver.ReadUntil(ctx, linedriver.UntilETXPlusBCC, s.driver.ByteDeadline())
		if err == nil {
			block, derr := framing.DecodeDataBlock(raw)
			if derr == nil {
				s.state = StateProgrammingIdle
				return block.Payload, nil
			}
			err = derr
		}
		lastErr = err
		if err == linedriver.ErrCancelled {
			return "", err
		}
		s.logf(events.LevelWarn, "read %s attempt %d failed: %s", code, attempt+1, err)
		if attempt < s.cfg.Retries {
			_ = s.driver.Backoff(ctx)
		}
	}
	s.state = StateFailed
	return "", fmt.Errorf("%w: %s: %s", ErrDataBlock, code, lastErr)
}

// WriteOBIS issues W2 code(value) and expects ShortAck, retrying on
// Timeout/NAK/BccMismatch up to cfg.Retries times.
func (s *Session) WriteOBIS(ctx context.Context, code, value string) error {
	s.state = StateWriteOBIS
	return s.writeLikeCommand(ctx, framing.CmdW2, code, value, fmt.Sprintf("write %s", code))
}

// Execute issues E2 code() and expects ShortAck, same retry policy.
func (s *Session) Execute(ctx context.Context, code string) error {
	s.state = StateExecuteOBIS
	return s.writeLikeCommand(ctx, framing.CmdE2, code, "", fmt.Sprintf("execute %s", code))
}

func (s *Session) writeLikeCommand(ctx context.Context, cc framing.CommandCode, code, value, label string) error {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		s.progress(label)
		cmd := framing.NewCommand(cc, code, value)
		if err := s.driver.Write(cmd.Encode()); err != nil {
			return err
		}
		raw, err := s.driver.ReadUntil(ctx, linedriver.UntilEitherByte(framing.ACK, framing.NAK), s.driver.ByteDeadline())
		if err == nil {
			reply, derr := framing.DecodeShort(raw)
			if derr == nil {
				if _, nak := reply.(framing.ShortNak); !nak {
					s.state = StateProgrammingIdle
					return nil
				}
				err = fmt.Errorf("nak")
			} else {
				err = derr
			}
		}
		lastErr = err
		if err == linedriver.ErrCancelled {
			return err
		}
		s.logf(events.LevelWarn, "%s attempt %d failed: %s", label, attempt+1, err)
		if attempt < s.cfg.Retries {
			_ = s.driver.Backoff(ctx)
		}
	}
	s.state = StateFailed
	return fmt.Errorf("%w: %s: %s", ErrWriteRefused, code, lastErr)
}

// EndSession attempts Break and resets the link to initial baud. Every
// exit path — success or failure — must call this; Break failures are
// logged, never propagated. This is the single most important invariant
// in the core.
func (s *Session) EndSession(ctx context.Context) {
	if s.state == StateCompleted {
		return
	}
	s.state = StateClosingBreak
	s.progress("end session")

	if s.driver != nil {
		brk := framing.NewCommand(framing.CmdB0, "", "")
		if err := s.driver.Write(brk.Encode()); err != nil {
			s.logf(events.LevelWarn, "break frame failed: %s", err)
		}
		if err := s.driver.SetBaud(ctx, s.initialBaud()); err != nil {
			s.logf(events.LevelWarn, "baud reset to initial failed: %s", err)
		}
		if err := s.driver.Close(); err != nil {
			s.logf(events.LevelWarn, "close failed: %s", err)
		}
	}

	s.state = StateCompleted
	s.progress("completed")
	s.logf(events.LevelSuccess, "session ended")
}
