// Package orchestrator composes the session state machine, the OBIS
// decoder, and the line driver into the named operations a caller
// actually invokes: identify, short/full/load-profile reads,
// authenticate-and-write, execute, end session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/edastools/modec/events"
	"github.com/edastools/modec/linedriver"
	"github.com/edastools/modec/obis"
	"github.com/edastools/modec/session"
)

// maxAuthAttempts caps how many P1 frames a single session ever sends,
// matching the meter's own three-strike lockout.
const maxAuthAttempts = 3

// authenticate retries s.Authenticate on a rejected password up to
// maxAuthAttempts times, the same capped-retry shape writeLikeCommand
// uses for W2/E2. It stops immediately on any error other than
// ErrAuthRejected — in particular ErrLockoutImminent, which s.Authenticate
// itself starts returning once the cap is reached.
func authenticate(ctx context.Context, s *session.Session, password string) error {
	var err error
	for attempt := 0; attempt < maxAuthAttempts; attempt++ {
		err = s.Authenticate(ctx, password)
		if err == nil {
			return nil
		}
		if !errors.Is(err, session.ErrAuthRejected) {
			return err
		}
	}
	return err
}

// PortInfo describes one OS-enumerated serial port.
type PortInfo struct {
	ID         string
	Descriptor string
}

// PortLister is the OS port-enumeration collaborator. It is part of the
// boundary, not the core.
type PortLister interface {
	ListPorts() ([]PortInfo, error)
}

// Orchestrator is the single entry point a caller drives. It is
// stateless between operations: every operation owns its Session for
// exactly the duration of that operation — a link running at a
// non-initial baud is only ever reachable through the currently
// running session.
type Orchestrator struct {
	factory linedriver.PortFactory
	lister  PortLister
	sink    events.Sink
	clk     events.Clock
}

// New builds an Orchestrator. lister may be nil if the caller never
// calls ListPorts.
func New(factory linedriver.PortFactory, lister PortLister, sink events.Sink, clk events.Clock) *Orchestrator {
	if sink == nil {
		sink = events.Discard{}
	}
	if clk == nil {
		clk = events.SystemClock{}
	}
	return &Orchestrator{factory: factory, lister: lister, sink: sink, clk: clk}
}

// ListPorts delegates to the injected PortLister.
func (o *Orchestrator) ListPorts() ([]PortInfo, error) {
	if o.lister == nil {
		return nil, fmt.Errorf("orchestrator: no port lister configured")
	}
	return o.lister.ListPorts()
}

// newSession opens a fresh Session at the configured initial baud. Every
// operation below calls this once per sub-exchange it performs, which is
// what guarantees re-handshakes always start from initial baud.
func (o *Orchestrator) newSession(ctx context.Context, cfg session.Config, op string, steps uint32) (*session.Session, error) {
	s := session.New(cfg, o.factory, o.sink, o.clk)
	s.BeginOperation(op, steps)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Identify performs SendRequest -> AwaitIdentification and returns the
// Identity, closing the link before returning.
func (o *Orchestrator) Identify(ctx context.Context, cfg session.Config) (*session.Identity, error) {
	s, err := o.newSession(ctx, cfg, "identify", 4)
	if err != nil {
		return nil, err
	}
	defer s.EndSession(ctx)

	id, err := s.IdentifyOnly(ctx)
	if err != nil {
		return nil, err
	}
	return id, nil
}

// ReadShort performs the full handshake at mode '6' and returns the
// parsed short-packet Reading.
func (o *Orchestrator) ReadShort(ctx context.Context, cfg session.Config) (*obis.Reading, error) {
	s, err := o.newSession(ctx, cfg, "read_short", 7)
	if err != nil {
		return nil, err
	}
	defer s.EndSession(ctx)

	if _, err := s.Negotiate(ctx, session.ModeShort); err != nil {
		return nil, err
	}
	payload, err := s.ReadWholeTable(ctx)
	if err != nil {
		return nil, err
	}
	return obis.Parse(payload)
}

// ReadFull runs the whole-table readout (mode '0') and then, for every
// mode listed in extras, reconnects from initial baud and merges that
// packet's Reading in. A sub-operation the meter does not support
// (handshake/readout failure) is logged and skipped rather than failing
// the whole call — there is no way to know ahead of time which packets a
// given meter answers, so this resolves to "try it, tolerate refusal".
func (o *Orchestrator) ReadFull(ctx context.Context, cfg session.Config, extras []session.ReadoutMode) (*obis.Reading, error) {
	s, err := o.newSession(ctx, cfg, "read_full", 7)
	if err != nil {
		return nil, err
	}
	if _, err := s.Negotiate(ctx, session.ModeWholeTable); err != nil {
		s.EndSession(ctx)
		return nil, err
	}
	payload, err := s.ReadWholeTable(ctx)
	s.EndSession(ctx)
	if err != nil {
		return nil, err
	}
	merged, err := obis.Parse(payload)
	if err != nil {
		return nil, err
	}

	for _, mode := range extras {
		sub, err := o.newSession(ctx, cfg, "read_full", 7)
		if err != nil {
			o.warnf("read_full: reconnect for mode %q failed: %s", mode, err)
			continue
		}
		if _, err := sub.Negotiate(ctx, mode); err != nil {
			o.warnf("read_full: mode %q not offered: %s", mode, err)
			sub.EndSession(ctx)
			continue
		}
		p, err := sub.ReadWholeTable(ctx)
		sub.EndSession(ctx)
		if err != nil {
			o.warnf("read_full: mode %q readout failed: %s", mode, err)
			continue
		}
		part, err := obis.Parse(p)
		if err != nil {
			o.warnf("read_full: mode %q payload unparseable: %s", mode, err)
			continue
		}
		mergeReading(merged, part)
	}

	return merged, nil
}

// ReadLoadProfile handshakes at mode '0' to obtain the column set
// (97.<profile>.0), disconnects, handshakes again at mode '1'
// (programming), authenticates if cfg.Password is set, sends
// "R2 P.0<profile>(range)", reads the single data block the meter
// answers with, then ends the session. Only that one block is read; a
// response spread over further blocks is not collected.
func (o *Orchestrator) ReadLoadProfile(ctx context.Context, cfg session.Config, profile int, rangeArg string) (*obis.LoadProfileFrame, error) {
	if profile < 1 || profile > 3 {
		return nil, fmt.Errorf("orchestrator: load profile must be 1..3, got %d", profile)
	}

	cols, err := o.loadProfileColumns(ctx, cfg, profile)
	if err != nil {
		return nil, err
	}

	steps := uint32(7)
	if cfg.Password != "" {
		steps++
	}
	s, err := o.newSession(ctx, cfg, "read_load_profile", steps)
	if err != nil {
		return nil, err
	}
	defer s.EndSession(ctx)

	if _, err := s.Negotiate(ctx, session.ModeProgramming); err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		if err := authenticate(ctx, s, cfg.Password); err != nil {
			return nil, err
		}
	}

	code := fmt.Sprintf("P.0%d", profile)
	payload, err := s.ReadOBISArg(ctx, code, rangeArg)
	if err != nil {
		return nil, err
	}

	full := "97." + fmt.Sprint(profile) + ".0(" + cols + ")\r\n" + payload
	reading, err := obis.Parse(full)
	if err != nil {
		return nil, err
	}
	if reading.LoadProfile == nil {
		return nil, fmt.Errorf("%w: load profile %d: no data rows", obis.ErrObisParse, profile)
	}
	return reading.LoadProfile, nil
}

func (o *Orchestrator) loadProfileColumns(ctx context.Context, cfg session.Config, profile int) (string, error) {
	s, err := o.newSession(ctx, cfg, "read_load_profile_columns", 7)
	if err != nil {
		return "", err
	}
	defer s.EndSession(ctx)

	if _, err := s.Negotiate(ctx, session.ModeWholeTable); err != nil {
		return "", err
	}
	payload, err := s.ReadWholeTable(ctx)
	if err != nil {
		return "", err
	}
	return extractColumnLine(payload, profile)
}

// WriteOp is one (code, value) pair in an authenticate-and-write batch.
type WriteOp struct {
	Code  string
	Value string
}

// AuthenticateAndWrite acquires a programming session, sends the caller's
// password, then applies each WriteOp via W2 in order, emitting progress
// per step. On the first failed write the session is ended immediately
// (Break) and the error is returned; completed writes before the
// failure are not undone — the meter itself has no transactional
// rollback.
func (o *Orchestrator) AuthenticateAndWrite(ctx context.Context, cfg session.Config, password string, ops []WriteOp) error {
	s, err := o.newSession(ctx, cfg, "authenticate_and_write", uint32(7+len(ops)))
	if err != nil {
		return err
	}
	defer s.EndSession(ctx)

	if _, err := s.Negotiate(ctx, session.ModeProgramming); err != nil {
		return err
	}
	if err := authenticate(ctx, s, password); err != nil {
		return err
	}
	for _, op := range ops {
		if err := s.WriteOBIS(ctx, op.Code, op.Value); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs E2 <code>() inside a fresh programming session — used for
// demand reset. The session authenticates first only when password is
// non-empty.
func (o *Orchestrator) Execute(ctx context.Context, cfg session.Config, password, code string) error {
	steps := uint32(7)
	if password != "" {
		steps++
	}
	s, err := o.newSession(ctx, cfg, "execute", steps)
	if err != nil {
		return err
	}
	defer s.EndSession(ctx)

	if _, err := s.Negotiate(ctx, session.ModeProgramming); err != nil {
		return err
	}
	if password != "" {
		if err := authenticate(ctx, s, password); err != nil {
			return err
		}
	}
	return s.Execute(ctx, code)
}

func (o *Orchestrator) warnf(format string, args ...any) {
	o.sink.Log(events.Log{Level: events.LevelWarn, Text: fmt.Sprintf(format, args...), At: o.clk.Now()})
}

// mergeReading overlays every populated sub-record of src onto dst,
// leaving dst's existing sub-records alone where src has none. This is
// the merge step read_full needs when it folds mode 7/8/9/5 packets into
// the mode-0 Reading: content-driven, never guessing which packet "owns"
// a field.
func mergeReading(dst, src *obis.Reading) {
	if src.Identity != nil {
		dst.Identity = src.Identity
	}
	for k, v := range src.Energy {
		dst.Energy[k] = v
	}
	for k, v := range src.Demand {
		dst.Demand[k] = v
	}
	if src.Instant != nil {
		dst.Instant = src.Instant
	}
	if src.Status != nil {
		dst.Status = src.Status
	}
	for i, m := range src.Monthly {
		if m != nil {
			dst.Monthly[i] = m
		}
	}
	if src.Events != nil {
		dst.Events = src.Events
	}
	if src.Tariff != nil {
		dst.Tariff = src.Tariff
	}
	if src.LoadProfile != nil {
		dst.LoadProfile = src.LoadProfile
	}
}
