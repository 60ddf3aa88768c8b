// Package ptyport adapts an *os.File end of a pseudo-terminal pair to the
// linedriver.Port interface, so the session state machine can run against
// a stub meter without real hardware.
package ptyport

import (
	"fmt"
	"time"

	"github.com/edastools/modec/linedriver"
)

// Port wraps one end of a pty pair (or any *os.File-like handle) as a
// linedriver.Port. Baud changes are accepted and recorded but are a no-op
// on a pty, which has no physical line rate.
type Port struct {
	f       file
	timeout time.Duration
	speed   int
}

// file is the subset of *os.File that ptyport needs; narrowed so tests can
// substitute an in-memory pipe pair instead of a real pty if desired.
type file interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadDeadline(t time.Time) error
}

// New wraps f as a Port.
func New(f file) *Port {
	return &Port{f: f, timeout: 20 * time.Millisecond}
}

func (p *Port) Read(b []byte) (int, error) {
	if err := p.f.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
		return 0, fmt.Errorf("ptyport: set deadline: %w", err)
	}
	n, err := p.f.Read(b)
	if err != nil {
		if isTimeout(err) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

func (p *Port) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

func (p *Port) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

func (p *Port) SetSpeed(baud int) error {
	p.speed = baud
	return nil
}

// Speed returns the last baud requested via SetSpeed.
func (p *Port) Speed() int { return p.speed }

func (p *Port) Close() error {
	return p.f.Close()
}

type timeouter interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	t, ok := err.(timeouter)
	return ok && t.Timeout()
}

var _ linedriver.Port = (*Port)(nil)
