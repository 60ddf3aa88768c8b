//go:build linux || darwin

package linedriver

import (
	"fmt"
	"time"

	"github.com/pkg/term"
)

// posixPort wraps github.com/pkg/term for real serial hardware.
type posixPort struct {
	t *term.Term
}

// PosixPortFactory opens real serial devices: /dev/ttyUSB0, /dev/ttyS0,
// /dev/tty.usbserial-*, etc.
type PosixPortFactory struct{}

func (PosixPortFactory) Open(portID string, initialBaud int) (Port, error) {
	t, err := term.Open(portID, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %s", ErrLinkIO, portID, err)
	}

	if err := t.SetCbreakMode(); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("%w: cbreak %s: %s", ErrLinkIO, portID, err)
	}

	p := &posixPort{t: t}
	if err := p.SetSpeed(initialBaud); err != nil {
		_ = t.Close()
		return nil, err
	}
	return p, nil
}

func (p *posixPort) Read(b []byte) (int, error) {
	n, err := p.t.Read(b)
	if err != nil {
		return n, fmt.Errorf("%w: read: %s", ErrLinkIO, err)
	}
	return n, nil
}

func (p *posixPort) Write(b []byte) (int, error) {
	n, err := p.t.Write(b)
	if err != nil || n != len(b) {
		if err == nil {
			err = fmt.Errorf("short write: wrote %d of %d bytes", n, len(b))
		}
		return n, fmt.Errorf("%w: write: %s", ErrLinkIO, err)
	}
	return n, nil
}

func (p *posixPort) SetReadTimeout(d time.Duration) error {
	if err := p.t.SetReadTimeout(d); err != nil {
		return fmt.Errorf("%w: set read timeout: %s", ErrLinkIO, err)
	}
	return nil
}

func (p *posixPort) SetSpeed(baud int) error {
	if baud == 0 {
		return nil
	}
	if err := p.t.SetSpeed(baud); err != nil {
		return fmt.Errorf("%w: set speed %d: %s", ErrLinkIO, baud, err)
	}
	return nil
}

func (p *posixPort) Close() error {
	if err := p.t.Close(); err != nil {
		return fmt.Errorf("%w: close: %s", ErrLinkIO, err)
	}
	return nil
}
