// Package session orchestrates one exchange from cold link to Break: Mode
// C negotiation, optional programming-mode authentication, readout-mode
// selection, retry/timeout policy, and the baud-rate transition.
package session

import "time"

// ConnectionKind affects only the initial baud choice: when it is
// optical, the session forces initial_baud = 300 regardless of what the
// caller asked for.
type ConnectionKind string

const (
	ConnAuto         ConnectionKind = "auto"
	ConnOptical      ConnectionKind = "optical"
	ConnDirectRS485  ConnectionKind = "direct_rs485"
)

// ReadoutMode is the Y character in the option-select frame.
type ReadoutMode byte

const (
	ModeWholeTable     ReadoutMode = '0'
	ModeProgramming    ReadoutMode = '1'
	ModeShort          ReadoutMode = '6'
	ModeHistory        ReadoutMode = '7'
	ModeWarning        ReadoutMode = '8'
	ModeOutage         ReadoutMode = '9'
	ModeTechnicalQuality ReadoutMode = '5'
)

// Config is the single struct enumerating the recognized options.
type Config struct {
	Port           string
	InitialBaud    int // 0 => auto (300)
	CapBaud        int // default 19200
	ByteTimeout    time.Duration
	Turnaround     time.Duration
	Retries        int
	MeterAddress   string
	Password       string
	ConnectionKind ConnectionKind
}

// DefaultConfig returns the conservative defaults: slow, tolerant, and
// safe against a meter that doesn't support the caller's preferences.
func DefaultConfig() Config {
	return Config{
		InitialBaud:    0,
		CapBaud:        19200,
		ByteTimeout:    2000 * time.Millisecond,
		Turnaround:     300 * time.Millisecond,
		Retries:        3,
		ConnectionKind: ConnAuto,
	}
}

// effectiveInitialBaud resolves InitialBaud==0 to 300, then forces 300
// when ConnectionKind is optical regardless of the caller's choice,
// reporting whether the override fired so the caller can emit the
// mandated warning log.
func (c Config) effectiveInitialBaud() (baud int, overridden bool) {
	baud = c.InitialBaud
	if baud == 0 {
		baud = 300
	}
	if c.ConnectionKind == ConnOptical && baud != 300 {
		return 300, true
	}
	if c.ConnectionKind == ConnOptical {
		return 300, false
	}
	return baud, false
}
