package linedriver

import "time"

// FrameFormat is fixed across the whole Mode-C session: 7 data bits, even
// parity, 1 stop bit. Nothing in this module ever requests another shape.
const FrameFormat = "7E1"

// StandardBauds are the line rates a Mode-C identification can propose, in
// ascending order, matching the baud-code table in framing.BaudForCode.
var StandardBauds = [7]int{300, 600, 1200, 2400, 4800, 9600, 19200}

// Port is a single opened serial handle. Implementations: posixPort (real
// hardware, via github.com/pkg/term) and ptyport.Port, which wraps one end
// of an already-opened pty pair.
type Port interface {
	// Read behaves like io.Reader but every call that returns n>0 bytes
	// must have blocked for at most the duration last set by
	// SetReadTimeout; implementations poll in that granularity so an
	// external wall-clock deadline in Driver.ReadUntil can be honoured
	// without an OS-level per-call deadline API.
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)

	// SetReadTimeout bounds the next and all subsequent Read calls until
	// changed again.
	SetReadTimeout(d time.Duration) error

	// SetSpeed reconfigures the line rate. The caller has already waited
	// the turnaround delay and drained the transmit buffer.
	SetSpeed(baud int) error

	Close() error
}

// PortFactory opens a Port for a given identifier at a given initial baud.
// This is the boundary collaborator: the platform's serial-port
// enumeration service decides what identifiers exist, this module only
// opens the one it is told to.
type PortFactory interface {
	Open(portID string, initialBaud int) (Port, error)
}
