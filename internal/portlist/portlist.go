// Package portlist is the OS port-enumeration collaborator: it globs
// the usual POSIX serial device nodes and hands back descriptors,
// nothing more.
package portlist

import (
	"path/filepath"

	"github.com/edastools/modec/orchestrator"
)

// patterns covers the device node naming Linux and macOS use for USB
// serial adapters and native ports.
var patterns = []string{
	"/dev/ttyUSB*",
	"/dev/ttyACM*",
	"/dev/ttyS*",
	"/dev/tty.usbserial*",
	"/dev/tty.usbmodem*",
	"/dev/cu.usbserial*",
	"/dev/cu.usbmodem*",
}

// Lister implements orchestrator.PortLister over the local filesystem.
type Lister struct{}

func (Lister) ListPorts() ([]orchestrator.PortInfo, error) {
	var out []orchestrator.PortInfo
	for _, pat := range patterns {
		matches, err := filepath.Glob(pat)
		if err != nil {
			continue
		}
		for _, m := range matches {
			out = append(out, orchestrator.PortInfo{ID: m, Descriptor: m})
		}
	}
	return out, nil
}
