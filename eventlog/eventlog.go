// Package eventlog adapts events.Sink onto github.com/charmbracelet/log.
// A progress line and a log line each become one structured log.Logger
// call, with TX/RX entries carrying a hex dump of the raw bytes.
package eventlog

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/edastools/modec/events"
)

// Logger is an events.Sink backed by a charmbracelet/log.Logger.
type Logger struct {
	l *log.Logger
}

// New builds a Logger writing to w at the given level.
func New(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &Logger{l: l}
}

func (lg *Logger) Progress(p events.Progress) {
	lg.l.Info("progress", "op", p.Op, "step", p.Step, "total", p.Total, "label", p.Label)
}

func (lg *Logger) Log(e events.Log) {
	fields := []any{"text", e.Text}
	if len(e.RawBytes) > 0 {
		fields = append(fields, "bytes", len(e.RawBytes), "hex", hexDump(e.RawBytes))
	}
	switch e.Level {
	case events.LevelWarn:
		lg.l.Warn("event", fields...)
	case events.LevelError:
		lg.l.Error("event", fields...)
	case events.LevelSuccess:
		lg.l.Info("event", append(fields, "result", "success")...)
	case events.LevelTX:
		lg.l.Debug("tx", append(fields, "dir", "tx")...)
	case events.LevelRX:
		lg.l.Debug("rx", append(fields, "dir", "rx")...)
	default:
		lg.l.Info("event", fields...)
	}
}

// hexDump renders b the way a frame gets dumped to the console: 16
// bytes per row, hex on the left, printable ASCII on the right,
// non-printable bytes shown as '.'.
func hexDump(b []byte) string {
	var out strings.Builder
	offset := 0
	for len(b) > 0 {
		n := len(b)
		if n > 16 {
			n = 16
		}
		row := b[:n]

		fmt.Fprintf(&out, "%03x:", offset)
		for i := 0; i < 16; i++ {
			if i < n {
				fmt.Fprintf(&out, " %02x", row[i])
			} else {
				out.WriteString("   ")
			}
		}
		out.WriteString("  ")
		for _, c := range row {
			if c >= 0x20 && c <= 0x7E {
				out.WriteByte(c)
			} else {
				out.WriteByte('.')
			}
		}
		if len(b) > n {
			out.WriteByte('\n')
		}

		b = b[n:]
		offset += n
	}
	return out.String()
}
