// Package cliflags registers the operation-configuration flags shared by
// every cmd/meter* binary, keeping each binary's pflag setup
// self-contained but terse.
package cliflags

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/edastools/modec/config"
	"github.com/edastools/modec/session"
)

// Common holds the pointer targets pflag fills in.
type Common struct {
	Port           *string
	InitialBaud    *int
	CapBaud        *int
	TimeoutMs      *int
	TurnaroundMs   *int
	Retries        *int
	MeterAddress   *string
	Password       *string
	ConnectionKind *string
	MeterClass     *string
	ProfileFile    *string
	LogLevel       *string
	Version        *bool
}

// Register adds the common operation-configuration flags to fs.
func Register(fs *pflag.FlagSet) *Common {
	return &Common{
		Port:           fs.StringP("port", "p", "", "Serial port identifier (required)"),
		InitialBaud:    fs.IntP("initial-baud", "b", 0, "Handshake baud; 0 means auto (300)"),
		CapBaud:        fs.Int("cap-baud", 19200, "Maximum baud to negotiate"),
		TimeoutMs:      fs.Int("timeout-ms", 2000, "Per-byte read deadline"),
		TurnaroundMs:   fs.Int("turnaround-ms", 300, "Delay between direction turns"),
		Retries:        fs.Int("retries", 3, "Retry budget per response"),
		MeterAddress:   fs.String("meter-address", "", "Optional meter address for /?addr!"),
		Password:       fs.StringP("password", "P", "", "8-digit programming password"),
		ConnectionKind: fs.String("connection-kind", "auto", "auto | optical | direct_rs485"),
		MeterClass:     fs.String("meter-class", "", "Three-letter manufacturer flag to look up in the meter class catalog"),
		ProfileFile:    fs.String("profile-file", "", "Meter class catalog file; defaults to the standard search path"),
		LogLevel:       fs.String("log-level", "info", "debug | info | warn | error"),
		Version:        fs.Bool("version", false, "Print version and exit"),
	}
}

// Resolve builds a session.Config from the parsed flags and, if
// --meter-class was given, overlays the matching catalog profile.
func (c *Common) Resolve() (session.Config, error) {
	if *c.Port == "" {
		return session.Config{}, fmt.Errorf("--port is required")
	}

	cfg := session.DefaultConfig()
	cfg.Port = *c.Port
	cfg.InitialBaud = *c.InitialBaud
	cfg.CapBaud = *c.CapBaud
	cfg.ByteTimeout = time.Duration(*c.TimeoutMs) * time.Millisecond
	cfg.Turnaround = time.Duration(*c.TurnaroundMs) * time.Millisecond
	cfg.Retries = *c.Retries
	cfg.MeterAddress = *c.MeterAddress
	cfg.Password = *c.Password
	cfg.ConnectionKind = session.ConnectionKind(*c.ConnectionKind)

	if *c.MeterClass == "" {
		return cfg, nil
	}

	var (
		catalog *config.Catalog
		err     error
	)
	if *c.ProfileFile != "" {
		catalog, err = config.LoadFile(*c.ProfileFile)
	} else {
		catalog, err = config.Load()
	}
	if err != nil {
		return session.Config{}, err
	}
	if profile, ok := catalog.Lookup(*c.MeterClass); ok {
		cfg = profile.Apply(cfg)
	}
	return cfg, nil
}
