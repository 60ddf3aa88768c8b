package cliflags

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edastools/modec/session"
)

func TestResolveRequiresPort(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := Register(fs)
	require.NoError(t, fs.Parse(nil))

	_, err := c.Resolve()
	assert.Error(t, err)
}

func TestResolveBuildsConfigFromFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := Register(fs)
	require.NoError(t, fs.Parse([]string{
		"--port", "/dev/ttyUSB0",
		"--cap-baud", "9600",
		"--timeout-ms", "500",
		"--turnaround-ms", "50",
		"--retries", "5",
		"--connection-kind", "optical",
	}))

	cfg, err := c.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 9600, cfg.CapBaud)
	assert.Equal(t, 500*time.Millisecond, cfg.ByteTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Turnaround)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, session.ConnOptical, cfg.ConnectionKind)
}

func TestResolveWithUnknownProfileFileFails(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := Register(fs)
	require.NoError(t, fs.Parse([]string{
		"--port", "/dev/ttyUSB0",
		"--meter-class", "LGZ",
		"--profile-file", "/nonexistent/meterclasses.yaml",
	}))

	_, err := c.Resolve()
	assert.Error(t, err)
}
