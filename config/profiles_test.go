package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edastools/modec/session"
)

const sampleCatalog = `
profiles:
  - flag: LGZ
    cap_baud: 9600
    retries: 5
    connection_kind: optical
  - flag: EMH
    password: "00000000"
`

func TestParseAndLookup(t *testing.T) {
	c, err := parse([]byte(sampleCatalog))
	require.NoError(t, err)

	p, ok := c.Lookup("LGZ")
	require.True(t, ok)
	assert.Equal(t, 9600, p.CapBaud)
	assert.Equal(t, 5, p.Retries)
	assert.Equal(t, session.ConnOptical, p.ConnectionKind)

	_, ok = c.Lookup("XXX")
	assert.False(t, ok)
}

func TestProfileApplyOnlyOverlaysNonZeroFields(t *testing.T) {
	base := session.DefaultConfig()
	base.CapBaud = 19200
	base.Password = "unset"

	p := Profile{CapBaud: 9600, ConnectionKind: session.ConnOptical}
	got := p.Apply(base)

	assert.Equal(t, 9600, got.CapBaud)
	assert.Equal(t, session.ConnOptical, got.ConnectionKind)
	assert.Equal(t, "unset", got.Password, "a zero-value field in the profile must not clobber the base config")
	assert.Equal(t, base.Retries, got.Retries)
}

func TestLoadFileMissingReturnsError(t *testing.T) {
	_, err := LoadFile("/nonexistent/meterclasses.yaml")
	assert.Error(t, err)
}
