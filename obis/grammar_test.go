package obis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseLineSimple(t *testing.T) {
	el, err := ParseLine("1.8.0(001234.567*kWh)")
	require.NoError(t, err)
	assert.Equal(t, "1.8.0", el.Code)
	assert.Empty(t, el.Subscript)
	assert.Equal(t, []string{"001234.567*kWh"}, el.Values)
}

func TestParseLineMonthlySubscript(t *testing.T) {
	el, err := ParseLine("1.8.1*3(001234.567*kWh)")
	require.NoError(t, err)
	assert.Equal(t, "1.8.1", el.Code)
	assert.Equal(t, "3", el.Subscript)
}

func TestParseLineMultipleValueGroups(t *testing.T) {
	el, err := ParseLine("1.6.0(001.234*kW)(24-03-15,14:30)")
	require.NoError(t, err)
	assert.Equal(t, []string{"001.234*kW", "24-03-15,14:30"}, el.Values)
}

func TestParseLineRejectsNoValueGroup(t *testing.T) {
	_, err := ParseLine("1.8.0")
	assert.ErrorIs(t, err, ErrObisParse)
}

func TestParseLineRejectsUnterminatedGroup(t *testing.T) {
	_, err := ParseLine("1.8.0(001234.567")
	assert.ErrorIs(t, err, ErrObisParse)
}

func TestSubscriptMonth(t *testing.T) {
	tests := []struct {
		subscript string
		want      int
		wantOK    bool
	}{
		{"", 0, false},
		{"1", 1, true},
		{"12", 12, true},
		{"13", 0, false},
		{"0", 0, false},
		{"x", 0, false},
	}
	for _, tc := range tests {
		n, ok := SubscriptMonth(tc.subscript)
		assert.Equal(t, tc.wantOK, ok, tc.subscript)
		if tc.wantOK {
			assert.Equal(t, tc.want, n, tc.subscript)
		}
	}
}

// Every well-formed "code(v1)(v2)..." line round-trips its code and
// value groups through ParseLine without error.
func TestParseLineTotalOnWellFormedInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringMatching(`[0-9A-Z]\.[0-9]{1,3}\.[0-9]`).Draw(t, "code")
		n := rapid.IntRange(1, 3).Draw(t, "n")
		var line string
		var want []string
		for i := 0; i < n; i++ {
			v := rapid.StringMatching(`[0-9A-Za-z.,:*-]{0,12}`).Draw(t, "v")
			line += "(" + v + ")"
			want = append(want, v)
		}
		el, err := ParseLine(code + line)
		require.NoError(t, err)
		assert.Equal(t, code, el.Code)
		assert.Equal(t, want, el.Values)
	})
}
