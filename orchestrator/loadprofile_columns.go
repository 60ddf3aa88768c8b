package orchestrator

import (
	"fmt"
	"strings"

	"github.com/edastools/modec/obis"
)

// extractColumnLine finds "97.<profile>.0(...)" in a whole-table payload
// and returns the inner contents, unparsed — the caller re-assembles it
// against the later data-only payload and hands the combined text to
// obis.Parse, since the grammar for a column-definition line and a
// data-row line only makes sense read together.
func extractColumnLine(payload string, profile int) (string, error) {
	prefix := fmt.Sprintf("97.%d.0(", profile)
	idx := strings.Index(payload, prefix)
	if idx < 0 {
		return "", fmt.Errorf("%w: no column definition for profile %d", obis.ErrObisParse, profile)
	}
	rest := payload[idx+len(prefix):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated column definition for profile %d", obis.ErrObisParse, profile)
	}
	return rest[:end], nil
}
