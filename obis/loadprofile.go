package obis

import (
	"fmt"
	"strings"
)

// loadProfileRawRow holds one data-row's text before its column count has
// necessarily been seen; finalizeLoadProfile parses it once both the
// column definitions and the rows for a profile are known.
type loadProfileRawRow struct {
	Date CalendarDate
	Time TimeOfDay
	Raw  []string
}

// loadProfileDataProfile recognizes a "P.0N" data-row code and returns
// its profile number (1..3).
func loadProfileDataProfile(code string) (int, bool) {
	if len(code) != 4 || !strings.HasPrefix(code, "P.0") {
		return 0, false
	}
	switch code[3] {
	case '1':
		return 1, true
	case '2':
		return 2, true
	case '3':
		return 3, true
	default:
		return 0, false
	}
}

// routeLoadProfileColumns parses "97.P.0(c1,c2,...)" where each
// cᵢ = "<obis>*<unit>" (unit optional).
func routeLoadProfileColumns(el Element, profile int, cols *[4][]LoadProfileColumn) error {
	if len(el.Values) != 1 {
		return fmt.Errorf("%w: profile %d column definition: expected one value group", ErrObisParse, profile)
	}
	var out []LoadProfileColumn
	for _, tok := range strings.Split(el.Values[0], ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if star := strings.IndexByte(tok, '*'); star >= 0 {
			out = append(out, LoadProfileColumn{OBIS: tok[:star], Unit: normalizeUnit(tok[star+1:])})
		} else {
			out = append(out, LoadProfileColumn{OBIS: tok})
		}
	}
	cols[profile] = out
	return nil
}

// routeLoadProfileRow stores a data row's raw text for later validation
// against the column count.
func routeLoadProfileRow(el Element, profile int, rows *[4][]loadProfileRawRow) error {
	if len(el.Values) < 1 {
		return fmt.Errorf("%w: profile %d row: missing timestamp", ErrObisParse, profile)
	}
	date, t, ok := parseSingleTimestamp(el.Values[0])
	if !ok {
		return fmt.Errorf("%w: profile %d row: bad timestamp %q", ErrObisParse, profile, el.Values[0])
	}
	rows[profile] = append(rows[profile], loadProfileRawRow{Date: date, Time: t, Raw: el.Values[1:]})
	return nil
}

// finalizeLoadProfile builds LoadProfileFrame for whichever profiles had
// both column definitions and at least one data row, enforcing that every
// row's value-tuple count strictly matches the declared column count.
func finalizeLoadProfile(r *Reading, cols [4][]LoadProfileColumn, rows [4][]loadProfileRawRow) error {
	for profile := 1; profile <= 3; profile++ {
		if cols[profile] == nil && rows[profile] == nil {
			continue
		}
		frame := &LoadProfileFrame{Columns: cols[profile]}
		for _, row := range rows[profile] {
			if len(row.Raw) != len(cols[profile]) {
				return fmt.Errorf("%w: profile %d: row has %d values, want %d columns",
					ErrLoadProfileShape, profile, len(row.Raw), len(cols[profile]))
			}
			values := make([]Decimal, len(row.Raw))
			for i, raw := range row.Raw {
				mag, ok := parseMagnitude(raw)
				if !ok {
					return fmt.Errorf("%w: profile %d: bad value %q", ErrObisParse, profile, raw)
				}
				values[i] = mag
			}
			frame.Records = append(frame.Records, LoadProfileRecord{Date: row.Date, Time: row.Time, Values: values})
		}
		// Callers read one profile per operation, so the first profile
		// with data wins if more than one somehow appears in one
		// payload.
		if r.LoadProfile == nil {
			r.LoadProfile = frame
		}
	}
	return nil
}
