package obis

import "strconv"

// FFAlarmNames maps FF-word bit index to its named alarm: battery low,
// cover open, magnetic tampering, phase outage, etc. Bits without an
// assigned name in the MASS profile render as "reservedNN".
var FFAlarmNames = map[int]string{
	0:  "battery_low",
	1:  "clock_fault",
	2:  "calibration_switch",
	3:  "program_memory_error",
	4:  "terminal_cover_open",
	5:  "current_reversal",
	6:  "magnetic_tampering",
	7:  "phase_outage",
	8:  "voltage_missing",
	9:  "current_missing",
	10: "over_current",
	11: "over_voltage",
	12: "under_voltage",
	13: "demand_reset",
	14: "clock_adjusted",
	15: "firmware_updated",
}

// FFAlarmName returns the named alarm for bit, or "reservedNN" if the
// MASS profile does not assign that bit a name.
func FFAlarmName(bit int) string {
	if name, ok := FFAlarmNames[bit]; ok {
		return name
	}
	return "reserved" + strconv.Itoa(bit)
}

// FFBits returns the sorted set bits of an FF word.
func FFBits(ff uint64) []int {
	var bits []int
	for i := 0; i < 64; i++ {
		if ff&(1<<uint(i)) != 0 {
			bits = append(bits, i)
		}
	}
	return bits
}

// Phase names GF's 2-bit phase field.
type Phase int

const (
	PhaseNA Phase = iota
	PhaseR
	PhaseS
	PhaseT
)

func (p Phase) String() string {
	switch p {
	case PhaseR:
		return "R"
	case PhaseS:
		return "S"
	case PhaseT:
		return "T"
	default:
		return "N/A"
	}
}

// GFFields is the decoded slicing of a GF word: bits 0-4 are the EDAŞ
// id, 5-19 the substation id (15 bits), 20-23 the transformer id, 24-29
// the feeder id, 30-31 the phase, 34-43 the max current in amps.
type GFFields struct {
	EdasID        uint8
	SubstationID  uint16
	TransformerID uint8
	FeederID      uint8
	Phase         Phase
	MaxCurrentAmp uint16
}

func bitfield(v uint64, lo, hi int) uint64 {
	width := hi - lo + 1
	mask := (uint64(1) << uint(width)) - 1
	return (v >> uint(lo)) & mask
}

// DecodeGF slices a raw GF word into its named fields.
func DecodeGF(gf uint64) GFFields {
	return GFFields{
		EdasID:        uint8(bitfield(gf, 0, 4)),
		SubstationID:  uint16(bitfield(gf, 5, 19)),
		TransformerID: uint8(bitfield(gf, 20, 23)),
		FeederID:      uint8(bitfield(gf, 24, 29)),
		Phase:         Phase(bitfield(gf, 30, 31)),
		MaxCurrentAmp: uint16(bitfield(gf, 34, 43)),
	}
}

// parseHexWord parses a 16-hex-char token into its uint64 value,
// preserving the raw hex string.
func parseHexWord(s string) (uint64, string, bool) {
	if !isHex16(s) {
		return 0, "", false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, "", false
	}
	return v, s, true
}
