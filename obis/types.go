// Package obis parses the MASS OBIS payload grammar — the textual
// contents of a DataBlock — into a typed Reading. It is pure: no I/O, no
// clock.
package obis

import "fmt"

// Decimal preserves the meter's printed precision exactly; the core never
// rounds a magnitude. Raw is the literal digit string as printed by the
// meter (e.g. "123456.789"), Unit is the canonical normalized unit token
// (e.g. "kWh"), which may be empty when the value carried no unit tag.
type Decimal struct {
	Raw  string
	Unit string
}

func (d Decimal) String() string {
	if d.Unit == "" {
		return d.Raw
	}
	return fmt.Sprintf("%s %s", d.Raw, d.Unit)
}

// Direction distinguishes import/export energy flow.
type Direction int

const (
	Import Direction = iota
	Export
)

func (d Direction) String() string {
	if d == Export {
		return "export"
	}
	return "import"
}

// EnergyKind distinguishes active/inductive/capacitive energy.
type EnergyKind int

const (
	Active EnergyKind = iota
	Inductive
	Capacitive
)

// EnergyKey indexes the Energy register map. Tariff ranges 0..4 (0 is the
// total register, 1..4 are per-tariff).
type EnergyKey struct {
	Tariff    int
	Direction Direction
	Kind      EnergyKind
}

// TimeOfDay is "HH:MM" or "HH:MM:SS" wall-clock time of day, stored as the
// literal string the meter printed.
type TimeOfDay string

// CalendarDate is "YY-MM-DD" as printed; fullYear and FormatTimestamp
// normalize it to a four-digit year.
type CalendarDate string

// TimestampPair is a (start, end) event record. A record whose start
// begins "00-00-00" is the sentinel and is dropped during parsing, never
// constructed here.
type TimestampPair struct {
	Start CalendarDate
	StartTime TimeOfDay
	End       CalendarDate
	EndTime   TimeOfDay
}

// IdentityInfo is the "Identity & clock" semantic group.
type IdentityInfo struct {
	Serial          string
	ProgramVersion  string
	ProductionDate  CalendarDate
	CalibrationDate CalendarDate
	MeterDate       CalendarDate
	MeterTime       TimeOfDay
	Weekday         int // 0..6, -1 if not present
}

// DemandTuple is one direction's maximum-demand value and its timestamp.
type DemandTuple struct {
	Value Decimal
	Date  CalendarDate
	Time  TimeOfDay
}

// InstantValues is the "Instantaneous" semantic group.
type InstantValues struct {
	VoltageL1, VoltageL2, VoltageL3 Decimal
	CurrentL1, CurrentL2, CurrentL3 Decimal
	PFL1, PFL2, PFL3                Decimal
	Frequency                      Decimal
}

// StatusWords is the bit-packed FF/GF pair.
type StatusWords struct {
	FF      uint64
	FFHex   string
	GF      uint64
	GFHex   string
}

// MonthlySnapshot is one month's rolled-up historical values.
type MonthlySnapshot struct {
	Energy   map[EnergyKey]Decimal
	Demand   map[Direction]DemandTuple
	ResetAt  CalendarDate
	ResetTime TimeOfDay
	CoverOpenCount int
}

// EventLists holds the bounded warning/outage event sequences.
type EventLists struct {
	VoltageWarnings  []TimestampPair // ≤10
	CurrentWarnings  []TimestampPair // ≤10
	MagneticWarnings []TimestampPair // ≤10
	PhaseOutages     []TimestampPair // ≤99
	ThreePhaseOutages []TimestampPair // ≤99
}

// DayType distinguishes the three tariff-schedule calendars.
type DayType int

const (
	Weekday DayType = iota
	Saturday
	Sunday
)

// TariffSlot is one (start-of-slot, tariff-in-effect) pair.
type TariffSlot struct {
	Start       TimeOfDay
	TariffIndex int // 1..4
}

// TariffSchedule is up to 8 slots per day type.
type TariffSchedule struct {
	Slots map[DayType][]TariffSlot
}

// LoadProfileColumn names one recorded quantity.
type LoadProfileColumn struct {
	OBIS string
	Unit string // canonical unit tag, "" if the meter omitted it
}

// LoadProfileRecord is one timestamped row with one value per column.
type LoadProfileRecord struct {
	Date   CalendarDate
	Time   TimeOfDay
	Values []Decimal
}

// LoadProfileFrame is the parsed load-profile stream.
type LoadProfileFrame struct {
	Columns []LoadProfileColumn
	Records []LoadProfileRecord
}

// Reading is the typed result of parsing one payload. Every field is
// optional: the parser fills in whichever sub-records the payload
// actually contained. Parse builds a Reading in one pass; afterwards only
// the orchestrator's full readout changes it, merging the Readings of
// later packets into the first one before returning it.
type Reading struct {
	Identity    *IdentityInfo
	Energy      map[EnergyKey]Decimal
	Demand      map[Direction]DemandTuple
	Instant     *InstantValues
	Status      *StatusWords
	Monthly     [13]*MonthlySnapshot // index 1..12 used, 0 unused
	Events      *EventLists
	Tariff      *TariffSchedule
	LoadProfile *LoadProfileFrame
}

// NewReading returns an empty Reading with its map fields initialized.
func NewReading() *Reading {
	return &Reading{
		Energy: make(map[EnergyKey]Decimal),
		Demand: make(map[Direction]DemandTuple),
	}
}
