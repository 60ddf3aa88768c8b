// Package render formats a parsed obis.Reading for plain-text CLI
// output. Kept deliberately small: one function per semantic group,
// each only printing what the meter actually sent.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/edastools/modec/obis"
)

const timestampLayout = "%Y-%m-%d %H:%M"

// Reading writes a human-readable dump of r to w.
func Reading(w io.Writer, r *obis.Reading) {
	if r.Identity != nil {
		id := r.Identity
		fmt.Fprintf(w, "identity: serial=%s program_version=%s production=%s calibration=%s meter_time=%s meter_date=%s weekday=%d\n",
			id.Serial, id.ProgramVersion, id.ProductionDate, id.CalibrationDate, id.MeterTime, id.MeterDate, id.Weekday)
	}

	if len(r.Energy) > 0 {
		fmt.Fprintln(w, "energy registers:")
		printEnergy(w, r.Energy)
	}

	if len(r.Demand) > 0 {
		fmt.Fprintln(w, "demand:")
		if d, ok := r.Demand[obis.Import]; ok {
			fmt.Fprintf(w, "  import: %s at %s %s\n", d.Value, d.Date, d.Time)
		}
		if d, ok := r.Demand[obis.Export]; ok {
			fmt.Fprintf(w, "  export: %s at %s %s\n", d.Value, d.Date, d.Time)
		}
	}

	if r.Instant != nil {
		i := r.Instant
		fmt.Fprintf(w, "instantaneous: V=%s/%s/%s A=%s/%s/%s PF=%s/%s/%s f=%s\n",
			i.VoltageL1, i.VoltageL2, i.VoltageL3, i.CurrentL1, i.CurrentL2, i.CurrentL3,
			i.PFL1, i.PFL2, i.PFL3, i.Frequency)
	}

	if r.Status != nil {
		fmt.Fprintf(w, "status: FF=%s GF=%s\n", r.Status.FFHex, r.Status.GFHex)
	}

	for month := 1; month <= 12; month++ {
		snap := r.Monthly[month]
		if snap == nil {
			continue
		}
		fmt.Fprintf(w, "month %d: reset=%s %s cover_opens=%d\n", month, snap.ResetAt, snap.ResetTime, snap.CoverOpenCount)
		printEnergy(w, snap.Energy)
	}

	if r.Events != nil {
		printEvents(w, "voltage warnings", r.Events.VoltageWarnings)
		printEvents(w, "current warnings", r.Events.CurrentWarnings)
		printEvents(w, "magnetic warnings", r.Events.MagneticWarnings)
		printEvents(w, "phase outages", r.Events.PhaseOutages)
		printEvents(w, "three-phase outages", r.Events.ThreePhaseOutages)
	}

	if r.Tariff != nil {
		for _, dt := range []obis.DayType{obis.Weekday, obis.Saturday, obis.Sunday} {
			slots := r.Tariff.Slots[dt]
			if len(slots) == 0 {
				continue
			}
			fmt.Fprintf(w, "tariff schedule (daytype %d):\n", dt)
			for _, s := range slots {
				fmt.Fprintf(w, "  %s -> tariff %d\n", s.Start, s.TariffIndex)
			}
		}
	}

	if r.LoadProfile != nil {
		fmt.Fprintf(w, "load profile: %d columns, %d records\n", len(r.LoadProfile.Columns), len(r.LoadProfile.Records))
	}
}

func printEnergy(w io.Writer, m map[obis.EnergyKey]obis.Decimal) {
	keys := make([]obis.EnergyKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Tariff != keys[j].Tariff {
			return keys[i].Tariff < keys[j].Tariff
		}
		if keys[i].Direction != keys[j].Direction {
			return keys[i].Direction < keys[j].Direction
		}
		return keys[i].Kind < keys[j].Kind
	})
	for _, k := range keys {
		fmt.Fprintf(w, "  tariff=%d %s kind=%d: %s\n", k.Tariff, k.Direction, k.Kind, m[k])
	}
}

func printEvents(w io.Writer, label string, events []obis.TimestampPair) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", label)
	for _, e := range events {
		start, err := obis.FormatTimestamp(e.Start, e.StartTime, timestampLayout)
		if err != nil {
			start = fmt.Sprintf("%s %s", e.Start, e.StartTime)
		}
		end, err := obis.FormatTimestamp(e.End, e.EndTime, timestampLayout)
		if err != nil {
			end = fmt.Sprintf("%s %s", e.End, e.EndTime)
		}
		fmt.Fprintf(w, "  %s -> %s\n", start, end)
	}
}
