package obis

import "fmt"

// Parse consumes an entire DataBlock payload and returns the Reading it
// describes. Parsing is total: every non-sentinel, non-blank line must
// be recognized or Parse fails with ErrObisParse.
func Parse(raw string) (*Reading, error) {
	r := NewReading()
	var pendingTariff tariffAccumulator
	var pendingCols [4][]LoadProfileColumn // indices 1..3
	var pendingRows [4][]loadProfileRawRow

	for _, line := range splitLines(raw) {
		el, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		if err := route(r, el, &pendingTariff, &pendingCols, &pendingRows); err != nil {
			return nil, err
		}
	}

	pendingTariff.applyTo(r)
	if err := finalizeLoadProfile(r, pendingCols, pendingRows); err != nil {
		return nil, err
	}

	return r, nil
}

func route(r *Reading, el Element, tariff *tariffAccumulator, cols *[4][]LoadProfileColumn, rows *[4][]loadProfileRawRow) error {
	switch el.Code {
	case codeSerial:
		identity(r).Serial = firstValue(el)
		return nil
	case codeProgramVersion:
		identity(r).ProgramVersion = firstValue(el)
		return nil
	case codeProductionDate:
		identity(r).ProductionDate = CalendarDate(firstValue(el))
		return nil
	case codeCalibrationDate:
		identity(r).CalibrationDate = CalendarDate(firstValue(el))
		return nil
	case codeMeterTime:
		identity(r).MeterTime = TimeOfDay(firstValue(el))
		return nil
	case codeMeterDate:
		identity(r).MeterDate = CalendarDate(firstValue(el))
		identity(r).Weekday = -1
		if len(el.Values) > 1 {
			if n, err := atoiSafe(el.Values[1]); err == nil {
				identity(r).Weekday = n
			}
		}
		return nil
	case codeVoltageL1, codeVoltageL2, codeVoltageL3, codeCurrentL1, codeCurrentL2,
		codeCurrentL3, codePFL1, codePFL2, codePFL3, codeFrequency:
		return routeInstant(r, el)
	case codeDemandImport, codeDemandExport:
		return routeDemand(r, el)
	case codeFF, "F.F":
		return routeStatus(r, el, true)
	case codeGF:
		return routeStatus(r, el, false)
	case codeVoltageWarnings:
		return routeEventList(r, el, func(ev *EventLists) *[]TimestampPair { return &ev.VoltageWarnings })
	case codeCurrentWarnings:
		return routeEventList(r, el, func(ev *EventLists) *[]TimestampPair { return &ev.CurrentWarnings })
	case codeMagneticWarnings:
		return routeEventList(r, el, func(ev *EventLists) *[]TimestampPair { return &ev.MagneticWarnings })
	case codePhaseOutages:
		return routeEventList(r, el, func(ev *EventLists) *[]TimestampPair { return &ev.PhaseOutages })
	case codeThreePhaseOutages:
		return routeEventList(r, el, func(ev *EventLists) *[]TimestampPair { return &ev.ThreePhaseOutages })
	case codeTariffWeekdayTimes:
		tariff.setTimes(Weekday, el)
		return nil
	case codeTariffWeekdayAssign:
		tariff.setAssign(Weekday, el)
		return nil
	case codeTariffSaturdayTimes:
		tariff.setTimes(Saturday, el)
		return nil
	case codeTariffSaturdayAssign:
		tariff.setAssign(Saturday, el)
		return nil
	case codeTariffSundayTimes:
		tariff.setTimes(Sunday, el)
		return nil
	case codeTariffSundayAssign:
		tariff.setAssign(Sunday, el)
		return nil
	case codeLoadProfileCols1:
		return routeLoadProfileColumns(el, 1, cols)
	case codeLoadProfileCols2:
		return routeLoadProfileColumns(el, 2, cols)
	case codeLoadProfileCols3:
		return routeLoadProfileColumns(el, 3, cols)
	}

	if profile, ok := loadProfileDataProfile(el.Code); ok {
		return routeLoadProfileRow(el, profile, rows)
	}
	if group, tariffNo, ok := tariffFromCode(el.Code); ok {
		return routeEnergy(r, el, group, tariffNo)
	}

	return fmt.Errorf("%w: unrecognized code %q", ErrObisParse, el.Code)
}

func identity(r *Reading) *IdentityInfo {
	if r.Identity == nil {
		r.Identity = &IdentityInfo{Weekday: -1}
	}
	return r.Identity
}

func firstValue(el Element) string {
	if len(el.Values) == 0 {
		return ""
	}
	return el.Values[0]
}

func routeInstant(r *Reading, el Element) error {
	if r.Instant == nil {
		r.Instant = &InstantValues{}
	}
	mag, ok := parseMagnitude(firstValue(el))
	if !ok {
		return fmt.Errorf("%w: %s: bad magnitude %q", ErrObisParse, el.Code, firstValue(el))
	}
	switch el.Code {
	case codeVoltageL1:
		r.Instant.VoltageL1 = mag
	case codeVoltageL2:
		r.Instant.VoltageL2 = mag
	case codeVoltageL3:
		r.Instant.VoltageL3 = mag
	case codeCurrentL1:
		r.Instant.CurrentL1 = mag
	case codeCurrentL2:
		r.Instant.CurrentL2 = mag
	case codeCurrentL3:
		r.Instant.CurrentL3 = mag
	case codePFL1:
		r.Instant.PFL1 = mag
	case codePFL2:
		r.Instant.PFL2 = mag
	case codePFL3:
		r.Instant.PFL3 = mag
	case codeFrequency:
		r.Instant.Frequency = mag
	}
	return nil
}

func routeDemand(r *Reading, el Element) error {
	if len(el.Values) < 2 {
		return fmt.Errorf("%w: %s: demand needs magnitude and timestamp", ErrObisParse, el.Code)
	}
	mag, ok := parseMagnitude(el.Values[0])
	if !ok {
		return fmt.Errorf("%w: %s: bad magnitude %q", ErrObisParse, el.Code, el.Values[0])
	}
	date, t, ok := parseSingleTimestamp(el.Values[1])
	if !ok {
		return fmt.Errorf("%w: %s: bad timestamp %q", ErrObisParse, el.Code, el.Values[1])
	}
	dir := Import
	if el.Code == codeDemandExport {
		dir = Export
	}
	r.Demand[dir] = DemandTuple{Value: mag, Date: date, Time: t}
	return nil
}

func routeStatus(r *Reading, el Element, isFF bool) error {
	if r.Status == nil {
		r.Status = &StatusWords{}
	}
	v, hex, ok := parseHexWord(firstValue(el))
	if !ok {
		return fmt.Errorf("%w: %s: bad status word %q", ErrObisParse, el.Code, firstValue(el))
	}
	if isFF {
		r.Status.FF, r.Status.FFHex = v, hex
	} else {
		r.Status.GF, r.Status.GFHex = v, hex
	}
	return nil
}

func routeEventList(r *Reading, el Element, field func(*EventLists) *[]TimestampPair) error {
	if r.Events == nil {
		r.Events = &EventLists{}
	}
	dst := field(r.Events)
	for _, v := range el.Values {
		pair, ok, drop := parseTimestampPair(v)
		if !ok {
			return fmt.Errorf("%w: %s: bad event pair %q", ErrObisParse, el.Code, v)
		}
		if drop {
			continue
		}
		*dst = append(*dst, pair)
	}
	return nil
}

func routeEnergy(r *Reading, el Element, group string, tariffNo int) error {
	info := energyCode[group]
	mag, ok := parseMagnitude(firstValue(el))
	if !ok {
		return fmt.Errorf("%w: %s: bad magnitude %q", ErrObisParse, el.Code, firstValue(el))
	}
	key := EnergyKey{Tariff: tariffNo, Direction: info.Direction, Kind: info.Kind}

	if month, ok := SubscriptMonth(el.Subscript); ok {
		snap := monthlySnapshot(r, month)
		snap.Energy[key] = mag
		return nil
	}
	r.Energy[key] = mag
	return nil
}

func monthlySnapshot(r *Reading, month int) *MonthlySnapshot {
	if r.Monthly[month] == nil {
		r.Monthly[month] = &MonthlySnapshot{
			Energy: make(map[EnergyKey]Decimal),
			Demand: make(map[Direction]DemandTuple),
		}
	}
	return r.Monthly[month]
}
