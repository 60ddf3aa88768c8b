package obis

// OBIS code assignments. The MASS profile is not formally machine
// readable; these are the codes this module recognizes, chosen to match
// conventional IEC 62056-61 energy register numbering. Where a code was
// otherwise unpinned (identity fields, event lists, tariff schedule,
// load-profile data rows) the constant below is this module's own choice.
const (
	codeSerial          = "0.0.0"
	codeProgramVersion  = "0.2.0"
	codeProductionDate  = "0.2.1"
	codeCalibrationDate = "0.2.2"
	codeMeterTime       = "0.9.1"
	codeMeterDate       = "0.9.2"

	codeVoltageL1 = "32.7.0"
	codeVoltageL2 = "52.7.0"
	codeVoltageL3 = "72.7.0"
	codeCurrentL1 = "31.7.0"
	codeCurrentL2 = "51.7.0"
	codeCurrentL3 = "71.7.0"
	codePFL1      = "33.7.0"
	codePFL2      = "53.7.0"
	codePFL3      = "73.7.0"
	codeFrequency = "14.7.0"

	codeDemandImport = "1.6.0"
	codeDemandExport = "2.6.0"

	codeFF = "F.F.0"
	codeGF = "F.F.1"

	codeVoltageWarnings   = "98.11.0"
	codeCurrentWarnings   = "98.12.0"
	codeMagneticWarnings  = "98.13.0"
	codePhaseOutages      = "98.14.0"
	codeThreePhaseOutages = "98.15.0"

	codeTariffWeekdayTimes  = "96.60.0"
	codeTariffWeekdayAssign = "96.61.0"
	codeTariffSaturdayTimes  = "96.62.0"
	codeTariffSaturdayAssign = "96.63.0"
	codeTariffSundayTimes    = "96.64.0"
	codeTariffSundayAssign   = "96.65.0"

	codeLoadProfileCols1 = "97.1.0"
	codeLoadProfileCols2 = "97.2.0"
	codeLoadProfileCols3 = "97.3.0"
)

// energyCode maps an OBIS energy-register code to its (direction, kind).
// 1.8.x active import, 2.8.x active export, 3.8.x inductive import,
// 4.8.x capacitive import, 5.8.x inductive export, 6.8.x capacitive
// export — the grouping conventional in Turkish MASS deployments.
var energyCode = map[string]struct {
	Direction Direction
	Kind      EnergyKind
}{
	"1.8": {Import, Active},
	"2.8": {Export, Active},
	"3.8": {Import, Inductive},
	"4.8": {Import, Capacitive},
	"5.8": {Export, Inductive},
	"6.8": {Export, Capacitive},
}

// tariffFromCode splits "1.8.1" into the energy-group prefix "1.8" and
// the tariff digit 1 (0 when the code has no third field, meaning the
// grand total register).
func tariffFromCode(code string) (group string, tariff int, ok bool) {
	fields := dotFields(code)
	if len(fields) < 2 {
		return "", 0, false
	}
	group = fields[0] + "." + fields[1]
	if _, known := energyCode[group]; !known {
		return "", 0, false
	}
	if len(fields) >= 3 {
		t, err := atoiSafe(fields[2])
		if err != nil || t < 0 || t > 4 {
			return "", 0, false
		}
		return group, t, true
	}
	return group, 0, true
}

func dotFields(code string) []string {
	var out []string
	start := 0
	for i := 0; i < len(code); i++ {
		if code[i] == '.' {
			out = append(out, code[start:i])
			start = i + 1
		}
	}
	out = append(out, code[start:])
	return out
}

func atoiSafe(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotDigit
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
