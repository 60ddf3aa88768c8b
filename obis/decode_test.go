package obis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityAndInstant(t *testing.T) {
	payload := "" +
		"0.0.0(12345678)\r\n" +
		"0.2.0(1.03)\r\n" +
		"0.9.1(14:23:05)\r\n" +
		"0.9.2(24-03-15)(5)\r\n" +
		"32.7.0(231.4*V)\r\n" +
		"31.7.0(4.21*A)\r\n" +
		"14.7.0(50.01*Hz)\r\n" +
		"!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, r.Identity)
	assert.Equal(t, "12345678", r.Identity.Serial)
	assert.Equal(t, "1.03", r.Identity.ProgramVersion)
	assert.Equal(t, TimeOfDay("14:23:05"), r.Identity.MeterTime)
	assert.Equal(t, CalendarDate("24-03-15"), r.Identity.MeterDate)
	assert.Equal(t, 5, r.Identity.Weekday)

	require.NotNil(t, r.Instant)
	assert.Equal(t, Decimal{Raw: "231.4", Unit: "V"}, r.Instant.VoltageL1)
	assert.Equal(t, Decimal{Raw: "4.21", Unit: "A"}, r.Instant.CurrentL1)
	assert.Equal(t, Decimal{Raw: "50.01", Unit: "Hz"}, r.Instant.Frequency)
}

func TestParseEnergyTotalsAndMonthly(t *testing.T) {
	payload := "" +
		"1.8.0(001234.567*kWh)\r\n" +
		"1.8.1(000987.654*kWh)\r\n" +
		"1.8.1*3(000012.345*kWh)\r\n" +
		"2.8.0(000000.100*kWh)\r\n" +
		"!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)

	total := r.Energy[EnergyKey{Tariff: 0, Direction: Import, Kind: Active}]
	assert.Equal(t, "001234.567", total.Raw)

	tariff1 := r.Energy[EnergyKey{Tariff: 1, Direction: Import, Kind: Active}]
	assert.Equal(t, "000987.654", tariff1.Raw)

	export := r.Energy[EnergyKey{Tariff: 0, Direction: Export, Kind: Active}]
	assert.Equal(t, "000000.100", export.Raw)

	require.NotNil(t, r.Monthly[3])
	march := r.Monthly[3].Energy[EnergyKey{Tariff: 1, Direction: Import, Kind: Active}]
	assert.Equal(t, "000012.345", march.Raw)
	assert.Nil(t, r.Monthly[4])
}

func TestParseDemand(t *testing.T) {
	payload := "1.6.0(001.234*kW)(24-03-15,14:30)\r\n!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)
	d := r.Demand[Import]
	assert.Equal(t, "001.234", d.Value.Raw)
	assert.Equal(t, CalendarDate("24-03-15"), d.Date)
	assert.Equal(t, TimeOfDay("14:30"), d.Time)
}

func TestParseStatusWordsAndGFDecode(t *testing.T) {
	payload := "F.F.0(0000000000000041)\r\nF.F.1(000000000A4C0021)\r\n!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, r.Status)
	assert.Equal(t, uint64(0x41), r.Status.FF)
	assert.Equal(t, []int{0, 6}, FFBits(r.Status.FF))
	assert.Equal(t, "battery_low", FFAlarmName(0))
	assert.Equal(t, "magnetic_tampering", FFAlarmName(6))
	assert.Equal(t, "reserved20", FFAlarmName(20))

	gf := DecodeGF(r.Status.GF)
	assert.Equal(t, uint8(0x21&0x1f), gf.EdasID)
}

func TestParseEventListDropsSentinel(t *testing.T) {
	payload := "98.11.0(00-00-00,00:00;00-00-00,00:00)(24-03-01,08:15;24-03-01,08:16)\r\n!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, r.Events)
	require.Len(t, r.Events.VoltageWarnings, 1)
	assert.Equal(t, CalendarDate("24-03-01"), r.Events.VoltageWarnings[0].Start)
}

func TestParseTariffScheduleBothHalves(t *testing.T) {
	times := "0000" + "0600" + "1700" + "2200" + "9999" + "9999" + "9999" + "9999"
	assign := "12340000"
	payload := "96.60.0(" + times + ")\r\n96.61.0(" + assign + ")\r\n!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, r.Tariff)
	slots := r.Tariff.Slots[Weekday]
	require.Len(t, slots, 4)
	assert.Equal(t, TimeOfDay("00:00"), slots[0].Start)
	assert.Equal(t, 1, slots[0].TariffIndex)
	assert.Equal(t, 4, slots[3].TariffIndex)
}

func TestParseTariffScheduleOnlyOneHalfOmitted(t *testing.T) {
	payload := "96.60.0(00000600170022009999999999999999)\r\n!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)
	assert.Nil(t, r.Tariff)
}

func TestParseLoadProfile(t *testing.T) {
	payload := "" +
		"97.1.0(1.8.0*kWh,2.8.0*kWh)\r\n" +
		"P.01(24-03-01,00:00)(000012.345)(000001.000)\r\n" +
		"P.01(24-03-01,00:15)(000012.500)(000001.100)\r\n" +
		"!\r\n"
	r, err := Parse(payload)
	require.NoError(t, err)
	require.NotNil(t, r.LoadProfile)
	assert.Len(t, r.LoadProfile.Columns, 2)
	assert.Equal(t, "1.8.0", r.LoadProfile.Columns[0].OBIS)
	assert.Equal(t, "kWh", r.LoadProfile.Columns[0].Unit)
	require.Len(t, r.LoadProfile.Records, 2)
	assert.Equal(t, CalendarDate("24-03-01"), r.LoadProfile.Records[0].Date)
	assert.Equal(t, "000012.345", r.LoadProfile.Records[0].Values[0].Raw)
}

func TestParseLoadProfileShapeMismatch(t *testing.T) {
	payload := "" +
		"97.1.0(1.8.0*kWh,2.8.0*kWh)\r\n" +
		"P.01(24-03-01,00:00)(000012.345)\r\n" +
		"!\r\n"
	_, err := Parse(payload)
	assert.ErrorIs(t, err, ErrLoadProfileShape)
}

func TestParseUnrecognizedCodeFails(t *testing.T) {
	_, err := Parse("99.99.99(1)\r\n!\r\n")
	assert.ErrorIs(t, err, ErrObisParse)
}

func TestParseIgnoresBlankAndSentinelLines(t *testing.T) {
	r, err := Parse("\r\n1.8.0(001234.567*kWh)\r\n\r\n!\r\n")
	require.NoError(t, err)
	assert.Equal(t, "001234.567", r.Energy[EnergyKey{Tariff: 0, Direction: Import, Kind: Active}].Raw)
}
