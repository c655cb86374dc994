package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedDocument builds a minimal navifeed response carrying the given fc nodes.
func feedDocument(entries ...string) []byte {
	doc := "<weatherdata><forecast>"
	for _, e := range entries {
		doc += e
	}
	doc += "</forecast></weatherdata>"
	return []byte(doc)
}

func fcNode(dt string) string {
	return fmt.Sprintf(`<fc dt="%s" pr="2.4" pp="0.3" t="24" wn="NE" ws="4" rh="80"/>`, dt)
}

func TestParseForecast(t *testing.T) {
	doc, err := ParseForecast(feedDocument(
		`<fc dt="2026-03-02 06:00" pr="2.4" pp="0.3" t="24.5" wn="ESE" ws="4.2" rh="80"/>`,
		`<other dt="2026-03-02 12:00"/>`,
		fcNode("2026-03-02 12:00"),
	))
	require.NoError(t, err)
	require.Len(t, doc.Measurements, 2, "non-fc nodes are structural and skipped")

	m := doc.Measurements[0]
	assert.Equal(t, "2026-03-02 06:00", m.At)
	assert.Equal(t, 2.4, m.Rain)
	assert.Equal(t, 0.3, m.RainProb)
	assert.Equal(t, 24.5, m.Temp)
	assert.Equal(t, "ESE", m.WindDir)
	assert.Equal(t, 4.2, m.WindSpeed)
	assert.Equal(t, 80.0, m.Humidity)
}

func TestParseForecast_Malformed(t *testing.T) {
	_, err := ParseForecast([]byte("not-xml{{{"))
	require.Error(t, err)
}

func TestParseForecast_EmptyDocument(t *testing.T) {
	doc, err := ParseForecast([]byte("<weatherdata></weatherdata>"))
	require.NoError(t, err)
	assert.Empty(t, doc.Measurements)
}

func TestMeasurementAt_RoundTrip(t *testing.T) {
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	doc, err := ParseForecast(feedDocument(fcNode(date.Format(dateLayout) + " 06:00")))
	require.NoError(t, err)

	m, ok := doc.MeasurementAt(date, "06:00")
	require.True(t, ok)
	assert.Equal(t, "2026-03-02 06:00", m.At)

	_, ok = doc.MeasurementAt(date, "12:00")
	assert.False(t, ok)

	_, ok = doc.MeasurementAt(date.AddDate(0, 0, 1), "06:00")
	assert.False(t, ok)
}

func TestMeasurementAt_DefaultSlotIsNight(t *testing.T) {
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	doc, err := ParseForecast(feedDocument(fcNode("2026-03-02 00:00")))
	require.NoError(t, err)

	m, ok := doc.MeasurementAt(date, "")
	require.True(t, ok)
	assert.Equal(t, "2026-03-02 00:00", m.At)
}

func fullDay(date string) []string {
	return []string{
		fcNode(date + " 00:00"),
		fcNode(date + " 06:00"),
		fcNode(date + " 12:00"),
		fcNode(date + " 18:00"),
	}
}

func TestSlotsForDate_AllPresent(t *testing.T) {
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	doc, err := ParseForecast(feedDocument(fullDay("2026-03-02")...))
	require.NoError(t, err)

	slots, err := doc.SlotsForDate(date, FormatQualitative)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02 00:00", slots.Night.At)
	assert.Equal(t, "2026-03-02 06:00", slots.Morning.At)
	assert.Equal(t, "2026-03-02 12:00", slots.Afternoon.At)
	assert.Equal(t, "2026-03-02 18:00", slots.Evening.At)
}

func TestSlotsForDate_MissingAfternoonDailyDetailed(t *testing.T) {
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	doc, err := ParseForecast(feedDocument(
		fcNode("2026-03-02 06:00"),
		fcNode("2026-03-02 18:00"),
	))
	require.NoError(t, err)

	_, err = doc.SlotsForDate(date, FormatDailyDetailed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteForecast)
	assert.Contains(t, err.Error(), "12:00")
}

func TestSlotsForDate_NightOptionalForDailyDetailed(t *testing.T) {
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	doc, err := ParseForecast(feedDocument(
		fcNode("2026-03-02 06:00"),
		fcNode("2026-03-02 12:00"),
		fcNode("2026-03-02 18:00"),
	))
	require.NoError(t, err)

	slots, err := doc.SlotsForDate(date, FormatDailyDetailed)
	require.NoError(t, err)
	assert.Empty(t, slots.Night.At)

	// The same document is incomplete for the qualitative format.
	_, err = doc.SlotsForDate(date, FormatQualitative)
	assert.ErrorIs(t, err, ErrIncompleteForecast)
}

func TestSlotsForDate_FourDayNeedsOnlyNightAndAfternoon(t *testing.T) {
	// A 12h-step window produces only 00:00 and 12:00 entries.
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	doc, err := ParseForecast(feedDocument(
		fcNode("2026-03-02 00:00"),
		fcNode("2026-03-02 12:00"),
	))
	require.NoError(t, err)

	slots, err := doc.SlotsForDate(date, FormatFourDay)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02 00:00", slots.Night.At)
	assert.Equal(t, "2026-03-02 12:00", slots.Afternoon.At)

	doc = ForecastDocument{Measurements: []Measurement{{At: "2026-03-02 00:00"}}}
	_, err = doc.SlotsForDate(date, FormatFourDay)
	assert.ErrorIs(t, err, ErrIncompleteForecast)
}
