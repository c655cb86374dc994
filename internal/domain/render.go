package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kukua/saro-sms/internal/i18n"
)

// maxMessageLen is the hard SMS body budget. Messages never exceed it; the
// location prefix is what gives way.
const maxMessageLen = 160

// PrefixWithLocation joins location and body with separator. When the result
// would exceed the 160-character budget the location is truncated on a rune
// boundary and closed with a period; the body is never cut.
func PrefixWithLocation(location, body, separator string) string {
	if len(location)+len(separator)+len(body) <= maxMessageLen {
		return location + separator + body
	}
	keep := maxMessageLen - len(separator) - len(body) - 1
	if keep < 0 {
		keep = 0
	}
	if keep > len(location) {
		keep = len(location)
	}
	for keep > 0 && keep < len(location) && !utf8.RuneStart(location[keep]) {
		keep--
	}
	return location[:keep] + "." + separator + body
}

// probability maps a precipitation probability fraction to its band.
func probability(pp float64) string {
	switch {
	case math.IsNaN(pp) || pp < 0:
		return "unknown"
	case pp <= 0.10:
		return "no"
	case pp <= 0.50:
		return "small"
	default:
		return "high"
	}
}

// intensity maps a precipitation amount in mm to its band.
func intensity(mm float64) string {
	switch {
	case math.IsNaN(mm):
		return "unknown"
	case mm <= 0:
		return "no"
	case mm <= 10:
		return "light"
	default:
		return "heavy"
	}
}

// RenderDailyDetailed builds the format-1 message: a date line and one
// detailed line each for morning, afternoon and evening of the given date.
func RenderDailyDetailed(location string, date time.Time, slots DaySlots) string {
	body := strings.Join([]string{
		date.Format("Jan 2"),
		detailLine("Morn", slots.Morning),
		detailLine("Aft", slots.Afternoon),
		detailLine("Eve", slots.Evening),
	}, "\n")
	return PrefixWithLocation(location, body, " ")
}

func detailLine(prefix string, m Measurement) string {
	return fmt.Sprintf("%s rain %dmm %s%% temp %sC wind %s %dkmh hum %s%%",
		prefix,
		ceilInt(m.Rain),
		formatNum(m.RainProb),
		formatNum(m.Temp),
		m.WindDir,
		int(math.Round(m.WindSpeed*3.6)),
		formatNum(m.Humidity),
	)
}

// RenderQualitative builds the format-2 message: the translated day-of-week
// and a banded outlook line for each of the four slots of the given date.
func RenderQualitative(location, lang string, date time.Time, slots DaySlots) string {
	body := strings.Join([]string{
		i18n.T(lang, date.Format("Monday")),
		qualitativeLine("Night", slots.Night),
		qualitativeLine("Morning", slots.Morning),
		qualitativeLine("Afternoon", slots.Afternoon),
		qualitativeLine("Evening", slots.Evening),
	}, "\n")
	return PrefixWithLocation(location, body, " ")
}

func qualitativeLine(prefix string, m Measurement) string {
	return fmt.Sprintf("%s %s chance %s rain.", prefix, probability(m.RainProb), intensity(m.Rain))
}

// RenderFourDay builds the format-3 message: one chunk per day starting at
// start, each combining afternoon and night precipitation. The leading day
// carries translated Afternoon/Night labels with its temperatures, later
// days bare temperatures.
func RenderFourDay(location, lang string, start time.Time, days []DaySlots) string {
	chunks := make([]string, 0, len(days))
	for i, day := range days {
		date := start.AddDate(0, 0, i)
		name := i18n.T(lang, date.Format("Monday"))
		line := fourDayLine(day.Afternoon, day.Night)

		if i == 0 {
			chunks = append(chunks, fmt.Sprintf("%s:%s %s %sC %s %sC",
				name, line,
				i18n.T(lang, "Afternoon"), formatNum(day.Afternoon.Temp),
				i18n.T(lang, "Night"), formatNum(day.Night.Temp)))
			continue
		}
		chunks = append(chunks, fmt.Sprintf("%s:%s %sC %sC",
			name, line, formatNum(day.Afternoon.Temp), formatNum(day.Night.Temp)))
	}
	return PrefixWithLocation(location, strings.Join(chunks, " "), ", ")
}

// fourDayLine averages the ceilings of the afternoon and night readings.
// Millimetres average with integer division; the probability fraction is
// scaled to percent before the ceiling.
func fourDayLine(afternoon, night Measurement) string {
	mm := (ceilInt(afternoon.Rain) + ceilInt(night.Rain)) / 2
	pct := (ceilInt(afternoon.RainProb*100) + ceilInt(night.RainProb*100)) / 2
	return fmt.Sprintf("%dmm %d%%", mm, pct)
}

// RenderMonthlyMemo builds the fixed correction-notice memo. It consults no
// forecast data; contact is the number recipients reply to with corrections.
func RenderMonthlyMemo(location, contact string) string {
	return fmt.Sprintf("Unapokea ujumbe wa %s ambalo lina mvua na uwezekano, "+
		"joto la juu na la chini. Ikiwa haya si sahihi tafadhali ujumbe %s",
		location, contact)
}

func ceilInt(f float64) int {
	return int(math.Ceil(f))
}

// formatNum renders a feed value the way it arrived: no trailing zeros, no
// forced precision.
func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
