package domain

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical time-of-day slots of a forecast day.
const (
	SlotNight     = "00:00"
	SlotMorning   = "06:00"
	SlotAfternoon = "12:00"
	SlotEvening   = "18:00"
)

const dateLayout = "2006-01-02"

// ErrIncompleteForecast marks a document that lacks a slot required by the
// recipient's rendering format.
var ErrIncompleteForecast = errors.New("incomplete forecast")

// Measurement is one point-in-time weather reading. Immutable once parsed.
type Measurement struct {
	At        string  // feed timestamp, "2006-01-02 15:04"
	Rain      float64 // pr, mm
	RainProb  float64 // pp, fraction 0-1
	Temp      float64 // t, °C
	WindDir   string  // wn, compass code
	WindSpeed float64 // ws, m/s
	Humidity  float64 // rh, percent
}

// ForecastDocument is the ordered measurement sequence for one recipient's
// coordinates. Owned by a single job; never cached or shared.
type ForecastDocument struct {
	Measurements []Measurement
}

// DaySlots holds the four canonical readings for one date. Slots not required
// by the active format may be zero-valued.
type DaySlots struct {
	Night     Measurement
	Morning   Measurement
	Afternoon Measurement
	Evening   Measurement
}

// xmlNode is a generic element of the loosely hierarchical feed document.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
}

// ParseForecast reads a feed document. Forecast entries live under the root's
// first child; every "fc" node there becomes a Measurement, other nodes are
// structural and skipped.
func ParseForecast(body []byte) (ForecastDocument, error) {
	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return ForecastDocument{}, fmt.Errorf("parse forecast document: %w", err)
	}
	if len(root.Children) == 0 {
		return ForecastDocument{}, nil
	}

	nodes := root.Children[0].Children
	measurements := make([]Measurement, 0, len(nodes))
	for _, n := range nodes {
		if n.XMLName.Local != "fc" {
			continue
		}
		measurements = append(measurements, measurementFromAttrs(n.Attrs))
	}
	return ForecastDocument{Measurements: measurements}, nil
}

func measurementFromAttrs(attrs []xml.Attr) Measurement {
	var m Measurement
	for _, a := range attrs {
		switch a.Name.Local {
		case "dt":
			m.At = a.Value
		case "pr":
			m.Rain = parseFloatOrZero(a.Value)
		case "pp":
			m.RainProb = parseFloatOrZero(a.Value)
		case "t":
			m.Temp = parseFloatOrZero(a.Value)
		case "wn":
			m.WindDir = strings.TrimSpace(a.Value)
		case "ws":
			m.WindSpeed = parseFloatOrZero(a.Value)
		case "rh":
			m.Humidity = parseFloatOrZero(a.Value)
		}
	}
	return m
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// MeasurementAt returns the first entry matching the date and time-of-day
// slot. An empty slot defaults to 00:00.
func (d ForecastDocument) MeasurementAt(date time.Time, slot string) (Measurement, bool) {
	if slot == "" {
		slot = SlotNight
	}
	key := date.Format(dateLayout) + " " + slot
	for _, m := range d.Measurements {
		if m.At == key {
			return m, true
		}
	}
	return Measurement{}, false
}

// SlotsForDate extracts the canonical slots for one date. Only the slots the
// format renders must be present: the detailed daily format reads morning,
// afternoon and evening; the qualitative format reads all four; the four-day
// format is fetched at a 12h step, so only night and afternoon exist.
func (d ForecastDocument) SlotsForDate(date time.Time, format Format) (DaySlots, error) {
	var slots DaySlots
	var missing []string

	take := func(slot string, dst *Measurement, required bool) {
		m, ok := d.MeasurementAt(date, slot)
		if ok {
			*dst = m
			return
		}
		if required {
			missing = append(missing, slot)
		}
	}

	take(SlotNight, &slots.Night, format != FormatDailyDetailed)
	take(SlotMorning, &slots.Morning, format != FormatFourDay)
	take(SlotAfternoon, &slots.Afternoon, true)
	take(SlotEvening, &slots.Evening, format != FormatFourDay)

	if len(missing) > 0 {
		return DaySlots{}, fmt.Errorf("%w: no %s entry for %s",
			ErrIncompleteForecast, strings.Join(missing, ", "), date.Format(dateLayout))
	}
	return slots, nil
}
