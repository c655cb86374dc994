// Package domain models the forecast SMS data: roster validation, measurement
// extraction from the feed document, and message rendering.
//
// # Feed Conventions
//
// Forecast documents come from the navifeed XML endpoint, one document per
// recipient coordinate pair. The document root's first child holds the
// forecast entries; each relevant entry is an "fc" node with attributes:
//
//	dt  timestamp, "2006-01-02 15:04" in feed-local notation
//	pr  precipitation amount, millimetres
//	pp  precipitation probability, fraction 0–1
//	t   temperature, °C
//	wn  wind direction, compass code (N, NE, ESE, ...)
//	ws  wind speed, m/s
//	rh  relative humidity, percent
//
// A day is read at four canonical slots: 00:00 night, 06:00 morning,
// 12:00 afternoon, 18:00 evening. The requested lookahead window is
// 72/6h/-24 for the daily formats and 96/12h/-12 for the four-day format,
// so every slot a format consumes is inside the fetched horizon.
//
// # Message Formats
//
// Recipients carry a format selector:
//
//	1  detailed daily digest for today: per-slot rain/temp/wind/humidity lines
//	2  qualitative outlook for tomorrow: probability and intensity bands
//	3  four-day summary: averaged afternoon/night precipitation per day
//
// The monthly memo is format-independent and consults no forecast data.
//
// All forecast-based messages are bounded to 160 characters by truncating the
// location prefix, never the body. See [PrefixWithLocation].
//
// # Phone Numbers
//
// Sender and recipient numbers are routable address strings: "+" followed by
// 11–13 digits. A malformed sender fails the whole batch before any job is
// staged; a malformed recipient fails validation of the roster.
package domain
