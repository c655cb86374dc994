package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// phoneRe matches a routable address: "+" followed by 11-13 digits.
var phoneRe = regexp.MustCompile(`^\+[0-9]{11,13}$`)

// Validation errors. All of them are detected before any job is staged and
// abort the whole invocation.
var (
	ErrInvalidSenderFormat    = errors.New("invalid sender number")
	ErrInvalidRecipientFormat = errors.New("invalid recipient number")
	ErrMissingField           = errors.New("missing recipient field")
	ErrNoSenderAvailable      = errors.New("no sender available")
)

// Format selects the rendering strategy for a recipient.
type Format int

const (
	FormatDailyDetailed Format = 1
	FormatQualitative   Format = 2
	FormatFourDay       Format = 3
)

// RawRecipient mirrors one entry of the roster JSON files. Coordinates are
// pointers so an absent field is distinguishable from an explicit zero
// (latitude 0 is a valid equatorial coordinate).
type RawRecipient struct {
	Number    string   `json:"number"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      string   `json:"name"`
	Language  string   `json:"language"`
	Format    *int     `json:"format"`
}

// Recipient is the canonical record after validation: normalized fields and a
// bound sender identity. Downstream components do not re-validate it.
type Recipient struct {
	Number    string
	Location  string
	Name      string
	Language  string
	Latitude  float64
	Longitude float64
	Format    Format
	Sender    string
}

// ValidPhone reports whether s matches the routable address pattern.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// ValidateSenders checks every sender identity in the pool. A single
// malformed sender fails the batch; no partial dispatch happens.
func ValidateSenders(senders []string) error {
	for _, s := range senders {
		if !phoneRe.MatchString(s) {
			return fmt.Errorf("%w: %q", ErrInvalidSenderFormat, s)
		}
	}
	return nil
}

// BuildRecipients validates and normalizes the raw roster, binding a sender
// to each recipient round-robin by input index. Input order is preserved.
func BuildRecipients(raw []RawRecipient, senders []string) ([]Recipient, error) {
	recipients := make([]Recipient, 0, len(raw))
	for i, r := range raw {
		rec, err := buildRecipient(r, senders, i)
		if err != nil {
			return nil, fmt.Errorf("recipient %d (%s): %w", i, r.Number, err)
		}
		recipients = append(recipients, rec)
	}
	return recipients, nil
}

func buildRecipient(r RawRecipient, senders []string, index int) (Recipient, error) {
	switch {
	case strings.TrimSpace(r.Location) == "":
		return Recipient{}, fmt.Errorf("%w: location", ErrMissingField)
	case strings.TrimSpace(r.Number) == "":
		return Recipient{}, fmt.Errorf("%w: number", ErrMissingField)
	case r.Latitude == nil:
		return Recipient{}, fmt.Errorf("%w: latitude", ErrMissingField)
	case r.Longitude == nil:
		return Recipient{}, fmt.Errorf("%w: longitude", ErrMissingField)
	}
	if !phoneRe.MatchString(r.Number) {
		return Recipient{}, fmt.Errorf("%w: %q", ErrInvalidRecipientFormat, r.Number)
	}
	if len(senders) == 0 {
		return Recipient{}, ErrNoSenderAvailable
	}

	name := r.Name
	if name == "" {
		name = "Unnamed"
	}
	language := strings.TrimSpace(r.Language)
	if language == "" {
		language = "en"
	}

	format := FormatDailyDetailed
	if r.Format != nil {
		format = Format(*r.Format)
		if format < FormatDailyDetailed || format > FormatFourDay {
			return Recipient{}, fmt.Errorf("%w: unsupported format %d", ErrInvalidRecipientFormat, *r.Format)
		}
	}

	return Recipient{
		Number:    r.Number,
		Location:  strings.TrimSpace(strings.ToUpper(r.Location)),
		Name:      strings.TrimSpace(strings.ToUpper(name)),
		Language:  language,
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Format:    format,
		Sender:    senders[index%len(senders)],
	}, nil
}
