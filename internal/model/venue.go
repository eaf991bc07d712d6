package model

import "github.com/shopspring/decimal"

// VenueKind tags the venue variant. Kind-specific display text is a
// lookup keyed by the tag; venues carry no behaviour of their own.
type VenueKind string

const (
	Stadium    VenueKind = "Stadium"
	Arena      VenueKind = "Arena"
	Auditorium VenueKind = "Auditorium"
	OpenAir    VenueKind = "Open Air"
)

// venueKindText carries the display description per venue kind.
var venueKindText = map[VenueKind]string{
	Stadium:    "stadium with fixed tiered seating",
	Arena:      "indoor arena",
	Auditorium: "auditorium hall",
	OpenAir:    "open air grounds",
}

// Describe returns the human description for the venue kind.
func (k VenueKind) Describe() string {
	if t, ok := venueKindText[k]; ok {
		return t
	}
	return string(k)
}

// ParseVenueKind resolves a venue kind from its stored name.
func ParseVenueKind(s string) (VenueKind, bool) {
	for _, k := range []VenueKind{Stadium, Arena, Auditorium, OpenAir} {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Venue is the physical location owned 1:1 by an event.
//
// Fields:
//
//	Kind             – tagged venue variant.
//	Name             – venue display name.
//	Capacity         – total seats the venue can hold.
//	Cost             – cost of running the event at this venue.
//	SeatsUnavailable – seats out of service, informational only.
type Venue struct {
	Kind             VenueKind
	Name             string
	Capacity         int
	Cost             decimal.Decimal
	SeatsUnavailable int
}
