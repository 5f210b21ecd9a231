// Package scheduling talks to the Cal.com scheduling provider and shapes
// candidate appointment slots for the voice flow.
package scheduling

import "time"

// SlotOffer is one candidate appointment time. Date and DisplayTime are in
// the clinic's local zone for speech; Start is the provider's timestamp and
// is passed back verbatim when booking. Slots are fetched fresh for every
// booking attempt because availability is volatile.
type SlotOffer struct {
	Date        string `json:"date"`         // local calendar date, 2006-01-02
	DisplayTime string `json:"display_time"` // local clock time, e.g. "10:00 AM"
	Start       string `json:"start"`        // opaque provider timestamp (UTC RFC3339)
}

// BookingRequest carries the attendee details for a booking call.
type BookingRequest struct {
	Name  string
	Email string
	Phone string
	Start string // SlotOffer.Start, verbatim
}

// FallbackSlots returns two deterministic next-day slots at 10:00 AM and
// 2:00 PM clinic time. They stand in when the provider is unreachable so a
// transient outage never turns into "no slots" for the caller.
func FallbackSlots(now time.Time, loc *time.Location) []SlotOffer {
	tomorrow := now.In(loc).AddDate(0, 0, 1)

	morning := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, loc)
	afternoon := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 14, 0, 0, 0, loc)

	return []SlotOffer{
		{
			Date:        morning.Format("2006-01-02"),
			DisplayTime: "10:00 AM",
			Start:       morning.UTC().Format("2006-01-02T15:04:05Z"),
		},
		{
			Date:        afternoon.Format("2006-01-02"),
			DisplayTime: "2:00 PM",
			Start:       afternoon.UTC().Format("2006-01-02T15:04:05Z"),
		},
	}
}
