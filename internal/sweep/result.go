package sweep

import (
	"fmt"
	"time"
)

// Outcome is a terminal per-subscriber state for one sweep.
type Outcome string

const (
	OutcomeInvalidLocation  Outcome = "skipped_invalid_location"
	OutcomeInvalidZone      Outcome = "skipped_invalid_zone"
	OutcomeAlreadySent      Outcome = "skipped_already_sent"
	OutcomeResolutionFailed Outcome = "skipped_resolution_failed"
	OutcomeOutOfWindow      Outcome = "skipped_out_of_window"
	OutcomeDelivered        Outcome = "delivered"
	OutcomeTransientFailure Outcome = "delivery_failed_transient"
	OutcomeRemoved          Outcome = "subscriber_removed"
)

// Result tracks per-outcome counts and errors from one sweep.
type Result struct {
	Subscribers      int
	Delivered        int
	Removed          int
	TransientFailed  int
	AlreadySent      int
	OutOfWindow      int
	InvalidLocation  int
	InvalidZone      int
	ResolutionFailed int
	Errors           []string
	Duration         time.Duration
}

// record tallies one terminal outcome.
func (r *Result) record(o Outcome) {
	switch o {
	case OutcomeDelivered:
		r.Delivered++
	case OutcomeRemoved:
		r.Removed++
	case OutcomeTransientFailure:
		r.TransientFailed++
	case OutcomeAlreadySent:
		r.AlreadySent++
	case OutcomeOutOfWindow:
		r.OutOfWindow++
	case OutcomeInvalidLocation:
		r.InvalidLocation++
	case OutcomeInvalidZone:
		r.InvalidZone++
	case OutcomeResolutionFailed:
		r.ResolutionFailed++
	}
}

// Summary returns a human-readable summary of the sweep.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"subscribers=%d delivered=%d removed=%d transient_failed=%d already_sent=%d out_of_window=%d invalid_location=%d invalid_zone=%d resolution_failed=%d errors=%d",
		r.Subscribers, r.Delivered, r.Removed, r.TransientFailed,
		r.AlreadySent, r.OutOfWindow,
		r.InvalidLocation, r.InvalidZone, r.ResolutionFailed,
		len(r.Errors),
	)
}
