// README: Dispatch request and decision types. Both are ephemeral; nothing
// here is ever persisted.
package dispatch

import (
	"time"

	"fieldops/internal/types"
)

// Request is an inbound ask: who can take this job, here, at this time.
type Request struct {
	ServiceType string
	Job         types.Point
	RequestedAt time.Time
}

// Reason distinguishes why no technician could be offered. An empty skill
// pool and an all-out-of-range pool must stay distinguishable to callers.
type Reason string

const (
	ReasonNoTechnicians Reason = "no_technicians"
	ReasonOutOfRange    Reason = "out_of_range"
)

// RankedTechnician is the winning candidate of a dispatch computation.
// DistanceMiles carries full precision; rounding happens only at the
// response boundary.
type RankedTechnician struct {
	ID            int64
	Name          string
	DistanceMiles float64
}

type Decision struct {
	Available    bool
	Reason       Reason
	Technician   *RankedTechnician
	TimeSlot     time.Time
	Alternatives []time.Time
}

// candidate is a technician that survived skill and radius filtering.
type candidate struct {
	id        int64
	name      string
	distance  float64
	available bool
}

const (
	rfc3339NoZone = "2006-01-02T15:04:05"
)

// ParseInstant reads an ISO-8601 instant. Timezone-aware values are converted
// to UTC; naive values (no offset) are interpreted as UTC directly. All
// schedule comparisons inside the engine happen in UTC, so mixing aware and
// naive inputs cannot skew results.
func ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(rfc3339NoZone, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
