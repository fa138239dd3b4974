package record

import (
	"strings"
	"time"
)

// Record is one normalized dispatch entry. String fields default to "" when
// the source column is absent or unmapped; parsed times carry an OK flag
// because the raw text is frequently not a timestamp at all.
type Record struct {
	InvoiceRef         string `json:"invoice_ref"`
	Requester          string `json:"requester"`
	VehicleID          string `json:"vehicle_id"`
	Status             string `json:"status"`
	AnnounceRaw        string `json:"announce_raw"`
	MeetRaw            string `json:"meet_raw"`
	ProcessingDuration string `json:"processing_duration"`
	From               string `json:"from"`
	To                 string `json:"to"`
	Name               string `json:"name"`
	MessageToVehicle   string `json:"message_to_vehicle"`
	PaymentMethod      string `json:"payment_method"`
	Reference          string `json:"reference"`
	LinkedTripID       string `json:"linked_trip_id"`
	Phone              string `json:"phone"`
	Attribute          string `json:"attribute"`
	TripID             string `json:"trip_id"`

	AnnounceTime time.Time `json:"announce_time"`
	AnnounceOK   bool      `json:"announce_ok"`
	MeetTime     time.Time `json:"meet_time"`
	MeetOK       bool      `json:"meet_ok"`
}

// ID derives the stable identity used for diffing, alert deduplication and
// grouping lookups. It is a pure function of the raw field values: trip id
// wins, then invoice reference, then a pipe-joined composite of the fields
// that together identify a trip in practice.
func (r Record) ID() string {
	if r.TripID != "" {
		return r.TripID
	}
	if r.InvoiceRef != "" {
		return r.InvoiceRef
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{r.AnnounceRaw, r.VehicleID, r.From, r.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "|")
}

// StatusSending is the portal's "currently being dispatched" status. It is
// the highest-urgency state and drives the sustained reminder alert.
const StatusSending = "UNDER SENDING"

// completedStatuses is the fixed subset of the portal's status taxonomy that
// means the trip is finished or settled. Membership is a set lookup; no
// attempt is made to interpret unknown statuses.
var completedStatuses = map[string]struct{}{
	"UTFØRT":    {},
	"UTFORT":    {},
	"FERDIG":    {},
	"BETALT":    {},
	"INNLEST":   {},
	"MAKULERT":  {},
	"BOMTUR":    {},
	"AVSLUTTET": {},
}

// IsCompleted reports whether the status belongs to the completed subset.
func IsCompleted(status string) bool {
	_, ok := completedStatuses[strings.ToUpper(strings.TrimSpace(status))]
	return ok
}

// IsSending reports whether the status is the under-sending state.
func IsSending(status string) bool {
	return strings.ToUpper(strings.TrimSpace(status)) == StatusSending
}

// Set is the authoritative snapshot produced by one normalization pass,
// together with the parse diagnostics for that pass.
type Set struct {
	Records []Record    `json:"records"`
	Diag    Diagnostics `json:"diagnostics"`
}

// Signature is a cheap, order-sensitive change signature over ids and
// statuses. Two passes over identical source content produce equal signatures.
func (s Set) Signature() string {
	var b strings.Builder
	for _, r := range s.Records {
		b.WriteString(r.ID())
		b.WriteString("=")
		b.WriteString(r.Status)
		b.WriteString(";")
	}
	return b.String()
}

// IDs returns the set of record identities in the snapshot.
func (s Set) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Records))
	for _, r := range s.Records {
		ids[r.ID()] = struct{}{}
	}
	return ids
}
