package view

import (
	"sort"
	"strings"
	"time"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/record"
)

// SortKey selects the ordering column for the derived view.
type SortKey string

const (
	SortAnnounce SortKey = "announce"
	SortMeet     SortKey = "meet"
	SortVehicle  SortKey = "vehicle"
	SortName     SortKey = "name"
	SortFrom     SortKey = "from"
	SortTo       SortKey = "to"
	SortStatus   SortKey = "status"
)

// StatusFilter selects the status-class subset of the view.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterActive    StatusFilter = "active"
	FilterSending   StatusFilter = "sending"
	FilterUpcoming  StatusFilter = "upcoming"
	FilterCompleted StatusFilter = "completed"
)

// DefaultUpcoming is how far ahead an announce time may lie for the record to
// count as upcoming.
const DefaultUpcoming = 5 * time.Minute

// Options captures one derivation request: sort, group, then filter.
type Options struct {
	Key      SortKey
	Desc     bool
	Filter   StatusFilter
	Query    string
	Upcoming time.Duration
}

// Apply derives the presentation list: stable sort by the selected key,
// re-linearize linked-trip groups, then apply the status-class filter and the
// free-text predicate. The input slice is not mutated.
func Apply(recs []record.Record, opts Options, now time.Time) []record.Record {
	out := make([]record.Record, len(recs))
	copy(out, recs)
	sortRecords(out, opts.Key, opts.Desc)
	out = Regroup(out)
	out = filterStatus(out, opts.Filter, now, opts.Upcoming)
	out = filterQuery(out, opts.Query)
	return out
}

func sortRecords(recs []record.Record, key SortKey, desc bool) {
	less := lessFunc(key)
	sort.SliceStable(recs, func(i, j int) bool {
		if desc {
			return less(recs[j], recs[i])
		}
		return less(recs[i], recs[j])
	})
}

func lessFunc(key SortKey) func(a, b record.Record) bool {
	switch key {
	case SortMeet:
		return func(a, b record.Record) bool {
			return timeKey(a.MeetTime, a.MeetOK) < timeKey(b.MeetTime, b.MeetOK)
		}
	case SortVehicle:
		return textLess(func(r record.Record) string { return r.VehicleID })
	case SortName:
		return textLess(func(r record.Record) string { return r.Name })
	case SortFrom:
		return textLess(func(r record.Record) string { return r.From })
	case SortTo:
		return textLess(func(r record.Record) string { return r.To })
	case SortStatus:
		return textLess(func(r record.Record) string { return r.Status })
	default:
		return func(a, b record.Record) bool {
			return timeKey(a.AnnounceTime, a.AnnounceOK) < timeKey(b.AnnounceTime, b.AnnounceOK)
		}
	}
}

// timeKey maps a missing time to +infinity so unparsed rows sort last.
func timeKey(t time.Time, ok bool) int64 {
	if !ok {
		return int64(^uint64(0) >> 1)
	}
	return t.UnixNano()
}

func textLess(get func(record.Record) string) func(a, b record.Record) bool {
	return func(a, b record.Record) bool {
		return strings.ToLower(get(a)) < strings.ToLower(get(b))
	}
}

// Regroup pulls every linked-trip group of two or more records adjacent, at
// the position of the group's first member in sort order, preserving each
// member's relative order. Ungrouped records and singleton groups keep their
// positions. Idempotent on an already grouped list.
func Regroup(recs []record.Record) []record.Record {
	counts := make(map[string]int)
	for _, r := range recs {
		if r.LinkedTripID != "" {
			counts[r.LinkedTripID]++
		}
	}
	emitted := make(map[string]bool)
	out := make([]record.Record, 0, len(recs))
	for i, r := range recs {
		id := r.LinkedTripID
		if id == "" || counts[id] < 2 {
			out = append(out, r)
			continue
		}
		if emitted[id] {
			continue
		}
		emitted[id] = true
		for _, member := range recs[i:] {
			if member.LinkedTripID == id {
				out = append(out, member)
			}
		}
	}
	return out
}

func filterStatus(recs []record.Record, f StatusFilter, now time.Time, upcoming time.Duration) []record.Record {
	if f == "" || f == FilterAll {
		return recs
	}
	if upcoming <= 0 {
		upcoming = DefaultUpcoming
	}
	out := recs[:0:0]
	for _, r := range recs {
		var keep bool
		switch f {
		case FilterActive:
			keep = !record.IsCompleted(r.Status)
		case FilterSending:
			keep = record.IsSending(r.Status)
		case FilterUpcoming:
			keep = isUpcoming(r, now, upcoming)
		case FilterCompleted:
			keep = record.IsCompleted(r.Status)
		default:
			keep = true
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

func isUpcoming(r record.Record, now time.Time, window time.Duration) bool {
	if !r.AnnounceOK {
		return false
	}
	d := r.AnnounceTime.Sub(now)
	return d > 0 && d <= window
}

// filterQuery keeps records where any searchable field contains the query.
// Matching is case-insensitive except for phone, which is compared as-is.
func filterQuery(recs []record.Record, query string) []record.Record {
	query = strings.TrimSpace(query)
	if query == "" {
		return recs
	}
	folded := strings.ToLower(query)
	out := recs[:0:0]
	for _, r := range recs {
		if matchesQuery(r, query, folded) {
			out = append(out, r)
		}
	}
	return out
}

func matchesQuery(r record.Record, query, folded string) bool {
	for _, f := range []string{
		r.VehicleID, r.Name, r.From, r.To, r.Status,
		r.MessageToVehicle, r.LinkedTripID, r.InvoiceRef,
	} {
		if strings.Contains(strings.ToLower(f), folded) {
			return true
		}
	}
	return strings.Contains(r.Phone, query)
}

// Counts are the aggregate counters exposed through the stats query and the
// badge events.
type Counts struct {
	Total     int `json:"total"`
	Sending   int `json:"sending"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
}

// Stats computes aggregate counters over the given record set.
func Stats(recs []record.Record, now time.Time, upcoming time.Duration) Counts {
	if upcoming <= 0 {
		upcoming = DefaultUpcoming
	}
	c := Counts{Total: len(recs)}
	for _, r := range recs {
		if record.IsSending(r.Status) {
			c.Sending++
		}
		if record.IsCompleted(r.Status) {
			c.Completed++
		}
		if isUpcoming(r, now, upcoming) {
			c.Upcoming++
		}
	}
	return c
}
