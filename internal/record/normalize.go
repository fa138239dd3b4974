package record

import (
	"strings"
	"time"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/timeparse"
)

const (
	// DefaultWindow is the symmetric relevance window around "now"; rows
	// whose parsed meet time falls outside it are dropped at normalization.
	DefaultWindow = 24 * time.Hour

	minCells   = 2
	maxSamples = 3
)

// SampleRow captures one raw row with its parsed time values for debugging.
type SampleRow struct {
	Cells       []string `json:"cells"`
	AnnounceRaw string   `json:"announce_raw"`
	MeetRaw     string   `json:"meet_raw"`
	MeetParsed  bool     `json:"meet_parsed"`
	InWindow    bool     `json:"in_window"`
}

// Diagnostics is the structured side-channel emitted alongside every
// normalization pass.
type Diagnostics struct {
	ColumnsMapped    int         `json:"columns_mapped"`
	TotalRows        int         `json:"total_rows"`
	ParsedRows       int         `json:"parsed_rows"`
	SkippedEmpty     int         `json:"skipped_empty"`
	SkippedFewCells  int         `json:"skipped_few_cells"`
	FilteredByWindow int         `json:"filtered_by_window"`
	RawHeaders       []string    `json:"raw_headers"`
	Samples          []SampleRow `json:"samples"`
}

// Normalize converts raw data rows into a Set using the header mapping. The
// reference time anchors bare clock values and the relevance window; window
// <= 0 falls back to DefaultWindow. Rows with an unparseable meet time are
// always kept: an unknown time is not evidence of staleness.
func Normalize(headers []string, rows [][]string, now time.Time, window time.Duration) Set {
	if window <= 0 {
		window = DefaultWindow
	}
	mapping := MapHeaders(headers)
	set := Set{
		Diag: Diagnostics{
			ColumnsMapped: len(mapping.Columns),
			TotalRows:     len(rows),
			RawHeaders:    mapping.RawHeaders,
		},
	}

	for _, row := range rows {
		if len(row) < minCells {
			set.Diag.SkippedFewCells++
			continue
		}
		r := Record{
			InvoiceRef:         mapping.Cell(row, FieldInvoiceRef),
			Requester:          mapping.Cell(row, FieldRequester),
			VehicleID:          mapping.Cell(row, FieldVehicleID),
			Status:             strings.ToUpper(mapping.Cell(row, FieldStatus)),
			AnnounceRaw:        mapping.Cell(row, FieldAnnounce),
			MeetRaw:            mapping.Cell(row, FieldMeet),
			ProcessingDuration: mapping.Cell(row, FieldProcessingDuration),
			From:               mapping.Cell(row, FieldFrom),
			To:                 mapping.Cell(row, FieldTo),
			Name:               mapping.Cell(row, FieldName),
			MessageToVehicle:   mapping.Cell(row, FieldMessageToVehicle),
			PaymentMethod:      mapping.Cell(row, FieldPaymentMethod),
			Reference:          mapping.Cell(row, FieldReference),
			LinkedTripID:       mapping.Cell(row, FieldLinkedTripID),
			Phone:              mapping.Cell(row, FieldPhone),
			Attribute:          mapping.Cell(row, FieldAttribute),
			TripID:             mapping.Cell(row, FieldTripID),
		}
		if isEmptyRow(r) {
			set.Diag.SkippedEmpty++
			continue
		}
		r.AnnounceTime, r.AnnounceOK = timeparse.Parse(r.AnnounceRaw, now)
		r.MeetTime, r.MeetOK = timeparse.Parse(r.MeetRaw, now)

		inWindow := !r.MeetOK || withinWindow(r.MeetTime, now, window)
		if len(set.Diag.Samples) < maxSamples {
			set.Diag.Samples = append(set.Diag.Samples, SampleRow{
				Cells:       append([]string(nil), row...),
				AnnounceRaw: r.AnnounceRaw,
				MeetRaw:     r.MeetRaw,
				MeetParsed:  r.MeetOK,
				InWindow:    inWindow,
			})
		}
		if !inWindow {
			set.Diag.FilteredByWindow++
			continue
		}
		set.Records = append(set.Records, r)
		set.Diag.ParsedRows++
	}
	return set
}

// isEmptyRow reports a row carrying no usable content: announce, meet,
// status, vehicle, origin and name all blank.
func isEmptyRow(r Record) bool {
	return r.AnnounceRaw == "" && r.MeetRaw == "" && r.Status == "" &&
		r.VehicleID == "" && r.From == "" && r.Name == ""
}

func withinWindow(t, now time.Time, window time.Duration) bool {
	d := t.Sub(now)
	if d < 0 {
		d = -d
	}
	return d <= window
}
