package record

import "testing"

func TestMapHeadersExactBeforeSubstring(t *testing.T) {
	// "UTROP KL" only substring-matches; the exact "UTROP" further right must
	// win the announce field before the substring pass runs at all.
	m := MapHeaders([]string{"UTROP KL", "STATUS", "UTROP"})
	if m.Columns[FieldAnnounce] != 2 {
		t.Fatalf("announce mapped to column %d, want 2", m.Columns[FieldAnnounce])
	}
	if m.Columns[FieldStatus] != 1 {
		t.Fatalf("status mapped to column %d, want 1", m.Columns[FieldStatus])
	}
}

func TestMapHeadersAccentVariants(t *testing.T) {
	for _, h := range []string{"OPPMØTE", "oppmote", " Oppmøte "} {
		m := MapHeaders([]string{h})
		if idx, ok := m.Columns[FieldMeet]; !ok || idx != 0 {
			t.Fatalf("header %q did not map to meet field: %+v", h, m.Columns)
		}
	}
}

func TestMapHeadersLinkedTripNotStolenByTripID(t *testing.T) {
	m := MapHeaders([]string{"ALTTURID", "TURID"})
	if m.Columns[FieldLinkedTripID] != 0 {
		t.Fatalf("linked trip id mapped to %d, want 0", m.Columns[FieldLinkedTripID])
	}
	if m.Columns[FieldTripID] != 1 {
		t.Fatalf("trip id mapped to %d, want 1", m.Columns[FieldTripID])
	}
}

func TestMapHeadersSubstringDoesNotClaimExactColumn(t *testing.T) {
	// Only ALTTURID present: its column is consumed by the exact match and
	// must not also feed the trip-id field by containment.
	m := MapHeaders([]string{"ALTTURID", "STATUS"})
	if _, ok := m.Columns[FieldTripID]; ok {
		t.Fatalf("trip id should stay unmapped, got %+v", m.Columns)
	}
}

func TestMapHeadersSubstringContainment(t *testing.T) {
	m := MapHeaders([]string{"TAXI NR", "STATUSKODE", "MELDING TIL BIL (SMS)"})
	if m.Columns[FieldVehicleID] != 0 {
		t.Fatalf("vehicle id not matched by containment: %+v", m.Columns)
	}
	if m.Columns[FieldStatus] != 1 {
		t.Fatalf("status not matched by containment: %+v", m.Columns)
	}
	if m.Columns[FieldMessageToVehicle] != 2 {
		t.Fatalf("message-to-vehicle not matched: %+v", m.Columns)
	}
}

func TestMapHeadersUnknownIgnoredAndDiagnostics(t *testing.T) {
	raw := []string{"WHATEVER", "TAXI", ""}
	m := MapHeaders(raw)
	if len(m.Columns) != 1 {
		t.Fatalf("expected only vehicle id mapped, got %+v", m.Columns)
	}
	if len(m.RawHeaders) != 3 || m.RawHeaders[0] != "WHATEVER" {
		t.Fatalf("raw headers not preserved: %v", m.RawHeaders)
	}
}

func TestCellOutOfRange(t *testing.T) {
	m := MapHeaders([]string{"TAXI", "STATUS", "FRA"})
	row := []string{"12", "TILDELT"}
	if got := m.Cell(row, FieldFrom); got != "" {
		t.Fatalf("short row should read empty, got %q", got)
	}
	if got := m.Cell(row, FieldVehicleID); got != "12" {
		t.Fatalf("cell read wrong: %q", got)
	}
}
