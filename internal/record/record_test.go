package record

import (
	"testing"
	"time"
)

func TestIDPrecedence(t *testing.T) {
	r := Record{TripID: "T9", InvoiceRef: "B1", AnnounceRaw: "14:05", VehicleID: "12"}
	if got := r.ID(); got != "T9" {
		t.Fatalf("trip id should win, got %q", got)
	}
	r.TripID = ""
	if got := r.ID(); got != "B1" {
		t.Fatalf("invoice ref should win next, got %q", got)
	}
	r.InvoiceRef = ""
	if got := r.ID(); got != "14:05|12" {
		t.Fatalf("composite id wrong: %q", got)
	}
}

func TestIDIsDeterministic(t *testing.T) {
	a := Record{AnnounceRaw: "14:05", VehicleID: "12", From: "Main St", Name: "Ola"}
	b := Record{AnnounceRaw: "14:05", VehicleID: "12", From: "Main St", Name: "Ola"}
	if a.ID() != b.ID() {
		t.Fatalf("identical field values must yield identical ids: %q vs %q", a.ID(), b.ID())
	}
	if a.ID() != "14:05|12|Main St|Ola" {
		t.Fatalf("unexpected composite: %q", a.ID())
	}
}

func TestStatusClassification(t *testing.T) {
	for _, s := range []string{"UTFØRT", "betalt", " Bomtur ", "MAKULERT"} {
		if !IsCompleted(s) {
			t.Fatalf("%q should be completed", s)
		}
	}
	if IsCompleted("UNDER SENDING") || IsCompleted("MANUELL") || IsCompleted("") {
		t.Fatalf("non-completed status classified as completed")
	}
	if !IsSending("under sending") {
		t.Fatalf("sending status not recognized case-insensitively")
	}
	if IsSending("UTFØRT") {
		t.Fatalf("completed status classified as sending")
	}
}

func TestSignatureStableAcrossPasses(t *testing.T) {
	mk := func() Set {
		return Set{Records: []Record{
			{TripID: "1", Status: "TILDELT"},
			{TripID: "2", Status: "UNDER SENDING"},
		}}
	}
	if mk().Signature() != mk().Signature() {
		t.Fatalf("signatures differ for identical content")
	}
	changed := mk()
	changed.Records[1].Status = "UTFØRT"
	if changed.Signature() == mk().Signature() {
		t.Fatalf("status change must alter signature")
	}
	reordered := Set{Records: []Record{mk().Records[1], mk().Records[0]}}
	if reordered.Signature() == mk().Signature() {
		t.Fatalf("signature must be order-sensitive")
	}
}

func TestNormalizeScenario(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	headers := []string{"TAXI", "STATUS", "UTROP", "FRA"}
	rows := [][]string{{"12", "UNDER SENDING", "14:05", "Main St"}}

	set := Normalize(headers, rows, now, 0)
	if len(set.Records) != 1 {
		t.Fatalf("expected 1 record, got %d (diag %+v)", len(set.Records), set.Diag)
	}
	r := set.Records[0]
	if r.VehicleID != "12" || r.Status != "UNDER SENDING" || r.AnnounceRaw != "14:05" || r.From != "Main St" {
		t.Fatalf("mapped fields wrong: %+v", r)
	}
	if !r.AnnounceOK {
		t.Fatalf("announce time should parse")
	}
	want := time.Date(2026, 3, 14, 14, 5, 0, 0, time.Local)
	if !r.AnnounceTime.Equal(want) {
		t.Fatalf("announce time = %v, want %v", r.AnnounceTime, want)
	}
	if !IsSending(r.Status) || IsCompleted(r.Status) {
		t.Fatalf("status classes wrong for %q", r.Status)
	}
}

func TestNormalizeWindowFilter(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	headers := []string{"TAXI", "STATUS", "OPPMØTE"}
	stamp := func(t time.Time) string { return t.Format("2006-01-02 15:04") }

	rows := [][]string{
		{"1", "TILDELT", stamp(now.Add(-25 * time.Hour))}, // outside
		{"2", "TILDELT", stamp(now.Add(-23 * time.Hour))}, // inside
		{"3", "TILDELT", "snart"},                         // unparseable, fail open
	}
	set := Normalize(headers, rows, now, 0)
	if len(set.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(set.Records))
	}
	if set.Records[0].VehicleID != "2" || set.Records[1].VehicleID != "3" {
		t.Fatalf("wrong rows survived the window: %+v", set.Records)
	}
	if set.Diag.FilteredByWindow != 1 {
		t.Fatalf("filtered count = %d, want 1", set.Diag.FilteredByWindow)
	}
}

func TestNormalizeRowDefects(t *testing.T) {
	now := time.Now()
	headers := []string{"TAXI", "STATUS", "UTROP"}
	rows := [][]string{
		{"lone"},             // few cells
		{"", "", ""},         // fully empty
		{"7", "MANUELL", ""}, // kept
	}
	set := Normalize(headers, rows, now, 0)
	if set.Diag.SkippedFewCells != 1 || set.Diag.SkippedEmpty != 1 {
		t.Fatalf("defect counts wrong: %+v", set.Diag)
	}
	if len(set.Records) != 1 || set.Records[0].VehicleID != "7" {
		t.Fatalf("expected the one usable row, got %+v", set.Records)
	}
	if set.Diag.TotalRows != 3 || set.Diag.ParsedRows != 1 {
		t.Fatalf("row accounting wrong: %+v", set.Diag)
	}
}

func TestNormalizeSamplesCapped(t *testing.T) {
	now := time.Now()
	headers := []string{"TAXI", "STATUS"}
	var rows [][]string
	for i := 0; i < 6; i++ {
		rows = append(rows, []string{"v", "TILDELT"})
	}
	set := Normalize(headers, rows, now, 0)
	if len(set.Diag.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(set.Diag.Samples))
	}
}
