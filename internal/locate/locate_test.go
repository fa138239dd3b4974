package locate

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/source"
)

func parseDoc(t *testing.T, markup string) *source.Document {
	t.Helper()
	node, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return &source.Document{Ref: "test.html", Root: node}
}

func TestFindMatchesHeaderKeywords(t *testing.T) {
	doc := parseDoc(t, `<table>
		<thead><tr><th>TAXI</th><th>STATUS</th><th>UTROP</th><th>FRA</th></tr></thead>
		<tbody><tr><td>12</td><td>UNDER SENDING</td><td>14:05</td><td>Main St</td></tr></tbody>
	</table>`)
	tbl, ok := Find([]*source.Document{doc})
	if !ok {
		t.Fatalf("expected a match")
	}
	if len(tbl.Headers) != 4 || tbl.Headers[0] != "TAXI" {
		t.Fatalf("headers wrong: %v", tbl.Headers)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][3] != "Main St" {
		t.Fatalf("rows wrong: %v", tbl.Rows)
	}
}

func TestFindRequiresKeywordCombination(t *testing.T) {
	// Vehicle + time but no status column: not the dispatch table.
	doc := parseDoc(t, `<table><tr><th>TAXI</th><th>UTROP</th></tr><tr><td>1</td><td>10:00</td></tr></table>`)
	if _, ok := Find([]*source.Document{doc}); ok {
		t.Fatalf("combination should not match without a status keyword")
	}
	// Vehicle + status + origin matches even without a time column.
	doc = parseDoc(t, `<table><tr><th>BIL</th><th>STATUS</th><th>FRA</th></tr></table>`)
	if _, ok := Find([]*source.Document{doc}); !ok {
		t.Fatalf("vehicle+status+origin should match")
	}
}

func TestFindSkipsReservedOutputTable(t *testing.T) {
	doc := parseDoc(t, `
	<table id="`+ReservedTableID+`"><tr><th>TAXI</th><th>STATUS</th><th>UTROP</th></tr></table>
	<table><tr><th>TAXI</th><th>STATUS</th><th>OPPMØTE</th></tr><tr><td>5</td><td>TILDELT</td><td>09:00</td></tr></table>`)
	tbl, ok := Find([]*source.Document{doc})
	if !ok {
		t.Fatalf("expected the second table to match")
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][0] != "5" {
		t.Fatalf("wrong table selected: %+v", tbl)
	}
}

func TestFindFirstDocumentFirstTableWins(t *testing.T) {
	a := parseDoc(t, `<table><tr><th>TAXI</th><th>STATUS</th><th>UTROP</th></tr><tr><td>first</td><td>x</td><td>y</td></tr></table>`)
	b := parseDoc(t, `<table><tr><th>TAXI</th><th>STATUS</th><th>UTROP</th></tr><tr><td>second</td><td>x</td><td>y</td></tr></table>`)
	tbl, ok := Find([]*source.Document{a, b})
	if !ok || tbl.Rows[0][0] != "first" {
		t.Fatalf("first document should win: %+v", tbl)
	}
}

func TestHeaderRowFallbacks(t *testing.T) {
	// No thead, no th: first row whose text matches the combination becomes
	// the header; rows above it are not data.
	doc := parseDoc(t, `<table>
		<tr><td>Oversikt</td><td></td><td></td></tr>
		<tr><td>TAXI</td><td>STATUS</td><td>UTROP</td></tr>
		<tr><td>7</td><td>MANUELL</td><td>11:30</td></tr>
	</table>`)
	tbl, ok := Find([]*source.Document{doc})
	if !ok {
		t.Fatalf("expected match")
	}
	if tbl.Headers[0] != "TAXI" {
		t.Fatalf("header row not resolved by text match: %v", tbl.Headers)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][0] != "7" {
		t.Fatalf("data rows wrong: %v", tbl.Rows)
	}
}

func TestHeaderInTheadWithoutTbody(t *testing.T) {
	doc := parseDoc(t, `<table>
		<thead><tr><th>TAXI</th><th>STATUS</th><th>FRA</th></tr></thead>
		<tr><td>3</td><td>TILDELT</td><td>Torget</td></tr>
		<tr><td>4</td><td>UTFØRT</td><td>Sentrum</td></tr>
	</table>`)
	tbl, ok := Find([]*source.Document{doc})
	if !ok {
		t.Fatalf("expected match")
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected rows after the first, got %v", tbl.Rows)
	}
}

func TestFindNotFoundIsNormal(t *testing.T) {
	doc := parseDoc(t, `<p>no tables here</p>`)
	if _, ok := Find([]*source.Document{doc}); ok {
		t.Fatalf("expected not found")
	}
}

func TestNodeTextNormalizesWhitespace(t *testing.T) {
	doc := parseDoc(t, `<table><tr><th> TAXI
	</th><th>STATUS</th><th>UTROP  KL</th></tr><tr><td> 12 </td><td>x</td><td>y</td></tr></table>`)
	tbl, ok := Find([]*source.Document{doc})
	if !ok {
		t.Fatalf("expected match")
	}
	if tbl.Headers[0] != "TAXI" || tbl.Headers[2] != "UTROP KL" {
		t.Fatalf("whitespace not normalized: %v", tbl.Headers)
	}
	if tbl.Rows[0][0] != "12" {
		t.Fatalf("cell not trimmed: %v", tbl.Rows)
	}
}
