package locate

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/source"
)

// ReservedTableID marks the engine's own rendered output table. A candidate
// carrying this id is never treated as source data.
const ReservedTableID = "dispatchwatch-view"

// Keyword groups used to score a candidate header row. A row matches when it
// names a vehicle column AND a status column AND at least one time or origin
// column. Matching is substring containment over upper-cased text, which
// tolerates the portal's decorated headers ("TAXI NR", "UTROP KL").
var (
	vehicleKeywords = []string{"TAXI", "BIL", "LØYVE", "LOYVE"}
	statusKeywords  = []string{"STATUS"}
	timeKeywords    = []string{"UTROP", "OPPMØTE", "OPPMOTE"}
	originKeywords  = []string{"FRA", "HENTESTED"}
)

// Table is the located dispatch table reduced to text cells.
type Table struct {
	Ref     string
	Headers []string
	Rows    [][]string
}

// Find locates the one dispatch table across the document hierarchy: first
// document, first matching table wins. ok=false is the normal "still
// searching" state, not an error.
func Find(docs []*source.Document) (*Table, bool) {
	for _, d := range docs {
		for _, tbl := range elementsByTag(d.Root, "table") {
			if attrValue(tbl, "id") == ReservedTableID {
				continue
			}
			t, ok := extract(tbl)
			if ok {
				t.Ref = d.Ref
				return t, true
			}
		}
	}
	return nil, false
}

type tableRow struct {
	cells   []string
	thCells []string
	inHead  bool
	inBody  bool
}

// extract resolves the header row and data rows of one candidate table.
// Header resolution priority: the header section's first row if it matches
// keywords; else the first row whose header-style cells match; else the first
// row whose full text matches; else the table's first row as a last resort.
// The candidate only matches when the resolved header row passes the keyword
// combination.
func extract(tbl *html.Node) (*Table, bool) {
	rows := collectRows(tbl)
	if len(rows) == 0 {
		return nil, false
	}

	headerIdx := -1
	for i, r := range rows {
		if !r.inHead {
			continue
		}
		if matchesKeywords(strings.Join(r.cells, " ")) {
			headerIdx = i
		}
		break
	}
	if headerIdx < 0 {
		for i, r := range rows {
			if len(r.thCells) > 0 && matchesKeywords(strings.Join(r.thCells, " ")) {
				headerIdx = i
				break
			}
		}
	}
	if headerIdx < 0 {
		for i, r := range rows {
			if matchesKeywords(strings.Join(r.cells, " ")) {
				headerIdx = i
				break
			}
		}
	}
	if headerIdx < 0 {
		headerIdx = 0
	}
	header := rows[headerIdx]
	if !matchesKeywords(strings.Join(header.cells, " ")) {
		return nil, false
	}

	t := &Table{Headers: header.cells}
	if header.inHead {
		hasBody := false
		for _, r := range rows {
			if r.inBody {
				hasBody = true
				break
			}
		}
		for i, r := range rows {
			if hasBody && r.inBody {
				t.Rows = append(t.Rows, r.cells)
			} else if !hasBody && i > 0 {
				t.Rows = append(t.Rows, r.cells)
			}
		}
	} else {
		for _, r := range rows[headerIdx+1:] {
			t.Rows = append(t.Rows, r.cells)
		}
	}
	return t, true
}

func matchesKeywords(text string) bool {
	text = strings.ToUpper(text)
	return containsAny(text, vehicleKeywords) &&
		containsAny(text, statusKeywords) &&
		(containsAny(text, timeKeywords) || containsAny(text, originKeywords))
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// collectRows flattens the table's tr elements in document order, tagging
// which section each came from. Nested tables are not descended into.
func collectRows(tbl *html.Node) []tableRow {
	var rows []tableRow
	var walk func(n *html.Node, inHead, inBody bool)
	walk = func(n *html.Node, inHead, inBody bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead":
				walk(c, true, false)
			case "tbody":
				walk(c, false, true)
			case "tfoot":
				walk(c, false, false)
			case "tr":
				rows = append(rows, rowOf(c, inHead, inBody))
			case "table":
				// nested table: leave for its own candidate scan
			default:
				walk(c, inHead, inBody)
			}
		}
	}
	walk(tbl, false, false)
	return rows
}

func rowOf(tr *html.Node, inHead, inBody bool) tableRow {
	r := tableRow{inHead: inHead, inBody: inBody}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "td", "th":
			text := nodeText(c)
			r.cells = append(r.cells, text)
			if c.Data == "th" {
				r.thCells = append(r.thCells, text)
			}
		}
	}
	return r
}

// elementsByTag returns all elements with the tag in document order, without
// descending into matched elements.
func elementsByTag(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates descendant text, collapsing runs of whitespace.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
