package record

import (
	"sort"
	"strings"
)

// Field names a canonical Record field that a source column can map to.
type Field string

const (
	FieldInvoiceRef         Field = "invoice_ref"
	FieldRequester          Field = "requester"
	FieldVehicleID          Field = "vehicle_id"
	FieldStatus             Field = "status"
	FieldAnnounce           Field = "announce"
	FieldMeet               Field = "meet"
	FieldProcessingDuration Field = "processing_duration"
	FieldFrom               Field = "from"
	FieldTo                 Field = "to"
	FieldName               Field = "name"
	FieldMessageToVehicle   Field = "message_to_vehicle"
	FieldPaymentMethod      Field = "payment_method"
	FieldReference          Field = "reference"
	FieldLinkedTripID       Field = "linked_trip_id"
	FieldPhone              Field = "phone"
	FieldAttribute          Field = "attribute"
	FieldTripID             Field = "trip_id"
)

// headerSynonyms maps raw portal header text (upper-cased, trimmed) to the
// canonical field. The portal localizes and occasionally mangles headers, so
// several spellings (including accented and non-accented variants of the same
// word) map to one field.
var headerSynonyms = map[string]Field{
	"BEST.NR":         FieldInvoiceRef,
	"BESTNR":          FieldInvoiceRef,
	"BESTILLINGSNR":   FieldInvoiceRef,
	"REKVIRENT":       FieldRequester,
	"TAXI":            FieldVehicleID,
	"BIL":             FieldVehicleID,
	"BILNR":           FieldVehicleID,
	"LØYVE":           FieldVehicleID,
	"LOYVE":           FieldVehicleID,
	"STATUS":          FieldStatus,
	"UTROP":           FieldAnnounce,
	"UTROPSTID":       FieldAnnounce,
	"OPPMØTE":         FieldMeet,
	"OPPMOTE":         FieldMeet,
	"OPPMØTETID":      FieldMeet,
	"OPPMOTETID":      FieldMeet,
	"BEH.TID":         FieldProcessingDuration,
	"BEHANDLINGSTID":  FieldProcessingDuration,
	"FRA":             FieldFrom,
	"HENTESTED":       FieldFrom,
	"TIL":             FieldTo,
	"LEVERINGSSTED":   FieldTo,
	"NAVN":            FieldName,
	"KUNDE":           FieldName,
	"MELDING TIL BIL": FieldMessageToVehicle,
	"MELDING":         FieldMessageToVehicle,
	"BETALINGSMÅTE":   FieldPaymentMethod,
	"BETALINGSMATE":   FieldPaymentMethod,
	"BETALING":        FieldPaymentMethod,
	"REFERANSE":       FieldReference,
	"ALTTURID":        FieldLinkedTripID,
	"ALT.TURID":       FieldLinkedTripID,
	"TELEFON":         FieldPhone,
	"TLF":             FieldPhone,
	"EGENSKAP":        FieldAttribute,
	"EGENSKAPER":      FieldAttribute,
	"TURID":           FieldTripID,
	"TUR.ID":          FieldTripID,
	"TURNR":           FieldTripID,
}

// synonymOrder fixes the substring-pass probe order; longer synonyms first so
// the most specific containment wins, ties broken lexically for determinism.
var synonymOrder = func() []string {
	keys := make([]string, 0, len(headerSynonyms))
	for k := range headerSynonyms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// HeaderMapping records which column index feeds each canonical field,
// together with the raw header list for diagnostics.
type HeaderMapping struct {
	Columns    map[Field]int
	RawHeaders []string
}

// MapHeaders resolves raw header cells to canonical fields. The exact-match
// pass runs over all cells before any substring matching, and a field bound
// by an exact match is never overwritten by a later substring match. A column
// consumed by an exact match is not offered to the substring pass, so a
// header like ALTTURID cannot also claim the trip-id field by containment.
func MapHeaders(cells []string) HeaderMapping {
	m := HeaderMapping{
		Columns:    make(map[Field]int),
		RawHeaders: append([]string(nil), cells...),
	}
	norm := make([]string, len(cells))
	for i, c := range cells {
		norm[i] = strings.ToUpper(strings.TrimSpace(c))
	}

	exactCols := make(map[int]struct{})
	for i, text := range norm {
		field, ok := headerSynonyms[text]
		if !ok {
			continue
		}
		if _, taken := m.Columns[field]; taken {
			continue
		}
		m.Columns[field] = i
		exactCols[i] = struct{}{}
	}

	for i, text := range norm {
		if _, taken := exactCols[i]; taken {
			continue
		}
		if text == "" {
			continue
		}
		for _, synonym := range synonymOrder {
			field := headerSynonyms[synonym]
			if _, mapped := m.Columns[field]; mapped {
				continue
			}
			if strings.Contains(text, synonym) {
				m.Columns[field] = i
				break
			}
		}
	}
	return m
}

// Cell returns the row's cell for a mapped field, or "" when the field is
// unmapped or the row is short.
func (m HeaderMapping) Cell(row []string, field Field) string {
	idx, ok := m.Columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
