package extract

import "github.com/JonMunkholm/navsync/internal/catalog"

// MandatoryFields must be present for a record to leave the engine.
var MandatoryFields = []catalog.Field{catalog.Code, catalog.UnitValue}

// Missing returns the mandatory fields that r lacks, in MandatoryFields order.
func Missing(r Record) []catalog.Field {
	var missing []catalog.Field
	for _, f := range MandatoryFields {
		v, ok := r[f]
		if !ok || v.IsBlank() {
			missing = append(missing, f)
		}
	}
	return missing
}

// Valid reports whether r has a non-blank code and a unit value. A unit
// value that did not parse as a number still counts as present.
func Valid(r Record) bool {
	return len(Missing(r)) == 0
}
