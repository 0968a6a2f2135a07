package extract

import (
	"github.com/JonMunkholm/navsync/internal/catalog"
)

// Layout is the hypothesis that produced an outcome.
type Layout int

const (
	LayoutNone Layout = iota
	LayoutTable
	LayoutKeyValue
)

func (l Layout) String() string {
	switch l {
	case LayoutTable:
		return "table"
	case LayoutKeyValue:
		return "key-value"
	default:
		return "none"
	}
}

// MarshalText lets layouts appear by name in JSON.
func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Reason explains why a hypothesis produced no records.
type Reason string

const (
	ReasonEmptyGrid          Reason = "grid is empty"
	ReasonNoHeader           Reason = "no header row found"
	ReasonInsufficientFields Reason = "insufficient field coverage"
	ReasonMissingMandatory   Reason = "missing mandatory field"
)

// Record maps canonical fields to cleaned values.
type Record map[catalog.Field]Value

// Text returns the string form of f, or "" when absent.
func (r Record) Text(f catalog.Field) string {
	v, ok := r[f]
	if !ok {
		return ""
	}
	return v.String()
}

// Outcome is the full, explainable result of one extraction.
//
// Reason is empty when Records is non-empty. TableReason records why the
// table hypothesis was abandoned when the key/value path ran.
type Outcome struct {
	Records     []Record `json:"records"`
	Layout      Layout   `json:"layout"`
	HeaderRow   int      `json:"headerRow"`
	Matches     []Match  `json:"matches,omitempty"`
	Reason      Reason   `json:"reason,omitempty"`
	TableReason Reason   `json:"tableReason,omitempty"`
}

// Options tunes the detection thresholds. Zero fields take the defaults.
type Options struct {
	// HeaderScanRows is how many leading rows may hold the header (default 5).
	HeaderScanRows int
	// MinHeaderFields is the distinct-field count a header row needs (default 2).
	MinHeaderFields int
	// MinCoreFields is the core-field coverage a record needs (default 3).
	MinCoreFields int
	// LabelDelimiters split "label：value" cells (default full-width colon).
	LabelDelimiters []string
	// KeywordRule rejects values that look like labels
	// (default ContainmentRule over the catalog's aliases).
	KeywordRule KeywordRule
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		HeaderScanRows:  5,
		MinHeaderFields: 2,
		MinCoreFields:   3,
		LabelDelimiters: []string{"："},
	}
}

// Engine extracts NAV records from grids. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	cat  *catalog.Catalog
	m    *matcher
	opts Options
}

// New builds an engine for cat. A nil catalog means catalog.Default().
func New(cat *catalog.Catalog, opts ...Options) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}

	o := DefaultOptions()
	if len(opts) > 0 {
		in := opts[0]
		if in.HeaderScanRows > 0 {
			o.HeaderScanRows = in.HeaderScanRows
		}
		if in.MinHeaderFields > 0 {
			o.MinHeaderFields = in.MinHeaderFields
		}
		if in.MinCoreFields > 0 {
			o.MinCoreFields = in.MinCoreFields
		}
		if len(in.LabelDelimiters) > 0 {
			o.LabelDelimiters = append([]string(nil), in.LabelDelimiters...)
		}
		o.KeywordRule = in.KeywordRule
	}
	if o.KeywordRule == nil {
		o.KeywordRule = ContainmentRule(cat.Keywords())
	}

	return &Engine{cat: cat, m: newMatcher(cat), opts: o}
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Extract returns the validated records in g, or nil when extraction fails.
func (e *Engine) Extract(g Grid) []Record {
	return e.Run(g).Records
}

// Run tries the table hypothesis and, only if it yields no valid record, the
// key/value hypothesis. The two are never blended.
func (e *Engine) Run(g Grid) Outcome {
	if g == nil || g.Rows() == 0 || g.Cols() == 0 {
		return Outcome{Layout: LayoutNone, HeaderRow: -1, Reason: ReasonEmptyGrid}
	}

	tableReason := ReasonNoHeader
	tr, found := e.extractTable(g)
	if found {
		var records []Record
		for _, row := range tr.rows {
			rec := e.normalize(row.values)
			if Valid(rec) {
				records = append(records, rec)
			}
		}
		if len(records) > 0 {
			return Outcome{
				Records:   records,
				Layout:    LayoutTable,
				HeaderRow: tr.headerRow,
				Matches:   tr.matches,
			}
		}
		tableReason = ReasonInsufficientFields
		if len(tr.rows) > 0 {
			tableReason = ReasonMissingMandatory
		}
	}

	values, matches := e.scanKeyValue(g)
	out := Outcome{
		Layout:      LayoutNone,
		HeaderRow:   tr.headerRow,
		Matches:     matches,
		TableReason: tableReason,
	}
	if coreCount(values) < e.opts.MinCoreFields {
		out.Reason = ReasonInsufficientFields
		return out
	}

	rec := e.normalize(values)
	if !Valid(rec) {
		out.Reason = ReasonMissingMandatory
		return out
	}

	out.Records = []Record{rec}
	out.Layout = LayoutKeyValue
	return out
}

// normalize converts cleaned text to typed values per the catalog.
func (e *Engine) normalize(values map[catalog.Field]string) Record {
	rec := make(Record, len(values))
	for f, raw := range values {
		switch e.cat.Type(f) {
		case catalog.FieldNumeric:
			rec[f] = ToNumber(raw)
		case catalog.FieldDate:
			rec[f] = ToDate(raw)
		default:
			rec[f] = StringValue(raw)
		}
	}
	return rec
}
