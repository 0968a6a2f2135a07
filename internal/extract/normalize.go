package extract

// normalize.go holds the pure value-cleaning functions.
//
// None of these fail: when a date or number cannot be parsed the original text
// is passed through, and the validator or caller decides whether that is
// acceptable.

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ValueKind is the normalized type of a Value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueDate
)

func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueDate:
		return "date"
	default:
		return "string"
	}
}

// Value is a cleaned field value.
//
// Dates are held as YYYYMMDD text with Kind ValueDate. Numbers keep their
// decimal representation in Number; Text is empty for them.
type Value struct {
	Kind   ValueKind
	Text   string
	Number decimal.Decimal
}

// StringValue wraps s as a text value.
func StringValue(s string) Value { return Value{Kind: ValueString, Text: s} }

// String returns the value as text.
func (v Value) String() string {
	if v.Kind == ValueNumber {
		return v.Number.String()
	}
	return v.Text
}

// IsBlank reports whether the value is empty text. Numbers are never blank.
func (v Value) IsBlank() bool {
	if v.Kind == ValueNumber {
		return false
	}
	return strings.TrimSpace(v.Text) == ""
}

// MarshalJSON renders numbers as JSON numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueNumber {
		return []byte(v.Number.String()), nil
	}
	return json.Marshal(v.Text)
}

// CleanValue trims raw and drops any sub-account suffix after the first
// underscore ("SLA149_总层面" becomes "SLA149").
func CleanValue(raw string) string {
	v := strings.TrimSpace(raw)
	if i := strings.Index(v, "_"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}

// dateLayouts are tried in order. Month and day accept one or two digits
// except in the compact form.
var dateLayouts = []string{
	"20060102",
	"2006-1-2",
	"2006/1/2",
	"2006-1-2 15:04:05",
	"2006.1.2",
	"2006年1月2日",
}

// parseDate returns the first layout that parses raw.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate renders raw as YYYYMMDD, or returns it unchanged when no
// layout matches.
func NormalizeDate(raw string) string {
	t, ok := parseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("20060102")
}

// thousandsSeparators are removed before numeric parsing.
var thousandsSeparators = strings.NewReplacer(",", "", "，", "")

// parseNumber parses raw as a decimal after removing thousands separators.
func parseNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(thousandsSeparators.Replace(raw))
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ToNumber coerces raw to a numeric Value; on failure raw comes back
// unchanged as a string Value.
func ToNumber(raw string) Value {
	d, ok := parseNumber(raw)
	if !ok {
		return StringValue(raw)
	}
	return Value{Kind: ValueNumber, Number: d}
}

// ToDate coerces raw to a date Value; on failure raw comes back unchanged as
// a string Value.
func ToDate(raw string) Value {
	t, ok := parseDate(raw)
	if !ok {
		return StringValue(raw)
	}
	return Value{Kind: ValueDate, Text: t.Format("20060102")}
}

// normalizeLabel removes every whitespace rune, including line breaks inside
// wrapped header cells and ideographic spaces.
func normalizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
