// Package catalog defines the canonical NAV fields and the label aliases that
// identify them in institution-specific spreadsheets.
//
// A Catalog is immutable once built. Reloading means constructing a new one
// (from Default, Parse or Load) and handing it to a new extraction engine.
package catalog

import (
	"fmt"
	"strings"
)

// Field is a canonical field name.
type Field string

// Core fields. A record needs at least three of these to be considered.
const (
	Name                 Field = "name"
	Code                 Field = "code"
	UnitValue            Field = "unitValue"
	AccumulatedUnitValue Field = "accumulatedUnitValue"
	ValuationDate        Field = "valuationDate"
)

// Ancillary fields, carried through when present.
const (
	ClientName            Field = "clientName"
	ParticipatingShares   Field = "participatingShares"
	AccrualFrequency      Field = "accrualFrequency"
	PerformanceFeeAmount  Field = "performanceFeeAmount"
	WithdrawalNAV         Field = "withdrawalNAV"
	PostAccrualVirtualNAV Field = "postAccrualVirtualNAV"
)

// CoreFields lists the five core fields in canonical order.
var CoreFields = []Field{Name, Code, UnitValue, AccumulatedUnitValue, ValuationDate}

// knownFields is every field the catalog accepts, in canonical order.
var knownFields = []Field{
	Name, Code, UnitValue, AccumulatedUnitValue, ValuationDate,
	ClientName, ParticipatingShares, AccrualFrequency,
	PerformanceFeeAmount, WithdrawalNAV, PostAccrualVirtualNAV,
}

// IsCore reports whether f is one of the five core fields.
func IsCore(f Field) bool {
	for _, c := range CoreFields {
		if c == f {
			return true
		}
	}
	return false
}

// IsKnown reports whether f is a field the catalog understands.
func IsKnown(f Field) bool {
	for _, k := range knownFields {
		if k == f {
			return true
		}
	}
	return false
}

// FieldType is the value type a field is normalized to.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
	FieldDate
)

// String returns the name used in catalog files.
func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "number"
	case FieldDate:
		return "date"
	default:
		return "text"
	}
}

// ParseFieldType converts a catalog file type name to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return FieldText, nil
	case "number", "numeric":
		return FieldNumeric, nil
	case "date":
		return FieldDate, nil
	default:
		return FieldText, fmt.Errorf("unknown field type %q", s)
	}
}

// Entry maps one canonical field to its aliases.
// Alias order carries no priority; matching prefers longer aliases.
type Entry struct {
	Field   Field
	Type    FieldType
	Aliases []string
}

// Catalog is an immutable, validated set of entries.
type Catalog struct {
	entries  []Entry
	index    map[Field]int
	keywords []string
}

// New validates entries and builds a Catalog. Entries are copied.
//
// Every field must be known, appear once, and carry at least one non-blank
// alias. All five core fields must be present.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[Field]int, len(entries)),
	}

	var errs []string
	seenAlias := make(map[string]bool)

	for _, e := range entries {
		if !IsKnown(e.Field) {
			errs = append(errs, fmt.Sprintf("unknown field %q", e.Field))
			continue
		}
		if _, dup := c.index[e.Field]; dup {
			errs = append(errs, fmt.Sprintf("field %q defined more than once", e.Field))
			continue
		}

		aliases := make([]string, 0, len(e.Aliases))
		for _, a := range e.Aliases {
			a = strings.TrimSpace(a)
			if a == "" {
				errs = append(errs, fmt.Sprintf("field %q has a blank alias", e.Field))
				continue
			}
			aliases = append(aliases, a)
			if !seenAlias[a] {
				seenAlias[a] = true
				c.keywords = append(c.keywords, a)
			}
		}
		if len(aliases) == 0 {
			errs = append(errs, fmt.Sprintf("field %q has no aliases", e.Field))
			continue
		}

		c.index[e.Field] = len(c.entries)
		c.entries = append(c.entries, Entry{Field: e.Field, Type: e.Type, Aliases: aliases})
	}

	for _, f := range CoreFields {
		if _, ok := c.index[f]; !ok {
			errs = append(errs, fmt.Sprintf("core field %q is missing", f))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return c, nil
}

// Entries returns a copy of the catalog entries in definition order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = Entry{Field: e.Field, Type: e.Type, Aliases: append([]string(nil), e.Aliases...)}
	}
	return out
}

// Fields returns the catalog's fields in definition order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Field
	}
	return out
}

// Has reports whether the catalog defines f.
func (c *Catalog) Has(f Field) bool {
	_, ok := c.index[f]
	return ok
}

// Aliases returns the aliases for f, or nil if f is not defined.
func (c *Catalog) Aliases(f Field) []string {
	i, ok := c.index[f]
	if !ok {
		return nil
	}
	return append([]string(nil), c.entries[i].Aliases...)
}

// Type returns the normalization type of f. Undefined fields are text.
func (c *Catalog) Type(f Field) FieldType {
	i, ok := c.index[f]
	if !ok {
		return FieldText
	}
	return c.entries[i].Type
}

// Keywords returns every distinct alias across all fields.
func (c *Catalog) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	return len(c.entries)
}
