package extract

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JonMunkholm/navsync/internal/catalog"
)

// MatchKind records how a field was located.
type MatchKind int

const (
	MatchTableColumn MatchKind = iota
	MatchSameCell
	MatchRightOffset
	MatchBelowOffset
)

func (k MatchKind) String() string {
	switch k {
	case MatchTableColumn:
		return "table-column"
	case MatchSameCell:
		return "same-cell"
	case MatchRightOffset:
		return "right-offset"
	case MatchBelowOffset:
		return "below-offset"
	default:
		return "unknown"
	}
}

// MarshalText lets match kinds appear by name in JSON.
func (k MatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Match is one located field: the label cell, the alias that claimed it and,
// for key/value matches, where the value was read from. For table matches
// the value position is the header cell itself.
type Match struct {
	Field    catalog.Field `json:"field"`
	Row      int           `json:"row"`
	Col      int           `json:"col"`
	Alias    string        `json:"alias"`
	Kind     MatchKind     `json:"kind"`
	ValueRow int           `json:"valueRow"`
	ValueCol int           `json:"valueCol"`
}

func newMatch(f catalog.Field, row, col int, alias string, kind MatchKind, vr, vc int) Match {
	return Match{
		Field:    f,
		Row:      row,
		Col:      col,
		Alias:    alias,
		Kind:     kind,
		ValueRow: vr,
		ValueCol: vc,
	}
}

// KeywordRule decides whether a candidate value is really another label.
type KeywordRule interface {
	IsKeyword(value string) bool
}

// KeywordRuleFunc adapts a function to KeywordRule.
type KeywordRuleFunc func(value string) bool

func (f KeywordRuleFunc) IsKeyword(value string) bool { return f(value) }

// ContainmentRule flags a value when any keyword contains it or it contains
// any keyword. This is aggressive with short generic words: a client name
// containing "日期" is rejected.
func ContainmentRule(keywords []string) KeywordRule {
	kws := append([]string(nil), keywords...)
	return KeywordRuleFunc(func(value string) bool {
		v := strings.TrimSpace(value)
		for _, kw := range kws {
			if strings.Contains(v, kw) || strings.Contains(kw, v) {
				return true
			}
		}
		return false
	})
}

// ExactRule flags a value only when it equals a keyword after whitespace is
// removed.
func ExactRule(keywords []string) KeywordRule {
	set := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		set[normalizeLabel(kw)] = true
	}
	return KeywordRuleFunc(func(value string) bool {
		return set[normalizeLabel(value)]
	})
}

// alias is a normalized alias with its rune length.
type alias struct {
	field catalog.Field
	text  string
	runes int
}

type fieldAliases struct {
	field   catalog.Field
	aliases []alias // longest first
}

// matcher answers alias questions for one catalog.
type matcher struct {
	fields []fieldAliases
	all    []alias
}

func newMatcher(cat *catalog.Catalog) *matcher {
	m := &matcher{}
	for _, e := range cat.Entries() {
		fa := fieldAliases{field: e.Field}
		seen := make(map[string]bool)
		for _, a := range e.Aliases {
			n := normalizeLabel(a)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			fa.aliases = append(fa.aliases, alias{field: e.Field, text: n, runes: utf8.RuneCountInString(n)})
		}
		sort.SliceStable(fa.aliases, func(i, j int) bool {
			return fa.aliases[i].runes > fa.aliases[j].runes
		})
		m.fields = append(m.fields, fa)
		m.all = append(m.all, fa.aliases...)
	}
	return m
}

// outranked reports whether some other field has an alias that occurs in
// cell and is strictly longer than n runes.
func (m *matcher) outranked(cell string, f catalog.Field, n int) bool {
	for _, a := range m.all {
		if a.field != f && a.runes > n && strings.Contains(cell, a.text) {
			return true
		}
	}
	return false
}

// headerAlias returns the longest alias of fa occurring in the normalized
// header cell, provided no other field claims the cell with a longer one.
func (m *matcher) headerAlias(cell string, fa fieldAliases) (alias, bool) {
	if cell == "" {
		return alias{}, false
	}
	for _, a := range fa.aliases {
		if !strings.Contains(cell, a.text) {
			continue
		}
		if m.outranked(cell, fa.field, a.runes) {
			return alias{}, false
		}
		return a, true
	}
	return alias{}, false
}

// labelAlias applies the key/value candidate rules to a normalized cell:
// exact equality, or containment where the occurrence is not glued to a
// preceding letter or ideograph ("客户名称" must not match "名称").
func (m *matcher) labelAlias(cell string, fa fieldAliases) (alias, bool) {
	if cell == "" {
		return alias{}, false
	}
	for _, a := range fa.aliases {
		if !isLabelCandidate(cell, a.text) {
			continue
		}
		if m.outranked(cell, fa.field, a.runes) {
			continue
		}
		return a, true
	}
	return alias{}, false
}

func isLabelCandidate(cell, a string) bool {
	if cell == a {
		return true
	}
	idx := strings.Index(cell, a)
	if idx < 0 {
		return false
	}
	if idx == 0 {
		return true
	}
	before, _ := utf8.DecodeLastRuneInString(cell[:idx])
	return !(unicode.IsLetter(before) || unicode.Is(unicode.Han, before))
}
