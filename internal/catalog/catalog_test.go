package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// Default catalog
// ----------------------------------------------------------------------------

func TestDefault_HasAllKnownFields(t *testing.T) {
	c := Default()

	for _, f := range knownFields {
		if !c.Has(f) {
			t.Errorf("Default() missing field %q", f)
		}
		if len(c.Aliases(f)) == 0 {
			t.Errorf("Default() field %q has no aliases", f)
		}
	}
	if c.Len() != len(knownFields) {
		t.Errorf("Len() = %d, want %d", c.Len(), len(knownFields))
	}
}

func TestDefault_Types(t *testing.T) {
	c := Default()

	tests := []struct {
		field Field
		want  FieldType
	}{
		{Code, FieldText},
		{Name, FieldText},
		{UnitValue, FieldNumeric},
		{AccumulatedUnitValue, FieldNumeric},
		{ValuationDate, FieldDate},
		{ParticipatingShares, FieldNumeric},
		{AccrualFrequency, FieldText},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			if got := c.Type(tt.field); got != tt.want {
				t.Errorf("Type(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestAliases_ReturnsCopy(t *testing.T) {
	c := Default()
	a := c.Aliases(Code)
	a[0] = "mutated"

	if c.Aliases(Code)[0] == "mutated" {
		t.Error("Aliases() exposed internal slice")
	}
}

func TestKeywords_Distinct(t *testing.T) {
	c := Default()
	seen := make(map[string]bool)
	for _, k := range c.Keywords() {
		if seen[k] {
			t.Errorf("Keywords() contains duplicate %q", k)
		}
		seen[k] = true
	}
	if !seen["累计单位净值"] || !seen["FundName"] {
		t.Error("Keywords() missing expected aliases")
	}
}

func TestIsCore(t *testing.T) {
	if !IsCore(UnitValue) {
		t.Error("IsCore(UnitValue) = false")
	}
	if IsCore(ClientName) {
		t.Error("IsCore(ClientName) = true")
	}
}

// ----------------------------------------------------------------------------
// New validation
// ----------------------------------------------------------------------------

func coreEntries() []Entry {
	return []Entry{
		{Field: Name, Aliases: []string{"name"}},
		{Field: Code, Aliases: []string{"code"}},
		{Field: UnitValue, Type: FieldNumeric, Aliases: []string{"nav"}},
		{Field: AccumulatedUnitValue, Type: FieldNumeric, Aliases: []string{"acc nav"}},
		{Field: ValuationDate, Type: FieldDate, Aliases: []string{"date"}},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr string
	}{
		{
			name:    "minimal core catalog",
			entries: coreEntries(),
		},
		{
			name:    "unknown field",
			entries: append(coreEntries(), Entry{Field: "price", Aliases: []string{"p"}}),
			wantErr: `unknown field "price"`,
		},
		{
			name:    "duplicate field",
			entries: append(coreEntries(), Entry{Field: Code, Aliases: []string{"id"}}),
			wantErr: "defined more than once",
		},
		{
			name:    "blank alias",
			entries: append(coreEntries(), Entry{Field: ClientName, Aliases: []string{"  ", "client"}}),
			wantErr: "blank alias",
		},
		{
			name:    "no aliases",
			entries: append(coreEntries(), Entry{Field: ClientName}),
			wantErr: "has no aliases",
		},
		{
			name:    "missing core field",
			entries: coreEntries()[1:],
			wantErr: `core field "name" is missing`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.entries)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				if c.Len() != len(tt.entries) {
					t.Errorf("Len() = %d, want %d", c.Len(), len(tt.entries))
				}
				return
			}
			if err == nil {
				t.Fatalf("New() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_TrimsAliases(t *testing.T) {
	entries := coreEntries()
	entries[1].Aliases = []string{"  code  "}

	c, err := New(entries)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Aliases(Code); got[0] != "code" {
		t.Errorf("Aliases(Code) = %q, want trimmed", got)
	}
}

// ----------------------------------------------------------------------------
// TOML files
// ----------------------------------------------------------------------------

const sampleTOML = `
[[field]]
name = "name"
aliases = ["Fund"]

[[field]]
name = "code"
type = "text"
aliases = ["Ticker", "Code"]

[[field]]
name = "unitValue"
type = "number"
aliases = ["NAV"]

[[field]]
name = "accumulatedUnitValue"
type = "number"
aliases = ["Cumulative NAV"]

[[field]]
name = "valuationDate"
type = "date"
aliases = ["As Of"]
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := c.Aliases(Code); len(got) != 2 || got[0] != "Ticker" {
		t.Errorf("Aliases(Code) = %v", got)
	}
	if c.Type(ValuationDate) != FieldDate {
		t.Errorf("Type(ValuationDate) = %v, want date", c.Type(ValuationDate))
	}
	if c.Type(Name) != FieldText {
		t.Errorf("Type(Name) = %v, want text default", c.Type(Name))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed toml", "[[field]\nname="},
		{"unknown type", sampleTOML + "\n[[field]]\nname = \"clientName\"\ntype = \"money\"\naliases = [\"c\"]\n"},
		{"unknown key", sampleTOML + "\n[[field]]\nname = \"clientName\"\nlabel = \"x\"\naliases = [\"c\"]\n"},
		{"missing core", "[[field]]\nname = \"code\"\naliases = [\"c\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}

func TestMarshal_RoundTripsDefault(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal(Default())) error = %v", err)
	}

	want := Default()
	for _, f := range want.Fields() {
		if strings.Join(c.Aliases(f), "|") != strings.Join(want.Aliases(f), "|") {
			t.Errorf("field %q aliases = %v, want %v", f, c.Aliases(f), want.Aliases(f))
		}
		if c.Type(f) != want.Type(f) {
			t.Errorf("field %q type = %v, want %v", f, c.Type(f), want.Type(f))
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(sampleTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !c.Has(AccumulatedUnitValue) {
		t.Error("Load() catalog missing accumulatedUnitValue")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
