package extract

import (
	"reflect"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/navsync/internal/catalog"
)

func assertText(t *testing.T, rec Record, f catalog.Field, want string) {
	t.Helper()
	if got := rec.Text(f); got != want {
		t.Errorf("%s = %q, want %q", f, got, want)
	}
}

func assertNumber(t *testing.T, rec Record, f catalog.Field, want string) {
	t.Helper()
	v, ok := rec[f]
	if !ok {
		t.Fatalf("%s missing from record", f)
	}
	if v.Kind != ValueNumber {
		t.Fatalf("%s kind = %v (%q), want number", f, v.Kind, v.Text)
	}
	if w := decimal.RequireFromString(want); !v.Number.Equal(w) {
		t.Errorf("%s = %s, want %s", f, v.Number, w)
	}
}

// ----------------------------------------------------------------------------
// Table Layout Tests
// ----------------------------------------------------------------------------

func TestRun_TableMultipleRows(t *testing.T) {
	g := StringGrid([][]string{
		{"基金代码", "基金名称", "净值日期", "单位净值", "累计单位净值"},
		{"ABC123", "Alpha", "2025-01-21", "1.5000", "1.5000"},
		{"ABC124", "Beta", "2025/01/22", "2.0000", "2.1000"},
	})

	out := New(nil).Run(g)

	if out.Layout != LayoutTable {
		t.Fatalf("Layout = %v, want table (reason %q)", out.Layout, out.Reason)
	}
	if out.HeaderRow != 0 {
		t.Errorf("HeaderRow = %d, want 0", out.HeaderRow)
	}
	if len(out.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(out.Records))
	}

	first, second := out.Records[0], out.Records[1]
	assertText(t, first, catalog.Code, "ABC123")
	assertText(t, first, catalog.Name, "Alpha")
	assertText(t, first, catalog.ValuationDate, "20250121")
	assertNumber(t, first, catalog.UnitValue, "1.5")
	assertNumber(t, first, catalog.AccumulatedUnitValue, "1.5")

	assertText(t, second, catalog.Code, "ABC124")
	assertText(t, second, catalog.ValuationDate, "20250122")
	assertNumber(t, second, catalog.UnitValue, "2")
	assertNumber(t, second, catalog.AccumulatedUnitValue, "2.1")

	if out.Reason != "" {
		t.Errorf("Reason = %q, want empty", out.Reason)
	}
}

func TestRun_TableHeaderBelowCaption(t *testing.T) {
	g := StringGrid([][]string{
		{"资产净值报告"},
		{},
		{"产品代码", "产品名称", "单位净值"},
		{"X1", "Alpha", "1.01"},
	})

	out := New(nil).Run(g)

	if out.Layout != LayoutTable || out.HeaderRow != 2 {
		t.Fatalf("Layout = %v HeaderRow = %d, want table at row 2", out.Layout, out.HeaderRow)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	assertText(t, out.Records[0], catalog.Code, "X1")
}

// A caption naming one field through nested aliases ("累计单位净值" contains
// "单位净值") still counts as a single field and is not taken as the header.
func TestRun_TableCaptionWithNestedAliases(t *testing.T) {
	g := StringGrid([][]string{
		{"累计单位净值报告"},
		{"产品代码", "产品名称", "净值日期", "单位净值", "累计单位净值"},
		{"X1", "Alpha", "20250121", "1.01", "1.20"},
	})

	out := New(nil).Run(g)

	if out.Layout != LayoutTable || out.HeaderRow != 1 {
		t.Fatalf("Layout = %v HeaderRow = %d, want table at row 1", out.Layout, out.HeaderRow)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	assertText(t, out.Records[0], catalog.Code, "X1")
	assertNumber(t, out.Records[0], catalog.AccumulatedUnitValue, "1.20")
}

func TestRun_TableHeaderColumnsPreferLongestAlias(t *testing.T) {
	// The accumulated column comes first; "单位净值" inside it must not
	// pull unitValue onto the wrong column.
	g := StringGrid([][]string{
		{"累计单位净值", "单位净值", "基金代码", "基金名称"},
		{"1.80", "1.20", "ABC123", "Alpha"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1 (reason %q)", len(out.Records), out.Reason)
	}
	assertNumber(t, out.Records[0], catalog.UnitValue, "1.2")
	assertNumber(t, out.Records[0], catalog.AccumulatedUnitValue, "1.8")

	cols := make(map[catalog.Field]int)
	for _, m := range out.Matches {
		if m.Kind != MatchTableColumn {
			t.Errorf("match %+v kind = %v, want table-column", m, m.Kind)
		}
		cols[m.Field] = m.Col
	}
	if cols[catalog.AccumulatedUnitValue] != 0 || cols[catalog.UnitValue] != 1 {
		t.Errorf("column bindings = %v", cols)
	}
}

func TestRun_TableCleansValues(t *testing.T) {
	g := StringGrid([][]string{
		{"基金\n代码", "产品名称", "单位\n净值"},
		{"SLA149_总层面", "  Alpha  ", "1,001.25"},
		{"", "", ""},
		{"nan", "nan", "nan"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	rec := out.Records[0]
	assertText(t, rec, catalog.Code, "SLA149")
	assertText(t, rec, catalog.Name, "Alpha")
	assertNumber(t, rec, catalog.UnitValue, "1001.25")
}

func TestRun_TableNumericCells(t *testing.T) {
	g := NewGrid([][]Cell{
		{Str("产品代码"), Str("产品名称"), Str("净值日期"), Str("单位净值")},
		{Str("X1"), Str("Alpha"), Num(20250121), Num(1.0234)},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	assertText(t, out.Records[0], catalog.ValuationDate, "20250121")
	assertNumber(t, out.Records[0], catalog.UnitValue, "1.0234")
}

func TestRun_TableAncillaryFields(t *testing.T) {
	g := StringGrid([][]string{
		{"产品代码", "产品名称", "客户名称", "净值日期", "单位净值", "参与计提份额", "计提频率", "虚拟计提业绩报酬金额"},
		{"X1", "Alpha", "Client A", "2025-01-21", "1.05", "1,000,000.50", "每月", "12.5"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	rec := out.Records[0]
	assertText(t, rec, catalog.Name, "Alpha")
	assertText(t, rec, catalog.ClientName, "Client A")
	assertText(t, rec, catalog.AccrualFrequency, "每月")
	assertNumber(t, rec, catalog.ParticipatingShares, "1000000.5")
	assertNumber(t, rec, catalog.PerformanceFeeAmount, "12.5")
}

func TestRun_TableRowsBelowCoverageAreSkipped(t *testing.T) {
	g := StringGrid([][]string{
		{"产品代码", "产品名称", "净值日期", "单位净值"},
		{"X1", "Alpha", "20250121", "1.1"},
		{"合计", "", "", ""},
		{"X2", "Beta", "20250121", "1.2"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(out.Records))
	}
	assertText(t, out.Records[0], catalog.Code, "X1")
	assertText(t, out.Records[1], catalog.Code, "X2")
}

// ----------------------------------------------------------------------------
// Key/Value Layout Tests
// ----------------------------------------------------------------------------

func TestRun_KeyValueSameCell(t *testing.T) {
	g := StringGrid([][]string{
		{"产品代码：T05851", "", ""},
		{"产品名称", "Test Fund", ""},
		{"净值日期", "2025-01-21", ""},
		{"单位净值", "1.0234", ""},
	})

	out := New(nil).Run(g)

	if out.Layout != LayoutKeyValue {
		t.Fatalf("Layout = %v, want key-value (reason %q)", out.Layout, out.Reason)
	}
	if out.TableReason != ReasonNoHeader {
		t.Errorf("TableReason = %q, want %q", out.TableReason, ReasonNoHeader)
	}
	if out.HeaderRow != -1 {
		t.Errorf("HeaderRow = %d, want -1", out.HeaderRow)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}

	rec := out.Records[0]
	assertText(t, rec, catalog.Code, "T05851")
	assertText(t, rec, catalog.Name, "Test Fund")
	assertText(t, rec, catalog.ValuationDate, "20250121")
	assertNumber(t, rec, catalog.UnitValue, "1.0234")

	for _, m := range out.Matches {
		if m.Field == catalog.Code && m.Kind != MatchSameCell {
			t.Errorf("code match kind = %v, want same-cell", m.Kind)
		}
	}
}

func TestRun_KeyValueRightOffset(t *testing.T) {
	g := StringGrid([][]string{
		{"产品代码", "T05851"},
		{"产品名称", "Fund A"},
		{"单位净值", "1.2"},
		{"净值日期", "20240130"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1 (reason %q)", len(out.Records), out.Reason)
	}
	assertText(t, out.Records[0], catalog.Code, "T05851")
	assertText(t, out.Records[0], catalog.Name, "Fund A")

	var found bool
	for _, m := range out.Matches {
		if m.Field == catalog.Code {
			found = true
			if m.Kind != MatchRightOffset || m.ValueRow != 0 || m.ValueCol != 1 {
				t.Errorf("code match = %+v, want right-offset at (0,1)", m)
			}
		}
	}
	if !found {
		t.Error("no match reported for code")
	}
}

func TestRun_KeyValueSkipsMergedCell(t *testing.T) {
	g := StringGrid([][]string{
		{"产品代码", "", "T05851"},
		{"产品名称", "", "Alpha"},
		{"单位净值", "", "1.2"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	assertText(t, out.Records[0], catalog.Code, "T05851")
	assertNumber(t, out.Records[0], catalog.UnitValue, "1.2")
}

func TestRun_KeyValueBelowOffset(t *testing.T) {
	g := StringGrid([][]string{
		{"产品代码"},
		{"T05851"},
		{"产品名称"},
		{"Fund C"},
		{"单位净值"},
		{"1.3"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1 (reason %q)", len(out.Records), out.Reason)
	}
	assertText(t, out.Records[0], catalog.Code, "T05851")
	assertText(t, out.Records[0], catalog.Name, "Fund C")
	assertNumber(t, out.Records[0], catalog.UnitValue, "1.3")

	for _, m := range out.Matches {
		if m.Kind != MatchBelowOffset {
			t.Errorf("%s match kind = %v, want below-offset", m.Field, m.Kind)
		}
	}
}

func TestRun_KeyValueMostSpecificLabelWins(t *testing.T) {
	g := StringGrid([][]string{
		{"累计单位净值：1.23"},
		{"单位净值：1.10"},
		{"产品代码：X1"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1 (reason %q)", len(out.Records), out.Reason)
	}
	assertNumber(t, out.Records[0], catalog.UnitValue, "1.10")
	assertNumber(t, out.Records[0], catalog.AccumulatedUnitValue, "1.23")
}

func TestRun_KeyValueDateLabelNotUnitValue(t *testing.T) {
	g := StringGrid([][]string{
		{"净值日期：2024-01-30"},
		{"产品代码：X1"},
		{"单位净值：1.5"},
	})

	out := New(nil).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	assertText(t, out.Records[0], catalog.ValuationDate, "20240130")
	assertNumber(t, out.Records[0], catalog.UnitValue, "1.5")
}

func TestRun_KeyValueHeaderOutsideScanWindow(t *testing.T) {
	g := StringGrid([][]string{
		{"Monthly report"},
		{"Monthly report"},
		{"Monthly report"},
		{"Monthly report"},
		{"Monthly report"},
		{"基金代码", "基金名称", "单位净值", "净值日期"},
		{"ABC123", "Alpha", "1.5", "20250121"},
		{"ABC124", "Beta", "2.0", "20250122"},
	})

	out := New(nil).Run(g)
	if out.Layout != LayoutKeyValue {
		t.Fatalf("Layout = %v, want key-value", out.Layout)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	assertText(t, out.Records[0], catalog.Code, "ABC123")
	assertText(t, out.Records[0], catalog.Name, "Alpha")
}

func TestRun_KeywordRules(t *testing.T) {
	g := StringGrid([][]string{
		{"产品代码", "X1"},
		{"产品名称", "日期精选"},
		{"单位净值", "1.1"},
	})
	kws := catalog.Default().Keywords()

	tests := []struct {
		name     string
		rule     KeywordRule
		wantName string
	}{
		{"containment rejects label-like names", nil, ""},
		{"exact accepts them", ExactRule(kws), "日期精选"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(nil, Options{KeywordRule: tt.rule}).Run(g)
			if len(out.Records) != 1 {
				t.Fatalf("got %d records, want 1 (reason %q)", len(out.Records), out.Reason)
			}
			assertText(t, out.Records[0], catalog.Name, tt.wantName)
		})
	}
}

// ----------------------------------------------------------------------------
// Failure Tests
// ----------------------------------------------------------------------------

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name            string
		grid            Grid
		wantReason      Reason
		wantTableReason Reason
	}{
		{
			name:       "nil grid",
			grid:       nil,
			wantReason: ReasonEmptyGrid,
		},
		{
			name:       "empty grid",
			grid:       StringGrid(nil),
			wantReason: ReasonEmptyGrid,
		},
		{
			name:            "caption only",
			grid:            StringGrid([][]string{{"资产净值报告"}}),
			wantReason:      ReasonInsufficientFields,
			wantTableReason: ReasonNoHeader,
		},
		{
			name: "header without data",
			grid: StringGrid([][]string{
				{"产品代码", "产品名称", "单位净值"},
			}),
			wantReason:      ReasonInsufficientFields,
			wantTableReason: ReasonInsufficientFields,
		},
		{
			name: "blank code",
			grid: StringGrid([][]string{
				{"基金代码", "基金名称", "净值日期", "单位净值"},
				{"", "Alpha", "20250121", "1.0"},
			}),
			wantReason:      ReasonMissingMandatory,
			wantTableReason: ReasonMissingMandatory,
		},
		{
			name: "key/value without unit value",
			grid: StringGrid([][]string{
				{"产品代码：X1"},
				{"产品名称：Alpha"},
				{"净值日期：20250121"},
			}),
			wantReason:      ReasonMissingMandatory,
			wantTableReason: ReasonNoHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(nil).Run(tt.grid)
			if len(out.Records) != 0 {
				t.Fatalf("got %d records, want none", len(out.Records))
			}
			if out.Layout != LayoutNone {
				t.Errorf("Layout = %v, want none", out.Layout)
			}
			if out.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", out.Reason, tt.wantReason)
			}
			if out.TableReason != tt.wantTableReason {
				t.Errorf("TableReason = %q, want %q", out.TableReason, tt.wantTableReason)
			}
		})
	}
}

func TestExtract_ReturnsNilOnFailure(t *testing.T) {
	if got := New(nil).Extract(StringGrid([][]string{{"资产净值报告"}})); got != nil {
		t.Errorf("Extract() = %v, want nil", got)
	}
}

// ----------------------------------------------------------------------------
// Engine Tests
// ----------------------------------------------------------------------------

func TestRun_Idempotent(t *testing.T) {
	grids := []Grid{
		StringGrid([][]string{
			{"基金代码", "基金名称", "净值日期", "单位净值"},
			{"ABC123", "Alpha", "20250121", "1.5"},
		}),
		StringGrid([][]string{
			{"产品代码：T05851"},
			{"产品名称", "Alpha"},
			{"单位净值", "1.0"},
		}),
		StringGrid([][]string{{"资产净值报告"}}),
	}

	eng := New(nil)
	for i, g := range grids {
		a, b := eng.Run(g), eng.Run(g)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("grid %d: outcomes differ:\n%+v\n%+v", i, a, b)
		}
	}
}

func TestRun_ConcurrentUse(t *testing.T) {
	eng := New(nil)
	g := StringGrid([][]string{
		{"基金代码", "基金名称", "净值日期", "单位净值"},
		{"ABC123", "Alpha", "20250121", "1.5"},
	})
	want := eng.Run(g)

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := eng.Run(g); !reflect.DeepEqual(got, want) {
				errs <- "outcome differs under concurrent use"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestNew_CustomCatalogAndOptions(t *testing.T) {
	cat, err := catalog.New([]catalog.Entry{
		{Field: catalog.Name, Type: catalog.FieldText, Aliases: []string{"Fund"}},
		{Field: catalog.Code, Type: catalog.FieldText, Aliases: []string{"Code"}},
		{Field: catalog.UnitValue, Type: catalog.FieldNumeric, Aliases: []string{"NAV"}},
		{Field: catalog.AccumulatedUnitValue, Type: catalog.FieldNumeric, Aliases: []string{"Cum NAV"}},
		{Field: catalog.ValuationDate, Type: catalog.FieldDate, Aliases: []string{"Date"}},
	})
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}

	g := StringGrid([][]string{
		{"Code", "Fund", "NAV", "Cum NAV", "Date"},
		{"X1", "Alpha", "1.2", "1.5", "2025-01-21"},
	})

	out := New(cat).Run(g)
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1 (reason %q)", len(out.Records), out.Reason)
	}
	assertNumber(t, out.Records[0], catalog.UnitValue, "1.2")
	assertNumber(t, out.Records[0], catalog.AccumulatedUnitValue, "1.5")
	assertText(t, out.Records[0], catalog.ValuationDate, "20250121")

	strict := New(cat, Options{MinHeaderFields: 6, MinCoreFields: 6})
	if got := strict.Run(g); len(got.Records) != 0 {
		t.Errorf("strict engine extracted %d records, want 0", len(got.Records))
	}
}

func TestNew_Defaults(t *testing.T) {
	eng := New(nil, Options{HeaderScanRows: 10})
	opts := eng.Options()

	if opts.HeaderScanRows != 10 {
		t.Errorf("HeaderScanRows = %d, want 10", opts.HeaderScanRows)
	}
	if opts.MinHeaderFields != 2 || opts.MinCoreFields != 3 {
		t.Errorf("thresholds = %d/%d, want 2/3", opts.MinHeaderFields, opts.MinCoreFields)
	}
	if len(opts.LabelDelimiters) != 1 || opts.LabelDelimiters[0] != "：" {
		t.Errorf("LabelDelimiters = %v", opts.LabelDelimiters)
	}
	if opts.KeywordRule == nil {
		t.Error("KeywordRule not defaulted")
	}
	if eng.Catalog().Len() != catalog.Default().Len() {
		t.Error("nil catalog did not default")
	}
}
