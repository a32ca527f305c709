package services

import (
	"reflect"
	"testing"

	"realty-backoffice/models"
)

func rosterRows() []models.Listing {
	return []models.Listing{
		{ID: "L1", Title: "래미안 101동", ComplexName: "래미안", Dong: "101", Ho: "1502",
			Type: "sale", Price: i64(60000), AreaPy: f64(34), ItemNo: "A-10"},
		{ID: "L2", Title: "한강뷰 급매", ComplexName: "한강 자이", Dong: "3", Ho: "801",
			Type: "jeonse", Deposit: i64(45000), AreaPy: f64(46.6), Urgent: true, ItemNo: "A-2"},
		{ID: "L3", Title: "오피스텔 월세", ComplexName: "강남타워",
			Type: "monthly-rent", Deposit: i64(5000), Monthly: i64(150), AreaPy: f64(15), ItemNo: "B-1"},
		{ID: "L4", Title: "closed deal", ComplexName: "래미안", Type: "sale",
			Price: i64(70000), ClosedAt: 1700000000000, ClosedByUs: true},
		{ID: "L5", Title: "partner closed", Type: "sale", Price: i64(55000), Status: "거래완료"},
		{ID: "L6", Title: "inactive row", Type: "sale", Price: i64(52000), Inactive: true},
	}
}

func ids(rows []models.Listing) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestFilterModeGate(t *testing.T) {
	rows := rosterRows()

	tests := []struct {
		name string
		mode models.ViewMode
		opts models.FilterOptions
		want []string
	}{
		{"lead bypasses everything", models.ModeLead, models.FilterOptions{}, []string{"L2", "L1", "L3", "L4", "L5", "L6"}},
		{"listings keeps active open rows, urgent first", models.ModeListings, models.FilterOptions{}, []string{"L2", "L1", "L3"}},
		{"listings with allowInactive", models.ModeListings, models.FilterOptions{AllowInactive: true}, []string{"L2", "L1", "L3", "L6"}},
		{"inactive-only roster", models.ModeListings, models.FilterOptions{ShowInactiveOnly: true}, []string{"L6"}},
		{"completed keeps closed rows", models.ModeCompleted, models.FilterOptions{}, []string{"L4", "L5"}},
		{"ourdeals keeps only our closings", models.ModeOurDeals, models.FilterOptions{}, []string{"L4"}},
	}

	for _, tt := range tests {
		got := ids(FilterAndSort(rows, models.NewListingFilters(), tt.mode, tt.opts))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestFilterAndSortIsPure(t *testing.T) {
	rows := rosterRows()
	before := make([]models.Listing, len(rows))
	copy(before, rows)

	f := models.NewListingFilters()
	f.Sort = []models.SortCriterion{{Key: models.SortPrice, Direction: models.SortDesc}}

	first := FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{})
	second := FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{})

	if !reflect.DeepEqual(rows, before) {
		t.Error("input rows were mutated")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("same inputs produced different output")
	}
}

func TestFreeTextAreaToken(t *testing.T) {
	rows := []models.Listing{
		{ID: "L1", Title: "unit a", AreaPy: f64(46.6)},
		{ID: "L2", Title: "unit b", AreaPy: f64(45.9)},
		{ID: "L3", Title: "has 47 in text", AreaPy: f64(20)},
	}

	f := models.NewListingFilters()
	f.Query = "47"
	got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	want := []string{"L1", "L3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("query %q: got %v; want %v", f.Query, got, want)
	}

	f.Query = "47평"
	got = ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	if !reflect.DeepEqual(got, []string{"L1"}) {
		t.Errorf("query %q: got %v; want [L1]", f.Query, got)
	}
}

func TestFreeTextTokensAreANDed(t *testing.T) {
	rows := rosterRows()
	f := models.NewListingFilters()

	f.Query = "래미안 101"
	got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	if !reflect.DeepEqual(got, []string{"L1"}) {
		t.Errorf("got %v; want [L1]", got)
	}

	f.Query = "래미안 없는단어"
	if n := len(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{})); n != 0 {
		t.Errorf("AND semantics violated: %d rows matched", n)
	}
}

func TestFreeTextDongHoVariantsAndPhone(t *testing.T) {
	rows := []models.Listing{
		{ID: "L1", Dong: "101", Ho: "1502", OwnerPhone: "010-1234-5678"},
		{ID: "L2", Dong: "202", Ho: "0301"},
	}
	f := models.NewListingFilters()

	for _, q := range []string{"101-1502", "101동", "1502호", "01012345678", "1234-5678"} {
		f.Query = q
		got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
		if !reflect.DeepEqual(got, []string{"L1"}) {
			t.Errorf("query %q: got %v; want [L1]", q, got)
		}
	}
}

func TestStructuredFilters(t *testing.T) {
	rows := rosterRows()

	f := models.NewListingFilters()
	f.Type = models.TxJeonse
	if got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{})); !reflect.DeepEqual(got, []string{"L2"}) {
		t.Errorf("type filter: got %v", got)
	}

	f = models.NewListingFilters()
	f.UrgentOnly = true
	if got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{})); !reflect.DeepEqual(got, []string{"L2"}) {
		t.Errorf("urgent filter: got %v", got)
	}

	f = models.NewListingFilters()
	f.AreaPick = f64(34)
	if got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{})); !reflect.DeepEqual(got, []string{"L1"}) {
		t.Errorf("area pick: got %v", got)
	}
}

// Formatting variants of a complex name must land in the same bucket.
func TestComplexMultiSelectNormalization(t *testing.T) {
	rows := []models.Listing{
		{ID: "L1", ComplexName: "한강 자이"},
		{ID: "L2", ComplexName: "래미안"},
	}

	f := models.NewListingFilters()
	f.Complexes = []string{"한강자이"}
	got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	if !reflect.DeepEqual(got, []string{"L1"}) {
		t.Errorf("got %v; want [L1]", got)
	}

	f.Complexes = []string{"한강-자이", "래미안"}
	got = ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	if !reflect.DeepEqual(got, []string{"L1", "L2"}) {
		t.Errorf("got %v; want [L1 L2]", got)
	}
}

func TestRangeFiltersLenientParsing(t *testing.T) {
	rows := rosterRows()

	f := models.NewListingFilters()
	f.PriceMin = "55,000"
	f.PriceMax = " 65,000 "
	got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	// Rows without a price pass the bound untouched; L2 leads as urgent.
	want := []string{"L2", "L1", "L3", "L5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}

	f = models.NewListingFilters()
	f.MonthlyMax = "100"
	got = ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	for _, id := range got {
		if id == "L3" {
			t.Error("monthly 150 passed a max of 100")
		}
	}

	f = models.NewListingFilters()
	f.PriceMin = "not a number"
	if n := len(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{})); n != len(rows) {
		t.Errorf("unparsable bound should be ignored, got %d rows", n)
	}
}

func TestMultiKeySortStability(t *testing.T) {
	rows := []models.Listing{
		{ID: "A", Price: i64(50000), AreaPy: f64(30)},
		{ID: "B", Price: i64(50000), AreaPy: f64(20)},
		{ID: "C", Price: i64(40000), AreaPy: f64(25)},
		{ID: "D", Price: i64(50000)}, // null area sorts first
	}

	f := models.NewListingFilters()
	f.Sort = []models.SortCriterion{
		{Key: models.SortPrice, Direction: models.SortAsc},
		{Key: models.SortArea, Direction: models.SortAsc},
	}
	got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	want := []string{"C", "D", "B", "A"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}

	// Equal on every key: input order preserved.
	f.Sort = []models.SortCriterion{{Key: models.SortPrice, Direction: models.SortAsc}}
	got = ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	want = []string{"C", "A", "B", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stability: got %v; want %v", got, want)
	}
}

func TestSecondaryWithoutPrimaryIgnored(t *testing.T) {
	rows := rosterRows()
	f := models.NewListingFilters()
	f.Sort = []models.SortCriterion{{}, {Key: models.SortPrice, Direction: models.SortAsc}}

	got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	// Falls back to the default order: urgent first, else stable.
	want := []string{"L2", "L1", "L3", "L4", "L5", "L6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}
}

func TestNaturalTextSort(t *testing.T) {
	rows := []models.Listing{
		{ID: "A", ItemNo: "A-10"},
		{ID: "B", ItemNo: "A-2"},
		{ID: "C", ItemNo: "A-1"},
	}
	f := models.NewListingFilters()
	f.Sort = []models.SortCriterion{{Key: models.SortItemNo, Direction: models.SortAsc}}

	got := ids(FilterAndSort(rows, f, models.ModeLead, models.FilterOptions{}))
	want := []string{"C", "B", "A"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}
}
