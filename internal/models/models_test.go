package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineType_IsValid(t *testing.T) {
	tests := []struct {
		lineType LineType
		want     bool
	}{
		{LineTypeSale, true},
		{LineTypePayment, true},
		{"Discount", false},
		{"sale line", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.lineType), func(t *testing.T) {
			if got := tt.lineType.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewProductKey(t *testing.T) {
	long := strings.Repeat("x", 60)
	arabic := strings.Repeat("ز", 55)

	tests := []struct {
		name        string
		sku         string
		description string
		want        ProductKey
	}{
		{"sku wins", "A1", "Brake pad", "A1"},
		{"description fallback", "", "Brake pad", "Brake pad"},
		{"description truncated", "", long, ProductKey(long[:50])},
		{"truncation counts characters", "", arabic, ProductKey([]rune(arabic)[:50])},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewProductKey(tt.sku, tt.description, MaxDescriptionKeyLength); got != tt.want {
				t.Errorf("NewProductKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range Categories {
		if !c.IsValid() {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if Category("PARTS").IsValid() {
		t.Error("expected unknown category to be invalid")
	}
	if len(Categories) != 6 {
		t.Errorf("expected 6 buckets, got %d", len(Categories))
	}
}

func TestProductSummary_Add(t *testing.T) {
	s := NewProductSummary("A1", "Jan 5, 2025", "Brake pad", CategoryOEM, "Main")
	if !s.Quantity.IsZero() || !s.Sales.IsZero() {
		t.Fatal("expected zeroed totals on creation")
	}

	s.Add(decimal.NewFromInt(2), decimal.RequireFromString("13.04"), decimal.NewFromInt(100), decimal.NewFromInt(100))
	s.Add(decimal.NewFromInt(3), decimal.RequireFromString("19.57"), decimal.NewFromInt(150), decimal.Zero)

	if !s.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected quantity 5, got %s", s.Quantity)
	}
	if !s.Tax.Equal(decimal.RequireFromString("32.61")) {
		t.Errorf("expected tax 32.61, got %s", s.Tax)
	}
	if !s.Sales.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected sales 250, got %s", s.Sales)
	}
	if !s.PostPaid.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected post-paid 100, got %s", s.PostPaid)
	}
}

func TestProductSummary_Row(t *testing.T) {
	s := NewProductSummary("A1", "Jan 5, 2025", "Brake pad", CategoryOEM, "Main")
	s.Add(decimal.NewFromInt(2), decimal.RequireFromString("1.5"), decimal.RequireFromString("11.5"), decimal.Zero)

	row := s.Row()
	if len(row) != 9 {
		t.Fatalf("expected 9 fields, got %d", len(row))
	}
	if row[0] != "Jan 5, 2025" || row[1] != "Brake pad" || row[2] != "A1" || row[3] != "OEM" || row[4] != "Main" {
		t.Errorf("unexpected descriptive fields: %v", row[:5])
	}
	if row[5] != 2.0 || row[6] != 1.5 || row[7] != 11.5 || row[8] != 0.0 {
		t.Errorf("unexpected numeric fields: %v", row[5:])
	}
}

func TestProductSummary_UnitPrice(t *testing.T) {
	s := NewProductSummary("A1", "", "", CategoryShop, "")
	s.Add(decimal.NewFromInt(4), decimal.Zero, decimal.NewFromInt(10), decimal.Zero)
	if !s.UnitPrice().Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected unit price 2.5, got %s", s.UnitPrice())
	}

	free := NewProductSummary("B", "", "", CategoryShop, "")
	free.Add(decimal.Zero, decimal.Zero, decimal.NewFromInt(7), decimal.Zero)
	if !free.UnitPrice().Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected unit price to fall back to sales, got %s", free.UnitPrice())
	}
}

func TestCategoryGroups(t *testing.T) {
	groups := NewCategoryGroups()
	for _, c := range Categories {
		if items := groups.Items(c); items == nil || len(items) != 0 {
			t.Errorf("expected empty non-nil bucket for %s", c)
		}
	}

	groups.Append(NewProductSummary("A", "", "", CategoryTyre, ""))
	groups.Append(NewProductSummary("B", "", "", Category("USED"), ""))

	if len(groups.Items(CategoryTyre)) != 1 {
		t.Error("expected summary in TYRE bucket")
	}
	if len(groups.Items(CategoryMisc)) != 1 {
		t.Error("expected unknown category to fall back to MISC")
	}
	if groups.Len() != 2 {
		t.Errorf("expected 2 summaries, got %d", groups.Len())
	}
	if len(groups.Map()) != 6 {
		t.Errorf("expected 6 keys in map, got %d", len(groups.Map()))
	}
}

func TestTotals(t *testing.T) {
	a := NewProductSummary("A", "", "", CategoryOEM, "")
	a.Add(decimal.NewFromInt(1), decimal.RequireFromString("0.1"), decimal.RequireFromString("0.2"), decimal.Zero)
	b := NewProductSummary("B", "", "", CategoryOEM, "")
	b.Add(decimal.NewFromInt(2), decimal.RequireFromString("0.2"), decimal.RequireFromString("0.1"), decimal.RequireFromString("0.1"))

	forward := Totals{}.Add(a).Add(b)
	backward := Totals{}.Add(b).Add(a)
	if !forward.Equal(backward) {
		t.Errorf("expected order-independent totals, got %+v and %+v", forward, backward)
	}
	if !forward.Sales.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("expected exact 0.3, got %s", forward.Sales)
	}

	merged := Totals{}.Add(a).Merge(Totals{}.Add(b))
	if !merged.Equal(forward) {
		t.Errorf("expected merged totals to equal folded totals")
	}
}
