package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"teaser-gen/config"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name  string
		sheet *Sheet
		want  SheetFormat
	}{
		{name: "empty", sheet: &Sheet{Rows: [][]string{{"", " "}, {}}}, want: FormatEmpty},
		{name: "label value header", sheet: &Sheet{Rows: [][]string{{"Field", "Value"}, {"Tenor", "5y"}}}, want: FormatRowBased},
		{
			name: "question list",
			sheet: &Sheet{Rows: [][]string{
				{"What is the company name?", "Acme"},
				{"Where is the project located?", "Chile"},
				{"What is the financing type?", ""},
				{"Requested tenor (years):", "7"},
			}},
			want: FormatRowBased,
		},
		{name: "header row", sheet: &Sheet{Rows: [][]string{{"Issuer", "Tenor"}, {"Acme", "5y"}}}, want: FormatColumnBased},
		{name: "data column named label", sheet: &Sheet{Rows: [][]string{{"Label", "Tenor"}, {"x", "5y"}}}, want: FormatColumnBased},
		{name: "name data pair", sheet: &Sheet{Rows: [][]string{{"Name", "Data"}, {"Tenor", "5y"}}}, want: FormatRowBased},
		{name: "wide record header", sheet: &Sheet{Rows: [][]string{{"Name", "Data", "Tenor"}, {"Acme", "x", "5y"}}}, want: FormatColumnBased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.sheet); got != tt.want {
				t.Fatalf("DetectFormat = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSheet_RowBasedKeepsEmptyValues(t *testing.T) {
	s := &Sheet{Name: "Intake", Rows: [][]string{
		{"Label", "Value"},
		{"Company Name", "Acme Solar"},
		{"Coupon Rate", ""},
		{"", "orphan"},
	}}
	p := &SheetParser{}
	got, format, err := p.ParseSheet(s)
	if err != nil {
		t.Fatalf("ParseSheet error: %v", err)
	}
	if format != FormatRowBased {
		t.Fatalf("format = %v, want row-based", format)
	}
	want := map[string]string{"company name": "Acme Solar", "coupon rate": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseSheet mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSheet_ColumnBased(t *testing.T) {
	s := &Sheet{Name: "Terms", Rows: [][]string{
		{"", ""},
		{"Tenor", "Coupon Rate"},
		{"", ""},
		{"7 years", "6.5%"},
	}}
	got, format, err := (&SheetParser{}).ParseSheet(s)
	if err != nil {
		t.Fatalf("ParseSheet error: %v", err)
	}
	if format != FormatColumnBased {
		t.Fatalf("format = %v, want column-based", format)
	}
	if got["tenor"] != "7 years" || got["coupon rate"] != "6.5%" {
		t.Fatalf("fields = %v", got)
	}
}

func TestParseSheet_RecordTableUsesFirstRecord(t *testing.T) {
	s := &Sheet{Name: "records", Rows: [][]string{{"Company Legal Name", "Primary Industry", "Coupon Rate"}}}
	for i := 0; i < 600; i++ {
		s.Rows = append(s.Rows, []string{fmt.Sprintf("Issuer %d", i), "Solar", "6.5%"})
	}

	got, format, err := (&SheetParser{MaxFields: config.DefaultMaxFields}).ParseSheet(s)
	if err != nil {
		t.Fatalf("ParseSheet error: %v", err)
	}
	if format != FormatColumnBased {
		t.Fatalf("format = %v, want column-based", format)
	}
	want := map[string]string{
		"company legal name": "Issuer 0",
		"primary industry":   "Solar",
		"coupon rate":        "6.5%",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseSheet mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSheet_NarrowHeaderKeepsRowPass(t *testing.T) {
	s := &Sheet{Name: "Terms", Rows: [][]string{
		{"Tenor", "7 years"},
		{"Coupon Rate", "6.5%"},
	}}
	got, format, err := (&SheetParser{}).ParseSheet(s)
	if err != nil {
		t.Fatalf("ParseSheet error: %v", err)
	}
	if format != FormatColumnBased {
		t.Fatalf("format = %v, want column-based", format)
	}
	if got["coupon rate"] != "6.5%" {
		t.Fatalf("coupon rate = %q, want 6.5%% from the row pass", got["coupon rate"])
	}
}

func TestParseSheet_StructuralErrors(t *testing.T) {
	wide := &Sheet{Name: "Dump"}
	header, data := []string{}, []string{}
	for i := 0; i < 20; i++ {
		header = append(header, fmt.Sprintf("col %d", i))
		data = append(data, "x")
	}
	wide.Rows = [][]string{header, data}

	_, _, err := (&SheetParser{MaxFields: 10}).ParseSheet(wide)
	if !errors.Is(err, ErrDegenerateSheet) {
		t.Fatalf("err = %v, want ErrDegenerateSheet", err)
	}
	var sheetErr *SheetError
	if !errors.As(err, &sheetErr) || sheetErr.Sheet != "Dump" {
		t.Fatalf("err = %#v, want *SheetError for Dump", err)
	}

	_, _, err = (&SheetParser{}).ParseSheet(&Sheet{Name: "Rules", Rows: [][]string{{"---", "***"}, {"--", "=="}}})
	if !errors.Is(err, ErrNoStructure) {
		t.Fatalf("err = %v, want ErrNoStructure", err)
	}
}

func TestParseWorkbook(t *testing.T) {
	sheets := []*Sheet{
		{Name: "Company", Rows: [][]string{{"Label", "Value"}, {"Company Legal Name", "Acme Solar"}, {"Tenor", "5 years"}}},
		{Name: "Broken", Rows: [][]string{{"---", "***"}}},
		{Name: "Deal", Rows: [][]string{{"Label", "Value"}, {"Tenor", "7 years"}}},
		{Name: "Notes", Rows: [][]string{{"Summary"}, {"Primary Industry:", "Renewables"}}},
	}
	provider := config.NewRegistryFromBundle(config.DefaultBundle())
	p := NewSheetParser(config.FillConfig{Namespacing: true}, provider)

	fields, infos, err := p.ParseWorkbook(sheets)
	if !errors.Is(err, ErrNoStructure) {
		t.Fatalf("err = %v, want ErrNoStructure for the broken sheet", err)
	}
	if len(infos) != 4 || infos[1].Err == nil {
		t.Fatalf("infos = %+v", infos)
	}

	checks := map[string]string{
		"company legal name": "Acme Solar",
		"tenor":              "7 years",
		"company.tenor":      "5 years",
		"deal.tenor":         "7 years",
		"primary industry":   "Renewables",
	}
	for key, want := range checks {
		if got, ok := fields.Get(key); !ok || got != want {
			t.Errorf("fields[%q] = %q (%v), want %q", key, got, ok, want)
		}
	}
	if v, ok := fields.Lookup("Company.Tenor"); !ok || v != "5 years" {
		t.Errorf("Lookup(Company.Tenor) = %q, want 5 years", v)
	}
}

func TestParseWorkbook_SearchDisabled(t *testing.T) {
	off := false
	provider := config.NewRegistryFromBundle(config.DefaultBundle())
	p := NewSheetParser(config.FillConfig{SearchLabels: &off}, provider)
	if len(p.SearchLabels) != 0 {
		t.Fatalf("SearchLabels = %v, want none", p.SearchLabels)
	}
}
