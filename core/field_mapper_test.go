package core

import (
	"math"
	"testing"

	"teaser-gen/config"
)

func defaultProvider() config.Provider {
	return config.NewRegistryFromBundle(config.DefaultBundle())
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"coupon rate", "coupon rate", 1},
		{"", "", 1},
		{"kitten", "sitting", 1 - 3.0/7},
		{"coupon rate", "coupon rates", 1 - 1.0/12},
		{"abc", "", 0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBestMatch_TiesKeepFirst(t *testing.T) {
	key, _, ok := bestMatch([]string{"tenor"}, []string{"tenors", "tenorx"}, 0.6)
	if !ok || key != "tenors" {
		t.Fatalf("bestMatch = %q, %v; want tenors", key, ok)
	}
	if _, _, ok := bestMatch([]string{"tenor"}, []string{"issuer"}, 0.6); ok {
		t.Fatalf("bestMatch matched below threshold")
	}
}

func TestFieldMapper_ResolveTag(t *testing.T) {
	mapper := NewFieldMapper(defaultProvider(), 0)
	if mapper.Threshold != config.DefaultFuzzyThreshold {
		t.Fatalf("Threshold = %v, want default", mapper.Threshold)
	}

	tests := []struct {
		name   string
		tag    string
		module string
		fields map[string]string
		want   string
		wantOK bool
	}{
		{
			name: "module label", tag: "ISSUER", module: "Module2",
			fields: map[string]string{"Company Legal Name": "Acme Solar", "Sponsor Name": "Sponsor Co"},
			want:   "Acme Solar", wantOK: true,
		},
		{
			name: "lower case tag", tag: "issuer", module: "Module1",
			fields: map[string]string{"Sponsor Name": "Sponsor Co"},
			want:   "Sponsor Co", wantOK: true,
		},
		{
			name: "alias", tag: "ISSUER", module: "Module3",
			fields: map[string]string{"Borrower": "Globex"},
			want:   "Globex", wantOK: true,
		},
		{
			name: "fuzzy", tag: "COUPON_RATE", module: "Module1",
			fields: map[string]string{"Coupon Rates": "6.5%"},
			want:   "6.5%", wantOK: true,
		},
		{
			name: "no module uses every module", tag: "INDUSTRY",
			fields: map[string]string{"Project Type": "Solar"},
			want:   "Solar", wantOK: true,
		},
		{
			name: "extended tag", tag: "OFFTAKER", module: "Module3",
			fields: map[string]string{"Power Purchaser": "State Utility"},
			want:   "State Utility", wantOK: true,
		},
		{
			name: "missing", tag: "TENOR", module: "Module2",
			fields: map[string]string{"Unrelated": "x"},
		},
		{
			name: "empty fields", tag: "TENOR", module: "Module2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mapper.ResolveTag(tt.tag, NewFieldMap(tt.fields), tt.module)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("ResolveTag(%s) = %q, %v; want %q, %v", tt.tag, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDetectModule(t *testing.T) {
	provider := defaultProvider()

	tests := []struct {
		name   string
		fields map[string]string
		want   string
		wantOK bool
	}{
		{
			name:   "company form",
			fields: map[string]string{"Company Legal Name": "Acme", "Primary Industry": "Solar", "Coupon Rate": "6%"},
			want:   "Module2", wantOK: true,
		},
		{
			name:   "project form",
			fields: map[string]string{"Project Name": "Sol", "Project Type": "Solar", "Project Tenor": "18y", "Coupon Rate": "6%"},
			want:   "Module3", wantOK: true,
		},
		{
			name:   "tie goes to first declared",
			fields: map[string]string{"Coupon Rate": "6%"},
			want:   "Module1", wantOK: true,
		},
		{
			name:   "nothing matches",
			fields: map[string]string{"Favourite Colour": "blue"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectModule(NewFieldMap(tt.fields), provider)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("DetectModule = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDetectModule_IndependentOfSheetOrder(t *testing.T) {
	provider := defaultProvider()
	a := &Sheet{Name: "A", Rows: [][]string{{"Label", "Value"}, {"Company Legal Name", "Acme"}, {"Primary Industry", "Solar"}}}
	b := &Sheet{Name: "B", Rows: [][]string{{"Label", "Value"}, {"Project Name", "Sol"}, {"Project Type", "Solar"}}}
	c := &Sheet{Name: "C", Rows: [][]string{{"Label", "Value"}, {"Financing Type", "Bond"}, {"Requested Tenor", "7y"}}}

	orders := [][]*Sheet{{a, b, c}, {c, b, a}, {b, a, c}}
	var first string
	for i, order := range orders {
		fields, _, err := (&SheetParser{}).ParseWorkbook(order)
		if err != nil {
			t.Fatalf("ParseWorkbook error: %v", err)
		}
		got, _ := DetectModule(fields, provider)
		if i == 0 {
			first = got
			continue
		}
		if got != first {
			t.Fatalf("order %d detected %q, first order detected %q", i, got, first)
		}
	}
	if first != "Module2" {
		t.Fatalf("detected %q, want Module2", first)
	}
}
