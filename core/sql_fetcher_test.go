package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSQLSource_BuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		source   SQLSource
		wantSQL  string
		wantArgs []interface{}
		wantErr  bool
	}{
		{
			name:    "table without filters",
			source:  SQLSource{DriverName: "mysql", Table: "intake"},
			wantSQL: "SELECT * FROM intake",
		},
		{
			name:     "mysql placeholders",
			source:   SQLSource{DriverName: "mysql", Table: "crm.deals", Params: map[string]string{"region": "EMEA", "deal_id": "D1"}},
			wantSQL:  "SELECT * FROM crm.deals WHERE deal_id = ? AND region = ?",
			wantArgs: []interface{}{"D1", "EMEA"},
		},
		{
			name:     "postgres placeholders",
			source:   SQLSource{DriverName: "postgres", Table: "deals", Params: map[string]string{"region": "EMEA", "deal_id": "D1"}},
			wantSQL:  "SELECT * FROM deals WHERE deal_id = $1 AND region = $2",
			wantArgs: []interface{}{"D1", "EMEA"},
		},
		{
			name:     "query wrapped as subselect",
			source:   SQLSource{DriverName: "postgres", Query: "select name, value from answers;", Params: map[string]string{"deal_id": "D1"}},
			wantSQL:  "SELECT * FROM (select name, value from answers) AS src WHERE deal_id = $1",
			wantArgs: []interface{}{"D1"},
		},
		{
			name:    "table injection rejected",
			source:  SQLSource{DriverName: "mysql", Table: "deals; DROP TABLE x"},
			wantErr: true,
		},
		{
			name:    "filter column injection rejected",
			source:  SQLSource{DriverName: "mysql", Table: "deals", Params: map[string]string{"1=1 OR a": "x"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs, err := tt.source.buildQuery()
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildQuery error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if gotSQL != tt.wantSQL {
				t.Fatalf("sql = %q, want %q", gotSQL, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, gotArgs); diff != "" {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordsToSheet(t *testing.T) {
	got := recordsToSheet("deals", nil, []map[string]interface{}{
		{"tenor": "5 years", "issuer": "Acme"},
		{"issuer": "Globex", "amount": 1200000},
	})
	want := &Sheet{Name: "deals", Rows: [][]string{
		{"amount", "issuer", "tenor"},
		{"", "Acme", "5 years"},
		{"1200000", "Globex", ""},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("recordsToSheet mismatch (-want +got):\n%s", diff)
	}
}
