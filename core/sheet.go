package core

import (
	"fmt"
	"sort"
	"strings"
)

// Sheet is a grid of cell text as read from a dataset source.
type Sheet struct {
	Name string
	Rows [][]string
}

// SheetCell is one non-empty cell seen while scanning a sheet.
type SheetCell struct {
	Sheet string
	Row   int
	Col   int
	Value string
}

// Cell returns the trimmed text at (row, col), or "" when out of range.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.Rows[row][col])
}

// IsEmpty reports whether every cell is blank.
func (s *Sheet) IsEmpty() bool {
	for _, row := range s.Rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
	}
	return true
}

// Cells returns the non-empty cells in row-major order.
func (s *Sheet) Cells() []SheetCell {
	var cells []SheetCell
	for r, row := range s.Rows {
		for c := range row {
			if v := s.Cell(r, c); v != "" {
				cells = append(cells, SheetCell{Sheet: s.Name, Row: r, Col: c, Value: v})
			}
		}
	}
	return cells
}

// Copy returns a deep copy so callers can filter without touching the source.
func (s *Sheet) Copy() *Sheet {
	rows := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rows[i] = append([]string(nil), row...)
	}
	return &Sheet{Name: s.Name, Rows: rows}
}

// Filter keeps the header row and the data rows whose columns equal every param.
// Params naming a column the sheet does not have are ignored.
func (s *Sheet) Filter(params map[string]string) *Sheet {
	out := s.Copy()
	if len(params) == 0 || len(out.Rows) == 0 {
		return out
	}

	header := out.Rows[0]
	cols := make(map[int]string)
	for k, v := range params {
		for i, h := range header {
			if NormalizeLabel(h) == NormalizeLabel(k) {
				cols[i] = v
			}
		}
	}
	if len(cols) == 0 {
		return out
	}

	filtered := [][]string{header}
	for _, row := range out.Rows[1:] {
		match := true
		for i, want := range cols {
			got := ""
			if i < len(row) {
				got = strings.TrimSpace(row[i])
			}
			if got != want {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, row)
		}
	}
	out.Rows = filtered
	return out
}

// recordsToSheet lays out records as a header row plus one row per record.
// Column order follows columns when given, otherwise sorted keys.
func recordsToSheet(name string, columns []string, records []map[string]interface{}) *Sheet {
	if columns == nil {
		seen := make(map[string]struct{})
		for _, rec := range records {
			for k := range rec {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}

	rows := [][]string{append([]string(nil), columns...)}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := rec[col]; ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		rows = append(rows, row)
	}
	return &Sheet{Name: name, Rows: rows}
}
