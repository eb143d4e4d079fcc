package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"teaser-gen/config"
)

type SheetFormat string

const (
	FormatRowBased    SheetFormat = "row-based"
	FormatColumnBased SheetFormat = "column-based"
	FormatEmpty       SheetFormat = "empty"
)

var (
	// ErrNoStructure marks a non-empty sheet without any usable label or header cells.
	ErrNoStructure = errors.New("no label/value or header/value structure found")
	// ErrDegenerateSheet marks a sheet producing more fields than the configured limit.
	ErrDegenerateSheet = errors.New("sheet yields too many fields")
)

// SheetError reports a structural parse failure for one sheet.
type SheetError struct {
	Sheet  string
	Fields int
	Err    error
}

func (e *SheetError) Error() string {
	if errors.Is(e.Err, ErrDegenerateSheet) {
		return fmt.Sprintf("sheet %q: %v (%d fields)", e.Sheet, e.Err, e.Fields)
	}
	return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error { return e.Err }

// SheetInfo is the per-sheet parse report.
type SheetInfo struct {
	Name   string
	Format SheetFormat
	Fields int
	Err    error
}

var (
	labelHeaders = map[string]bool{"label": true, "field": true, "key": true, "name": true, "question": true, "item": true}
	valueHeaders = map[string]bool{"value": true, "answer": true, "data": true, "response": true, "content": true}
)

// SheetParser flattens sheets into a FieldMap.
type SheetParser struct {
	Namespacing bool
	MaxFields   int
	// SearchLabels are looked up anywhere in the workbook when still missing after parsing.
	SearchLabels []string
}

// NewSheetParser configures a parser from the fill settings. Module labels from the
// provider become search labels when the search pass is enabled.
func NewSheetParser(fill config.FillConfig, provider config.Provider) *SheetParser {
	p := &SheetParser{Namespacing: fill.Namespacing, MaxFields: fill.MaxFields}
	if provider == nil || !fill.SearchLabelsEnabled() {
		return p
	}
	seen := make(map[string]bool)
	for _, module := range provider.ModuleNames() {
		m, err := provider.GetModule(module)
		if err != nil {
			continue
		}
		for _, b := range m.Tags {
			for _, l := range b.Labels {
				key := NormalizeLabel(l)
				if key != "" && !seen[key] {
					seen[key] = true
					p.SearchLabels = append(p.SearchLabels, key)
				}
			}
		}
	}
	return p
}

func headerRow(s *Sheet) int {
	for r, row := range s.Rows {
		for c := range row {
			if s.Cell(r, c) != "" {
				return r
			}
		}
	}
	return -1
}

func rowWidth(s *Sheet, row int) int {
	if row < 0 || row >= len(s.Rows) {
		return 0
	}
	n := 0
	for c := range s.Rows[row] {
		if s.Cell(row, c) != "" {
			n++
		}
	}
	return n
}

// isLabelValueHeader reports a two-cell label/value header such as "Field | Value".
// Wider rows are record headers even when they start with "Name, Data".
func isLabelValueHeader(s *Sheet, row int) bool {
	return rowWidth(s, row) == 2 &&
		labelHeaders[NormalizeLabel(s.Cell(row, 0))] && valueHeaders[NormalizeLabel(s.Cell(row, 1))]
}

func looksLikeLabel(text string) bool {
	return len(text) > 10 && strings.ContainsAny(text, " :?")
}

// DetectFormat classifies a sheet as row-based (label column, value column) or column-based
// (header row, data row).
func DetectFormat(s *Sheet) SheetFormat {
	h := headerRow(s)
	if h < 0 {
		return FormatEmpty
	}
	if isLabelValueHeader(s, h) {
		return FormatRowBased
	}

	// Headerless label/value sheets: long question-like texts down the first column.
	labelLike, seen, hasValues := 0, 0, false
	for r := h; r < len(s.Rows) && seen < 5; r++ {
		first := s.Cell(r, 0)
		if first == "" {
			continue
		}
		seen++
		if looksLikeLabel(first) {
			labelLike++
		}
		if s.Cell(r, 1) != "" {
			hasValues = true
		}
	}
	if labelLike >= 3 && hasValues {
		return FormatRowBased
	}
	return FormatColumnBased
}

// ParseRowBased reads label/value pairs down the first two columns, starting at row start.
// A label/value header row is skipped. Blank values are kept as "".
func ParseRowBased(s *Sheet, start int) map[string]string {
	fields := make(map[string]string)
	for r := start; r < len(s.Rows); r++ {
		if isLabelValueHeader(s, r) {
			continue
		}
		key := NormalizeLabel(s.Cell(r, 0))
		if key == "" {
			continue
		}
		fields[key] = s.Cell(r, 1)
	}
	return fields
}

// ParseColumnBased pairs each header cell with the same column of the first data row.
func ParseColumnBased(s *Sheet) map[string]string {
	fields := make(map[string]string)
	h := headerRow(s)
	if h < 0 {
		return fields
	}
	data := -1
	for r := h + 1; r < len(s.Rows) && data < 0; r++ {
		for c := range s.Rows[r] {
			if s.Cell(r, c) != "" {
				data = r
				break
			}
		}
	}
	for c := range s.Rows[h] {
		key := NormalizeLabel(s.Cell(h, c))
		if key == "" {
			continue
		}
		fields[key] = s.Cell(data, c)
	}
	return fields
}

// ParseSheet applies the hybrid strategy to one sheet. Row-based entries win over
// column-based entries with the same key.
func (p *SheetParser) ParseSheet(s *Sheet) (map[string]string, SheetFormat, error) {
	format := DetectFormat(s)
	fields := make(map[string]string)

	switch format {
	case FormatEmpty:
		return fields, format, nil
	case FormatColumnBased:
		for k, v := range ParseColumnBased(s) {
			fields[k] = v
		}
		// Rows of a record table are records, not label/value pairs.
		if rowWidth(s, headerRow(s)) <= 2 {
			for k, v := range ParseRowBased(s, headerRow(s)+1) {
				fields[k] = v
			}
		}
	case FormatRowBased:
		for k, v := range ParseRowBased(s, 0) {
			fields[k] = v
		}
	}

	if len(fields) == 0 {
		return nil, format, &SheetError{Sheet: s.Name, Err: ErrNoStructure}
	}
	if p.MaxFields > 0 && len(fields) > p.MaxFields {
		return nil, format, &SheetError{Sheet: s.Name, Fields: len(fields), Err: ErrDegenerateSheet}
	}
	return fields, format, nil
}

// ParseWorkbook parses every sheet and merges the results, later sheets winning.
// Structural failures are reported per sheet and joined into the returned error;
// the FieldMap still holds the fields of the healthy sheets.
func (p *SheetParser) ParseWorkbook(sheets []*Sheet) (*FieldMap, []SheetInfo, error) {
	b := newFieldMapBuilder()
	infos := make([]SheetInfo, 0, len(sheets))
	var healthy []*Sheet
	var errs []error

	for _, s := range sheets {
		info := SheetInfo{Name: s.Name}
		fields, format, err := p.ParseSheet(s)
		info.Format = format
		if err != nil {
			info.Err = err
			errs = append(errs, err)
			infos = append(infos, info)
			slog.Warn("Sheet skipped", "sheet", s.Name, "format", format, "error", err)
			continue
		}
		info.Fields = len(fields)
		infos = append(infos, info)
		if format == FormatEmpty {
			slog.Debug("Sheet empty", "sheet", s.Name)
			continue
		}

		b.merge(fields)
		if p.Namespacing {
			for k, v := range fields {
				b.set(namespacedKey(s.Name, k), v)
			}
		}
		healthy = append(healthy, s)
		slog.Debug("Sheet parsed", "sheet", s.Name, "format", format, "fields", len(fields))
	}

	if found := p.searchLabels(b, healthy); found > 0 {
		slog.Debug("Module labels found by search", "count", found)
	}

	return b.build(), infos, errors.Join(errs...)
}

// searchLabels fills still-missing search labels from the cell to the right of any cell
// whose text matches the label.
func (p *SheetParser) searchLabels(b *fieldMapBuilder, sheets []*Sheet) int {
	found := 0
	for _, label := range p.SearchLabels {
		if b.has(label) {
			continue
		}
	search:
		for _, s := range sheets {
			for _, cell := range s.Cells() {
				text := NormalizeLabel(cell.Value)
				if text != label && !(len(label) > 5 && strings.Contains(text, label)) {
					continue
				}
				if v := s.Cell(cell.Row, cell.Col+1); v != "" {
					b.set(label, v)
					found++
					break search
				}
			}
		}
	}
	return found
}
