package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// Workbook abstracts the read operations the parser needs from excelize.
type Workbook interface {
	Close() error
	GetSheetList() []string
	GetRows(sheet string) ([][]string, error)
}

type ExcelizeWorkbook struct {
	file *excelize.File
}

func openWorkbook(path string) (Workbook, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &ExcelizeWorkbook{file: file}, nil
}

func (e *ExcelizeWorkbook) Close() error {
	return e.file.Close()
}

func (e *ExcelizeWorkbook) GetSheetList() []string {
	return e.file.GetSheetList()
}

func (e *ExcelizeWorkbook) GetRows(sheet string) ([][]string, error) {
	return e.file.GetRows(sheet)
}

// ReadSheets copies every sheet of wb into memory, in workbook order.
func ReadSheets(wb Workbook) ([]*Sheet, error) {
	var sheets []*Sheet
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheets = append(sheets, &Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// XlsxSource loads a dataset from an .xlsx workbook.
type XlsxSource struct {
	Path string
}

func NewXlsxSource(path string) *XlsxSource {
	return &XlsxSource{Path: path}
}

func (s *XlsxSource) Load(ctx context.Context) (sheets []*Sheet, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wb, err := openWorkbook(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.Path, err)
	}
	defer func(wb Workbook) {
		if closeErr := wb.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("failed to close workbook: %w", closeErr)
			} else {
				err = fmt.Errorf("%w; (cleanup error: %v)", err, closeErr)
			}
		}
	}(wb)

	sheets, err = ReadSheets(wb)
	if err != nil {
		return nil, err
	}
	slog.Debug("Workbook loaded", "path", s.Path, "sheets", len(sheets))
	return sheets, nil
}
