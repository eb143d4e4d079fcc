package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CsvSource loads a dataset from CSV. Path is a single file or a directory whose
// .csv files each become one sheet, named after the file.
type CsvSource struct {
	Path   string
	Params map[string]string
}

func NewCsvSource(path string, params map[string]string) *CsvSource {
	return &CsvSource{Path: path, Params: params}
}

func (s *CsvSource) Load(ctx context.Context) ([]*Sheet, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv source %s: %w", s.Path, err)
	}

	files := []string{s.Path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(s.Path, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("failed to list csv files: %w", err)
		}
		sort.Strings(files)
	}

	var sheets []*Sheet
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet, err := readCsvSheet(path)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet.Filter(s.Params))
	}
	return sheets, nil
}

func readCsvSheet(path string) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv content: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Sheet{Name: name, Rows: records}, nil
}
