package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"teaser-gen/config"
)

// DataSource loads the sheets of one dataset.
type DataSource interface {
	Load(ctx context.Context) ([]*Sheet, error)
}

// FillContext holds the state of one run: parameters, parsed fields and the module.
type FillContext struct {
	Bundle     *config.Bundle
	Provider   config.Provider
	Source     DataSource
	Parameters map[string]string
	RunID      string

	Fields         *FieldMap
	Sheets         []SheetInfo
	Module         string
	ModuleDetected bool
}

// NewFillContext merges bundle parameters with params (params win) and evaluates
// dynamic dates. Invalid dynamic values are kept verbatim and logged.
func NewFillContext(b *config.Bundle, provider config.Provider, source DataSource, params map[string]string) *FillContext {
	merged := make(map[string]string, len(b.Parameters)+len(params))
	for k, v := range b.Parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	resolved, err := ResolveParameters(merged, time.Now())
	if err != nil {
		slog.Warn("Some parameters could not be evaluated", "error", err)
	}

	runID := uuid.NewString()
	resolved["run_id"] = runID

	return &FillContext{
		Bundle:     b,
		Provider:   provider,
		Source:     source,
		Parameters: resolved,
		RunID:      runID,
		Fields:     NewFieldMap(nil),
	}
}

// Load reads the dataset, builds the field map and selects the module. Sheets that fail
// to parse are reported in Sheets and skipped; Load fails only when nothing was parsed.
func (c *FillContext) Load(ctx context.Context) error {
	sheets, err := c.Source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	parser := NewSheetParser(c.Bundle.Fill, c.Provider)
	fields, infos, parseErr := parser.ParseWorkbook(sheets)
	c.Sheets = infos
	if parseErr != nil {
		if fields == nil || fields.Len() == 0 {
			return fmt.Errorf("failed to parse dataset: %w", parseErr)
		}
		slog.Warn("Skipped unparseable sheets", "error", parseErr)
	}
	if fields == nil || fields.Len() == 0 {
		return errors.New("dataset contains no fields")
	}
	c.Fields = fields

	if forced := c.Bundle.Fill.Module; forced != "" {
		if _, err := c.Provider.GetModule(forced); err != nil {
			return fmt.Errorf("configured module: %w", err)
		}
		c.Module = forced
	} else {
		c.Module, c.ModuleDetected = DetectModule(fields, c.Provider)
	}
	c.Parameters["module"] = c.Module

	slog.Info("Dataset loaded",
		"run", c.RunID,
		"sheets", len(infos),
		"fields", fields.Len(),
		"module", c.Module,
		"detected", c.ModuleDetected,
	)
	return nil
}

// MockDataSource is a simple implementation for testing.
type MockDataSource struct {
	Sheets []*Sheet
	Err    error
}

func (m *MockDataSource) Load(ctx context.Context) ([]*Sheet, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*Sheet, len(m.Sheets))
	for i, s := range m.Sheets {
		out[i] = s.Copy()
	}
	return out, nil
}
