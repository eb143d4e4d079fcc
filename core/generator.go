package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DeckGenerator fills one template with the dataset of a FillContext.
type DeckGenerator struct {
	Context   *FillContext
	Generator TextGenerator
	// Progress, when set, receives per-frame progress.
	Progress func(done, total int)
}

func NewDeckGenerator(ctx *FillContext, generator TextGenerator) *DeckGenerator {
	return &DeckGenerator{Context: ctx, Generator: generator}
}

// GenerateResult describes a written deck.
type GenerateResult struct {
	OutputPath string
	Module     string
	RunID      string
	Stats      FillStats
}

// replacePlaceholders substitutes ${name} with params. Longer names are replaced
// first so ${date_long} is not clobbered by ${date}.
func replacePlaceholders(input string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	output := input
	for _, k := range keys {
		output = strings.ReplaceAll(output, "${"+k+"}", params[k])
	}
	return output
}

// OutputPath returns where the filled deck is written below outputRoot.
func (g *DeckGenerator) OutputPath(outputRoot string) string {
	out := g.Context.Bundle.Output
	name := replacePlaceholders(out.Name, g.Context.Parameters)
	if filepath.Ext(name) == "" {
		name += ".pptx"
	}
	return filepath.Join(outputRoot, replacePlaceholders(out.Dir, g.Context.Parameters), name)
}

// Generate fills the template at templatePath and saves the result. Frames that could not
// be updated are reported in the error after the deck is saved.
func (g *DeckGenerator) Generate(ctx context.Context, templatePath, outputRoot string) (res *GenerateResult, err error) {
	fc := g.Context
	outputPath := g.OutputPath(outputRoot)

	deck, err := OpenDeck(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer func(d *PptxDeck) {
		if closeErr := d.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("failed to close template file: %w", closeErr)
			} else {
				err = fmt.Errorf("%w; (cleanup error: %v)", err, closeErr)
			}
		}
	}(deck)

	filler := NewFiller(fc.Fields, fc.Module, fc.Provider, fc.Bundle.Fill, g.Generator)
	filler.Progress = g.Progress
	stats, fillErr := filler.Fill(ctx, deck)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("fill interrupted: %w", ctxErr)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := deck.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("failed to save output: %w", err)
	}
	slog.Info("Deck written", "path", outputPath, "slides", deck.SlideCount(), "run", fc.RunID)

	res = &GenerateResult{OutputPath: outputPath, Module: fc.Module, RunID: fc.RunID, Stats: stats}
	if fillErr != nil {
		return res, fmt.Errorf("some frames could not be updated: %w", fillErr)
	}
	return res, nil
}
