package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"teaser-gen/config"
)

// TextEdit replaces the byte range [Start, End) of a frame's text.
type TextEdit struct {
	Start int
	End   int
	Text  string
}

// TextFrame is one editable text container: a shape, a grouped shape or a table cell.
type TextFrame interface {
	// Text returns the frame text, paragraphs separated by "\n".
	Text() string
	// ReplaceSpans applies non-overlapping edits. Each replacement takes the style of the
	// first run of its span.
	ReplaceSpans(edits []TextEdit) error
}

// Deck exposes the text frames of a presentation in slide order.
type Deck interface {
	Frames() []TextFrame
}

// FillStats summarises one fill.
type FillStats struct {
	Frames        int
	FramesChanged int
	Direct        int
	Tags          int
	AIGenerated   int
	AIBlocked     int
	Unresolved    int
}

// Filler resolves every placeholder of a deck.
type Filler struct {
	Fields         *FieldMap
	Module         string
	Mapper         *FieldMapper
	Resolver       *PromptResolver
	Generator      TextGenerator
	Tone           config.Tone
	MissingToBlank bool
	Threshold      float64
	// Progress, when set, is called after each frame.
	Progress func(done, total int)
}

// NewFiller wires a filler for one dataset.
func NewFiller(fields *FieldMap, module string, provider config.Provider, fill config.FillConfig, generator TextGenerator) *Filler {
	mapper := NewFieldMapper(provider, fill.FuzzyThreshold)
	return &Filler{
		Fields:         fields,
		Module:         module,
		Mapper:         mapper,
		Resolver:       &PromptResolver{Fields: fields, Mapper: mapper, Module: module, Threshold: mapper.Threshold},
		Generator:      generator,
		Tone:           fill.Tone,
		MissingToBlank: fill.MissingToBlank,
		Threshold:      mapper.Threshold,
	}
}

func (f *Filler) missing(format, name string) string {
	if f.MissingToBlank {
		return ""
	}
	return fmt.Sprintf(format, name)
}

func (f *Filler) isKnownTag(name string) bool {
	return f.Mapper != nil && f.Mapper.Provider.IsKnownTag(name)
}

func (f *Filler) resolveDirect(name string) (string, bool) {
	if v, ok := f.Fields.Lookup(name); ok {
		return v, true
	}
	if tag := strings.ToUpper(strings.Join(strings.Fields(name), "_")); isUpperTag(name) && f.isKnownTag(tag) {
		if v, ok := f.Mapper.ResolveTag(tag, f.Fields, f.Module); ok {
			return v, true
		}
	}
	if key, _, ok := bestMatch([]string{NormalizeLabel(name)}, f.Fields.Keys(), f.Threshold); ok {
		return f.Fields.Get(key)
	}
	return "", false
}

// Resolve renders one placeholder. It never fails: missing data becomes a marker.
func (f *Filler) Resolve(ctx context.Context, p Placeholder, stats *FillStats) string {
	switch p.Kind {
	case KindDirect:
		if v, ok := f.resolveDirect(p.Key); ok {
			stats.Direct++
			return v
		}
		stats.Unresolved++
		slog.Warn("Direct placeholder unresolved", "name", p.Key)
		return f.missing("[MISSING COLUMN: %s]", p.Key)

	case KindTag:
		if v, ok := f.Mapper.ResolveTag(p.Key, f.Fields, f.Module); ok {
			stats.Tags++
			return v
		}
		stats.Unresolved++
		slog.Warn("Tag placeholder unresolved", "tag", p.Key, "module", f.Module)
		return f.missing("[MISSING FIELD: %s]", p.Key)

	case KindAIPrompt:
		result := f.Resolver.Resolve(p.Key)
		if !result.OK() {
			stats.AIBlocked++
			slog.Warn("AI placeholder blocked", "error", result.Err())
			return result.Marker()
		}
		stats.AIGenerated++
		return f.Generator.Generate(ctx, result.Prompt, f.Fields, f.Tone)
	}
	return ""
}

// FillText resolves the placeholders of one text and returns the edits to apply.
func (f *Filler) FillText(ctx context.Context, text string, stats *FillStats) []TextEdit {
	var edits []TextEdit
	for _, p := range FindPlaceholders(text, f.isKnownTag) {
		edits = append(edits, TextEdit{Start: p.Start, End: p.End, Text: f.Resolve(ctx, p, stats)})
	}
	return edits
}

// Fill rewrites every frame of deck. Frames that fail to update are reported in the
// returned error; the remaining frames are still processed.
func (f *Filler) Fill(ctx context.Context, deck Deck) (FillStats, error) {
	var stats FillStats
	var errs []error

	frames := deck.Frames()
	stats.Frames = len(frames)
	for i, frame := range frames {
		edits := f.FillText(ctx, frame.Text(), &stats)
		if len(edits) > 0 {
			if err := frame.ReplaceSpans(edits); err != nil {
				errs = append(errs, fmt.Errorf("frame %d: %w", i, err))
				slog.Error("Failed to update frame", "frame", i, "error", err)
			} else {
				stats.FramesChanged++
			}
		}
		if f.Progress != nil {
			f.Progress(i+1, len(frames))
		}
	}

	slog.Info("Fill finished",
		"frames", stats.Frames,
		"changed", stats.FramesChanged,
		"direct", stats.Direct,
		"tags", stats.Tags,
		"ai", stats.AIGenerated,
		"blocked", stats.AIBlocked,
		"unresolved", stats.Unresolved,
	)
	return stats, errors.Join(errs...)
}

// ApplyEdits applies edits to plain text. Edits must be sorted and non-overlapping.
func ApplyEdits(text string, edits []TextEdit) string {
	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(text[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(text[last:])
	return b.String()
}
