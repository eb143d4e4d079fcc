package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"teaser-gen/config"
)

type memFrame struct {
	text string
	fail bool
}

func (f *memFrame) Text() string { return f.text }

func (f *memFrame) ReplaceSpans(edits []TextEdit) error {
	if f.fail {
		return errors.New("locked shape")
	}
	f.text = ApplyEdits(f.text, edits)
	return nil
}

type memDeck []*memFrame

func (d memDeck) Frames() []TextFrame {
	out := make([]TextFrame, len(d))
	for i, f := range d {
		out[i] = f
	}
	return out
}

type countingGenerator struct {
	prompts []string
	out     string
}

func (g *countingGenerator) Generate(ctx context.Context, prompt string, fields *FieldMap, tone config.Tone) string {
	g.prompts = append(g.prompts, prompt)
	return g.out
}

func newTestFiller(fields map[string]string, module string, fill config.FillConfig, gen TextGenerator) *Filler {
	return NewFiller(NewFieldMap(fields), module, defaultProvider(), fill, gen)
}

func TestFiller_TagResolvesThroughModule(t *testing.T) {
	f := newTestFiller(map[string]string{"Company Legal Name": "Acme Solar Ltd"}, "Module2", config.FillConfig{}, &countingGenerator{})
	deck := memDeck{{text: "Issuer: :ISSUER:"}}

	stats, err := f.Fill(context.Background(), deck)
	if err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if deck[0].text != "Issuer: Acme Solar Ltd" {
		t.Fatalf("text = %q", deck[0].text)
	}
	if stats.Tags != 1 || stats.FramesChanged != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestFiller_AIPromptCallsGeneratorOnce(t *testing.T) {
	gen := &countingGenerator{out: "Acme leads the solar market."}
	f := newTestFiller(map[string]string{"Company": "Acme", "Industry": "Solar"}, "", config.FillConfig{}, gen)
	deck := memDeck{{text: "[AI: Write about {Company} in {Industry}]"}}

	stats, err := f.Fill(context.Background(), deck)
	if err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if diff := cmp.Diff([]string{"Write about Acme in Solar"}, gen.prompts); diff != "" {
		t.Fatalf("generator prompts mismatch (-want +got):\n%s", diff)
	}
	if deck[0].text != "Acme leads the solar market." {
		t.Fatalf("text = %q", deck[0].text)
	}
	if stats.AIGenerated != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestFiller_MissingTokenNeverCallsGenerator(t *testing.T) {
	gen := &countingGenerator{out: "should not appear"}
	f := newTestFiller(map[string]string{"Company": "Acme"}, "", config.FillConfig{}, gen)
	deck := memDeck{{text: "Intro [AI: Write about {Company} in {Industry}] outro"}}

	stats, err := f.Fill(context.Background(), deck)
	if err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("generator called with %v", gen.prompts)
	}
	if want := "Intro [CANNOT GENERATE: missing data for Industry] outro"; deck[0].text != want {
		t.Fatalf("text = %q, want %q", deck[0].text, want)
	}
	if stats.AIBlocked != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestFiller_MissingMarkers(t *testing.T) {
	text := "[Revenue] / :TENOR: / [Company]"
	fields := map[string]string{"Company": "Acme"}

	tests := []struct {
		name  string
		blank bool
		want  string
	}{
		{name: "markers", want: "[MISSING COLUMN: Revenue] / [MISSING FIELD: TENOR] / Acme"},
		{name: "blank", blank: true, want: " /  / Acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFiller(fields, "Module2", config.FillConfig{MissingToBlank: tt.blank}, &countingGenerator{})
			deck := memDeck{{text: text}}
			stats, err := f.Fill(context.Background(), deck)
			if err != nil {
				t.Fatalf("Fill error: %v", err)
			}
			if deck[0].text != tt.want {
				t.Fatalf("text = %q, want %q", deck[0].text, tt.want)
			}
			if stats.Unresolved != 2 || stats.Direct != 1 {
				t.Fatalf("stats = %+v", stats)
			}
		})
	}
}

func TestFiller_DirectFallsBackToTagAndFuzzy(t *testing.T) {
	f := newTestFiller(map[string]string{"Company Legal Name": "Acme Solar Ltd", "Coupon Rates": "6.5%"}, "Module2", config.FillConfig{}, &countingGenerator{})
	deck := memDeck{{text: "[ISSUER] pays [coupon rate]"}}
	if _, err := f.Fill(context.Background(), deck); err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if deck[0].text != "Acme Solar Ltd pays 6.5%" {
		t.Fatalf("text = %q", deck[0].text)
	}
}

func TestFiller_FrameErrorsAreCollected(t *testing.T) {
	f := newTestFiller(map[string]string{"Company": "Acme"}, "", config.FillConfig{}, &countingGenerator{})
	deck := memDeck{{text: "[Company]", fail: true}, {text: "no placeholders"}, {text: "[Company]"}}

	var progress []int
	f.Progress = func(done, total int) { progress = append(progress, done) }

	stats, err := f.Fill(context.Background(), deck)
	if err == nil || !strings.Contains(err.Error(), "frame 0") {
		t.Fatalf("err = %v, want frame 0 failure", err)
	}
	if deck[2].text != "Acme" {
		t.Fatalf("later frame not filled: %q", deck[2].text)
	}
	if stats.Frames != 3 || stats.FramesChanged != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, progress); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestFiller_PptxEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.pptx")
	writePptx(t, path, map[int]string{
		1: slideXML(
			`<a:p><a:r><a:rPr b="1"/><a:t>:ISSUER:</a:t></a:r></a:p>`,
			`<a:p><a:r><a:t>[AI: Write about {Company} in {Industry}]</a:t></a:r></a:p>`,
		),
	})

	deck, err := OpenDeck(path)
	if err != nil {
		t.Fatalf("OpenDeck error: %v", err)
	}
	defer deck.Close()

	gen := &countingGenerator{out: "First.\n\nSecond."}
	f := newTestFiller(map[string]string{
		"Company Legal Name": "Acme Solar Ltd",
		"Company":            "Acme",
		"Industry":           "Solar",
	}, "Module2", config.FillConfig{}, gen)

	if _, err := f.Fill(context.Background(), deck); err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	frames := reload(t, deck).Frames()
	if got := frames[0].Text(); got != "Acme Solar Ltd" {
		t.Fatalf("frame 0 = %q", got)
	}
	if got := frames[1].Text(); got != "First.\n\nSecond." {
		t.Fatalf("frame 1 = %q", got)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(gen.prompts))
	}
}
