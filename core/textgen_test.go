package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"teaser-gen/config"
)

// stubService replays canned answers; the last answer repeats.
type stubService struct {
	answers []string
	err     error
	block   bool
	calls   int
	prompts []string
}

func (s *stubService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	if len(s.answers) == 0 {
		return "", nil
	}
	i := s.calls - 1
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	return s.answers[i], nil
}

func newTestGenerator(svc TextService) *Generator {
	return NewGenerator(svc, config.GenerationConfig{TimeoutSeconds: 5})
}

func TestClassifyPrompt(t *testing.T) {
	tests := []struct {
		prompt string
		want   PromptPattern
	}{
		{"Generate a 2-3 word sector label for a utility-scale solar farm", PatternSectorLabel},
		{"Write one sentence that briefly states what the client does", PatternClientOneLiner},
		{"Paragraph 1: who the client is. Paragraph 2: partners. Paragraph 3: investment.", PatternProjectHighlight},
		{"Write about Acme in Solar", PatternGeneric},
		{"Paragraph 1: only one marker about the client in one sentence", PatternClientOneLiner},
	}
	for _, tt := range tests {
		if got := ClassifyPrompt(tt.prompt); got != tt.want {
			t.Errorf("ClassifyPrompt(%q) = %s, want %s", tt.prompt, got, tt.want)
		}
	}
}

func TestGenerator_ClientOneLinerRegeneratesOnce(t *testing.T) {
	fields := NewFieldMap(map[string]string{"Company Name": "Acme Solar"})
	svc := &stubService{answers: []string{
		"Acme Solar is building a plant. It is big.",
		"The client is building a solar plant in Chile.",
	}}
	prompt := "Write one sentence that briefly states what the client does"

	got := newTestGenerator(svc).Generate(context.Background(), prompt, fields, config.ToneMedium)
	if got != "The client is building a solar plant in Chile." {
		t.Fatalf("Generate = %q", got)
	}
	if svc.calls != 2 {
		t.Fatalf("service calls = %d, want 2", svc.calls)
	}
	if !strings.Contains(svc.prompts[1], "previous answer was rejected") {
		t.Fatalf("retry prompt is not stricter: %q", svc.prompts[1])
	}
}

func TestGenerator_ClientOneLinerFixAfterRetry(t *testing.T) {
	svc := &stubService{answers: []string{"is building a plant. Second sentence."}}
	prompt := "Write one sentence that briefly states what the client does"

	got := newTestGenerator(svc).Generate(context.Background(), prompt, NewFieldMap(nil), config.ToneMedium)
	if got != "The client is building a plant." {
		t.Fatalf("Generate = %q", got)
	}
	if svc.calls != 2 {
		t.Fatalf("service calls = %d, want 2", svc.calls)
	}
	if !strings.HasPrefix(got, clientPrefix) || len(splitSentences(got)) != 1 {
		t.Fatalf("one-liner constraints violated: %q", got)
	}
}

func TestGenerator_LocalFallback(t *testing.T) {
	prompt := `Write one sentence that briefly states what the client does using "a 250 MW solar photovoltaic plant" and "northern Chile".`
	want := "The client is developing a 250 MW solar photovoltaic plant in northern Chile."

	for name, svc := range map[string]*stubService{
		"service error": {err: errors.New("boom")},
		"empty answer":  {},
	} {
		t.Run(name, func(t *testing.T) {
			got := newTestGenerator(svc).Generate(context.Background(), prompt, NewFieldMap(nil), config.ToneMedium)
			if got != want {
				t.Fatalf("Generate = %q, want %q", got, want)
			}
			if svc.calls != 1 {
				t.Fatalf("service calls = %d, want 1", svc.calls)
			}
		})
	}

	t.Run("no service", func(t *testing.T) {
		got := NewGenerator(nil, config.GenerationConfig{}).Generate(context.Background(), prompt, nil, config.ToneMedium)
		if got != want {
			t.Fatalf("Generate = %q, want %q", got, want)
		}
	})
}

func TestGenerator_Timeout(t *testing.T) {
	svc := &stubService{block: true}
	g := &Generator{Service: svc, Timeout: 20 * time.Millisecond, Temperature: 0.3}

	start := time.Now()
	got := g.Generate(context.Background(), "Write about Acme in Solar", nil, config.ToneShort)
	if time.Since(start) > 2*time.Second {
		t.Fatalf("Generate did not honour the timeout")
	}
	if strings.TrimSpace(got) == "" {
		t.Fatalf("Generate returned empty text after timeout")
	}
}

func TestGenerator_ProjectHighlightThreeParagraphs(t *testing.T) {
	prompt := "Describe the client anonymously. Paragraph 1: " +
		`the client "operates 1.2 GW of wind farms across the region" and "Coastal Wind Park". ` +
		`Paragraph 2: the client "has secured all construction permits" and "partnered with a tier-one EPC contractor". ` +
		"Paragraph 3: initial investment of $120 million, with a projected expansion to $300 million."

	t.Run("local", func(t *testing.T) {
		got := NewGenerator(nil, config.GenerationConfig{}).Generate(context.Background(), prompt, NewFieldMap(nil), config.ToneMedium)
		if n := len(splitParagraphs(got)); n != 3 {
			t.Fatalf("paragraphs = %d, want 3: %q", n, got)
		}
		if !strings.Contains(got, "$120 million") {
			t.Fatalf("investment paragraph missing: %q", got)
		}
	})

	t.Run("service keeps failing structure", func(t *testing.T) {
		svc := &stubService{answers: []string{"One long paragraph about the project."}}
		got := newTestGenerator(svc).Generate(context.Background(), prompt, NewFieldMap(nil), config.ToneMedium)
		if n := len(splitParagraphs(got)); n != 3 {
			t.Fatalf("paragraphs = %d, want 3: %q", n, got)
		}
		if svc.calls != 2 {
			t.Fatalf("service calls = %d, want 2", svc.calls)
		}
	})
}

func TestValidateProjectHighlightAnonymity(t *testing.T) {
	names := identifyingNames(NewFieldMap(map[string]string{
		"Company Name": "Helios Renewables",
		"Sponsor":      "Borealis Capital",
		"Industry":     "Solar",
	}))
	ok := "The client develops solar parks.\n\nThe project is permitted.\n\nThe project costs $50 million."
	leak := "Helios develops solar parks.\n\nThe project is permitted.\n\nThe project costs $50 million."

	if v := validateProjectHighlight(ok, names, true); len(v) != 0 {
		t.Fatalf("anonymous text rejected: %v", v)
	}
	if v := validateProjectHighlight(leak, names, true); len(v) != 1 {
		t.Fatalf("violations = %v, want one anonymity violation", v)
	}
	if v := validateProjectHighlight(leak, names, false); len(v) != 0 {
		t.Fatalf("non-anonymous prompt flagged names: %v", v)
	}
	if v := validateProjectHighlight("Only one paragraph.", names, true); len(v) != 1 {
		t.Fatalf("violations = %v, want paragraph count violation", v)
	}
}

func TestGenerator_SectorLabelAndGeneric(t *testing.T) {
	svc := &stubService{answers: []string{`"renewable solar energy generation."`}}
	got := newTestGenerator(svc).Generate(context.Background(), "Generate a short sector label for this company", nil, config.ToneMedium)
	if got != "Renewable Solar Energy" {
		t.Fatalf("sector label = %q, want Renewable Solar Energy", got)
	}

	svc = &stubService{answers: []string{"Acme builds large solar farms across Chile and Peru."}}
	got = newTestGenerator(svc).Generate(context.Background(), "Describe Acme in 5 words", nil, config.ToneMedium)
	if got != "Acme builds large solar farms." {
		t.Fatalf("generic = %q, want Acme builds large solar farms.", got)
	}

	got = NewGenerator(nil, config.GenerationConfig{}).Generate(context.Background(), "Generate a 2-3 word sector label: offshore wind farm", nil, config.ToneMedium)
	if got != "Wind Energy" {
		t.Fatalf("local sector label = %q, want Wind Energy", got)
	}
}

func TestLocalGeneric_Tone(t *testing.T) {
	prompt := `Write about "Acme" in "Solar"`
	for tone, want := range map[config.Tone]int{config.ToneShort: 1, config.ToneMedium: 2, config.ToneLong: 3} {
		if n := len(splitSentences(localGeneric(prompt, tone))); n != want {
			t.Errorf("tone %s: sentences = %d, want %d", tone, n, want)
		}
	}
	if got := localGeneric("Write exactly 2 paragraphs about Acme", config.ToneMedium); len(splitParagraphs(got)) != 2 {
		t.Errorf("paragraph directive ignored: %q", got)
	}
}

func TestLeakedNames_WordBoundaries(t *testing.T) {
	names := identifyingNames(NewFieldMap(map[string]string{
		"Company Name": "Acme Solar Corp",
		"Sponsor":      "Ace Partners",
	}))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "word inside other words", text: "The client leases surface space for panels.", want: nil},
		{name: "name word", text: "Acme develops solar parks.", want: []string{"acme"}},
		{name: "name word with punctuation", text: "Backed by ace, the client builds.", want: []string{"ace"}},
		{name: "whole value", text: "Owned by Acme Solar Corp.", want: []string{"acme", "acme solar corp"}},
		{name: "whole value inside a word", text: "The xacme solar corpx fund.", want: []string{"acme solar corp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, leakedNames(tt.text, names)); diff != "" {
				t.Fatalf("leakedNames mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if v := validateClientOneLiner("The client leases surface space in Chile.", names); len(v) != 0 {
		t.Fatalf("violations = %v, want none", v)
	}
}
