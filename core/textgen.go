package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"teaser-gen/config"
)

type PromptPattern string

const (
	PatternGeneric          PromptPattern = "generic"
	PatternSectorLabel      PromptPattern = "sector_label"
	PatternClientOneLiner   PromptPattern = "client_one_liner"
	PatternProjectHighlight PromptPattern = "project_highlight"
)

// ClassifyPrompt routes a resolved prompt. The three-paragraph markers are checked first
// because such prompts usually also mention "the client".
func ClassifyPrompt(prompt string) PromptPattern {
	lower := strings.ToLower(prompt)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}

	switch {
	case paragraphMarkersPresent(lower):
		return PatternProjectHighlight
	case has("sector label", "short label") && has("1-3 word", "2-3 word", "short"):
		return PatternSectorLabel
	case has("the client") && has("one sentence", "anonymous", "briefly states"):
		return PatternClientOneLiner
	default:
		return PatternGeneric
	}
}

func paragraphMarkersPresent(lower string) bool {
	seen := map[string]bool{}
	for _, m := range paragraphMarker.FindAllString(lower, -1) {
		seen[strings.Join(strings.Fields(strings.TrimSuffix(m, ":")), "")] = true
	}
	return seen["paragraph1"] && seen["paragraph2"] && seen["paragraph3"]
}

// TextGenerator turns a fully resolved prompt into slide text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, fields *FieldMap, tone config.Tone) string
}

// Generator is the default TextGenerator: an optional remote service with a local
// deterministic fallback, post-processing and one bounded regeneration.
type Generator struct {
	Service     TextService
	Timeout     time.Duration
	Temperature float64
}

// NewGenerator creates a generator. A nil service means local generation only.
func NewGenerator(service TextService, gen config.GenerationConfig) *Generator {
	timeout := time.Duration(gen.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultTimeoutSeconds * time.Second
	}
	temperature := gen.Temperature
	if temperature == 0 {
		temperature = config.DefaultTemperature
	}
	return &Generator{Service: service, Timeout: timeout, Temperature: temperature}
}

type attemptState int

const (
	attemptInitial attemptState = iota
	attemptRetried
)

// Generate classifies the prompt and produces text honouring the pattern's constraints.
func (g *Generator) Generate(ctx context.Context, prompt string, fields *FieldMap, tone config.Tone) string {
	pattern := ClassifyPrompt(prompt)
	slog.Debug("Generating text", "pattern", pattern, "tone", tone, "promptLength", len(prompt))

	switch pattern {
	case PatternSectorLabel:
		return trimWords(g.produce(ctx, pattern, prompt, prompt, tone), 3, false)

	case PatternClientOneLiner:
		names := identifyingNames(fields)
		return g.generateValidated(ctx, pattern, prompt, tone,
			func(text string) string { return trimSentences(text, 1) },
			func(text string) []string { return validateClientOneLiner(text, names) },
			func(text string) string {
				text = strings.TrimSpace(text)
				if !strings.HasPrefix(text, clientPrefix) {
					slog.Info("Prepending client prefix")
					text = clientPrefix + " " + text
				}
				return endWithPeriod(trimSentences(text, 1))
			})

	case PatternProjectHighlight:
		lower := strings.ToLower(prompt)
		anonymous := strings.Contains(lower, "anonymous") || strings.Contains(lower, "the client")
		names := identifyingNames(fields)
		return g.generateValidated(ctx, pattern, prompt, tone,
			func(text string) string { return trimParagraphs(text, 3) },
			func(text string) []string { return validateProjectHighlight(text, names, anonymous) },
			func(text string) string {
				if len(splitParagraphs(text)) != 3 {
					slog.Info("Falling back to local three-paragraph layout")
					return localProjectHighlight(prompt)
				}
				return text
			})

	default:
		return applyDirectives(g.produce(ctx, pattern, prompt, prompt, tone), parseLengthDirectives(prompt))
	}
}

// generateValidated runs at most two attempts. A failed first attempt is retried with a
// stricter prompt; a failed retry is passed to fix instead of being retried again.
func (g *Generator) generateValidated(
	ctx context.Context,
	pattern PromptPattern,
	prompt string,
	tone config.Tone,
	post func(string) string,
	validate func(string) []string,
	fix func(string) string,
) string {
	state := attemptInitial
	servicePrompt := prompt
	for {
		text := post(g.produce(ctx, pattern, prompt, servicePrompt, tone))
		violations := validate(text)
		if len(violations) == 0 {
			return text
		}
		if state == attemptRetried {
			fixed := fix(text)
			if remaining := validate(fixed); len(remaining) > 0 {
				slog.Warn("Generated text still violates constraints", "pattern", pattern, "violations", remaining)
			}
			return fixed
		}
		slog.Warn("Generated text failed validation, regenerating", "pattern", pattern, "violations", violations)
		servicePrompt = stricterPrompt(prompt, pattern, violations)
		state = attemptRetried
	}
}

// produce asks the remote service with servicePrompt and falls back to the local
// generator for basePrompt on any failure.
func (g *Generator) produce(ctx context.Context, pattern PromptPattern, basePrompt, servicePrompt string, tone config.Tone) string {
	if g.Service != nil {
		req := serviceRequest(pattern, servicePrompt, tone, g.Temperature)
		callCtx, cancel := context.WithTimeout(ctx, g.Timeout)
		text, err := g.Service.Complete(callCtx, req)
		cancel()
		switch {
		case err != nil:
			slog.Warn("Text service failed, using local generation", "pattern", pattern, "error", err)
		case strings.TrimSpace(text) == "":
			slog.Warn("Text service returned empty text, using local generation", "pattern", pattern)
		default:
			return cleanServiceText(pattern, text)
		}
	}
	return localText(pattern, basePrompt, tone)
}

func localText(pattern PromptPattern, prompt string, tone config.Tone) string {
	switch pattern {
	case PatternSectorLabel:
		return localSectorLabel(prompt)
	case PatternClientOneLiner:
		return localClientOneLiner(prompt)
	case PatternProjectHighlight:
		return localProjectHighlight(prompt)
	default:
		return localGeneric(prompt, tone)
	}
}

func toneTokens(tone config.Tone) int {
	switch tone {
	case config.ToneShort:
		return 100
	case config.ToneLong:
		return 300
	default:
		return 200
	}
}

func serviceRequest(pattern PromptPattern, prompt string, tone config.Tone, temperature float64) CompletionRequest {
	req := CompletionRequest{System: writerSystemPrompt, Temperature: temperature}
	switch pattern {
	case PatternSectorLabel:
		req.MaxTokens = 20
		req.Prompt = "Generate a concise 2-3 word sector label based on this description:\n\n" + prompt +
			"\n\nRequirements:\n- EXACTLY 2-3 words maximum\n- Title case (e.g., \"Solar Energy\", \"Data Centers\")\n" +
			"- Industry sector focus\n- No explanations, just the label\n\nSector label:"
	case PatternClientOneLiner:
		req.MaxTokens = 100
		req.Prompt = "Generate an anonymous, professional one-sentence description based on these details:\n\n" + prompt +
			"\n\nCRITICAL Requirements:\n- Start with \"The client is\" or \"The client\"\n- ONE sentence only (no line breaks)\n" +
			"- End with a period\n- Maintain complete anonymity (no company names, no specific project names)\n" +
			"- Use generic terms: \"the client\", \"the project\", \"the facility\"\n\nOne-liner:"
	case PatternProjectHighlight:
		req.MaxTokens = 400
		req.Prompt = "Generate a professional 3-paragraph project description based on these specifications:\n\n" + prompt +
			"\n\nCRITICAL Requirements:\n- EXACTLY 3 paragraphs\n- Separate paragraphs with double line breaks\n" +
			"- Maintain anonymity (use \"The client\", \"the project\", not specific names)\n" +
			"- Each paragraph 2-4 sentences\n- Follow the structure outlined in the specifications\n\nProject highlight:"
	default:
		req.MaxTokens = toneTokens(tone)
		req.Prompt = "Generate professional business content based on this prompt:\n\n" + prompt +
			"\n\nGenerate " + string(tone) + " content following any specifications in the prompt above.\n\nContent:"
	}
	return req
}

func cleanServiceText(pattern PromptPattern, text string) string {
	text = strings.TrimSpace(text)
	switch pattern {
	case PatternSectorLabel:
		return titleCaser.String(strings.Trim(text, "\"'“”‘’ ."))
	case PatternProjectHighlight:
		paragraphs := splitParagraphs(text)
		if len(paragraphs) < 2 {
			paragraphs = nil
			for _, line := range strings.Split(text, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					paragraphs = append(paragraphs, line)
				}
			}
		}
		return strings.Join(paragraphs, "\n\n")
	default:
		return text
	}
}
