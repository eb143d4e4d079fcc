package core

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	sentenceEnd    = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	quotedPattern  = regexp.MustCompile(`"([^"]+)"|“([^”]+)”|(?:^|[^\p{L}\p{N}])'([^']+)'|‘([^’]+)’`)

	wordDirective      = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?\s+words?`)
	sentenceDirective  = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?\s+sentences?`)
	paragraphDirective = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?\s+paragraphs?`)
)

// lengthDirectives are explicit length requests found in a prompt. Zero means unset.
type lengthDirectives struct {
	MinWords, MaxWords int
	Sentences          int
	Paragraphs         int
}

func (d lengthDirectives) empty() bool {
	return d.MaxWords == 0 && d.Sentences == 0 && d.Paragraphs == 0
}

func parseRange(re *regexp.Regexp, text string) (int, int) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, 0
	}
	lo, _ := strconv.Atoi(m[1])
	hi := lo
	if m[2] != "" {
		hi, _ = strconv.Atoi(m[2])
	}
	return lo, hi
}

func parseLengthDirectives(prompt string) lengthDirectives {
	lower := strings.ToLower(prompt)
	var d lengthDirectives
	d.MinWords, d.MaxWords = parseRange(wordDirective, lower)
	_, d.Sentences = parseRange(sentenceDirective, lower)
	_, d.Paragraphs = parseRange(paragraphDirective, lower)
	return d
}

type quotedSpan struct {
	Text  string
	Start int
}

// quotedSpans returns the quoted values of text with whitespace collapsed.
// Apostrophes inside words do not open a quote.
func quotedSpans(text string) []quotedSpan {
	var spans []quotedSpan
	for _, m := range quotedPattern.FindAllStringSubmatchIndex(text, -1) {
		for g := 1; g <= 4; g++ {
			if m[2*g] < 0 {
				continue
			}
			v := strings.Join(strings.Fields(text[m[2*g]:m[2*g+1]]), " ")
			if v != "" {
				spans = append(spans, quotedSpan{Text: v, Start: m[2*g]})
			}
			break
		}
	}
	return spans
}

func quotedAtLeast(text string, n int) []string {
	var out []string
	for _, s := range quotedSpans(text) {
		if len([]rune(s.Text)) >= n {
			out = append(out, s.Text)
		}
	}
	return out
}

// splitSentences splits on terminators followed by whitespace or the end of text.
// "2.5 MW" stays one sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(strings.TrimSpace(text), -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func endWithPeriod(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "."
}

func trimWords(text string, max int, period bool) string {
	words := strings.Fields(text)
	if max <= 0 || len(words) <= max {
		return strings.TrimSpace(text)
	}
	out := strings.Join(words[:max], " ")
	if period {
		return endWithPeriod(out)
	}
	return strings.TrimRight(out, ",;:")
}

func trimSentences(text string, max int) string {
	sentences := splitSentences(text)
	if max <= 0 || len(sentences) <= max {
		return strings.TrimSpace(text)
	}
	return endWithPeriod(strings.Join(sentences[:max], " "))
}

func trimParagraphs(text string, max int) string {
	paragraphs := splitParagraphs(text)
	if max <= 0 || len(paragraphs) <= max {
		return strings.Join(paragraphs, "\n\n")
	}
	return strings.Join(paragraphs[:max], "\n\n")
}

// applyDirectives trims text to the explicit length requests of a prompt.
func applyDirectives(text string, d lengthDirectives) string {
	if d.MaxWords > 0 {
		text = trimWords(text, d.MaxWords, true)
	}
	if d.Sentences > 0 {
		text = trimSentences(text, d.Sentences)
	}
	if d.Paragraphs > 0 {
		text = trimParagraphs(text, d.Paragraphs)
	}
	return strings.TrimSpace(text)
}
