package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const clientPrefix = "The client"

var (
	nameKeys = map[string]bool{
		"company": true, "client": true, "issuer": true, "sponsor": true, "borrower": true,
		"legal name": true, "name": true,
	}
	anonymityStopwords = map[string]bool{
		"the": true, "and": true, "for": true, "client": true, "company": true, "project": true,
		"group": true, "inc": true, "ltd": true, "corp": true, "llc": true, "plc": true, "gmbh": true,
		"holdings": true, "holding": true, "partners": true, "capital": true, "limited": true,
		"energy": true, "power": true, "solar": true, "wind": true, "renewable": true, "renewables": true,
		"infrastructure": true, "fund": true, "development": true, "developments": true, "international": true,
		"global": true, "services": true, "solutions": true, "investment": true, "investments": true,
	}
)

// nameToken is one identifying name. Whole field values match anywhere in the text;
// single words only match as whole words.
type nameToken struct {
	text  string
	whole bool
}

// identifyingNames collects the words of name-like fields that must not appear in
// anonymous text: whole values plus words of three or more letters minus stopwords.
func identifyingNames(fields *FieldMap) []nameToken {
	seen := make(map[string]bool)
	for _, key := range fields.Keys() {
		if strings.Contains(key, ".") {
			continue
		}
		if !nameKeys[key] && !strings.Contains(key, "name") {
			continue
		}
		value, _ := fields.Get(key)
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		seen[value] = true
		for _, word := range strings.FieldsFunc(value, func(r rune) bool {
			return !(r == '-' || r == '&' || isWordRune(r))
		}) {
			if len([]rune(word)) >= 3 && !anonymityStopwords[word] && !seen[word] {
				seen[word] = false
			}
		}
	}
	names := make([]nameToken, 0, len(seen))
	for n, whole := range seen {
		if !anonymityStopwords[n] {
			names = append(names, nameToken{text: n, whole: whole})
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i].text < names[j].text })
	return names
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || r > 127
}

// containsWord reports whether word occurs in text with no word rune on either side.
func containsWord(text, word string) bool {
	for from := 0; from <= len(text)-len(word); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(word)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		from = start + 1
	}
	return false
}

// leakedNames returns the identifying names present in text.
func leakedNames(text string, names []nameToken) []string {
	lower := strings.ToLower(text)
	var leaked []string
	for _, n := range names {
		if (n.whole && strings.Contains(lower, n.text)) || containsWord(lower, n.text) {
			leaked = append(leaked, n.text)
		}
	}
	return leaked
}

func anonymityViolations(text string, names []nameToken) []string {
	if leaked := leakedNames(text, names); len(leaked) > 0 {
		return []string{fmt.Sprintf("must not mention identifying names (found: %s)", strings.Join(leaked, ", "))}
	}
	return nil
}

func validateClientOneLiner(text string, names []nameToken) []string {
	var violations []string
	if !strings.HasPrefix(strings.TrimSpace(text), clientPrefix) {
		violations = append(violations, fmt.Sprintf("must start with exactly '%s is'", clientPrefix))
	}
	if n := len(splitSentences(text)); n != 1 {
		violations = append(violations, fmt.Sprintf("must be exactly one sentence (found %d)", n))
	}
	return append(violations, anonymityViolations(text, names)...)
}

func validateProjectHighlight(text string, names []nameToken, anonymous bool) []string {
	var violations []string
	if n := len(splitParagraphs(text)); n != 3 {
		violations = append(violations, fmt.Sprintf("must be exactly three paragraphs separated by blank lines (found %d)", n))
	}
	if anonymous {
		violations = append(violations, anonymityViolations(text, names)...)
	}
	return violations
}

// stricterPrompt restates the prompt with every violated constraint spelled out.
func stricterPrompt(prompt string, pattern PromptPattern, violations []string) string {
	lines := []string{prompt, "", "IMPORTANT: the previous answer was rejected. Fix the following:"}
	for _, v := range violations {
		lines = append(lines, "- The text "+v+".")
	}
	switch pattern {
	case PatternClientOneLiner:
		lines = append(lines,
			"- Start the sentence with exactly 'The client is'.",
			"- Do NOT include any company names, project names, or client identifiers.",
			"- Use only generic terms like 'the client', 'the project', 'the facility'.",
			"- Keep it to ONE sentence only.")
	case PatternProjectHighlight:
		lines = append(lines,
			"- Write exactly three paragraphs separated by a blank line.",
			"- Maintain complete anonymity.")
	default:
		lines = append(lines, "- Follow the exact format specified.")
	}
	return strings.Join(lines, "\n")
}
