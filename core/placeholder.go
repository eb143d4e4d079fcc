package core

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

type PlaceholderKind string

const (
	KindDirect   PlaceholderKind = "direct"
	KindTag      PlaceholderKind = "tag"
	KindAIPrompt PlaceholderKind = "ai"
)

// Placeholder is one substitution site in a text frame. Start and End are byte offsets.
type Placeholder struct {
	Kind  PlaceholderKind
	Key   string
	Start int
	End   int
}

var (
	aiOpenPattern = regexp.MustCompile(`(?i)\[AI:`)
	directPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)
	tagPattern    = regexp.MustCompile(`:([A-Za-z][A-Za-z0-9_]*):`)
)

// findAIPrompts locates "[AI: ...]" spans, allowing nested brackets and line breaks.
// An unclosed prompt runs to the end of the text.
func findAIPrompts(text string) []Placeholder {
	var out []Placeholder
	pos := 0
	for _, loc := range aiOpenPattern.FindAllStringIndex(text, -1) {
		start := loc[0]
		if start < pos {
			continue
		}
		depth, end, closed := 0, len(text), false
		for j := start; j < len(text) && !closed; j++ {
			switch text[j] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					end, closed = j+1, true
				}
			}
		}
		bodyEnd := end
		if closed {
			bodyEnd--
		}
		out = append(out, Placeholder{
			Kind:  KindAIPrompt,
			Key:   strings.TrimSpace(text[loc[1]:bodyEnd]),
			Start: start,
			End:   end,
		})
		pos = end
	}
	return out
}

func overlaps(spans []Placeholder, start, end int) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}

func isUpperTag(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter && len(name) > 1
}

// FindPlaceholders returns the placeholders of text ordered by position.
// Tags count when written in capitals or when isKnownTag accepts them.
func FindPlaceholders(text string, isKnownTag func(string) bool) []Placeholder {
	found := findAIPrompts(text)

	for _, m := range directPattern.FindAllStringSubmatchIndex(text, -1) {
		key := strings.TrimSpace(text[m[2]:m[3]])
		if key == "" || strings.HasPrefix(strings.ToUpper(key), "AI:") || overlaps(found, m[0], m[1]) {
			continue
		}
		found = append(found, Placeholder{Kind: KindDirect, Key: key, Start: m[0], End: m[1]})
	}

	for _, m := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if !isUpperTag(name) && (isKnownTag == nil || !isKnownTag(name)) {
			continue
		}
		if overlaps(found, m[0], m[1]) {
			continue
		}
		found = append(found, Placeholder{Kind: KindTag, Key: strings.ToUpper(name), Start: m[0], End: m[1]})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Start < found[j].Start })
	return found
}
