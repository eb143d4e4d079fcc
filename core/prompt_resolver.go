package core

import (
	"regexp"
	"sort"
	"strings"

	"teaser-gen/config"
)

// tokenPattern matches {Name} and {{Name}}, including the unbalanced {{Name} and {Name}}.
var tokenPattern = regexp.MustCompile(`\{\{?\s*([^{}]+?)\s*\}\}?`)

// UnresolvedTokenError lists prompt tokens without data.
type UnresolvedTokenError struct {
	Names []string
}

func (e *UnresolvedTokenError) Error() string {
	return "cannot generate: missing data for " + strings.Join(e.Names, ", ")
}

// PromptResult is either a fully substituted prompt or the set of tokens that blocked it.
type PromptResult struct {
	Prompt     string
	Unresolved []string
}

// OK reports whether every token resolved.
func (r PromptResult) OK() bool { return len(r.Unresolved) == 0 }

// Err returns an *UnresolvedTokenError when tokens are missing.
func (r PromptResult) Err() error {
	if r.OK() {
		return nil
	}
	return &UnresolvedTokenError{Names: append([]string(nil), r.Unresolved...)}
}

// Marker is the text rendered in place of a prompt that could not be generated.
func (r PromptResult) Marker() string {
	if r.OK() {
		return ""
	}
	return "[CANNOT GENERATE: missing data for " + strings.Join(r.Unresolved, ", ") + "]"
}

// PromptResolver substitutes prompt tokens with field values, failing closed.
type PromptResolver struct {
	Fields    *FieldMap
	Mapper    *FieldMapper
	Module    string
	Threshold float64
}

func (pr *PromptResolver) resolveName(name string) (string, bool) {
	if v, ok := pr.Fields.Lookup(name); ok {
		return v, true
	}
	if pr.Mapper != nil {
		tag := strings.ToUpper(strings.Join(strings.Fields(name), "_"))
		if pr.Mapper.Provider.IsKnownTag(tag) {
			if v, ok := pr.Mapper.ResolveTag(tag, pr.Fields, pr.Module); ok {
				return v, true
			}
		}
	}
	threshold := pr.Threshold
	if threshold <= 0 {
		threshold = config.DefaultFuzzyThreshold
	}
	if key, _, ok := bestMatch([]string{NormalizeLabel(name)}, pr.Fields.Keys(), threshold); ok {
		return pr.Fields.Get(key)
	}
	return "", false
}

// PromptTokens returns the distinct token names of prompt in order of appearance.
func PromptTokens(prompt string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range tokenPattern.FindAllStringSubmatch(prompt, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Resolve substitutes every token or, when any token is missing, substitutes nothing
// and reports the sorted missing names.
func (pr *PromptResolver) Resolve(prompt string) PromptResult {
	values := make(map[string]string)
	var missing []string
	for _, name := range PromptTokens(prompt) {
		v, ok := pr.resolveName(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return PromptResult{Unresolved: missing}
	}

	out := tokenPattern.ReplaceAllStringFunc(prompt, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		return values[m[1]]
	})
	return PromptResult{Prompt: out}
}
