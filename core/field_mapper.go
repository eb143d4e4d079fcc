package core

import (
	"log/slog"
	"strings"

	"teaser-gen/config"
)

// FieldMapper resolves canonical tags such as ISSUER to FieldMap values.
type FieldMapper struct {
	Provider  config.Provider
	Threshold float64
}

func NewFieldMapper(provider config.Provider, threshold float64) *FieldMapper {
	if threshold <= 0 {
		threshold = config.DefaultFuzzyThreshold
	}
	return &FieldMapper{Provider: provider, Threshold: threshold}
}

// candidates returns the label variants for tag: the module's labels, or the labels of
// every module when module is empty.
func (fm *FieldMapper) candidates(tag, module string) []string {
	if module != "" {
		return fm.Provider.ModuleLabels(module, tag)
	}
	var out []string
	seen := make(map[string]bool)
	for _, name := range fm.Provider.ModuleNames() {
		for _, l := range fm.Provider.ModuleLabels(name, tag) {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	return out
}

// ResolveTag finds the value for tag. Lookup order: exact module labels, exact aliases,
// fuzzy match of the candidate labels and the tag wording, then the tag itself as a key.
func (fm *FieldMapper) ResolveTag(tag string, fields *FieldMap, module string) (string, bool) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if tag == "" || fields.Len() == 0 {
		return "", false
	}

	variants := fm.candidates(tag, module)
	if module != "" {
		for _, v := range variants {
			if val, ok := fields.Get(NormalizeLabel(v)); ok {
				slog.Debug("Tag resolved", "tag", tag, "module", module, "label", v)
				return val, true
			}
		}
	}
	for _, v := range fm.Provider.TagAliases(tag) {
		if val, ok := fields.Get(NormalizeLabel(v)); ok {
			slog.Debug("Tag resolved by alias", "tag", tag, "label", v)
			return val, true
		}
	}

	normalized := make([]string, 0, len(variants)+1)
	for _, v := range variants {
		normalized = append(normalized, NormalizeLabel(v))
	}
	normalized = append(normalized, tagLabel(tag))
	if key, score, ok := bestMatch(normalized, fields.Keys(), fm.Threshold); ok {
		val, _ := fields.Get(key)
		slog.Debug("Tag resolved by fuzzy match", "tag", tag, "key", key, "score", score)
		return val, true
	}

	for _, key := range []string{NormalizeLabel(tag), tagLabel(tag)} {
		if val, ok := fields.Get(key); ok {
			return val, true
		}
	}

	slog.Debug("Tag unresolved", "tag", tag, "module", module)
	return "", false
}
