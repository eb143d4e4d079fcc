package core

import (
	"log/slog"

	"teaser-gen/config"
)

// ModuleScore is the detection score of one module.
type ModuleScore struct {
	Module  string
	Score   int
	Matched []string // tags with at least one label present
}

// ScoreModules scores every module in declaration order. A tag counts once when any
// of its labels is an exact normalized key of fields.
func ScoreModules(fields *FieldMap, provider config.Provider) []ModuleScore {
	var scores []ModuleScore
	for _, name := range provider.ModuleNames() {
		m, err := provider.GetModule(name)
		if err != nil {
			continue
		}
		s := ModuleScore{Module: name}
		counted := make(map[string]bool)
		for _, b := range m.Tags {
			if counted[b.Tag] {
				continue
			}
			for _, label := range b.Labels {
				if _, ok := fields.Get(NormalizeLabel(label)); ok {
					counted[b.Tag] = true
					s.Score++
					s.Matched = append(s.Matched, b.Tag)
					break
				}
			}
		}
		scores = append(scores, s)
	}
	return scores
}

// DetectModule returns the highest scoring module. Ties go to the module declared first;
// a best score of zero means no module.
func DetectModule(fields *FieldMap, provider config.Provider) (string, bool) {
	best := ModuleScore{}
	for _, s := range ScoreModules(fields, provider) {
		if s.Score > best.Score {
			best = s
		}
	}
	if best.Score == 0 {
		slog.Debug("No module detected", "fields", fields.Len())
		return "", false
	}
	slog.Debug("Module detected", "module", best.Module, "score", best.Score)
	return best.Module, true
}
