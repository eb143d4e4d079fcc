package config

import (
	"fmt"
	"strings"
)

// Validator validates the configuration objects.
type Validator struct {
	Provider Provider
}

// NewValidator creates a new Validator.
func NewValidator(provider Provider) *Validator {
	return &Validator{Provider: provider}
}

// ValidateBundle validates the whole bundle.
func (v *Validator) ValidateBundle(b *Bundle) error {
	if len(b.Modules) == 0 {
		return fmt.Errorf("bundle must define at least one module")
	}
	seen := make(map[string]struct{}, len(b.Modules))
	for i := range b.Modules {
		m := &b.Modules[i]
		if err := v.ValidateModule(m); err != nil {
			return fmt.Errorf("module %d error: %w", i, err)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("duplicate module name '%s'", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	for tag, labels := range b.Aliases {
		if len(labels) == 0 {
			return fmt.Errorf("alias '%s' must list at least one label", tag)
		}
	}
	if err := v.ValidateFill(&b.Fill); err != nil {
		return err
	}
	if err := v.ValidateGeneration(&b.Generation); err != nil {
		return err
	}
	for i := range b.DataSources {
		if err := v.ValidateDataSource(&b.DataSources[i]); err != nil {
			return fmt.Errorf("data source %d error: %w", i, err)
		}
	}
	if b.Output.Name == "" {
		return fmt.Errorf("output name is required")
	}
	return nil
}

// ValidateModule validates the ModuleConfig.
func (v *Validator) ValidateModule(m *ModuleConfig) error {
	if m.Name == "" {
		return fmt.Errorf("module name is required")
	}
	if len(m.Tags) == 0 {
		return fmt.Errorf("module '%s' must bind at least one tag", m.Name)
	}
	for i, b := range m.Tags {
		if b.Tag == "" {
			return fmt.Errorf("module '%s' tag %d name is required", m.Name, i)
		}
		if b.Tag != strings.ToUpper(b.Tag) {
			return fmt.Errorf("module '%s' tag '%s' must be upper case", m.Name, b.Tag)
		}
		if len(b.Labels) == 0 {
			return fmt.Errorf("module '%s' tag '%s' must list at least one label", m.Name, b.Tag)
		}
		for _, l := range b.Labels {
			if strings.TrimSpace(l) == "" {
				return fmt.Errorf("module '%s' tag '%s' has an empty label", m.Name, b.Tag)
			}
		}
	}
	return nil
}

// ValidateFill validates the FillConfig.
func (v *Validator) ValidateFill(f *FillConfig) error {
	if f.FuzzyThreshold <= 0 || f.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be in (0, 1], got %v", f.FuzzyThreshold)
	}
	if f.MaxFields < 1 {
		return fmt.Errorf("max fields must be positive, got %d", f.MaxFields)
	}
	switch f.Tone {
	case ToneShort, ToneMedium, ToneLong:
	default:
		return fmt.Errorf("invalid tone '%s'", f.Tone)
	}
	if f.Module != "" && v.Provider != nil {
		if _, err := v.Provider.GetModule(f.Module); err != nil {
			return fmt.Errorf("fill references unknown module '%s'", f.Module)
		}
	}
	return nil
}

// ValidateGeneration validates the GenerationConfig.
func (v *Validator) ValidateGeneration(g *GenerationConfig) error {
	switch g.Provider {
	case "local":
	case "gemini", "openai":
		if g.APIKeyEnv == "" {
			return fmt.Errorf("generation provider '%s' requires apiKeyEnv", g.Provider)
		}
	default:
		return fmt.Errorf("invalid generation provider '%s'", g.Provider)
	}
	if g.TimeoutSeconds < 0 {
		return fmt.Errorf("generation timeout must not be negative")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		return fmt.Errorf("generation temperature must be in [0, 2], got %v", g.Temperature)
	}
	return nil
}

// ValidateDataSource validates the DataSourceConfig.
func (v *Validator) ValidateDataSource(ds *DataSourceConfig) error {
	if ds.Name == "" {
		return fmt.Errorf("data source name is required")
	}
	switch ds.Driver {
	case "mysql", "postgres":
		if ds.DSN == "" {
			return fmt.Errorf("data source '%s' DSN is required", ds.Name)
		}
		if ds.Table == "" && ds.Query == "" {
			return fmt.Errorf("data source '%s' requires a table or a query", ds.Name)
		}
	case "dynamodb":
		if ds.Table == "" {
			return fmt.Errorf("data source '%s' table is required", ds.Name)
		}
	case "csv", "xlsx":
		if ds.DSN == "" {
			return fmt.Errorf("data source '%s' file path is required", ds.Name)
		}
	case "":
		return fmt.Errorf("data source '%s' driver is required", ds.Name)
	default:
		return fmt.Errorf("data source '%s' has invalid driver '%s'", ds.Name, ds.Driver)
	}
	return nil
}
