package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadBundle loads a bundle from a YAML file and applies defaults.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config bundle: %w", err)
	}
	return ParseBundle(data)
}

// ParseBundle decodes YAML bundle content and applies defaults.
func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse config bundle: %w", err)
	}
	ApplyDefaults(&b)
	return &b, nil
}

type dataSourcesBundle struct {
	DataSources []DataSourceConfig `yaml:"dataSources"`
}

// LoadDataSourcesBundle loads a standalone data source list, keyed by name.
func LoadDataSourcesBundle(path string) (map[string]*DataSourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data source bundle: %w", err)
	}

	var bundle dataSourcesBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse data source bundle: %w", err)
	}

	result := make(map[string]*DataSourceConfig, len(bundle.DataSources))
	for i := range bundle.DataSources {
		ds := &bundle.DataSources[i]
		if ds.Name == "" {
			return nil, fmt.Errorf("data source %d name is required", i)
		}
		if _, exists := result[ds.Name]; exists {
			return nil, fmt.Errorf("duplicate data source name: %s", ds.Name)
		}
		result[ds.Name] = ds
	}
	return result, nil
}
