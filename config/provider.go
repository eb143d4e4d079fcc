package config

import (
	"fmt"
	"strings"
)

// Provider defines the interface for retrieving configurations.
type Provider interface {
	ModuleNames() []string
	GetModule(name string) (*ModuleConfig, error)
	ModuleLabels(module, tag string) []string
	TagAliases(tag string) []string
	IsKnownTag(name string) bool
	GetDataSourceConfig(name string) (*DataSourceConfig, error)
}

// MemoryConfigRegistry implements Provider using in-memory maps.
// It is built once and never mutated afterwards.
type MemoryConfigRegistry struct {
	order       []string
	modules     map[string]*ModuleConfig
	labels      map[string]map[string][]string // module -> TAG -> labels
	aliases     map[string][]string
	dataSources map[string]*DataSourceConfig
}

// NewMemoryConfigRegistry creates a new registry with the given configurations.
// Module declaration order is kept and used for tie-breaking.
func NewMemoryConfigRegistry(modules []ModuleConfig, aliases map[string][]string, dataSources map[string]*DataSourceConfig) *MemoryConfigRegistry {
	r := &MemoryConfigRegistry{
		modules:     make(map[string]*ModuleConfig, len(modules)),
		labels:      make(map[string]map[string][]string, len(modules)),
		aliases:     make(map[string][]string, len(aliases)),
		dataSources: make(map[string]*DataSourceConfig, len(dataSources)),
	}
	for i := range modules {
		m := copyModule(modules[i])
		if _, dup := r.modules[m.Name]; dup {
			continue
		}
		r.order = append(r.order, m.Name)
		r.modules[m.Name] = &m
		byTag := make(map[string][]string, len(m.Tags))
		for _, b := range m.Tags {
			tag := strings.ToUpper(b.Tag)
			byTag[tag] = append(byTag[tag], b.Labels...)
		}
		r.labels[m.Name] = byTag
	}
	for tag, labels := range aliases {
		r.aliases[strings.ToUpper(tag)] = append([]string(nil), labels...)
	}
	for name, ds := range dataSources {
		c := *ds
		r.dataSources[name] = &c
	}
	return r
}

// NewRegistryFromBundle builds the registry for a loaded bundle.
func NewRegistryFromBundle(b *Bundle) *MemoryConfigRegistry {
	sources := make(map[string]*DataSourceConfig, len(b.DataSources))
	for i := range b.DataSources {
		sources[b.DataSources[i].Name] = &b.DataSources[i]
	}
	return NewMemoryConfigRegistry(b.Modules, b.Aliases, sources)
}

func copyModule(m ModuleConfig) ModuleConfig {
	c := m
	c.Tags = make([]TagBinding, len(m.Tags))
	for i, b := range m.Tags {
		c.Tags[i] = TagBinding{Tag: b.Tag, Labels: append([]string(nil), b.Labels...)}
	}
	return c
}

// ModuleNames returns module names in declaration order.
func (r *MemoryConfigRegistry) ModuleNames() []string {
	return append([]string(nil), r.order...)
}

// GetModule retrieves a ModuleConfig by name.
func (r *MemoryConfigRegistry) GetModule(name string) (*ModuleConfig, error) {
	if m, ok := r.modules[name]; ok {
		c := copyModule(*m)
		return &c, nil
	}
	return nil, fmt.Errorf("module config not found: %s", name)
}

// ModuleLabels returns the accepted labels for tag in module, preferred first.
func (r *MemoryConfigRegistry) ModuleLabels(module, tag string) []string {
	byTag, ok := r.labels[module]
	if !ok {
		return nil
	}
	return append([]string(nil), byTag[strings.ToUpper(tag)]...)
}

// TagAliases returns the alias labels configured for tag.
func (r *MemoryConfigRegistry) TagAliases(tag string) []string {
	return append([]string(nil), r.aliases[strings.ToUpper(tag)]...)
}

// IsKnownTag reports whether name is a canonical tag, a module-bound tag or an alias key.
func (r *MemoryConfigRegistry) IsKnownTag(name string) bool {
	tag := strings.ToUpper(name)
	for _, t := range CanonicalTags {
		if t == tag {
			return true
		}
	}
	if _, ok := r.aliases[tag]; ok {
		return true
	}
	for _, byTag := range r.labels {
		if _, ok := byTag[tag]; ok {
			return true
		}
	}
	return false
}

// GetDataSourceConfig retrieves a DataSourceConfig by name.
func (r *MemoryConfigRegistry) GetDataSourceConfig(name string) (*DataSourceConfig, error) {
	if conf, ok := r.dataSources[name]; ok {
		c := *conf
		return &c, nil
	}
	return nil, fmt.Errorf("data source config not found: %s", name)
}
