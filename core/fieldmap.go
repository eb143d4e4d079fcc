package core

import (
	"sort"
	"strings"
)

// FieldMap maps normalized labels to cell values. It is immutable once built.
type FieldMap struct {
	values map[string]string
	keys   []string
}

// NewFieldMap builds a FieldMap from raw label/value pairs; labels are normalized.
// Later duplicates win.
func NewFieldMap(pairs map[string]string) *FieldMap {
	b := newFieldMapBuilder()
	labels := make([]string, 0, len(pairs))
	for label := range pairs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		b.set(NormalizeLabel(label), pairs[label])
	}
	return b.build()
}

// Get returns the value stored under an already normalized key.
func (m *FieldMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Lookup resolves a raw name as written by a template author. "Sheet.Label" names
// are tried as namespaced keys first.
func (m *FieldMap) Lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	if sheet, label, ok := strings.Cut(name, "."); ok {
		if v, found := m.values[namespacedKey(sheet, NormalizeLabel(label))]; found {
			return v, true
		}
	}
	return m.Get(NormalizeLabel(name))
}

// Keys returns all keys in sorted order.
func (m *FieldMap) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of fields.
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Map returns a copy of the underlying key/value pairs.
func (m *FieldMap) Map() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

type fieldMapBuilder struct {
	values map[string]string
}

func newFieldMapBuilder() *fieldMapBuilder {
	return &fieldMapBuilder{values: make(map[string]string)}
}

func (b *fieldMapBuilder) set(key, value string) {
	if key == "" {
		return
	}
	b.values[key] = value
}

func (b *fieldMapBuilder) has(key string) bool {
	_, ok := b.values[key]
	return ok
}

func (b *fieldMapBuilder) merge(other map[string]string) {
	for k, v := range other {
		b.set(k, v)
	}
}

func (b *fieldMapBuilder) len() int {
	return len(b.values)
}

func (b *fieldMapBuilder) build() *FieldMap {
	m := &FieldMap{values: make(map[string]string, len(b.values))}
	for k, v := range b.values {
		m.values[k] = v
		m.keys = append(m.keys, k)
	}
	sort.Strings(m.keys)
	return m
}
