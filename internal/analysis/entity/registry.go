package entity

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry is the fixed set of canonical uppercase organization names used
// to normalize fuzzy company-name variants. It is immutable after
// construction and safe for concurrent reads.
type Registry struct {
	names []string
	set   map[string]struct{}
}

func NewRegistry(names []string) Registry {
	reg := Registry{set: make(map[string]struct{}, len(names))}
	for _, name := range names {
		canonical := strings.ToUpper(strings.TrimSpace(name))
		if canonical == "" {
			continue
		}
		if _, ok := reg.set[canonical]; ok {
			continue
		}
		reg.set[canonical] = struct{}{}
		reg.names = append(reg.names, canonical)
	}
	return reg
}

type registryFile struct {
	KnownEntities []string `yaml:"known_entities"`
}

// LoadRegistry reads the canonical entity list from a YAML file.
func LoadRegistry(path string) (Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, fmt.Errorf("read registry file: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Registry{}, fmt.Errorf("parse registry yaml: %w", err)
	}
	return NewRegistry(file.KnownEntities), nil
}

func (r Registry) Contains(name string) bool {
	_, ok := r.set[strings.ToUpper(strings.TrimSpace(name))]
	return ok
}

func (r Registry) Names() []string {
	return r.names
}

func (r Registry) Len() int {
	return len(r.names)
}
