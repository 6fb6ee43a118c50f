package graph

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Definition declares a graph by node ids. String arguments of the form
// "$id" refer to other nodes; "$$" escapes a literal leading dollar.
type Definition struct {
	Name     string    `yaml:"name"`
	Includes []string  `yaml:"includes,omitempty"`
	Nodes    []NodeDef `yaml:"nodes"`
	Outputs  []string  `yaml:"outputs,omitempty"`
}

// NodeDef declares one node.
type NodeDef struct {
	ID      string         `yaml:"id"`
	Kind    string         `yaml:"kind"`
	Args    []any          `yaml:"args,omitempty"`
	Kwargs  map[string]any `yaml:"kwargs,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
}

// refPrefix marks a node reference in arguments.
const refPrefix = "$"

// ref returns the referenced id if v is a node reference.
func ref(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, refPrefix) || strings.HasPrefix(s, refPrefix+refPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s, refPrefix), true
}

// literal undoes the "$$" escape.
func literal(v any) any {
	if s, ok := v.(string); ok && strings.HasPrefix(s, refPrefix+refPrefix) {
		return strings.TrimPrefix(s, refPrefix)
	}
	return v
}

// refs lists the ids a node definition refers to, in argument order.
func (d NodeDef) refs() []string {
	var out []string
	for _, a := range d.Args {
		if id, ok := ref(a); ok {
			out = append(out, id)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(d.Kwargs)) {
		if id, ok := ref(d.Kwargs[name]); ok {
			out = append(out, id)
		}
	}
	return out
}

// Parse decodes a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("graph: parsing definition: %w", err)
	}
	return &d, nil
}

// Loader loads definitions by name.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories for
// {name}.yaml and {name}.yml.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load searches for a definition file by name across the configured
// directories, one level of subdirectories included.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			if d, err := LoadFile(filepath.Join(dir, name+ext)); err == nil {
				return d, nil
			}
			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				if d, err := LoadFile(match); err == nil {
					return d, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("graph: definition %q not found in %v", name, l.dirs)
}

// LoadFile reads and parses a definition file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Flatten resolves includes recursively into a single definition. Included
// nodes come first; when ids collide the first definition wins.
func Flatten(d *Definition, loader Loader) (*Definition, error) {
	stack := make(map[string]bool)
	resolved := make(map[string]bool)
	return flatten(d, loader, stack, resolved)
}

func flatten(d *Definition, loader Loader, stack, resolved map[string]bool) (*Definition, error) {
	if stack[d.Name] {
		return nil, fmt.Errorf("graph: circular include detected for definition %q", d.Name)
	}
	stack[d.Name] = true
	defer delete(stack, d.Name)

	out := &Definition{Name: d.Name, Outputs: append([]string(nil), d.Outputs...)}
	ids := make(map[string]bool)
	add := func(nd NodeDef) {
		if !ids[nd.ID] {
			ids[nd.ID] = true
			out.Nodes = append(out.Nodes, nd)
		}
	}

	for _, name := range d.Includes {
		if resolved[name] {
			continue
		}
		if loader == nil {
			return nil, fmt.Errorf("graph: definition %q includes %q but no loader is configured", d.Name, name)
		}
		sub, err := loader.Load(name)
		if err != nil {
			return nil, fmt.Errorf("graph: loading include %q: %w", name, err)
		}
		flat, err := flatten(sub, loader, stack, resolved)
		if err != nil {
			return nil, err
		}
		for _, nd := range flat.Nodes {
			add(nd)
		}
	}
	for _, nd := range d.Nodes {
		add(nd)
	}

	resolved[d.Name] = true
	return out, nil
}
