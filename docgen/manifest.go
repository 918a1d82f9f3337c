package docgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
)

// ErrInvalidManifest indicates a manifest that cannot be decoded or fails
// validation.
var ErrInvalidManifest = errors.New("invalid manifest")

// DefaultManifest is the manifest path used when none is given.
const DefaultManifest = "natspecdoc.yaml"

// Manifest is the statically declared list of units for a run, decoded from
// YAML.
type Manifest struct {
	Flatten    []string `json:"flatten,omitempty"    yaml:"flatten,omitempty"    jsonschema:"command printing the flattened source of {contract}"`
	Parse      []string `json:"parse,omitempty"      yaml:"parse,omitempty"      jsonschema:"command printing the syntax tree of the source on stdin or in {source}"`
	Directives []string `json:"directives,omitempty" yaml:"directives,omitempty" jsonschema:"tooling directives skipped above @notice lines"`
	Units      []Unit   `json:"units"                yaml:"units"                jsonschema:"interfaces to document"`

	// Dir is the directory relative unit paths resolve against.
	Dir string `json:"-" yaml:"-"`
}

// ManifestSchema returns the JSON Schema manifests are validated against.
func ManifestSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[Manifest](nil)
	if err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}

	schema.Title = "natspecdoc manifest"
	schema.AdditionalProperties = falseSchema()

	if units, ok := schema.Properties["units"]; ok && units.Items != nil {
		units.Items.AdditionalProperties = falseSchema()
	}

	return schema, nil
}

// LoadManifest reads and parses the manifest at path. Relative paths in
// the manifest resolve against its directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	m, err := ParseManifest(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// ParseManifest validates and decodes YAML manifest data. Relative unit
// paths are joined onto dir.
func ParseManifest(data []byte, dir string) (*Manifest, error) {
	err := validateManifest(data)
	if err != nil {
		return nil, err
	}

	var m Manifest

	err = yaml.Unmarshal(data, &m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	m.Dir = dir

	seen := make(map[string]bool, len(m.Units))

	for i := range m.Units {
		u := &m.Units[i]

		if seen[u.Name] {
			return nil, fmt.Errorf("%w: duplicate unit %q", ErrInvalidManifest, u.Name)
		}

		seen[u.Name] = true

		if u.Source == "" && u.Contract == "" {
			return nil, fmt.Errorf("%w: unit %q needs source or contract", ErrInvalidManifest, u.Name)
		}

		u.Source = resolve(dir, u.Source)
		u.AST = resolve(dir, u.AST)
		u.Artifact = resolve(dir, u.Artifact)
		u.Template = resolve(dir, u.Template)
		u.Output = resolve(dir, u.Output)
	}

	return &m, nil
}

func validateManifest(data []byte) error {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	var instance any

	err = json.Unmarshal(raw, &instance)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	schema, err := ManifestSchema()
	if err != nil {
		return err
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("manifest schema: %w", err)
	}

	err = resolved.Validate(instance)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return nil
}

func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func resolve(dir, path string) string {
	if path == "" || dir == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}
