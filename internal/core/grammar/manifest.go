package grammar

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the file name of a language's grammar manifest.
const ManifestFile = "grammar.yaml"

// DefaultPlainCost is the cover cost of one untagged code point.
const DefaultPlainCost = 100.0

// JoinPolicy controls spacing between a verbalized span and its neighbours.
type JoinPolicy string

const (
	JoinSpaced   JoinPolicy = "spaced"
	JoinAttached JoinPolicy = "attached"
)

// Manifest describes the data files and classes of one language.
type Manifest struct {
	Language  string      `yaml:"language"`
	Name      string      `yaml:"name"`
	PlainCost float64     `yaml:"plain_cost"`
	Tables    []TableSpec `yaml:"tables"`
	Rules     []string    `yaml:"rules"`
	Classes   []ClassSpec `yaml:"classes"`
	Tests     []string    `yaml:"tests"`
}

// TableSpec names a string table. An empty Name is derived from the file.
type TableSpec struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// ClassSpec binds a semiotic class to its tagger and verbalizer rules.
type ClassSpec struct {
	Name       string     `yaml:"name"`
	Tagger     string     `yaml:"tagger"`
	Verbalizer string     `yaml:"verbalizer"`
	Weight     float64    `yaml:"weight"`
	Join       JoinPolicy `yaml:"join"`
}

// TableName returns the nonterminal name a table is bound to.
func (t TableSpec) TableName() string {
	if t.Name != "" {
		return t.Name
	}
	return strings.TrimSuffix(path.Base(t.File), path.Ext(t.File))
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(lang string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &GrammarLoadError{Language: lang, Table: ManifestFile, Msg: "decode", Err: err}
	}
	if m.PlainCost == 0 {
		m.PlainCost = DefaultPlainCost
	}
	if err := m.Validate(); err != nil {
		return nil, &GrammarLoadError{Language: lang, Table: ManifestFile, Err: err}
	}
	return &m, nil
}

// Validate checks the manifest for structural errors.
func (m *Manifest) Validate() error {
	if m.PlainCost < 0 {
		return errors.New("plain_cost must be non-negative")
	}
	if len(m.Classes) == 0 {
		return errors.New("no classes declared")
	}
	seen := make(map[string]bool)
	for i, c := range m.Classes {
		switch {
		case c.Name == "":
			return fmt.Errorf("class %d has no name", i)
		case c.Name == "plain":
			return errors.New("class name plain is reserved")
		case seen[c.Name]:
			return fmt.Errorf("class %s declared twice", c.Name)
		case c.Tagger == "" || c.Verbalizer == "":
			return fmt.Errorf("class %s needs a tagger and a verbalizer", c.Name)
		case c.Weight < 0:
			return fmt.Errorf("class %s has a negative weight", c.Name)
		}
		switch c.Join {
		case "":
			m.Classes[i].Join = JoinSpaced
		case JoinSpaced, JoinAttached:
		default:
			return fmt.Errorf("class %s has unknown join policy %q", c.Name, c.Join)
		}
		seen[c.Name] = true
	}
	for _, t := range m.Tables {
		if t.File == "" {
			return errors.New("table entry without file")
		}
	}
	return nil
}
