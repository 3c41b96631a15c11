package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Table is one auxiliary dataset available for download.
type Table struct {
	Name        string `yaml:"name"`
	File        string `yaml:"file"`
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Catalog is an ordered, read-only lookup of auxiliary tables.
type Catalog struct {
	tables []Table
	byName map[string]int
}

type document struct {
	Tables []Table `yaml:"tables"`
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("embedded table catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not decode table catalog: %w", err)
	}

	c := &Catalog{byName: make(map[string]int, len(doc.Tables))}
	for i, t := range doc.Tables {
		t.Name = strings.ToLower(strings.TrimSpace(t.Name))
		if t.Name == "" {
			return nil, fmt.Errorf("table[%d] requires a name", i)
		}
		if t.File == "" {
			return nil, fmt.Errorf("table %s: file is required", t.Name)
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("table %s is declared twice", t.Name)
		}
		c.byName[t.Name] = len(c.tables)
		c.tables = append(c.tables, t)
	}

	return c, nil
}

// Lookup finds a table by name, case-insensitively.
func (c *Catalog) Lookup(name string) (Table, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Table{}, false
	}
	return c.tables[i], true
}

// Names returns table names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.Name
	}
	return names
}

// Tables returns a copy of every table in declaration order.
func (c *Catalog) Tables() []Table {
	out := make([]Table, len(c.tables))
	copy(out, c.tables)
	return out
}
