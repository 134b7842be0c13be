// Package localize holds string tables that turn text keys stored in dialogue
// graphs into display text for one locale.
package localize

import (
	"fmt"
	"io"
	"os"
	"sync"

	"branchline/internal/engine"

	"gopkg.in/yaml.v3"
)

// Missing formats the placeholder shown for a key with no entry
func Missing(key string) string {
	return "? " + key + " ?"
}

// Catalog maps locale -> table -> key -> text. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]map[string]map[string]string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]map[string]map[string]string)}
}

// Set stores text for key in a locale's table
func (c *Catalog) Set(locale, table, key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tables, ok := c.entries[locale]
	if !ok {
		tables = make(map[string]map[string]string)
		c.entries[locale] = tables
	}
	keys, ok := tables[table]
	if !ok {
		keys = make(map[string]string)
		tables[table] = keys
	}
	keys[key] = text
}

// Text looks key up. A miss returns the Missing placeholder and false.
func (c *Catalog) Text(locale, table, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if text, ok := c.entries[locale][table][key]; ok {
		return text, true
	}
	return Missing(key), false
}

// Size returns the number of locales and the total number of entries
func (c *Catalog) Size() (locales, entries int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, tables := range c.entries {
		for _, keys := range tables {
			entries += len(keys)
		}
	}
	return len(c.entries), entries
}

// Resolver binds the catalog to one locale and table for a session
func (c *Catalog) Resolver(locale, table string) engine.TextResolver {
	return engine.TextResolverFunc(func(key string) (string, bool) {
		return c.Text(locale, table, key)
	})
}

// Load merges a YAML document of the form locale: {table: {key: text}}
func (c *Catalog) Load(r io.Reader) error {
	var doc map[string]map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode catalog: %w", err)
	}
	for locale, tables := range doc {
		for table, keys := range tables {
			for key, text := range keys {
				c.Set(locale, table, key, text)
			}
		}
	}
	return nil
}

// LoadFile merges a catalog file into c
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	if err := c.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
