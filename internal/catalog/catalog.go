// Package catalog provides the metadata and stored-data provider consumed
// by the compiler: database and table lookup, an in-memory catalog builder,
// and an atomically swappable catalog handle for hot metadata updates.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/featsql/pkg/codec"
)

// Table is one stored table: a schema plus its rows. Tables handed out by a
// Catalog are treated as read-only by the engine.
type Table struct {
	Name   string
	Schema codec.Schema
	Rows   []codec.Row
}

// Database groups tables under one namespace.
type Database struct {
	Name   string
	tables map[string]*Table
}

// Table returns the named table.
func (d *Database) Table(name string) (*Table, bool) {
	t, ok := d.tables[name]
	return t, ok
}

// TableNames returns the table names in sorted order.
func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.tables))
	for n := range d.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Catalog resolves databases and tables during compilation.
type Catalog interface {
	// Database returns the named database.
	Database(name string) (*Database, bool)

	// Table returns the named table within a database.
	Table(db, name string) (*Table, bool)

	// DatabaseNames lists all databases.
	DatabaseNames() []string
}

// MemCatalog is a mutable in-memory Catalog. Mutation and lookup are safe
// for concurrent use, but the intended pattern is build-then-publish via a
// Holder: once a MemCatalog is published it should no longer be mutated.
type MemCatalog struct {
	mu  sync.RWMutex
	dbs map[string]*Database
}

// NewMemCatalog creates an empty in-memory catalog.
func NewMemCatalog() *MemCatalog {
	return &MemCatalog{dbs: make(map[string]*Database)}
}

// AddDatabase creates a database if it does not already exist.
func (c *MemCatalog) AddDatabase(name string) *Database {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addDatabaseLocked(name)
}

func (c *MemCatalog) addDatabaseLocked(name string) *Database {
	if db, ok := c.dbs[name]; ok {
		return db
	}
	db := &Database{Name: name, tables: make(map[string]*Table)}
	c.dbs[name] = db
	return db
}

// AddTable registers a table under a database, creating the database as
// needed. Replacing an existing table is an error.
func (c *MemCatalog) AddTable(dbName string, t *Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	db := c.addDatabaseLocked(dbName)
	if _, exists := db.tables[t.Name]; exists {
		return fmt.Errorf("table %s.%s already exists", dbName, t.Name)
	}
	db.tables[t.Name] = t
	return nil
}

// Database implements Catalog.
func (c *MemCatalog) Database(name string) (*Database, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, ok := c.dbs[name]
	return db, ok
}

// Table implements Catalog.
func (c *MemCatalog) Table(db, name string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.dbs[db]
	if !ok {
		return nil, false
	}
	t, ok := d.tables[name]
	return t, ok
}

// DatabaseNames implements Catalog.
func (c *MemCatalog) DatabaseNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.dbs))
	for n := range c.dbs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
