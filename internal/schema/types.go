// Package schema holds the relational model synthesized from a schema
// document: tables, columns, foreign keys and relationship records, plus the
// identifier normalizer and the type registry used while building them.
package schema

import (
	"fmt"
	"strconv"
)

// Column is a single column definition. Two columns are the same definition
// only when every field matches; merging uses that exact equality.
type Column struct {
	Name     string
	Type     string
	Nullable bool

	// ChoiceGroup identifies the exclusive choice group the column was born
	// in; zero means the column is not part of a choice. The value is an
	// annotation for downstream consumers, not an enforced constraint.
	ChoiceGroup int
}

// ForeignKey is one foreign key constraint on a table.
type ForeignKey struct {
	Name      string // constraint name, FK_<parent>_<field>
	Column    string // local column holding the reference
	RefTable  string
	RefColumn string
}

// Table is a synthesized table. The primary key is always the implicit
// "<Name>Id bigint PRIMARY KEY NOT NULL" column and is kept out of Columns.
type Table struct {
	Name        string
	PrimaryKey  string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// NewTable creates a table with its synthesized primary key column.
func NewTable(name string) *Table {
	return &Table{Name: name, PrimaryKey: name + "Id"}
}

// AddColumn appends c unless an identical definition is already present.
// Reports whether the column was added.
func (t *Table) AddColumn(c Column) bool {
	for _, have := range t.Columns {
		if have == c {
			return false
		}
	}
	t.Columns = append(t.Columns, c)
	return true
}

// AddForeignKey appends fk unless an identical constraint is already present.
func (t *Table) AddForeignKey(fk ForeignKey) bool {
	for _, have := range t.ForeignKeys {
		if have == fk {
			return false
		}
	}
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return true
}

// HasForeignKeyColumn reports whether column name carries a foreign key.
func (t *Table) HasForeignKeyColumn(name string) bool {
	for _, fk := range t.ForeignKeys {
		if fk.Column == name {
			return true
		}
	}
	return false
}

// Schema is the accumulating table registry for one run. Tables keep their
// first-registration order so output is deterministic across runs.
type Schema struct {
	tables map[string]*Table
	order  []string
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{tables: make(map[string]*Table)}
}

// Ensure returns the table registered under name, creating it (with only its
// primary key) on first use.
func (s *Schema) Ensure(name string) *Table {
	if t, ok := s.tables[name]; ok {
		return t
	}
	t := NewTable(name)
	s.tables[name] = t
	s.order = append(s.order, name)
	return t
}

// Table returns the table registered under name, or nil.
func (s *Schema) Table(name string) *Table {
	return s.tables[name]
}

// Has reports whether a table is registered under name.
func (s *Schema) Has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// Tables returns all tables in first-registration order.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// Cardinality is the (min, max) occurrence bound of an element relative to
// its parent. Unbounded set means max is "*".
type Cardinality struct {
	Min       int
	Max       int
	Unbounded bool
}

// String renders the cardinality in min..max notation: "1..*", "0..1", or
// the literal bounds.
func (c Cardinality) String() string {
	if c.Unbounded {
		return strconv.Itoa(c.Min) + "..*"
	}
	return strconv.Itoa(c.Min) + ".." + strconv.Itoa(c.Max)
}

// ManyRight reports whether the right-hand side of the cardinality is
// "many": unbounded, or an upper bound greater than one. It decides which
// table receives the physical foreign key.
func (c Cardinality) ManyRight() bool {
	return c.Unbounded || c.Max > 1
}

// Relationship is one (referenced table, cardinality) pair recorded for a
// foreign key.
type Relationship struct {
	Table       string
	Cardinality Cardinality
}

// Relationships maps "<parentTable>;<foreignKeyName>" to the relationships
// recorded under that key. A key normally holds a single pair; a later
// inference can replace an earlier one when cardinality analysis reverses
// the foreign-key direction.
type Relationships map[string][]Relationship

// RelationshipKey builds the map key for a parent table and constraint name.
func RelationshipKey(parentTable, foreignKeyName string) string {
	return fmt.Sprintf("%s;%s", parentTable, foreignKeyName)
}

// Add records a relationship. An existing entry for the key is kept unless
// replace is set, in which case it is overwritten.
func (r Relationships) Add(parentTable, foreignKeyName, refTable string, card Cardinality, replace bool) {
	key := RelationshipKey(parentTable, foreignKeyName)
	if _, ok := r[key]; ok && !replace {
		return
	}
	r[key] = []Relationship{{Table: refTable, Cardinality: card}}
}

// Remove retracts the relationship recorded under (parentTable, foreignKeyName).
func (r Relationships) Remove(parentTable, foreignKeyName string) {
	delete(r, RelationshipKey(parentTable, foreignKeyName))
}
