package schema

import "strings"

// Kind classifies how a child table relates to its parent.
type Kind string

const (
	OneToMany  Kind = "one-to-many"
	ManyToOne  Kind = "many-to-one"
	ManyToMany Kind = "many-to-many"
)

// KindOf normalizes an external spelling of a relationship kind. Underscores
// and mixed case are accepted; unknown spellings pass through unchanged so
// validation can name them.
func KindOf(s string) Kind {
	return Kind(strings.ReplaceAll(strings.ToLower(s), "_", "-"))
}

// ValidKind reports whether k is one of the supported relationship kinds.
func ValidKind(k Kind) bool {
	switch k {
	case OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}

// Schema represents a complete database schema
type Schema struct {
	DatabaseName  string
	Tables        []Table
	Relationships []Relationship
}

// Table represents a database table
type Table struct {
	Name       string
	SchemaName string
	Columns    []Column
	Indexes    []Index
	PrimaryKey []string
}

// Column represents a table column
type Column struct {
	Name      string
	Type      string
	Nullable  bool
	Ordinal   int
	MaxLength *int
	Precision *int
	Scale     *int
}

// Index represents a database index
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// ColumnPair links one parent column to one child column. Pairs keep their
// declaration order so composite keys match positionally.
type ColumnPair struct {
	Parent string
	Child  string
}

// Relationship represents one foreign-key-like linkage between two tables,
// directed child -> parent, possibly spanning several column pairs.
type Relationship struct {
	Child  string
	Parent string
	Kind   Kind
	Pairs  []ColumnPair
}

// Table returns the table with the given name, or nil if absent.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableNames returns the table names in schema order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Column returns the column with the given name, or nil if absent.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether the named column is part of the primary key.
func (t *Table) IsPrimaryKey(column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}
