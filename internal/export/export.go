// Package export serializes schemas into interchange formats. The document
// layout is shared across formats so a schema round-trips identically
// through YAML, JSON, and XML.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemaq/internal/schema"
)

// Serializer writes a schema document to a writer in one format.
type Serializer interface {
	Serialize(s *schema.Schema, w io.Writer) error
}

// ForFormat returns the serializer for a format name: yaml, json, xml, or
// text.
func ForFormat(format string) (Serializer, error) {
	switch format {
	case "yaml", "yml":
		return YAMLSerializer{}, nil
	case "json":
		return JSONSerializer{}, nil
	case "xml":
		return XMLSerializer{}, nil
	case "text", "txt":
		return TextSerializer{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

type document struct {
	XMLName xml.Name   `yaml:"-" json:"-" xml:"database"`
	Name    string     `yaml:"name,omitempty" json:"name,omitempty" xml:"name,attr,omitempty"`
	Tables  []docTable `yaml:"tables" json:"tables" xml:"tables>table"`
	Rels    []docRel   `yaml:"relationships" json:"relationships" xml:"relationships>relationship"`
}

type docTable struct {
	Name    string      `yaml:"name" json:"name" xml:"name,attr"`
	Schema  string      `yaml:"schema,omitempty" json:"schema,omitempty" xml:"schema,attr,omitempty"`
	Columns []docColumn `yaml:"columns" json:"columns" xml:"columns>column"`
	Indexes []docIndex  `yaml:"indexes,omitempty" json:"indexes,omitempty" xml:"indexes>index,omitempty"`
}

type docColumn struct {
	Name         string `yaml:"name" json:"name" xml:"name,attr"`
	Type         string `yaml:"type" json:"type" xml:"type,attr"`
	Nullable     bool   `yaml:"nullable" json:"nullable" xml:"nullable,attr"`
	IsPrimaryKey bool   `yaml:"is_primary_key" json:"is_primary_key" xml:"is_primary_key,attr"`
	MaxLength    *int   `yaml:"max_length,omitempty" json:"max_length,omitempty" xml:"max_length,attr,omitempty"`
	Precision    *int   `yaml:"precision,omitempty" json:"precision,omitempty" xml:"precision,attr,omitempty"`
	Scale        *int   `yaml:"scale,omitempty" json:"scale,omitempty" xml:"scale,attr,omitempty"`
}

type docIndex struct {
	Name     string   `yaml:"name" json:"name" xml:"name,attr"`
	Columns  []string `yaml:"columns" json:"columns" xml:"column"`
	IsUnique bool     `yaml:"is_unique" json:"is_unique" xml:"is_unique,attr"`
}

type docRel struct {
	Table         string   `yaml:"table" json:"table" xml:"table,attr"`
	Parent        string   `yaml:"parent" json:"parent" xml:"parent,attr"`
	Relation      string   `yaml:"relation" json:"relation" xml:"relation,attr"`
	ParentColumns []string `yaml:"parent_columns" json:"parent_columns" xml:"parent_column"`
	ChildColumns  []string `yaml:"child_columns" json:"child_columns" xml:"child_column"`
}

// toDocument flattens a schema into the interchange layout. Columns keep
// their ordinal order and carry their primary key membership inline;
// relationships are listed once, globally, with their column lists aligned
// by position.
func toDocument(s *schema.Schema) document {
	doc := document{Name: s.DatabaseName}

	for _, t := range s.Tables {
		dt := docTable{Name: t.Name, Schema: t.SchemaName}
		for _, c := range t.Columns {
			dt.Columns = append(dt.Columns, docColumn{
				Name:         c.Name,
				Type:         c.Type,
				Nullable:     c.Nullable,
				IsPrimaryKey: t.IsPrimaryKey(c.Name),
				MaxLength:    c.MaxLength,
				Precision:    c.Precision,
				Scale:        c.Scale,
			})
		}
		for _, idx := range t.Indexes {
			dt.Indexes = append(dt.Indexes, docIndex{
				Name:     idx.Name,
				Columns:  idx.Columns,
				IsUnique: idx.IsUnique,
			})
		}
		doc.Tables = append(doc.Tables, dt)
	}

	for _, rel := range s.Relationships {
		dr := docRel{
			Table:    rel.Child,
			Parent:   rel.Parent,
			Relation: string(rel.Kind),
		}
		for _, p := range rel.Pairs {
			dr.ParentColumns = append(dr.ParentColumns, p.Parent)
			dr.ChildColumns = append(dr.ChildColumns, p.Child)
		}
		doc.Rels = append(doc.Rels, dr)
	}

	return doc
}

// YAMLSerializer writes the schema document as YAML.
type YAMLSerializer struct{}

func (YAMLSerializer) Serialize(s *schema.Schema, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(s)); err != nil {
		return fmt.Errorf("failed to encode schema as YAML: %w", err)
	}
	return enc.Close()
}

// JSONSerializer writes the schema document as indented JSON.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(s *schema.Schema, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(s)); err != nil {
		return fmt.Errorf("failed to encode schema as JSON: %w", err)
	}
	return nil
}

// XMLSerializer writes the schema document as indented XML.
type XMLSerializer struct{}

func (XMLSerializer) Serialize(s *schema.Schema, w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(toDocument(s)); err != nil {
		return fmt.Errorf("failed to encode schema as XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
