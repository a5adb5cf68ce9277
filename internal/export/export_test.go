package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemaq/internal/schema"
)

func exportSchema() *schema.Schema {
	maxLen := 120
	return &schema.Schema{
		DatabaseName: "shop",
		Tables: []schema.Table{
			{
				Name:       "users",
				SchemaName: "public",
				Columns: []schema.Column{
					{Name: "id", Type: "integer", Ordinal: 1},
					{Name: "email", Type: "varchar", Ordinal: 2, Nullable: true, MaxLength: &maxLen},
				},
				PrimaryKey: []string{"id"},
				Indexes: []schema.Index{
					{Name: "ux_users_email", Columns: []string{"email"}, IsUnique: true},
				},
			},
			{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id", Type: "integer", Ordinal: 1},
					{Name: "user_id", Type: "integer", Ordinal: 2},
				},
				PrimaryKey: []string{"id"},
			},
		},
		Relationships: []schema.Relationship{
			{Child: "orders", Parent: "users", Kind: schema.ManyToOne,
				Pairs: []schema.ColumnPair{{Parent: "id", Child: "user_id"}}},
		},
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"yaml", "yml", "json", "xml", "text", "txt"} {
		ser, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.NotNil(t, ser)
	}

	_, err := ForFormat("toml")
	require.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAMLSerializer{}.Serialize(exportSchema(), &buf))

	var doc struct {
		Name   string `yaml:"name"`
		Tables []struct {
			Name    string `yaml:"name"`
			Columns []struct {
				Name         string `yaml:"name"`
				IsPrimaryKey bool   `yaml:"is_primary_key"`
				MaxLength    *int   `yaml:"max_length"`
			} `yaml:"columns"`
		} `yaml:"tables"`
		Relationships []struct {
			Table         string   `yaml:"table"`
			Parent        string   `yaml:"parent"`
			Relation      string   `yaml:"relation"`
			ParentColumns []string `yaml:"parent_columns"`
			ChildColumns  []string `yaml:"child_columns"`
		} `yaml:"relationships"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "shop", doc.Name)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "users", doc.Tables[0].Name)
	assert.True(t, doc.Tables[0].Columns[0].IsPrimaryKey)
	require.NotNil(t, doc.Tables[0].Columns[1].MaxLength)
	assert.Equal(t, 120, *doc.Tables[0].Columns[1].MaxLength)

	require.Len(t, doc.Relationships, 1)
	assert.Equal(t, "orders", doc.Relationships[0].Table)
	assert.Equal(t, "many-to-one", doc.Relationships[0].Relation)
	assert.Equal(t, []string{"id"}, doc.Relationships[0].ParentColumns)
	assert.Equal(t, []string{"user_id"}, doc.Relationships[0].ChildColumns)
}

func TestJSONSerialize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONSerializer{}.Serialize(exportSchema(), &buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "shop", doc["name"])
	tables, ok := doc["tables"].([]any)
	require.True(t, ok)
	assert.Len(t, tables, 2)
}

func TestXMLSerialize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XMLSerializer{}.Serialize(exportSchema(), &buf))

	out := buf.String()
	assert.Contains(t, out, `<database name="shop">`)
	assert.Contains(t, out, `<table name="users"`)
	assert.Contains(t, out, `<relationship table="orders" parent="users" relation="many-to-one">`)
	assert.Contains(t, out, "<parent_column>id</parent_column>")
	assert.Contains(t, out, "<child_column>user_id</child_column>")
}

func TestTextSerialize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextSerializer{}.Serialize(exportSchema(), &buf))

	out := buf.String()
	assert.Contains(t, out, "TABLE users (PK: id)")
	assert.Contains(t, out, "email: varchar(120)")
	assert.Contains(t, out, "id: integer NOT NULL")
	assert.Contains(t, out, "RELATIONS:")
	assert.Contains(t, out, "-> users (many-to-one) on user_id=users.id")
	assert.Contains(t, out, "ux_users_email (email) UNIQUE")
}

func TestMultiExporter(t *testing.T) {
	dir := t.TempDir()
	exp := NewMultiExporter(dir, []string{"yaml", "json"})

	require.NoError(t, exp.Export(exportSchema()))

	for _, name := range []string{"schema.yaml", "schema.json", "_overview.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	overview, err := os.ReadFile(filepath.Join(dir, "_overview.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "orders (references: users)")
}

func TestMultiExporterUnknownFormat(t *testing.T) {
	exp := NewMultiExporter(t.TempDir(), []string{"toml"})
	require.Error(t, exp.Export(exportSchema()))
}
