package schemaq

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemaq/internal/relgraph"
	"github.com/tordrt/schemaq/internal/schema"
)

func shopSchema() *schema.Schema {
	return &schema.Schema{
		DatabaseName: "shop",
		Tables: []schema.Table{
			{
				Name: "users",
				Columns: []schema.Column{
					{Name: "id", Type: "integer", Ordinal: 1},
					{Name: "name", Type: "text", Ordinal: 2},
				},
				PrimaryKey: []string{"id"},
				Indexes:    []schema.Index{},
			},
			{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id", Type: "integer", Ordinal: 1},
					{Name: "user_id", Type: "integer", Ordinal: 2},
					{Name: "status", Type: "text", Ordinal: 3},
				},
				PrimaryKey: []string{"id"},
				Indexes:    []schema.Index{},
			},
			{
				Name: "products",
				Columns: []schema.Column{
					{Name: "id", Type: "integer", Ordinal: 1},
				},
				PrimaryKey: []string{"id"},
				Indexes:    []schema.Index{},
			},
		},
		Relationships: []schema.Relationship{
			{Child: "orders", Parent: "users", Kind: schema.ManyToOne,
				Pairs: []schema.ColumnPair{{Parent: "id", Child: "user_id"}}},
		},
	}
}

func resolvedBridge(t *testing.T) *Bridge {
	t.Helper()
	b := NewBridge(shopSchema())
	require.NoError(t, b.UseSchemaRelationships())
	require.NoError(t, b.Resolve())
	return b
}

func TestBridgeLifecycle(t *testing.T) {
	b := NewBridge(shopSchema())
	assert.False(t, b.Resolved())

	_, err := b.RootTables()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not resolved")

	require.NoError(t, b.UseSchemaRelationships())
	require.NoError(t, b.Resolve())
	assert.True(t, b.Resolved())

	// Adding another source invalidates the graph until Resolve runs again.
	require.NoError(t, b.AddFacts("extra", []relgraph.Fact{
		{Child: "order_items", Parent: "orders", Kind: schema.ManyToOne,
			ParentColumns: []string{"id"}, ChildColumns: []string{"order_id"}},
	}))
	assert.False(t, b.Resolved())
	require.NoError(t, b.Resolve())
	assert.True(t, b.Resolved())
}

func TestBridgeRootTables(t *testing.T) {
	b := resolvedBridge(t)

	roots, err := b.RootTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"products", "users"}, roots)
}

func TestBridgeRelationships(t *testing.T) {
	b := resolvedBridge(t)

	rels, err := b.Relationships()
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "orders", rels[0].Child)
	assert.Equal(t, "users", rels[0].Parent)
}

func TestBridgeQueryJoins(t *testing.T) {
	b := resolvedBridge(t)

	result, err := b.Query(Filter().Params("orders", "status"), "orders", "users")
	require.NoError(t, err)

	assert.Contains(t, result.Query, "FROM orders T1")
	assert.Contains(t, result.Query, "LEFT JOIN users T2 ON T1.user_id = T2.id")
	assert.Contains(t, result.Query, "WHERE T1.status = ?")
	assert.Equal(t, []string{"orders", "users"}, result.TablesUsed)

	require.Len(t, result.Parameters, 1)
	assert.Equal(t, "orders.status", result.Parameters[0].Column)

	// status has no index and user_id joins without one.
	statements := make([]string, 0, len(result.IndexRecommendations))
	for _, rec := range result.IndexRecommendations {
		statements = append(statements, rec.Statement)
	}
	assert.Contains(t, statements, "CREATE INDEX IX_orders_status ON orders (status)")
	assert.Contains(t, statements, "CREATE INDEX IX_orders_user_id_FK ON orders (user_id)")
}

func TestBridgeQueryDefaultsToSpecTables(t *testing.T) {
	b := resolvedBridge(t)

	result, err := b.Query(Filter().Params("orders", "status"))
	require.NoError(t, err)

	assert.Equal(t, []string{"orders"}, result.TablesUsed)
	assert.NotContains(t, result.Query, "LEFT JOIN")
}

func TestBridgeQueryEmptySpecQueriesWholeSchema(t *testing.T) {
	b := resolvedBridge(t)
	require.NoError(t, b.AddFacts("extra", []relgraph.Fact{
		{Child: "order_items", Parent: "orders", Kind: schema.ManyToOne,
			ParentColumns: []string{"id"}, ChildColumns: []string{"order_id"}},
		{Child: "order_items", Parent: "products", Kind: schema.ManyToOne,
			ParentColumns: []string{"id"}, ChildColumns: []string{"product_id"}},
	}))
	require.NoError(t, b.Resolve())

	result, err := b.Query(Filter())
	require.NoError(t, err)

	// All schema tables are targets; order_items is pulled in as a
	// connector even though the schema does not describe it.
	assert.Contains(t, result.TablesUsed, "users")
	assert.Contains(t, result.TablesUsed, "products")
	assert.Contains(t, result.TablesUsed, "order_items")
}

func TestBridgePlanDeterministicAliases(t *testing.T) {
	b := resolvedBridge(t)

	plan, err := b.Plan("orders", "users")
	require.NoError(t, err)

	alias, ok := plan.Alias("orders")
	require.True(t, ok)
	assert.Equal(t, "T1", alias)
	alias, ok = plan.Alias("users")
	require.True(t, ok)
	assert.Equal(t, "T2", alias)
}

func TestBridgeRenderPlan(t *testing.T) {
	b := resolvedBridge(t)

	var buf bytes.Buffer
	require.NoError(t, b.RenderPlan(&buf, "orders", "users"))
	assert.Contains(t, buf.String(), "JOIN PLAN")
}

func TestRelationshipsFromCSVIntoBridge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rels.csv")
	data := "table,parent,relation,parent_column,child_column\n" +
		"orders,users,many-to-one,id,user_id\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	src, err := RelationshipsFromCSV(path)
	require.NoError(t, err)

	b := NewBridge(shopSchema())
	require.NoError(t, b.AddSource(src))
	require.NoError(t, b.Resolve())

	rels, err := b.Relationships()
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "orders", rels[0].Child)
}
