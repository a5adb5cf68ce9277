package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemaq/internal/query"
	"github.com/tordrt/schemaq/internal/schema"
)

func indexedSchema() *schema.Schema {
	return &schema.Schema{
		Tables: []schema.Table{
			{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id"}, {Name: "user_id"}, {Name: "status"}, {Name: "total"},
				},
				PrimaryKey: []string{"id"},
				Indexes: []schema.Index{
					{Name: "ix_orders_status", Columns: []string{"status", "created_at"}},
				},
			},
			{
				Name:       "users",
				Columns:    []schema.Column{{Name: "id"}, {Name: "email"}},
				PrimaryKey: []string{"id"},
				Indexes:    []schema.Index{},
			},
		},
	}
}

func TestRecommendFilterColumn(t *testing.T) {
	recs := Recommend(indexedSchema(), []query.TableUsage{
		{Table: "orders", Columns: []string{"total"}},
	}, nil)

	require.Len(t, recs, 1)
	assert.Equal(t, "orders", recs[0].Table)
	assert.Equal(t, "total", recs[0].Column)
	assert.Equal(t, "CREATE INDEX IX_orders_total ON orders (total)", recs[0].Statement)
}

func TestRecommendSkipsCoveredFilterColumns(t *testing.T) {
	// status leads an index, created_at is its second key column, id leads
	// the primary key. None need a recommendation.
	recs := Recommend(indexedSchema(), []query.TableUsage{
		{Table: "orders", Columns: []string{"status", "created_at", "id"}},
	}, nil)

	assert.Empty(t, recs)
}

func TestRecommendJoinColumn(t *testing.T) {
	joins := []schema.Relationship{
		{
			Child: "orders", Parent: "users", Kind: schema.ManyToOne,
			Pairs: []schema.ColumnPair{{Parent: "id", Child: "user_id"}},
		},
	}

	recs := Recommend(indexedSchema(), nil, joins)

	require.Len(t, recs, 1)
	assert.Equal(t, "CREATE INDEX IX_orders_user_id_FK ON orders (user_id)", recs[0].Statement)
	assert.Contains(t, recs[0].Reason, "users")
}

func TestRecommendSkipsTablesWithoutIndexMetadata(t *testing.T) {
	// nil Indexes means metadata was never extracted; stay silent rather
	// than recommending blind.
	s := &schema.Schema{
		Tables: []schema.Table{
			{Name: "orders", Columns: []schema.Column{{Name: "status"}}},
		},
	}

	recs := Recommend(s, []query.TableUsage{
		{Table: "orders", Columns: []string{"status"}},
	}, nil)

	assert.Empty(t, recs)
}

func TestRecommendEmptyIndexListStillRecommends(t *testing.T) {
	recs := Recommend(indexedSchema(), []query.TableUsage{
		{Table: "users", Columns: []string{"email"}},
	}, nil)

	require.Len(t, recs, 1)
	assert.Equal(t, "users", recs[0].Table)
}

func TestRecommendDeduplicates(t *testing.T) {
	usage := []query.TableUsage{
		{Table: "orders", Columns: []string{"total", "total"}},
	}
	joins := []schema.Relationship{
		{
			Child: "orders", Parent: "users",
			Pairs: []schema.ColumnPair{{Parent: "id", Child: "total"}},
		},
	}

	recs := Recommend(indexedSchema(), usage, joins)
	assert.Len(t, recs, 1)
}

func TestRecommendUnknownTableSkipped(t *testing.T) {
	recs := Recommend(indexedSchema(), []query.TableUsage{
		{Table: "ghosts", Columns: []string{"name"}},
	}, nil)

	assert.Empty(t, recs)
}

func TestRecommendNilSchema(t *testing.T) {
	assert.Nil(t, Recommend(nil, nil, nil))
}
