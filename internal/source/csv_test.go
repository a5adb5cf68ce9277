package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemaq/internal/relgraph"
	"github.com/tordrt/schemaq/internal/schema"
)

func TestFromCSVReader(t *testing.T) {
	data := strings.Join([]string{
		"table,parent,relation,parent_column,child_column",
		"orders,users,many-to-one,id,user_id",
		"order_items,orders,many-to-one,id,order_id",
	}, "\n")

	set, err := FromCSVReader("rels.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "rels.csv", set.Name())
	assert.Equal(t, []relgraph.Fact{
		{Child: "orders", Parent: "users", Kind: schema.ManyToOne,
			ParentColumns: []string{"id"}, ChildColumns: []string{"user_id"}},
		{Child: "order_items", Parent: "orders", Kind: schema.ManyToOne,
			ParentColumns: []string{"id"}, ChildColumns: []string{"order_id"}},
	}, set.Facts())
}

func TestFromCSVReaderCompositeRows(t *testing.T) {
	// Consecutive rows sharing (table, parent, relation) compose into one
	// multi-column fact.
	data := strings.Join([]string{
		"table,parent,relation,parent_column,child_column",
		"shipments,orders,many-to-one,id,order_id",
		"shipments,orders,many-to-one,region,order_region",
	}, "\n")

	set, err := FromCSVReader("rels.csv", strings.NewReader(data))
	require.NoError(t, err)

	facts := set.Facts()
	require.Len(t, facts, 1)
	assert.Equal(t, []string{"id", "region"}, facts[0].ParentColumns)
	assert.Equal(t, []string{"order_id", "order_region"}, facts[0].ChildColumns)
}

func TestFromCSVReaderOrdinalOrdering(t *testing.T) {
	data := strings.Join([]string{
		"table,parent,relation,parent_column,child_column,ordinal",
		"shipments,orders,many-to-one,region,order_region,2",
		"shipments,orders,many-to-one,id,order_id,1",
	}, "\n")

	set, err := FromCSVReader("rels.csv", strings.NewReader(data))
	require.NoError(t, err)

	facts := set.Facts()
	require.Len(t, facts, 1)
	assert.Equal(t, []string{"id", "region"}, facts[0].ParentColumns)
	assert.Equal(t, []string{"order_id", "order_region"}, facts[0].ChildColumns)
}

func TestFromCSVReaderNormalizesKind(t *testing.T) {
	data := strings.Join([]string{
		"table,parent,relation,parent_column,child_column",
		"orders,users,MANY_TO_ONE,id,user_id",
	}, "\n")

	set, err := FromCSVReader("rels.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, schema.ManyToOne, set.Facts()[0].Kind)
}

func TestFromCSVReaderMissingHeader(t *testing.T) {
	data := "table,parent,relation\norders,users,many-to-one"

	_, err := FromCSVReader("rels.csv", strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent_column")
}

func TestFromCSVReaderEmptyTableName(t *testing.T) {
	data := strings.Join([]string{
		"table,parent,relation,parent_column,child_column",
		",users,many-to-one,id,user_id",
	}, "\n")

	_, err := FromCSVReader("rels.csv", strings.NewReader(data))

	var verr *relgraph.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "line 2")
}

func TestFromCSVReaderBadOrdinal(t *testing.T) {
	data := strings.Join([]string{
		"table,parent,relation,parent_column,child_column,ordinal",
		"orders,users,many-to-one,id,user_id,first",
	}, "\n")

	_, err := FromCSVReader("rels.csv", strings.NewReader(data))

	var verr *relgraph.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "ordinal")
}

func TestFromCSVMissingFile(t *testing.T) {
	_, err := FromCSV("does-not-exist.csv")
	require.Error(t, err)
}
