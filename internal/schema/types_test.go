package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"many-to-one", ManyToOne},
		{"many_to_one", ManyToOne},
		{"ONE_TO_MANY", OneToMany},
		{"Many-To-Many", ManyToMany},
		{"belongs-to", Kind("belongs-to")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.in), tt.in)
	}
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(OneToMany))
	assert.True(t, ValidKind(ManyToOne))
	assert.True(t, ValidKind(ManyToMany))
	assert.False(t, ValidKind(Kind("belongs-to")))
	assert.False(t, ValidKind(Kind("")))
}

func TestTableLookups(t *testing.T) {
	s := &Schema{Tables: []Table{
		{
			Name:       "orders",
			Columns:    []Column{{Name: "id"}, {Name: "status"}},
			PrimaryKey: []string{"id"},
		},
	}}

	tbl := s.Table("orders")
	assert.NotNil(t, tbl)
	assert.Nil(t, s.Table("missing"))

	assert.NotNil(t, tbl.Column("status"))
	assert.Nil(t, tbl.Column("missing"))

	assert.True(t, tbl.IsPrimaryKey("id"))
	assert.False(t, tbl.IsPrimaryKey("status"))
}
