package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSpecBuilderCopies(t *testing.T) {
	base := FilterSpec{}.Params("orders", "status")
	extended := base.Params("users", "email")

	// Extending a spec must not leak into the base value.
	assert.Equal(t, []string{"orders"}, base.Tables())
	assert.Equal(t, []string{"orders", "users"}, extended.Tables())
}

func TestFilterSpecEmpty(t *testing.T) {
	assert.True(t, FilterSpec{}.Empty())
	assert.False(t, FilterSpec{}.Params("orders", "status").Empty())
}

func TestFilterSpecTablesDeduped(t *testing.T) {
	spec := FilterSpec{}.
		Params("orders", "status").
		Params("users", "email").
		Params("orders", "total")

	assert.Equal(t, []string{"orders", "users"}, spec.Tables())
}

func TestFilterSpecValidate(t *testing.T) {
	preds, err := FilterSpec{}.Params("orders", "status", "total").validate()
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, "status", preds[0].column)
	assert.Equal(t, "total", preds[1].column)
	assert.False(t, preds[0].bound)
}

func TestFilterSpecValueForm(t *testing.T) {
	preds, err := FilterSpec{}.Value("orders.status", "shipped").validate()
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "orders", preds[0].table)
	assert.Equal(t, "status", preds[0].column)
	assert.Equal(t, "shipped", preds[0].value)
	assert.True(t, preds[0].bound)
}

func TestFilterSpecMixedFormsRejected(t *testing.T) {
	spec := FilterSpec{}.
		Params("orders", "status").
		Value("users.email", "a@example.com")

	_, err := spec.validate()

	var ferr *InvalidFilterSpecError
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, ferr.Reason, "mixed")
}

func TestFilterSpecMalformed(t *testing.T) {
	tests := []struct {
		name string
		spec FilterSpec
	}{
		{name: "no columns", spec: FilterSpec{}.Params("orders")},
		{name: "missing table", spec: FilterSpec{}.Params("", "status")},
		{name: "value without column", spec: FilterSpec{}.Value("orders", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.validate()
			var ferr *InvalidFilterSpecError
			require.ErrorAs(t, err, &ferr)
		})
	}
}
