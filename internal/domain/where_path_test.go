package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWherePath(t *testing.T) {
	p, err := ParseWherePath("products.category.name")
	require.NoError(t, err)
	assert.Equal(t, WherePath{Entity: "products", Relations: []string{"category"}, Column: "name"}, p)
	assert.Equal(t, "products.category.name", p.String())

	p, err = ParseWherePath("users.status")
	require.NoError(t, err)
	assert.Equal(t, "users", p.Entity)
	assert.Empty(t, p.Relations)
	assert.Equal(t, "status", p.Column)

	p, err = ParseWherePath("a.b.c.d")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, p.Relations)
}

func TestParseWherePath_Invalid(t *testing.T) {
	for _, in := range []string{"", "users", "users..name", ".name", "users."} {
		_, err := ParseWherePath(in)
		assert.ErrorIs(t, err, ErrInvalidWherePath, in)
	}
}
