package validators

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3&limit=500&bad=x", nil)

	v, err := ParseQueryInt(r, "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = ParseQueryInt(r, "missing", 7, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = ParseQueryInt(r, "limit", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(r, "bad", 1, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryOptionals(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest("GET", "/?min_price=100&in_stock=true&category="+id.String()+"&sizes=S,%20M,,L", nil)

	price, err := ParseQueryInt64(r, "min_price")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, int64(100), *price)

	none, err := ParseQueryInt64(r, "max_price")
	require.NoError(t, err)
	assert.Nil(t, none)

	inStock, err := ParseQueryBool(r, "in_stock", false)
	require.NoError(t, err)
	assert.True(t, inStock)

	cat, err := ParseQueryUUID(r, "category")
	require.NoError(t, err)
	assert.Equal(t, id, *cat)

	assert.Equal(t, []string{"S", "M", "L"}, ParseQueryList(r, "sizes"))
	assert.Nil(t, ParseQueryList(r, "colors"))

	rating, err := ParseQueryOptionalInt(r, "rating", 1, 5)
	require.NoError(t, err)
	assert.Nil(t, rating)
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("productId", id.String())
	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(r, "productId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(r, "orderId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
