package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=10"`
}

func TestDecodeJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"tee","quantity":2}`))
	var body sampleBody
	require.NoError(t, DecodeJSONBody(r, &body))
	assert.Equal(t, "tee", body.Name)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"tee","quantity":2,"extra":true}`))
	var body sampleBody
	err := DecodeJSONBody(r, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"quantity":11}`))
	var body sampleBody
	err := DecodeJSONBody(r, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be at most 10", details["quantity"])
}

type nestedBody struct {
	Items []sampleBody `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsNestedPaths(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"items":[{"name":"tee","quantity":1},{"name":"","quantity":0}]}`))
	var body nestedBody
	typed := pkgerrors.As(DecodeJSONBody(r, &body))
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["items[1].name"])
	assert.Equal(t, "must be at least 1", details["items[1].quantity"])
}

func TestDecodeJSONBodyRejectsEmptyTrailingAndOversizedBodies(t *testing.T) {
	var body sampleBody

	err := DecodeJSONBody(httptest.NewRequest("POST", "/", nil), &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())

	err = DecodeJSONBody(httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"tee","quantity":1} {"name":"cap"}`)), &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Message(), "single JSON object")

	huge := `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `","quantity":1}`
	err = DecodeJSONBody(httptest.NewRequest("POST", "/", strings.NewReader(huge)), &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())
}

func TestDecodeJSONBodyNamesMistypedField(t *testing.T) {
	var body sampleBody
	typed := pkgerrors.As(DecodeJSONBody(httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"tee","quantity":"two"}`)), &body))
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "must be of type int", details["quantity"])
}
