package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "classic-cotton-tee", Slugify("  Classic Cotton Tee "))
	assert.Equal(t, "mens-runner-2", Slugify("Men's Runner -- 2!"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestNewSlugAppendsMillis(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "denim-jacket-1700000000123", NewSlug("Denim Jacket", at))
	assert.Equal(t, "product-1700000000123", NewSlug("***", at))
}
