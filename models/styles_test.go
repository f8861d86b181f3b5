package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleCatalogIsWellFormed(t *testing.T) {
	require.NotEmpty(t, StyleCatalog)

	seen := map[string]bool{}
	for _, style := range StyleCatalog {
		assert.NotEmpty(t, style.ID)
		assert.NotEmpty(t, style.Label)
		assert.NotEmpty(t, style.Prompt)
		assert.Contains(t, []StyleCategory{CategoryStyle, CategoryColor, CategoryCreative}, style.Category)
		assert.False(t, seen[style.ID], "duplicate style id %s", style.ID)
		seen[style.ID] = true
	}
}

func TestStyleByID(t *testing.T) {
	style, ok := StyleByID("buzz-cut")
	require.True(t, ok)
	assert.Equal(t, "Buzz Cut", style.Label)

	_, ok = StyleByID("mullet-deluxe")
	assert.False(t, ok)
}

func TestStylesByCategoryCoversCatalog(t *testing.T) {
	total := len(StylesByCategory(CategoryStyle)) +
		len(StylesByCategory(CategoryColor)) +
		len(StylesByCategory(CategoryCreative))
	assert.Equal(t, len(StyleCatalog), total)

	for _, style := range StylesByCategory(CategoryColor) {
		assert.Equal(t, CategoryColor, style.Category)
	}
}

func TestStylesByCategoryPreservesCatalogOrder(t *testing.T) {
	styles := StylesByCategory(CategoryStyle)
	var fromCatalog []string
	for _, style := range StyleCatalog {
		if style.Category == CategoryStyle {
			fromCatalog = append(fromCatalog, style.ID)
		}
	}
	require.Len(t, styles, len(fromCatalog))
	for i, style := range styles {
		assert.Equal(t, fromCatalog[i], style.ID)
	}
}

func TestValidateStyleIDRaw(t *testing.T) {
	assert.True(t, ValidateStyleIDRaw("pixie"))
	assert.False(t, ValidateStyleIDRaw(""))
	assert.False(t, ValidateStyleIDRaw("mullet-deluxe"))
}
