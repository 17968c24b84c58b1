package mdlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

func TestParse_NumberedList(t *testing.T) {
	text := "1. Apple - $1,000 (in stock)\n2. Banana - $2,000 (out of stock)\n"
	extraction := &vgw.TextExtraction{
		Parser:    ParserNumbered,
		ListField: "products",
		Fields: map[string]vgw.FieldPattern{
			"name":  {Regex: `^(\w+)`, Required: true},
			"price": {Regex: `\$([\d,]+)`, Type: "integer", Transform: "remove_commas", Required: true},
		},
	}

	got := Parse(text, extraction)
	wrapped, ok := got.(map[string]any)
	require.True(t, ok)
	products, ok := wrapped["products"].([]any)
	require.True(t, ok)
	require.Len(t, products, 2)

	first := products[0].(map[string]any)
	assert.Equal(t, "Apple", first["name"])
	assert.Equal(t, 1000, first["price"])
}

func TestParse_BulletList(t *testing.T) {
	text := "- foo\n- bar\n"
	extraction := &vgw.TextExtraction{
		Parser: ParserBullet,
		Fields: map[string]vgw.FieldPattern{
			"name": {Regex: `^(\w+)`, Required: true},
		},
	}
	got := Parse(text, extraction)
	items, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "foo", items[0].(map[string]any)["name"])
	assert.Equal(t, "bar", items[1].(map[string]any)["name"])
}

func TestParse_DropsItemsMissingRequiredField(t *testing.T) {
	text := "1. has-price - $5\n2. no-price-here\n"
	extraction := &vgw.TextExtraction{
		Parser: ParserNumbered,
		Fields: map[string]vgw.FieldPattern{
			"price": {Regex: `\$(\d+)`, Required: true, Type: "integer"},
		},
	}
	got := Parse(text, extraction)
	items, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].(map[string]any)["price"])
}

func TestParse_TransformsAndCoercion(t *testing.T) {
	text := "1. NAME\n"
	extraction := &vgw.TextExtraction{
		Parser: ParserNumbered,
		Fields: map[string]vgw.FieldPattern{
			"name": {Regex: `^(\w+)`, Transform: "lowercase"},
		},
	}
	got := Parse(text, extraction)
	items, ok := got.([]any)
	require.True(t, ok)
	assert.Equal(t, "name", items[0].(map[string]any)["name"])
}

func TestParse_UnknownParserReturnsNil(t *testing.T) {
	extraction := &vgw.TextExtraction{Parser: "nope"}
	assert.Nil(t, Parse("1. x\n", extraction))
}

func TestParse_NoRecordsReturnsNilWithoutListField(t *testing.T) {
	extraction := &vgw.TextExtraction{
		Parser: ParserNumbered,
		Fields: map[string]vgw.FieldPattern{
			"name": {Regex: `^(\w+)`, Required: true},
		},
	}
	assert.Nil(t, Parse("no list markers here\n", extraction))
}
