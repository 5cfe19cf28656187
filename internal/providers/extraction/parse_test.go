package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractions(t *testing.T) {
	content := `Here is what I found:
[
  {"class": "product", "text": "Created gid://shopify/Product/8841290131", "attributes": {"title": "Wallet", "price": "49", "sku": "W-1"}, "span": [10, 52]},
  {"class_name": "user_intent", "text": "create a wallet product"},
  {"class": "", "text": "missing class is dropped"},
  {"class": "decision", "text": ""},
  {"class": "pricing", "text": "discount applied", "attributes": {"discount": 20, "note": null}}
]`

	got, err := parseExtractions(content)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "product", got[0].Class)
	require.NotNil(t, got[0].Span)
	assert.Equal(t, 10, got[0].Span.Start)
	assert.Equal(t, 52, got[0].Span.End)

	// Attribute order must survive the round trip.
	require.Len(t, got[0].Attrs, 3)
	assert.Equal(t, "title", got[0].Attrs[0].Key)
	assert.Equal(t, "price", got[0].Attrs[1].Key)
	assert.Equal(t, "sku", got[0].Attrs[2].Key)

	// python-style class_name is accepted.
	assert.Equal(t, "user_intent", got[1].Class)
	assert.Nil(t, got[1].Span)

	// Non-string attribute values coerce to strings, null becomes empty.
	assert.Equal(t, "20", got[2].Attrs.Get("discount"))
	assert.Equal(t, "", got[2].Attrs.Get("note"))
}

func TestParseExtractions_EmptyArray(t *testing.T) {
	got, err := parseExtractions("[]")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseExtractions_NoArray(t *testing.T) {
	_, err := parseExtractions("I could not extract anything.")
	assert.Error(t, err)
}
