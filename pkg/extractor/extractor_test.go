package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsList(t *testing.T) {
	assert.Nil(t, AsList(nil))
	assert.Equal(t, []any{"a", "b"}, AsList([]any{"a", "b"}))
	assert.Equal(t, []any{"single"}, AsList("single"))
}

func TestAsString_TextWrapper(t *testing.T) {
	assert.Equal(t, "plain", AsString("plain"))
	assert.Equal(t, "wrapped", AsString(map[string]any{"@abbr": "w", "#text": "wrapped"}))
	assert.Equal(t, "", AsString(nil))
	assert.Equal(t, "", AsString(map[string]any{"@abbr": "w"}))
}

func TestAsInt(t *testing.T) {
	assert.Equal(t, int64(345), AsInt("345"))
	assert.Equal(t, int64(0), AsInt(nil))
	assert.Equal(t, int64(0), AsInt("not a number"))
}

func TestLookup(t *testing.T) {
	node := map[string]any{
		"Statistics": map[string]any{"@nspots": "12"},
	}

	assert.Equal(t, "12", LookupString(node, "Statistics", "@nspots"))
	assert.Nil(t, Lookup(node, "Statistics", "missing"))
	assert.Nil(t, Lookup(node, "missing", "@nspots"))
}

func TestFindByNamespace(t *testing.T) {
	single := map[string]any{"@namespace": "BioProject", "#text": "PRJNA1"}
	list := []any{
		map[string]any{"@namespace": "GEO", "#text": "GSE1"},
		map[string]any{"@namespace": "bioproject", "#text": "PRJNA2"},
	}

	found := FindByNamespace(single, "BioProject")
	require.NotNil(t, found)
	assert.Equal(t, "PRJNA1", AsString(found["#text"]))

	found = FindByNamespace(list, "BioProject")
	require.NotNil(t, found)
	assert.Equal(t, "PRJNA2", AsString(found["#text"]))

	assert.Nil(t, FindByNamespace(list, "BioSample"))
}

func TestSoleKey(t *testing.T) {
	key, err := SoleKey(map[string]any{"ILLUMINA": nil})
	require.NoError(t, err)
	assert.Equal(t, "ILLUMINA", key)

	_, err = SoleKey(map[string]any{"A": nil, "B": nil})
	assert.Error(t, err)
}
