package entrez

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeXML_AttributesAndText(t *testing.T) {
	doc := `<?xml version="1.0"?>
	<STUDY accession="SRP1">
		<TITLE>soil survey</TITLE>
		<NAME abbr="BSC">Big Sequencing Center</NAME>
	</STUDY>`

	root, err := DecodeXML(strings.NewReader(doc))
	require.NoError(t, err)

	study, ok := root["STUDY"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SRP1", study["@accession"])
	assert.Equal(t, "soil survey", study["TITLE"])

	name, ok := study["NAME"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "BSC", name["@abbr"])
	assert.Equal(t, "Big Sequencing Center", name["#text"])
}

func TestDecodeXML_RepeatedElementsBecomeLists(t *testing.T) {
	doc := `<RUN_SET>
		<RUN accession="SRR1"></RUN>
		<RUN accession="SRR2"></RUN>
	</RUN_SET>`

	root, err := DecodeXML(strings.NewReader(doc))
	require.NoError(t, err)

	runSet := root["RUN_SET"].(map[string]any)
	runs, ok := runSet["RUN"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 2)
	assert.Equal(t, "SRR1", runs[0].(map[string]any)["@accession"])
	assert.Equal(t, "SRR2", runs[1].(map[string]any)["@accession"])
}

func TestDecodeXML_EmptyElementIsNil(t *testing.T) {
	root, err := DecodeXML(strings.NewReader(`<LAYOUT><PAIRED></PAIRED></LAYOUT>`))
	require.NoError(t, err)

	layout := root["LAYOUT"].(map[string]any)
	value, present := layout["PAIRED"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestDecodeXML_NoRootElement(t *testing.T) {
	_, err := DecodeXML(strings.NewReader("  "))
	assert.Error(t, err)
}
