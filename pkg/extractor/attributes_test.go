package extractor

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestCustomAttributes_AbsentBlock(t *testing.T) {
	attrs, err := CustomAttributes(map[string]any{}, "STUDY", testLogger())
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestCustomAttributes_SingleObjectBlock(t *testing.T) {
	node := map[string]any{
		"STUDY_ATTRIBUTES": map[string]any{
			"STUDY_ATTRIBUTE": map[string]any{"TAG": "ENA-FIRST-PUBLIC", "VALUE": "2020-05-31"},
		},
	}

	attrs, err := CustomAttributes(node, "STUDY", testLogger())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ENA-FIRST-PUBLIC [STUDY]": "2020-05-31"}, attrs)
}

func TestCustomAttributes_EntriesWithoutValueDiscarded(t *testing.T) {
	node := map[string]any{
		"SAMPLE_ATTRIBUTES": map[string]any{
			"SAMPLE_ATTRIBUTE": []any{
				map[string]any{"TAG": "depth", "VALUE": "10m"},
				map[string]any{"TAG": "no-value"},
			},
		},
	}

	attrs, err := CustomAttributes(node, "SAMPLE", testLogger())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"depth [SAMPLE]": "10m"}, attrs)
}

func TestCustomAttributes_DuplicateTagsSuffixed(t *testing.T) {
	node := map[string]any{
		"RUN_ATTRIBUTES": map[string]any{
			"RUN_ATTRIBUTE": []any{
				map[string]any{"TAG": "flowcell", "VALUE": "b"},
				map[string]any{"TAG": "flowcell", "VALUE": "a"},
				map[string]any{"TAG": "lane", "VALUE": "1"},
			},
		},
	}

	attrs, err := CustomAttributes(node, "RUN", testLogger())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"flowcell_1 [RUN]": "a",
		"flowcell_2 [RUN]": "b",
		"lane [RUN]":       "1",
	}, attrs)
}

func TestCustomAttributes_MalformedEntryPropagates(t *testing.T) {
	node := map[string]any{
		"RUN_ATTRIBUTES": map[string]any{
			"RUN_ATTRIBUTE": []any{"not a mapping"},
		},
	}

	_, err := CustomAttributes(node, "RUN", testLogger())
	assert.Error(t, err)
}
