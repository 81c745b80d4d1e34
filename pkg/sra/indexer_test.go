package sra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindAllRunIDs_NestedRunSets(t *testing.T) {
	packets := []map[string]any{
		{
			"RUN_SET": []any{
				map[string]any{
					"RUN": []any{
						map[string]any{"@accession": "ab12"},
						map[string]any{"@accession": "bc23"},
					},
				},
				map[string]any{
					"RUN": map[string]any{"@accession": "cd34"},
				},
			},
		},
		{
			"RUN_SET": map[string]any{
				"RUN": map[string]any{"@accession": "ef56"},
			},
		},
	}

	found := FindAllRunIDs(packets)
	assert.Equal(t, map[string]int{
		"ab12": 0,
		"bc23": 0,
		"cd34": 0,
		"ef56": 1,
	}, found)
}

func TestFindAllRunIDs_NoRunSet(t *testing.T) {
	found := FindAllRunIDs([]map[string]any{{"STUDY": map[string]any{}}})
	assert.Empty(t, found)
}
