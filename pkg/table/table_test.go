package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_ColumnsInEncounterOrder(t *testing.T) {
	tbl := New()

	first := NewRow()
	first.Set("a", "1")
	first.Set("b", "2")
	tbl.Append(first)

	second := NewRow()
	second.Set("b", "3")
	second.Set("c", "4")
	tbl.Append(second)

	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
}

func TestDropEmptyColumns(t *testing.T) {
	tbl := New()

	row := NewRow()
	row.Set("kept", "value")
	row.Set("empty", "")
	tbl.Append(row)

	tbl.DropEmptyColumns()
	assert.Equal(t, []string{"kept"}, tbl.Columns())
}

func TestRenameColumns(t *testing.T) {
	tbl := New()

	row := NewRow()
	row.Set("run_id", "SRR1")
	tbl.Append(row)

	tbl.RenameColumns(func(col string) string {
		return strings.ToUpper(col)
	})

	assert.Equal(t, []string{"RUN_ID"}, tbl.Columns())
	assert.Equal(t, "SRR1", tbl.Rows()[0].Get("RUN_ID"))
}

func TestCollapseDuplicateColumns_KeepsFirst(t *testing.T) {
	tbl := New()

	row := NewRow()
	row.Set("Organism", "a")
	row.Set("organism", "b")
	tbl.Append(row)

	tbl.CollapseDuplicateColumns()
	assert.Equal(t, []string{"Organism"}, tbl.Columns())

	records := tbl.Records()
	require.Len(t, records, 1)
	assert.Equal(t, map[string]string{"Organism": "a"}, records[0])
}

func TestRestrictRows_FilterAndReorder(t *testing.T) {
	tbl := New()
	for _, id := range []string{"SRR1", "SRR2", "SRR3"} {
		row := NewRow()
		row.Set("ID", id)
		tbl.Append(row)
	}

	tbl.RestrictRows("ID", []string{"SRR3", "SRR1", "SRR9"})

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "SRR3", tbl.Rows()[0].Get("ID"))
	assert.Equal(t, "SRR1", tbl.Rows()[1].Get("ID"))
}

func TestOrderColumns_PrefixThenEncounterOrder(t *testing.T) {
	tbl := New()

	row := NewRow()
	row.Set("extra", "1")
	row.Set("ID", "SRR1")
	row.Set("Organism", "x")
	tbl.Append(row)

	tbl.OrderColumns([]string{"ID", "Organism", "NotPresent"})
	assert.Equal(t, []string{"ID", "Organism", "extra"}, tbl.Columns())
}
