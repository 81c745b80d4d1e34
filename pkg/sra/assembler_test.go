package sra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMetadata_SinglePacketCoercedToList(t *testing.T) {
	a := NewAssembler(testLogger())

	missing, err := a.AddMetadata(testPacket(), []string{"SRR0001"})
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, []string{"SRR0001"}, a.RunIDs())
}

func TestAddMetadata_ReportsMissingIDs(t *testing.T) {
	a := NewAssembler(testLogger())

	missing, err := a.AddMetadata(testPacket(), []string{"SRR0001", "SRR7777"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SRR7777"}, missing)
	assert.Equal(t, []string{"SRR0001"}, a.RunIDs())
}

func TestAddMetadata_MalformedPacket(t *testing.T) {
	a := NewAssembler(testLogger())

	_, err := a.AddMetadata([]any{"not a packet"}, []string{"SRR0001"})
	assert.ErrorIs(t, err, ErrMalformedMetadata)
}

func TestTable_RequiredColumnsFirst(t *testing.T) {
	a := NewAssembler(testLogger())

	_, err := a.AddMetadata(testPacket(), []string{"SRR0001"})
	require.NoError(t, err)

	tbl := a.Table()
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, RequiredColumns, tbl.Columns()[:len(RequiredColumns)])
}

func TestTable_RowValues(t *testing.T) {
	a := NewAssembler(testLogger())

	_, err := a.AddMetadata(testPacket(), []string{"SRR0001"})
	require.NoError(t, err)

	records := a.Table().Records()
	require.Len(t, records, 1)
	record := records[0]

	assert.Equal(t, "SRR0001", record["ID"])
	assert.Equal(t, "SAMN0001", record["Biosample ID"])
	assert.Equal(t, "PRJNA123456", record["Bioproject ID"])
	assert.Equal(t, "SRX0001", record["Experiment ID"])
	assert.Equal(t, "SRP123456", record["Study ID"])
	assert.Equal(t, "SRS0001", record["Sample Accession"])
	assert.Equal(t, "human gut metagenome", record["Organism"])
	assert.Equal(t, "Illumina MiSeq", record["Instrument"])
	assert.Equal(t, "ILLUMINA", record["Platform"])
	assert.Equal(t, "11552099", record["Bases"])
	assert.Equal(t, "16798", record["Bytes"])
	assert.Equal(t, "true", record["Public"])
	assert.Equal(t, "PCR", record["Library Selection"])
	assert.Equal(t, "METAGENOMIC", record["Library Source"])
	assert.Equal(t, "PAIRED", record["Library Layout"])
	assert.Equal(t, "293", record["Avg Spot Len"])
	assert.Equal(t, "2020-05-31", record["ENA-FIRST-PUBLIC [STUDY]"])
}

func TestTable_DropsEmptyColumns(t *testing.T) {
	a := NewAssembler(testLogger())
	packet := testPacket()
	sample := packet["SAMPLE"].(map[string]any)
	delete(sample, "TITLE")

	_, err := a.AddMetadata(packet, []string{"SRR0001"})
	require.NoError(t, err)

	assert.NotContains(t, a.Table().Columns(), "Sample Title")
}

func TestTable_RowsOrderedByRequest(t *testing.T) {
	a := NewAssembler(testLogger())

	packetA := testPacket()
	packetB := testPacket()
	packetB["STUDY"].(map[string]any)["IDENTIFIERS"].(map[string]any)["PRIMARY_ID"] = "SRP999999"
	packetB["SAMPLE"].(map[string]any)["@accession"] = "SRS0002"
	packetB["EXPERIMENT"].(map[string]any)["IDENTIFIERS"].(map[string]any)["PRIMARY_ID"] = "SRX0002"
	packetB["RUN_SET"].(map[string]any)["RUN"].(map[string]any)["@accession"] = "SRR0002"

	missing, err := a.AddMetadata([]any{packetA, packetB}, []string{"SRR0002", "SRR0001"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	records := a.Table().Records()
	require.Len(t, records, 2)
	assert.Equal(t, "SRR0002", records[0]["ID"])
	assert.Equal(t, "SRR0001", records[1]["ID"])
}
