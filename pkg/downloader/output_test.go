package downloader

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFastq(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readGzip(t *testing.T, path string) string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	content, err := io.ReadAll(gz)
	require.NoError(t, err)
	return string(content)
}

func TestOrganize_SingleAndPaired(t *testing.T) {
	dir := t.TempDir()
	writeFastq(t, dir, "SRR1.fastq", "@SRR1.1\nACGT\n+\nIIII\n")
	writeFastq(t, dir, "SRR2_1.fastq", "@SRR2.1\nAAAA\n+\nIIII\n")
	writeFastq(t, dir, "SRR2_2.fastq", "@SRR2.1\nTTTT\n+\nIIII\n")

	o := NewOrganizer(dir, testLogger())
	single, paired, err := o.Organize([]string{"SRR1", "SRR2", "SRR3"})
	require.NoError(t, err)

	require.Len(t, single, 1)
	assert.Equal(t, filepath.Join(dir, SingleDir, "SRR1_00_L001_R1_001.fastq.gz"), single[0])
	assert.Equal(t, "@SRR1.1\nACGT\n+\nIIII\n", readGzip(t, single[0]))

	require.Len(t, paired, 2)
	assert.Equal(t, filepath.Join(dir, PairedDir, "SRR2_00_L001_R1_001.fastq.gz"), paired[0])
	assert.Equal(t, filepath.Join(dir, PairedDir, "SRR2_00_L001_R2_001.fastq.gz"), paired[1])

	// raw files are consumed
	assert.NoFileExists(t, filepath.Join(dir, "SRR1.fastq"))
	assert.NoFileExists(t, filepath.Join(dir, "SRR2_1.fastq"))
}

func TestOrganize_NothingDownloaded(t *testing.T) {
	o := NewOrganizer(t.TempDir(), testLogger())

	_, _, err := o.Organize([]string{"SRR1"})
	assert.ErrorIs(t, err, ErrNothingDownloaded)
}

func TestOrganize_UnpairedReverseIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFastq(t, dir, "SRR1_1.fastq", "@SRR1.1\nACGT\n+\nIIII\n")

	o := NewOrganizer(dir, testLogger())
	_, _, err := o.Organize([]string{"SRR1"})
	assert.ErrorIs(t, err, ErrNothingDownloaded)
}
