package downloader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/klauspost/compress/gzip"
)

// ErrNothingDownloaded is returned when a full download pass produced no
// read files at all, distinguishing "no data exists" from partial failure.
var ErrNothingDownloaded = errors.New("no sequences were downloaded")

// Output subdirectories for the two read layouts.
const (
	SingleDir = "single"
	PairedDir = "paired"
)

// Organizer moves the extraction tool's raw fastq output into the single/
// and paired/ directories under fixed per-run names, gzipping as it goes.
type Organizer struct {
	outputDir string
	logger    ectologger.Logger
}

func NewOrganizer(outputDir string, logger ectologger.Logger) *Organizer {
	return &Organizer{outputDir: outputDir, logger: logger}
}

// Organize scans for each accession's raw fastq files: `<acc>.fastq` is a
// single-end run, `<acc>_1.fastq`/`<acc>_2.fastq` a paired-end one. Returns
// the organized file paths per layout; ErrNothingDownloaded when both are
// empty.
func (o *Organizer) Organize(accessions []string) ([]string, []string, error) {
	var single, paired []string
	for _, accession := range accessions {
		raw := filepath.Join(o.outputDir, accession+".fastq")
		if fileExists(raw) {
			dest, err := o.compress(raw, SingleDir, readFileName(accession, 1))
			if err != nil {
				return nil, nil, err
			}
			single = append(single, dest)
		}

		forward := filepath.Join(o.outputDir, accession+"_1.fastq")
		reverse := filepath.Join(o.outputDir, accession+"_2.fastq")
		if fileExists(forward) && fileExists(reverse) {
			destForward, err := o.compress(forward, PairedDir, readFileName(accession, 1))
			if err != nil {
				return nil, nil, err
			}
			destReverse, err := o.compress(reverse, PairedDir, readFileName(accession, 2))
			if err != nil {
				return nil, nil, err
			}
			paired = append(paired, destForward, destReverse)
		}
	}

	if len(single) == 0 && len(paired) == 0 {
		return nil, nil, ErrNothingDownloaded
	}
	return single, paired, nil
}

// readFileName renders the fixed per-run file name convention.
func readFileName(accession string, read int) string {
	return fmt.Sprintf("%s_00_L001_R%d_001.fastq.gz", accession, read)
}

func (o *Organizer) compress(src, subdir, name string) (string, error) {
	destDir := filepath.Join(o.outputDir, subdir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		out.Close()
		return "", err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if err := os.Remove(src); err != nil {
		o.logger.WithError(err).Warnf("Failed to remove raw file %s", src)
	}
	return dest, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
