// Package integration assembles the real service layers (handlers, processor,
// archive client) against stub backends: an httptest eutils server, an
// in-memory metadata store, and a scripted toolkit runner.
package integration

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sorrel/pkg/downloader"
	"github.com/Ramsey-B/sorrel/pkg/entrez"
	"github.com/Ramsey-B/sorrel/pkg/httpclient"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/processor"
	"github.com/Ramsey-B/sorrel/pkg/routes/metadata"
	"github.com/Ramsey-B/sorrel/pkg/routes/sequences"
	"github.com/Ramsey-B/sorrel/pkg/sratools"
)

const experimentPackageXML = `<?xml version="1.0" encoding="UTF-8"?>
<EXPERIMENT_PACKAGE_SET>
  <EXPERIMENT_PACKAGE>
    <EXPERIMENT accession="SRX0001">
      <IDENTIFIERS><PRIMARY_ID>SRX0001</PRIMARY_ID></IDENTIFIERS>
      <PLATFORM><ILLUMINA><INSTRUMENT_MODEL>Illumina MiSeq</INSTRUMENT_MODEL></ILLUMINA></PLATFORM>
      <DESIGN>
        <LIBRARY_DESCRIPTOR>
          <LIBRARY_NAME>lib-1</LIBRARY_NAME>
          <LIBRARY_SELECTION>PCR</LIBRARY_SELECTION>
          <LIBRARY_SOURCE>METAGENOMIC</LIBRARY_SOURCE>
          <LIBRARY_LAYOUT><PAIRED/></LIBRARY_LAYOUT>
        </LIBRARY_DESCRIPTOR>
      </DESIGN>
    </EXPERIMENT>
    <STUDY accession="SRP123456">
      <IDENTIFIERS>
        <PRIMARY_ID>SRP123456</PRIMARY_ID>
        <EXTERNAL_ID namespace="BioProject">PRJNA123456</EXTERNAL_ID>
      </IDENTIFIERS>
    </STUDY>
    <SAMPLE accession="SRS0001" alias="sample-1">
      <TITLE>gut sample</TITLE>
      <IDENTIFIERS>
        <PRIMARY_ID>SRS0001</PRIMARY_ID>
        <EXTERNAL_ID namespace="BioSample">SAMN0001</EXTERNAL_ID>
      </IDENTIFIERS>
      <SAMPLE_NAME>
        <SCIENTIFIC_NAME>human gut metagenome</SCIENTIFIC_NAME>
        <TAXON_ID>408170</TAXON_ID>
      </SAMPLE_NAME>
    </SAMPLE>
    <RUN_SET>
      <RUN accession="SRR0001" is_public="true" size="16798" total_bases="11552099" total_spots="39323"/>
    </RUN_SET>
  </EXPERIMENT_PACKAGE>
</EXPERIMENT_PACKAGE_SET>`

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// memoryStore is an in-memory MetadataStore.
type memoryStore struct {
	records map[string]models.RunMetadataRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]models.RunMetadataRecord)}
}

func (s *memoryStore) UpsertAll(_ context.Context, records []models.RunMetadataRecord) error {
	for _, rec := range records {
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *memoryStore) FindByIDs(_ context.Context, ids []string) ([]models.RunMetadataRecord, error) {
	var out []models.RunMetadataRecord
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fastqRunner stands in for the SRA toolkit: FasterqDump writes paired fastq
// files straight into the output directory.
type fastqRunner struct {
	outputDir string
}

func (r *fastqRunner) SizeCheck(_ context.Context, _ string) (*sratools.Result, error) {
	return &sratools.Result{ExitCode: sratools.ExitSuccess}, nil
}

func (r *fastqRunner) Prefetch(_ context.Context, _ string) (*sratools.Result, error) {
	return &sratools.Result{ExitCode: sratools.ExitSuccess}, nil
}

func (r *fastqRunner) FasterqDump(_ context.Context, accession string) (*sratools.Result, error) {
	for _, read := range []string{"_1", "_2"} {
		name := filepath.Join(r.outputDir, accession+read+".fastq")
		content := fmt.Sprintf("@%s.1\nACGT\n+\nIIII\n", accession)
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	return &sratools.Result{ExitCode: sratools.ExitSuccess}, nil
}

func eutilsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad esearch form: %v", err)
		}
		_, _ = w.Write([]byte(`{"esearchresult": {
			"count": "1",
			"translationstack": [{"term": "SRR0001[All Fields]", "count": "1"}]
		}}`))
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad efetch form: %v", err)
		}
		if got := r.Form.Get("db"); got != "sra" {
			t.Errorf("unexpected efetch db %q", got)
		}
		_, _ = w.Write([]byte(experimentPackageXML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func buildService(t *testing.T, store *memoryStore, outputDir string) *processor.Processor {
	t.Helper()
	logger := testLogger()
	srv := eutilsServer(t)

	archive := entrez.NewClient(entrez.Config{BaseURL: srv.URL},
		httpclient.NewClient(httpclient.DefaultConfig(), logger), nil, logger)

	orchestrator := downloader.NewOrchestrator(downloader.Config{},
		&fastqRunner{outputDir: outputDir}, logger)
	organizer := downloader.NewOrganizer(outputDir, logger)

	return processor.NewProcessor(
		processor.Config{},
		logger,
		archive,
		entrez.NewValidator(archive, logger),
		store,
		orchestrator,
		organizer,
		nil,
		nil,
	)
}

func postJSON(t *testing.T, handler func(echo.Context) error, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func TestMetadataFetchEndToEnd(t *testing.T) {
	store := newMemoryStore()
	proc := buildService(t, store, t.TempDir())
	handler := metadata.NewHandler(proc)

	rec := postJSON(t, handler.Fetch, "/api/v1/metadata/fetch",
		models.FetchMetadataRequest{IDs: []string{"SRR0001"}})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FetchMetadataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, "SRR0001", row["ID"])
	assert.Equal(t, "PRJNA123456", row["Bioproject ID"])
	assert.Equal(t, "SAMN0001", row["Biosample ID"])
	assert.Equal(t, "Illumina MiSeq", row["Instrument"])
	assert.Equal(t, "ILLUMINA", row["Platform"])
	assert.Equal(t, "PAIRED", row["Library Layout"])
	assert.Equal(t, "11552099", row["Bases"])
	assert.Equal(t, "293", row["Avg Spot Len"])
	assert.Empty(t, resp.MissingIDs)

	// required columns open the table
	require.GreaterOrEqual(t, len(resp.Columns), 15)
	assert.Equal(t, []string{"ID", "Biosample ID", "Bioproject ID", "Experiment ID", "Study ID"},
		resp.Columns[:5])

	// the fetch persisted the run
	saved, ok := store.records["SRR0001"]
	require.True(t, ok)
	assert.Equal(t, int64(39323), saved.Spots)

	// second fetch without refresh is served from the store
	rec = postJSON(t, handler.Fetch, "/api/v1/metadata/fetch",
		models.FetchMetadataRequest{IDs: []string{"SRR0001"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var cached models.FetchMetadataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cached))
	require.Len(t, cached.Rows, 1)
	assert.Equal(t, "SRR0001", cached.Rows[0]["ID"])
}

func TestSequencesFetchEndToEnd(t *testing.T) {
	outputDir := t.TempDir()
	proc := buildService(t, newMemoryStore(), outputDir)
	handler := sequences.NewHandler(proc)

	rec := postJSON(t, handler.Fetch, "/api/v1/sequences/fetch",
		models.FetchSequencesRequest{IDs: []string{"SRR0001"}})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FetchSequencesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Empty(t, resp.FailedIDs)
	assert.Empty(t, resp.SingleFiles)
	require.Len(t, resp.PairedFiles, 2)

	forward := filepath.Join(outputDir, "paired", "SRR0001_00_L001_R1_001.fastq.gz")
	assert.Equal(t, forward, resp.PairedFiles[0])

	f, err := os.Open(forward)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(gz)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "@SRR0001.1")
}
