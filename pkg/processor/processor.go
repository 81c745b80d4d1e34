// Package processor is the service layer: it resolves accession batches
// against the archive, assembles normalized metadata, persists it, and drives
// the sequence download pipeline.
package processor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/sorrel/pkg/entrez"
	"github.com/Ramsey-B/sorrel/pkg/metrics"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/sra"
	"github.com/Ramsey-B/sorrel/pkg/table"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// MetadataClient is the archive surface the processor needs: resolving
// project accessions to run ids and fetching experiment packets.
type MetadataClient interface {
	FetchMetadata(ctx context.Context, ids []string) ([]map[string]any, error)
	RunIDsForProjects(ctx context.Context, projectIDs []string) ([]string, error)
}

// IDValidator classifies ids against an archive database.
type IDValidator interface {
	Validate(ctx context.Context, database string, ids []string) (map[string]string, error)
}

// MetadataStore persists and recalls assembled run metadata.
type MetadataStore interface {
	UpsertAll(ctx context.Context, records []models.RunMetadataRecord) error
	FindByIDs(ctx context.Context, ids []string) ([]models.RunMetadataRecord, error)
}

// SequenceDownloader fetches raw reads for a batch of run ids and reports
// per-id failure reasons.
type SequenceDownloader interface {
	Download(ctx context.Context, ids []string, retries int) (map[string]string, error)
}

// FileOrganizer moves downloaded reads into their final layout.
type FileOrganizer interface {
	Organize(accessions []string) (singleFiles []string, pairedFiles []string, err error)
}

// LineageProjector mirrors the assembled hierarchy into the graph store.
type LineageProjector interface {
	ProjectLineage(ctx context.Context, studies []*models.Study) error
}

// EventEmitter publishes retrieval lifecycle events.
type EventEmitter interface {
	EmitMetadataFetched(ctx context.Context, jobID string, runIDs, missingIDs []string) error
	EmitSequencesDownloaded(ctx context.Context, jobID string, runIDs []string, singleFiles, pairedFiles int) error
	EmitSequencesFailed(ctx context.Context, jobID string, failed map[string]string) error
}

// InvalidIDsError reports that every id in a batch failed archive validation.
type InvalidIDsError struct {
	Reasons map[string]string
}

func (e *InvalidIDsError) Error() string {
	ids := make([]string, 0, len(e.Reasons))
	for id := range e.Reasons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("none of the provided IDs resolved to a single archive record: %v", ids)
}

// Config holds processor tunables.
type Config struct {
	// MetadataRetries is how many re-fetch passes to run over ids the
	// archive omitted from a metadata response before reporting them missing.
	MetadataRetries int
}

// Processor coordinates the retrieval pipeline. The graph projector and
// event emitter are optional; nil disables that side channel.
type Processor struct {
	cfg        Config
	logger     ectologger.Logger
	archive    MetadataClient
	validator  IDValidator
	store      MetadataStore
	downloader SequenceDownloader
	organizer  FileOrganizer
	projector  LineageProjector
	emitter    EventEmitter
}

// NewProcessor creates a processor over the given collaborators.
func NewProcessor(
	cfg Config,
	logger ectologger.Logger,
	archive MetadataClient,
	validator IDValidator,
	store MetadataStore,
	downloader SequenceDownloader,
	organizer FileOrganizer,
	projector LineageProjector,
	emitter EventEmitter,
) *Processor {
	if cfg.MetadataRetries < 1 {
		cfg.MetadataRetries = 1
	}
	return &Processor{
		cfg:        cfg,
		logger:     logger,
		archive:    archive,
		validator:  validator,
		store:      store,
		downloader: downloader,
		organizer:  organizer,
		projector:  projector,
		emitter:    emitter,
	}
}

// resolveRunIDs classifies the batch and expands bioproject accessions into
// their run ids.
func (p *Processor) resolveRunIDs(ctx context.Context, ids []string) ([]string, error) {
	idType, err := models.DetermineIDType(ids)
	if err != nil {
		return nil, err
	}
	if idType == models.IDTypeBioProject {
		return p.archive.RunIDsForProjects(ctx, ids)
	}
	return ids, nil
}

// validRunIDs validates the batch against the run database and strips ids
// that did not resolve. When nothing survives the whole call fails.
func (p *Processor) validRunIDs(ctx context.Context, ids []string) ([]string, map[string]string, error) {
	invalid, err := p.validator.Validate(ctx, entrez.DatabaseSRA, ids)
	if err != nil {
		return nil, nil, err
	}
	if len(invalid) >= len(ids) {
		return nil, nil, &InvalidIDsError{Reasons: invalid}
	}

	valid := make([]string, 0, len(ids)-len(invalid))
	for _, id := range ids {
		if _, bad := invalid[id]; !bad {
			valid = append(valid, id)
		}
	}
	return valid, invalid, nil
}

// GetMetadata resolves the requested accessions to runs, assembles their
// normalized metadata, and persists it. Previously persisted runs are served
// from the store unless the request asks for a refresh.
func (p *Processor) GetMetadata(ctx context.Context, req models.FetchMetadataRequest) (*models.FetchMetadataResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "Processor.GetMetadata")
	defer span.End()

	started := time.Now()
	log := p.logger.WithContext(ctx).WithField("id_count", len(req.IDs))

	runIDs, err := p.resolveRunIDs(ctx, req.IDs)
	if err != nil {
		metrics.MetadataFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if !req.Refresh {
		cached, err := p.store.FindByIDs(ctx, runIDs)
		if err != nil {
			log.WithError(err).Warn("Metadata store lookup failed, fetching from archive")
		} else if len(cached) == len(runIDs) {
			log.WithField("run_count", len(cached)).Debugf("Serving metadata from store")
			metrics.MetadataFetchesTotal.WithLabelValues("cached").Inc()
			return responseFromRecords(cached), nil
		}
	}

	valid, invalid, err := p.validRunIDs(ctx, runIDs)
	if err != nil {
		metrics.MetadataFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(invalid) > 0 {
		log.WithField("invalid_ids", invalid).Warn("Dropping IDs that failed archive validation")
	}

	assembler := sra.NewAssembler(p.logger)
	missing, err := p.fetchInto(ctx, assembler, valid)
	if err != nil {
		metrics.MetadataFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	records := assembler.Records()
	if err := p.store.UpsertAll(ctx, records); err != nil {
		log.WithError(err).Error("Failed to persist run metadata")
		metrics.MetadataFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if p.projector != nil {
		if err := p.projector.ProjectLineage(ctx, assembler.Studies()); err != nil {
			log.WithError(err).Warn("Failed to project run lineage to graph")
		}
	}
	if p.emitter != nil {
		if err := p.emitter.EmitMetadataFetched(ctx, uuid.New().String(), assembler.RunIDs(), missing); err != nil {
			log.WithError(err).Warn("Failed to emit metadata fetched event")
		}
	}

	metrics.MetadataFetchesTotal.WithLabelValues("success").Inc()
	metrics.MetadataFetchDuration.Observe(time.Since(started).Seconds())
	metrics.MetadataRunsFetched.Add(float64(len(records)))
	metrics.MetadataRunsMissing.Add(float64(len(missing)))

	tbl := assembler.Table()
	resp := &models.FetchMetadataResponse{
		Columns:    tbl.Columns(),
		Rows:       tbl.Records(),
		MissingIDs: missing,
	}
	for id := range invalid {
		resp.MissingIDs = append(resp.MissingIDs, id)
	}
	sort.Strings(resp.MissingIDs)
	return resp, nil
}

// fetchInto fetches experiment packets for the ids and feeds them to the
// assembler, re-fetching the unresolved subset up to the configured number of
// passes. The archive occasionally omits runs from large batches.
func (p *Processor) fetchInto(ctx context.Context, assembler *sra.Assembler, ids []string) ([]string, error) {
	remaining := ids
	var missing []string
	for pass := 0; pass <= p.cfg.MetadataRetries && len(remaining) > 0; pass++ {
		packets, err := p.archive.FetchMetadata(ctx, remaining)
		if err != nil {
			return nil, err
		}
		missing, err = assembler.AddMetadata(packets, remaining)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 && pass < p.cfg.MetadataRetries {
			p.logger.WithContext(ctx).WithField("missing_ids", missing).
				Warnf("Archive omitted %d runs, re-fetching", len(missing))
		}
		remaining = missing
	}
	return missing, nil
}

// GetSequences downloads raw reads for the requested accessions and arranges
// them into the output layout. Validation failures and download failures are
// reported per id; only an empty result set fails the call.
func (p *Processor) GetSequences(ctx context.Context, req models.FetchSequencesRequest) (*models.FetchSequencesResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "Processor.GetSequences")
	defer span.End()

	started := time.Now()
	log := p.logger.WithContext(ctx).WithField("id_count", len(req.IDs))

	runIDs, err := p.resolveRunIDs(ctx, req.IDs)
	if err != nil {
		return nil, err
	}
	valid, invalid, err := p.validRunIDs(ctx, runIDs)
	if err != nil {
		return nil, err
	}

	retries := req.Retries
	if retries == 0 {
		retries = -1
	}
	failed, err := p.downloader.Download(ctx, valid, retries)
	if err != nil {
		return nil, err
	}

	landed := make([]string, 0, len(valid))
	for _, id := range valid {
		if _, bad := failed[id]; !bad {
			landed = append(landed, id)
		}
	}

	single, paired, err := p.organizer.Organize(landed)
	if err != nil {
		return nil, err
	}

	for id, reason := range invalid {
		failed[id] = reason
	}

	jobID := uuid.New().String()
	if p.emitter != nil {
		if err := p.emitter.EmitSequencesDownloaded(ctx, jobID, landed, len(single), len(paired)); err != nil {
			log.WithError(err).Warn("Failed to emit sequences downloaded event")
		}
		if len(failed) > 0 {
			if err := p.emitter.EmitSequencesFailed(ctx, jobID, failed); err != nil {
				log.WithError(err).Warn("Failed to emit sequences failed event")
			}
		}
	}

	metrics.DownloadsTotal.WithLabelValues("success").Add(float64(len(landed)))
	metrics.DownloadsTotal.WithLabelValues("failed").Add(float64(len(failed)))
	metrics.DownloadDuration.Observe(time.Since(started).Seconds())

	log.WithFields(map[string]any{
		"downloaded": len(landed),
		"failed":     len(failed),
	}).Infof("Sequence retrieval finished")

	return &models.FetchSequencesResponse{
		SingleFiles: single,
		PairedFiles: paired,
		FailedIDs:   failed,
	}, nil
}

// GetAll runs the metadata fetch and then downloads reads for every run that
// had metadata, reporting both result sets.
func (p *Processor) GetAll(ctx context.Context, req models.FetchAllRequest) (*models.FetchAllResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "Processor.GetAll")
	defer span.End()

	meta, err := p.GetMetadata(ctx, models.FetchMetadataRequest{IDs: req.IDs, Refresh: req.Refresh})
	if err != nil {
		return nil, err
	}

	runIDs := make([]string, 0, len(meta.Rows))
	for _, row := range meta.Rows {
		if id := row["ID"]; id != "" {
			runIDs = append(runIDs, id)
		}
	}
	if len(runIDs) == 0 {
		return &models.FetchAllResponse{Metadata: meta}, nil
	}

	seqs, err := p.GetSequences(ctx, models.FetchSequencesRequest{IDs: runIDs, Retries: req.Retries})
	if err != nil {
		return nil, err
	}
	return &models.FetchAllResponse{Metadata: meta, Sequences: seqs}, nil
}

// GetCachedMetadata serves previously persisted metadata without touching
// the archive. Ids never fetched simply have no row.
func (p *Processor) GetCachedMetadata(ctx context.Context, ids []string) (*models.FetchMetadataResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "Processor.GetCachedMetadata")
	defer span.End()

	records, err := p.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return responseFromRecords(records), nil
}

// ValidateIDs classifies the batch and reports a reason for every id that
// did not resolve to exactly one archive record.
func (p *Processor) ValidateIDs(ctx context.Context, req models.ValidateIDsRequest) (*models.ValidateIDsResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "Processor.ValidateIDs")
	defer span.End()

	idType, err := models.DetermineIDType(req.IDs)
	if err != nil {
		return nil, err
	}
	database := entrez.DatabaseSRA
	if idType == models.IDTypeBioProject {
		database = entrez.DatabaseBioProject
	}

	invalid, err := p.validator.Validate(ctx, database, req.IDs)
	if err != nil {
		return nil, err
	}
	if invalid == nil {
		invalid = map[string]string{}
	}
	return &models.ValidateIDsResponse{InvalidIDs: invalid}, nil
}

// responseFromRecords rebuilds the flat response table from persisted
// records, applying the same column conventions as a fresh assembly.
func responseFromRecords(records []models.RunMetadataRecord) *models.FetchMetadataResponse {
	t := table.New()
	for _, rec := range records {
		row := table.NewRow()
		row.Set("ID", rec.ID)
		row.Set("Biosample ID", rec.BiosampleID)
		row.Set("Bioproject ID", rec.BioprojectID)
		row.Set("Experiment ID", rec.ExperimentID)
		row.Set("Study ID", rec.StudyID)
		row.Set("Sample Accession", rec.SampleAccession)
		row.Set("Organism", rec.Organism)
		row.Set("Instrument", rec.Instrument)
		row.Set("Platform", rec.Platform)
		row.Set("Bases", strconv.FormatInt(rec.Bases, 10))
		row.Set("Bytes", strconv.FormatInt(rec.Bytes, 10))
		row.Set("Public", strconv.FormatBool(rec.Public))
		row.Set("Library Selection", rec.LibrarySelection)
		row.Set("Library Source", rec.LibrarySource)
		row.Set("Library Layout", rec.LibraryLayout)
		row.Set("Library Name", rec.LibraryName)
		row.Set("Spots", strconv.FormatInt(rec.Spots, 10))
		row.Set("Avg Spot Len", strconv.FormatInt(rec.AvgSpotLen, 10))
		row.Set("Tax ID", rec.TaxID)
		row.Set("Sample Name", rec.SampleName)
		row.Set("Sample Title", rec.SampleTitle)
		row.Set("Center Name", rec.CenterName)

		keys := make([]string, 0, len(rec.CustomMeta))
		for k := range rec.CustomMeta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row.Set(k, rec.CustomMeta[k])
		}
		t.Append(row)
	}
	t.DropEmptyColumns()
	t.OrderColumns(sra.RequiredColumns)
	return &models.FetchMetadataResponse{
		Columns: t.Columns(),
		Rows:    t.Records(),
	}
}
