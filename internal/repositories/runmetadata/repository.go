// Package runmetadata persists the assembled flat run records so repeat
// requests skip the archive.
package runmetadata

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sorrel/pkg/database"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

var columns = []string{
	"id", "biosample_id", "bioproject_id", "experiment_id", "study_id",
	"sample_accession", "sample_name", "sample_title", "organism", "tax_id",
	"center_name", "instrument", "platform", "bases", "bytes", "spots",
	"avg_spot_len", "public", "library_name", "library_selection",
	"library_source", "library_layout", "custom_meta",
}

// Repository handles run metadata persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

type row struct {
	models.RunMetadataRecord
	CustomMetaJSON database.JSONB[map[string]string] `db:"custom_meta"`
}

func (r row) record() models.RunMetadataRecord {
	record := r.RunMetadataRecord
	record.CustomMeta = r.CustomMetaJSON.GetValue()
	return record
}

// Upsert inserts or replaces one run's flat record, keyed by accession.
func (r *Repository) Upsert(ctx context.Context, record models.RunMetadataRecord) error {
	ctx, span := tracing.StartSpan(ctx, "runmetadata.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	query := `
		INSERT INTO run_metadata (
			id, biosample_id, bioproject_id, experiment_id, study_id,
			sample_accession, sample_name, sample_title, organism, tax_id,
			center_name, instrument, platform, bases, bytes, spots,
			avg_spot_len, public, library_name, library_selection,
			library_source, library_layout, custom_meta, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		ON CONFLICT (id) DO UPDATE SET
			biosample_id = EXCLUDED.biosample_id,
			bioproject_id = EXCLUDED.bioproject_id,
			experiment_id = EXCLUDED.experiment_id,
			study_id = EXCLUDED.study_id,
			sample_accession = EXCLUDED.sample_accession,
			sample_name = EXCLUDED.sample_name,
			sample_title = EXCLUDED.sample_title,
			organism = EXCLUDED.organism,
			tax_id = EXCLUDED.tax_id,
			center_name = EXCLUDED.center_name,
			instrument = EXCLUDED.instrument,
			platform = EXCLUDED.platform,
			bases = EXCLUDED.bases,
			bytes = EXCLUDED.bytes,
			spots = EXCLUDED.spots,
			avg_spot_len = EXCLUDED.avg_spot_len,
			public = EXCLUDED.public,
			library_name = EXCLUDED.library_name,
			library_selection = EXCLUDED.library_selection,
			library_source = EXCLUDED.library_source,
			library_layout = EXCLUDED.library_layout,
			custom_meta = EXCLUDED.custom_meta,
			updated_at = EXCLUDED.updated_at
	`

	customMeta := database.NewJSONB(record.CustomMeta)
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.BiosampleID, record.BioprojectID, record.ExperimentID,
		record.StudyID, record.SampleAccession, record.SampleName,
		record.SampleTitle, record.Organism, record.TaxID, record.CenterName,
		record.Instrument, record.Platform, record.Bases, record.Bytes,
		record.Spots, record.AvgSpotLen, record.Public, record.LibraryName,
		record.LibrarySelection, record.LibrarySource, record.LibraryLayout,
		customMeta, now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", record.ID).
			Error("Failed to upsert run metadata")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert run metadata")
	}
	return nil
}

// UpsertAll persists a batch of records.
func (r *Repository) UpsertAll(ctx context.Context, records []models.RunMetadataRecord) error {
	ctx, span := tracing.StartSpan(ctx, "runmetadata.Repository.UpsertAll")
	defer span.End()

	for _, record := range records {
		if err := r.Upsert(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// FindByIDs returns the cached records for the given run accessions. Misses
// are simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]models.RunMetadataRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "runmetadata.Repository.FindByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("run_metadata")
	sb.Where(sb.In("id", sqlbuilder.Flatten(ids)...))
	sb.OrderBy("id")

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id_count", len(ids)).
			Error("Failed to find run metadata by ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find run metadata")
	}

	records := make([]models.RunMetadataRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

// Delete removes a run's cached record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "runmetadata.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("run_metadata")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).
			Error("Failed to delete run metadata")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete run metadata")
	}
	return nil
}
