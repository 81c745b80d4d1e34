package models

// FetchMetadataRequest asks for normalized per-run metadata.
type FetchMetadataRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1,dive,required"`
	Refresh bool     `json:"refresh"`
}

// FetchMetadataResponse carries one flat record per resolved run.
type FetchMetadataResponse struct {
	Columns    []string            `json:"columns"`
	Rows       []map[string]string `json:"rows"`
	MissingIDs []string            `json:"missing_ids,omitempty"`
}

// ValidateIDsRequest asks for accession classification against the archive.
type ValidateIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// ValidateIDsResponse maps each non-valid id to a human-readable reason.
// An empty map means every id resolved to exactly one archive hit.
type ValidateIDsResponse struct {
	InvalidIDs map[string]string `json:"invalid_ids"`
}

// FetchSequencesRequest asks for the raw read files of a batch of runs.
type FetchSequencesRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1,dive,required"`
	Retries int      `json:"retries" validate:"min=0"`
}

// FetchSequencesResponse reports per-id outcomes of the download loop.
type FetchSequencesResponse struct {
	SingleFiles []string          `json:"single_files"`
	PairedFiles []string          `json:"paired_files"`
	FailedIDs   map[string]string `json:"failed_ids"`
}

// FetchAllRequest asks for metadata and raw reads in one call.
type FetchAllRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1,dive,required"`
	Refresh bool     `json:"refresh"`
	Retries int      `json:"retries" validate:"min=0"`
}

// FetchAllResponse carries both result sets. Sequences is nil when no run
// had metadata to download against.
type FetchAllResponse struct {
	Metadata  *FetchMetadataResponse  `json:"metadata"`
	Sequences *FetchSequencesResponse `json:"sequences,omitempty"`
}

// RunMetadataRecord is the persisted flat form of one run's metadata.
type RunMetadataRecord struct {
	ID               string            `db:"id" json:"id"`
	BiosampleID      string            `db:"biosample_id" json:"biosample_id"`
	BioprojectID     string            `db:"bioproject_id" json:"bioproject_id"`
	ExperimentID     string            `db:"experiment_id" json:"experiment_id"`
	StudyID          string            `db:"study_id" json:"study_id"`
	SampleAccession  string            `db:"sample_accession" json:"sample_accession"`
	SampleName       string            `db:"sample_name" json:"sample_name"`
	SampleTitle      string            `db:"sample_title" json:"sample_title"`
	Organism         string            `db:"organism" json:"organism"`
	TaxID            string            `db:"tax_id" json:"tax_id"`
	CenterName       string            `db:"center_name" json:"center_name"`
	Instrument       string            `db:"instrument" json:"instrument"`
	Platform         string            `db:"platform" json:"platform"`
	Bases            int64             `db:"bases" json:"bases"`
	Bytes            int64             `db:"bytes" json:"bytes"`
	Spots            int64             `db:"spots" json:"spots"`
	AvgSpotLen       int64             `db:"avg_spot_len" json:"avg_spot_len"`
	Public           bool              `db:"public" json:"public"`
	LibraryName      string            `db:"library_name" json:"library_name"`
	LibrarySelection string            `db:"library_selection" json:"library_selection"`
	LibrarySource    string            `db:"library_source" json:"library_source"`
	LibraryLayout    string            `db:"library_layout" json:"library_layout"`
	CustomMeta       map[string]string `db:"-" json:"custom_meta,omitempty"`
}
