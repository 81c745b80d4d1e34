package sra

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/extractor"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/table"
)

// RequiredColumns is the fixed prefix the assembled table always opens with;
// every other discovered column follows in encountered order.
var RequiredColumns = []string{
	"ID", "Biosample ID", "Bioproject ID", "Experiment ID", "Study ID",
	"Sample Accession", "Organism", "Instrument", "Platform", "Bases",
	"Bytes", "Public", "Library Selection", "Library Source", "Library Layout",
}

// Assembler drives the builder chain over raw experiment packets and
// flattens the resulting tree into one row per run. The tree lives only for
// the duration of a single fetch.
type Assembler struct {
	logger  ectologger.Logger
	builder *Builder
	runIDs  []string
}

func NewAssembler(logger ectologger.Logger) *Assembler {
	return &Assembler{
		logger:  logger,
		builder: NewBuilder(logger),
	}
}

// AddMetadata parses the raw experiment-package value (a single packet or a
// list of them), routes each requested run id to its packet, and runs the
// builder chain for it. Requested ids absent from the response are returned
// as the missing set; the caller reconciles them against its own request.
func (a *Assembler) AddMetadata(raw any, requestedIDs []string) ([]string, error) {
	packets := make([]map[string]any, 0)
	for _, p := range extractor.AsList(raw) {
		packet, ok := extractor.AsMap(p)
		if !ok {
			return nil, malformedf("experiment packet is not a mapping")
		}
		packets = append(packets, packet)
	}

	index := FindAllRunIDs(packets)

	var missing []string
	for _, id := range requestedIDs {
		packetIdx, ok := index[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if err := a.processRun(packets[packetIdx], id); err != nil {
			return nil, err
		}
		a.runIDs = append(a.runIDs, id)
	}
	return missing, nil
}

func (a *Assembler) processRun(packet map[string]any, runID string) error {
	studyID, err := a.builder.CreateStudy(packet)
	if err != nil {
		return err
	}
	sampleIDs, err := a.builder.CreateSamples(packet, studyID)
	if err != nil {
		return err
	}
	experimentID, err := a.builder.CreateExperiment(packet, sampleIDs[0])
	if err != nil {
		return err
	}
	_, err = a.builder.CreateRun(packet, runID, experimentID)
	return err
}

// RunIDs returns the run ids processed so far, in request order.
func (a *Assembler) RunIDs() []string {
	return a.runIDs
}

// Studies exposes the assembled tree, for callers that project it elsewhere.
func (a *Assembler) Studies() []*models.Study {
	return a.builder.Studies()
}

// Table flattens the assembled tree into one row per run: empty columns
// dropped, internal snake_case names rewritten to their human-readable
// labels, case-insensitive duplicate columns collapsed keeping the first,
// rows restricted and reordered to the processed run ids, and the required
// columns placed first.
func (a *Assembler) Table() *table.Table {
	t := table.New()
	for _, study := range a.builder.Studies() {
		for _, sample := range study.Samples {
			for _, experiment := range sample.Experiments {
				for _, run := range experiment.Runs {
					t.Append(a.row(study, sample, experiment, run))
				}
			}
		}
	}

	t.DropEmptyColumns()
	t.RenameColumns(renameColumn)
	t.CollapseDuplicateColumns()
	t.RestrictRows("ID", a.runIDs)
	t.OrderColumns(RequiredColumns)
	return t
}

// Records projects the assembled tree into persisted records, one per
// processed run, in request order.
func (a *Assembler) Records() []models.RunMetadataRecord {
	byID := make(map[string]models.RunMetadataRecord)
	for _, study := range a.builder.Studies() {
		for _, sample := range study.Samples {
			for _, experiment := range sample.Experiments {
				for _, run := range experiment.Runs {
					byID[run.ID] = record(study, sample, experiment, run)
				}
			}
		}
	}

	records := make([]models.RunMetadataRecord, 0, len(a.runIDs))
	for _, id := range a.runIDs {
		if rec, ok := byID[id]; ok {
			records = append(records, rec)
		}
	}
	return records
}

func record(study *models.Study, sample *models.Sample, experiment *models.Experiment, run *models.Run) models.RunMetadataRecord {
	custom := make(map[string]string)
	for _, level := range []map[string]string{
		study.CustomMeta, sample.CustomMeta, experiment.CustomMeta, run.CustomMeta,
	} {
		for k, v := range level {
			custom[k] = v
		}
	}
	return models.RunMetadataRecord{
		ID:               run.ID,
		BiosampleID:      sample.BiosampleID,
		BioprojectID:     study.BioprojectID,
		ExperimentID:     experiment.ID,
		StudyID:          study.ID,
		SampleAccession:  sample.ID,
		SampleName:       sample.Name,
		SampleTitle:      sample.Title,
		Organism:         sample.Organism,
		TaxID:            sample.TaxID,
		CenterName:       study.CenterName,
		Instrument:       experiment.Instrument,
		Platform:         experiment.Platform,
		Bases:            run.Bases,
		Bytes:            run.Bytes,
		Spots:            run.Spots,
		AvgSpotLen:       run.AvgSpotLen,
		Public:           run.Public,
		LibraryName:      experiment.Library.Name,
		LibrarySelection: experiment.Library.Selection,
		LibrarySource:    experiment.Library.Source,
		LibraryLayout:    experiment.Library.Layout,
		CustomMeta:       custom,
	}
}

func (a *Assembler) row(study *models.Study, sample *models.Sample, experiment *models.Experiment, run *models.Run) *table.Row {
	row := table.NewRow()
	row.Set("id", run.ID)
	row.Set("biosample_id", sample.BiosampleID)
	row.Set("bioproject_id", study.BioprojectID)
	row.Set("experiment_id", experiment.ID)
	row.Set("study_id", study.ID)
	row.Set("sample_id", sample.ID)
	row.Set("organism", sample.Organism)
	row.Set("instrument", experiment.Instrument)
	row.Set("platform", experiment.Platform)
	row.Set("bases", strconv.FormatInt(run.Bases, 10))
	row.Set("bytes", strconv.FormatInt(run.Bytes, 10))
	row.Set("public", strconv.FormatBool(run.Public))
	row.Set("library_selection", experiment.Library.Selection)
	row.Set("library_source", experiment.Library.Source)
	row.Set("library_layout", experiment.Library.Layout)
	row.Set("library_name", experiment.Library.Name)
	row.Set("spots", strconv.FormatInt(run.Spots, 10))
	row.Set("avg_spot_len", strconv.FormatInt(run.AvgSpotLen, 10))
	row.Set("tax_id", sample.TaxID)
	row.Set("sample_name", sample.Name)
	row.Set("sample_title", sample.Title)
	row.Set("center_name", study.CenterName)
	for _, custom := range []map[string]string{
		study.CustomMeta, sample.CustomMeta, experiment.CustomMeta, run.CustomMeta,
	} {
		setSorted(row, custom)
	}
	return row
}

func setSorted(row *table.Row, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row.Set(k, values[k])
	}
}

// renameColumn rewrites the internal snake_case names to their table labels.
// Level-qualified custom attribute keys ("tag [STUDY]") keep their form.
func renameColumn(column string) string {
	if strings.Contains(column, " [") {
		return column
	}
	switch column {
	case "id":
		return "ID"
	case "sample_id":
		return "Sample Accession"
	}
	if strings.HasSuffix(column, "_id") {
		return titleCase(strings.TrimSuffix(column, "_id")) + " ID"
	}
	return titleCase(column)
}

func titleCase(snake string) string {
	parts := strings.Split(snake, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
