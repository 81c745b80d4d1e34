// Package sra builds the Study/Sample/Experiment/Run tree out of the
// archive's experiment packets and flattens it into one tabular record per
// run.
package sra

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/extractor"
	"github.com/Ramsey-B/sorrel/pkg/models"
)

// Builder assembles the metadata tree one level at a time. Entities are
// keyed by accession: re-encountering an id from a different packet returns
// the existing entity untouched, and a child is appended to its parent
// exactly once, at creation.
type Builder struct {
	logger ectologger.Logger

	studies     map[string]*models.Study
	samples     map[string]*models.Sample
	experiments map[string]*models.Experiment
	runs        map[string]*models.Run

	studyOrder []string
}

func NewBuilder(logger ectologger.Logger) *Builder {
	return &Builder{
		logger:      logger,
		studies:     make(map[string]*models.Study),
		samples:     make(map[string]*models.Sample),
		experiments: make(map[string]*models.Experiment),
		runs:        make(map[string]*models.Run),
	}
}

// Studies returns the assembled studies in creation order.
func (b *Builder) Studies() []*models.Study {
	studies := make([]*models.Study, 0, len(b.studyOrder))
	for _, id := range b.studyOrder {
		studies = append(studies, b.studies[id])
	}
	return studies
}

// CreateStudy registers the packet's study and returns its accession.
func (b *Builder) CreateStudy(packet map[string]any) (string, error) {
	studyNode, ok := extractor.AsMap(packet["STUDY"])
	if !ok {
		return "", malformedf("packet has no STUDY block")
	}

	id := extractor.LookupString(studyNode, "IDENTIFIERS", "PRIMARY_ID")
	if id == "" {
		id = extractor.AsString(studyNode["@accession"])
	}
	if id == "" {
		return "", malformedf("study carries no identifier")
	}
	if _, exists := b.studies[id]; exists {
		return id, nil
	}

	// the external id is sometimes a single object, sometimes a list of
	// namespace-tagged objects
	var bioprojectID string
	external := extractor.Lookup(studyNode, "IDENTIFIERS", "EXTERNAL_ID")
	if bioproject := extractor.FindByNamespace(external, "bioproject"); bioproject != nil {
		bioprojectID = extractor.AsString(bioproject["#text"])
	}

	custom, err := extractor.CustomAttributes(studyNode, "STUDY", b.logger)
	if err != nil {
		return "", err
	}

	study := &models.Study{
		ID:           id,
		BioprojectID: bioprojectID,
		CenterName:   extractor.AsString(extractor.Lookup(packet, "Organization", "Name")),
		CustomMeta:   custom,
	}
	b.studies[id] = study
	b.studyOrder = append(b.studyOrder, id)
	return id, nil
}

// CreateSamples registers every sample the packet describes under the given
// study and returns their accessions in order. Pooled packets enumerate
// member accessions under Pool/Member; otherwise each SAMPLE node stands for
// itself.
func (b *Builder) CreateSamples(packet map[string]any, studyID string) ([]string, error) {
	study, ok := b.studies[studyID]
	if !ok {
		return nil, malformedf("unknown study %q", studyID)
	}

	sampleNodes := extractor.AsList(packet["SAMPLE"])
	if len(sampleNodes) == 0 {
		return nil, malformedf("packet has no SAMPLE block")
	}

	accessions, err := sampleAccessions(packet, sampleNodes)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accessions))
	for _, accession := range accessions {
		if _, exists := b.samples[accession]; exists {
			ids = append(ids, accession)
			continue
		}

		node, err := findSampleNode(sampleNodes, accession)
		if err != nil {
			return nil, err
		}

		var biosampleID string
		external := extractor.Lookup(node, "IDENTIFIERS", "EXTERNAL_ID")
		if biosample := extractor.FindByNamespace(external, "biosample"); biosample != nil {
			biosampleID = extractor.AsString(biosample["#text"])
		}

		custom, err := extractor.CustomAttributes(node, "SAMPLE", b.logger)
		if err != nil {
			return nil, err
		}

		sample := &models.Sample{
			ID:          accession,
			Name:        extractor.AsString(node["@alias"]),
			Title:       extractor.LookupString(node, "TITLE"),
			BiosampleID: biosampleID,
			Organism:    extractor.LookupString(node, "SAMPLE_NAME", "SCIENTIFIC_NAME"),
			TaxID:       extractor.LookupString(node, "SAMPLE_NAME", "TAXON_ID"),
			StudyID:     studyID,
			CustomMeta:  custom,
		}
		b.samples[accession] = sample
		study.Samples = append(study.Samples, sample)
		ids = append(ids, accession)
	}
	return ids, nil
}

func sampleAccessions(packet map[string]any, sampleNodes []any) ([]string, error) {
	var accessions []string
	if members := extractor.Lookup(packet, "Pool", "Member"); members != nil {
		for _, m := range extractor.AsList(members) {
			member, ok := extractor.AsMap(m)
			if !ok {
				return nil, malformedf("pool member is not a mapping")
			}
			accession := extractor.AsString(member["@accession"])
			if accession == "" {
				return nil, malformedf("pool member carries no accession")
			}
			accessions = append(accessions, accession)
		}
		return accessions, nil
	}
	for _, s := range sampleNodes {
		node, ok := extractor.AsMap(s)
		if !ok {
			return nil, malformedf("sample entry is not a mapping")
		}
		accession := extractor.AsString(node["@accession"])
		if accession == "" {
			return nil, malformedf("sample carries no accession")
		}
		accessions = append(accessions, accession)
	}
	return accessions, nil
}

// findSampleNode picks the SAMPLE entry matching the wanted accession. A
// lone entry matches unconditionally; a list (several samples sharing one
// packet) is searched by accession.
func findSampleNode(nodes []any, accession string) (map[string]any, error) {
	if len(nodes) == 1 {
		node, ok := extractor.AsMap(nodes[0])
		if !ok {
			return nil, malformedf("sample entry is not a mapping")
		}
		return node, nil
	}
	for _, n := range nodes {
		node, ok := extractor.AsMap(n)
		if !ok {
			continue
		}
		if extractor.AsString(node["@accession"]) == accession {
			return node, nil
		}
	}
	return nil, malformedf("no SAMPLE entry matches accession %q", accession)
}

// CreateExperiment registers the packet's experiment under the given sample
// and returns its accession. The platform name is the sole key of the
// PLATFORM mapping, with the instrument model nested beneath it.
func (b *Builder) CreateExperiment(packet map[string]any, sampleID string) (string, error) {
	sample, ok := b.samples[sampleID]
	if !ok {
		return "", malformedf("unknown sample %q", sampleID)
	}

	expNode, ok := extractor.AsMap(packet["EXPERIMENT"])
	if !ok {
		return "", malformedf("packet has no EXPERIMENT block")
	}

	id := extractor.LookupString(expNode, "IDENTIFIERS", "PRIMARY_ID")
	if id == "" {
		id = extractor.AsString(expNode["@accession"])
	}
	if id == "" {
		return "", malformedf("experiment carries no identifier")
	}
	if _, exists := b.experiments[id]; exists {
		return id, nil
	}

	platformNode, ok := extractor.AsMap(expNode["PLATFORM"])
	if !ok {
		return "", malformedf("experiment %q has no PLATFORM block", id)
	}
	platform, err := extractor.SoleKey(platformNode)
	if err != nil {
		return "", malformedf("experiment %q PLATFORM block: %s", id, err)
	}

	library := models.LibraryMetadata{
		Name:      extractor.LookupString(expNode, "DESIGN", "LIBRARY_DESCRIPTOR", "LIBRARY_NAME"),
		Selection: extractor.LookupString(expNode, "DESIGN", "LIBRARY_DESCRIPTOR", "LIBRARY_SELECTION"),
		Source:    extractor.LookupString(expNode, "DESIGN", "LIBRARY_DESCRIPTOR", "LIBRARY_SOURCE"),
	}
	// the layout is a variant key (SINGLE/PAIRED), not a field value
	if layoutNode, ok := extractor.AsMap(extractor.Lookup(expNode, "DESIGN", "LIBRARY_DESCRIPTOR", "LIBRARY_LAYOUT")); ok {
		layout, err := extractor.SoleKey(layoutNode)
		if err != nil {
			return "", malformedf("experiment %q LIBRARY_LAYOUT block: %s", id, err)
		}
		library.Layout = layout
	}

	custom, err := extractor.CustomAttributes(expNode, "EXPERIMENT", b.logger)
	if err != nil {
		return "", err
	}

	experiment := &models.Experiment{
		ID:         id,
		Instrument: extractor.LookupString(platformNode, platform, "INSTRUMENT_MODEL"),
		Platform:   platform,
		Library:    library,
		SampleID:   sampleID,
		CustomMeta: custom,
	}
	b.experiments[id] = experiment
	sample.Experiments = append(sample.Experiments, experiment)
	return id, nil
}

// CreateRun registers the run with the desired accession out of the packet's
// run set, under the given experiment. The run set may hold one run or many;
// only the desired one is created.
func (b *Builder) CreateRun(packet map[string]any, desiredID, experimentID string) (string, error) {
	experiment, ok := b.experiments[experimentID]
	if !ok {
		return "", malformedf("unknown experiment %q", experimentID)
	}
	if _, exists := b.runs[desiredID]; exists {
		return desiredID, nil
	}

	runNode := findRunNode(packet, desiredID)
	if runNode == nil {
		return "", malformedf("run %q not present in the packet's run set", desiredID)
	}

	custom, err := extractor.CustomAttributes(runNode, "RUN", b.logger)
	if err != nil {
		return "", err
	}

	// record variants expose totals at different depths; each field falls
	// through independently
	bases := fallbackInt(runNode, "@total_bases", "Bases", "@count")
	spots := fallbackInt(runNode, "@total_spots", "Statistics", "@nspots")

	run := &models.Run{
		ID:           desiredID,
		Public:       extractor.AsString(runNode["@is_public"]) == "true",
		Bytes:        extractor.AsInt(runNode["@size"]),
		Bases:        bases,
		Spots:        spots,
		AvgSpotLen:   avgSpotLen(bases, spots),
		ExperimentID: experimentID,
		CustomMeta:   custom,
	}
	b.runs[desiredID] = run
	experiment.Runs = append(experiment.Runs, run)
	return desiredID, nil
}

func findRunNode(packet map[string]any, accession string) map[string]any {
	for _, fragment := range extractor.AsList(packet["RUN_SET"]) {
		set, ok := extractor.AsMap(fragment)
		if !ok {
			continue
		}
		for _, r := range extractor.AsList(set["RUN"]) {
			run, ok := extractor.AsMap(r)
			if !ok {
				continue
			}
			if extractor.AsString(run["@accession"]) == accession {
				return run
			}
		}
	}
	return nil
}

func fallbackInt(node map[string]any, attribute string, path ...string) int64 {
	if v, ok := node[attribute]; ok {
		return extractor.AsInt(v)
	}
	if v := extractor.Lookup(node, path...); v != nil {
		return extractor.AsInt(v)
	}
	return 0
}

func avgSpotLen(bases, spots int64) int64 {
	if spots == 0 {
		return 0
	}
	return bases / spots
}
