package models

// LibraryMetadata holds the sequencing library descriptor of an experiment.
type LibraryMetadata struct {
	Name      string
	Layout    string
	Selection string
	Source    string
}

// Run is the leaf of the SRA hierarchy: one sequencing run of an experiment.
type Run struct {
	ID           string
	Public       bool
	Bytes        int64
	Bases        int64
	Spots        int64
	AvgSpotLen   int64
	ExperimentID string
	CustomMeta   map[string]string
}

// Experiment groups the runs produced from a single library preparation.
type Experiment struct {
	ID         string
	Instrument string
	Platform   string
	Library    LibraryMetadata
	SampleID   string
	CustomMeta map[string]string
	Runs       []*Run
}

// Sample is one biological sample; pooled experiments reference several.
type Sample struct {
	ID          string
	Name        string
	Title       string
	BiosampleID string
	Organism    string
	TaxID       string
	StudyID     string
	CustomMeta  map[string]string
	Experiments []*Experiment
}

// Study is the top of the owned tree, linked to a BioProject.
type Study struct {
	ID           string
	BioprojectID string
	CenterName   string
	CustomMeta   map[string]string
	Samples      []*Sample
}
