package models

import (
	"fmt"
	"strings"
)

// IDType describes the hierarchy level an accession prefix encodes.
type IDType string

const (
	IDTypeRun        IDType = "run"
	IDTypeExperiment IDType = "experiment"
	IDTypeSample     IDType = "sample"
	IDTypeStudy      IDType = "study"
	IDTypeBioProject IDType = "bioproject"
)

// AccessionPrefixes maps each hierarchy level to the archive-issued prefixes
// used by the three INSDC members (NCBI, EBI, DDBJ).
var AccessionPrefixes = map[IDType][]string{
	IDTypeRun:        {"SRR", "ERR", "DRR"},
	IDTypeExperiment: {"SRX", "ERX", "DRX"},
	IDTypeSample:     {"SRS", "ERS", "DRS"},
	IDTypeStudy:      {"SRP", "ERP", "DRP"},
	IDTypeBioProject: {"PRJN", "PRJE", "PRJD"},
}

// ErrInvalidIDs is returned when the caller-supplied accessions do not match
// any supported prefix family, or mix incompatible families.
type ErrInvalidIDs struct {
	IDs []string
}

func (e *ErrInvalidIDs) Error() string {
	return fmt.Sprintf(
		"the type of the provided IDs is either not supported or IDs of mixed types "+
			"were provided; provide IDs corresponding to either SRA runs (SRR/ERR/DRR) "+
			"or BioProjects (PRJN/PRJE/PRJD): %s", strings.Join(e.IDs, ", "))
}

func hasPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// DetermineIDType classifies a homogeneous batch of accessions as run or
// bioproject ids. Mixed or unrecognized batches fail the whole call.
func DetermineIDType(ids []string) (IDType, error) {
	if len(ids) == 0 {
		return "", &ErrInvalidIDs{IDs: ids}
	}
	for _, kind := range []IDType{IDTypeRun, IDTypeBioProject} {
		all := true
		for _, id := range ids {
			if !hasPrefix(id, AccessionPrefixes[kind]) {
				all = false
				break
			}
		}
		if all {
			return kind, nil
		}
	}
	return "", &ErrInvalidIDs{IDs: ids}
}
