package sra

import "github.com/Ramsey-B/sorrel/pkg/extractor"

// FindAllRunIDs maps every run accession found across the packets to the
// index of the packet carrying it. Run ids scatter unpredictably across
// packets (one packet can carry many runs), and run sets are sometimes
// nested one extra list level deep: a list of run-set fragments, each itself
// holding one run or a list of runs. The first packet carrying an accession
// wins.
func FindAllRunIDs(packets []map[string]any) map[string]int {
	found := make(map[string]int)
	for i, packet := range packets {
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
				accession := extractor.AsString(run["@accession"])
				if accession == "" {
					continue
				}
				if _, exists := found[accession]; !exists {
					found[accession] = i
				}
			}
		}
	}
	return found
}
