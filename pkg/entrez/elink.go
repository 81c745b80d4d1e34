package entrez

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Ramsey-B/sorrel/pkg/extractor"
	"github.com/Ramsey-B/sorrel/pkg/sra"
)

type elinkResponse struct {
	LinkSets []struct {
		LinkSetDBs []struct {
			DBTo  string `json:"dbto"`
			Links []any  `json:"links"`
		} `json:"linksetdbs"`
	} `json:"linksets"`
}

// RunIDsForProjects resolves BioProject accessions to the run accessions
// they contain: a search resolves the projects to numeric uids, a link hop
// maps those to archive entries, and the entries' metadata yields the run
// ids. Returned ids are sorted.
func (c *Client) RunIDsForProjects(ctx context.Context, projectIDs []string) ([]string, error) {
	uids, err := c.searchUIDs(ctx, DatabaseBioProject, projectIDs)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, fmt.Errorf("no archive entries found for projects: %s", strings.Join(projectIDs, ", "))
	}

	linked, err := c.linkedUIDs(ctx, DatabaseBioProject, DatabaseSRA, uids)
	if err != nil {
		return nil, err
	}
	if len(linked) == 0 {
		return nil, fmt.Errorf("projects carry no linked runs: %s", strings.Join(projectIDs, ", "))
	}

	packets, err := c.FetchMetadata(ctx, linked)
	if err != nil {
		return nil, err
	}

	runIDs := make([]string, 0)
	for id := range sra.FindAllRunIDs(packets) {
		runIDs = append(runIDs, id)
	}
	sort.Strings(runIDs)
	return runIDs, nil
}

func (c *Client) linkedUIDs(ctx context.Context, fromDB, toDB string, uids []string) ([]string, error) {
	params := url.Values{}
	params.Set("dbfrom", fromDB)
	params.Set("db", toDB)
	params.Set("id", strings.Join(uids, ","))
	params.Set("retmode", "json")

	body, err := c.request(ctx, "elink.fcgi", params)
	if err != nil {
		return nil, err
	}

	var parsed elinkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse link response: %w", err)
	}

	seen := make(map[string]struct{})
	var linked []string
	for _, linkSet := range parsed.LinkSets {
		for _, linkSetDB := range linkSet.LinkSetDBs {
			if linkSetDB.DBTo != toDB {
				continue
			}
			for _, link := range linkSetDB.Links {
				id := extractor.AsString(link)
				if id == "" {
					continue
				}
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					linked = append(linked, id)
				}
			}
		}
	}
	return linked, nil
}
