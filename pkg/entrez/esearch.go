package entrez

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"
)

type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count            string            `json:"count"`
	IDList           []string          `json:"idlist"`
	TranslationStack []json.RawMessage `json:"translationstack"`
}

// a translation-stack entry is either an operator string ("OR", "GROUP") or
// a term object; only the term objects carry counts
type translationTerm struct {
	Term  string `json:"term"`
	Count string `json:"count"`
}

// SearchCounts issues search-count queries for the given accessions, batched
// at the archive's request-size limit, and returns per-accession hit counts.
// Accessions absent from the response's translation stack count as 0.
func (c *Client) SearchCounts(ctx context.Context, database string, ids []string) (map[string]int, error) {
	counts := make(map[string]int, len(ids))
	for start := 0; start < len(ids); start += c.cfg.SearchBatchSize {
		end := start + c.cfg.SearchBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := c.searchCountBatch(ctx, database, ids[start:end], counts); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func (c *Client) searchCountBatch(ctx context.Context, database string, batch []string, counts map[string]int) error {
	params := url.Values{}
	params.Set("db", database)
	params.Set("term", strings.Join(batch, " OR "))
	params.Set("retmode", "json")
	params.Set("rettype", "count")

	body, err := c.request(ctx, "esearch.fcgi", params)
	if err != nil {
		return err
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse search response: %w", err)
	}

	for _, raw := range parsed.Result.TranslationStack {
		var term translationTerm
		if err := json.Unmarshal(raw, &term); err != nil || term.Term == "" {
			continue
		}
		id := strings.TrimSuffix(term.Term, "[All Fields]")
		count, _ := strconv.Atoi(term.Count)
		counts[id] = count
	}
	for _, id := range batch {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return nil
}

// searchUIDs resolves accessions to the archive's numeric uids.
func (c *Client) searchUIDs(ctx context.Context, database string, ids []string) ([]string, error) {
	params := url.Values{}
	params.Set("db", database)
	params.Set("term", strings.Join(ids, " OR "))
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(c.cfg.SearchBatchSize))

	body, err := c.request(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return parsed.Result.IDList, nil
}

// Validation reason strings, surfaced verbatim to callers.
const (
	ReasonInvalidID   = "ID is invalid."
	ReasonAmbiguousID = "ID is ambiguous."
)

// SearchClient is the count-query surface the validator needs.
type SearchClient interface {
	SearchCounts(ctx context.Context, database string, ids []string) (map[string]int, error)
}

// Validator classifies accessions by archive hit count before any metadata
// is fetched.
type Validator struct {
	client SearchClient
	logger ectologger.Logger
}

func NewValidator(client SearchClient, logger ectologger.Logger) *Validator {
	return &Validator{client: client, logger: logger}
}

// Validate returns a reason per non-valid id: a count of 0 is invalid, more
// than 1 is ambiguous. Valid ids are absent from the result, so an empty map
// means the whole batch checked out.
func (v *Validator) Validate(ctx context.Context, database string, ids []string) (map[string]string, error) {
	counts, err := v.client.SearchCounts(ctx, database, ids)
	if err != nil {
		return nil, err
	}

	invalid := make(map[string]string)
	for id, count := range counts {
		switch {
		case count == 0:
			invalid[id] = ReasonInvalidID
		case count > 1:
			invalid[id] = ReasonAmbiguousID
		}
	}
	if len(invalid) > 0 {
		v.logger.WithContext(ctx).WithField("invalid_ids", invalid).
			Warnf("%d of %d IDs failed validation", len(invalid), len(ids))
	}
	return invalid, nil
}
