package entrez

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Ramsey-B/sorrel/pkg/extractor"
)

// FetchMetadata retrieves experiment-package metadata for the given ids
// (run accessions or numeric uids), fanned out across the configured
// workers in fetch-sized batches. The result is the flat list of decoded
// experiment packets, ready for assembly.
func (c *Client) FetchMetadata(ctx context.Context, ids []string) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var batches [][]string
	for start := 0; start < len(ids); start += c.cfg.FetchBatchSize {
		end := start + c.cfg.FetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}

	batchPackets, err := runBatches(ctx, c.cfg.Workers, batches, c.fetchPackets)
	if err != nil {
		return nil, err
	}

	var packets []map[string]any
	for _, bp := range batchPackets {
		packets = append(packets, bp...)
	}
	return packets, nil
}

func (c *Client) fetchPackets(ctx context.Context, batch []string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("db", DatabaseSRA)
	params.Set("id", strings.Join(batch, ","))
	params.Set("rettype", "xml")
	params.Set("retmode", "text")

	body, err := c.request(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}

	root, err := DecodeXML(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode metadata response: %w", err)
	}

	raw := extractor.Lookup(root, "EXPERIMENT_PACKAGE_SET", "EXPERIMENT_PACKAGE")
	if raw == nil {
		return nil, fmt.Errorf("metadata response has no experiment packages")
	}

	var packets []map[string]any
	for _, p := range extractor.AsList(raw) {
		packet, ok := extractor.AsMap(p)
		if !ok {
			return nil, fmt.Errorf("experiment package is not a mapping")
		}
		packets = append(packets, packet)
	}
	return packets, nil
}
