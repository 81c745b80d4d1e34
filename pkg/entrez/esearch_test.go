package entrez

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sorrel/pkg/httpclient"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := testLogger()
	return NewClient(
		Config{BaseURL: server.URL},
		httpclient.NewClient(httpclient.DefaultConfig(), logger),
		nil,
		logger,
	)
}

func TestSearchCounts(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "sra", r.Form.Get("db"))
		assert.Equal(t, "SRR000001 OR SR012 OR SRR999999", r.Form.Get("term"))

		fmt.Fprint(w, `{"esearchresult": {"count": "8", "translationstack": [
			{"term": "SRR000001[All Fields]", "count": "1"},
			{"term": "SR012[All Fields]", "count": "7"},
			"OR"
		]}}`)
	})

	counts, err := client.SearchCounts(context.Background(), DatabaseSRA, []string{"SRR000001", "SR012", "SRR999999"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"SRR000001": 1,
		"SR012":     7,
		"SRR999999": 0,
	}, counts)
}

func TestSearchCounts_NoTranslationStack(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"count": "0"}}`)
	})

	counts, err := client.SearchCounts(context.Background(), DatabaseSRA, []string{"SRR1", "SRR2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"SRR1": 0, "SRR2": 0}, counts)
}

type fakeSearchClient struct {
	counts map[string]int
	err    error
}

func (f *fakeSearchClient) SearchCounts(_ context.Context, _ string, _ []string) (map[string]int, error) {
	return f.counts, f.err
}

func TestValidator_AllValid(t *testing.T) {
	v := NewValidator(&fakeSearchClient{counts: map[string]int{"SRR000001": 1}}, testLogger())

	invalid, err := v.Validate(context.Background(), DatabaseSRA, []string{"SRR000001"})
	require.NoError(t, err)
	assert.Empty(t, invalid)
}

func TestValidator_Classification(t *testing.T) {
	v := NewValidator(&fakeSearchClient{counts: map[string]int{
		"SRR000001": 1,
		"SR012":     7,
		"SRR999999": 0,
	}}, testLogger())

	invalid, err := v.Validate(context.Background(), DatabaseSRA, []string{"SRR000001", "SR012", "SRR999999"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"SR012":     ReasonAmbiguousID,
		"SRR999999": ReasonInvalidID,
	}, invalid)
}

func TestValidator_SearchError(t *testing.T) {
	v := NewValidator(&fakeSearchClient{err: fmt.Errorf("boom")}, testLogger())

	_, err := v.Validate(context.Background(), DatabaseSRA, []string{"SRR1"})
	assert.Error(t, err)
}
