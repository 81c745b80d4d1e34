package entrez

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const experimentPackageXML = `<?xml version="1.0"?>
<EXPERIMENT_PACKAGE_SET>
	<EXPERIMENT_PACKAGE>
		<EXPERIMENT accession="SRX1"></EXPERIMENT>
		<RUN_SET>
			<RUN accession="SRR1"></RUN>
		</RUN_SET>
	</EXPERIMENT_PACKAGE>
</EXPERIMENT_PACKAGE_SET>`

func TestFetchMetadata(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "sra", r.Form.Get("db"))
		assert.Equal(t, "SRR1", r.Form.Get("id"))
		fmt.Fprint(w, experimentPackageXML)
	})

	packets, err := client.FetchMetadata(context.Background(), []string{"SRR1"})
	require.NoError(t, err)
	require.Len(t, packets, 1)

	experiment, ok := packets[0]["EXPERIMENT"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SRX1", experiment["@accession"])
}

func TestFetchMetadata_NoIDs(t *testing.T) {
	client := testClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	packets, err := client.FetchMetadata(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, packets)
}

func TestFetchMetadata_EmptyResponse(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<EXPERIMENT_PACKAGE_SET></EXPERIMENT_PACKAGE_SET>`)
	})

	_, err := client.FetchMetadata(context.Background(), []string{"SRR1"})
	assert.Error(t, err)
}

func TestFetchMetadata_ServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchMetadata(context.Background(), []string{"SRR1"})
	assert.Error(t, err)
}

func TestRunIDsForProjects(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch {
		case r.URL.Path == "/esearch.fcgi":
			assert.Equal(t, "bioproject", r.Form.Get("db"))
			fmt.Fprint(w, `{"esearchresult": {"count": "1", "idlist": ["186034"]}}`)
		case r.URL.Path == "/elink.fcgi":
			assert.Equal(t, "bioproject", r.Form.Get("dbfrom"))
			assert.Equal(t, "sra", r.Form.Get("db"))
			assert.Equal(t, "186034", r.Form.Get("id"))
			fmt.Fprint(w, `{"linksets": [{"linksetdbs": [{"dbto": "sra", "links": [9000100, 9000101]}]}]}`)
		case r.URL.Path == "/efetch.fcgi":
			assert.Equal(t, "9000100,9000101", r.Form.Get("id"))
			fmt.Fprint(w, experimentPackageXML)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	runIDs, err := client.RunIDsForProjects(context.Background(), []string{"PRJNA186034"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SRR1"}, runIDs)
}

func TestRunIDsForProjects_NoProjectsFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"count": "0", "idlist": []}}`)
	})

	_, err := client.RunIDsForProjects(context.Background(), []string{"PRJNA0"})
	assert.Error(t, err)
}
