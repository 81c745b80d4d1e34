package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/processor"
)

type fakeService struct {
	fetchReq  models.FetchMetadataRequest
	cachedIDs []string
	resp      *models.FetchMetadataResponse
	err       error
}

func (f *fakeService) GetMetadata(_ context.Context, req models.FetchMetadataRequest) (*models.FetchMetadataResponse, error) {
	f.fetchReq = req
	return f.resp, f.err
}

func (f *fakeService) GetCachedMetadata(_ context.Context, ids []string) (*models.FetchMetadataResponse, error) {
	f.cachedIDs = ids
	return f.resp, f.err
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestFetch(t *testing.T) {
	svc := &fakeService{resp: &models.FetchMetadataResponse{Columns: []string{"ID"}}}
	h := NewHandler(svc)
	c, rec := newContext(http.MethodPost, "/api/v1/metadata/fetch", `{"ids":["SRR0001"],"refresh":true}`)

	require.NoError(t, h.Fetch(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SRR0001"}, svc.fetchReq.IDs)
	assert.True(t, svc.fetchReq.Refresh)
}

func TestFetch_EmptyIDs(t *testing.T) {
	h := NewHandler(&fakeService{})
	c, _ := newContext(http.MethodPost, "/api/v1/metadata/fetch", `{"ids":[]}`)

	err := h.Fetch(c)

	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestFetch_AllIDsInvalid(t *testing.T) {
	svc := &fakeService{err: &processor.InvalidIDsError{Reasons: map[string]string{"SRR0001": "ID is invalid."}}}
	h := NewHandler(svc)
	c, _ := newContext(http.MethodPost, "/api/v1/metadata/fetch", `{"ids":["SRR0001"]}`)

	err := h.Fetch(c)

	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusUnprocessableEntity, httperror.GetStatusCode(err))
}

func TestGet_ParsesIDList(t *testing.T) {
	svc := &fakeService{resp: &models.FetchMetadataResponse{}}
	h := NewHandler(svc)
	c, rec := newContext(http.MethodGet, "/api/v1/metadata?ids=SRR0001,%20SRR0002,", "")

	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SRR0001", "SRR0002"}, svc.cachedIDs)
}

func TestGet_MissingIDs(t *testing.T) {
	h := NewHandler(&fakeService{})
	c, _ := newContext(http.MethodGet, "/api/v1/metadata", "")

	err := h.Get(c)

	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}
