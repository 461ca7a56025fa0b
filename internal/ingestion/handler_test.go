package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	v1 "github.com/MercuryTechnologies/streamly/internal/api/v1"
	httperr "github.com/MercuryTechnologies/streamly/internal/core/errors"
	"github.com/MercuryTechnologies/streamly/internal/core/rule"
	"github.com/MercuryTechnologies/streamly/internal/core/storage"
	"github.com/MercuryTechnologies/streamly/internal/tracker"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeSampleStore records saved samples and can simulate failures.
type fakeSampleStore struct {
	mu      sync.Mutex
	samples []*v1.Sample
	saveErr error
}

func (f *fakeSampleStore) SaveSample(_ context.Context, smp *v1.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	smp.IngestSeq = int64(len(f.samples) + 1)
	f.samples = append(f.samples, smp)
	return nil
}

func (f *fakeSampleStore) RetrieveSamplesAfterCursor(context.Context, int64, int) ([]*v1.Sample, error) {
	return nil, nil
}

func newTestService(t *testing.T, store storage.SampleStore) (*Service, *tracker.Tracker) {
	t.Helper()
	tr, err := tracker.New([]rule.Rule{
		{Name: "lat_mean", Metric: "latency", Statistic: rule.StatMean, WindowSize: 3},
	})
	require.NoError(t, err)
	return NewService(tr, store, 1), tr
}

func TestIngestHandler_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeSampleStore{}
	svc, tr := newTestService(t, store)

	r := gin.New()
	svc.RegisterRoutes(r)

	body := []byte(`{"id":"smp-001","metric":"latency","value":12.5}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusAccepted, resp.Code)

	var result map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "accepted", result["status"])
	require.Equal(t, "smp-001", result["id"])

	// Persisted with server-side timestamps.
	require.Len(t, store.samples, 1)
	require.False(t, store.samples[0].IngestedAt.IsZero())
	require.False(t, store.samples[0].OccurredAt.IsZero())

	// And fed to the tracker.
	points := tr.Points("latency")
	require.Len(t, points, 1)
	require.Equal(t, 12.5, points[0].Value)
}

func TestIngestHandler_AssignsIDWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeSampleStore{}
	svc, _ := newTestService(t, store)

	r := gin.New()
	svc.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader([]byte(`{"metric":"latency","value":1}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Len(t, store.samples, 1)
	require.NotEmpty(t, store.samples[0].ID)
}

func TestIngestHandler_InvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc, _ := newTestService(t, &fakeSampleStore{})
	r := gin.New()
	svc.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
}

func TestIngestHandler_MissingMetric(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc, _ := newTestService(t, &fakeSampleStore{})
	r := gin.New()
	svc.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader([]byte(`{"value":1}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidSampleError, errResp.ErrorType)
}

func TestIngestHandler_Duplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeSampleStore{saveErr: storage.ErrDuplicate}
	svc, tr := newTestService(t, store)

	r := gin.New()
	svc.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader([]byte(`{"id":"dup","metric":"latency","value":1}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpDuplicateSampleError, errResp.ErrorType)

	// A rejected duplicate must not reach the tracker.
	require.Empty(t, tr.Points("latency"))
}

func TestIngestHandler_PersistFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeSampleStore{saveErr: errors.New("db down")}
	svc, tr := newTestService(t, store)

	r := gin.New()
	svc.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader([]byte(`{"metric":"latency","value":1}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Empty(t, tr.Points("latency"))
}

func TestIngestHandler_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc, _ := newTestService(t, &fakeSampleStore{})
	r := gin.New()
	svc.RegisterRoutes(r)

	big := bytes.Repeat([]byte("a"), 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}
