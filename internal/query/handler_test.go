package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httperr "github.com/MercuryTechnologies/streamly/internal/core/errors"
	"github.com/MercuryTechnologies/streamly/internal/core/rule"
	"github.com/MercuryTechnologies/streamly/internal/core/storage"
	"github.com/MercuryTechnologies/streamly/internal/tracker"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotStore struct {
	snaps    []*storage.Snapshot
	rangeErr error

	gotRule string
	gotFrom time.Time
	gotTo   time.Time
}

func (f *fakeSnapshotStore) UpsertSnapshot(context.Context, *storage.Snapshot) error {
	return nil
}

func (f *fakeSnapshotStore) RangeSnapshots(_ context.Context, ruleName string, from, to time.Time, _ int) ([]*storage.Snapshot, error) {
	f.gotRule, f.gotFrom, f.gotTo = ruleName, from, to
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	return f.snaps, nil
}

func newTestRouter(t *testing.T, store storage.SnapshotStore) (*gin.Engine, *tracker.Tracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rules := []rule.Rule{
		{Name: "lat_mean", Metric: "latency", Statistic: rule.StatMean, WindowSize: 3},
		{Name: "lat_max", Metric: "latency", Statistic: rule.StatMax, WindowSize: 3},
	}
	tr, err := tracker.New(rules)
	require.NoError(t, err)

	svc := NewService(tr, store, rules)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r, tr
}

func TestHandleLiveStats(t *testing.T) {
	r, tr := newTestRouter(t, &fakeSnapshotStore{})

	for _, v := range []float64{2, 4, 6} {
		tr.Observe("latency", v)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/stats/latency", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Metric string `json:"metric"`
		Stats  []struct {
			RuleName string  `json:"rule_name"`
			Value    float64 `json:"value"`
			Samples  int64   `json:"samples"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "latency", body.Metric)
	require.Len(t, body.Stats, 2)

	values := make(map[string]float64)
	for _, st := range body.Stats {
		values[st.RuleName] = st.Value
		require.Equal(t, int64(3), st.Samples)
	}
	require.Equal(t, 4.0, values["lat_mean"])
	require.Equal(t, 6.0, values["lat_max"])
}

func TestHandleLiveStats_UnknownMetric(t *testing.T) {
	r, _ := newTestRouter(t, &fakeSnapshotStore{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/stats/cpu", nil))
	require.Equal(t, http.StatusNotFound, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpUnknownMetricError, errResp.ErrorType)
}

func TestHandleHistory(t *testing.T) {
	observedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store := &fakeSnapshotStore{
		snaps: []*storage.Snapshot{
			{RuleName: "lat_mean", Metric: "latency", Statistic: "mean", WindowSize: 3, Value: 4.0, Samples: 3, ObservedAt: observedAt},
		},
	}
	r, _ := newTestRouter(t, store)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet,
		"/v1/rules/lat_mean/history?start=2026-08-30T00:00:00Z&end=2026-08-31T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "lat_mean", store.gotRule)

	var body struct {
		Rule   string `json:"rule"`
		Points []struct {
			Value      float64   `json:"value"`
			ObservedAt time.Time `json:"observed_at"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "lat_mean", body.Rule)
	require.Len(t, body.Points, 1)
	require.Equal(t, 4.0, body.Points[0].Value)
	require.True(t, body.Points[0].ObservedAt.Equal(observedAt))
}

func TestHandleHistory_Errors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		rangeErr   error
		wantStatus int
		wantType   string
	}{
		{
			name:       "unknown rule",
			url:        "/v1/rules/nope/history?start=2026-08-30T00:00:00Z&end=2026-08-31T00:00:00Z",
			wantStatus: http.StatusNotFound,
			wantType:   httperr.HttpUnknownRuleError,
		},
		{
			name:       "missing range",
			url:        "/v1/rules/lat_mean/history",
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidJsonError,
		},
		{
			name:       "inverted range",
			url:        "/v1/rules/lat_mean/history?start=2026-08-31T00:00:00Z&end=2026-08-30T00:00:00Z",
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidJsonError,
		},
		{
			name:       "store failure",
			url:        "/v1/rules/lat_mean/history?start=2026-08-30T00:00:00Z&end=2026-08-31T00:00:00Z",
			rangeErr:   errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
			wantType:   httperr.HttpInternalError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &fakeSnapshotStore{rangeErr: tc.rangeErr})

			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tc.url, nil))
			require.Equal(t, tc.wantStatus, resp.Code)

			var errResp httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
			require.Equal(t, tc.wantType, errResp.ErrorType)
		})
	}
}
