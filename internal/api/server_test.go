package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataworks/stratum/internal/plandb"
	"github.com/strataworks/stratum/internal/settings"
	"github.com/strataworks/stratum/internal/testutil"
)

func setupServer(t *testing.T) (*Server, *plandb.DB) {
	t.Helper()
	db, err := plandb.NewDB(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServer(db, settings.EmptySchedulingConfig()), db
}

// twoPartManifest is the schedule request used across handler tests: part A
// with three 1mm layers at 0/1/2mm, part B with two layers at 0/2mm.
const twoPartManifest = `{
	"manifest": {
		"parts": [
			{"name": "bracket", "id": "id-a", "layer_height_mm": 1,
			 "steps": [{"origin_z_mm": 0}, {"origin_z_mm": 1}, {"origin_z_mm": 2}]},
			{"name": "housing", "id": "id-b",
			 "steps": [{"origin_z_mm": 0, "layer_height_mm": 1},
			           {"origin_z_mm": 2, "layer_height_mm": 1}]}
		]
	},
	"source": "handler test"
}`

func postSchedule(t *testing.T, s *Server, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/health"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestShowSettingsResolvesDefaults(t *testing.T) {
	s := NewServer(nil, settings.EmptySchedulingConfig().WithGroupingTolerance(0.25))

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/settings"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "by_height", body["layer_ordering"])
	assert.Equal(t, 0.25, body["grouping_tolerance_mm"])
}

func TestScheduleManifest(t *testing.T) {
	s, _ := setupServer(t)

	rec := postSchedule(t, s, "/api/schedule", twoPartManifest)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp ScheduleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Saved)
	assert.Equal(t, "by_height", resp.Run.Ordering)
	assert.Equal(t, 2, resp.Run.PartCount)
	// Layer centers: A at 0.5/1.5/2.5, B at 0.5/2.5; tolerance 0 groups the
	// coincident centers, so three layers with 2, 1, 2 parts.
	assert.Equal(t, 3, resp.Run.LayerCount)
	require.Len(t, resp.Layers, 5)
	assert.Equal(t, 0, resp.Layers[0].LayerIndex)
	assert.Equal(t, "id-a", resp.Layers[0].PartID)
	assert.Equal(t, "id-b", resp.Layers[1].PartID)
	assert.Equal(t, 1, resp.Layers[2].LayerIndex)
	assert.Equal(t, "id-a", resp.Layers[2].PartID)
	assert.Equal(t, 2.5, resp.Layers[4].DistanceMM)
}

func TestScheduleWithSettingsOverride(t *testing.T) {
	s, _ := setupServer(t)

	body := strings.Replace(twoPartManifest, `"source"`,
		`"settings": {"layer_ordering": "by_part"}, "source"`, 1)
	rec := postSchedule(t, s, "/api/schedule", body)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp ScheduleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "by_part", resp.Run.Ordering)
	assert.Equal(t, 5, resp.Run.LayerCount)
}

func TestScheduleSaveAndFetch(t *testing.T) {
	s, db := setupServer(t)

	rec := postSchedule(t, s, "/api/schedule?save=1", twoPartManifest)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp ScheduleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Saved)

	run, rows, err := db.GetRun(resp.Run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "handler test", run.Source)
	assert.Len(t, rows, 5)

	getRec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(getRec, testutil.NewTestRequest(http.MethodGet, "/api/runs/"+resp.Run.RunID))
	testutil.AssertStatusCode(t, getRec.Code, http.StatusOK)

	listRec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(listRec, testutil.NewTestRequest(http.MethodGet, "/api/runs?limit=10"))
	testutil.AssertStatusCode(t, listRec.Code, http.StatusOK)
	var runs []plandb.ScheduleRun
	require.NoError(t, json.NewDecoder(listRec.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, resp.Run.RunID, runs[0].RunID)
}

func TestRunUnitsConversion(t *testing.T) {
	s, _ := setupServer(t)

	rec := postSchedule(t, s, "/api/schedule?save=1", twoPartManifest)
	var resp ScheduleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	inRec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(inRec, testutil.NewTestRequest(http.MethodGet, "/api/runs/"+resp.Run.RunID+"?units=in"))
	testutil.AssertStatusCode(t, inRec.Code, http.StatusOK)

	var body struct {
		Units  string                   `json:"units"`
		Layers []plandb.LayerAssignment `json:"layers"`
	}
	require.NoError(t, json.NewDecoder(inRec.Body).Decode(&body))
	assert.Equal(t, "in", body.Units)
	require.Len(t, body.Layers, 5)
	assert.InDelta(t, 0.5/25.4, body.Layers[0].DistanceMM, 1e-9)

	badRec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(badRec, testutil.NewTestRequest(http.MethodGet, "/api/runs/"+resp.Run.RunID+"?units=furlongs"))
	testutil.AssertStatusCode(t, badRec.Code, http.StatusBadRequest)
}

func TestScheduleRejectsBadInput(t *testing.T) {
	s, _ := setupServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"manifest": `, http.StatusBadRequest},
		{"nameless part", `{"manifest": {"parts": [{"steps": [{"origin_z_mm": 0}]}]}}`, http.StatusBadRequest},
		{"unknown ordering", `{"manifest": {"parts": []}, "settings": {"layer_ordering": "sideways"}}`, http.StatusBadRequest},
		{"negative tolerance", `{"manifest": {"parts": []}, "settings": {"grouping_tolerance_mm": -1}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSchedule(t, s, "/api/schedule", tt.body)
			testutil.AssertStatusCode(t, rec.Code, tt.want)
		})
	}
}

func TestScheduleMethodNotAllowed(t *testing.T) {
	s, _ := setupServer(t)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/schedule"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestRunNotFound(t *testing.T) {
	s, _ := setupServer(t)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/runs/no-such-run"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body["error"], "no-such-run")
}

func TestRunViews(t *testing.T) {
	s, _ := setupServer(t)

	rec := postSchedule(t, s, "/api/schedule?save=1", twoPartManifest)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp ScheduleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	chartRec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(chartRec, testutil.NewTestRequest(http.MethodGet, "/api/runs/"+resp.Run.RunID+"/chart"))
	testutil.AssertStatusCode(t, chartRec.Code, http.StatusOK)
	assert.Contains(t, chartRec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, chartRec.Body.String(), "bracket")

	pngRec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(pngRec, testutil.NewTestRequest(http.MethodGet, "/api/runs/"+resp.Run.RunID+"/profile.png"))
	testutil.AssertStatusCode(t, pngRec.Code, http.StatusOK)
	assert.True(t, bytes.HasPrefix(pngRec.Body.Bytes(), []byte("\x89PNG")), "profile should be a PNG")

	badRec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(badRec, testutil.NewTestRequest(http.MethodGet, "/api/runs/"+resp.Run.RunID+"/toolpaths"))
	testutil.AssertStatusCode(t, badRec.Code, http.StatusNotFound)
}

func TestDeleteRun(t *testing.T) {
	s, db := setupServer(t)

	rec := postSchedule(t, s, "/api/schedule?save=1", twoPartManifest)
	var resp ScheduleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	delRec := httptest.NewRecorder()
	delReq := httptest.NewRequest(http.MethodDelete, "/api/runs/"+resp.Run.RunID, nil)
	s.ServeMux().ServeHTTP(delRec, delReq)
	testutil.AssertStatusCode(t, delRec.Code, http.StatusOK)

	_, _, err := db.GetRun(resp.Run.RunID)
	assert.ErrorIs(t, err, plandb.ErrRunNotFound)
}

func TestRunEndpointsWithoutStore(t *testing.T) {
	s := NewServer(nil, nil)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/runs"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusServiceUnavailable)

	saveRec := postSchedule(t, s, "/api/schedule?save=1", twoPartManifest)
	testutil.AssertStatusCode(t, saveRec.Code, http.StatusServiceUnavailable)

	// Scheduling without persistence still works.
	schedRec := postSchedule(t, s, "/api/schedule", twoPartManifest)
	testutil.AssertStatusCode(t, schedRec.Code, http.StatusOK)
}
