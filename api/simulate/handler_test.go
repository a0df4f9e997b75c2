package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/virtos/app"
	"github.com/kilianp07/virtos/core/library"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/core/runlog"
)

type memRunLog struct{ recs []runlog.RunRecord }

func (m *memRunLog) Append(_ context.Context, r runlog.RunRecord) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memRunLog) Query(_ context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	var out []runlog.RunRecord
	for _, r := range m.recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRunLog) Close() error { return nil }

func newService(t *testing.T) *app.Service {
	t.Helper()
	reg, err := library.Load(context.Background(), library.NewMemoryStore())
	require.NoError(t, err)
	return app.NewService(reg, app.WithRunLog(&memRunLog{}))
}

func siteBody(t *testing.T, arch string) *bytes.Reader {
	t.Helper()
	curve := make([]float64, 8)
	for i := range curve {
		curve[i] = 1
	}
	site := model.SiteSpec{
		Name:             "depot",
		Architecture:     model.Architecture(arch),
		Demand:           model.DemandProfile{Utilisation: curve, TimestepMinutes: 15, HorizonHours: 2},
		GridConnectionKW: 300,
		SharedUpstreamKW: 150,
		Segments: []model.SegmentSpec{
			{ID: "east", PCSSKU: "PCS_500", BatterySKU: "BATT_500_1000", ModuleCount: 2, CableSKU: "CABLE_375A"},
		},
		ACBattery: model.ACBatterySpec{BatterySKU: "BATT_500_1000", InverterKW: 100},
	}
	b, err := json.Marshal(site)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestSimulateHandler(t *testing.T) {
	h := NewSimulateHandler(newService(t))

	req := httptest.NewRequest(http.MethodPost, "/api/simulate?explain=true", siteBody(t, "virtos"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp struct {
		RunID       string                 `json:"run_id"`
		Cached      bool                   `json:"cached"`
		Result      model.SimulationResult `json:"result"`
		Explanation *app.Explanation       `json:"explanation"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.RunID)
	assert.False(t, resp.Cached)
	assert.Equal(t, model.ArchVirtos, resp.Result.Architecture)
	assert.Equal(t, 8, resp.Result.Steps)
	require.NotNil(t, resp.Explanation)
	assert.NotEmpty(t, resp.Explanation.Topology)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/simulate", siteBody(t, "virtos")))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Cached)
	assert.Nil(t, resp.Explanation)
}

func TestSimulateHandlerErrors(t *testing.T) {
	h := NewSimulateHandler(newService(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/simulate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/simulate", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/simulate", bytes.NewBufferString(`{"unknown_field":1}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/simulate", siteBody(t, "hydrogen")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSimulateHandlerBoundsInput(t *testing.T) {
	h := NewSimulateHandler(newService(t))

	body := `{"name":"huge","architecture":"grid-only","demand":{"utilisation":[1],"timestep_minutes":0.001,"horizon_hours":100000},"grid_connection_kw":-50}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/simulate", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Result model.SimulationResult `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 96, resp.Result.Steps)
	assert.Equal(t, 0.25, resp.Result.TimestepH)
	assert.Zero(t, resp.Result.Costs.EnergyKWh)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/simulate", bytes.NewBufferString(`{"grid_connection_kw":1e400}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCompareHandler(t *testing.T) {
	h := NewCompareHandler(newService(t))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/compare", siteBody(t, "")))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var cmp app.Comparison
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cmp))
	assert.Equal(t, "depot", cmp.SiteName)
	assert.Len(t, cmp.Outcomes, len(model.Architectures()))
	assert.Len(t, cmp.Deltas, len(model.Architectures())-1)
}

func TestLibraryHandler(t *testing.T) {
	svc := newService(t)
	h := NewLibraryHandler(svc.Library(), "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/library?type=pcs", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp libraryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, svc.Library().Hash(), resp.LibraryHash)
	require.NotEmpty(t, resp.Records)
	for _, r := range resp.Records {
		assert.Equal(t, library.TypePCS, r.ComponentType)
	}

	records := svc.Library().Records("")
	body, err := json.Marshal(upsertRequest{Records: records, Note: "noop"})
	require.NoError(t, err)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/library", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPut, "/api/library", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	bad := records[0].Clone()
	bad.Version = 0
	body, err = json.Marshal(upsertRequest{Records: []library.ComponentRecord{bad}})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPut, "/api/library", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/library", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRunsHandler(t *testing.T) {
	svc := newService(t)
	_, err := svc.Simulate(context.Background(), model.SiteSpec{
		Name:             "depot",
		Demand:           model.DemandProfile{Utilisation: []float64{1, 1, 1, 1}, TimestepMinutes: 15},
		GridConnectionKW: 300,
		SharedUpstreamKW: 150,
		Segments: []model.SegmentSpec{
			{PCSSKU: "PCS_500", BatterySKU: "BATT_500_1000", ModuleCount: 2, CableSKU: "CABLE_375A"},
		},
	})
	require.NoError(t, err)

	h := NewRunsHandler(svc, "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	get := func(url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		req.Header.Set("Authorization", "Bearer secret")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr = get("/api/runs?architecture=virtos")
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []runlog.RunRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "depot", recs[0].SiteName)

	rr = get("/api/runs?start=" + time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, get("/api/runs?start=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/runs?architecture=steam").Code)
}

func TestRoutes(t *testing.T) {
	srv := httptest.NewServer(Routes(newService(t), ""))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/library")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
