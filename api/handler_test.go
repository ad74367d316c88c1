package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cemint/cemint-insights/alert"
	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/model"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/schema"
	"github.com/cemint/cemint-insights/table"
	"github.com/cemint/cemint-insights/transform"
)

type fakeModels map[string]model.Model

func (f fakeModels) Load(_ context.Context, name string) (model.Model, error) {
	if m, ok := f[name]; ok {
		return m, nil
	}
	return nil, apperrors.ModelNotFound(name)
}

type runCall struct {
	kind, dir, scenario string
	method              transform.Method
}

type fakeRunner struct {
	calls []runCall
	err   error
}

func (f *fakeRunner) result(id string) (*etl.RunResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &etl.RunResult{
		RunID:     id,
		InputDir:  "raw/" + id,
		OutputDir: "processed/" + id,
		Tables: map[string]*table.Table{
			"stage1_raw_materials": table.MustFromColumns("stage1_raw_materials",
				table.NewFloatColumn("limestone_tph", []float64{0, 1})),
		},
		Validation: map[string]schema.Report{
			"stage1_raw_materials": {OK: true, Message: "Validation passed"},
		},
		Artifacts: []string{"processed/" + id + "/stage1_raw_materials_processed.csv"},
	}, nil
}

func (f *fakeRunner) Run(_ context.Context, dir string, m transform.Method) (*etl.RunResult, error) {
	f.calls = append(f.calls, runCall{kind: "run", dir: dir, method: m})
	return f.result("2025-09-16_08-00-00")
}

func (f *fakeRunner) RunLatest(_ context.Context, dir string, m transform.Method) (*etl.RunResult, error) {
	f.calls = append(f.calls, runCall{kind: "latest", dir: dir, method: m})
	return f.result("2025-09-17_23-10-01")
}

func (f *fakeRunner) RunScenario(_ context.Context, dir, scenario string, m transform.Method) (*etl.RunResult, error) {
	f.calls = append(f.calls, runCall{kind: "scenario", dir: dir, scenario: scenario, method: m})
	return f.result("2025-09-17_23-10-01_" + scenario)
}

type recordingPublisher struct {
	alerts []alert.Alert
}

func (p *recordingPublisher) Publish(_ context.Context, a alert.Alert) error {
	p.alerts = append(p.alerts, a)
	return nil
}

var spcModel = &model.LinearRegressor{
	FeatureNames: []string{"mill_power_kwh", "throughput_tph"},
	Intercept:    0.5,
	Coefficients: []float64{0.01, -0.01},
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestHome(t *testing.T) {
	r := newRouter(NewHandler(fakeModels{}, &fakeRunner{}, "raw", transform.MinMax, nil))
	w, body := do(t, r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RootMessage, body["message"])
}

func TestPredict(t *testing.T) {
	r := newRouter(NewHandler(fakeModels{"spc": spcModel}, &fakeRunner{}, "raw", transform.MinMax, nil))

	w, body := do(t, r, http.MethodPost, "/predict", PredictRequest{
		ModelName: "spc",
		Features:  map[string]float64{"mill_power_kwh": 200, "throughput_tph": 50},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "spc", body["model"])
	assert.InDeltaSlice(t, []any{2.0}, body["prediction"], 1e-9)
	assert.NotContains(t, body, "alert_triggered")
}

func TestPredictErrors(t *testing.T) {
	r := newRouter(NewHandler(fakeModels{"spc": spcModel}, &fakeRunner{}, "raw", transform.MinMax, nil))

	w, body := do(t, r, http.MethodPost, "/predict", PredictRequest{ModelName: "nope", Features: map[string]float64{"x": 1}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No model found for nope", body["error"])

	w, body = do(t, r, http.MethodPost, "/predict", PredictRequest{ModelName: "spc", Features: map[string]float64{"mill_power_kwh": 1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(apperrors.ErrCodeMissingColumn), body["code"])

	w, body = do(t, r, http.MethodPost, "/predict", map[string]any{"model_name": "spc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "features")

	w, _ = do(t, r, http.MethodPost, "/predict", `{"model_name": "spc", "features": {"x": "hot"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictWithAlerts(t *testing.T) {
	pub := &recordingPublisher{}
	alerts := alert.NewService(pub, 1.5, nil)
	r := newRouter(NewHandler(fakeModels{"spc": spcModel}, &fakeRunner{}, "raw", transform.MinMax, nil, WithAlerts(alerts, "")))

	w, body := do(t, r, http.MethodPost, "/predict", PredictRequest{
		ModelName: "spc",
		Features:  map[string]float64{"mill_power_kwh": 200, "throughput_tph": 50},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["alert_triggered"])
	require.Len(t, pub.alerts, 1)
	assert.Equal(t, alert.TypeDegradation, pub.alerts[0].AlertType)
	assert.Equal(t, "spc", pub.alerts[0].ModelID)

	w, body = do(t, r, http.MethodPost, "/predict", PredictRequest{
		ModelName: "spc",
		Features:  map[string]float64{"mill_power_kwh": 100, "throughput_tph": 50},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["alert_triggered"])
	assert.Len(t, pub.alerts, 1)

	w, _ = do(t, r, http.MethodPost, "/predict", PredictRequest{ModelName: "gone", Features: map[string]float64{"x": 1}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.Len(t, pub.alerts, 2)
	assert.Equal(t, alert.TypePredictionError, pub.alerts[1].AlertType)
}

func TestRecommend(t *testing.T) {
	r := newRouter(NewHandler(fakeModels{}, &fakeRunner{}, "raw", transform.MinMax, nil))

	w, body := do(t, r, http.MethodPost, "/recommend", RecommendRequest{Stage: "kiln", Parameters: map[string]float64{"temperature": 1500}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kiln", body["stage"])
	assert.Equal(t, map[string]any{"action": "Reduce burner temperature by 20°C"}, body["recommendation"])

	w, _ = do(t, r, http.MethodPost, "/recommend", map[string]any{"parameters": map[string]float64{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuns(t *testing.T) {
	runner := &fakeRunner{}
	r := newRouter(NewHandler(fakeModels{}, runner, "raw", transform.MinMax, nil))

	w, body := do(t, r, http.MethodPost, "/runs", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-09-17_23-10-01", body["run_id"])
	stages := body["stages"].([]any)
	require.Len(t, stages, 1)
	stage := stages[0].(map[string]any)
	assert.Equal(t, "stage1_raw_materials", stage["stage"])
	assert.Equal(t, 2.0, stage["rows"])
	assert.Equal(t, "Validation passed", stage["validation"].(map[string]any)["message"])

	_, _ = do(t, r, http.MethodPost, "/runs", RunRequest{InputDir: "raw/2025-09-16_08-00-00", NormalizeMethod: "standard"})
	_, body = do(t, r, http.MethodPost, "/runs", RunRequest{Scenario: "stress"})
	assert.Equal(t, "2025-09-17_23-10-01_stress", body["run_id"])

	require.Len(t, runner.calls, 3)
	assert.Equal(t, runCall{kind: "latest", dir: "raw", method: transform.MinMax}, runner.calls[0])
	assert.Equal(t, runCall{kind: "run", dir: "raw/2025-09-16_08-00-00", method: transform.Standard}, runner.calls[1])
	assert.Equal(t, runCall{kind: "scenario", dir: "raw", scenario: "stress", method: transform.MinMax}, runner.calls[2])
}

func TestRunsErrors(t *testing.T) {
	r := newRouter(NewHandler(fakeModels{}, &fakeRunner{err: apperrors.NoFilesFound("raw")}, "raw", transform.MinMax, nil))

	w, body := do(t, r, http.MethodPost, "/runs", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(apperrors.ErrCodeNoFilesFound), body["code"])

	w, _ = do(t, r, http.MethodPost, "/runs", RunRequest{NormalizeMethod: "robust"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, r, http.MethodPost, "/runs", RunRequest{Scenario: "stress", InputDir: "raw/2025"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "scenario: cannot be combined with input_dir", body["error"])
}

func TestPredictAlertsOnlyForWatchedModel(t *testing.T) {
	pub := &recordingPublisher{}
	models := fakeModels{"spc": spcModel, "other": spcModel}
	r := newRouter(NewHandler(models, &fakeRunner{}, "raw", transform.MinMax, nil, WithAlerts(alert.NewService(pub, 1.5, nil), "spc")))

	w, body := do(t, r, http.MethodPost, "/predict", PredictRequest{
		ModelName: "other",
		Features:  map[string]float64{"mill_power_kwh": 200, "throughput_tph": 50},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, body, "alert_triggered")
	assert.Empty(t, pub.alerts)
}

type fakeHistory struct {
	runs  []runlog.Run
	query runlog.Query
}

func (f *fakeHistory) List(_ context.Context, q runlog.Query) ([]runlog.Run, error) {
	f.query = q
	return f.runs, nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (*runlog.Run, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, apperrors.NotFound("run", id)
}

func TestRunHistory(t *testing.T) {
	history := &fakeHistory{runs: []runlog.Run{
		{ID: "2025-09-17_23-10-01", Status: runlog.StatusSucceeded, Rows: 5, Stages: []runlog.Stage{{Name: "stage1_raw_materials", Rows: 5, Valid: true}}},
		{ID: "2025-09-16_08-00-00", Status: runlog.StatusFailed, Error: "schema missing"},
	}}
	r := newRouter(NewHandler(fakeModels{}, &fakeRunner{}, "raw", transform.MinMax, nil, WithHistory(history)))

	w, out := do(t, r, http.MethodGet, "/runs?status=failed&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["runs"], 2)
	assert.Equal(t, runlog.Query{Status: runlog.StatusFailed, Limit: 5}, history.query)

	w, out = do(t, r, http.MethodGet, "/runs/2025-09-17_23-10-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "succeeded", out["status"])
	stages := out["stages"].([]any)
	assert.Equal(t, "stage1_raw_materials", stages[0].(map[string]any)["stage"])

	w, out = do(t, r, http.MethodGet, "/runs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", out["code"])

	w, _ = do(t, r, http.MethodGet, "/runs?status=pending", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/runs?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHistoryDisabled(t *testing.T) {
	r := newRouter(NewHandler(fakeModels{}, &fakeRunner{}, "raw", transform.MinMax, nil))
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
