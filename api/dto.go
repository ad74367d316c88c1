package api

import (
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/recommend"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/schema"
)

// PredictRequest scores one row of features with a registered model.
type PredictRequest struct {
	ModelName string             `json:"model_name" validate:"required"`
	Features  map[string]float64 `json:"features" validate:"required,min=1"`
	Timestamp string             `json:"timestamp,omitempty"`
}

// PredictResponse carries the prediction and, when alerting is on, whether
// it tripped the efficiency threshold.
type PredictResponse struct {
	Model          string    `json:"model"`
	Prediction     []float64 `json:"prediction"`
	AlertTriggered *bool     `json:"alert_triggered,omitempty"`
	AlertMessage   string    `json:"alert_message,omitempty"`
}

// RecommendRequest asks for an adjustment for one plant area.
type RecommendRequest struct {
	Stage      string             `json:"stage" validate:"required"`
	Parameters map[string]float64 `json:"parameters"`
}

// RecommendResponse echoes the stage with its recommendation.
type RecommendResponse struct {
	Stage          string                   `json:"stage"`
	Recommendation recommend.Recommendation `json:"recommendation"`
}

// RunRequest triggers an ETL run. An empty InputDir runs the latest run
// under the configured input directory.
type RunRequest struct {
	InputDir        string `json:"input_dir,omitempty"`
	Scenario        string `json:"scenario,omitempty"`
	NormalizeMethod string `json:"normalize_method,omitempty" validate:"omitempty,oneof=minmax standard"`
}

// StageSummary describes one processed stage.
type StageSummary struct {
	Stage      string        `json:"stage"`
	Rows       int           `json:"rows"`
	Columns    []string      `json:"columns"`
	Validation schema.Report `json:"validation"`
}

// RunResponse summarizes a completed run.
type RunResponse struct {
	RunID     string         `json:"run_id"`
	InputDir  string         `json:"input_dir"`
	OutputDir string         `json:"output_dir"`
	Stages    []StageSummary `json:"stages"`
	Artifacts []string       `json:"artifacts"`
}

// NewRunResponse summarizes r.
func NewRunResponse(r *etl.RunResult) RunResponse {
	resp := RunResponse{
		RunID:     r.RunID,
		InputDir:  r.InputDir,
		OutputDir: r.OutputDir,
		Stages:    make([]StageSummary, 0, len(r.Tables)),
		Artifacts: r.Artifacts,
	}
	for _, stage := range r.Stages() {
		t := r.Tables[stage]
		resp.Stages = append(resp.Stages, StageSummary{
			Stage:      stage,
			Rows:       t.Len(),
			Columns:    t.ColumnNames(),
			Validation: r.Validation[stage],
		})
	}
	return resp
}

// RunsQuery filters GET /runs.
type RunsQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=succeeded failed"`
	Scenario string `form:"scenario"`
	Limit    int    `form:"limit" validate:"gte=0,lte=500"`
}

// RunsResponse lists recorded runs.
type RunsResponse struct {
	Runs []runlog.Run `json:"runs"`
}
