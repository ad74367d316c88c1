package runlog

import (
	"time"

	"github.com/cemint/cemint-insights/etl"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one row of the runs table.
type Run struct {
	ID         string    `gorm:"column:id;primaryKey" json:"run_id"`
	Scenario   string    `json:"scenario,omitempty"`
	InputDir   string    `json:"input_dir"`
	OutputDir  string    `json:"output_dir,omitempty"`
	Method     string    `json:"method"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Rows       int       `gorm:"column:row_count" json:"rows"`
	Artifacts  int       `json:"artifacts"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `gorm:"column:duration_ms" json:"duration_ms"`
	Stages     []Stage   `gorm:"foreignKey:RunID;references:ID" json:"stages,omitempty"`
}

func (Run) TableName() string { return "runs" }

// Stage is one processed stage of a successful run.
type Stage struct {
	RunID   string `gorm:"column:run_id;primaryKey" json:"-"`
	Name    string `gorm:"column:stage;primaryKey" json:"stage"`
	Rows    int    `gorm:"column:row_count" json:"rows"`
	Columns int    `gorm:"column:column_count" json:"columns"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func (Stage) TableName() string { return "run_stages" }

// FromOutcome converts an orchestrator outcome into a history row.
func FromOutcome(o etl.Outcome) Run {
	r := Run{
		ID:         o.RunID,
		Scenario:   o.Scenario,
		InputDir:   o.InputDir,
		Method:     o.Method.String(),
		Status:     StatusSucceeded,
		StartedAt:  o.Started.UTC(),
		FinishedAt: o.Finished.UTC(),
		DurationMS: o.Finished.Sub(o.Started).Milliseconds(),
	}
	if o.Err != nil {
		r.Status = StatusFailed
		r.Error = o.Err.Error()
	}
	if res := o.Result; res != nil {
		r.OutputDir = res.OutputDir
		r.Artifacts = len(res.Artifacts)
		for _, name := range res.Stages() {
			t := res.Tables[name]
			report := res.Validation[name]
			r.Rows += t.Len()
			r.Stages = append(r.Stages, Stage{
				RunID:   r.ID,
				Name:    name,
				Rows:    t.Len(),
				Columns: t.Width(),
				Valid:   report.OK,
				Message: report.Message,
			})
		}
	}
	return r
}
