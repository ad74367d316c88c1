// Package api exposes predictions, recommendations and ETL runs over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cemint/cemint-insights/alert"
	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/model"
	"github.com/cemint/cemint-insights/recommend"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/server"
	"github.com/cemint/cemint-insights/transform"
	"github.com/cemint/cemint-insights/validation"
)

// RootMessage is returned by GET /.
const RootMessage = "CementAI Services API Running"

// ModelLoader resolves the latest saved version of a model.
type ModelLoader interface {
	Load(ctx context.Context, name string) (model.Model, error)
}

// Runner executes ETL runs.
type Runner interface {
	Run(ctx context.Context, inputDir string, method transform.Method) (*etl.RunResult, error)
	RunLatest(ctx context.Context, baseDir string, method transform.Method) (*etl.RunResult, error)
	RunScenario(ctx context.Context, baseDir, scenario string, method transform.Method) (*etl.RunResult, error)
}

// History reads recorded runs.
type History interface {
	List(ctx context.Context, q runlog.Query) ([]runlog.Run, error)
	Get(ctx context.Context, id string) (*runlog.Run, error)
}

// Handler serves the REST API.
type Handler struct {
	models   ModelLoader
	runner   Runner
	history  History
	alerts   *alert.Service
	watched  string
	inputDir string
	method   transform.Method
	log      *logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithAlerts evaluates predictions of modelName against the efficiency
// threshold. An empty modelName watches every model.
func WithAlerts(s *alert.Service, modelName string) Option {
	return func(h *Handler) {
		h.alerts = s
		h.watched = modelName
	}
}

// WithHistory serves recorded runs under GET /runs.
func WithHistory(h History) Option {
	return func(handler *Handler) { handler.history = h }
}

// NewHandler creates a Handler. Runs without an input_dir use the latest run
// under inputDir; runs without normalize_method use method.
func NewHandler(models ModelLoader, runner Runner, inputDir string, method transform.Method, log *logger.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	h := &Handler{
		models:   models,
		runner:   runner,
		inputDir: inputDir,
		method:   method,
		log:      log.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Home)
	r.POST("/predict", h.Predict)
	r.POST("/recommend", h.Recommend)
	r.POST("/runs", h.Run)
	if h.history != nil {
		r.GET("/runs", h.ListRuns)
		r.GET("/runs/:id", h.GetRun)
	}
}

// Home reports that the API is up.
func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": RootMessage})
}

// Predict scores the features with the named model.
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if !bind(c, &req) {
		return
	}
	c.Set("model", req.ModelName)
	ctx := c.Request.Context()

	watched := h.alerts != nil && (h.watched == "" || h.watched == req.ModelName)
	preds, err := h.predict(ctx, req)
	if err != nil {
		if watched {
			if pubErr := h.alerts.ReportError(ctx, req.ModelName, req.Timestamp, err); pubErr != nil {
				h.log.Warn("prediction error alert not published", logger.ErrorFields("report_error", pubErr))
			}
		}
		server.RespondWithError(c, err)
		return
	}

	resp := PredictResponse{Model: req.ModelName, Prediction: preds}
	if watched {
		res, err := h.alerts.Check(ctx, req.ModelName, req.Timestamp, preds)
		if err != nil {
			h.log.Warn("efficiency alert not published", logger.ErrorFields("publish", err))
		}
		resp.AlertTriggered = &res.Degraded
		resp.AlertMessage = res.Message
	}
	server.RespondOK(c, resp)
}

func (h *Handler) predict(ctx context.Context, req PredictRequest) ([]float64, error) {
	m, err := h.models.Load(ctx, req.ModelName)
	if err != nil {
		return nil, err
	}
	return m.Predict([]map[string]float64{req.Features})
}

// Recommend returns the rule-based adjustment for a plant area.
func (h *Handler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if !bind(c, &req) {
		return
	}
	server.RespondOK(c, RecommendResponse{
		Stage:          req.Stage,
		Recommendation: recommend.Generate(req.Stage, req.Parameters),
	})
}

// Run executes an ETL run and returns its summary.
func (h *Handler) Run(c *gin.Context) {
	var req RunRequest
	if !bind(c, &req) {
		return
	}
	if err := validation.New().Exclusive("scenario", req.Scenario, "input_dir", req.InputDir).Err(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	method := h.method
	if req.NormalizeMethod != "" {
		m, err := transform.ParseMethod(req.NormalizeMethod)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		method = m
	}

	ctx := c.Request.Context()
	var (
		res *etl.RunResult
		err error
	)
	switch {
	case req.Scenario != "":
		res, err = h.runner.RunScenario(ctx, h.inputDir, req.Scenario, method)
	case req.InputDir != "":
		res, err = h.runner.Run(ctx, req.InputDir, method)
	default:
		res, err = h.runner.RunLatest(ctx, h.inputDir, method)
	}
	if err != nil {
		h.log.Error("run failed", logger.ErrorFields("run", err))
		server.RespondWithError(c, err)
		return
	}
	c.Set(logger.FieldRunID, res.RunID)
	server.RespondOK(c, NewRunResponse(res))
}

// ListRuns returns recorded runs, newest first.
func (h *Handler) ListRuns(c *gin.Context) {
	var q RunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("query", err.Error()))
		return
	}
	if err := validation.Validate(&q); err != nil {
		server.RespondWithError(c, err)
		return
	}
	runs, err := h.history.List(c.Request.Context(), runlog.Query{
		Status:   runlog.Status(q.Status),
		Scenario: q.Scenario,
		Limit:    q.Limit,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, RunsResponse{Runs: runs})
}

// GetRun returns one recorded run with its stages.
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")
	c.Set(logger.FieldRunID, id)
	run, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, run)
}

// bind decodes and validates the JSON body, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return false
	}
	if err := validation.Validate(dst); err != nil {
		server.RespondWithError(c, err)
		return false
	}
	return true
}
