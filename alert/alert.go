// Package alert raises power-efficiency alerts from model predictions.
package alert

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cemint/cemint-insights/logger"
)

// DefaultThreshold is the predicted specific power consumption above which
// efficiency counts as degraded.
const DefaultThreshold = 1.5

// Alert types.
const (
	TypeDegradation     = "power_efficiency_degradation"
	TypePredictionError = "prediction_error"
)

// Suggestions attached to published alerts.
const (
	DegradationSuggestion = "Decrease the Crusher Power or add more raw materials(limestone, clay or iron ore)"
	ErrorSuggestion       = "No suggestions available at this time."
)

// Alert is the published payload.
type Alert struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	ModelID    string `json:"model_id"`
	AlertType  string `json:"alert_type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// Publisher delivers alerts.
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
}

// Evaluate reports whether any prediction exceeds threshold, with the message
// describing the first offending value.
func Evaluate(predictions []float64, threshold float64) (bool, string) {
	for _, v := range predictions {
		if v > threshold {
			return true, "Power Consumption Efficiency degraded!!! Value : " + strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return false, "Power Consumption Efficiency within acceptable limits"
}

// Result is the outcome of Check.
type Result struct {
	Degraded bool   `json:"alert_triggered"`
	Message  string `json:"alert_message"`
	Alert    *Alert `json:"-"`
}

// Service evaluates predictions and publishes alerts.
type Service struct {
	pub       Publisher
	threshold float64
	now       func() time.Time
	log       *logger.Logger
}

// NewService creates a Service. threshold <= 0 uses DefaultThreshold.
func NewService(pub Publisher, threshold float64, log *logger.Logger) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{pub: pub, threshold: threshold, now: time.Now, log: log.WithComponent("alert")}
}

// Threshold returns the configured degradation threshold.
func (s *Service) Threshold() float64 { return s.threshold }

// Check evaluates predictions from modelID and publishes a degradation alert
// when the threshold is exceeded. An empty timestamp means now.
func (s *Service) Check(ctx context.Context, modelID, timestamp string, predictions []float64) (Result, error) {
	degraded, msg := Evaluate(predictions, s.threshold)
	res := Result{Degraded: degraded, Message: msg}
	if !degraded {
		s.log.Debug("efficiency within limits", logger.Fields("model", modelID, "predictions", len(predictions)))
		return res, nil
	}

	a := s.newAlert(modelID, timestamp, TypeDegradation, msg, DegradationSuggestion)
	res.Alert = &a
	if err := s.publish(ctx, a); err != nil {
		return res, err
	}
	return res, nil
}

// ReportError publishes a prediction_error alert for cause.
func (s *Service) ReportError(ctx context.Context, modelID, timestamp string, cause error) error {
	msg := fmt.Sprintf("Error during prediction or processing: %v", cause)
	return s.publish(ctx, s.newAlert(modelID, timestamp, TypePredictionError, msg, ErrorSuggestion))
}

func (s *Service) newAlert(modelID, timestamp, kind, msg, suggestion string) Alert {
	if timestamp == "" {
		timestamp = s.now().UTC().Format(time.RFC3339)
	}
	return Alert{
		ID:         uuid.NewString(),
		Timestamp:  timestamp,
		ModelID:    modelID,
		AlertType:  kind,
		Message:    msg,
		Suggestion: suggestion,
	}
}

func (s *Service) publish(ctx context.Context, a Alert) error {
	if s.pub == nil {
		s.log.Warn("no publisher configured, alert dropped", logger.Fields("alert_type", a.AlertType, "model", a.ModelID))
		return nil
	}
	if err := s.pub.Publish(ctx, a); err != nil {
		s.log.Error("alert publish failed", logger.MergeWithError(logger.Fields("alert_type", a.AlertType), err))
		return err
	}
	s.log.Info("alert published", logger.Fields("alert_id", a.ID, "alert_type", a.AlertType, "model", a.ModelID))
	return nil
}
