package component

import "fmt"

// HealthStatus is the state of one component or of the whole service.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Health is a component's self-reported state.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

func (h Health) String() string {
	s := h.Name + "=" + string(h.Status)
	if h.Message != "" {
		s += "(" + h.Message + ")"
	}
	return s
}

// Report aggregates component health. Status is the worst component status;
// an empty report is healthy.
type Report struct {
	Status     HealthStatus `json:"status"`
	Components []Health     `json:"components"`
}

// NewReport aggregates hs.
func NewReport(hs []Health) Report {
	r := Report{Status: StatusHealthy, Components: hs}
	for _, h := range hs {
		if h.Status.severity() > r.Status.severity() {
			r.Status = h.Status
		}
	}
	return r
}

// Healthy counts healthy components.
func (r Report) Healthy() int {
	n := 0
	for _, h := range r.Components {
		if h.Status == StatusHealthy {
			n++
		}
	}
	return n
}

// Err lists the components that are not healthy, or returns nil.
func (r Report) Err() error {
	var issues []string
	for _, h := range r.Components {
		if h.Status != StatusHealthy {
			issues = append(issues, h.String())
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("unhealthy components: %v", issues)
}
