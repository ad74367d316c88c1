package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cemint/cemint-insights/component"
)

// Summary renders the startup report: components with their descriptions
// and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary that writes to out.
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	return &Summary{serviceName: serviceName, version: version, out: out}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Display writes the summary. A nil registry prints only the header.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	fmt.Fprintf(s.out, "\n%s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())
	if registry == nil {
		return
	}

	components := registry.All()
	if len(components) == 0 {
		fmt.Fprintf(s.out, "   └── No components registered\n\n")
		return
	}

	report := registry.Check(ctx)
	fmt.Fprintf(s.out, "\nComponents\n")
	for i, c := range components {
		prefix := "├──"
		if i == len(components)-1 {
			prefix = "└──"
		}
		fmt.Fprintln(s.out, "   "+prefix+" "+summaryLine(c, report.Components[i]))
	}

	if healthy := report.Healthy(); healthy == len(components) {
		fmt.Fprintf(s.out, "\nAll components healthy (%d/%d)\n\n", healthy, len(components))
	} else {
		fmt.Fprintf(s.out, "\nSome components have issues (%d/%d healthy)\n\n", healthy, len(components))
	}
}

// summaryLine renders "[status] Name: details (message)".
func summaryLine(c component.Component, h component.Health) string {
	name, details := c.Name(), ""
	if d, ok := c.(component.Describable); ok {
		desc := d.Describe()
		if desc.Name != "" {
			name = desc.Name
		}
		details = desc.Details
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", h.Status, name)
	if details != "" {
		b.WriteString(": " + details)
	}
	if h.Message != "" {
		b.WriteString(" (" + h.Message + ")")
	}
	return b.String()
}
