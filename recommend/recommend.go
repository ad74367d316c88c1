// Package recommend produces rule-of-thumb process adjustments per plant area.
package recommend

// Plant areas with rules.
const (
	StageRawMill   = "raw_mill"
	StageKiln      = "kiln"
	StageUtilities = "utilities"
)

// Recommendation is keyed by "action".
type Recommendation map[string]string

// Generate returns the recommended action for stage given its current
// parameters. Absent parameters take their nominal value.
func Generate(stage string, params map[string]float64) Recommendation {
	param := func(name string, nominal float64) float64 {
		if v, ok := params[name]; ok {
			return v
		}
		return nominal
	}

	var action string
	switch stage {
	case StageRawMill:
		switch load := param("mill_load", 80); {
		case load > 90:
			action = "Reduce mill load by 5%"
		case load < 70:
			action = "Increase mill load by 5%"
		default:
			action = "Mill load is optimal"
		}
	case StageKiln:
		switch temp := param("temperature", 1400); {
		case temp > 1450:
			action = "Reduce burner temperature by 20°C"
		case temp < 1350:
			action = "Increase burner temperature by 20°C"
		default:
			action = "Kiln temperature is optimal"
		}
	case StageUtilities:
		if param("energy", 1000) > 1200 {
			action = "Optimize fan/pump speed to reduce energy"
		} else {
			action = "Utility energy usage is within normal range"
		}
	default:
		action = "Stage not recognized. No recommendation."
	}
	return Recommendation{"action": action}
}
