package view

import (
	"math"
	"strconv"

	"EarnView/internal/domain/models"
	"EarnView/internal/query"
	"EarnView/pkg/util"
)

const (
	trainingDateLayout = "01/02/2006"
	unknownDate        = "Unknown"
	metricMissing      = "N/A"
)

// ModelPanelState names the branch of the model status panel.
type ModelPanelState string

const (
	ModelLoading     ModelPanelState = "loading"
	ModelError       ModelPanelState = "error"
	ModelUnavailable ModelPanelState = "unavailable"
	ModelActive      ModelPanelState = "active"
)

// ModelPanel is the formatted model status.
type ModelPanel struct {
	State      ModelPanelState `json:"state"`
	Headline   string          `json:"headline,omitempty"`
	Hint       string          `json:"hint,omitempty"`
	Trained    string          `json:"trained,omitempty"`
	Features   string          `json:"features,omitempty"`
	HasMetrics bool            `json:"has_metrics"`
	MAE        string          `json:"mae,omitempty"`
	R2         string          `json:"r2,omitempty"`
}

// BuildModelPanel renders the panel for the model status query.
func BuildModelPanel(st query.State[models.ModelStatus]) ModelPanel {
	return query.Match(st,
		func() ModelPanel { return ModelPanel{State: ModelLoading} },
		func(error) ModelPanel {
			return ModelPanel{State: ModelError, Headline: "Model Status: Error"}
		},
		func(ms models.ModelStatus) ModelPanel {
			if !ms.Available {
				return ModelPanel{
					State:    ModelUnavailable,
					Headline: "Model Status: Not Available",
					Hint:     "Run data pipeline and train model to enable predictions",
				}
			}
			p := ModelPanel{
				State:    ModelActive,
				Headline: "Model Status: Active",
				Trained:  unknownDate,
				Features: strconv.Itoa(ms.FeatureCount),
			}
			if t, ok := util.ParseTime(ms.TrainingDate); ok {
				p.Trained = t.Format(trainingDateLayout)
			}
			if perf := ms.Performance; perf != nil {
				p.HasMetrics = true
				p.MAE = FormatMetric(perf.MAE)
				if p.MAE != metricMissing {
					p.MAE += "%"
				}
				p.R2 = FormatMetric(perf.R2)
			}
			return p
		},
	)
}

// FormatMetric renders a model metric with three decimals. Absent and zero
// metrics both read as not available.
func FormatMetric(v *float64) string {
	if v == nil || *v == 0 || math.IsNaN(*v) {
		return metricMissing
	}
	return fixed(*v, 3)
}
