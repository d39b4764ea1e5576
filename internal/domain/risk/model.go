package risk

import (
	"time"

	"github.com/flaretrack/flaretrack/internal/domain/adr"
	"github.com/flaretrack/flaretrack/internal/domain/environment"
	"github.com/flaretrack/flaretrack/internal/domain/events"
)

// Factor is one fired contribution to the overall score. Contribution is
// negative for factors that decrease risk.
type Factor struct {
	Name         string           `json:"name"`
	Contribution int              `json:"contribution"`
	Direction    events.Direction `json:"direction"`
}

// PredictiveRisk is the aggregated risk of a flare in the near term.
type PredictiveRisk struct {
	OverallScore    int      `json:"overall_score"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// Input is everything the aggregator reads. Signals and Correlations are the
// outputs of the ADR detector and the environmental analyzer for the same run.
type Input struct {
	Now          time.Time
	Doses        []events.Dose
	Outcomes     []events.OutcomeEvent
	Discoveries  []events.Discovery
	Signals      []adr.Signal
	Correlations []environment.Correlation
}
