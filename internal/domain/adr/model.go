package adr

// TemporalPattern buckets the mean onset delay of a signal.
type TemporalPattern string

const (
	PatternAcute    TemporalPattern = "acute"
	PatternSubacute TemporalPattern = "subacute"
	PatternDelayed  TemporalPattern = "delayed"
)

// RiskLevel is the signal risk tier.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders tiers from low (0) to critical (3).
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskModerate:
		return 1
	}
	return 0
}

// Causality is the WHO-UMC style causality category.
type Causality string

const (
	CausalityCertain      Causality = "Certain"
	CausalityProbable     Causality = "Probable"
	CausalityPossible     Causality = "Possible"
	CausalityUnlikely     Causality = "Unlikely"
	CausalityUnclassified Causality = "Unclassified"
)

// Strength orders categories from Unclassified (0) to Certain (4).
func (c Causality) Strength() int {
	switch c {
	case CausalityCertain:
		return 4
	case CausalityProbable:
		return 3
	case CausalityPossible:
		return 2
	case CausalityUnlikely:
		return 1
	}
	return 0
}

// SeverityBreakdown counts hits by the severity of their first matching event.
type SeverityBreakdown struct {
	Mild     int `json:"mild"`
	Moderate int `json:"moderate"`
	Severe   int `json:"severe"`
}

// Total returns the number of hits that carried a non-none severity.
func (b SeverityBreakdown) Total() int { return b.Mild + b.Moderate + b.Severe }

// SevereRatio is severe hits over all severity-counted hits, 0 when none.
func (b SeverityBreakdown) SevereRatio() float64 {
	total := b.Total()
	if total == 0 {
		return 0
	}
	return float64(b.Severe) / float64(total)
}

// Signal is a scored medication → symptom association. It is derived on
// every run and never persisted by the engine.
type Signal struct {
	Medication        string            `json:"medication"`
	Symptom           string            `json:"symptom"`
	Confidence        float64           `json:"confidence"`
	Lift              float64           `json:"lift"`
	BaselineRate      float64           `json:"baseline_rate"`
	Occurrences       int               `json:"occurrences"`
	TotalExposures    int               `json:"total_exposures"`
	AvgOnsetHours     float64           `json:"avg_onset_hours"`
	SeverityBreakdown SeverityBreakdown `json:"severity_breakdown"`
	TemporalPattern   TemporalPattern   `json:"temporal_pattern"`
	RiskScore         float64           `json:"risk_score"`
	RiskLevel         RiskLevel         `json:"risk_level"`
	Causality         Causality         `json:"causality"`
	MedDRACode        *string           `json:"meddra_code,omitempty"`
	MedDRATerm        *string           `json:"meddra_term,omitempty"`
}

// IsHighRisk reports whether the signal sits in the high or critical tier.
func (s Signal) IsHighRisk() bool {
	return s.RiskLevel == RiskHigh || s.RiskLevel == RiskCritical
}

// SymptomCoder maps a free-text symptom to a coded vocabulary term. The
// terminology dictionary implements it.
type SymptomCoder interface {
	Lookup(symptom string) (code, term string, ok bool)
}
