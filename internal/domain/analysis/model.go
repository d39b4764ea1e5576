package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/flaretrack/flaretrack/internal/domain/adr"
	"github.com/flaretrack/flaretrack/internal/domain/environment"
	"github.com/flaretrack/flaretrack/internal/domain/events"
	"github.com/flaretrack/flaretrack/internal/domain/risk"
)

// Summary holds the headline counts of a report.
type Summary struct {
	TotalMedications int `json:"total_medications"`
	TotalADRSignals  int `json:"total_adr_signals"`
	CriticalSignals  int `json:"critical_signals"`
	HighSignals      int `json:"high_signals"`
	RiskScore        int `json:"risk_score"`
}

// Report is the output of one engine run. Nothing in it is persisted.
type Report struct {
	ID                        uuid.UUID                 `json:"id"`
	UserID                    uuid.UUID                 `json:"user_id"`
	GeneratedAt               time.Time                 `json:"generated_at"`
	ADRSignals                []adr.Signal              `json:"adr_signals"`
	PredictiveRisk            risk.PredictiveRisk       `json:"predictive_risk"`
	EnvironmentalCorrelations []environment.Correlation `json:"environmental_correlations"`
	Insights                  []environment.Insight     `json:"insights"`
	EnvironmentalRiskFactors  []string                  `json:"environmental_risk_factors"`
	ProtectiveFactors         []string                  `json:"protective_factors"`
	EventsAnalyzed            int                       `json:"events_analyzed"`
	Summary                   Summary                   `json:"summary"`
	Ingestion                 events.IngestStats        `json:"ingestion"`
}

// Input is one normalized snapshot plus the caller-supplied clock.
type Input struct {
	UserID    uuid.UUID
	Now       time.Time
	Snapshot  events.Snapshot
	Ingestion events.IngestStats
	// Coder attaches MedDRA codes to signals when set.
	Coder adr.SymptomCoder
}
