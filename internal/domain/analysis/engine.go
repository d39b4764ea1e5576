package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/flaretrack/flaretrack/internal/domain/adr"
	"github.com/flaretrack/flaretrack/internal/domain/environment"
	"github.com/flaretrack/flaretrack/internal/domain/events"
	"github.com/flaretrack/flaretrack/internal/domain/risk"
)

// Compute runs every engine stage over one snapshot. It is a pure function
// of its input: the same snapshot, user and now give an identical report.
func Compute(in Input) Report {
	snap := in.Snapshot

	var opts []adr.Option
	if in.Coder != nil {
		opts = append(opts, adr.WithCoder(in.Coder))
	}
	signals := adr.Detect(snap.Doses, snap.Outcomes, opts...)
	env := environment.Analyze(snap.Outcomes, in.Now)
	predictive := risk.Aggregate(risk.Input{
		Now:          in.Now,
		Doses:        snap.Doses,
		Outcomes:     snap.Outcomes,
		Discoveries:  snap.Discoveries,
		Signals:      signals,
		Correlations: env.Correlations,
	})

	return Report{
		ID:                        ReportID(in.UserID, in.Now),
		UserID:                    in.UserID,
		GeneratedAt:               in.Now,
		ADRSignals:                signals,
		PredictiveRisk:            predictive,
		EnvironmentalCorrelations: env.Correlations,
		Insights:                  env.Insights,
		EnvironmentalRiskFactors:  env.RiskFactors,
		ProtectiveFactors:         env.ProtectiveFactors,
		EventsAnalyzed:            env.EventsAnalyzed,
		Summary:                   summarize(snap, signals, predictive),
		Ingestion:                 in.Ingestion,
	}
}

// ReportID derives a stable id from the user and the run clock.
func ReportID(userID uuid.UUID, now time.Time) uuid.UUID {
	return uuid.NewSHA1(userID, []byte(now.UTC().Format(time.RFC3339Nano)))
}

func summarize(snap events.Snapshot, signals []adr.Signal, predictive risk.PredictiveRisk) Summary {
	s := Summary{
		TotalMedications: len(snap.MedicationNames()),
		TotalADRSignals:  len(signals),
		RiskScore:        predictive.OverallScore,
	}
	for _, sig := range signals {
		switch sig.RiskLevel {
		case adr.RiskCritical:
			s.CriticalSignals++
		case adr.RiskHigh:
			s.HighSignals++
		}
	}
	return s
}
