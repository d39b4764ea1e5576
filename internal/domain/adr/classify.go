package adr

import (
	"math"
	"sort"
)

// ClassifyCausality walks the causality ladder; the first satisfied row wins.
func ClassifyCausality(confidence, lift float64, occurrences int) Causality {
	for _, rule := range causalityLadder {
		if confidence >= rule.minConfidence && lift >= rule.minLift && occurrences >= rule.minOccurrences {
			return rule.category
		}
	}
	return CausalityUnclassified
}

// RiskScore is the composite used to pick the risk tier.
func RiskScore(confidence, lift float64, breakdown SeverityBreakdown) float64 {
	return confidence*RiskConfidenceWeight +
		math.Min(lift, RiskLiftCap)*RiskLiftWeight +
		breakdown.SevereRatio()*RiskSevereRatioWeight
}

// ClassifyRisk maps a composite score to a tier.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score >= RiskCriticalMin:
		return RiskCritical
	case score >= RiskHighMin:
		return RiskHigh
	case score >= RiskModerateMin:
		return RiskModerate
	}
	return RiskLow
}

// ClassifyPattern buckets a mean onset delay.
func ClassifyPattern(avgOnsetHours float64) TemporalPattern {
	switch {
	case avgOnsetHours <= AcuteMaxOnsetHours:
		return PatternAcute
	case avgOnsetHours <= SubacuteMaxOnsetHours:
		return PatternSubacute
	}
	return PatternDelayed
}

// SortSignals orders by risk tier (critical first), then confidence
// descending. Medication and symptom names break remaining ties so the
// order never depends on map iteration or scheduling.
func SortSignals(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if ra, rb := a.RiskLevel.Rank(), b.RiskLevel.Rank(); ra != rb {
			return ra > rb
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Medication != b.Medication {
			return a.Medication < b.Medication
		}
		return a.Symptom < b.Symptom
	})
}
