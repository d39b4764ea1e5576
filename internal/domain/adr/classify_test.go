package adr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCausality(t *testing.T) {
	tests := []struct {
		name        string
		confidence  float64
		lift        float64
		occurrences int
		want        Causality
	}{
		{"certain", 0.8, 3, 5, CausalityCertain},
		{"certain needs five occurrences", 0.9, 4, 4, CausalityProbable},
		{"probable", 0.6, 2, 3, CausalityProbable},
		{"probable lift short", 0.7, 1.9, 3, CausalityPossible},
		{"possible", 0.4, 1.5, 2, CausalityPossible},
		{"unlikely by confidence only", 0.2, 1.2, 2, CausalityUnlikely},
		{"unlikely despite huge lift", 0.35, 9, 2, CausalityUnlikely},
		{"unclassified", 0.15, 8, 2, CausalityUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCausality(tt.confidence, tt.lift, tt.occurrences))
		})
	}
}

func TestClassifyCausality_Monotonic(t *testing.T) {
	confidences := []float64{0.15, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	lifts := []float64{1.2, 1.5, 1.8, 2, 2.5, 3, 4, 5}
	for _, occ := range []int{2, 3, 5, 8} {
		for i, c := range confidences {
			for j, l := range lifts {
				got := ClassifyCausality(c, l, occ).Strength()
				if i > 0 {
					lower := ClassifyCausality(confidences[i-1], l, occ).Strength()
					assert.LessOrEqual(t, lower, got, "confidence %.2f→%.2f lift %.1f occ %d", confidences[i-1], c, l, occ)
				}
				if j > 0 {
					lower := ClassifyCausality(c, lifts[j-1], occ).Strength()
					assert.LessOrEqual(t, lower, got, "lift %.1f→%.1f confidence %.2f occ %d", lifts[j-1], l, c, occ)
				}
			}
		}
	}
}

func TestRiskScoreAndTier(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		lift       float64
		breakdown  SeverityBreakdown
		wantScore  float64
		want       RiskLevel
	}{
		{"no severity data", 0.5, 1.5, SeverityBreakdown{}, 30, RiskModerate},
		{"lift capped at five", 0.2, 12, SeverityBreakdown{Mild: 2}, 56, RiskHigh},
		{"all severe", 0.5, 2, SeverityBreakdown{Severe: 3}, 95, RiskCritical},
		{"just below moderate", 0.3, 2, SeverityBreakdown{Mild: 1}, 29, RiskLow},
		{"high below critical", 1, 2, SeverityBreakdown{Severe: 1, Mild: 3}, 65, RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := RiskScore(tt.confidence, tt.lift, tt.breakdown)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.Equal(t, tt.want, ClassifyRisk(score))
		})
	}
	assert.Equal(t, RiskCritical, ClassifyRisk(70))
	assert.Equal(t, RiskHigh, ClassifyRisk(50))
	assert.Equal(t, RiskModerate, ClassifyRisk(30))
}

func TestClassifyPattern(t *testing.T) {
	assert.Equal(t, PatternAcute, ClassifyPattern(24))
	assert.Equal(t, PatternSubacute, ClassifyPattern(24.01))
	assert.Equal(t, PatternSubacute, ClassifyPattern(168))
	assert.Equal(t, PatternDelayed, ClassifyPattern(168.5))
}

func TestSortSignals(t *testing.T) {
	signals := []Signal{
		{Medication: "A", Symptom: "s1", RiskLevel: RiskLow, Confidence: 0.9},
		{Medication: "B", Symptom: "s1", RiskLevel: RiskHigh, Confidence: 0.3},
		{Medication: "C", Symptom: "s1", RiskLevel: RiskCritical, Confidence: 0.2},
		{Medication: "D", Symptom: "s1", RiskLevel: RiskHigh, Confidence: 0.7},
		{Medication: "A", Symptom: "s0", RiskLevel: RiskHigh, Confidence: 0.7},
	}

	SortSignals(signals)

	var got []string
	for _, s := range signals {
		got = append(got, s.Medication+"/"+s.Symptom)
	}
	assert.Equal(t, []string{"C/s1", "A/s0", "D/s1", "B/s1", "A/s1"}, got)
}
