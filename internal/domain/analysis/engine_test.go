package analysis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flaretrack/flaretrack/internal/domain/adr"
	"github.com/flaretrack/flaretrack/internal/domain/events"
)

var (
	t0      = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	runAt   = t0.AddDate(0, 0, 40)
	subject = uuid.MustParse("7d0c2a4e-3f3b-4c55-9a51-6b2f1d9e8c10")
)

func rawOutcome(at time.Time, severity string, symptoms ...string) events.RawOutcome {
	return events.RawOutcome{Timestamp: events.At(at), Severity: events.SeverityText(severity), Symptoms: symptoms}
}

// headacheSnapshot: ten doses of X and forty flares, two of which list
// Headache within hours of a dose.
func headacheSnapshot() events.RawSnapshot {
	day := 24 * time.Hour
	var raw events.RawSnapshot
	for _, at := range []time.Time{t0, t0.Add(time.Hour), t0.Add(10 * day), t0.Add(10*day + time.Hour)} {
		raw.Doses = append(raw.Doses, events.RawDose{MedicationName: "X", TakenAt: events.At(at)})
	}
	for k := 0; k < 6; k++ {
		raw.Doses = append(raw.Doses, events.RawDose{MedicationName: "X", TakenAt: events.At(t0.Add(20*day + time.Duration(k)*3*day))})
	}
	for k := 37; k >= 0; k-- {
		raw.Outcomes = append(raw.Outcomes, rawOutcome(t0.Add(-time.Duration(k+1)*day), "mild", "Joint pain"))
	}
	raw.Outcomes = append(raw.Outcomes,
		rawOutcome(t0.Add(3*time.Hour), "moderate", "Headache"),
		rawOutcome(t0.Add(10*day+5*time.Hour), "severe", "Headache"),
	)
	return raw
}

func compute(raw events.RawSnapshot, coder adr.SymptomCoder) Report {
	snap, stats := events.Ingest(raw)
	return Compute(Input{UserID: subject, Now: runAt, Snapshot: snap, Ingestion: stats, Coder: coder})
}

type mapCoder map[string][2]string

func (m mapCoder) Lookup(symptom string) (string, string, bool) {
	v, ok := m[symptom]
	return v[0], v[1], ok
}

func TestCompute_HeadacheReport(t *testing.T) {
	r := compute(headacheSnapshot(), nil)

	require.Len(t, r.ADRSignals, 1)
	assert.Equal(t, "X", r.ADRSignals[0].Medication)
	assert.Equal(t, adr.RiskCritical, r.ADRSignals[0].RiskLevel)
	assert.Nil(t, r.ADRSignals[0].MedDRACode)

	assert.Equal(t, Summary{
		TotalMedications: 1,
		TotalADRSignals:  1,
		CriticalSignals:  1,
		RiskScore:        r.PredictiveRisk.OverallScore,
	}, r.Summary)

	var adrFactor bool
	for _, f := range r.PredictiveRisk.Factors {
		if f.Name == "Active ADR signals (1)" {
			adrFactor = true
			assert.Equal(t, 10, f.Contribution)
		}
	}
	assert.True(t, adrFactor, "factors: %+v", r.PredictiveRisk.Factors)

	assert.Equal(t, subject, r.UserID)
	assert.Equal(t, runAt, r.GeneratedAt)
	assert.Equal(t, 10, r.Ingestion.DosesKept)
	assert.Equal(t, 40, r.Ingestion.OutcomesKept)
}

func TestCompute_AttachesMedDRACodes(t *testing.T) {
	coder := mapCoder{"Headache": {"10019211", "Headache"}}

	r := compute(headacheSnapshot(), coder)

	require.Len(t, r.ADRSignals, 1)
	require.NotNil(t, r.ADRSignals[0].MedDRACode)
	assert.Equal(t, "10019211", *r.ADRSignals[0].MedDRACode)
	assert.Equal(t, "Headache", *r.ADRSignals[0].MedDRATerm)
}

func TestCompute_NoFlares(t *testing.T) {
	raw := events.RawSnapshot{
		Doses: []events.RawDose{
			{MedicationName: "X", TakenAt: events.At(runAt.AddDate(0, 0, -20))},
			{MedicationName: "X", TakenAt: events.At(runAt.AddDate(0, 0, -19))},
		},
	}

	r := compute(raw, nil)

	assert.Equal(t, 20, r.PredictiveRisk.OverallScore)
	assert.Equal(t, 20, r.Summary.RiskScore)
	assert.NotNil(t, r.ADRSignals)
	assert.Empty(t, r.ADRSignals)
	assert.NotNil(t, r.EnvironmentalCorrelations)
	assert.Empty(t, r.EnvironmentalCorrelations)
	assert.Zero(t, r.EventsAnalyzed)
	assert.Equal(t, 1, r.Summary.TotalMedications)
}

func TestCompute_Deterministic(t *testing.T) {
	a := compute(headacheSnapshot(), nil)
	b := compute(headacheSnapshot(), nil)

	assert.Equal(t, a, b)
	assert.Equal(t, ReportID(subject, runAt), a.ID)
	assert.NotEqual(t, ReportID(subject, runAt.Add(time.Second)), a.ID)
	assert.NotEqual(t, ReportID(uuid.New(), runAt), a.ID)
}
