package adr

import (
	"sort"
	"sync"
	"time"

	"github.com/flaretrack/flaretrack/internal/domain/events"
)

type options struct {
	coder SymptomCoder
}

// Option configures Detect.
type Option func(*options)

// WithCoder attaches MedDRA codes to emitted signals. Misses are left blank.
func WithCoder(c SymptomCoder) Option {
	return func(o *options) { o.coder = c }
}

// Detect runs the exposure/outcome temporal join for every medication with
// at least two doses against every symptom seen in outcomes, and returns the
// surviving signals sorted by SortSignals. outcomes must be ordered by
// timestamp ascending, as produced by events.Ingest.
func Detect(doses []events.Dose, outcomes []events.OutcomeEvent, opts ...Option) []Signal {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	byMed, meds := groupDoses(doses)
	symptoms, symptomCounts := symptomIndex(outcomes)
	if len(meds) == 0 || len(symptoms) == 0 {
		return []Signal{}
	}

	totalEvents := len(outcomes)
	if totalEvents == 0 {
		totalEvents = 1
	}

	// Each medication is independent; results land in their own slot so
	// assembly order never depends on scheduling.
	perMed := make([][]Signal, len(meds))
	var wg sync.WaitGroup
	for i, med := range meds {
		medDoses := byMed[med]
		if len(medDoses) < MinDosesPerMedication {
			continue
		}
		wg.Add(1)
		go func(i int, med string, medDoses []events.Dose) {
			defer wg.Done()
			for _, symptom := range symptoms {
				baseline := float64(symptomCounts[symptom]) / float64(totalEvents)
				if sig, ok := scorePair(med, symptom, medDoses, outcomes, baseline); ok {
					perMed[i] = append(perMed[i], sig)
				}
			}
		}(i, med, medDoses)
	}
	wg.Wait()

	signals := []Signal{}
	for _, s := range perMed {
		signals = append(signals, s...)
	}
	if o.coder != nil {
		for i := range signals {
			if code, term, ok := o.coder.Lookup(signals[i].Symptom); ok {
				signals[i].MedDRACode = &code
				signals[i].MedDRATerm = &term
			}
		}
	}
	SortSignals(signals)
	return signals
}

func groupDoses(doses []events.Dose) (map[string][]events.Dose, []string) {
	byMed := make(map[string][]events.Dose)
	var meds []string
	for _, d := range doses {
		if _, ok := byMed[d.MedicationName]; !ok {
			meds = append(meds, d.MedicationName)
		}
		byMed[d.MedicationName] = append(byMed[d.MedicationName], d)
	}
	return byMed, meds
}

func symptomIndex(outcomes []events.OutcomeEvent) ([]string, map[string]int) {
	counts := make(map[string]int)
	for _, ev := range outcomes {
		for _, s := range ev.Symptoms {
			counts[s]++
		}
	}
	symptoms := make([]string, 0, len(counts))
	for s := range counts {
		symptoms = append(symptoms, s)
	}
	sort.Strings(symptoms)
	return symptoms, counts
}

// firstHit returns the earliest outcome in (doseTime, doseTime+window] that
// lists the symptom.
func firstHit(outcomes []events.OutcomeEvent, doseTime time.Time, symptom string) (events.OutcomeEvent, bool) {
	end := doseTime.Add(ExposureWindow)
	start := sort.Search(len(outcomes), func(i int) bool {
		return outcomes[i].Timestamp.After(doseTime)
	})
	for i := start; i < len(outcomes) && !outcomes[i].Timestamp.After(end); i++ {
		if outcomes[i].HasSymptom(symptom) {
			return outcomes[i], true
		}
	}
	return events.OutcomeEvent{}, false
}

func scorePair(med, symptom string, doses []events.Dose, outcomes []events.OutcomeEvent, baseline float64) (Signal, bool) {
	var (
		hits       int
		onsetHours float64
		breakdown  SeverityBreakdown
	)
	for _, d := range doses {
		ev, ok := firstHit(outcomes, d.TakenAt, symptom)
		if !ok {
			continue
		}
		hits++
		onsetHours += ev.Timestamp.Sub(d.TakenAt).Hours()
		if ev.Severity != nil {
			switch *ev.Severity {
			case events.SeverityMild:
				breakdown.Mild++
			case events.SeverityModerate:
				breakdown.Moderate++
			case events.SeveritySevere:
				breakdown.Severe++
			}
		}
	}
	if hits < MinOccurrences {
		return Signal{}, false
	}

	exposed := float64(hits) / float64(len(doses))
	var lift float64
	switch {
	case baseline > 0:
		lift = exposed / baseline
	case exposed > 0:
		lift = LiftWithoutBaseline
	}
	confidence := clamp01(exposed)
	if confidence < MinConfidence || lift < MinLift {
		return Signal{}, false
	}

	avgOnset := onsetHours / float64(hits)
	score := RiskScore(confidence, lift, breakdown)
	return Signal{
		Medication:        med,
		Symptom:           symptom,
		Confidence:        confidence,
		Lift:              lift,
		BaselineRate:      baseline,
		Occurrences:       hits,
		TotalExposures:    len(doses),
		AvgOnsetHours:     avgOnset,
		SeverityBreakdown: breakdown,
		TemporalPattern:   ClassifyPattern(avgOnset),
		RiskScore:         score,
		RiskLevel:         ClassifyRisk(score),
		Causality:         ClassifyCausality(confidence, lift, hits),
	}, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
