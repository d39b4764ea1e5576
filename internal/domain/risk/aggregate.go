package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/flaretrack/flaretrack/internal/domain/adr"
	"github.com/flaretrack/flaretrack/internal/domain/events"
)

// Aggregate starts from BaselineScore, applies every factor that fires and
// clamps the result to [MinScore, MaxScore]. Factors are ordered by
// contribution, highest first.
func Aggregate(in Input) PredictiveRisk {
	var b builder

	thisWeek, lastWeek := weeklyCounts(in.Outcomes, in.Now)
	b.trend(thisWeek, lastWeek)
	b.escalation(in.Outcomes, in.Now)
	b.triggers(in.Discoveries, in.Outcomes, in.Now)
	b.adrSignals(in.Signals)
	b.environment(in)
	meds := distinctMedications(in.Doses)
	b.polypharmacy(meds)
	b.adherence(meds, doseDays(in.Doses, in.Now))

	sort.SliceStable(b.factors, func(i, j int) bool {
		return b.factors[i].Contribution > b.factors[j].Contribution
	})

	score := BaselineScore
	for _, f := range b.factors {
		score += f.Contribution
	}
	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}

	return PredictiveRisk{
		OverallScore:    score,
		Factors:         b.nonNilFactors(),
		Recommendations: b.recommendations(),
	}
}

type builder struct {
	factors []Factor
	recs    map[recKind]string
}

// recKind fixes the order recommendations are listed in.
type recKind int

const (
	recADR recKind = iota
	recTriggers
	recTrend
	recEscalation
	recEnvironment
	recPolypharmacy
	recAdherence
)

func (b *builder) add(name string, contribution int) {
	dir := events.DirectionIncreases
	if contribution < 0 {
		dir = events.DirectionDecreases
	}
	b.factors = append(b.factors, Factor{Name: name, Contribution: contribution, Direction: dir})
}

func (b *builder) recommend(kind recKind, text string) {
	if b.recs == nil {
		b.recs = make(map[recKind]string)
	}
	if _, ok := b.recs[kind]; !ok {
		b.recs[kind] = text
	}
}

func (b *builder) recommendations() []string {
	out := []string{}
	seen := make(map[string]bool)
	for k := recADR; k <= recAdherence; k++ {
		text, ok := b.recs[k]
		if !ok || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	return out
}

func (b *builder) nonNilFactors() []Factor {
	if b.factors == nil {
		return []Factor{}
	}
	return b.factors
}

// weeklyCounts counts outcome events in (now-7d, now] and (now-14d, now-7d].
func weeklyCounts(outcomes []events.OutcomeEvent, now time.Time) (thisWeek, lastWeek int) {
	for _, ev := range outcomes {
		switch {
		case ev.Timestamp.After(now):
		case ev.Timestamp.After(now.Add(-week)):
			thisWeek++
		case ev.Timestamp.After(now.Add(-2 * week)):
			lastWeek++
		}
	}
	return thisWeek, lastWeek
}

func (b *builder) trend(thisWeek, lastWeek int) {
	var ratio float64
	switch {
	case lastWeek > 0:
		ratio = float64(thisWeek) / float64(lastWeek)
	case thisWeek > 0:
		ratio = ratioWithoutLastWeek
	default:
		return
	}
	switch {
	case ratio > risingRatio:
		b.add("Rising flare trend", min(risingCap, round((ratio-1)*risingWeight)))
		b.recommend(recTrend, fmt.Sprintf(
			"Flares are up this week (%d vs %d last week). Review recent triggers and routine changes.", thisWeek, lastWeek))
	case ratio < fallingRatio && lastWeek > 0:
		b.add("Declining flare trend", -min(fallingCap, round((1-ratio)*fallingWeight)))
	}
}

// escalation compares the mean severity of the most recent rated flares with
// the ones before them.
func (b *builder) escalation(outcomes []events.OutcomeEvent, now time.Time) {
	var rated []events.OutcomeEvent
	for _, ev := range outcomes {
		if ev.Severity != nil && !ev.Timestamp.After(now) {
			rated = append(rated, ev)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].Timestamp.After(rated[j].Timestamp)
	})
	recent := rated[:min(escalationWindow, len(rated))]
	older := rated[len(recent):min(len(rated), 2*escalationWindow)]
	if len(recent) < escalationMinEvents || len(older) < escalationMinEvents {
		return
	}
	diff := meanSeverity(recent) - meanSeverity(older)
	if diff <= escalationMinDiff {
		return
	}
	b.add("Severity escalation", round(diff*escalationWeight))
	b.recommend(recEscalation, "Recent flares are more severe than earlier ones. Consider contacting your clinician if this continues.")
}

func meanSeverity(evs []events.OutcomeEvent) float64 {
	if len(evs) == 0 {
		return 0
	}
	var sum float64
	for _, ev := range evs {
		sum += ev.Severity.Ordinal()
	}
	return sum / float64(len(evs))
}

// triggers fires when a confirmed risk-increasing trigger was logged on a flare
// in the last three days. The weight uses the mean lift of every confirmed
// risk-increasing discovery.
func (b *builder) triggers(discoveries []events.Discovery, outcomes []events.OutcomeEvent, now time.Time) {
	var confirmed []events.Discovery
	for _, d := range discoveries {
		if d.Confirmed && d.Direction == events.DirectionIncreases {
			confirmed = append(confirmed, d)
		}
	}
	if len(confirmed) == 0 {
		return
	}

	from := now.Add(-triggerLookback)
	var active []string
	var liftSum float64
	for _, d := range confirmed {
		liftSum += d.Lift
		for _, ev := range outcomes {
			if ev.Timestamp.After(from) && !ev.Timestamp.After(now) && ev.HasTrigger(d.Factor) {
				if !containsFold(active, d.Factor) {
					active = append(active, d.Factor)
				}
				break
			}
		}
	}
	if len(active) == 0 {
		return
	}
	avgLift := liftSum / float64(len(confirmed))
	b.add(fmt.Sprintf("Confirmed triggers active (%d)", len(active)), min(triggerCap, round(avgLift*triggerWeight)))
	b.recommend(recTriggers, fmt.Sprintf("You logged confirmed triggers in the last 3 days: %s. Limit further exposure where you can.", strings.Join(active, ", ")))
}

func (b *builder) adrSignals(signals []adr.Signal) {
	var pairs []string
	for _, s := range signals {
		if s.IsHighRisk() {
			pairs = append(pairs, s.Medication+" → "+s.Symptom)
		}
	}
	if len(pairs) == 0 {
		return
	}
	b.add(fmt.Sprintf("Active ADR signals (%d)", len(pairs)), min(adrCap, len(pairs)*adrWeight))
	b.recommend(recADR, fmt.Sprintf("Discuss possible medication reactions with your clinician: %s.", strings.Join(pairs, "; ")))
}

func (b *builder) environment(in Input) {
	n := 0
	for _, c := range in.Correlations {
		if c.Category.IsEnvironmental() && c.Confidence >= envMinConfidence {
			n++
		}
	}
	if n == 0 {
		return
	}
	b.add("Environmental risk factors", min(envCap, n*envWeight))
	b.recommend(recEnvironment, "Weather and air quality affect your flares. Check the forecast and plan lighter days when conditions match your triggers.")
}

func (b *builder) polypharmacy(meds int) {
	if meds < polypharmacyMin {
		return
	}
	b.add(fmt.Sprintf("Polypharmacy (%d medications)", meds), min(polypharmacyCap, (meds-2)*polypharmacyWeight))
	b.recommend(recPolypharmacy, fmt.Sprintf("You take %d medications. Ask your pharmacist or clinician to review them for interactions.", meds))
}

func (b *builder) adherence(meds, days int) {
	if meds == 0 {
		return
	}
	if days >= adherentMinDays {
		b.add("Consistent medication adherence", -adherenceBonus)
		return
	}
	b.recommend(recAdherence, fmt.Sprintf("Medication was logged on only %d of the last %d days. Setting reminders can help.", days, adherenceDays))
}

func distinctMedications(doses []events.Dose) int {
	seen := make(map[string]bool)
	for _, d := range doses {
		seen[d.MedicationName] = true
	}
	return len(seen)
}

// doseDays counts the calendar days among the last adherenceDays (today
// included, in now's location) with at least one dose.
func doseDays(doses []events.Dose, now time.Time) int {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(adherenceDays - 1))
	days := make(map[time.Time]bool)
	for _, dose := range doses {
		at := dose.TakenAt.In(loc)
		if at.Before(first) || at.After(now) {
			continue
		}
		y, m, d := at.Date()
		days[time.Date(y, m, d, 0, 0, 0, 0, loc)] = true
	}
	return len(days)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func round(v float64) int {
	return int(math.Round(v))
}
