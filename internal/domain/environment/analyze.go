package environment

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/flaretrack/flaretrack/internal/domain/events"
)

// scored is an event in the lookback window that carries a severity.
type scored struct {
	ev       events.OutcomeEvent
	severity float64
}

// Analyze compares outcome severity across environmental and physiological
// buckets for events in (now-Lookback, now]. Timing insights use now's
// location for hour and weekday.
func Analyze(outcomes []events.OutcomeEvent, now time.Time) Analysis {
	window := inWindow(outcomes, now)
	var samples []scored
	for _, ev := range window {
		if ev.Severity != nil {
			samples = append(samples, scored{ev: ev, severity: ev.Severity.Ordinal()})
		}
	}

	a := Analysis{
		Correlations:      []Correlation{},
		RiskFactors:       []string{},
		ProtectiveFactors: []string{},
		Insights:          []Insight{},
		EventsAnalyzed:    len(window),
	}

	a.addBucketed(pressureRule, samples,
		envValue(func(e *events.EnvironmentalReading) *float64 { return e.PressureMb }),
		func(v float64) bool { return v < lowPressureMb },
		func(v float64) bool { return v >= lowPressureMb })
	a.addBucketed(humidityRule, samples,
		envValue(func(e *events.EnvironmentalReading) *float64 { return e.HumidityPct }),
		func(v float64) bool { return v > highHumidityPct },
		func(v float64) bool { return v <= highHumidityPct })
	a.addBucketed(coldRule, samples,
		envValue(func(e *events.EnvironmentalReading) *float64 { return e.TemperatureC }),
		func(v float64) bool { return v < coldTempC },
		func(v float64) bool { return v >= coldTempC && v <= mildTempMaxC })
	a.addAirQuality(samples)
	if diff, ok := a.addBucketed(sleepRule, samples, sleepValue,
		func(v float64) bool { return v < shortSleepHours },
		func(v float64) bool { return v >= goodSleepHours }); ok && diff > sleepRule.minDiff {
		a.addProtective(protectiveSleep)
	}
	a.addHRV(samples)
	if diff, ok := a.addBucketed(stepsRule, samples, stepsValue,
		func(v float64) bool { return v < sedentarySteps },
		func(v float64) bool { return v >= activeSteps }); ok && diff >= activeProtectiveMin {
		a.addProtective(protectiveSteps)
	}

	a.addTiming(window, now.Location())
	a.addDayOfWeek(window, now.Location())
	a.addCompound(samples)
	a.addWeeklyTrend(window, now)

	a.Correlations = rank(a.Correlations)
	return a
}

// rank orders correlations by |strength| descending, factor name breaking
// ties, and keeps the first MaxCorrelations.
func rank(cs []Correlation) []Correlation {
	sort.SliceStable(cs, func(i, j int) bool {
		si, sj := math.Abs(cs[i].Strength), math.Abs(cs[j].Strength)
		if si != sj {
			return si > sj
		}
		return cs[i].Factor < cs[j].Factor
	})
	if len(cs) > MaxCorrelations {
		cs = cs[:MaxCorrelations]
	}
	return cs
}

func inWindow(outcomes []events.OutcomeEvent, now time.Time) []events.OutcomeEvent {
	from := now.Add(-Lookback)
	var out []events.OutcomeEvent
	for _, ev := range outcomes {
		if ev.Timestamp.After(from) && !ev.Timestamp.After(now) {
			out = append(out, ev)
		}
	}
	return out
}

type valueFunc func(events.OutcomeEvent) (float64, bool)

func envValue(field func(*events.EnvironmentalReading) *float64) valueFunc {
	return func(ev events.OutcomeEvent) (float64, bool) {
		if ev.Environmental == nil {
			return 0, false
		}
		if p := field(ev.Environmental); p != nil {
			return *p, true
		}
		return 0, false
	}
}

func sleepValue(ev events.OutcomeEvent) (float64, bool) {
	if ev.Physiological == nil || ev.Physiological.SleepHours == nil {
		return 0, false
	}
	return *ev.Physiological.SleepHours, true
}

func hrvValue(ev events.OutcomeEvent) (float64, bool) {
	if ev.Physiological == nil || ev.Physiological.HeartRateVariabilityMs == nil {
		return 0, false
	}
	return *ev.Physiological.HeartRateVariabilityMs, true
}

func stepsValue(ev events.OutcomeEvent) (float64, bool) {
	if ev.Physiological == nil || ev.Physiological.StepCount == nil {
		return 0, false
	}
	return float64(*ev.Physiological.StepCount), true
}

// split partitions samples that carry the variable into the exposed and
// reference buckets. Values in neither bucket are ignored.
func split(samples []scored, value valueFunc, exposed, reference func(float64) bool) (ex, ref []float64) {
	for _, s := range samples {
		v, ok := value(s.ev)
		if !ok {
			continue
		}
		switch {
		case exposed(v):
			ex = append(ex, s.severity)
		case reference(v):
			ref = append(ref, s.severity)
		}
	}
	return ex, ref
}

// addBucketed emits a correlation when both buckets are large enough and the
// severity gap exceeds the rule's threshold in magnitude. It returns the
// signed gap and whether a correlation was emitted.
func (a *Analysis) addBucketed(rule bucketRule, samples []scored, value valueFunc, exposed, reference func(float64) bool) (float64, bool) {
	ex, ref := split(samples, value, exposed, reference)
	if len(ex) < rule.minExposed || len(ref) < rule.minReference {
		return 0, false
	}
	exMean, refMean := mean(ex), mean(ref)
	diff := exMean - refMean
	if math.Abs(diff) <= rule.minDiff {
		return diff, false
	}
	a.emit(rule, diff, len(ex)+len(ref), len(ex), exMean)
	return diff, true
}

func (a *Analysis) emit(rule bucketRule, diff float64, sampleSize, occurrences int, avgSeverity float64) {
	a.Correlations = append(a.Correlations, Correlation{
		Factor:      rule.factor,
		Category:    rule.category,
		Strength:    clamp(diff/2, -1, 1),
		Confidence:  clamp(float64(sampleSize)/rule.confidenceDivisor, 0, 1),
		Occurrences: occurrences,
		AvgSeverity: avgSeverity,
	})
	if diff > 0 {
		a.addRisk(rule.riskFactor)
	}
}

// addAirQuality always emits once there are enough poor-air events. Without
// any good-air events the reference is the mean of all scored events.
func (a *Analysis) addAirQuality(samples []scored) {
	aqi := envValue(func(e *events.EnvironmentalReading) *float64 { return e.AQI })
	poor, good := split(samples, aqi,
		func(v float64) bool { return v > poorAQI },
		func(v float64) bool { return v <= goodAQIMax })
	if len(poor) < airQualityRule.minExposed {
		return
	}
	reference := good
	if len(reference) == 0 {
		for _, s := range samples {
			reference = append(reference, s.severity)
		}
	}
	poorMean := mean(poor)
	a.emit(airQualityRule, poorMean-mean(reference), len(poor), len(poor), poorMean)
}

// addHRV splits on a fraction of the person's own mean HRV in the window.
func (a *Analysis) addHRV(samples []scored) {
	var values []float64
	for _, s := range samples {
		if v, ok := hrvValue(s.ev); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return
	}
	cut := mean(values) * lowHRVFraction
	a.addBucketed(hrvRule, samples, hrvValue,
		func(v float64) bool { return v < cut },
		func(v float64) bool { return v >= cut })
}

type timeOfDay struct {
	label string
	from  int
	to    int
}

// Buckets are [from, to) in local hours; night wraps midnight.
var timesOfDay = []timeOfDay{
	{"morning", 5, 12},
	{"afternoon", 12, 17},
	{"evening", 17, 21},
	{"night", 21, 5},
}

func bucketOf(hour int) int {
	for i, b := range timesOfDay {
		if b.from < b.to {
			if hour >= b.from && hour < b.to {
				return i
			}
		} else if hour >= b.from || hour < b.to {
			return i
		}
	}
	return len(timesOfDay) - 1
}

func (a *Analysis) addTiming(window []events.OutcomeEvent, loc *time.Location) {
	if len(window) < minTimingEvents {
		return
	}
	counts := make([]int, len(timesOfDay))
	severities := make([][]float64, len(timesOfDay))
	for _, ev := range window {
		b := bucketOf(ev.Timestamp.In(loc).Hour())
		counts[b]++
		if ev.Severity != nil {
			severities[b] = append(severities[b], ev.Severity.Ordinal())
		}
	}
	top := 0
	for i := range counts {
		if counts[i] > counts[top] {
			top = i
		}
	}
	share := float64(counts[top]) / float64(len(window))
	if share <= peakTimeShare {
		return
	}
	label := timesOfDay[top].label
	conf := clamp(float64(len(window))/timingConfDivisor, 0, 1)
	a.Correlations = append(a.Correlations, Correlation{
		Factor:      "Peak Time: " + titleCase(label),
		Category:    CategoryTime,
		Strength:    clamp(share, -1, 1),
		Confidence:  conf,
		Occurrences: counts[top],
		AvgSeverity: mean(severities[top]),
	})
	a.Insights = append(a.Insights, Insight{
		Kind:       InsightTiming,
		Title:      fmt.Sprintf("Flares peak in the %s", label),
		Detail:     fmt.Sprintf("%d of %d flares (%.0f%%) in the last 30 days started in the %s.", counts[top], len(window), share*100, label),
		Confidence: conf,
	})
}

func (a *Analysis) addDayOfWeek(window []events.OutcomeEvent, loc *time.Location) {
	if len(window) == 0 {
		return
	}
	var counts [7]int
	for _, ev := range window {
		counts[ev.Timestamp.In(loc).Weekday()]++
	}
	top := time.Sunday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if counts[d] > counts[top] {
			top = d
		}
	}
	share := float64(counts[top]) / float64(len(window))
	if counts[top] < minTopDayCount || share <= topDayShare {
		return
	}
	a.Insights = append(a.Insights, Insight{
		Kind:       InsightDayOfWeek,
		Title:      fmt.Sprintf("%s is your most common flare day", top),
		Detail:     fmt.Sprintf("%d of %d flares (%.0f%%) in the last 30 days fell on a %s.", counts[top], len(window), share*100, top),
		Confidence: clamp(float64(len(window))/timingConfDivisor, 0, 1),
	})
}

func (a *Analysis) addCompound(samples []scored) {
	var sev []float64
	for _, s := range samples {
		sleep, okSleep := sleepValue(s.ev)
		pressure, okPressure := envValue(func(e *events.EnvironmentalReading) *float64 { return e.PressureMb })(s.ev)
		if okSleep && okPressure && sleep < shortSleepHours && pressure < lowPressureMb {
			sev = append(sev, s.severity)
		}
	}
	if len(sev) < minCompoundEvents {
		return
	}
	avg := mean(sev)
	if avg <= compoundSeverityMin {
		return
	}
	a.Insights = append(a.Insights, Insight{
		Kind:       InsightCompound,
		Title:      "Compound risk: poor sleep and low pressure",
		Detail:     fmt.Sprintf("%d flares followed short sleep on low-pressure days, averaging %.1f severity.", len(sev), avg),
		Confidence: clamp(float64(len(sev))/timingConfDivisor, 0, 1),
	})
	a.addRisk(compoundFactor)
}

func (a *Analysis) addWeeklyTrend(window []events.OutcomeEvent, now time.Time) {
	week := 7 * 24 * time.Hour
	var thisWeek, lastWeek int
	for _, ev := range window {
		switch {
		case ev.Timestamp.After(now.Add(-week)):
			thisWeek++
		case ev.Timestamp.After(now.Add(-2 * week)):
			lastWeek++
		}
	}
	change := thisWeek - lastWeek
	switch {
	case change > weeklyTrendThreshold:
		a.Insights = append(a.Insights, Insight{
			Kind:       InsightTrend,
			Title:      "Flares are rising this week",
			Detail:     fmt.Sprintf("%d flares in the last 7 days versus %d the week before.", thisWeek, lastWeek),
			Confidence: clamp(float64(thisWeek+lastWeek)/timingConfDivisor, 0, 1),
		})
	case change < -weeklyTrendThreshold:
		a.Insights = append(a.Insights, Insight{
			Kind:       InsightTrend,
			Title:      "Flares are falling this week",
			Detail:     fmt.Sprintf("%d flares in the last 7 days versus %d the week before.", thisWeek, lastWeek),
			Confidence: clamp(float64(thisWeek+lastWeek)/timingConfDivisor, 0, 1),
		})
	}
}

func (a *Analysis) addRisk(f string) {
	if !contains(a.RiskFactors, f) {
		a.RiskFactors = append(a.RiskFactors, f)
	}
}

func (a *Analysis) addProtective(f string) {
	if !contains(a.ProtectiveFactors, f) {
		a.ProtectiveFactors = append(a.ProtectiveFactors, f)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
