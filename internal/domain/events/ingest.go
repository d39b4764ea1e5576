package events

import (
	"sort"
	"strings"
)

// Unit conversion happens here and only here. Downstream code sees pressure
// in millibars and temperature in degrees Celsius.
//
//	pressure:    mb and hPa are identical; inHg × 33.8639 = mb. A reading
//	             with no unit that falls in [25, 35] is taken as inHg.
//	temperature: °C = (°F − 32) × 5/9. No unit means °C.
const (
	mbPerInHg = 33.8639

	inHgGuessMin = 25.0
	inHgGuessMax = 35.0
)

// Plausibility bounds, in canonical units. Readings outside are dropped as
// sensor or entry errors; the rest of the record is kept.
const (
	minPressureMb = 850.0
	maxPressureMb = 1100.0
	minTempC      = -90.0
	maxTempC      = 60.0
	maxSleepHours = 24.0
	maxStepCount  = 500000
)

// IngestStats counts what ingestion kept and dropped.
type IngestStats struct {
	DosesKept          int `json:"doses_kept"`
	DosesDropped       int `json:"doses_dropped"`
	OutcomesKept       int `json:"outcomes_kept"`
	OutcomesDropped    int `json:"outcomes_dropped"`
	DiscoveriesKept    int `json:"discoveries_kept"`
	DiscoveriesDropped int `json:"discoveries_dropped"`
}

// Dropped returns the total number of records dropped.
func (s IngestStats) Dropped() int {
	return s.DosesDropped + s.OutcomesDropped + s.DiscoveriesDropped
}

// Ingest normalizes a raw snapshot. Malformed records are dropped and
// counted; it never fails. Duplicate records are kept as distinct entries.
func Ingest(raw RawSnapshot) (Snapshot, IngestStats) {
	var snap Snapshot
	var stats IngestStats

	for _, rd := range raw.Doses {
		d, ok := normalizeDose(rd)
		if !ok {
			stats.DosesDropped++
			continue
		}
		snap.Doses = append(snap.Doses, d)
	}
	for _, ro := range raw.Outcomes {
		o, ok := normalizeOutcome(ro)
		if !ok {
			stats.OutcomesDropped++
			continue
		}
		snap.Outcomes = append(snap.Outcomes, o)
	}
	for _, rdisc := range raw.Discoveries {
		d, ok := normalizeDiscovery(rdisc)
		if !ok {
			stats.DiscoveriesDropped++
			continue
		}
		snap.Discoveries = append(snap.Discoveries, d)
	}
	if raw.Profile != nil {
		snap.Profile = normalizeProfile(*raw.Profile)
	}

	sort.SliceStable(snap.Doses, func(i, j int) bool {
		return snap.Doses[i].TakenAt.Before(snap.Doses[j].TakenAt)
	})
	sort.SliceStable(snap.Outcomes, func(i, j int) bool {
		return snap.Outcomes[i].Timestamp.Before(snap.Outcomes[j].Timestamp)
	})

	stats.DosesKept = len(snap.Doses)
	stats.OutcomesKept = len(snap.Outcomes)
	stats.DiscoveriesKept = len(snap.Discoveries)
	return snap, stats
}

func normalizeDose(rd RawDose) (Dose, bool) {
	name := strings.TrimSpace(rd.MedicationName)
	if name == "" {
		return Dose{}, false
	}
	t, ok := rd.TakenAt.Time()
	if !ok {
		return Dose{}, false
	}
	return Dose{MedicationName: name, TakenAt: t}, true
}

func normalizeOutcome(ro RawOutcome) (OutcomeEvent, bool) {
	t, ok := ro.Timestamp.Time()
	if !ok {
		return OutcomeEvent{}, false
	}
	sev, present, valid := ro.Severity.Parse()
	if !valid {
		return OutcomeEvent{}, false
	}
	ev := OutcomeEvent{
		Timestamp: t,
		Symptoms:  tagSet(ro.Symptoms),
		Triggers:  tagSet(ro.Triggers),
	}
	if present {
		ev.Severity = &sev
	}
	if ro.Environmental != nil {
		ev.Environmental = normalizeEnvironmental(*ro.Environmental)
	}
	if ro.Physiological != nil {
		ev.Physiological = normalizePhysiological(*ro.Physiological)
	}
	return ev, true
}

// tagSet trims, drops empties and de-duplicates, returning a sorted slice.
func tagSet(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalizeEnvironmental(re RawEnvironmental) *EnvironmentalReading {
	var env EnvironmentalReading
	if v, ok := re.Pressure.Value(); ok {
		if mb, ok := pressureToMb(v, re.PressureUnit); ok && mb >= minPressureMb && mb <= maxPressureMb {
			env.PressureMb = &mb
		}
	}
	if v, ok := re.Temperature.Value(); ok {
		if c, ok := temperatureToC(v, re.TemperatureUnit); ok && c >= minTempC && c <= maxTempC {
			env.TemperatureC = &c
		}
	}
	if v, ok := re.HumidityPct.Value(); ok && v >= 0 && v <= 100 {
		env.HumidityPct = &v
	}
	if v, ok := re.AQI.Value(); ok && v >= 0 {
		env.AQI = &v
	}
	if w := strings.TrimSpace(re.WeatherCondition); w != "" {
		env.WeatherCondition = &w
	}
	if env == (EnvironmentalReading{}) {
		return nil
	}
	return &env
}

func pressureToMb(v float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "mb", "mbar", "hpa":
		return v, true
	case "inhg":
		return v * mbPerInHg, true
	case "":
		if v >= inHgGuessMin && v <= inHgGuessMax {
			return v * mbPerInHg, true
		}
		return v, true
	}
	return 0, false
}

func temperatureToC(v float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "c", "celsius":
		return v, true
	case "f", "fahrenheit":
		return (v - 32) * 5 / 9, true
	}
	return 0, false
}

func normalizePhysiological(rp RawPhysiological) *PhysiologicalReading {
	var phys PhysiologicalReading
	if v, ok := rp.SleepHours.Value(); ok && v >= 0 && v <= maxSleepHours {
		phys.SleepHours = &v
	}
	if v, ok := rp.HeartRateVariabilityMs.Value(); ok && v > 0 {
		phys.HeartRateVariabilityMs = &v
	}
	if v, ok := rp.StepCount.Value(); ok && v >= 0 && v <= maxStepCount {
		steps := int(v)
		phys.StepCount = &steps
	}
	if phys == (PhysiologicalReading{}) {
		return nil
	}
	return &phys
}

func normalizeDiscovery(rd RawDiscovery) (Discovery, bool) {
	factor := strings.TrimSpace(rd.Factor)
	if factor == "" {
		return Discovery{}, false
	}
	lift, ok := rd.Lift.Value()
	if !ok || lift < 0 {
		return Discovery{}, false
	}
	d := Discovery{
		Factor:    factor,
		Outcome:   strings.TrimSpace(rd.Outcome),
		Lift:      lift,
		Direction: DirectionIncreases,
		Confirmed: strings.EqualFold(strings.TrimSpace(rd.Status), "confirmed"),
	}
	if c, ok := rd.Confidence.Value(); ok {
		d.Confidence = clamp01(c)
	}
	switch strings.ToLower(strings.TrimSpace(rd.Direction)) {
	case "", string(DirectionIncreases):
	case string(DirectionDecreases):
		d.Direction = DirectionDecreases
	default:
		return Discovery{}, false
	}
	return d, true
}

func normalizeProfile(rp RawProfile) Profile {
	var p Profile
	if t, ok := rp.DateOfBirth.Time(); ok {
		p.DateOfBirth = &t
	}
	if s := strings.TrimSpace(rp.BiologicalSex); s != "" {
		p.BiologicalSex = &s
	}
	if v, ok := rp.WeightKg.Value(); ok && v > 0 {
		p.WeightKg = &v
	}
	if v, ok := rp.HeightCm.Value(); ok && v > 0 {
		p.HeightCm = &v
	}
	return p
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
