package events

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// The raw types below never fail to unmarshal. A value that cannot be read
// is remembered as malformed and Ingest decides whether to drop the field or
// the whole record.

// RawTime is a timestamp as delivered by the store or a client.
type RawTime struct {
	t  time.Time
	ok bool
}

// At wraps an already parsed time.
func At(t time.Time) RawTime {
	return RawTime{t: t, ok: !t.IsZero()}
}

// AtPtr wraps an optional time; nil yields a missing timestamp.
func AtPtr(t *time.Time) RawTime {
	if t == nil {
		return RawTime{}
	}
	return At(*t)
}

// Time returns the parsed value and whether it is usable.
func (r RawTime) Time() (time.Time, bool) { return r.t, r.ok }

var rawTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (r *RawTime) UnmarshalJSON(b []byte) error {
	*r = RawTime{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		for _, layout := range rawTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				*r = At(t.UTC())
				return nil
			}
		}
		return nil
	}
	secs, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return nil
	}
	// Values past 1e12 are epoch milliseconds.
	if secs > 1e12 {
		secs /= 1000
	}
	whole, frac := math.Modf(secs)
	*r = At(time.Unix(int64(whole), int64(frac*1e9)).UTC())
	return nil
}

func (r RawTime) MarshalJSON() ([]byte, error) {
	if !r.ok {
		return []byte("null"), nil
	}
	return json.Marshal(r.t.Format(time.RFC3339Nano))
}

// RawNumber is a number that may arrive as a JSON number or numeric string.
type RawNumber struct {
	v  float64
	ok bool
}

// Num wraps a known value.
func Num(v float64) RawNumber {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return RawNumber{}
	}
	return RawNumber{v: v, ok: true}
}

// NumPtr wraps an optional value.
func NumPtr(v *float64) RawNumber {
	if v == nil {
		return RawNumber{}
	}
	return Num(*v)
}

// Value returns the number and whether it was present and finite.
func (n RawNumber) Value() (float64, bool) { return n.v, n.ok }

func (n *RawNumber) UnmarshalJSON(b []byte) error {
	*n = RawNumber{}
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*n = Num(f)
	return nil
}

func (n RawNumber) MarshalJSON() ([]byte, error) {
	if !n.ok {
		return []byte("null"), nil
	}
	return json.Marshal(n.v)
}

// RawSeverity distinguishes an absent severity (kept as nil) from an
// unreadable one (the record is dropped).
type RawSeverity struct {
	text    string
	present bool
}

// SeverityText wraps a textual severity; the empty string means absent.
func SeverityText(s string) RawSeverity {
	s = strings.TrimSpace(s)
	return RawSeverity{text: s, present: s != ""}
}

// SeverityTextPtr wraps an optional textual severity.
func SeverityTextPtr(s *string) RawSeverity {
	if s == nil {
		return RawSeverity{}
	}
	return SeverityText(*s)
}

// Parse returns the severity, whether one was given, and whether it was valid.
func (r RawSeverity) Parse() (sev Severity, present, valid bool) {
	if !r.present {
		return 0, false, true
	}
	sev, valid = ParseSeverity(r.text)
	return sev, true, valid
}

func (r *RawSeverity) UnmarshalJSON(b []byte) error {
	*r = RawSeverity{}
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			*r = RawSeverity{text: s, present: true}
			return nil
		}
		*r = SeverityText(text)
		return nil
	}
	// Non-string literals (numbers, booleans) keep their text and are
	// validated by Parse.
	*r = RawSeverity{text: s, present: true}
	return nil
}

func (r RawSeverity) MarshalJSON() ([]byte, error) {
	if !r.present {
		return []byte("null"), nil
	}
	return json.Marshal(r.text)
}

// RawDose is a dose record as read from the store.
type RawDose struct {
	MedicationName string  `json:"medication_name"`
	TakenAt        RawTime `json:"taken_at"`
}

// RawEnvironmental holds weather readings in whatever unit the source used.
// PressureUnit is one of mb, hpa, inhg; TemperatureUnit one of c, f.
type RawEnvironmental struct {
	Pressure         RawNumber `json:"pressure"`
	PressureUnit     string    `json:"pressure_unit,omitempty"`
	Temperature      RawNumber `json:"temperature"`
	TemperatureUnit  string    `json:"temperature_unit,omitempty"`
	HumidityPct      RawNumber `json:"humidity_pct"`
	AQI              RawNumber `json:"aqi"`
	WeatherCondition string    `json:"weather_condition,omitempty"`
}

// RawPhysiological holds wearable readings.
type RawPhysiological struct {
	SleepHours             RawNumber `json:"sleep_hours"`
	HeartRateVariabilityMs RawNumber `json:"hrv_ms"`
	StepCount              RawNumber `json:"step_count"`
}

// RawOutcome is a flare record as read from the store.
type RawOutcome struct {
	Timestamp     RawTime           `json:"timestamp"`
	Severity      RawSeverity       `json:"severity"`
	Symptoms      []string          `json:"symptoms"`
	Triggers      []string          `json:"triggers"`
	Environmental *RawEnvironmental `json:"environmental,omitempty"`
	Physiological *RawPhysiological `json:"physiological,omitempty"`
}

// RawDiscovery is a trigger discovery as read from the store.
type RawDiscovery struct {
	Factor     string    `json:"factor"`
	Outcome    string    `json:"outcome,omitempty"`
	Lift       RawNumber `json:"lift"`
	Confidence RawNumber `json:"confidence"`
	Direction  string    `json:"direction"`
	Status     string    `json:"status"`
}

// RawProfile is the user profile as read from the store.
type RawProfile struct {
	DateOfBirth   RawTime   `json:"date_of_birth"`
	BiologicalSex string    `json:"biological_sex,omitempty"`
	WeightKg      RawNumber `json:"weight_kg"`
	HeightCm      RawNumber `json:"height_cm"`
}

// RawSnapshot bundles the three collections plus profile for one user.
type RawSnapshot struct {
	Doses       []RawDose      `json:"doses"`
	Outcomes    []RawOutcome   `json:"outcomes"`
	Discoveries []RawDiscovery `json:"discoveries"`
	Profile     *RawProfile    `json:"profile,omitempty"`
}
