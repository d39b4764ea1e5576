package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity is the ordinal flare severity. Every severity comparison in the
// engine goes through Ordinal so the mapping none=0 .. severe=3 is fixed.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

var severityNames = [...]string{"none", "mild", "moderate", "severe"}

func (s Severity) String() string {
	if s < SeverityNone || s > SeveritySevere {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// Ordinal returns the numeric value used for averaging.
func (s Severity) Ordinal() float64 { return float64(s) }

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("severity: %w", err)
	}
	parsed, ok := ParseSeverity(name)
	if !ok {
		return fmt.Errorf("unknown severity %q", name)
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts a severity name (any case) or its ordinal digit.
func ParseSeverity(v string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none", "0":
		return SeverityNone, true
	case "mild", "1":
		return SeverityMild, true
	case "moderate", "2":
		return SeverityModerate, true
	case "severe", "3":
		return SeveritySevere, true
	}
	return 0, false
}

// Dose is one logged medication intake.
type Dose struct {
	MedicationName string    `json:"medication_name"`
	TakenAt        time.Time `json:"taken_at"`
}

// EnvironmentalReading carries weather and air readings in canonical units
// (pressure in mb, temperature in °C). Absent readings stay nil.
type EnvironmentalReading struct {
	PressureMb       *float64 `json:"pressure_mb,omitempty"`
	TemperatureC     *float64 `json:"temperature_c,omitempty"`
	HumidityPct      *float64 `json:"humidity_pct,omitempty"`
	AQI              *float64 `json:"aqi,omitempty"`
	WeatherCondition *string  `json:"weather_condition,omitempty"`
}

// PhysiologicalReading carries passively captured wearable readings.
type PhysiologicalReading struct {
	SleepHours             *float64 `json:"sleep_hours,omitempty"`
	HeartRateVariabilityMs *float64 `json:"hrv_ms,omitempty"`
	StepCount              *int     `json:"step_count,omitempty"`
}

// OutcomeEvent is a flare or symptom entry. Symptoms and Triggers are sets,
// stored sorted and de-duplicated.
type OutcomeEvent struct {
	Timestamp     time.Time             `json:"timestamp"`
	Severity      *Severity             `json:"severity,omitempty"`
	Symptoms      []string              `json:"symptoms"`
	Triggers      []string              `json:"triggers"`
	Environmental *EnvironmentalReading `json:"environmental,omitempty"`
	Physiological *PhysiologicalReading `json:"physiological,omitempty"`
}

// HasSymptom reports whether the event lists the symptom exactly.
func (e OutcomeEvent) HasSymptom(symptom string) bool {
	for _, s := range e.Symptoms {
		if s == symptom {
			return true
		}
	}
	return false
}

// HasTrigger reports whether the event lists the trigger, ignoring case.
func (e OutcomeEvent) HasTrigger(trigger string) bool {
	for _, t := range e.Triggers {
		if strings.EqualFold(t, trigger) {
			return true
		}
	}
	return false
}

// Direction of a factor's effect on flare risk.
type Direction string

const (
	DirectionIncreases Direction = "increases"
	DirectionDecreases Direction = "decreases"
)

// Discovery is a trigger/outcome association confirmed outside this engine.
type Discovery struct {
	Factor     string    `json:"factor"`
	Outcome    string    `json:"outcome,omitempty"`
	Lift       float64   `json:"lift"`
	Confidence float64   `json:"confidence"`
	Direction  Direction `json:"direction"`
	Confirmed  bool      `json:"confirmed"`
}

// Profile holds the optional demographic fields passed with a run.
type Profile struct {
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	BiologicalSex *string    `json:"biological_sex,omitempty"`
	WeightKg      *float64   `json:"weight_kg,omitempty"`
	HeightCm      *float64   `json:"height_cm,omitempty"`
}

// Snapshot is the normalized input of one engine run. Doses and Outcomes are
// ordered by time ascending.
type Snapshot struct {
	Doses       []Dose         `json:"doses"`
	Outcomes    []OutcomeEvent `json:"outcomes"`
	Discoveries []Discovery    `json:"discoveries"`
	Profile     Profile        `json:"profile"`
}

// MedicationNames returns the distinct medication names in first-seen order.
func (s Snapshot) MedicationNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range s.Doses {
		if !seen[d.MedicationName] {
			seen[d.MedicationName] = true
			names = append(names, d.MedicationName)
		}
	}
	return names
}
