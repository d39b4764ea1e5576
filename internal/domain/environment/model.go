package environment

// Category groups correlations by the kind of variable they measure.
type Category string

const (
	CategoryWeather       Category = "weather"
	CategoryAirQuality    Category = "air_quality"
	CategorySleep         Category = "sleep"
	CategoryActivity      Category = "activity"
	CategoryPhysiological Category = "physiological"
	CategoryTime          Category = "time"
)

// IsEnvironmental reports whether the category describes the outside
// environment rather than the person.
func (c Category) IsEnvironmental() bool {
	return c == CategoryWeather || c == CategoryAirQuality
}

// Correlation compares flare severity between two buckets of one variable.
// Strength is signed: positive means the exposed bucket is more severe.
type Correlation struct {
	Factor      string   `json:"factor"`
	Category    Category `json:"category"`
	Strength    float64  `json:"strength"`
	Confidence  float64  `json:"confidence"`
	Occurrences int      `json:"occurrences"`
	AvgSeverity float64  `json:"avg_severity"`
}

// InsightKind labels a narrative finding.
type InsightKind string

const (
	InsightTiming    InsightKind = "timing"
	InsightDayOfWeek InsightKind = "day_of_week"
	InsightCompound  InsightKind = "compound"
	InsightTrend     InsightKind = "trend"
)

// Insight is a narrative timing, trend or compound finding.
type Insight struct {
	Kind       InsightKind `json:"kind"`
	Title      string      `json:"title"`
	Detail     string      `json:"detail"`
	Confidence float64     `json:"confidence"`
}

// Analysis is the analyzer output for one run.
type Analysis struct {
	Correlations      []Correlation `json:"correlations"`
	RiskFactors       []string      `json:"risk_factors"`
	ProtectiveFactors []string      `json:"protective_factors"`
	Insights          []Insight     `json:"insights"`
	EventsAnalyzed    int           `json:"events_analyzed"`
}
