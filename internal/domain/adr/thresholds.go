package adr

import "time"

// Detection thresholds. These values are the behavioural contract that the
// causality and risk classifiers are calibrated against; they are not
// tunable per call.
const (
	ExposureWindow = 48 * time.Hour

	MinDosesPerMedication = 2
	MinOccurrences        = 2
	MinConfidence         = 0.15
	MinLift               = 1.2

	// LiftWithoutBaseline is used when the symptom never appears outside
	// the exposure windows but does appear inside them.
	LiftWithoutBaseline = 5.0
)

// Temporal pattern boundaries, in hours of mean onset.
const (
	AcuteMaxOnsetHours    = 24.0
	SubacuteMaxOnsetHours = 168.0
)

// causalityRule is one row of the WHO-UMC style ladder. Rows are evaluated
// in order; the first match wins.
type causalityRule struct {
	category       Causality
	minConfidence  float64
	minLift        float64
	minOccurrences int
}

var causalityLadder = []causalityRule{
	{CausalityCertain, 0.8, 3, 5},
	{CausalityProbable, 0.6, 2, 3},
	{CausalityPossible, 0.4, 1.5, 2},
	{CausalityUnlikely, 0.2, 0, 0},
}

// Composite risk score weights: s = confidence*30 + min(lift,5)*10 + severeRatio*60.
const (
	RiskConfidenceWeight  = 30.0
	RiskLiftWeight        = 10.0
	RiskLiftCap           = 5.0
	RiskSevereRatioWeight = 60.0

	RiskCriticalMin = 70.0
	RiskHighMin     = 50.0
	RiskModerateMin = 30.0
)
