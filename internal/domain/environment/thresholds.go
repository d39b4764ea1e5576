package environment

import "time"

// Lookback bounds the events the analyzer considers.
const Lookback = 30 * 24 * time.Hour

// MaxCorrelations caps the returned correlation list after sorting.
const MaxCorrelations = 8

// bucketRule describes one two-bucket severity comparison. The confidence
// divisor controls how many observations are needed before confidence
// saturates at 1.
type bucketRule struct {
	factor            string
	category          Category
	minExposed        int
	minReference      int
	minDiff           float64
	confidenceDivisor float64
	riskFactor        string
}

var (
	pressureRule = bucketRule{
		factor: "Low Barometric Pressure", category: CategoryWeather,
		minExposed: 3, minReference: 3, minDiff: 0.3, confidenceDivisor: 15,
		riskFactor: "Low barometric pressure (below 1010 mb)",
	}
	humidityRule = bucketRule{
		factor: "High Humidity", category: CategoryWeather,
		minExposed: 3, minReference: 3, minDiff: 0.3, confidenceDivisor: 15,
		riskFactor: "High humidity (above 75%)",
	}
	coldRule = bucketRule{
		factor: "Cold Weather", category: CategoryWeather,
		minExposed: 3, minReference: 1, minDiff: 0.3, confidenceDivisor: 10,
		riskFactor: "Cold temperatures (below 5°C)",
	}
	airQualityRule = bucketRule{
		factor: "Poor Air Quality", category: CategoryAirQuality,
		minExposed: 2, confidenceDivisor: 8,
		riskFactor: "Poor air quality (AQI above 100)",
	}
	sleepRule = bucketRule{
		factor: "Sleep Deficit", category: CategorySleep,
		minExposed: 2, minReference: 2, minDiff: 0.2, confidenceDivisor: 10,
		riskFactor: "Sleep less than 6 hours",
	}
	hrvRule = bucketRule{
		factor: "Low HRV / Stress", category: CategoryPhysiological,
		minExposed: 2, minReference: 2, minDiff: 0.3, confidenceDivisor: 10,
		riskFactor: "Low heart rate variability (stress)",
	}
	stepsRule = bucketRule{
		factor: "Sedentary Days", category: CategoryActivity,
		minExposed: 2, minReference: 2, minDiff: 0.3, confidenceDivisor: 10,
		riskFactor: "Fewer than 3,000 steps",
	}
)

// Variable split points, in canonical units.
const (
	lowPressureMb       = 1010.0
	highHumidityPct     = 75.0
	coldTempC           = 5.0
	mildTempMaxC        = 25.0
	poorAQI             = 100.0
	goodAQIMax          = 50.0
	shortSleepHours     = 6.0
	goodSleepHours      = 7.0
	lowHRVFraction      = 0.8
	sedentarySteps      = 3000
	activeSteps         = 5000
	activeProtectiveMin = 0.4
)

const (
	protectiveSleep = "Getting 7+ hours of sleep"
	protectiveSteps = "Staying active (5,000+ steps)"
	compoundFactor  = "Poor sleep combined with low pressure"
)

// Narrative insight thresholds.
const (
	minTimingEvents      = 3
	peakTimeShare        = 0.35
	timingConfDivisor    = 10.0
	minTopDayCount       = 3
	topDayShare          = 0.20
	minCompoundEvents    = 2
	compoundSeverityMin  = 2.0
	weeklyTrendThreshold = 2
)
