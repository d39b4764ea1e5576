package risk

import "time"

// BaselineScore is the starting point before any factor fires.
const BaselineScore = 20

const (
	MinScore = 0
	MaxScore = 100
)

const week = 7 * 24 * time.Hour

// Trend factor.
const (
	risingRatio          = 1.5
	fallingRatio         = 0.5
	ratioWithoutLastWeek = 2.0
	risingWeight         = 15.0
	risingCap            = 20
	fallingWeight        = 10.0
	fallingCap           = 15
)

// Severity escalation factor.
const (
	escalationWindow    = 10
	escalationMinEvents = 3
	escalationMinDiff   = 0.3
	escalationWeight    = 12.0
)

// Confirmed trigger factor.
const (
	triggerLookback = 3 * 24 * time.Hour
	triggerWeight   = 8.0
	triggerCap      = 25
)

// Active ADR signal factor.
const (
	adrWeight = 10
	adrCap    = 25
)

// Environmental correlation factor.
const (
	envMinConfidence = 0.4
	envWeight        = 5
	envCap           = 15
)

// Polypharmacy factor.
const (
	polypharmacyMin    = 3
	polypharmacyWeight = 5
	polypharmacyCap    = 15
)

// Adherence is measured over the last adherenceDays calendar days.
const (
	adherenceDays   = 7
	adherentMinDays = 6
	adherenceBonus  = 10
)
