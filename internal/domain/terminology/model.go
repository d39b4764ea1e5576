package terminology

import "strings"

// SystemMedDRA is the code system URI for MedDRA preferred terms.
const SystemMedDRA = "https://www.meddra.org"

// MedDRATerm maps one free-text symptom to a MedDRA preferred term. Several
// symptoms may share a code.
type MedDRATerm struct {
	Symptom   string `db:"symptom" json:"symptom"`
	Code      string `db:"code" json:"code"`
	Term      string `db:"term" json:"term"`
	SystemURI string `db:"system_uri" json:"system_uri"`
}

// SymptomKey is the dictionary key for a free-text symptom.
func SymptomKey(symptom string) string {
	return strings.ToLower(strings.TrimSpace(symptom))
}
