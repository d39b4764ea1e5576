package terminology

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// builtinTerms covers the symptoms most often logged against medications.
var builtinTerms = []MedDRATerm{
	{Symptom: "headache", Code: "10019211", Term: "Headache"},
	{Symptom: "migraine", Code: "10027599", Term: "Migraine"},
	{Symptom: "nausea", Code: "10028813", Term: "Nausea"},
	{Symptom: "vomiting", Code: "10047700", Term: "Vomiting"},
	{Symptom: "dizziness", Code: "10013573", Term: "Dizziness"},
	{Symptom: "fatigue", Code: "10016256", Term: "Fatigue"},
	{Symptom: "tiredness", Code: "10016256", Term: "Fatigue"},
	{Symptom: "rash", Code: "10037844", Term: "Rash"},
	{Symptom: "insomnia", Code: "10022437", Term: "Insomnia"},
	{Symptom: "diarrhea", Code: "10012735", Term: "Diarrhoea"},
	{Symptom: "diarrhoea", Code: "10012735", Term: "Diarrhoea"},
	{Symptom: "abdominal pain", Code: "10000081", Term: "Abdominal pain"},
	{Symptom: "stomach pain", Code: "10000081", Term: "Abdominal pain"},
	{Symptom: "joint pain", Code: "10003239", Term: "Arthralgia"},
	{Symptom: "arthralgia", Code: "10003239", Term: "Arthralgia"},
	{Symptom: "muscle pain", Code: "10028411", Term: "Myalgia"},
	{Symptom: "anxiety", Code: "10002855", Term: "Anxiety"},
	{Symptom: "palpitations", Code: "10033557", Term: "Palpitations"},
	{Symptom: "itching", Code: "10037087", Term: "Pruritus"},
	{Symptom: "pruritus", Code: "10037087", Term: "Pruritus"},
	{Symptom: "constipation", Code: "10010774", Term: "Constipation"},
	{Symptom: "dry mouth", Code: "10013781", Term: "Dry mouth"},
	{Symptom: "brain fog", Code: "10057668", Term: "Cognitive disorder"},
	{Symptom: "swelling", Code: "10042674", Term: "Swelling"},
}

type builtinRepo struct {
	terms []*MedDRATerm
}

// NewBuiltinRepo serves the compiled-in term table.
func NewBuiltinRepo() MedDRARepository {
	terms := make([]*MedDRATerm, 0, len(builtinTerms))
	for i := range builtinTerms {
		t := builtinTerms[i]
		t.SystemURI = SystemMedDRA
		terms = append(terms, &t)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Symptom < terms[j].Symptom })
	return &builtinRepo{terms: terms}
}

func (r *builtinRepo) List(_ context.Context) ([]*MedDRATerm, error) {
	return r.terms, nil
}

func (r *builtinRepo) Search(_ context.Context, query string, limit int) ([]*MedDRATerm, error) {
	q := strings.ToLower(query)
	var results []*MedDRATerm
	for _, t := range r.terms {
		if strings.Contains(t.Symptom, q) || strings.Contains(strings.ToLower(t.Term), q) || t.Code == query {
			results = append(results, t)
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

func (r *builtinRepo) GetByCode(_ context.Context, code string) ([]*MedDRATerm, error) {
	var results []*MedDRATerm
	for _, t := range r.terms {
		if t.Code == code {
			results = append(results, t)
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return results, nil
}
