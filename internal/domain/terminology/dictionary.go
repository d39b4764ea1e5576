package terminology

import (
	"context"
	"fmt"
)

// Dictionary is a read-only symptom lookup keyed by lower-cased symptom.
// It is safe for concurrent use once built.
type Dictionary struct {
	terms map[string]MedDRATerm
}

// NewDictionary indexes terms by SymptomKey. Later entries for the same
// symptom are ignored.
func NewDictionary(terms []*MedDRATerm) *Dictionary {
	d := &Dictionary{terms: make(map[string]MedDRATerm, len(terms))}
	for _, t := range terms {
		if t == nil {
			continue
		}
		k := SymptomKey(t.Symptom)
		if k == "" || t.Code == "" {
			continue
		}
		if _, ok := d.terms[k]; !ok {
			d.terms[k] = *t
		}
	}
	return d
}

// LoadDictionary builds a Dictionary from everything the repository holds.
func LoadDictionary(ctx context.Context, repo MedDRARepository) (*Dictionary, error) {
	terms, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load meddra dictionary: %w", err)
	}
	return NewDictionary(terms), nil
}

// Lookup returns the MedDRA code and preferred term for a symptom.
func (d *Dictionary) Lookup(symptom string) (code, term string, ok bool) {
	if d == nil {
		return "", "", false
	}
	t, ok := d.terms[SymptomKey(symptom)]
	return t.Code, t.Term, ok
}

// Len returns the number of indexed symptoms.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.terms)
}
