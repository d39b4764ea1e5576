package terminology

import (
	"context"
	"fmt"
)

// Service provides MedDRA search and code lookup.
type Service struct {
	meddra MedDRARepository
}

// NewService creates a new terminology service.
func NewService(meddra MedDRARepository) *Service {
	return &Service{meddra: meddra}
}

// SearchMedDRA searches terms by symptom, preferred term or exact code.
func (s *Service) SearchMedDRA(ctx context.Context, query string, limit int) ([]*MedDRATerm, error) {
	if query == "" {
		return nil, fmt.Errorf("query parameter is required")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.meddra.Search(ctx, query, limit)
}

// LookupMedDRA returns every symptom mapped to a code.
func (s *Service) LookupMedDRA(ctx context.Context, code string) ([]*MedDRATerm, error) {
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	return s.meddra.GetByCode(ctx, code)
}
