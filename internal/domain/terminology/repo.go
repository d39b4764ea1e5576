package terminology

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no term carries the requested code.
var ErrNotFound = errors.New("meddra term not found")

// MedDRARepository provides access to the symptom-to-MedDRA mapping table.
type MedDRARepository interface {
	List(ctx context.Context) ([]*MedDRATerm, error)
	Search(ctx context.Context, query string, limit int) ([]*MedDRATerm, error)
	GetByCode(ctx context.Context, code string) ([]*MedDRATerm, error)
}
