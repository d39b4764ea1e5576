package analysis

import (
	"context"

	"github.com/google/uuid"

	"github.com/flaretrack/flaretrack/internal/domain/events"
)

// Store reads one user's raw records. Records come back unvalidated; the
// ingestion adapter drops what it cannot use. A user without a profile yields
// a nil profile and no error.
type Store interface {
	ListDoses(ctx context.Context, userID uuid.UUID) ([]events.RawDose, error)
	ListOutcomes(ctx context.Context, userID uuid.UUID) ([]events.RawOutcome, error)
	ListConfirmedDiscoveries(ctx context.Context, userID uuid.UUID) ([]events.RawDiscovery, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*events.RawProfile, error)
}
