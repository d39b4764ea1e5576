package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flaretrack/flaretrack/internal/domain/events"
	"github.com/flaretrack/flaretrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PGStore reads the medication_dose, flare_event, trigger_discovery and
// user_profile tables.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *PGStore) ListDoses(ctx context.Context, userID uuid.UUID) ([]events.RawDose, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT COALESCE(medication_name, ''), taken_at
		 FROM medication_dose
		 WHERE user_id = $1
		 ORDER BY taken_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list doses: %w", err)
	}
	defer rows.Close()

	var doses []events.RawDose
	for rows.Next() {
		var name string
		var takenAt *time.Time
		if err := rows.Scan(&name, &takenAt); err != nil {
			return nil, fmt.Errorf("scan dose: %w", err)
		}
		doses = append(doses, events.RawDose{MedicationName: name, TakenAt: events.AtPtr(takenAt)})
	}
	return doses, rows.Err()
}

func (s *PGStore) ListOutcomes(ctx context.Context, userID uuid.UUID) ([]events.RawOutcome, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT occurred_at, severity, COALESCE(symptoms, '{}'), COALESCE(triggers, '{}'),
		        environmental, physiological
		 FROM flare_event
		 WHERE user_id = $1
		 ORDER BY occurred_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []events.RawOutcome
	for rows.Next() {
		var (
			occurredAt    *time.Time
			severity      *string
			o             events.RawOutcome
			environmental []byte
			physiological []byte
		)
		if err := rows.Scan(&occurredAt, &severity, &o.Symptoms, &o.Triggers, &environmental, &physiological); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Timestamp = events.AtPtr(occurredAt)
		o.Severity = events.SeverityTextPtr(severity)
		o.Environmental = decodeReading[events.RawEnvironmental](environmental)
		o.Physiological = decodeReading[events.RawPhysiological](physiological)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// decodeReading unmarshals a jsonb reading column. NULL or malformed JSON
// yields nil so the rest of the flare is still used.
func decodeReading[T any](raw []byte) *T {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func (s *PGStore) ListConfirmedDiscoveries(ctx context.Context, userID uuid.UUID) ([]events.RawDiscovery, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT COALESCE(factor, ''), COALESCE(outcome, ''), lift, confidence,
		        COALESCE(direction, ''), COALESCE(status, '')
		 FROM trigger_discovery
		 WHERE user_id = $1 AND status = 'confirmed'
		 ORDER BY factor, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list discoveries: %w", err)
	}
	defer rows.Close()

	var discoveries []events.RawDiscovery
	for rows.Next() {
		var d events.RawDiscovery
		var lift, confidence *float64
		if err := rows.Scan(&d.Factor, &d.Outcome, &lift, &confidence, &d.Direction, &d.Status); err != nil {
			return nil, fmt.Errorf("scan discovery: %w", err)
		}
		d.Lift = events.NumPtr(lift)
		d.Confidence = events.NumPtr(confidence)
		discoveries = append(discoveries, d)
	}
	return discoveries, rows.Err()
}

func (s *PGStore) GetProfile(ctx context.Context, userID uuid.UUID) (*events.RawProfile, error) {
	var (
		p           events.RawProfile
		dateOfBirth *time.Time
		sex         *string
		weight      *float64
		height      *float64
	)
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT date_of_birth, biological_sex, weight_kg, height_cm
		 FROM user_profile WHERE user_id = $1`, userID).
		Scan(&dateOfBirth, &sex, &weight, &height)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.DateOfBirth = events.AtPtr(dateOfBirth)
	if sex != nil {
		p.BiologicalSex = *sex
	}
	p.WeightKg = events.NumPtr(weight)
	p.HeightCm = events.NumPtr(height)
	return &p, nil
}
