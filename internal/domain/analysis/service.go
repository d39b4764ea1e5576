package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/flaretrack/flaretrack/internal/domain/adr"
	"github.com/flaretrack/flaretrack/internal/domain/events"
	"github.com/flaretrack/flaretrack/internal/platform/metrics"
)

// ErrFetch wraps any failure reading a user's records. No report is
// computed when it is returned.
var ErrFetch = errors.New("fetch user records")

// Service fetches a user's records and runs the engine over them.
type Service struct {
	store   Store
	coder   adr.SymptomCoder
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCoder attaches MedDRA codes to emitted signals.
func WithCoder(c adr.SymptomCoder) Option {
	return func(s *Service) { s.coder = c }
}

// WithMetrics records runs on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the run logger. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report fetches the user's doses, flares, confirmed discoveries and
// profile concurrently, then computes the report. Any fetch failure aborts
// the run with an error wrapping ErrFetch.
func (s *Service) Report(ctx context.Context, userID uuid.UUID, now time.Time) (*Report, error) {
	start := time.Now()

	raw, err := s.fetch(ctx, userID)
	if err != nil {
		outcome := metrics.OutcomeFetchError
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCanceled
		}
		s.metrics.ObserveRun(outcome, time.Since(start))
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("analysis fetch failed")
		return nil, err
	}

	report := s.run(userID, raw, now, start)
	return &report, nil
}

// Analyze runs the engine over a caller-supplied snapshot without touching
// the store.
func (s *Service) Analyze(userID uuid.UUID, raw events.RawSnapshot, now time.Time) *Report {
	report := s.run(userID, raw, now, time.Now())
	return &report
}

func (s *Service) fetch(ctx context.Context, userID uuid.UUID) (events.RawSnapshot, error) {
	var raw events.RawSnapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		doses, err := s.store.ListDoses(gctx, userID)
		if err != nil {
			return fmt.Errorf("%w: doses: %w", ErrFetch, err)
		}
		raw.Doses = doses
		return nil
	})
	g.Go(func() error {
		outcomes, err := s.store.ListOutcomes(gctx, userID)
		if err != nil {
			return fmt.Errorf("%w: outcomes: %w", ErrFetch, err)
		}
		raw.Outcomes = outcomes
		return nil
	})
	g.Go(func() error {
		discoveries, err := s.store.ListConfirmedDiscoveries(gctx, userID)
		if err != nil {
			return fmt.Errorf("%w: discoveries: %w", ErrFetch, err)
		}
		raw.Discoveries = discoveries
		return nil
	})
	g.Go(func() error {
		profile, err := s.store.GetProfile(gctx, userID)
		if err != nil {
			return fmt.Errorf("%w: profile: %w", ErrFetch, err)
		}
		raw.Profile = profile
		return nil
	})

	if err := g.Wait(); err != nil {
		return events.RawSnapshot{}, err
	}
	return raw, nil
}

func (s *Service) run(userID uuid.UUID, raw events.RawSnapshot, now time.Time, start time.Time) Report {
	snap, stats := events.Ingest(raw)
	report := Compute(Input{
		UserID:    userID,
		Now:       now,
		Snapshot:  snap,
		Ingestion: stats,
		Coder:     s.coder,
	})
	elapsed := time.Since(start)

	s.metrics.ObserveRun(metrics.OutcomeOK, elapsed)
	s.metrics.AddDropped("dose", stats.DosesDropped)
	s.metrics.AddDropped("outcome", stats.OutcomesDropped)
	s.metrics.AddDropped("discovery", stats.DiscoveriesDropped)
	levels := make(map[adr.RiskLevel]int)
	for _, sig := range report.ADRSignals {
		levels[sig.RiskLevel]++
	}
	for _, level := range []adr.RiskLevel{adr.RiskCritical, adr.RiskHigh, adr.RiskModerate, adr.RiskLow} {
		s.metrics.AddSignals(string(level), levels[level])
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("doses", stats.DosesKept).
		Int("outcomes", stats.OutcomesKept).
		Int("discoveries", stats.DiscoveriesKept).
		Int("dropped", stats.Dropped()).
		Int("signals", len(report.ADRSignals)).
		Int("risk_score", report.Summary.RiskScore).
		Dur("duration", elapsed).
		Msg("analysis complete")

	return report
}
