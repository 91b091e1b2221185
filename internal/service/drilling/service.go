// Package drilling implements the read operations behind the MCP query
// tools. Every operation takes the caller explicitly, normalizes loose
// input through package resolve and authorizes through package authz
// before touching the store.
package drilling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/resolve"
	"github.com/oilfield-ai/drillquery/internal/storage"
	"github.com/oilfield-ai/drillquery/internal/telemetry"
)

// RefusalKind classifies why an operation produced no data.
type RefusalKind string

const (
	RefusalDenied   RefusalKind = "permission_denied"
	RefusalNotFound RefusalKind = "not_found"
	RefusalInvalid  RefusalKind = "invalid_input"
)

// Refusal is a user-facing explanation for an empty answer. It is returned
// alongside a zero result; a non-nil error is reserved for store failures.
type Refusal struct {
	Kind    RefusalKind   `json:"kind"`
	Message string        `json:"message"`
	Denial  *authz.Denial `json:"denial,omitempty"`
}

func denied(d *authz.Denial) *Refusal {
	return &Refusal{Kind: RefusalDenied, Message: d.Message(), Denial: d}
}

func notFound(format string, args ...any) *Refusal {
	return &Refusal{Kind: RefusalNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Refusal {
	return &Refusal{Kind: RefusalInvalid, Message: fmt.Sprintf(format, args...)}
}

// Options tunes a Service.
type Options struct {
	Now func() time.Time
	// MaxCompareWells caps multi-well comparisons. Zero means 10.
	MaxCompareWells int
}

// Service answers drilling queries for one store and policy.
type Service struct {
	store      storage.Store
	policy     *authz.Policy
	logger     *slog.Logger
	now        func() time.Time
	maxCompare int

	fetchDuration metric.Float64Histogram
}

// New creates a Service.
func New(store storage.Store, policy *authz.Policy, logger *slog.Logger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxCompareWells <= 0 {
		opts.MaxCompareWells = 10
	}
	fetchDur, _ := telemetry.Meter("drillquery/drilling").Float64Histogram("drillquery.store.fetch.duration",
		metric.WithDescription("Time spent reading from the store per operation (ms)"),
		metric.WithUnit("ms"),
	)
	return &Service{
		store:         store,
		policy:        policy,
		logger:        logger,
		now:           opts.Now,
		maxCompare:    opts.MaxCompareWells,
		fetchDuration: fetchDur,
	}
}

// Policy returns the policy the service authorizes with.
func (s *Service) Policy() *authz.Policy { return s.policy }

// CheckWellAccess reports whether caller may read wellID, consulting both
// the role table and record ownership. A missing well is a NotFound
// refusal, distinct from a denial.
func (s *Service) CheckWellAccess(ctx context.Context, caller model.Caller, rawWell string) (model.Well, *Refusal, error) {
	id := resolve.NormalizeWellID(rawWell)
	if id == "" {
		return model.Well{}, invalid("A well id is required."), nil
	}
	start := time.Now()
	w, d, err := s.policy.AuthorizeWell(ctx, s.store, caller, id)
	s.observe(ctx, "authorize_well", start)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Well{}, notFound("Well %s does not exist.", id), nil
	}
	if err != nil {
		return model.Well{}, nil, fmt.Errorf("drilling: authorize %s: %w", id, err)
	}
	if d != nil {
		return model.Well{}, denied(d), nil
	}
	return w, nil, nil
}

// authorizeAll normalizes and authorizes a list of wells concurrently. Any
// denied well refuses the whole request, naming every denied well; missing
// wells are reported the same way.
func (s *Service) authorizeAll(ctx context.Context, caller model.Caller, raw []string) ([]model.Well, *Refusal, error) {
	ids := resolve.NormalizeWellIDs(raw)
	if len(ids) == 0 {
		return nil, invalid("At least one well id is required."), nil
	}
	if len(ids) > s.maxCompare {
		return nil, invalid("At most %d wells can be compared at once, got %d.", s.maxCompare, len(ids)), nil
	}

	wells := make([]model.Well, len(ids))
	refusals := make([]*Refusal, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			w, r, err := s.CheckWellAccess(gctx, caller, id)
			wells[i], refusals[i] = w, r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var deniedIDs, missingIDs []string
	for i, r := range refusals {
		switch {
		case r == nil:
		case r.Kind == RefusalDenied:
			deniedIDs = append(deniedIDs, ids[i])
		default:
			missingIDs = append(missingIDs, ids[i])
		}
	}
	if len(deniedIDs) > 0 {
		return nil, denied(authz.DenyWells(caller.Role, deniedIDs...)), nil
	}
	if len(missingIDs) > 0 {
		return nil, notFound("Wells not found: %s.", strings.Join(missingIDs, ", ")), nil
	}
	return wells, nil, nil
}

// resolveRange turns the loose start/end pair into a validated window.
// With an empty end, start is read as a period ("本月", "last week").
func (s *Service) resolveRange(rawStart, rawEnd string) (time.Time, time.Time, *Refusal) {
	now := s.now()
	var start, end string
	if strings.TrimSpace(rawEnd) == "" {
		start, end = resolve.ParseDateRangeAt(rawStart, now)
	} else {
		start, end = resolve.NormalizeDateAt(rawStart, now), resolve.NormalizeDateAt(rawEnd, now)
	}
	from, err := resolve.ParseStrict(start)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("Start date %q is not a valid YYYY-MM-DD date.", start)
	}
	to, err := resolve.ParseStrict(end)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("End date %q is not a valid YYYY-MM-DD date.", end)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalid("Start date %s is after end date %s.", start, end)
	}
	return from, to, nil
}

func (s *Service) observe(ctx context.Context, op string, start time.Time) {
	if s.fetchDuration == nil {
		return
	}
	s.fetchDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000,
		metric.WithAttributes(attribute.String("op", op)))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
