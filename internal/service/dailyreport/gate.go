// Package dailyreport resolves date-scoped daily report lookups. Vague or
// missing dates never pick a report silently: the caller gets the most
// recent report dates to choose from instead.
package dailyreport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/model"
	"github.com/oilfield-ai/drillquery/internal/resolve"
	"github.com/oilfield-ai/drillquery/internal/storage"
	"github.com/oilfield-ai/drillquery/internal/telemetry"
)

// Store is the subset of storage.Store the gate reads from.
type Store interface {
	GetWell(ctx context.Context, id string) (model.Well, error)
	RecentReports(ctx context.Context, wellID string, limit int) ([]model.DailyReport, error)
	GetReport(ctx context.Context, wellID string, date time.Time) (model.DailyReport, error)
}

// Defaults for Options.
const (
	DefaultCacheTTL   = 60 * time.Second
	DefaultCandidates = 5
)

// fetchTimeout bounds a shared report fetch, which outlives the context of
// the caller that started it.
const fetchTimeout = 30 * time.Second

// Options tunes a Gate. Zero values take the defaults.
type Options struct {
	CacheTTL   time.Duration
	Candidates int
	Now        func() time.Time
}

// Gate resolves daily report requests for one store and policy.
type Gate struct {
	store      Store
	policy     *authz.Policy
	logger     *slog.Logger
	cache      *cache.Cache
	flight     singleflight.Group
	candidates int
	now        func() time.Time
}

// New builds a Gate.
func New(store Store, policy *authz.Policy, logger *slog.Logger, opts Options) *Gate {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Candidates <= 0 {
		opts.Candidates = DefaultCandidates
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gate{
		store:      store,
		policy:     policy,
		logger:     logger,
		cache:      cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		candidates: opts.Candidates,
		now:        opts.Now,
	}
}

// Resolve looks up the daily report for rawWell on rawDate on behalf of
// caller. Permission, ambiguity, format and not-found outcomes are results,
// not errors; an error means the store failed.
func (g *Gate) Resolve(ctx context.Context, caller model.Caller, rawWell, rawDate string) (Result, error) {
	ctx, span := telemetry.Tracer("drillquery/dailyreport").Start(ctx, "dailyreport.Resolve")
	defer span.End()

	wellID := resolve.NormalizeWellID(rawWell)
	state := Classify(rawDate)
	span.SetAttributes(
		attribute.String("drillquery.well_id", wellID),
		attribute.String("drillquery.date_state", state.String()),
	)

	res := Result{WellID: wellID, State: state, Input: strings.TrimSpace(rawDate)}
	if wellID == "" {
		res.Kind = KindNotFound
		res.Message = "No well was specified."
		return res, nil
	}

	_, denial, err := g.policy.AuthorizeWell(ctx, g.store, caller, wellID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			res.Kind = KindNotFound
			res.Message = fmt.Sprintf("Well %s does not exist.", wellID)
			return res, nil
		}
		return Result{}, fmt.Errorf("dailyreport: authorize %s: %w", wellID, err)
	}
	if denial != nil {
		res.Kind = KindDenied
		res.Denial = denial
		res.Message = denial.Message()
		return res, nil
	}

	switch state {
	case StateNoDateGiven, StateAmbiguousWord:
		return g.disambiguate(ctx, res)
	}
	return g.lookup(ctx, caller, res)
}

func (g *Gate) disambiguate(ctx context.Context, res Result) (Result, error) {
	recent, err := g.store.RecentReports(ctx, res.WellID, g.candidates)
	if err != nil {
		return Result{}, fmt.Errorf("dailyreport: recent reports for %s: %w", res.WellID, err)
	}
	if len(recent) == 0 {
		res.Kind = KindNotFound
		res.Message = fmt.Sprintf("Well %s has no daily reports.", res.WellID)
		return res, nil
	}

	res.Kind = KindDisambiguation
	res.Candidates = make([]Candidate, len(recent))
	dates := make([]string, len(recent))
	for i, r := range recent {
		res.Candidates[i] = Candidate{
			Date:         r.DateString(),
			ReportNo:     r.ReportNo,
			CurrentDepth: r.CurrentDepth,
			Progress:     r.Progress,
			Summary:      r.OperationSummary,
		}
		dates[i] = r.DateString()
	}
	if res.State == StateNoDateGiven {
		res.Message = fmt.Sprintf("No date was given for %s. Recent reports exist for %s. Which date do you want?",
			res.WellID, strings.Join(dates, ", "))
	} else {
		res.Message = fmt.Sprintf("%q does not name a single day. Recent reports for %s: %s. Which date do you want?",
			res.Input, res.WellID, strings.Join(dates, ", "))
	}
	return res, nil
}

func (g *Gate) lookup(ctx context.Context, caller model.Caller, res Result) (Result, error) {
	normalized := resolve.NormalizeDateAt(res.Input, g.now())
	day, err := resolve.ParseStrict(normalized)
	if err != nil {
		res.State = StateRejected
		res.Kind = KindFormatError
		res.Date = normalized
		res.Message = fmt.Sprintf("Date %q is not a valid YYYY-MM-DD date.", res.Input)
		return res, nil
	}
	res.State = StateResolved
	res.Date = normalized

	resolvedRole, _ := g.policy.Entry(caller.Role)
	key := cacheKey(res.WellID, normalized, string(resolvedRole), caller.UserID)
	if v, ok := g.cache.Get(key); ok {
		hit := v.(Result)
		hit.Cached = true
		hit.Input = res.Input
		return hit, nil
	}

	// Every caller collapsed onto this key shares one fetch. It runs without
	// the first caller's cancellation; each caller still stops waiting when
	// its own context ends.
	ch := g.flight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		report, err := g.store.GetReport(fetchCtx, res.WellID, day)
		if errors.Is(err, storage.ErrNotFound) {
			out := res
			out.Kind = KindNotFound
			out.Message = fmt.Sprintf("No daily report for %s on %s.", res.WellID, normalized)
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("dailyreport: get report %s %s: %w", res.WellID, normalized, err)
		}
		out := res
		out.Kind = KindReport
		out.Report = &report
		out.Message = fmt.Sprintf("Daily report #%d for %s on %s.", report.ReportNo, res.WellID, normalized)
		g.cache.SetDefault(key, out)
		return out, nil
	})
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("dailyreport: get report %s %s: %w", res.WellID, normalized, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		out := r.Val.(Result)
		out.Input = res.Input
		return out, nil
	}
}

// cacheKey scopes cached reports to one caller identity.
func cacheKey(wellID, date, role, userID string) string {
	return wellID + "|" + date + "|" + role + "|" + userID
}

// Flush drops every cached report.
func (g *Gate) Flush() { g.cache.Flush() }
