package resolver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/deskd/deskd/internal/infrastructure/logging"
	"github.com/deskd/deskd/internal/infrastructure/monitoring"
)

// Resolver locates applications by name and controls their lifecycle.
type Resolver interface {
	// Resolve turns a name into a launchable target. It returns a
	// NotFoundError when no probe or cache entry yields one; the raw-name
	// fallback is reserved for Open.
	Resolve(ctx context.Context, name string) (ResolvedExecutable, error)
	// Open resolves and launches the application, falling back to handing
	// the raw name to the OS's own execution mechanism as a last resort.
	Open(ctx context.Context, name string) error
	// Close gracefully terminates matching processes, escalating to a
	// forced kill after the grace period. Idempotent.
	Close(ctx context.Context, name string) error
	// Status reports whether any matching process is running.
	Status(ctx context.Context, name string) (Status, error)
	// List snapshots all running processes.
	List(ctx context.Context) ([]AppInfo, error)
	// CacheSnapshot copies the resolution cache for diagnostics.
	CacheSnapshot() map[string]ResolvedExecutable
}

// platform supplies the OS-specific probe chains and launch mechanics to
// the shared engine.
type platform interface {
	name() string
	quickProbes() []Probe
	detailedProbes() []Probe
	populationProbes() []PopulationProbe
	launch(ctx context.Context, target ResolvedExecutable) error
	launchFallback(ctx context.Context, raw string) error
}

// Options configures a resolver built by New.
type Options struct {
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	// ExtraRoots are additional installation roots for filesystem probes.
	ExtraRoots []string
	// ExtraDenyTokens extend the selector's helper-binary denylist.
	ExtraDenyTokens []string
}

const (
	phaseQuick    = "quick"
	phaseDetailed = "detailed"
)

// engine runs the shared resolution state machine
// (QuickSearch → CacheCheck → DetailedSearch → Fallback) over a platform's
// probe chains. One engine exists per process; it exclusively owns its
// resolution cache.
type engine struct {
	platform platform
	cache    *resolutionCache
	procs    *processController
	deny     []string
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

func newEngine(p platform, opts Options) *engine {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &engine{
		platform: p,
		cache:    newResolutionCache(cacheValidity),
		procs:    newProcessController(log.Named("process"), opts.Metrics),
		deny:     append(DefaultDenyTokens(), opts.ExtraDenyTokens...),
		log:      log.Named(p.name()),
		metrics:  opts.Metrics,
	}
}

func (e *engine) Resolve(ctx context.Context, name string) (ResolvedExecutable, error) {
	start := time.Now()
	target, err := e.resolve(ctx, name)
	e.recordResolve(err, time.Since(start))
	return target, err
}

func (e *engine) resolve(ctx context.Context, name string) (ResolvedExecutable, error) {
	key := NormalizeName(name)
	if key == "" {
		return ResolvedExecutable{}, &NotFoundError{Name: name}
	}

	// QuickSearch: cheap probes, first non-empty candidate set wins.
	if target, ok := e.runQuick(ctx, key); ok {
		return target, nil
	}
	if err := ctx.Err(); err != nil {
		return ResolvedExecutable{}, err
	}

	// CacheCheck: refresh the shared table if stale, then look up.
	e.cache.ensureFresh(ctx, e.populate)
	if target, ok := e.cache.lookup(key); ok {
		e.log.Debug("cache hit", zap.String("name", key), zap.String("path", target.Path))
		if e.metrics != nil {
			e.metrics.CacheHits.Inc()
		}
		return target, nil
	}
	if e.metrics != nil {
		e.metrics.CacheMisses.Inc()
	}
	if err := ctx.Err(); err != nil {
		return ResolvedExecutable{}, err
	}

	// DetailedSearch: expensive probes, aggregating candidates until a
	// selection is possible.
	if target, ok := e.runDetailed(ctx, key); ok {
		// Memoize so repeat queries skip the detailed phase until the
		// next whole-table rebuild.
		e.cache.store(key, target)
		if e.metrics != nil {
			e.metrics.CacheEntries.Set(float64(e.cache.len()))
		}
		return target, nil
	}
	if err := ctx.Err(); err != nil {
		return ResolvedExecutable{}, err
	}

	return ResolvedExecutable{}, &NotFoundError{Name: name}
}

// runQuick short-circuits on the first probe that yields candidates.
func (e *engine) runQuick(ctx context.Context, name string) (ResolvedExecutable, bool) {
	for _, probe := range e.platform.quickProbes() {
		if ctx.Err() != nil {
			return ResolvedExecutable{}, false
		}
		candidates := e.runProbe(ctx, probe, name, phaseQuick)
		if len(candidates) == 0 {
			continue
		}
		if best, ok := SelectBest(name, candidates, e.deny); ok {
			e.log.Debug("quick search hit",
				zap.String("name", name),
				zap.String("probe", probe.Name),
				zap.String("path", best.Path))
			return best.resolved(probe.Name), true
		}
	}
	return ResolvedExecutable{}, false
}

// runDetailed aggregates candidates across probes. A candidate whose base
// name matches the query ends the search immediately; otherwise selection
// happens over everything collected once the chain is exhausted.
func (e *engine) runDetailed(ctx context.Context, name string) (ResolvedExecutable, bool) {
	var aggregate []Candidate
	origin := ""

	for _, probe := range e.platform.detailedProbes() {
		if ctx.Err() != nil {
			break
		}
		candidates := e.runProbe(ctx, probe, name, phaseDetailed)
		if len(candidates) == 0 {
			continue
		}
		if origin == "" {
			origin = probe.Name
		}
		aggregate = append(aggregate, candidates...)

		for _, c := range candidates {
			base := baseName(c.Path)
			if base == name || matchesName(base, name) {
				best, _ := SelectBest(name, aggregate, e.deny)
				e.log.Info("detailed search hit",
					zap.String("name", name),
					zap.String("probe", probe.Name),
					zap.String("path", best.Path))
				return best.resolved(probe.Name), true
			}
		}
	}

	if best, ok := SelectBest(name, aggregate, e.deny); ok {
		return best.resolved(origin), true
	}
	return ResolvedExecutable{}, false
}

func (e *engine) runProbe(ctx context.Context, probe Probe, name, phase string) []Candidate {
	candidates, err := probe.Run(ctx, name)
	if err != nil && !errors.Is(err, errAccessDenied) {
		// Probe errors never propagate; log and move on down the chain.
		e.log.Debug("probe error",
			zap.String("probe", probe.Name), zap.Error(err))
	}
	if e.metrics != nil {
		e.metrics.RecordProbe(probe.Name, phase, len(candidates) > 0)
	}
	return candidates
}

// populate rebuilds the cache table from the fixed population probe set.
// Later probes never overwrite entries from earlier ones, so the probe
// order doubles as a priority order.
func (e *engine) populate(ctx context.Context) map[string]ResolvedExecutable {
	table := make(map[string]ResolvedExecutable)
	for _, probe := range e.platform.populationProbes() {
		entries, err := probe.Run(ctx)
		if err != nil {
			e.log.Debug("population probe error",
				zap.String("probe", probe.Name), zap.Error(err))
			continue
		}
		for key, target := range entries {
			if _, exists := table[key]; !exists {
				table[key] = target
			}
		}
	}

	if e.metrics != nil {
		e.metrics.CacheRefreshes.Inc()
		e.metrics.CacheEntries.Set(float64(len(table)))
	}
	e.log.Info("resolution cache rebuilt", zap.Int("entries", len(table)))
	return table
}

func (e *engine) Open(ctx context.Context, name string) error {
	target, err := e.Resolve(ctx, name)
	if err == nil {
		if launchErr := e.platform.launch(ctx, target); launchErr != nil {
			e.recordLaunch("resolved", "error")
			return &LaunchFailedError{Target: target.String(), Err: launchErr}
		}
		e.recordLaunch("resolved", "ok")
		e.log.Info("launched", zap.String("name", name), zap.String("target", target.String()))
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	// Fallback: hand the raw, unmodified name to the OS's own execution
	// mechanism. Cancellation is honored before committing the attempt.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if fallbackErr := e.platform.launchFallback(ctx, name); fallbackErr != nil {
		e.recordLaunch("fallback", "error")
		e.log.Warn("fallback launch failed",
			zap.String("name", name), zap.Error(fallbackErr))
		return &NotFoundError{Name: name}
	}
	e.recordLaunch("fallback", "ok")
	e.log.Info("launched via fallback", zap.String("name", name))
	return nil
}

func (e *engine) Close(ctx context.Context, name string) error {
	return e.procs.close(ctx, NormalizeName(name))
}

func (e *engine) Status(ctx context.Context, name string) (Status, error) {
	return e.procs.status(ctx, NormalizeName(name))
}

func (e *engine) List(ctx context.Context) ([]AppInfo, error) {
	return e.procs.list(ctx)
}

func (e *engine) CacheSnapshot() map[string]ResolvedExecutable {
	return e.cache.snapshot()
}

func (e *engine) recordResolve(err error, duration time.Duration) {
	if e.metrics == nil {
		return
	}
	outcome := "found"
	if err != nil {
		outcome = "not_found"
	}
	e.metrics.RecordResolve(outcome, duration)
}

func (e *engine) recordLaunch(mode, status string) {
	if e.metrics != nil {
		e.metrics.RecordLaunch(mode, status)
	}
}
