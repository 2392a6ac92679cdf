// Package collector walks a search grid, queries every enabled provider at
// each point and folds the results into one deduplicated catalog, with
// periodic checkpoints so an interrupted run can resume.
package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/places-collector/internal/cost"
	"github.com/sells-group/places-collector/internal/dedup"
	"github.com/sells-group/places-collector/internal/grid"
	"github.com/sells-group/places-collector/internal/provider"
)

// DefaultCheckpointEvery is the number of points between checkpoints.
const DefaultCheckpointEvery = 10

// ErrInterrupted is returned when a run stops on cancellation after writing
// its final checkpoint.
var ErrInterrupted = eris.New("collector: run interrupted")

// Options configures a run.
type Options struct {
	Scope           grid.Scope
	Resume          bool
	DryRun          bool
	Queries         []string
	RadiusM         int
	CheckpointEvery int
	Threshold       float64
	OutputDir       string

	// Delays is the fixed pause between consecutive calls to a provider,
	// keyed by provider name.
	Delays map[string]time.Duration
}

// Summary reports the outcome of a run.
type Summary struct {
	State           State          `json:"state"`
	RunID           string         `json:"run_id,omitempty"`
	Scope           grid.Scope     `json:"scope"`
	TotalPoints     int            `json:"total_points"`
	StartIndex      int            `json:"start_index"`
	ProcessedPoints int            `json:"processed_points"`
	Entities        int            `json:"entities"`
	NewEntities     int            `json:"new_entities"`
	Errors          int            `json:"errors"`
	Stats           dedup.Stats    `json:"stats"`
	Coverage        grid.Coverage  `json:"coverage"`
	Estimate        *cost.Estimate `json:"estimate,omitempty"`
	ProgressPath    string         `json:"progress_path,omitempty"`
	EntitiesPath    string         `json:"entities_path,omitempty"`
	Disabled        []string       `json:"disabled_providers,omitempty"`
}

// Collector runs one collection. It is single-use and not safe for
// concurrent use.
type Collector struct {
	providers []provider.Provider
	opts      Options
	calc      *cost.Calculator
	ckpt      *Checkpoint
	dedup     *dedup.Deduplicator

	limiters map[string]*rate.Limiter
	disabled map[string]bool
	state    State
	progress Progress
	now      func() time.Time
	log      *zap.Logger
}

// New creates a Collector over providers, queried in the given order.
func New(providers []provider.Provider, opts Options, calc *cost.Calculator) *Collector {
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = DefaultCheckpointEvery
	}
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}

	limiters := make(map[string]*rate.Limiter, len(providers))
	for _, p := range providers {
		limit := rate.Inf
		if d := opts.Delays[p.Name()]; d > 0 {
			limit = rate.Every(d)
		}
		limiters[p.Name()] = rate.NewLimiter(limit, 1)
	}

	return &Collector{
		providers: providers,
		opts:      opts,
		calc:      calc,
		ckpt:      NewCheckpoint(opts.OutputDir),
		dedup:     dedup.New(opts.Threshold),
		limiters:  limiters,
		disabled:  make(map[string]bool),
		state:     StateNotStarted,
		now:       func() time.Time { return time.Now().UTC() },
		log:       zap.L().With(zap.String("component", "collector")),
	}
}

// State returns the current lifecycle state.
func (c *Collector) State() State { return c.state }

// Progress returns a copy of the in-memory progress record.
func (c *Collector) Progress() Progress { return c.progress }

// Deduplicator exposes the catalog built by the run.
func (c *Collector) Deduplicator() *dedup.Deduplicator { return c.dedup }

// Run executes the collection. On cancellation it writes a final checkpoint
// and returns the summary together with ErrInterrupted.
func (c *Collector) Run(ctx context.Context) (*Summary, error) {
	if c.state != StateNotStarted {
		return nil, eris.New("collector: run already started")
	}

	scope := c.opts.Scope
	var resumed *Progress
	if c.opts.Resume {
		p, err := c.ckpt.LoadProgress()
		if err != nil {
			return nil, err
		}
		scope = p.Scope
		resumed = &p
	}

	points, err := scope.Points()
	if err != nil {
		return nil, eris.Wrap(err, "collector: generate grid")
	}
	c.setState(StateGridGenerated)
	c.opts.Scope = scope

	radiusKM := float64(c.opts.RadiusM) / 1000
	summary := &Summary{
		Scope:       scope,
		TotalPoints: len(points),
		Coverage:    grid.EstimateCoverage(points, radiusKM),
	}
	c.log.Info("grid generated",
		zap.String("scope", scope.String()),
		zap.Int("points", len(points)),
		zap.Bool("resume", c.opts.Resume),
		zap.Float64("similarity_threshold", c.dedup.Threshold()),
	)

	if c.opts.DryRun {
		est := c.calc.Estimate(len(points), len(c.opts.Queries), c.providerNames())
		summary.Estimate = &est
		summary.State = c.state
		return summary, nil
	}

	if resumed != nil {
		if resumed.TotalPoints != len(points) {
			return nil, eris.Errorf("collector: checkpoint has %d points but scope %s generates %d",
				resumed.TotalPoints, scope, len(points))
		}
		snap, err := c.ckpt.LoadSnapshot()
		if err != nil {
			return nil, err
		}
		restored := c.dedup.Restore(snap.Entities)
		c.progress = *resumed
		c.log.Info("resuming run",
			zap.String("run_id", c.progress.RunID),
			zap.Int("current_index", c.progress.CurrentIndex),
			zap.Int("restored_entities", restored),
		)
	} else {
		now := c.now()
		c.progress = Progress{
			RunID:       uuid.NewString(),
			StartedAt:   now,
			LastUpdated: now,
			TotalPoints: len(points),
			Scope:       scope,
		}
	}

	summary.RunID = c.progress.RunID
	summary.StartIndex = c.progress.CurrentIndex
	summary.ProgressPath = c.ckpt.ProgressPath()
	summary.EntitiesPath = c.ckpt.EntitiesPath()

	if c.progress.Done() {
		c.log.Info("run already complete", zap.String("run_id", c.progress.RunID))
		c.setState(StateCompleted)
		c.fill(summary)
		return summary, nil
	}

	c.setState(StateRunning)
	interrupted := false
	for i := c.progress.CurrentIndex; i < len(points); i++ {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		added, errs, ok := c.processPoint(ctx, i, points[i])
		summary.NewEntities += added
		c.progress.Errors += errs
		summary.Errors += errs
		if !ok {
			interrupted = true
			break
		}

		c.progress.CurrentIndex = i + 1
		c.progress.CompletedPoints = i + 1
		c.progress.EntitiesFound = c.dedup.Len()
		c.progress.LastUpdated = c.now()
		summary.ProcessedPoints++

		if (i+1)%c.opts.CheckpointEvery == 0 && i+1 < len(points) {
			if err := c.checkpoint(); err != nil {
				return nil, err
			}
			c.setState(StateCheckpointed)
			c.setState(StateRunning)
		}
	}

	if err := c.checkpoint(); err != nil {
		return nil, err
	}

	if interrupted {
		c.setState(StateInterrupted)
		c.fill(summary)
		c.log.Warn("run interrupted",
			zap.Int("current_index", c.progress.CurrentIndex),
			zap.Int("total_points", c.progress.TotalPoints),
			zap.Int("entities", c.progress.EntitiesFound),
		)
		return summary, ErrInterrupted
	}

	c.setState(StateCompleted)
	c.fill(summary)
	c.log.Info("collection complete",
		zap.Int("points", summary.ProcessedPoints),
		zap.Int("entities", summary.Entities),
		zap.Int("new_entities", summary.NewEntities),
		zap.Int("errors", summary.Errors),
		zap.Int("multi_source", summary.Stats.MultiSource),
	)
	return summary, nil
}

// processPoint queries every enabled provider for every query term at one
// point. ok is false when ctx is canceled before the point finishes; the
// point is then left for the next run.
func (c *Collector) processPoint(ctx context.Context, idx int, pt grid.Point) (added, errs int, ok bool) {
	center := provider.LatLng{Lat: pt.Lat, Lon: pt.Lon}
	log := c.log.With(zap.Int("point", idx), zap.String("region", pt.Region))
	log.Info("processing point",
		zap.Float64("lat", pt.Lat),
		zap.Float64("lon", pt.Lon),
		zap.Int("total", c.progress.TotalPoints),
	)

	for _, q := range c.opts.Queries {
		for _, p := range c.providers {
			name := p.Name()
			if c.disabled[name] {
				continue
			}
			if err := c.limiters[name].Wait(ctx); err != nil {
				return added, errs, false
			}

			raws, err := p.Search(ctx, q, center, c.opts.RadiusM)
			if err != nil {
				if ctx.Err() != nil {
					return added, errs, false
				}
				errs++
				if eris.Is(err, provider.ErrMissingCredential) {
					c.disabled[name] = true
					log.Error("provider disabled for remainder of run",
						zap.String("provider", name), zap.Error(err))
					continue
				}
				log.Warn("provider search failed",
					zap.String("provider", name), zap.String("query", q), zap.Error(err))
				continue
			}

			for _, raw := range raws {
				rec, err := p.Normalize(raw)
				if err != nil {
					errs++
					log.Warn("record dropped",
						zap.String("provider", name), zap.String("query", q), zap.Error(err))
					continue
				}
				id, isNew := c.dedup.Add(rec)
				if isNew {
					added++
					continue
				}
				if ce := log.Check(zap.DebugLevel, "sighting merged"); ce != nil {
					e, _ := c.dedup.Get(id)
					ce.Write(zap.String("entity", id), zap.String("provider", name), zap.Strings("sources", e.Sources))
				}
			}
		}
	}
	return added, errs, true
}

func (c *Collector) checkpoint() error {
	c.progress.EntitiesFound = c.dedup.Len()
	c.progress.LastUpdated = c.now()
	if err := c.ckpt.Save(c.progress, c.dedup.All(), c.progress.LastUpdated); err != nil {
		return err
	}
	c.log.Info("checkpoint saved",
		zap.Int("current_index", c.progress.CurrentIndex),
		zap.Int("total_points", c.progress.TotalPoints),
		zap.Int("entities", c.progress.EntitiesFound),
	)
	return nil
}

func (c *Collector) setState(s State) {
	c.log.Debug("state transition", zap.Stringer("from", c.state), zap.Stringer("to", s))
	c.state = s
}

func (c *Collector) fill(s *Summary) {
	s.State = c.state
	s.Entities = c.dedup.Len()
	s.Stats = c.dedup.Stats()
	for _, p := range c.providers {
		if c.disabled[p.Name()] {
			s.Disabled = append(s.Disabled, p.Name())
		}
	}
}

func (c *Collector) providerNames() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}
