package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeforiati/gbstats/internal/aggregate"
	"github.com/codeforiati/gbstats/internal/cache"
	"github.com/codeforiati/gbstats/internal/config"
	"github.com/codeforiati/gbstats/internal/dataset"
	"github.com/codeforiati/gbstats/internal/db"
	"github.com/codeforiati/gbstats/internal/fetch"
	"github.com/codeforiati/gbstats/internal/indicator"
	"github.com/codeforiati/gbstats/internal/progress"
	"github.com/codeforiati/gbstats/internal/report"
	"github.com/codeforiati/gbstats/internal/roster"
)

// Stage names, in execution order
const (
	StageFetch     = "fetch"
	StageLoad      = "load"
	StageCompute   = "compute"
	StageAggregate = "aggregate"
	StageProgress  = "progress"
	StageReport    = "report"
	StageMetadata  = "metadata"
)

// Stages returns every stage in execution order
func Stages() []string {
	return []string{
		StageFetch,
		StageLoad,
		StageCompute,
		StageAggregate,
		StageProgress,
		StageReport,
		StageMetadata,
	}
}

// Options control a single run
type Options struct {
	// Offline skips the fetch stage and computes from the current cache
	Offline bool
}

// Evaluation is the in-memory outcome of load, compute and aggregate
type Evaluation struct {
	Entries   []roster.Entry
	Datasets  dataset.Datasets
	Records   []indicator.Record
	Aggregate aggregate.Result
	Homepage  aggregate.HomepageStats
	History   progress.Series
}

// Result is the outcome of a full run
type Result struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Series   progress.Series
	*Evaluation
}

// Runner executes the statistics pipeline
type Runner struct {
	cfg     *config.Config
	fetcher fetch.Fetcher
	runs    *Service
	cache   *cache.Store
	now     func() time.Time
	logf    func(format string, args ...interface{})
}

// NewRunner creates a runner over an open cache database
func NewRunner(cfg *config.Config, database *db.DB, fetcher fetch.Fetcher) *Runner {
	return &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		runs:    NewService(database),
		cache:   cache.NewStore(database),
		now:     time.Now,
		logf:    func(string, ...interface{}) {},
	}
}

// SetClock overrides the time source
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// SetLogger sets the progress logger
func (r *Runner) SetLogger(logf func(format string, args ...interface{})) {
	if logf != nil {
		r.logf = logf
	}
}

// Runs returns the run tracking service
func (r *Runner) Runs() *Service {
	return r.runs
}

// Cache returns the artifact store
func (r *Runner) Cache() *cache.Store {
	return r.cache
}

// Run executes every stage and records the run. Any stage error aborts
// the run and is returned after the run is marked failed.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	policy := r.cfg.VersionPolicy()
	engine, err := indicator.NewEngine(r.cfg.Rules.Version, r.cfg.Workers)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:      uuid.New().String(),
		Started:    r.now(),
		Evaluation: &Evaluation{},
	}

	if err := r.runs.Create(res.RunID, engine.Rules.Name, string(policy)); err != nil {
		return nil, err
	}
	for i, name := range Stages() {
		if err := r.runs.AddStage(res.RunID, name, i); err != nil {
			return nil, err
		}
	}
	if err := r.runs.UpdateStatus(res.RunID, StatusRunning, ""); err != nil {
		return nil, err
	}
	r.logf("실행 시작: %s (rules=%s, policy=%s)\n", res.RunID, engine.Rules.Name, policy)

	err = r.execute(ctx, opts, engine, policy, res)
	if err != nil {
		r.runs.UpdateStatus(res.RunID, StatusFailed, err.Error())
		return res, err
	}

	if err := r.runs.UpdateStatus(res.RunID, StatusComplete, ""); err != nil {
		return res, err
	}
	r.logf("실행 완료: %s\n", res.RunID)
	return res, nil
}

func (r *Runner) execute(ctx context.Context, opts Options, engine *indicator.Engine, policy aggregate.VersionPolicy, res *Result) error {
	ev := res.Evaluation
	writer := report.NewWriter(r.cfg.OutputDir())

	if opts.Offline {
		r.runs.UpdateStageStatus(res.RunID, StageFetch, StatusSkipped, "")
		r.logf("  - %s (offline, 건너뜀)\n", StageFetch)
	} else if err := r.stage(res.RunID, StageFetch, func() error {
		_, err := r.Fetch(ctx)
		return err
	}); err != nil {
		return err
	}

	if err := r.stage(res.RunID, StageLoad, func() error {
		loaded, err := r.load(engine)
		if err != nil {
			return err
		}
		*ev = *loaded
		return r.runs.SetCounts(res.RunID, len(ev.Entries), len(roster.Signatories(ev.Entries)))
	}); err != nil {
		return err
	}

	if err := r.stage(res.RunID, StageCompute, func() error {
		records, err := engine.Compute(ev.Entries, ev.Datasets)
		ev.Records = records
		return err
	}); err != nil {
		return err
	}

	if err := r.stage(res.RunID, StageAggregate, func() error {
		ev.Aggregate = aggregate.Aggregate(ev.Records, policy)
		stats, err := aggregate.Homepage(ev.Entries, ev.Datasets.Analytics)
		ev.Homepage = stats
		return err
	}); err != nil {
		return err
	}

	if err := r.stage(res.RunID, StageProgress, func() error {
		row := progress.NewSnapshot(r.now(), ev.Aggregate.Counts)
		res.Series = progress.Record(ev.History, row, r.cfg.ProgressMode())
		return nil
	}); err != nil {
		return err
	}

	if err := r.stage(res.RunID, StageReport, func() error {
		if err := writer.Homepage(ev.Homepage); err != nil {
			return err
		}
		if err := writer.Signatories(ev.Records); err != nil {
			return err
		}
		if err := writer.Summary(ev.Aggregate); err != nil {
			return err
		}
		if err := writer.Progress(res.Series); err != nil {
			return err
		}
		// 이력 파일은 산출물이 모두 기록된 뒤에 갱신
		return report.WriteProgressCSV(r.cfg.HistoryPath(), res.Series)
	}); err != nil {
		return err
	}

	return r.stage(res.RunID, StageMetadata, func() error {
		res.Finished = r.now()
		return writer.Metadata(report.Metadata{
			RunID:         res.RunID,
			Started:       res.Started,
			Finished:      res.Finished,
			Rules:         engine.Rules.Name,
			VersionPolicy: string(policy),
			Publishers:    len(ev.Entries),
			Signatories:   ev.Aggregate.Counts.TotalSignatories,
		})
	})
}

func (r *Runner) stage(runID, name string, fn func() error) error {
	r.runs.UpdateStageStatus(runID, name, StatusRunning, "")
	started := r.now()
	r.logf("  ▶ %s\n", name)

	if err := fn(); err != nil {
		r.runs.UpdateStageStatus(runID, name, StatusFailed, err.Error())
		r.logf("  ✗ %s: %v\n", name, err)
		return fmt.Errorf("%s 단계 실패: %w", name, err)
	}

	r.runs.UpdateStageStatus(runID, name, StatusComplete, "")
	r.logf("  ✓ %s (%s)\n", name, r.now().Sub(started).Round(time.Millisecond))
	return nil
}

// Fetch retrieves every configured source and replaces the cache. The
// cache is untouched unless all sources succeed.
func (r *Runner) Fetch(ctx context.Context) ([]fetch.Artifact, error) {
	artifacts, err := fetch.FetchAll(ctx, r.fetcher, r.cfg.FetchSources(), r.cfg.Fetch.Concurrency)
	if err != nil {
		return nil, err
	}
	if err := r.cache.PutAll(artifacts); err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		r.logf("    %s (%d bytes)\n", a.Name, len(a.Body))
	}
	return artifacts, nil
}

// Evaluate loads the roster, cache and history and computes records and
// aggregates without writing anything or recording a run.
func (r *Runner) Evaluate() (*Evaluation, error) {
	engine, err := indicator.NewEngine(r.cfg.Rules.Version, r.cfg.Workers)
	if err != nil {
		return nil, err
	}

	ev, err := r.load(engine)
	if err != nil {
		return nil, err
	}
	ev.Records, err = engine.Compute(ev.Entries, ev.Datasets)
	if err != nil {
		return nil, err
	}
	ev.Aggregate = aggregate.Aggregate(ev.Records, r.cfg.VersionPolicy())
	ev.Homepage, err = aggregate.Homepage(ev.Entries, ev.Datasets.Analytics)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// load reads every input and validates the datasets against the rule set
// before any record is built
func (r *Runner) load(engine *indicator.Engine) (*Evaluation, error) {
	entries, err := roster.Load(r.cfg.RosterPath())
	if err != nil {
		return nil, err
	}

	ds, err := cache.LoadDatasets(r.cache)
	if err != nil {
		return nil, err
	}
	if err := engine.Validate(ds); err != nil {
		return nil, err
	}

	history, err := progress.LoadCSV(r.cfg.HistoryPath())
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		Entries:  entries,
		Datasets: ds,
		History:  history,
	}, nil
}
