package indicator

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/codeforiati/gbstats/internal/dataset"
	"github.com/codeforiati/gbstats/internal/roster"
)

// Engine derives indicator records from a roster and a dataset snapshot
type Engine struct {
	Rules   RuleSet
	Workers int
}

// NewEngine creates an engine for the named rule set
func NewEngine(rulesName string, workers int) (*Engine, error) {
	rules, err := LookupRules(rulesName)
	if err != nil {
		return nil, err
	}
	return &Engine{Rules: rules, Workers: workers}, nil
}

// Validate checks that every structure the rule set reads is present.
// It runs before any record is built so a shape problem fails fast.
func (e *Engine) Validate(ds dataset.Datasets) error {
	for _, name := range e.Rules.Counters() {
		if err := ds.CheckCounter(name); err != nil {
			return err
		}
	}
	for _, check := range Granular203Checks {
		if err := ds.CheckCodelistPath(check.Path); err != nil {
			return err
		}
	}
	return ds.CheckElementPath(TraceabilityPath)
}

// Compute returns one record per entry, in roster order
func (e *Engine) Compute(entries []roster.Entry, ds dataset.Datasets) ([]Record, error) {
	if err := e.Validate(ds); err != nil {
		return nil, err
	}

	records := make([]Record, len(entries))

	if e.Workers <= 1 {
		for i, entry := range entries {
			rec, err := e.derive(entry, ds)
			if err != nil {
				return nil, err
			}
			records[i] = rec
		}
		return records, nil
	}

	// 병렬 계산: 인덱스로 저장하므로 출력 순서는 roster 순서 유지
	var g errgroup.Group
	g.SetLimit(e.Workers)
	for i, entry := range entries {
		g.Go(func() error {
			rec, err := e.derive(entry, ds)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Compute is a convenience wrapper for a single-worker engine
func Compute(entries []roster.Entry, ds dataset.Datasets, rules RuleSet) ([]Record, error) {
	e := &Engine{Rules: rules, Workers: 1}
	return e.Compute(entries, ds)
}

func (e *Engine) derive(entry roster.Entry, ds dataset.Datasets) (Record, error) {
	id := entry.PublisherID
	rec := Record{
		PublisherID:      id,
		OrganisationRef:  entry.OrganisationRef,
		Name:             entry.Publisher,
		Signatory:        entry.Signatory,
		OrganisationType: entry.OrganisationType,
	}

	share, err := ds.Counter(e.Rules.ShareCounter, id)
	if err != nil {
		return Record{}, fmt.Errorf("publisher '%s': %w", id, err)
	}
	rec.HumanitarianData = share > 0

	activities, err := ds.Counter(e.Rules.ActivityCounter, id)
	if err != nil {
		return Record{}, fmt.Errorf("publisher '%s': %w", id, err)
	}
	rec.Activities = toCount(activities)

	humanitarian, err := ds.Counter(e.Rules.HumanitarianCounter, id)
	if err != nil {
		return Record{}, fmt.Errorf("publisher '%s': %w", id, err)
	}
	if e.Rules.HumanitarianFlag {
		rec.HumanitarianActivities = toFlag(humanitarian)
	} else {
		rec.HumanitarianActivities = toCount(humanitarian)
	}

	for _, name := range e.Rules.Granular202 {
		v, err := ds.Counter(name, id)
		if err != nil {
			return Record{}, fmt.Errorf("publisher '%s': %w", id, err)
		}
		if v > 0 {
			rec.Granular202 = true
			break
		}
	}

	for _, check := range Granular203Checks {
		if ds.Codelists.Contains(check.Path, check.Code, id) {
			rec.Granular203 = true
			break
		}
	}

	if freq, ok := ds.Frequency[id]; ok {
		rec.Frequency = &freq
		rec.Monthly = freq == MonthlyLabel
	}

	rec.Traceability = ds.Elements.Contains(TraceabilityPath, id)

	if version, ok := ds.Versions[id]; ok {
		rec.IATIVersion = &version
	}

	return rec, nil
}

// toCount rounds positive values up so a fractional share still counts
func toCount(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Ceil(v))
}

// toFlag turns a share into a 0/1 count
func toFlag(v float64) int {
	if v > 0 {
		return 1
	}
	return 0
}
