package dataset

import (
	"fmt"
	"strings"
)

// Counter source prefixes. A counter name is either a bare source
// ("activities") or "<source>.<key>".
const (
	CounterActivities   = "activities"
	CounterAnalytics    = "analytics"
	CounterHumanitarian = "humanitarian"
)

func splitCounter(name string) (source, key string) {
	source, key, _ = strings.Cut(name, ".")
	return source, key
}

// Counter returns counter name for a publisher, or 0 when the publisher
// has no entry. Unknown counter sources are a schema mismatch; an
// unparsable analytics cell is a numeric parse failure.
func (d Datasets) Counter(name, publisherID string) (float64, error) {
	source, key := splitCounter(name)
	switch source {
	case CounterActivities:
		return d.Activities[publisherID], nil
	case CounterHumanitarian:
		return d.Humanitarian[key][publisherID], nil
	case CounterAnalytics:
		row, ok := d.Analytics.Row(publisherID)
		if !ok {
			return 0, nil
		}
		return ParseNumber(fmt.Sprintf("%s/%s", publisherID, key), row[key])
	default:
		return 0, fmt.Errorf("알 수 없는 counter '%s': %w", name, ErrSchemaMismatch)
	}
}

// CheckCounter verifies up front that the structure backing a counter
// exists. Empty datasets pass: they carry no data rather than a wrong shape.
func (d Datasets) CheckCounter(name string) error {
	source, key := splitCounter(name)
	switch source {
	case CounterActivities:
		return nil
	case CounterHumanitarian:
		if key == "" {
			return fmt.Errorf("counter '%s'에 sub-map 이름 없음: %w", name, ErrSchemaMismatch)
		}
		if len(d.Humanitarian) == 0 {
			return nil
		}
		if _, ok := d.Humanitarian[key]; !ok {
			return fmt.Errorf("humanitarian sub-map '%s' 없음: %w", key, ErrSchemaMismatch)
		}
		return nil
	case CounterAnalytics:
		if key == "" {
			return fmt.Errorf("counter '%s'에 컬럼 이름 없음: %w", name, ErrSchemaMismatch)
		}
		if d.Analytics.Empty() || d.Analytics.HasColumn(key) {
			return nil
		}
		return fmt.Errorf("analytics 컬럼 '%s' 없음: %w", key, ErrSchemaMismatch)
	default:
		return fmt.Errorf("알 수 없는 counter '%s': %w", name, ErrSchemaMismatch)
	}
}

// CheckCodelistPath verifies that a non-empty codelist index carries path
func (d Datasets) CheckCodelistPath(path string) error {
	if len(d.Codelists) == 0 {
		return nil
	}
	if _, ok := d.Codelists[path]; !ok {
		return fmt.Errorf("codelist 경로 '%s' 없음: %w", path, ErrSchemaMismatch)
	}
	return nil
}

// CheckElementPath verifies that a non-empty element index carries path
func (d Datasets) CheckElementPath(path string) error {
	if len(d.Elements) == 0 {
		return nil
	}
	if _, ok := d.Elements[path]; !ok {
		return fmt.Errorf("element 경로 '%s' 없음: %w", path, ErrSchemaMismatch)
	}
	return nil
}
