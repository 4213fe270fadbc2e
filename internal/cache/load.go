package cache

import (
	"errors"
	"fmt"

	"github.com/codeforiati/gbstats/internal/dataset"
)

// LoadDatasets decodes every cached source into a Datasets bundle. A source
// that was never cached stays empty and reads as "no data".
func LoadDatasets(s *Store) (dataset.Datasets, error) {
	var ds dataset.Datasets

	for _, name := range dataset.AllSources() {
		a, err := s.Get(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return dataset.Datasets{}, err
		}
		if len(a.Body) == 0 {
			continue
		}

		if err := decodeInto(&ds, name, a.Body); err != nil {
			return dataset.Datasets{}, fmt.Errorf("캐시 '%s' 해석 실패: %w", name, err)
		}
	}
	return ds, nil
}

func decodeInto(ds *dataset.Datasets, name string, body []byte) error {
	var err error
	switch name {
	case dataset.SourceHumanitarianAnalytics:
		ds.Analytics, err = dataset.DecodeAnalytics(body)
	case dataset.SourceFrequency:
		ds.Frequency, err = dataset.DecodeFrequency(body)
	case dataset.SourceVersions:
		ds.Versions, err = dataset.DecodeVersions(body)
	case dataset.SourceCodelistValues:
		ds.Codelists, err = dataset.DecodeCodelists(body)
	case dataset.SourceElements:
		ds.Elements, err = dataset.DecodeElements(body)
	case dataset.SourceActivities:
		ds.Activities, err = dataset.DecodeActivities(body)
	case dataset.SourceHumanitarian:
		ds.Humanitarian, err = dataset.DecodeHumanitarian(body)
	default:
		err = fmt.Errorf("알 수 없는 source '%s': %w", name, dataset.ErrSchemaMismatch)
	}
	return err
}
