package dataset

import (
	"errors"
)

// Source names double as cache artifact names
const (
	SourceHumanitarianAnalytics = "humanitarian_analytics"
	SourceFrequency             = "frequency"
	SourceVersions              = "versions"
	SourceCodelistValues        = "codelist_values"
	SourceElements              = "elements"
	SourceActivities            = "activities"
	SourceHumanitarian          = "humanitarian"
)

// AllSources returns every source in fetch order
func AllSources() []string {
	return []string{
		SourceHumanitarianAnalytics,
		SourceFrequency,
		SourceVersions,
		SourceCodelistValues,
		SourceElements,
		SourceActivities,
		SourceHumanitarian,
	}
}

var (
	// ErrSchemaMismatch marks a missing column or sub-structure in an input
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrNumericParse marks a counter value that is not a number
	ErrNumericParse = errors.New("numeric parse failure")
)

// PublisherSet is a set of publisher identifiers
type PublisherSet map[string]struct{}

// Has reports whether the publisher is in the set. A nil set has no members.
func (s PublisherSet) Has(publisherID string) bool {
	_, ok := s[publisherID]
	return ok
}

// VersionMap maps publisher -> IATI standard version
type VersionMap map[string]string

// FrequencyMap maps publisher -> publishing frequency label
type FrequencyMap map[string]string

// CodelistUsageIndex maps element path -> code value -> publishers using it
type CodelistUsageIndex map[string]map[string]PublisherSet

// Contains reports whether publisherID used code under path
func (c CodelistUsageIndex) Contains(path, code, publisherID string) bool {
	return c[path][code].Has(publisherID)
}

// ElementUsageIndex maps element path -> publishers emitting it
type ElementUsageIndex map[string]PublisherSet

// Contains reports whether publisherID emits the element at path
func (e ElementUsageIndex) Contains(path, publisherID string) bool {
	return e[path].Has(publisherID)
}

// Counts maps publisher -> numeric counter
type Counts map[string]float64

// HumanitarianIndex holds the named humanitarian sub-maps
// (is_humanitarian, is_humanitarian_by_attrib, ...)
type HumanitarianIndex map[string]Counts

// AnalyticsTable is the humanitarian analytics CSV keyed by publisher.
// Cell values stay raw; they are parsed on lookup.
type AnalyticsTable struct {
	Columns []string
	Rows    map[string]map[string]string
}

// Row returns the raw row for a publisher
func (t AnalyticsTable) Row(publisherID string) (map[string]string, bool) {
	row, ok := t.Rows[publisherID]
	return row, ok
}

// HasColumn reports whether the table header contains col
func (t AnalyticsTable) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Empty reports whether the table carries no header at all
func (t AnalyticsTable) Empty() bool {
	return len(t.Columns) == 0
}

// Datasets bundles one snapshot of every source.
// A nil or empty dataset means "no data": every lookup misses.
type Datasets struct {
	Analytics    AnalyticsTable
	Frequency    FrequencyMap
	Versions     VersionMap
	Codelists    CodelistUsageIndex
	Elements     ElementUsageIndex
	Activities   Counts
	Humanitarian HumanitarianIndex
}
