package indicator

import (
	"fmt"
	"sort"

	"github.com/codeforiati/gbstats/internal/dataset"
)

// RuleSet names the counters that feed the derived indicators. Schema
// revisions of the statistics sources add or swap counter names here
// instead of branching in the engine.
type RuleSet struct {
	Name string

	// ShareCounter drives humData (> 0 means publishing humanitarian data)
	ShareCounter string
	// ActivityCounter and HumanitarianCounter fill the two count fields
	ActivityCounter     string
	HumanitarianCounter string
	// HumanitarianFlag marks a HumanitarianCounter that is a share, not a
	// count: humanitarianActivities is then 1 when it is > 0, else 0
	HumanitarianFlag bool
	// Granular202 counters: any > 0 sets 202HumData
	Granular202 []string
}

// Counters returns every counter name the rule set reads
func (r RuleSet) Counters() []string {
	names := []string{r.ShareCounter, r.ActivityCounter, r.HumanitarianCounter}
	return append(names, r.Granular202...)
}

// Rule set names
const (
	RulesV1 = "v1"
	RulesV2 = "v2"
)

// DefaultRules is the rule set used when none is configured
const DefaultRules = RulesV2

var ruleSets = map[string]RuleSet{
	// 초기 analytics 스키마: 모든 카운터가 humanitarian.csv 컬럼.
	// 인도적 활동 건수 컬럼이 없으므로 비율 컬럼의 0/1 신호로 대신한다
	RulesV1: {
		Name:                RulesV1,
		ShareCounter:        "analytics.Publishing Humanitarian",
		ActivityCounter:     "analytics.Number of Activities",
		HumanitarianCounter: "analytics.Publishing Humanitarian",
		HumanitarianFlag:    true,
		Granular202: []string{
			"analytics.Using Humanitarian Attribute",
			"analytics.Appeal or Emergency Details",
			"analytics.Clusters",
		},
	},
	// stats inverted-publisher 스키마
	RulesV2: {
		Name:                RulesV2,
		ShareCounter:        "analytics.Publishing Humanitarian",
		ActivityCounter:     dataset.CounterActivities,
		HumanitarianCounter: "humanitarian.is_humanitarian",
		Granular202: []string{
			"humanitarian.is_humanitarian_by_attrib",
			"humanitarian.contains_humanitarian_scope_without_humanitarian",
		},
	},
}

// LookupRules returns the named rule set
func LookupRules(name string) (RuleSet, error) {
	if name == "" {
		name = DefaultRules
	}
	rs, ok := ruleSets[name]
	if !ok {
		return RuleSet{}, fmt.Errorf("알 수 없는 rule set '%s' (사용 가능: %v)", name, RuleSetNames())
	}
	return rs, nil
}

// RuleSetNames lists the known rule sets
func RuleSetNames() []string {
	names := make([]string, 0, len(ruleSets))
	for name := range ruleSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CodelistCheck is one (element path, code) membership test
type CodelistCheck struct {
	Path string
	Code string
}

// Granular203Checks are the codelist usages that mark v2.03 granular
// humanitarian data: transaction types 12/13, aid type vocabularies 2/3
// and organisation type 24 on participating, provider and receiver orgs.
var Granular203Checks = []CodelistCheck{
	{".//transaction/transaction-type/@code", "12"},
	{".//transaction/transaction-type/@code", "13"},
	{".//default-aid-type/@vocabulary", "2"},
	{".//default-aid-type/@vocabulary", "3"},
	{".//participating-org/@type", "24"},
	{".//transaction/provider-org/@type", "24"},
	{".//transaction/receiver-org/@type", "24"},
}

// TraceabilityPath is the element that carries the funding activity id
const TraceabilityPath = "iati-activity/transaction/provider-org/@provider-activity-id"

// MonthlyLabel is the frequency label of monthly publishers
const MonthlyLabel = "Monthly"
