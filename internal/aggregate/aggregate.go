package aggregate

import (
	"github.com/codeforiati/gbstats/internal/indicator"
)

// Flags are the signatory-level indicators. Each is the OR of the
// per-publisher predicate over every publisher of the signatory.
type Flags struct {
	UsesIATI              bool `json:"iati"`
	PublishesHumanitarian bool `json:"humanitarian"`
	UsesV202OrLater       bool `json:"202"`
	HasGranular202        bool `json:"granular_202"`
	HasGranular203        bool `json:"granular_203"`
	HasTraceability       bool `json:"traceability"`
}

// merge ORs the predicates of one publisher record into f
func (f *Flags) merge(r indicator.Record, policy VersionPolicy) {
	f.UsesIATI = f.UsesIATI || r.Activities > 0
	f.PublishesHumanitarian = f.PublishesHumanitarian || r.HumanitarianActivities > 0
	f.UsesV202OrLater = f.UsesV202OrLater || policy.Satisfied(r.IATIVersion)
	f.HasGranular202 = f.HasGranular202 || r.Granular202
	f.HasGranular203 = f.HasGranular203 || r.Granular203
	f.HasTraceability = f.HasTraceability || r.Traceability
}

// Counts holds the population-wide signatory counts
type Counts struct {
	TotalSignatories int `json:"signatories"`
	IATI             int `json:"iati"`
	Humanitarian     int `json:"humanitarian"`
	V202OrLater      int `json:"202"`
	Granular202      int `json:"granular_202"`
	Granular203      int `json:"granular_203"`
	Traceability     int `json:"traceability"`
}

// Result is the output of Aggregate
type Result struct {
	// Order lists signatories in first-seen record order
	Order       []string         `json:"order"`
	Signatories map[string]Flags `json:"signatories"`
	Counts      Counts           `json:"counts"`
}

// Aggregate groups records by signatory and counts the flags. It is a
// pure reduction over its input.
func Aggregate(records []indicator.Record, policy VersionPolicy) Result {
	res := Result{
		Signatories: make(map[string]Flags),
	}

	for _, r := range records {
		flags, seen := res.Signatories[r.Signatory]
		if !seen {
			res.Order = append(res.Order, r.Signatory)
		}
		flags.merge(r, policy)
		res.Signatories[r.Signatory] = flags
	}

	res.Counts.TotalSignatories = len(res.Order)
	for _, name := range res.Order {
		f := res.Signatories[name]
		res.Counts.IATI += boolInt(f.UsesIATI)
		res.Counts.Humanitarian += boolInt(f.PublishesHumanitarian)
		res.Counts.V202OrLater += boolInt(f.UsesV202OrLater)
		res.Counts.Granular202 += boolInt(f.HasGranular202)
		res.Counts.Granular203 += boolInt(f.HasGranular203)
		res.Counts.Traceability += boolInt(f.HasTraceability)
	}

	return res
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
