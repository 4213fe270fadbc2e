package aggregate

import (
	"errors"
	"testing"

	"github.com/codeforiati/gbstats/internal/dataset"
	"github.com/codeforiati/gbstats/internal/indicator"
	"github.com/codeforiati/gbstats/internal/roster"
)

func strp(s string) *string { return &s }

func TestAggregateOrAcrossPublishers(t *testing.T) {
	records := []indicator.Record{
		{PublisherID: "a1", Signatory: "Org A", Activities: 0},
		{PublisherID: "a2", Signatory: "Org A", Activities: 5, Granular203: true},
		{PublisherID: "b1", Signatory: "Org B", HumanitarianActivities: 2, IATIVersion: strp("2.02")},
		{PublisherID: "c1", Signatory: "Org C", Traceability: true, Granular202: true},
	}

	res := Aggregate(records, PolicyExact)

	if len(res.Order) != 3 || res.Order[0] != "Org A" || res.Order[2] != "Org C" {
		t.Errorf("Order = %v", res.Order)
	}

	a := res.Signatories["Org A"]
	if !a.UsesIATI {
		t.Error("Org A usesIATI: a2 has activities")
	}
	if !a.HasGranular203 {
		t.Error("Org A granular 203")
	}
	if a.PublishesHumanitarian || a.UsesV202OrLater {
		t.Errorf("Org A flags = %+v", a)
	}

	want := Counts{
		TotalSignatories: 3,
		IATI:             1,
		Humanitarian:     1,
		V202OrLater:      1,
		Granular202:      1,
		Granular203:      1,
		Traceability:     1,
	}
	if res.Counts != want {
		t.Errorf("Counts = %+v, want %+v", res.Counts, want)
	}
}

// roster P1/P2 both Org A; only P1 has a version
func TestAggregateConcreteScenario(t *testing.T) {
	entries := []roster.Entry{
		{PublisherID: "P1", Signatory: "Org A"},
		{PublisherID: "P2", Signatory: "Org A"},
	}
	rules, err := indicator.LookupRules(indicator.RulesV2)
	if err != nil {
		t.Fatal(err)
	}
	records, err := indicator.Compute(entries, dataset.Datasets{Versions: dataset.VersionMap{"P1": "2.02"}}, rules)
	if err != nil {
		t.Fatal(err)
	}

	res := Aggregate(records, PolicyExact)
	a := res.Signatories["Org A"]
	if !a.UsesV202OrLater {
		t.Error("Org A usesV202OrLater는 P1에서 true")
	}
	if a.UsesIATI {
		t.Error("Org A usesIATI는 false (activities 0)")
	}
	if res.Counts.TotalSignatories != 1 {
		t.Errorf("TotalSignatories = %d, want 1", res.Counts.TotalSignatories)
	}
}

func TestAggregateEmptyCache(t *testing.T) {
	entries := []roster.Entry{
		{PublisherID: "p1", Signatory: "S1"},
		{PublisherID: "p2", Signatory: "S2"},
		{PublisherID: "p3", Signatory: "S2"},
	}
	rules, _ := indicator.LookupRules("")
	records, err := indicator.Compute(entries, dataset.Datasets{}, rules)
	if err != nil {
		t.Fatal(err)
	}

	res := Aggregate(records, PolicyExact)
	if res.Counts != (Counts{TotalSignatories: 2}) {
		t.Errorf("Counts = %+v, want only TotalSignatories=2", res.Counts)
	}
}

func TestAggregateMonotonic(t *testing.T) {
	base := []indicator.Record{
		{PublisherID: "a1", Signatory: "Org A", Activities: 1, IATIVersion: strp("2.03"), Traceability: true},
	}
	before := Aggregate(base, PolicyExact).Signatories["Org A"]

	extra := append(base, indicator.Record{PublisherID: "a2", Signatory: "Org A"})
	after := Aggregate(extra, PolicyExact).Signatories["Org A"]

	if before != after {
		t.Errorf("flags-free publisher 추가가 flag를 바꿈: %+v -> %+v", before, after)
	}

	extra = append(extra, indicator.Record{PublisherID: "a3", Signatory: "Org A", Granular202: true})
	after = Aggregate(extra, PolicyExact).Signatories["Org A"]
	if !after.HasGranular202 || !after.UsesIATI || !after.HasTraceability || !after.UsesV202OrLater {
		t.Errorf("flag는 false -> true로만 바뀜: %+v", after)
	}
}

func TestVersionPolicy(t *testing.T) {
	tests := []struct {
		version *string
		exact   bool
		minimum bool
	}{
		{nil, false, false},
		{strp("2.01"), false, false},
		{strp("2.02"), true, true},
		{strp("2.03"), true, true},
		{strp("2.04"), false, true},
		{strp("1.05"), false, false},
		{strp("3.0"), false, true},
		{strp("garbage"), false, false},
	}

	for _, tt := range tests {
		name := "<nil>"
		if tt.version != nil {
			name = *tt.version
		}
		t.Run(name, func(t *testing.T) {
			if got := PolicyExact.Satisfied(tt.version); got != tt.exact {
				t.Errorf("exact = %v, want %v", got, tt.exact)
			}
			if got := PolicyMinimum.Satisfied(tt.version); got != tt.minimum {
				t.Errorf("minimum = %v, want %v", got, tt.minimum)
			}
		})
	}
}

func TestParseVersionPolicy(t *testing.T) {
	if p, err := ParseVersionPolicy(""); err != nil || p != PolicyExact {
		t.Errorf("기본값은 exact: %v %v", p, err)
	}
	if p, err := ParseVersionPolicy("minimum"); err != nil || p != PolicyMinimum {
		t.Errorf("minimum: %v %v", p, err)
	}
	if _, err := ParseVersionPolicy("latest"); err == nil {
		t.Error("알 수 없는 policy는 에러")
	}
}

func TestHomepage(t *testing.T) {
	analytics, err := dataset.DecodeAnalytics([]byte(
		"Publisher Registry Id,Number of Activities,Publishing Humanitarian\n" +
			"a1,0,0\n" +
			"a2,12,3\n" +
			"b1,4,0\n"))
	if err != nil {
		t.Fatal(err)
	}
	entries := []roster.Entry{
		{PublisherID: "a1", Signatory: "Org A"},
		{PublisherID: "a2", Signatory: "Org A"},
		{PublisherID: "b1", Signatory: "Org B"},
		{PublisherID: "c1", Signatory: "Org C"},
	}

	stats, err := Homepage(entries, analytics)
	if err != nil {
		t.Fatalf("Homepage 실패: %v", err)
	}
	want := HomepageStats{Signatories: 3, Publishers: 4, IATI: 2, Humanitarian: 1}
	if stats != want {
		t.Errorf("Homepage = %+v, want %+v", stats, want)
	}

	analytics.Rows["b1"][ColumnNumberOfActivities] = "lots"
	if _, err := Homepage(entries, analytics); !errors.Is(err, dataset.ErrNumericParse) {
		t.Errorf("err = %v, want ErrNumericParse", err)
	}
}

func TestHomepageRejectsFractions(t *testing.T) {
	analytics, err := dataset.DecodeAnalytics([]byte(
		"Publisher Registry Id,Number of Activities,Publishing Humanitarian\n" +
			"a1,12,0.5\n"))
	if err != nil {
		t.Fatal(err)
	}
	entries := []roster.Entry{{PublisherID: "a1", Signatory: "Org A"}}

	if _, err := Homepage(entries, analytics); !errors.Is(err, dataset.ErrNumericParse) {
		t.Errorf("소수 비율: err = %v, want ErrNumericParse", err)
	}

	analytics.Rows["a1"][ColumnPublishingHumanitarian] = " 3 "
	analytics.Rows["a1"][ColumnNumberOfActivities] = ""
	stats, err := Homepage(entries, analytics)
	if err != nil {
		t.Fatalf("Homepage 실패: %v", err)
	}
	if stats.IATI != 0 || stats.Humanitarian != 1 {
		t.Errorf("빈 셀은 0: %+v", stats)
	}
}
