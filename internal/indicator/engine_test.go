package indicator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/codeforiati/gbstats/internal/dataset"
	"github.com/codeforiati/gbstats/internal/roster"
)

func testEntries() []roster.Entry {
	return []roster.Entry{
		{PublisherID: "pub-a", OrganisationRef: "XM-A", Publisher: "Agency A", Signatory: "Org A", OrganisationType: "Multilateral"},
		{PublisherID: "pub-b", OrganisationRef: "GB-B", Publisher: "Agency B", Signatory: "Org B", OrganisationType: "NGO"},
		{PublisherID: "pub-none", OrganisationRef: "XX-N", Publisher: "Nobody", Signatory: "Org N", OrganisationType: "Government"},
	}
}

func testDatasets(t *testing.T) dataset.Datasets {
	t.Helper()

	analytics, err := dataset.DecodeAnalytics([]byte(
		"Publisher Registry Id,Number of Activities,Publishing Humanitarian\n" +
			"pub-a,40,0.25\n" +
			"pub-b,3,0\n"))
	if err != nil {
		t.Fatal(err)
	}

	return dataset.Datasets{
		Analytics: analytics,
		Frequency: dataset.FrequencyMap{"pub-a": "Monthly", "pub-b": "Quarterly"},
		Versions:  dataset.VersionMap{"pub-a": "2.03", "pub-b": "2.01"},
		Codelists: dataset.CodelistUsageIndex{
			".//transaction/transaction-type/@code": {"13": {"pub-b": {}}},
			".//default-aid-type/@vocabulary":       {},
			".//participating-org/@type":            {},
			".//transaction/provider-org/@type":     {},
			".//transaction/receiver-org/@type":     {},
		},
		Elements: dataset.ElementUsageIndex{
			TraceabilityPath: {"pub-a": {}},
		},
		Activities: dataset.Counts{"pub-a": 40, "pub-b": 3},
		Humanitarian: dataset.HumanitarianIndex{
			"is_humanitarian":           {"pub-a": 12},
			"is_humanitarian_by_attrib": {"pub-a": 5},
			"contains_humanitarian_scope_without_humanitarian": {"pub-b": 0},
		},
	}
}

func v2(t *testing.T) RuleSet {
	t.Helper()
	rules, err := LookupRules(RulesV2)
	if err != nil {
		t.Fatal(err)
	}
	return rules
}

func TestComputeOneRecordPerEntryInOrder(t *testing.T) {
	entries := testEntries()
	records, err := Compute(entries, testDatasets(t), v2(t))
	if err != nil {
		t.Fatalf("Compute 실패: %v", err)
	}

	if len(records) != len(entries) {
		t.Fatalf("records = %d, want %d", len(records), len(entries))
	}
	for i := range entries {
		if records[i].PublisherID != entries[i].PublisherID {
			t.Errorf("records[%d] = %s, want %s", i, records[i].PublisherID, entries[i].PublisherID)
		}
	}
}

func TestComputeDerivedFields(t *testing.T) {
	records, err := Compute(testEntries(), testDatasets(t), v2(t))
	if err != nil {
		t.Fatalf("Compute 실패: %v", err)
	}

	a := records[0]
	if a.Version() != "2.03" {
		t.Errorf("pub-a version = %q, want 2.03", a.Version())
	}
	if !a.HumanitarianData {
		t.Error("pub-a humData: share 0.25 > 0")
	}
	if a.Activities != 40 || a.HumanitarianActivities != 12 {
		t.Errorf("pub-a counts = %d/%d, want 40/12", a.Activities, a.HumanitarianActivities)
	}
	if !a.Granular202 {
		t.Error("pub-a 202HumData: is_humanitarian_by_attrib > 0")
	}
	if a.Granular203 {
		t.Error("pub-a 203HumData: codelist 사용 없음")
	}
	if !a.Traceability {
		t.Error("pub-a traceability")
	}
	if !a.Monthly || a.Frequency == nil || *a.Frequency != "Monthly" {
		t.Errorf("pub-a monthly = %v frequency = %v", a.Monthly, a.Frequency)
	}

	b := records[1]
	if b.HumanitarianData {
		t.Error("pub-b humData: share 0")
	}
	if b.Granular202 {
		t.Error("pub-b 202HumData: 0 카운터는 false")
	}
	if !b.Granular203 {
		t.Error("pub-b 203HumData: transaction-type 13")
	}
	if b.Monthly {
		t.Error("pub-b는 Quarterly")
	}
}

func TestComputeAbsentEverywhere(t *testing.T) {
	records, err := Compute(testEntries(), testDatasets(t), v2(t))
	if err != nil {
		t.Fatalf("Compute 실패: %v", err)
	}

	got := records[2]
	want := Record{
		PublisherID:      "pub-none",
		OrganisationRef:  "XX-N",
		Name:             "Nobody",
		Signatory:        "Org N",
		OrganisationType: "Government",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("absent publisher = %+v, want zero indicators %+v", got, want)
	}
}

func TestComputeEmptyDatasets(t *testing.T) {
	for _, name := range RuleSetNames() {
		rules, _ := LookupRules(name)
		records, err := Compute(testEntries(), dataset.Datasets{}, rules)
		if err != nil {
			t.Fatalf("%s: 빈 dataset은 에러가 아니어야 함: %v", name, err)
		}
		for _, r := range records {
			if r.IATIVersion != nil || r.Frequency != nil || r.Activities != 0 || r.HumanitarianActivities != 0 ||
				r.HumanitarianData || r.Granular202 || r.Granular203 || r.Traceability || r.Monthly {
				t.Errorf("%s: %s는 기본값이어야 함: %+v", name, r.PublisherID, r)
			}
		}
	}
}

func TestGranular203EachCheck(t *testing.T) {
	entries := []roster.Entry{{PublisherID: "p", Signatory: "S"}}

	for _, check := range Granular203Checks {
		t.Run(fmt.Sprintf("%s=%s", check.Path, check.Code), func(t *testing.T) {
			ds := dataset.Datasets{Codelists: dataset.CodelistUsageIndex{}}
			for _, c := range Granular203Checks {
				if ds.Codelists[c.Path] == nil {
					ds.Codelists[c.Path] = map[string]dataset.PublisherSet{}
				}
			}
			ds.Codelists[check.Path][check.Code] = dataset.PublisherSet{"p": {}}

			records, err := Compute(entries, ds, v2(t))
			if err != nil {
				t.Fatal(err)
			}
			if !records[0].Granular203 {
				t.Error("하나의 check만 맞아도 203HumData는 true")
			}
		})
	}

	t.Run("other code", func(t *testing.T) {
		ds := dataset.Datasets{Codelists: dataset.CodelistUsageIndex{}}
		for _, c := range Granular203Checks {
			ds.Codelists[c.Path] = map[string]dataset.PublisherSet{"1": {"p": {}}}
		}
		records, err := Compute(entries, ds, v2(t))
		if err != nil {
			t.Fatal(err)
		}
		if records[0].Granular203 {
			t.Error("다른 code 사용은 203HumData가 아님")
		}
	})
}

func TestComputeRulesV1(t *testing.T) {
	analytics, err := dataset.DecodeAnalytics([]byte(
		"Publisher Registry Id,Number of Activities,Publishing Humanitarian,Using Humanitarian Attribute,Appeal or Emergency Details,Clusters\n" +
			"pub-a,10,0.4,0,0,2\n"))
	if err != nil {
		t.Fatal(err)
	}
	rules, err := LookupRules(RulesV1)
	if err != nil {
		t.Fatal(err)
	}

	records, err := Compute(testEntries()[:1], dataset.Datasets{Analytics: analytics}, rules)
	if err != nil {
		t.Fatalf("Compute 실패: %v", err)
	}
	r := records[0]
	if r.Activities != 10 {
		t.Errorf("activities = %d, want 10", r.Activities)
	}
	if r.HumanitarianActivities != 1 {
		t.Errorf("humanitarianActivities = %d, want 1 (비율은 0/1 신호)", r.HumanitarianActivities)
	}
	if !r.Granular202 {
		t.Error("Clusters > 0 이면 202HumData")
	}
}

func TestComputeRulesV1HumanitarianFlag(t *testing.T) {
	analytics, err := dataset.DecodeAnalytics([]byte(
		"Publisher Registry Id,Number of Activities,Publishing Humanitarian,Using Humanitarian Attribute,Appeal or Emergency Details,Clusters\n" +
			"pub-a,40,25,0,0,0\n" +
			"pub-b,40,0.25,0,0,0\n"))
	if err != nil {
		t.Fatal(err)
	}
	rules, err := LookupRules(RulesV1)
	if err != nil {
		t.Fatal(err)
	}
	if !rules.HumanitarianFlag {
		t.Fatal("v1 은 비율 컬럼을 0/1 신호로 읽어야 함")
	}

	entries := testEntries()[:1]
	// 25 를 올림하면 25건이 되지만 v1 에서는 1
	for _, share := range []struct {
		id   string
		want int
	}{{"pub-a", 1}, {"pub-b", 1}} {
		entries[0].PublisherID = share.id
		records, err := Compute(entries, dataset.Datasets{Analytics: analytics}, rules)
		if err != nil {
			t.Fatalf("Compute 실패: %v", err)
		}
		r := records[0]
		if r.HumanitarianActivities != share.want {
			t.Errorf("%s: humanitarianActivities = %d, want %d", share.id, r.HumanitarianActivities, share.want)
		}
		if !r.HumanitarianData {
			t.Errorf("%s: 비율 > 0 이면 humData", share.id)
		}
	}
}

func TestComputeSchemaMismatch(t *testing.T) {
	ds := testDatasets(t)
	delete(ds.Humanitarian, "is_humanitarian_by_attrib")

	_, err := Compute(testEntries(), ds, v2(t))
	if !errors.Is(err, dataset.ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}

	ds = testDatasets(t)
	delete(ds.Codelists, ".//participating-org/@type")
	_, err = Compute(testEntries(), ds, v2(t))
	if !errors.Is(err, dataset.ErrSchemaMismatch) {
		t.Errorf("codelist 경로 누락: err = %v, want ErrSchemaMismatch", err)
	}
}

func TestComputeNumericParseFailure(t *testing.T) {
	ds := testDatasets(t)
	ds.Analytics.Rows["pub-b"]["Publishing Humanitarian"] = "n/a"

	_, err := Compute(testEntries(), ds, v2(t))
	if !errors.Is(err, dataset.ErrNumericParse) {
		t.Errorf("err = %v, want ErrNumericParse", err)
	}
}

func TestComputeParallelMatchesSequential(t *testing.T) {
	var entries []roster.Entry
	for i := 0; i < 200; i++ {
		entries = append(entries, roster.Entry{PublisherID: fmt.Sprintf("pub-%d", i), Signatory: fmt.Sprintf("Org %d", i%17)})
	}
	ds := testDatasets(t)
	for i := 0; i < 200; i += 3 {
		ds.Activities[fmt.Sprintf("pub-%d", i)] = float64(i)
	}

	seq, err := Compute(entries, ds, v2(t))
	if err != nil {
		t.Fatal(err)
	}
	par, err := (&Engine{Rules: v2(t), Workers: 8}).Compute(entries, ds)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq, par) {
		t.Error("병렬 결과는 순차 결과와 같아야 함")
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	records, err := Compute(testEntries(), testDatasets(t), v2(t))
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(records, decoded) {
		t.Errorf("round trip 불일치:\n got %+v\nwant %+v", decoded, records)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw[2]["iatiVersion"] != nil || raw[2]["frequency"] != nil {
		t.Error("없는 version/frequency는 null로 직렬화")
	}
	if len(raw[0]) != len(Columns) {
		t.Errorf("JSON 키 수 = %d, want %d", len(raw[0]), len(Columns))
	}
}

func TestLookupRules(t *testing.T) {
	rules, err := LookupRules("")
	if err != nil || rules.Name != DefaultRules {
		t.Errorf("빈 이름은 기본 rule set: %v %v", rules.Name, err)
	}
	if _, err := LookupRules("v9"); err == nil {
		t.Error("없는 rule set은 에러")
	}
}
