package dataset

import (
	"errors"
	"testing"
)

const analyticsCSV = "Publisher Name,Publisher Registry Id,Number of Activities,Publishing Humanitarian\n" +
	"Org A,pub-a,120,0.5\n" +
	"Org B,pub-b,0,\n" +
	"Org C,pub-c,x,0\n"

func TestDecodeAnalytics(t *testing.T) {
	table, err := DecodeAnalytics([]byte(analyticsCSV))
	if err != nil {
		t.Fatalf("DecodeAnalytics 실패: %v", err)
	}

	if len(table.Rows) != 3 {
		t.Errorf("rows = %d, want 3", len(table.Rows))
	}
	if !table.HasColumn("Number of Activities") {
		t.Error("Number of Activities 컬럼이 있어야 함")
	}
	row, ok := table.Row("pub-a")
	if !ok {
		t.Fatal("pub-a 행이 있어야 함")
	}
	if row["Publishing Humanitarian"] != "0.5" {
		t.Errorf("Publishing Humanitarian = %q, want 0.5", row["Publishing Humanitarian"])
	}
}

func TestDecodeAnalyticsBOMAndEmpty(t *testing.T) {
	table, err := DecodeAnalytics([]byte("\ufeffPublisher Registry Id,Frequency\npub-a,Monthly\n"))
	if err != nil {
		t.Fatalf("DecodeAnalytics 실패: %v", err)
	}
	if _, ok := table.Row("pub-a"); !ok {
		t.Error("BOM 제거 후 pub-a 행이 있어야 함")
	}

	empty, err := DecodeAnalytics(nil)
	if err != nil {
		t.Fatalf("빈 입력은 에러가 아니어야 함: %v", err)
	}
	if !empty.Empty() {
		t.Error("빈 입력은 빈 테이블이어야 함")
	}
}

func TestDecodeAnalyticsMissingKeyColumn(t *testing.T) {
	_, err := DecodeAnalytics([]byte("Publisher,Number of Activities\nx,1\n"))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestDecodeCodelistsAndElements(t *testing.T) {
	codelists, err := DecodeCodelists([]byte(`{
		".//transaction/transaction-type/@code": {"12": {"pub-a": 3}, "1": {"pub-b": 1}}
	}`))
	if err != nil {
		t.Fatalf("DecodeCodelists 실패: %v", err)
	}
	if !codelists.Contains(".//transaction/transaction-type/@code", "12", "pub-a") {
		t.Error("pub-a는 code 12를 사용함")
	}
	if codelists.Contains(".//transaction/transaction-type/@code", "13", "pub-a") {
		t.Error("없는 code는 miss여야 함")
	}
	if codelists.Contains("missing", "12", "pub-a") {
		t.Error("없는 path는 miss여야 함")
	}

	elements, err := DecodeElements([]byte(`{"iati-activity/transaction/provider-org/@provider-activity-id": {"pub-b": 10}}`))
	if err != nil {
		t.Fatalf("DecodeElements 실패: %v", err)
	}
	if !elements.Contains("iati-activity/transaction/provider-org/@provider-activity-id", "pub-b") {
		t.Error("pub-b는 provider-activity-id를 사용함")
	}
}

func TestDecodeHumanitarian(t *testing.T) {
	idx, err := DecodeHumanitarian([]byte(`{
		"is_humanitarian": {"pub-a": 4},
		"is_humanitarian_by_attrib": {"pub-a": 2, "pub-b": "3"}
	}`))
	if err != nil {
		t.Fatalf("DecodeHumanitarian 실패: %v", err)
	}
	if idx["is_humanitarian"]["pub-a"] != 4 {
		t.Errorf("is_humanitarian[pub-a] = %v, want 4", idx["is_humanitarian"]["pub-a"])
	}
	if idx["is_humanitarian_by_attrib"]["pub-b"] != 3 {
		t.Errorf("문자열 숫자도 파싱되어야 함, got %v", idx["is_humanitarian_by_attrib"]["pub-b"])
	}

	_, err = DecodeHumanitarian([]byte(`{"is_humanitarian": {"pub-a": "many"}}`))
	if !errors.Is(err, ErrNumericParse) {
		t.Errorf("err = %v, want ErrNumericParse", err)
	}
}

func TestDecodeActivitiesRejectsNonNumeric(t *testing.T) {
	counts, err := DecodeActivities([]byte(`{"pub-a": 12, "pub-b": 0}`))
	if err != nil {
		t.Fatalf("DecodeActivities 실패: %v", err)
	}
	if counts["pub-a"] != 12 {
		t.Errorf("pub-a = %v, want 12", counts["pub-a"])
	}

	if _, err := DecodeActivities([]byte(`{"pub-a": true}`)); !errors.Is(err, ErrNumericParse) {
		t.Errorf("err = %v, want ErrNumericParse", err)
	}
}

func TestCounter(t *testing.T) {
	table, err := DecodeAnalytics([]byte(analyticsCSV))
	if err != nil {
		t.Fatal(err)
	}
	ds := Datasets{
		Analytics:    table,
		Activities:   Counts{"pub-a": 7},
		Humanitarian: HumanitarianIndex{"is_humanitarian": Counts{"pub-a": 2}},
	}

	tests := []struct {
		name    string
		counter string
		pub     string
		want    float64
		wantErr error
	}{
		{"activities hit", "activities", "pub-a", 7, nil},
		{"activities miss", "activities", "nobody", 0, nil},
		{"humanitarian hit", "humanitarian.is_humanitarian", "pub-a", 2, nil},
		{"humanitarian missing submap", "humanitarian.other", "pub-a", 0, nil},
		{"analytics ratio", "analytics.Publishing Humanitarian", "pub-a", 0.5, nil},
		{"analytics blank", "analytics.Publishing Humanitarian", "pub-b", 0, nil},
		{"analytics missing row", "analytics.Number of Activities", "nobody", 0, nil},
		{"analytics garbage", "analytics.Number of Activities", "pub-c", 0, ErrNumericParse},
		{"unknown source", "frequency.x", "pub-a", 0, ErrSchemaMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ds.Counter(tt.counter, tt.pub)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tt.want {
				t.Errorf("Counter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckCounter(t *testing.T) {
	empty := Datasets{}
	for _, name := range []string{"activities", "humanitarian.is_humanitarian", "analytics.Number of Activities"} {
		if err := empty.CheckCounter(name); err != nil {
			t.Errorf("빈 dataset의 %s 검사는 통과해야 함: %v", name, err)
		}
	}

	ds := Datasets{
		Analytics:    AnalyticsTable{Columns: []string{AnalyticsKeyColumn, "Number of Activities"}},
		Humanitarian: HumanitarianIndex{"is_humanitarian": Counts{}},
	}
	if err := ds.CheckCounter("humanitarian.is_humanitarian_by_attrib"); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("없는 sub-map: err = %v, want ErrSchemaMismatch", err)
	}
	if err := ds.CheckCounter("analytics.Clusters"); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("없는 컬럼: err = %v, want ErrSchemaMismatch", err)
	}
	if err := ds.CheckCounter("analytics.Number of Activities"); err != nil {
		t.Errorf("있는 컬럼은 통과해야 함: %v", err)
	}
}
