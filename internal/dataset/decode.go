package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AnalyticsKeyColumn is the publisher column of the analytics CSVs
const AnalyticsKeyColumn = "Publisher Registry Id"

// DecodeAnalytics parses the humanitarian analytics CSV
func DecodeAnalytics(data []byte) (AnalyticsTable, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return AnalyticsTable{}, nil
	}
	if err != nil {
		return AnalyticsTable{}, fmt.Errorf("analytics CSV 헤더 읽기 실패: %w", err)
	}
	header = trimBOM(header)

	keyIdx := -1
	for i, col := range header {
		if col == AnalyticsKeyColumn {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return AnalyticsTable{}, fmt.Errorf("analytics CSV에 '%s' 컬럼 없음: %w", AnalyticsKeyColumn, ErrSchemaMismatch)
	}

	table := AnalyticsTable{
		Columns: header,
		Rows:    make(map[string]map[string]string),
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return AnalyticsTable{}, fmt.Errorf("analytics CSV 읽기 실패: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		// 같은 publisher가 여러 번 나오면 마지막 행이 이김
		table.Rows[row[AnalyticsKeyColumn]] = row
	}
	return table, nil
}

// DecodeFrequency parses the cached publisher -> frequency JSON map
func DecodeFrequency(data []byte) (FrequencyMap, error) {
	m := FrequencyMap{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("frequency 파싱 실패: %w", err)
	}
	return m, nil
}

// DecodeVersions parses the cached publisher -> version JSON map
func DecodeVersions(data []byte) (VersionMap, error) {
	m := VersionMap{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("versions 파싱 실패: %w", err)
	}
	return m, nil
}

// DecodeCodelists parses inverted-publisher codelist_values.json
// (path -> code -> publisher -> count)
func DecodeCodelists(data []byte) (CodelistUsageIndex, error) {
	var raw map[string]map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codelist_values 파싱 실패: %w", err)
	}
	idx := make(CodelistUsageIndex, len(raw))
	for path, codes := range raw {
		byCode := make(map[string]PublisherSet, len(codes))
		for code, pubs := range codes {
			byCode[code] = toSet(pubs)
		}
		idx[path] = byCode
	}
	return idx, nil
}

// DecodeElements parses inverted-publisher elements.json
// (path -> publisher -> count)
func DecodeElements(data []byte) (ElementUsageIndex, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("elements 파싱 실패: %w", err)
	}
	idx := make(ElementUsageIndex, len(raw))
	for path, pubs := range raw {
		idx[path] = toSet(pubs)
	}
	return idx, nil
}

// DecodeActivities parses inverted-publisher activities.json
// (publisher -> activity count)
func DecodeActivities(data []byte) (Counts, error) {
	var raw map[string]interface{}
	if err := unmarshalNumbers(data, &raw); err != nil {
		return nil, fmt.Errorf("activities 파싱 실패: %w", err)
	}
	return toCounts("activities", raw)
}

// DecodeHumanitarian parses inverted-publisher humanitarian.json
// (sub-map name -> publisher -> count)
func DecodeHumanitarian(data []byte) (HumanitarianIndex, error) {
	var raw map[string]map[string]interface{}
	if err := unmarshalNumbers(data, &raw); err != nil {
		return nil, fmt.Errorf("humanitarian 파싱 실패: %w", err)
	}
	idx := make(HumanitarianIndex, len(raw))
	for name, pubs := range raw {
		counts, err := toCounts("humanitarian."+name, pubs)
		if err != nil {
			return nil, err
		}
		idx[name] = counts
	}
	return idx, nil
}

// ParseNumber parses a raw counter value. Blank means absent and yields 0.
func ParseNumber(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s 값 '%s': %w", field, raw, ErrNumericParse)
	}
	return v, nil
}

// ParseInt parses a raw whole-number value. Blank means absent and yields 0.
func ParseInt(field, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s 값 '%s': %w", field, raw, ErrNumericParse)
	}
	return v, nil
}

func unmarshalNumbers(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func toCounts(field string, raw map[string]interface{}) (Counts, error) {
	counts := make(Counts, len(raw))
	for pub, v := range raw {
		n, err := numberValue(field, v)
		if err != nil {
			return nil, err
		}
		counts[pub] = n
	}
	return counts, nil
}

func numberValue(field string, v interface{}) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s 값 '%s': %w", field, t, ErrNumericParse)
		}
		return f, nil
	case string:
		return ParseNumber(field, t)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("%s 값 %v: %w", field, v, ErrNumericParse)
	}
}

func toSet(pubs map[string]json.RawMessage) PublisherSet {
	set := make(PublisherSet, len(pubs))
	for pub := range pubs {
		set[pub] = struct{}{}
	}
	return set
}

func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}

// IsSchemaMismatch reports whether err is a schema mismatch
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}
