package fetch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/codeforiati/gbstats/internal/dataset"
)

// FrequencyColumn holds the publishing cadence in timeliness_frequency.csv
const FrequencyColumn = "Frequency"

// Transform converts a raw source body into its cached form. Sources
// without a transform are stored verbatim.
func Transform(name string, body []byte) ([]byte, error) {
	switch name {
	case dataset.SourceFrequency:
		return FrequencyToJSON(body)
	case dataset.SourceVersions:
		return FlattenVersions(body)
	default:
		return body, nil
	}
}

// FrequencyToJSON reduces the timeliness CSV to a publisher -> frequency map
func FrequencyToJSON(body []byte) ([]byte, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("frequency 헤더 읽기 실패: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	keyIdx, freqIdx := -1, -1
	for i, col := range header {
		switch col {
		case dataset.AnalyticsKeyColumn:
			keyIdx = i
		case FrequencyColumn:
			freqIdx = i
		}
	}
	if keyIdx < 0 || freqIdx < 0 {
		return nil, fmt.Errorf("frequency 컬럼 '%s', '%s' 필요: %w", dataset.AnalyticsKeyColumn, FrequencyColumn, dataset.ErrSchemaMismatch)
	}

	out := map[string]string{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frequency 읽기 실패: %w", err)
		}
		if keyIdx >= len(rec) || freqIdx >= len(rec) {
			continue
		}
		out[rec[keyIdx]] = rec[freqIdx]
	}
	return json.Marshal(out)
}

// FlattenVersions inverts version -> publisher -> count into
// publisher -> version. A publisher listed under several versions keeps
// the highest version string.
func FlattenVersions(body []byte) ([]byte, error) {
	var inverted map[string]map[string]json.RawMessage
	if err := json.Unmarshal(body, &inverted); err != nil {
		return nil, fmt.Errorf("versions 파싱 실패: %w", err)
	}

	versions := make([]string, 0, len(inverted))
	for v := range inverted {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	out := map[string]string{}
	for _, v := range versions {
		for pub := range inverted[v] {
			out[pub] = v
		}
	}
	return json.Marshal(out)
}
