package progress

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/codeforiati/gbstats/internal/dataset"
)

// ParseMode validates a configured progress mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeUpsert:
		return ModeUpsert, nil
	default:
		return "", fmt.Errorf("알 수 없는 progress mode '%s' (append|upsert)", s)
	}
}

// LoadCSV reads the series at path. A missing file is an empty series.
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Series{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("progress 파일 열기 실패: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a progress CSV. The header must equal Columns.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return Series{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("progress 헤더 읽기 실패: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, Columns) {
		return nil, fmt.Errorf("progress 컬럼 불일치 (got %v): %w", header, dataset.ErrSchemaMismatch)
	}

	series := Series{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("progress 읽기 실패: %w", err)
		}

		s := Snapshot{ID: rec[0], Date: rec[1], loaded: true}
		copy(s.raw[:], rec)
		for i, ptr := range s.countPtrs() {
			// 빈 셀은 컬럼 추가 이전의 행: 값 없음
			cell := strings.TrimSpace(rec[i+2])
			if cell == "" {
				continue
			}
			n, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("progress %d행 '%s' 값 '%s': %w", line, CountColumns[i], rec[i+2], dataset.ErrNumericParse)
			}
			*ptr = n
		}
		series = append(series, s)
	}
	return series, nil
}

// WriteCSV writes the series with the fixed header
func WriteCSV(w io.Writer, series Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, s := range series {
		if err := cw.Write(s.cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s Snapshot) cells() []string {
	if s.loaded {
		return append([]string(nil), s.raw[:]...)
	}
	cells := []string{s.ID, s.Date}
	for _, n := range s.counts() {
		cells = append(cells, strconv.Itoa(n))
	}
	return cells
}

// MarshalJSON emits the row as an object keyed by column title, in
// column order
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeKV := func(key string, value interface{}) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := writeKV(ColumnID, s.ID); err != nil {
		return nil, err
	}
	if err := writeKV(ColumnDate, s.Date); err != nil {
		return nil, err
	}
	for i, n := range s.counts() {
		if err := writeKV(CountColumns[i], n); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts counts as numbers or numeric strings
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := Snapshot{}
	if v, ok := raw[ColumnID].(string); ok {
		out.ID = v
	}
	if v, ok := raw[ColumnDate].(string); ok {
		out.Date = v
	}
	for i, ptr := range out.countPtrs() {
		col := CountColumns[i]
		switch v := raw[col].(type) {
		case json.Number:
			n, err := strconv.Atoi(v.String())
			if err != nil {
				return fmt.Errorf("'%s' 값 '%s': %w", col, v, dataset.ErrNumericParse)
			}
			*ptr = n
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("'%s' 값 '%s': %w", col, v, dataset.ErrNumericParse)
			}
			*ptr = n
		case nil:
		default:
			return fmt.Errorf("'%s' 값 %v: %w", col, v, dataset.ErrNumericParse)
		}
	}
	*s = out
	return nil
}
