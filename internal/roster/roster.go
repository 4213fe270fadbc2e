package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/codeforiati/gbstats/internal/dataset"
)

// Roster CSV column names. The misspelling of "Registred" is part of the
// published signatories file.
const (
	ColumnPublisherID      = "Registred Pub. ID"
	ColumnOrganisationRef  = "IATI organisation reference"
	ColumnPublisher        = "Publisher"
	ColumnSignatory        = "GB signatory"
	ColumnOrganisationType = "Organisation type"
)

// RequiredColumns returns the columns a roster file must carry
func RequiredColumns() []string {
	return []string{
		ColumnPublisherID,
		ColumnOrganisationRef,
		ColumnPublisher,
		ColumnSignatory,
		ColumnOrganisationType,
	}
}

// Entry is one signatory-publisher pairing
type Entry struct {
	PublisherID      string
	OrganisationRef  string
	Publisher        string
	Signatory        string
	OrganisationType string
}

// Load reads the roster CSV at path
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("roster 파일 열기 실패: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads roster rows in file order. Extra columns are ignored.
func Parse(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("roster 헤더 없음: %w", dataset.ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("roster 헤더 읽기 실패: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		index[col] = i
	}

	var missing []string
	for _, col := range RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("roster 필수 컬럼 없음 (%s): %w", strings.Join(missing, ", "), dataset.ErrSchemaMismatch)
	}

	cell := func(rec []string, col string) string {
		i := index[col]
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("roster 읽기 실패: %w", err)
		}
		entries = append(entries, Entry{
			PublisherID:      cell(rec, ColumnPublisherID),
			OrganisationRef:  cell(rec, ColumnOrganisationRef),
			Publisher:        cell(rec, ColumnPublisher),
			Signatory:        cell(rec, ColumnSignatory),
			OrganisationType: cell(rec, ColumnOrganisationType),
		})
	}

	return entries, nil
}

// Signatories returns distinct signatory names in first-seen order
func Signatories(entries []Entry) []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if seen[e.Signatory] {
			continue
		}
		seen[e.Signatory] = true
		names = append(names, e.Signatory)
	}
	return names
}
