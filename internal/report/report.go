package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/codeforiati/gbstats/internal/aggregate"
	"github.com/codeforiati/gbstats/internal/indicator"
	"github.com/codeforiati/gbstats/internal/progress"
)

// Output file names
const (
	HomepageFile            = "homepage.json"
	SignatoriesJSONFile     = "signatories.json"
	SignatoriesCSVFile      = "signatories.csv"
	ProgressJSONFile        = "signatories-progress.json"
	ProgressCSVFile         = "signatories-progress.csv"
	SummaryFile             = "summary.json"
	MetadataFile            = "metadata.json"
	metadataTimestampLayout = time.RFC3339
)

// Files lists every artifact a complete run leaves in the output directory
func Files() []string {
	return []string{
		HomepageFile,
		SignatoriesJSONFile,
		SignatoriesCSVFile,
		ProgressJSONFile,
		ProgressCSVFile,
		SummaryFile,
		MetadataFile,
	}
}

// Metadata describes one run
type Metadata struct {
	RunID         string    `json:"run_id"`
	Started       time.Time `json:"-"`
	Finished      time.Time `json:"-"`
	StartedAt     string    `json:"started"`
	FinishedAt    string    `json:"finished"`
	Rules         string    `json:"rules"`
	VersionPolicy string    `json:"version_policy"`
	Publishers    int       `json:"publishers"`
	Signatories   int       `json:"signatories"`
}

// Writer writes report artifacts under Dir
type Writer struct {
	Dir string
}

// NewWriter creates a writer for dir
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Path returns the full path of an output file
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Homepage writes homepage.json
func (w *Writer) Homepage(stats aggregate.HomepageStats) error {
	return WriteJSON(w.Path(HomepageFile), stats)
}

// Signatories writes signatories.json and signatories.csv
func (w *Writer) Signatories(records []indicator.Record) error {
	if records == nil {
		records = []indicator.Record{}
	}
	if err := WriteJSON(w.Path(SignatoriesJSONFile), records); err != nil {
		return err
	}

	data, err := EncodeRecordsCSV(records)
	if err != nil {
		return err
	}
	return WriteFileAtomic(w.Path(SignatoriesCSVFile), data)
}

// Progress writes signatories-progress.json and signatories-progress.csv
func (w *Writer) Progress(series progress.Series) error {
	if series == nil {
		series = progress.Series{}
	}
	if err := WriteJSON(w.Path(ProgressJSONFile), series); err != nil {
		return err
	}
	return WriteProgressCSV(w.Path(ProgressCSVFile), series)
}

// Summary writes summary.json: per-signatory flags and the counts
func (w *Writer) Summary(res aggregate.Result) error {
	return WriteJSON(w.Path(SummaryFile), res)
}

// Metadata writes metadata.json with UTC RFC3339 timestamps
func (w *Writer) Metadata(m Metadata) error {
	m.StartedAt = m.Started.UTC().Format(metadataTimestampLayout)
	m.FinishedAt = m.Finished.UTC().Format(metadataTimestampLayout)
	return WriteJSON(w.Path(MetadataFile), m)
}

// WriteProgressCSV writes the series atomically to path
func WriteProgressCSV(path string, series progress.Series) error {
	var buf bytes.Buffer
	if err := progress.WriteCSV(&buf, series); err != nil {
		return fmt.Errorf("progress CSV 변환 실패: %w", err)
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// EncodeRecordsCSV renders records in indicator.Columns order. Booleans are
// written as True/False and null values as empty cells, matching the
// historical file format.
func EncodeRecordsCSV(records []indicator.Record) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(indicator.Columns); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{
			r.PublisherID,
			r.OrganisationRef,
			r.Name,
			r.Signatory,
			r.OrganisationType,
			optional(r.IATIVersion),
			pyBool(r.HumanitarianData),
			strconv.Itoa(r.HumanitarianActivities),
			strconv.Itoa(r.Activities),
			pyBool(r.Granular202),
			pyBool(r.Granular203),
			pyBool(r.Traceability),
			pyBool(r.Monthly),
			optional(r.Frequency),
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("signatories CSV 변환 실패: %w", err)
	}
	return buf.Bytes(), nil
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
