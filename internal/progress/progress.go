package progress

import (
	"time"

	"github.com/codeforiati/gbstats/internal/aggregate"
)

// Column titles of signatories-progress.csv, in file order
const (
	ColumnID           = "id"
	ColumnDate         = "Date"
	ColumnTotal        = "Total Signatories"
	ColumnIATI         = "Publishing open data using IATI"
	ColumnHumanitarian = "Publishing data on their humanitarian activities"
	ColumnV202         = "Using v2.02 of the IATI standard or later"
	ColumnGranular202  = "Providing more granular v2.02"
	ColumnGranular203  = "Providing more granular v2.03"
	ColumnTraceability = "Publishing Traceability Information"
)

// Columns is the fixed column set of the progress series
var Columns = []string{
	ColumnID,
	ColumnDate,
	ColumnTotal,
	ColumnIATI,
	ColumnHumanitarian,
	ColumnV202,
	ColumnGranular202,
	ColumnGranular203,
	ColumnTraceability,
}

// CountColumns are the integer columns
var CountColumns = Columns[2:]

const columnCount = 9

// DateLayout is the ISO calendar date format of the Date column
const DateLayout = "2006-01-02"

// Snapshot is one dated row of aggregate counts. Rows read from a file
// keep their original cells and are written back unchanged; the parsed
// counts (blank cells as 0) are for reporting only.
type Snapshot struct {
	ID           string
	Date         string
	Total        int
	IATI         int
	Humanitarian int
	V202         int
	Granular202  int
	Granular203  int
	Traceability int

	raw    [columnCount]string
	loaded bool
}

// Loaded reports whether the row was read from an existing series
func (s Snapshot) Loaded() bool {
	return s.loaded
}

// NewSnapshot builds the row for a run at now (UTC date). New rows carry
// an empty id.
func NewSnapshot(now time.Time, counts aggregate.Counts) Snapshot {
	return Snapshot{
		Date:         now.UTC().Format(DateLayout),
		Total:        counts.TotalSignatories,
		IATI:         counts.IATI,
		Humanitarian: counts.Humanitarian,
		V202:         counts.V202OrLater,
		Granular202:  counts.Granular202,
		Granular203:  counts.Granular203,
		Traceability: counts.Traceability,
	}
}

// counts returns the integer fields in CountColumns order
func (s Snapshot) counts() []int {
	return []int{s.Total, s.IATI, s.Humanitarian, s.V202, s.Granular202, s.Granular203, s.Traceability}
}

func (s *Snapshot) countPtrs() []*int {
	return []*int{&s.Total, &s.IATI, &s.Humanitarian, &s.V202, &s.Granular202, &s.Granular203, &s.Traceability}
}

// Series is the append-only historical log, oldest first
type Series []Snapshot

// Append returns a new series with row added at the end. The input is
// never modified and no date deduplication happens.
func Append(series Series, row Snapshot) Series {
	out := make(Series, len(series), len(series)+1)
	copy(out, series)
	return append(out, row)
}

// Upsert replaces the last row with the same date, keeping its id, or
// appends when no row has that date.
func Upsert(series Series, row Snapshot) Series {
	out := make(Series, len(series), len(series)+1)
	copy(out, series)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Date == row.Date {
			row.ID = out[i].ID
			out[i] = row
			return out
		}
	}
	return append(out, row)
}

// Mode selects how a run's snapshot joins the series
type Mode string

const (
	ModeAppend Mode = "append"
	ModeUpsert Mode = "upsert"
)

// Record applies mode to the series
func Record(series Series, row Snapshot, mode Mode) Series {
	if mode == ModeUpsert {
		return Upsert(series, row)
	}
	return Append(series, row)
}

// Last returns the newest snapshot
func (s Series) Last() (Snapshot, bool) {
	if len(s) == 0 {
		return Snapshot{}, false
	}
	return s[len(s)-1], true
}
