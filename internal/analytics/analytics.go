package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeforiati/gbstats/internal/db"
	"github.com/codeforiati/gbstats/internal/progress"
)

// Analytics runs DuckDB queries over the progress series CSV
type Analytics struct {
	duck *db.DuckDB
}

// Delta is the change of one count column across the series
type Delta struct {
	Column string `json:"column"`
	First  int    `json:"first"`
	Last   int    `json:"last"`
	Change int    `json:"change"`
}

// Trend summarises the series between its first and last snapshot
type Trend struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Snapshots int     `json:"snapshots"`
	Deltas    []Delta `json:"deltas"`
}

// MonthPoint is the latest snapshot of a calendar month
type MonthPoint struct {
	Month    string            `json:"month"`
	Snapshot progress.Snapshot `json:"snapshot"`
}

// New opens an in-memory DuckDB instance
func New() (*Analytics, error) {
	duck, err := db.OpenDuckDB("")
	if err != nil {
		return nil, err
	}
	return &Analytics{duck: duck}, nil
}

// Close closes the database connection
func (a *Analytics) Close() error {
	return a.duck.Close()
}

// Trend compares the first and last snapshot of the series at csvPath.
// An empty or missing series yields a zero Trend.
func (a *Analytics) Trend(ctx context.Context, csvPath string) (*Trend, error) {
	ok, err := checkSeries(csvPath)
	if err != nil || !ok {
		return &Trend{}, err
	}

	query := fmt.Sprintf(`
		WITH s AS (%s)
		SELECT "Date", %s, (SELECT COUNT(*) FROM s)
		FROM s
		WHERE rn = (SELECT MIN(rn) FROM s) OR rn = (SELECT MAX(rn) FROM s)
		ORDER BY rn
	`, seriesSource(csvPath), countSelect())

	rows, err := a.duck.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("추세 조회 실패: %w", err)
	}
	defer rows.Close()

	var snaps []progress.Snapshot
	var total int
	for rows.Next() {
		var s progress.Snapshot
		dest := append([]interface{}{&s.Date}, countDest(&s)...)
		dest = append(dest, &total)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("추세 읽기 실패: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return &Trend{}, nil
	}

	first, last := snaps[0], snaps[len(snaps)-1]
	trend := &Trend{From: first.Date, To: last.Date, Snapshots: total}
	firstCounts, lastCounts := countValues(first), countValues(last)
	for i, col := range progress.CountColumns {
		trend.Deltas = append(trend.Deltas, Delta{
			Column: col,
			First:  firstCounts[i],
			Last:   lastCounts[i],
			Change: lastCounts[i] - firstCounts[i],
		})
	}
	return trend, nil
}

// Monthly returns the latest snapshot of each month, oldest month first
func (a *Analytics) Monthly(ctx context.Context, csvPath string) ([]MonthPoint, error) {
	ok, err := checkSeries(csvPath)
	if err != nil || !ok {
		return nil, err
	}

	query := fmt.Sprintf(`
		WITH s AS (%s),
		m AS (
			SELECT *, substr("Date", 1, 7) AS month,
				row_number() OVER (PARTITION BY substr("Date", 1, 7) ORDER BY "Date" DESC, rn DESC) AS k
			FROM s
		)
		SELECT month, coalesce("id", ''), "Date", %s
		FROM m
		WHERE k = 1
		ORDER BY month
	`, seriesSource(csvPath), countSelect())

	rows, err := a.duck.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("월별 조회 실패: %w", err)
	}
	defer rows.Close()

	var points []MonthPoint
	for rows.Next() {
		var p MonthPoint
		dest := append([]interface{}{&p.Month, &p.Snapshot.ID, &p.Snapshot.Date}, countDest(&p.Snapshot)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("월별 읽기 실패: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// checkSeries validates the header and row values with the progress codec
// before DuckDB reads the file. It reports whether any row exists.
func checkSeries(csvPath string) (bool, error) {
	series, err := progress.LoadCSV(csvPath)
	if err != nil {
		return false, err
	}
	return len(series) > 0, nil
}

func seriesSource(csvPath string) string {
	escaped := strings.ReplaceAll(csvPath, "'", "''")
	return fmt.Sprintf(`SELECT row_number() OVER () AS rn, * FROM read_csv('%s', header = true, all_varchar = true)`, escaped)
}

func countSelect() string {
	cols := make([]string, len(progress.CountColumns))
	for i, col := range progress.CountColumns {
		cols[i] = fmt.Sprintf(`coalesce(CAST(nullif(trim("%s"), '') AS INTEGER), 0)`, col)
	}
	return strings.Join(cols, ", ")
}

func countDest(s *progress.Snapshot) []interface{} {
	return []interface{}{&s.Total, &s.IATI, &s.Humanitarian, &s.V202, &s.Granular202, &s.Granular203, &s.Traceability}
}

func countValues(s progress.Snapshot) []int {
	return []int{s.Total, s.IATI, s.Humanitarian, s.V202, s.Granular202, s.Granular203, s.Traceability}
}
