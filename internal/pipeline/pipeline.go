package pipeline

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/codeforiati/gbstats/internal/db"
)

// Run represents one recorded pipeline execution
type Run struct {
	ID            string
	Status        string
	Rules         string
	VersionPolicy string
	Error         sql.NullString
	Publishers    int
	Signatories   int
	CreatedAt     time.Time
	StartedAt     sql.NullTime
	CompletedAt   sql.NullTime
}

// StageRecord represents a stage of a run
type StageRecord struct {
	RunID       string
	Stage       string
	Order       int
	Status      string
	Error       sql.NullString
	StartedAt   sql.NullTime
	CompletedAt sql.NullTime
}

// Status constants
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
)

// Service handles run tracking
type Service struct {
	db *db.DB
}

// NewService creates a new run tracking service
func NewService(database *db.DB) *Service {
	return &Service{db: database}
}

// Create creates a new run
func (s *Service) Create(id, rules, versionPolicy string) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, status, rules, version_policy)
		VALUES (?, 'pending', ?, ?)
	`, id, rules, versionPolicy)

	if err != nil {
		return fmt.Errorf("실행 생성 실패: %w", err)
	}
	return nil
}

// AddStage registers a stage of a run
func (s *Service) AddStage(runID, stage string, order int) error {
	_, err := s.db.Exec(`
		INSERT INTO run_stages (run_id, stage, stage_order, status)
		VALUES (?, ?, ?, 'pending')
	`, runID, stage, order)

	if err != nil {
		return fmt.Errorf("단계 추가 실패: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (s *Service) Get(id string) (*Run, error) {
	var r Run
	err := s.db.QueryRow(`
		SELECT id, status, rules, version_policy, error, publishers, signatories, created_at, started_at, completed_at
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Status, &r.Rules, &r.VersionPolicy, &r.Error, &r.Publishers, &r.Signatories, &r.CreatedAt, &r.StartedAt, &r.CompletedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("실행 '%s'을(를) 찾을 수 없습니다", id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns runs, newest first
func (s *Service) List(status string, limit int) ([]Run, error) {
	query := `SELECT id, status, rules, version_policy, error, publishers, signatories, created_at, started_at, completed_at FROM runs`

	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY created_at DESC, rowid DESC`

	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Status, &r.Rules, &r.VersionPolicy, &r.Error, &r.Publishers, &r.Signatories, &r.CreatedAt, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStages returns the stages of a run in execution order
func (s *Service) GetStages(runID string) ([]StageRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, stage, stage_order, status, error, started_at, completed_at
		FROM run_stages
		WHERE run_id = ?
		ORDER BY stage_order
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var st StageRecord
		if err := rows.Scan(&st.RunID, &st.Stage, &st.Order, &st.Status, &st.Error, &st.StartedAt, &st.CompletedAt); err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// UpdateStatus updates run status. errMsg is stored for failed runs.
func (s *Service) UpdateStatus(id, status, errMsg string) error {
	var query string
	switch status {
	case StatusRunning:
		query = `UPDATE runs SET status = ?, error = NULLIF(?, ''), started_at = CURRENT_TIMESTAMP WHERE id = ?`
	case StatusComplete, StatusFailed:
		query = `UPDATE runs SET status = ?, error = NULLIF(?, ''), completed_at = CURRENT_TIMESTAMP WHERE id = ?`
	default:
		query = `UPDATE runs SET status = ?, error = NULLIF(?, '') WHERE id = ?`
	}

	_, err := s.db.Exec(query, status, errMsg, id)
	return err
}

// UpdateStageStatus updates a stage status within a run
func (s *Service) UpdateStageStatus(runID, stage, status, errMsg string) error {
	var query string
	switch status {
	case StatusRunning:
		query = `UPDATE run_stages SET status = ?, error = NULLIF(?, ''), started_at = CURRENT_TIMESTAMP WHERE run_id = ? AND stage = ?`
	case StatusComplete, StatusFailed, StatusSkipped:
		query = `UPDATE run_stages SET status = ?, error = NULLIF(?, ''), completed_at = CURRENT_TIMESTAMP WHERE run_id = ? AND stage = ?`
	default:
		query = `UPDATE run_stages SET status = ?, error = NULLIF(?, '') WHERE run_id = ? AND stage = ?`
	}

	_, err := s.db.Exec(query, status, errMsg, runID, stage)
	return err
}

// SetCounts stores the population sizes seen by a run
func (s *Service) SetCounts(id string, publishers, signatories int) error {
	_, err := s.db.Exec(`UPDATE runs SET publishers = ?, signatories = ? WHERE id = ?`, publishers, signatories, id)
	return err
}

// GetProgress returns how many stages of a run are done
func (s *Service) GetProgress(runID string) (completed, total int, err error) {
	err = s.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN status IN ('complete', 'skipped') THEN 1 END),
			COUNT(*)
		FROM run_stages WHERE run_id = ?
	`, runID).Scan(&completed, &total)
	return
}

// Latest returns the most recent run, or nil when none exists
func (s *Service) Latest() (*Run, error) {
	runs, err := s.List("", 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// Delete removes a run and its stages
func (s *Service) Delete(id string) error {
	// 단계 먼저 삭제
	s.db.Exec(`DELETE FROM run_stages WHERE run_id = ?`, id)

	_, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	return err
}
