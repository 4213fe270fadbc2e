package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 2

// 기본 테이블 (v1)
const schemaBase = `
-- 메타데이터
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- 수집한 원천 데이터 (source 당 1개)
CREATE TABLE IF NOT EXISTS artifacts (
    name TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    sha256 TEXT NOT NULL,
    size INTEGER DEFAULT 0,
    fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// v2: 실행 이력
const schemaV2 = `
-- 실행
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    status TEXT DEFAULT 'pending',
    rules TEXT,
    version_policy TEXT,
    error TEXT,
    publishers INTEGER DEFAULT 0,
    signatories INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    started_at DATETIME,
    completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- 실행 단계
CREATE TABLE IF NOT EXISTS run_stages (
    run_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    stage_order INTEGER DEFAULT 0,
    status TEXT DEFAULT 'pending',
    error TEXT,
    started_at DATETIME,
    completed_at DATETIME,
    PRIMARY KEY (run_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_run_stages_order ON run_stages(run_id, stage_order);
`

// DB wraps sql.DB with helper methods
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates the database
func Open(path string) (*DB, error) {
	// 디렉토리 생성
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("디렉토리 생성 실패: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("DB 열기 실패: %w", err)
	}

	// 연결 테스트
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	d := &DB{DB: db, path: path}

	// 스키마 자동 초기화
	if err := d.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("스키마 초기화 실패: %w", err)
	}

	return d, nil
}

// Init initializes the database schema
func (d *DB) Init() error {
	// 1. 기본 스키마 적용
	if _, err := d.Exec(schemaBase); err != nil {
		return fmt.Errorf("기본 스키마 적용 실패: %w", err)
	}

	// 2. 마이그레이션 실행
	if err := d.migrate(); err != nil {
		return fmt.Errorf("마이그레이션 실패: %w", err)
	}

	// 3. v2 테이블 적용
	if _, err := d.Exec(schemaV2); err != nil {
		return fmt.Errorf("v2 스키마 적용 실패: %w", err)
	}

	// 4. 버전 저장
	_, err := d.Exec(`INSERT OR REPLACE INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, CURRENT_TIMESTAMP)`, schemaVersion)
	if err != nil {
		return fmt.Errorf("버전 저장 실패: %w", err)
	}

	return nil
}

// migrate runs database migrations
func (d *DB) migrate() error {
	currentVersion, err := d.GetVersion()
	if err != nil {
		return err
	}

	// v1 -> v2: artifacts에 size 컬럼 추가 (이미 있으면 무시)
	if currentVersion == 1 {
		d.Exec(`ALTER TABLE artifacts ADD COLUMN size INTEGER DEFAULT 0`)
	}

	return nil
}

// GetVersion returns current schema version
func (d *DB) GetVersion() (int, error) {
	var version int
	err := d.QueryRow(`SELECT CAST(value AS INTEGER) FROM metadata WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}
