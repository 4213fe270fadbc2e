package db

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDB를 위한 임시 DB 생성 헬퍼
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	// 임시 디렉토리 생성
	tmpDir, err := os.MkdirTemp("", "gbstats-test-*")
	if err != nil {
		t.Fatalf("임시 디렉토리 생성 실패: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("DB 열기 실패: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func TestOpen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gbstats-test-*")
	if err != nil {
		t.Fatalf("임시 디렉토리 생성 실패: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "nested", "cache.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("DB 열기 실패: %v", err)
	}
	defer db.Close()

	// 파일이 생성되었는지 확인
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("DB 파일이 생성되지 않음")
	}
	if db.Path() != dbPath {
		t.Errorf("Path = %s, want %s", db.Path(), dbPath)
	}
}

func TestInit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// 테이블 존재 확인
	tables := []string{"metadata", "artifacts", "runs", "run_stages"}

	for _, table := range tables {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("테이블 %s가 존재하지 않음: %v", table, err)
		}
	}

	// 재초기화는 멱등
	if err := db.Init(); err != nil {
		t.Errorf("재초기화 실패: %v", err)
	}
}

func TestGetVersion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("버전 조회 실패: %v", err)
	}

	if version != schemaVersion {
		t.Errorf("version = %d, want %d", version, schemaVersion)
	}
}

func TestExecAndQueryRow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	result, err := db.Exec(`INSERT INTO artifacts (name, body, sha256, size) VALUES (?, ?, ?, ?)`, "versions", []byte(`{}`), "abc", 2)
	if err != nil {
		t.Fatalf("INSERT 실패: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		t.Fatalf("RowsAffected 실패: %v", err)
	}
	if affected != 1 {
		t.Errorf("RowsAffected = %d, want 1", affected)
	}

	var body []byte
	var size int
	if err := db.QueryRow(`SELECT body, size FROM artifacts WHERE name = ?`, "versions").Scan(&body, &size); err != nil {
		t.Fatalf("QueryRow 실패: %v", err)
	}
	if string(body) != `{}` || size != 2 {
		t.Errorf("body = %s, size = %d", body, size)
	}
}

func TestCountRows(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	db.Exec(`INSERT INTO runs (id, status) VALUES (?, ?)`, "run-1", "complete")
	db.Exec(`INSERT INTO runs (id, status) VALUES (?, ?)`, "run-2", "failed")

	n, err := CountRows(db, "runs")
	if err != nil {
		t.Fatalf("CountRows 실패: %v", err)
	}
	if n != 2 {
		t.Errorf("runs = %d, want 2", n)
	}

	if _, err := CountRows(db, "no_such_table"); err == nil {
		t.Error("없는 테이블은 에러")
	}
}

func TestClose(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// Close 후 쿼리 실행 시 에러 확인
	db.Close()

	_, err := db.Exec(`SELECT 1`)
	if err == nil {
		t.Error("Close 후에도 쿼리가 실행됨")
	}
}

func TestOpenDuckDBInMemory(t *testing.T) {
	duck, err := OpenDuckDB("")
	if err != nil {
		t.Fatalf("DuckDB 열기 실패: %v", err)
	}
	defer duck.Close()

	var n int
	if err := duck.QueryRow(`SELECT 40 + 2`).Scan(&n); err != nil {
		t.Fatalf("쿼리 실패: %v", err)
	}
	if n != 42 {
		t.Errorf("n = %d, want 42", n)
	}
	if duck.Path() != "" {
		t.Errorf("in-memory Path = %q", duck.Path())
	}
}

func TestIsDuckDB(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if IsDuckDB(db.Path()) {
		t.Error("SQLite 파일을 DuckDB로 판단")
	}
	if IsDuckDB(filepath.Join(t.TempDir(), "none.duckdb")) {
		t.Error("없는 파일은 false")
	}
}
