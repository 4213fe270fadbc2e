package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// DuckDB wraps sql.DB for DuckDB. It backs the analytical queries over
// the progress series.
type DuckDB struct {
	*sql.DB
	path string
}

// OpenDuckDB opens a DuckDB database. An empty path opens an in-memory
// database.
func OpenDuckDB(path string) (*DuckDB, error) {
	if path != "" {
		// 디렉토리 생성
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("디렉토리 생성 실패: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("DuckDB 열기 실패: %w", err)
	}

	// 연결 테스트
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("DuckDB 연결 실패: %w", err)
	}

	return &DuckDB{DB: db, path: path}, nil
}

// Path returns the database file path ("" for in-memory)
func (d *DuckDB) Path() string {
	return d.path
}

// IsDuckDB checks if path is a DuckDB file
func IsDuckDB(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	// 헤더 8바이트 뒤 매직 "DUCK"
	header := make([]byte, 12)
	if _, err := f.Read(header); err != nil {
		return false
	}
	return string(header[8:12]) == "DUCK"
}
