package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeforiati/gbstats/internal/db"
	"github.com/codeforiati/gbstats/internal/fetch"
)

// ErrNotFound is returned by Get for an artifact that was never stored
var ErrNotFound = errors.New("artifact not found")

// Artifact is a cached source body with its digest
type Artifact struct {
	Name      string    `json:"name"`
	Body      []byte    `json:"-"`
	SHA256    string    `json:"sha256"`
	Size      int       `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store keeps one artifact per source in the artifacts table
type Store struct {
	db *db.DB
}

// NewStore creates a new cache store
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Digest returns the hex sha256 of body
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Put stores or replaces an artifact
func (s *Store) Put(name string, body []byte) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO artifacts (name, body, sha256, size, fetched_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, name, body, Digest(body), len(body))
	if err != nil {
		return fmt.Errorf("캐시 저장 실패 '%s': %w", name, err)
	}
	return nil
}

// PutAll replaces the cached set in one transaction. Either all are stored
// or none are. Artifacts not in the new set are removed.
func (s *Store) PutAll(artifacts []fetch.Artifact) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("트랜잭션 시작 실패: %w", err)
	}
	defer tx.Rollback()

	// 설정에서 빠진 소스의 이전 artifact 정리
	prune := `DELETE FROM artifacts`
	args := make([]interface{}, len(artifacts))
	if len(artifacts) > 0 {
		prune += ` WHERE name NOT IN (?` + strings.Repeat(`, ?`, len(artifacts)-1) + `)`
		for i, a := range artifacts {
			args[i] = a.Name
		}
	}
	if _, err := tx.Exec(prune, args...); err != nil {
		return fmt.Errorf("캐시 정리 실패: %w", err)
	}

	for _, a := range artifacts {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO artifacts (name, body, sha256, size, fetched_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		`, a.Name, a.Body, Digest(a.Body), len(a.Body))
		if err != nil {
			return fmt.Errorf("캐시 저장 실패 '%s': %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("캐시 커밋 실패: %w", err)
	}
	return nil
}

// Get retrieves an artifact by name
func (s *Store) Get(name string) (*Artifact, error) {
	var a Artifact
	err := s.db.QueryRow(`
		SELECT name, body, sha256, size, fetched_at FROM artifacts WHERE name = ?
	`, name).Scan(&a.Name, &a.Body, &a.SHA256, &a.Size, &a.FetchedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("'%s': %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("캐시 조회 실패 '%s': %w", name, err)
	}
	return &a, nil
}

// List returns artifact metadata without bodies, ordered by name
func (s *Store) List() ([]Artifact, error) {
	rows, err := s.db.Query(`SELECT name, sha256, size, fetched_at FROM artifacts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Name, &a.SHA256, &a.Size, &a.FetchedAt); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// Verify recomputes the digest of name and compares it to the stored one
func (s *Store) Verify(name string) (bool, error) {
	a, err := s.Get(name)
	if err != nil {
		return false, err
	}
	return Digest(a.Body) == a.SHA256, nil
}
