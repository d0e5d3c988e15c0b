package db_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/lojf/pairsurvey/internal/db"
)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "survey.db") +
		"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	gdb, err := db.Open(dsn, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

// TestWALMode verifies that the DSN parameters enable WAL journal mode.
func TestWALMode(t *testing.T) {
	sqlDB := openTemp(t)

	var mode string
	if err := sqlDB.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected journal_mode=wal, got %q", mode)
	}
}

// TestOpen_CreatesIndexes verifies the unique and composite indexes the
// store relies on for join-code collisions, idempotent answers and the
// stuck-session scan.
func TestOpen_CreatesIndexes(t *testing.T) {
	sqlDB := openTemp(t)

	checks := map[string][]string{
		"sessions": {"idx_sessions_join_code", "idx_sessions_status_updated"},
		"answers":  {"idx_answer_unique"},
		"reports":  {"idx_reports_session_id"},
	}
	for table, want := range checks {
		found := indexNames(t, sqlDB, table)
		for _, name := range want {
			if !found[name] {
				t.Errorf("index %q missing from %s; found: %v", name, table, found)
			}
		}
	}
}

func indexNames(t *testing.T, sqlDB *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := sqlDB.Query("PRAGMA index_list(" + table + ")")
	if err != nil {
		t.Fatalf("PRAGMA index_list: %v", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var seq int
		var name string
		var unique bool
		var origin, partial string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out[name] = true
	}
	return out
}
