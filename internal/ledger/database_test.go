package ledger

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestDBPath(t *testing.T) {
	expected := filepath.Join("/srv/ww", "data", "wind-wave.db")
	if got := DBPath("/srv/ww"); got != expected {
		t.Errorf("DBPath() = %v, want %v", got, expected)
	}
}

func TestEnsureSchema_Persistence(t *testing.T) {
	dbPath := DBPath(t.TempDir())

	// 1. Initialize schema (creates the data directory)
	if err := EnsureSchema(dbPath); err != nil {
		t.Fatalf("First EnsureSchema failed: %v", err)
	}

	// 2. Insert a record
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	_, err = db.Exec(`INSERT INTO runs (id, started_at, finished_at, input_date, output_date, product) VALUES ('r1', '2023-06-02 00:00:00', '2023-06-02 00:01:00', '20230601', '20230602', '1200')`)
	db.Close()
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	// 3. Initialize schema again (should not drop tables)
	if err := EnsureSchema(dbPath); err != nil {
		t.Fatalf("Second EnsureSchema failed: %v", err)
	}

	// 4. Verify record exists
	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = 'r1'").Scan(&count); err != nil {
		t.Fatalf("Failed to query record: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record, got %d. Data was likely lost due to table drop.", count)
	}
}
