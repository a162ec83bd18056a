package ledger

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// Repository handles persistence of run records
type Repository struct {
	dbPath string
}

// NewRepository creates a repository backed by the database at dbPath
func NewRepository(dbPath string) *Repository {
	return &Repository{dbPath: dbPath}
}

func (r *Repository) open() (*sql.DB, error) {
	if err := EnsureSchema(r.dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", r.dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Record stores a run with all of its variant and upload outcomes. A run
// without an ID is assigned a new UUID.
func (r *Repository) Record(run *models.RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	db, err := r.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, finished_at, input_date, output_date, product)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.InputDate, run.OutputDate, string(run.Product))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for _, v := range run.Variants {
		res, err := tx.Exec(`
			INSERT INTO variant_runs (run_id, variant, status, stage, error, row_count, output_dir, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, string(v.Variant), v.Status, v.Stage, v.Error, v.Rows, v.OutputDir, v.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("saving %s run: %w", v.Variant, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}

		for _, u := range v.Uploads {
			_, err := tx.Exec(`
				INSERT INTO uploads (variant_run_id, endpoint, remote_path, bytes, error)
				VALUES (?, ?, ?, ?, ?)
			`, id, u.Endpoint, u.Remote, u.Bytes, u.Error)
			if err != nil {
				return fmt.Errorf("saving upload %s: %w", u.Remote, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Recent returns the most recent variant runs, newest first
func (r *Repository) Recent(limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT r.id, r.started_at, r.output_date, r.product,
			v.variant, v.status, v.stage, v.error, v.row_count,
			(SELECT COUNT(*) FROM uploads u WHERE u.variant_run_id = v.id AND (u.error IS NULL OR u.error = '')),
			(SELECT COUNT(*) FROM uploads u WHERE u.variant_run_id = v.id AND u.error <> '')
		FROM variant_runs v
		JOIN runs r ON r.id = v.run_id
		ORDER BY r.started_at DESC, v.id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var product, variant string
		var stage, errText sql.NullString // Handle potential nulls

		if err := rows.Scan(&e.RunID, &e.StartedAt, &e.OutputDate, &product,
			&variant, &e.Status, &stage, &errText, &e.Rows, &e.Uploaded, &e.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.Product = models.ProductType(product)
		e.Variant = models.Variant(variant)
		e.Stage = stage.String
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}

	return entries, nil
}
