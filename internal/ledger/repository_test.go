package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ngmaloney/wind-wave/internal/models"
)

func sampleRun(started time.Time) *models.RunRecord {
	return &models.RunRecord{
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		InputDate:  "20230601",
		OutputDate: "20230602",
		Product:    models.Product1200,
		Variants: []models.VariantRun{
			{
				Variant:   models.VariantGlobal,
				Status:    models.StatusFailed,
				Stage:     "fetch",
				Error:     "GET https://example/x.nc.dds: HTTP 404",
				OutputDir: "/srv/ww/global/2023/ww_20230602",
			},
			{
				Variant:   models.VariantReg,
				Status:    models.StatusOK,
				Rows:      9,
				OutputDir: "/srv/ww/reg/2023/ww_20230602",
				Duration:  1500 * time.Millisecond,
				Uploads: []models.UploadRecord{
					{Endpoint: "primary", Remote: "ww/reg/2023/ww_20230602/ww_20230602.csv", Bytes: 400},
					{Endpoint: "primary", Remote: "ww/reg/2023/ww_20230602/ww_20230602.shp", Bytes: 352},
					{Endpoint: "secondary", Remote: "mirror/ww_20230602.csv", Error: "552 quota exceeded"},
				},
			},
		},
	}
}

func TestRepository_RecordAndRecent(t *testing.T) {
	repo := NewRepository(DBPath(t.TempDir()))

	older := sampleRun(time.Date(2023, 6, 1, 0, 5, 0, 0, time.UTC))
	if err := repo.Record(older); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := uuid.Parse(older.ID); err != nil {
		t.Errorf("Record() assigned invalid id %q: %v", older.ID, err)
	}

	newer := sampleRun(time.Date(2023, 6, 2, 0, 5, 0, 0, time.UTC))
	newer.ID = "fixed-id"
	if err := repo.Record(newer); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if newer.ID != "fixed-id" {
		t.Errorf("Record() replaced existing id with %q", newer.ID)
	}

	entries, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Recent() returned %d entries, want 4", len(entries))
	}

	first := entries[0]
	if first.RunID != "fixed-id" || first.Variant != models.VariantGlobal {
		t.Errorf("entries[0] = %s/%s, want fixed-id/global", first.RunID, first.Variant)
	}
	if first.Stage != "fetch" || first.Status != models.StatusFailed {
		t.Errorf("entries[0] status = %s/%s, want failed/fetch", first.Status, first.Stage)
	}

	reg := entries[1]
	if reg.Variant != models.VariantReg || reg.Rows != 9 {
		t.Errorf("entries[1] = %s rows %d, want reg rows 9", reg.Variant, reg.Rows)
	}
	if reg.Uploaded != 2 || reg.Failed != 1 {
		t.Errorf("entries[1] uploads = %d ok / %d failed, want 2 / 1", reg.Uploaded, reg.Failed)
	}
	if !reg.StartedAt.Equal(newer.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", reg.StartedAt, newer.StartedAt)
	}
	if reg.Product != models.Product1200 {
		t.Errorf("Product = %s, want 1200", reg.Product)
	}
}

func TestRepository_RecentLimit(t *testing.T) {
	repo := NewRepository(DBPath(t.TempDir()))
	for day := 1; day <= 3; day++ {
		if err := repo.Record(sampleRun(time.Date(2023, 6, day, 0, 0, 0, 0, time.UTC))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := repo.Recent(3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Recent(3) returned %d entries", len(entries))
	}
}

func TestRepository_DuplicateID(t *testing.T) {
	repo := NewRepository(DBPath(t.TempDir()))
	run := sampleRun(time.Now())
	if err := repo.Record(run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(run); err == nil {
		t.Error("Record() with duplicate id should fail")
	}

	// the failed transaction must not leave variant rows behind
	entries, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Recent() returned %d entries, want 2", len(entries))
	}
}
