package models

import "time"

// Variant run statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunRecord is the persisted outcome of one invocation
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	InputDate  string // YYYYMMDD
	OutputDate string // YYYYMMDD
	Product    ProductType
	Variants   []VariantRun
}

// Failed lists the variants that did not complete
func (r *RunRecord) Failed() []Variant {
	var out []Variant
	for _, v := range r.Variants {
		if v.Status != StatusOK {
			out = append(out, v.Variant)
		}
	}
	return out
}

// VariantRun is the outcome of one variant within a run
type VariantRun struct {
	Variant   Variant
	Status    string
	Stage     string // failing stage, empty on success
	Error     string
	Rows      int
	OutputDir string
	Duration  time.Duration
	Uploads   []UploadRecord
}

// UploadRecord is the outcome of one file transfer
type UploadRecord struct {
	Endpoint string
	Remote   string
	Bytes    int64
	Error    string
}

// HistoryEntry is one variant run as listed by the history view
type HistoryEntry struct {
	RunID      string
	StartedAt  time.Time
	OutputDate string
	Product    ProductType
	Variant    Variant
	Status     string
	Stage      string
	Error      string
	Rows       int
	Uploaded   int
	Failed     int
}
