package pipeline

import (
	"fmt"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// Stage names the step of a variant run that failed
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageTransform Stage = "transform"
	StageExport    Stage = "export"
	StagePublish   Stage = "publish"
)

// StageError attributes a failure to a variant and a stage
type StageError struct {
	Stage   Stage
	Variant models.Variant
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Variant, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
