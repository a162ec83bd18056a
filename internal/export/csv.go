package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// Separator is the field delimiter of the text export
const Separator = ';'

// WriteCSV writes the table as delimited text with a header row. Missing
// values are written as empty fields.
func WriteCSV(w io.Writer, t *models.PointTable) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator

	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(models.Columns))
	for _, rec := range t.Records {
		for i, col := range models.Columns {
			row[i] = formatColumn(rec, col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", rec.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatColumn(rec models.PointRecord, col string) string {
	if col == models.ColPointID {
		return strconv.Itoa(rec.ID)
	}
	return formatValue(columnValue(rec, col))
}

// columnValue returns the numeric value of a non-id column
func columnValue(rec models.PointRecord, col string) float64 {
	switch col {
	case models.ColPointX:
		return rec.X
	case models.ColPointY:
		return rec.Y
	case models.ColWave:
		return rec.Wave
	case models.ColWindSpeed:
		return rec.WindSpeed
	case models.ColWindDir:
		return rec.WindDir
	}
	return math.NaN()
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
