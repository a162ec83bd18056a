package models

// Output column names. DBF limits field names to 10 characters.
const (
	ColPointID   = "POINTID"
	ColPointX    = "POINT_X"
	ColPointY    = "POINT_Y"
	ColWave      = "WAVE"
	ColWindSpeed = "WIND_SPEED"
	ColWindDir   = "WIND_DIREC"
)

// Columns lists the exported columns in output order
var Columns = []string{ColPointID, ColPointY, ColPointX, ColWave, ColWindDir, ColWindSpeed}

// PointRecord is one grid point of the flattened table
type PointRecord struct {
	ID        int     // Zero-based row index
	X         float64 // Longitude
	Y         float64 // Latitude
	Wave      float64 // Significant wave height (m), NaN where missing
	WindSpeed float64 // m/s
	WindDir   float64 // Degrees, direction the wind blows from
}

// PointTable is the ordered point table of one variant run
type PointTable struct {
	Records []PointRecord // Row-major over (lat, lon)
}

// Len returns the number of rows
func (t *PointTable) Len() int {
	return len(t.Records)
}
