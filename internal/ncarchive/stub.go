//go:build !netcdf

package ncarchive

import "github.com/ngmaloney/wind-wave/internal/models"

// Available reports whether Write can produce files
const Available = false

// Write always fails with ErrUnavailable
func Write(path string, g *models.Grid) error {
	return ErrUnavailable
}
