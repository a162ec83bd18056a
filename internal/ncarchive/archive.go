// Package ncarchive keeps a local NetCDF copy of the fetched forecast subset.
// Writing requires the netcdf build tag and the C library.
package ncarchive

import (
	"errors"
	"fmt"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// ErrUnavailable is returned by Write in builds without NetCDF support
var ErrUnavailable = errors.New("netcdf support not compiled in (build with -tags netcdf)")

// FileName returns the archive name of a subset, stamped with the input date
func FileName(variant models.Variant, input models.DateParts, product models.ProductType) string {
	return fmt.Sprintf("w3g_%s_%s_%s.nc", variant, input.Day, product)
}
