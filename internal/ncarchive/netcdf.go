//go:build netcdf

package ncarchive

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// Available reports whether Write can produce files
const Available = true

var units = map[string]string{
	models.DimLat:        "degrees_north",
	models.DimLon:        "degrees_east",
	models.VarWaveHeight: "m",
	models.VarWindU:      "m s-1",
	models.VarWindV:      "m s-1",
}

// Write stores the grid coordinates and every field as a NetCDF-4 file
func Write(path string, g *models.Grid) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer ds.Close()

	latDim, err := ds.AddDim(models.DimLat, uint64(len(g.Lat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim(models.DimLon, uint64(len(g.Lon)))
	if err != nil {
		return err
	}

	type column struct {
		v    netcdf.Var
		data []float64
	}
	var cols []column

	add := func(name string, dims []netcdf.Dim, data []float64) error {
		v, err := ds.AddVar(name, netcdf.DOUBLE, dims)
		if err != nil {
			return fmt.Errorf("adding %s: %w", name, err)
		}
		if u, ok := units[name]; ok {
			if err := v.Attr("units").WriteBytes([]byte(u)); err != nil {
				return fmt.Errorf("writing %s units: %w", name, err)
			}
		}
		cols = append(cols, column{v, data})
		return nil
	}

	if err := add(models.DimLat, []netcdf.Dim{latDim}, g.Lat); err != nil {
		return err
	}
	if err := add(models.DimLon, []netcdf.Dim{lonDim}, g.Lon); err != nil {
		return err
	}
	for _, name := range g.FieldNames() {
		data, _ := g.Field(name)
		if err := add(name, []netcdf.Dim{latDim, lonDim}, data); err != nil {
			return err
		}
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("ending define mode: %w", err)
	}
	for _, c := range cols {
		if err := c.v.WriteFloat64s(c.data); err != nil {
			return fmt.Errorf("writing variable: %w", err)
		}
	}
	return nil
}
