// Package table flattens a derived wave grid into the exported point table
package table

import (
	"fmt"
	"math"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// Build drops the raw wind components, renames the wave field and flattens
// the grid row-major (latitude outer, longitude inner). Every numeric value
// is rounded to 2 decimals and POINTID starts at 0.
//
// The grid must carry hs, WIND_SPEED and WIND_DIREC. It is modified in place.
func Build(g *models.Grid) (*models.PointTable, error) {
	g.Drop(models.VarWindU, models.VarWindV)
	if err := g.Rename(models.VarWaveHeight, models.ColWave); err != nil {
		return nil, fmt.Errorf("building point table: %w", err)
	}

	wave, err := field(g, models.ColWave)
	if err != nil {
		return nil, err
	}
	speed, err := field(g, models.ColWindSpeed)
	if err != nil {
		return nil, err
	}
	dir, err := field(g, models.ColWindDir)
	if err != nil {
		return nil, err
	}

	nLon := len(g.Lon)
	records := make([]models.PointRecord, 0, g.Len())
	for i, lat := range g.Lat {
		for j, lon := range g.Lon {
			k := i*nLon + j
			records = append(records, models.PointRecord{
				ID:        k,
				X:         Round(lon),
				Y:         Round(lat),
				Wave:      Round(wave[k]),
				WindSpeed: Round(speed[k]),
				WindDir:   RoundDirection(dir[k]),
			})
		}
	}

	return &models.PointTable{Records: records}, nil
}

func field(g *models.Grid, name string) ([]float64, error) {
	v, ok := g.Field(name)
	if !ok {
		return nil, fmt.Errorf("building point table: field %s missing", name)
	}
	return v, nil
}

// Round rounds v to 2 decimal places. Negative zero becomes zero so that
// exports never print "-0.00".
func Round(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// RoundDirection rounds a bearing to 2 decimals, keeping it in [0, 360).
func RoundDirection(deg float64) float64 {
	r := Round(deg)
	if r >= 360 {
		r -= 360
	}
	return r
}
