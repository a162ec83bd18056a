package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// wgs84WKT is the ESRI projection string for geographic WGS 84 coordinates
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

const (
	shpHeaderLen   = 100
	pointRecordLen = 8 + 20 // record header + shape type and X/Y
	shxRecordLen   = 8
)

// dbfFields lists the attribute table layout; order matches models.Columns
func dbfFields() []shp.Field {
	fields := make([]shp.Field, 0, len(models.Columns))
	for _, col := range models.Columns {
		if col == models.ColPointID {
			fields = append(fields, shp.NumberField(col, 10))
			continue
		}
		fields = append(fields, shp.FloatField(col, 18, 2))
	}
	return fields
}

// WriteShapefile writes a point shapefile bundle (.shp, .shx, .dbf, .prj,
// .cpg) named base into dir.
func WriteShapefile(dir, base string, t *models.PointTable) error {
	shpPath := filepath.Join(dir, base+".shp")

	w, err := shp.Create(shpPath, shp.POINT)
	if err != nil {
		return fmt.Errorf("creating shapefile: %w", err)
	}
	if err := writeShapes(w, t); err != nil {
		w.Close()
		return err
	}
	w.Close()

	if err := fixDbfName(dir, base); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, base+".prj"), []byte(wgs84WKT), 0o644); err != nil {
		return fmt.Errorf("writing projection: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, base+".cpg"), []byte("UTF-8"), 0o644); err != nil {
		return fmt.Errorf("writing code page: %w", err)
	}

	return checkShapefile(dir, base, t.Len())
}

func writeShapes(w *shp.Writer, t *models.PointTable) error {
	if err := w.SetFields(dbfFields()); err != nil {
		return fmt.Errorf("setting dbf fields: %w", err)
	}

	for _, rec := range t.Records {
		row := int(w.Write(&shp.Point{X: rec.X, Y: rec.Y}))
		for field, col := range models.Columns {
			if err := w.WriteAttribute(row, field, attribute(rec, col)); err != nil {
				return fmt.Errorf("writing %s of row %d: %w", col, rec.ID, err)
			}
		}
	}
	return nil
}

// fixDbfName moves the attribute table to base.dbf. go-shp v0.1.1 names it
// base+"dbf", without the dot.
func fixDbfName(dir, base string) error {
	want := filepath.Join(dir, base+".dbf")
	if _, err := os.Stat(want); err == nil {
		return nil
	}
	if err := os.Rename(filepath.Join(dir, base+"dbf"), want); err != nil {
		return fmt.Errorf("renaming attribute table: %w", err)
	}
	return nil
}

// attribute returns the DBF value of a column; missing values stay blank
func attribute(rec models.PointRecord, col string) interface{} {
	if col == models.ColPointID {
		return rec.ID
	}
	v := columnValue(rec, col)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

// checkShapefile verifies the main and index files have the sizes implied
// by the number of point records.
func checkShapefile(dir, base string, n int) error {
	want := map[string]int64{
		".shp": int64(shpHeaderLen + pointRecordLen*n),
		".shx": int64(shpHeaderLen + shxRecordLen*n),
	}
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		fi, err := os.Stat(filepath.Join(dir, base+ext))
		if err != nil {
			return fmt.Errorf("checking shapefile: %w", err)
		}
		if size, ok := want[ext]; ok && fi.Size() != size {
			return fmt.Errorf("checking shapefile: %s is %d bytes, want %d", strings.TrimPrefix(ext, "."), fi.Size(), size)
		}
	}
	return nil
}
