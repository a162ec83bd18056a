// Package export writes a point table as delimited text and as a point
// shapefile bundle.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ngmaloney/wind-wave/internal/models"
)

// Extensions lists the files of a bundle in upload order. The first entry
// is the text export.
var Extensions = []string{".csv", ".shp", ".shx", ".dbf", ".prj", ".cpg"}

// Bundle describes the files written for one table
type Bundle struct {
	Dir   string
	Base  string
	Files []string // ordered as Extensions
}

// TextFile returns the path of the delimited text export
func (b *Bundle) TextFile() string {
	return b.Files[0]
}

// Write exports t as base.csv plus the shapefile bundle into dir. Files are
// produced in a staging directory and moved into dir only once all of them
// are complete; on failure dir is left untouched.
func Write(t *models.PointTable, dir, base string) (*Bundle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeText(filepath.Join(staging, base+".csv"), t); err != nil {
		return nil, err
	}
	if err := WriteShapefile(staging, base, t); err != nil {
		return nil, err
	}

	b := &Bundle{Dir: dir, Base: base}
	for _, ext := range Extensions {
		name := base + ext
		dst := filepath.Join(dir, name)
		if err := os.Rename(filepath.Join(staging, name), dst); err != nil {
			return nil, fmt.Errorf("moving %s into place: %w", name, err)
		}
		b.Files = append(b.Files, dst)
	}
	return b, nil
}

func writeText(path string, t *models.PointTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating text export: %w", err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("writing text export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing text export: %w", err)
	}
	return nil
}
