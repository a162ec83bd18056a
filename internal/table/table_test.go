package table

import (
	"math"
	"testing"

	"github.com/ngmaloney/wind-wave/internal/models"
)

func testGrid(t *testing.T, lat, lon []float64) *models.Grid {
	t.Helper()
	g := models.NewGrid(lat, lon)
	n := g.Len()
	hs := make([]float64, n)
	speed := make([]float64, n)
	dir := make([]float64, n)
	for i := 0; i < n; i++ {
		hs[i] = float64(i) + 0.123
		speed[i] = float64(i) * 1.005
		dir[i] = float64(i) * 10.456
	}
	for name, values := range map[string][]float64{
		models.VarWaveHeight: hs,
		models.VarWindU:      make([]float64, n),
		models.VarWindV:      make([]float64, n),
		models.ColWindSpeed:  speed,
		models.ColWindDir:    dir,
	} {
		if err := g.SetField(name, values); err != nil {
			t.Fatalf("SetField(%s) error = %v", name, err)
		}
	}
	return g
}

func TestBuild_RowMajorOrder(t *testing.T) {
	lat := []float64{-25, -12.5, 0}
	lon := []float64{86, 116, 146}
	table, err := Build(testGrid(t, lat, lon))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if table.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", table.Len())
	}

	for i, r := range table.Records {
		if r.ID != i {
			t.Errorf("record %d ID = %d", i, r.ID)
		}
		if r.Y != lat[i/3] || r.X != lon[i%3] {
			t.Errorf("record %d at (%v, %v), want (%v, %v)", i, r.X, r.Y, lon[i%3], lat[i/3])
		}
	}

	last := table.Records[8]
	if last.Wave != 8.12 {
		t.Errorf("Wave = %v, want 8.12", last.Wave)
	}
	if last.WindDir != 83.65 {
		t.Errorf("WindDir = %v, want 83.65", last.WindDir)
	}
}

func TestBuild_RowCountMatchesCrop(t *testing.T) {
	// 0.5 degree grid over the default crop box
	var lat, lon []float64
	for y := -25.0; y <= 20; y += 0.5 {
		lat = append(lat, y)
	}
	for x := 86.0; x <= 146; x += 0.5 {
		lon = append(lon, x)
	}

	table, err := Build(testGrid(t, lat, lon))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := 91 * 121; table.Len() != want {
		t.Errorf("Len() = %d, want %d", table.Len(), want)
	}
}

func TestBuild_DropsRawFields(t *testing.T) {
	g := testGrid(t, []float64{0}, []float64{100})
	if _, err := Build(g); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, name := range []string{models.VarWindU, models.VarWindV, models.VarWaveHeight} {
		if _, ok := g.Field(name); ok {
			t.Errorf("field %s still present", name)
		}
	}
}

func TestBuild_MissingDerivedField(t *testing.T) {
	g := models.NewGrid([]float64{0}, []float64{100})
	g.SetField(models.VarWaveHeight, []float64{1})

	if _, err := Build(g); err == nil {
		t.Error("Build() without derived fields expected error")
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.234, 1.23},
		{1.235001, 1.24},
		{-0.001, 0},
		{359.996, 360},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := RoundDirection(359.996); got != 0 {
		t.Errorf("RoundDirection(359.996) = %v, want 0", got)
	}
	if !math.IsNaN(Round(math.NaN())) {
		t.Error("Round(NaN) should stay NaN")
	}
	if math.Signbit(Round(-0.001)) {
		t.Error("Round(-0.001) returned negative zero")
	}
}
