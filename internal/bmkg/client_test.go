package bmkg

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/ngmaloney/wind-wave/internal/models"
	"github.com/ngmaloney/wind-wave/internal/opendap"
	"github.com/ngmaloney/wind-wave/internal/opendap/dapfake"
)

// regDataset has 11 time steps over a 5x5 grid slightly larger than the
// default window. Values encode their indices as t*100 + i*10 + j.
func regDataset() *dapfake.Dataset {
	lat := []float64{-30, -25, 0, 20, 25}
	lon := []float64{80, 86, 116, 146, 150}
	times := make([]float64, 11)
	for i := range times {
		times[i] = float64(i * 3)
	}

	n := len(times) * len(lat) * len(lon)
	hs := make([]float64, 0, n)
	u := make([]float64, 0, n)
	v := make([]float64, 0, n)
	for t := range times {
		for i := range lat {
			for j := range lon {
				hs = append(hs, float64(t*100+i*10+j))
				u = append(u, 3)
				v = append(v, -4)
			}
		}
	}
	// one fill value inside the window at time 6
	hs[6*25+2*5+2] = -999

	return &dapfake.Dataset{
		Name:   "w3g_reg_20230601_1200.nc",
		Dims:   []string{"time", "lat", "lon"},
		Coords: map[string][]float64{"time": times, "lat": lat, "lon": lon},
		Vars:   map[string][]float64{"hs": hs, "uwnd": u, "vwnd": v},
		Attrs: map[string]map[string]string{
			"hs": {"_FillValue": "Float32 -999", "units": "String m"},
		},
	}
}

func TestDatasetURL(t *testing.T) {
	parts := models.DateParts{Year: "2023", Month: "06", Day: "20230601"}
	tests := []struct {
		base    string
		variant models.Variant
		product models.ProductType
		want    string
	}{
		{DefaultBaseURL, models.VariantReg, models.Product1200,
			"https://maritim.bmkg.go.id/opendap/ww3gfs/2023/06/w3g_reg_20230601_1200.nc"},
		{"http://localhost:8080/dap/", models.VariantHires, models.Product0000,
			"http://localhost:8080/dap/2023/06/w3g_hires_20230601_0000.nc"},
	}

	for _, tt := range tests {
		got := DatasetURL(tt.base, tt.variant, parts, tt.product)
		if got != tt.want {
			t.Errorf("DatasetURL() = %s, want %s", got, tt.want)
		}
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s, want %s", c.baseURL, DefaultBaseURL)
	}
	if c.bbox != DefaultBBox {
		t.Errorf("bbox = %+v, want %+v", c.bbox, DefaultBBox)
	}
}

func TestClient_OpenAndRealize(t *testing.T) {
	fake := dapfake.NewServer()
	fake.Username = "user"
	fake.Password = "pass"
	fake.Add("/2023/06/w3g_reg_20230601_1200.nc", regDataset())
	server := httptest.NewServer(fake)
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Username: "user", Password: "pass"})
	parts := models.DateParts{Year: "2023", Month: "06", Day: "20230601"}

	req, err := client.Open(context.Background(), models.VariantReg, parts, models.Product1200)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if req.Variant != models.VariantReg {
		t.Errorf("Variant = %s, want reg", req.Variant)
	}

	grid, err := req.Realize(context.Background())
	if err != nil {
		t.Fatalf("Realize() error = %v", err)
	}

	wantLat := []float64{-25, 0, 20}
	wantLon := []float64{86, 116, 146}
	for i := range wantLat {
		if grid.Lat[i] != wantLat[i] {
			t.Errorf("Lat[%d] = %v, want %v", i, grid.Lat[i], wantLat[i])
		}
		if grid.Lon[i] != wantLon[i] {
			t.Errorf("Lon[%d] = %v, want %v", i, grid.Lon[i], wantLon[i])
		}
	}
	if grid.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", grid.Len())
	}

	hs, ok := grid.Field(models.VarWaveHeight)
	if !ok {
		t.Fatal("hs field missing")
	}
	// time 6, lat index 1..3, lon index 1..3
	want := []float64{611, 612, 613, 621, math.NaN(), 623, 631, 632, 633}
	for k := range want {
		if math.IsNaN(want[k]) {
			if !math.IsNaN(hs[k]) {
				t.Errorf("hs[%d] = %v, want NaN", k, hs[k])
			}
			continue
		}
		if hs[k] != want[k] {
			t.Errorf("hs[%d] = %v, want %v", k, hs[k], want[k])
		}
	}

	for _, name := range []string{models.VarWindU, models.VarWindV} {
		if _, ok := grid.Field(name); !ok {
			t.Errorf("field %s missing", name)
		}
	}
}

func TestClient_ProductSelectsTimeIndex(t *testing.T) {
	fake := dapfake.NewServer()
	fake.Add("/2023/06/w3g_reg_20230601_0000.nc", regDataset())
	server := httptest.NewServer(fake)
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	parts := models.DateParts{Year: "2023", Month: "06", Day: "20230601"}

	req, err := client.Open(context.Background(), models.VariantReg, parts, models.Product0000)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	grid, err := req.Realize(context.Background())
	if err != nil {
		t.Fatalf("Realize() error = %v", err)
	}
	hs, _ := grid.Field(models.VarWaveHeight)
	if hs[0] != 1011 {
		t.Errorf("hs[0] = %v, want 1011 (time index 10)", hs[0])
	}
}

func TestClient_MissingDataset(t *testing.T) {
	server := httptest.NewServer(dapfake.NewServer())
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	parts := models.DateParts{Year: "2023", Month: "06", Day: "20230601"}

	_, err := client.Open(context.Background(), models.VariantGlobal, parts, models.Product1200)
	var statusErr *opendap.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Open() error = %v, want StatusError", err)
	}
	if statusErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestClient_EmptyWindow(t *testing.T) {
	fake := dapfake.NewServer()
	fake.Add("/2023/06/w3g_reg_20230601_1200.nc", regDataset())
	server := httptest.NewServer(fake)
	defer server.Close()

	client := NewClient(Options{
		BaseURL: server.URL,
		BBox:    BBox{LatMin: 40, LatMax: 50, LonMin: 86, LonMax: 146},
	})
	parts := models.DateParts{Year: "2023", Month: "06", Day: "20230601"}

	req, err := client.Open(context.Background(), models.VariantReg, parts, models.Product1200)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_, err = req.Realize(context.Background())
	if !errors.Is(err, opendap.ErrEmptySelection) {
		t.Errorf("Realize() error = %v, want ErrEmptySelection", err)
	}
}
