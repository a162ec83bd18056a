// Package bmkg fetches the daily WAVEWATCH III wind/wave grids published by
// BMKG over OPeNDAP.
package bmkg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ngmaloney/wind-wave/internal/models"
	"github.com/ngmaloney/wind-wave/internal/opendap"
)

// DefaultBaseURL is the THREDDS root of the BMKG ocean forecast archive
const DefaultBaseURL = "https://maritim.bmkg.go.id/opendap/ww3gfs"

// BBox is an inclusive latitude/longitude window in degrees
type BBox struct {
	LatMin float64 `toml:"lat_min"`
	LatMax float64 `toml:"lat_max"`
	LonMin float64 `toml:"lon_min"`
	LonMax float64 `toml:"lon_max"`
}

// DefaultBBox covers the Indonesian maritime continent
var DefaultBBox = BBox{LatMin: -25, LatMax: 20, LonMin: 86, LonMax: 146}

// Fetcher defines the interface for opening a day's forecast grid
type Fetcher interface {
	// Open reads the dataset metadata and prepares the subset selection.
	// No grid values are transferred until the request is realized.
	Open(ctx context.Context, variant models.Variant, input models.DateParts, product models.ProductType) (*Request, error)
}

// Options configures a Client
type Options struct {
	BaseURL  string
	Username string
	Password string
	BBox     BBox
	Timeout  time.Duration // per HTTP request; 0 uses the opendap default
}

// Client implements Fetcher against a THREDDS OPeNDAP server
type Client struct {
	baseURL string
	bbox    BBox
	dap     *opendap.Client
}

// NewClient creates a BMKG dataset client
func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	bbox := opts.BBox
	if bbox == (BBox{}) {
		bbox = DefaultBBox
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		bbox:    bbox,
		dap: opendap.NewClient(opendap.ClientOptions{
			Timeout:  opts.Timeout,
			Username: opts.Username,
			Password: opts.Password,
		}),
	}
}

// DatasetURL builds the address of one variant's forecast file
func DatasetURL(baseURL string, variant models.Variant, input models.DateParts, product models.ProductType) string {
	return fmt.Sprintf("%s/%s/%s/w3g_%s_%s_%s.nc",
		strings.TrimRight(baseURL, "/"), input.Year, input.Month, variant, input.Day, product)
}

// Open implements Fetcher
func (c *Client) Open(ctx context.Context, variant models.Variant, input models.DateParts, product models.ProductType) (*Request, error) {
	addr := DatasetURL(c.baseURL, variant, input, product)
	ds, err := c.dap.Open(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("opening %s dataset: %w", variant, err)
	}

	sel := ds.Select(models.VarWaveHeight, models.VarWindU, models.VarWindV).
		ISel(models.DimTime, product.ForecastIndex()).
		Sel(models.DimLat, c.bbox.LatMin, c.bbox.LatMax).
		Sel(models.DimLon, c.bbox.LonMin, c.bbox.LonMax)
	if err := sel.Err(); err != nil {
		return nil, fmt.Errorf("selecting %s subset: %w", variant, err)
	}

	return &Request{URL: ds.URL(), Variant: variant, sel: sel}, nil
}

// Request is an opened, not yet transferred, forecast subset
type Request struct {
	URL     string // redacted dataset address, safe to log
	Variant models.Variant

	sel *opendap.Selection
}

// Realize transfers the subset and returns it as a grid with the time
// dimension squeezed out.
func (r *Request) Realize(ctx context.Context) (*models.Grid, error) {
	sub, err := r.sel.Realize(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s subset: %w", r.Variant, err)
	}
	if len(sub.Dims) != 2 || sub.Dims[0].Name != models.DimLat || sub.Dims[1].Name != models.DimLon {
		return nil, fmt.Errorf("fetching %s subset: %w: unexpected dimensions %v", r.Variant, opendap.ErrUnsupported, sub.Dims)
	}

	g := models.NewGrid(sub.Coords[models.DimLat], sub.Coords[models.DimLon])
	for _, name := range []string{models.VarWaveHeight, models.VarWindU, models.VarWindV} {
		if err := g.SetField(name, sub.Vars[name]); err != nil {
			return nil, fmt.Errorf("fetching %s subset: %w", r.Variant, err)
		}
	}
	return g, nil
}
