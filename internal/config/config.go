// Package config holds the run configuration: defaults, overridden by a
// TOML file, overridden in turn by command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ngmaloney/wind-wave/internal/bmkg"
	"github.com/ngmaloney/wind-wave/internal/models"
	"github.com/ngmaloney/wind-wave/internal/publish"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration read from strings such as "90s" or "10m"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Source configures the OPeNDAP dataset server
type Source struct {
	BaseURL  string    `toml:"base_url"`
	Username string    `toml:"username"`
	Password string    `toml:"password"`
	BBox     bmkg.BBox `toml:"bbox"`
}

// Secondary is the mirror endpoint, which only receives the text export of
// one variant
type Secondary struct {
	publish.Endpoint
	Variant string `toml:"variant"`
}

// Enabled reports whether a mirror host is configured
func (s Secondary) Enabled() bool {
	return s.Host != ""
}

// Config is the complete run configuration
type Config struct {
	WorkDir       string   `toml:"work_dir"`
	LogFile       string   `toml:"log_file"`
	LogLevel      string   `toml:"log_level"`
	RunDate       string   `toml:"run_date"` // YYYY-MM-DD, empty for today
	ProductType   string   `toml:"product_type"`
	Variants      []string `toml:"variants"`
	Parallel      bool     `toml:"parallel"`
	KeepNetCDF    bool     `toml:"keep_netcdf"`
	FetchTimeout  Duration `toml:"fetch_timeout"`
	UploadTimeout Duration `toml:"upload_timeout"`

	Source    Source           `toml:"source"`
	Primary   publish.Endpoint `toml:"primary"`
	Secondary Secondary        `toml:"secondary"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		WorkDir:       ".",
		LogFile:       "wind-wave.log",
		LogLevel:      "info",
		ProductType:   string(models.Product1200),
		Variants:      []string{"global", "hires", "reg"},
		FetchTimeout:  Duration{10 * time.Minute},
		UploadTimeout: Duration{5 * time.Minute},
		Source: Source{
			BaseURL: bmkg.DefaultBaseURL,
			BBox:    bmkg.DefaultBBox,
		},
		Primary: publish.Endpoint{
			Name:     "primary",
			Protocol: publish.ProtocolFTP,
			BasePath: "sidik/model/ww_bmkg",
		},
		Secondary: Secondary{
			Endpoint: publish.Endpoint{
				Name:     "secondary",
				Protocol: publish.ProtocolFTP,
				BasePath: "lautnusantara",
			},
			Variant: string(models.VariantReg),
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults. Unknown keys are rejected and a relative work_dir is taken
// relative to the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("reading config %s: %w: unknown keys %s", path, ErrInvalid, strings.Join(keys, ", "))
	}

	if md.IsDefined("work_dir") && !filepath.IsAbs(cfg.WorkDir) {
		cfg.WorkDir = filepath.Join(filepath.Dir(path), cfg.WorkDir)
	}
	return cfg, nil
}

// LogPath returns the log file location
func (c *Config) LogPath() string {
	if c.LogFile == "" || filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(c.WorkDir, c.LogFile)
}

// Product returns the parsed product type
func (c *Config) Product() (models.ProductType, error) {
	return models.ParseProductType(c.ProductType)
}

// VariantList returns the parsed, de-duplicated variants
func (c *Config) VariantList() ([]models.Variant, error) {
	return models.ParseVariants(c.Variants)
}

// Dates resolves the run dates from run_date, or from now when unset
func (c *Config) Dates(now time.Time) (models.RunDates, error) {
	if c.RunDate == "" {
		return models.ResolveDates(now), nil
	}
	day, err := models.ParseRunDate(c.RunDate)
	if err != nil {
		return models.RunDates{}, fmt.Errorf("%w: run_date %q: %v", ErrInvalid, c.RunDate, err)
	}
	return models.ResolveDates(day), nil
}

// Validate reports every problem found in the configuration
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if c.WorkDir == "" {
		add("work_dir is empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log_level %q (want debug, info, warn or error)", c.LogLevel)
	}
	if _, err := c.Product(); err != nil {
		add("%v", err)
	}
	if len(c.Variants) == 0 {
		add("no variants selected")
	} else if _, err := c.VariantList(); err != nil {
		add("%v", err)
	}
	if _, err := c.Dates(time.Now()); err != nil {
		errs = append(errs, err)
	}
	if c.FetchTimeout.Duration < 0 || c.UploadTimeout.Duration < 0 {
		add("timeouts must not be negative")
	}

	if c.Source.BaseURL == "" {
		add("source.base_url is empty")
	}
	bb := c.Source.BBox
	if bb.LatMin >= bb.LatMax || bb.LonMin >= bb.LonMax {
		add("source.bbox is empty: lat [%g, %g] lon [%g, %g]", bb.LatMin, bb.LatMax, bb.LonMin, bb.LonMax)
	}

	validateEndpoint(c.Primary, add)
	if c.Secondary.Enabled() {
		validateEndpoint(c.Secondary.Endpoint, add)
		if _, err := models.ParseVariant(c.Secondary.Variant); err != nil {
			add("secondary.variant: %v", err)
		}
	}

	return errors.Join(errs...)
}

func validateEndpoint(ep publish.Endpoint, add func(string, ...interface{})) {
	if ep.Host == "" {
		add("%s.host is empty", ep.Name)
		return
	}
	switch strings.ToLower(ep.Protocol) {
	case "", publish.ProtocolFTP, publish.ProtocolSFTP:
	default:
		add("%s.protocol %q (want ftp or sftp)", ep.Name, ep.Protocol)
	}
	if ep.Port < 0 || ep.Port > 65535 {
		add("%s.port %d out of range", ep.Name, ep.Port)
	}
}
