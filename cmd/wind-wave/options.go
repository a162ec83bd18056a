package main

import (
	"github.com/urfave/cli/v2"

	"github.com/ngmaloney/wind-wave/internal/config"
	"github.com/ngmaloney/wind-wave/internal/publish"
)

// loadConfig reads the configuration file, if any, and applies the flags
// and environment variables that were set on top of it
func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(cCtx.String("config"))
	if err != nil {
		return nil, err
	}

	setString := func(flag string, dst *string) {
		if cCtx.IsSet(flag) {
			*dst = cCtx.String(flag)
		}
	}
	setBool := func(flag string, dst *bool) {
		if cCtx.IsSet(flag) {
			*dst = cCtx.Bool(flag)
		}
	}

	setString("work-dir", &cfg.WorkDir)
	setString("run-date", &cfg.RunDate)
	setString("product-type", &cfg.ProductType)
	setString("log-file", &cfg.LogFile)
	setString("log-level", &cfg.LogLevel)
	if cCtx.IsSet("variants") {
		cfg.Variants = cCtx.StringSlice("variants")
	}
	setBool("parallel", &cfg.Parallel)
	setBool("keep-netcdf", &cfg.KeepNetCDF)

	setString("source-url", &cfg.Source.BaseURL)
	setString("source-username", &cfg.Source.Username)
	setString("source-password", &cfg.Source.Password)

	applyEndpoint(cCtx, "primary", &cfg.Primary)
	applyEndpoint(cCtx, "secondary", &cfg.Secondary.Endpoint)
	setString("secondary-variant", &cfg.Secondary.Variant)

	return cfg, nil
}

// applyEndpoint overrides the endpoint fields whose flags were set
func applyEndpoint(cCtx *cli.Context, section string, ep *publish.Endpoint) {
	for flag, dst := range map[string]*string{
		"host":        &ep.Host,
		"protocol":    &ep.Protocol,
		"username":    &ep.Username,
		"password":    &ep.Password,
		"base-path":   &ep.BasePath,
		"known-hosts": &ep.KnownHosts,
	} {
		if name := section + "-" + flag; cCtx.IsSet(name) {
			*dst = cCtx.String(name)
		}
	}
	if name := section + "-port"; cCtx.IsSet(name) {
		ep.Port = cCtx.Int(name)
	}
}
