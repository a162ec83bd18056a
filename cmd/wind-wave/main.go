package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "wind-wave",
		Usage:     "Daily BMKG wave and wind extraction, export and publication",
		UsageText: "wind-wave [global options] [run|history]",
		Flags:     globalFlags(),
		Action:    runAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Fetch, transform, export and publish every configured variant (default)",
				Action: runAction,
			},
			{
				Name:  "history",
				Usage: "Show recent variant runs from the run ledger",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   30,
						Usage:   "Number of variant runs to show",
					},
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "Print a static table even when attached to a terminal",
					},
				},
				Action: historyAction,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "TOML configuration file",
			EnvVars: []string{"WW_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "work-dir",
			Usage:   "Root of the local output tree, log file and run ledger",
			EnvVars: []string{"WW_WORK_DIR"},
		},
		&cli.StringFlag{
			Name:    "run-date",
			Usage:   "Run as if today were this date (YYYY-MM-DD)",
			EnvVars: []string{"WW_RUN_DATE"},
		},
		&cli.StringFlag{
			Name:    "product-type",
			Aliases: []string{"p"},
			Usage:   "Forecast product, 1200 or 0000",
			EnvVars: []string{"WW_PRODUCT_TYPE"},
		},
		&cli.StringSliceFlag{
			Name:    "variants",
			Usage:   "Dataset variants to process (global, hires, reg)",
			EnvVars: []string{"WW_VARIANTS"},
		},
		&cli.BoolFlag{
			Name:    "parallel",
			Usage:   "Process variants concurrently",
			EnvVars: []string{"WW_PARALLEL"},
		},
		&cli.BoolFlag{
			Name:    "keep-netcdf",
			Usage:   "Also write the fetched subset as NetCDF (needs a netcdf build)",
			EnvVars: []string{"WW_KEEP_NETCDF"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "Log file, relative to the work directory unless absolute",
			EnvVars: []string{"WW_LOG_FILE"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			EnvVars: []string{"WW_LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Log to the log file only",
			EnvVars: []string{"WW_QUIET"},
		},
		&cli.StringFlag{
			Name:    "source-url",
			Usage:   "OPeNDAP base address",
			EnvVars: []string{"WW_SOURCE_URL"},
		},
		&cli.StringFlag{
			Name:    "source-username",
			EnvVars: []string{"WW_SOURCE_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "source-password",
			EnvVars: []string{"WW_SOURCE_PASSWORD"},
		},
	}
	flags = append(flags, endpointFlags("primary", "Archive host")...)
	flags = append(flags, endpointFlags("secondary", "Mirror host; empty disables the mirror upload")...)
	flags = append(flags, &cli.StringFlag{
		Name:    "secondary-variant",
		Usage:   "Variant whose text export goes to the mirror",
		EnvVars: []string{"WW_SECONDARY_VARIANT"},
	})
	return flags
}

// endpointFlags returns the connection flags of one upload endpoint, named
// after its config section
func endpointFlags(section, hostUsage string) []cli.Flag {
	env := func(key string) []string {
		return []string{"WW_" + strings.ToUpper(section) + "_" + key}
	}
	return []cli.Flag{
		&cli.StringFlag{Name: section + "-host", Usage: hostUsage, EnvVars: env("HOST")},
		&cli.StringFlag{Name: section + "-protocol", Usage: "ftp or sftp", EnvVars: env("PROTOCOL")},
		&cli.IntFlag{Name: section + "-port", Usage: "Port; 0 uses the protocol default", EnvVars: env("PORT")},
		&cli.StringFlag{Name: section + "-username", EnvVars: env("USERNAME")},
		&cli.StringFlag{Name: section + "-password", EnvVars: env("PASSWORD")},
		&cli.StringFlag{Name: section + "-base-path", Usage: "Remote directory uploads go under", EnvVars: env("BASE_PATH")},
		&cli.StringFlag{Name: section + "-known-hosts", Usage: "known_hosts file for sftp; empty skips host key checks", EnvVars: env("KNOWN_HOSTS")},
	}
}
