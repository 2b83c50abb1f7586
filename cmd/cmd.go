// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/snapmix/internal/repositories"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format: text, csv or md",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the export to this file",
		},
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var all []cli.Flag
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand signs in to Spotify
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SpotifyAuth,
	}
}

// profileCommand shows the Spotify account the recommendations are seeded from
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "profile",
		Usage:  "Show the Spotify profile and top tracks",
		Flags:  flags([]cli.Flag{configFlag()}, outputFlags()),
		Action: r.Profile,
	}
}

// parseCommand turns analysis text into parameters offline
func parseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Parse analysis text into recommendation parameters (reads stdin without a file)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: flags(outputFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "List skipped lines and why",
			},
		}),
		Action: r.Parse,
	}
}

func imageFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "image",
		Aliases:  []string{"i"},
		Usage:    "Path to the photo",
		Required: required,
	}
}

// analyzeCommand runs only the vision model
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze a photo's mood without contacting Spotify",
		Flags: flags([]cli.Flag{configFlag(), imageFlag(true)}, outputFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Also print the model response",
			},
		}),
		Action: r.Analyze,
	}
}

// recommendCommand runs the full photo → recommendations cycle
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Get Spotify recommendations for a photo",
		Flags: flags([]cli.Flag{configFlag(), imageFlag(true)}, outputFlags(), exportFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Record the run in the history database",
			},
		}),
		Action: r.Recommend,
	}
}

// historyCommand manages saved runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse saved runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved runs",
				Flags: flags([]cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: repositories.DefaultRecentLimit,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Only show runs of this Spotify user ID",
					},
				}, outputFlags()),
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show or export one run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "sequence"},
				},
				Flags: flags([]cli.Flag{configFlag(), &cli.BoolFlag{Name: "raw", Usage: "Also print the model response"}},
					outputFlags(), exportFlags()),
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "sequence"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.HistoryDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive TUI",
		Flags: []cli.Flag{
			configFlag(),
			imageFlag(false),
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Record every run in the history database",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI is running",
				Value: "./tmp/snapmix-tui.log",
			},
		},
		Action: r.TUI,
	}
}
