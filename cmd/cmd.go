// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show your account information",
		Action: r.Me,
	}
}

func householdsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "households",
		Aliases: []string{"hh"},
		Usage:   "List your households",
		Action:  r.Households,
	}
}

func toniesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tonies",
		Usage: "List the Creative Tonies in a household",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "household",
				Aliases: []string{"H"},
				Usage:   "Household ID (defaults to the first household)",
			},
			&cli.BoolFlag{
				Name:  "chapters",
				Usage: "Include the chapter listing of each tonie",
			},
		},
		Action: r.Tonies,
	}
}

func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload an audio file to a Creative Tonie",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tonie",
				Aliases: []string{"t"},
				Usage:   "Target Creative Tonie ID",
			},
			&cli.StringFlag{
				Name:    "household",
				Aliases: []string{"H"},
				Usage:   "Household ID (defaults to the first household)",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Chapter title (defaults to the file name)",
			},
		},
		Action: r.Upload,
	}
}

func shuffleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shuffle",
		Usage: "Shuffle the chapters of a Creative Tonie",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tonie",
				Aliases: []string{"t"},
				Usage:   "Target Creative Tonie ID",
			},
			&cli.StringFlag{
				Name:    "household",
				Aliases: []string{"H"},
				Usage:   "Household ID (defaults to the first household)",
			},
		},
		Action: r.Shuffle,
	}
}

func clearCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove all chapters from a Creative Tonie",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tonie",
				Aliases: []string{"t"},
				Usage:   "Target Creative Tonie ID",
			},
			&cli.StringFlag{
				Name:    "household",
				Aliases: []string{"H"},
				Usage:   "Household ID (defaults to the first household)",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: r.Clear,
	}
}

func presetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preset",
		Usage: "Manage saved presets",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all presets",
				Action: r.PresetList,
			},
			{
				Name:      "run",
				Usage:     "Run a preset",
				ArgsUsage: "<name>",
				Action:    r.PresetRun,
			},
			{
				Name:      "create",
				Usage:     "Create a new preset",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Preset description",
					},
					&cli.StringSliceFlag{
						Name:    "action",
						Aliases: []string{"a"},
						Usage:   "Action spec: type:target[:source], repeatable",
					},
				},
				Action: r.PresetCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a preset",
				ArgsUsage: "<name>",
				Action:    r.PresetDelete,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent uploads",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of uploads to show",
				Value: 20,
			},
		},
		Action: r.History,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a configuration file and initialize the database",
		Action: r.Setup,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "household",
				Aliases: []string{"H"},
				Usage:   "Household ID (defaults to the first household)",
			},
		},
		Action: r.TUI,
	}
}
