// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/emosense/internal/formatter"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json, csv, markdown)",
		Value:   string(formatter.FormatText),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the output to a file instead of stdout",
	}
}

// captureFlags override the [capture] config section.
func captureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "Seconds between detections (5, 10 or 15)",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Frame source (command or directory)",
		},
		&cli.StringFlag{
			Name:    "directory",
			Aliases: []string{"d"},
			Usage:   "Image directory for the directory source",
		},
	}
}

// setupCommand handles local configuration and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file populated with defaults",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Create the session database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the login session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Account email (prompted when empty)",
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Account password (prompted without echo when empty)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "End the session and clear cached data",
				Action: r.AuthLogout,
			},
			{
				Name:  "me",
				Usage: "Fetch the current user's profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the profile image in a browser",
					},
				},
				Action: r.AuthMe,
			},
			{
				Name:  "status",
				Usage: "Show the locally held session without contacting the API",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// usersCommand handles admin user management
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage employees (admin only)",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List every user with their last emotion",
				Flags:  []cli.Flag{formatFlag(), outputFlag()},
				Action: r.UsersList,
			},
			{
				Name:  "register",
				Usage: "Register a new user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Email of the new user",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Full name of the new user",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "role",
						Usage: "Role (admin or employee)",
						Value: models.RoleEmployee,
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Initial password (prompted without echo when empty)",
					},
				},
				Action: r.UsersRegister,
			},
		},
	}
}

// historyCommand prints the signed-in user's emotion history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show your emotion history",
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Show counts per emotion instead of every entry",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Use the cached history without refreshing",
			},
		},
		Action: r.History,
	}
}

// detectCommand runs one detection against an image file
func detectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Detect the emotion in a PNG or JPEG image",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Detect,
	}
}

// captureCommand runs the capture-detect cycle without the dashboard
func captureCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Periodic capture and detection",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Capture frames and detect emotions until interrupted",
				Flags: append(captureFlags(),
					&cli.IntFlag{
						Name:  "count",
						Usage: "Stop after this many successful detections (0 runs until interrupted)",
					},
				),
				Action: r.CaptureRun,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET an endpoint and print the JSON response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "endpoint"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"p"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "POST a JSON body to an endpoint",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "endpoint"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// dashboardCommand returns the top-level TUI command.
func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive dashboard",
		Flags: append(captureFlags(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file used while the dashboard owns the terminal",
			},
		),
		Action: r.Dashboard,
	}
}
