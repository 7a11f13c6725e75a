// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
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

func passwordFlag(name, usage string) cli.Flag {
	return &cli.StringFlag{
		Name:  name,
		Usage: usage + " (prompted when omitted)",
	}
}

func listenFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "listen",
		Usage: "Wait for the emailed link on the local listener instead of taking a token argument",
	}
}

// setupCommand handles setup operations for the token database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the token database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the effective configuration instead of writing a file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles sign-in state
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and inspect the session",
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Sign in and store the token pair",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags:     []cli.Flag{passwordFlag("password", "Account password")},
				Action:    r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:  "register",
				Usage: "Create an account (does not sign in)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
					&cli.StringArg{Name: "email"},
				},
				Flags:  []cli.Flag{passwordFlag("password", "Account password")},
				Action: r.AuthRegister,
			},
			{
				Name:   "status",
				Usage:  "Check the user service and the stored session",
				Action: r.AuthStatus,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Flags:  jsonFlags(),
				Action: r.AuthWhoami,
			},
		},
	}
}

// accountCommand handles profile and account recovery operations
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage the account",
		Commands: []*cli.Command{
			{
				Name:   "profile",
				Usage:  "Show the full profile",
				Flags:  jsonFlags(),
				Action: r.AccountProfile,
			},
			{
				Name:      "resend-verification",
				Usage:     "Send the verification email again",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Action:    r.AccountResendVerification,
			},
			{
				Name:      "verify-email",
				Usage:     "Verify an email address with the emailed token",
				Arguments: []cli.Argument{&cli.StringArg{Name: "token"}},
				Flags:     []cli.Flag{listenFlag()},
				Action:    r.AccountVerifyEmail,
			},
			{
				Name:      "forgot-password",
				Usage:     "Request a password reset email",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Action:    r.AccountForgotPassword,
			},
			{
				Name:      "reset-password",
				Usage:     "Set a new password with the emailed reset token",
				Arguments: []cli.Argument{&cli.StringArg{Name: "token"}},
				Flags: []cli.Flag{
					listenFlag(),
					passwordFlag("new-password", "New password"),
				},
				Action: r.AccountResetPassword,
			},
			{
				Name:      "change-username",
				Usage:     "Change the username",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags:     []cli.Flag{passwordFlag("password", "Current password")},
				Action:    r.AccountChangeUsername,
			},
			{
				Name:      "change-email",
				Usage:     "Change the email address",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Flags:     []cli.Flag{passwordFlag("password", "Current password")},
				Action:    r.AccountChangeEmail,
			},
			{
				Name:  "change-password",
				Usage: "Change the password",
				Flags: []cli.Flag{
					passwordFlag("password", "Current password"),
					passwordFlag("new-password", "New password"),
				},
				Action: r.AccountChangePassword,
			},
			{
				Name:  "delete",
				Usage: "Delete the account and sign out",
				Flags: []cli.Flag{
					passwordFlag("password", "Current password"),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.AccountDelete,
			},
		},
	}
}

// showsCommand handles catalog reads
func showsCommand(r *Runner) *cli.Command {
	formatFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown, csv or json",
			Value:   "text",
		}
	}

	return &cli.Command{
		Name:    "shows",
		Aliases: []string{"show"},
		Usage:   "Browse shows, seasons and episodes",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search shows by name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (default from config)",
					},
				},
				Action: r.ShowsSearch,
			},
			{
				Name:      "get",
				Usage:     "Show details and seasons",
				Arguments: []cli.Argument{&cli.StringArg{Name: "show-id"}},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory for --format markdown export (default: show-<id>)",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the show's page in the browser",
					},
				},
				Action: r.ShowsGet,
			},
			{
				Name:      "seasons",
				Usage:     "List a show's seasons",
				Arguments: []cli.Argument{&cli.StringArg{Name: "show-id"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.ShowsSeasons,
			},
			{
				Name:  "season",
				Usage: "Season details and its episodes",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "show-id"},
					&cli.StringArg{Name: "season"},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.ShowsSeason,
			},
			{
				Name:  "episodes",
				Usage: "List a season's episodes",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "show-id"},
					&cli.StringArg{Name: "season"},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.ShowsEpisodes,
			},
			{
				Name:  "episode",
				Usage: "Episode details with previous and next episodes",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "show-id"},
					&cli.StringArg{Name: "season"},
					&cli.StringArg{Name: "episode"},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.ShowsEpisode,
			},
			{
				Name:      "export",
				Usage:     "Write every season's episodes to files, one per season",
				Arguments: []cli.Argument{&cli.StringArg{Name: "show-id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "File format: json, csv, markdown or text",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: show-<id>-episodes)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Seasons exported concurrently",
						Value: 3,
					},
				},
				Action: r.ShowsExport,
			},
		},
	}
}

// apiCommand handles raw authenticated calls to the user service
func apiCommand(r *Runner) *cli.Command {

	call := func(name, usage string, withBody bool) *cli.Command {
		flags := []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		}
		if withBody {
			flags = append(flags, &cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON body to send",
			})
		}
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
			Flags:     flags,
			Action:    r.APICall,
		}
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the user service",
		Commands: []*cli.Command{
			call("get", "Direct GET, prints the response body", false),
			call("post", "Direct POST with JSON body", true),
			call("put", "Direct PUT with JSON body", true),
			call("delete", "Direct DELETE with optional JSON body", true),
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive show browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/tvbf-tui.log",
			},
		},
		Action: r.TUI,
	}
}
