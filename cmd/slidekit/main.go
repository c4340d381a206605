// @title			slidekit dev server API
// @version		1.0
// @description	Health, live-reload and build history endpoints of the slidekit server.
// @BasePath		/
package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/slidekit/internal/config"
	"github.com/mtlprog/slidekit/internal/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "slidekit",
		Usage: "Build, serve and smoke-test a reveal.js presentation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: config.DefaultRoot,
				Usage: "Project root to stage and serve",
			},
			&cli.StringFlag{
				Name:  "host",
				Value: config.DefaultHost,
				Usage: "Host to bind the server to",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
			},
			&cli.StringFlag{
				Name:  "dist",
				Value: config.DefaultDist,
				Usage: "Output directory, relative to the root unless absolute",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: string(logger.FormatJSON),
				Usage: "Log format (json, text)",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL URL for build history (optional)",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")), logger.ParseFormat(c.String("log-format")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "clean",
				Usage:  "Remove the dist directory",
				Action: runClean,
			},
			{
				Name:   "build",
				Usage:  "Clean and copy the presentation into the dist directory",
				Action: runBuild,
			},
			{
				Name:   "test",
				Usage:  "Check that the template files are present",
				Flags:  testFlags(),
				Action: runTest,
			},
			{
				Name:  "serve",
				Usage: "Start the development server with live reload",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "open",
						Value: true,
						Usage: "Open a browser window on startup",
					},
				},
				Action: runServe,
			},
			{
				Name:    "serve:prod",
				Aliases: []string{"serve-prod"},
				Usage:   "Start a production-like server with cache headers and no watching",
				Action:  runServeProd,
			},
			{
				Name:   "lint",
				Usage:  "Placeholder; linting runs in pre-commit hooks",
				Action: runLint,
			},
			{
				Name:  "reload",
				Usage: "Tell browsers connected to a running dev server to reload",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Changed path reported to the browsers",
					},
				},
				Action: runReload,
			},
			{
				Name:  "history",
				Usage: "Show recorded builds (requires --database-url)",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 10,
						Usage: "Number of builds to show",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Show aggregate statistics instead of the list",
					},
					&cli.IntFlag{
						Name:  "prune",
						Value: -1,
						Usage: "Keep only the newest N builds",
					},
				},
				Action: runHistory,
			},
			{
				Name:  "default",
				Usage: "Run the test task, optionally after a build",
				Flags: append(testFlags(), &cli.BoolFlag{
					Name:  "build",
					Usage: "Build before testing",
				}),
				Action: runDefault,
			},
		},
		Action: runDefault,
	}
}

func testFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "refs",
			Usage: "Also verify local asset references in index.html",
		},
		&cli.BoolFlag{
			Name:  "live",
			Usage: "Also start a server and probe it",
		},
		&cli.IntFlag{
			Name:  "live-port",
			Value: config.DefaultSmokePort,
			Usage: "Port for the live probe server",
		},
		&cli.StringFlag{
			Name:  "runner",
			Usage: "Test-runner command to run afterwards, e.g. \"npm test\"",
		},
	}
}
