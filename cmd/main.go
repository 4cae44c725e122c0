package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/tcx/internal/locales"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/desertthunder/tcx/internal/tonie"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "tcx",
		Usage:   "Manage Creative Tonies from the terminal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Tonie Cloud account email",
				Sources: cli.EnvVars("TONIE_USERNAME"),
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Tonie Cloud account password",
				Sources: cli.EnvVars("TONIE_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:    "locale",
				Usage:   "Display language (de or en)",
				Sources: cli.EnvVars("TCX_LOCALE"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		var apiErr *tonie.APIError
		if errors.As(err, &apiErr) {
			logger.Error("request failed", "kind", apiErr.Kind.String(), "status", apiErr.StatusCode, "message", apiErr.Message)
			if hint := errorHint(apiErr.Kind); hint != "" {
				fmt.Fprintln(os.Stderr, hint)
			}
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// errorHint maps an error kind to a localized suggestion for the user.
func errorHint(kind tonie.Kind) string {
	tr := locales.Load(os.Getenv("TCX_LOCALE"))
	switch kind {
	case tonie.KindAuthentication:
		return tr.T("errors.auth")
	case tonie.KindNotFound:
		return tr.T("errors.not_found")
	case tonie.KindRateLimit:
		return tr.T("errors.rate_limit")
	case tonie.KindServer:
		return tr.T("errors.server")
	}
	return ""
}
