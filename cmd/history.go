package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tcx/internal/formatter"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints the most recent uploads.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	tr := r.translator(cmd)

	store, err := r.historyStore()
	if err != nil {
		return err
	}

	uploads, err := store.RecentUploads(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(uploads, true)
	}
	return r.writePlain("%s", formatter.Uploads(tr, uploads))
}

// Setup creates the config file from the embedded template and initializes
// the upload-history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		defaultPath, err := shared.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil {
		r.logger.Info("config file already exists", "path", path)
	} else {
		if err := shared.CreateConfigFile(path); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", path)
	}

	r.loadConfig(cmd)
	tr := r.translator(cmd)

	store, err := r.historyStore()
	if err != nil {
		return err
	}
	defer func() {
		store.Close()
		r.store = nil
	}()

	return r.writePlainln("%s", tr.T("cli.setup.done", "path", path))
}
