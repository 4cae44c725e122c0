package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/tcx/internal/formatter"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Tonies lists the Creative Tonies of a household.
func (r *Runner) Tonies(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}
	tr := r.translator(cmd)

	householdID, err := r.resolveHousehold(ctx, cmd)
	if err != nil {
		return err
	}

	tonies, err := r.api.CreativeTonies(ctx, householdID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tonies, true)
	}
	if err := r.writePlain("%s", formatter.Tonies(tr, tonies)); err != nil {
		return err
	}
	if cmd.Bool("chapters") {
		for _, t := range tonies {
			if len(t.Chapters) == 0 {
				continue
			}
			if err := r.writePlainln("\n%s:", t.Name); err != nil {
				return err
			}
			if err := r.writePlain("%s", formatter.Chapters(t.Chapters)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Upload sends one audio file to a Creative Tonie and records it in the
// upload history.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return fmt.Errorf("%w: audio file", shared.ErrMissingArgument)
	}
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInvalidArgument, file)
	}

	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}
	tr := r.translator(cmd)

	householdID, err := r.resolveHousehold(ctx, cmd)
	if err != nil {
		return err
	}
	tonieID, err := r.resolveTonie(cmd)
	if err != nil {
		return err
	}

	if err := r.writePlainln("%s", tr.T("cli.upload.uploading", "filename", filepath.Base(file))); err != nil {
		return err
	}

	tonie, err := r.api.UploadAudioFile(ctx, file, householdID, tonieID, cmd.String("title"))
	if err != nil {
		return err
	}

	if store, err := r.historyStore(); err == nil {
		if err := store.RecordUpload(ctx, file, householdID, tonieID); err != nil {
			r.logger.Warn("failed to record upload", "error", err)
		}
	} else {
		r.logger.Warn("upload history unavailable", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tonie, true)
	}
	return r.writePlainln("%s", tr.T("cli.upload.done", "filename", filepath.Base(file), "tonie", tonie.Name))
}

// Shuffle reorders the chapters of a Creative Tonie.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}
	tr := r.translator(cmd)

	householdID, err := r.resolveHousehold(ctx, cmd)
	if err != nil {
		return err
	}
	tonieID, err := r.resolveTonie(cmd)
	if err != nil {
		return err
	}

	tonie, err := r.api.ShuffleChapters(ctx, householdID, tonieID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tonie, true)
	}
	if len(tonie.Chapters) < 2 {
		return r.writePlainln("%s", tr.T("cli.shuffle.too_few"))
	}
	return r.writePlainln("%s", tr.T("cli.shuffle.done", "tonie", tonie.Name))
}

// Clear removes every chapter from a Creative Tonie after confirmation.
func (r *Runner) Clear(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}
	tr := r.translator(cmd)

	householdID, err := r.resolveHousehold(ctx, cmd)
	if err != nil {
		return err
	}
	tonieID, err := r.resolveTonie(cmd)
	if err != nil {
		return err
	}

	tonie, err := r.api.CreativeTonie(ctx, householdID, tonieID)
	if err != nil {
		return err
	}
	if len(tonie.Chapters) == 0 {
		if cmd.Bool("json") {
			return r.writeJSON(tonie, true)
		}
		return r.writePlainln("%s", tr.T("cli.clear.empty", "tonie", tonie.Name))
	}

	if !cmd.Bool("yes") {
		ok, err := r.confirm(tr.T("cli.clear.confirm", "tonie", tonie.Name))
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlainln("%s", tr.T("cli.clear.aborted"))
		}
	}

	cleared, err := r.api.ClearChapters(ctx, householdID, tonieID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(cleared, true)
	}
	return r.writePlainln("%s", tr.T("cli.clear.done", "tonie", cleared.Name))
}
