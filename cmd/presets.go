package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/tcx/internal/formatter"
	"github.com/desertthunder/tcx/internal/presets"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/desertthunder/tcx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PresetList prints all saved presets.
func (r *Runner) PresetList(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	tr := r.translator(cmd)

	store, err := r.presetStore()
	if err != nil {
		return err
	}
	all, err := store.Load()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(all, true)
	}
	if len(all) == 0 {
		return r.writePlainln("%s", tr.T("cli.preset.list.empty"))
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, len(names))
	for i, name := range names {
		preset := all[name]
		rows[i] = []string{name, preset.Description, strconv.Itoa(len(preset.Actions))}
	}
	return r.writePlain("%s", formatter.Table([]string{"Name", "Description", "Actions"}, rows))
}

// PresetRun executes a preset and prints per-action results.
func (r *Runner) PresetRun(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("%w: preset name", shared.ErrMissingArgument)
	}

	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}
	tr := r.translator(cmd)

	store, err := r.presetStore()
	if err != nil {
		return err
	}
	recorder, err := r.historyStore()
	if err != nil {
		r.logger.Warn("upload history unavailable", "error", err)
	}

	var engineRecorder tasks.UploadRecorder
	if recorder != nil {
		engineRecorder = recorder
	}
	engine := tasks.NewPresetEngine(r.api, store, engineRecorder)

	if err := r.writePlainln("%s", tr.T("cli.preset.run.running", "name", name)); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
		close(done)
	}()

	result, err := engine.Run(ctx, progress, name)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	for _, action := range result.Results {
		status := "ok"
		detail := strings.Join(action.Detail, ", ")
		if action.Status == "error" {
			status = "failed"
			detail = action.Message
		}
		if err := r.writePlainln("  %-8s %s -> %s: %s", action.Action, action.Target, status, detail); err != nil {
			return err
		}
	}
	return r.writePlainln("%s", tr.T("cli.preset.run.done",
		"name", name,
		"ok", strconv.Itoa(result.SuccessCount),
		"failed", strconv.Itoa(result.FailedCount),
	))
}

// PresetCreate stores a new preset from --action specs (type:target[:source]).
func (r *Runner) PresetCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("%w: preset name", shared.ErrMissingArgument)
	}

	r.loadConfig(cmd)
	tr := r.translator(cmd)

	specs := cmd.StringSlice("action")
	if len(specs) == 0 {
		return fmt.Errorf("%w: at least one --action", shared.ErrMissingArgument)
	}

	actions := make([]presets.Action, len(specs))
	for i, spec := range specs {
		action, err := parseActionSpec(spec)
		if err != nil {
			return err
		}
		actions[i] = action
	}

	store, err := r.presetStore()
	if err != nil {
		return err
	}
	if err := store.Create(name, cmd.String("description"), actions); err != nil {
		return err
	}
	return r.writePlainln("%s", tr.T("cli.preset.create.done", "name", name))
}

// PresetDelete removes a preset.
func (r *Runner) PresetDelete(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("%w: preset name", shared.ErrMissingArgument)
	}

	r.loadConfig(cmd)
	tr := r.translator(cmd)

	store, err := r.presetStore()
	if err != nil {
		return err
	}
	if err := store.Delete(name); err != nil {
		return err
	}
	return r.writePlainln("%s", tr.T("cli.preset.delete.done", "name", name))
}

// parseActionSpec parses "type:target" or "upload:target:source".
func parseActionSpec(spec string) (presets.Action, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return presets.Action{}, fmt.Errorf("%w: action spec %q, want type:target[:source]", shared.ErrInvalidArgument, spec)
	}

	action := presets.Action{Type: parts[0], Target: parts[1]}
	if len(parts) == 3 {
		action.Source = parts[2]
	}

	switch action.Type {
	case "shuffle", "clear":
	case "upload":
		if action.Source == "" {
			return presets.Action{}, fmt.Errorf("%w: upload action needs a source", shared.ErrMissingArgument)
		}
	default:
		return presets.Action{}, fmt.Errorf("%w: unknown action type %q", shared.ErrInvalidArgument, action.Type)
	}
	return action, nil
}
