package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/tcx/internal/presets"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/desertthunder/tcx/internal/tonie"
)

// TonieAPI defines the API operations the engine needs.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type TonieAPI interface {
	Households(ctx context.Context) ([]tonie.Household, error)
	CreativeTonies(ctx context.Context, householdID string) ([]tonie.CreativeTonie, error)
	UploadAudioFile(ctx context.Context, filePath, householdID, tonieID, title string) (*tonie.CreativeTonie, error)
	ShuffleChapters(ctx context.Context, householdID, tonieID string) (*tonie.CreativeTonie, error)
	ClearChapters(ctx context.Context, householdID, tonieID string) (*tonie.CreativeTonie, error)
}

// UploadRecorder persists completed uploads. Recording failures are logged
// but never fail the upload itself.
type UploadRecorder interface {
	RecordUpload(ctx context.Context, file, householdID, tonieID string) error
}

// ActionResult is the outcome of one preset action.
type ActionResult struct {
	Action  string   `json:"action"`
	Target  string   `json:"target"`
	Status  string   `json:"status"` // "success" or "error"
	Detail  []string `json:"detail,omitempty"`
	Message string   `json:"error,omitempty"`
}

// RunResult contains all data from a preset run.
type RunResult struct {
	Preset       string         `json:"preset"`
	Results      []ActionResult `json:"results"`
	SuccessCount int            `json:"success_count"`
	FailedCount  int            `json:"failed_count"`
}

// PresetEngine executes presets against the Tonie Cloud API.
type PresetEngine struct {
	api      TonieAPI
	store    *presets.Store
	recorder UploadRecorder
}

// NewPresetEngine creates an engine. The recorder may be nil.
func NewPresetEngine(api TonieAPI, store *presets.Store, recorder UploadRecorder) *PresetEngine {
	return &PresetEngine{api: api, store: store, recorder: recorder}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PresetEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes the named preset. Each action's failure is captured in its
// result so later actions still run; only setup failures (unknown preset, no
// households) abort the whole run.
func (e *PresetEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, name string) (*RunResult, error) {
	preset, err := e.store.Get(name)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, resolveHouseholdUpdate())

	households, err := e.api.Households(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list households: %v", shared.ErrAPIRequest, err)
	}
	if len(households) == 0 {
		return nil, shared.ErrHouseholdNotFound
	}
	defaultHousehold := households[0].ID

	result := &RunResult{Preset: name}
	total := len(preset.Actions)

	for i, action := range preset.Actions {
		e.sendProgress(progress, actionUpdate(i+1, total, action.Type, action.Target))

		householdID := action.Household
		if householdID == "" {
			householdID = defaultHousehold
		}

		detail, err := e.executeAction(ctx, progress, action, householdID)
		if err != nil {
			result.Results = append(result.Results, ActionResult{
				Action:  action.Type,
				Target:  action.Target,
				Status:  "error",
				Message: err.Error(),
			})
			result.FailedCount++
			continue
		}
		result.Results = append(result.Results, ActionResult{
			Action: action.Type,
			Target: action.Target,
			Status: "success",
			Detail: detail,
		})
		result.SuccessCount++
	}

	return result, nil
}

func (e *PresetEngine) executeAction(ctx context.Context, progress chan<- ProgressUpdate, action presets.Action, householdID string) ([]string, error) {
	switch action.Type {
	case "shuffle":
		return e.shuffleAction(ctx, progress, action.Target, householdID)
	case "clear":
		return e.clearAction(ctx, progress, action.Target, householdID)
	case "upload":
		return e.uploadAction(ctx, progress, action.Target, householdID, action.Source)
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", shared.ErrInvalidArgument, action.Type)
	}
}

// shuffleAction shuffles one tonie, or every tonie in the household with at
// least two chapters when target is "all".
func (e *PresetEngine) shuffleAction(ctx context.Context, progress chan<- ProgressUpdate, target, householdID string) ([]string, error) {
	if target != "all" {
		e.sendProgress(progress, shuffleUpdate(1, 1, target))
		t, err := e.api.ShuffleChapters(ctx, householdID, target)
		if err != nil {
			return nil, err
		}
		return []string{t.Name}, nil
	}

	tonies, err := e.api.CreativeTonies(ctx, householdID)
	if err != nil {
		return nil, err
	}

	var shuffled []string
	for i, t := range tonies {
		if len(t.Chapters) < 2 {
			continue
		}
		e.sendProgress(progress, shuffleUpdate(i+1, len(tonies), t.Name))
		if _, err := e.api.ShuffleChapters(ctx, householdID, t.ID); err != nil {
			return shuffled, err
		}
		shuffled = append(shuffled, t.Name)
	}
	return shuffled, nil
}

// clearAction clears one tonie, or every non-empty tonie when target is "all".
func (e *PresetEngine) clearAction(ctx context.Context, progress chan<- ProgressUpdate, target, householdID string) ([]string, error) {
	if target != "all" {
		e.sendProgress(progress, clearUpdate(1, 1, target))
		t, err := e.api.ClearChapters(ctx, householdID, target)
		if err != nil {
			return nil, err
		}
		return []string{t.Name}, nil
	}

	tonies, err := e.api.CreativeTonies(ctx, householdID)
	if err != nil {
		return nil, err
	}

	var cleared []string
	for i, t := range tonies {
		if len(t.Chapters) == 0 {
			continue
		}
		e.sendProgress(progress, clearUpdate(i+1, len(tonies), t.Name))
		if _, err := e.api.ClearChapters(ctx, householdID, t.ID); err != nil {
			return cleared, err
		}
		cleared = append(cleared, t.Name)
	}
	return cleared, nil
}

// uploadAction uploads a single file, or every .mp3/.m4a in a directory in
// name order.
func (e *PresetEngine) uploadAction(ctx context.Context, progress chan<- ProgressUpdate, target, householdID, source string) ([]string, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: upload action requires a source", shared.ErrMissingArgument)
	}

	path, err := expandHome(source)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source not found: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = audioFiles(path)
		if err != nil {
			return nil, err
		}
	}

	var uploaded []string
	for i, file := range files {
		e.sendProgress(progress, uploadUpdate(i+1, len(files), filepath.Base(file)))
		if _, err := e.api.UploadAudioFile(ctx, file, householdID, target, ""); err != nil {
			return uploaded, err
		}
		if e.recorder != nil {
			// history is best-effort
			_ = e.recorder.RecordUpload(ctx, file, householdID, target)
		}
		uploaded = append(uploaded, filepath.Base(file))
	}
	return uploaded, nil
}

// audioFiles lists the .mp3 and .m4a files in dir, sorted by name.
func audioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".mp3", ".m4a":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
