package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/tcx/internal/presets"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/desertthunder/tcx/internal/tonie"
)

// fakeAPI records calls and serves canned tonies.
type fakeAPI struct {
	households []tonie.Household
	tonies     []tonie.CreativeTonie

	shuffled []string
	cleared  []string
	uploaded []string

	shuffleErr error
	uploadErr  error
}

func (f *fakeAPI) Households(ctx context.Context) ([]tonie.Household, error) {
	return f.households, nil
}

func (f *fakeAPI) CreativeTonies(ctx context.Context, householdID string) ([]tonie.CreativeTonie, error) {
	return f.tonies, nil
}

func (f *fakeAPI) UploadAudioFile(ctx context.Context, filePath, householdID, tonieID, title string) (*tonie.CreativeTonie, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploaded = append(f.uploaded, filepath.Base(filePath))
	return &tonie.CreativeTonie{ID: tonieID}, nil
}

func (f *fakeAPI) ShuffleChapters(ctx context.Context, householdID, tonieID string) (*tonie.CreativeTonie, error) {
	if f.shuffleErr != nil {
		return nil, f.shuffleErr
	}
	f.shuffled = append(f.shuffled, tonieID)
	return f.find(tonieID), nil
}

func (f *fakeAPI) ClearChapters(ctx context.Context, householdID, tonieID string) (*tonie.CreativeTonie, error) {
	f.cleared = append(f.cleared, tonieID)
	return f.find(tonieID), nil
}

func (f *fakeAPI) find(tonieID string) *tonie.CreativeTonie {
	for i := range f.tonies {
		if f.tonies[i].ID == tonieID {
			return &f.tonies[i]
		}
	}
	return &tonie.CreativeTonie{ID: tonieID, Name: tonieID}
}

type fakeRecorder struct {
	records []string
}

func (r *fakeRecorder) RecordUpload(ctx context.Context, file, householdID, tonieID string) error {
	r.records = append(r.records, filepath.Base(file))
	return nil
}

func newTestEngine(t *testing.T, api *fakeAPI, stored map[string]presets.Preset) (*PresetEngine, *fakeRecorder) {
	t.Helper()
	store := presets.NewStore(filepath.Join(t.TempDir(), "presets.toml"))
	if err := store.Save(stored); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	recorder := &fakeRecorder{}
	return NewPresetEngine(api, store, recorder), recorder
}

func defaultAPI() *fakeAPI {
	return &fakeAPI{
		households: []tonie.Household{{ID: "h-1", Name: "Home"}},
		tonies: []tonie.CreativeTonie{
			{ID: "ct-1", Name: "Dino", Chapters: []tonie.Chapter{{ID: "a"}, {ID: "b"}}},
			{ID: "ct-2", Name: "Bear", Chapters: []tonie.Chapter{{ID: "c"}}},
			{ID: "ct-3", Name: "Owl"},
		},
	}
}

func TestPresetEngineRun(t *testing.T) {
	t.Run("unknown preset", func(t *testing.T) {
		engine, _ := newTestEngine(t, defaultAPI(), nil)
		_, err := engine.Run(context.Background(), nil, "nope")
		if !errors.Is(err, shared.ErrPresetNotFound) {
			t.Errorf("error = %v, want %v", err, shared.ErrPresetNotFound)
		}
	})

	t.Run("no households", func(t *testing.T) {
		api := &fakeAPI{}
		engine, _ := newTestEngine(t, api, map[string]presets.Preset{
			"p": {Actions: []presets.Action{{Type: "shuffle", Target: "all"}}},
		})
		_, err := engine.Run(context.Background(), nil, "p")
		if !errors.Is(err, shared.ErrHouseholdNotFound) {
			t.Errorf("error = %v, want %v", err, shared.ErrHouseholdNotFound)
		}
	})

	t.Run("shuffle all skips short playlists", func(t *testing.T) {
		api := defaultAPI()
		engine, _ := newTestEngine(t, api, map[string]presets.Preset{
			"p": {Actions: []presets.Action{{Type: "shuffle", Target: "all"}}},
		})

		result, err := engine.Run(context.Background(), nil, "p")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(api.shuffled) != 1 || api.shuffled[0] != "ct-1" {
			t.Errorf("shuffled = %v, want [ct-1]", api.shuffled)
		}
		if result.SuccessCount != 1 || result.FailedCount != 0 {
			t.Errorf("counts = %d/%d", result.SuccessCount, result.FailedCount)
		}
		if got := result.Results[0].Detail; len(got) != 1 || got[0] != "Dino" {
			t.Errorf("detail = %v", got)
		}
	})

	t.Run("clear all skips empty tonies", func(t *testing.T) {
		api := defaultAPI()
		engine, _ := newTestEngine(t, api, map[string]presets.Preset{
			"p": {Actions: []presets.Action{{Type: "clear", Target: "all"}}},
		})

		if _, err := engine.Run(context.Background(), nil, "p"); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(api.cleared) != 2 {
			t.Errorf("cleared = %v, want ct-1 and ct-2", api.cleared)
		}
	})

	t.Run("failed action does not abort the run", func(t *testing.T) {
		api := defaultAPI()
		api.shuffleErr = fmt.Errorf("boom")
		engine, _ := newTestEngine(t, api, map[string]presets.Preset{
			"p": {Actions: []presets.Action{
				{Type: "shuffle", Target: "ct-1"},
				{Type: "clear", Target: "ct-2"},
			}},
		})

		result, err := engine.Run(context.Background(), nil, "p")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.FailedCount != 1 || result.SuccessCount != 1 {
			t.Errorf("counts = %d/%d, want 1/1", result.SuccessCount, result.FailedCount)
		}
		if result.Results[0].Status != "error" || result.Results[0].Message == "" {
			t.Errorf("first result = %+v", result.Results[0])
		}
		if len(api.cleared) != 1 {
			t.Errorf("second action did not run: %v", api.cleared)
		}
	})

	t.Run("unknown action type is captured", func(t *testing.T) {
		engine, _ := newTestEngine(t, defaultAPI(), map[string]presets.Preset{
			"p": {Actions: []presets.Action{{Type: "explode", Target: "ct-1"}}},
		})

		result, err := engine.Run(context.Background(), nil, "p")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Results[0].Status != "error" {
			t.Errorf("result = %+v", result.Results[0])
		}
	})

	t.Run("upload directory in name order", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"b.mp3", "a.mp3", "notes.txt", "c.m4a"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
		}

		api := defaultAPI()
		engine, recorder := newTestEngine(t, api, map[string]presets.Preset{
			"p": {Actions: []presets.Action{{Type: "upload", Target: "ct-1", Source: dir}}},
		})

		result, err := engine.Run(context.Background(), nil, "p")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		want := []string{"a.mp3", "b.mp3", "c.m4a"}
		if len(api.uploaded) != len(want) {
			t.Fatalf("uploaded = %v, want %v", api.uploaded, want)
		}
		for i := range want {
			if api.uploaded[i] != want[i] {
				t.Errorf("uploaded[%d] = %q, want %q", i, api.uploaded[i], want[i])
			}
		}
		if len(recorder.records) != 3 {
			t.Errorf("recorded = %v, want 3 uploads", recorder.records)
		}
		if got := result.Results[0].Detail; len(got) != 3 {
			t.Errorf("detail = %v", got)
		}
	})

	t.Run("upload without source fails the action", func(t *testing.T) {
		engine, _ := newTestEngine(t, defaultAPI(), map[string]presets.Preset{
			"p": {Actions: []presets.Action{{Type: "upload", Target: "ct-1"}}},
		})

		result, err := engine.Run(context.Background(), nil, "p")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Results[0].Status != "error" {
			t.Errorf("result = %+v", result.Results[0])
		}
	})

	t.Run("progress updates are emitted", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 32)
		engine, _ := newTestEngine(t, defaultAPI(), map[string]presets.Preset{
			"p": {Actions: []presets.Action{{Type: "shuffle", Target: "all"}}},
		})

		if _, err := engine.Run(context.Background(), progress, "p"); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) == 0 || phases[0] != ResolveHousehold {
			t.Errorf("phases = %v", phases)
		}
	})
}
