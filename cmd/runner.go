package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tcx/internal/history"
	"github.com/desertthunder/tcx/internal/locales"
	"github.com/desertthunder/tcx/internal/presets"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/desertthunder/tcx/internal/tonie"
	"github.com/urfave/cli/v3"
)

// apiClient is the slice of the Tonie Cloud client the commands use.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type apiClient interface {
	Me(ctx context.Context) (*tonie.User, error)
	Config(ctx context.Context) (*tonie.BackendConfig, error)
	Households(ctx context.Context) ([]tonie.Household, error)
	CreativeTonies(ctx context.Context, householdID string) ([]tonie.CreativeTonie, error)
	CreativeTonie(ctx context.Context, householdID, tonieID string) (*tonie.CreativeTonie, error)
	UploadAudioFile(ctx context.Context, filePath, householdID, tonieID, title string) (*tonie.CreativeTonie, error)
	ShuffleChapters(ctx context.Context, householdID, tonieID string) (*tonie.CreativeTonie, error)
	ClearChapters(ctx context.Context, householdID, tonieID string) (*tonie.CreativeTonie, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        apiClient
	presets    *presets.Store
	store      *history.Store
	tr         *locales.Translator
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        apiClient
	Presets    *presets.Store
	History    *history.Store
	Translator *locales.Translator
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		presets:    opts.Presets,
		store:      opts.History,
		tr:         opts.Translator,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		meCommand, householdsCommand, toniesCommand, uploadCommand, shuffleCommand,
		clearCommand, presetCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// loadConfig reads the config file named by the --config flag, falling back
// to ~/.config/tcx/config.toml, then to embedded defaults when no file exists.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		if defaultPath, err := shared.DefaultConfigPath(); err == nil {
			path = defaultPath
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if config, err := shared.LoadConfig(path); err == nil {
				r.config = config
				r.configPath = path
			} else {
				r.logger.Warn("failed to load config, using defaults", "error", err)
			}
		}
	}
	return r.config
}

// translator resolves the display language: --locale flag, then the config
// default, then German.
func (r *Runner) translator(cmd *cli.Command) *locales.Translator {
	if r.tr != nil {
		return r.tr
	}
	locale := cmd.String("locale")
	if locale == "" {
		locale = r.config.Defaults.Locale
	}
	r.tr = locales.Load(locale)
	return r.tr
}

// ensureAPI authenticates on first use. Credentials come from the
// --username/--password flags (or their environment variables), then the
// config file.
func (r *Runner) ensureAPI(ctx context.Context, cmd *cli.Command) error {
	if r.api != nil {
		return nil
	}

	config := r.loadConfig(cmd)
	username := cmd.String("username")
	if username == "" {
		username = config.Credentials.Username
	}
	password := cmd.String("password")
	if password == "" {
		password = config.Credentials.Password
	}
	if username == "" || password == "" {
		return fmt.Errorf("%w: set --username/--password or TONIE_USERNAME/TONIE_PASSWORD", shared.ErrMissingCredentials)
	}

	r.logger.Debug("authenticating", "username", username)
	client, err := tonie.NewClient(ctx, username, password, tonie.ClientOpts{Logger: r.logger})
	if err != nil {
		return err
	}
	r.api = client
	return nil
}

// presetStore opens the preset file on first use.
func (r *Runner) presetStore() (*presets.Store, error) {
	if r.presets != nil {
		return r.presets, nil
	}
	path, err := presets.DefaultPath()
	if err != nil {
		return nil, err
	}
	r.presets = presets.NewStore(path)
	return r.presets, nil
}

// historyStore opens the upload-history database on first use. Relative
// database paths resolve against the config directory.
func (r *Runner) historyStore() (*history.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	path := r.config.Database.Path
	if path == "" {
		path = "tcx.db"
	}
	if path != ":memory:" && !filepath.IsAbs(path) {
		dir, err := shared.ConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, path)
	}

	maxOpen := r.config.Database.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 5
	}
	maxIdle := r.config.Database.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}

	store, err := history.Open(path, maxOpen, maxIdle)
	if err != nil {
		return nil, err
	}
	r.store = store
	return r.store, nil
}

// lastHouseholdKey stores the most recently used household between runs.
const lastHouseholdKey = "last_household"

// resolveHousehold picks the household for a command: --household flag,
// config default, the remembered last-used household, then the account's
// first household. Flag and first-household resolutions are remembered.
func (r *Runner) resolveHousehold(ctx context.Context, cmd *cli.Command) (string, error) {
	if id := cmd.String("household"); id != "" {
		r.rememberHousehold(ctx, id)
		return id, nil
	}
	if id := r.config.Defaults.Household; id != "" {
		return id, nil
	}
	if store, err := r.historyStore(); err == nil {
		if id, err := store.Preference(ctx, lastHouseholdKey); err == nil && id != "" {
			return id, nil
		}
	}

	households, err := r.api.Households(ctx)
	if err != nil {
		return "", err
	}
	if len(households) == 0 {
		return "", shared.ErrHouseholdNotFound
	}
	r.rememberHousehold(ctx, households[0].ID)
	return households[0].ID, nil
}

// rememberHousehold persists the household for the next run, best effort.
func (r *Runner) rememberHousehold(ctx context.Context, id string) {
	store, err := r.historyStore()
	if err != nil {
		return
	}
	if err := store.SetPreference(ctx, lastHouseholdKey, id); err != nil {
		r.logger.Debug("failed to remember household", "error", err)
	}
}

// resolveTonie picks the target tonie: --tonie flag, then the config default.
func (r *Runner) resolveTonie(cmd *cli.Command) (string, error) {
	if id := cmd.String("tonie"); id != "" {
		return id, nil
	}
	if id := r.config.Defaults.Tonie; id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: tonie id", shared.ErrMissingArgument)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}

// confirm prompts and reads one line; yes/ja (or y/j) accepts.
func (r *Runner) confirm(prompt string) (bool, error) {
	if err := r.writePlain("%s", prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "j", "ja":
		return true, nil
	}
	return false, nil
}
