package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/evanschultz/tix/internal/adapters/server"
	clitracker "github.com/evanschultz/tix/internal/adapters/tracker/cli"
	sqlitetracker "github.com/evanschultz/tix/internal/adapters/tracker/sqlite"
	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/config"
	"github.com/evanschultz/tix/internal/domain"
	"github.com/evanschultz/tix/internal/format"
	"github.com/evanschultz/tix/internal/platform"
	"github.com/evanschultz/tix/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// rootFlags carries the persistent flag values shared by every subcommand.
type rootFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// runtimeDeps bundles everything a command flow needs after setup.
type runtimeDeps struct {
	cfg    config.Config
	svc    *app.Service
	logger *charmLog.Logger
	close  func() error
}

// main handles main.
func main() {
	if err := fang.Execute(context.Background(), newRootCmd(os.Stdout, os.Stderr), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the tix command tree.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "tix",
		Short:         "Terminal task list over a pluggable tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(flags, stdout, stderr)
		},
	}

	defaultDevMode := version == "dev"
	if envDev := strings.TrimSpace(os.Getenv("TIX_DEV_MODE")); envDev != "" {
		defaultDevMode = envDev == "1" || strings.EqualFold(envDev, "true")
	}
	defaultApp := "tix"
	if envApp := strings.TrimSpace(os.Getenv("TIX_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config TOML")
	pf.StringVar(&flags.dbPath, "db", "", "path to the local sqlite database")
	pf.StringVar(&flags.appName, "app", defaultApp, "application name for config/data path resolution")
	pf.BoolVar(&flags.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newListCmd(flags, stdout, stderr),
		newServeCmd(flags, stderr),
		newPathsCmd(flags, stdout),
	)
	return root
}

// resolvePaths applies env and flag overrides on top of platform defaults.
func resolvePaths(flags *rootFlags) (platform.Paths, string, string, bool, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: flags.appName,
		DevMode: flags.devMode,
	})
	if err != nil {
		return platform.Paths{}, "", "", false, err
	}

	configPath := flags.configPath
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TIX_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	dbPath := flags.dbPath
	dbOverridden := strings.TrimSpace(dbPath) != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TIX_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	return paths, configPath, dbPath, dbOverridden, nil
}

// setup loads config, opens the tracker backend, and builds the service.
func setup(flags *rootFlags, stderr io.Writer) (runtimeDeps, error) {
	_, configPath, dbPath, dbOverridden, err := resolvePaths(flags)
	if err != nil {
		return runtimeDeps{}, err
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return runtimeDeps{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, closeLog, err := newRuntimeLogger(stderr, flags.appName, cfg.Logging)
	if err != nil {
		return runtimeDeps{}, fmt.Errorf("configure runtime logger: %w", err)
	}

	tracker, closeTracker, err := openTracker(cfg, logger)
	if err != nil {
		_ = closeLog()
		return runtimeDeps{}, err
	}

	deps := runtimeDeps{
		cfg:    cfg,
		svc:    app.NewService(tracker),
		logger: logger,
		close: func() error {
			trackerErr := closeTracker()
			logErr := closeLog()
			if trackerErr != nil {
				return trackerErr
			}
			return logErr
		},
	}
	return deps, nil
}

// openTracker picks the backend: the configured tracker command when set,
// otherwise the local sqlite store.
func openTracker(cfg config.Config, logger *charmLog.Logger) (app.Tracker, func() error, error) {
	if strings.TrimSpace(cfg.Tracker.Command) != "" {
		logger.Debug("using external tracker", "command", cfg.Tracker.Command, "list_mode", cfg.Tracker.ListMode)
		tracker, err := clitracker.New(clitracker.Options{
			Command:     cfg.Tracker.Command,
			Args:        cfg.Tracker.Args,
			ListMode:    cfg.Tracker.ListMode,
			StatusCycle: statusCycleFromConfig(cfg.Tracker.StatusCycle),
			TaskTypes:   cfg.Tracker.TaskTypes,
			Priorities:  cfg.Tracker.Priorities,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("configure tracker command: %w", err)
		}
		return tracker, func() error { return nil }, nil
	}

	logger.Debug("using local sqlite tracker", "db_path", cfg.Database.Path)
	repo, err := sqlitetracker.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open local database: %w", err)
	}
	return repo, repo.Close, nil
}

// statusCycleFromConfig maps configured status names onto the domain enum.
func statusCycleFromConfig(names []string) []domain.Status {
	if len(names) == 0 {
		return nil
	}
	cycle := make([]domain.Status, 0, len(names))
	for _, name := range names {
		cycle = append(cycle, domain.Status(strings.TrimSpace(strings.ToLower(name))))
	}
	return cycle
}

// newRuntimeLogger builds the leveled runtime logger. With a configured log
// file all output lands there; the console stays reserved for the TUI.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig) (*charmLog.Logger, func() error, error) {
	levelName := strings.TrimSpace(cfg.Level)
	if levelName == "" {
		levelName = "warn"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	sink := stderr
	closeSink := func() error { return nil }
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := config.EnsureConfigDir(path); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = logFile
		closeSink = logFile.Close
	}

	logger := charmLog.NewWithOptions(sink, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	return logger, closeSink, nil
}

// runTUI launches the interactive list and prints any handoff after exit.
func runTUI(flags *rootFlags, stdout, stderr io.Writer) error {
	deps, err := setup(flags, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.close(); closeErr != nil {
			deps.logger.Warn("shutdown cleanup failed", "err", closeErr)
		}
	}()

	// Keep the terminal clean while the list is on screen.
	if strings.TrimSpace(deps.cfg.Logging.File) == "" {
		deps.logger.SetOutput(io.Discard)
	}
	deps.logger.Info("command flow start", "command", "tui")

	m := tui.NewModel(
		deps.svc,
		tui.WithPreviewLines(deps.cfg.UI.PreviewLines),
		tui.WithPreview(deps.cfg.UI.ShowPreview),
		tui.WithAltScreen(deps.cfg.UI.AltScreen),
	)
	final, err := programFactory(m).Run()
	if err != nil {
		deps.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}

	if finished, ok := final.(tui.Model); ok {
		handoff := finished.Handoff()
		switch handoff.Kind {
		case tui.HandoffWork, tui.HandoffReference:
			if _, err := fmt.Fprintln(stdout, handoff.Text); err != nil {
				return fmt.Errorf("write handoff: %w", err)
			}
		}
	}
	deps.logger.Info("command flow complete", "command", "tui")
	return nil
}

// taskListing is the JSON shape emitted by tix list --json.
type taskListing struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    *int   `json:"priority,omitempty"`
	Type        string `json:"issue_type"`
}

// newListCmd prints the current candidate set without entering the TUI.
func newListCmd(flags *rootFlags, stdout, stderr io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the current task list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := setup(flags, stderr)
			if err != nil {
				return err
			}
			defer func() { _ = deps.close() }()

			tasks, err := deps.svc.ListTasks(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if asJSON {
				return writeTaskJSON(stdout, tasks)
			}
			for _, row := range format.BuildRows(tasks) {
				meta, summary, hasSummary := format.DecodeDescription(row.Description)
				line := row.Label + "  " + meta
				if hasSummary {
					line += "  " + summary
				}
				if _, err := fmt.Fprintln(stdout, line); err != nil {
					return fmt.Errorf("write listing: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of formatted rows")
	return cmd
}

// writeTaskJSON encodes tasks in the wire shape external tooling expects.
func writeTaskJSON(stdout io.Writer, tasks []domain.Task) error {
	listings := make([]taskListing, 0, len(tasks))
	for _, task := range tasks {
		listing := taskListing{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			Status:      string(task.Status),
			Type:        task.Type,
		}
		if task.Priority != domain.PriorityUnknown {
			priority := task.Priority
			listing.Priority = &priority
		}
		listings = append(listings, listing)
	}
	encoded, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task json: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := stdout.Write(encoded); err != nil {
		return fmt.Errorf("write task json: %w", err)
	}
	return nil
}

// newServeCmd exposes the task service over the MCP streamable-HTTP endpoint.
func newServeCmd(flags *rootFlags, stderr io.Writer) *cobra.Command {
	var bind, endpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task service over MCP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := setup(flags, stderr)
			if err != nil {
				return err
			}
			defer func() { _ = deps.close() }()

			serveCfg := server.Config{
				HTTPBind:      deps.cfg.Server.Bind,
				MCPEndpoint:   deps.cfg.Server.MCPEndpoint,
				ServerName:    "tix",
				ServerVersion: version,
			}
			if strings.TrimSpace(bind) != "" {
				serveCfg.HTTPBind = bind
			}
			if strings.TrimSpace(endpoint) != "" {
				serveCfg.MCPEndpoint = endpoint
			}

			deps.logger.Info("command flow start", "command", "serve", "bind", serveCfg.HTTPBind, "endpoint", serveCfg.MCPEndpoint)
			if err := server.Run(cmd.Context(), serveCfg, deps.svc); err != nil {
				deps.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve flow: %w", err)
			}
			deps.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "MCP endpoint path (overrides config)")
	return cmd
}

// newPathsCmd prints the resolved config and data locations.
func newPathsCmd(flags *rootFlags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, configPath, dbPath, _, err := resolvePaths(flags)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", flags.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", flags.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", dbPath)
			return nil
		},
	}
}
