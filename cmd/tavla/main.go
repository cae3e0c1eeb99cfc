package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	serveradapter "github.com/hylla/tavla/internal/adapters/server"
	"github.com/hylla/tavla/internal/adapters/storage/sqlite"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/config"
	"github.com/hylla/tavla/internal/platform"
	"github.com/spf13/cobra"
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

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// run builds the command tree and executes it with args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(&rootOptions{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds persistent flag values shared by every subcommand.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool

	stdout io.Writer
	stderr io.Writer
}

// newRootCommand constructs the tavla command tree.
func newRootCommand(opts *rootOptions) *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TAVLA_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("TAVLA_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:   "tavla",
		Short: "A local kanban board you drive with drag gestures",
		Long:  "tavla keeps an ordered kanban board in sqlite and applies drag-and-drop gestures from the terminal UI, the CLI, HTTP, and MCP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newTUICommand(opts),
		newPathsCommand(opts),
		newShowCommand(opts),
		newAddCommand(opts),
		newMoveColumnCommand(opts),
		newMoveTaskCommand(opts),
		newDragCommand(opts),
		newMovesCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// session is one opened board: config, logging, storage and the service over them.
type session struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
}

// resolvePaths resolves platform paths for the selected app name and mode.
func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// openSession loads config, configures logging, opens sqlite and loads the board.
func openSession(ctx context.Context, opts *rootOptions, command string) (*session, error) {
	paths, err := opts.resolvePaths()
	if err != nil {
		return nil, err
	}

	configPath := opts.configPath
	dbPath := opts.dbPath
	dbOverridden := strings.TrimSpace(dbPath) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TAVLA_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TAVLA_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(opts.stderr, opts.appName, opts.devMode, cfg.Logging, paths.LogDir, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Runtime logs stay in the dev-file sink while the board owns the terminal.
		logger.SetConsoleEnabled(false)
	}
	s := &session{paths: paths, configPath: configPath, cfg: cfg, logger: logger}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", dbPath)
	logger.Info("configuration loaded", "config_path", configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level, "columns", len(cfg.Board.Columns))
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	s.repo = repo
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	svcLogger := logger.ServiceLogger()
	s.svc = app.NewService(
		repo,
		app.MultiNotifier{repo, app.LogNotifier{Logger: svcLogger}},
		uuid.NewString,
		time.Now,
		app.ServiceConfig{
			ColumnIDs: cfg.ColumnIDs(),
			Autosave:  cfg.Board.Autosave,
		},
		app.WithLogger(svcLogger),
		app.WithMoveLedger(repo),
	)
	board, err := s.svc.Load(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load board: %w", err)
	}
	logger.Debug("application service initialized", "columns", board.Len(), "tasks", board.TaskCount(), "autosave", cfg.Board.Autosave)
	return s, nil
}

// Close drains pending notifications and releases storage and log sinks.
func (s *session) Close() {
	if s == nil {
		return
	}
	if s.svc != nil {
		s.svc.Close()
	}
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			s.logger.Warn("sqlite close failed", "db_path", s.cfg.Database.Path, "err", err)
		}
	}
	if err := s.logger.Close(); err != nil && s.logger.shouldLogToSink(s.logger.consoleSink) {
		s.logger.consoleSink.Warn("close runtime log sink failed", "err", err)
	}
}

// withSession runs fn over an opened session with start/complete logging.
func withSession(ctx context.Context, opts *rootOptions, command string, fn func(*session) error) error {
	s, err := openSession(ctx, opts, command)
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.Info("command flow start", "command", command)
	if err := fn(s); err != nil {
		s.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	s.logger.Info("command flow complete", "command", command)
	return nil
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
