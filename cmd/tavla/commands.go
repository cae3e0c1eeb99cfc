package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	serveradapter "github.com/hylla/tavla/internal/adapters/server"
	servercommon "github.com/hylla/tavla/internal/adapters/server/common"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
	"github.com/hylla/tavla/internal/tui"
	"github.com/spf13/cobra"
)

// defaultMovesLimit caps `tavla moves` output when no limit is given.
const defaultMovesLimit = 20

// newTUICommand constructs the explicit `tui` command.
func newTUICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

// runTUI runs the interactive board until the user quits.
func runTUI(ctx context.Context, opts *rootOptions) error {
	return withSession(ctx, opts, "tui", func(s *session) error {
		m := tui.NewModel(
			s.svc,
			tui.WithColumnNames(s.cfg.ColumnNames()),
			tui.WithVerticalBelowWidth(s.cfg.Layout.VerticalBelowWidth),
			tui.WithLogger(s.logger.ServiceLogger()),
		)
		s.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// newPathsCommand constructs `paths`.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// newShowCommand constructs `show`.
func newShowCommand(opts *rootOptions) *cobra.Command {
	var markdown bool
	var width int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, "show", func(s *session) error {
				board := s.svc.Board()
				names := s.cfg.ColumnNames()
				if !markdown {
					return writeBoardText(cmd.OutOrStdout(), board, names)
				}
				rendered, err := renderMarkdown(boardMarkdown(board, names), width)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render the board as styled markdown")
	cmd.Flags().IntVar(&width, "width", 100, "markdown wrap width")
	return cmd
}

// newAddCommand constructs `add <column> <title>`.
func newAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <column> <title>",
		Short: "Append a task to a column",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, "add", func(s *session) error {
				columnID, err := domain.ParseColumnID(args[0])
				if err != nil {
					return err
				}
				task, err := s.svc.CreateTask(cmd.Context(), columnID, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s in %s\n", task.ID, task.Status)
				return nil
			})
		},
	}
}

// newMoveColumnCommand constructs `move-column <column> <index>`.
func newMoveColumnCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move-column <column> <index>",
		Short: "Move a column to a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			toIndex, err := parseIndexArg(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "move-column", func(s *session) error {
				columnID, err := domain.ParseColumnID(args[0])
				if err != nil {
					return err
				}
				red, err := s.svc.MoveColumn(cmd.Context(), columnID, toIndex)
				if err != nil {
					return err
				}
				writeReduction(cmd.OutOrStdout(), red)
				return nil
			})
		},
	}
}

// newMoveTaskCommand constructs `move-task <task> <column> <index>`.
func newMoveTaskCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move-task <task> <column> <index>",
		Short: "Move a task into a column at a position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			toIndex, err := parseIndexArg(args[2])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "move-task", func(s *session) error {
				columnID, err := domain.ParseColumnID(args[1])
				if err != nil {
					return err
				}
				red, err := s.svc.MoveTask(cmd.Context(), strings.TrimSpace(args[0]), columnID, toIndex)
				if err != nil {
					return err
				}
				writeReduction(cmd.OutOrStdout(), red)
				return nil
			})
		},
	}
}

// newDragCommand constructs `drag --event <json>`.
func newDragCommand(opts *rootOptions) *cobra.Command {
	var raw string
	cmd := &cobra.Command{
		Use:   "drag",
		Short: "Apply one raw positional drag event",
		Long:  `Apply one drag event, for example {"type":"task","source":{"droppable_id":"0","index":0},"destination":{"droppable_id":"1","index":0}}.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(raw) == "" {
				return errors.New("--event is required")
			}
			var ev domain.DragEvent
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				return fmt.Errorf("decode drag event json: %w", err)
			}
			return withSession(cmd.Context(), opts, "drag", func(s *session) error {
				red, err := s.svc.HandleDragEnd(cmd.Context(), ev)
				writeReduction(cmd.OutOrStdout(), red)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&raw, "event", "", "drag event JSON")
	return cmd
}

// newMovesCommand constructs `moves <task>`.
func newMovesCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "moves <task>",
		Short: "List recorded column changes for a task, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, "moves", func(s *session) error {
				moves, err := s.svc.TaskMoves(cmd.Context(), strings.TrimSpace(args[0]), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(moves) == 0 {
					_, _ = fmt.Fprintln(out, "no recorded moves")
					return nil
				}
				for _, move := range moves {
					_, _ = fmt.Fprintf(out, "%s  %s -> %s\n", move.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"), move.TaskTitle, move.ToColumnID)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultMovesLimit, "maximum moves to list")
	return cmd
}

// newExportCommand constructs `export`.
func newExportCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, "export", func(s *session) error {
				return runExport(s.svc, outPath, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// runExport writes the current board snapshot to outPath or stdout.
func runExport(svc *app.Service, outPath string, stdout io.Writer) error {
	encoded, err := json.MarshalIndent(svc.ExportSnapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" || outPath == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// newImportCommand constructs `import --in <file>`.
func newImportCommand(opts *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board with a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inPath == "" {
				return errors.New("--in is required")
			}
			return withSession(cmd.Context(), opts, "import", func(s *session) error {
				return runImport(cmd.Context(), s.svc, inPath)
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// runImport reads one snapshot file and replaces the board with it.
func runImport(ctx context.Context, svc *app.Service, inPath string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// newServeCommand constructs `serve`.
func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, "serve", func(s *session) error {
				cfg := serveradapter.Config{
					HTTPBind:      s.cfg.Server.HTTPBind,
					APIEndpoint:   s.cfg.Server.APIEndpoint,
					MCPEndpoint:   s.cfg.Server.MCPEndpoint,
					ServerName:    opts.appName,
					ServerVersion: version,
				}
				flags := cmd.Flags()
				if flags.Changed("http") {
					cfg.HTTPBind = httpBind
				}
				if flags.Changed("api-endpoint") {
					cfg.APIEndpoint = apiEndpoint
				}
				if flags.Changed("mcp-endpoint") {
					cfg.MCPEndpoint = mcpEndpoint
				}
				return serveCommandRunner(cmd.Context(), cfg, serveradapter.Dependencies{
					Board:  servercommon.NewAppServiceAdapter(s.svc, s.cfg.ColumnNames()),
					Logger: s.logger.ServiceLogger(),
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "127.0.0.1:8080", "HTTP listen address (overrides [server] http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "/api/v1", "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "/mcp", "MCP streamable HTTP endpoint")
	return cmd
}

// parseIndexArg parses a non-negative position argument.
func parseIndexArg(raw string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("index %q must be a non-negative integer", raw)
	}
	return idx, nil
}

// writeReduction prints what one drag did.
func writeReduction(w io.Writer, red app.Reduction) {
	_, _ = fmt.Fprintf(w, "outcome: %s\n", red.Outcome)
	if red.Reason != nil {
		_, _ = fmt.Fprintf(w, "ignored: %v\n", red.Reason)
	}
	if red.Moved != nil {
		_, _ = fmt.Fprintf(w, "moved: %s %s -> %s @ %d\n", red.Moved.Task.ID, red.Moved.FromColumnID, red.Moved.ToColumnID, red.Moved.Index)
	}
}

// writeBoardText prints the board as indented plain text.
func writeBoardText(w io.Writer, board domain.Board, names map[domain.ColumnID]string) error {
	for idx, col := range board.Columns() {
		if _, err := fmt.Fprintf(w, "[%d] %s (%d)\n", idx, columnLabel(col.ID(), names), col.Len()); err != nil {
			return err
		}
		for taskIdx, task := range col.Tasks() {
			if _, err := fmt.Fprintf(w, "    %d. %s  %s\n", taskIdx, task.Title, task.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// boardMarkdown describes the board as markdown sections per column.
func boardMarkdown(board domain.Board, names map[domain.ColumnID]string) string {
	var b strings.Builder
	b.WriteString("# Board\n")
	for _, col := range board.Columns() {
		fmt.Fprintf(&b, "\n## %s\n\n", columnLabel(col.ID(), names))
		if col.Len() == 0 {
			b.WriteString("_empty_\n")
			continue
		}
		for _, task := range col.Tasks() {
			fmt.Fprintf(&b, "- %s `%s`\n", task.Title, task.ID)
		}
	}
	return b.String()
}

// renderMarkdown renders markdown for the terminal with glamour.
func renderMarkdown(markdown string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(24, width)),
	)
	if err != nil {
		return "", fmt.Errorf("configure markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(rendered, "\n"), nil
}

// columnLabel renders a column's display name with its id.
func columnLabel(id domain.ColumnID, names map[domain.ColumnID]string) string {
	name := strings.TrimSpace(names[id])
	if name == "" || name == string(id) {
		return string(id)
	}
	return fmt.Sprintf("%s (%s)", name, id)
}
