package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/tavla/internal/domain"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Board    BoardConfig    `toml:"board"`
	Layout   LayoutConfig   `toml:"layout"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type BoardConfig struct {
	Columns  []ColumnConfig `toml:"columns"`
	Autosave bool           `toml:"autosave"`
}

type ColumnConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// LayoutConfig controls how the TUI lays out columns.
// Terminals at or below VerticalBelowWidth stack columns vertically.
type LayoutConfig struct {
	VerticalBelowWidth int `toml:"vertical_below_width"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

func defaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{ID: string(domain.ColumnTodo), Name: "To Do"},
		{ID: string(domain.ColumnInProgress), Name: "In Progress"},
		{ID: string(domain.ColumnDone), Name: "Done"},
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Board: BoardConfig{
			Columns:  defaultColumns(),
			Autosave: true,
		},
		Layout: LayoutConfig{
			VerticalBelowWidth: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".tavla/log",
			},
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	for idx := range c.Board.Columns {
		c.Board.Columns[idx].ID = strings.TrimSpace(strings.ToLower(c.Board.Columns[idx].ID))
		c.Board.Columns[idx].Name = strings.TrimSpace(c.Board.Columns[idx].Name)
	}
	c.Logging.Level = strings.TrimSpace(strings.ToLower(c.Logging.Level))
	c.Logging.DevFile.Dir = strings.TrimSpace(c.Logging.DevFile.Dir)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if len(c.Board.Columns) == 0 {
		return errors.New("board.columns must include at least one column")
	}
	seen := map[string]struct{}{}
	for idx, column := range c.Board.Columns {
		id := strings.TrimSpace(strings.ToLower(column.ID))
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if _, err := strconv.Atoi(id); err == nil {
			return fmt.Errorf("board.columns[%d].id must not be numeric: %s", idx, id)
		}
		if strings.TrimSpace(column.Name) == "" {
			return fmt.Errorf("board.columns[%d].name is required", idx)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s", idx, id)
		}
		seen[id] = struct{}{}
	}

	if c.Layout.VerticalBelowWidth < 0 {
		return errors.New("layout.vertical_below_width must be >= 0")
	}

	if _, err := log.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when enabled")
	}

	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	return nil
}

// ColumnIDs returns the configured column ids in display order.
func (c Config) ColumnIDs() []domain.ColumnID {
	out := make([]domain.ColumnID, 0, len(c.Board.Columns))
	for _, column := range c.Board.Columns {
		out = append(out, domain.ColumnID(strings.TrimSpace(strings.ToLower(column.ID))))
	}
	return out
}

// ColumnNames maps column ids to their display names.
func (c Config) ColumnNames() map[domain.ColumnID]string {
	out := make(map[domain.ColumnID]string, len(c.Board.Columns))
	for _, column := range c.Board.Columns {
		out[domain.ColumnID(strings.TrimSpace(strings.ToLower(column.ID)))] = column.Name
	}
	return out
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
