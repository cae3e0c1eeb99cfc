package tui

import (
	"maps"

	"github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/domain"
)

// defaultVerticalBelowWidth is the width at or below which columns stack vertically.
const defaultVerticalBelowWidth = 100

// Option configures a Model.
type Option func(*Model)

// WithColumnNames sets display names keyed by column id. Unnamed columns show their id.
func WithColumnNames(names map[domain.ColumnID]string) Option {
	return func(m *Model) {
		m.columnNames = maps.Clone(names)
	}
}

// WithVerticalBelowWidth sets the layout breakpoint. Negative values are ignored.
func WithVerticalBelowWidth(width int) Option {
	return func(m *Model) {
		if width >= 0 {
			m.verticalBelowWidth = width
		}
	}
}

// WithLogger routes gesture diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClipboard replaces the clipboard writer used by the copy-id key.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}
