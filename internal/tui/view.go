package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/tavla/internal/domain"
)

// minColumnWidth keeps horizontal columns readable on narrow boards.
const minColumnWidth = 18

// View renders the board.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	direction := LayoutDirection(m.width, m.verticalBelowWidth)
	header := titleStyle.Render("tavla") + statusStyle.Render(fmt.Sprintf("  %d tasks  [%s]", m.board.TaskCount(), m.modeLabel()))

	var board string
	if m.board.Len() == 0 {
		board = "No columns configured."
	} else {
		board = m.renderBoard(direction)
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpText := helpBubble.View(m.keys)
	if m.grab.active() {
		helpText = helpBubble.ShortHelpView(m.keys.gestureHelp())
	}
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpText)

	content := strings.Join([]string{header, board, statusStyle.Render(m.status)}, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine
	if overlay := m.renderModeOverlay(); overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}

	v := tea.NewView(full)
	v.AltScreen = true
	return v
}

// renderBoard lays the columns out along direction.
func (m Model) renderBoard(direction Direction) string {
	columns := m.board.Columns()
	views := make([]string, 0, len(columns))
	width := m.columnWidth(direction, len(columns))
	for idx, col := range columns {
		views = append(views, m.renderColumn(idx, col, width))
	}
	if direction == DirectionVertical {
		return lipgloss.JoinVertical(lipgloss.Left, views...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// columnWidth returns the inner width of each column box.
func (m Model) columnWidth(direction Direction, count int) int {
	if direction == DirectionVertical || count == 0 {
		return max(minColumnWidth, m.width-2)
	}
	// Each box spends two border cells and one margin cell.
	return max(minColumnWidth, m.width/count-3)
}

// renderColumn renders one column with focus and drop-marker decoration.
func (m Model) renderColumn(idx int, col *domain.Column, width int) string {
	borderColor := lipgloss.Color("239")
	if idx == m.selectedColumn && !m.grab.active() {
		borderColor = lipgloss.Color("62")
	}
	if m.grab.kind == grabColumn && idx == m.grab.toColumn {
		borderColor = lipgloss.Color("212")
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		MarginRight(1).
		Width(width)

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	title := fmt.Sprintf("%s (%d)", m.columnName(col.ID()), col.Len())
	switch {
	case m.grab.kind == grabColumn && idx == m.grab.fromColumn && idx == m.grab.toColumn:
		title = "▸ " + title + " (moving)"
	case m.grab.kind == grabColumn && idx == m.grab.toColumn:
		title = "▸ " + m.columnName(m.grab.columnID) + " goes here"
	case m.grab.kind == grabColumn && idx == m.grab.fromColumn:
		titleStyle = titleStyle.Foreground(lipgloss.Color("243"))
		title += " (moving)"
	}

	lines := []string{titleStyle.Render(truncate(title, width))}
	lines = append(lines, m.columnTaskLines(idx, col, width)...)
	return box.Render(strings.Join(lines, "\n"))
}

// columnTaskLines renders the task rows, previewing a held task at the marker.
func (m Model) columnTaskLines(idx int, col *domain.Column, width int) []string {
	focused := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	normal := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	ghost := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	marker := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Background(lipgloss.Color("237")).Bold(true)

	tasks := col.Tasks()
	holding := m.grab.kind == grabTask
	if holding && idx == m.grab.fromColumn && idx == m.grab.toColumn {
		// Same-column markers index the list without the held task.
		tasks = append(tasks[:m.grab.fromIndex:m.grab.fromIndex], tasks[m.grab.fromIndex+1:]...)
	}

	lines := make([]string, 0, len(tasks)+1)
	held := ""
	if holding {
		if task, _, _, ok := m.board.FindTask(m.grab.taskID); ok {
			held = task.Title
		}
	}
	for taskIdx, task := range tasks {
		if holding && idx == m.grab.toColumn && taskIdx == m.grab.toIndex {
			lines = append(lines, marker.Render(truncate("▸ "+held, width)))
		}
		switch {
		case holding && task.ID == m.grab.taskID:
			lines = append(lines, ghost.Render(truncate("  "+task.Title, width)))
		case !holding && !m.grab.active() && idx == m.selectedColumn && taskIdx == m.selectedTask:
			lines = append(lines, focused.Render(truncate("› "+task.Title, width)))
		default:
			lines = append(lines, normal.Render(truncate("  "+task.Title, width)))
		}
	}
	if holding && idx == m.grab.toColumn && m.grab.toIndex >= len(tasks) {
		lines = append(lines, marker.Render(truncate("▸ "+held, width)))
	}
	if len(lines) == 0 {
		lines = append(lines, ghost.Render("(empty)"))
	}
	return lines
}

// modeLabel names the current interaction mode for the header.
func (m Model) modeLabel() string {
	switch {
	case m.mode == modeAddTask:
		return "add task"
	case m.mode == modeTaskInfo:
		return "task info"
	case m.grab.kind == grabTask:
		return "moving task"
	case m.grab.kind == grabColumn:
		return "moving column"
	default:
		return "board"
	}
}

// renderModeOverlay renders the modal for the current mode, if any.
func (m Model) renderModeOverlay() string {
	width := clamp(m.width-8, 30, 80)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(width)
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	switch m.mode {
	case modeAddTask:
		title := lipgloss.NewStyle().Bold(true).Render("New task in " + m.columnName(m.currentColumnID()))
		return box.Render(strings.Join([]string{title, "", m.taskInput.View(), "", hint.Render("enter create • esc cancel")}, "\n"))
	case modeTaskInfo:
		task, _, _, ok := m.board.FindTask(m.taskInfoID)
		if !ok {
			return ""
		}
		body := m.detail.renderTask(task, m.taskInfoMoves, m.columnName, width-4)
		return box.Render(body + "\n\n" + hint.Render("y copy id • esc close"))
	default:
		return ""
	}
}

// clamp bounds v to [minV, maxV]; an empty range yields minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
