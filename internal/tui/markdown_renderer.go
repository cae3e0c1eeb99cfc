package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hylla/tavla/internal/domain"
)

// minDetailWrap is the narrowest wrap width handed to glamour.
const minDetailWrap = 24

// detailRenderer renders the task info overlay through glamour.
// The term renderer is rebuilt only when the overlay width changes.
type detailRenderer struct {
	wrap int
	term *glamour.TermRenderer
}

// renderTask renders one task card followed by its recent moves.
func (r *detailRenderer) renderTask(task domain.Task, moves []domain.TaskMoveEvent, columnName func(domain.ColumnID) string, width int) string {
	source := taskCardMarkdown(task, moves, columnName)
	wrap := max(width, minDetailWrap)
	if r.term == nil || r.wrap != wrap {
		term, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return source
		}
		r.term, r.wrap = term, wrap
	}
	out, err := r.term.Render(source)
	if err != nil {
		return source
	}
	return strings.TrimRight(out, "\n")
}

// taskCardMarkdown describes a task and its move history as markdown.
func taskCardMarkdown(task domain.Task, moves []domain.TaskMoveEvent, columnName func(domain.ColumnID) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", task.Title)
	fmt.Fprintf(&b, "- **id**: `%s`\n", task.ID)
	fmt.Fprintf(&b, "- **column**: %s\n", columnName(task.Status))
	fmt.Fprintf(&b, "- **created**: %s\n", task.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	if len(moves) == 0 {
		return b.String()
	}
	b.WriteString("\n## Moves\n\n")
	for _, move := range moves {
		fmt.Fprintf(&b, "- %s → %s\n", move.OccurredAt.UTC().Format("2006-01-02 15:04"), columnName(move.ToColumnID))
	}
	return b.String()
}
