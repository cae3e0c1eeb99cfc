package tui

// Direction is the axis columns are laid out along.
type Direction string

// DirectionHorizontal and DirectionVertical are the supported layouts.
const (
	DirectionHorizontal Direction = "horizontal"
	DirectionVertical   Direction = "vertical"
)

// LayoutDirection picks the column axis for a terminal width.
// Columns stack vertically when width is at or below threshold.
func LayoutDirection(width, threshold int) Direction {
	if width <= threshold {
		return DirectionVertical
	}
	return DirectionHorizontal
}
