package core

// Color represents a foreground color for a screen cell.
type Color uint8

// Colors used by the field renderer.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorWhite
	ColorBrightRed
	ColorBrightWhite
	ColorGray
)
