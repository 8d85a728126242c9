package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/core"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:     lipgloss.NewStyle(),
	core.ColorRed:         lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorWhite:       lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	core.ColorBrightWhite: lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorGray:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// Glyphs drawn on the field.
const (
	glyphWolf   = 'W'
	glyphSheep  = 'o'
	glyphTarget = 'O'
	glyphOrigin = '+'
)

// fieldMargin leaves room around the outermost animal.
const fieldMargin = 1.1

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := 0; y < s.Height(); y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}

		// Group consecutive cells with the same color for efficiency
		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// Viewport maps plane coordinates onto the inside of a bordered screen
// area. The plane is unbounded, so the visible square [-Extent, Extent]
// grows to keep every animal in view.
type Viewport struct {
	Extent float64
	W, H   int
}

// NewViewport fits the given points into a w x h area. The visible extent
// never shrinks below minExtent.
func NewViewport(w, h int, minExtent float64, points ...core.Point) Viewport {
	extent := minExtent
	for _, p := range points {
		extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	extent *= fieldMargin
	if extent <= 0 {
		extent = 1
	}
	return Viewport{Extent: extent, W: w, H: h}
}

// Cell returns the screen cell for p. Y grows upward on the plane and
// downward on screen. Results are clamped to the inner area.
func (v Viewport) Cell(p core.Point) (x, y int) {
	innerW := v.W - 2
	innerH := v.H - 2
	if innerW < 1 || innerH < 1 {
		return 0, 0
	}
	fx := (p.X + v.Extent) / (2 * v.Extent)
	fy := (v.Extent - p.Y) / (2 * v.Extent)
	x = 1 + int(math.Round(fx*float64(innerW-1)))
	y = 1 + int(math.Round(fy*float64(innerH-1)))
	return core.Clamp(x, 1, innerW), core.Clamp(y, 1, innerH)
}

// DrawField draws the border, the origin, the flock and the wolf. The
// sheep the wolf went after in the last round is highlighted.
func DrawField(s *core.Screen, sim *chase.Simulation, last chase.Outcome) Viewport {
	s.Clear()

	wolf := sim.Wolf().Pos
	points := []core.Point{wolf}
	for _, sh := range sim.Flock() {
		if pos, ok := sh.Position(); ok {
			points = append(points, pos)
		}
	}
	vp := NewViewport(s.Width(), s.Height(), sim.Params().InitPosLimit, points...)

	s.DrawBox(core.NewRect(0, 0, s.Width(), s.Height()), core.ColorGray)
	ox, oy := vp.Cell(core.Point{})
	s.Set(ox, oy, glyphOrigin, core.ColorGray)

	for _, sh := range sim.Flock() {
		pos, ok := sh.Position()
		if !ok {
			continue
		}
		x, y := vp.Cell(pos)
		if last.Kind == chase.OutcomeChase && last.SheepID == sh.ID {
			s.Set(x, y, glyphTarget, core.ColorYellow)
			continue
		}
		s.Set(x, y, glyphSheep, core.ColorGreen)
	}

	wolfColor := core.ColorRed
	if last.Kind == chase.OutcomeCapture {
		wolfColor = core.ColorBrightRed
	}
	x, y := vp.Cell(wolf)
	s.Set(x, y, glyphWolf, wolfColor)

	return vp
}
