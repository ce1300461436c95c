package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/wricardo/mcp-training/citynav/render"
)

var (
	styleDefault  = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleTitle    = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleDim      = styleDefault.Foreground(tcell.ColorGray)
	styleRoad     = styleDefault.Foreground(tcell.ColorDarkGray)
	styleBuilding = styleDefault.Foreground(tcell.ColorGreen)
	styleTarget   = styleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleAvatar   = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleNotice   = styleDefault.Foreground(tcell.ColorAqua)
	styleError    = styleDefault.Foreground(tcell.ColorRed)
	styleBanner   = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow).Bold(true)
)

// Banner is shown once the destination has been found
const Banner = " 🎉 CONGRATULATIONS! 🎉 "

// logGap separates the map from the move log column
const logGap = 4

// NewScreen creates and initializes the terminal screen
func NewScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(styleDefault)
	s.HideCursor()
	s.Clear()
	return s, nil
}

// Draw repaints the whole screen from the current snapshot
func (a *App) Draw() {
	a.screen.Clear()
	defer a.screen.Show()

	if a.snapshot == nil {
		a.drawText(0, 0, "Starting...", styleDim)
		return
	}
	s := *a.snapshot

	y := 0
	a.drawText(0, y, render.Title(s), styleTitle)
	y++
	a.drawText(0, y, render.Route(s), styleDefault)
	y++
	a.drawText(0, y, render.Status(s), styleDim)
	y++
	a.drawText(0, y, render.Here(s), styleDim)
	y++

	mapLines := render.Map(s)
	mapWidth := 0
	for i, line := range mapLines {
		if w := a.drawMapLine(0, y+i, line); w > mapWidth {
			mapWidth = w
		}
	}
	a.drawMoveLog(mapWidth+logGap, y, len(mapLines), render.MoveLog(s))
	y += len(mapLines) + 1

	if s.Completed {
		a.drawText(0, y, Banner, styleBanner)
		y++
	}
	if s.Message != "" {
		a.drawText(0, y, s.Message, styleDefault)
		y++
	}
	if a.notice != "" {
		style := styleNotice
		if a.failed {
			style = styleError
		}
		a.drawText(0, y, a.notice, style)
		y++
	}

	a.drawText(0, y+1, HelpLine, styleDim)
}

// drawMoveLog draws the most recent moves that fit in height lines
func (a *App) drawMoveLog(x, y, height int, moves []string) {
	a.drawText(x, y, "Moves:", styleTitle)
	if height <= 1 {
		return
	}
	if len(moves) > height-1 {
		moves = moves[len(moves)-(height-1):]
	}
	for i, m := range moves {
		a.drawText(x, y+1+i, m, styleDefault)
	}
}

func (a *App) drawMapLine(x, y int, line string) int {
	start := x
	for _, r := range line {
		x = a.putRune(x, y, r, mapStyle(r, a.snapshot.Heading.Glyph()))
	}
	return x - start
}

func mapStyle(r, avatar rune) tcell.Style {
	switch r {
	case avatar:
		return styleAvatar
	case render.Destination:
		return styleTarget
	case render.Building:
		return styleBuilding
	default:
		return styleRoad
	}
}

// drawText writes text from (x, y), clipped at the screen edge, and returns the
// column after the last rune
func (a *App) drawText(x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		x = a.putRune(x, y, r, style)
	}
	return x
}

func (a *App) putRune(x, y int, r rune, style tcell.Style) int {
	w, h := a.screen.Size()
	width := runewidth.RuneWidth(r)
	if width == 0 {
		// Combining marks and variation selectors ride on the previous cell
		return x
	}
	if y >= 0 && y < h && x+width <= w {
		a.screen.SetContent(x, y, r, nil, style)
	}
	return x + width
}
