package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

// Plot renders series as a braille line chart. Each series is scaled to its
// own range; the axis shows the range of the first one.
type Plot struct {
	Title string
	// Width is the number of plot columns. Zero fits the terminal.
	Width  int
	Height int
	Color  bool
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisLabelWidth      = 4
	axisSeparator       = " │ "
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var seriesColors = []lipgloss.Color{"6", "5", "3", "2", "4"}

type bounds struct {
	min float64
	max float64
}

// Render writes the chart to w. Empty series are skipped; with nothing left
// to draw Render writes nothing.
func (p Plot) Render(w io.Writer, series ...Series) error {
	series = lo.Filter(series, func(s Series, _ int) bool { return len(s.Values) > 0 })
	if len(series) == 0 {
		return nil
	}
	height := p.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := p.Width
	if width <= 0 {
		width = PlotWidthFor(TerminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	canvases := make([]*canvas, len(series))
	ranges := make([]bounds, len(series))
	for i, s := range series {
		values := resampleSeries(s.Values, width)
		ranges[i] = seriesBounds(values)
		canvases[i] = newCanvas(width, height)
		canvases[i].polyline(values, ranges[i], lineStyles[i%len(lineStyles)])
	}

	if p.Title != "" {
		if _, err := fmt.Fprintln(w, p.Title); err != nil {
			return err
		}
	}
	scales := make([]string, len(series))
	for i, s := range series {
		scales[i] = fmt.Sprintf("%s %.0f-%.0f", s.Name, ranges[i].min, ranges[i].max)
	}
	if _, err := fmt.Fprintln(w, "Scale: "+strings.Join(scales, ", ")); err != nil {
		return err
	}

	labels := axisLabels(ranges[0], height)
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(labels[y], axisLabelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := composeCell(canvases, x, y)
			ch := string(brailleFromMask(mask))
			if p.Color && owner >= 0 {
				ch = colorize(owner, ch)
			}
			row.WriteString(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, p.Color)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - utf8.RuneCountInString(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

// TerminalWidth returns the stdout width, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ColorFor reports whether output to w should be colored.
func ColorFor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func colorize(idx int, s string) string {
	return lipgloss.NewStyle().Foreground(seriesColors[idx%len(seriesColors)]).Render(s)
}

func axisLabels(b bounds, height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = fmt.Sprintf("%.0f", b.max)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.0f", (b.min+b.max)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.0f", b.min)
	}
	return labels
}

func seriesBounds(values []float64) bounds {
	if len(values) == 0 {
		return bounds{}
	}
	b := bounds{min: lo.Min(values), max: lo.Max(values)}
	if math.Abs(b.max-b.min) < 1e-9 {
		b.min--
		b.max++
	}
	return b
}

func composeCell(canvases []*canvas, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, c := range canvases {
		m := c.at(x, y)
		if m == 0 {
			continue
		}
		if owner == -1 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = colorize(i, label)
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

// resampleSeries fits values to width points: buckets are averaged when
// shrinking and linearly interpolated when stretching.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			out[i] = lo.Sum(values[start:end]) / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		last := len(values) - 1
		for i := 0; i < width; i++ {
			pos := float64(i) * float64(last) / float64(width-1)
			idx := int(math.Floor(pos))
			if idx >= last {
				out[i] = values[last]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// canvas is a grid of braille cells, each holding a 2x4 dot mask.
type canvas struct {
	cells  [][]uint8
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{cells: cells, width: width, height: height}
}

func (c *canvas) at(x, y int) uint8 {
	if y < 0 || y >= c.height || x < 0 || x >= c.width {
		return 0
	}
	return c.cells[y][x]
}

// dot sets a dot in sub-cell coordinates (2 per column, 4 per row).
func (c *canvas) dot(x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy][cx] |= brailleDotMask(x%2, y%4)
}

func (c *canvas) polyline(values []float64, b bounds, style lineStyle) {
	rows := c.height * 4
	prevX, prevY := -1, -1
	for i, v := range values {
		x, y := i*2, valueToRow(v, b, rows)
		if prevX < 0 {
			if style.shouldPlot(x) {
				c.dot(x, y)
			}
		} else {
			c.line(prevX, prevY, x, y, style)
		}
		prevX, prevY = x, y
	}
}

// line draws with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int, style lineStyle) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if style.shouldPlot(x0) {
			c.dot(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func valueToRow(v float64, b bounds, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - b.min) / (b.max - b.min)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return lo.Clamp(row, 0, rows-1)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func brailleDotMask(x, y int) uint8 {
	if x == 0 {
		return [4]uint8{0x01, 0x02, 0x04, 0x40}[y]
	}
	return [4]uint8{0x08, 0x10, 0x20, 0x80}[y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
