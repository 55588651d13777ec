// Package viz renders tracks and runs in the terminal: a braille canvas
// for geometry, asciigraph charts for traces, and a bubbletea live view.
package viz

import (
	"math"
	"strings"

	"github.com/san-kum/linesim/internal/geom"
	"github.com/san-kum/linesim/internal/track"
)

// Braille patterns pack 2x4 dots per character cell, offset 0x2800.
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set lights the dot at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels; out-of-range dots are dropped.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine rasterizes a segment with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	e := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps world coordinates (meters, y up) onto canvas sub-pixels
// (y down). The aspect factor compensates for braille cells being twice
// as tall as wide.
type Viewport struct {
	minX, minY float64
	scale      float64
	subW, subH int
}

const cellAspect = 0.5 // sub-pixel width / height in terminal glyphs

// FitViewport frames the world rectangle spanned by the track, with a
// margin, inside a canvas of the given character size.
func FitViewport(trk *track.Track, w, h int, margin float64) Viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	// Walking the centerline is simpler than per-segment bounding boxes
	// and close enough for display purposes.
	steps := 512
	for i := 0; i < steps; i++ {
		p := trk.PointAt(trk.Length() * float64(i) / float64(steps))
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	minX -= margin
	minY -= margin
	maxX += margin
	maxY += margin

	subW, subH := w*2, h*4
	sx := float64(subW) / (maxX - minX)
	sy := float64(subH) * cellAspect / (maxY - minY)
	return Viewport{minX: minX, minY: minY, scale: math.Min(sx, sy), subW: subW, subH: subH}
}

// Project converts a world point to canvas sub-pixels.
func (v Viewport) Project(p geom.Vec2) (int, int) {
	x := (p.X - v.minX) * v.scale
	y := (p.Y - v.minY) * v.scale / cellAspect
	return int(x), v.subH - 1 - int(y)
}

// DrawTrack rasterizes the full centerline as a polyline.
func DrawTrack(c *Canvas, v Viewport, trk *track.Track) {
	steps := int(trk.Length() * v.scale)
	if steps < 64 {
		steps = 64
	}
	px, py := v.Project(trk.PointAt(0))
	for i := 1; i <= steps; i++ {
		x, y := v.Project(trk.PointAt(trk.Length() * float64(i) / float64(steps)))
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

// DrawTrajectory plots a recorded path as individual dots.
func DrawTrajectory(c *Canvas, v Viewport, points []geom.Vec2) {
	for _, p := range points {
		x, y := v.Project(p)
		c.Set(x, y)
	}
}

// DrawRobot marks the robot as a filled blob with a short heading tick.
func DrawRobot(c *Canvas, v Viewport, pos geom.Vec2, heading float64) {
	x, y := v.Project(pos)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
	tip := pos.Add(geom.Unit(heading).Scale(4 / v.scale))
	tx, ty := v.Project(tip)
	c.DrawLine(x, y, tx, ty)
}
