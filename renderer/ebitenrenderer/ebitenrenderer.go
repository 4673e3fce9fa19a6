// Package ebitenrenderer implements renderer.Renderer as a windowed
// ebiten.Game, grounded directly on console/bus.go's Layout/Draw/Update
// trio in the teacher repo: there, Draw blits the PPU's pixel buffer into
// the ebiten screen every frame and Update is a no-op because the real
// work happens on a background goroutine. Here the GPU's accumulated
// triangles/quads are rasterized into a software framebuffer that Draw
// blits the same way.
package ebitenrenderer

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lptafa/rstationx/renderer"
)

const (
	width  = 1024
	height = 512
)

// Renderer is an ebiten.Game that also implements renderer.Renderer. The
// GPU command parser pushes primitives into it; ebiten's event loop reads
// the accumulated framebuffer back out through Draw, mirroring how the
// teacher's Bus separates its emulation-owned state from the ebiten
// frame-presentation path.
type Renderer struct {
	fb     *image.RGBA
	offset renderer.Position
}

// New returns a Renderer with a cleared VRAM-sized framebuffer and
// configures the ebiten window the way console.New does for its NES
// display.
func New() *Renderer {
	r := &Renderer{fb: image.NewRGBA(image.Rect(0, 0, width, height))}

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("rstationx")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return r
}

func (r *Renderer) PushTriangle(positions [3]renderer.Position, colors [3]renderer.Color) {
	r.rasterizeTriangle(positions, colors)
}

func (r *Renderer) PushQuad(positions [4]renderer.Position, colors [4]renderer.Color) {
	r.rasterizeTriangle([3]renderer.Position{positions[0], positions[1], positions[2]},
		[3]renderer.Color{colors[0], colors[1], colors[2]})
	r.rasterizeTriangle([3]renderer.Position{positions[0], positions[2], positions[3]},
		[3]renderer.Color{colors[0], colors[2], colors[3]})
}

func (r *Renderer) SetDrawOffset(position renderer.Position) {
	r.offset = position
}

func (r *Renderer) Draw() {}

func (r *Renderer) Display() {}

// rasterizeTriangle fills a flat-shaded triangle with a straightforward
// bounding-box/barycentric scan — not bit-accurate PSX rasterization,
// just enough to exercise the Renderer contract end to end.
func (r *Renderer) rasterizeTriangle(positions [3]renderer.Position, colors [3]renderer.Color) {
	x0, y0 := int(positions[0].X)+int(r.offset.X), int(positions[0].Y)+int(r.offset.Y)
	x1, y1 := int(positions[1].X)+int(r.offset.X), int(positions[1].Y)+int(r.offset.Y)
	x2, y2 := int(positions[2].X)+int(r.offset.X), int(positions[2].Y)+int(r.offset.Y)

	minX, maxX := minInt3(x0, x1, x2), maxInt3(x0, x1, x2)
	minY, maxY := minInt3(y0, y1, y2), maxInt3(y0, y1, y2)
	minX, minY = clamp(minX, 0, width-1), clamp(minY, 0, height-1)
	maxX, maxY = clamp(maxX, 0, width-1), clamp(maxY, 0, height-1)

	c := color.RGBA{R: colors[0].R, G: colors[0].G, B: colors[0].B, A: 0xFF}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(x, y, x0, y0, x1, y1, x2, y2) {
				r.fb.SetRGBA(x, y, c)
			}
		}
	}
}

func sign(x1, y1, x2, y2, x3, y3 int) int {
	return (x1-x3)*(y2-y3) - (x2-x3)*(y1-y3)
}

func pointInTriangle(px, py, x0, y0, x1, y1, x2, y2 int) bool {
	d1 := sign(px, py, x0, y0, x1, y1)
	d2 := sign(px, py, x1, y1, x2, y2)
	d3 := sign(px, py, x2, y2, x0, y0)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0

	return !(hasNeg && hasPos)
}

func minInt3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxInt3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Game adapts a *Renderer to ebiten.Game. It is kept separate from
// Renderer itself because ebiten.Game's Draw(screen) and
// renderer.Renderer's Draw() collide on name; console/bus.go didn't need
// this split because the teacher's Bus implements only ebiten.Game, never
// a second drawing interface.
type Game struct {
	r *Renderer
}

// NewGame wraps r for use with ebiten.RunGame.
func NewGame(r *Renderer) *Game {
	return &Game{r: r}
}

// Layout returns the constant VRAM resolution, forcing ebiten to scale on
// window resize, same rationale as console/bus.go's Layout.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return width, height
}

// Draw blits the software framebuffer into the screen, the same
// pixel-by-pixel copy console/bus.go's Draw performs from the PPU.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.WritePixels(g.r.fb.Pix)
}

// Update is a no-op: the emulated machine is stepped on a background
// goroutine, exactly as console/bus.go's Update comment explains for the
// NES teacher.
func (g *Game) Update() error {
	return nil
}
