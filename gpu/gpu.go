// Package gpu implements the PSX GPU's command-stream parser: the GP0
// drawing-command FIFO and the GP1 immediate control register, per spec
// section 4.5. Rendering is delegated to an external renderer.Renderer.
package gpu

import (
	"fmt"

	"github.com/lptafa/rstationx/renderer"
)

type TextureDepth int

const (
	T4 TextureDepth = iota
	T8
	T15
)

type Field int

const (
	Bottom Field = iota
	Top
)

// horizontalRes packs the two GP1 display-mode fields (hr1, hr2) into the
// single field the status word reports, per the teacher-reference layout.
type horizontalRes uint8

func horizontalResFromFields(hr1, hr2 uint8) horizontalRes {
	return horizontalRes((hr2 & 1) | ((hr1 & 3) << 1))
}

func (h horizontalRes) intoStatus() uint32 {
	return uint32(h) << 16
}

type VerticalRes int

const (
	Y240 VerticalRes = iota
	Y480
)

type VMode int

const (
	NTSC VMode = iota
	PAL
)

type DisplayDepth int

const (
	D15 DisplayDepth = iota
	D24
)

type DMADirection int

const (
	DMAOff DMADirection = iota
	DMAFIFO
	DMACPU2GP0
	DMAVRAM2CPU
)

type drawingArea struct {
	left, right, top, bottom uint16
}

// handler processes a fully-accumulated GP0 command. It receives the
// command words already pushed into the parser's buffer.
type handler func(*GPU) error

// commandBuffer is the 12-word GP0 command accumulator, per spec 3 and 4.5.
type commandBuffer struct {
	data [12]uint32
	len  uint8
}

func (c *commandBuffer) clear() {
	c.len = 0
}

func (c *commandBuffer) push(word uint32) {
	if c.len >= 12 {
		panic("gpu: command buffer overflow")
	}
	c.data[c.len] = word
	c.len++
}

func (c *commandBuffer) at(i int) uint32 {
	if i >= int(c.len) {
		panic(fmt.Sprintf("gpu: command buffer index out of range: %d (len %d)", i, c.len))
	}
	return c.data[i]
}

// GPU is the command parser and display-configuration state described in
// spec section 3.
type GPU struct {
	semiTransparency uint8
	textureBaseX     uint8
	textureBaseY     uint8
	textureDepth     TextureDepth

	textureDisable       bool
	drawToDisplay        bool
	forceSetMaskBit      bool
	preserveMaskedPixels bool
	interlacing          bool
	displayDisabled      bool
	dithering            bool
	interrupt            bool
	textureFlipX         bool
	textureFlipY         bool

	hres          horizontalRes
	vres          VerticalRes
	field         Field
	vmode         VMode
	displayDepth  DisplayDepth
	dmaDirection  DMADirection

	textureWindowMaskX, textureWindowMaskY     uint8
	textureWindowOffsetX, textureWindowOffsetY uint8
	drawingArea                                drawingArea
	drawingOffsetX, drawingOffsetY             int16
	displayVRAMStartX, displayVRAMStartY       uint16
	displayHorizRangeStart, displayHorizRangeEnd uint16
	displayLineRangeStart, displayLineRangeEnd   uint16

	gp0Command          commandBuffer
	gp0CommandRemaining uint32
	gp0CommandHandler   handler

	renderer renderer.Renderer
}

// New returns a GPU in its post-reset state, wired to the given renderer.
func New(r renderer.Renderer) *GPU {
	g := &GPU{renderer: r}
	g.reset()
	return g
}

func (g *GPU) reset() {
	g.interrupt = false
	g.textureBaseX, g.textureBaseY = 0, 0
	g.semiTransparency = 0
	g.textureDepth = T4
	g.textureWindowMaskX, g.textureWindowMaskY = 0, 0
	g.textureWindowOffsetX, g.textureWindowOffsetY = 0, 0
	g.dithering = false
	g.drawToDisplay = false
	g.textureDisable = false
	g.textureFlipX, g.textureFlipY = false, false
	g.drawingArea = drawingArea{}
	g.drawingOffsetX, g.drawingOffsetY = 0, 0
	g.forceSetMaskBit = false
	g.preserveMaskedPixels = false

	g.dmaDirection = DMAOff

	g.displayDisabled = true
	g.displayVRAMStartX, g.displayVRAMStartY = 0, 0
	g.hres = horizontalResFromFields(0, 0)
	g.vres = Y240

	g.vmode = NTSC
	g.interlacing = true
	g.displayHorizRangeStart, g.displayHorizRangeEnd = 0x200, 0xC00
	g.displayLineRangeStart, g.displayLineRangeEnd = 0x10, 0x100
	g.displayDepth = D15

	g.field = Top
	g.gp0Command.clear()
	g.gp0CommandRemaining = 0
	g.gp0CommandHandler = (*GPU).gp0Nop
}

// Status packs the GPU status word, bit-exact per spec 4.5.
func (g *GPU) Status() uint32 {
	var r uint32
	r |= uint32(g.textureBaseX) << 0
	r |= uint32(g.textureBaseY) << 4
	r |= uint32(g.semiTransparency) << 5
	r |= uint32(g.textureDepth) << 7
	r |= b32(g.dithering) << 9
	r |= b32(g.drawToDisplay) << 10
	r |= b32(g.forceSetMaskBit) << 11
	r |= b32(g.preserveMaskedPixels) << 12
	r |= uint32(g.field) << 13
	r |= b32(g.textureDisable) << 15
	r |= g.hres.intoStatus()
	r |= uint32(g.vres) << 19
	r |= uint32(g.vmode) << 20
	r |= uint32(g.displayDepth) << 21
	r |= b32(g.interlacing) << 22
	r |= b32(g.displayDisabled) << 23
	r |= b32(g.interrupt) << 24
	r |= 1 << 26
	r |= 1 << 27
	r |= 1 << 28
	r |= uint32(g.dmaDirection) << 29

	var dmaRequest uint32
	switch g.dmaDirection {
	case DMAOff:
		dmaRequest = 0
	case DMAFIFO:
		dmaRequest = 1
	case DMAVRAM2CPU:
		dmaRequest = (r >> 27) & 1
	case DMACPU2GP0:
		dmaRequest = (r >> 28) & 1
	}

	return r | dmaRequest<<25
}

func b32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Read returns the GPU read-port value (spec 4.3: GPU offset 0 loads).
// No GPU-to-CPU data transfer path is modeled; it always reads as 0.
func (g *GPU) Read() uint32 {
	return 0
}

// gp0Table maps a GP0 opcode to its word count and handler, a static
// table rather than an object hierarchy (spec design notes), mirroring
// the teacher's registry-style mapper table.
var gp0Table = map[uint32]struct {
	len     uint32
	handler handler
}{
	0x00: {1, (*GPU).gp0Nop},
	0x01: {1, (*GPU).gp0ClearCache},
	0x28: {5, (*GPU).gp0QuadMonoOpaque},
	0xE1: {1, (*GPU).gp0DrawMode},
	0xE2: {1, (*GPU).gp0TextureWindow},
	0xE3: {1, (*GPU).gp0DrawingAreaTopLeft},
	0xE4: {1, (*GPU).gp0DrawingAreaBottomRight},
	0xE5: {1, (*GPU).gp0DrawingOffset},
	0xE6: {1, (*GPU).gp0MaskBitSetting},
}

// GP0 feeds one word into the drawing command FIFO, per spec 4.5.
func (g *GPU) GP0(val uint32) error {
	if g.gp0CommandRemaining == 0 {
		opcode := (val >> 24) & 0xFF
		entry, ok := gp0Table[opcode]
		if !ok {
			return fmt.Errorf("gpu: unhandled GP0 command 0x%08x", val)
		}
		g.gp0CommandRemaining = entry.len
		g.gp0CommandHandler = entry.handler
		g.gp0Command.clear()
	}

	g.gp0Command.push(val)
	g.gp0CommandRemaining--

	if g.gp0CommandRemaining == 0 {
		return g.gp0CommandHandler(g)
	}
	return nil
}

func (g *GPU) gp0Nop() error { return nil }

func (g *GPU) gp0ClearCache() error { return nil }

// gp0QuadMonoOpaque assembles a flat-shaded quad from words 1..4 (color
// shared from word 0) and forwards it to the renderer as one PushQuad
// call; splitting it into triangles is left to the renderer (spec 6).
func (g *GPU) gp0QuadMonoOpaque() error {
	color := decodeColor(g.gp0Command.at(0))
	var positions [4]renderer.Position
	var colors [4]renderer.Color
	for i := 0; i < 4; i++ {
		positions[i] = decodePosition(g.gp0Command.at(i + 1))
		colors[i] = color
	}
	g.renderer.PushQuad(positions, colors)
	return nil
}

func (g *GPU) gp0DrawMode() error {
	val := g.gp0Command.at(0)

	g.textureBaseX = uint8(val & 0xF)
	g.textureBaseY = uint8((val >> 4) & 1)
	g.semiTransparency = uint8((val >> 5) & 3)

	switch (val >> 7) & 3 {
	case 0:
		g.textureDepth = T4
	case 1:
		g.textureDepth = T8
	case 2:
		g.textureDepth = T15
	default:
		return fmt.Errorf("gpu: unhandled texture depth %d", (val>>7)&3)
	}

	g.dithering = (val>>9)&1 != 0
	g.drawToDisplay = (val>>10)&1 != 0
	g.textureDisable = (val>>11)&1 != 0
	g.textureFlipX = (val>>12)&1 != 0
	g.textureFlipY = (val>>13)&1 != 0

	return nil
}

func (g *GPU) gp0TextureWindow() error {
	val := g.gp0Command.at(0)

	g.textureWindowMaskX = uint8(val & 0x1F)
	g.textureWindowMaskY = uint8((val >> 5) & 0x1F)
	g.textureWindowOffsetX = uint8((val >> 10) & 0x1F)
	g.textureWindowOffsetY = uint8((val >> 15) & 0x1F)
	return nil
}

func (g *GPU) gp0DrawingAreaTopLeft() error {
	val := g.gp0Command.at(0)
	g.drawingArea.top = uint16((val >> 10) & 0x3FF)
	g.drawingArea.left = uint16(val & 0x3FF)
	return nil
}

func (g *GPU) gp0DrawingAreaBottomRight() error {
	val := g.gp0Command.at(0)
	g.drawingArea.bottom = uint16((val >> 10) & 0x3FF)
	g.drawingArea.right = uint16(val & 0x3FF)
	return nil
}

// gp0DrawingOffset decodes a signed 11-bit x/y pair via arithmetic shift,
// per spec 4.5.
func (g *GPU) gp0DrawingOffset() error {
	val := g.gp0Command.at(0)

	x := uint16(val & 0x7FF)
	y := uint16((val >> 11) & 0x7FF)

	xSE := int16(x<<5) >> 5
	ySE := int16(y<<5) >> 5

	g.drawingOffsetX, g.drawingOffsetY = xSE, ySE

	g.renderer.SetDrawOffset(renderer.Position{X: xSE, Y: ySE})

	return nil
}

func (g *GPU) gp0MaskBitSetting() error {
	val := g.gp0Command.at(0)
	g.forceSetMaskBit = val&1 != 0
	g.preserveMaskedPixels = val&2 != 0
	return nil
}

// GP1 dispatches an immediate control write, per spec 4.5.
func (g *GPU) GP1(val uint32) error {
	opcode := (val >> 24) & 0xFF

	switch opcode {
	case 0x00:
		return g.gp1Reset(val)
	case 0x04:
		return g.gp1DMADirection(val)
	case 0x05:
		return g.gp1DisplayVRAMStart(val)
	case 0x06:
		return g.gp1DisplayHorizontalRange(val)
	case 0x07:
		return g.gp1DisplayVerticalRange(val)
	case 0x08:
		return g.gp1DisplayMode(val)
	default:
		return fmt.Errorf("gpu: unhandled GP1 command 0x%08x", val)
	}
}

func (g *GPU) gp1Reset(uint32) error {
	g.reset()
	return nil
}

func (g *GPU) gp1DMADirection(val uint32) error {
	switch val & 3 {
	case 0:
		g.dmaDirection = DMAOff
	case 1:
		g.dmaDirection = DMAFIFO
	case 2:
		g.dmaDirection = DMACPU2GP0
	case 3:
		g.dmaDirection = DMAVRAM2CPU
	}
	return nil
}

func (g *GPU) gp1DisplayVRAMStart(val uint32) error {
	g.displayVRAMStartX = uint16(val & 0x3FE)
	g.displayVRAMStartY = uint16((val >> 10) & 0x1FF)
	return nil
}

func (g *GPU) gp1DisplayHorizontalRange(val uint32) error {
	g.displayHorizRangeStart = uint16(val & 0xFFF)
	g.displayHorizRangeEnd = uint16((val >> 12) & 0xFFF)
	return nil
}

func (g *GPU) gp1DisplayVerticalRange(val uint32) error {
	g.displayLineRangeStart = uint16(val & 0x3FF)
	g.displayLineRangeEnd = uint16((val >> 10) & 0x3FF)
	return nil
}

func (g *GPU) gp1DisplayMode(val uint32) error {
	hr1 := uint8(val & 3)
	hr2 := uint8((val >> 6) & 1)
	g.hres = horizontalResFromFields(hr1, hr2)

	if val&0x4 != 0 {
		g.vres = Y480
	} else {
		g.vres = Y240
	}

	if val&0x8 != 0 {
		g.vmode = PAL
	} else {
		g.vmode = NTSC
	}

	if val&0x10 != 0 {
		g.displayDepth = D15
	} else {
		g.displayDepth = D24
	}

	g.interlacing = val&0x20 != 0

	if val&0x80 != 0 {
		return fmt.Errorf("gpu: unsupported display mode 0x%08x", val)
	}
	return nil
}

// decodePosition decodes a GP0 vertex word as (low 16, high 16) signed
// 16-bit integers, per spec 6.
func decodePosition(word uint32) renderer.Position {
	return renderer.Position{
		X: int16(word & 0xFFFF),
		Y: int16(word >> 16),
	}
}

// decodeColor decodes a GP0 color word as three 8-bit channels, per spec 6.
func decodeColor(word uint32) renderer.Color {
	return renderer.Color{
		R: uint8(word),
		G: uint8(word >> 8),
		B: uint8(word >> 16),
	}
}
