package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/metalblueberry/intonation/pkg/engine"
	"github.com/metalblueberry/intonation/pkg/intonation"
	"github.com/metalblueberry/intonation/pkg/tuning"
)

type mode int

const (
	modeTuner mode = iota
	modeIntonation
)

var (
	colorBackground = color.RGBA{0x20, 0x20, 0x20, 0xff}
	colorOff        = color.RGBA{0x40, 0x40, 0x40, 0xff}
	colorGreen      = color.RGBA{0x30, 0xc0, 0x40, 0xff}
	colorYellow     = color.RGBA{0xe0, 0xd0, 0x30, 0xff}
	colorOrange     = color.RGBA{0xf0, 0x90, 0x20, 0xff}
	colorRed        = color.RGBA{0xe0, 0x30, 0x30, 0xff}
)

// Game draws whatever the engine holds. It never writes to the engine
// except through the key bindings.
type Game struct {
	ctx    context.Context
	engine *engine.Engine
	mode   mode

	trail []float64

	vertices []ebiten.Vertex
	indices  []uint16
}

func newGame(ctx context.Context, e *engine.Engine) *Game {
	return &Game{
		ctx:    ctx,
		engine: e,
	}
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		g.engine.StopIntonation()
		g.engine.ResetTuning()
		g.mode = modeTuner
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		g.engine.StartIntonation()
		g.mode = modeIntonation
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if g.mode == modeIntonation {
			g.engine.StartIntonation()
		} else {
			g.engine.ResetTuning()
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	top := screen.SubImage(image.Rect(0, 0, w, h/2)).(*ebiten.Image)
	bottom := screen.SubImage(image.Rect(0, h/2, w, h)).(*ebiten.Image)

	g.drawReading(top)

	switch g.mode {
	case modeTuner:
		g.trail = g.engine.Trail(g.trail[:0])
		g.drawTrail(bottom, g.trail, 50)
	case modeIntonation:
		g.drawIntonation(bottom)
	}

	ebitenutil.DebugPrintAt(screen, "[T] tuner  [I] intonation  [R] reset  [Esc] quit", 8, h-20)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (g *Game) drawReading(dst *ebiten.Image) {
	b := dst.Bounds()
	r, err := g.engine.Reading()

	switch {
	case errors.Is(err, tuning.ErrNoReading):
		ebitenutil.DebugPrintAt(dst, "play a string", b.Min.X+8, b.Min.Y+8)
		g.drawIndicators(dst, 0, false)
		return
	case errors.Is(err, tuning.ErrBetweenNotes):
		ebitenutil.DebugPrintAt(dst, fmt.Sprintf("%s?  %.2f Hz", r.Note.Name, r.Frequency), b.Min.X+8, b.Min.Y+8)
		g.drawIndicators(dst, 0, false)
		return
	case err != nil:
		ebitenutil.DebugPrintAt(dst, err.Error(), b.Min.X+8, b.Min.Y+8)
		return
	}

	text := fmt.Sprintf("%s  %.2f Hz  (%+.2f Hz, %s)  confidence %.2f",
		r.Note.Name, r.Frequency, r.Diff, r.Bucket, r.Confidence)
	ebitenutil.DebugPrintAt(dst, text, b.Min.X+8, b.Min.Y+8)
	g.drawIndicators(dst, r.Bucket.Level(), true)
}

// drawIndicators lights the boxes between the centre and level: three "-"
// boxes on the left, one centre box, three "+" boxes on the right.
func (g *Game) drawIndicators(dst *ebiten.Image, level int, lit bool) {
	b := dst.Bounds()
	const size, gap = 48, 12
	total := 7*size + 6*gap
	x0 := b.Min.X + (b.Dx()-total)/2
	y0 := b.Min.Y + b.Dy()/2 - size/2

	for i := -3; i <= 3; i++ {
		var c color.Color = colorOff
		if lit && lightUp(i, level) {
			c = levelColor(level)
		}

		x := x0 + (i+3)*(size+gap)
		fillRect(dst, image.Rect(x, y0, x+size, y0+size), c)

		label := "o"
		switch {
		case i < 0:
			label = "-"
		case i > 0:
			label = "+"
		}
		ebitenutil.DebugPrintAt(dst, label, x+size/2-3, y0+size+4)
	}
}

func lightUp(i, level int) bool {
	switch {
	case level == 0:
		return i == 0
	case level > 0:
		return i > 0 && i <= level
	default:
		return i < 0 && i >= level
	}
}

func levelColor(level int) color.Color {
	switch level {
	case 0:
		return colorGreen
	case 1, -1:
		return colorYellow
	case 2, -2:
		return colorOrange
	}
	return colorRed
}

func (g *Game) drawIntonation(dst *ebiten.Image) {
	b := dst.Bounds()
	session := g.engine.Intonation()
	if session == nil {
		return
	}

	current, _ := session.Current()
	for i, slot := range session.Slots() {
		y := b.Min.Y + 8 + i*28
		fillRect(dst, image.Rect(b.Min.X+8, y, b.Min.X+28, y+20), slotColor(slot))

		marker := " "
		if slot.Ordinal == current {
			marker = ">"
		}

		text := fmt.Sprintf("%s %d %-7s %-18s", marker, slot.Ordinal, slot.Label, slot.Status)
		if slot.Status >= intonation.OpenCaptured {
			text += fmt.Sprintf(" open %7.2f Hz", slot.OpenHz)
		}
		if slot.Status == intonation.Verified {
			text += fmt.Sprintf("  12th %7.2f Hz  %s (%+.2f Hz)", slot.HarmonicHz, slot.Verdict, slot.ErrorHz)
		}
		ebitenutil.DebugPrintAt(dst, text, b.Min.X+36, y+2)
	}

	ebitenutil.DebugPrintAt(dst, session.Hint().String(), b.Min.X+8, b.Min.Y+8+intonation.Strings*28)
}

func slotColor(slot intonation.Slot) color.Color {
	switch slot.Status {
	case intonation.Pending:
		return colorRed
	case intonation.Verified:
		if slot.Verdict == intonation.InTune {
			return colorGreen
		}
		return colorYellow
	}
	return colorOrange
}

var (
	whiteImage = ebiten.NewImage(3, 3)

	// whiteSubImage is an internal sub image of whiteImage.
	// Use whiteSubImage at DrawTriangles instead of whiteImage in order to avoid bleeding edges.
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

func fillRect(dst *ebiten.Image, r image.Rectangle, c color.Color) {
	dst.SubImage(r.Intersect(dst.Bounds())).(*ebiten.Image).Fill(c)
}

// drawTrail plots the recent deviations in cents, in tune on the middle
// line and limit at the edges.
func (g *Game) drawTrail(dst *ebiten.Image, data []float64, limit float64) {
	b := dst.Bounds()
	mid := float32(b.Min.Y + b.Dy()/2)
	width := float32(b.Dx())

	var centre vector.Path
	centre.MoveTo(float32(b.Min.X), mid)
	centre.LineTo(float32(b.Max.X), mid)
	g.stroke(dst, &centre, colorOff)

	if len(data) < 2 {
		return
	}

	scale := float64(b.Dy()/2-8) / limit
	var path vector.Path
	for i, cents := range data {
		cents = math.Max(-limit, math.Min(limit, cents))
		x := float32(b.Min.X) + float32(i)*width/float32(len(data)-1)
		y := mid - float32(cents*scale)

		if i == 0 {
			path.MoveTo(x, y)
			continue
		}
		path.LineTo(x, y)
	}
	g.stroke(dst, &path, colorGreen)
}

func (g *Game) stroke(dst *ebiten.Image, path *vector.Path, c color.Color) {
	op := &vector.StrokeOptions{}
	op.Width = float32(1)

	r, gr, b, a := c.RGBA()
	vs, is := path.AppendVerticesAndIndicesForStroke(g.vertices[:0], g.indices[:0], op)
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(r) / 0xffff
		vs[i].ColorG = float32(gr) / 0xffff
		vs[i].ColorB = float32(b) / 0xffff
		vs[i].ColorA = float32(a) / 0xffff
	}
	dst.DrawTriangles(vs, is, whiteSubImage, &ebiten.DrawTrianglesOptions{
		AntiAlias: false,
	})
	g.vertices, g.indices = vs, is
}
