//go:build !tinygo && cgo

package hal

import (
	"sparkgfx/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow opens a desktop window showing the emulated panel and forwards
// keyboard input. It blocks until the window closes.
func RunWindow(newApp func(HAL) func() error) error {
	h := New().(*hostHAL)
	defer h.bus.Close()
	step := newApp(h)

	ebiten.SetWindowTitle("sparkgfx (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.panel.Width()*2, h.panel.Height()*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(NewFramebufferGame(h.panel, func() error {
		h.kbd.poll()
		h.t.step(1)
		if step != nil {
			return step()
		}
		return nil
	}))
}

// FramebufferGame is an ebiten.Game that shows a Framebuffer scaled to
// the window.
type FramebufferGame struct {
	fb    Framebuffer
	pix   []byte
	fbImg *ebiten.Image
	step  func() error
}

// NewFramebufferGame returns a game showing fb. step runs on every update
// and may be nil.
func NewFramebufferGame(fb Framebuffer, step func() error) *FramebufferGame {
	return &FramebufferGame{fb: fb, step: step}
}

func (g *FramebufferGame) Update() error {
	if g.step != nil {
		return g.step()
	}
	return nil
}

func (g *FramebufferGame) Draw(screen *ebiten.Image) {
	w, h := g.fb.Width(), g.fb.Height()
	if g.fbImg == nil || g.fbImg.Bounds().Dx() != w || g.fbImg.Bounds().Dy() != h {
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(w, h)
		g.pix = make([]byte, w*h*4)
	}
	g.fb.SnapshotRGBA(g.pix)
	g.fbImg.WritePixels(g.pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *FramebufferGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.fb.Width(), g.fb.Height()
}

// RunFramebufferWindow opens a window titled title showing fb. It blocks
// until the window closes.
func RunFramebufferWindow(title string, fb Framebuffer, step func() error) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(fb.Width()*2, fb.Height()*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(NewFramebufferGame(fb, step))
}

// PointerState returns the cursor position in framebuffer pixels and
// whether the left button is held. Call it from a window step function.
func PointerState() (x, y int, pressed bool) {
	x, y = ebiten.CursorPosition()
	return x, y, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
}
