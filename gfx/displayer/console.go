package displayer

import (
	"image/color"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// ConsoleConfig picks the console font. Zero values select proggy
// TinySZ8pt7b with a 9 pixel line.
type ConsoleConfig struct {
	Font       tinyfont.Fonter
	FontHeight int16
	FontOffset int16
}

// Console is a text terminal drawn through a Display. The terminal
// scrolls through Display.SetScroll, so it works on any surface.
type Console struct {
	d   *Display
	t   *tinyterm.Terminal
	cfg ConsoleConfig
}

func NewConsole(d *Display, cfg ConsoleConfig) *Console {
	if cfg.Font == nil {
		cfg.Font = &proggy.TinySZ8pt7b
		cfg.FontHeight = 9
		cfg.FontOffset = 7
	}
	if cfg.FontHeight <= 0 {
		cfg.FontHeight = int16(cfg.Font.GetYAdvance())
	}
	c := &Console{d: d, cfg: cfg}
	c.Clear()
	return c
}

// Clear blanks the screen and moves the cursor home.
func (c *Console) Clear() {
	w, h := c.d.Size()
	c.d.SetScrollHeight(0)
	_ = c.d.FillRectangle(0, 0, w, h, color.RGBA{A: 255})
	c.d.SetScrollHeight(h / c.cfg.FontHeight * c.cfg.FontHeight)
	c.t = tinyterm.NewTerminal(c.d)
	c.t.Configure(&tinyterm.Config{
		Font:       c.cfg.Font,
		FontHeight: c.cfg.FontHeight,
		FontOffset: c.cfg.FontOffset,
	})
}

// Write draws p, interpreting the ANSI sequences tinyterm knows. Drawing
// is sent on Flush or whenever the surface fills.
func (c *Console) Write(p []byte) (int, error) { return c.t.Write(p) }

// Flush presents what has been written.
func (c *Console) Flush() error { return c.d.Display() }
