package app

import (
	"fmt"
	"runtime/debug"
	"strings"

	"sparkgfx/gfx/displayer"
)

const panicStackLines = 12

// showPanic logs v with the stack and paints both on the screen in red, so
// a crash on hardware without a console is still readable.
func (a *App) showPanic(v any) {
	stack := string(debug.Stack())
	a.logf("app: panic: %v\n%s", v, stack)

	d := displayer.New(a.target.CreateSurface(0), a.wait)
	c := displayer.NewConsole(d, displayer.ConsoleConfig{})
	fmt.Fprintf(c, "\x1b[31mpanic: %v\x1b[0m\n\n", v)
	for i, line := range strings.Split(stack, "\n") {
		if i == panicStackLines {
			break
		}
		fmt.Fprintln(c, strings.TrimSpace(line))
	}
	if err := c.Flush(); err != nil {
		a.logf("app: panic screen: %v", err)
	}
}
