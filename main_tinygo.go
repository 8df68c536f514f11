//go:build tinygo

package main

import (
	"context"

	"sparkgfx/app"
	"sparkgfx/hal"
)

func main() {
	h := hal.New()
	if err := app.Run(context.Background(), h, app.Config{}); err != nil {
		h.Logger().WriteLineString("sparkgfx: " + err.Error())
	}
	select {}
}
