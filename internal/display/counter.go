// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	panelW = 128
	panelH = 64
)

// Drawer is the part of *ssd1306.Dev the counter needs.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

var _ Drawer = (*ssd1306.Dev)(nil)

// Counter draws the heartbeat counter at a fixed position.
type Counter struct {
	dev    Drawer
	cursor image.Point
	scale  int
}

// NewCounter returns a counter drawing at cursor (top-left of the text)
// with glyphs scaled by textSize.
func NewCounter(dev Drawer, cursor image.Point, textSize int) *Counter {
	if textSize < 1 {
		textSize = 1
	}
	return &Counter{dev: dev, cursor: cursor, scale: textSize}
}

// ShowCounter implements heartbeat.CounterDisplay.
func (c *Counter) ShowCounter(n uint) error {
	img := RenderCounter(n, c.cursor, c.scale)
	return c.dev.Draw(c.dev.Bounds(), img, image.Point{})
}

// RenderCounter returns a full panel frame with n printed at cursor.
// Trailing spaces blank whatever a longer previous value left behind.
func RenderCounter(n uint, cursor image.Point, scale int) *image1bit.VerticalLSB {
	frame := image1bit.NewVerticalLSB(image.Rect(0, 0, panelW, panelH))

	text := fmt.Sprintf("%d      ", n)
	face := basicfont.Face7x13

	// Render at 1x, then scale up; basicfont has no larger sizes.
	glyphs := image1bit.NewVerticalLSB(image.Rect(0, 0, face.Advance*len(text), face.Height))
	drawer := &font.Drawer{
		Dst:  glyphs,
		Src:  &image.Uniform{image1bit.On},
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(text)

	b := glyphs.Bounds()
	dst := image.Rect(cursor.X, cursor.Y, cursor.X+b.Dx()*scale, cursor.Y+b.Dy()*scale)
	draw.NearestNeighbor.Scale(frame, dst, glyphs, b, draw.Src, nil)

	return frame
}
