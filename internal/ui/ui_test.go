package ui

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagtapper/internal/battery"
	"tagtapper/internal/gesture"
	"tagtapper/internal/model"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	require.Equal(t, 5, reg.Len())
	assert.False(t, reg.Tab(0).Destructive())
	assert.Equal(t, model.ActionReboot, reg.Tab(3).Action)
	assert.Equal(t, TabShutdown, reg.Tab(4).ID)
	assert.Equal(t, TabShutdown, reg.Tab(99).ID)
	assert.Equal(t, TabIPs, reg.Tab(-1).ID)
	assert.Equal(t, 4, reg.Clamp(7))
}

func TestRender_RegisteredContentIsCalled(t *testing.T) {
	reg := DefaultRegistry()
	var got image.Rectangle
	reg.Register(TabIPs, ContentFunc(func(dc *gg.Context, area image.Rectangle, _ time.Time) {
		got = area
		dc.SetRGB255(255, 0, 0)
		dc.DrawRectangle(float64(area.Min.X), float64(area.Min.Y), float64(area.Dx()), float64(area.Dy()))
		dc.Fill()
	}))

	r := NewRenderer(480, 320, reg)
	img := r.Render(Frame{Now: time.Now(), Active: 0, TouchAvailable: true})

	assert.Equal(t, image.Rect(0, headerHeight, 480, 320-indicatorMargin-indicatorRadius*2-12), got)
	assert.Equal(t, image.Rect(0, 0, 480, 320), img.Bounds())

	r8, g8, b8, _ := img.At(240, 100).RGBA()
	assert.Equal(t, uint32(0xFFFF), r8)
	assert.Zero(t, g8)
	assert.Zero(t, b8)

	// Header background.
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{0, 51, 102, 255}), color.RGBAModel.Convert(img.At(200, 2)))
}

func TestRender_ActionTabStates(t *testing.T) {
	reg := DefaultRegistry()
	r := NewRenderer(480, 320, reg)
	now := time.Now()

	frames := []Frame{
		{Now: now, Active: 4},
		{Now: now, Active: 4, Gesture: gesture.Holding, HoldTab: 4, HoldProgress: 0.5, HoldRemaining: 2500 * time.Millisecond},
		{Now: now, Active: 4, Gesture: gesture.Animating, HoldTab: 4, HoldProgress: 1, AnimProgress: 0.5},
		{Now: now, Active: 2, Touch: &model.ScreenPoint{X: 10, Y: 300}, Battery: &battery.Status{Percent: 12}},
	}
	for _, f := range frames {
		assert.NotPanics(t, func() { r.Render(f) })
	}
}

func TestRender_HoldRingFillsWithProgress(t *testing.T) {
	reg := DefaultRegistry()
	r := NewRenderer(480, 320, reg)

	idle := toRGBA(r.Render(Frame{Now: time.Now(), Active: 3}))
	full := toRGBA(r.Render(Frame{Now: time.Now(), Active: 3, Gesture: gesture.Holding, HoldTab: 3, HoldProgress: 0.99}))

	assert.Greater(t, countColor(full, okColor), countColor(idle, okColor))
}

func toRGBA(img image.Image) *image.RGBA {
	src := img.(*image.RGBA)
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func countColor(img *image.RGBA, c [3]int) int {
	n := 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if int(img.Pix[i]) == c[0] && int(img.Pix[i+1]) == c[1] && int(img.Pix[i+2]) == c[2] {
			n++
		}
	}
	return n
}
