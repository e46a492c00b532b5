package ui

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"

	"tagtapper/internal/battery"
	"tagtapper/internal/gesture"
	"tagtapper/internal/model"
)

// Palette.
var (
	bgColor        = [3]int{0, 0, 0}
	headerBG       = [3]int{0, 51, 102}
	textColor      = [3]int{255, 255, 255}
	textActive     = [3]int{0, 255, 0}
	accentColor    = [3]int{255, 200, 0}
	mutedText      = [3]int{200, 200, 200}
	okColor        = [3]int{0, 200, 0}
	errorColor     = [3]int{200, 60, 60}
	neutralRing    = [3]int{60, 60, 60}
	inactiveMarker = [3]int{80, 80, 80}
)

const (
	headerHeight     = 35
	indicatorRadius  = 8
	indicatorSpacing = 24
	indicatorMargin  = 30
	appName          = "Tag Tapper Pi"
)

// Frame is everything the renderer needs for one frame.
type Frame struct {
	Now    time.Time
	Active int

	Gesture       gesture.State
	HoldTab       int
	HoldProgress  float64
	HoldRemaining time.Duration
	AnimProgress  float64

	// Touch is the last smoothed contact point while pressed.
	Touch *model.ScreenPoint
	// TouchAvailable is false when the touch device could not be opened.
	TouchAvailable bool

	Battery *battery.Status
}

// Renderer draws frames into a reused RGBA canvas.
type Renderer struct {
	reg *Registry
	dc  *gg.Context
}

// NewRenderer returns a renderer for a w x h canvas.
func NewRenderer(w, h int, reg *Registry) *Renderer {
	return &Renderer{reg: reg, dc: gg.NewContext(w, h)}
}

// Render draws f. The returned image is reused by the next call.
func (r *Renderer) Render(f Frame) image.Image {
	dc := r.dc
	setRGB(dc, bgColor)
	dc.Clear()

	tab := r.reg.Tab(f.Active)
	r.drawHeader(f, tab)
	content := r.drawIndicators(f.Active)

	switch {
	case tab.Destructive():
		r.drawActionTab(f, tab, content)
	case r.reg.Content(tab.ID) != nil:
		r.reg.Content(tab.ID).Draw(dc, content, f.Now)
	default:
		drawPlaceholder(dc, tab, content)
	}

	if f.Touch != nil {
		setRGB(dc, accentColor)
		dc.DrawCircle(float64(f.Touch.X), float64(f.Touch.Y), 4)
		dc.Fill()
	}
	return dc.Image()
}

func (r *Renderer) drawHeader(f Frame, tab Tab) {
	dc := r.dc
	w := float64(dc.Width())

	setRGB(dc, headerBG)
	dc.DrawRectangle(0, 0, w, headerHeight)
	dc.Fill()

	dc.SetFontFace(inconsolata.Bold8x16)
	setRGB(dc, textActive)
	dc.DrawStringAnchored(tab.Label, w/2, headerHeight/2, 0.5, 0.5)

	dc.SetFontFace(basicfont.Face7x13)
	setRGB(dc, textColor)
	dc.DrawStringAnchored(appName, 10, headerHeight/2, 0, 0.5)

	right := w - 10
	clock := f.Now.Format("02.01.2006 15:04")
	dc.DrawStringAnchored(clock, right, headerHeight/2, 1, 0.5)
	cw, _ := dc.MeasureString(clock)
	right -= cw + 10

	if f.Battery != nil {
		txt := fmt.Sprintf("%d%%", f.Battery.Percent)
		if f.Battery.Percent < 20 {
			setRGB(dc, errorColor)
		} else {
			setRGB(dc, okColor)
		}
		dc.DrawStringAnchored(txt, right, headerHeight/2, 1, 0.5)
		bw, _ := dc.MeasureString(txt)
		right -= bw + 10
	}
	if !f.TouchAvailable {
		setRGB(dc, errorColor)
		dc.DrawStringAnchored("no touch", right, headerHeight/2, 1, 0.5)
	}
}

// drawIndicators draws the page dots and returns the content area between
// header and dots.
func (r *Renderer) drawIndicators(active int) image.Rectangle {
	dc := r.dc
	w, h := dc.Width(), dc.Height()
	n := r.reg.Len()

	total := n * indicatorSpacing
	startX := (w-total)/2 + indicatorRadius
	y := h - indicatorMargin
	for i := 0; i < n; i++ {
		x := float64(startX + i*indicatorSpacing)
		if i == active {
			setRGB(dc, textActive)
			dc.DrawCircle(x, float64(y), indicatorRadius)
			dc.Fill()
			continue
		}
		setRGB(dc, inactiveMarker)
		dc.SetLineWidth(2)
		dc.DrawCircle(x, float64(y), indicatorRadius)
		dc.Stroke()
	}

	bottom := y - indicatorRadius*2 - 12
	if bottom < headerHeight {
		bottom = headerHeight
	}
	return image.Rect(0, headerHeight, w, bottom)
}

func (r *Renderer) drawActionTab(f Frame, tab Tab, area image.Rectangle) {
	dc := r.dc
	holding := f.HoldTab == r.reg.Clamp(f.Active) &&
		(f.Gesture == gesture.Holding || f.Gesture == gesture.Animating || f.Gesture == gesture.Confirmed)

	cx := float64(area.Min.X+area.Max.X) / 2
	hint := "Hold 5s to confirm"
	if f.Gesture == gesture.Holding && holding {
		secs := int(math.Ceil(f.HoldRemaining.Seconds()))
		hint = fmt.Sprintf("Hold to confirm: %ds", secs)
	}
	dc.SetFontFace(inconsolata.Bold8x16)
	setRGB(dc, accentColor)
	dc.DrawStringAnchored(hint, cx, float64(area.Min.Y)+16, 0.5, 0.5)

	ringTop := area.Min.Y + 32
	ringArea := image.Rect(area.Min.X, ringTop, area.Max.X, area.Max.Y)
	radius := math.Min(float64(ringArea.Dx()), float64(ringArea.Dy()))/2 - 12
	if radius < 20 {
		radius = 20
	}
	thickness := math.Max(8, radius*0.15)
	cy := float64(ringArea.Min.Y+ringArea.Max.Y) / 2

	setRGB(dc, neutralRing)
	dc.SetLineWidth(thickness)
	dc.DrawCircle(cx, cy, radius)
	dc.Stroke()

	progress := 0.0
	if holding {
		progress = f.HoldProgress
	}
	if progress > 0 {
		start := -math.Pi / 2
		setRGB(dc, okColor)
		dc.NewSubPath()
		dc.DrawArc(cx, cy, radius, start, start+progress*2*math.Pi)
		dc.Stroke()
	}

	label := tab.Label
	if holding && f.Gesture != gesture.Holding {
		// Confirmation flash: a disc grows inside the ring.
		setRGB(dc, accentColor)
		dc.DrawCircle(cx, cy, (radius-thickness/2)*f.AnimProgress)
		dc.Fill()
		label = tab.Label + "..."
		setRGB(dc, bgColor)
	} else {
		setRGB(dc, accentColor)
	}
	dc.SetFontFace(inconsolata.Bold8x16)
	dc.DrawStringAnchored(label, cx, cy, 0.5, 0.5)
}

func drawPlaceholder(dc *gg.Context, tab Tab, area image.Rectangle) {
	dc.SetFontFace(basicfont.Face7x13)
	setRGB(dc, mutedText)
	cx := float64(area.Min.X+area.Max.X) / 2
	cy := float64(area.Min.Y+area.Max.Y) / 2
	dc.DrawStringAnchored(tab.Label+": no data", cx, cy, 0.5, 0.5)
}

func setRGB(dc *gg.Context, c [3]int) {
	dc.SetRGB255(c[0], c[1], c[2])
}
