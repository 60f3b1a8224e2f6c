package content

import "math"

const (
	IconSize       = 40
	IconGap        = 8
	ViewportMargin = 16
	PromptWidth    = 400
	PromptHeight   = 120
)

// Viewport is the visible part of the page.
type Viewport struct {
	Width   float64
	Height  float64
	ScrollX float64
	ScrollY float64
}

// Placement is an absolute page position for a floating element.
type Placement struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Clamp keeps a box of the given size inside the viewport with a margin on
// every side. The width shrinks to fit narrow viewports.
func Clamp(top, left, width, height float64, vp Viewport) Placement {
	w := math.Min(width, vp.Width-2*ViewportMargin)

	l := math.Max(vp.ScrollX+ViewportMargin, left)
	l = math.Min(l, vp.ScrollX+vp.Width-w-ViewportMargin)

	t := math.Max(vp.ScrollY+ViewportMargin, top)
	t = math.Min(t, vp.ScrollY+vp.Height-height-ViewportMargin)

	return Placement{Top: t, Left: l, Width: w, Height: height}
}

// PlaceIcon centres the icon under the selection, or above it when there is
// no room below.
func PlaceIcon(sel Rect, vp Viewport) Placement {
	top := vp.ScrollY + sel.Bottom() + IconGap
	left := vp.ScrollX + sel.Left + sel.Width/2 - IconSize/2

	if top+IconSize+IconGap > vp.ScrollY+vp.Height {
		top = vp.ScrollY + sel.Top - IconSize - IconGap
	}

	p := Clamp(top, left, IconSize, IconSize, vp)
	p.Width = IconSize
	return p
}

// PlacePrompt anchors the prompt panel on the icon.
func PlacePrompt(icon Placement, vp Viewport) Placement {
	left := icon.Left + icon.Width/2 - PromptWidth/2
	return Clamp(icon.Top, left, PromptWidth, PromptHeight, vp)
}
