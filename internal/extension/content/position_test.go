package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var desktop = Viewport{Width: 1000, Height: 800}

func TestPlaceIcon(t *testing.T) {
	tests := []struct {
		name string
		sel  Rect
		vp   Viewport
		want Placement
	}{
		{
			name: "below selection",
			sel:  Rect{Top: 100, Left: 200, Width: 100, Height: 20},
			vp:   desktop,
			want: Placement{Top: 128, Left: 230, Width: IconSize, Height: IconSize},
		},
		{
			name: "flips above near the bottom",
			sel:  Rect{Top: 760, Left: 200, Width: 100, Height: 20},
			vp:   desktop,
			want: Placement{Top: 712, Left: 230, Width: IconSize, Height: IconSize},
		},
		{
			name: "clamped to left margin",
			sel:  Rect{Top: 100, Left: 0, Width: 10, Height: 20},
			vp:   desktop,
			want: Placement{Top: 128, Left: ViewportMargin, Width: IconSize, Height: IconSize},
		},
		{
			name: "scrolled page",
			sel:  Rect{Top: 100, Left: 200, Width: 100, Height: 20},
			vp:   Viewport{Width: 1000, Height: 800, ScrollX: 10, ScrollY: 500},
			want: Placement{Top: 628, Left: 240, Width: IconSize, Height: IconSize},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceIcon(tt.sel, tt.vp))
		})
	}
}

func TestPlacePrompt(t *testing.T) {
	icon := PlaceIcon(Rect{Top: 100, Left: 200, Width: 100, Height: 20}, desktop)

	p := PlacePrompt(icon, desktop)
	assert.Equal(t, Placement{Top: 128, Left: 50, Width: PromptWidth, Height: PromptHeight}, p)
}

func TestPlacePromptNarrowViewport(t *testing.T) {
	vp := Viewport{Width: 300, Height: 600}
	icon := PlaceIcon(Rect{Top: 50, Left: 100, Width: 50, Height: 20}, vp)

	p := PlacePrompt(icon, vp)
	assert.Equal(t, float64(300-2*ViewportMargin), p.Width)
	assert.Equal(t, float64(ViewportMargin), p.Left)
}

func TestClampBottomEdge(t *testing.T) {
	p := Clamp(790, 100, 200, 120, desktop)
	assert.Equal(t, float64(800-120-ViewportMargin), p.Top)
}
