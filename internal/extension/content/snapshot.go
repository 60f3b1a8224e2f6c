package content

import "strings"

// TargetKind is the kind of element a selection lives in.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetInput
	TargetTextarea
	TargetContentEditable
)

func (k TargetKind) String() string {
	switch k {
	case TargetInput:
		return "input"
	case TargetTextarea:
		return "textarea"
	case TargetContentEditable:
		return "contenteditable"
	default:
		return "none"
	}
}

// Editable reports whether text can be written back into the target.
func (k TargetKind) Editable() bool {
	return k == TargetInput || k == TargetTextarea || k == TargetContentEditable
}

// Range is a half-open [Start, End) span of characters.
type Range struct {
	Start int
	End   int
}

// Collapsed reports whether the range selects nothing.
func (r Range) Collapsed() bool {
	return r.End <= r.Start
}

// Rect is a box in CSS pixels.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

func (r Rect) Bottom() float64 { return r.Top + r.Height }
func (r Rect) Right() float64  { return r.Left + r.Width }

// Empty reports whether the box has no area in either direction.
func (r Rect) Empty() bool {
	return r.Width <= 0 && r.Height <= 0
}

// Snapshot captures a selection at the moment the user acted on it. It is a
// value; later changes to the page do not affect it.
type Snapshot struct {
	SelectedText string
	Range        Range
	Kind         TargetKind
	// Rect is the selection's bounding box relative to the viewport.
	Rect Rect
}

// NewSnapshot trims the selected text and returns the snapshot with ok=false
// when it cannot be acted on.
func NewSnapshot(text string, r Range, kind TargetKind, rect Rect) (Snapshot, bool) {
	s := Snapshot{
		SelectedText: strings.TrimSpace(text),
		Range:        r,
		Kind:         kind,
		Rect:         rect,
	}
	return s, s.Valid()
}

// Valid reports whether the snapshot has text in an editable target.
func (s Snapshot) Valid() bool {
	return strings.TrimSpace(s.SelectedText) != "" &&
		s.Kind.Editable() &&
		s.Range.Start >= 0 && s.Range.Start <= s.Range.End
}

// HasSelection reports whether the result would replace selected text rather
// than be inserted at a caret.
func (s Snapshot) HasSelection() bool {
	return s.SelectedText != "" && !s.Range.Collapsed()
}
