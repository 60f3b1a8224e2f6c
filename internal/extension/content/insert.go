package content

import (
	"errors"
	"strings"
)

var (
	ErrInvalidRange      = errors.New("selection range is out of bounds")
	ErrInsertFailed      = errors.New("could not insert text into the element")
	ErrUnsupportedTarget = errors.New("element does not accept text")
)

// Events dispatched after a programmatic edit so page frameworks observe it.
const (
	EventInput  = "input"
	EventChange = "change"
)

// TextField is an input or textarea element.
type TextField interface {
	Value() string
	SetValue(v string)
	SetCursor(pos int)
	Dispatch(event string)
}

// SpliceText replaces r in the field's value with text, places the caret after
// the inserted text and fires input then change. Offsets count characters.
func SpliceText(f TextField, r Range, text string) (int, error) {
	value := []rune(f.Value())
	if r.Start < 0 || r.End < r.Start || r.End > len(value) {
		return 0, ErrInvalidRange
	}

	var b strings.Builder
	b.WriteString(string(value[:r.Start]))
	b.WriteString(text)
	b.WriteString(string(value[r.End:]))
	f.SetValue(b.String())

	cursor := r.Start + len([]rune(text))
	f.SetCursor(cursor)
	f.Dispatch(EventInput)
	f.Dispatch(EventChange)
	return cursor, nil
}

// RichTarget is a contentEditable element. Each method maps to one way a page
// can be asked to accept text.
type RichTarget interface {
	// Select restores the snapshot range as the live selection.
	Select(r Range)
	// ExecInsertText runs the insertText editing command.
	ExecInsertText(text string) bool
	// DispatchPaste fires a synthetic paste event and reports whether a page
	// handler consumed it.
	DispatchPaste(text string) (defaultPrevented bool)
	// ReplaceRange deletes the range contents and inserts a text node.
	ReplaceRange(r Range, text string) error
	TextContent() string
	Dispatch(event string)
}

// Strategy is one attempt at writing into a RichTarget.
type Strategy interface {
	Name() string
	Insert(t RichTarget, r Range, text string) bool
}

type execCommandStrategy struct{}

func (execCommandStrategy) Name() string { return "execCommand" }

func (execCommandStrategy) Insert(t RichTarget, r Range, text string) bool {
	t.Select(r)
	return t.ExecInsertText(text) && visible(t, text)
}

type pasteStrategy struct{}

func (pasteStrategy) Name() string { return "paste" }

func (pasteStrategy) Insert(t RichTarget, r Range, text string) bool {
	t.Select(r)
	if t.DispatchPaste(text) {
		return true
	}
	return visible(t, text)
}

type rangeStrategy struct{}

func (rangeStrategy) Name() string { return "range" }

func (rangeStrategy) Insert(t RichTarget, r Range, text string) bool {
	if err := t.ReplaceRange(r, text); err != nil {
		return false
	}
	t.Dispatch(EventInput)
	return true
}

// DefaultStrategies is the order rich editors are tried in.
var DefaultStrategies = []Strategy{execCommandStrategy{}, pasteStrategy{}, rangeStrategy{}}

// InsertRich tries each strategy in turn and returns the name of the first one
// that took effect.
func InsertRich(t RichTarget, r Range, text string, strategies ...Strategy) (string, error) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		if s.Insert(t, r, text) {
			return s.Name(), nil
		}
	}
	return "", ErrInsertFailed
}

func visible(t RichTarget, text string) bool {
	return strings.Contains(t.TextContent(), text)
}
