package content

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeField struct {
	value  string
	cursor int
	events []string
}

func (f *fakeField) Value() string         { return f.value }
func (f *fakeField) SetValue(v string)     { f.value = v }
func (f *fakeField) SetCursor(pos int)     { f.cursor = pos }
func (f *fakeField) Dispatch(event string) { f.events = append(f.events, event) }

func TestSpliceText(t *testing.T) {
	f := &fakeField{value: "abcdefgh"}

	cursor, err := SpliceText(f, Range{Start: 3, End: 7}, "XY")
	require.NoError(t, err)
	assert.Equal(t, "abcXYh", f.value)
	assert.Equal(t, 5, cursor)
	assert.Equal(t, 5, f.cursor)
	assert.Equal(t, []string{EventInput, EventChange}, f.events)
}

func TestSpliceTextCountsCharacters(t *testing.T) {
	f := &fakeField{value: "héllo"}

	_, err := SpliceText(f, Range{Start: 1, End: 2}, "e")
	require.NoError(t, err)
	assert.Equal(t, "hello", f.value)
}

func TestSpliceTextInvalidRange(t *testing.T) {
	for _, r := range []Range{{Start: -1, End: 2}, {Start: 4, End: 2}, {Start: 0, End: 99}} {
		f := &fakeField{value: "abc"}
		_, err := SpliceText(f, r, "x")
		assert.ErrorIs(t, err, ErrInvalidRange)
		assert.Equal(t, "abc", f.value)
		assert.Empty(t, f.events)
	}
}

type fakeRich struct {
	text string

	execApplies   bool
	execReports   bool
	pastePrevents bool
	rangeErr      error

	calls  []string
	events []string
}

func (f *fakeRich) Select(Range) {}

func (f *fakeRich) ExecInsertText(text string) bool {
	f.calls = append(f.calls, "exec")
	if f.execApplies {
		f.text += text
	}
	return f.execReports
}

func (f *fakeRich) DispatchPaste(text string) bool {
	f.calls = append(f.calls, "paste")
	return f.pastePrevents
}

func (f *fakeRich) ReplaceRange(r Range, text string) error {
	f.calls = append(f.calls, "range")
	if f.rangeErr != nil {
		return f.rangeErr
	}
	f.text = text
	return nil
}

func (f *fakeRich) TextContent() string   { return f.text }
func (f *fakeRich) Dispatch(event string) { f.events = append(f.events, event) }

func TestInsertRich(t *testing.T) {
	tests := []struct {
		name   string
		target *fakeRich
		method string
		calls  []string
	}{
		{
			name:   "execCommand applied",
			target: &fakeRich{execApplies: true, execReports: true},
			method: "execCommand",
			calls:  []string{"exec"},
		},
		{
			name:   "execCommand reported success without effect",
			target: &fakeRich{execReports: true, pastePrevents: true},
			method: "paste",
			calls:  []string{"exec", "paste"},
		},
		{
			name:   "falls through to range surgery",
			target: &fakeRich{},
			method: "range",
			calls:  []string{"exec", "paste", "range"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, err := InsertRich(tt.target, Range{Start: 0, End: 3}, "new text")
			require.NoError(t, err)
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.calls, tt.target.calls)
			assert.True(t, strings.Contains(tt.target.text, "new text") || tt.target.pastePrevents)
		})
	}
}

func TestInsertRichRangeFiresInput(t *testing.T) {
	target := &fakeRich{}
	_, err := InsertRich(target, Range{}, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{EventInput}, target.events)
}

func TestInsertRichAllFail(t *testing.T) {
	target := &fakeRich{rangeErr: errors.New("detached node")}
	_, err := InsertRich(target, Range{}, "x")
	assert.ErrorIs(t, err, ErrInsertFailed)
}
