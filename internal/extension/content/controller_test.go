package content

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysagnik/chikki/internal/extension/protocol"
)

var ctx = context.Background()

type recordingSender struct {
	mu       sync.Mutex
	messages []protocol.Message
	reply    func(ctx context.Context, msg protocol.Message) protocol.Response
}

func (s *recordingSender) Send(ctx context.Context, msg protocol.Message) protocol.Response {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return s.reply(ctx, msg)
}

func (s *recordingSender) sent() []protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Message(nil), s.messages...)
}

func replyWith(resp protocol.Response) *recordingSender {
	return &recordingSender{reply: func(context.Context, protocol.Message) protocol.Response { return resp }}
}

func testSnapshot() Snapshot {
	s, _ := NewSnapshot("  hello world ", Range{Start: 4, End: 15}, TargetTextarea, Rect{Top: 100, Left: 200, Width: 100, Height: 20})
	return s
}

type phaseLog struct {
	mu     sync.Mutex
	phases []Phase
}

func (l *phaseLog) record(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phases = append(l.phases, s.Phase())
}

func (l *phaseLog) all() []Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Phase(nil), l.phases...)
}

func newTestController(sender protocol.Sender) (*Controller, *phaseLog) {
	log := &phaseLog{}
	c := NewController(Options{
		Sender:     sender,
		MinLoading: -1,
		OnChange:   log.record,
	})
	return c, log
}

func TestNewSnapshot(t *testing.T) {
	s, ok := NewSnapshot("  hi  ", Range{Start: 0, End: 6}, TargetInput, Rect{})
	assert.True(t, ok)
	assert.Equal(t, "hi", s.SelectedText)

	_, ok = NewSnapshot("   ", Range{Start: 0, End: 3}, TargetInput, Rect{})
	assert.False(t, ok)

	_, ok = NewSnapshot("hi", Range{Start: 0, End: 2}, TargetNone, Rect{})
	assert.False(t, ok)
}

func TestControllerSubmit(t *testing.T) {
	sender := replyWith(protocol.Response{Success: true, Data: "Hello **there**"})
	c, phases := newTestController(sender)

	p, err := c.Open(testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, float64(128), p.Icon.Top)

	state, err := c.Submit(ctx, "  make it formal ")
	require.NoError(t, err)

	result, ok := state.(Result)
	require.True(t, ok)
	assert.False(t, result.Failed())
	assert.Equal(t, "Hello **there**", result.Text)
	assert.Equal(t, "<p>Hello <strong>there</strong></p>", result.HTML)
	assert.Equal(t, "make it formal", result.Prompt)
	assert.False(t, c.Busy())

	require.Len(t, sender.sent(), 1)
	assert.Equal(t, protocol.Message{
		Type:   protocol.ActionGenerate,
		Prompt: "Context: \"hello world\"\nRequest: \"make it formal\"",
	}, sender.sent()[0])
	assert.Equal(t, []Phase{PhasePrompt, PhaseLoading, PhaseResult}, phases.all())
}

func TestControllerSubmitValidation(t *testing.T) {
	sender := replyWith(protocol.Response{Success: true, Data: "x"})
	c, _ := newTestController(sender)

	_, err := c.Submit(ctx, "prompt")
	assert.ErrorIs(t, err, ErrWrongState)

	_, err = c.Open(Snapshot{Kind: TargetInput})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = c.Open(testSnapshot())
	require.NoError(t, err)

	state, err := c.Submit(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Equal(t, PhasePrompt, state.Phase())
	assert.Empty(t, sender.sent())
}

func TestControllerFailureIsDismissible(t *testing.T) {
	c, _ := newTestController(replyWith(protocol.Response{Success: false, Error: "Rate limit exceeded. Please try again later."}))

	_, err := c.Open(testSnapshot())
	require.NoError(t, err)
	state, err := c.Submit(ctx, "shorter")
	require.NoError(t, err)

	result := state.(Result)
	require.True(t, result.Failed())
	assert.EqualError(t, result.Err, "Rate limit exceeded. Please try again later.")

	c.Dismiss(DismissEscape)
	assert.Equal(t, PhaseHidden, c.State().Phase())
}

func TestControllerEmptyResult(t *testing.T) {
	c, _ := newTestController(replyWith(protocol.Response{Success: true}))

	_, err := c.Open(testSnapshot())
	require.NoError(t, err)
	state, err := c.Submit(ctx, "go")
	require.NoError(t, err)
	assert.ErrorIs(t, state.(Result).Err, ErrEmptyResult)
}

func TestControllerRegenerate(t *testing.T) {
	n := 0
	sender := &recordingSender{reply: func(context.Context, protocol.Message) protocol.Response {
		n++
		if n == 1 {
			return protocol.Response{Success: true, Data: "First"}
		}
		return protocol.Response{Success: true, Data: "Second"}
	}}
	c, _ := newTestController(sender)

	_, err := c.Open(testSnapshot())
	require.NoError(t, err)
	_, err = c.Submit(ctx, "fix it")
	require.NoError(t, err)

	state, err := c.Regenerate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Second", state.(Result).Text)
	assert.Equal(t, "fix it", state.(Result).Prompt)

	sent := sender.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Context: \"hello world\"\nRequest: \"Regenerate this: fix it\nPrevious result: First\"", sent[1].Prompt)
}

func TestControllerRegenerateNeedsResult(t *testing.T) {
	c, _ := newTestController(replyWith(protocol.Response{Success: true, Data: "x"}))
	_, err := c.Regenerate(ctx)
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestControllerDismissCancelsInFlight(t *testing.T) {
	sender := &recordingSender{reply: func(ctx context.Context, _ protocol.Message) protocol.Response {
		<-ctx.Done()
		return protocol.Fail(ctx.Err())
	}}
	c, _ := newTestController(sender)

	_, err := c.Open(testSnapshot())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "slow")
		done <- err
	}()

	require.Eventually(t, c.Busy, time.Second, time.Millisecond)
	_, err = c.Open(testSnapshot())
	assert.ErrorIs(t, err, ErrBusy)

	c.Dismiss(DismissOutsideClick)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrDismissed)
	case <-time.After(time.Second):
		t.Fatal("submit did not return after dismiss")
	}
	assert.Equal(t, PhaseHidden, c.State().Phase())
	assert.False(t, c.Busy())
}

func TestControllerDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	sender := &recordingSender{reply: func(context.Context, protocol.Message) protocol.Response {
		<-release
		return protocol.Response{Success: true, Data: "too late"}
	}}
	c, _ := newTestController(sender)

	_, err := c.Open(testSnapshot())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "slow")
		done <- err
	}()
	require.Eventually(t, c.Busy, time.Second, time.Millisecond)

	c.Dismiss(DismissSelectionLost)
	_, err = c.Open(testSnapshot())
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-done, ErrDismissed)
	assert.Equal(t, PhasePrompt, c.State().Phase())
}

func TestControllerMinLoading(t *testing.T) {
	c := NewController(Options{
		Sender:     replyWith(protocol.Response{Success: true, Data: "fast"}),
		MinLoading: 60 * time.Millisecond,
	})
	_, err := c.Open(testSnapshot())
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Submit(ctx, "go")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestMinLoadingFromSettings(t *testing.T) {
	assert.Equal(t, DefaultMinLoading, MinLoadingFromSettings(protocol.DefaultSettings()))
	assert.Negative(t, int64(MinLoadingFromSettings(protocol.Settings{})))
}

func TestReplaceLabel(t *testing.T) {
	c, _ := newTestController(replyWith(protocol.Response{Success: true, Data: "x"}))
	assert.Equal(t, "Insert", c.ReplaceLabel())

	_, err := c.Open(testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "Replace", c.ReplaceLabel())

	caret := testSnapshot()
	caret.Range = Range{Start: 3, End: 3}
	_, err = c.Open(caret)
	require.NoError(t, err)
	assert.Equal(t, "Insert", c.ReplaceLabel())
}

func TestControllerApply(t *testing.T) {
	c, _ := newTestController(replyWith(protocol.Response{Success: true, Data: "Hi"}))

	snap, ok := NewSnapshot("hello", Range{Start: 4, End: 9}, TargetInput, Rect{Width: 10, Height: 10})
	require.True(t, ok)
	_, err := c.Open(snap)
	require.NoError(t, err)
	_, err = c.Submit(ctx, "shorter")
	require.NoError(t, err)

	_, err = c.Apply(&fakeRich{})
	assert.ErrorIs(t, err, ErrUnsupportedTarget)

	field := &fakeField{value: "say hello now"}
	method, err := c.Apply(field)
	require.NoError(t, err)
	assert.Equal(t, "splice", method)
	assert.Equal(t, "say Hi now", field.value)
	assert.Equal(t, PhaseHidden, c.State().Phase())
}

func TestControllerApplyRich(t *testing.T) {
	c, _ := newTestController(replyWith(protocol.Response{Success: true, Data: "Hi"}))

	snap, _ := NewSnapshot("hello", Range{Start: 0, End: 5}, TargetContentEditable, Rect{Width: 10, Height: 10})
	_, err := c.Open(snap)
	require.NoError(t, err)
	_, err = c.Submit(ctx, "shorter")
	require.NoError(t, err)

	method, err := c.Apply(&fakeRich{execApplies: true, execReports: true})
	require.NoError(t, err)
	assert.Equal(t, "execCommand", method)
}

func TestOnSelectionChangeSettles(t *testing.T) {
	log := &phaseLog{}
	c := NewController(Options{
		Sender:     replyWith(protocol.Response{Success: true, Data: "x"}),
		MinLoading: -1,
		Settle:     20 * time.Millisecond,
		OnChange:   log.record,
	})
	defer c.Close()

	first, _ := NewSnapshot("first", Range{End: 5}, TargetInput, Rect{Top: 10, Left: 10, Width: 40, Height: 16})
	c.OnSelectionChange(first)
	c.OnSelectionChange(Snapshot{})
	c.OnSelectionChange(testSnapshot())

	require.Eventually(t, func() bool { return c.State().Phase() == PhasePrompt }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hello world", c.State().(Prompt).Snapshot.SelectedText)
	assert.Equal(t, []Phase{PhasePrompt}, log.all())

	c.OnSelectionChange(Snapshot{})
	require.Eventually(t, func() bool { return c.State().Phase() == PhaseHidden }, time.Second, 5*time.Millisecond)
}

func TestOnSelectionChangeKeepsResult(t *testing.T) {
	c := NewController(Options{
		Sender:     replyWith(protocol.Response{Success: true, Data: "x"}),
		MinLoading: -1,
		Settle:     10 * time.Millisecond,
	})
	defer c.Close()

	_, err := c.Open(testSnapshot())
	require.NoError(t, err)
	_, err = c.Submit(ctx, "go")
	require.NoError(t, err)

	c.OnSelectionChange(Snapshot{})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, PhaseResult, c.State().Phase())
}

func TestOnSelectionChangeHiddenIcon(t *testing.T) {
	opts := Options{Sender: replyWith(protocol.Response{Success: true, Data: "x"}), Settle: 10 * time.Millisecond}
	settings := protocol.DefaultSettings()
	settings.ShowIcon = false
	settings.MinLoadingMillis = 250
	opts.ApplySettings(settings)
	assert.True(t, opts.HideIcon)
	assert.Equal(t, 250*time.Millisecond, opts.MinLoading)

	c := NewController(opts)
	defer c.Close()

	c.OnSelectionChange(testSnapshot())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, PhaseHidden, c.State().Phase())

	_, err := c.Open(testSnapshot())
	assert.NoError(t, err)
}
