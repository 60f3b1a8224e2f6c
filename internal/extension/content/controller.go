package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/heysagnik/chikki/internal/extension/protocol"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
)

// DefaultMinLoading keeps the loading indicator from flashing.
const DefaultMinLoading = 900 * time.Millisecond

var (
	ErrInvalidSelection = errors.New("selection is empty or not editable")
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrBusy             = errors.New("a generation is already running")
	ErrWrongState       = errors.New("action not available in the current state")
	ErrDismissed        = errors.New("dismissed before the result arrived")
	ErrEmptyResult      = errors.New("empty response from background")
)

// Options configures a Controller.
type Options struct {
	Sender protocol.Sender
	// MinLoading defaults to DefaultMinLoading; a negative value disables it.
	MinLoading time.Duration
	Viewport   func() Viewport
	// Settle is the quiet period OnSelectionChange waits for; defaults to
	// SelectionSettle.
	Settle time.Duration
	// HideIcon stops settled selections from opening the assistant on their
	// own. Open still works.
	HideIcon bool
	// OnChange is called after every transition, outside the controller lock.
	OnChange func(State)
	Logger   *logging.Logger
}

// ApplySettings copies the user's preferences into o.
func (o *Options) ApplySettings(s protocol.Settings) {
	o.MinLoading = MinLoadingFromSettings(s)
	o.HideIcon = !s.ShowIcon
}

// MinLoadingFromSettings converts the user setting to a duration.
func MinLoadingFromSettings(s protocol.Settings) time.Duration {
	if s.MinLoadingMillis <= 0 {
		return -1
	}
	return time.Duration(s.MinLoadingMillis) * time.Millisecond
}

// Controller owns the assistant UI state for one page.
type Controller struct {
	sender     protocol.Sender
	minLoading time.Duration
	viewport   func() Viewport
	onChange   func(State)
	hideIcon   bool
	settle     *Debouncer
	logger     *logging.Logger

	mu      sync.Mutex
	state   State
	busy    bool
	epoch   uint64
	cancel  context.CancelFunc
	pending Snapshot
}

// NewController creates a Controller in the Hidden state.
func NewController(opts Options) *Controller {
	minLoading := opts.MinLoading
	if minLoading == 0 {
		minLoading = DefaultMinLoading
	}
	vp := opts.Viewport
	if vp == nil {
		vp = func() Viewport { return Viewport{Width: 1280, Height: 800} }
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = SelectionSettle
	}
	c := &Controller{
		sender:     opts.Sender,
		minLoading: minLoading,
		viewport:   vp,
		onChange:   opts.OnChange,
		hideIcon:   opts.HideIcon,
		logger:     logging.OrNop(opts.Logger).Named("content"),
		state:      Hidden{},
	}
	c.settle = NewDebouncer(settle, c.selectionSettled)
	return c
}

// OnSelectionChange records the page's latest selection. Once changes stop
// for the settle period the assistant opens on it, or the prompt closes when
// the selection is gone. Results and running generations are left alone.
func (c *Controller) OnSelectionChange(snap Snapshot) {
	c.mu.Lock()
	c.pending = snap
	c.mu.Unlock()
	c.settle.Trigger()
}

// Close drops any selection still waiting to settle.
func (c *Controller) Close() {
	c.settle.Stop()
}

func (c *Controller) selectionSettled() {
	c.mu.Lock()
	snap := c.pending
	_, prompting := c.state.(Prompt)
	busy := c.busy
	c.mu.Unlock()

	if !snap.Valid() {
		if prompting && !busy {
			c.Dismiss(DismissSelectionLost)
		}
		return
	}
	if c.hideIcon {
		return
	}
	if _, err := c.Open(snap); err != nil {
		c.logger.Debug("selection ignored", zap.Error(err))
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a generation is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Open shows the prompt panel for snap. An open result is replaced; a running
// generation is not.
func (c *Controller) Open(snap Snapshot) (Prompt, error) {
	if !snap.Valid() {
		return Prompt{}, ErrInvalidSelection
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Prompt{}, ErrBusy
	}
	vp := c.viewport()
	icon := PlaceIcon(snap.Rect, vp)
	p := Prompt{Snapshot: snap, Icon: icon, Placement: PlacePrompt(icon, vp)}
	c.state = p
	c.mu.Unlock()

	c.notify(p)
	return p, nil
}

// Submit sends the prompt for the open selection and blocks until the result
// is shown. The returned error is non-nil only when no Result was produced.
func (c *Controller) Submit(ctx context.Context, prompt string) (State, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return c.State(), ErrEmptyPrompt
	}

	c.mu.Lock()
	p, ok := c.state.(Prompt)
	if !ok {
		c.mu.Unlock()
		return c.State(), ErrWrongState
	}
	c.mu.Unlock()

	msg := GenerationMessage(p.Snapshot.SelectedText, prompt)
	return c.run(ctx, Loading{Snapshot: p.Snapshot, Prompt: prompt}, msg)
}

// Regenerate asks for a new answer to the prompt behind the current result.
func (c *Controller) Regenerate(ctx context.Context) (State, error) {
	c.mu.Lock()
	r, ok := c.state.(Result)
	c.mu.Unlock()
	if !ok || r.Prompt == "" {
		return c.State(), ErrWrongState
	}

	msg := GenerationMessage(r.Snapshot.SelectedText, RegenerationRequest(r.Prompt, r.Text))
	return c.run(ctx, Loading{Snapshot: r.Snapshot, Prompt: r.Prompt, Regenerating: true}, msg)
}

func (c *Controller) run(ctx context.Context, loading Loading, msg string) (State, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return c.State(), ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	c.busy = true
	c.epoch++
	epoch := c.epoch
	c.cancel = cancel
	c.state = loading
	c.mu.Unlock()
	defer cancel()

	c.notify(loading)

	started := time.Now()
	resp := c.sender.Send(ctx, protocol.Message{Type: protocol.ActionGenerate, Prompt: msg})
	c.holdLoading(ctx, started)

	result := Result{Snapshot: loading.Snapshot, Prompt: loading.Prompt}
	switch {
	case !resp.Success:
		errMsg := resp.Error
		if errMsg == "" {
			errMsg = "unknown error"
		}
		result.Err = errors.New(errMsg)
	case strings.TrimSpace(resp.Data) == "":
		result.Err = ErrEmptyResult
	default:
		result.Text = resp.Data
		result.HTML = RenderResult(resp.Data)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding late result", zap.Bool("regenerating", loading.Regenerating))
		return c.State(), ErrDismissed
	}
	c.busy = false
	c.cancel = nil
	c.state = result
	c.mu.Unlock()

	if result.Failed() {
		c.logger.Warn("generation failed", zap.Error(result.Err))
	}
	c.notify(result)
	return result, nil
}

func (c *Controller) holdLoading(ctx context.Context, started time.Time) {
	if c.minLoading <= 0 {
		return
	}
	remaining := c.minLoading - time.Since(started)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Dismiss hides everything and abandons any running generation.
func (c *Controller) Dismiss(reason DismissReason) {
	c.mu.Lock()
	if _, hidden := c.state.(Hidden); hidden && !c.busy {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.busy = false
	c.epoch++
	c.state = Hidden{}
	c.mu.Unlock()

	c.logger.Debug("dismissed", zap.Stringer("reason", reason))
	c.notify(Hidden{})
}

// ReplaceLabel is the caption for the button that writes the result back.
func (c *Controller) ReplaceLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var snap Snapshot
	switch s := c.state.(type) {
	case Result:
		snap = s.Snapshot
	case Loading:
		snap = s.Snapshot
	case Prompt:
		snap = s.Snapshot
	}
	if snap.HasSelection() {
		return "Replace"
	}
	return "Insert"
}

// Apply writes the current result into target, which must be a TextField for
// input and textarea selections or a RichTarget for contentEditable ones.
// It returns the insertion method used and hides the UI on success.
func (c *Controller) Apply(target any) (string, error) {
	c.mu.Lock()
	r, ok := c.state.(Result)
	c.mu.Unlock()
	if !ok || r.Failed() {
		return "", ErrWrongState
	}

	var (
		method string
		err    error
	)
	switch r.Snapshot.Kind {
	case TargetInput, TargetTextarea:
		f, ok := target.(TextField)
		if !ok {
			return "", ErrUnsupportedTarget
		}
		method = "splice"
		_, err = SpliceText(f, r.Snapshot.Range, r.Text)
	case TargetContentEditable:
		t, ok := target.(RichTarget)
		if !ok {
			return "", ErrUnsupportedTarget
		}
		method, err = InsertRich(t, r.Snapshot.Range, r.Text)
	default:
		return "", ErrUnsupportedTarget
	}
	if err != nil {
		return "", err
	}

	c.Dismiss(DismissApplied)
	return method, nil
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

// GenerationMessage frames a request about the selected text.
func GenerationMessage(selected, request string) string {
	return `Context: "` + selected + `"` + "\n" + `Request: "` + request + `"`
}

// RegenerationRequest asks for a different answer than previous.
func RegenerationRequest(prompt, previous string) string {
	return "Regenerate this: " + prompt + "\nPrevious result: " + previous
}
