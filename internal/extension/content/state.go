package content

// Phase names a controller state.
type Phase int

const (
	PhaseHidden Phase = iota
	PhasePrompt
	PhaseLoading
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhasePrompt:
		return "prompt"
	case PhaseLoading:
		return "loading"
	case PhaseResult:
		return "result"
	default:
		return "hidden"
	}
}

// State is one of Hidden, Prompt, Loading or Result.
type State interface {
	Phase() Phase
}

// Hidden means nothing is shown.
type Hidden struct{}

// Prompt shows the input panel for a captured selection.
type Prompt struct {
	Snapshot  Snapshot
	Icon      Placement
	Placement Placement
}

// Loading waits on a generation.
type Loading struct {
	Snapshot     Snapshot
	Prompt       string
	Regenerating bool
}

// Result shows generated text or the error that replaced it.
type Result struct {
	Snapshot Snapshot
	Prompt   string
	Text     string
	// HTML is Text rendered for display.
	HTML string
	Err  error
}

func (Hidden) Phase() Phase  { return PhaseHidden }
func (Prompt) Phase() Phase  { return PhasePrompt }
func (Loading) Phase() Phase { return PhaseLoading }
func (Result) Phase() Phase  { return PhaseResult }

// Failed reports whether the result holds an error instead of text.
func (r Result) Failed() bool {
	return r.Err != nil
}

// DismissReason records why the UI was closed.
type DismissReason int

const (
	DismissOutsideClick DismissReason = iota
	DismissEscape
	DismissSelectionLost
	DismissApplied
)

func (r DismissReason) String() string {
	switch r {
	case DismissEscape:
		return "escape"
	case DismissSelectionLost:
		return "selection_lost"
	case DismissApplied:
		return "applied"
	default:
		return "outside_click"
	}
}
