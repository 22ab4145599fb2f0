package viewer

import "fmt"

// State is a step of the per-page pipeline. States only move forward.
type State int

const (
	StateIdle State = iota
	StateSniffing
	StateLoadingShown
	StateParsing
	StateRenderedStructured
	StateRenderedPlain
	StateRenderedError
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSniffing:
		return "sniffing"
	case StateLoadingShown:
		return "loading-shown"
	case StateParsing:
		return "parsing"
	case StateRenderedStructured:
		return "rendered-structured"
	case StateRenderedPlain:
		return "rendered-plain"
	case StateRenderedError:
		return "rendered-error"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s >= StateRenderedStructured }

// Rendered reports whether the state left a viewer on the surface.
func (s State) Rendered() bool {
	return s == StateRenderedStructured || s == StateRenderedPlain
}

// FormattingStarted reports whether the loading view has been shown.
func (s State) FormattingStarted() bool {
	return s >= StateLoadingShown && s != StateAborted
}
