package bootstrap

import "fmt"

// State is a step of the one-way bootstrap sequence.
type State int

const (
	StateStart State = iota
	StateDialectDetected
	StateGateChecked
	StateAborted
	StateConfirmed
	StateHistoryRemoved
	StateSelfDeleted
	StatePathsRenamed
	StateContentsRewritten
	StateRepoReinitialized
	StateCommitted
)

var stateNames = [...]string{
	StateStart:             "start",
	StateDialectDetected:   "dialect-detected",
	StateGateChecked:       "gate-checked",
	StateAborted:           "aborted",
	StateConfirmed:         "confirmed",
	StateHistoryRemoved:    "history-removed",
	StateSelfDeleted:       "self-deleted",
	StatePathsRenamed:      "paths-renamed",
	StateContentsRewritten: "contents-rewritten",
	StateRepoReinitialized: "repo-reinitialized",
	StateCommitted:         "committed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Mutated reports whether the project root may differ from its pre-run state.
func (s State) Mutated() bool {
	return s >= StateHistoryRemoved
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateCommitted
}

// StageError is a failure after history was deleted. Nothing is rolled back.
type StageError struct {
	Reached State
	Root    string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v (stopped after %s; %s is left partially bootstrapped without git history)", e.Err, e.Reached, e.Root)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
