// Package kernelerrors defines the error taxonomy shared by the scenario
// validator, loader, bus and runtime packages.
package kernelerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors identifying the broad category a failure falls into.
// Callers use errors.Is against these to branch on category without
// depending on message text.
var (
	// ErrSchemaViolation marks a malformed scenario document: bad JSON,
	// a type mismatch, or a missing required field.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrCrossRefViolation marks a scenario that parses but fails a
	// cross-reference check: unknown event/domain, duplicate id,
	// toDomain mismatch, mapping type mismatch.
	ErrCrossRefViolation = errors.New("cross-reference violation")

	// ErrLoaderNotFound marks a scenario file that could not be resolved
	// from the working directory or any ancestor.
	ErrLoaderNotFound = errors.New("scenario file not found")

	// ErrLoaderParseError marks a scenario file that was found but could
	// not be parsed as JSON or YAML.
	ErrLoaderParseError = errors.New("scenario file parse error")

	// ErrBusTransient marks a push or pop failure against the event bus.
	// Workers log and continue; this error never escapes a worker loop.
	ErrBusTransient = errors.New("bus transient error")

	// ErrListenerAction marks an error raised while executing a single
	// listener action. The remaining actions in the listener still run,
	// and subsequent listeners for the envelope are not affected.
	ErrListenerAction = errors.New("listener action error")
)

// Issue is a single structured validation finding: a JSON-pointer-style
// path into the scenario document and a human-readable message.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// PathString renders Path the way a JSON pointer would, e.g.
// ["listeners", "3", "actions", "0", "toDomain"] -> "listeners[3].actions[0].toDomain".
func (i Issue) PathString() string {
	var b strings.Builder

	for idx, seg := range i.Path {
		if idx == 0 {
			b.WriteString(seg)

			continue
		}

		if isIndex(seg) {
			b.WriteString("[")
			b.WriteString(seg)
			b.WriteString("]")
		} else {
			b.WriteString(".")
			b.WriteString(seg)
		}
	}

	return b.String()
}

func isIndex(seg string) bool {
	if seg == "" {
		return false
	}

	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// ValidationError aggregates every Issue found while validating a
// scenario document. The validator is total: it collects every issue
// before failing rather than stopping at the first one.
type ValidationError struct {
	// Sentinel is ErrSchemaViolation or ErrCrossRefViolation, chosen by
	// the caller for the whole issue list. Unwrap returns it, so errors.Is
	// matches that one sentinel only.
	Sentinel error
	Issues   []Issue
}

// NewValidationError builds a ValidationError from a non-empty issue
// list. Panics if issues is empty — callers must not construct a
// ValidationError with nothing to report.
func NewValidationError(sentinel error, issues []Issue) *ValidationError {
	if len(issues) == 0 {
		panic("kernelerrors: NewValidationError called with no issues")
	}

	return &ValidationError{Sentinel: sentinel, Issues: issues}
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s: %s", e.Sentinel, e.Issues[0].PathString(), e.Issues[0].Message)
	}

	return fmt.Sprintf("%s: %d issues found", e.Sentinel, len(e.Issues))
}

func (e *ValidationError) Unwrap() error {
	return e.Sentinel
}

// LoaderError wraps a loader failure with the context needed to explain
// it to an operator: the search path that was walked, or the file that
// failed to parse.
type LoaderError struct {
	Sentinel   error
	ScenarioID string
	SearchedIn []string
	Path       string
	Cause      error
}

func (e *LoaderError) Error() string {
	switch {
	case errors.Is(e.Sentinel, ErrLoaderNotFound):
		return fmt.Sprintf("scenario %q not found; searched: %s", e.ScenarioID, strings.Join(e.SearchedIn, ", "))
	case e.Cause != nil:
		return fmt.Sprintf("scenario %q: failed to parse %s: %v", e.ScenarioID, e.Path, e.Cause)
	default:
		return fmt.Sprintf("scenario %q: %s", e.ScenarioID, e.Sentinel)
	}
}

func (e *LoaderError) Unwrap() error {
	return e.Sentinel
}

// MappingWarning is not an error — it is the evaluator's best-effort
// diagnostic for a single field that could not be mapped. It is logged
// at warn level; the listener continues and emits a partial payload.
type MappingWarning struct {
	Path    string
	Message string
}

func (w MappingWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// ListenerActionError wraps the error produced by a single action so
// the runtime can log it under the shared ErrListenerAction sentinel
// while keeping the listener id and action index for diagnostics.
type ListenerActionError struct {
	ListenerID string
	ActionIdx  int
	Cause      error
}

func (e *ListenerActionError) Error() string {
	return fmt.Sprintf("listener %q action %d: %v", e.ListenerID, e.ActionIdx, e.Cause)
}

func (e *ListenerActionError) Unwrap() error {
	return ErrListenerAction
}
