// ABOUTME: Generic linear multi-step form state machine
// ABOUTME: Next validates the current step into field-keyed errors; Back never validates
package wizard

import (
	"sort"
	"strings"
)

// Errors maps a field key to a human-readable problem.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Error joins every problem in field order.
func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when there are no problems.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Step is one page of a wizard. A nil Validate always passes.
type Step[S any] struct {
	Name     string
	Validate func(S) Errors
}

// Wizard walks a form through steps 1..N.
type Wizard[S any] struct {
	state   *S
	steps   []Step[S]
	current int
	errors  Errors
}

func New[S any](state *S, steps ...Step[S]) *Wizard[S] {
	return &Wizard[S]{state: state, steps: steps, errors: Errors{}}
}

// State returns the form being edited. Callers mutate it between steps.
func (w *Wizard[S]) State() *S {
	return w.state
}

// Step returns the 1-based current step.
func (w *Wizard[S]) Step() int {
	return w.current + 1
}

func (w *Wizard[S]) Total() int {
	return len(w.steps)
}

func (w *Wizard[S]) Current() Step[S] {
	return w.steps[w.current]
}

func (w *Wizard[S]) Names() []string {
	names := make([]string, len(w.steps))
	for i, s := range w.steps {
		names[i] = s.Name
	}
	return names
}

func (w *Wizard[S]) IsFirst() bool {
	return w.current == 0
}

func (w *Wizard[S]) IsLast() bool {
	return w.current == len(w.steps)-1
}

// Errors returns the problems found by the last validation.
func (w *Wizard[S]) Errors() Errors {
	return w.errors
}

// Validate checks the current step and records its errors.
func (w *Wizard[S]) Validate() bool {
	w.errors = Errors{}
	if v := w.steps[w.current].Validate; v != nil {
		if errs := v(*w.state); len(errs) > 0 {
			w.errors = errs
		}
	}
	return len(w.errors) == 0
}

// Next validates the current step and advances when it passes. On the last
// step it only validates. It reports whether the current step is valid.
func (w *Wizard[S]) Next() bool {
	if !w.Validate() {
		return false
	}
	if !w.IsLast() {
		w.current++
	}
	return true
}

// Back moves one step back without validating.
func (w *Wizard[S]) Back() {
	w.errors = Errors{}
	if w.current > 0 {
		w.current--
	}
}

// ValidateAll runs every step's validator and stops at the first failing
// step, making it current. Used before a final submit.
func (w *Wizard[S]) ValidateAll() bool {
	for i := range w.steps {
		w.current = i
		if !w.Validate() {
			return false
		}
	}
	return true
}

// Reset returns to step 1 with no errors. The form itself is untouched.
func (w *Wizard[S]) Reset() {
	w.current = 0
	w.errors = Errors{}
}
