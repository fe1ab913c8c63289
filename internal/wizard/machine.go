// Package wizard implements linear multi-step flows as explicit state machines. Each flow
// is a transition table keyed by (step, action) with a guard per step that lists the
// fields blocking progress.
package wizard

import (
	"fmt"
	"strings"
)

// Step names one state of a flow.
type Step string

// Action is a navigation request.
type Action string

const (
	ActionNext Action = "next"
	ActionBack Action = "back"
	ActionJump Action = "jump"
)

// Guard returns the missing or invalid fields that block leaving a step with next.
type Guard[T any] func(form T) []string

// ValidationError blocks a transition and names the offending fields.
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: missing or invalid %s", e.Step, strings.Join(e.Fields, ", "))
}

// UnknownStepError is returned for a step that is not part of the flow.
type UnknownStepError struct {
	Step Step
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown step %q", e.Step)
}

// Transition describes the outcome of an action.
type Transition struct {
	From Step
	To   Step
	// Completed is set when next is taken from the final step.
	Completed bool
}

// Machine is a linear flow over form type T.
type Machine[T any] struct {
	steps  []Step
	index  map[Step]int
	table  map[Step]map[Action]Step
	guards map[Step]Guard[T]
}

// NewMachine builds the transition table for steps in order. Steps without a guard always pass.
func NewMachine[T any](steps []Step, guards map[Step]Guard[T]) *Machine[T] {
	m := &Machine[T]{
		steps:  append([]Step(nil), steps...),
		index:  make(map[Step]int, len(steps)),
		table:  make(map[Step]map[Action]Step, len(steps)),
		guards: guards,
	}
	for i, s := range steps {
		m.index[s] = i
		row := map[Action]Step{ActionBack: s}
		if i > 0 {
			row[ActionBack] = steps[i-1]
		}
		if i < len(steps)-1 {
			row[ActionNext] = steps[i+1]
		}
		m.table[s] = row
	}
	return m
}

// Steps returns the flow in order.
func (m *Machine[T]) Steps() []Step {
	return append([]Step(nil), m.steps...)
}

// First is the entry step.
func (m *Machine[T]) First() Step {
	return m.steps[0]
}

// Last is the final step.
func (m *Machine[T]) Last() Step {
	return m.steps[len(m.steps)-1]
}

// Has reports whether step belongs to the flow.
func (m *Machine[T]) Has(step Step) bool {
	_, ok := m.index[step]
	return ok
}

// Position returns the zero based index of step, or -1.
func (m *Machine[T]) Position(step Step) int {
	if i, ok := m.index[step]; ok {
		return i
	}
	return -1
}

// Progress is the share of the flow reached at step, in percent.
func (m *Machine[T]) Progress(step Step) int {
	i := m.Position(step)
	if i < 0 {
		return 0
	}
	return (i + 1) * 100 / len(m.steps)
}

// Validate runs the guard of step against form.
func (m *Machine[T]) Validate(step Step, form T) []string {
	if guard, ok := m.guards[step]; ok && guard != nil {
		return guard(form)
	}
	return nil
}

// Next validates the current step and moves forward. From the final step it reports
// completion without moving.
func (m *Machine[T]) Next(current Step, form T) (Transition, error) {
	row, ok := m.table[current]
	if !ok {
		return Transition{}, &UnknownStepError{Step: current}
	}
	if missing := m.Validate(current, form); len(missing) > 0 {
		return Transition{}, &ValidationError{Step: current, Fields: missing}
	}
	if to, ok := row[ActionNext]; ok {
		return Transition{From: current, To: to}, nil
	}
	return Transition{From: current, To: current, Completed: true}, nil
}

// Back moves to the previous step without validation. The first step stays put.
func (m *Machine[T]) Back(current Step) (Transition, error) {
	row, ok := m.table[current]
	if !ok {
		return Transition{}, &UnknownStepError{Step: current}
	}
	return Transition{From: current, To: row[ActionBack]}, nil
}

// Jump moves to any step of the flow. Earlier steps are not required to be complete.
func (m *Machine[T]) Jump(current, target Step) (Transition, error) {
	if !m.Has(target) {
		return Transition{}, &UnknownStepError{Step: target}
	}
	return Transition{From: current, To: target}, nil
}
