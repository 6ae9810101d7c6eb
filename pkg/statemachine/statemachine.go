// Package statemachine holds the transition tables that guard every status
// change of bookings, tenants, bills, beds and deposits.
package statemachine

import (
	"fmt"

	apperrors "pgstay/pkg/errors"
)

// stay marks actions that keep the current state.
const stay = "\x00stay"

type Machine[S ~string, A ~string] struct {
	name        string
	transitions map[S]map[A]S
	messages    map[A]string
}

func New[S ~string, A ~string](name string) *Machine[S, A] {
	return &Machine[S, A]{
		name:        name,
		transitions: make(map[S]map[A]S),
		messages:    make(map[A]string),
	}
}

// Allow registers action as valid from each state in from, moving to next.
func (m *Machine[S, A]) Allow(action A, next S, from ...S) *Machine[S, A] {
	for _, f := range from {
		if m.transitions[f] == nil {
			m.transitions[f] = make(map[A]S)
		}
		m.transitions[f][action] = next
	}
	return m
}

// Keep registers action as valid from each state in from without a state change.
func (m *Machine[S, A]) Keep(action A, from ...S) *Machine[S, A] {
	return m.Allow(action, S(stay), from...)
}

// Reject sets the message returned when action is attempted from a state that
// does not allow it.
func (m *Machine[S, A]) Reject(action A, message string) *Machine[S, A] {
	m.messages[action] = message
	return m
}

func (m *Machine[S, A]) Can(from S, action A) bool {
	_, ok := m.transitions[from][action]
	return ok
}

// Next returns the state reached by applying action to from, or a
// PRECONDITION_FAILED AppError.
func (m *Machine[S, A]) Next(from S, action A) (S, error) {
	next, ok := m.transitions[from][action]
	if !ok {
		return from, m.rejection(from, action)
	}
	if next == S(stay) {
		return from, nil
	}
	return next, nil
}

// Check is Next without the resulting state.
func (m *Machine[S, A]) Check(from S, action A) error {
	_, err := m.Next(from, action)
	return err
}

// Actions lists what may be done from a state.
func (m *Machine[S, A]) Actions(from S) []A {
	actions := make([]A, 0, len(m.transitions[from]))
	for a := range m.transitions[from] {
		actions = append(actions, a)
	}
	return actions
}

func (m *Machine[S, A]) rejection(from S, action A) error {
	msg, ok := m.messages[action]
	if !ok {
		msg = fmt.Sprintf("Cannot %s %s in status %s", action, m.name, from)
	}
	return apperrors.PreconditionFailed(msg).WithDetails(map[string]any{
		"entity": m.name,
		"status": string(from),
		"action": string(action),
	})
}
