// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import "fmt"

// State is the position of the stabilization loop in its cycle.
type State uint8

// All the states of the loop
const (
	StateIdle         State = 1
	StateDecide       State = 2
	StateSpinNegative State = 3
	StateSpinPositive State = 4
	StateSettle       State = 5
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDecide:
		return "DECIDE"
	case StateSpinNegative:
		return "SPIN_NEGATIVE"
	case StateSpinPositive:
		return "SPIN_POSITIVE"
	case StateSettle:
		return "SETTLE"
	}
	return "UNSUPPORTED"
}

// MarshalText lets the state appear by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by String.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateIdle, StateDecide, StateSpinNegative, StateSpinPositive, StateSettle} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	if string(b) == State(0).String() {
		*s = 0
		return nil
	}
	return fmt.Errorf("unknown control state %q", b)
}
