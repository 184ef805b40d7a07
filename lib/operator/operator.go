// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package operator provides the external kill switch for governed
// pipeline actions.
//
// The halt flag lives outside agent logic: the [Control] handle is
// created alongside the governance stack and can be shared with a
// concurrent monitor or signal handler, which may set or clear it from
// any goroutine. Every governed action calls [Control.AssertActive]
// before starting. Halting never interrupts a phase already executing;
// it only prevents new phases from starting.
package operator

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/xpii-foundation/xpii/lib/audit"
)

// ErrOperationBlocked is returned by AssertActive while the kill switch
// is active. Check for it with errors.Is.
var ErrOperationBlocked = errors.New("operation blocked: operator kill switch is active")

// Control holds the operator halt flag. The flag is a single atomic
// boolean, so a halt from one goroutine is immediately visible to
// AssertActive calls on any other, with no torn state.
type Control struct {
	log    *audit.Log
	halted atomic.Bool
}

// NewControl creates a Control with the flag clear, bound to the given
// audit log.
func NewControl(log *audit.Log) *Control {
	return &Control{log: log}
}

// Halted reports whether the kill switch is active.
func (c *Control) Halted() bool {
	return c.halted.Load()
}

// Halt sets the kill switch and records the transition. Halting an
// already-halted system records another entry but changes no state.
func (c *Control) Halt(reason string) error {
	c.halted.Store(true)
	if _, err := c.log.Record("operator_halt", map[string]any{"reason": reason}, "HALTED"); err != nil {
		return fmt.Errorf("recording halt: %w", err)
	}
	return nil
}

// Resume clears the kill switch and records the transition.
func (c *Control) Resume(reason string) error {
	c.halted.Store(false)
	if _, err := c.log.Record("operator_resume", map[string]any{"reason": reason}, "RESUMED"); err != nil {
		return fmt.Errorf("recording resume: %w", err)
	}
	return nil
}

// AssertActive returns ErrOperationBlocked while the kill switch is
// active, and nil otherwise. Governed actions call this before every
// phase.
func (c *Control) AssertActive() error {
	if c.halted.Load() {
		return fmt.Errorf("%w; human authorization required to resume", ErrOperationBlocked)
	}
	return nil
}
