// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() with deterministic time control.
//
// Every production function that needs the current time (session id
// generation, audit timestamps, dcterms:modified values) accepts a
// Clock parameter or holds one on its struct instead of calling
// time.Now directly. This is what makes the pipeline's timestamps
// reproducible under test.
package clock

import "time"

// Clock abstracts time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. Equivalent to time.After.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
