/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "sync"

// testArch is a synchronous Arch double for unit tests that only care
// about bitmap/selection correctness, not about actually running task
// goroutines. Every call is treated as coming from a privileged (kernel
// setup) context, which is true of a test driving the API directly,
// unless a test sets forceUnprived. Scenario-level, goroutine-gated behavior is covered in
// package simarch instead.
type testArch struct {
	mu             sync.Mutex
	reenter        func()
	scheduleCalls  int
	elevatedCalls  int
	forceUnprived  bool
}

func newTestArch() *testArch {
	return &testArch{}
}

func (a *testArch) Bind(reenter func()) { a.reenter = reenter }

func (a *testArch) CriticalSection(f func(CSToken)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f(CSToken{})
}

func (a *testArch) IsPrivileged() bool { return !a.forceUnprived }

func (a *testArch) RequestSchedule() { a.scheduleCalls++ }

func (a *testArch) ElevateAndSchedule() {
	a.elevatedCalls++
	a.reenter()
}
