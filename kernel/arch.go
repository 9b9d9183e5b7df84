/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

// CSToken is handed to the function passed to Arch.CriticalSection. It
// carries no data; its only job is to make "this code runs with the
// equivalent of interrupts masked" visible in a function signature. Go has
// no way to forbid constructing the zero value of an empty struct, so this
// is a discipline for callers, not an enforced capability.
type CSToken struct{}

// Arch is the boundary between the scheduling core in this package and
// whatever runs underneath it: a real Cortex-M NVIC and PendSV/SVC
// trampoline, or a host simulation for tests and the demo CLI. Everything
// below this line -- the exception vector table, stack-switch trampolines,
// the fault handlers -- is out of scope for this package; Arch is the
// entire contract a target needs to satisfy.
type Arch interface {
	// Bind is invoked once, during NewKernel, handing the implementation
	// the privileged re-entry point that ElevateAndSchedule must reach
	// once it has (in hardware) trapped into a privileged handler. Real
	// targets wire this to their SVC exception vector; a host simulation
	// can just call it directly.
	Bind(reenterScheduler func())

	// CriticalSection runs f with the equivalent of interrupts masked on
	// the calling core. It must not be called reentrantly from within
	// another CriticalSection on the same core.
	CriticalSection(f func(CSToken))

	// IsPrivileged reports whether the caller is currently running in a
	// privileged context (kernel setup, an interrupt handler) as opposed
	// to inside a task body.
	IsPrivileged() bool

	// RequestSchedule asks the arch layer to run the scheduler, either
	// immediately (if already privileged) or at the next opportunity.
	// This is the PendSV-equivalent primitive: it must not block and it
	// must not re-enter the kernel synchronously.
	RequestSchedule()

	// ElevateAndSchedule is the SVC-equivalent primitive: a synchronous
	// trap used by unprivileged task code to ask the kernel to run the
	// scheduler. The implementation must eventually call the reentry
	// function passed to Bind, from a privileged context.
	ElevateAndSchedule()
}
