/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package simarch is a host implementation of kernel.Arch: a reference
// target for tests and for the scenario runner in cmd/rtsim, in place of
// real NVIC/PendSV/SVC hardware. It turns each task into a goroutine
// gated by a channel, so that exactly one task's code is ever running at
// a time -- the same single-CPU invariant a real target gets from having
// one set of registers -- and hands control to the next task at exactly
// the points a real target would take a PendSV or SVC exception: right
// after a kernel call changes which task the scheduler wants running.
package simarch

import (
	"sync"

	"github.com/gravwell/rtkernel/kernel"
)

// Arch is a single core's host-simulated Arch. Construct one per core with
// New, attach it to a kernel.Kernel with Attach, then Spawn a goroutine for
// every task before calling Start.
type Arch struct {
	mu      sync.Mutex
	k       *kernel.Kernel
	reenter func()

	privileged  bool
	running     kernel.TaskID
	gates       map[kernel.TaskID]chan struct{}
	gatesMu     sync.Mutex
	idleStarted bool
}

// New returns an Arch not yet attached to a Kernel.
func New() *Arch {
	return &Arch{
		privileged: true,
		gates:      make(map[kernel.TaskID]chan struct{}),
	}
}

// Attach records the Kernel this Arch drives. It must be called exactly
// once, with the Kernel constructed from this same Arch via
// kernel.NewKernel, before Spawn or Start.
func (a *Arch) Attach(k *kernel.Kernel) {
	a.k = k
}

// Bind implements kernel.Arch.
func (a *Arch) Bind(reenter func()) {
	a.reenter = reenter
}

// CriticalSection implements kernel.Arch by serializing callers through a
// single mutex, the host analogue of masking interrupts on one core.
func (a *Arch) CriticalSection(f func(kernel.CSToken)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f(kernel.CSToken{})
}

// IsPrivileged implements kernel.Arch. It reports one Arch-wide flag, not
// per-goroutine state: true until a Spawn'd task body starts, false while
// that body runs, and true again if the body returns.
func (a *Arch) IsPrivileged() bool {
	a.gatesMu.Lock()
	defer a.gatesMu.Unlock()
	return a.privileged
}

// RequestSchedule implements kernel.Arch: the pendsv-equivalent primitive.
// It performs the actual goroutine handoff immediately, since a host
// simulation has no hardware exception queue to defer into.
func (a *Arch) RequestSchedule() {
	a.dispatch()
}

// ElevateAndSchedule implements kernel.Arch: the svc-equivalent
// primitive. A host simulation has no privilege levels to trap into, so
// it just calls the bound re-entry point synchronously.
func (a *Arch) ElevateAndSchedule() {
	a.reenter()
}

// dispatch reads the Kernel's current selection and, if it has changed
// since the last dispatch, wakes the newly-selected task's gate and parks
// the calling goroutine (the previously-running task) on its own gate.
// Idle (task 0) is exempt from parking: nothing ever calls dispatch from
// within idle's body in this simulation, since idle has none.
func (a *Arch) dispatch() {
	next := a.k.CurrTid()

	a.gatesMu.Lock()
	prev := a.running
	if next == prev {
		a.gatesMu.Unlock()
		return
	}
	a.running = next
	a.gatesMu.Unlock()

	a.wake(next)
	if prev != 0 {
		a.park(prev)
	}
}

// Spawn registers a goroutine for tid that runs body once, when tid is
// first selected to run. A body parked inside dispatch (e.g. preempted
// after a Release or Resource.Unlock made a higher-priority task ready)
// resumes where it stopped when tid is selected again. body is expected to
// call kernel.Kernel.TaskExit, Resource.Lock/Unlock or Semaphore.Wait at
// its natural suspension points, same as a real task handler would.
func (a *Arch) Spawn(tid kernel.TaskID, body func()) {
	a.gatesMu.Lock()
	a.gates[tid] = make(chan struct{})
	a.gatesMu.Unlock()

	go func() {
		a.park(tid)
		a.gatesMu.Lock()
		a.privileged = false
		a.gatesMu.Unlock()

		body()

		a.gatesMu.Lock()
		a.privileged = true
		a.gatesMu.Unlock()
	}()
}

// Start releases the idle task (id 0), which every Kernel begins with as
// curr_tid, and returns immediately; task goroutines registered with
// Spawn run concurrently from this point on, gated by dispatch.
func (a *Arch) Start() {
	a.gatesMu.Lock()
	a.running = 0
	a.idleStarted = true
	a.gatesMu.Unlock()
	a.wake(0)
}

func (a *Arch) wake(tid kernel.TaskID) {
	a.gatesMu.Lock()
	ch, ok := a.gates[tid]
	a.gatesMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
		go func() { ch <- struct{}{} }()
	}
}

func (a *Arch) park(tid kernel.TaskID) {
	a.gatesMu.Lock()
	ch, ok := a.gates[tid]
	a.gatesMu.Unlock()
	if !ok {
		return
	}
	<-ch
}
