/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

// Semaphore is an edge-triggered wakeup signal for a fixed set of waiting
// tasks. Unlike Resource it carries no ICPP ceiling: it is meant for
// producer/consumer handoffs (an interrupt handler waking the task that
// services it), not mutual exclusion.
//
// flags records, per task, whether a signal has arrived since that task
// last checked -- this is what "edge-triggered" means here: a task that
// is slow to call TestAndReset still sees exactly one pending signal, not
// one per SignalAndRelease call.
type Semaphore struct {
	k           *Kernel
	releaseMask BooleanVector
	flags       BooleanVector
}

// NewSemaphore creates a Semaphore that, when signaled, releases every
// task named in releaseMask.
func NewSemaphore(k *Kernel, releaseMask BooleanVector) *Semaphore {
	return &Semaphore{k: k, releaseMask: releaseMask}
}

// SignalAndRelease sets the pending flag for every task in notifyMask and
// marks every task in the semaphore's fixed release set ready to run, then
// asks the scheduler to reconsider. notifyMask and the release set are
// deliberately independent: one signal can release a whole group of
// workers while only the subset in notifyMask sees a pending flag to
// consume, which is what lets a single signal wake a coordinator that then
// multicasts work to several workers without every worker racing to
// consume the same flag. It is safe to call from a privileged
// (interrupt-equivalent) context.
func (s *Semaphore) SignalAndRelease(notifyMask BooleanVector) {
	s.k.arch.CriticalSection(func(CSToken) {
		s.flags |= notifyMask
		s.k.sched.released |= s.releaseMask & s.k.sched.active
	})
	s.k.schedule()
}

// TestAndReset reports whether tid has a pending signal on this semaphore
// and clears it atomically. A task wakes up after waiting (its released
// bit was cleared by Wait and later set again by some SignalAndRelease),
// calls TestAndReset to confirm the wakeup was this semaphore's doing and
// not some other event that happened to re-ready it, and only then
// consumes whatever the signal announced.
func (s *Semaphore) TestAndReset(tid TaskID) bool {
	var was bool
	s.k.arch.CriticalSection(func(CSToken) {
		was = s.flags&bit(tid) != 0
		s.flags &^= bit(tid)
	})
	return was
}

// Wait takes tid out of the ready set and reschedules, the building block
// a task uses to wait on this semaphore in place of the closure a
// language with macros would use to hide the drop/schedule pair. tid
// becomes ready again only once some call to SignalAndRelease names it.
// Unlike TaskExit, tid stays active: waiting is not exiting.
func (s *Semaphore) Wait(tid TaskID) {
	s.k.arch.CriticalSection(func(CSToken) {
		s.k.sched.park(tid)
	})
	s.k.schedule()
}
