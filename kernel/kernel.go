/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

// Kernel is one core's scheduling instance: a scheduler, its priority
// ceiling stack, and the Arch implementation that makes selection visible
// to the outside world. A dual-core target constructs two Kernels, one per
// core, and ties their Resources together with SharedResource (see
// shared.go).
type Kernel struct {
	sched *scheduler
	pi    *piStack
	arch  Arch
}

// NewKernel constructs a Kernel bound to arch. CreateTask calls are only
// valid before the first call to Release/BlockTasks/UnblockTasks puts the
// scheduler in motion -- same constraint the source crate documents for
// create_task versus start_kernel.
func NewKernel(arch Arch) *Kernel {
	k := &Kernel{
		sched: newScheduler(),
		pi:    newPiStack(),
		arch:  arch,
	}
	arch.Bind(k.reenterScheduler)
	return k
}

// CreateTask registers a task at the given fixed priority. It must be
// called from a privileged context (kernel setup), before the task set is
// handed to Release for the first time; called from an unprivileged task
// it returns ErrAccessDenied without touching scheduler state.
func (k *Kernel) CreateTask(priority TaskID, stackSize uint32, handler func()) error {
	var err error
	k.arch.CriticalSection(func(CSToken) {
		if !k.arch.IsPrivileged() {
			err = ErrAccessDenied
			return
		}
		err = k.sched.createTask(priority, stackSize, handler)
	})
	return err
}

// CurrTid returns the task id the scheduler currently considers running.
func (k *Kernel) CurrTid() TaskID {
	var tid TaskID
	k.arch.CriticalSection(func(CSToken) {
		tid = k.sched.currTid
	})
	return tid
}

// Release marks tid ready to run and asks the scheduler to reconsider.
func (k *Kernel) Release(tid TaskID) error {
	var err error
	k.arch.CriticalSection(func(CSToken) {
		err = k.sched.release(tid)
	})
	if err != nil {
		return err
	}
	k.schedule()
	return nil
}

// BlockTasks marks every task in mask as blocked and reschedules.
func (k *Kernel) BlockTasks(mask BooleanVector) {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.blockTasks(mask)
	})
	k.schedule()
}

// UnblockTasks clears every task in mask from the blocked set and
// reschedules.
func (k *Kernel) UnblockTasks(mask BooleanVector) {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.unblockTasks(mask)
	})
	k.schedule()
}

// MigrateTask blocks tid on this core and records it in this scheduler's
// migratedTasks set. It is the peer-core half of the cross-core Shared
// protocol's task migration: called on the core that owns tid by the core
// that is taking the shared lock, so tid cannot run here while the other
// core is acting on its behalf.
func (k *Kernel) MigrateTask(tid TaskID) {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.migratedTasks |= bit(tid)
		k.sched.blockTasks(bit(tid))
	})
	k.schedule()
}

// UnmigrateTask reverses MigrateTask: clears tid from migratedTasks and
// from blocked, and reschedules.
func (k *Kernel) UnmigrateTask(tid TaskID) {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.migratedTasks &^= bit(tid)
		k.sched.unblockTasks(bit(tid))
	})
	k.schedule()
}

// setMigratedTid records, on this core's own scheduler, the id of the task
// this core has migrated onto a peer -- the local half of the pair spec.md
// §3/§4.5 names migrated_tasks/migrated_tid. Pass noTask to clear it.
func (k *Kernel) setMigratedTid(tid TaskID) {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.migratedTid = tid
	})
}

// MigratedTid reports the task id this core most recently migrated onto a
// peer core, or noTask if none is currently outstanding. Scenario 6 of
// spec.md §8 calls this out by name: the core that triggers a migration
// observes migrated_tid set on its own (local) scheduler.
func (k *Kernel) MigratedTid() TaskID {
	var tid TaskID
	k.arch.CriticalSection(func(CSToken) {
		tid = k.sched.migratedTid
	})
	return tid
}

// TaskExit retires the calling task from the ready set. On a real target
// this is called from the task's own handler right before it would
// otherwise fall off the end; the scheduler picks a new currTid in
// response.
func (k *Kernel) TaskExit(tid TaskID) {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.taskExit(tid)
	})
	k.schedule()
}

// DisablePreemption increments the nesting count that suppresses
// scheduling. Pairs with EnablePreemption.
func (k *Kernel) DisablePreemption() {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.disablePreemption()
	})
}

// EnablePreemption decrements the nesting count; once it reaches zero the
// next mutation reschedules normally.
func (k *Kernel) EnablePreemption() {
	k.arch.CriticalSection(func(CSToken) {
		k.sched.enablePreemption()
	})
}

// schedule recomputes the highest-priority ready task and asks the Arch
// layer to act on a change, choosing the pendsv-equivalent or svc-equivalent
// primitive depending on the caller's privilege level. It is the single
// point where scheduler state turns into an Arch request; Resource and
// Semaphore both call it after every state change that could affect
// readiness. It is a no-op while preemption is disabled: selection itself
// does not run, so currTid cannot advance even transiently.
func (k *Kernel) schedule() {
	var changed, preemptive, privileged bool
	k.arch.CriticalSection(func(CSToken) {
		preemptive = k.sched.isPreemptive()
		if !preemptive {
			return
		}
		changed, _, _ = k.sched.selectNext()
		privileged = k.arch.IsPrivileged()
	})
	if !preemptive || !changed {
		return
	}
	if privileged {
		k.arch.RequestSchedule()
	} else {
		k.arch.ElevateAndSchedule()
	}
}

// reenterScheduler is the privileged re-entry point handed to Arch.Bind.
// It is what a real SVC exception handler calls once it has trapped into
// privileged mode; it simply asks the scheduler to act on its current
// state via the pendsv-equivalent primitive.
func (k *Kernel) reenterScheduler() {
	k.arch.RequestSchedule()
}
