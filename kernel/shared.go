/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import (
	"runtime"
	"sync/atomic"
)

// CoreID names one of the two cores a SharedResource can straddle.
type CoreID int

const (
	Core0 CoreID = iota
	Core1
)

func (c CoreID) other() CoreID {
	if c == Core0 {
		return Core1
	}
	return Core0
}

// SharedResource protects a value of type T that both cores of a dual-core
// target can reach. Each core has its own ICPP ceiling story (a task
// running on core 1 is invisible to core 0's PiStack), so mutual exclusion
// here can't be built from Resource's single-core ceiling trick. Instead
// the lock is a plain CAS spinlock, and whichever core takes it migrates
// the other core's currently running task out of the way for the
// duration, if that task is itself named as an accessor: without this, a
// low-priority task on the other core could hold up a high-priority task
// on this core indefinitely, which is exactly the unbounded inversion
// ICPP exists to prevent.
type SharedResource[T any] struct {
	kernels [2]*Kernel
	masks   [2]BooleanVector

	lockRef int32
	data    T
}

// NewSharedResource creates a SharedResource straddling core0 and core1.
// mask0/mask1 name the tasks on each respective core allowed to reach it;
// the idle task on each core is always included.
func NewSharedResource[T any](core0, core1 *Kernel, mask0, mask1 BooleanVector, data T) *SharedResource[T] {
	return &SharedResource[T]{
		kernels: [2]*Kernel{core0, core1},
		masks:   [2]BooleanVector{mask0 | bit(0), mask1 | bit(0)},
		data:    data,
	}
}

// SharedView is one core's handle onto a SharedResource.
type SharedView[T any] struct {
	r    *SharedResource[T]
	self CoreID
}

// Core0 returns the view used by code running on core 0.
func (r *SharedResource[T]) Core0() *SharedView[T] { return &SharedView[T]{r: r, self: Core0} }

// Core1 returns the view used by code running on core 1.
func (r *SharedResource[T]) Core1() *SharedView[T] { return &SharedView[T]{r: r, self: Core1} }

// Lock spins until the resource is free, then migrates the other core's
// current task out of the way if it is one of this resource's accessors:
// the peer's scheduler records the migrated task in its own migratedTasks
// set (via MigrateTask) while this core's own scheduler records the same
// task id as migratedTid (via setMigratedTid), the named pair spec.md §3
// calls migrated_tasks/migrated_tid. A real target spins on a literal CAS
// instruction with interrupts otherwise enabled; runtime.Gosched lets
// other goroutines make progress on the host instead of burning a core.
func (v *SharedView[T]) Lock() {
	for !atomic.CompareAndSwapInt32(&v.r.lockRef, 0, 1) {
		runtime.Gosched()
	}
	self := v.r.kernels[v.self]
	other := v.self.other()
	otherKernel := v.r.kernels[other]
	otherMask := v.r.masks[other]
	otherTid := otherKernel.CurrTid()
	if otherMask&bit(otherTid) != 0 {
		otherKernel.MigrateTask(otherTid)
		self.setMigratedTid(otherTid)
	} else {
		self.setMigratedTid(noTask)
	}
}

// Unlock un-migrates whatever task Lock migrated away on the other core,
// clears this core's migratedTid, and releases the spinlock.
func (v *SharedView[T]) Unlock() {
	self := v.r.kernels[v.self]
	if tid := self.MigratedTid(); tid != noTask {
		other := v.self.other()
		v.r.kernels[other].UnmigrateTask(tid)
		self.setMigratedTid(noTask)
	}
	atomic.StoreInt32(&v.r.lockRef, 0)
}

// Acquire locks the resource, runs f against the protected value, and
// unlocks unconditionally.
func (v *SharedView[T]) Acquire(f func(*T)) {
	v.Lock()
	defer v.Unlock()
	f(&v.r.data)
}
