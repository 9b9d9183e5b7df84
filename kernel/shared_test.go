/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "testing"

func TestSharedResourceMigratesContendingTask(t *testing.T) {
	k0 := NewKernel(newTestArch())
	k1 := NewKernel(newTestArch())
	_ = k0.CreateTask(3, 64, func() {})
	_ = k1.CreateTask(2, 64, func() {})
	_ = k0.Release(3)
	_ = k1.Release(2)

	sr := NewSharedResource(k0, k1, bit(3), bit(2), 0)

	v0 := sr.Core0()
	if got := k0.MigratedTid(); got != noTask {
		t.Fatalf("MigratedTid() before any Lock = %d, want noTask", got)
	}
	v0.Lock()
	if got := k1.CurrTid(); got != 0 {
		t.Fatalf("core1 CurrTid() while core0 holds the lock = %d, want 0 (task 2 migrated off)", got)
	}
	if got := k0.MigratedTid(); got != 2 {
		t.Fatalf("core0 MigratedTid() while holding the lock = %d, want 2 (spec Scenario 6: the locking core observes migrated_tid on its own scheduler)", got)
	}
	v0.Unlock()
	if got := k1.CurrTid(); got != 2 {
		t.Fatalf("core1 CurrTid() after unlock = %d, want 2", got)
	}
	if got := k0.MigratedTid(); got != noTask {
		t.Fatalf("core0 MigratedTid() after unlock = %d, want noTask", got)
	}
}

func TestSharedResourceAcquireRunsUnderLock(t *testing.T) {
	k0 := NewKernel(newTestArch())
	k1 := NewKernel(newTestArch())
	sr := NewSharedResource(k0, k1, BooleanVector(0), BooleanVector(0), 10)
	v1 := sr.Core1()
	v1.Acquire(func(val *int) { *val *= 2 })
	if sr.data != 20 {
		t.Fatalf("data = %d, want 20", sr.data)
	}
}

func TestSharedResourceNoMigrationWhenOtherTaskNotAnAccessor(t *testing.T) {
	k0 := NewKernel(newTestArch())
	k1 := NewKernel(newTestArch())
	_ = k1.CreateTask(7, 64, func() {})
	_ = k1.Release(7)

	sr := NewSharedResource(k0, k1, bit(5), bit(9), 0) // task 7 is not in core1's access mask
	v0 := sr.Core0()
	v0.Lock()
	if got := k1.CurrTid(); got != 7 {
		t.Fatalf("core1 CurrTid() = %d, want 7 (not an accessor, must not be migrated)", got)
	}
	v0.Unlock()
}
