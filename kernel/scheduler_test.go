/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "testing"

func TestNewKernelStartsOnIdle(t *testing.T) {
	k := NewKernel(newTestArch())
	if tid := k.CurrTid(); tid != 0 {
		t.Fatalf("CurrTid() = %d, want 0", tid)
	}
}

func TestCreateTaskRejectsReservedAndOutOfRange(t *testing.T) {
	k := NewKernel(newTestArch())
	if err := k.CreateTask(0, 64, func() {}); err != ErrInvalidTaskPriority {
		t.Fatalf("priority 0: got %v, want ErrInvalidTaskPriority", err)
	}
	if err := k.CreateTask(MaxTasks, 64, func() {}); err != ErrInvalidTaskPriority {
		t.Fatalf("priority MaxTasks: got %v, want ErrInvalidTaskPriority", err)
	}
	if err := k.CreateTask(1, 0, func() {}); err != ErrStackTooSmall {
		t.Fatalf("zero stack: got %v, want ErrStackTooSmall", err)
	}
}

func TestCreateTaskRejectsDuplicate(t *testing.T) {
	k := NewKernel(newTestArch())
	if err := k.CreateTask(3, 64, func() {}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := k.CreateTask(3, 64, func() {}); err != ErrTaskAlreadyExists {
		t.Fatalf("duplicate create: got %v, want ErrTaskAlreadyExists", err)
	}
}

func TestReleaseSelectsHighestPriorityReady(t *testing.T) {
	k := NewKernel(newTestArch())
	if err := k.CreateTask(1, 64, func() {}); err != nil {
		t.Fatal(err)
	}
	if err := k.CreateTask(5, 64, func() {}); err != nil {
		t.Fatal(err)
	}
	if err := k.Release(1); err != nil {
		t.Fatal(err)
	}
	if got := k.CurrTid(); got != 1 {
		t.Fatalf("CurrTid() = %d, want 1", got)
	}
	if err := k.Release(5); err != nil {
		t.Fatal(err)
	}
	if got := k.CurrTid(); got != 5 {
		t.Fatalf("CurrTid() = %d, want 5 (higher priority preempts)", got)
	}
}

func TestReleaseUnknownTaskFails(t *testing.T) {
	k := NewKernel(newTestArch())
	if err := k.Release(7); err != ErrDoesNotExist {
		t.Fatalf("got %v, want ErrDoesNotExist", err)
	}
}

func TestTaskExitFallsBackToNextReady(t *testing.T) {
	k := NewKernel(newTestArch())
	_ = k.CreateTask(2, 64, func() {})
	_ = k.CreateTask(4, 64, func() {})
	_ = k.Release(2)
	_ = k.Release(4)
	if got := k.CurrTid(); got != 4 {
		t.Fatalf("CurrTid() = %d, want 4", got)
	}
	k.TaskExit(4)
	if got := k.CurrTid(); got != 2 {
		t.Fatalf("CurrTid() after exit = %d, want 2", got)
	}
}

func TestTaskExitIsOneWay(t *testing.T) {
	k := NewKernel(newTestArch())
	_ = k.CreateTask(3, 64, func() {})
	_ = k.Release(3)
	k.TaskExit(3)
	if err := k.Release(3); err != ErrDoesNotExist {
		t.Fatalf("release after exit: got %v, want ErrDoesNotExist", err)
	}
	if err := k.CreateTask(3, 64, func() {}); err != ErrTaskAlreadyExists {
		t.Fatalf("re-create after exit: got %v, want ErrTaskAlreadyExists (priority stays retired)", err)
	}
}

func TestBlockAndUnblockTasks(t *testing.T) {
	k := NewKernel(newTestArch())
	_ = k.CreateTask(2, 64, func() {})
	_ = k.Release(2)
	k.BlockTasks(bit(2))
	if got := k.CurrTid(); got != 0 {
		t.Fatalf("CurrTid() while blocked = %d, want 0 (idle)", got)
	}
	k.UnblockTasks(bit(2))
	if got := k.CurrTid(); got != 2 {
		t.Fatalf("CurrTid() after unblock = %d, want 2", got)
	}
}

func TestDisablePreemptionSuppressesScheduling(t *testing.T) {
	k := NewKernel(newTestArch())
	_ = k.CreateTask(2, 64, func() {})
	k.DisablePreemption()
	_ = k.Release(2)
	if got := k.CurrTid(); got != 0 {
		t.Fatalf("CurrTid() with preemption disabled = %d, want 0", got)
	}
	k.EnablePreemption()
	k.schedule()
	if got := k.CurrTid(); got != 2 {
		t.Fatalf("CurrTid() after re-enabling preemption = %d, want 2", got)
	}
}

func TestEnablePreemptionWithoutDisableIsNoop(t *testing.T) {
	k := NewKernel(newTestArch())
	k.EnablePreemption()
	if !k.sched.isPreemptive() {
		t.Fatal("expected scheduler to remain preemptive")
	}
}

func TestScheduleChoosesSVCWhenUnprivileged(t *testing.T) {
	arch := newTestArch()
	k := NewKernel(arch)
	_ = k.CreateTask(1, 64, func() {})
	arch.forceUnprived = true
	_ = k.Release(1)
	if arch.elevatedCalls == 0 {
		t.Fatal("expected ElevateAndSchedule to be used from an unprivileged context")
	}
	if arch.scheduleCalls == 0 {
		t.Fatal("expected the SVC re-entry to eventually call RequestSchedule")
	}
}

func TestCreateTaskRequiresPrivilege(t *testing.T) {
	arch := newTestArch()
	arch.forceUnprived = true
	k := NewKernel(arch)
	if err := k.CreateTask(1, 64, func() {}); err != ErrAccessDenied {
		t.Fatalf("CreateTask from unprivileged context: got %v, want ErrAccessDenied", err)
	}
	if k.sched.active&bit(1) != 0 {
		t.Fatal("rejected CreateTask must not have registered the task")
	}
}
