/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

// TaskControlBlock is the static description of a schedulable unit. It is
// entirely compile-time data: priority is identity, and the handler never
// returns on a real target (a task that falls off the end of Handler must
// call TaskExit itself).
type TaskControlBlock struct {
	ID        TaskID
	StackSize uint32
	Handler   func()
}

// scheduler holds the bitmaps that drive priority selection for a single
// core. Every set here is a BooleanVector over task ids; the highest
// priority member of any set is always its msb, so selection is O(1) once
// the sets are combined.
//
// Ready-to-run is active &^ blocked &^ (^released), i.e. a task runs if it
// has been created, is not blocked and has been released and not yet
// consumed. The idle task (id 0) is always active, and selectNext falls
// back to it when nothing is ready, so it is always a selection candidate
// of last resort.
type scheduler struct {
	tasks    [MaxTasks]*TaskControlBlock
	active   BooleanVector // tasks that have been created
	released BooleanVector // tasks released to run (ready once also active and not blocked)
	blocked  BooleanVector // tasks blocked by a resource lock or a cross-core migration
	exited   BooleanVector // tasks that have permanently retired

	// migratedTasks and migratedTid are used only by the cross-core Shared
	// protocol (shared.go). migratedTasks names, on this core, every local
	// task a peer core has migrated away to break a cross-core priority
	// inversion; migratedTid names the task id this core itself most
	// recently migrated onto a peer, or noTask if none is outstanding.
	// noTask rather than 0 marks "nothing migrated" because 0 (the idle
	// task) is itself a valid, always-eligible migration target -- every
	// resource mask implicitly includes it.
	migratedTasks BooleanVector
	migratedTid   TaskID

	currTid             TaskID
	preemptDisableCount int
}

// noTask is a TaskID value no real task can ever hold (valid ids are
// 0..MaxTasks-1), used as the "no migration outstanding" sentinel for
// migratedTid.
const noTask TaskID = ^TaskID(0)

func newScheduler() *scheduler {
	s := &scheduler{}
	s.tasks[0] = &TaskControlBlock{ID: 0, Handler: func() {}}
	s.active = bit(0)
	s.released = bit(0)
	s.migratedTid = noTask
	return s
}

// createTask registers a new task. priority must be in (0, MaxTasks) and
// unused; id 0 is reserved for the idle task created by newScheduler.
func (s *scheduler) createTask(priority TaskID, stackSize uint32, handler func()) error {
	if priority == 0 || priority >= MaxTasks {
		return ErrInvalidTaskPriority
	}
	if stackSize == 0 {
		return ErrStackTooSmall
	}
	if s.active&bit(priority) != 0 || s.exited&bit(priority) != 0 {
		return ErrTaskAlreadyExists
	}
	s.tasks[priority] = &TaskControlBlock{ID: priority, StackSize: stackSize, Handler: handler}
	s.active |= bit(priority)
	return nil
}

// release marks tid ready to run. It is idempotent: releasing an
// already-released task is not an error.
func (s *scheduler) release(tid TaskID) error {
	if s.active&bit(tid) == 0 {
		return ErrDoesNotExist
	}
	s.released |= bit(tid)
	return nil
}

// blockTasks marks every task named in mask as blocked.
func (s *scheduler) blockTasks(mask BooleanVector) {
	s.blocked |= mask
}

// unblockTasks clears every task named in mask from the blocked set.
func (s *scheduler) unblockTasks(mask BooleanVector) {
	s.blocked &^= mask
}

// taskExit retires tid for good: it clears both the released and active
// bits and marks the priority exited, so tid can never be selected,
// released or recreated again. Exit is one-way, same as the source
// kernel's task_exit.
func (s *scheduler) taskExit(tid TaskID) {
	s.active &^= bit(tid)
	s.released &^= bit(tid)
	s.exited |= bit(tid)
}

// park takes tid out of the ready set without retiring it -- the building
// block Semaphore.Wait uses so a task can block pending a signal and still
// be eligible to run again once some SignalAndRelease names it.
func (s *scheduler) park(tid TaskID) {
	s.released &^= bit(tid)
}

func (s *scheduler) disablePreemption() {
	s.preemptDisableCount++
}

// enablePreemption undoes one disablePreemption call. It is a no-op, not
// an error, if preemption was not disabled: mirrors the source kernel's
// saturating behavior, since a stray enable must never panic a task.
func (s *scheduler) enablePreemption() {
	if s.preemptDisableCount > 0 {
		s.preemptDisableCount--
	}
}

func (s *scheduler) isPreemptive() bool {
	return s.preemptDisableCount == 0
}

// readyMask is the set of tasks eligible for selection right now.
func (s *scheduler) readyMask() BooleanVector {
	return s.active & s.released &^ s.blocked
}

// selectNext computes the highest-priority ready task and reports whether
// it differs from the task currently recorded as running. It always
// succeeds: when readyMask() is empty (the idle task itself can be blocked,
// e.g. by a peer core's MigrateTask) it falls back to task 0, the idle task.
func (s *scheduler) selectNext() (changed bool, old, next TaskID) {
	old = s.currTid
	next = 0
	if ready := s.readyMask(); ready != 0 {
		next = TaskID(msb(ready))
	}
	if next != old {
		s.currTid = next
		return true, old, next
	}
	return false, old, next
}
