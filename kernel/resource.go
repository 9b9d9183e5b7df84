/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

// piStack is the per-core priority-ceiling stack: the nested set of
// resources currently locked, most recent on top. Its top element is the
// system ceiling -- no task at or below that priority, other than the
// holder, may run until the matching Unlock pops it.
type piStack struct {
	ceilings [MaxResources]TaskID
	depth    int
}

func newPiStack() *piStack {
	return &piStack{}
}

func (p *piStack) systemCeiling() TaskID {
	if p.depth == 0 {
		return 0
	}
	return p.ceilings[p.depth-1]
}

func (p *piStack) push(ceiling TaskID) error {
	if p.depth >= MaxResources {
		return ErrLimitExceeded
	}
	p.ceilings[p.depth] = ceiling
	p.depth++
	return nil
}

func (p *piStack) pop() {
	if p.depth > 0 {
		p.depth--
	}
}

// maskUpTo returns a BooleanVector with bits 0..ceiling set, inclusive.
// This is the set of tasks an ICPP lock at the given ceiling must keep off
// the CPU: anything at or below the ceiling could otherwise observe a
// partially-updated resource.
func maskUpTo(ceiling TaskID) BooleanVector {
	return (BooleanVector(1) << (ceiling + 1)) - 1
}

// Resource is an ICPP-protected container for a value of type T. Locking
// raises the system ceiling to the resource's fixed ceiling (the highest
// priority among the tasks allowed to touch it) and blocks every other
// task at or below that ceiling, so a lock acquired here can never block
// the task that takes it: by the time any task is allowed to lock a
// resource, every task that could contend for it is already excluded from
// running. This is what makes the protocol deadlock-free and gives a
// computable bound on priority inversion.
type Resource[T any] struct {
	k         *Kernel
	tasksMask BooleanVector
	ceiling   TaskID
	locked    bool
	lockedBy  TaskID
	data      T
}

// NewResource creates a Resource owned by k, accessible to every task
// named in tasksMask. The idle task (id 0) is always granted access: it
// represents interrupt/privileged context in this model, and ICPP ceilings
// are computed assuming it can always reach the resource.
func NewResource[T any](k *Kernel, tasksMask BooleanVector, data T) *Resource[T] {
	tasksMask |= bit(0)
	return &Resource[T]{
		k:         k,
		tasksMask: tasksMask,
		ceiling:   TaskID(msb(tasksMask)),
		data:      data,
	}
}

// Lock acquires the resource for the currently running task. It returns
// ErrAccessDenied if that task was not named in tasksMask at construction,
// and ErrLimitExceeded if the core's PiStack is already full.
func (r *Resource[T]) Lock() error {
	var err error
	r.k.arch.CriticalSection(func(CSToken) {
		tid := r.k.sched.currTid
		if r.tasksMask&bit(tid) == 0 {
			err = ErrAccessDenied
			return
		}
		if r.ceiling <= r.k.pi.systemCeiling() && r.k.pi.depth > 0 {
			// A resource whose ceiling does not strictly exceed the system
			// ceiling can never legitimately be reached: under ICPP, tid is
			// only running because some held lock's ceiling already
			// dominates it, so tid could not have been selected to run
			// unless it were itself the holder -- and a task never needs to
			// lock a resource it already effectively holds via a dominating
			// ceiling. Treated as caller error, same as an unlisted task.
			err = ErrAccessDenied
			return
		}
		if pushErr := r.k.pi.push(r.ceiling); pushErr != nil {
			err = pushErr
			return
		}
		r.k.sched.blockTasks(maskUpTo(r.ceiling) &^ bit(tid))
		r.locked = true
		r.lockedBy = tid
	})
	if err != nil {
		return err
	}
	r.k.schedule()
	return nil
}

// Unlock releases the resource. It must be called by the task that holds
// the lock, and locks must be released in the reverse order they were
// acquired -- the system ceiling must match this resource's ceiling, or
// some other, later lock is still outstanding.
func (r *Resource[T]) Unlock() error {
	var err error
	r.k.arch.CriticalSection(func(CSToken) {
		tid := r.k.sched.currTid
		if !r.locked || r.lockedBy != tid || r.k.pi.systemCeiling() != r.ceiling {
			err = ErrNotLocked
			return
		}
		r.k.pi.pop()
		unblock := maskUpTo(r.ceiling)
		if r.k.pi.depth > 0 {
			unblock &^= maskUpTo(r.k.pi.systemCeiling())
		}
		r.k.sched.unblockTasks(unblock)
		r.locked = false
	})
	if err != nil {
		return err
	}
	r.k.schedule()
	return nil
}

// Acquire locks the resource, runs f against the protected value, and
// unlocks unconditionally, even if f panics.
func (r *Resource[T]) Acquire(f func(*T)) error {
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()
	f(&r.data)
	return nil
}

// Access hands back a direct pointer to the protected value with no ICPP
// elevation at all -- no push, no blockTasks, no ceiling check. It exists
// for interrupt-service code, which this model treats as already running
// above every task priority, so the ordinary locking dance is both
// unnecessary and impossible (there is no task context to push a ceiling
// for). Callable only from privileged context; anything else is
// ErrAccessDenied, same as an unlisted task attempting Lock.
func (r *Resource[T]) Access() (*T, error) {
	if !r.k.arch.IsPrivileged() {
		return nil, ErrAccessDenied
	}
	return &r.data, nil
}
