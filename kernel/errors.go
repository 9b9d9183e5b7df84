/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "errors"

// Sentinel errors returned by kernel operations. Callers are expected to
// compare with errors.Is, same as anywhere else in the codebase.
var (
	// ErrLimitExceeded is returned by Resource.Lock when the core's PiStack
	// already holds MaxResources nested locks. No other table is checked
	// against it: CreateTask reports an out-of-range priority as
	// ErrInvalidTaskPriority, and NewResource does not count resources.
	ErrLimitExceeded = errors.New("kernel: limit exceeded")

	// ErrAccessDenied is returned when a task attempts to lock a Resource
	// it was not granted access to at creation time.
	ErrAccessDenied = errors.New("kernel: access denied")

	// ErrStackTooSmall is returned when a task is created with a stack
	// allocation below the kernel's minimum.
	ErrStackTooSmall = errors.New("kernel: stack too small")

	// ErrNotLocked is returned by Resource.Unlock when the calling task
	// does not hold the lock it is trying to release.
	ErrNotLocked = errors.New("kernel: resource not locked by caller")

	// ErrInvalidTaskPriority is returned when a task is created with a
	// priority of 0 (reserved for idle) or >= MaxTasks.
	ErrInvalidTaskPriority = errors.New("kernel: invalid task priority")

	// ErrTaskAlreadyExists is returned when CreateTask is called twice for
	// the same priority.
	ErrTaskAlreadyExists = errors.New("kernel: task already exists")

	// ErrDoesNotExist is returned when an operation names a task id that
	// is not active: never created, or already exited.
	ErrDoesNotExist = errors.New("kernel: does not exist")
)
