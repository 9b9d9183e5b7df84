/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package kernel implements the priority-based preemptive scheduling core
// of a statically-configured real-time microkernel: the ready/blocked task
// bitmaps, the Immediate Ceiling Priority Protocol resource manager, the
// edge-triggered semaphore, and the cross-core Shared resource protocol.
//
// The package never allocates after construction. Every table (tasks, the
// priority-ceiling stack) is a fixed-size array sized by
// MaxTasks/MaxResources, matching the target: a single-core or dual-core
// 32-bit microcontroller with no heap.
package kernel

// BooleanVector is a fixed-width set over task (or resource) identifiers.
// Bit i set means member i belongs to the set. MaxTasks is capped at 32 so
// a BooleanVector always fits in one machine word on the target.
type BooleanVector = uint32

const (
	// MaxTasks bounds the number of schedulable tasks, including the idle
	// task at priority 0. Must not exceed 32: BooleanVector is a uint32.
	MaxTasks = 32

	// MaxResources bounds the number of ICPP-protected resources a single
	// core's PiStack can track at once.
	MaxResources = 16
)

// TaskID identifies a task by its fixed priority; priority is identity.
// 0 is always the idle task.
type TaskID = uint32

// bit returns the BooleanVector with only task id's bit set.
func bit(id TaskID) BooleanVector {
	return 1 << id
}

// msb returns the index of the most significant set bit in v, or -1 if v is
// zero. This is the O(1) priority-selection primitive the whole kernel is
// built on: the highest-priority member of any task set is always its msb.
func msb(v BooleanVector) int {
	if v == 0 {
		return -1
	}
	n := 0
	for v != 1 {
		v >>= 1
		n++
	}
	return n
}
