/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package simarch

import (
	"sync"
	"testing"
	"time"

	"github.com/gravwell/rtkernel/kernel"
)

// TestPriorityOrdering runs two tasks through a real Arch and Kernel pair:
// a low-priority task releases a high-priority one mid-burst and must see
// it run to completion first, exactly as a preemptive scheduler promises.
func TestPriorityOrdering(t *testing.T) {
	a := New()
	k := kernel.NewKernel(a)
	a.Attach(k)

	var mu sync.Mutex
	var order []kernel.TaskID
	record := func(tid kernel.TaskID) {
		mu.Lock()
		order = append(order, tid)
		mu.Unlock()
	}

	done := make(chan struct{}, 2)

	// TaskExit never returns on a real target; neither does it here, since
	// it hands the calling goroutine straight to the dispatcher's park
	// loop. Anything a task still needs to do must happen before it.
	task1 := func() {
		record(1)
		if err := k.Release(5); err != nil {
			t.Error(err)
		}
		record(1)
		done <- struct{}{}
		k.TaskExit(1)
	}
	task5 := func() {
		record(5)
		done <- struct{}{}
		k.TaskExit(5)
	}

	if err := k.CreateTask(1, 256, task1); err != nil {
		t.Fatal(err)
	}
	if err := k.CreateTask(5, 256, task5); err != nil {
		t.Fatal(err)
	}

	a.Spawn(1, task1)
	a.Spawn(5, task5)
	a.Start()

	if err := k.Release(1); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task 1 never finished")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task 5 never finished")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []kernel.TaskID{1, 5, 1}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
