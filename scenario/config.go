/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package scenario loads a static task/resource/semaphore layout for the
// demo scheduler out of an INI file, the same gcfg-based format gravwell
// uses for its ingester configs. A scenario file plays the role the
// spawn!/init! macros play in the source crate: a declarative listing of
// what gets created before start_kernel runs, since this kernel takes no
// task-creation calls afterward.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gravwell/rtkernel/kernel"
)

var (
	ErrUnknownTask       = errors.New("scenario: references an undeclared task")
	ErrDuplicatePriority = errors.New("scenario: two tasks share a priority")
	ErrNoTasks           = errors.New("scenario: no tasks declared")
)

// rawConfig is the gcfg-decodable shape of a scenario file:
//
//	[Global]
//	Preemptive = true
//
//	[Task "blink"]
//	Priority = 1
//	Stack = 256
//
//	[Task "logger"]
//	Priority = 2
//	Stack = 256
//
//	[Resource "uart"]
//	Tasks = blink
//	Tasks = logger
//
//	[Semaphore "tick"]
//	Release = blink
type rawConfig struct {
	Global struct {
		Preemptive bool
	}
	Task map[string]*struct {
		Priority uint32
		Stack    uint32
	}
	Resource map[string]*struct {
		Tasks []string
	}
	Semaphore map[string]*struct {
		Release []string
	}
}

// TaskSpec is one resolved task declaration: a name for diagnostics plus
// the priority/stack pair the kernel actually needs.
type TaskSpec struct {
	Name     string
	Priority kernel.TaskID
	Stack    uint32
}

// Config is a fully resolved scenario: task declarations in priority
// order, plus every resource/semaphore mask with task names already
// translated to BooleanVector bits.
type Config struct {
	Preemptive bool
	Tasks      []TaskSpec
	Resources  map[string]kernel.BooleanVector
	Semaphores map[string]kernel.BooleanVector
}

// Verify resolves task-name references into BooleanVector masks and
// checks the static invariants a scenario must satisfy before it can be
// handed to the kernel: every name used by a Resource or Semaphore must
// have a matching Task section, no two tasks may claim the same
// priority, and at least one task must exist.
func (r *rawConfig) Verify() (*Config, error) {
	if len(r.Task) == 0 {
		return nil, ErrNoTasks
	}

	priorityOf := make(map[string]kernel.TaskID, len(r.Task))
	seen := make(map[kernel.TaskID]string, len(r.Task))
	cfg := &Config{Preemptive: r.Global.Preemptive}

	for name, t := range r.Task {
		if other, dup := seen[t.Priority]; dup {
			return nil, fmt.Errorf("%w: %q and %q both claim priority %d", ErrDuplicatePriority, other, name, t.Priority)
		}
		seen[t.Priority] = name
		priorityOf[name] = t.Priority
		cfg.Tasks = append(cfg.Tasks, TaskSpec{Name: name, Priority: t.Priority, Stack: t.Stack})
	}
	sort.Slice(cfg.Tasks, func(i, j int) bool { return cfg.Tasks[i].Priority < cfg.Tasks[j].Priority })

	mask := func(names []string) (kernel.BooleanVector, error) {
		var m kernel.BooleanVector
		for _, n := range names {
			p, ok := priorityOf[n]
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrUnknownTask, n)
			}
			m |= 1 << p
		}
		return m, nil
	}

	cfg.Resources = make(map[string]kernel.BooleanVector, len(r.Resource))
	for name, res := range r.Resource {
		m, err := mask(res.Tasks)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
		cfg.Resources[name] = m
	}

	cfg.Semaphores = make(map[string]kernel.BooleanVector, len(r.Semaphore))
	for name, sem := range r.Semaphore {
		m, err := mask(sem.Release)
		if err != nil {
			return nil, fmt.Errorf("semaphore %q: %w", name, err)
		}
		cfg.Semaphores[name] = m
	}

	return cfg, nil
}
