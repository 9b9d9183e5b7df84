/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package main

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gravwell/rtkernel/eventlog"
	"github.com/gravwell/rtkernel/kernel"
	"github.com/gravwell/rtkernel/scenario"
	"github.com/gravwell/rtkernel/simarch"
)

// scenarioRunner builds a single-core kernel from a resolved Config, wires
// every Resource and Semaphore it declares, spawns a goroutine per task
// that logs its own start and exit, and releases every task at once --
// the scenario-1 pattern from the source crate's examples, generalized to
// whatever task set the scenario file names.
type scenarioRunner struct {
	cfg    *scenario.Config
	logger *eventlog.Logger
	arch   *simarch.Arch
	k      *kernel.Kernel

	resources  map[string]*kernel.Resource[struct{}]
	semaphores map[string]*kernel.Semaphore
}

func newScenarioRunner(cfg *scenario.Config, logger *eventlog.Logger) *scenarioRunner {
	arch := simarch.New()
	k := kernel.NewKernel(arch)
	arch.Attach(k)
	return &scenarioRunner{
		cfg:        cfg,
		logger:     logger,
		arch:       arch,
		k:          k,
		resources:  make(map[string]*kernel.Resource[struct{}]),
		semaphores: make(map[string]*kernel.Semaphore),
	}
}

// run creates every declared task and resource, releases the full task
// set, and waits for every task to finish (or for a timeout, in case a
// scenario deadlocks the demo itself rather than the kernel).
func (r *scenarioRunner) run() error {
	if !r.cfg.Preemptive {
		r.k.DisablePreemption()
	}

	for name, mask := range r.cfg.Resources {
		r.resources[name] = kernel.NewResource(r.k, mask, struct{}{})
	}
	for name, mask := range r.cfg.Semaphores {
		r.semaphores[name] = kernel.NewSemaphore(r.k, mask)
		r.logger.Debug("semaphore declared", eventlog.KV("semaphore", name), eventlog.Mask("release_mask", mask))
	}

	group, ctx := errgroup.WithContext(context.Background())

	for _, t := range r.cfg.Tasks {
		t := t
		owned := r.resourcesFor(t.Priority)
		done := make(chan struct{})
		body := func() {
			r.logger.Info("task started", eventlog.KV("task", t.Name), eventlog.KV("priority", t.Priority))
			for _, name := range owned {
				res := r.resources[name]
				if err := res.Acquire(func(*struct{}) {
					r.logger.Debug("holding resource", eventlog.KV("task", t.Name), eventlog.KV("resource", name))
				}); err != nil {
					r.logger.Error("resource acquire failed", eventlog.KV("task", t.Name), eventlog.KV("resource", name), eventlog.KVErr(err))
				}
			}
			r.logger.Info("task exiting", eventlog.KV("task", t.Name))
			close(done)
			r.k.TaskExit(t.Priority)
		}
		if err := r.k.CreateTask(t.Priority, t.Stack, body); err != nil {
			return err
		}
		r.arch.Spawn(t.Priority, body)

		group.Go(func() error {
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return context.DeadlineExceeded
			}
		})
	}

	r.arch.Start()
	for _, t := range r.cfg.Tasks {
		if err := r.k.Release(t.Priority); err != nil {
			return err
		}
	}

	return group.Wait()
}

// resourcesFor returns the names of every declared Resource that names
// priority as an accessor, sorted for log-output determinism. It exists so
// a scenario's [Resource "x"] / Tasks = ... declarations actually drive
// Resource.Acquire calls instead of sitting in r.resources unused.
func (r *scenarioRunner) resourcesFor(priority kernel.TaskID) []string {
	var names []string
	for name, mask := range r.cfg.Resources {
		if mask&(1<<priority) != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
