/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Command rtsim runs a scenario file against the host-simulated kernel:
// the equivalent of flashing a basic_tasks example to a board, except the
// "board" is goroutines and the "UART" is stdout.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gravwell/rtkernel/eventlog"
	"github.com/gravwell/rtkernel/scenario"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "rtsim <scenario-file>",
		Short: "Run a static task/resource/semaphore scenario against the simulated kernel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := eventlog.LevelFromString(logLevel)
			if err != nil {
				return err
			}
			logger := eventlog.New(nopCloser{os.Stdout})
			if err := logger.SetLevel(lvl); err != nil {
				return err
			}
			return runScenario(args[0], logger)
		},
	}

	root.Flags().StringVar(&logLevel, "log-level", "INFO", "minimum trace level: OFF, DEBUG, INFO, WARN, ERROR")
	return root
}

func runScenario(path string, logger *eventlog.Logger) error {
	runID := uuid.New()
	cfg, err := scenario.Load(path)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}
	logger.Info("scenario loaded",
		eventlog.KV("run_id", runID.String()),
		eventlog.KV("tasks", len(cfg.Tasks)),
		eventlog.KV("preemptive", cfg.Preemptive),
	)

	runner := newScenarioRunner(cfg, logger)
	return runner.run()
}

type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }
