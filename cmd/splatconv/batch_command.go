package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"splatconv/internal/batch"
	"splatconv/internal/config"
	"splatconv/internal/convert"
	"splatconv/internal/logging"
	"splatconv/internal/preflight"
	"splatconv/internal/runlock"
	"splatconv/internal/services"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var reduced bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "batch <input-dir> <output-dir>",
		Short: "Convert every splat scene under a directory tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return errors.New("--workers must be at least 1")
				}
			} else {
				workers = cfg.Conversion.Workers
			}

			return runBatch(cmd, cfg, logger, batchOptions{
				inputRoot:  args[0],
				outputRoot: args[1],
				workers:    workers,
				reduced:    reduced,
				dryRun:     dryRun,
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent conversion workers (defaults to conversion.workers)")
	cmd.Flags().BoolVar(&reduced, "reduced-features", false, "Drop higher-order spherical harmonics from every output")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List planned conversions without writing anything")
	return cmd
}

type batchOptions struct {
	inputRoot  string
	outputRoot string
	workers    int
	reduced    bool
	dryRun     bool
}

func runBatch(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, opts batchOptions) error {
	inputRoot, err := config.ExpandPath(opts.inputRoot)
	if err != nil {
		return fmt.Errorf("resolve input root: %w", err)
	}
	outputRoot, err := config.ExpandPath(opts.outputRoot)
	if err != nil {
		return fmt.Errorf("resolve output root: %w", err)
	}

	tasks, err := batch.Plan(inputRoot, outputRoot, cfg.Conversion.InputExtension, cfg.Conversion.OutputExtension)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintf(out, "No %s files found under %s\n", cfg.Conversion.InputExtension, inputRoot)
		return nil
	}

	mode := batch.ModeStandard
	if opts.reduced {
		mode = batch.ModeReduced
	}

	runID := uuid.NewString()
	runCtx := services.WithRunID(cmd.Context(), runID)
	runLogger := logging.WithContext(runCtx, logger)
	reporter := batch.NewReporter(runLogger, len(tasks))

	if opts.dryRun {
		reporter.ListPlanned(tasks)
		fmt.Fprintf(out, "Planned %d conversions (dry run, nothing written)\n", len(tasks))
		return nil
	}

	if err := preflight.Verify(preflight.CheckWritableDirectory("Output root", outputRoot)); err != nil {
		return err
	}

	lock, err := runlock.Acquire(outputRoot)
	if err != nil {
		return err
	}
	defer lock.Release()

	runLogger.Info("batch starting",
		logging.String(logging.FieldComponent, "batch"),
		logging.String(logging.FieldEventType, "batch_start"),
		logging.String(logging.FieldMode, string(mode)),
		logging.Int("tasks", len(tasks)),
		logging.Int("workers", opts.workers),
		logging.String("input_root", inputRoot),
		logging.String("output_root", outputRoot),
	)

	cache := batch.NewResourceCache(convert.Factory(cfg), mode)
	runner := batch.NewRunner(cache, runLogger)
	scheduler := batch.NewScheduler(runner, opts.workers, runLogger)

	summary := reporter.Consume(scheduler.Execute(runCtx, tasks))

	fmt.Fprintln(out, renderTable(
		[]string{"Result", "Count"},
		[][]string{
			{"Total", strconv.Itoa(summary.Total)},
			{"Successful", strconv.Itoa(summary.Successful)},
			{"Failed", strconv.Itoa(summary.Failed)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	if failures := reporter.Failures(); len(failures) > 0 {
		rows := make([][]string, 0, len(failures))
		for _, failure := range failures {
			detail := failure.Message
			if failure.Err != nil {
				detail = failure.Err.Error()
			}
			rows = append(rows, []string{failure.Task.RelativePath, services.Kind(failure.Err), detail})
		}
		fmt.Fprintln(out, renderTable([]string{"Scene", "Kind", "Error"}, rows, nil))
	}

	if err := summary.Verdict(); err != nil {
		return err
	}
	fmt.Fprintln(out, paint(fmt.Sprintf("All %d conversions succeeded", summary.Total), ansiGreen, shouldColorize(out)))
	return nil
}
