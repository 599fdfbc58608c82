package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"splatconv/internal/batch"
	"splatconv/internal/config"
	"splatconv/internal/convert"
	"splatconv/internal/fileutil"
	"splatconv/internal/logging"
	"splatconv/internal/preflight"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var reduced bool

	cmd := &cobra.Command{
		Use:   "convert <input.ply>",
		Short: "Convert a single splat scene to a USDZ package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runConvert(cmd, cfg, logger, args[0], outputFlag, reduced)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output-file", "o", "", "Destination path for the USDZ package")
	cmd.Flags().BoolVar(&reduced, "reduced-features", false, "Drop higher-order spherical harmonics from the output")
	return cmd
}

func runConvert(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, input, output string, reduced bool) error {
	inputPath, err := config.ExpandPath(input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return fmt.Errorf("inspect input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory; use `splatconv batch` for directory trees", inputPath)
	}
	if !strings.EqualFold(filepath.Ext(inputPath), cfg.Conversion.InputExtension) {
		return fmt.Errorf("input file must have a %s extension, got %q", cfg.Conversion.InputExtension, filepath.Ext(inputPath))
	}

	outputPath := strings.TrimSpace(output)
	if outputPath == "" {
		outputPath = fileutil.ReplaceExtension(inputPath, cfg.Conversion.OutputExtension)
	} else {
		outputPath, err = config.ExpandPath(outputPath)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
	}

	if err := preflight.Verify(
		preflight.CheckReadableFile("Input file", inputPath),
		preflight.CheckWritableDirectory("Output directory", filepath.Dir(outputPath)),
	); err != nil {
		return err
	}

	mode := batch.ModeStandard
	if reduced {
		mode = batch.ModeReduced
	}

	resources, err := convert.New(cfg, mode)
	if err != nil {
		return err
	}

	if err := fileutil.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return err
	}

	model, err := resources.Load(cmd.Context(), inputPath, mode)
	if err != nil {
		return err
	}
	if err := resources.Export(cmd.Context(), model, outputPath); err != nil {
		return err
	}

	logger.Info("conversion complete",
		logging.String(logging.FieldComponent, "convert"),
		logging.String(logging.FieldMode, string(mode)),
		logging.String("input", inputPath),
		logging.String("output", outputPath),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s\n", filepath.Base(inputPath), outputPath)
	return nil
}
