package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haldane/cutroom/internal/assets"
	"github.com/haldane/cutroom/internal/engine"
	"github.com/haldane/cutroom/internal/timeline"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Timeline string
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Apply an edit script to a timeline",
		Long: `Apply an edit script's command batch to a timeline through the agent
write path: all-or-nothing against the current head, one automatic retry
on conflict.

The script is validated against the embedded schema before any command
runs. A batch that leaves the document unchanged commits nothing.

Example:
  cutroom --db ./cutroom.db apply rough-cut.yaml --timeline 0197a3c2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Timeline, "timeline", "", "target timeline id (required)")
	_ = cmd.MarkFlagRequired("timeline")

	return cmd
}

func runApply(opts *ApplyOptions, scriptPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	script, err := LoadScript(scriptPath)
	if err != nil {
		var se *ScriptError
		if errors.As(err, &se) {
			_ = formatter.Error(se.Code, se.Message, nil)
			return NewExitError(ExitFailure, se.Error())
		}
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}
	formatter.VerboseLog("script %s: %d command(s) by %s", script.Name, len(script.Commands), script.CreatedBy)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	saver := engine.NewSaver(st, assets.NewValidator(st), engine.WithLogger(log))
	batch := engine.NewBatchApplier(engine.New(), saver, st, engine.WithBatchLogger(log))

	result, err := batch.Apply(cmd.Context(), opts.Timeline, script.CreatedBy, script.Commands)
	if err != nil {
		return outputApplyError(formatter, err)
	}

	if result.NoChange {
		formatter.Textf("No change: the batch cancels out against the current document")
		return formatter.JSON(map[string]any{
			"outcome":  "no_change",
			"timeline": opts.Timeline,
		})
	}

	formatter.Textf("Applied %d command(s): version %d, %d clip(s) changed",
		len(script.Commands), result.Version, len(result.ChangedClipIDs))
	return formatter.JSON(map[string]any{
		"outcome":        "applied",
		"timeline":       opts.Timeline,
		"version":        result.Version,
		"changedClipIds": result.ChangedClipIDs,
	})
}

// outputApplyError maps engine errors onto the CLI error taxonomy. Domain
// rejections exit 1, infrastructure problems exit 2.
func outputApplyError(formatter *OutputFormatter, err error) error {
	var be *engine.BatchError
	if errors.As(err, &be) {
		var details any
		if be.Code == engine.ErrCodeCommandRejected {
			details = map[string]any{"index": be.Index, "command": be.Command}
		}
		_ = formatter.Error(string(be.Code), be.Message, details)
		return NewExitError(ExitFailure, be.Error())
	}

	var structural *timeline.StructuralError
	if errors.As(err, &structural) {
		_ = formatter.Error(string(structural.Code), structural.Message, nil)
		return NewExitError(ExitFailure, structural.Error())
	}

	var ref *assets.ReferenceError
	if errors.As(err, &ref) {
		_ = formatter.Error(string(ref.Code), err.Error(), nil)
		return NewExitError(ExitFailure, ref.Error())
	}

	if engine.IsConflict(err) {
		_ = formatter.Error("CONFLICT", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	return WrapExitError(ExitCommandError, fmt.Sprintf("failed to apply script: %v", err), err)
}
