package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haldane/cutroom/internal/store"
	"github.com/haldane/cutroom/internal/timeline"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Version int64
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <timeline-id>",
		Short: "Print a timeline document",
		Long: `Print the document a timeline's head pointer designates, in canonical
JSON. --version prints a historical version instead; versions orphaned by
a lost pointer race are not addressable.

Example:
  cutroom --db ./cutroom.db show 0197a3c2-...
  cutroom --db ./cutroom.db show 0197a3c2-... --version 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Version, "version", 0, "show this version instead of the head")

	return cmd
}

func runShow(opts *ShowOptions, timelineID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var v *timeline.Version
	if opts.Version > 0 {
		v, err = st.GetVersion(ctx, timelineID, opts.Version)
	} else {
		v, err = st.GetLatestVersion(ctx, timelineID)
	}
	switch {
	case errors.Is(err, store.ErrTimelineNotFound):
		return WrapExitError(ExitCommandError, fmt.Sprintf("timeline %s not found", timelineID), err)
	case errors.Is(err, store.ErrVersionNotFound):
		return WrapExitError(ExitCommandError, fmt.Sprintf("timeline %s has no version %d", timelineID, opts.Version), err)
	case err != nil:
		return WrapExitError(ExitCommandError, "failed to read timeline", err)
	}

	data, err := timeline.MarshalCanonical(v.Data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to marshal document", err)
	}

	formatter.VerboseLog("version %d, source %s, created by %s at %s",
		v.Version, v.Source, v.CreatedBy, v.CreatedAt.Format("2006-01-02 15:04:05"))
	formatter.Textf("%s", data)
	return formatter.JSON(map[string]any{
		"timelineId": v.TimelineID,
		"version":    v.Version,
		"source":     v.Source,
		"createdBy":  v.CreatedBy,
		"document":   json.RawMessage(data),
	})
}
