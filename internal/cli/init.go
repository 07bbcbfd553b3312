package cli

import (
	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	FPS int
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <project-id>",
		Short: "Create a timeline with the seed document",
		Long: `Create a new timeline for a project.

The timeline starts at version 1 with the seed document: one empty video
track and one empty subtitle track.

Example:
  cutroom --db ./cutroom.db init proj-42 --fps 30`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.FPS, "fps", 30, "frames per second of the seed document")

	return cmd
}

func runInit(opts *InitOptions, projectID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	tl, err := st.CreateTimeline(cmd.Context(), projectID, opts.FPS)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create timeline", err)
	}

	formatter.Textf("Created timeline %s (project %s) at version %d", tl.ID, tl.ProjectID, tl.LatestVersion)
	return formatter.JSON(map[string]any{
		"timelineId": tl.ID,
		"projectId":  tl.ProjectID,
		"version":    tl.LatestVersion,
	})
}
