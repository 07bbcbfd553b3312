package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <timeline-id>",
		Short: "List a timeline's version history",
		Long: `List every version of a timeline, oldest first, including versions the
head pointer no longer designates. Documents are not loaded; this is
metadata only.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runHistory(opts *RootOptions, timelineID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	versions, err := st.ListVersions(cmd.Context(), timelineID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list versions", err)
	}
	if len(versions) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("timeline %s not found", timelineID))
	}

	type entry struct {
		Version   int64  `json:"version"`
		Source    string `json:"source"`
		CreatedBy string `json:"createdBy"`
		CreatedAt string `json:"createdAt"`
	}
	entries := make([]entry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, entry{
			Version:   v.Version,
			Source:    string(v.Source),
			CreatedBy: v.CreatedBy,
			CreatedAt: v.CreatedAt.Format("2006-01-02 15:04:05"),
		})
		formatter.Textf("v%-4d %-9s %-20s %s",
			v.Version, v.Source, v.CreatedBy, v.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return formatter.JSON(map[string]any{
		"timelineId": timelineID,
		"versions":   entries,
	})
}
