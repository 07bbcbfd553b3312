package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haldane/cutroom/internal/assets"
)

// AssetOptions holds flags for the asset add command.
type AssetOptions struct {
	*RootOptions
	Status string
}

// NewAssetCommand creates the asset command group.
func NewAssetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage project assets",
	}

	cmd.AddCommand(newAssetAddCommand(rootOpts))

	return cmd
}

func newAssetAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <project-id> <asset-id>",
		Short: "Register or update an asset",
		Long: `Register an asset in a project, or update its status. Only uploaded
assets may be referenced by media clips.

Example:
  cutroom --db ./cutroom.db asset add proj-42 asset-7 --status uploaded`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetAdd(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", string(assets.StatusUploaded), "asset status (pending|uploading|uploaded|failed)")

	return cmd
}

func runAssetAdd(opts *AssetOptions, projectID, assetID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	status := assets.Status(opts.Status)
	if !assets.ValidStatuses[status] {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q", opts.Status))
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.PutAsset(cmd.Context(), projectID, assetID, status); err != nil {
		return WrapExitError(ExitCommandError, "failed to store asset", err)
	}

	formatter.Textf("Asset %s in project %s is now %s", assetID, projectID, status)
	return formatter.JSON(map[string]any{
		"projectId": projectID,
		"assetId":   assetID,
		"status":    status,
	})
}
