package cmd

import (
	"fmt"

	"bugsync/core/storage"
	"bugsync/feature/bug"
	"bugsync/feature/mirror"

	"github.com/spf13/cobra"
)

// mirrorCmd copies the attachments of bugs into the storage bucket.
var mirrorCmd = &cobra.Command{
	Use:   "mirror <bug-id>...",
	Short: "Mirror bug attachments into object storage",
	Long: `Uploads the attachments of the given bugs to the configured S3 compatible
bucket under bugs/<bug id>/<attachment id>/<file name>. Attachments already
mirrored are skipped and obsolete ones are removed from the bucket.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		client, err := storage.NewClient(s.cfg.Storage)
		if err != nil {
			return err
		}

		var atts []*bug.Attachment
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			b, err := stub(id)
			if err != nil {
				return err
			}
			list, err := s.ctrl.Attachments(cmd.Context(), b)
			if err != nil {
				return fmt.Errorf("failed to list attachments of bug %d: %w", id, err)
			}
			atts = append(atts, list...)
		}

		report, err := mirror.NewService(client, s.cfg.Storage.Bucket, s.logger).Mirror(cmd.Context(), atts)
		if err != nil {
			return err
		}
		if err := printResult(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d attachments failed to mirror", len(report.Failed))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(mirrorCmd)
}
