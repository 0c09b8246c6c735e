package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"huginn/internal/service"
)

func newIngestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ingest <archive>",
		Short:   "Ingest a local note archive",
		Example: "  huginnctl ingest ./export.tar.gz",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open archive: %w", err)
			}
			defer func() {
				_ = f.Close()
			}()

			pipeline, err := a.pipeline(ctx)
			if err != nil {
				return err
			}

			result, err := service.NewUploadService(pipeline).Upload(ctx, f)
			if err != nil {
				return err
			}
			if result.Status != service.StatusOK {
				return errors.New(result.Message)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Upload ID", "Notes", "Attachments Added", "Attachments Skipped"})
			t.AppendRow(table.Row{result.UploadID, result.NotesInserted, result.AttachmentsAdded, result.AttachmentsSkipped})
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}
