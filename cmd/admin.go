package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/checkin/internal/export"
)

var (
	adminExportDir    string
	adminExportStdout bool
)

// adminNow is the clock used for export file names, replaceable in tests.
var adminNow = time.Now

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Review and export the stored check-ins",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminListRun(cmd.Context())
	},
}

var adminListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored check-ins, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminListRun(cmd.Context())
	},
}

var adminExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored check-ins as a spreadsheet-friendly CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminExportRun(cmd.Context())
	},
}

func init() {
	adminExportCmd.Flags().StringVarP(&adminExportDir, "dir", "d", "", "Directory to write the CSV file into (default from export.dir)")
	adminExportCmd.Flags().BoolVar(&adminExportStdout, "stdout", false, "Write the CSV to stdout instead of a file")

	adminCmd.AddCommand(adminListCmd)
	adminCmd.AddCommand(adminExportCmd)
	rootCmd.AddCommand(adminCmd)
}

func adminListRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	reviews, err := s.ListReviews(ctx)
	if err != nil {
		return err
	}
	return ui.Reviews(reviews)
}

func adminExportRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	reviews, err := s.ListReviews(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, reviews); err != nil {
		return fmt.Errorf("build CSV: %w", err)
	}

	if adminExportStdout {
		_, err := ui.Out.Write(buf.Bytes())
		return err
	}

	dir := adminExportDir
	if dir == "" {
		dir = viper.GetString("export.dir")
	}
	path := filepath.Join(dir, export.Filename(adminNow()))

	if dryRun {
		ui.DryRunMsg("Would write %d check-ins to %s", len(reviews), path)
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	ui.Success("Exported %d check-ins to %s", len(reviews), path)
	return nil
}
