package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joescharf/checkin/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an agent read the stored check-ins. Configure it with:

  {
    "mcpServers": {
      "checkin": { "command": "checkin", "args": ["mcp"] }
    }
  }

Available tools: checkin_list_reviews, checkin_period_status,
checkin_export_csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	wf, _ := newWorkflow(ctx, s)
	return mcp.NewServer(s, wf).ServeStdio(ctx)
}
