package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/checkin/internal/models"
	"github.com/joescharf/checkin/internal/output"
	"github.com/joescharf/checkin/internal/workflow"
)

var (
	submitCompletion   int
	submitBugs         int
	submitSatisfaction int
	submitComments     string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit this month's check-in without the wizard",
	Example: `  checkin submit --completion 85 --bugs 2 --satisfaction 4
  checkin submit -c 100 -b 0 -s 5 -m "Gran mes"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitRun(cmd.Context())
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Remember the email used for check-ins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return loginRun(cmd.Context(), args[0])
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the remembered email",
	RunE: func(cmd *cobra.Command, args []string) error {
		return logoutRun(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the remembered email",
	RunE: func(cmd *cobra.Command, args []string) error {
		return whoamiRun(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether this month's check-in is done",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun(cmd.Context())
	},
}

func init() {
	submitCmd.Flags().IntVarP(&submitCompletion, "completion", "c", workflow.DefaultCompletion, "Sprint completion percentage (0-100, step 5)")
	submitCmd.Flags().IntVarP(&submitBugs, "bugs", "b", 0, "Number of bugs or errors")
	submitCmd.Flags().IntVarP(&submitSatisfaction, "satisfaction", "s", 0, "Satisfaction level (1-5)")
	submitCmd.Flags().StringVarP(&submitComments, "comments", "m", "", "Optional comment")
	_ = submitCmd.MarkFlagRequired("satisfaction")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statusCmd)
}

func cmdContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func submitRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	wf, _ := newWorkflow(ctx, s)

	identity, err := requireIdentity(ctx, wf)
	if err != nil {
		return err
	}

	form := workflow.NewForm()
	form.SetCompletion(submitCompletion)
	form.SetBugs(submitBugs)
	if err := form.SetSatisfaction(submitSatisfaction); err != nil {
		return err
	}
	form.Comments = submitComments

	if dryRun {
		ui.DryRunMsg("Would submit check-in for %s: %d%%, %d bugs, %s",
			identity, form.Completion, form.Bugs, form.Satisfaction.Label())
		return nil
	}

	session, err := wf.SubmitForm(ctx, identity, form)
	if errors.Is(err, workflow.ErrAlreadyCompleted) {
		ui.Warning("Ya completaste tu check-in de %s", session.PeriodLabel)
		return nil
	}
	if err != nil {
		return err
	}

	ui.Success("Check-in de %s guardado", session.PeriodLabel)
	if !session.RemoteRecorded {
		ui.Warning("No se pudo registrar en la hoja remota; quedó guardado localmente")
	}
	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, session.Insight)
	return nil
}

func loginRun(ctx context.Context, input string) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	wf, _ := newWorkflow(ctx, s)

	if dryRun {
		if !workflow.ValidIdentity(input) {
			return workflow.ErrInvalidIdentity
		}
		ui.DryRunMsg("Would log in as %s", input)
		return nil
	}

	identity, err := wf.Login(ctx, input)
	if err != nil {
		return err
	}
	ui.Success("Logged in as %s", output.Cyan(identity))
	return nil
}

func logoutRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	wf, _ := newWorkflow(ctx, s)

	if dryRun {
		ui.DryRunMsg("Would log out")
		return nil
	}
	if err := wf.Logout(ctx); err != nil {
		return err
	}
	ui.Success("Logged out")
	return nil
}

func whoamiRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	wf, _ := newWorkflow(ctx, s)

	identity, ok, err := wf.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	if !ok {
		ui.Info("Not logged in")
		return nil
	}
	fmt.Fprintln(ui.Out, identity)
	return nil
}

func statusRun(ctx context.Context) error {
	ctx = cmdContext(ctx)
	s, err := getStore()
	if err != nil {
		return err
	}
	wf, _ := newWorkflow(ctx, s)

	identity, err := requireIdentity(ctx, wf)
	if err != nil {
		return err
	}

	period := wf.CurrentPeriod()
	done, err := wf.Completed(ctx, identity, period)
	if err != nil {
		return err
	}

	label := models.PeriodLabel(period)
	if done {
		ui.Success("%s: check-in de %s completado", identity, label)
	} else {
		ui.Info("%s: check-in de %s pendiente", identity, label)
	}
	return nil
}
