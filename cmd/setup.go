package cmd

import (
	"fmt"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/setup"
	"github.com/bnema/monitor-switch/internal/ui"
	"github.com/spf13/cobra"
)

// newChecker builds the host checker. Tests replace it.
var newChecker = func() *setup.Checker {
	return setup.NewChecker(config.Get().DDC.DdcutilPath)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check that this machine can talk DDC/CI",
	Long: `Check that ddcutil is installed, the i2c-dev kernel module is loaded
and the current user can open the /dev/i2c-* nodes, with hints for
anything that is missing.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.FormatSetupHeader("monitor-switch setup"))

	report := newChecker().Run()

	var hints []string
	for _, res := range report.Results {
		fmt.Fprintln(out, ui.FormatCheck(res.Status.String(), res.Name, res.Detail))
		if res.Status != setup.StatusOK && res.Hint != "" {
			hints = append(hints, res.Hint)
		}
	}
	fmt.Fprintln(out)

	if len(hints) > 0 {
		fmt.Fprintln(out, ui.FormatNextStepsHeader())
		for i, hint := range hints {
			fmt.Fprintln(out, ui.FormatActionItem(i+1, hint))
		}
		fmt.Fprintln(out)
	}

	if !report.OK() {
		return fmt.Errorf("host is not ready for DDC/CI")
	}
	fmt.Fprintln(out, ui.SuccessStyle.Render(ui.IconSuccess+" Ready. Try: monitor-switch list"))
	return nil
}
