package cli

import (
	"fmt"

	"github.com/javanhut/arbor/internal/check"
	"github.com/javanhut/arbor/internal/colors"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the tree for structural problems",
	Long: `Verifies the store's indexes and reports items whose parent is missing and
parent links that form cycles. Missing parents are warnings; cycles and index
problems make the command fail.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Verify(); err != nil {
		return fmt.Errorf("index check failed: %w", err)
	}

	report := check.Forest(s.store.GetAll())
	fmt.Fprintf(out, "%d item(s), %d root(s)\n", report.Items, report.Roots)
	for _, d := range report.Dangling {
		fmt.Fprintf(out, "%s %s points at missing parent %s\n",
			colors.WarningText("warning:"), colors.ItemID(d.Item.String()), colors.ItemID(d.Parent.String()))
	}
	for _, c := range report.Cycles {
		fmt.Fprintf(out, "%s parent cycle through %v\n", colors.ErrorText("error:"), c)
	}
	for _, d := range report.Duplicates {
		fmt.Fprintf(out, "%s label %s is used by items %s\n",
			colors.ErrorText("error:"), colors.Label(d.Label), joinIDs(d.IDs))
	}
	if err := report.Err(); err != nil {
		return err
	}
	fmt.Fprintln(out, colors.SuccessText("OK"))
	return nil
}
