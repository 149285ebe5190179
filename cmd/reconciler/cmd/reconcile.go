package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/matcher"
)

var (
	toleranceDays  int
	toleranceValue float64
)

// reconcileCmd represents the reconcile command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match bank transactions against ledger entries",
	Long: `Run the matching engine over the session. Four passes run in order:
exact (same value, same day), tolerance (same value, nearby day),
fuzzy (similar description and value) and group (N:N sums).

Re-running replaces the previous result; matches never accumulate
across runs.

Example:
  reconciler reconcile --tolerance-days 3 --tolerance-value 0.01`,
	Run: runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVar(&toleranceDays, "tolerance-days", matcher.DefaultTolerance.Days, "maximum day distance for tolerance matches")
	reconcileCmd.Flags().Float64Var(&toleranceValue, "tolerance-value", matcher.DefaultTolerance.Value, "maximum value difference for group matches")
}

func runReconcile(cmd *cobra.Command, args []string) {
	if toleranceDays < 0 || toleranceValue < 0 {
		exitOnError(fmt.Errorf("days=%d value=%.2f", toleranceDays, toleranceValue), "tolerances must not be negative")
	}

	session, repo, err := openSession()
	exitOnError(err, "failed to open session")
	defer repo.Close()

	report, err := session.Reconcile(matcher.Tolerance{
		Days:  toleranceDays,
		Value: toleranceValue,
	})
	exitOnError(err, "reconciliation failed")

	fmt.Println("\n=== Reconciliation Report ===")
	fmt.Printf("Bank transactions:  %d (%d matched, %d pending)\n",
		report.BankCount, report.MatchedBank, report.PendingBank)
	fmt.Printf("Ledger entries:     %d (%d matched, %d unmatched)\n",
		report.LedgerCount, report.MatchedLedger, report.UnmatchedLedger)
	fmt.Printf("Exact matches:      %d\n", len(report.Exact))
	fmt.Printf("Tolerance matches:  %d\n", len(report.Tolerance))
	fmt.Printf("Fuzzy matches:      %d\n", len(report.Fuzzy))
	fmt.Printf("Group matches:      %d\n", len(report.Groups))
	fmt.Println()
}
