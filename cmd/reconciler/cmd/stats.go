package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display session statistics",
	Long: `Display statistics for the current session: record counts, match
progress and totals on both sides.

Example:
  reconciler stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	session, repo, err := openSession()
	exitOnError(err, "failed to open session")
	defer repo.Close()

	m := session.Metrics()

	fmt.Println("\n=== Session Statistics ===")
	fmt.Printf("Session:            %s\n", session.SessionID())
	fmt.Printf("Bank transactions:  %d (%d matched, %d pending)\n", m.Transactions, m.Matched, m.Pending)
	fmt.Printf("Ledger entries:     %d (%d matched)\n", m.LedgerEntries, m.LedgerMatched)
	fmt.Printf("Bank total:         %.2f\n", m.BankTotal)
	fmt.Printf("Ledger total:       %.2f\n", m.LedgerTotal)
	fmt.Println()
}
