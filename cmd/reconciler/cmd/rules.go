package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	rulePattern string
	ruleAccount string
)

// rulesCmd represents the rules command.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List or add account suggestion rules",
	Long: `List the session's account suggestion rules, or add one with
--pattern and --account. Patterns are case-insensitive regular
expressions; invalid patterns fall back to substring matching.

Example:
  reconciler rules
  reconciler rules --pattern 'pix.*cliente' --account '1.1.01 - Clientes'`,
	Run: runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulePattern, "pattern", "", "rule pattern (regex, case-insensitive)")
	rulesCmd.Flags().StringVar(&ruleAccount, "account", "", "account the rule suggests")
}

func runRules(cmd *cobra.Command, args []string) {
	session, repo, err := openSession()
	exitOnError(err, "failed to open session")
	defer repo.Close()

	if rulePattern != "" || ruleAccount != "" {
		if rulePattern == "" || ruleAccount == "" {
			exitOnError(fmt.Errorf("pattern=%q account=%q", rulePattern, ruleAccount),
				"--pattern and --account must be given together")
		}
		exitOnError(session.AddRule(rulePattern, ruleAccount), "failed to add rule")
		fmt.Printf("Added rule %q -> %s\n", rulePattern, ruleAccount)
		return
	}

	rules := session.Rules()
	if len(rules) == 0 {
		fmt.Println("No rules defined")
		return
	}
	for _, r := range rules {
		fmt.Printf("%-40q %-30s (used %d times)\n", r.Pattern, r.Account, r.UsageCount)
	}
}
