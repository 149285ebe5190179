package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resetCmd represents the reset command.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the session and its persisted snapshot",
	Run:   runReset,
}

func runReset(cmd *cobra.Command, args []string) {
	session, repo, err := openSession()
	exitOnError(err, "failed to open session")
	defer repo.Close()

	exitOnError(session.Reset(), "failed to reset session")
	fmt.Printf("Session %s cleared\n", session.SessionID())
}
