package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOut     string
	exportArchive bool
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session as CSV or a JSON archive",
	Long: `Export the session transactions as a semicolon-delimited CSV, or the
whole session (transactions, ledger, rules, accounts and metrics) as
a JSON archive that can be imported back later.

Example:
  reconciler export --out conciliacao.csv
  reconciler export --archive --out sessao.json`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "export the full session archive as JSON")
}

func runExport(cmd *cobra.Command, args []string) {
	session, repo, err := openSession()
	exitOnError(err, "failed to open session")
	defer repo.Close()

	var data []byte
	if exportArchive {
		data, err = session.ExportArchive()
		exitOnError(err, "failed to build archive")
	} else {
		data = session.ExportCSV()
	}

	if exportOut == "" {
		os.Stdout.Write(data)
		return
	}
	exitOnError(os.WriteFile(exportOut, data, 0o644), "failed to write "+exportOut)
	fmt.Printf("Wrote %s\n", exportOut)
}
