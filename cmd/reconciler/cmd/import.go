package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ademirvarjao/conciliador-bancario/internal/application/service"
)

var (
	importLedger   bool
	importAccounts bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import bank statements, a ledger or an account plan",
	Long: `Import one or more bank statement files into the session. Formats are
detected per file: CSV (comma, semicolon or tab delimited), OFX/QFX,
JSON arrays and plain text statements all work.

With --ledger the file is imported as the accounting ledger instead;
with --accounts it is imported as the chart of accounts.

Example:
  reconciler import extrato-jan.csv extrato-fev.ofx
  reconciler import --ledger razao.csv
  reconciler import --accounts plano-de-contas.csv`,
	Args: cobra.MinimumNArgs(1),
	Run:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importLedger, "ledger", false, "import as accounting ledger")
	importCmd.Flags().BoolVar(&importAccounts, "accounts", false, "import as chart of accounts")
}

func runImport(cmd *cobra.Command, args []string) {
	session, repo, err := openSession()
	exitOnError(err, "failed to open session")
	defer repo.Close()

	if importLedger {
		if len(args) != 1 {
			exitOnError(fmt.Errorf("got %d files", len(args)), "--ledger takes exactly one file")
		}
		content, err := os.ReadFile(args[0])
		exitOnError(err, "failed to read ledger file")

		count, err := session.ImportLedger(content)
		exitOnError(err, "failed to import ledger")

		fmt.Printf("Imported %d ledger entries\n", count)
		return
	}

	if importAccounts {
		if len(args) != 1 {
			exitOnError(fmt.Errorf("got %d files", len(args)), "--accounts takes exactly one file")
		}
		content, err := os.ReadFile(args[0])
		exitOnError(err, "failed to read accounts file")

		count, err := session.ImportAccounts(content)
		exitOnError(err, "failed to import accounts")

		fmt.Printf("Imported %d accounts\n", count)
		return
	}

	files := make([]service.File, 0, len(args))
	for _, path := range args {
		content, err := os.ReadFile(path)
		exitOnError(err, "failed to read "+path)
		files = append(files, service.File{Name: filepath.Base(path), Content: content})
	}

	summary, err := session.ImportFiles(files)
	exitOnError(err, "import failed")

	fmt.Printf("Imported %d transactions", summary.Imported)
	if summary.Ignored > 0 {
		fmt.Printf(" (%d ignored past the record ceiling)", summary.Ignored)
	}
	fmt.Println()
	for _, f := range summary.Failures {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", f.File, f.Reason)
	}
	if len(summary.Failures) > 0 && summary.Imported == 0 {
		os.Exit(1)
	}

	slog.Info("import finished", "imported", summary.Imported, "ignored", summary.Ignored, "failures", len(summary.Failures))
}
