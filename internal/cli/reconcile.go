package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/jaskrecon/internal/reconcile"
	"github.com/jask/jaskrecon/internal/service"
)

type reconcileOptions struct {
	bank             string
	budget           string
	autoAccept       bool
	discrepanciesOut string
	refinedOut       string
	refine           refineOptions
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reconcileOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the matching pipeline and print a report",
		Long: `Run rules, exact matching, fuzzy candidate search and partial-key
resolution over a bank file and a budget file.

The bank file is CSV (date, description, amount) or, with a .txt extension,
text pasted from a card statement. The budget file is CSV with a description
and an amount column.

--since drops bank entries dated before a day and --post-date moves every
kept entry to one posting day. --refined-out writes the bank entries that
went into the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank statement file (.csv or .txt)")
	cmd.Flags().StringVar(&opts.budget, "budget", "", "budget ledger CSV")
	cmd.Flags().BoolVar(&opts.autoAccept, "auto-accept", false, "accept every high-confidence candidate")
	cmd.Flags().StringVar(&opts.discrepanciesOut, "discrepancies-out", "", "write discrepancy CSVs to this directory")
	cmd.Flags().StringVar(&opts.refinedOut, "refined-out", "", "write the refined bank entries to this CSV file")
	opts.refine.bind(cmd)
	return cmd
}

func runReconcile(rootOpts *RootOptions, opts *reconcileOptions, cmd *cobra.Command) error {
	if err := requireFlag("bank", opts.bank); err != nil {
		return err
	}
	if err := requireFlag("budget", opts.budget); err != nil {
		return err
	}
	if err := opts.refine.parse(); err != nil {
		return err
	}
	return withEnv(rootOpts, cmd, func(e *env) error {
		bank, budget, err := e.loadPools(opts.bank, opts.budget)
		if err != nil {
			return err
		}
		if bank, err = e.refine(bank, &opts.refine); err != nil {
			return err
		}
		var files []string
		if opts.refinedOut != "" {
			if err := writeRefined(opts.refinedOut, bank); err != nil {
				return WrapExitError(ExitFailure, "write refined bank entries", err)
			}
			files = append(files, opts.refinedOut)
		}

		session, err := service.NewSession(cmd.Context(), e.engine(), e.store, bank, budget, e.logger)
		if err != nil {
			return WrapExitError(ExitFailure, "start session", err)
		}
		if opts.autoAccept {
			total := 0
			for n := session.BulkAccept(); n > 0; n = session.BulkAccept() {
				total += n
			}
			e.out.VerboseLog("auto-accepted %d candidates", total)
		}

		report := newReport(session)
		if opts.discrepanciesOut != "" {
			written, err := writeDiscrepancies(opts.discrepanciesOut, session.Outcome())
			if err != nil {
				return WrapExitError(ExitFailure, "write discrepancies", err)
			}
			files = append(files, written...)
		}
		if len(files) > 0 {
			report.Files = files
			e.logger.Info("files written", zap.Strings("files", files))
		}
		return e.out.Success(report, func(w io.Writer) {
			report.Render(w, e.cfg.UI.CurrencySymbol)
		})
	})
}

func writeDiscrepancies(dir string, out *reconcile.Outcome) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	bankPath := filepath.Join(dir, service.BankDiscrepanciesFile)
	budgetPath := filepath.Join(dir, service.BudgetDiscrepanciesFile)

	if err := writeFile(bankPath, func(w io.Writer) error {
		return service.WriteBankCSV(w, out.DiscrepanciesBank)
	}); err != nil {
		return nil, err
	}
	if err := writeFile(budgetPath, func(w io.Writer) error {
		return service.WriteBudgetCSV(w, out.DiscrepanciesBudget)
	}); err != nil {
		return nil, err
	}
	return []string{bankPath, budgetPath}, nil
}

// writeRefined writes the bank pool as a CSV that LoadBankCSV reads back.
func writeRefined(path string, bank []reconcile.BankEntry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return writeFile(path, func(w io.Writer) error {
		return service.WriteBankCSV(w, bank)
	})
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Report is the summary printed after a run.
type Report struct {
	Session             string                  `json:"session"`
	Stats               reconcile.Stats         `json:"stats"`
	Messages            []string                `json:"messages"`
	Accepted            []reconcile.Pair        `json:"accepted"`
	Candidates          []reconcile.Candidate   `json:"candidates"`
	DiscrepanciesBank   []reconcile.BankEntry   `json:"discrepanciesBank"`
	DiscrepanciesBudget []reconcile.BudgetEntry `json:"discrepanciesBudget"`
	Excluded            int                     `json:"excluded"`
	SkippedRules        int                     `json:"skippedRules"`
	Files               []string                `json:"files,omitempty"`
}

func newReport(s *service.Session) Report {
	out := s.Outcome()
	return Report{
		Session:             s.ID.String(),
		Stats:               out.Stats,
		Messages:            out.Messages(),
		Accepted:            s.Accepted(),
		Candidates:          out.Candidates,
		DiscrepanciesBank:   out.DiscrepanciesBank,
		DiscrepanciesBudget: out.DiscrepanciesBudget,
		Excluded:            s.Excluded(),
		SkippedRules:        len(out.SkippedRules),
	}
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Render writes the human-readable report.
func (r Report) Render(w io.Writer, currency string) {
	money := func(d decimal.Decimal) string { return currency + " " + d.StringFixed(2) }

	fmt.Fprintln(w, headingStyle.Render("Reconciliation"))
	for _, m := range r.Messages {
		fmt.Fprintln(w, "  "+m)
	}
	if len(r.Accepted) > 0 {
		fmt.Fprintf(w, "  %d candidates accepted\n", len(r.Accepted))
	}
	if r.Excluded > 0 {
		fmt.Fprintf(w, "  %d entries excluded\n", r.Excluded)
	}

	if len(r.Candidates) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Candidates (%d)", len(r.Candidates))))
		for _, c := range r.Candidates {
			fmt.Fprintf(w, "  %.2f  %s  ->  %s  %s\n", c.Similarity, c.Bank.Description, c.Budget.Description, money(c.Bank.Amount))
		}
		fmt.Fprintln(w, mutedStyle.Render("  run `jaskrecon review` to decide them"))
	}

	if len(r.DiscrepanciesBank) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Bank only (%d)", len(r.DiscrepanciesBank))))
		for _, e := range r.DiscrepanciesBank {
			fmt.Fprintf(w, "  %s  %s  %s\n", e.Date, e.Description, money(e.Amount))
		}
	}
	if len(r.DiscrepanciesBudget) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Budget only (%d)", len(r.DiscrepanciesBudget))))
		for _, e := range r.DiscrepanciesBudget {
			fmt.Fprintf(w, "  %s  %s\n", e.Description, money(e.Amount))
		}
	}

	for _, f := range r.Files {
		fmt.Fprintln(w, mutedStyle.Render("wrote "+f))
	}
}
