package cli

import (
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/jaskrecon/internal/logging"
	"github.com/jask/jaskrecon/internal/service"
	"github.com/jask/jaskrecon/internal/tui"
)

type reviewOptions struct {
	bank   string
	budget string
	refine refineOptions
}

// NewReviewCommand creates the interactive review command.
func NewReviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reviewOptions{}
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review fuzzy candidates interactively",
		Long: `Open the review screen over a bank file and a budget file.

Accept or reject each candidate, promote one to a saved rule, or exclude a
leftover description from future runs. The report is printed on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank statement file (.csv or .txt)")
	cmd.Flags().StringVar(&opts.budget, "budget", "", "budget ledger CSV")
	opts.refine.bind(cmd)
	return cmd
}

func runReview(rootOpts *RootOptions, opts *reviewOptions, cmd *cobra.Command) error {
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

		// The screen owns the terminal, so session logs go to a file next to
		// the store.
		logPath := filepath.Join(filepath.Dir(e.cfg.Database.Path), "review.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return WrapExitError(ExitFailure, "open review log", err)
		}
		defer logFile.Close()
		logger, err := logging.New(e.cfg.Log, logFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "logger", err)
		}
		defer func() { _ = logger.Sync() }()

		session, err := service.NewSession(cmd.Context(), e.engine(), e.store, bank, budget, logger)
		if err != nil {
			return WrapExitError(ExitFailure, "start session", err)
		}

		app := tui.New(cmd.Context(), session, e.cfg.UI)
		p := tea.NewProgram(app,
			tea.WithContext(cmd.Context()),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
			tea.WithAltScreen(),
		)
		if _, err := p.Run(); err != nil {
			return WrapExitError(ExitFailure, "review screen", err)
		}

		report := newReport(session)
		return e.out.Success(report, func(w io.Writer) {
			report.Render(w, e.cfg.UI.CurrencySymbol)
		})
	})
}
