package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jask/jaskrecon/internal/reconcile"
	"github.com/jask/jaskrecon/internal/rules"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage saved matching rules",
	}
	cmd.AddCommand(newRulesListCommand(rootOpts))
	cmd.AddCommand(newRulesAddCommand(rootOpts))
	cmd.AddCommand(newRulesDeleteCommand(rootOpts))
	cmd.AddCommand(newRulesExportCommand(rootOpts))
	cmd.AddCommand(newRulesImportCommand(rootOpts))
	return cmd
}

func newRulesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(e *env) error {
				doc, err := e.store.Load(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "load rules", err)
				}
				if doc.Rules == nil {
					doc.Rules = []reconcile.Rule{}
				}
				return e.out.Success(doc, func(w io.Writer) {
					if len(doc.Rules) == 0 {
						fmt.Fprintln(w, "No rules saved.")
						return
					}
					for i, r := range doc.Rules {
						fmt.Fprintf(w, "%3d  %-7s  %s  ->  %s\n", i+1, r.EffectiveKind(), r.BankSide, r.BudgetSide)
					}
				})
			})
		},
	}
}

func newRulesAddCommand(rootOpts *RootOptions) *cobra.Command {
	var kind, bank, budget string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule := reconcile.Rule{Kind: reconcile.RuleKind(kind), BankSide: bank, BudgetSide: budget}
			if err := rules.Validate(rule); err != nil {
				return WrapExitError(ExitCommandError, "invalid rule", err)
			}
			return withEnv(rootOpts, cmd, func(e *env) error {
				added, err := e.store.Add(cmd.Context(), rule)
				if err != nil {
					return WrapExitError(ExitFailure, "save rule", err)
				}
				result := map[string]any{"rule": rule, "added": added}
				return e.out.Success(result, func(w io.Writer) {
					if added {
						fmt.Fprintf(w, "Saved %s\n", rule)
					} else {
						fmt.Fprintf(w, "Already saved: %s\n", rule)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(reconcile.RulePattern), "rule kind (pattern|exact)")
	cmd.Flags().StringVar(&bank, "bank", "", "bank side of the rule")
	cmd.Flags().StringVar(&budget, "budget", "", "budget side of the rule")
	return cmd
}

func newRulesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var bank, budget string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete rules with the given sides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("bank", bank); err != nil {
				return err
			}
			if err := requireFlag("budget", budget); err != nil {
				return err
			}
			return withEnv(rootOpts, cmd, func(e *env) error {
				n, err := e.store.Delete(cmd.Context(), bank, budget)
				if err != nil {
					return WrapExitError(ExitFailure, "delete rule", err)
				}
				if n == 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("no rule %q -> %q", bank, budget))
				}
				return e.out.Success(map[string]int{"deleted": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted %d rule(s)\n", n)
				})
			})
		},
	}
	cmd.Flags().StringVar(&bank, "bank", "", "bank side of the rule")
	cmd.Flags().StringVar(&budget, "budget", "", "budget side of the rule")
	return cmd
}

func newRulesExportCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the rules to <YYYYMMDD>_rules.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(e *env) error {
				name, data, err := e.store.ExportFile(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "export rules", err)
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return WrapExitError(ExitFailure, "mkdir export dir", err)
				}
				path := filepath.Join(dir, name)
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return WrapExitError(ExitFailure, "write export", err)
				}
				return e.out.Success(map[string]string{"file": path}, func(w io.Writer) {
					fmt.Fprintf(w, "Exported rules to %s\n", path)
				})
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the export into")
	return cmd
}

func newRulesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the saved rules with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read rules file", err)
			}
			return withEnv(rootOpts, cmd, func(e *env) error {
				doc, err := e.store.ImportFile(cmd.Context(), data, filepath.Base(args[0]))
				if errors.Is(err, rules.ErrInvalidPayload) {
					return WrapExitError(ExitCommandError, "import", err)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "import rules", err)
				}
				return e.out.Success(doc, func(w io.Writer) {
					fmt.Fprintf(w, "Imported %d rule(s) from %s (%s)\n", len(doc.Rules), filepath.Base(args[0]), *doc.Timestamp)
				})
			})
		},
	}
}
