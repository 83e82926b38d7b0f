package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jask/jaskrecon/internal/service"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every saved rule and exclusion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "reset deletes all rules and exclusions; pass --yes to confirm")
			}
			return withEnv(rootOpts, cmd, func(e *env) error {
				m := &service.MaintenanceService{DB: e.db, Logger: e.logger}
				n, err := m.Reset(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "reset", err)
				}
				return e.out.Success(map[string]int64{"removedKeys": n}, func(w io.Writer) {
					fmt.Fprintln(w, "Store reset.")
				})
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
