package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/jaskrecon/internal/service"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the store location, schema version and saved keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(e *env) error {
				m := &service.MaintenanceService{DB: e.db, Logger: e.logger}
				st, err := m.Status(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "store status", err)
				}
				result := struct {
					Path string `json:"path"`
					service.StoreStatus
				}{Path: e.cfg.Database.Path, StoreStatus: st}
				return e.out.Success(result, func(w io.Writer) {
					keys := "none"
					if len(st.Keys) > 0 {
						keys = strings.Join(st.Keys, ", ")
					}
					fmt.Fprintf(w, "Store: %s\n", result.Path)
					fmt.Fprintf(w, "Schema version: %d\n", st.SchemaVersion)
					fmt.Fprintf(w, "Keys: %s\n", keys)
				})
			})
		},
	}
}
