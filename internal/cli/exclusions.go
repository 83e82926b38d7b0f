package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewExclusionsCommand creates the exclusions command group. Excluded
// descriptions are dropped from both files before matching.
func NewExclusionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclusions",
		Short: "Manage descriptions ignored by every run",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List excluded descriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(e *env) error {
				list, err := e.store.Exclusions(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "load exclusions", err)
				}
				if list == nil {
					list = []string{}
				}
				return e.out.Success(list, func(w io.Writer) {
					if len(list) == 0 {
						fmt.Fprintln(w, "No exclusions.")
						return
					}
					for _, d := range list {
						fmt.Fprintln(w, d)
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add DESCRIPTION",
		Short: "Exclude a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("description", args[0]); err != nil {
				return err
			}
			return withEnv(rootOpts, cmd, func(e *env) error {
				added, err := e.store.AddExclusion(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "add exclusion", err)
				}
				return e.out.Success(map[string]bool{"added": added}, func(w io.Writer) {
					if added {
						fmt.Fprintf(w, "Excluded %q\n", args[0])
					} else {
						fmt.Fprintf(w, "Already excluded: %q\n", args[0])
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete DESCRIPTION",
		Short: "Stop excluding a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(e *env) error {
				removed, err := e.store.DeleteExclusion(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "delete exclusion", err)
				}
				if !removed {
					return NewExitError(ExitFailure, fmt.Sprintf("%q is not excluded", args[0]))
				}
				return e.out.Success(map[string]bool{"removed": true}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed exclusion %q\n", args[0])
				})
			})
		},
	})

	return cmd
}
