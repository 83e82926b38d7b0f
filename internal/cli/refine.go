package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/jaskrecon/internal/reconcile"
	"github.com/jask/jaskrecon/internal/service"
)

// dayLayouts are the accepted forms of --since and --post-date.
var dayLayouts = []string{"2006-01-02", service.BankDateLayout}

// refineOptions narrows the bank pool before matching.
type refineOptions struct {
	since    string
	postDate string

	sinceDay time.Time
	postDay  time.Time
}

func (o *refineOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.since, "since", "", "drop bank entries dated before this day (YYYY-MM-DD or DD/MM/YYYY)")
	cmd.Flags().StringVar(&o.postDate, "post-date", "", "rewrite the date of every kept bank entry (needs --since)")
}

func (o *refineOptions) enabled() bool { return o.since != "" }

// parse checks the flags before any file or store is opened.
func (o *refineOptions) parse() error {
	if o.postDate != "" && o.since == "" {
		return NewExitError(ExitCommandError, "--post-date needs --since")
	}
	var err error
	if o.since != "" {
		if o.sinceDay, err = parseDay("since", o.since); err != nil {
			return err
		}
	}
	if o.postDate != "" {
		if o.postDay, err = parseDay("post-date", o.postDate); err != nil {
			return err
		}
	}
	return nil
}

func parseDay(flag, value string) (time.Time, error) {
	for _, layout := range dayLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d, nil
		}
	}
	return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("--%s: %q is not a date (YYYY-MM-DD or DD/MM/YYYY)", flag, value))
}

// refine applies the parsed options to the bank pool. It is a no-op without --since.
func (e *env) refine(bank []reconcile.BankEntry, o *refineOptions) ([]reconcile.BankEntry, error) {
	if !o.enabled() {
		return bank, nil
	}
	ingest := &service.IngestService{Logger: e.logger}
	kept, res, err := ingest.Refine(bank, o.sinceDay, o.postDay)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "refine bank entries", err)
	}
	e.reportIngest("refine", res)
	return kept, nil
}
