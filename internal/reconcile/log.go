package reconcile

import "fmt"

// LogKind identifies a log line produced by a run.
type LogKind string

const (
	LogEmptyBank          LogKind = "empty_bank"
	LogEmptyBudget        LogKind = "empty_budget"
	LogRuleSkipped        LogKind = "rules_skipped"
	LogReconciledByRule   LogKind = "reconciled_by_rule"
	LogReconciledByExact  LogKind = "reconciled_by_exact"
	LogCandidatesPending  LogKind = "candidates_pending"
	LogReconciledByPrefix LogKind = "reconciled_by_partial_key"
	LogBankDiscrepancies  LogKind = "bank_discrepancies"
	LogBudgetDiscrepancy  LogKind = "budget_discrepancies"
)

// LogEntry is one line of the human-readable run log.
type LogEntry struct {
	Kind  LogKind `json:"kind"`
	Count int     `json:"count"`
}

func (e LogEntry) String() string {
	switch e.Kind {
	case LogEmptyBank:
		return "nothing to reconcile: bank pool is empty"
	case LogEmptyBudget:
		return "nothing to reconcile: budget pool is empty"
	case LogRuleSkipped:
		return fmt.Sprintf("%d rules skipped (malformed)", e.Count)
	case LogReconciledByRule:
		return fmt.Sprintf("%d items reconciled by rule", e.Count)
	case LogReconciledByExact:
		return fmt.Sprintf("%d items reconciled by exact match", e.Count)
	case LogCandidatesPending:
		return fmt.Sprintf("%d possible matches awaiting review", e.Count)
	case LogReconciledByPrefix:
		return fmt.Sprintf("%d items reconciled by partial key", e.Count)
	case LogBankDiscrepancies:
		return fmt.Sprintf("%d bank discrepancies", e.Count)
	case LogBudgetDiscrepancy:
		return fmt.Sprintf("%d budget discrepancies", e.Count)
	}
	return fmt.Sprintf("%s: %d", e.Kind, e.Count)
}

// Messages renders the log as plain strings.
func (o *Outcome) Messages() []string {
	out := make([]string, len(o.Log))
	for i, e := range o.Log {
		out[i] = e.String()
	}
	return out
}
