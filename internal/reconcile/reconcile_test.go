package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(in Input) *Outcome {
	return NewEngine(DefaultConfig(), nil).Reconcile(in)
}

func TestReconcile_EmptyPool(t *testing.T) {
	t.Parallel()

	out := run(Input{Bank: bankPool(bankLine("UBER", "-10"))})

	require.True(t, errors.Is(out.Reason, ErrEmptyPool))
	require.Len(t, out.RemainingBank, 1)
	require.Empty(t, out.ReconciledBank)
	require.Equal(t, []string{"nothing to reconcile: budget pool is empty"}, out.Messages())

	out = run(Input{})
	require.Equal(t, []LogEntry{{Kind: LogEmptyBank}, {Kind: LogEmptyBudget}}, out.Log)
}

func TestReconcile_Multiplicity(t *testing.T) {
	t.Parallel()

	out := run(Input{
		Bank:   NewBankPool(repeatBank(bankLine("UBER", "-10.00"), 3)),
		Budget: NewBudgetPool(repeatBudget(budgetLine("UBER", "-10.00"), 2)),
	})

	require.NoError(t, out.Reason)
	require.Equal(t, 2, out.Stats.ByExact)
	require.Len(t, out.ReconciledBank, 2)
	require.Len(t, out.ReconciledBudget, 2)
	require.Empty(t, out.Candidates)
	require.Equal(t, []int{3}, bankIDs(out.DiscrepanciesBank))
	require.Equal(t, 3, out.ReconciledBank[0].Occurrences)
}

func TestReconcile_ExactBeforeFuzzy(t *testing.T) {
	t.Parallel()

	out := run(Input{
		Bank:   bankPool(bankLine("PADARIA CENTRAL", "-15.00")),
		Budget: budgetPool(budgetLine("PADARIA CENTRAL", "-15.00")),
	})

	require.Equal(t, 1, out.Stats.ByExact)
	require.Len(t, out.Pairs, 1)
	require.Empty(t, out.Candidates)
	require.Equal(t, []string{"1 items reconciled by exact match"}, out.Messages())
}

func TestReconcile_FuzzyCandidate(t *testing.T) {
	t.Parallel()

	out := run(Input{
		Bank:   bankPool(bankLine("PADARIA CENTRAL", "-15.00")),
		Budget: budgetPool(budgetLine("Padaria Central Compras", "-15.00")),
	})

	require.True(t, out.Pending())
	require.Len(t, out.Candidates, 1)
	require.Greater(t, out.Candidates[0].Similarity, 0.3)
	require.Len(t, out.RemainingBank, 1)
	require.Len(t, out.RemainingBudget, 1)
	require.Empty(t, out.DiscrepanciesBank)
	require.Empty(t, out.DiscrepanciesBudget)
	require.Equal(t, []LogEntry{{Kind: LogCandidatesPending, Count: 1}}, out.Log)
}

func TestReconcile_PatternRule(t *testing.T) {
	t.Parallel()

	out := run(Input{
		Bank:   bankPool(bankLine("NETFLIX.COM 09/25", "-39.90")),
		Budget: budgetPool(budgetLine("Assinatura Netflix Mensal", "-39.90")),
		Rules:  []Rule{{Kind: RulePattern, BankSide: "NETFLIX", BudgetSide: "Assinatura Netflix"}},
	})

	require.Equal(t, 1, out.Stats.ByRule)
	require.Zero(t, out.Stats.ByExact)
	require.Empty(t, out.Candidates)
	require.Equal(t, StageRule, out.Pairs[0].Stage)
	require.Equal(t, []string{"1 items reconciled by rule"}, out.Messages())
}

func TestReconcile_PartialAfterDismissal(t *testing.T) {
	t.Parallel()

	// The installment counters differ by one character, so the pair is
	// first offered as a candidate.
	in := Input{
		Bank:   bankPool(bankLine("LOJA XYZ (1/3)", "-100.00")),
		Budget: budgetPool(budgetLine("LOJA XYZ (2/3)", "-100.00")),
	}
	out := run(in)
	require.Len(t, out.Candidates, 1)

	next, err := out.RejectCandidate(0)
	require.NoError(t, err)
	out = run(next)

	require.Empty(t, out.Candidates)
	require.Empty(t, out.DiscrepanciesBank)
	require.Empty(t, out.DiscrepanciesBudget)
	require.Len(t, out.ReconciledBank, 1)
	require.Len(t, out.ReconciledBudget, 1)
	require.Equal(t, 1, out.Stats.BankByPartial)
	require.Equal(t, 1, out.Stats.BudgetByPartial)
	require.Equal(t, []string{"2 items reconciled by partial key"}, out.Messages())
}

func TestReconcile_PartialBelowNoiseFloor(t *testing.T) {
	t.Parallel()

	out := run(Input{
		Bank:   bankPool(bankLine("LOJA XYZ", "-100.00")),
		Budget: budgetPool(budgetLine("LOJA XYZ PARCELA FINAL REF 2025", "-100.00")),
	})

	require.Empty(t, out.Candidates)
	require.Empty(t, out.DiscrepanciesBank)
	require.Empty(t, out.DiscrepanciesBudget)
	require.Empty(t, out.RemainingBank)
	require.Len(t, out.ReconciledBank, 1)
	require.Empty(t, out.Pairs)
}

func TestReconcile_Discrepancies(t *testing.T) {
	t.Parallel()

	out := run(Input{
		Bank: bankPool(
			bankLine("ALUGUEL", "-1500"),
			bankLine("TARIFA BANCARIA", "-12.90"),
		),
		Budget: budgetPool(
			budgetLine("Aluguel", "-1500"),
			budgetLine("Presente aniversario", "-80"),
		),
	})

	require.Equal(t, 1, out.Stats.ByExact)
	require.Equal(t, []int{2}, bankIDs(out.DiscrepanciesBank))
	require.Equal(t, []int{2}, budgetIDs(out.DiscrepanciesBudget))
	require.Equal(t, []string{
		"1 items reconciled by exact match",
		"1 bank discrepancies",
		"1 budget discrepancies",
	}, out.Messages())
}

func TestReconcile_SkippedRulesReported(t *testing.T) {
	t.Parallel()

	out := run(Input{
		Bank:   bankPool(bankLine("ALUGUEL", "-1500")),
		Budget: budgetPool(budgetLine("Aluguel", "-1500")),
		Rules:  []Rule{{Kind: RulePattern, BudgetSide: "Aluguel"}},
	})

	require.Len(t, out.SkippedRules, 1)
	require.Equal(t, LogEntry{Kind: LogRuleSkipped, Count: 1}, out.Log[0])
	require.Equal(t, 1, out.Stats.ByExact)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	bank := bankPool(bankLine("UBER", "-10"), bankLine("PADARIA CENTRAL", "-15"))
	budget := budgetPool(budgetLine("UBER", "-10"), budgetLine("Padaria Central Compras", "-15"))
	rules := []Rule{{BankSide: "X", BudgetSide: "Y"}}
	in := Input{Bank: bank, Budget: budget, Rules: rules}

	out := run(in)
	out.ReconciledBank[0].Description = "changed"
	_, err := out.AcceptCandidate(0)
	require.NoError(t, err)

	require.Equal(t, "UBER", bank[0].Description)
	require.Len(t, in.Bank, 2)
	require.Equal(t, in, out.Input())
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	cfg := NewEngine(Config{}, nil).Config()
	require.Equal(t, DefaultConfig(), cfg)

	cfg = NewEngine(Config{NoiseFloor: 0.5, Workers: 3}, nil).Config()
	require.Equal(t, 0.5, cfg.NoiseFloor)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, 8, cfg.PartialPrefix)
}
