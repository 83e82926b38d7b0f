package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchExact_Multiplicity(t *testing.T) {
	t.Parallel()

	p := newPools(
		NewBankPool(repeatBank(bankLine("UBER", "-10.00"), 3)),
		NewBudgetPool(repeatBudget(budgetLine("UBER", "-10.00"), 2)),
	)

	require.Equal(t, 2, p.matchExact())
	require.Equal(t, []bool{true, true, false}, p.bankUsed)
	require.Equal(t, []bool{true, true}, p.budgetUsed)
	require.Equal(t, 1, p.pairs[0].Bank.ID)
	require.Equal(t, 1, p.pairs[0].Budget.ID)
	require.Equal(t, 2, p.pairs[1].Bank.ID)
	require.Equal(t, 2, p.pairs[1].Budget.ID)
}

func TestMatchExact_CanonicalForms(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(
			bankLine("Farmácia São João", "-42.5"),
			bankLine("POSTO  IPIRANGA", "-200"),
		),
		budgetPool(
			budgetLine("FARMACIA SAO JOAO", "-42.50"),
			budgetLine("posto ipiranga.", "-200.001"),
		),
	)

	require.Equal(t, 2, p.matchExact())
	for _, pair := range p.pairs {
		require.Equal(t, StageExact, pair.Stage)
	}
}

func TestMatchExact_SkipsClaimed(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(bankLine("ALUGUEL", "-1500"), bankLine("ALUGUEL", "-1500")),
		budgetPool(budgetLine("ALUGUEL", "-1500"), budgetLine("ALUGUEL", "-1500")),
	)
	p.claim(0, 1, StageRule)

	require.Equal(t, 1, p.matchExact())
	require.Equal(t, 2, p.pairs[1].Bank.ID)
	require.Equal(t, 1, p.pairs[1].Budget.ID)
}

func TestMatchExact_AmountMustAgree(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(bankLine("SPOTIFY", "-21.90")),
		budgetPool(budgetLine("SPOTIFY", "-19.90")),
	)
	require.Zero(t, p.matchExact())
}
