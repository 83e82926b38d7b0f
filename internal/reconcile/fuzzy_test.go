package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1.0, Similarity("PADARIA", "PADARIA"))
	require.Equal(t, 1.0, Similarity("", ""))
	require.Equal(t, 0.0, Similarity("", "PADARIA"))
	require.Equal(t, 0.0, Similarity("PADARIA", ""))
	require.InDelta(t, 1-8.0/23.0, Similarity("PADARIA CENTRAL", "PADARIA CENTRAL COMPRAS"), 1e-9)
	require.InDelta(t, 0.75, Similarity("ABCD", "ABCX"), 1e-9)
	// Accented runes count once.
	require.InDelta(t, 0.75, Similarity("CAFÉ", "CAFE"), 1e-9)
}

func TestFindCandidates_Basic(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(bankLine("PADARIA CENTRAL", "-15.00")),
		budgetPool(budgetLine("Padaria Central Compras", "-15.00")),
	)
	got := p.findCandidates(DefaultConfig(), nil)

	require.Len(t, got, 1)
	require.Greater(t, got[0].Similarity, 0.3)
	require.Equal(t, "Padaria Central Compras", got[0].Budget.Description)
	require.Equal(t, 0, got[0].bankPos)
	require.Equal(t, 0, got[0].budgetPos)
}

func TestFindCandidates_OnlyEqualAmounts(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(bankLine("PADARIA CENTRAL", "-15.00")),
		budgetPool(budgetLine("PADARIA CENTRAL COMPRAS", "-15.01")),
	)
	require.Empty(t, p.findCandidates(DefaultConfig(), nil))
}

func TestFindCandidates_NoiseFloor(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(bankLine("ABCD", "-5")),
		budgetPool(budgetLine("WXYZ", "-5")),
	)
	require.Empty(t, p.findCandidates(DefaultConfig(), nil))

	cfg := DefaultConfig()
	cfg.NoiseFloor = 0.8
	p = newPools(
		bankPool(bankLine("ABCD", "-5")),
		budgetPool(budgetLine("ABCX", "-5")),
	)
	require.Empty(t, p.findCandidates(cfg, nil))
}

func TestFindCandidates_BestPerBankFirstSeenOnTie(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(bankLine("ABCD", "-5")),
		budgetPool(
			budgetLine("ABXY", "-5"),
			budgetLine("ABCX", "-5"),
			budgetLine("ABCY", "-5"),
		),
	)
	got := p.findCandidates(DefaultConfig(), nil)

	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].Budget.ID)
}

func TestFindCandidates_SortedStable(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(
			bankLine("ABCE", "-5"),
			bankLine("SUPERMERCADO DIA", "-10"),
			bankLine("ABCD", "-5"),
		),
		budgetPool(
			budgetLine("ABCX", "-5"),
			budgetLine("SUPERMERCADO DIAS", "-10"),
		),
	)
	got := p.findCandidates(DefaultConfig(), nil)

	require.Len(t, got, 3)
	require.Equal(t, []int{2, 1, 3}, []int{got[0].Bank.ID, got[1].Bank.ID, got[2].Bank.ID})
	// Two bank entries may share a proposed budget entry.
	require.Equal(t, got[1].Budget.ID, got[2].Budget.ID)
}

func TestFindCandidates_Dismissed(t *testing.T) {
	t.Parallel()

	p := newPools(
		bankPool(bankLine("ABCD", "-5")),
		budgetPool(
			budgetLine("ABCX", "-5"),
			budgetLine("ABXY", "-5"),
		),
	)
	dismissed := map[Dismissal]struct{}{{BankID: 1, BudgetID: 1}: {}}
	got := p.findCandidates(DefaultConfig(), dismissed)

	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].Budget.ID)

	dismissed[Dismissal{BankID: 1, BudgetID: 2}] = struct{}{}
	require.Empty(t, p.findCandidates(DefaultConfig(), dismissed))
}

func TestFindCandidates_WorkersMatchSequential(t *testing.T) {
	t.Parallel()

	var bank []BankEntry
	var budget []BudgetEntry
	names := []string{"PADARIA CENTRAL", "POSTO IPIRANGA", "UBER TRIP", "FARMACIA SAO JOAO", "LOJA XYZ"}
	for i := 0; i < 40; i++ {
		name := names[i%len(names)]
		amount := []string{"-10", "-20", "-30"}[i%3]
		bank = append(bank, bankLine(name+" "+string(rune('A'+i%26)), amount))
		budget = append(budget, budgetLine("Pgto "+name, amount))
	}
	seq := newPools(NewBankPool(bank), NewBudgetPool(budget)).findCandidates(DefaultConfig(), nil)

	cfg := DefaultConfig()
	cfg.Workers = 4
	par := newPools(NewBankPool(bank), NewBudgetPool(budget)).findCandidates(cfg, nil)

	require.NotEmpty(t, seq)
	require.Equal(t, seq, par)
}
