package reconcile

// pools is the working state of one run. Entries are addressed by their
// position in the input slices; claimed flags are kept per position so that
// duplicate entries with identical fields stay distinct.
type pools struct {
	bank   []BankEntry
	budget []BudgetEntry

	bankNorm   []string
	budgetNorm []string
	bankAmt    []string
	budgetAmt  []string

	bankUsed   []bool
	budgetUsed []bool

	pairs []Pair
}

func newPools(bank []BankEntry, budget []BudgetEntry) *pools {
	p := &pools{
		bank:       bank,
		budget:     budget,
		bankNorm:   make([]string, len(bank)),
		budgetNorm: make([]string, len(budget)),
		bankAmt:    make([]string, len(bank)),
		budgetAmt:  make([]string, len(budget)),
		bankUsed:   make([]bool, len(bank)),
		budgetUsed: make([]bool, len(budget)),
	}
	for i, e := range bank {
		p.bankNorm[i] = CanonicalDescription(e.Description)
		p.bankAmt[i] = CanonicalAmount(e.Amount)
	}
	for j, e := range budget {
		p.budgetNorm[j] = CanonicalDescription(e.Description)
		p.budgetAmt[j] = CanonicalAmount(e.Amount)
	}
	return p
}

func (p *pools) claim(i, j int, stage Stage) {
	p.bankUsed[i] = true
	p.budgetUsed[j] = true
	p.pairs = append(p.pairs, Pair{Bank: p.bank[i], Budget: p.budget[j], Stage: stage})
}

func (p *pools) exactKey(norm, amt string) string {
	return norm + "_" + amt
}

func (p *pools) unclaimedBank() []int {
	out := make([]int, 0, len(p.bank))
	for i, used := range p.bankUsed {
		if !used {
			out = append(out, i)
		}
	}
	return out
}

func (p *pools) unclaimedBudget() []int {
	out := make([]int, 0, len(p.budget))
	for j, used := range p.budgetUsed {
		if !used {
			out = append(out, j)
		}
	}
	return out
}
