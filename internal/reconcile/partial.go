package reconcile

// resolvePartial splits what is left after fuzzy matching into discrepancies
// and entries whose truncated keys meet a counterpart on the other side.
// Entries that share a partial key are treated as reconciled; this can hide
// unrelated entries that share a prefix and amount.
func (p *pools) resolvePartial(prefix int) (bankGone, budgetGone []int, bankDisc, budgetDisc []int) {
	bankIdx, budgetIdx := p.unclaimedBank(), p.unclaimedBudget()

	bankKeys := make([]string, len(bankIdx))
	budgetKeys := make([]string, len(budgetIdx))
	onBank := make(map[string]struct{}, len(bankIdx))
	onBudget := make(map[string]struct{}, len(budgetIdx))
	for n, i := range bankIdx {
		bankKeys[n] = PartialKey(p.bank[i].Description, p.bank[i].Amount, prefix)
		onBank[bankKeys[n]] = struct{}{}
	}
	for n, j := range budgetIdx {
		budgetKeys[n] = PartialKey(p.budget[j].Description, p.budget[j].Amount, prefix)
		onBudget[budgetKeys[n]] = struct{}{}
	}

	for n, i := range bankIdx {
		if _, ok := onBudget[bankKeys[n]]; ok {
			bankGone = append(bankGone, i)
		} else {
			bankDisc = append(bankDisc, i)
		}
	}
	for n, j := range budgetIdx {
		if _, ok := onBank[budgetKeys[n]]; ok {
			budgetGone = append(budgetGone, j)
		} else {
			budgetDisc = append(budgetDisc, j)
		}
	}
	return bankGone, budgetGone, bankDisc, budgetDisc
}
