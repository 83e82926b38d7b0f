package reconcile

// matchExact pairs entries whose canonical keys coincide. Budget entries are
// kept in a per-key queue so N bank and M budget entries sharing a key yield
// min(N, M) pairs, consumed in input order.
func (p *pools) matchExact() int {
	queues := make(map[string][]int)
	for _, j := range p.unclaimedBudget() {
		key := p.exactKey(p.budgetNorm[j], p.budgetAmt[j])
		queues[key] = append(queues[key], j)
	}

	matched := 0
	for _, i := range p.unclaimedBank() {
		key := p.exactKey(p.bankNorm[i], p.bankAmt[i])
		q := queues[key]
		if len(q) == 0 {
			continue
		}
		p.claim(i, q[0], StageExact)
		queues[key] = q[1:]
		matched++
	}
	return matched
}
