package reconcile

import "strings"

// applyRules runs the pattern pass and then the exact pass over whatever the
// pattern pass left. A bank entry claimed by one rule is never offered to a
// later rule, so the earliest declared rule wins.
func (p *pools) applyRules(rules []Rule) (int, []RuleIssue) {
	var (
		patterns []Rule
		exacts   []Rule
		issues   []RuleIssue
	)
	for idx, r := range rules {
		if err := ValidateRule(r); err != nil {
			issues = append(issues, RuleIssue{Index: idx, Rule: r, Err: err})
			continue
		}
		if r.EffectiveKind() == RulePattern {
			patterns = append(patterns, r)
		} else {
			exacts = append(exacts, r)
		}
	}

	before := len(p.pairs)
	p.applyPatternRules(patterns)
	p.applyExactRules(exacts)
	return len(p.pairs) - before, issues
}

func (p *pools) applyPatternRules(rules []Rule) {
	if len(rules) == 0 {
		return
	}
	bankPrefix := make([]string, len(rules))
	candidates := make([][]int, len(rules))
	for k, r := range rules {
		bankPrefix[k] = CanonicalDescription(r.BankSide)
		budgetPrefix := CanonicalDescription(r.BudgetSide)
		for j, used := range p.budgetUsed {
			if !used && strings.HasPrefix(p.budgetNorm[j], budgetPrefix) {
				candidates[k] = append(candidates[k], j)
			}
		}
	}

	for k := range rules {
		for i := range p.bank {
			if p.bankUsed[i] || !strings.HasPrefix(p.bankNorm[i], bankPrefix[k]) {
				continue
			}
			pos := -1
			for c, j := range candidates[k] {
				if !p.budgetUsed[j] && p.budgetAmt[j] == p.bankAmt[i] {
					pos = c
					break
				}
			}
			if pos < 0 {
				continue
			}
			p.claim(i, candidates[k][pos], StageRule)
			candidates[k] = append(candidates[k][:pos], candidates[k][pos+1:]...)
		}
	}
}

func (p *pools) applyExactRules(rules []Rule) {
	if len(rules) == 0 {
		return
	}
	byDescription := make(map[string][]int)
	for j, used := range p.budgetUsed {
		if !used {
			desc := p.budget[j].Description
			byDescription[desc] = append(byDescription[desc], j)
		}
	}

	for _, r := range rules {
		for i, e := range p.bank {
			if p.bankUsed[i] || e.Description != r.BankSide {
				continue
			}
			cands := byDescription[r.BudgetSide]
			pos := -1
			for c, j := range cands {
				if !p.budgetUsed[j] && p.budgetAmt[j] == p.bankAmt[i] {
					pos = c
					break
				}
			}
			if pos < 0 {
				continue
			}
			p.claim(i, cands[pos], StageRule)
			byDescription[r.BudgetSide] = append(cands[:pos], cands[pos+1:]...)
		}
	}
}
