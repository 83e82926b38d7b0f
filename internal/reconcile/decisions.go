package reconcile

import (
	"fmt"
	"slices"
)

func (o *Outcome) candidate(index int) (Candidate, error) {
	if index < 0 || index >= len(o.Candidates) {
		return Candidate{}, fmt.Errorf("%w: %d of %d", ErrCandidateIndex, index, len(o.Candidates))
	}
	return o.Candidates[index], nil
}

// withoutPositions drops the given input positions from both pools.
func (o *Outcome) withoutPositions(bankPos, budgetPos map[int]struct{}) Input {
	next := o.input.clone()
	next.Bank = next.Bank[:0]
	for i, e := range o.input.Bank {
		if _, drop := bankPos[i]; !drop {
			next.Bank = append(next.Bank, e)
		}
	}
	next.Budget = next.Budget[:0]
	for j, e := range o.input.Budget {
		if _, drop := budgetPos[j]; !drop {
			next.Budget = append(next.Budget, e)
		}
	}
	return next
}

// AcceptCandidate confirms a candidate. The returned input no longer holds
// either entry.
func (o *Outcome) AcceptCandidate(index int) (Input, error) {
	c, err := o.candidate(index)
	if err != nil {
		return Input{}, err
	}
	return o.withoutPositions(
		map[int]struct{}{c.bankPos: {}},
		map[int]struct{}{c.budgetPos: {}},
	), nil
}

// RejectCandidate dismisses a candidate so later runs never propose that
// pair again.
func (o *Outcome) RejectCandidate(index int) (Input, error) {
	c, err := o.candidate(index)
	if err != nil {
		return Input{}, err
	}
	next := o.input.clone()
	next.Dismissed = appendDismissal(next.Dismissed, Dismissal{BankID: c.Bank.ID, BudgetID: c.Budget.ID})
	return next, nil
}

// RejectAll dismisses every pending candidate.
func (o *Outcome) RejectAll() Input {
	next := o.input.clone()
	for _, c := range o.Candidates {
		next.Dismissed = appendDismissal(next.Dismissed, Dismissal{BankID: c.Bank.ID, BudgetID: c.Budget.ID})
	}
	return next
}

// BulkAccept confirms every candidate scoring at or above the engine's high
// confidence threshold and reports how many were taken. Two candidates that
// share a budget entry are never both taken; the lower ranked one is left for
// the next run.
func (o *Outcome) BulkAccept() (Input, int) {
	bankPos := make(map[int]struct{})
	budgetPos := make(map[int]struct{})
	for _, c := range o.Candidates {
		if c.Similarity < o.highConfidence {
			continue
		}
		if _, taken := budgetPos[c.budgetPos]; taken {
			continue
		}
		if _, taken := bankPos[c.bankPos]; taken {
			continue
		}
		bankPos[c.bankPos] = struct{}{}
		budgetPos[c.budgetPos] = struct{}{}
	}
	return o.withoutPositions(bankPos, budgetPos), len(bankPos)
}

// PromoteCandidate turns a candidate into a rule of the given kind. Pattern
// rules use the descriptions with any trailing installment counter removed;
// exact rules use the raw descriptions. The returned input carries the new
// rule and no longer holds the pair.
func (o *Outcome) PromoteCandidate(index int, kind RuleKind) (Rule, Input, error) {
	c, err := o.candidate(index)
	if err != nil {
		return Rule{}, Input{}, err
	}
	rule := Rule{Kind: RuleExact, BankSide: c.Bank.Description, BudgetSide: c.Budget.Description}
	if kind == RulePattern {
		rule = Rule{Kind: RulePattern, BankSide: ExtractPattern(c.Bank.Description), BudgetSide: ExtractPattern(c.Budget.Description)}
	}
	if err := ValidateRule(rule); err != nil {
		return Rule{}, Input{}, err
	}
	next := o.withoutPositions(
		map[int]struct{}{c.bankPos: {}},
		map[int]struct{}{c.budgetPos: {}},
	)
	if !slices.Contains(next.Rules, rule) {
		next.Rules = append(next.Rules, rule)
	}
	return rule, next, nil
}

// RemoveKey drops every entry on both sides whose exact key equals key.
func (o *Outcome) RemoveKey(key string) Input {
	return o.input.WithoutKey(key)
}

// WithoutKey returns a copy of in without entries whose exact key equals key.
func (in Input) WithoutKey(key string) Input {
	next := in.clone()
	next.Bank = slices.DeleteFunc(next.Bank, func(e BankEntry) bool {
		return ExactKey(e.Description, e.Amount) == key
	})
	next.Budget = slices.DeleteFunc(next.Budget, func(e BudgetEntry) bool {
		return ExactKey(e.Description, e.Amount) == key
	})
	return next
}

func appendDismissal(list []Dismissal, d Dismissal) []Dismissal {
	if slices.Contains(list, d) {
		return list
	}
	return append(list, d)
}
