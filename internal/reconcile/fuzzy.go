package reconcile

import (
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/errgroup"
)

// Similarity scores two canonical descriptions as one minus the Levenshtein
// distance over the longer length. Identical strings score 1; otherwise an
// empty string scores 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(max(la, lb))
}

// findCandidates proposes, for each unclaimed bank entry, the best scoring
// unclaimed budget entry of equal amount above the noise floor. Dismissed
// pairs are never proposed.
func (p *pools) findCandidates(cfg Config, dismissed map[Dismissal]struct{}) []Candidate {
	bankIdx := p.unclaimedBank()
	if len(bankIdx) == 0 {
		return nil
	}
	byAmount := make(map[string][]int)
	for _, j := range p.unclaimedBudget() {
		byAmount[p.budgetAmt[j]] = append(byAmount[p.budgetAmt[j]], j)
	}
	if len(byAmount) == 0 {
		return nil
	}

	best := make([]*Candidate, len(bankIdx))
	score := func(slot int) {
		i := bankIdx[slot]
		var top *Candidate
		for _, j := range byAmount[p.bankAmt[i]] {
			if _, ok := dismissed[Dismissal{BankID: p.bank[i].ID, BudgetID: p.budget[j].ID}]; ok {
				continue
			}
			s := Similarity(p.bankNorm[i], p.budgetNorm[j])
			if s <= cfg.NoiseFloor {
				continue
			}
			if top == nil || s > top.Similarity {
				top = &Candidate{Bank: p.bank[i], Budget: p.budget[j], Similarity: s, bankPos: i, budgetPos: j}
			}
		}
		best[slot] = top
	}

	if cfg.Workers > 1 && len(bankIdx) > 1 {
		var g errgroup.Group
		g.SetLimit(cfg.Workers)
		chunk := (len(bankIdx) + cfg.Workers - 1) / cfg.Workers
		for start := 0; start < len(bankIdx); start += chunk {
			end := min(start+chunk, len(bankIdx))
			g.Go(func() error {
				for slot := start; slot < end; slot++ {
					score(slot)
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for slot := range bankIdx {
			score(slot)
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		if c != nil {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Similarity > out[b].Similarity })
	return out
}
