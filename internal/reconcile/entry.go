package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BankEntry is one line of a bank statement.
type BankEntry struct {
	ID          int             `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Occurrences int             `json:"occurrences"`
}

// BudgetEntry is one line of a budget ledger.
type BudgetEntry struct {
	ID          int             `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Occurrences int             `json:"occurrences"`
}

// RuleKind selects how a rule compares descriptions.
type RuleKind string

const (
	RuleExact   RuleKind = "exact"
	RulePattern RuleKind = "pattern"
)

// Rule pairs a bank description with a budget description.
// Pattern rules compare normalized prefixes; exact rules compare raw text.
type Rule struct {
	Kind       RuleKind `json:"kind,omitempty" validate:"omitempty,oneof=exact pattern"`
	BankSide   string   `json:"bankSide" validate:"nonblank"`
	BudgetSide string   `json:"budgetSide" validate:"nonblank"`
}

// EffectiveKind treats rules saved without a kind as exact.
func (r Rule) EffectiveKind() RuleKind {
	if r.Kind == "" {
		return RuleExact
	}
	return r.Kind
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	type alias Rule
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// "smart" is what older exports called pattern rules.
	if strings.EqualFold(string(raw.Kind), "smart") {
		raw.Kind = RulePattern
	}
	*r = Rule(raw)
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("%s: %q -> %q", r.EffectiveKind(), r.BankSide, r.BudgetSide)
}

// Candidate is a fuzzy pairing awaiting a human decision.
type Candidate struct {
	Bank       BankEntry   `json:"bank"`
	Budget     BudgetEntry `json:"budget"`
	Similarity float64     `json:"similarity"`

	bankPos, budgetPos int
}

// Stage identifies which matcher reconciled a pair.
type Stage string

const (
	StageRule   Stage = "rule"
	StageExact  Stage = "exact"
	StageReview Stage = "review"
)

// Pair is a bank/budget pairing made by a matcher or confirmed in review.
type Pair struct {
	Bank   BankEntry   `json:"bank"`
	Budget BudgetEntry `json:"budget"`
	Stage  Stage       `json:"stage"`
}

// Dismissal records a candidate the user rejected, by entry ID.
type Dismissal struct {
	BankID   int `json:"bankId"`
	BudgetID int `json:"budgetId"`
}

// NewBankPool assigns stable IDs and repetition counts to parsed bank entries.
func NewBankPool(entries []BankEntry) []BankEntry {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[ExactKey(e.Description, e.Amount)]++
	}
	out := make([]BankEntry, len(entries))
	for i, e := range entries {
		e.ID = i + 1
		e.Occurrences = counts[ExactKey(e.Description, e.Amount)]
		out[i] = e
	}
	return out
}

// NewBudgetPool assigns stable IDs and repetition counts to parsed budget entries.
func NewBudgetPool(entries []BudgetEntry) []BudgetEntry {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[ExactKey(e.Description, e.Amount)]++
	}
	out := make([]BudgetEntry, len(entries))
	for i, e := range entries {
		e.ID = i + 1
		e.Occurrences = counts[ExactKey(e.Description, e.Amount)]
		out[i] = e
	}
	return out
}

// ensureBankIDs renumbers the pool 1..n when any ID is missing or repeated.
// Dismissals are keyed by ID, so two entries sharing one would be dismissed together.
func ensureBankIDs(entries []BankEntry) bool {
	seen := make(map[int]struct{}, len(entries))
	valid := true
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup || e.ID <= 0 {
			valid = false
			break
		}
		seen[e.ID] = struct{}{}
	}
	if valid {
		return false
	}
	for i := range entries {
		entries[i].ID = i + 1
	}
	return true
}

// ensureBudgetIDs is ensureBankIDs for the budget side.
func ensureBudgetIDs(entries []BudgetEntry) bool {
	seen := make(map[int]struct{}, len(entries))
	valid := true
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup || e.ID <= 0 {
			valid = false
			break
		}
		seen[e.ID] = struct{}{}
	}
	if valid {
		return false
	}
	for i := range entries {
		entries[i].ID = i + 1
	}
	return true
}
