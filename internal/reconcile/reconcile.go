// Package reconcile pairs bank statement lines with budget ledger lines.
//
// A run applies four stages in order over the unclaimed entries:
//
//  1. persisted rules (pattern rules first, then exact rules)
//  2. exact canonical keys, respecting multiplicity
//  3. fuzzy candidates of equal amount, ranked for a human decision
//  4. partial keys, only once no candidate is pending
//
// Reconcile never mutates its input. Decisions on an Outcome return a new
// Input for the next run instead of patching the Outcome.
package reconcile

import (
	"slices"

	"go.uber.org/zap"
)

// Config tunes the matching thresholds.
type Config struct {
	NoiseFloor     float64 // candidates must score strictly above this
	HighConfidence float64 // BulkAccept takes candidates at or above this
	PartialPrefix  int     // runes of canonical description kept in a partial key
	Workers        int     // >1 scores fuzzy candidates concurrently
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		NoiseFloor:     0.3,
		HighConfidence: 0.8,
		PartialPrefix:  8,
		Workers:        1,
	}
}

// Input is everything one run needs. Callers own it and pass a fresh one to
// every run. Entry IDs should come from NewBankPool/NewBudgetPool; a side with
// missing or repeated IDs is renumbered by position before the run.
type Input struct {
	Bank      []BankEntry   `json:"bank"`
	Budget    []BudgetEntry `json:"budget"`
	Rules     []Rule        `json:"rules"`
	Dismissed []Dismissal   `json:"dismissed,omitempty"`
}

func (in Input) clone() Input {
	return Input{
		Bank:      slices.Clone(in.Bank),
		Budget:    slices.Clone(in.Budget),
		Rules:     slices.Clone(in.Rules),
		Dismissed: slices.Clone(in.Dismissed),
	}
}

// Stats counts what each stage did.
type Stats struct {
	ByRule          int `json:"byRule"`
	ByExact         int `json:"byExact"`
	BankByPartial   int `json:"bankByPartial"`
	BudgetByPartial int `json:"budgetByPartial"`
}

// Outcome is the result of one run.
type Outcome struct {
	ReconciledBank      []BankEntry   `json:"reconciledBank"`
	ReconciledBudget    []BudgetEntry `json:"reconciledBudget"`
	Pairs               []Pair        `json:"pairs"`
	RemainingBank       []BankEntry   `json:"remainingBank"`
	RemainingBudget     []BudgetEntry `json:"remainingBudget"`
	Candidates          []Candidate   `json:"candidates"`
	DiscrepanciesBank   []BankEntry   `json:"discrepanciesBank"`
	DiscrepanciesBudget []BudgetEntry `json:"discrepanciesBudget"`
	Log                 []LogEntry    `json:"log"`
	Stats               Stats         `json:"stats"`
	SkippedRules        []RuleIssue   `json:"-"`
	Reason              error         `json:"-"`

	input          Input
	highConfidence float64
}

// Input returns a copy of the input this outcome was computed from.
func (o *Outcome) Input() Input {
	return o.input.clone()
}

// Engine runs the reconciliation pipeline.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine builds an engine. Zero thresholds fall back to DefaultConfig and
// a nil logger discards output.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.NoiseFloor <= 0 {
		cfg.NoiseFloor = def.NoiseFloor
	}
	if cfg.PartialPrefix <= 0 {
		cfg.PartialPrefix = def.PartialPrefix
	}
	if cfg.HighConfidence <= 0 {
		cfg.HighConfidence = def.HighConfidence
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Reconcile runs every stage over in and partitions both pools into
// reconciled, remaining and discrepancy entries. Decisions on the Outcome
// carry any reassigned IDs forward.
func (e *Engine) Reconcile(in Input) *Outcome {
	in = in.clone()
	if ensureBankIDs(in.Bank) {
		e.logger.Debug("bank IDs reassigned", zap.Int("entries", len(in.Bank)))
	}
	if ensureBudgetIDs(in.Budget) {
		e.logger.Debug("budget IDs reassigned", zap.Int("entries", len(in.Budget)))
	}
	out := &Outcome{input: in, highConfidence: e.cfg.HighConfidence}

	if len(in.Bank) == 0 || len(in.Budget) == 0 {
		if len(in.Bank) == 0 {
			out.Log = append(out.Log, LogEntry{Kind: LogEmptyBank})
		}
		if len(in.Budget) == 0 {
			out.Log = append(out.Log, LogEntry{Kind: LogEmptyBudget})
		}
		out.RemainingBank = slices.Clone(in.Bank)
		out.RemainingBudget = slices.Clone(in.Budget)
		out.Reason = ErrEmptyPool
		e.logger.Debug("reconcile skipped", zap.Int("bank", len(in.Bank)), zap.Int("budget", len(in.Budget)))
		return out
	}

	p := newPools(in.Bank, in.Budget)

	byRule, issues := p.applyRules(in.Rules)
	out.SkippedRules = issues
	out.Stats.ByRule = byRule
	if len(issues) > 0 {
		out.Log = append(out.Log, LogEntry{Kind: LogRuleSkipped, Count: len(issues)})
		for _, is := range issues {
			e.logger.Warn("rule skipped", zap.Int("index", is.Index), zap.Stringer("rule", is.Rule), zap.Error(is.Err))
		}
	}
	if byRule > 0 {
		out.Log = append(out.Log, LogEntry{Kind: LogReconciledByRule, Count: byRule})
	}

	byExact := p.matchExact()
	out.Stats.ByExact = byExact
	if byExact > 0 {
		out.Log = append(out.Log, LogEntry{Kind: LogReconciledByExact, Count: byExact})
	}

	dismissed := make(map[Dismissal]struct{}, len(in.Dismissed))
	for _, d := range in.Dismissed {
		dismissed[d] = struct{}{}
	}
	out.Candidates = p.findCandidates(e.cfg, dismissed)

	if len(out.Candidates) > 0 {
		out.Log = append(out.Log, LogEntry{Kind: LogCandidatesPending, Count: len(out.Candidates)})
		for _, i := range p.unclaimedBank() {
			out.RemainingBank = append(out.RemainingBank, p.bank[i])
		}
		for _, j := range p.unclaimedBudget() {
			out.RemainingBudget = append(out.RemainingBudget, p.budget[j])
		}
	} else {
		bankGone, budgetGone, bankDisc, budgetDisc := p.resolvePartial(e.cfg.PartialPrefix)
		for _, i := range bankGone {
			p.bankUsed[i] = true
		}
		for _, j := range budgetGone {
			p.budgetUsed[j] = true
		}
		out.Stats.BankByPartial = len(bankGone)
		out.Stats.BudgetByPartial = len(budgetGone)
		if n := len(bankGone) + len(budgetGone); n > 0 {
			out.Log = append(out.Log, LogEntry{Kind: LogReconciledByPrefix, Count: n})
		}
		for _, i := range bankDisc {
			out.DiscrepanciesBank = append(out.DiscrepanciesBank, p.bank[i])
		}
		for _, j := range budgetDisc {
			out.DiscrepanciesBudget = append(out.DiscrepanciesBudget, p.budget[j])
		}
		if len(bankDisc) > 0 {
			out.Log = append(out.Log, LogEntry{Kind: LogBankDiscrepancies, Count: len(bankDisc)})
		}
		if len(budgetDisc) > 0 {
			out.Log = append(out.Log, LogEntry{Kind: LogBudgetDiscrepancy, Count: len(budgetDisc)})
		}
	}

	for i, used := range p.bankUsed {
		if used {
			out.ReconciledBank = append(out.ReconciledBank, p.bank[i])
		}
	}
	for j, used := range p.budgetUsed {
		if used {
			out.ReconciledBudget = append(out.ReconciledBudget, p.budget[j])
		}
	}
	out.Pairs = p.pairs

	e.logger.Debug("reconcile finished",
		zap.Int("bank", len(in.Bank)),
		zap.Int("budget", len(in.Budget)),
		zap.Int("by_rule", out.Stats.ByRule),
		zap.Int("by_exact", out.Stats.ByExact),
		zap.Int("candidates", len(out.Candidates)),
		zap.Int("bank_discrepancies", len(out.DiscrepanciesBank)),
		zap.Int("budget_discrepancies", len(out.DiscrepanciesBudget)),
	)
	return out
}

// Pending reports whether candidates await a decision.
func (o *Outcome) Pending() bool { return len(o.Candidates) > 0 }
