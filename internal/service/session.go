package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/jaskrecon/internal/reconcile"
	"github.com/jask/jaskrecon/internal/rules"
)

// Session is the caller-owned reconciliation context. It keeps the current
// input, re-runs the whole pipeline after every decision and remembers the
// pairs confirmed in review.
type Session struct {
	ID uuid.UUID

	engine *reconcile.Engine
	store  *rules.Store
	logger *zap.Logger

	input    reconcile.Input
	outcome  *reconcile.Outcome
	accepted []reconcile.Pair
	excluded int
}

// NewSession snapshots the stored rules and exclusion list, drops excluded
// entries from both pools and runs the pipeline once.
func NewSession(ctx context.Context, engine *reconcile.Engine, store *rules.Store, bank []reconcile.BankEntry, budget []reconcile.BudgetEntry, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	exclusions, err := store.Exclusions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}

	s := &Session{
		ID:     uuid.New(),
		engine: engine,
		store:  store,
	}
	s.logger = logger.With(zap.String("session", s.ID.String()))
	s.input = reconcile.Input{Bank: bank, Budget: budget, Rules: doc.Rules}
	for _, desc := range exclusions {
		s.excluded += s.dropDescription(desc)
	}
	s.logger.Info("session started",
		zap.Int("bank", len(s.input.Bank)),
		zap.Int("budget", len(s.input.Budget)),
		zap.Int("rules", len(doc.Rules)),
		zap.Int("excluded", s.excluded),
	)
	s.run()
	return s, nil
}

func (s *Session) run() {
	s.outcome = s.engine.Reconcile(s.input)
	for _, msg := range s.outcome.Messages() {
		s.logger.Debug(msg)
	}
}

// dropDescription removes entries on both sides whose description equals
// desc and returns how many went.
func (s *Session) dropDescription(desc string) int {
	desc = strings.TrimSpace(desc)
	before := len(s.input.Bank) + len(s.input.Budget)
	s.input.Bank = slices.DeleteFunc(slices.Clone(s.input.Bank), func(e reconcile.BankEntry) bool {
		return strings.TrimSpace(e.Description) == desc
	})
	s.input.Budget = slices.DeleteFunc(slices.Clone(s.input.Budget), func(e reconcile.BudgetEntry) bool {
		return strings.TrimSpace(e.Description) == desc
	})
	return before - len(s.input.Bank) - len(s.input.Budget)
}

// Outcome is the latest run.
func (s *Session) Outcome() *reconcile.Outcome { return s.outcome }

// Accepted lists pairs confirmed in review, in decision order.
func (s *Session) Accepted() []reconcile.Pair { return slices.Clone(s.accepted) }

// Excluded counts entries dropped by the exclusion list.
func (s *Session) Excluded() int { return s.excluded }

func (s *Session) confirm(c reconcile.Candidate) {
	s.accepted = append(s.accepted, reconcile.Pair{Bank: c.Bank, Budget: c.Budget, Stage: reconcile.StageReview})
}

func (s *Session) Accept(index int) error {
	next, err := s.outcome.AcceptCandidate(index)
	if err != nil {
		return err
	}
	s.confirm(s.outcome.Candidates[index])
	s.input = next
	s.run()
	return nil
}

func (s *Session) Reject(index int) error {
	next, err := s.outcome.RejectCandidate(index)
	if err != nil {
		return err
	}
	s.input = next
	s.run()
	return nil
}

// RejectAll dismisses every pending candidate and returns how many there were.
func (s *Session) RejectAll() int {
	n := len(s.outcome.Candidates)
	s.input = s.outcome.RejectAll()
	s.run()
	return n
}

// BulkAccept confirms every high-confidence candidate and returns the count.
func (s *Session) BulkAccept() int {
	next, n := s.outcome.BulkAccept()
	if n == 0 {
		return 0
	}
	left := make(map[int]struct{}, len(next.Bank))
	for _, e := range next.Bank {
		left[e.ID] = struct{}{}
	}
	for _, c := range s.outcome.Candidates {
		if _, ok := left[c.Bank.ID]; ok {
			continue
		}
		left[c.Bank.ID] = struct{}{}
		s.confirm(c)
	}
	s.input = next
	s.run()
	s.logger.Info("bulk accepted", zap.Int("count", n))
	return n
}

// Promote saves the candidate as a rule of kind and confirms the pair. The
// bool reports whether the rule was new to the store.
func (s *Session) Promote(ctx context.Context, index int, kind reconcile.RuleKind) (reconcile.Rule, bool, error) {
	rule, next, err := s.outcome.PromoteCandidate(index, kind)
	if err != nil {
		return reconcile.Rule{}, false, err
	}
	added, err := s.store.Add(ctx, rule)
	if err != nil {
		return reconcile.Rule{}, false, err
	}
	s.confirm(s.outcome.Candidates[index])
	s.input = next
	s.run()
	return rule, added, nil
}

// RemoveKey drops every entry sharing the exact key.
func (s *Session) RemoveKey(key string) {
	s.input = s.outcome.RemoveKey(key)
	s.run()
}

// Exclude stores desc in the exclusion list and drops matching entries now.
func (s *Session) Exclude(ctx context.Context, desc string) (int, error) {
	if _, err := s.store.AddExclusion(ctx, desc); err != nil {
		return 0, err
	}
	n := s.dropDescription(desc)
	s.excluded += n
	s.run()
	return n, nil
}
