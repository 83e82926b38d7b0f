package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/jaskrecon/internal/database"
	"github.com/jask/jaskrecon/internal/database/repository"
	"github.com/jask/jaskrecon/internal/reconcile"
	"github.com/jask/jaskrecon/internal/rules"
)

func bank(lines ...[2]string) []reconcile.BankEntry {
	out := make([]reconcile.BankEntry, len(lines))
	for i, l := range lines {
		out[i] = reconcile.BankEntry{Date: "01/09/2025", Description: l[0], Amount: dec(l[1])}
	}
	return reconcile.NewBankPool(out)
}

func budget(lines ...[2]string) []reconcile.BudgetEntry {
	out := make([]reconcile.BudgetEntry, len(lines))
	for i, l := range lines {
		out[i] = reconcile.BudgetEntry{Description: l[0], Amount: dec(l[1])}
	}
	return reconcile.NewBudgetPool(out)
}

func newSession(t *testing.T, store *rules.Store, b []reconcile.BankEntry, g []reconcile.BudgetEntry) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), reconcile.NewEngine(reconcile.DefaultConfig(), nil), store, b, g, nil)
	require.NoError(t, err)
	return s
}

func TestSession_AcceptAndReject(t *testing.T) {
	t.Parallel()

	store := rules.NewStore(rules.NewMemoryKV(), nil)
	s := newSession(t, store,
		bank([2]string{"PADARIA CENTRAL", "-15"}, [2]string{"SUPERMERCADO DIA", "-10"}),
		budget([2]string{"Padaria Central Compras", "-15"}, [2]string{"SUPERMERCADO DIAS", "-10"}),
	)
	require.NotEqual(t, "", s.ID.String())
	require.Len(t, s.Outcome().Candidates, 2)

	// Highest score first: the supermarket pair.
	require.NoError(t, s.Accept(0))
	require.Len(t, s.Accepted(), 1)
	require.Equal(t, "SUPERMERCADO DIA", s.Accepted()[0].Bank.Description)
	require.Equal(t, reconcile.StageReview, s.Accepted()[0].Stage)
	require.Len(t, s.Outcome().Candidates, 1)

	require.NoError(t, s.Reject(0))
	require.False(t, s.Outcome().Pending())
	// "PADARIA " is a shared partial key, so nothing is left over.
	require.Empty(t, s.Outcome().DiscrepanciesBank)
	require.Equal(t, 1, s.Outcome().Stats.BankByPartial)

	require.ErrorIs(t, s.Accept(0), reconcile.ErrCandidateIndex)
}

func TestSession_BulkAcceptAndRejectAll(t *testing.T) {
	t.Parallel()

	store := rules.NewStore(rules.NewMemoryKV(), nil)
	s := newSession(t, store,
		bank([2]string{"PADARIA CENTRAL", "-15"}, [2]string{"SUPERMERCADO DIA", "-10"}, [2]string{"ABCD", "-5"}),
		budget([2]string{"Padaria Central Compras", "-15"}, [2]string{"SUPERMERCADO DIAS", "-10"}, [2]string{"ABCX", "-5"}),
	)
	require.Len(t, s.Outcome().Candidates, 3)

	require.Equal(t, 1, s.BulkAccept())
	require.Len(t, s.Accepted(), 1)
	require.Equal(t, 0, s.BulkAccept())

	require.Equal(t, 2, s.RejectAll())
	out := s.Outcome()
	require.False(t, out.Pending())
	require.Len(t, out.DiscrepanciesBank, 1)
	require.Equal(t, "ABCD", out.DiscrepanciesBank[0].Description)
}

func TestSession_PromoteSavesRule(t *testing.T) {
	t.Parallel()

	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := rules.NewStore(repository.NewKVRepo(db), nil)
	ctx := context.Background()

	s := newSession(t, store,
		bank([2]string{"PADARIA CENTRAL 09/25", "-15"}),
		budget([2]string{"Padaria Central Compras", "-15"}),
	)
	rule, added, err := s.Promote(ctx, 0, reconcile.RulePattern)
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, "PADARIA CENTRAL", rule.BankSide)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []reconcile.Rule{rule}, doc.Rules)

	// A later session picks the rule up from the store.
	next := newSession(t, store,
		bank([2]string{"PADARIA CENTRAL 10/25", "-15"}),
		budget([2]string{"Padaria Central Compras", "-15"}),
	)
	require.Equal(t, 1, next.Outcome().Stats.ByRule)
}

func TestSession_Exclusions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := rules.NewStore(rules.NewMemoryKV(), nil)
	_, err := store.AddExclusion(ctx, "IOF")
	require.NoError(t, err)

	s := newSession(t, store,
		bank([2]string{"IOF", "-1.20"}, [2]string{"TARIFA", "-9"}, [2]string{"ALUGUEL", "-1500"}),
		budget([2]string{"ALUGUEL", "-1500"}, [2]string{"IOF", "-1.20"}),
	)
	require.Equal(t, 2, s.Excluded())
	require.Len(t, s.Outcome().DiscrepanciesBank, 1)

	n, err := s.Exclude(ctx, "TARIFA")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 3, s.Excluded())
	require.Empty(t, s.Outcome().DiscrepanciesBank)

	list, err := store.Exclusions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"IOF", "TARIFA"}, list)
}

func TestSession_RemoveKey(t *testing.T) {
	t.Parallel()

	s := newSession(t, rules.NewStore(rules.NewMemoryKV(), nil),
		bank([2]string{"UBER", "-10"}, [2]string{"UBER", "-10"}),
		budget([2]string{"Uber", "-10"}),
	)
	require.Len(t, s.Outcome().DiscrepanciesBank, 1)

	s.RemoveKey(reconcile.ExactKey("UBER", dec("-10")))
	require.ErrorIs(t, s.Outcome().Reason, reconcile.ErrEmptyPool)
}

func TestMaintenanceReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "reset.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := rules.NewStore(repository.NewKVRepo(db), nil)
	_, err = store.Add(ctx, reconcile.Rule{BankSide: "A", BudgetSide: "B"})
	require.NoError(t, err)
	_, err = store.AddExclusion(ctx, "IOF")
	require.NoError(t, err)

	m := &MaintenanceService{DB: db}
	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, uint(1), status.SchemaVersion)
	require.Equal(t, []string{rules.ExclusionsKey, rules.RulesKey}, status.Keys)

	removed, err := m.Reset(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	status, err = m.Status(ctx)
	require.NoError(t, err)
	require.Empty(t, status.Keys)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, doc.Rules)

	_, err = (&MaintenanceService{}).Reset(ctx)
	require.Error(t, err)
	_, err = (&MaintenanceService{}).Status(ctx)
	require.Error(t, err)
}
