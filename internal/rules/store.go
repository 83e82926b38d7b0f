package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jask/jaskrecon/internal/reconcile"
)

// Keys under which the store keeps its blobs.
const (
	RulesKey      = "rules"
	ExclusionsKey = "exclusions"
)

// KV is the narrow blob interface the store needs. repository.KVRepo
// implements it over sqlite.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

// Store reads and writes the rule document and the exclusion list. Every
// mutation is a single read-modify-write of one blob.
type Store struct {
	kv     KV
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger, now: time.Now}
}

func decodeDocument(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode rules: %w", err)
	}
	return doc, nil
}

// Load returns the stored rule document; an empty store yields a document
// with no rules and a nil timestamp.
func (s *Store) Load(ctx context.Context) (Document, error) {
	data, _, err := s.kv.Get(ctx, RulesKey)
	if err != nil {
		return Document{}, err
	}
	return decodeDocument(data)
}

func (s *Store) update(ctx context.Context, fn func(doc *Document) error) error {
	return s.kv.Update(ctx, RulesKey, func(current []byte) ([]byte, error) {
		doc, err := decodeDocument(current)
		if err != nil {
			return nil, err
		}
		if err := fn(&doc); err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	})
}

// Add appends a rule unless one with the same kind and sides exists. It
// reports whether the rule was added.
func (s *Store) Add(ctx context.Context, r reconcile.Rule) (bool, error) {
	if err := Validate(r); err != nil {
		return false, err
	}
	added := false
	err := s.update(ctx, func(doc *Document) error {
		exists := slices.ContainsFunc(doc.Rules, func(o reconcile.Rule) bool {
			return o.EffectiveKind() == r.EffectiveKind() && o.BankSide == r.BankSide && o.BudgetSide == r.BudgetSide
		})
		if !exists {
			doc.Rules = append(doc.Rules, r)
			added = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if added {
		s.logger.Info("rule saved", zap.Stringer("rule", r))
	}
	return added, nil
}

// Delete removes every rule with the given sides, whatever its kind, and
// returns how many were removed.
func (s *Store) Delete(ctx context.Context, bankSide, budgetSide string) (int, error) {
	removed := 0
	err := s.update(ctx, func(doc *Document) error {
		before := len(doc.Rules)
		doc.Rules = slices.DeleteFunc(doc.Rules, func(o reconcile.Rule) bool {
			return o.BankSide == bankSide && o.BudgetSide == budgetSide
		})
		removed = before - len(doc.Rules)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("rule deleted", zap.String("bank", bankSide), zap.String("budget", budgetSide), zap.Int("removed", removed))
	}
	return removed, nil
}

// ImportFile replaces the stored document with an uploaded one. A rejected
// payload leaves the store untouched.
func (s *Store) ImportFile(ctx context.Context, data []byte, filename string) (Document, error) {
	doc, err := Import(data, filename)
	if err != nil {
		return Document{}, err
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return Document{}, err
	}
	if err := s.kv.Put(ctx, RulesKey, blob); err != nil {
		return Document{}, err
	}
	s.logger.Info("rules imported", zap.String("file", filename), zap.Int("count", len(doc.Rules)), zap.String("timestamp", *doc.Timestamp))
	return doc, nil
}

// ExportFile renders the stored rules for download.
func (s *Store) ExportFile(ctx context.Context) (string, []byte, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return "", nil, err
	}
	return Export(doc, s.now())
}

// Exclusions returns the descriptions suppressed before reconciliation.
func (s *Store) Exclusions(ctx context.Context) ([]string, error) {
	data, ok, err := s.kv.Get(ctx, ExclusionsKey)
	if err != nil || !ok {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode exclusions: %w", err)
	}
	return list, nil
}

func (s *Store) updateExclusions(ctx context.Context, fn func([]string) []string) error {
	return s.kv.Update(ctx, ExclusionsKey, func(current []byte) ([]byte, error) {
		var list []string
		if len(current) > 0 {
			if err := json.Unmarshal(current, &list); err != nil {
				return nil, fmt.Errorf("decode exclusions: %w", err)
			}
		}
		list = fn(list)
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	})
}

// AddExclusion suppresses a description. Blank descriptions are ignored.
func (s *Store) AddExclusion(ctx context.Context, desc string) (bool, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return false, nil
	}
	added := false
	err := s.updateExclusions(ctx, func(list []string) []string {
		if slices.Contains(list, desc) {
			return list
		}
		added = true
		return append(list, desc)
	})
	return added, err
}

func (s *Store) DeleteExclusion(ctx context.Context, desc string) (bool, error) {
	desc = strings.TrimSpace(desc)
	removed := false
	err := s.updateExclusions(ctx, func(list []string) []string {
		before := len(list)
		list = slices.DeleteFunc(list, func(d string) bool { return d == desc })
		removed = len(list) != before
		return list
	})
	return removed, err
}

// MemoryKV is an in-process KV for tests and dry runs.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV { return &MemoryKV{data: map[string][]byte{}} }

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return slices.Clone(v), ok, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MemoryKV) Update(_ context.Context, key string, fn func([]byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(slices.Clone(m.data[key]))
	if err != nil {
		return err
	}
	m.data[key] = next
	return nil
}
