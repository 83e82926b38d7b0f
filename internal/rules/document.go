// Package rules persists the user's reconciliation rules and exclusion list
// and moves rule sets in and out of JSON files.
package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jask/jaskrecon/internal/reconcile"
)

var (
	// ErrInvalidPayload rejects an import whose "rules" field is missing or
	// is not a list of rule objects.
	ErrInvalidPayload = errors.New("rules: invalid import payload")
	// ErrNoRules is returned when exporting an empty rule set.
	ErrNoRules = errors.New("rules: no rules to export")
	// ErrMalformedRule is the engine's error for a rule that cannot be applied.
	ErrMalformedRule = reconcile.ErrMalformedRule
)

// TimestampUnknown marks an imported rule set whose file name carried no date.
const TimestampUnknown = "unknown"

// Document is the persisted rule set.
type Document struct {
	Timestamp *string          `json:"timestamp"`
	Rules     []reconcile.Rule `json:"rules"`
}

// Validate reports ErrMalformedRule for a rule the engine would skip.
func Validate(r reconcile.Rule) error { return reconcile.ValidateRule(r) }

// Stamp renders a date as DD/MM/YYYY.
func Stamp(t time.Time) string { return t.Format("02/01/2006") }

// ExportName is the suggested file name for an export made at t.
func ExportName(t time.Time) string { return t.Format("20060102") + "_rules.json" }

// Export renders doc for download. The exported timestamp is the export date.
func Export(doc Document, now time.Time) (string, []byte, error) {
	if len(doc.Rules) == 0 {
		return "", nil, ErrNoRules
	}
	ts := Stamp(now)
	out := Document{Timestamp: &ts, Rules: doc.Rules}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", nil, err
	}
	return ExportName(now), data, nil
}

var datedName = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)

// Import parses an uploaded rule file. The timestamp comes from an 8-digit
// YYYYMMDD prefix of filename, or is TimestampUnknown.
func Import(data []byte, filename string) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	raw, ok := top["rules"]
	if !ok {
		raw, ok = top["regras"]
	}
	if !ok {
		return Document{}, fmt.Errorf("%w: no rules field", ErrInvalidPayload)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return Document{}, fmt.Errorf("%w: rules is not a list", ErrInvalidPayload)
	}

	doc := Document{Rules: make([]reconcile.Rule, 0, len(items))}
	for i, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			return Document{}, fmt.Errorf("%w: rule %d is not an object", ErrInvalidPayload, i)
		}
		r, err := decodeRule(item)
		if err != nil {
			return Document{}, fmt.Errorf("%w: rule %d: %v", ErrInvalidPayload, i, err)
		}
		doc.Rules = append(doc.Rules, r)
	}

	ts := TimestampUnknown
	if m := datedName.FindStringSubmatch(filename); m != nil {
		ts = m[3] + "/" + m[2] + "/" + m[1]
	}
	doc.Timestamp = &ts
	return doc, nil
}

func decodeRule(item json.RawMessage) (reconcile.Rule, error) {
	var r reconcile.Rule
	if err := json.Unmarshal(item, &r); err != nil {
		return r, err
	}
	if r.BankSide != "" || r.BudgetSide != "" {
		return r, nil
	}
	// Older exports used type/banco/orc.
	var old struct {
		Type  string `json:"type"`
		Banco string `json:"banco"`
		Orc   string `json:"orc"`
	}
	if err := json.Unmarshal(item, &old); err != nil {
		return r, err
	}
	if old.Banco == "" && old.Orc == "" {
		return r, nil
	}
	var kind reconcile.RuleKind
	switch old.Type {
	case "smart", string(reconcile.RulePattern):
		kind = reconcile.RulePattern
	case string(reconcile.RuleExact):
		kind = reconcile.RuleExact
	}
	return reconcile.Rule{Kind: kind, BankSide: old.Banco, BudgetSide: old.Orc}, nil
}
