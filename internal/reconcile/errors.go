package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyPool short-circuits a run when either side has no entries.
	ErrEmptyPool = errors.New("reconcile: empty pool")
	// ErrMalformedRule marks a rule that cannot be applied and is skipped.
	ErrMalformedRule = errors.New("reconcile: malformed rule")
	// ErrCandidateIndex is returned by decision commands given an index outside the candidate list.
	ErrCandidateIndex = errors.New("reconcile: candidate index out of range")
)

// RuleIssue reports a rule skipped during a run.
type RuleIssue struct {
	Index int
	Rule  Rule
	Err   error
}

var (
	validateOnce sync.Once
	ruleValidate *validator.Validate
)

func ruleValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		ruleValidate = v
	})
	return ruleValidate
}

// ValidateRule reports ErrMalformedRule for a rule with a blank side, an
// unknown kind, or a pattern side that normalizes to nothing.
func ValidateRule(r Rule) error {
	if err := ruleValidator().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrMalformedRule, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrMalformedRule, err)
	}
	if r.EffectiveKind() == RulePattern {
		// An empty prefix would match every entry.
		if CanonicalDescription(r.BankSide) == "" || CanonicalDescription(r.BudgetSide) == "" {
			return fmt.Errorf("%w: pattern has no comparable characters", ErrMalformedRule)
		}
	}
	return nil
}
