package testdata

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/jask/jaskrecon/internal/reconcile"
)

// Merchants is the vocabulary used for generated descriptions.
var Merchants = []string{
	"UBER TRIP", "NETFLIX.COM", "PADARIA CENTRAL", "SUPERMERCADO DIA", "FARMACIA SAO JOAO",
	"POSTO IPIRANGA", "LOJA XYZ", "SPOTIFY", "AMAZON MARKETPLACE", "RESTAURANTE SABOR",
}

// Pools holds a generated bank/budget pair.
type Pools struct {
	Bank   []reconcile.BankEntry
	Budget []reconcile.BudgetEntry
}

// Options controls Generate.
type Options struct {
	Seed      int64
	Size      int // bank entries
	Overlap   int // percentage of bank entries mirrored in the budget
	Noise     int // percentage of mirrored entries whose budget description is altered
	Duplicate int // percentage of bank entries repeated verbatim
}

// Generate builds a reproducible bank pool and a budget pool that mirrors part
// of it, with altered descriptions, installment counters and repeats.
func Generate(opts Options) Pools {
	rng := rand.New(rand.NewSource(opts.Seed))
	if opts.Size <= 0 {
		opts.Size = 20
	}

	var bank []reconcile.BankEntry
	var budget []reconcile.BudgetEntry
	for i := 0; i < opts.Size; i++ {
		merchant := Merchants[rng.Intn(len(Merchants))]
		cents := int64(rng.Intn(20000) + 100)
		amount := decimal.New(-cents, -2)
		desc := merchant
		if rng.Intn(4) == 0 {
			desc = fmt.Sprintf("%s (%d/%d)", merchant, rng.Intn(3)+1, 3)
		}
		entry := reconcile.BankEntry{
			Date:        fmt.Sprintf("%02d/%02d/2025", rng.Intn(28)+1, rng.Intn(12)+1),
			Description: desc,
			Amount:      amount,
		}
		bank = append(bank, entry)
		if rng.Intn(100) < opts.Duplicate {
			bank = append(bank, entry)
		}

		if rng.Intn(100) >= opts.Overlap {
			continue
		}
		budgetDesc := desc
		if rng.Intn(100) < opts.Noise {
			budgetDesc = alter(rng, merchant)
		}
		budget = append(budget, reconcile.BudgetEntry{Description: budgetDesc, Amount: amount})
	}
	// a few budget-only lines
	for i := 0; i < opts.Size/10; i++ {
		budget = append(budget, reconcile.BudgetEntry{
			Description: "AJUSTE MANUAL " + fmt.Sprint(i),
			Amount:      decimal.New(int64(rng.Intn(5000)+1), -2),
		})
	}
	return Pools{Bank: reconcile.NewBankPool(bank), Budget: reconcile.NewBudgetPool(budget)}
}

func alter(rng *rand.Rand, merchant string) string {
	switch rng.Intn(3) {
	case 0:
		return merchant + " COMPRAS"
	case 1:
		return "Pgto " + merchant
	default:
		return merchant + fmt.Sprintf(" %02d/25", rng.Intn(12)+1)
	}
}
