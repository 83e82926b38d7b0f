package reconcile

import "github.com/shopspring/decimal"

func bankLine(desc, amount string) BankEntry {
	return BankEntry{Date: "01/09/2025", Description: desc, Amount: decimal.RequireFromString(amount)}
}

func budgetLine(desc, amount string) BudgetEntry {
	return BudgetEntry{Description: desc, Amount: decimal.RequireFromString(amount)}
}

func bankPool(lines ...BankEntry) []BankEntry { return NewBankPool(lines) }

func budgetPool(lines ...BudgetEntry) []BudgetEntry { return NewBudgetPool(lines) }

func repeatBank(e BankEntry, n int) []BankEntry {
	out := make([]BankEntry, n)
	for i := range out {
		out[i] = e
	}
	return out
}

func repeatBudget(e BudgetEntry, n int) []BudgetEntry {
	out := make([]BudgetEntry, n)
	for i := range out {
		out[i] = e
	}
	return out
}

func bankIDs(entries []BankEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func budgetIDs(entries []BudgetEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func decimalOf(s string) decimal.Decimal { return decimal.RequireFromString(s) }
