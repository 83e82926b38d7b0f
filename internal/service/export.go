package service

import (
	"encoding/csv"
	"io"

	"github.com/jask/jaskrecon/internal/reconcile"
)

// Discrepancy file names used by reconcile --discrepancies-out.
const (
	BankDiscrepanciesFile   = "bank_discrepancies.csv"
	BudgetDiscrepanciesFile = "budget_discrepancies.csv"
)

// WriteBankCSV writes bank entries with a Data,Descrição,Valor header.
func WriteBankCSV(w io.Writer, entries []reconcile.BankEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Data", "Descrição", "Valor"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Date, e.Description, e.Amount.StringFixed(2)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBudgetCSV writes budget entries with a Descrição,Valor header, the
// same layout LoadBudgetCSV reads back.
func WriteBudgetCSV(w io.Writer, entries []reconcile.BudgetEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Descrição", "Valor"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Description, e.Amount.StringFixed(2)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
