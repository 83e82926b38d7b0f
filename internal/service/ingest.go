package service

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jask/jaskrecon/internal/reconcile"
)

// ErrBudgetHeader is returned when a budget file lacks a description or an
// amount column.
var ErrBudgetHeader = errors.New("budget file needs a description and an amount column")

// ErrRefineSince is returned by Refine when no start date is given.
var ErrRefineSince = errors.New("refine needs a start date")

// BankDateLayout is how bank entry dates are written.
const BankDateLayout = "02/01/2006"

// IngestService parses bank and budget files into reconciliation pools.
type IngestService struct {
	Logger *zap.Logger
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

func (s *IngestService) logger() *zap.Logger {
	if s == nil || s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func newCSVReader(r io.Reader) *csv.Reader {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	return csvr
}

// LoadBankCSV reads date, description, amount rows. A first row whose amount
// does not parse is taken as a header.
func (s *IngestService) LoadBankCSV(r io.Reader) ([]reconcile.BankEntry, IngestResult, error) {
	res := IngestResult{}
	csvr := newCSVReader(r)
	var out []reconcile.BankEntry
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if len(rec) < 3 {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected 3 columns (date, description, amount)", line))
			continue
		}
		amount, err := ParseAmount(rec[2])
		if err != nil {
			if line == 1 {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		desc := strings.TrimSpace(rec[1])
		if desc == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: empty description", line))
			continue
		}
		out = append(out, reconcile.BankEntry{Date: strings.TrimSpace(rec[0]), Description: desc, Amount: amount})
		res.Imported++
	}
	s.logger().Debug("bank csv loaded", zap.Int("imported", res.Imported), zap.Int("errors", len(res.Errors)))
	return reconcile.NewBankPool(out), res, nil
}

var (
	descriptionHeaders = []string{"descrição", "descricao", "description", "desc"}
	amountHeaders      = []string{"valor", "amount", "value"}
)

func headerIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

// LoadBudgetCSV reads a ledger export with a header row naming the
// description and amount columns.
func (s *IngestService) LoadBudgetCSV(r io.Reader) ([]reconcile.BudgetEntry, IngestResult, error) {
	res := IngestResult{}
	csvr := newCSVReader(r)
	header, err := csvr.Read()
	if err == io.EOF {
		return nil, res, fmt.Errorf("empty budget file: %w", ErrBudgetHeader)
	}
	if err != nil {
		return nil, res, fmt.Errorf("budget header: %w", err)
	}
	descIdx, amountIdx := headerIndex(header, descriptionHeaders), headerIndex(header, amountHeaders)
	if descIdx < 0 || amountIdx < 0 {
		return nil, res, ErrBudgetHeader
	}

	var out []reconcile.BudgetEntry
	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if descIdx >= len(rec) || amountIdx >= len(rec) {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: missing columns", line))
			continue
		}
		desc := strings.TrimSpace(rec[descIdx])
		if desc == "" {
			res.Skipped++
			continue
		}
		amount, err := ParseAmount(rec[amountIdx])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		out = append(out, reconcile.BudgetEntry{Description: desc, Amount: amount})
		res.Imported++
	}
	s.logger().Debug("budget csv loaded", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped), zap.Int("errors", len(res.Errors)))
	return reconcile.NewBudgetPool(out), res, nil
}

var (
	statementLine   = regexp.MustCompile(`^(\d{2}/\d{2})\s+(.*?)\s+([\d.,]+)$`)
	statementDate   = regexp.MustCompile(`^\d{2}/\d{2}$`)
	statementAmount = regexp.MustCompile(`^[\d.,]+$`)
	creditLine      = regexp.MustCompile(`(?i)ajuste cred|pagamento em|crédito`)
)

// LoadStatementText parses text copied from a card statement. Lines look like
// "DD/MM DESCRIPTION 1.234,56"; when none do, the three-line layout (date,
// description, amount) is tried. Amounts are debits unless the description
// reads as a credit. A day later than today in the current year belongs to
// the previous year.
func (s *IngestService) LoadStatementText(r io.Reader, today time.Time) ([]reconcile.BankEntry, IngestResult, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, IngestResult{}, err
	}

	res := IngestResult{}
	var out []reconcile.BankEntry
	add := func(dayMonth, desc, amountText string) {
		amount, err := parseBRL(amountText)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s %s: %w", dayMonth, desc, err))
			return
		}
		date, err := inferYear(dayMonth, today)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s %s: %w", dayMonth, desc, err))
			return
		}
		if !creditLine.MatchString(desc) {
			amount = amount.Neg()
		}
		out = append(out, reconcile.BankEntry{Date: date, Description: strings.TrimSpace(desc), Amount: amount})
		res.Imported++
	}

	for _, l := range lines {
		if m := statementLine.FindStringSubmatch(l); m != nil {
			add(m[1], m[2], m[3])
		}
	}
	if len(out) == 0 {
		for i := 0; i+2 < len(lines); i++ {
			if statementDate.MatchString(lines[i]) && statementAmount.MatchString(lines[i+2]) {
				add(lines[i], lines[i+1], lines[i+2])
				i += 2
			}
		}
	}
	s.logger().Debug("statement text loaded", zap.Int("imported", res.Imported), zap.Int("errors", len(res.Errors)))
	return reconcile.NewBankPool(out), res, nil
}

// Refine keeps the bank entries dated on or after since. A non-zero postDate
// replaces the date of every kept entry, for statements whose lines all post
// on the closing day. Entries with an unreadable date are dropped and
// reported. IDs are reassigned over the kept entries.
func (s *IngestService) Refine(entries []reconcile.BankEntry, since, postDate time.Time) ([]reconcile.BankEntry, IngestResult, error) {
	if since.IsZero() {
		return nil, IngestResult{}, ErrRefineSince
	}
	since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)

	res := IngestResult{}
	var out []reconcile.BankEntry
	for _, e := range entries {
		d, err := time.Parse(BankDateLayout, e.Date)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s %s: %w", e.Date, e.Description, err))
			continue
		}
		if d.Before(since) {
			res.Skipped++
			continue
		}
		if !postDate.IsZero() {
			e.Date = postDate.Format(BankDateLayout)
		}
		out = append(out, e)
		res.Imported++
	}
	s.logger().Debug("bank entries refined",
		zap.Time("since", since),
		zap.Int("kept", res.Imported),
		zap.Int("dropped", res.Skipped),
		zap.Int("errors", len(res.Errors)))
	return reconcile.NewBankPool(out), res, nil
}

func inferYear(dayMonth string, today time.Time) (string, error) {
	year := today.Year()
	d, err := time.ParseInLocation(BankDateLayout, fmt.Sprintf("%s/%d", dayMonth, year), today.Location())
	if err != nil {
		return "", err
	}
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if d.After(midnight) {
		year--
	}
	return fmt.Sprintf("%s/%d", dayMonth, year), nil
}

// parseBRL reads "1.234,56": dots group thousands, the comma is decimal.
func parseBRL(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}

// ParseAmount accepts "1.234,56", "1,234.56", "1234.56", "-10" and
// "R$ 15,00". When both separators appear the last one is the decimal mark.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}
