package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskrecon/internal/config"
	"github.com/jask/jaskrecon/internal/reconcile"
	"github.com/jask/jaskrecon/internal/service"
)

// App is the interactive review screen for one reconciliation session.
type App struct {
	ctx      context.Context
	session  *service.Session
	currency string
	state    appState
	modal    modalState
	cursor   int
	status   string
	quitting bool
}

type appState int

const (
	viewCandidates appState = iota
	viewDiscrepancies
)

type modalState int

const (
	modalNone modalState = iota
	modalConfirmRejectAll
)

// New builds the review model around session.
func New(ctx context.Context, session *service.Session, cfg config.UIConfig) *App {
	currency := cfg.CurrencySymbol
	if currency == "" {
		currency = "R$"
	}
	a := &App{ctx: ctx, session: session, currency: currency}
	if !session.Outcome().Pending() {
		a.state = viewDiscrepancies
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		return a.handleKey(m)
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		a.quitting = true
		return a, tea.Quit
	case "tab":
		if a.state == viewCandidates {
			a.state = viewDiscrepancies
		} else {
			a.state = viewCandidates
		}
		a.cursor = 0
		a.status = ""
		return a, nil
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case "down", "j":
		if a.cursor < a.rows()-1 {
			a.cursor++
		}
		return a, nil
	}

	if a.state == viewCandidates {
		return a.handleCandidateKey(m)
	}
	return a.handleDiscrepancyKey(m)
}

func (a *App) handleCandidateKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !a.session.Outcome().Pending() {
		return a, nil
	}
	switch m.String() {
	case "y":
		if err := a.session.Accept(a.cursor); err != nil {
			return a, fail(err)
		}
		a.settle()
		return a, status("accepted")
	case "n":
		if err := a.session.Reject(a.cursor); err != nil {
			return a, fail(err)
		}
		a.settle()
		return a, status("rejected")
	case "p", "e":
		kind := reconcile.RulePattern
		if m.String() == "e" {
			kind = reconcile.RuleExact
		}
		rule, added, err := a.session.Promote(a.ctx, a.cursor, kind)
		if err != nil {
			return a, fail(err)
		}
		a.settle()
		if !added {
			return a, status("accepted; rule already saved")
		}
		return a, status(fmt.Sprintf("accepted; saved %s rule %q", rule.EffectiveKind(), rule.BankSide))
	case "A":
		n := a.session.BulkAccept()
		a.settle()
		return a, status(fmt.Sprintf("accepted %d high-confidence candidates", n))
	case "X":
		a.modal = modalConfirmRejectAll
	}
	return a, nil
}

func (a *App) handleDiscrepancyKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	desc, amount, ok := a.selectedDiscrepancy()
	if !ok {
		return a, nil
	}
	switch m.String() {
	case "x":
		n, err := a.session.Exclude(a.ctx, desc)
		if err != nil {
			return a, fail(err)
		}
		a.settle()
		return a, status(fmt.Sprintf("excluded %q (%d entries)", desc, n))
	case "d":
		a.session.RemoveKey(reconcile.ExactKey(desc, amount))
		a.settle()
		return a, status(fmt.Sprintf("removed %q", desc))
	}
	return a, nil
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalConfirmRejectAll:
		switch m.String() {
		case "y", "Y":
			a.modal = modalNone
			n := a.session.RejectAll()
			a.settle()
			return a, status(fmt.Sprintf("rejected %d candidates", n))
		case "n", "N", "esc":
			a.modal = modalNone
		}
	}
	return a, nil
}

// settle keeps the cursor in range after the session re-ran and leaves the
// candidate view once nothing is pending.
func (a *App) settle() {
	if a.state == viewCandidates && !a.session.Outcome().Pending() {
		a.state = viewDiscrepancies
		a.cursor = 0
	}
	if n := a.rows(); a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
}

func (a *App) rows() int {
	out := a.session.Outcome()
	if a.state == viewCandidates {
		return len(out.Candidates)
	}
	return len(out.DiscrepanciesBank) + len(out.DiscrepanciesBudget)
}

// selectedDiscrepancy resolves the cursor across bank then budget leftovers.
func (a *App) selectedDiscrepancy() (string, decimal.Decimal, bool) {
	out := a.session.Outcome()
	i := a.cursor
	if i < len(out.DiscrepanciesBank) {
		e := out.DiscrepanciesBank[i]
		return e.Description, e.Amount, true
	}
	i -= len(out.DiscrepanciesBank)
	if i < len(out.DiscrepanciesBudget) {
		e := out.DiscrepanciesBudget[i]
		return e.Description, e.Amount, true
	}
	return "", decimal.Decimal{}, false
}

// Quitting reports whether the user closed the screen.
func (a *App) Quitting() bool { return a.quitting }

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Reconciliation Review"))
	b.WriteString("\n")
	b.WriteString(a.renderSummary())
	b.WriteString("\n\n")

	switch a.state {
	case viewCandidates:
		b.WriteString(a.renderCandidates())
	case viewDiscrepancies:
		b.WriteString(a.renderDiscrepancies())
	}

	if a.modal == modalConfirmRejectAll {
		b.WriteString("\n")
		b.WriteString(modalStyle.Render(fmt.Sprintf("Reject all %d candidates? [y/n]", len(a.session.Outcome().Candidates))))
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(a.status))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderSummary() string {
	out := a.session.Outcome()
	line := fmt.Sprintf("Rule: %d  Exact: %d  Reviewed: %d  Partial: %d/%d  Pending: %d",
		out.Stats.ByRule, out.Stats.ByExact, len(a.session.Accepted()),
		out.Stats.BankByPartial, out.Stats.BudgetByPartial, len(out.Candidates))
	if n := a.session.Excluded(); n > 0 {
		line += fmt.Sprintf("  Excluded: %d", n)
	}
	return dimStyle.Render(line)
}

func (a *App) renderCandidates() string {
	out := a.session.Outcome()
	if len(out.Candidates) == 0 {
		return "No candidates pending.\n\n" + helpStyle.Render("tab discrepancies  q quit")
	}

	var b strings.Builder
	c := out.Candidates[a.cursor]
	b.WriteString(fmt.Sprintf("Match %d of %d  Similarity: %.2f\n", a.cursor+1, len(out.Candidates), c.Similarity))
	b.WriteString(fmt.Sprintf("  Bank:   %s  %s  %s\n", c.Bank.Date, c.Bank.Description, a.money(c.Bank.Amount)))
	b.WriteString(fmt.Sprintf("  Budget: %s  %s\n\n", c.Budget.Description, a.money(c.Budget.Amount)))

	for i, cand := range out.Candidates {
		line := fmt.Sprintf("%.2f  %-30s  %-30s  %s", cand.Similarity,
			truncate(cand.Bank.Description, 30), truncate(cand.Budget.Description, 30), a.money(cand.Bank.Amount))
		if i == a.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("y accept  n reject  p pattern rule  e exact rule  A accept confident  X reject all  tab discrepancies  q quit"))
	return b.String()
}

func (a *App) renderDiscrepancies() string {
	out := a.session.Outcome()
	if len(out.DiscrepanciesBank)+len(out.DiscrepanciesBudget) == 0 {
		return "Everything reconciled.\n\n" + helpStyle.Render("tab candidates  q quit")
	}

	var b strings.Builder
	row := 0
	line := func(desc string, amount decimal.Decimal) {
		text := fmt.Sprintf("%-40s  %s", truncate(desc, 40), a.money(amount))
		if row == a.cursor {
			b.WriteString(cursorStyle.Render("> " + text))
		} else {
			b.WriteString("  " + text)
		}
		b.WriteString("\n")
		row++
	}

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Bank only (%d)", len(out.DiscrepanciesBank))))
	b.WriteString("\n")
	for _, e := range out.DiscrepanciesBank {
		line(e.Date+"  "+e.Description, e.Amount)
	}
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Budget only (%d)", len(out.DiscrepanciesBudget))))
	b.WriteString("\n")
	for _, e := range out.DiscrepanciesBudget {
		line(e.Description, e.Amount)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("x exclude description  d remove key  tab candidates  q quit"))
	return b.String()
}

func (a *App) money(d decimal.Decimal) string {
	return a.currency + " " + d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func status(s string) tea.Cmd {
	return func() tea.Msg { return statusMsg(s) }
}

func fail(err error) tea.Cmd {
	return func() tea.Msg { return errMsg{err} }
}

type statusMsg string

type errMsg struct{ error }

// styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
