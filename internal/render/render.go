// Package render turns ledger values into operator-facing text.
package render

import (
	"fmt"
	"io"
	"strings"

	"pocketbook/internal/core"
)

// DefaultBarWidth is the length of a bar for a category holding every expense.
const DefaultBarWidth = 40

func BalanceLine(balance core.Money) string {
	return "Current balance: " + core.FormatCurrency(balance)
}

// Report writes the category breakdown followed by the totals.
func Report(w io.Writer, r core.Report) error {
	var b strings.Builder
	b.WriteString("\nExpense Report:\n")
	for _, ca := range r.Breakdown {
		fmt.Fprintf(&b, "%s: %s\n", ca.Name, core.FormatCurrency(ca.Amount))
	}
	fmt.Fprintf(&b, "\nTotal Income: %s\n", core.FormatCurrency(r.Income))
	fmt.Fprintf(&b, "Total Expenses: %s\n", core.FormatCurrency(r.TotalExpenses))
	fmt.Fprintf(&b, "Balance: %s\n", core.FormatCurrency(r.Balance))
	if r.Budget.Cents != 0 {
		fmt.Fprintf(&b, "Monthly Budget: %s (remaining %s)\n",
			core.FormatCurrency(r.Budget), core.FormatCurrency(r.BudgetRemaining()))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Share is one line of the category chart.
type Share struct {
	Name    string
	Amount  core.Money
	Percent float64
	Bar     int
}

// Shares computes each category's share of the positive expense total.
// Non-positive categories get a zero share.
func Shares(breakdown []core.CategoryAmount, width int) []Share {
	var positive int64
	for _, ca := range breakdown {
		if ca.Amount.Cents > 0 {
			positive += ca.Amount.Cents
		}
	}

	shares := make([]Share, 0, len(breakdown))
	for _, ca := range breakdown {
		s := Share{Name: ca.Name, Amount: ca.Amount}
		if ca.Amount.Cents > 0 && positive > 0 {
			s.Percent = float64(ca.Amount.Cents) * 100 / float64(positive)
			s.Bar = int(ca.Amount.Cents * int64(width) / positive)
		}
		shares = append(shares, s)
	}
	return shares
}

// Chart writes a text bar chart of the category shares.
func Chart(w io.Writer, breakdown []core.CategoryAmount, width int) error {
	if width <= 0 {
		width = DefaultBarWidth
	}

	var b strings.Builder
	b.WriteString("Expenses Breakdown by Category\n")
	if len(breakdown) == 0 {
		b.WriteString("(no expenses)\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	nameWidth := 0
	for _, ca := range breakdown {
		nameWidth = max(nameWidth, len(ca.Name))
	}
	for _, s := range Shares(breakdown, width) {
		fmt.Fprintf(&b, "%-*s |%-*s| %5.1f%%\n",
			nameWidth, s.Name,
			width, strings.Repeat("#", s.Bar),
			s.Percent)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
