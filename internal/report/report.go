// Package report derives balances and category summaries from an account.
// Every function is read-only.
package report

import (
	"pocketbook/internal/core"
)

// TotalExpenses sums every entry once, one-off and recurring alike.
func TotalExpenses(acct *core.Account) core.Money {
	var total core.Money
	for _, e := range acct.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Balance is income minus total expenses. It may be negative.
func Balance(acct *core.Account) core.Money {
	return acct.Income.Sub(TotalExpenses(acct))
}

// CategoryBreakdown lists category totals in first-insertion order.
func CategoryBreakdown(acct *core.Account) []core.CategoryAmount {
	if acct.Categories == nil {
		return []core.CategoryAmount{}
	}
	return acct.Categories.Amounts()
}

// Build assembles the report for acct.
func Build(acct *core.Account) core.Report {
	total := TotalExpenses(acct)
	return core.Report{
		Breakdown:     CategoryBreakdown(acct),
		Income:        acct.Income,
		TotalExpenses: total,
		Balance:       acct.Income.Sub(total),
		Budget:        acct.Budget,
	}
}
