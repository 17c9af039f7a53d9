package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Report is the read-only projection of an account used for display and export.
type Report struct {
	Breakdown     []CategoryAmount
	Income        Money
	TotalExpenses Money
	Balance       Money
	Budget        Money
}

// BudgetRemaining is the budget left after all recorded expenses; negative
// when overspent.
func (r Report) BudgetRemaining() Money {
	return r.Budget.Sub(r.TotalExpenses)
}
