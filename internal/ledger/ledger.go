// Package ledger applies the additive mutations to an account: income,
// one-off and recurring expenses, and the budget.
//
// Callers resolve the account through the session first; nothing here
// checks who is logged in. A mutation that would push a running total past
// core.MaxTotalCents returns core.ErrInvalidAmount and changes nothing.
package ledger

import (
	"fmt"

	"pocketbook/internal/core"
)

// AddIncome increments the income total.
func AddIncome(acct *core.Account, amount core.Money) error {
	income, err := acct.Income.CheckedAdd(amount)
	if err != nil {
		return fmt.Errorf("income: %w", err)
	}
	acct.Income = income
	return nil
}

// AddExpense records a one-off expense dated date (YYYY-MM-DD). A malformed
// date returns core.ErrInvalidDate and leaves the account untouched.
func AddExpense(acct *core.Account, amount core.Money, description, category, date string) (core.ExpenseEntry, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	entry := core.ExpenseEntry{
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        &d,
	}
	if err := appendEntry(acct, entry); err != nil {
		return core.ExpenseEntry{}, err
	}
	return entry, nil
}

// AddRecurringExpense records one occurrence of a recurring expense. The
// frequency is normalized but not restricted to the known values, and
// nothing is re-applied on later periods.
func AddRecurringExpense(acct *core.Account, amount core.Money, description, category, frequency string) (core.ExpenseEntry, error) {
	entry := core.ExpenseEntry{
		Amount:      amount,
		Description: description,
		Category:    category,
		Frequency:   core.NormalizeFrequency(frequency),
		Recurring:   true,
	}
	if err := appendEntry(acct, entry); err != nil {
		return core.ExpenseEntry{}, err
	}
	return entry, nil
}

// SetBudget overwrites the budget.
func SetBudget(acct *core.Account, amount core.Money) error {
	if !amount.InTotalRange() {
		return fmt.Errorf("budget: %w: out of range", core.ErrInvalidAmount)
	}
	acct.Budget = amount
	return nil
}

// appendEntry keeps the category aggregate in step with the sequence. Both
// the category total and the overall expense total are checked before
// either changes.
func appendEntry(acct *core.Account, entry core.ExpenseEntry) error {
	if acct.Categories == nil {
		acct.Categories = core.NewCategoryTotals()
	}
	current, _ := acct.Categories.Get(entry.Category)
	if _, err := current.CheckedAdd(entry.Amount); err != nil {
		return fmt.Errorf("category %q: %w", entry.Category, err)
	}
	if _, err := acct.Categories.Sum().CheckedAdd(entry.Amount); err != nil {
		return fmt.Errorf("total expenses: %w", err)
	}
	acct.Expenses = append(acct.Expenses, entry)
	acct.Categories.Add(entry.Category, entry.Amount)
	return nil
}
