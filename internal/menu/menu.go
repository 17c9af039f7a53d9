// Package menu runs the interactive command loop.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"pocketbook/internal/accounts"
	"pocketbook/internal/core"
	"pocketbook/internal/export"
	"pocketbook/internal/log"
	"pocketbook/internal/render"
)

// Ledger is the set of operations the menu drives.
type Ledger interface {
	CurrentUser() string
	CreateAccount(ctx context.Context, username, credential string) error
	Login(ctx context.Context, username, credential string) error
	Logout(ctx context.Context) error
	AddIncome(ctx context.Context, amount core.Money) error
	AddExpense(ctx context.Context, amount core.Money, description, category, date string) (core.ExpenseEntry, error)
	AddRecurringExpense(ctx context.Context, amount core.Money, description, category, frequency string) (core.ExpenseEntry, error)
	SetBudget(ctx context.Context, amount core.Money) error
	Balance(ctx context.Context) (core.Money, error)
	Report(ctx context.Context) (core.Report, error)
}

type Menu struct {
	ledger    Ledger
	exporters []export.Exporter
	in        *bufio.Scanner
	out       io.Writer
	logger    *log.Logger

	heading *color.Color
	success *color.Color
	failure *color.Color
	notice  *color.Color
}

func New(ledger Ledger, exporters []export.Exporter, in io.Reader, out io.Writer, logger *log.Logger) *Menu {
	if logger == nil {
		logger = log.Discard()
	}
	return &Menu{
		ledger:    ledger,
		exporters: exporters,
		in:        bufio.NewScanner(in),
		out:       out,
		logger:    logger.WithComponent(log.ComponentMenu),
		heading:   color.New(color.FgCyan, color.Bold),
		success:   color.New(color.FgGreen),
		failure:   color.New(color.FgRed),
		notice:    color.New(color.FgYellow),
	}
}

// DisableColor turns off escape sequences regardless of the terminal.
func (m *Menu) DisableColor() {
	m.heading.DisableColor()
	m.success.DisableColor()
	m.failure.DisableColor()
	m.notice.DisableColor()
}

// Run shows the menu until the operator enters q, input ends or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, err := m.prompt("Enter your choice: ")
		if err != nil {
			return ignoreEOF(err)
		}

		choice = strings.TrimSpace(choice)
		if strings.EqualFold(choice, "q") {
			return nil
		}

		if m.ledger.CurrentUser() != "" {
			err = m.loggedIn(ctx, choice)
		} else {
			err = m.loggedOut(ctx, choice)
		}
		if err != nil {
			return ignoreEOF(err)
		}
	}
}

func (m *Menu) printMenu() {
	m.heading.Fprintln(m.out, "\nExpense Tracker")
	if user := m.ledger.CurrentUser(); user != "" {
		fmt.Fprintf(m.out, "Current User: %s\n", user)
		fmt.Fprintln(m.out, "1. Add Income")
		fmt.Fprintln(m.out, "2. Add Expense")
		fmt.Fprintln(m.out, "3. Add Recurring Expense")
		fmt.Fprintln(m.out, "4. Set Monthly Budget")
		fmt.Fprintln(m.out, "5. View Balance")
		fmt.Fprintln(m.out, "6. Generate Report")
		fmt.Fprintln(m.out, "7. Logout")
	} else {
		fmt.Fprintln(m.out, "1. Create New User")
		fmt.Fprintln(m.out, "2. Login")
	}
	fmt.Fprintln(m.out, "q. Quit")
}

func (m *Menu) loggedOut(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		return m.createAccount(ctx)
	case "2":
		return m.login(ctx)
	default:
		m.invalidChoice()
		return nil
	}
}

func (m *Menu) loggedIn(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		return m.addIncome(ctx)
	case "2":
		return m.addExpense(ctx)
	case "3":
		return m.addRecurringExpense(ctx)
	case "4":
		return m.setBudget(ctx)
	case "5":
		return m.viewBalance(ctx)
	case "6":
		return m.generateReport(ctx)
	case "7":
		if err := m.ledger.Logout(ctx); err != nil {
			m.fail(err)
			return nil
		}
		m.ok("Logged out.")
		return nil
	default:
		m.invalidChoice()
		return nil
	}
}

func (m *Menu) createAccount(ctx context.Context) error {
	username, err := m.prompt("Enter a username: ")
	if err != nil {
		return err
	}
	password, err := m.prompt("Enter a password: ")
	if err != nil {
		return err
	}
	if err := m.ledger.CreateAccount(ctx, username, password); err != nil {
		m.fail(err)
		return nil
	}
	m.ok("User created successfully!")
	return nil
}

func (m *Menu) login(ctx context.Context) error {
	username, err := m.prompt("Enter username: ")
	if err != nil {
		return err
	}
	password, err := m.prompt("Enter password: ")
	if err != nil {
		return err
	}
	if err := m.ledger.Login(ctx, username, password); err != nil {
		m.fail(err)
		return nil
	}
	m.ok(fmt.Sprintf("Welcome %s!", username))
	return nil
}

func (m *Menu) addIncome(ctx context.Context) error {
	amount, ok, err := m.promptAmount("Enter income amount: ")
	if err != nil || !ok {
		return err
	}
	if err := m.ledger.AddIncome(ctx, amount); err != nil {
		m.fail(err)
		return nil
	}
	m.ok(fmt.Sprintf("Income of %s added.", core.FormatCurrency(amount)))
	return nil
}

func (m *Menu) addExpense(ctx context.Context) error {
	amount, ok, err := m.promptAmount("Enter expense amount: ")
	if err != nil || !ok {
		return err
	}
	fields, err := m.promptAll(
		"Enter expense description: ",
		"Enter expense category: ",
		"Enter expense date (yyyy-mm-dd): ",
	)
	if err != nil {
		return err
	}
	entry, err := m.ledger.AddExpense(ctx, amount, fields[0], fields[1], strings.TrimSpace(fields[2]))
	if err != nil {
		m.fail(err)
		return nil
	}
	m.ok(fmt.Sprintf("Expense of %s added under %s.", core.FormatCurrency(entry.Amount), entry.Category))
	return nil
}

func (m *Menu) addRecurringExpense(ctx context.Context) error {
	amount, ok, err := m.promptAmount("Enter recurring expense amount: ")
	if err != nil || !ok {
		return err
	}
	fields, err := m.promptAll(
		"Enter expense description: ",
		"Enter expense category: ",
		"Is this expense recurring? (monthly/weekly): ",
	)
	if err != nil {
		return err
	}
	entry, err := m.ledger.AddRecurringExpense(ctx, amount, fields[0], fields[1], fields[2])
	if err != nil {
		m.fail(err)
		return nil
	}
	m.ok(fmt.Sprintf("Recurring expense of %s added under %s with %s frequency.",
		core.FormatCurrency(entry.Amount), entry.Category, entry.Frequency))
	if !entry.Frequency.Known() {
		m.notice.Fprintf(m.out, "Note: '%s' is not a known frequency (monthly/weekly); it was stored as given.\n", entry.Frequency)
	}
	return nil
}

func (m *Menu) setBudget(ctx context.Context) error {
	amount, ok, err := m.promptAmount("Enter your monthly budget: ")
	if err != nil || !ok {
		return err
	}
	if err := m.ledger.SetBudget(ctx, amount); err != nil {
		m.fail(err)
		return nil
	}
	m.ok(fmt.Sprintf("Monthly budget set to %s.", core.FormatCurrency(amount)))
	return nil
}

func (m *Menu) viewBalance(ctx context.Context) error {
	balance, err := m.ledger.Balance(ctx)
	if err != nil {
		m.fail(err)
		return nil
	}
	fmt.Fprintln(m.out, render.BalanceLine(balance))
	return nil
}

func (m *Menu) generateReport(ctx context.Context) error {
	r, err := m.ledger.Report(ctx)
	if err != nil {
		m.fail(err)
		return nil
	}
	if err := render.Report(m.out, r); err != nil {
		return err
	}
	if err := render.Chart(m.out, r.Breakdown, render.DefaultBarWidth); err != nil {
		return err
	}

	user := m.ledger.CurrentUser()
	results := export.Fanout(ctx, user, r, m.exporters...)
	for _, res := range results {
		if res.Err != nil {
			m.fail(res.Err)
			continue
		}
		if p, ok := res.Exporter.(interface{ Path(string) string }); ok {
			m.ok(fmt.Sprintf("Report exported to '%s'.", p.Path(user)))
		}
	}
	if err := export.Failures(results); err != nil {
		m.logger.ErrorContext(ctx, "Report export failed",
			log.NewFields().WithOperation(log.OpExport).WithUsername(user).WithError(err).ToSlice()...)
	}
	return nil
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		fmt.Fprintln(m.out)
		return "", io.EOF
	}
	return m.in.Text(), nil
}

func (m *Menu) promptAll(labels ...string) ([]string, error) {
	values := make([]string, len(labels))
	for i, label := range labels {
		v, err := m.prompt(label)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// promptAmount reports ok=false after telling the operator the amount was
// rejected.
func (m *Menu) promptAmount(label string) (core.Money, bool, error) {
	text, err := m.prompt(label)
	if err != nil {
		return core.Money{}, false, err
	}
	amount, err := core.ParseAmount(text)
	if err != nil {
		m.fail(err)
		return core.Money{}, false, nil
	}
	return amount, true, nil
}

func (m *Menu) invalidChoice() {
	m.failure.Fprintln(m.out, "Invalid choice. Please try again.")
}

func (m *Menu) ok(msg string) {
	m.success.Fprintln(m.out, msg)
}

func (m *Menu) fail(err error) {
	m.failure.Fprintln(m.out, Message(err))
}

// Message is the operator-facing text for err.
func Message(err error) string {
	switch {
	case errors.Is(err, accounts.ErrDuplicateUsername):
		return "Username already exists."
	case errors.Is(err, accounts.ErrUnknownUsername):
		return "Username not found."
	case errors.Is(err, accounts.ErrInvalidCredential):
		return "Incorrect password."
	case errors.Is(err, accounts.ErrEmptyUsername):
		return "Username cannot be empty."
	case errors.Is(err, accounts.ErrNotLoggedIn):
		return "Please log in first."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Invalid amount. Please enter a number."
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date. Please use YYYY-MM-DD."
	default:
		return "Error: " + err.Error()
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
