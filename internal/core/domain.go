package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for one-off expenses.
const DateLayout = "2006-01-02"

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
)

type (
	// Frequency is the repetition tag carried by a recurring expense.
	// Values other than Monthly and Weekly are stored as given.
	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// ExpenseEntry is either a one-off expense (Date set) or a recurring
	// one (Recurring true, Frequency set). Both live in the same sequence.
	ExpenseEntry struct {
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Date        *Date     `json:"date,omitempty"`
		Frequency   Frequency `json:"frequency,omitempty"`
		Recurring   bool      `json:"recurring,omitempty"`
	}

	// Account is the per-user ledger state.
	Account struct {
		Credential string          `json:"password"`
		Income     Money           `json:"income"`
		Expenses   []ExpenseEntry  `json:"expenses"`
		Categories *CategoryTotals `json:"categories"`
		Budget     Money           `json:"budget"`
		// Monthly is reserved; no operation writes it.
		Monthly map[string]Money `json:"monthly_expenses"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// NewAccount returns a zero-valued account holding the given credential.
func NewAccount(credential string) *Account {
	return &Account{
		Credential: credential,
		Expenses:   []ExpenseEntry{},
		Categories: NewCategoryTotals(),
		Monthly:    map[string]Money{},
	}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON writes a recurring entry with its frequency key even when the
// frequency is empty, and a one-off entry without it.
func (e ExpenseEntry) MarshalJSON() ([]byte, error) {
	if !e.Recurring {
		type plain ExpenseEntry
		return json.Marshal(plain(e))
	}
	return json.Marshal(struct {
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Frequency   Frequency `json:"frequency"`
		Recurring   bool      `json:"recurring"`
	}{e.Amount, e.Description, e.Category, e.Frequency, true})
}

// NormalizeFrequency lower-cases and trims operator input.
func NormalizeFrequency(s string) Frequency {
	return Frequency(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether f is one of the frequencies the menu offers.
func (f Frequency) Known() bool {
	switch f {
	case Monthly, Weekly:
		return true
	default:
		return false
	}
}

// UnmarshalJSON fills in the containers a hand-edited record may omit.
func (a *Account) UnmarshalJSON(data []byte) error {
	type plain Account
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Expenses == nil {
		p.Expenses = []ExpenseEntry{}
	}
	if p.Categories == nil {
		p.Categories = NewCategoryTotals()
	}
	if p.Monthly == nil {
		p.Monthly = map[string]Money{}
	}
	*a = Account(p)
	return nil
}
