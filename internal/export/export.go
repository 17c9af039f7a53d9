// Package export writes a report to one or more destinations.
package export

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pocketbook/internal/core"
)

// Exporter writes the rows of a user's report somewhere.
type Exporter interface {
	Name() string
	Export(ctx context.Context, username string, r core.Report) error
}

// Row labels that follow the category breakdown.
const (
	HeaderCategory = "Category"
	HeaderAmount   = "Amount"
	TotalLabel     = "Total Expenses"
	BalanceLabel   = "Balance"
)

// Rows lays the report out as a header, one row per category, then the
// total and the balance. Amounts are plain two-decimal numbers.
func Rows(r core.Report) [][]string {
	rows := make([][]string, 0, len(r.Breakdown)+3)
	rows = append(rows, []string{HeaderCategory, HeaderAmount})
	for _, ca := range r.Breakdown {
		rows = append(rows, []string{ca.Name, ca.Amount.String()})
	}
	rows = append(rows,
		[]string{TotalLabel, r.TotalExpenses.String()},
		[]string{BalanceLabel, r.Balance.String()},
	)
	return rows
}

// Result is the outcome of one exporter within a Fanout.
type Result struct {
	Exporter Exporter
	Err      error
}

// Fanout runs every exporter concurrently and returns one Result per
// exporter, in the order given. One failing exporter does not cancel the
// others.
func Fanout(ctx context.Context, username string, r core.Report, exporters ...Exporter) []Result {
	results := make([]Result, len(exporters))
	var g errgroup.Group
	for i, ex := range exporters {
		g.Go(func() error {
			results[i] = Result{Exporter: ex}
			if err := ex.Export(ctx, username, r); err != nil {
				results[i].Err = fmt.Errorf("%s export: %w", ex.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failures joins the errors of the failed results, or returns nil.
func Failures(results []Result) error {
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}
