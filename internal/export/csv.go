package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"pocketbook/internal/core"
)

// CSVExporter writes <username>_expense_report.csv into Dir.
type CSVExporter struct {
	Dir string
}

var _ Exporter = (*CSVExporter)(nil)

func NewCSVExporter(dir string) *CSVExporter {
	if dir == "" {
		dir = "."
	}
	return &CSVExporter{Dir: dir}
}

func (e *CSVExporter) Name() string { return "csv" }

// Path returns the file the report for username is written to.
func (e *CSVExporter) Path(username string) string {
	return filepath.Join(e.Dir, username+"_expense_report.csv")
}

// Export overwrites any earlier report for the same user.
func (e *CSVExporter) Export(ctx context.Context, username string, r core.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := e.Path(username)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(Rows(r)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
