package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lesniewskii/weight-tracker/internal/domain"
	"github.com/lesniewskii/weight-tracker/internal/metrics"
)

// ExportFileName is the default name of an exported file.
const ExportFileName = "weight_measurements.csv"

// ErrEmptyImport indicates an import file without data rows.
var ErrEmptyImport = errors.New("import file has no rows")

// TransferService backs the CSV import and export buttons.
type TransferService struct {
	api     domain.Transfer
	refresh domain.Invalidator
	metrics *metrics.Manager
}

// NewTransferService creates a TransferService.
func NewTransferService(api domain.Transfer, refresh domain.Invalidator, m *metrics.Manager) *TransferService {
	return &TransferService{api: api, refresh: refresh, metrics: m}
}

// Import checks that r is a CSV file with a header naming the date and
// weight columns and at least one row, then uploads it.
func (s *TransferService) Import(ctx context.Context, filename string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	if err := checkCSV(data); err != nil {
		return err
	}
	if filename == "" {
		filename = ExportFileName
	}
	err = s.api.ImportCSV(ctx, filename, bytes.NewReader(data))
	s.metrics.Mutation("import", err)
	if err != nil {
		return err
	}
	s.refresh.Invalidate()
	return nil
}

// Export returns the user's measurements as CSV.
func (s *TransferService) Export(ctx context.Context) ([]byte, error) {
	return s.api.ExportCSV(ctx)
}

func checkCSV(data []byte) error {
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return fmt.Errorf("invalid csv: %w", err)
	}
	if len(rows) < 2 {
		return ErrEmptyImport
	}
	var hasDate, hasWeight bool
	for _, col := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "measurement_date", "date":
			hasDate = true
		case "weight":
			hasWeight = true
		}
	}
	if !hasDate || !hasWeight {
		return fmt.Errorf("invalid csv: header must name date and weight columns, got %q", rows[0])
	}
	return nil
}
