package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vermlab/laudo/internal/catalog"
	"github.com/vermlab/laudo/internal/samples"
	"github.com/vermlab/laudo/pkg/formatting"
	"github.com/vermlab/laudo/pkg/pagination"
)

var fixedColumns = []string{"date", "hour", "analysis_type", "product_code", "line", "shift", "sequence"}

// ErrBadWorkbook marks a workbook whose structure cannot be read at all, as
// opposed to individual row failures.
var ErrBadWorkbook = errors.New("workbook format not recognized")

type service struct {
	catalog catalog.System
	samples samples.System
	logger  *slog.Logger
}

// New creates an importer over the catalog and sample stores.
func New(catalogSys catalog.System, sampleSys samples.System, logger *slog.Logger) System {
	return &service{
		catalog: catalogSys,
		samples: sampleSys,
		logger:  logger.With("system", "importer"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) ImportSamples(ctx context.Context, operator string, r io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrBadWorkbook)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%w: missing header row", ErrBadWorkbook)
	}

	header := rows[0]
	if len(header) < len(fixedColumns) {
		return nil, fmt.Errorf("%w: expected columns %s", ErrBadWorkbook, strings.Join(fixedColumns, ", "))
	}
	for i, want := range fixedColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadWorkbook, i+1, header[i], want)
		}
	}
	properties := header[len(fixedColumns):]

	report := &ImportReport{Errors: []RowError{}}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		if err := s.importRow(ctx, operator, properties, row); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		report.Created++
	}

	s.logger.Info("sample import finished",
		"created", report.Created,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *service) importRow(ctx context.Context, operator string, properties, row []string) error {
	kind, err := parseKind(cell(row, 2))
	if err != nil {
		return err
	}

	sequence, err := strconv.Atoi(cell(row, 6))
	if err != nil {
		return fmt.Errorf("sequence %q is not a number", cell(row, 6))
	}

	var results []samples.ResultCommand
	for j, identifier := range properties {
		value := cell(row, len(fixedColumns)+j)
		if value == "" {
			continue
		}
		results = append(results, samples.ResultCommand{
			PropertyIdentifier: strings.TrimSpace(identifier),
			Value:              value,
		})
	}

	// One transaction per row: a bad cell rolls back the sample too, so a
	// corrected re-import does not collide with a half-written row.
	_, err = s.samples.Import(ctx, kind, samples.CreateCommand{
		Date:           cell(row, 0),
		Time:           cell(row, 1),
		ProductCode:    cell(row, 3),
		ProductionLine: cell(row, 4),
		Shift:          cell(row, 5),
		Sequence:       sequence,
		Operator:       operator,
	}, results)
	return err
}

func (s *service) ExportSamples(ctx context.Context, analysisType, date, shift string, w io.Writer) error {
	kind, err := parseKind(analysisType)
	if err != nil {
		return err
	}

	properties, err := s.catalog.PropertiesFor(ctx, analysisType, true)
	if err != nil {
		return err
	}

	page := pagination.PageRequest{Page: 1, PageSize: exportPageSize}
	filters := samples.Filters{}
	if date != "" {
		filters.Date = &date
	}
	if shift != "" {
		filters.Shift = &shift
	}

	result, err := s.samples.List(ctx, kind, page, filters)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]

	header := make([]any, 0, len(fixedColumns)+len(properties))
	for _, c := range fixedColumns {
		header = append(header, c)
	}
	for _, p := range properties {
		header = append(header, p.Identifier)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, smp := range result.Data {
		values, err := s.resultValues(ctx, kind, smp)
		if err != nil {
			return err
		}

		excelRow := []any{
			smp.Date.Format("2006-01-02"),
			smp.SampleTime,
			analysisType,
			smp.ProductCode,
			smp.ProductionLine,
			string(smp.Shift),
			smp.Sequence,
		}
		for _, p := range properties {
			excelRow = append(excelRow, values[p.Identifier])
		}

		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cellName, &excelRow); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

const exportPageSize = 500

func (s *service) resultValues(ctx context.Context, kind samples.Kind, smp samples.Sample) (map[string]string, error) {
	results, err := s.samples.Results(ctx, kind, smp.ID)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(results))
	for _, res := range results {
		values[res.PropertyIdentifier] = formatting.FormatDecimal(res.Value, res.Precision)
	}
	return values, nil
}

func parseKind(analysisType string) (samples.Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(analysisType)) {
	case catalog.AnalysisPoint:
		return samples.KindPoint, nil
	case catalog.AnalysisComposite:
		return samples.KindComposite, nil
	}
	return "", fmt.Errorf("analysis_type %q must be %s or %s", analysisType, catalog.AnalysisPoint, catalog.AnalysisComposite)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
