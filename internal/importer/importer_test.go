package importer_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vermlab/laudo/internal/catalog"
	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/internal/importer"
	"github.com/vermlab/laudo/internal/samples"
	"github.com/vermlab/laudo/pkg/formatting"
	"github.com/vermlab/laudo/pkg/pagination"
)

type recordedResult struct {
	sampleID uuid.UUID
	cmd      samples.ResultCommand
}

// fakeSamples captures Import calls and serves canned data for export. Import
// mirrors the store's transactional contract: a bad cell anywhere in the row
// records nothing.
type fakeSamples struct {
	created  []samples.CreateCommand
	recorded []recordedResult
	listed   []samples.Sample
	results  map[uuid.UUID][]samples.Result
}

func (f *fakeSamples) Handler() *samples.Handler { return nil }

func (f *fakeSamples) Create(_ context.Context, _ samples.Kind, cmd samples.CreateCommand) (*samples.Sample, error) {
	if _, err := samples.ParseShift(cmd.Shift); err != nil {
		return nil, err
	}
	f.created = append(f.created, cmd)
	return &samples.Sample{ID: uuid.New(), Operator: cmd.Operator}, nil
}

func (f *fakeSamples) Import(_ context.Context, _ samples.Kind, cmd samples.CreateCommand, results []samples.ResultCommand) (*samples.Sample, error) {
	if _, err := samples.ParseShift(cmd.Shift); err != nil {
		return nil, err
	}
	for _, rc := range results {
		if _, err := formatting.ParseDecimal(rc.Value); err != nil {
			return nil, fmt.Errorf("property %s: %w", rc.PropertyIdentifier, samples.ErrInvalidValue)
		}
	}

	smp := &samples.Sample{ID: uuid.New(), Operator: cmd.Operator}
	f.created = append(f.created, cmd)
	for _, rc := range results {
		f.recorded = append(f.recorded, recordedResult{sampleID: smp.ID, cmd: rc})
	}
	return smp, nil
}

func (f *fakeSamples) Find(context.Context, samples.Kind, uuid.UUID) (*samples.Sample, error) {
	return nil, samples.ErrNotFound
}

func (f *fakeSamples) List(_ context.Context, _ samples.Kind, page pagination.PageRequest, _ samples.Filters) (*pagination.PageResult[samples.Sample], error) {
	res := pagination.NewPageResult(f.listed, len(f.listed), page.Page, page.PageSize)
	return &res, nil
}

func (f *fakeSamples) Results(_ context.Context, _ samples.Kind, id uuid.UUID) ([]samples.Result, error) {
	return f.results[id], nil
}

func (f *fakeSamples) RecordResult(_ context.Context, _ samples.Kind, sampleID uuid.UUID, cmd samples.ResultCommand) (*samples.Result, error) {
	if _, err := formatting.ParseDecimal(cmd.Value); err != nil {
		return nil, samples.ErrInvalidValue
	}
	f.recorded = append(f.recorded, recordedResult{sampleID: sampleID, cmd: cmd})
	return &samples.Result{SampleID: sampleID, PropertyIdentifier: cmd.PropertyIdentifier}, nil
}

func (f *fakeSamples) SealComposite(context.Context, uuid.UUID) (*samples.Sample, error) {
	return nil, samples.ErrNotFound
}

func (f *fakeSamples) CheckDrift(context.Context) (*samples.DriftReport, error) {
	return &samples.DriftReport{}, nil
}

type fakeCatalog struct {
	properties []catalog.AnalysisProperty
}

func (f *fakeCatalog) Handler() *catalog.Handler { return nil }

func (f *fakeCatalog) ListProducts(context.Context, bool) ([]catalog.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateProduct(context.Context, catalog.ProductCommand) (*catalog.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) UpdateProduct(context.Context, uuid.UUID, catalog.ProductCommand) (*catalog.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) ListProperties(context.Context, bool) ([]catalog.Property, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateProperty(context.Context, catalog.PropertyCommand) (*catalog.Property, error) {
	return nil, nil
}

func (f *fakeCatalog) ListAnalysisTypes(context.Context) ([]catalog.AnalysisType, error) {
	return nil, nil
}

func (f *fakeCatalog) PropertiesFor(context.Context, string, bool) ([]catalog.AnalysisProperty, error) {
	return f.properties, nil
}

func (f *fakeCatalog) SpecFor(context.Context, uuid.UUID, uuid.UUID) (*catalog.Specification, error) {
	return nil, catalog.ErrNoSpecification
}

func (f *fakeCatalog) ReplaceSpec(context.Context, catalog.SpecCommand) (*catalog.Specification, error) {
	return nil, nil
}

func (f *fakeCatalog) SpecHistory(context.Context, string, string) ([]catalog.Specification, error) {
	return nil, nil
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write workbook: %v", err)
	}
	return &buf
}

var importHeader = []any{"date", "hour", "analysis_type", "product_code", "line", "shift", "sequence", "umidade", "teor_verm"}

func TestImportSamples(t *testing.T) {
	store := &fakeSamples{}
	sys := importer.New(&fakeCatalog{}, store, slog.New(slog.DiscardHandler))

	buf := workbook(t, [][]any{
		importHeader,
		{"2026-03-15", "08:30", "POINT", "VM-30", "L1", "A", 1, "12,5", "88.0"},
		{"", "", "", "", "", "", "", "", ""},
		{"2026-03-15", "10:30", "POINT", "VM-30", "L1", "A", 2, "", "87.2"},
	})

	report, err := sys.ImportSamples(context.Background(), "maria", buf)
	if err != nil {
		t.Fatalf("ImportSamples error: %v", err)
	}

	if report.Created != 2 || report.Failed != 0 {
		t.Fatalf("report = %d created, %d failed, want 2 and 0", report.Created, report.Failed)
	}
	if len(store.created) != 2 {
		t.Fatalf("len(created) = %d, want 2", len(store.created))
	}

	first := store.created[0]
	if first.Date != "2026-03-15" || first.Shift != "A" || first.Sequence != 1 || first.Operator != "maria" {
		t.Errorf("first create = %+v", first)
	}

	// Row one records both properties, row two only the non-empty cell.
	if len(store.recorded) != 3 {
		t.Fatalf("len(recorded) = %d, want 3", len(store.recorded))
	}
	if store.recorded[0].cmd.PropertyIdentifier != "umidade" || store.recorded[0].cmd.Value != "12,5" {
		t.Errorf("recorded[0] = %+v", store.recorded[0].cmd)
	}
	if store.recorded[2].cmd.PropertyIdentifier != "teor_verm" {
		t.Errorf("recorded[2] = %+v", store.recorded[2].cmd)
	}
}

func TestImportSamplesRowFailuresAreIsolated(t *testing.T) {
	store := &fakeSamples{}
	sys := importer.New(&fakeCatalog{}, store, slog.New(slog.DiscardHandler))

	buf := workbook(t, [][]any{
		importHeader,
		{"2026-03-15", "08:30", "GRANULOMETRIA", "VM-30", "L1", "A", 1, "12.5", ""},
		{"2026-03-15", "09:30", "POINT", "VM-30", "L1", "A", "first", "12.5", ""},
		{"2026-03-15", "10:30", "POINT", "VM-30", "L1", "A", 2, "not-a-number", ""},
		{"2026-03-15", "11:30", "POINT", "VM-30", "L1", "A", 3, "12.5", ""},
	})

	report, err := sys.ImportSamples(context.Background(), "maria", buf)
	if err != nil {
		t.Fatalf("ImportSamples error: %v", err)
	}

	if report.Created != 1 || report.Failed != 3 {
		t.Fatalf("report = %d created, %d failed, want 1 and 3", report.Created, report.Failed)
	}
	if len(report.Errors) != 3 {
		t.Fatalf("len(Errors) = %d, want 3", len(report.Errors))
	}

	// Row numbers match what a spreadsheet editor displays.
	for i, wantRow := range []int{2, 3, 4} {
		if report.Errors[i].Row != wantRow {
			t.Errorf("Errors[%d].Row = %d, want %d", i, report.Errors[i].Row, wantRow)
		}
	}
	if !strings.Contains(report.Errors[2].Message, "umidade") {
		t.Errorf("Errors[2].Message = %q, want the failing property named", report.Errors[2].Message)
	}
}

func TestImportSamplesRowsAreAtomic(t *testing.T) {
	store := &fakeSamples{}
	sys := importer.New(&fakeCatalog{}, store, slog.New(slog.DiscardHandler))

	// The first property parses, the second does not; the whole row must fail
	// without leaving the sample or the first result behind.
	buf := workbook(t, [][]any{
		importHeader,
		{"2026-03-15", "08:30", "POINT", "VM-30", "L1", "A", 1, "12.5", "n/a"},
	})

	report, err := sys.ImportSamples(context.Background(), "maria", buf)
	if err != nil {
		t.Fatalf("ImportSamples error: %v", err)
	}

	if report.Created != 0 || report.Failed != 1 {
		t.Fatalf("report = %d created, %d failed, want 0 and 1", report.Created, report.Failed)
	}
	if len(store.created) != 0 {
		t.Errorf("len(created) = %d, want no orphan sample", len(store.created))
	}
	if len(store.recorded) != 0 {
		t.Errorf("len(recorded) = %d, want no partial results", len(store.recorded))
	}
}

func TestImportSamplesRejectsBadHeader(t *testing.T) {
	sys := importer.New(&fakeCatalog{}, &fakeSamples{}, slog.New(slog.DiscardHandler))

	buf := workbook(t, [][]any{
		{"date", "hour", "kind", "product_code", "line", "shift", "sequence"},
	})

	_, err := sys.ImportSamples(context.Background(), "maria", buf)
	if err == nil {
		t.Fatal("expected error for misnamed column, got nil")
	}

	if _, err := sys.ImportSamples(context.Background(), "maria", bytes.NewReader([]byte("not a workbook"))); err == nil {
		t.Fatal("expected error for non-xlsx payload, got nil")
	}
}

func analysisProperty(identifier string, precision int) catalog.AnalysisProperty {
	return catalog.AnalysisProperty{
		Property: catalog.Property{
			ID:         uuid.New(),
			Identifier: identifier,
			Precision:  precision,
			Active:     true,
		},
		Required: true,
	}
}

func TestExportSamplesMirrorsImportSchema(t *testing.T) {
	umidade := analysisProperty("umidade", 1)
	teor := analysisProperty("teor_verm", 2)

	smp := samples.Sample{
		ID:             uuid.New(),
		Kind:           samples.KindPoint,
		Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Shift:          samples.ShiftA,
		ProductionLine: "L1",
		ProductCode:    "VM-30",
		Sequence:       1,
		SampleTime:     "08:30",
		Operator:       "maria",
		Verdict:        classify.VerdictApproved,
	}

	store := &fakeSamples{
		listed: []samples.Sample{smp},
		results: map[uuid.UUID][]samples.Result{
			smp.ID: {
				{PropertyIdentifier: "umidade", Value: mustDecimal(t, "12.5"), Precision: 1},
				{PropertyIdentifier: "teor_verm", Value: mustDecimal(t, "88"), Precision: 2},
			},
		},
	}
	sys := importer.New(&fakeCatalog{properties: []catalog.AnalysisProperty{umidade, teor}}, store, slog.New(slog.DiscardHandler))

	var buf bytes.Buffer
	if err := sys.ExportSamples(context.Background(), "POINT", "2026-03-15", "A", &buf); err != nil {
		t.Fatalf("ExportSamples error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want header plus one sample", len(rows))
	}

	wantHeader := []string{"date", "hour", "analysis_type", "product_code", "line", "shift", "sequence", "umidade", "teor_verm"}
	for i, want := range wantHeader {
		if rows[0][i] != want {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want)
		}
	}

	wantRow := []string{"2026-03-15", "08:30", "POINT", "VM-30", "L1", "A", "1", "12.5", "88.00"}
	for i, want := range wantRow {
		if rows[1][i] != want {
			t.Errorf("row[%d] = %q, want %q", i, rows[1][i], want)
		}
	}
}

func TestExportSamplesRejectsUnknownAnalysisType(t *testing.T) {
	sys := importer.New(&fakeCatalog{}, &fakeSamples{}, slog.New(slog.DiscardHandler))

	var buf bytes.Buffer
	err := sys.ExportSamples(context.Background(), "WEEKLY", "", "", &buf)
	if err == nil {
		t.Fatal("expected error for unknown analysis type, got nil")
	}
	if !strings.Contains(err.Error(), "WEEKLY") {
		t.Errorf("error = %v, want the rejected value named", err)
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := formatting.ParseDecimal(s)
	if err != nil {
		t.Fatalf("ParseDecimal(%q): %v", s, err)
	}
	return v
}
