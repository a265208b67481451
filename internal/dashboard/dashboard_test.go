package dashboard_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/catalog"
	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/internal/dashboard"
	"github.com/vermlab/laudo/internal/samples"
	"github.com/vermlab/laudo/pkg/pagination"
)

func plantClock(t *testing.T) dashboard.Clock {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return dashboard.Clock{Location: loc, DayStart: "07:00", DayEnd: "19:00"}
}

func TestClockWindow(t *testing.T) {
	clock := plantClock(t)

	tests := []struct {
		name      string
		local     string
		wantDate  string
		wantShift samples.Shift
	}{
		{"day shift opens", "2026-03-15T07:00:00", "2026-03-15", samples.ShiftA},
		{"midday", "2026-03-15T12:30:00", "2026-03-15", samples.ShiftA},
		{"last minute of day shift", "2026-03-15T18:59:59", "2026-03-15", samples.ShiftA},
		{"night shift opens", "2026-03-15T19:00:00", "2026-03-15", samples.ShiftB},
		{"before midnight", "2026-03-15T23:45:00", "2026-03-15", samples.ShiftB},
		{"after midnight belongs to previous date", "2026-03-16T02:00:00", "2026-03-15", samples.ShiftB},
		{"last minute before day shift", "2026-03-16T06:59:59", "2026-03-15", samples.ShiftB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.ParseInLocation("2006-01-02T15:04:05", tt.local, clock.Location)
			if err != nil {
				t.Fatalf("ParseInLocation: %v", err)
			}

			date, shift := clock.Window(now)
			if date != tt.wantDate || shift != tt.wantShift {
				t.Errorf("Window(%s) = (%s, %s), want (%s, %s)",
					tt.local, date, shift, tt.wantDate, tt.wantShift)
			}
		})
	}
}

func TestClockWindowConvertsLocation(t *testing.T) {
	clock := plantClock(t)

	// 2026-03-15T21:30:00Z is 18:30 in Sao Paulo (UTC-3), still shift A there.
	now := time.Date(2026, 3, 15, 21, 30, 0, 0, time.UTC)
	date, shift := clock.Window(now)
	if date != "2026-03-15" || shift != samples.ShiftA {
		t.Errorf("Window(UTC instant) = (%s, %s), want (2026-03-15, A)", date, shift)
	}
}

// fakeSamples serves canned samples and results so Board assembly can be
// exercised without a database. The filters of the last List call are kept
// for assertion.
type fakeSamples struct {
	data        []samples.Sample
	results     map[uuid.UUID][]samples.Result
	lastFilters samples.Filters
}

func (f *fakeSamples) Handler() *samples.Handler { return nil }

func (f *fakeSamples) Create(context.Context, samples.Kind, samples.CreateCommand) (*samples.Sample, error) {
	return nil, nil
}

func (f *fakeSamples) Import(context.Context, samples.Kind, samples.CreateCommand, []samples.ResultCommand) (*samples.Sample, error) {
	return nil, nil
}

func (f *fakeSamples) Find(context.Context, samples.Kind, uuid.UUID) (*samples.Sample, error) {
	return nil, nil
}

func (f *fakeSamples) List(_ context.Context, _ samples.Kind, page pagination.PageRequest, filters samples.Filters) (*pagination.PageResult[samples.Sample], error) {
	f.lastFilters = filters
	res := pagination.NewPageResult(f.data, len(f.data), page.Page, page.PageSize)
	return &res, nil
}

func (f *fakeSamples) Results(_ context.Context, _ samples.Kind, id uuid.UUID) ([]samples.Result, error) {
	return f.results[id], nil
}

func (f *fakeSamples) RecordResult(context.Context, samples.Kind, uuid.UUID, samples.ResultCommand) (*samples.Result, error) {
	return nil, nil
}

func (f *fakeSamples) SealComposite(context.Context, uuid.UUID) (*samples.Sample, error) {
	return nil, nil
}

func (f *fakeSamples) CheckDrift(context.Context) (*samples.DriftReport, error) {
	return nil, nil
}

// fakeCatalog serves a fixed product list in the order given, standing in for
// the catalog's display ordering.
type fakeCatalog struct {
	products []catalog.Product
}

func (f *fakeCatalog) Handler() *catalog.Handler { return nil }

func (f *fakeCatalog) ListProducts(context.Context, bool) ([]catalog.Product, error) {
	return f.products, nil
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
	return nil, nil
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

func product(code string, displayOrder int) catalog.Product {
	return catalog.Product{
		ID:           uuid.New(),
		Code:         code,
		Name:         "Vermiculite " + code,
		Active:       true,
		DisplayOrder: displayOrder,
	}
}

func sample(code string, sequence int, at string, verdict classify.Verdict) samples.Sample {
	return samples.Sample{
		ID:          uuid.New(),
		Kind:        samples.KindPoint,
		ProductCode: code,
		ProductName: "Vermiculite " + code,
		Sequence:    sequence,
		SampleTime:  at,
		Verdict:     verdict,
	}
}

func TestBoardGroupsByProduct(t *testing.T) {
	latest := sample("VM-30", 3, "16:10", classify.VerdictApproved)
	store := &fakeSamples{
		data: []samples.Sample{
			sample("VM-30", 1, "08:05", classify.VerdictApproved),
			sample("VM-30", 2, "12:15", classify.VerdictRejected),
			latest,
			sample("VM-50", 1, "09:00", classify.VerdictPending),
		},
		results: map[uuid.UUID][]samples.Result{
			latest.ID: {{
				ID:                 uuid.New(),
				SampleID:           latest.ID,
				PropertyIdentifier: "density",
				Value:              decimal.RequireFromString("112.5"),
				Verdict:            classify.VerdictApproved,
			}},
		},
	}
	cat := &fakeCatalog{products: []catalog.Product{product("VM-30", 1), product("VM-50", 2)}}

	system := dashboard.New(store, cat, plantClock(t), slog.New(slog.DiscardHandler))
	board, err := system.Board(context.Background(), samples.KindPoint, "2026-03-15", samples.ShiftA, "")
	if err != nil {
		t.Fatalf("Board error: %v", err)
	}

	if board.Date != "2026-03-15" || board.Shift != samples.ShiftA {
		t.Errorf("board window = (%s, %s), want (2026-03-15, A)", board.Date, board.Shift)
	}
	if len(board.Products) != 2 {
		t.Fatalf("len(Products) = %d, want 2", len(board.Products))
	}

	vm30 := board.Products[0]
	if vm30.ProductCode != "VM-30" {
		t.Fatalf("Products[0].ProductCode = %s, want VM-30", vm30.ProductCode)
	}
	if vm30.Latest == nil || vm30.Latest.ID != latest.ID {
		t.Error("latest sample is not the highest sequence")
	}
	if len(vm30.Results) != 1 || vm30.Results[0].PropertyIdentifier != "density" {
		t.Errorf("Results = %+v, want the density result of the latest sample", vm30.Results)
	}

	want := dashboard.Counters{Total: 3, Approved: 2, Rejected: 1}
	if vm30.Counters != want {
		t.Errorf("VM-30 counters = %+v, want %+v", vm30.Counters, want)
	}

	vm50 := board.Products[1]
	if vm50.Counters.Pending != 1 || vm50.Counters.Total != 1 {
		t.Errorf("VM-50 counters = %+v, want 1 pending of 1", vm50.Counters)
	}
}

func TestBoardFiltersByLine(t *testing.T) {
	store := &fakeSamples{results: map[uuid.UUID][]samples.Result{}}
	cat := &fakeCatalog{}

	system := dashboard.New(store, cat, plantClock(t), slog.New(slog.DiscardHandler))
	board, err := system.Board(context.Background(), samples.KindPoint, "2026-03-15", samples.ShiftA, "L2")
	if err != nil {
		t.Fatalf("Board error: %v", err)
	}

	if store.lastFilters.Line == nil || *store.lastFilters.Line != "L2" {
		t.Errorf("List filters.Line = %v, want L2", store.lastFilters.Line)
	}
	if board.Line != "L2" {
		t.Errorf("board.Line = %q, want L2", board.Line)
	}

	// No line means all lines.
	if _, err := system.Board(context.Background(), samples.KindPoint, "2026-03-15", samples.ShiftA, ""); err != nil {
		t.Fatalf("Board error: %v", err)
	}
	if store.lastFilters.Line != nil {
		t.Errorf("List filters.Line = %v, want nil when no line given", store.lastFilters.Line)
	}
}

func TestBoardIncludesUnsampledProducts(t *testing.T) {
	sampled := sample("VM-50", 1, "09:00", classify.VerdictApproved)
	retired := sample("ZZ-99", 1, "10:00", classify.VerdictRejected)
	store := &fakeSamples{
		data:    []samples.Sample{sampled, retired},
		results: map[uuid.UUID][]samples.Result{},
	}
	cat := &fakeCatalog{products: []catalog.Product{
		product("VM-70", 1),
		product("VM-50", 2),
		product("VM-30", 3),
	}}

	system := dashboard.New(store, cat, plantClock(t), slog.New(slog.DiscardHandler))
	board, err := system.Board(context.Background(), samples.KindPoint, "2026-03-15", samples.ShiftA, "")
	if err != nil {
		t.Fatalf("Board error: %v", err)
	}

	// Catalog order first, then samples of products no longer in the catalog.
	wantCodes := []string{"VM-70", "VM-50", "VM-30", "ZZ-99"}
	if len(board.Products) != len(wantCodes) {
		t.Fatalf("len(Products) = %d, want %d", len(board.Products), len(wantCodes))
	}
	for i, code := range wantCodes {
		if board.Products[i].ProductCode != code {
			t.Errorf("Products[%d].ProductCode = %s, want %s", i, board.Products[i].ProductCode, code)
		}
	}

	vm70 := board.Products[0]
	if vm70.Counters.Total != 0 || vm70.Latest != nil {
		t.Errorf("unsampled product row = %+v, want zero counters and no latest", vm70)
	}
	if vm70.Results == nil || len(vm70.Results) != 0 {
		t.Errorf("unsampled product Results = %v, want empty slice", vm70.Results)
	}

	if board.Products[1].Counters.Total != 1 {
		t.Errorf("VM-50 counters = %+v, want 1 sample counted", board.Products[1].Counters)
	}
	if board.Products[3].Counters.Rejected != 1 {
		t.Errorf("ZZ-99 counters = %+v, want the rejected sample counted", board.Products[3].Counters)
	}
}

func TestBoardLatestBreaksTiesByTime(t *testing.T) {
	early := sample("VM-30", 1, "08:00", classify.VerdictApproved)
	late := sample("VM-30", 1, "10:30", classify.VerdictApproved)
	store := &fakeSamples{
		data:    []samples.Sample{late, early},
		results: map[uuid.UUID][]samples.Result{},
	}
	cat := &fakeCatalog{products: []catalog.Product{product("VM-30", 1)}}

	system := dashboard.New(store, cat, plantClock(t), slog.New(slog.DiscardHandler))
	board, err := system.Board(context.Background(), samples.KindPoint, "2026-03-15", samples.ShiftA, "")
	if err != nil {
		t.Fatalf("Board error: %v", err)
	}
	if got := board.Products[0].Latest.ID; got != late.ID {
		t.Errorf("Latest.ID = %s, want the 10:30 sample", got)
	}
}
