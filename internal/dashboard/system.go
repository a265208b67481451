package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/vermlab/laudo/internal/catalog"
	"github.com/vermlab/laudo/internal/samples"
	"github.com/vermlab/laudo/pkg/pagination"
)

// System defines the public contract for shift boards.
type System interface {
	Handler() *Handler

	// Board assembles the board for the given kind, date, shift and production
	// line. An empty date selects the shift window containing now; an empty
	// line spans all lines.
	Board(ctx context.Context, kind samples.Kind, date string, shift samples.Shift, line string) (*Board, error)
}

type service struct {
	samples samples.System
	catalog catalog.System
	clock   Clock
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a dashboard service reading through the sample and catalog
// stores.
func New(store samples.System, catalogSys catalog.System, clock Clock, logger *slog.Logger) System {
	return &service{
		samples: store,
		catalog: catalogSys,
		clock:   clock,
		logger:  logger.With("system", "dashboard"),
		now:     time.Now,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) Board(ctx context.Context, kind samples.Kind, date string, shift samples.Shift, line string) (*Board, error) {
	if date == "" {
		date, shift = s.clock.Window(s.now())
	}
	shiftStr := string(shift)

	filters := samples.Filters{
		Date:  &date,
		Shift: &shiftStr,
	}
	if line != "" {
		filters.Line = &line
	}

	page := pagination.PageRequest{Page: 1, PageSize: boardPageSize}
	result, err := s.samples.List(ctx, kind, page, filters)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*ProductBoard)
	for i := range result.Data {
		smp := result.Data[i]
		pb, ok := byProduct[smp.ProductCode]
		if !ok {
			pb = &ProductBoard{
				ProductCode: smp.ProductCode,
				ProductName: smp.ProductName,
			}
			byProduct[smp.ProductCode] = pb
		}

		pb.Counters.add(smp.Verdict)
		if pb.Latest == nil || laterSample(smp, *pb.Latest) {
			latest := smp
			pb.Latest = &latest
		}
	}

	// Every active product gets a row in catalog display order, so a product
	// with no samples this shift shows up with zero counters.
	products, err := s.catalog.ListProducts(ctx, true)
	if err != nil {
		return nil, err
	}

	board := &Board{Date: date, Shift: shift, Kind: kind, Line: line, Products: []ProductBoard{}}
	for _, product := range products {
		pb, ok := byProduct[product.Code]
		if !ok {
			pb = &ProductBoard{
				ProductCode: product.Code,
				ProductName: product.Name,
				Results:     []samples.Result{},
			}
		}
		delete(byProduct, product.Code)
		if err := s.attachLatestResults(ctx, kind, pb); err != nil {
			return nil, err
		}
		board.Products = append(board.Products, *pb)
	}

	// Samples can reference products deactivated after collection; those rows
	// trail the catalog, sorted by code.
	var leftovers []string
	for code := range byProduct {
		leftovers = append(leftovers, code)
	}
	sort.Strings(leftovers)
	for _, code := range leftovers {
		pb := byProduct[code]
		if err := s.attachLatestResults(ctx, kind, pb); err != nil {
			return nil, err
		}
		board.Products = append(board.Products, *pb)
	}

	return board, nil
}

func (s *service) attachLatestResults(ctx context.Context, kind samples.Kind, pb *ProductBoard) error {
	if pb.Latest == nil {
		return nil
	}
	results, err := s.samples.Results(ctx, kind, pb.Latest.ID)
	if err != nil {
		return err
	}
	pb.Results = results
	return nil
}

// A shift holds at most a handful of products with up to three samples each.
const boardPageSize = 500

func laterSample(a, b samples.Sample) bool {
	if a.Sequence != b.Sequence {
		return a.Sequence > b.Sequence
	}
	return a.SampleTime > b.SampleTime
}
