package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/pkg/formatting"
	"github.com/vermlab/laudo/pkg/query"
	"github.com/vermlab/laudo/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a catalog repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "catalog"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	qb := query.NewBuilder(productProjection, productSort, query.SortField{Field: "Code"})
	if activeOnly {
		active := true
		qb.WhereEquals("Active", &active)
	}

	q, args := qb.Build()
	products, err := repository.QueryMany(ctx, r.db, q, args, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

func (r *repo) CreateProduct(ctx context.Context, cmd ProductCommand) (*Product, error) {
	if cmd.Code == "" || cmd.Name == "" {
		return nil, fmt.Errorf("%w: code and name required", ErrInvalidBounds)
	}

	q := `
		INSERT INTO products(id, code, name, active, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, code, name, active, display_order, created_at, updated_at`

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	p, err := repository.QueryOne(
		ctx, r.db, q,
		[]any{uuid.New(), cmd.Code, cmd.Name, active, cmd.DisplayOrder},
		scanProduct,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("product created", "id", p.ID, "code", p.Code)
	return &p, nil
}

func (r *repo) UpdateProduct(ctx context.Context, id uuid.UUID, cmd ProductCommand) (*Product, error) {
	q := `
		UPDATE products
		SET name = COALESCE(NULLIF($2, ''), name),
		    active = COALESCE($3, active),
		    display_order = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, code, name, active, display_order, created_at, updated_at`

	p, err := repository.QueryOne(
		ctx, r.db, q,
		[]any{id, cmd.Name, cmd.Active, cmd.DisplayOrder},
		scanProduct,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrUnknownProduct, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) ListProperties(ctx context.Context, activeOnly bool) ([]Property, error) {
	qb := query.NewBuilder(propertyProjection, propertySort, query.SortField{Field: "Identifier"})
	if activeOnly {
		active := true
		qb.WhereEquals("Active", &active)
	}

	q, args := qb.Build()
	properties, err := repository.QueryMany(ctx, r.db, q, args, scanProperty)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	return properties, nil
}

func (r *repo) CreateProperty(ctx context.Context, cmd PropertyCommand) (*Property, error) {
	if err := validatePropertyCommand(cmd); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO properties(id, identifier, name, unit, category, data_type, precision, active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, identifier, name, unit, category, data_type, precision, active, display_order`

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	p, err := repository.QueryOne(
		ctx, r.db, q,
		[]any{uuid.New(), cmd.Identifier, cmd.Name, cmd.Unit, cmd.Category, cmd.DataType, cmd.Precision, active, cmd.DisplayOrder},
		scanProperty,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("property created", "id", p.ID, "identifier", p.Identifier)
	return &p, nil
}

func (r *repo) ListAnalysisTypes(ctx context.Context) ([]AnalysisType, error) {
	q, args := query.NewBuilder(analysisTypeProjection, query.SortField{Field: "Code"}).Build()
	types, err := repository.QueryMany(ctx, r.db, q, args, scanAnalysisType)
	if err != nil {
		return nil, fmt.Errorf("query analysis types: %w", err)
	}
	return types, nil
}

func (r *repo) PropertiesFor(ctx context.Context, analysisTypeCode string, activeOnly bool) ([]AnalysisProperty, error) {
	q := `
		SELECT pr.id, pr.identifier, pr.name, pr.unit, pr.category, pr.data_type,
		       pr.precision, pr.active, atp.display_order, atp.required
		FROM public.analysis_type_properties atp
		JOIN public.analysis_types at ON atp.analysis_type_id = at.id
		JOIN public.properties pr ON atp.property_id = pr.id
		WHERE at.code = $1`
	if activeOnly {
		q += " AND atp.active AND pr.active"
	}
	q += " ORDER BY atp.display_order, pr.identifier"

	properties, err := repository.QueryMany(ctx, r.db, q, []any{analysisTypeCode}, scanAnalysisProperty)
	if err != nil {
		return nil, fmt.Errorf("query properties for %s: %w", analysisTypeCode, err)
	}
	return properties, nil
}

func (r *repo) SpecFor(ctx context.Context, productID, propertyID uuid.UUID) (*Specification, error) {
	return SpecIn(ctx, r.db, productID, propertyID)
}

func (r *repo) SpecHistory(ctx context.Context, productCode, propertyIdentifier string) ([]Specification, error) {
	product, err := ProductByCodeIn(ctx, r.db, productCode)
	if err != nil {
		return nil, err
	}
	property, err := PropertyByIdentifierIn(ctx, r.db, propertyIdentifier)
	if err != nil {
		return nil, err
	}

	qb := query.NewBuilder(specProjection, query.SortField{Field: "CreatedAt", Descending: true}).
		WhereEquals("ProductID", product.ID).
		WhereEquals("PropertyID", property.ID)

	q, args := qb.Build()
	specs, err := repository.QueryMany(ctx, r.db, q, args, scanSpecification)
	if err != nil {
		return nil, fmt.Errorf("query specification history: %w", err)
	}
	return specs, nil
}

func (r *repo) ReplaceSpec(ctx context.Context, cmd SpecCommand) (*Specification, error) {
	bounds, err := parseSpecBounds(cmd)
	if err != nil {
		return nil, err
	}

	spec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Specification, error) {
		product, err := ProductByCodeIn(ctx, tx, cmd.ProductCode)
		if err != nil {
			return Specification{}, err
		}
		property, err := PropertyByIdentifierIn(ctx, tx, cmd.PropertyIdentifier)
		if err != nil {
			return Specification{}, err
		}

		retire := `
			UPDATE specifications SET active = false
			WHERE product_id = $1 AND property_id = $2 AND active`
		if _, err := tx.ExecContext(ctx, retire, product.ID, property.ID); err != nil {
			return Specification{}, fmt.Errorf("retire specification: %w", err)
		}

		insert := `
			INSERT INTO specifications(id, product_id, property_id, lsl, lower_warn, target, upper_warn, usl, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
			RETURNING id, product_id, property_id, lsl, lower_warn, target, upper_warn, usl, active, created_at`

		args := []any{
			uuid.New(), product.ID, property.ID,
			toNull(bounds.LSL), toNull(bounds.LowerWarn), toNull(bounds.Target),
			toNull(bounds.UpperWarn), toNull(bounds.USL),
		}

		return repository.QueryOne(ctx, tx, insert, args, scanSpecification)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSpecification)
	}

	r.logger.Info(
		"specification replaced",
		"product", cmd.ProductCode,
		"property", cmd.PropertyIdentifier,
		"spec", spec.ID,
	)
	return &spec, nil
}

// ProductByCodeIn resolves a product by code through the given querier,
// allowing callers to resolve inside their own transaction.
func ProductByCodeIn(ctx context.Context, q repository.Querier, code string) (*Product, error) {
	sqlq := `
		SELECT id, code, name, active, display_order, created_at, updated_at
		FROM products WHERE code = $1`

	p, err := repository.QueryOne(ctx, q, sqlq, []any{code}, scanProduct)
	if err != nil {
		return nil, repository.MapError(err, ErrUnknownProduct, ErrDuplicate)
	}
	return &p, nil
}

// PropertyByIdentifierIn resolves a property by identifier through the given querier.
func PropertyByIdentifierIn(ctx context.Context, q repository.Querier, identifier string) (*Property, error) {
	sqlq := `
		SELECT id, identifier, name, unit, category, data_type, precision, active, display_order
		FROM properties WHERE identifier = $1`

	p, err := repository.QueryOne(ctx, q, sqlq, []any{identifier}, scanProperty)
	if err != nil {
		return nil, repository.MapError(err, ErrUnknownProperty, ErrDuplicate)
	}
	return &p, nil
}

// SpecIn returns the active specification for a (product, property) pair through
// the given querier. Classification must read the spec through the transaction
// that records the result, so this is exported for the sample store.
func SpecIn(ctx context.Context, q repository.Querier, productID, propertyID uuid.UUID) (*Specification, error) {
	sqlq := `
		SELECT id, product_id, property_id, lsl, lower_warn, target, upper_warn, usl, active, created_at
		FROM specifications
		WHERE product_id = $1 AND property_id = $2 AND active`

	s, err := repository.QueryOne(ctx, q, sqlq, []any{productID, propertyID}, scanSpecification)
	if err != nil {
		return nil, repository.MapError(err, ErrNoSpecification, ErrDuplicateSpecification)
	}
	return &s, nil
}

type specBounds struct {
	LSL, LowerWarn, Target, UpperWarn, USL *decimal.Decimal
}

func parseSpecBounds(cmd SpecCommand) (*specBounds, error) {
	parse := func(field, s string) (*decimal.Decimal, error) {
		if s == "" {
			return nil, nil
		}
		d, err := formatting.ParseDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBounds, field)
		}
		return &d, nil
	}

	var (
		b   specBounds
		err error
	)
	if b.LSL, err = parse("lsl", cmd.LSL); err != nil {
		return nil, err
	}
	if b.LowerWarn, err = parse("lower_warn", cmd.LowerWarn); err != nil {
		return nil, err
	}
	if b.Target, err = parse("target", cmd.Target); err != nil {
		return nil, err
	}
	if b.UpperWarn, err = parse("upper_warn", cmd.UpperWarn); err != nil {
		return nil, err
	}
	if b.USL, err = parse("usl", cmd.USL); err != nil {
		return nil, err
	}

	return &b, b.validate()
}

func (b *specBounds) validate() error {
	ordered := func(lo, hi *decimal.Decimal, what string) error {
		if lo != nil && hi != nil && lo.GreaterThan(*hi) {
			return fmt.Errorf("%w: %s", ErrInvalidBounds, what)
		}
		return nil
	}

	if err := ordered(b.LSL, b.USL, "lsl > usl"); err != nil {
		return err
	}
	if err := ordered(b.LSL, b.Target, "target < lsl"); err != nil {
		return err
	}
	if err := ordered(b.Target, b.USL, "target > usl"); err != nil {
		return err
	}
	if err := ordered(b.LSL, b.LowerWarn, "lower_warn < lsl"); err != nil {
		return err
	}
	if err := ordered(b.LowerWarn, b.UpperWarn, "lower_warn > upper_warn"); err != nil {
		return err
	}
	if err := ordered(b.UpperWarn, b.USL, "upper_warn > usl"); err != nil {
		return err
	}
	return nil
}

func validatePropertyCommand(cmd PropertyCommand) error {
	if cmd.Identifier == "" || cmd.Name == "" {
		return fmt.Errorf("%w: identifier and name required", ErrInvalidBounds)
	}

	switch cmd.Category {
	case CategoryPhysical, CategoryChemical, CategoryGranulometry, CategoryMineralogy:
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidBounds, cmd.Category)
	}

	switch cmd.DataType {
	case DataTypeDecimal, DataTypeInteger, DataTypeText, DataTypeBoolean:
	default:
		return fmt.Errorf("%w: unknown data type %q", ErrInvalidBounds, cmd.DataType)
	}

	return nil
}
