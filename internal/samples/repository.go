package samples

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/catalog"
	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/pkg/formatting"
	"github.com/vermlab/laudo/pkg/pagination"
	"github.com/vermlab/laudo/pkg/query"
	"github.com/vermlab/laudo/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
	classified *prometheus.CounterVec
}

// New creates a sample store implementing the System interface.
// The classified counter is incremented per recorded result, labelled by
// verdict; nil disables metrics.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
	classified *prometheus.CounterVec,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "samples"),
		pagination: pagination,
		classified: classified,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Create(ctx context.Context, kind Kind, cmd CreateCommand) (*Sample, error) {
	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Sample, error) {
		return createIn(ctx, tx, kind, cmd)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSample)
	}

	r.logger.Info(
		"sample created",
		"kind", kind,
		"id", created.ID,
		"product", created.ProductCode,
		"shift", created.Shift,
		"sequence", created.Sequence,
	)
	return &created, nil
}

func (r *repo) Import(ctx context.Context, kind Kind, cmd CreateCommand, results []ResultCommand) (*Sample, error) {
	var verdicts []classify.Verdict

	imported, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Sample, error) {
		verdicts = verdicts[:0]

		smp, err := createIn(ctx, tx, kind, cmd)
		if err != nil {
			return Sample{}, err
		}

		for _, rc := range results {
			res, err := recordResultIn(ctx, tx, kind, smp.ID, rc)
			if err != nil {
				return Sample{}, fmt.Errorf("property %s: %w", rc.PropertyIdentifier, err)
			}
			verdicts = append(verdicts, res.Verdict)
		}

		return findIn(ctx, tx, kind, smp.ID)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSample)
	}

	if r.classified != nil {
		for _, v := range verdicts {
			r.classified.WithLabelValues(string(v)).Inc()
		}
	}

	r.logger.Info(
		"sample imported",
		"kind", kind,
		"id", imported.ID,
		"product", imported.ProductCode,
		"results", len(results),
	)
	return &imported, nil
}

func (r *repo) Find(ctx context.Context, kind Kind, id uuid.UUID) (*Sample, error) {
	s, err := findIn(ctx, r.db, kind, id)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSample)
	}
	return &s, nil
}

func (r *repo) List(
	ctx context.Context,
	kind Kind,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Sample], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(sampleProjection(kind), defaultSampleSort...).
		WhereSearch(page.Search, "ProductCode", "ProductionLine", "Operator")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count samples: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanFor(kind))
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Results(ctx context.Context, kind Kind, sampleID uuid.UUID) ([]Result, error) {
	return ResultsIn(ctx, r.db, kind, sampleID)
}

func (r *repo) RecordResult(ctx context.Context, kind Kind, sampleID uuid.UUID, cmd ResultCommand) (*Result, error) {
	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Result, error) {
		return recordResultIn(ctx, tx, kind, sampleID, cmd)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateResult)
	}

	if r.classified != nil {
		r.classified.WithLabelValues(string(result.Verdict)).Inc()
	}

	r.logger.Info(
		"result recorded",
		"kind", kind,
		"sample", sampleID,
		"property", result.PropertyIdentifier,
		"verdict", result.Verdict,
	)
	return &result, nil
}

func (r *repo) SealComposite(ctx context.Context, id uuid.UUID) (*Sample, error) {
	sealed, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Sample, error) {
		sample, err := findIn(ctx, tx, KindComposite, id)
		if err != nil {
			return Sample{}, err
		}
		if sample.Sealed {
			return sample, nil
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE composite_samples SET sealed = true, updated_at = NOW() WHERE id = $1",
			id,
		); err != nil {
			return Sample{}, err
		}

		sample.Sealed = true
		return sample, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateSample)
	}

	r.logger.Info("composite sealed", "id", id)
	return &sealed, nil
}

func createIn(ctx context.Context, tx *sql.Tx, kind Kind, cmd CreateCommand) (Sample, error) {
	if err := validateCreate(cmd); err != nil {
		return Sample{}, err
	}

	var quantity *decimal.Decimal
	if kind == KindComposite && cmd.QuantityProduced != "" {
		q, err := formatting.ParseDecimal(cmd.QuantityProduced)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: quantity_produced", ErrInvalidValue)
		}
		quantity = &q
	}

	table, _, _ := tableFor(kind)

	product, err := catalog.ProductByCodeIn(ctx, tx, cmd.ProductCode)
	if err != nil {
		return Sample{}, err
	}

	id := uuid.New()
	var insert string
	args := []any{
		id, cmd.Date, cmd.Shift, cmd.ProductionLine, product.ID,
		cmd.Sequence, cmd.Time, cmd.Operator, cmd.Observations,
		string(classify.VerdictPending),
	}

	if kind == KindComposite {
		insert = `
			INSERT INTO composite_samples(
				id, sample_date, shift, production_line, product_id,
				sequence, sample_time, operator, observations, verdict, quantity_produced)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		args = append(args, quantityArg(quantity))
	} else {
		insert = `
			INSERT INTO point_samples(
				id, sample_date, shift, production_line, product_id,
				sequence, sample_time, operator, observations, verdict)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	}

	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return Sample{}, fmt.Errorf("insert %s sample: %w", table, err)
	}

	return findIn(ctx, tx, kind, id)
}

func recordResultIn(ctx context.Context, tx *sql.Tx, kind Kind, sampleID uuid.UUID, cmd ResultCommand) (Result, error) {
	value, err := formatting.ParseDecimal(cmd.Value)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidValue, cmd.Value)
	}
	if cmd.VerdictOverride != "" && cmd.VerdictOverride != string(classify.VerdictAlert) {
		return Result{}, ErrInvalidOverride
	}

	_, _, resultTable := tableFor(kind)

	sample, err := findIn(ctx, tx, kind, sampleID)
	if err != nil {
		return Result{}, err
	}
	if sample.FrozenBy != nil {
		return Result{}, ErrSampleFrozen
	}
	if sample.Sealed {
		return Result{}, ErrCompositeSealed
	}

	property, err := catalog.PropertyByIdentifierIn(ctx, tx, cmd.PropertyIdentifier)
	if err != nil {
		return Result{}, err
	}

	spec, err := catalog.SpecIn(ctx, tx, sample.ProductID, property.ID)
	if err != nil && !errors.Is(err, catalog.ErrNoSpecification) {
		return Result{}, err
	}

	verdict := classify.Classify(value, spec.Limits())
	if cmd.VerdictOverride != "" && verdict != classify.VerdictRejected {
		verdict = classify.VerdictAlert
	}

	unit := cmd.Unit
	if unit == "" {
		unit = property.Unit
	}

	var specID uuid.NullUUID
	if spec != nil {
		specID = uuid.NullUUID{UUID: spec.ID, Valid: true}
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s(id, sample_id, property_id, value, unit, test_method, specification_id, verdict)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sample_id, property_id) DO UPDATE SET
			value = EXCLUDED.value,
			unit = EXCLUDED.unit,
			test_method = EXCLUDED.test_method,
			specification_id = EXCLUDED.specification_id,
			verdict = EXCLUDED.verdict,
			updated_at = NOW()
		RETURNING id`, resultTable)

	var resultID uuid.UUID
	if err := tx.QueryRowContext(
		ctx, upsert,
		uuid.New(), sample.ID, property.ID, value, unit, cmd.TestMethod, specID, string(verdict),
	).Scan(&resultID); err != nil {
		return Result{}, fmt.Errorf("upsert result: %w", err)
	}

	if err := refreshVerdictIn(ctx, tx, kind, sample.ID); err != nil {
		return Result{}, err
	}

	rows, err := ResultsIn(ctx, tx, kind, sample.ID)
	if err != nil {
		return Result{}, err
	}
	for _, row := range rows {
		if row.ID == resultID {
			return row, nil
		}
	}
	return Result{}, sql.ErrNoRows
}

// ResultsIn returns a sample's results through the given querier, ordered by
// property display order.
func ResultsIn(ctx context.Context, q repository.Querier, kind Kind, sampleID uuid.UUID) ([]Result, error) {
	_, _, resultTable := tableFor(kind)

	sqlq := fmt.Sprintf(`
		SELECT res.id, res.sample_id, res.property_id, res.value, res.unit, res.test_method,
		       res.specification_id, res.verdict, res.created_at, res.updated_at,
		       pr.identifier, pr.name, pr.display_order, pr.precision
		FROM public.%s res
		JOIN public.properties pr ON res.property_id = pr.id
		WHERE res.sample_id = $1
		ORDER BY pr.display_order, pr.identifier`, resultTable)

	results, err := repository.QueryMany(ctx, q, sqlq, []any{sampleID}, scanResult)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	return results, nil
}

// FreezeForCertificateIn marks every sample cited by the certificate as frozen.
// Runs inside the certificate approval transaction.
func FreezeForCertificateIn(ctx context.Context, e repository.Executor, certificateID uuid.UUID) error {
	freezePoint := `
		UPDATE point_samples s
		SET frozen_by_certificate_id = $1, updated_at = NOW()
		FROM certificate_samples cs
		WHERE cs.certificate_id = $1 AND cs.sample_kind = 'POINT' AND cs.sample_id = s.id`
	if _, err := e.ExecContext(ctx, freezePoint, certificateID); err != nil {
		return fmt.Errorf("freeze point samples: %w", err)
	}

	freezeComposite := `
		UPDATE composite_samples s
		SET frozen_by_certificate_id = $1, updated_at = NOW()
		FROM certificate_samples cs
		WHERE cs.certificate_id = $1 AND cs.sample_kind = 'COMPOSITE' AND cs.sample_id = s.id`
	if _, err := e.ExecContext(ctx, freezeComposite, certificateID); err != nil {
		return fmt.Errorf("freeze composite samples: %w", err)
	}

	return nil
}

// CitedVerdictsIn returns the verdicts of all samples cited by the certificate.
func CitedVerdictsIn(ctx context.Context, q repository.Querier, certificateID uuid.UUID) ([]classify.Verdict, error) {
	sqlq := `
		SELECT s.verdict
		FROM point_samples s
		JOIN certificate_samples cs ON cs.sample_id = s.id AND cs.sample_kind = 'POINT'
		WHERE cs.certificate_id = $1
		UNION ALL
		SELECT s.verdict
		FROM composite_samples s
		JOIN certificate_samples cs ON cs.sample_id = s.id AND cs.sample_kind = 'COMPOSITE'
		WHERE cs.certificate_id = $1`

	verdicts, err := repository.QueryMany(ctx, q, sqlq, []any{certificateID}, func(s repository.Scanner) (classify.Verdict, error) {
		var v classify.Verdict
		err := s.Scan(&v)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("query cited verdicts: %w", err)
	}
	return verdicts, nil
}

func findIn(ctx context.Context, q repository.Querier, kind Kind, id uuid.UUID) (Sample, error) {
	sqlq, args := query.NewBuilder(sampleProjection(kind)).BuildSingle("ID", id)
	return repository.QueryOne(ctx, q, sqlq, args, scanFor(kind))
}

func refreshVerdictIn(ctx context.Context, tx *sql.Tx, kind Kind, sampleID uuid.UUID) error {
	table, _, resultTable := tableFor(kind)

	verdicts, err := repository.QueryMany(
		ctx, tx,
		fmt.Sprintf("SELECT verdict FROM %s WHERE sample_id = $1", resultTable),
		[]any{sampleID},
		func(s repository.Scanner) (classify.Verdict, error) {
			var v classify.Verdict
			err := s.Scan(&v)
			return v, err
		},
	)
	if err != nil {
		return fmt.Errorf("query result verdicts: %w", err)
	}

	rolled := classify.Rollup(verdicts)
	if _, err := tx.ExecContext(
		ctx,
		fmt.Sprintf("UPDATE %s SET verdict = $2, updated_at = NOW() WHERE id = $1", table),
		sampleID, string(rolled),
	); err != nil {
		return fmt.Errorf("refresh sample verdict: %w", err)
	}

	return nil
}

func quantityArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

func validateCreate(cmd CreateCommand) error {
	if _, err := time.Parse("2006-01-02", cmd.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidValue, cmd.Date)
	}
	if _, err := ParseShift(cmd.Shift); err != nil {
		return err
	}
	if cmd.Sequence < 1 || cmd.Sequence > 3 {
		return ErrInvalidSequence
	}
	if _, err := time.Parse("15:04", cmd.Time); err != nil {
		return fmt.Errorf("%w: time %q", ErrInvalidValue, cmd.Time)
	}
	if cmd.ProductionLine == "" || cmd.ProductCode == "" {
		return fmt.Errorf("%w: line and product required", ErrInvalidValue)
	}
	return nil
}
