package certificates

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/catalog"
	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/internal/samples"
	"github.com/vermlab/laudo/pkg/formatting"
	"github.com/vermlab/laudo/pkg/pagination"
	"github.com/vermlab/laudo/pkg/query"
	"github.com/vermlab/laudo/pkg/repository"
	"github.com/vermlab/laudo/pkg/storage"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
	artifacts  storage.System
	renderer   Renderer
	approved   prometheus.Counter
	now        func() time.Time
}

// New creates a certificate store implementing the System interface. The
// approved counter is incremented per approval; nil disables metrics. The
// renderer may be nil, in which case no PDF artifacts are produced.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
	artifacts storage.System,
	renderer Renderer,
	approved prometheus.Counter,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "certificates"),
		pagination: pagination,
		artifacts:  artifacts,
		renderer:   renderer,
		approved:   approved,
		now:        time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Certificate, error) {
	certType, err := ParseType(cmd.Type)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse("2006-01-02", cmd.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date %q", ErrInvalidRange, cmd.StartDate)
	}
	end, err := time.Parse("2006-01-02", cmd.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date %q", ErrInvalidRange, cmd.EndDate)
	}
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	var quantity *decimal.Decimal
	if cmd.Quantity != "" {
		q, err := formatting.ParseDecimal(cmd.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: quantity", ErrInvalidRange)
		}
		quantity = &q
	}

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		product, err := catalog.ProductByCodeIn(ctx, tx, cmd.ProductCode)
		if err != nil {
			return Certificate{}, err
		}

		id := uuid.New()
		insert := `
			INSERT INTO certificates(
				id, type, status, product_id, production_line, start_date, end_date,
				customer_name, customer_document, destination, batch_number,
				quantity, observations, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
		if _, err := tx.ExecContext(ctx, insert,
			id, string(certType), string(StatusDraft), product.ID, cmd.ProductionLine,
			start, end, cmd.CustomerName, cmd.CustomerDocument, cmd.Destination,
			cmd.BatchNumber, quantityArg(quantity), cmd.Observations, cmd.CreatedBy,
		); err != nil {
			return Certificate{}, fmt.Errorf("insert certificate: %w", err)
		}

		if err := bindSamplesInRange(ctx, tx, id, product.ID, cmd.ProductionLine, start, end); err != nil {
			return Certificate{}, err
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"certificate drafted",
		"id", created.ID,
		"type", created.Type,
		"product", created.ProductCode,
		"samples", len(created.Samples),
	)
	return &created, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	cert, err := findIn(ctx, r.db, id)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &cert, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Certificate], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(certificateProjection(), defaultCertificateSort...).
		WhereSearch(page.Search, "ReportNumber", "CustomerName", "BatchNumber", "ProductCode")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCertificate)
	if err != nil {
		return nil, fmt.Errorf("query certificates: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Certificate, error) {
	var quantity *decimal.Decimal
	if cmd.Quantity != "" {
		q, err := formatting.ParseDecimal(cmd.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: quantity", ErrInvalidRange)
		}
		quantity = &q
	}

	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		cert, err := findIn(ctx, tx, id)
		if err != nil {
			return Certificate{}, err
		}
		if err := requireEditable(cert.Status); err != nil {
			return Certificate{}, err
		}

		status := cert.Status
		if status == StatusRejected {
			status = StatusDraft
		}

		update := `
			UPDATE certificates SET
				customer_name = $2, customer_document = $3, destination = $4,
				batch_number = $5, quantity = $6, observations = $7,
				status = $8, updated_at = NOW()
			WHERE id = $1`
		if err := repository.ExecExpectOne(ctx, tx, update,
			id, cmd.CustomerName, cmd.CustomerDocument, cmd.Destination,
			cmd.BatchNumber, quantityArg(quantity), cmd.Observations, string(status),
		); err != nil {
			return Certificate{}, err
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &updated, nil
}

func (r *repo) SetSamples(ctx context.Context, id uuid.UUID, cmd SetSamplesCommand) (*Certificate, error) {
	updated, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		cert, err := findIn(ctx, tx, id)
		if err != nil {
			return Certificate{}, err
		}
		if err := requireEditable(cert.Status); err != nil {
			return Certificate{}, err
		}

		bound := make(map[SampleRef]bool, len(cert.Samples))
		for _, ref := range cert.Samples {
			bound[ref] = true
		}
		for _, ref := range cmd.Samples {
			if !bound[ref] {
				return Certificate{}, fmt.Errorf("%w: %s %s", ErrUnknownSample, ref.Kind, ref.ID)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM certificate_samples WHERE certificate_id = $1", id,
		); err != nil {
			return Certificate{}, fmt.Errorf("clear certificate samples: %w", err)
		}
		for _, ref := range cmd.Samples {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO certificate_samples(certificate_id, sample_kind, sample_id)
				VALUES ($1, $2, $3)`,
				id, string(ref.Kind), ref.ID,
			); err != nil {
				return Certificate{}, fmt.Errorf("bind sample: %w", err)
			}
		}

		status := cert.Status
		if status == StatusRejected {
			status = StatusDraft
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE certificates SET status = $2, updated_at = NOW() WHERE id = $1",
			id, string(status),
		); err != nil {
			return Certificate{}, fmt.Errorf("update certificate: %w", err)
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &updated, nil
}

func (r *repo) Submit(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	return r.transition(ctx, id, StatusPending, func(cert Certificate) error {
		if cert.Status != StatusDraft {
			return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, cert.Status)
		}
		return nil
	})
}

func (r *repo) Approve(ctx context.Context, id uuid.UUID, actor string) (*Certificate, error) {
	approved, issued, err := r.approveOnce(ctx, id, actor)
	if err != nil && repository.IsLockTimeout(err) {
		r.logger.Warn("report number allocation contended, retrying", "id", id)
		approved, issued, err = r.approveOnce(ctx, id, actor)
		if err != nil && repository.IsLockTimeout(err) {
			return nil, ErrNumberContended
		}
	}
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if issued {
		if r.approved != nil {
			r.approved.Inc()
		}
		r.logger.Info(
			"certificate approved",
			"id", approved.ID,
			"report_number", *approved.ReportNumber,
			"approved_by", actor,
		)
		r.issueArtifact(ctx, approved)
		refreshed, err := findIn(ctx, r.db, id)
		if err == nil {
			approved = refreshed
		}
	}

	return &approved, nil
}

func (r *repo) approveOnce(ctx context.Context, id uuid.UUID, actor string) (Certificate, bool, error) {
	issued := false

	cert, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		cert, err := findIn(ctx, tx, id)
		if err != nil {
			return Certificate{}, err
		}

		issue, err := approveDecision(cert, actor)
		if err != nil {
			return Certificate{}, err
		}
		if !issue {
			return cert, nil
		}

		verdicts, err := samples.CitedVerdictsIn(ctx, tx, id)
		if err != nil {
			return Certificate{}, err
		}
		if err := requireApprovable(verdicts); err != nil {
			return Certificate{}, err
		}

		number, err := NextNumber(ctx, tx, SequenceReport, r.now())
		if err != nil {
			return Certificate{}, err
		}

		if err := repository.ExecExpectOne(ctx, tx, `
			UPDATE certificates SET
				report_number = $2, status = $3, approved_by = $4,
				approved_at = NOW(), updated_at = NOW()
			WHERE id = $1`,
			id, number, string(StatusApproved), actor,
		); err != nil {
			return Certificate{}, err
		}

		if err := samples.FreezeForCertificateIn(ctx, tx, id); err != nil {
			return Certificate{}, err
		}

		issued = true
		return findIn(ctx, tx, id)
	})

	return cert, issued, err
}

// approveDecision checks the legality of approving cert as actor. A false
// issue with a nil error means the certificate is already approved; the stored
// report number stands and no new one may be allocated.
func approveDecision(cert Certificate, actor string) (issue bool, err error) {
	if cert.Status == StatusApproved {
		return false, nil
	}
	if cert.Status != StatusDraft && cert.Status != StatusPending {
		return false, fmt.Errorf("%w: approve from %s", ErrInvalidTransition, cert.Status)
	}
	if actor == "" || actor == cert.CreatedBy {
		return false, ErrSeparationOfDuty
	}
	if len(cert.Samples) == 0 {
		return false, ErrNoSamples
	}
	return true, nil
}

// requireApprovable rejects approval while any cited sample verdict is not
// acceptable.
func requireApprovable(verdicts []classify.Verdict) error {
	for _, v := range verdicts {
		if !v.Acceptable() {
			return fmt.Errorf("%w: verdict %s", ErrSamplesNotApprovable, v)
		}
	}
	return nil
}

func (r *repo) Reject(ctx context.Context, id uuid.UUID, cmd RejectCommand) (*Certificate, error) {
	rejected, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		cert, err := findIn(ctx, tx, id)
		if err != nil {
			return Certificate{}, err
		}
		if cert.Status != StatusPending {
			return Certificate{}, fmt.Errorf("%w: reject from %s", ErrInvalidTransition, cert.Status)
		}

		observations := cert.Observations
		if cmd.Reason != "" {
			observations = strings.TrimSpace(observations + "\nrejected: " + cmd.Reason)
		}

		if err := repository.ExecExpectOne(ctx, tx, `
			UPDATE certificates SET status = $2, observations = $3, updated_at = NOW()
			WHERE id = $1`,
			id, string(StatusRejected), observations,
		); err != nil {
			return Certificate{}, err
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("certificate rejected", "id", id, "reason", cmd.Reason)
	return &rejected, nil
}

func (r *repo) Cancel(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	cancelled, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		cert, err := findIn(ctx, tx, id)
		if err != nil {
			return Certificate{}, err
		}
		if cert.Status.Terminal() {
			return Certificate{}, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, cert.Status)
		}

		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE certificates SET status = $2, updated_at = NOW() WHERE id = $1",
			id, string(StatusCancelled),
		); err != nil {
			return Certificate{}, err
		}

		// Orders cannot outlive their certificate.
		if _, err := tx.ExecContext(ctx, `
			UPDATE loading_orders SET status = 'CANCELLED', updated_at = NOW()
			WHERE certificate_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')`,
			id,
		); err != nil {
			return Certificate{}, fmt.Errorf("cascade cancel to loading orders: %w", err)
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("certificate cancelled", "id", id)
	return &cancelled, nil
}

func (r *repo) PDF(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	cert, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if cert.PDFKey == nil {
		if cert.Status != StatusApproved {
			return nil, ErrNotFound
		}
		r.issueArtifact(ctx, *cert)
		refreshed, err := r.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		cert = refreshed
		if cert.PDFKey == nil {
			return nil, fmt.Errorf("render certificate %s: artifact unavailable", id)
		}
	}

	return r.artifacts.Download(ctx, *cert.PDFKey)
}

// issueArtifact renders and stores the certificate PDF. Failures are logged
// and do not affect the approved state; PDF retrieval retries lazily.
func (r *repo) issueArtifact(ctx context.Context, cert Certificate) {
	if r.renderer == nil || r.artifacts == nil {
		return
	}

	view, err := r.buildView(ctx, cert)
	if err != nil {
		r.logger.Error("certificate view assembly failed", "id", cert.ID, "error", err)
		return
	}

	pdf, err := r.renderer.RenderCertificate(ctx, *view)
	if err != nil {
		r.logger.Error("certificate rendering failed", "id", cert.ID, "error", err)
		return
	}

	key := fmt.Sprintf("certificates/%s/laudo.pdf", cert.ID)
	if err := r.artifacts.Upload(ctx, key, bytes.NewReader(pdf), "application/pdf"); err != nil {
		r.logger.Error("certificate artifact upload failed", "id", cert.ID, "error", err)
		return
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE certificates SET pdf_key = $2, updated_at = NOW() WHERE id = $1",
		cert.ID, key,
	); err != nil {
		r.logger.Error("certificate artifact key update failed", "id", cert.ID, "error", err)
		return
	}

	r.logger.Info("certificate artifact issued", "id", cert.ID, "key", key)
}

func (r *repo) buildView(ctx context.Context, cert Certificate) (*View, error) {
	view := &View{
		Type:         cert.Type,
		ProductCode:  cert.ProductCode,
		ProductName:  cert.ProductName,
		Line:         cert.ProductionLine,
		StartDate:    cert.StartDate,
		EndDate:      cert.EndDate,
		Customer:     cert.CustomerName,
		Document:     cert.CustomerDocument,
		Destination:  cert.Destination,
		BatchNumber:  cert.BatchNumber,
		Quantity:     cert.Quantity,
		Observations: cert.Observations,
		CreatedBy:    cert.CreatedBy,
	}
	if cert.ReportNumber != nil {
		view.ReportNumber = *cert.ReportNumber
	}
	if cert.ApprovedBy != nil {
		view.ApprovedBy = *cert.ApprovedBy
	}
	if cert.ApprovedAt != nil {
		view.ApprovedAt = *cert.ApprovedAt
	}

	for _, ref := range cert.Samples {
		results, err := samples.ResultsIn(ctx, r.db, ref.Kind, ref.ID)
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			row := ViewRow{
				Property:  res.PropertyName,
				Unit:      res.Unit,
				Method:    res.TestMethod,
				Precision: res.Precision,
				Value:     res.Value,
				Verdict:   res.Verdict,
			}
			if res.SpecificationID != nil {
				var lsl, usl decimal.NullDecimal
				err := r.db.QueryRowContext(ctx,
					"SELECT lsl, usl FROM specifications WHERE id = $1",
					*res.SpecificationID,
				).Scan(&lsl, &usl)
				if err != nil {
					return nil, fmt.Errorf("query specification bounds: %w", err)
				}
				if lsl.Valid {
					v := lsl.Decimal
					row.LSL = &v
				}
				if usl.Valid {
					v := usl.Decimal
					row.USL = &v
				}
			}
			view.Rows = append(view.Rows, row)
		}
	}

	return view, nil
}

func (r *repo) transition(
	ctx context.Context,
	id uuid.UUID,
	to Status,
	check func(Certificate) error,
) (*Certificate, error) {
	cert, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		cert, err := findIn(ctx, tx, id)
		if err != nil {
			return Certificate{}, err
		}
		if err := check(cert); err != nil {
			return Certificate{}, err
		}

		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE certificates SET status = $2, updated_at = NOW() WHERE id = $1",
			id, string(to),
		); err != nil {
			return Certificate{}, err
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &cert, nil
}

func requireEditable(status Status) error {
	if status == StatusApproved {
		return ErrImmutable
	}
	if !status.Editable() {
		return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, status)
	}
	return nil
}

func bindSamplesInRange(
	ctx context.Context,
	tx *sql.Tx,
	certificateID, productID uuid.UUID,
	line string,
	start, end time.Time,
) error {
	bindPoint := `
		INSERT INTO certificate_samples(certificate_id, sample_kind, sample_id)
		SELECT $1, 'POINT', id FROM point_samples
		WHERE product_id = $2 AND production_line = $3
		  AND sample_date BETWEEN $4 AND $5`
	if _, err := tx.ExecContext(ctx, bindPoint, certificateID, productID, line, start, end); err != nil {
		return fmt.Errorf("bind point samples: %w", err)
	}

	bindComposite := `
		INSERT INTO certificate_samples(certificate_id, sample_kind, sample_id)
		SELECT $1, 'COMPOSITE', id FROM composite_samples
		WHERE product_id = $2 AND production_line = $3
		  AND sample_date BETWEEN $4 AND $5`
	if _, err := tx.ExecContext(ctx, bindComposite, certificateID, productID, line, start, end); err != nil {
		return fmt.Errorf("bind composite samples: %w", err)
	}

	return nil
}

func findIn(ctx context.Context, q repository.Querier, id uuid.UUID) (Certificate, error) {
	sqlq, args := query.NewBuilder(certificateProjection()).BuildSingle("ID", id)
	cert, err := repository.QueryOne(ctx, q, sqlq, args, scanCertificate)
	if err != nil {
		return Certificate{}, err
	}

	refs, err := repository.QueryMany(ctx, q, `
		SELECT sample_kind, sample_id FROM certificate_samples
		WHERE certificate_id = $1
		ORDER BY sample_kind, sample_id`,
		[]any{id}, scanSampleRef,
	)
	if err != nil {
		return Certificate{}, fmt.Errorf("query certificate samples: %w", err)
	}

	cert.Samples = refs
	return cert, nil
}

func quantityArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
