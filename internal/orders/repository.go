package orders

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/certificates"
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
	qr         QRRenderer
	publicBase string
	now        func() time.Time
}

// New creates a loading order store implementing the System interface.
// publicBase is the externally reachable URL prefix encoded into QR codes.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
	artifacts storage.System,
	qr QRRenderer,
	publicBase string,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "orders"),
		pagination: pagination,
		artifacts:  artifacts,
		qr:         qr,
		publicBase: publicBase,
		now:        time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*LoadingOrder, error) {
	var quantity *decimal.Decimal
	if cmd.Quantity != "" {
		q, err := formatting.ParseDecimal(cmd.Quantity)
		if err != nil {
			return nil, ErrInvalidQuantity
		}
		quantity = &q
	}

	scheduled := r.now()
	if cmd.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, cmd.ScheduledAt)
		if err != nil {
			return nil, ErrInvalidSchedule
		}
		scheduled = t
	}

	created, err := r.createOnce(ctx, cmd, quantity, scheduled)
	if err != nil && repository.IsLockTimeout(err) {
		r.logger.Warn("order number allocation contended, retrying", "certificate", cmd.CertificateID)
		created, err = r.createOnce(ctx, cmd, quantity, scheduled)
		if err != nil && repository.IsLockTimeout(err) {
			return nil, ErrNumberContended
		}
	}
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"loading order created",
		"id", created.ID,
		"order_number", created.OrderNumber,
		"certificate", created.CertificateID,
	)
	return &created, nil
}

func (r *repo) createOnce(
	ctx context.Context,
	cmd CreateCommand,
	quantity *decimal.Decimal,
	scheduled time.Time,
) (LoadingOrder, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (LoadingOrder, error) {
		var status string
		err := tx.QueryRowContext(ctx,
			"SELECT status FROM certificates WHERE id = $1", cmd.CertificateID,
		).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return LoadingOrder{}, ErrCertificateNotApproved
			}
			return LoadingOrder{}, fmt.Errorf("query certificate status: %w", err)
		}
		if status != string(certificates.StatusApproved) {
			return LoadingOrder{}, ErrCertificateNotApproved
		}

		number, err := certificates.NextNumber(ctx, tx, certificates.SequenceOrder, r.now())
		if err != nil {
			return LoadingOrder{}, err
		}

		token, err := newPublicToken()
		if err != nil {
			return LoadingOrder{}, err
		}

		id := uuid.New()
		insert := `
			INSERT INTO loading_orders(
				id, order_number, certificate_id, carrier, vehicle_plate,
				driver_name, destination, quantity, status, scheduled_at, public_token)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		if _, err := tx.ExecContext(ctx, insert,
			id, number, cmd.CertificateID, cmd.Carrier, cmd.VehiclePlate,
			cmd.DriverName, cmd.Destination, quantityArg(quantity),
			string(StatusPending), scheduled, token,
		); err != nil {
			return LoadingOrder{}, fmt.Errorf("insert loading order: %w", err)
		}

		return findIn(ctx, tx, id)
	})
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*LoadingOrder, error) {
	order, err := findIn(ctx, r.db, id)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &order, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[LoadingOrder], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(orderProjection(), defaultOrderSort...).
		WhereSearch(page.Search, "OrderNumber", "Carrier", "DriverName", "VehiclePlate")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count loading orders: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("query loading orders: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Start(ctx context.Context, id uuid.UUID) (*LoadingOrder, error) {
	return r.transition(ctx, id, StatusPending, StatusInProgress,
		"started_at = NOW(),")
}

func (r *repo) Complete(ctx context.Context, id uuid.UUID) (*LoadingOrder, error) {
	return r.transition(ctx, id, StatusInProgress, StatusCompleted,
		"completed_at = NOW(),")
}

func (r *repo) Cancel(ctx context.Context, id uuid.UUID) (*LoadingOrder, error) {
	cancelled, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (LoadingOrder, error) {
		order, err := findIn(ctx, tx, id)
		if err != nil {
			return LoadingOrder{}, err
		}
		if order.Status.Terminal() {
			return LoadingOrder{}, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, order.Status)
		}

		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE loading_orders SET status = $2, updated_at = NOW() WHERE id = $1",
			id, string(StatusCancelled),
		); err != nil {
			return LoadingOrder{}, err
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("loading order cancelled", "id", id)
	return &cancelled, nil
}

func (r *repo) PublicByToken(ctx context.Context, token string) (*PublicView, error) {
	sqlq, args := query.NewBuilder(orderProjection()).BuildSingle("PublicToken", token)
	order, err := repository.QueryOne(ctx, r.db, sqlq, args, scanOrder)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	view := order.Public()
	return &view, nil
}

func (r *repo) QR(ctx context.Context, id uuid.UUID) ([]byte, error) {
	order, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.QRKey != nil && r.artifacts != nil {
		reader, err := r.artifacts.Download(ctx, *order.QRKey)
		if err == nil {
			defer reader.Close()
			return io.ReadAll(reader)
		}
		r.logger.Warn("qr artifact fetch failed, re-rendering", "id", id, "error", err)
	}

	payload := r.publicBase + "/public/loading-order/" + order.PublicToken
	png, err := r.qr.RenderQR(payload, qrPixelSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	if r.artifacts != nil {
		key := fmt.Sprintf("orders/%s/qr.png", order.ID)
		if err := r.artifacts.Upload(ctx, key, bytes.NewReader(png), "image/png"); err != nil {
			r.logger.Warn("qr artifact upload failed", "id", id, "error", err)
		} else if _, err := r.db.ExecContext(ctx,
			"UPDATE loading_orders SET qr_key = $2, updated_at = NOW() WHERE id = $1",
			order.ID, key,
		); err != nil {
			r.logger.Warn("qr artifact key update failed", "id", id, "error", err)
		}
	}

	return png, nil
}

const qrPixelSize = 256

func (r *repo) transition(
	ctx context.Context,
	id uuid.UUID,
	from, to Status,
	timestampSet string,
) (*LoadingOrder, error) {
	moved, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (LoadingOrder, error) {
		order, err := findIn(ctx, tx, id)
		if err != nil {
			return LoadingOrder{}, err
		}
		if order.Status != from {
			return LoadingOrder{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, to, order.Status)
		}

		update := fmt.Sprintf(
			"UPDATE loading_orders SET %s status = $2, updated_at = NOW() WHERE id = $1",
			timestampSet,
		)
		if err := repository.ExecExpectOne(ctx, tx, update, id, string(to)); err != nil {
			return LoadingOrder{}, err
		}

		return findIn(ctx, tx, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("loading order transitioned", "id", id, "status", to)
	return &moved, nil
}

func findIn(ctx context.Context, q repository.Querier, id uuid.UUID) (LoadingOrder, error) {
	sqlq, args := query.NewBuilder(orderProjection()).BuildSingle("ID", id)
	return repository.QueryOne(ctx, q, sqlq, args, scanOrder)
}

func quantityArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
