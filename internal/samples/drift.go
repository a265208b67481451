package samples

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/pkg/repository"
)

type resultRow struct {
	ID       uuid.UUID
	SampleID uuid.UUID
	Property string
	Value    decimal.Decimal
	Verdict  classify.Verdict
	Limits   *classify.Limits
}

type sampleRow struct {
	ID      uuid.UUID
	Verdict classify.Verdict
}

// CheckDrift re-derives every stored verdict from its snapshot specification
// and compares it against the cache. Result checks and rollup checks for both
// kinds run concurrently.
func (r *repo) CheckDrift(ctx context.Context) (*DriftReport, error) {
	var (
		mu     sync.Mutex
		report DriftReport
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, kind := range []Kind{KindPoint, KindComposite} {
		g.Go(func() error {
			checked, entries, err := r.checkResults(gctx, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			report.CheckedResults += checked
			report.Entries = append(report.Entries, entries...)
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			checked, entries, err := r.checkRollups(gctx, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			report.CheckedSamples += checked
			report.Entries = append(report.Entries, entries...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !report.Clean() {
		r.logger.Warn("verdict drift detected", "entries", len(report.Entries))
	}
	return &report, nil
}

func (r *repo) checkResults(ctx context.Context, kind Kind) (int, []DriftEntry, error) {
	_, _, resultTable := tableFor(kind)

	sqlq := fmt.Sprintf(`
		SELECT res.id, res.sample_id, pr.identifier, res.value, res.verdict,
		       sp.id, sp.lsl, sp.lower_warn, sp.upper_warn, sp.usl
		FROM public.%s res
		JOIN public.properties pr ON res.property_id = pr.id
		LEFT JOIN public.specifications sp ON res.specification_id = sp.id`, resultTable)

	rows, err := repository.QueryMany(ctx, r.db, sqlq, nil, scanResultRow)
	if err != nil {
		return 0, nil, fmt.Errorf("query %s results for drift check: %w", kind, err)
	}

	var entries []DriftEntry
	for _, row := range rows {
		derived := classify.Classify(row.Value, row.Limits)
		if derived == row.Verdict {
			continue
		}
		// ALERT can come from a reviewer override, which Classify cannot
		// reproduce. Stored ALERT over a derived APPROVED is legitimate.
		if row.Verdict == classify.VerdictAlert && derived == classify.VerdictApproved {
			continue
		}
		id := row.ID
		entries = append(entries, DriftEntry{
			Kind:     kind,
			SampleID: row.SampleID,
			ResultID: &id,
			Property: row.Property,
			Stored:   row.Verdict,
			Derived:  derived,
		})
	}

	return len(rows), entries, nil
}

func (r *repo) checkRollups(ctx context.Context, kind Kind) (int, []DriftEntry, error) {
	table, _, resultTable := tableFor(kind)

	sqlq := fmt.Sprintf("SELECT id, verdict FROM public.%s", table)
	sampleRows, err := repository.QueryMany(ctx, r.db, sqlq, nil, func(s repository.Scanner) (sampleRow, error) {
		var row sampleRow
		err := s.Scan(&row.ID, &row.Verdict)
		return row, err
	})
	if err != nil {
		return 0, nil, fmt.Errorf("query %s samples for drift check: %w", kind, err)
	}

	type pair struct {
		SampleID uuid.UUID
		Verdict  classify.Verdict
	}
	verdictSQL := fmt.Sprintf("SELECT sample_id, verdict FROM public.%s", resultTable)
	pairs, err := repository.QueryMany(ctx, r.db, verdictSQL, nil, func(s repository.Scanner) (pair, error) {
		var p pair
		err := s.Scan(&p.SampleID, &p.Verdict)
		return p, err
	})
	if err != nil {
		return 0, nil, fmt.Errorf("query %s result verdicts for drift check: %w", kind, err)
	}

	bySample := make(map[uuid.UUID][]classify.Verdict, len(sampleRows))
	for _, p := range pairs {
		bySample[p.SampleID] = append(bySample[p.SampleID], p.Verdict)
	}

	var entries []DriftEntry
	for _, s := range sampleRows {
		derived := classify.Rollup(bySample[s.ID])
		if derived != s.Verdict {
			entries = append(entries, DriftEntry{
				Kind:     kind,
				SampleID: s.ID,
				Stored:   s.Verdict,
				Derived:  derived,
			})
		}
	}

	return len(sampleRows), entries, nil
}

func scanResultRow(s repository.Scanner) (resultRow, error) {
	var (
		row      resultRow
		specID   uuid.NullUUID
		lsl, usl nullDecimal
		warnLo   nullDecimal
		warnHi   nullDecimal
	)
	err := s.Scan(&row.ID, &row.SampleID, &row.Property, &row.Value, &row.Verdict,
		&specID, &lsl, &warnLo, &warnHi, &usl)
	if err != nil {
		return row, err
	}

	if specID.Valid {
		// The snapshot specification may since have been retired; it was
		// active when the verdict was derived, so classify as active.
		row.Limits = &classify.Limits{
			LSL:       lsl.ptr(),
			LowerWarn: warnLo.ptr(),
			UpperWarn: warnHi.ptr(),
			USL:       usl.ptr(),
			Active:    true,
		}
	}
	return row, err
}
