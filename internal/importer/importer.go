// Package importer moves samples in and out of xlsx workbooks: bulk entry of
// a shift's measurements and a mirror-format export.
package importer

import (
	"context"
	"io"
)

// RowError reports one failed workbook row. Row is 1-based as displayed in a
// spreadsheet editor.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport summarizes a bulk import. Failed rows do not abort the run.
type ImportReport struct {
	Created int        `json:"created"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}

// System defines the public contract for sample import and export.
type System interface {
	Handler() *Handler

	// ImportSamples reads an xlsx workbook with columns
	// date, hour, analysis_type, product_code, line, shift, sequence followed
	// by one column per property identifier, creating one sample per row and
	// recording its results. Each row succeeds or fails independently.
	ImportSamples(ctx context.Context, operator string, r io.Reader) (*ImportReport, error)

	// ExportSamples writes an xlsx workbook mirroring the import schema for
	// the given analysis type, date and shift. Values are formatted at each
	// property's declared precision.
	ExportSamples(ctx context.Context, analysisType, date, shift string, w io.Writer) error
}
