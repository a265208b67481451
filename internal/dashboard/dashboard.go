// Package dashboard assembles the live shift boards: the latest sample per
// product for the running shift, with whole-sample approval counters.
package dashboard

import (
	"time"

	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/internal/samples"
)

// Counters tallies samples in the shift window. A sample counts as rejected
// when its rolled-up verdict is REJECTED, regardless of how many individual
// results inside it failed.
type Counters struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

func (c *Counters) add(v classify.Verdict) {
	c.Total++
	switch v {
	case classify.VerdictRejected:
		c.Rejected++
	case classify.VerdictPending:
		c.Pending++
	default:
		c.Approved++
	}
}

// ProductBoard is one product's row on the shift board.
type ProductBoard struct {
	ProductCode string           `json:"product_code"`
	ProductName string           `json:"product_name"`
	Latest      *samples.Sample  `json:"latest"`
	Results     []samples.Result `json:"results"`
	Counters    Counters         `json:"counters"`
}

// Board is the full shift board for one sample kind. Line is empty when the
// board spans all production lines.
type Board struct {
	Date     string         `json:"date"`
	Shift    samples.Shift  `json:"shift"`
	Kind     samples.Kind   `json:"kind"`
	Line     string         `json:"line,omitempty"`
	Products []ProductBoard `json:"products"`
}

// Clock resolves the production date and shift for a wall-clock instant.
// Shift A runs [DayStart, DayEnd) in the plant's timezone; shift B covers the
// rest of the day and belongs to the production date on which it started.
type Clock struct {
	Location *time.Location
	DayStart string
	DayEnd   string
}

// Window returns the production date ("2006-01-02") and shift containing now.
func (c Clock) Window(now time.Time) (string, samples.Shift) {
	local := now.In(c.Location)
	hhmm := local.Format("15:04")

	if hhmm >= c.DayStart && hhmm < c.DayEnd {
		return local.Format("2006-01-02"), samples.ShiftA
	}

	// Before DayStart the running night shift started the previous day.
	if hhmm < c.DayStart {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02"), samples.ShiftB
}
