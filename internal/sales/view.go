package sales

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/five82/tally/internal/inventory"
)

// View is the sales screen model handed to the renderer. It owns a Pager and
// the current ViewParams and recomputes the projection on demand.
type View struct {
	pager  *Pager
	params ViewParams
	logger *zap.Logger
}

// Summary aggregates the records currently projected.
type Summary struct {
	Count   int
	Units   int
	Revenue decimal.Decimal
}

// NewView returns a view fetching pageSize records per page and sorted by
// sort. A nil logger discards output.
func NewView(pageSize int, sort SortKey, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{
		pager:  NewPager(pageSize),
		params: ViewParams{Sort: ParseSortKey(string(sort)), Page: 1},
		logger: logger,
	}
}

// Params returns the current view parameters. Page is the cursor of the next
// page to be requested.
func (v *View) Params() ViewParams {
	params := v.params
	params.Page = v.pager.Page() + 1
	return params
}

func (v *View) State() State { return v.pager.State() }
func (v *View) Err() error { return v.pager.Err() }
func (v *View) Collection() Collection { return v.pager.Collection() }
func (v *View) InFlight() (Request, bool) { return v.pager.InFlight() }

// Projected returns the filtered, sorted records for rendering.
func (v *View) Projected() []inventory.SaleRecord {
	return Project(v.pager.Collection(), v.params)
}

// OnSearchChange replaces the search text.
func (v *View) OnSearchChange(text string) {
	v.params.Search = text
}

// OnSortChange replaces the sort key. Unknown keys fall back to date.
func (v *View) OnSortChange(key SortKey) {
	v.params.Sort = ParseSortKey(string(key))
}

// OnNearEnd asks for the next page when the pager allows it.
func (v *View) OnNearEnd() (Request, bool) {
	req, ok := v.pager.NearEnd()
	if ok {
		v.logger.Debug("requesting sales page", zap.Int("page", req.Page), zap.Int("limit", req.Limit))
	}
	return req, ok
}

// Start requests the first page on mount.
func (v *View) Start() (Request, bool) {
	return v.pager.Start()
}

// Refresh drops everything fetched so far and starts again from page 1.
func (v *View) Refresh() (Request, bool) {
	return v.pager.Reset()
}

// Dispose tears the view down; responses arriving later are dropped.
func (v *View) Dispose() {
	v.pager.Dispose()
}

// Apply hands a fetch response to the pager and logs what happened.
func (v *View) Apply(req Request, records []inventory.SaleRecord, err error) Outcome {
	out := v.pager.Complete(req, records, err)
	if !out.Applied {
		v.logger.Debug("discarded stale sales page", zap.Int("page", req.Page))
		return out
	}
	if out.Err != nil {
		v.logger.Warn("sales page fetch failed",
			zap.Int("page", req.Page),
			zap.String("kind", inventory.Kind(out.Err)),
			zap.Error(out.Err),
		)
		return out
	}
	for _, problem := range out.Malformed {
		v.logger.Warn("dropped malformed sale record", zap.Int("page", req.Page), zap.Error(problem))
	}
	v.logger.Debug("merged sales page",
		zap.Int("page", req.Page),
		zap.Int("records", out.Merged),
		zap.Int("total", v.pager.Collection().Len()),
		zap.Stringer("state", out.State),
	)
	return out
}

// Summary totals the current projection.
func (v *View) Summary() Summary {
	return Summarize(v.Projected())
}

// Summarize totals units and revenue over records.
func Summarize(records []inventory.SaleRecord) Summary {
	sum := Summary{Count: len(records), Revenue: decimal.Zero}
	for _, rec := range records {
		sum.Units += rec.Quantity
		sum.Revenue = sum.Revenue.Add(rec.Total())
	}
	return sum
}
