package sales

import (
	"context"
	"fmt"

	"github.com/five82/tally/internal/inventory"
)

// Fetcher retrieves one page of sale records.
type Fetcher interface {
	FetchSalesPage(ctx context.Context, page, limit int) ([]inventory.SaleRecord, error)
}

// Fetch executes req against f once. It never retries.
func Fetch(ctx context.Context, f Fetcher, req Request) ([]inventory.SaleRecord, error) {
	if f == nil {
		return nil, fmt.Errorf("fetch sales page %d: no fetcher", req.Page)
	}
	records, err := f.FetchSalesPage(ctx, req.Page, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch sales page %d: %w", req.Page, err)
	}
	return records, nil
}

// State is the pagination driver state.
type State int

const (
	Idle State = iota
	FetchingPage
	FetchingMore
	Failed
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchingPage:
		return "fetching"
	case FetchingMore:
		return "fetching more"
	case Failed:
		return "failed"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Fetching reports whether a request is outstanding in this state.
func (s State) Fetching() bool {
	return s == FetchingPage || s == FetchingMore
}

// Request is a ticket for one page fetch. Only the ticket most recently
// issued by a Pager is accepted by Complete.
type Request struct {
	Page  int
	Limit int
	gen   uint64
}

// Outcome describes what Complete did with a response.
type Outcome struct {
	// Applied is false when the ticket was stale and the response discarded.
	Applied   bool
	Merged    int
	Malformed []error
	State     State
	Err       error
}

// Pager drives sequential page fetches into a Collection. It enforces a
// single outstanding request: every issued Request carries a generation and
// responses for any other generation are dropped.
//
// A Pager is not safe for concurrent use; drive it from one goroutine.
type Pager struct {
	limit      int
	state      State
	page       int
	gen        uint64
	inflight   *Request
	failedPage int
	err        error
	disposed   bool
	collection Collection
}

// NewPager returns an Idle pager requesting limit records per page. A
// non-positive limit defaults to 10.
func NewPager(limit int) *Pager {
	if limit <= 0 {
		limit = 10
	}
	return &Pager{limit: limit}
}

func (p *Pager) State() State { return p.state }
func (p *Pager) Limit() int { return p.limit }
func (p *Pager) Collection() Collection { return p.collection }
func (p *Pager) Err() error { return p.err }
func (p *Pager) Disposed() bool { return p.disposed }

// Page returns the last page merged successfully, 0 before the first.
func (p *Pager) Page() int { return p.page }

// InFlight returns the outstanding ticket, if any.
func (p *Pager) InFlight() (Request, bool) {
	if p.inflight == nil {
		return Request{}, false
	}
	return *p.inflight, true
}

// Start issues the first page request. It is a no-op once anything has been
// fetched or requested; use Reset to start over.
func (p *Pager) Start() (Request, bool) {
	if p.disposed || p.state != Idle || p.page != 0 || p.inflight != nil {
		return Request{}, false
	}
	return p.issue(FetchingPage, 1), true
}

// NearEnd is the consumer signal that the end of the list is close. While
// Idle it requests the next page; while Failed it retries the page that
// failed. Every other state ignores it.
func (p *Pager) NearEnd() (Request, bool) {
	if p.disposed {
		return Request{}, false
	}
	switch p.state {
	case Idle:
		if p.page == 0 {
			return p.issue(FetchingPage, 1), true
		}
		return p.issue(FetchingMore, p.page+1), true
	case Failed:
		next := FetchingMore
		if p.failedPage <= 1 {
			next = FetchingPage
		}
		return p.issue(next, p.failedPage), true
	default:
		return Request{}, false
	}
}

// Reset discards the collection and any outstanding request, then requests
// page 1 again.
func (p *Pager) Reset() (Request, bool) {
	if p.disposed {
		return Request{}, false
	}
	p.collection = Collection{}
	p.page = 0
	p.err = nil
	p.failedPage = 0
	return p.issue(FetchingPage, 1), true
}

// Dispose invalidates the outstanding ticket. Later calls leave the pager
// untouched.
func (p *Pager) Dispose() {
	p.disposed = true
	p.inflight = nil
	p.gen++
}

// Complete applies the response for req. Stale or disposed tickets are
// discarded. An error moves the pager to Failed without retrying; a page
// shorter than the limit moves it to Exhausted.
func (p *Pager) Complete(req Request, records []inventory.SaleRecord, err error) Outcome {
	if p.disposed || p.inflight == nil || req.gen != p.inflight.gen {
		return Outcome{State: p.state}
	}
	p.inflight = nil

	if err != nil {
		p.state = Failed
		p.failedPage = req.Page
		p.err = err
		return Outcome{Applied: true, State: p.state, Err: err}
	}

	merged, malformed := Merge(p.collection, records)
	p.collection = merged
	p.page = req.Page
	p.err = nil
	p.failedPage = 0
	if len(records) < req.Limit {
		p.state = Exhausted
	} else {
		p.state = Idle
	}
	return Outcome{
		Applied:   true,
		Merged:    len(records) - len(malformed),
		Malformed: malformed,
		State:     p.state,
	}
}

func (p *Pager) issue(state State, page int) Request {
	p.gen++
	req := Request{Page: page, Limit: p.limit, gen: p.gen}
	p.inflight = &req
	p.state = state
	return req
}
