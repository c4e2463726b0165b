package sales

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/inventory"
)

func fullPage(prefix string, n int) []inventory.SaleRecord {
	out := make([]inventory.SaleRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sale(prefix+string(rune('a'+i)), "Soap", int64(i+1)))
	}
	return out
}

func TestPagerStartFetchesFirstPage(t *testing.T) {
	p := NewPager(2)
	require.Equal(t, Idle, p.State())

	req, ok := p.Start()
	require.True(t, ok)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 2, req.Limit)
	assert.Equal(t, FetchingPage, p.State())

	_, ok = p.Start()
	assert.False(t, ok, "second Start should be ignored")

	out := p.Complete(req, fullPage("p1", 2), nil)
	assert.True(t, out.Applied)
	assert.Equal(t, 2, out.Merged)
	assert.Equal(t, Idle, p.State())
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 2, p.Collection().Len())
}

func TestPagerSingleRequestInFlight(t *testing.T) {
	p := NewPager(2)
	req, _ := p.Start()

	_, ok := p.NearEnd()
	assert.False(t, ok, "NearEnd while fetching must not issue a request")

	p.Complete(req, fullPage("p1", 2), nil)
	more, ok := p.NearEnd()
	require.True(t, ok)
	assert.Equal(t, 2, more.Page)
	assert.Equal(t, FetchingMore, p.State())

	_, ok = p.NearEnd()
	assert.False(t, ok)
	inflight, ok := p.InFlight()
	require.True(t, ok)
	assert.Equal(t, more, inflight)
}

func TestPagerDiscardsStaleTickets(t *testing.T) {
	p := NewPager(2)
	first, _ := p.Start()
	second, _ := p.Reset()

	out := p.Complete(first, fullPage("old", 2), nil)
	assert.False(t, out.Applied)
	assert.Equal(t, 0, p.Collection().Len())
	assert.Equal(t, FetchingPage, p.State())

	out = p.Complete(second, fullPage("new", 2), nil)
	assert.True(t, out.Applied)
	assert.Equal(t, 2, p.Collection().Len())

	out = p.Complete(second, fullPage("dup", 2), nil)
	assert.False(t, out.Applied, "a ticket is accepted once")
}

func TestPagerFailureHaltsUntilRetriggered(t *testing.T) {
	p := NewPager(2)
	req, _ := p.Start()
	p.Complete(req, fullPage("p1", 2), nil)

	more, _ := p.NearEnd()
	boom := errors.New("connection refused")
	out := p.Complete(more, nil, boom)
	require.True(t, out.Applied)
	assert.Equal(t, Failed, p.State())
	assert.ErrorIs(t, p.Err(), boom)
	_, inflight := p.InFlight()
	assert.False(t, inflight, "failure clears the in-flight ticket")
	assert.Equal(t, 2, p.Collection().Len(), "failure keeps merged records")

	retry, ok := p.NearEnd()
	require.True(t, ok)
	assert.Equal(t, 2, retry.Page, "retry asks for the page that failed")
	assert.Equal(t, FetchingMore, p.State())

	p.Complete(retry, fullPage("p2", 2), nil)
	assert.Equal(t, Idle, p.State())
	assert.NoError(t, p.Err())
	assert.Equal(t, 2, p.Page())
}

func TestPagerInitialFailureRetriesFirstPage(t *testing.T) {
	p := NewPager(5)
	req, _ := p.Start()
	p.Complete(req, nil, errors.New("timeout"))

	retry, ok := p.NearEnd()
	require.True(t, ok)
	assert.Equal(t, 1, retry.Page)
	assert.Equal(t, FetchingPage, p.State())
}

func TestPagerShortPageExhausts(t *testing.T) {
	p := NewPager(3)
	req, _ := p.Start()
	out := p.Complete(req, fullPage("p1", 1), nil)
	assert.Equal(t, Exhausted, out.State)

	_, ok := p.NearEnd()
	assert.False(t, ok, "exhausted pager ignores NearEnd")

	again, ok := p.Reset()
	require.True(t, ok)
	assert.Equal(t, 1, again.Page)
	assert.Equal(t, 0, p.Collection().Len())
}

func TestPagerReportsMalformed(t *testing.T) {
	p := NewPager(3)
	req, _ := p.Start()
	out := p.Complete(req, []inventory.SaleRecord{sale("a", "Soap", 1), {Quantity: 1}, sale("b", "Bread", 1)}, nil)
	assert.Equal(t, 2, out.Merged)
	require.Len(t, out.Malformed, 1)
	assert.Equal(t, inventory.KindMalformed, inventory.Kind(out.Malformed[0]))
	assert.Equal(t, Idle, out.State, "page length counts malformed entries")
}

func TestPagerMergesAroundUndecodableEntries(t *testing.T) {
	p := NewPager(3)
	req, _ := p.Start()
	page := []inventory.SaleRecord{
		{Invalid: "json: cannot unmarshal number into Go struct field saleWire._id of type string"},
		sale("a", "Soap", 1),
		sale("b", "Bread", 2),
	}
	out := p.Complete(req, page, nil)
	require.True(t, out.Applied)
	assert.NoError(t, out.Err)
	assert.Equal(t, 2, out.Merged)
	require.Len(t, out.Malformed, 1)
	var malformed *inventory.MalformedRecordError
	require.ErrorAs(t, out.Malformed[0], &malformed)
	assert.Equal(t, 0, malformed.Index)
	assert.Contains(t, malformed.Reason, "cannot unmarshal")
	assert.Equal(t, Idle, out.State, "a full page stays open for more")
	assert.Equal(t, []string{"a", "b"}, p.Collection().IDs())
}

func TestPagerDisposeDropsLateResponses(t *testing.T) {
	p := NewPager(2)
	req, _ := p.Start()
	p.Dispose()

	out := p.Complete(req, fullPage("late", 2), nil)
	assert.False(t, out.Applied)
	assert.Equal(t, 0, p.Collection().Len())

	_, ok := p.NearEnd()
	assert.False(t, ok)
	_, ok = p.Reset()
	assert.False(t, ok)
	assert.True(t, p.Disposed())
}

type stubFetcher struct {
	calls  []Request
	result []inventory.SaleRecord
	err    error
}

func (s *stubFetcher) FetchSalesPage(_ context.Context, page, limit int) ([]inventory.SaleRecord, error) {
	s.calls = append(s.calls, Request{Page: page, Limit: limit})
	return s.result, s.err
}

func TestFetchWrapsErrorsWithPage(t *testing.T) {
	stub := &stubFetcher{err: &inventory.ServerError{Path: "/api/sales", StatusCode: 502}}
	_, err := Fetch(context.Background(), stub, Request{Page: 4, Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch sales page 4")
	assert.Equal(t, inventory.KindServer, inventory.Kind(err))
	assert.Len(t, stub.calls, 1, "Fetch does not retry")

	_, err = Fetch(context.Background(), nil, Request{Page: 1, Limit: 10})
	assert.Error(t, err)
}
