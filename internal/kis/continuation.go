package kis

import (
	"context"
	"errors"
	"net/url"
)

// MarketScope selects which continuation-cursor parameter family an
// endpoint uses. Domestic endpoints carry the cursor in
// CTX_AREA_FK100/CTX_AREA_NK100, overseas endpoints in
// CTX_AREA_FK200/CTX_AREA_NK200.
type MarketScope int

const (
	ScopeDomestic MarketScope = iota
	ScopeOverseas
)

// QueryCode returns the cursor parameter suffix for the scope.
func (s MarketScope) QueryCode() string {
	if s == ScopeOverseas {
		return "200"
	}
	return "100"
}

func (s MarketScope) forwardParam() string { return "CTX_AREA_FK" + s.QueryCode() }
func (s MarketScope) nextParam() string    { return "CTX_AREA_NK" + s.QueryCode() }

// Cursor carries the opaque continuation keys between pages of one
// logical query. The zero value requests the first page. The keys are
// server state and must be passed back byte for byte.
type Cursor struct {
	ForwardKey string
	NextKey    string

	more bool
}

// First reports whether this cursor requests the first page.
func (c Cursor) First() bool {
	return !c.more
}

// trCont returns the tr_cont request header value: empty on the first
// call, "N" (next) when continuing.
func (c Cursor) trCont() string {
	if c.more {
		return "N"
	}
	return ""
}

// apply merges the cursor keys into the request query parameters.
func (c Cursor) apply(s MarketScope, q url.Values) {
	q.Set(s.forwardParam(), c.ForwardKey)
	q.Set(s.nextParam(), c.NextKey)
}

// hasNextPage interprets the response tr_cont header: F and M mean
// further pages exist, D, E and empty are terminal.
func hasNextPage(trCont string) bool {
	return trCont == "F" || trCont == "M"
}

// pagedResponse is implemented by responses of continuation-query
// endpoints.
type pagedResponse interface {
	// Continuation returns the response tr_cont flag and the cursor
	// keys to carry into the next request.
	Continuation() (trCont, forwardKey, nextKey string)
	// RowCount returns the number of result rows on this page.
	RowCount() int
}

// maxContinuationPages bounds a single logical query. A well-formed
// gateway terminates via tr_cont; the bound only guards against a
// misbehaving server reissuing live cursors forever.
const maxContinuationPages = 100

// ErrTooManyPages is returned when a continuation query exceeds
// maxContinuationPages round trips.
var ErrTooManyPages = errors.New("kis: continuation query exceeded page bound")

// fetchPage requests one page of a continuation query. The cursor is
// zero for the first page.
type fetchPage[P pagedResponse] func(ctx context.Context, cur Cursor) (P, error)

// continuousQuery drives fetch until the gateway reports no further
// pages and returns every page in arrival order. Any fetch error
// aborts the whole query and already-fetched pages are discarded. An
// empty page stops the query even if the server flags more data.
func continuousQuery[P pagedResponse](ctx context.Context, fetch fetchPage[P]) ([]P, error) {
	var (
		pages []P
		cur   Cursor
	)

	for i := 0; ; i++ {
		if i >= maxContinuationPages {
			return nil, ErrTooManyPages
		}

		page, err := fetch(ctx, cur)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)

		trCont, fk, nk := page.Continuation()
		if !hasNextPage(trCont) || page.RowCount() == 0 {
			return pages, nil
		}

		cur = Cursor{ForwardKey: fk, NextKey: nk, more: true}
	}
}
