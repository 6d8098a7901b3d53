package query

import (
	"fmt"
	"math"
)

// Pagination defaults applied when a list request leaves them out.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// ListQuery is the request shape every entity's list operation accepts.
// Page and Limit are pointers so that an explicit zero can be told apart from
// an absent value.
type ListQuery struct {
	Page      *int
	Limit     *int
	Condition Condition
	OrderBy   []OrderSpec
}

// NewListQuery builds a ListQuery from raw API arguments: where may be an
// inline string or a tree, orderBy anything ParseOrderBy accepts.
func NewListQuery(page, limit *int, where any, orderBy any, opts ...ParseOption) (ListQuery, error) {
	cond, err := Parse(where, opts...)
	if err != nil {
		return ListQuery{}, err
	}
	order, err := ParseOrderBy(orderBy)
	if err != nil {
		return ListQuery{}, err
	}
	return ListQuery{Page: page, Limit: limit, Condition: cond, OrderBy: order}, nil
}

// Pagination is a zero-based row offset and a row count.
type Pagination struct {
	Offset int
	Limit  int
}

// PageOptions controls how page/limit are turned into a Pagination.
type PageOptions struct {
	DefaultLimit int // Used when the limit is absent.
	MaxLimit     int // Zero means no ceiling.
}

// Paginate applies the package defaults.
func Paginate(page, limit *int) (Pagination, error) {
	return PageOptions{DefaultLimit: DefaultLimit}.Paginate(page, limit)
}

// Paginate validates page (>= 1) and limit (>= 0) and computes
// offset = (page-1) * limit.
func (o PageOptions) Paginate(page, limit *int) (Pagination, error) {
	p, l := DefaultPage, o.DefaultLimit
	if o.DefaultLimit <= 0 {
		l = DefaultLimit
	}
	if page != nil {
		p = *page
	}
	if limit != nil {
		l = *limit
	}

	if p < 1 {
		return Pagination{}, newError(ErrInvalidPagination, "page", fmt.Sprint(p), "page must be a positive integer")
	}
	if l < 0 {
		return Pagination{}, newError(ErrInvalidPagination, "limit", fmt.Sprint(l), "limit must be a non-negative integer")
	}
	if o.MaxLimit > 0 && l > o.MaxLimit {
		return Pagination{}, newError(ErrInvalidPagination, "limit", fmt.Sprint(l), fmt.Sprintf("limit must not exceed %d", o.MaxLimit))
	}
	if l > 0 && p-1 > math.MaxInt/l {
		return Pagination{}, newError(ErrInvalidPagination, "page", fmt.Sprint(p), "offset out of range")
	}
	return Pagination{Offset: (p - 1) * l, Limit: l}, nil
}
