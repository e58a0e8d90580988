package mapi

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams provides a fluent interface for building query parameters.
// Pagination parameter names follow the configured PageFields so the same
// builder works against deployments with renamed fields.
type QueryParams struct {
	Cursor  string
	Offset  int
	Limit   int
	OrderBy string
	Filters map[string][]string
	Extra   map[string]string

	fields PageFields
}

// NewQueryParams creates a new query parameters builder using the default
// pagination field names.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
		Extra:   make(map[string]string),
		fields:  DefaultPageFields(),
	}
}

// WithCursor sets the continuation cursor for the next page.
func (q *QueryParams) WithCursor(cursor string) *QueryParams {
	q.Cursor = cursor

	return q
}

// WithOffset sets the item offset for offset-based deployments.
func (q *QueryParams) WithOffset(offset int) *QueryParams {
	q.Offset = offset

	return q
}

// WithLimit sets the page size.
func (q *QueryParams) WithLimit(limit int) *QueryParams {
	q.Limit = limit

	return q
}

// WithOrderBy sets the sort field.
func (q *QueryParams) WithOrderBy(orderBy string) *QueryParams {
	q.OrderBy = orderBy

	return q
}

// WithFilter adds a filter with one or more values. Multiple values are
// joined with commas in the query string.
func (q *QueryParams) WithFilter(name string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[name] = append(q.Filters[name], values...)

	return q
}

// WithExtra sets a raw query parameter that is passed through unchanged.
func (q *QueryParams) WithExtra(key, value string) *QueryParams {
	if q.Extra == nil {
		q.Extra = make(map[string]string)
	}

	q.Extra[key] = value

	return q
}

// WithFieldNames overrides the pagination parameter names for deployments
// that rename them.
func (q *QueryParams) WithFieldNames(fields PageFields) *QueryParams {
	q.fields = fields.withDefaults()

	return q
}

// FieldNames returns the pagination field names in effect for this builder.
func (q *QueryParams) FieldNames() PageFields {
	return q.fields.withDefaults()
}

// Clone returns a deep copy. The paginator advances the cursor on a clone so
// the caller's builder is never mutated.
func (q *QueryParams) Clone() *QueryParams {
	clone := &QueryParams{
		Cursor:  q.Cursor,
		Offset:  q.Offset,
		Limit:   q.Limit,
		OrderBy: q.OrderBy,
		Filters: make(map[string][]string, len(q.Filters)),
		Extra:   make(map[string]string, len(q.Extra)),
		fields:  q.fields,
	}

	for name, values := range q.Filters {
		clone.Filters[name] = append([]string(nil), values...)
	}

	for key, value := range q.Extra {
		clone.Extra[key] = value
	}

	return clone
}

// ToValues converts the parameters to url.Values.
func (q *QueryParams) ToValues() url.Values {
	fields := q.fields.withDefaults()
	values := url.Values{}

	if q.Cursor != "" {
		values.Set(fields.NextParam, q.Cursor)
	}

	if q.Offset > 0 {
		values.Set(fields.OffsetParam, strconv.Itoa(q.Offset))
	}

	if q.Limit > 0 {
		values.Set(fields.LimitParam, strconv.Itoa(q.Limit))
	}

	if q.OrderBy != "" {
		values.Set("sort", q.OrderBy)
	}

	for name, vals := range q.Filters {
		if len(vals) > 0 {
			values.Set(name, strings.Join(vals, ","))
		}
	}

	for key, value := range q.Extra {
		values.Set(key, value)
	}

	return values
}

// ToQueryString converts the parameters to a URL-encoded query string with a
// leading "?", or the empty string when no parameters are set.
func (q *QueryParams) ToQueryString() string {
	values := q.ToValues()
	if len(values) == 0 {
		return ""
	}

	return "?" + values.Encode()
}
