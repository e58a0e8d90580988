package mapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parla-ai/mapi-client/internal/constants"
)

// PageMode selects how the paginator advances between pages.
type PageMode int

const (
	// PageModeCursor follows the continuation cursor returned by the server.
	PageModeCursor PageMode = iota

	// PageModeOffset advances a numeric offset by the number of items
	// received on each page.
	PageModeOffset
)

// PageFields names the pagination wire fields for one deployment. Zero
// values fall back to the documented defaults, so a partially filled struct
// only overrides the fields it names.
type PageFields struct {
	// Mode selects cursor or offset pagination.
	Mode PageMode

	// Items is the response envelope key holding the item array.
	Items string

	// NextCursor is the envelope key holding the continuation cursor.
	NextCursor string

	// PrevCursor is the envelope key holding the previous-page cursor.
	PrevCursor string

	// Total is the envelope key holding the total item count.
	Total string

	// NextParam is the query parameter carrying the cursor.
	NextParam string

	// OffsetParam is the query parameter carrying the offset.
	OffsetParam string

	// LimitParam is the query parameter carrying the page size.
	LimitParam string
}

// DefaultPageFields returns the field names documented for standard
// deployments.
func DefaultPageFields() PageFields {
	return PageFields{
		Mode:        PageModeCursor,
		Items:       constants.DefaultItemsField,
		NextCursor:  constants.DefaultNextCursorField,
		PrevCursor:  constants.DefaultPrevCursorField,
		Total:       constants.DefaultTotalField,
		NextParam:   constants.DefaultNextParam,
		OffsetParam: constants.DefaultOffsetParam,
		LimitParam:  constants.DefaultLimitParam,
	}
}

func (f PageFields) withDefaults() PageFields {
	defaults := DefaultPageFields()

	if f.Items == "" {
		f.Items = defaults.Items
	}

	if f.NextCursor == "" {
		f.NextCursor = defaults.NextCursor
	}

	if f.PrevCursor == "" {
		f.PrevCursor = defaults.PrevCursor
	}

	if f.Total == "" {
		f.Total = defaults.Total
	}

	if f.NextParam == "" {
		f.NextParam = defaults.NextParam
	}

	if f.OffsetParam == "" {
		f.OffsetParam = defaults.OffsetParam
	}

	if f.LimitParam == "" {
		f.LimitParam = defaults.LimitParam
	}

	return f
}

// DecodeListResponse decodes a list envelope, checking each expected field
// explicitly. A body that is not a JSON object, lacks the item array, or
// carries a wrong-typed pagination field produces a MalformedResponseError
// naming the offending field.
func DecodeListResponse[T any](data []byte, fields PageFields, url string) (*ListResponse[T], error) {
	fields = fields.withDefaults()

	var envelope map[string]json.RawMessage

	err := json.Unmarshal(data, &envelope)
	if err != nil {
		return nil, &MalformedResponseError{URL: url, Err: err}
	}

	rawItems, ok := envelope[fields.Items]
	if !ok {
		return nil, &MalformedResponseError{URL: url, Field: fields.Items}
	}

	response := &ListResponse[T]{}

	err = json.Unmarshal(rawItems, &response.Items)
	if err != nil {
		return nil, &MalformedResponseError{URL: url, Field: fields.Items, Err: err}
	}

	if raw, ok := envelope[fields.NextCursor]; ok {
		err = json.Unmarshal(raw, &response.NextCursor)
		if err != nil {
			return nil, &MalformedResponseError{URL: url, Field: fields.NextCursor, Err: err}
		}
	}

	if raw, ok := envelope[fields.PrevCursor]; ok {
		err = json.Unmarshal(raw, &response.PreviousCursor)
		if err != nil {
			return nil, &MalformedResponseError{URL: url, Field: fields.PrevCursor, Err: err}
		}
	}

	if raw, ok := envelope[fields.Total]; ok {
		err = json.Unmarshal(raw, &response.Total)
		if err != nil {
			return nil, &MalformedResponseError{URL: url, Field: fields.Total, Err: err}
		}
	}

	return response, nil
}

// DecodeObject decodes a single-object response body into T, wrapping decode
// failures in a MalformedResponseError.
func DecodeObject[T any](data []byte, url string) (*T, error) {
	var obj T

	err := json.Unmarshal(data, &obj)
	if err != nil {
		return nil, &MalformedResponseError{URL: url, Err: err}
	}

	return &obj, nil
}

// PaginationClient fetches a single page of results for a path.
type PaginationClient[T any] interface {
	ListPage(ctx context.Context, path string, params *QueryParams) (*ListResponse[T], error)
}

// PageFunc adapts a resource client's page method to PaginationClient so
// the pagination helpers can drive it with custom options:
//
//	pages := mapi.PageFunc[mapi.AuditEvent](client.AuditEvents().ListPage)
//	events, err := mapi.FetchAllPages(ctx, pages, "", nil, opts)
//
// The path argument is ignored; the bound method already knows its route.
type PageFunc[T any] func(ctx context.Context, params *QueryParams) (*ListResponse[T], error)

// ListPage implements PaginationClient.
func (f PageFunc[T]) ListPage(ctx context.Context, _ string, params *QueryParams) (*ListResponse[T], error) {
	return f(ctx, params)
}

// ProgressFunc receives the running page and item counts after each page.
type ProgressFunc func(pages, items int)

// PaginationOptions configures the pagination helpers.
type PaginationOptions struct {
	// PageSize is the page size hint sent to the server. Zero leaves the
	// server default in place.
	PageSize int

	// MaxPages bounds the number of pages fetched in one call. Values of
	// zero or less use the package default. Reaching the bound while the
	// server still advertises more pages fails with a PaginationLimitError.
	MaxPages int

	// Progress, when set, is invoked after each page with the running page
	// and item counts.
	Progress ProgressFunc
}

// DefaultPaginationOptions returns the documented page size and page bound.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		PageSize: constants.DefaultPageSize,
		MaxPages: constants.DefaultMaxPages,
	}
}

func (o *PaginationOptions) withDefaults() PaginationOptions {
	opts := PaginationOptions{}
	if o != nil {
		opts = *o
	}

	if opts.MaxPages <= 0 {
		opts.MaxPages = constants.DefaultMaxPages
	}

	return opts
}

// walkPages drives the shared pagination loop. Pages are fetched strictly
// one at a time; visit runs between fetches.
func walkPages[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams, opts PaginationOptions, visit func(*ListResponse[T]) error) error {
	current := params
	if current == nil {
		current = NewQueryParams()
	} else {
		current = current.Clone()
	}

	if opts.PageSize > 0 {
		current.WithLimit(opts.PageSize)
	}

	fields := current.FieldNames()
	pages := 0
	items := 0

	for {
		page, err := client.ListPage(ctx, path, current)
		if err != nil {
			return err
		}

		pages++
		items += len(page.Items)

		if opts.Progress != nil {
			opts.Progress(pages, items)
		}

		err = visit(page)
		if err != nil {
			return err
		}

		if len(page.Items) == 0 {
			return nil
		}

		switch fields.Mode {
		case PageModeOffset:
			if current.Limit > 0 && len(page.Items) < current.Limit {
				return nil
			}

			current = current.Clone().WithOffset(current.Offset + len(page.Items))
		default:
			if page.NextCursor == nil || *page.NextCursor == "" {
				return nil
			}

			current = current.Clone().WithCursor(*page.NextCursor)
		}

		if pages >= opts.MaxPages {
			return &PaginationLimitError{Pages: pages, MaxPages: opts.MaxPages}
		}
	}
}

// FetchAllPages fetches every page for path and returns the items
// concatenated in fetch order. On a PaginationLimitError the items collected
// before the bound are returned alongside the error.
func FetchAllPages[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams, options *PaginationOptions) ([]T, error) {
	opts := options.withDefaults()

	var all []T

	err := walkPages(ctx, client, path, params, opts, func(page *ListResponse[T]) error {
		all = append(all, page.Items...)

		return nil
	})
	if err != nil {
		if IsPaginationLimitExceeded(err) {
			return all, err
		}

		return nil, err
	}

	return all, nil
}

// PageResult carries one page of items or the error that ended iteration.
type PageResult[T any] struct {
	Items []T
	Err   error
}

// StreamPages fetches pages strictly one at a time and delivers each on the
// returned channel as soon as it arrives. The channel is closed after the
// last page or the first error.
func StreamPages[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams, options *PaginationOptions) <-chan PageResult[T] {
	opts := options.withDefaults()
	results := make(chan PageResult[T], constants.StreamBufferSize)

	go func() {
		defer close(results)

		err := walkPages(ctx, client, path, params, opts, func(page *ListResponse[T]) error {
			select {
			case results <- PageResult[T]{Items: page.Items}:
				return nil
			case <-ctx.Done():
				return fmt.Errorf("streaming pages: %w", ctx.Err())
			}
		})
		if err != nil {
			select {
			case results <- PageResult[T]{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return results
}

// PaginationIterator walks a paginated collection item by item, fetching the
// next page only when the current one is exhausted.
type PaginationIterator[T any] struct {
	ctx    context.Context
	client PaginationClient[T]
	path   string
	params *QueryParams
	buffer []T
	index  int
	pages  int
	done   bool
	err    error
}

// NewPaginationIterator creates an iterator over every item reachable from
// path. The first page is not fetched until the iterator is first used.
func NewPaginationIterator[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams) *PaginationIterator[T] {
	if params == nil {
		params = NewQueryParams()
	} else {
		params = params.Clone()
	}

	return &PaginationIterator[T]{
		ctx:    ctx,
		client: client,
		path:   path,
		params: params,
	}
}

// HasNext reports whether another item is available, fetching the next page
// if needed. It returns false once iteration is exhausted or a fetch failed;
// Next reports the failure.
func (it *PaginationIterator[T]) HasNext() bool {
	if it.index < len(it.buffer) {
		return true
	}

	if it.done {
		return false
	}

	it.fetch()

	return it.index < len(it.buffer)
}

// Next returns the next item. After the last item it returns ErrNoMoreItems,
// or the error that ended iteration early.
func (it *PaginationIterator[T]) Next() (T, error) {
	var zero T

	if !it.HasNext() {
		if it.err != nil {
			return zero, it.err
		}

		return zero, ErrNoMoreItems
	}

	item := it.buffer[it.index]
	it.index++

	return item, nil
}

// All fetches every remaining item and returns them in order.
func (it *PaginationIterator[T]) All() ([]T, error) {
	var all []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return nil, err
		}

		all = append(all, item)
	}

	if it.err != nil {
		return nil, it.err
	}

	return all, nil
}

// ForEach invokes fn for every remaining item, stopping at the first error
// from fn or from a page fetch.
func (it *PaginationIterator[T]) ForEach(fn func(item T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return it.err
}

func (it *PaginationIterator[T]) fetch() {
	if it.pages >= constants.DefaultMaxPages {
		it.done = true
		it.err = &PaginationLimitError{Pages: it.pages, MaxPages: constants.DefaultMaxPages}

		return
	}

	page, err := it.client.ListPage(it.ctx, it.path, it.params)
	if err != nil {
		it.done = true
		it.err = err

		return
	}

	it.pages++
	it.buffer = page.Items
	it.index = 0

	fields := it.params.FieldNames()

	switch {
	case len(page.Items) == 0:
		it.done = true
	case fields.Mode == PageModeOffset:
		if it.params.Limit > 0 && len(page.Items) < it.params.Limit {
			it.done = true

			return
		}

		it.params = it.params.Clone().WithOffset(it.params.Offset + len(page.Items))
	case page.NextCursor == nil || *page.NextCursor == "":
		it.done = true
	default:
		it.params = it.params.Clone().WithCursor(*page.NextCursor)
	}
}
