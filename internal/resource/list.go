package resource

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// PageSizes are the page sizes a user can pick from.
var PageSizes = []int{10, 20, 50, 100}

// DefaultPageSize is used when none is configured.
const DefaultPageSize = 20

// List is the state of a collection screen: the loaded items plus the
// client-side search, filters and pagination over them. Searching,
// filtering and paging never touch the network.
type List struct {
	schema  *Schema
	backend Backend

	items  []Record
	err    error
	loaded bool

	search   string
	filters  map[string]string
	page     int
	pageSize int
}

// NewList creates an empty list for schema.
func NewList(schema *Schema, backend Backend, pageSize int) *List {
	if !validPageSize(pageSize) {
		pageSize = DefaultPageSize
	}
	return &List{
		schema:   schema,
		backend:  backend,
		filters:  map[string]string{},
		page:     1,
		pageSize: pageSize,
	}
}

// Schema returns the list's resource schema
func (l *List) Schema() *Schema { return l.schema }

// Fetch gets the collection without touching list state.
func (l *List) Fetch(ctx context.Context) ([]Record, error) {
	items, err := fetchCollection(ctx, l.backend, l.schema.Path, l.schema.Query)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", strings.ToLower(l.schema.Title), err)
	}
	return items, nil
}

// Apply installs a fetch result. A failed load clears the list so stale
// rows are never shown as current; the error is kept for the notice.
func (l *List) Apply(items []Record, err error) {
	l.loaded = true
	l.err = err
	if err != nil {
		l.items = nil
	} else {
		l.items = items
	}
	l.clampPage()
}

// Load fetches and installs the collection.
func (l *List) Load(ctx context.Context) error {
	items, err := l.Fetch(ctx)
	l.Apply(items, err)
	return err
}

// Loaded reports whether a load has completed, successfully or not.
func (l *List) Loaded() bool { return l.loaded }

// Err returns the error of the last load
func (l *List) Err() error { return l.err }

// Items returns every loaded record, unfiltered.
func (l *List) Items() []Record { return l.items }

// Search returns the current search term
func (l *List) Search() string { return l.search }

// SetSearch changes the search term and goes back to the first page.
func (l *List) SetSearch(term string) {
	l.search = strings.TrimSpace(term)
	l.page = 1
}

// Filter returns the active filter value for field.
func (l *List) Filter(field string) string { return l.filters[field] }

// SetFilter restricts the list to records whose field equals value.
// An empty value removes the filter. The page goes back to 1.
func (l *List) SetFilter(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(l.filters, field)
	} else {
		l.filters[field] = value
	}
	l.page = 1
}

// ClearFilters removes every filter and the search term.
func (l *List) ClearFilters() {
	l.filters = map[string]string{}
	l.search = ""
	l.page = 1
}

// Visible returns the records matching the search and filters.
func (l *List) Visible() []Record {
	out := make([]Record, 0, len(l.items))
	for _, rec := range l.items {
		if l.matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (l *List) matches(rec Record) bool {
	for field, want := range l.filters {
		if !strings.EqualFold(rec.Text(field), want) {
			return false
		}
	}
	if l.search == "" {
		return true
	}
	term := strings.ToLower(l.search)
	fields := l.schema.SearchFields
	if len(fields) == 0 {
		fields = []string{"name"}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(rec.Text(f)), term) {
			return true
		}
	}
	return false
}

// PageNumber returns the current page, starting at 1.
func (l *List) PageNumber() int { return l.page }

// PageSize returns the number of rows per page.
func (l *List) PageSize() int { return l.pageSize }

// PageCount returns the number of pages of the visible records, at least 1.
func (l *List) PageCount() int {
	n := len(l.Visible())
	if n == 0 {
		return 1
	}
	return (n + l.pageSize - 1) / l.pageSize
}

// Page returns the visible records of the current page.
func (l *List) Page() []Record {
	visible := l.Visible()
	start := (l.page - 1) * l.pageSize
	if start >= len(visible) {
		return nil
	}
	end := start + l.pageSize
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end]
}

// SetPage moves to page n, clamped to the available pages.
func (l *List) SetPage(n int) {
	l.page = n
	l.clampPage()
}

// NextPage moves forward one page if there is one.
func (l *List) NextPage() { l.SetPage(l.page + 1) }

// PrevPage moves back one page if there is one.
func (l *List) PrevPage() { l.SetPage(l.page - 1) }

// SetPageSize changes the rows per page; n must be one of PageSizes.
func (l *List) SetPageSize(n int) error {
	if !validPageSize(n) {
		return fmt.Errorf("page size must be one of %v", PageSizes)
	}
	l.pageSize = n
	l.page = 1
	return nil
}

// CyclePageSize switches to the next entry of PageSizes.
func (l *List) CyclePageSize() {
	for i, n := range PageSizes {
		if n == l.pageSize {
			_ = l.SetPageSize(PageSizes[(i+1)%len(PageSizes)])
			return
		}
	}
	_ = l.SetPageSize(DefaultPageSize)
}

// PrepareCreate validates a draft and builds the POST for it.
func (l *List) PrepareCreate(draft Record) (Mutation, error) {
	if err := l.schema.Validate(draft); err != nil {
		return Mutation{}, err
	}
	body := l.schema.writable(draft)
	for k, v := range l.schema.Defaults {
		if _, ok := body[k]; !ok {
			body[k] = v
		}
	}
	return Mutation{Method: http.MethodPost, Path: l.schema.Path, Body: body}, nil
}

// ApplyCreate appends the record the server returned for a create.
// The submitted draft is never used: the server's copy carries the id
// and any computed fields.
func (l *List) ApplyCreate(rec Record, err error) error {
	if err != nil {
		return err
	}
	if _, ok := rec.ID(); !ok {
		return ErrNoRecord
	}
	l.items = append(l.items, rec)
	return nil
}

// Create validates, posts and appends the new record.
func (l *List) Create(ctx context.Context, draft Record) (Record, error) {
	m, err := l.PrepareCreate(draft)
	if err != nil {
		return nil, err
	}
	rec, err := m.Send(ctx, l.backend)
	if err != nil {
		return nil, err
	}
	return rec, l.ApplyCreate(rec, nil)
}

func (l *List) clampPage() {
	if l.page > l.PageCount() {
		l.page = l.PageCount()
	}
	if l.page < 1 {
		l.page = 1
	}
}

func validPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}
